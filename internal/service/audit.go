package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mtlprog/clinictask/internal/domain"
)

// auditor writes activity entries for task mutations.
type auditor struct {
	log ActivityLog
}

// record emits one activity entry. The mutation it describes is already
// committed, so a failing sink is logged and does not fail the caller.
func (a auditor) record(
	ctx context.Context,
	actor domain.Actor,
	action domain.ActivityAction,
	task *domain.Task,
	detail string,
) {
	message := fmt.Sprintf("%s %q", action, task.Title)
	if detail != "" {
		message += ": " + detail
	}

	entry := &domain.ActivityEntry{
		ClinicID:    task.ClinicID,
		ActorName:   actor.Name,
		Action:      action,
		EntityType:  domain.EntityTypeTask,
		EntityID:    task.ID,
		EntityLabel: task.Title,
		Message:     message,
	}
	if !actor.IsSystem() {
		userID := actor.UserID
		entry.ActorUserID = &userID
	}
	if entry.ActorName == "" {
		entry.ActorName = domain.SystemActor.Name
	}

	if err := a.log.LogActivity(ctx, entry); err != nil {
		slog.Error("failed to log activity",
			"task_id", task.ID,
			"clinic_id", task.ClinicID,
			"action", action,
			"error", err,
		)
	}
}

func describeAssignee(userID *string) string {
	if userID == nil {
		return "unassigned"
	}
	return "assigned to " + *userID
}
