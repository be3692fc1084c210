package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mtlprog/clinictask/internal/domain"
)

// TaskService is the public mutation and query surface for tasks.
type TaskService struct {
	deps  Dependencies
	audit auditor
}

// NewTaskService creates a new TaskService.
func NewTaskService(deps Dependencies) *TaskService {
	return &TaskService{
		deps:  deps,
		audit: auditor{log: deps.Activity},
	}
}

// CreateTaskParams holds the user-supplied fields of a manual task.
type CreateTaskParams struct {
	ClinicID         string
	Title            string
	Description      string
	Type             domain.TaskType
	Priority         domain.TaskPriority
	Source           domain.TaskSource
	DueDate          *time.Time
	AssignedToUserID *string
	PatientID        *string
}

// CreateTask stores a task submitted by a user (or an assistant on their behalf).
func (s *TaskService) CreateTask(ctx context.Context, actor domain.Actor, params CreateTaskParams) (*domain.Task, error) {
	source := params.Source
	if source == "" {
		source = domain.TaskSourceManual
	}
	if source == domain.TaskSourceAlert {
		return nil, fmt.Errorf("%w: alert tasks are created by alert ingestion", domain.ErrValidation)
	}

	priority := params.Priority
	if priority == "" {
		priority = domain.TaskPriorityNormal
	}

	task := &domain.Task{
		ClinicID:          params.ClinicID,
		Title:             params.Title,
		Description:       params.Description,
		Type:              params.Type,
		Status:            domain.TaskStatusPending,
		Priority:          priority,
		Source:            source,
		DueDate:           params.DueDate,
		AssignedToUserID:  params.AssignedToUserID,
		PatientID:         params.PatientID,
		CreatedByUserID:   creatorID(actor),
		IsSystemGenerated: actor.IsSystem(),
		CreatedAt:         s.deps.now(),
	}
	if err := ValidateNewTask(task); err != nil {
		return nil, err
	}

	created, err := s.deps.Tasks.Create(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.audit.record(ctx, actor, domain.ActivityActionCreate, created, "")

	slog.Info("task created",
		"task_id", created.ID,
		"clinic_id", created.ClinicID,
		"type", created.Type,
		"source", created.Source,
	)

	return created, nil
}

// TaskDetail is a task together with its activity trail.
type TaskDetail struct {
	Task     *domain.Task
	Activity []*domain.ActivityEntry
}

// GetTask retrieves a task and its activity trail.
func (s *TaskService) GetTask(ctx context.Context, clinicID, taskID string) (*TaskDetail, error) {
	task, err := s.deps.Tasks.Get(ctx, clinicID, taskID)
	if err != nil {
		return nil, err
	}

	activity, err := s.deps.Activity.ListActivity(ctx, clinicID, domain.EntityTypeTask, taskID)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}

	return &TaskDetail{Task: task, Activity: activity}, nil
}

// UpdateStatus moves a task to newStatus. Terminal statuses never reopen.
func (s *TaskService) UpdateStatus(
	ctx context.Context,
	actor domain.Actor,
	clinicID, taskID string,
	newStatus domain.TaskStatus,
) (*domain.Task, error) {
	if !newStatus.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, newStatus)
	}

	var oldStatus domain.TaskStatus
	task, err := s.deps.Tasks.Update(ctx, clinicID, taskID, func(t *domain.Task) error {
		if err := CanTransitionStatus(t, newStatus); err != nil {
			return err
		}
		oldStatus = t.Status
		t.Status = newStatus
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.record(ctx, actor, domain.ActivityActionStatusChange, task,
		fmt.Sprintf("%s -> %s", oldStatus, newStatus))

	slog.Info("task status changed",
		"task_id", taskID,
		"clinic_id", clinicID,
		"old_status", oldStatus,
		"new_status", newStatus,
	)

	return task, nil
}

// Assign sets or clears the assignee. It is allowed in every status.
func (s *TaskService) Assign(
	ctx context.Context,
	actor domain.Actor,
	clinicID, taskID string,
	assigneeID *string,
) (*domain.Task, error) {
	if assigneeID != nil && *assigneeID == "" {
		assigneeID = nil
	}

	task, err := s.deps.Tasks.Update(ctx, clinicID, taskID, func(t *domain.Task) error {
		t.AssignedToUserID = assigneeID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.record(ctx, actor, domain.ActivityActionAssign, task, describeAssignee(assigneeID))

	slog.Info("task assigned",
		"task_id", taskID,
		"clinic_id", clinicID,
		"assignee_id", assigneeID,
	)

	return task, nil
}

// Snooze pushes the due date of a pending task to until.
// Snoozing a done or cancelled task changes nothing and is not an error.
func (s *TaskService) Snooze(
	ctx context.Context,
	actor domain.Actor,
	clinicID, taskID string,
	until time.Time,
) (*domain.Task, error) {
	now := s.deps.now()
	if !until.After(now) {
		return nil, fmt.Errorf("%w: snooze time %s is not in the future", domain.ErrValidation, until.Format(time.RFC3339))
	}

	skipped := false
	task, err := s.deps.Tasks.Update(ctx, clinicID, taskID, func(t *domain.Task) error {
		if t.Status.IsTerminal() {
			skipped = true
			return domain.ErrNoChange
		}
		t.SnoozedUntil = &until
		t.DueDate = &until
		return nil
	})
	if err != nil {
		return nil, err
	}

	if skipped {
		slog.Debug("snooze ignored for terminal task", "task_id", taskID, "status", task.Status)
		return task, nil
	}

	s.audit.record(ctx, actor, domain.ActivityActionUpdate, task,
		"snoozed until "+until.Format(time.RFC3339))

	slog.Info("task snoozed",
		"task_id", taskID,
		"clinic_id", clinicID,
		"until", until,
	)

	return task, nil
}

// HasOpenFollowUpTask reports whether a pending follow-up exists for the
// entity and kind. Callers may use it to skip emitting a duplicate trigger;
// creation itself is idempotent regardless.
func (s *TaskService) HasOpenFollowUpTask(
	ctx context.Context,
	clinicID, entityID string,
	kind domain.FollowUpKind,
) (bool, error) {
	if clinicID == "" || entityID == "" {
		return false, fmt.Errorf("%w: clinic_id and entity_id are required", domain.ErrValidation)
	}
	if !kind.IsValid() {
		return false, fmt.Errorf("%w: unknown follow-up kind %q", domain.ErrValidation, kind)
	}

	open, err := s.deps.Tasks.HasOpenFollowUp(ctx, domain.FollowUpKey{
		ClinicID:   clinicID,
		EntityType: kind.EntityType(),
		EntityID:   entityID,
		Kind:       kind,
	})
	if err != nil {
		return false, fmt.Errorf("check open follow-up: %w", err)
	}
	return open, nil
}

func creatorID(actor domain.Actor) string {
	if actor.IsSystem() {
		return domain.SystemActor.Name
	}
	return actor.UserID
}
