package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/mtlprog/clinictask/internal/domain"
)

// statusTransitions lists the statuses reachable from each status.
// Same-state writes are accepted so retries stay idempotent.
var statusTransitions = map[domain.TaskStatus]map[domain.TaskStatus]bool{
	domain.TaskStatusPending: {
		domain.TaskStatusPending:   true,
		domain.TaskStatusDone:      true,
		domain.TaskStatusCancelled: true,
	},
	domain.TaskStatusDone:      {domain.TaskStatusDone: true},
	domain.TaskStatusCancelled: {domain.TaskStatusCancelled: true},
}

// CanTransitionStatus validates a status change against the transition table.
func CanTransitionStatus(task *domain.Task, newStatus domain.TaskStatus) error {
	if !newStatus.IsValid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrValidation, newStatus)
	}

	next, ok := statusTransitions[task.Status]
	if !ok {
		return fmt.Errorf("%w: task %s has unknown status %s", domain.ErrIllegalState, task.ID, task.Status)
	}
	if !next[newStatus] {
		return fmt.Errorf("%w: task %s cannot transition %s -> %s", domain.ErrIllegalState, task.ID, task.Status, newStatus)
	}
	return nil
}

// ValidateNewTask checks a task before it is handed to the repository.
func ValidateNewTask(task *domain.Task) error {
	if task.ClinicID == "" {
		return fmt.Errorf("%w: clinic_id is required", domain.ErrValidation)
	}
	if strings.TrimSpace(task.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if task.Type == "" {
		return fmt.Errorf("%w: type is required", domain.ErrValidation)
	}
	if !task.Type.IsValid() {
		return fmt.Errorf("%w: unknown type %q", domain.ErrValidation, task.Type)
	}
	if !task.Status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrValidation, task.Status)
	}
	if !task.Priority.IsValid() {
		return fmt.Errorf("%w: unknown priority %q", domain.ErrValidation, task.Priority)
	}
	if !task.Source.IsValid() {
		return fmt.Errorf("%w: unknown source %q", domain.ErrValidation, task.Source)
	}
	if task.FollowUp != nil {
		if task.Type != domain.TaskTypeFollowUp {
			return fmt.Errorf("%w: follow-up lineage on a %s task", domain.ErrValidation, task.Type)
		}
		if !task.FollowUp.Kind.IsValid() {
			return fmt.Errorf("%w: unknown follow-up kind %q", domain.ErrValidation, task.FollowUp.Kind)
		}
		if task.FollowUp.Attempt < 1 {
			return fmt.Errorf("%w: attempt must be >= 1, got %d", domain.ErrValidation, task.FollowUp.Attempt)
		}
		if task.Entity == nil || task.Entity.ID == "" {
			return fmt.Errorf("%w: follow-up task needs an entity", domain.ErrValidation)
		}
	}
	if task.DueDate != nil && !task.CreatedAt.IsZero() && task.DueDate.Before(task.CreatedAt) {
		return fmt.Errorf("%w: due date %s is before creation %s",
			domain.ErrValidation, task.DueDate.Format(time.RFC3339), task.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

// validateFollowUpRequest checks the trigger of a follow-up lineage.
func validateFollowUpRequest(req *FollowUpRequest) error {
	if req.ClinicID == "" {
		return fmt.Errorf("%w: clinic_id is required", domain.ErrValidation)
	}
	if req.PatientID == "" {
		return fmt.Errorf("%w: patient_id is required", domain.ErrValidation)
	}
	if req.EntityID == "" {
		return fmt.Errorf("%w: entity_id is required", domain.ErrValidation)
	}
	if !req.Kind.IsValid() {
		return fmt.Errorf("%w: unknown follow-up kind %q", domain.ErrValidation, req.Kind)
	}
	if req.Attempt < 0 {
		return fmt.Errorf("%w: attempt must be >= 1, got %d", domain.ErrValidation, req.Attempt)
	}
	return nil
}

// validateAlert checks an inbound alert before it becomes a task.
func validateAlert(clinicID string, alert *domain.Alert) error {
	if clinicID == "" {
		return fmt.Errorf("%w: clinic_id is required", domain.ErrValidation)
	}
	if alert.ID == "" {
		return fmt.Errorf("%w: alert id is required", domain.ErrValidation)
	}
	if !alert.Type.IsValid() {
		return fmt.Errorf("%w: unknown alert type %q", domain.ErrValidation, alert.Type)
	}
	if !alert.Severity.IsValid() {
		return fmt.Errorf("%w: unknown alert severity %q", domain.ErrValidation, alert.Severity)
	}
	if alert.PatientID == "" {
		return fmt.Errorf("%w: alert %s has no patient", domain.ErrValidation, alert.ID)
	}
	if alert.CreatedAt.IsZero() {
		return fmt.Errorf("%w: alert %s has no creation time", domain.ErrValidation, alert.ID)
	}
	return nil
}
