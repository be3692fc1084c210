package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mtlprog/clinictask/internal/domain"
)

// AlertIngestor turns inbound clinical alerts into tasks.
type AlertIngestor struct {
	deps  Dependencies
	audit auditor
}

// NewAlertIngestor creates a new AlertIngestor.
func NewAlertIngestor(deps Dependencies) *AlertIngestor {
	return &AlertIngestor{
		deps:  deps,
		audit: auditor{log: deps.Activity},
	}
}

// Ingest creates the task for one alert. The deadline is measured from the
// alert's creation and the task is routed to the clinic's triage user.
func (a *AlertIngestor) Ingest(
	ctx context.Context,
	actor domain.Actor,
	clinicID string,
	alert *domain.Alert,
) (*domain.Task, error) {
	if err := validateAlert(clinicID, alert); err != nil {
		return nil, err
	}

	rules, err := a.deps.Rules.FollowUpRules(ctx, clinicID)
	if err != nil {
		slog.Error("alert ingestion failed", "alert_id", alert.ID, "clinic_id", clinicID, "error", err)
		return nil, fmt.Errorf("follow-up rules for clinic %s: %w", clinicID, err)
	}

	taskType := domain.TaskTypeFollowUp
	if alert.Type == domain.AlertTypeLab {
		taskType = domain.TaskTypeLabs
	}

	status := domain.TaskStatusPending
	if alert.Reviewed {
		status = domain.TaskStatusDone
	}

	due := AlertDueDate(alert)
	patientID := alert.PatientID

	task := &domain.Task{
		ClinicID:          clinicID,
		Title:             alertTitle(alert),
		Description:       alert.Message,
		Type:              taskType,
		Status:            status,
		Priority:          AlertPriority(alert.Severity),
		DueDate:           &due,
		PatientID:         &patientID,
		CreatedByUserID:   creatorID(actor),
		IsSystemGenerated: true,
		CreatedAt:         alert.CreatedAt,
	}
	if rules.TriageUserID != "" {
		triage := rules.TriageUserID
		task.AssignedToUserID = &triage
	}
	if alert.Type == domain.AlertTypeLab && alert.LabResultID != nil && *alert.LabResultID != "" {
		task.Entity = &domain.EntityRef{Type: domain.EntityTypeLabResult, ID: *alert.LabResultID}
	}
	task.SetAlertOrigin(alert.ID, alert.Payload())

	if err := ValidateNewTask(task); err != nil {
		return nil, err
	}

	created, err := a.deps.Tasks.Create(ctx, task)
	if err != nil {
		slog.Error("alert ingestion failed", "alert_id", alert.ID, "clinic_id", clinicID, "error", err)
		return nil, fmt.Errorf("create task for alert %s: %w", alert.ID, err)
	}

	a.audit.record(ctx, actor, domain.ActivityActionCreate, created,
		fmt.Sprintf("%s alert %s", alert.Severity, alert.ID))

	slog.Info("alert ingested",
		"task_id", created.ID,
		"alert_id", alert.ID,
		"clinic_id", clinicID,
		"severity", alert.Severity,
		"due_date", due,
	)

	return created, nil
}

func alertTitle(alert *domain.Alert) string {
	if alert.Type == domain.AlertTypeLab {
		if alert.LabTestName != nil && *alert.LabTestName != "" {
			return "Review lab result: " + *alert.LabTestName
		}
		return "Review lab result"
	}
	return "Answer patient question"
}
