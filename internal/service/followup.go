package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mtlprog/clinictask/internal/domain"
)

// inactivitySweepConcurrency bounds the parallel follow-up creations of one sweep.
const inactivitySweepConcurrency = 4

// FollowUpPolicy drives follow-up lineages: opening them on domain events,
// advancing attempts and escalating exhausted ones.
type FollowUpPolicy struct {
	deps  Dependencies
	audit auditor
}

// NewFollowUpPolicy creates a new FollowUpPolicy.
func NewFollowUpPolicy(deps Dependencies) *FollowUpPolicy {
	return &FollowUpPolicy{
		deps:  deps,
		audit: auditor{log: deps.Activity},
	}
}

// FollowUpRequest opens (or finds) the lineage for one cause.
type FollowUpRequest struct {
	ClinicID  string
	PatientID string
	EntityID  string
	Kind      domain.FollowUpKind
	DueAt     time.Time
	Attempt   int // zero means 1
}

// NextAttemptResult describes one advance of a lineage.
type NextAttemptResult struct {
	Previous  *domain.Task
	Next      *domain.Task // nil when the lineage is exhausted
	Exhausted bool
}

// AppointmentEvent reports an appointment status change.
type AppointmentEvent struct {
	ClinicID      string
	PatientID     string
	AppointmentID string
	NewStatus     string
	OccurredAt    time.Time
}

// InactivityEvent reports the last visit of a patient.
type InactivityEvent struct {
	ClinicID    string
	PatientID   string
	LastVisitAt time.Time
}

// SweepResult summarizes one inactivity sweep.
type SweepResult struct {
	Scanned  int
	Created  int
	Existing int
	Failed   int
}

// CreateFollowUp returns the open task of the lineage, creating it when
// there is none. An existing open task is returned unchanged.
func (p *FollowUpPolicy) CreateFollowUp(
	ctx context.Context,
	actor domain.Actor,
	req FollowUpRequest,
) (*domain.Task, bool, error) {
	if err := validateFollowUpRequest(&req); err != nil {
		return nil, false, err
	}
	if req.Attempt == 0 {
		req.Attempt = 1
	}

	assignee, err := p.routeAssignee(ctx, req.ClinicID)
	if err != nil {
		return nil, false, err
	}

	key := domain.FollowUpKey{
		ClinicID:   req.ClinicID,
		EntityType: req.Kind.EntityType(),
		EntityID:   req.EntityID,
		Kind:       req.Kind,
	}

	task, created, err := p.deps.Tasks.CreateFollowUpIfAbsent(ctx, key, func() (*domain.Task, error) {
		now := p.deps.now()
		due := notBefore(req.DueAt, now)
		patientID := req.PatientID
		task := &domain.Task{
			ClinicID:          req.ClinicID,
			Title:             followUpTitle(req.Kind, req.Attempt),
			Description:       followUpDescription(req.Kind, req.EntityID),
			Type:              domain.TaskTypeFollowUp,
			Status:            domain.TaskStatusPending,
			Priority:          domain.TaskPriorityNormal,
			Source:            domain.TaskSourceManual,
			DueDate:           &due,
			AssignedToUserID:  assignee,
			PatientID:         &patientID,
			CreatedByUserID:   creatorID(actor),
			Entity:            &domain.EntityRef{Type: key.EntityType, ID: req.EntityID},
			FollowUp:          &domain.FollowUpLineage{Kind: req.Kind, Attempt: req.Attempt},
			IsSystemGenerated: true,
			CreatedAt:         now,
		}
		if err := ValidateNewTask(task); err != nil {
			return nil, err
		}
		return task, nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("create follow-up %s: %w", key, err)
	}

	if !created {
		slog.Debug("follow-up already open",
			"task_id", task.ID,
			"clinic_id", req.ClinicID,
			"kind", req.Kind,
			"entity_id", req.EntityID,
		)
		return task, false, nil
	}

	p.audit.record(ctx, actor, domain.ActivityActionCreate, task,
		fmt.Sprintf("attempt %d", task.FollowUp.Attempt))

	slog.Info("follow-up created",
		"task_id", task.ID,
		"clinic_id", req.ClinicID,
		"kind", req.Kind,
		"entity_id", req.EntityID,
		"attempt", task.FollowUp.Attempt,
	)

	return task, true, nil
}

// NextAttempt closes the current attempt of a lineage and schedules the
// next one, or escalates when the clinic's attempt budget is spent.
// Closing and scheduling happen in one atomic repository step.
func (p *FollowUpPolicy) NextAttempt(
	ctx context.Context,
	actor domain.Actor,
	clinicID, taskID string,
) (*NextAttemptResult, error) {
	current, err := p.deps.Tasks.Get(ctx, clinicID, taskID)
	if err != nil {
		return nil, err
	}
	if err := requireLineage(current); err != nil {
		return nil, err
	}

	rules, err := p.reactivationRules(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	assignee, err := p.routeAssignee(ctx, clinicID)
	if err != nil {
		return nil, err
	}

	now := p.deps.now()
	exhausted := false

	closed, successor, err := p.deps.Tasks.AdvanceFollowUp(ctx, clinicID, taskID,
		func(cur *domain.Task) (*domain.Task, error) {
			if err := requireLineage(cur); err != nil {
				return nil, err
			}
			if cur.Status != domain.TaskStatusPending {
				return nil, fmt.Errorf("%w: task %s is already %s", domain.ErrIllegalState, cur.ID, cur.Status)
			}

			next := cur.FollowUp.Attempt + 1
			if next > rules.MaxAttempts {
				exhausted = true
				if rules.MarkColdAfterMaxAttempts {
					if err := p.deps.Patients.MarkPatientCold(ctx, clinicID, *cur.PatientID); err != nil {
						return nil, fmt.Errorf("mark patient %s cold: %w", *cur.PatientID, err)
					}
				}
				return nil, nil
			}

			due := rules.NextAttemptDue(now)
			patientID := *cur.PatientID
			successor := &domain.Task{
				ClinicID:          cur.ClinicID,
				Title:             followUpTitle(cur.FollowUp.Kind, next),
				Description:       cur.Description,
				Type:              domain.TaskTypeFollowUp,
				Status:            domain.TaskStatusPending,
				Priority:          cur.Priority,
				Source:            cur.Source,
				DueDate:           &due,
				AssignedToUserID:  assignee,
				PatientID:         &patientID,
				CreatedByUserID:   creatorID(actor),
				Entity:            &domain.EntityRef{Type: cur.Entity.Type, ID: cur.Entity.ID},
				FollowUp:          &domain.FollowUpLineage{Kind: cur.FollowUp.Kind, Attempt: next},
				IsSystemGenerated: true,
				CreatedAt:         now,
			}
			if err := ValidateNewTask(successor); err != nil {
				return nil, err
			}
			return successor, nil
		})
	if err != nil {
		return nil, err
	}

	p.audit.record(ctx, actor, domain.ActivityActionStatusChange, closed,
		fmt.Sprintf("%s -> %s (attempt %d)", domain.TaskStatusPending, domain.TaskStatusDone, closed.FollowUp.Attempt))

	if exhausted {
		slog.Info("follow-up lineage exhausted",
			"task_id", closed.ID,
			"clinic_id", clinicID,
			"kind", closed.FollowUp.Kind,
			"attempt", closed.FollowUp.Attempt,
			"marked_cold", rules.MarkColdAfterMaxAttempts,
		)
		return &NextAttemptResult{Previous: closed, Exhausted: true}, nil
	}

	p.audit.record(ctx, actor, domain.ActivityActionCreate, successor,
		fmt.Sprintf("attempt %d", successor.FollowUp.Attempt))

	slog.Info("follow-up advanced",
		"task_id", successor.ID,
		"previous_task_id", closed.ID,
		"clinic_id", clinicID,
		"kind", successor.FollowUp.Kind,
		"attempt", successor.FollowUp.Attempt,
	)

	return &NextAttemptResult{Previous: closed, Next: successor}, nil
}

// HandleAppointmentStatusChange opens a follow-up for cancelled and no-show
// appointments. Other statuses are ignored.
func (p *FollowUpPolicy) HandleAppointmentStatusChange(
	ctx context.Context,
	event AppointmentEvent,
) (*domain.Task, bool, error) {
	kind := domain.FollowUpKind(event.NewStatus)
	switch kind {
	case domain.FollowUpKindCancelled, domain.FollowUpKindNoShow:
	case "":
		return nil, false, fmt.Errorf("%w: appointment status is required", domain.ErrValidation)
	default:
		slog.Debug("appointment status ignored",
			"clinic_id", event.ClinicID,
			"appointment_id", event.AppointmentID,
			"status", event.NewStatus,
		)
		return nil, false, nil
	}

	rules, err := p.reactivationRules(ctx, event.ClinicID)
	if err != nil {
		p.logTriggerFailure("appointment", event.ClinicID, event.AppointmentID, err)
		return nil, false, err
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = p.deps.now()
	}

	task, created, err := p.CreateFollowUp(ctx, domain.SystemActor, FollowUpRequest{
		ClinicID:  event.ClinicID,
		PatientID: event.PatientID,
		EntityID:  event.AppointmentID,
		Kind:      kind,
		DueAt:     rules.NextAttemptDue(occurredAt),
		Attempt:   1,
	})
	if err != nil {
		p.logTriggerFailure("appointment", event.ClinicID, event.AppointmentID, err)
		return nil, false, err
	}
	return task, created, nil
}

// HandlePatientInactive opens a reactivation follow-up once the patient's
// last visit is older than the clinic's inactivity threshold.
func (p *FollowUpPolicy) HandlePatientInactive(
	ctx context.Context,
	event InactivityEvent,
) (*domain.Task, bool, error) {
	if event.LastVisitAt.IsZero() {
		return nil, false, fmt.Errorf("%w: last visit is required", domain.ErrValidation)
	}

	rules, err := p.reactivationRules(ctx, event.ClinicID)
	if err != nil {
		p.logTriggerFailure("inactivity", event.ClinicID, event.PatientID, err)
		return nil, false, err
	}

	now := p.deps.now()
	if !event.LastVisitAt.Before(rules.InactiveSince(now)) {
		return nil, false, nil
	}

	task, created, err := p.CreateFollowUp(ctx, domain.SystemActor, FollowUpRequest{
		ClinicID:  event.ClinicID,
		PatientID: event.PatientID,
		EntityID:  event.PatientID,
		Kind:      domain.FollowUpKindInactive,
		DueAt:     rules.NextAttemptDue(now),
		Attempt:   1,
	})
	if err != nil {
		p.logTriggerFailure("inactivity", event.ClinicID, event.PatientID, err)
		return nil, false, err
	}
	return task, created, nil
}

// ProcessInactivePatients runs HandlePatientInactive for every patient of the
// clinic past the inactivity threshold. Individual failures do not stop the
// sweep; they are joined into the returned error.
func (p *FollowUpPolicy) ProcessInactivePatients(ctx context.Context, clinicID string) (*SweepResult, error) {
	rules, err := p.reactivationRules(ctx, clinicID)
	if err != nil {
		return nil, err
	}

	cutoff := rules.InactiveSince(p.deps.now())
	patients, err := p.deps.Patients.FindInactivePatients(ctx, clinicID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("find inactive patients: %w", err)
	}

	var (
		mu     sync.Mutex
		result = &SweepResult{Scanned: len(patients)}
		errs   []error
	)

	var g errgroup.Group
	g.SetLimit(inactivitySweepConcurrency)

	for _, patient := range patients {
		g.Go(func() error {
			_, created, err := p.HandlePatientInactive(ctx, InactivityEvent{
				ClinicID:    clinicID,
				PatientID:   patient.PatientID,
				LastVisitAt: patient.LastVisitAt,
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				result.Failed++
				errs = append(errs, fmt.Errorf("patient %s: %w", patient.PatientID, err))
			case created:
				result.Created++
			default:
				result.Existing++
			}
			return nil
		})
	}
	_ = g.Wait()

	slog.Info("inactivity sweep finished",
		"clinic_id", clinicID,
		"scanned", result.Scanned,
		"created", result.Created,
		"existing", result.Existing,
		"failed", result.Failed,
	)

	return result, errors.Join(errs...)
}

func (p *FollowUpPolicy) reactivationRules(ctx context.Context, clinicID string) (*domain.ReactivationRules, error) {
	rules, err := p.deps.Rules.ReactivationRules(ctx, clinicID)
	if err != nil {
		return nil, fmt.Errorf("reactivation rules for clinic %s: %w", clinicID, err)
	}
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("%w: clinic %s: %v", domain.ErrConfigFetch, clinicID, err)
	}
	return rules, nil
}

// routeAssignee resolves the clinic's follow-up routing to a user id.
// A clinic without an auto-assign role leaves follow-ups unassigned.
func (p *FollowUpPolicy) routeAssignee(ctx context.Context, clinicID string) (*string, error) {
	rules, err := p.deps.Rules.FollowUpRules(ctx, clinicID)
	if err != nil {
		return nil, fmt.Errorf("follow-up rules for clinic %s: %w", clinicID, err)
	}
	if rules.AutoAssignRole == "" {
		return nil, nil
	}

	userID, err := p.deps.Staff.UserWithRole(ctx, clinicID, rules.AutoAssignRole)
	if err != nil {
		return nil, fmt.Errorf("route follow-up to role %s: %w", rules.AutoAssignRole, err)
	}
	if userID == "" {
		return nil, nil
	}
	return &userID, nil
}

func (p *FollowUpPolicy) logTriggerFailure(trigger, clinicID, entityID string, err error) {
	slog.Error("follow-up trigger failed",
		"trigger", trigger,
		"clinic_id", clinicID,
		"entity_id", entityID,
		"error", err,
	)
}

// requireLineage rejects tasks that are not part of a follow-up lineage.
func requireLineage(task *domain.Task) error {
	if task.FollowUp == nil || task.Entity == nil || task.Entity.ID == "" ||
		task.PatientID == nil || *task.PatientID == "" {
		return fmt.Errorf("%w: task %s is not part of a follow-up lineage", domain.ErrIllegalState, task.ID)
	}
	return nil
}

func followUpTitle(kind domain.FollowUpKind, attempt int) string {
	var title string
	switch kind {
	case domain.FollowUpKindCancelled:
		title = "Reschedule cancelled appointment"
	case domain.FollowUpKindNoShow:
		title = "Contact patient after missed appointment"
	case domain.FollowUpKindInactive:
		title = "Reactivate inactive patient"
	default:
		title = "Follow up"
	}
	if attempt > 1 {
		title = fmt.Sprintf("%s (attempt %d)", title, attempt)
	}
	return title
}

func followUpDescription(kind domain.FollowUpKind, entityID string) string {
	return fmt.Sprintf("Follow-up for %s %s (%s)", kind.EntityType(), entityID, kind)
}
