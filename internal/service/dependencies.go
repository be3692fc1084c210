package service

import (
	"context"
	"time"

	"github.com/mtlprog/clinictask/internal/domain"
)

// TaskRepository is the storage contract the engine runs against.
// Every method is clinic-scoped; touching a task of another clinic is a
// domain.ErrValidation.
type TaskRepository interface {
	// Create inserts a task and returns the stored copy.
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)

	// CreateFollowUpIfAbsent atomically returns the pending task for key or,
	// when there is none, inserts the task produced by build. The check and
	// the insert are serialized per key.
	CreateFollowUpIfAbsent(
		ctx context.Context,
		key domain.FollowUpKey,
		build func() (*domain.Task, error),
	) (task *domain.Task, created bool, err error)

	Get(ctx context.Context, clinicID, taskID string) (*domain.Task, error)

	// Update applies mutate to the current task under a row lock. If mutate
	// returns domain.ErrNoChange nothing is written and the current task is
	// returned without error.
	Update(ctx context.Context, clinicID, taskID string, mutate func(*domain.Task) error) (*domain.Task, error)

	// AdvanceFollowUp locks the lineage of taskID, hands the current task to
	// step and then, in one atomic write, marks it done and inserts the
	// successor step returned (if any). An error from step aborts everything.
	AdvanceFollowUp(
		ctx context.Context,
		clinicID, taskID string,
		step func(current *domain.Task) (*domain.Task, error),
	) (closed *domain.Task, successor *domain.Task, err error)

	List(ctx context.Context, query domain.TaskQuery) (*domain.TaskPage, error)

	HasOpenFollowUp(ctx context.Context, key domain.FollowUpKey) (bool, error)

	// Stats aggregates the clinic's tasks. Overdue is measured at period.End.
	Stats(ctx context.Context, clinicID string, period domain.StatsPeriod) (*domain.TaskStats, error)
}

// ActivityLog receives an audit record for every task mutation.
type ActivityLog interface {
	LogActivity(ctx context.Context, entry *domain.ActivityEntry) error
	ListActivity(ctx context.Context, clinicID, entityType, entityID string) ([]*domain.ActivityEntry, error)
}

// RulesProvider serves per-clinic configuration. It is consulted at decision
// time on every call; the engine never caches or defaults the result.
type RulesProvider interface {
	FollowUpRules(ctx context.Context, clinicID string) (*domain.FollowUpRules, error)
	ReactivationRules(ctx context.Context, clinicID string) (*domain.ReactivationRules, error)
}

// PatientRegistry is the patient side of the clinic directory.
type PatientRegistry interface {
	LookupPatients(ctx context.Context, clinicID string, ids []string) (map[string]domain.PatientRef, error)
	FindInactivePatients(ctx context.Context, clinicID string, lastVisitBefore time.Time) ([]domain.PatientActivity, error)
	MarkPatientCold(ctx context.Context, clinicID, patientID string) error
}

// StaffDirectory resolves staff names and role-based routing.
type StaffDirectory interface {
	LookupUsers(ctx context.Context, clinicID string, ids []string) (map[string]domain.UserRef, error)
	// UserWithRole returns the user that receives work routed to role,
	// or "" when nobody holds it.
	UserWithRole(ctx context.Context, clinicID, role string) (string, error)
}

// ArchivePredicate hides a task from active listings without deleting it.
type ArchivePredicate func(*domain.Task) bool

// Dependencies wires the collaborators shared by the task services.
type Dependencies struct {
	Tasks    TaskRepository
	Activity ActivityLog
	Rules    RulesProvider
	Patients PatientRegistry
	Staff    StaffDirectory
	Archive  ArchivePredicate // optional
	Now      func() time.Time // optional, defaults to time.Now
}

func (d Dependencies) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}
