package domain

import (
	"fmt"
	"time"
)

// TaskStatus represents the status of a task in the state machine.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusDone      TaskStatus = "done"
	TaskStatusCancelled TaskStatus = "cancelled"
)

// IsTerminal returns true if the status is terminal (no transitions allowed).
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusDone || s == TaskStatusCancelled
}

// IsValid checks if the status is one of the allowed values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusDone, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// TaskType classifies the work a task represents.
type TaskType string

const (
	TaskTypeFollowUp    TaskType = "follow_up"
	TaskTypeAppointment TaskType = "appointment"
	TaskTypeLabs        TaskType = "labs"
	TaskTypeScan        TaskType = "scan"
	TaskTypeBilling     TaskType = "billing"
	TaskTypeOther       TaskType = "other"
)

// IsValid checks if the type is one of the allowed values.
func (t TaskType) IsValid() bool {
	switch t {
	case TaskTypeFollowUp, TaskTypeAppointment, TaskTypeLabs,
		TaskTypeScan, TaskTypeBilling, TaskTypeOther:
		return true
	default:
		return false
	}
}

// TaskPriority represents the priority level of a task.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityNormal TaskPriority = "normal"
	TaskPriorityHigh   TaskPriority = "high"
)

// IsValid checks if the priority is one of the allowed values.
func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityNormal, TaskPriorityHigh:
		return true
	default:
		return false
	}
}

// Rank orders priorities for listing: high sorts before normal before low.
func (p TaskPriority) Rank() int {
	switch p {
	case TaskPriorityHigh:
		return 1
	case TaskPriorityNormal:
		return 2
	case TaskPriorityLow:
		return 3
	default:
		return 4
	}
}

// TaskSource records where a task came from. It never changes after creation.
type TaskSource string

const (
	TaskSourceManual TaskSource = "manual"
	TaskSourceAlert  TaskSource = "alert"
	TaskSourceAI     TaskSource = "ai"
)

// IsValid checks if the source is one of the allowed values.
func (s TaskSource) IsValid() bool {
	switch s {
	case TaskSourceManual, TaskSourceAlert, TaskSourceAI:
		return true
	default:
		return false
	}
}

// FollowUpKind is the cause that opened a follow-up lineage.
type FollowUpKind string

const (
	FollowUpKindCancelled FollowUpKind = "cancelled"
	FollowUpKindNoShow    FollowUpKind = "no_show"
	FollowUpKindInactive  FollowUpKind = "inactive"
)

// Entity types linked from tasks.
const (
	EntityTypeAppointment = "appointment"
	EntityTypePatient     = "patient"
	EntityTypeLabResult   = "lab_result"
	EntityTypeTask        = "task"
)

// IsValid checks if the kind is one of the allowed values.
func (k FollowUpKind) IsValid() bool {
	switch k {
	case FollowUpKindCancelled, FollowUpKindNoShow, FollowUpKindInactive:
		return true
	default:
		return false
	}
}

// EntityType returns the kind of domain object a lineage of this kind hangs off.
func (k FollowUpKind) EntityType() string {
	if k == FollowUpKindInactive {
		return EntityTypePatient
	}
	return EntityTypeAppointment
}

// EntityRef links a task to the domain object that caused it.
type EntityRef struct {
	Type string
	ID   string
}

// FollowUpLineage marks a task as one attempt in a follow-up chain.
type FollowUpLineage struct {
	Kind    FollowUpKind
	Attempt int
}

// FollowUpKey identifies a lineage within a clinic. At most one pending
// task may exist per key.
type FollowUpKey struct {
	ClinicID   string
	EntityType string
	EntityID   string
	Kind       FollowUpKind
}

// String renders the key for logging and lock maps.
func (k FollowUpKey) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", k.ClinicID, k.EntityType, k.EntityID, k.Kind)
}

// Task represents a unit of clinic work.
type Task struct {
	ID                string
	ClinicID          string
	Title             string
	Description       string
	Type              TaskType
	Status            TaskStatus
	Priority          TaskPriority
	DueDate           *time.Time
	SnoozedUntil      *time.Time
	CreatedByUserID   string
	AssignedToUserID  *string
	PatientID         *string
	Source            TaskSource
	SourceID          *string
	Entity            *EntityRef
	FollowUp          *FollowUpLineage
	IsSystemGenerated bool
	CreatedAt         time.Time
	UpdatedAt         time.Time

	alert *AlertPayload
}

// AlertOrigin returns the alert payload when the task was ingested from an alert.
func (t *Task) AlertOrigin() (*AlertPayload, bool) {
	if t.Source != TaskSourceAlert || t.alert == nil {
		return nil, false
	}
	return t.alert, true
}

// SetAlertOrigin marks the task as alert-derived and attaches the payload.
func (t *Task) SetAlertOrigin(sourceID string, payload AlertPayload) {
	t.Source = TaskSourceAlert
	t.SourceID = &sourceID
	t.alert = &payload
}

// FollowUpKey returns the lineage key of a follow-up task.
// The second result is false for tasks outside any lineage.
func (t *Task) FollowUpKey() (FollowUpKey, bool) {
	if t.FollowUp == nil || t.Entity == nil || t.Entity.ID == "" {
		return FollowUpKey{}, false
	}
	return FollowUpKey{
		ClinicID:   t.ClinicID,
		EntityType: t.Entity.Type,
		EntityID:   t.Entity.ID,
		Kind:       t.FollowUp.Kind,
	}, true
}

// IsOpenFollowUp reports whether the task is the pending head of a lineage.
func (t *Task) IsOpenFollowUp() bool {
	_, ok := t.FollowUpKey()
	return ok && t.Status == TaskStatusPending
}

// IsOverdue reports whether a pending task is past its due date.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Status == TaskStatusPending && t.DueDate != nil && t.DueDate.Before(now)
}

// IsAssignedTo checks if the task is assigned to the given user.
func (t *Task) IsAssignedTo(userID string) bool {
	return t.AssignedToUserID != nil && *t.AssignedToUserID == userID
}

// Clone returns a deep copy so stores never hand out shared pointers.
func (t *Task) Clone() *Task {
	c := *t
	c.DueDate = cloneTime(t.DueDate)
	c.SnoozedUntil = cloneTime(t.SnoozedUntil)
	c.AssignedToUserID = cloneString(t.AssignedToUserID)
	c.PatientID = cloneString(t.PatientID)
	c.SourceID = cloneString(t.SourceID)
	if t.Entity != nil {
		e := *t.Entity
		c.Entity = &e
	}
	if t.FollowUp != nil {
		f := *t.FollowUp
		c.FollowUp = &f
	}
	if t.alert != nil {
		a := t.alert.clone()
		c.alert = &a
	}
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// CheckRequired reports the first missing field a stored task must carry.
func (t *Task) CheckRequired() error {
	switch {
	case t.ClinicID == "":
		return fmt.Errorf("%w: clinic_id is required", ErrValidation)
	case t.Title == "":
		return fmt.Errorf("%w: title is required", ErrValidation)
	case t.Type == "":
		return fmt.Errorf("%w: type is required", ErrValidation)
	}
	return nil
}
