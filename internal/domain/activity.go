package domain

import "time"

// ActivityAction names the mutation recorded in the activity log.
type ActivityAction string

const (
	ActivityActionCreate       ActivityAction = "create"
	ActivityActionAssign       ActivityAction = "assign"
	ActivityActionStatusChange ActivityAction = "status_change"
	ActivityActionUpdate       ActivityAction = "update"
)

// ActivityEntry represents an audit log entry for a task mutation.
type ActivityEntry struct {
	ID          string
	ClinicID    string
	ActorUserID *string // nil for system events
	ActorName   string
	Action      ActivityAction
	EntityType  string
	EntityID    string
	EntityLabel string
	Message     string
	CreatedAt   time.Time
}

// IsSystemEvent returns true if the entry was produced by automation.
func (e *ActivityEntry) IsSystemEvent() bool {
	return e.ActorUserID == nil
}

// Actor is the identity on whose behalf a mutation runs. The zero value
// is the system.
type Actor struct {
	UserID string
	Name   string
}

// SystemActor is used by event-driven automation.
var SystemActor = Actor{Name: "system"}

// IsSystem reports whether no user is attached to the actor.
func (a Actor) IsSystem() bool {
	return a.UserID == ""
}
