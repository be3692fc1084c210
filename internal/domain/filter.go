package domain

import (
	"strings"
	"time"
)

// TaskFilter holds all supported predicates for task listing.
// Empty slices and nil pointers match everything.
type TaskFilter struct {
	Statuses   []TaskStatus
	Types      []TaskType
	Priorities []TaskPriority
	Sources    []TaskSource
	AssignedTo *string
	PatientID  *string
	Query      string // case-insensitive substring of title or description
}

// Matches reports whether the task satisfies every predicate of the filter.
func (f TaskFilter) Matches(t *Task) bool {
	if len(f.Statuses) > 0 && !contains(f.Statuses, t.Status) {
		return false
	}
	if len(f.Types) > 0 && !contains(f.Types, t.Type) {
		return false
	}
	if len(f.Priorities) > 0 && !contains(f.Priorities, t.Priority) {
		return false
	}
	if len(f.Sources) > 0 && !contains(f.Sources, t.Source) {
		return false
	}
	if f.AssignedTo != nil && !t.IsAssignedTo(*f.AssignedTo) {
		return false
	}
	if f.PatientID != nil && (t.PatientID == nil || *t.PatientID != *f.PatientID) {
		return false
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		q = strings.ToLower(q)
		if !strings.Contains(strings.ToLower(t.Title), q) &&
			!strings.Contains(strings.ToLower(t.Description), q) {
			return false
		}
	}
	return true
}

func contains[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

// Page selects a window of an ordered listing.
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the page to supported bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// TaskQuery is a clinic-scoped listing request handed to a repository.
type TaskQuery struct {
	ClinicID string
	Filter   TaskFilter
	Page     Page
	Now      time.Time        // reference time for the overdue-first ordering
	Exclude  func(*Task) bool // applied before ordering and pagination
}

// TaskPage is one window of a listing.
type TaskPage struct {
	Items   []*Task
	Total   int
	HasMore bool
}

// Paginate cuts an already ordered slice to the requested window.
func Paginate(tasks []*Task, page Page) *TaskPage {
	page = page.Normalize()
	total := len(tasks)
	start := min(page.Offset, total)
	end := min(start+page.Limit, total)
	return &TaskPage{
		Items:   tasks[start:end],
		Total:   total,
		HasMore: end < total,
	}
}
