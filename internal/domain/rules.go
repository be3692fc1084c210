package domain

import (
	"fmt"
	"time"
)

// ReactivationRules govern how long a follow-up lineage keeps retrying.
type ReactivationRules struct {
	MaxAttempts              int
	DaysBetweenAttempts      int
	MarkColdAfterMaxAttempts bool
	InactivityDaysThreshold  int
}

// Validate rejects rules that would make a lineage run forever or never.
func (r *ReactivationRules) Validate() error {
	if r.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be >= 1, got %d", r.MaxAttempts)
	}
	if r.DaysBetweenAttempts < 1 {
		return fmt.Errorf("days_between_attempts must be >= 1, got %d", r.DaysBetweenAttempts)
	}
	if r.InactivityDaysThreshold < 1 {
		return fmt.Errorf("inactivity_days_threshold must be >= 1, got %d", r.InactivityDaysThreshold)
	}
	return nil
}

// NextAttemptDue returns the deadline of an attempt scheduled at from.
func (r *ReactivationRules) NextAttemptDue(from time.Time) time.Time {
	return from.AddDate(0, 0, r.DaysBetweenAttempts)
}

// InactiveSince returns the last-visit cutoff: patients seen before it are inactive.
func (r *ReactivationRules) InactiveSince(now time.Time) time.Time {
	return now.AddDate(0, 0, -r.InactivityDaysThreshold)
}

// FollowUpRules govern who receives automatically created tasks.
type FollowUpRules struct {
	AutoAssignRole string
	TriageUserID   string
}
