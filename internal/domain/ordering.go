package domain

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// CompareForListing orders tasks for every listing:
// overdue pending tasks first, then by due date ascending with undated
// tasks last, then by priority (high, normal, low). Creation time and id
// break the remaining ties so the order is deterministic.
func CompareForListing(a, b *Task, now time.Time) int {
	if ao, bo := a.IsOverdue(now), b.IsOverdue(now); ao != bo {
		if ao {
			return -1
		}
		return 1
	}

	switch {
	case a.DueDate == nil && b.DueDate != nil:
		return 1
	case a.DueDate != nil && b.DueDate == nil:
		return -1
	case a.DueDate != nil && b.DueDate != nil:
		if c := a.DueDate.Compare(*b.DueDate); c != 0 {
			return c
		}
	}

	if c := cmp.Compare(a.Priority.Rank(), b.Priority.Rank()); c != 0 {
		return c
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// SortForListing sorts tasks in place with CompareForListing.
func SortForListing(tasks []*Task, now time.Time) {
	slices.SortStableFunc(tasks, func(a, b *Task) int {
		return CompareForListing(a, b, now)
	})
}
