package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/mtlprog/clinictask/internal/domain"
)

// Stats aggregates the clinic's tasks. Completion and cancellation are
// attributed to the period by the task's last update.
func (s *TaskStore) Stats(_ context.Context, clinicID string, period domain.StatsPeriod) (*domain.TaskStats, error) {
	stats := &domain.TaskStats{ByStatus: make(map[domain.TaskStatus]int)}
	byUser := make(map[string]*domain.AssigneeStats)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, task := range s.tasks {
		if task.ClinicID != clinicID {
			continue
		}
		stats.ByStatus[task.Status]++
		if period.Contains(task.CreatedAt) {
			stats.CreatedInPeriod++
		}
		if task.IsOverdue(period.End) {
			stats.OverdueCount++
		}

		if task.AssignedToUserID == nil {
			continue
		}
		userID := *task.AssignedToUserID
		a, ok := byUser[userID]
		if !ok {
			a = &domain.AssigneeStats{UserID: userID}
			byUser[userID] = a
		}
		switch {
		case task.Status == domain.TaskStatusPending:
			a.Pending++
		case task.Status == domain.TaskStatusDone && period.Contains(task.UpdatedAt):
			a.CompletedInPeriod++
		case task.Status == domain.TaskStatusCancelled && period.Contains(task.UpdatedAt):
			a.CancelledInPeriod++
		}
	}

	for _, a := range byUser {
		stats.Assignees = append(stats.Assignees, *a)
	}
	slices.SortFunc(stats.Assignees, func(a, b domain.AssigneeStats) int {
		return strings.Compare(a.UserID, b.UserID)
	})
	return stats, nil
}
