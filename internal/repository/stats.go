package repository

import (
	"context"
	"fmt"

	"github.com/mtlprog/clinictask/internal/domain"
)

// Stats aggregates the clinic's tasks. Completion and cancellation are
// attributed to the period by the task's last update.
func (r *TaskRepository) Stats(ctx context.Context, clinicID string, period domain.StatsPeriod) (*domain.TaskStats, error) {
	stats := &domain.TaskStats{ByStatus: make(map[domain.TaskStatus]int)}

	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM tasks
		WHERE clinic_id = $1 AND created_at >= $2 AND created_at <= $3
	`, clinicID, period.Start, period.End).Scan(&stats.CreatedInPeriod)
	if err != nil {
		return nil, fmt.Errorf("count created tasks: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*)
		FROM tasks
		WHERE clinic_id = $1
		GROUP BY status
	`, clinicID)
	if err != nil {
		return nil, fmt.Errorf("query tasks by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status domain.TaskStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		stats.ByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status rows: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM tasks
		WHERE clinic_id = $1 AND status = $2 AND due_date < $3
	`, clinicID, domain.TaskStatusPending, period.End).Scan(&stats.OverdueCount)
	if err != nil {
		return nil, fmt.Errorf("count overdue tasks: %w", err)
	}

	assignees, err := r.assigneeStats(ctx, clinicID, period)
	if err != nil {
		return nil, err
	}
	stats.Assignees = assignees

	return stats, nil
}

func (r *TaskRepository) assigneeStats(ctx context.Context, clinicID string, period domain.StatsPeriod) ([]domain.AssigneeStats, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			assigned_to_user_id,
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'done' AND updated_at >= $2 AND updated_at <= $3),
			COUNT(*) FILTER (WHERE status = 'cancelled' AND updated_at >= $2 AND updated_at <= $3)
		FROM tasks
		WHERE clinic_id = $1 AND assigned_to_user_id IS NOT NULL
		GROUP BY assigned_to_user_id
		ORDER BY assigned_to_user_id
	`, clinicID, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("query assignee stats: %w", err)
	}
	defer rows.Close()

	var results []domain.AssigneeStats
	for rows.Next() {
		var result domain.AssigneeStats
		err := rows.Scan(
			&result.UserID,
			&result.Pending,
			&result.CompletedInPeriod,
			&result.CancelledInPeriod,
		)
		if err != nil {
			return nil, fmt.Errorf("scan assignee stats: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignee stats rows: %w", err)
	}

	return results, nil
}
