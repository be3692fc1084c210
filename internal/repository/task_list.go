package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/mtlprog/clinictask/internal/domain"
)

// priorityRank mirrors domain.TaskPriority.Rank.
const priorityRank = "CASE priority WHEN 'high' THEN 1 WHEN 'normal' THEN 2 WHEN 'low' THEN 3 ELSE 4 END"

// List retrieves tasks with filters, ordering and pagination.
// An exclusion predicate cannot run in SQL, so when one is set every
// matching row is fetched and the page is cut after filtering.
func (r *TaskRepository) List(ctx context.Context, q domain.TaskQuery) (*domain.TaskPage, error) {
	if q.ClinicID == "" {
		return nil, fmt.Errorf("%w: clinic_id is required", domain.ErrValidation)
	}
	page := q.Page.Normalize()
	if q.Now.IsZero() {
		q.Now = time.Now()
	}

	qb := applyTaskFilter(psql.Select(taskColumns...).From("tasks"), q)
	qb = qb.
		OrderByClause("CASE WHEN status = ? AND due_date < ? THEN 0 ELSE 1 END", domain.TaskStatusPending, q.Now).
		OrderBy("due_date ASC NULLS LAST").
		OrderBy(priorityRank + " ASC").
		OrderBy("created_at ASC", "id ASC")

	if q.Exclude == nil {
		qb = qb.Limit(uint64(page.Limit)).Offset(uint64(page.Offset))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build List query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}

	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, err
	}

	if q.Exclude != nil {
		kept := tasks[:0]
		for _, t := range tasks {
			if !q.Exclude(t) {
				kept = append(kept, t)
			}
		}
		return domain.Paginate(kept, page), nil
	}

	countQuery, countArgs, err := applyTaskFilter(psql.Select("COUNT(*)").From("tasks"), q).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}

	if tasks == nil {
		tasks = []*domain.Task{}
	}
	return &domain.TaskPage{
		Items:   tasks,
		Total:   total,
		HasMore: page.Offset+len(tasks) < total,
	}, nil
}

// applyTaskFilter adds the clinic scope and the filter predicates.
func applyTaskFilter(qb sq.SelectBuilder, q domain.TaskQuery) sq.SelectBuilder {
	f := q.Filter
	qb = qb.Where(sq.Eq{"clinic_id": q.ClinicID})

	if len(f.Statuses) > 0 {
		qb = qb.Where(sq.Eq{"status": toStrings(f.Statuses)})
	}
	if len(f.Types) > 0 {
		qb = qb.Where(sq.Eq{"type": toStrings(f.Types)})
	}
	if len(f.Priorities) > 0 {
		qb = qb.Where(sq.Eq{"priority": toStrings(f.Priorities)})
	}
	if len(f.Sources) > 0 {
		qb = qb.Where(sq.Eq{"source": toStrings(f.Sources)})
	}
	if f.AssignedTo != nil {
		qb = qb.Where(sq.Eq{"assigned_to_user_id": *f.AssignedTo})
	}
	if f.PatientID != nil {
		qb = qb.Where(sq.Eq{"patient_id": *f.PatientID})
	}
	if query := strings.TrimSpace(f.Query); query != "" {
		pattern := containsPattern(query)
		qb = qb.Where(sq.Or{
			sq.ILike{"title": pattern},
			sq.ILike{"description": pattern},
		})
	}
	return qb
}

func toStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
