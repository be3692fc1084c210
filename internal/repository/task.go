package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/clinictask/internal/domain"
)

// taskColumns is the shared list of columns for task queries.
var taskColumns = []string{
	"id", "clinic_id", "title", "description", "type", "status", "priority",
	"due_date", "snoozed_until", "created_by_user_id", "assigned_to_user_id",
	"patient_id", "source", "source_id", "source_payload", "entity_type",
	"entity_id", "follow_up_kind", "attempt", "is_system_generated",
	"created_at", "updated_at",
}

// TaskRepository handles database operations for tasks.
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

// scanTask scans a single row into a Task struct.
func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		task         domain.Task
		payload      *domain.AlertPayload
		entityType   *string
		entityID     *string
		followUpKind *string
		attempt      *int
	)
	err := row.Scan(
		&task.ID,
		&task.ClinicID,
		&task.Title,
		&task.Description,
		&task.Type,
		&task.Status,
		&task.Priority,
		&task.DueDate,
		&task.SnoozedUntil,
		&task.CreatedByUserID,
		&task.AssignedToUserID,
		&task.PatientID,
		&task.Source,
		&task.SourceID,
		&payload,
		&entityType,
		&entityID,
		&followUpKind,
		&attempt,
		&task.IsSystemGenerated,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}

	if entityType != nil && entityID != nil {
		task.Entity = &domain.EntityRef{Type: *entityType, ID: *entityID}
	}
	if followUpKind != nil && attempt != nil {
		task.FollowUp = &domain.FollowUpLineage{Kind: domain.FollowUpKind(*followUpKind), Attempt: *attempt}
	}
	if payload != nil && task.SourceID != nil {
		task.SetAlertOrigin(*task.SourceID, *payload)
	}
	return &task, nil
}

// scanTasks scans multiple rows into a slice of Task structs.
func scanTasks(rows pgx.Rows) ([]*domain.Task, error) {
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return tasks, nil
}

// Create inserts a task and returns it with server fields populated.
func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	return r.insert(ctx, r.pool, task)
}

// Get retrieves a task of the clinic by ID.
func (r *TaskRepository) Get(ctx context.Context, clinicID, taskID string) (*domain.Task, error) {
	return r.get(ctx, r.pool, clinicID, taskID, false)
}

// Update applies mutate to the task while holding its row lock.
func (r *TaskRepository) Update(
	ctx context.Context,
	clinicID, taskID string,
	mutate func(*domain.Task) error,
) (*domain.Task, error) {
	var result *domain.Task
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := r.get(ctx, tx, clinicID, taskID, true)
		if err != nil {
			return err
		}

		if err := mutate(current); err != nil {
			if errors.Is(err, domain.ErrNoChange) {
				result = current
				return nil
			}
			return err
		}

		if err := r.save(ctx, tx, current); err != nil {
			return err
		}
		result = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *TaskRepository) get(ctx context.Context, q querier, clinicID, taskID string, forUpdate bool) (*domain.Task, error) {
	if _, err := uuid.Parse(taskID); err != nil {
		return nil, domain.ErrTaskNotFound
	}

	qb := psql.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": taskID})
	if forUpdate {
		qb = qb.Suffix("FOR UPDATE")
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get query for task %s: %w", taskID, err)
	}

	task, err := scanTask(q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, err
	}
	if task.ClinicID != clinicID {
		return nil, fmt.Errorf("%w: task %s belongs to another clinic", domain.ErrValidation, taskID)
	}
	return task, nil
}

// insert writes a new row. ID and CreatedAt are filled when empty.
func (r *TaskRepository) insert(ctx context.Context, q querier, task *domain.Task) (*domain.Task, error) {
	if err := task.CheckRequired(); err != nil {
		return nil, err
	}

	stored := task.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	stored.UpdatedAt = stored.CreatedAt

	var payload *domain.AlertPayload
	if p, ok := stored.AlertOrigin(); ok {
		payload = p
	}
	entityType, entityID := entityColumns(stored)
	kind, attempt := lineageColumns(stored)

	query, args, err := psql.
		Insert("tasks").
		Columns(taskColumns...).
		Values(
			stored.ID,
			stored.ClinicID,
			stored.Title,
			stored.Description,
			stored.Type,
			stored.Status,
			stored.Priority,
			stored.DueDate,
			stored.SnoozedUntil,
			stored.CreatedByUserID,
			stored.AssignedToUserID,
			stored.PatientID,
			stored.Source,
			stored.SourceID,
			payload,
			entityType,
			entityID,
			kind,
			attempt,
			stored.IsSystemGenerated,
			stored.CreatedAt,
			stored.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert query for task: %w", err)
	}

	if _, err := q.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert task: %w", mapWriteError(err))
	}
	return stored, nil
}

// save writes the mutable columns of task and refreshes UpdatedAt.
func (r *TaskRepository) save(ctx context.Context, q querier, task *domain.Task) error {
	query, args, err := psql.
		Update("tasks").
		Set("title", task.Title).
		Set("description", task.Description).
		Set("status", task.Status).
		Set("priority", task.Priority).
		Set("due_date", task.DueDate).
		Set("snoozed_until", task.SnoozedUntil).
		Set("assigned_to_user_id", task.AssignedToUserID).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": task.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update query for task %s: %w", task.ID, err)
	}

	if err := q.QueryRow(ctx, query, args...).Scan(&task.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTaskNotFound
		}
		return fmt.Errorf("update task %s: %w", task.ID, mapWriteError(err))
	}
	return nil
}

func entityColumns(task *domain.Task) (*string, *string) {
	if task.Entity == nil {
		return nil, nil
	}
	entityType, entityID := task.Entity.Type, task.Entity.ID
	return &entityType, &entityID
}

func lineageColumns(task *domain.Task) (*string, *int) {
	if task.FollowUp == nil {
		return nil, nil
	}
	kind, attempt := string(task.FollowUp.Kind), task.FollowUp.Attempt
	return &kind, &attempt
}
