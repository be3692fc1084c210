package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/mtlprog/clinictask/internal/domain"
)

// CreateFollowUpIfAbsent returns the pending task of key or inserts the one
// build returns. A transaction-scoped advisory lock on the key serializes
// callers; the partial unique index is the backstop.
func (r *TaskRepository) CreateFollowUpIfAbsent(
	ctx context.Context,
	key domain.FollowUpKey,
	build func() (*domain.Task, error),
) (*domain.Task, bool, error) {
	var (
		result  *domain.Task
		created bool
	)
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockLineage(ctx, tx, key); err != nil {
			return err
		}

		existing, err := r.findOpen(ctx, tx, key)
		if err == nil {
			result = existing
			return nil
		}
		if !errors.Is(err, domain.ErrTaskNotFound) {
			return err
		}

		task, err := build()
		if err != nil {
			return err
		}
		if got, ok := task.FollowUpKey(); !ok || got != key {
			return fmt.Errorf("%w: built task does not belong to lineage %s", domain.ErrValidation, key)
		}

		inserted, err := r.insert(ctx, tx, task)
		if err != nil {
			return err
		}
		result, created = inserted, true
		return nil
	})
	if errors.Is(err, errOpenFollowUpExists) {
		if existing, findErr := r.findOpen(ctx, r.pool, key); findErr == nil {
			return existing, false, nil
		}
	}
	if err != nil {
		return nil, false, err
	}
	return result, created, nil
}

// AdvanceFollowUp marks taskID done and inserts the successor step returns,
// both in one transaction holding the lineage lock and the row lock.
func (r *TaskRepository) AdvanceFollowUp(
	ctx context.Context,
	clinicID, taskID string,
	step func(current *domain.Task) (*domain.Task, error),
) (*domain.Task, *domain.Task, error) {
	snapshot, err := r.Get(ctx, clinicID, taskID)
	if err != nil {
		return nil, nil, err
	}

	var closed, successor *domain.Task
	err = withTx(ctx, r.pool, func(tx pgx.Tx) error {
		if key, ok := snapshot.FollowUpKey(); ok {
			if err := lockLineage(ctx, tx, key); err != nil {
				return err
			}
		}

		current, err := r.get(ctx, tx, clinicID, taskID, true)
		if err != nil {
			return err
		}

		next, err := step(current.Clone())
		if err != nil {
			return err
		}

		current.Status = domain.TaskStatusDone
		if err := r.save(ctx, tx, current); err != nil {
			return err
		}
		closed = current

		if next != nil {
			inserted, err := r.insert(ctx, tx, next)
			if err != nil {
				return err
			}
			successor = inserted
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return closed, successor, nil
}

// HasOpenFollowUp reports whether key has a pending task.
func (r *TaskRepository) HasOpenFollowUp(ctx context.Context, key domain.FollowUpKey) (bool, error) {
	_, err := r.findOpen(ctx, r.pool, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrTaskNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (r *TaskRepository) findOpen(ctx context.Context, q querier, key domain.FollowUpKey) (*domain.Task, error) {
	query, args, err := psql.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{
			"clinic_id":      key.ClinicID,
			"entity_type":    key.EntityType,
			"entity_id":      key.EntityID,
			"follow_up_kind": string(key.Kind),
			"status":         domain.TaskStatusPending,
		}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build open follow-up query: %w", err)
	}

	return scanTask(q.QueryRow(ctx, query, args...))
}

// lockLineage takes a transaction-scoped advisory lock on the lineage key.
func lockLineage(ctx context.Context, tx pgx.Tx, key domain.FollowUpKey) error {
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", key.String()); err != nil {
		return fmt.Errorf("lock lineage %s: %w", key, err)
	}
	return nil
}
