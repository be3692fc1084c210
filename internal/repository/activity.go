package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/clinictask/internal/domain"
)

// ActivityRepository handles database operations for the activity log.
type ActivityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(pool *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{pool: pool}
}

// LogActivity stores an activity entry and fills its ID and CreatedAt.
func (r *ActivityRepository) LogActivity(ctx context.Context, entry *domain.ActivityEntry) error {
	entry.ID = uuid.NewString()

	query, args, err := psql.
		Insert("activity_log").
		Columns(
			"id", "clinic_id", "actor_user_id", "actor_name", "action",
			"entity_type", "entity_id", "entity_label", "message",
		).
		Values(
			entry.ID,
			entry.ClinicID,
			entry.ActorUserID,
			entry.ActorName,
			entry.Action,
			entry.EntityType,
			entry.EntityID,
			entry.EntityLabel,
			entry.Message,
		).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&entry.CreatedAt); err != nil {
		return fmt.Errorf("create activity entry: %w", err)
	}
	return nil
}

// ListActivity retrieves the entries of one entity, oldest first.
func (r *ActivityRepository) ListActivity(
	ctx context.Context,
	clinicID, entityType, entityID string,
) ([]*domain.ActivityEntry, error) {
	query, args, err := psql.
		Select(
			"id", "clinic_id", "actor_user_id", "actor_name", "action",
			"entity_type", "entity_id", "entity_label", "message", "created_at",
		).
		From("activity_log").
		Where(sq.Eq{
			"clinic_id":   clinicID,
			"entity_type": entityType,
			"entity_id":   entityID,
		}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	var entries []*domain.ActivityEntry
	for rows.Next() {
		var entry domain.ActivityEntry
		err := rows.Scan(
			&entry.ID,
			&entry.ClinicID,
			&entry.ActorUserID,
			&entry.ActorName,
			&entry.Action,
			&entry.EntityType,
			&entry.EntityID,
			&entry.EntityLabel,
			&entry.Message,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan activity entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return entries, nil
}
