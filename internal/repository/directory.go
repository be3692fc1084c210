package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/clinictask/internal/domain"
)

// DirectoryRepository reads patients and staff and records cold patients.
type DirectoryRepository struct {
	pool *pgxpool.Pool
}

// NewDirectoryRepository creates a new DirectoryRepository.
func NewDirectoryRepository(pool *pgxpool.Pool) *DirectoryRepository {
	return &DirectoryRepository{pool: pool}
}

// LookupPatients returns the known patients among ids.
func (r *DirectoryRepository) LookupPatients(
	ctx context.Context,
	clinicID string,
	ids []string,
) (map[string]domain.PatientRef, error) {
	found := make(map[string]domain.PatientRef, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	query, args, err := psql.
		Select("id", "name", "phone").
		From("patients").
		Where(sq.Eq{"clinic_id": clinicID, "id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query patients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.PatientRef
		if err := rows.Scan(&p.ID, &p.Name, &p.Phone); err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		found[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return found, nil
}

// FindInactivePatients returns patients last seen before lastVisitBefore
// who are not cold yet, oldest visit first.
func (r *DirectoryRepository) FindInactivePatients(
	ctx context.Context,
	clinicID string,
	lastVisitBefore time.Time,
) ([]domain.PatientActivity, error) {
	query, args, err := psql.
		Select("id", "last_visit_at").
		From("patients").
		Where(sq.Eq{"clinic_id": clinicID, "is_cold": false}).
		Where(sq.Lt{"last_visit_at": lastVisitBefore}).
		OrderBy("last_visit_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query inactive patients: %w", err)
	}
	defer rows.Close()

	var inactive []domain.PatientActivity
	for rows.Next() {
		var p domain.PatientActivity
		if err := rows.Scan(&p.PatientID, &p.LastVisitAt); err != nil {
			return nil, fmt.Errorf("scan patient activity: %w", err)
		}
		inactive = append(inactive, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return inactive, nil
}

// MarkPatientCold flags the patient as cold.
func (r *DirectoryRepository) MarkPatientCold(ctx context.Context, clinicID, patientID string) error {
	query, args, err := psql.
		Update("patients").
		Set("is_cold", true).
		Set("cold_marked_at", sq.Expr("NOW()")).
		Where(sq.Eq{"clinic_id": clinicID, "id": patientID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark patient cold: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrPatientNotFound, patientID)
	}
	return nil
}

// LookupUsers returns the known staff members among ids.
func (r *DirectoryRepository) LookupUsers(
	ctx context.Context,
	clinicID string,
	ids []string,
) (map[string]domain.UserRef, error) {
	found := make(map[string]domain.UserRef, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	query, args, err := psql.
		Select("id", "name", "role").
		From("users").
		Where(sq.Eq{"clinic_id": clinicID, "id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u domain.UserRef
		if err := rows.Scan(&u.ID, &u.Name, &u.Role); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		found[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return found, nil
}

// UserWithRole returns the lowest user id holding role, or "".
func (r *DirectoryRepository) UserWithRole(ctx context.Context, clinicID, role string) (string, error) {
	query, args, err := psql.
		Select("id").
		From("users").
		Where(sq.Eq{"clinic_id": clinicID, "role": role}).
		OrderBy("id ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build query: %w", err)
	}

	var id string
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("query user with role %s: %w", role, err)
	}
	return id, nil
}

// UpsertPatient inserts or refreshes a patient record.
func (r *DirectoryRepository) UpsertPatient(
	ctx context.Context,
	clinicID string,
	patient domain.PatientRef,
	lastVisitAt time.Time,
) error {
	var lastVisit *time.Time
	if !lastVisitAt.IsZero() {
		lastVisit = &lastVisitAt
	}

	query, args, err := psql.
		Insert("patients").
		Columns("id", "clinic_id", "name", "phone", "last_visit_at").
		Values(patient.ID, clinicID, patient.Name, patient.Phone, lastVisit).
		Suffix("ON CONFLICT (clinic_id, id) DO UPDATE SET name = EXCLUDED.name, phone = EXCLUDED.phone, last_visit_at = EXCLUDED.last_visit_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert patient %s: %w", patient.ID, err)
	}
	return nil
}

// UpsertUser inserts or refreshes a staff member.
func (r *DirectoryRepository) UpsertUser(ctx context.Context, clinicID string, user domain.UserRef) error {
	query, args, err := psql.
		Insert("users").
		Columns("id", "clinic_id", "name", "role").
		Values(user.ID, clinicID, user.Name, user.Role).
		Suffix("ON CONFLICT (clinic_id, id) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert user %s: %w", user.ID, err)
	}
	return nil
}
