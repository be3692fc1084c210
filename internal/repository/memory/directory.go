package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mtlprog/clinictask/internal/domain"
)

type patientRecord struct {
	ref         domain.PatientRef
	lastVisitAt time.Time
	cold        bool
	coldMarks   int
}

// Directory is an in-memory patient registry and staff directory.
type Directory struct {
	mu       sync.RWMutex
	patients map[string]map[string]*patientRecord
	users    map[string]map[string]domain.UserRef
}

// NewDirectory creates an empty Directory.
func NewDirectory() *Directory {
	return &Directory{
		patients: make(map[string]map[string]*patientRecord),
		users:    make(map[string]map[string]domain.UserRef),
	}
}

// AddPatient registers or replaces a patient of a clinic.
func (d *Directory) AddPatient(clinicID string, patient domain.PatientRef, lastVisitAt time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.patients[clinicID] == nil {
		d.patients[clinicID] = make(map[string]*patientRecord)
	}
	d.patients[clinicID][patient.ID] = &patientRecord{ref: patient, lastVisitAt: lastVisitAt}
}

// AddUser registers or replaces a staff member of a clinic.
func (d *Directory) AddUser(clinicID string, user domain.UserRef) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.users[clinicID] == nil {
		d.users[clinicID] = make(map[string]domain.UserRef)
	}
	d.users[clinicID][user.ID] = user
}

// LookupPatients returns the known patients among ids.
func (d *Directory) LookupPatients(_ context.Context, clinicID string, ids []string) (map[string]domain.PatientRef, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	found := make(map[string]domain.PatientRef, len(ids))
	for _, id := range ids {
		if record, ok := d.patients[clinicID][id]; ok {
			found[id] = record.ref
		}
	}
	return found, nil
}

// FindInactivePatients returns patients last seen before lastVisitBefore
// who are not cold yet, oldest visit first.
func (d *Directory) FindInactivePatients(
	_ context.Context,
	clinicID string,
	lastVisitBefore time.Time,
) ([]domain.PatientActivity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var inactive []domain.PatientActivity
	for id, record := range d.patients[clinicID] {
		if record.cold || !record.lastVisitAt.Before(lastVisitBefore) {
			continue
		}
		inactive = append(inactive, domain.PatientActivity{PatientID: id, LastVisitAt: record.lastVisitAt})
	}
	slices.SortFunc(inactive, func(a, b domain.PatientActivity) int {
		if c := a.LastVisitAt.Compare(b.LastVisitAt); c != 0 {
			return c
		}
		return strings.Compare(a.PatientID, b.PatientID)
	})
	return inactive, nil
}

// MarkPatientCold flags the patient as cold.
func (d *Directory) MarkPatientCold(_ context.Context, clinicID, patientID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	record, ok := d.patients[clinicID][patientID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrPatientNotFound, patientID)
	}
	record.cold = true
	record.coldMarks++
	return nil
}

// IsCold reports whether the patient has been marked cold.
func (d *Directory) IsCold(clinicID, patientID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	record, ok := d.patients[clinicID][patientID]
	return ok && record.cold
}

// ColdMarks counts the MarkPatientCold calls for a patient.
func (d *Directory) ColdMarks(clinicID, patientID string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if record, ok := d.patients[clinicID][patientID]; ok {
		return record.coldMarks
	}
	return 0
}

// LookupUsers returns the known staff members among ids.
func (d *Directory) LookupUsers(_ context.Context, clinicID string, ids []string) (map[string]domain.UserRef, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	found := make(map[string]domain.UserRef, len(ids))
	for _, id := range ids {
		if user, ok := d.users[clinicID][id]; ok {
			found[id] = user
		}
	}
	return found, nil
}

// UserWithRole returns the lowest user id holding role, or "".
func (d *Directory) UserWithRole(_ context.Context, clinicID, role string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var ids []string
	for id, user := range d.users[clinicID] {
		if user.Role == role {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return "", nil
	}
	slices.Sort(ids)
	return ids[0], nil
}
