package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mtlprog/clinictask/internal/domain"
)

// ActivityLog appends entries to a slice.
type ActivityLog struct {
	mu      sync.RWMutex
	entries []*domain.ActivityEntry
	now     func() time.Time
}

// NewActivityLog creates an empty log. nil now means time.Now.
func NewActivityLog(now func() time.Time) *ActivityLog {
	if now == nil {
		now = time.Now
	}
	return &ActivityLog{now: now}
}

// LogActivity stores a copy of entry, assigning its id and timestamp.
func (l *ActivityLog) LogActivity(_ context.Context, entry *domain.ActivityEntry) error {
	stored := *entry
	stored.ID = uuid.NewString()
	stored.CreatedAt = l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, &stored)
	entry.ID = stored.ID
	entry.CreatedAt = stored.CreatedAt
	return nil
}

// ListActivity returns the entries of one entity in insertion order.
func (l *ActivityLog) ListActivity(_ context.Context, clinicID, entityType, entityID string) ([]*domain.ActivityEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []*domain.ActivityEntry
	for _, entry := range l.entries {
		if entry.ClinicID == clinicID && entry.EntityType == entityType && entry.EntityID == entityID {
			c := *entry
			out = append(out, &c)
		}
	}
	return out, nil
}

// Entries returns a copy of every entry of a clinic.
func (l *ActivityLog) Entries(clinicID string) []domain.ActivityEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []domain.ActivityEntry
	for _, entry := range l.entries {
		if entry.ClinicID == clinicID {
			out = append(out, *entry)
		}
	}
	return out
}
