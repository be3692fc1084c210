// Package memory holds process-local implementations of the storage and
// directory contracts. They back single-process deployments and tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mtlprog/clinictask/internal/domain"
)

// errOpenFollowUpExists mirrors the unique index on open follow-ups.
var errOpenFollowUpExists = errors.New("open follow-up already exists")

// TaskStore keeps tasks in a map guarded by a RWMutex. Lineage and task
// level mutexes serialize the read-modify-write operations.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*domain.Task
	locks *keyedMutex
	now   func() time.Time
}

// NewTaskStore creates an empty store. now stamps updates; nil means time.Now.
func NewTaskStore(now func() time.Time) *TaskStore {
	if now == nil {
		now = time.Now
	}
	return &TaskStore{
		tasks: make(map[string]*domain.Task),
		locks: newKeyedMutex(),
		now:   now,
	}
}

// Create inserts a task and returns the stored copy.
func (s *TaskStore) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	stored, err := s.insert(task)
	if err != nil {
		return nil, err
	}
	return stored.Clone(), nil
}

// CreateFollowUpIfAbsent returns the open task of key or inserts the one build returns.
func (s *TaskStore) CreateFollowUpIfAbsent(
	ctx context.Context,
	key domain.FollowUpKey,
	build func() (*domain.Task, error),
) (*domain.Task, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	unlock := s.locks.Lock(lineageLockKey(key))
	defer unlock()

	if existing := s.findOpen(key); existing != nil {
		return existing, false, nil
	}

	task, err := build()
	if err != nil {
		return nil, false, err
	}
	if got, ok := task.FollowUpKey(); !ok || got != key {
		return nil, false, fmt.Errorf("%w: built task does not belong to lineage %s", domain.ErrValidation, key)
	}

	stored, err := s.insert(task)
	if errors.Is(err, errOpenFollowUpExists) {
		if existing := s.findOpen(key); existing != nil {
			return existing, false, nil
		}
	}
	if err != nil {
		return nil, false, err
	}
	return stored.Clone(), true, nil
}

// Get returns a copy of the task.
func (s *TaskStore) Get(_ context.Context, clinicID, taskID string) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, err := s.lookup(clinicID, taskID)
	if err != nil {
		return nil, err
	}
	return task.Clone(), nil
}

// Update applies mutate under the task's lock.
func (s *TaskStore) Update(
	ctx context.Context,
	clinicID, taskID string,
	mutate func(*domain.Task) error,
) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(taskLockKey(taskID))
	defer unlock()

	current, err := s.Get(ctx, clinicID, taskID)
	if err != nil {
		return nil, err
	}

	if err := mutate(current); err != nil {
		if errors.Is(err, domain.ErrNoChange) {
			return current, nil
		}
		return nil, err
	}

	if err := s.replace(current); err != nil {
		return nil, err
	}
	return current.Clone(), nil
}

// AdvanceFollowUp closes taskID and inserts the successor from step in one
// critical section.
func (s *TaskStore) AdvanceFollowUp(
	ctx context.Context,
	clinicID, taskID string,
	step func(current *domain.Task) (*domain.Task, error),
) (*domain.Task, *domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	snapshot, err := s.Get(ctx, clinicID, taskID)
	if err != nil {
		return nil, nil, err
	}
	if key, ok := snapshot.FollowUpKey(); ok {
		unlockLineage := s.locks.Lock(lineageLockKey(key))
		defer unlockLineage()
	}
	unlockTask := s.locks.Lock(taskLockKey(taskID))
	defer unlockTask()

	current, err := s.Get(ctx, clinicID, taskID)
	if err != nil {
		return nil, nil, err
	}

	successor, err := step(current.Clone())
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	current.Status = domain.TaskStatusDone
	current.UpdatedAt = now

	var next *domain.Task
	if successor != nil {
		if err := successor.CheckRequired(); err != nil {
			return nil, nil, err
		}
		next = s.prepare(successor, now)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous, ok := s.tasks[current.ID]
	if !ok {
		return nil, nil, domain.ErrTaskNotFound
	}
	s.tasks[current.ID] = current.Clone()
	if next != nil {
		if s.openConflict(next) {
			s.tasks[current.ID] = previous
			return nil, nil, fmt.Errorf("advance %s: %w", taskID, errOpenFollowUpExists)
		}
		s.tasks[next.ID] = next
		next = next.Clone()
	}

	return current, next, nil
}

// List filters, orders and pages the clinic's tasks.
func (s *TaskStore) List(_ context.Context, query domain.TaskQuery) (*domain.TaskPage, error) {
	if query.ClinicID == "" {
		return nil, fmt.Errorf("%w: clinic_id is required", domain.ErrValidation)
	}

	now := query.Now
	if now.IsZero() {
		now = s.now()
	}

	s.mu.RLock()
	matched := make([]*domain.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		if task.ClinicID != query.ClinicID || !query.Filter.Matches(task) {
			continue
		}
		if query.Exclude != nil && query.Exclude(task) {
			continue
		}
		matched = append(matched, task.Clone())
	}
	s.mu.RUnlock()

	domain.SortForListing(matched, now)
	return domain.Paginate(matched, query.Page), nil
}

// HasOpenFollowUp reports whether key has a pending task.
func (s *TaskStore) HasOpenFollowUp(_ context.Context, key domain.FollowUpKey) (bool, error) {
	return s.findOpen(key) != nil, nil
}

func (s *TaskStore) insert(task *domain.Task) (*domain.Task, error) {
	if err := task.CheckRequired(); err != nil {
		return nil, err
	}
	stored := s.prepare(task, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[stored.ID]; ok {
		return nil, fmt.Errorf("%w: task %s already exists", domain.ErrValidation, stored.ID)
	}
	if s.openConflict(stored) {
		return nil, errOpenFollowUpExists
	}
	s.tasks[stored.ID] = stored
	return stored, nil
}

// prepare fills server-assigned fields on a copy of task.
func (s *TaskStore) prepare(task *domain.Task, now time.Time) *domain.Task {
	stored := task.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = stored.CreatedAt
	return stored
}

func (s *TaskStore) replace(task *domain.Task) error {
	if task.DueDate != nil && task.DueDate.Before(task.CreatedAt) {
		return fmt.Errorf("%w: due date before creation", domain.ErrValidation)
	}
	task.UpdatedAt = s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[task.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	s.tasks[task.ID] = task.Clone()
	return nil
}

// lookup must be called with s.mu held.
func (s *TaskStore) lookup(clinicID, taskID string) (*domain.Task, error) {
	task, ok := s.tasks[taskID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if task.ClinicID != clinicID {
		return nil, fmt.Errorf("%w: task %s belongs to another clinic", domain.ErrValidation, taskID)
	}
	return task, nil
}

// findOpen returns a copy of the pending task of key, or nil.
func (s *TaskStore) findOpen(key domain.FollowUpKey) *domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, task := range s.tasks {
		if got, ok := task.FollowUpKey(); ok && got == key && task.Status == domain.TaskStatusPending {
			return task.Clone()
		}
	}
	return nil
}

// openConflict must be called with s.mu held.
func (s *TaskStore) openConflict(task *domain.Task) bool {
	key, ok := task.FollowUpKey()
	if !ok || task.Status != domain.TaskStatusPending {
		return false
	}
	for id, existing := range s.tasks {
		if id == task.ID || existing.Status != domain.TaskStatusPending {
			continue
		}
		if got, ok := existing.FollowUpKey(); ok && got == key {
			return true
		}
	}
	return false
}

func lineageLockKey(key domain.FollowUpKey) string {
	return "lineage:" + key.String()
}

func taskLockKey(taskID string) string {
	return "task:" + taskID
}
