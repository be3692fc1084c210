package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mtlprog/clinictask/internal/domain"
)

// TaskListItem is a task joined with the display names of the people it references.
type TaskListItem struct {
	Task           *domain.Task
	PatientName    string
	PatientPhone   string
	AssignedToName string
	CreatedByName  string
	IsOverdue      bool
}

// TaskListPage is one window of the active task listing.
type TaskListPage struct {
	Items   []TaskListItem
	Total   int
	HasMore bool
	Limit   int
	Offset  int
}

// ListTasks returns the active tasks of a clinic matching filter, archived
// tasks excluded, ordered overdue first and enriched for display.
// Repository failures are returned, never turned into an empty page.
func (s *TaskService) ListTasks(
	ctx context.Context,
	clinicID string,
	filter domain.TaskFilter,
	page domain.Page,
) (*TaskListPage, error) {
	if clinicID == "" {
		return nil, fmt.Errorf("%w: clinic_id is required", domain.ErrValidation)
	}

	page = page.Normalize()
	now := s.deps.now()

	query := domain.TaskQuery{
		ClinicID: clinicID,
		Filter:   filter,
		Page:     page,
		Now:      now,
	}
	if s.deps.Archive != nil {
		query.Exclude = s.deps.Archive
	}

	result, err := s.deps.Tasks.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	items, err := s.enrich(ctx, clinicID, result.Items, now)
	if err != nil {
		return nil, err
	}

	return &TaskListPage{
		Items:   items,
		Total:   result.Total,
		HasMore: result.HasMore,
		Limit:   page.Limit,
		Offset:  page.Offset,
	}, nil
}

func (s *TaskService) enrich(
	ctx context.Context,
	clinicID string,
	tasks []*domain.Task,
	now time.Time,
) ([]TaskListItem, error) {
	patientIDs := make([]string, 0, len(tasks))
	userIDs := make([]string, 0, len(tasks)*2)
	for _, t := range tasks {
		if t.PatientID != nil {
			patientIDs = append(patientIDs, *t.PatientID)
		}
		if t.AssignedToUserID != nil {
			userIDs = append(userIDs, *t.AssignedToUserID)
		}
		if t.CreatedByUserID != "" {
			userIDs = append(userIDs, t.CreatedByUserID)
		}
	}

	patients := map[string]domain.PatientRef{}
	if len(patientIDs) > 0 {
		found, err := s.deps.Patients.LookupPatients(ctx, clinicID, dedupe(patientIDs))
		if err != nil {
			return nil, fmt.Errorf("lookup patients: %w", err)
		}
		patients = found
	}

	users := map[string]domain.UserRef{}
	if len(userIDs) > 0 {
		found, err := s.deps.Staff.LookupUsers(ctx, clinicID, dedupe(userIDs))
		if err != nil {
			return nil, fmt.Errorf("lookup users: %w", err)
		}
		users = found
	}

	items := make([]TaskListItem, 0, len(tasks))
	for _, t := range tasks {
		item := TaskListItem{
			Task:          t,
			CreatedByName: users[t.CreatedByUserID].Name,
			IsOverdue:     t.IsOverdue(now),
		}
		if t.PatientID != nil {
			patient := patients[*t.PatientID]
			item.PatientName = patient.Name
			item.PatientPhone = patient.Phone
		}
		if t.AssignedToUserID != nil {
			item.AssignedToName = users[*t.AssignedToUserID].Name
		}
		if item.CreatedByName == "" && t.CreatedByUserID == domain.SystemActor.Name {
			item.CreatedByName = domain.SystemActor.Name
		}
		items = append(items, item)
	}
	return items, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// AssigneeSummary is one staff member's workload with a display name.
type AssigneeSummary struct {
	domain.AssigneeStats
	Name string
}

// StatsSummary is the clinic dashboard view of the task inbox.
type StatsSummary struct {
	Period         domain.StatsPeriod
	Stats          *domain.TaskStats
	Assignees      []AssigneeSummary
	CompletionRate float64
}

// Stats summarizes the clinic's tasks for the window ending now.
func (s *TaskService) Stats(ctx context.Context, clinicID string, since time.Time) (*StatsSummary, error) {
	if clinicID == "" {
		return nil, fmt.Errorf("%w: clinic_id is required", domain.ErrValidation)
	}

	period := domain.StatsPeriod{Start: since, End: s.deps.now()}
	stats, err := s.deps.Tasks.Stats(ctx, clinicID, period)
	if err != nil {
		return nil, fmt.Errorf("task stats: %w", err)
	}

	ids := make([]string, 0, len(stats.Assignees))
	for _, a := range stats.Assignees {
		ids = append(ids, a.UserID)
	}
	users := map[string]domain.UserRef{}
	if len(ids) > 0 {
		users, err = s.deps.Staff.LookupUsers(ctx, clinicID, ids)
		if err != nil {
			return nil, fmt.Errorf("lookup users: %w", err)
		}
	}

	assignees := make([]AssigneeSummary, 0, len(stats.Assignees))
	for _, a := range stats.Assignees {
		assignees = append(assignees, AssigneeSummary{AssigneeStats: a, Name: users[a.UserID].Name})
	}

	return &StatsSummary{
		Period:         period,
		Stats:          stats,
		Assignees:      assignees,
		CompletionRate: stats.CompletionRate(),
	}, nil
}
