package dto

import (
	"time"

	"github.com/mtlprog/clinictask/internal/domain"
	"github.com/mtlprog/clinictask/internal/service"
)

// TaskListResponse represents a task in the list view.
type TaskListResponse struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Type             string        `json:"type"`
	Status           string        `json:"status"`
	Priority         string        `json:"priority"`
	Source           string        `json:"source"`
	DueDate          *time.Time    `json:"due_date"`
	SnoozedUntil     *time.Time    `json:"snoozed_until"`
	PatientID        *string       `json:"patient_id"`
	PatientName      string        `json:"patient_name,omitempty"`
	PatientPhone     string        `json:"patient_phone,omitempty"`
	AssignedToUserID *string       `json:"assigned_to_user_id"`
	AssignedToName   string        `json:"assigned_to_name,omitempty"`
	CreatedByUserID  string        `json:"created_by_user_id"`
	CreatedByName    string        `json:"created_by_name,omitempty"`
	FollowUp         *FollowUpInfo `json:"follow_up,omitempty"`
	IsOverdue        bool          `json:"is_overdue"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// TasksListResponse represents the response for GET /tasks.
type TasksListResponse struct {
	Tasks   []TaskListResponse `json:"tasks"`
	Total   int                `json:"total"`
	Limit   int                `json:"limit"`
	Offset  int                `json:"offset"`
	HasMore bool               `json:"has_more"`
}

// TaskDetailResponse represents full task details with its activity trail.
type TaskDetailResponse struct {
	Task     TaskDetail     `json:"task"`
	Activity []ActivityInfo `json:"activity"`
}

// TaskDetail represents the full task object.
type TaskDetail struct {
	ID                string               `json:"id"`
	ClinicID          string               `json:"clinic_id"`
	Title             string               `json:"title"`
	Description       string               `json:"description"`
	Type              string               `json:"type"`
	Status            string               `json:"status"`
	Priority          string               `json:"priority"`
	Source            string               `json:"source"`
	SourceID          *string              `json:"source_id,omitempty"`
	SourcePayload     *domain.AlertPayload `json:"source_payload,omitempty"`
	DueDate           *time.Time           `json:"due_date"`
	SnoozedUntil      *time.Time           `json:"snoozed_until"`
	PatientID         *string              `json:"patient_id"`
	AssignedToUserID  *string              `json:"assigned_to_user_id"`
	CreatedByUserID   string               `json:"created_by_user_id"`
	Entity            *EntityInfo          `json:"entity,omitempty"`
	FollowUp          *FollowUpInfo        `json:"follow_up,omitempty"`
	IsSystemGenerated bool                 `json:"is_system_generated"`
	IsOverdue         bool                 `json:"is_overdue"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// EntityInfo is the domain object a task was created for.
type EntityInfo struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// FollowUpInfo places a task in its follow-up lineage.
type FollowUpInfo struct {
	Kind    string `json:"kind"`
	Attempt int    `json:"attempt"`
}

// ActivityInfo represents an activity log entry.
type ActivityInfo struct {
	ID          string    `json:"id"`
	ActorUserID *string   `json:"actor_user_id"`
	ActorName   string    `json:"actor_name"`
	Action      string    `json:"action"`
	Message     string    `json:"message"`
	IsSystem    bool      `json:"is_system"`
	CreatedAt   time.Time `json:"created_at"`
}

// NextAttemptResponse represents the response for POST /tasks/:id/next-attempt.
type NextAttemptResponse struct {
	Previous  TaskDetail  `json:"previous"`
	Next      *TaskDetail `json:"next"`
	Exhausted bool        `json:"exhausted"`
}

// FollowUpEventResponse represents the result of a follow-up trigger.
// Task is null when the event did not call for a follow-up.
type FollowUpEventResponse struct {
	Task    *TaskDetail `json:"task"`
	Created bool        `json:"created"`
}

// OpenFollowUpResponse represents the response for GET /follow-ups/open.
type OpenFollowUpResponse struct {
	Open bool `json:"open"`
}

// StatsResponse represents the response for GET /stats.
type StatsResponse struct {
	Period      string          `json:"period"`
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
	Assignees   []AssigneeStats `json:"assignees"`
	Clinic      ClinicStats     `json:"clinic"`
}

// AssigneeStats represents the workload of one staff member.
type AssigneeStats struct {
	UserID            string `json:"user_id"`
	Name              string `json:"name"`
	Pending           int    `json:"pending"`
	CompletedInPeriod int    `json:"completed_in_period"`
	CancelledInPeriod int    `json:"cancelled_in_period"`
}

// ClinicStats represents clinic-wide task statistics.
type ClinicStats struct {
	TasksCreated          int            `json:"tasks_created"`
	TasksByStatus         map[string]int `json:"tasks_by_status"`
	OverdueCount          int            `json:"overdue_count"`
	CompletionRatePercent float64        `json:"completion_rate_percent"`
}

// ToTaskDetail converts a domain task to its API form.
func ToTaskDetail(task *domain.Task, now time.Time) TaskDetail {
	detail := TaskDetail{
		ID:                task.ID,
		ClinicID:          task.ClinicID,
		Title:             task.Title,
		Description:       task.Description,
		Type:              string(task.Type),
		Status:            string(task.Status),
		Priority:          string(task.Priority),
		Source:            string(task.Source),
		SourceID:          task.SourceID,
		DueDate:           task.DueDate,
		SnoozedUntil:      task.SnoozedUntil,
		PatientID:         task.PatientID,
		AssignedToUserID:  task.AssignedToUserID,
		CreatedByUserID:   task.CreatedByUserID,
		FollowUp:          toFollowUpInfo(task.FollowUp),
		IsSystemGenerated: task.IsSystemGenerated,
		IsOverdue:         task.IsOverdue(now),
		CreatedAt:         task.CreatedAt,
		UpdatedAt:         task.UpdatedAt,
	}
	if payload, ok := task.AlertOrigin(); ok {
		detail.SourcePayload = payload
	}
	if task.Entity != nil {
		detail.Entity = &EntityInfo{Type: task.Entity.Type, ID: task.Entity.ID}
	}
	return detail
}

// ToTaskDetailPtr is ToTaskDetail for optional tasks.
func ToTaskDetailPtr(task *domain.Task, now time.Time) *TaskDetail {
	if task == nil {
		return nil
	}
	detail := ToTaskDetail(task, now)
	return &detail
}

// ToTaskListResponse converts an enriched listing item.
func ToTaskListResponse(item service.TaskListItem) TaskListResponse {
	t := item.Task
	return TaskListResponse{
		ID:               t.ID,
		Title:            t.Title,
		Type:             string(t.Type),
		Status:           string(t.Status),
		Priority:         string(t.Priority),
		Source:           string(t.Source),
		DueDate:          t.DueDate,
		SnoozedUntil:     t.SnoozedUntil,
		PatientID:        t.PatientID,
		PatientName:      item.PatientName,
		PatientPhone:     item.PatientPhone,
		AssignedToUserID: t.AssignedToUserID,
		AssignedToName:   item.AssignedToName,
		CreatedByUserID:  t.CreatedByUserID,
		CreatedByName:    item.CreatedByName,
		FollowUp:         toFollowUpInfo(t.FollowUp),
		IsOverdue:        item.IsOverdue,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

// ToActivityInfo converts an activity log entry.
func ToActivityInfo(entry *domain.ActivityEntry) ActivityInfo {
	return ActivityInfo{
		ID:          entry.ID,
		ActorUserID: entry.ActorUserID,
		ActorName:   entry.ActorName,
		Action:      string(entry.Action),
		Message:     entry.Message,
		IsSystem:    entry.IsSystemEvent(),
		CreatedAt:   entry.CreatedAt,
	}
}

func toFollowUpInfo(lineage *domain.FollowUpLineage) *FollowUpInfo {
	if lineage == nil {
		return nil
	}
	return &FollowUpInfo{Kind: string(lineage.Kind), Attempt: lineage.Attempt}
}
