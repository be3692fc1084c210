package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mtlprog/clinictask/internal/domain"
	"github.com/mtlprog/clinictask/internal/handler/dto"
	"github.com/mtlprog/clinictask/internal/service"
)

// handleCreateTask creates a new task.
// @Summary Create a new task
// @Description Creates a pending task in the caller's clinic. Alert tasks are created through POST /alerts.
// @Tags tasks
// @Accept json
// @Produce json
// @Param X-Clinic-ID header string true "Clinic scope"
// @Param request body dto.CreateTaskRequest true "Task creation request"
// @Success 201 {object} dto.TaskDetail
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /tasks [post]
func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.taskService.CreateTask(r.Context(), scope.Actor, service.CreateTaskParams{
		ClinicID:         scope.ClinicID,
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		Type:             domain.TaskType(req.Type),
		Priority:         domain.TaskPriority(req.Priority),
		Source:           domain.TaskSource(req.Source),
		DueDate:          req.DueDate,
		AssignedToUserID: req.AssignedToUserID,
		PatientID:        req.PatientID,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ToTaskDetail(task, h.now()))
}

// handleGetTask retrieves task details with activity.
// @Summary Get task details
// @Description Get full task details including the activity trail
// @Tags tasks
// @Produce json
// @Param X-Clinic-ID header string true "Clinic scope"
// @Param id path string true "Task ID"
// @Success 200 {object} dto.TaskDetailResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /tasks/{id} [get]
func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}
	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}

	detail, err := h.taskService.GetTask(r.Context(), scope.ClinicID, taskID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	activity := make([]dto.ActivityInfo, len(detail.Activity))
	for i, entry := range detail.Activity {
		activity[i] = dto.ToActivityInfo(entry)
	}

	respondJSON(w, http.StatusOK, dto.TaskDetailResponse{
		Task:     dto.ToTaskDetail(detail.Task, h.now()),
		Activity: activity,
	})
}

// handleListTasks lists the active tasks of the clinic.
// @Summary List tasks
// @Description Overdue tasks first, then by due date, priority and creation. Archived tasks are hidden.
// @Tags tasks
// @Produce json
// @Param X-Clinic-ID header string true "Clinic scope"
// @Param status query string false "Comma-separated statuses"
// @Param type query string false "Comma-separated types"
// @Param priority query string false "Comma-separated priorities"
// @Param source query string false "Comma-separated sources"
// @Param assignee query string false "Assigned user ID"
// @Param patient_id query string false "Patient ID"
// @Param q query string false "Search in title and description"
// @Param limit query int false "Page size (default 50, max 200)"
// @Param offset query int false "Page offset"
// @Success 200 {object} dto.TasksListResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /tasks [get]
func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	filter, err := parseTaskFilter(query)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	page, err := parsePage(query)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	result, err := h.taskService.ListTasks(r.Context(), scope.ClinicID, filter, page)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	tasks := make([]dto.TaskListResponse, len(result.Items))
	for i, item := range result.Items {
		tasks[i] = dto.ToTaskListResponse(item)
	}

	respondJSON(w, http.StatusOK, dto.TasksListResponse{
		Tasks:   tasks,
		Total:   result.Total,
		Limit:   result.Limit,
		Offset:  result.Offset,
		HasMore: result.HasMore,
	})
}

// handleUpdateStatus moves a task to a new status.
// @Summary Change task status
// @Description Pending tasks may become done or cancelled. Terminal tasks never reopen.
// @Tags tasks
// @Accept json
// @Produce json
// @Param X-Clinic-ID header string true "Clinic scope"
// @Param id path string true "Task ID"
// @Param request body dto.UpdateStatusRequest true "New status"
// @Success 200 {object} dto.TaskDetail
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /tasks/{id}/status [patch]
func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}
	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}

	var req dto.UpdateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.taskService.UpdateStatus(r.Context(), scope.Actor, scope.ClinicID, taskID, domain.TaskStatus(req.Status))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskDetail(task, h.now()))
}

// handleAssignTask sets or clears the assignee.
// @Summary Assign task
// @Tags tasks
// @Accept json
// @Produce json
// @Param X-Clinic-ID header string true "Clinic scope"
// @Param id path string true "Task ID"
// @Param request body dto.AssignTaskRequest true "Assignee, null to clear"
// @Success 200 {object} dto.TaskDetail
// @Failure 404 {object} dto.ErrorResponse
// @Router /tasks/{id}/assignee [patch]
func (h *Handler) handleAssignTask(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}
	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}

	var req dto.AssignTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.taskService.Assign(r.Context(), scope.Actor, scope.ClinicID, taskID, req.AssignedToUserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskDetail(task, h.now()))
}

// handleSnoozeTask pushes the due date of a pending task.
// @Summary Snooze task
// @Description Done and cancelled tasks are returned unchanged.
// @Tags tasks
// @Accept json
// @Produce json
// @Param X-Clinic-ID header string true "Clinic scope"
// @Param id path string true "Task ID"
// @Param request body dto.SnoozeTaskRequest true "Snooze until"
// @Success 200 {object} dto.TaskDetail
// @Failure 404 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /tasks/{id}/snooze [post]
func (h *Handler) handleSnoozeTask(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}
	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}

	var req dto.SnoozeTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.taskService.Snooze(r.Context(), scope.Actor, scope.ClinicID, taskID, req.Until)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskDetail(task, h.now()))
}

// handleNextAttempt closes the current follow-up attempt and schedules the next.
// @Summary Advance follow-up
// @Description Closes the attempt and creates its successor, or escalates when attempts are exhausted.
// @Tags follow-ups
// @Produce json
// @Param X-Clinic-ID header string true "Clinic scope"
// @Param id path string true "Task ID"
// @Success 200 {object} dto.NextAttemptResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /tasks/{id}/next-attempt [post]
func (h *Handler) handleNextAttempt(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}
	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}

	result, err := h.followUpPolicy.NextAttempt(r.Context(), scope.Actor, scope.ClinicID, taskID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	now := h.now()
	respondJSON(w, http.StatusOK, dto.NextAttemptResponse{
		Previous:  dto.ToTaskDetail(result.Previous, now),
		Next:      dto.ToTaskDetailPtr(result.Next, now),
		Exhausted: result.Exhausted,
	})
}

// handleHasOpenFollowUp reports whether an entity has a pending follow-up.
// @Summary Check open follow-up
// @Tags follow-ups
// @Produce json
// @Param X-Clinic-ID header string true "Clinic scope"
// @Param entity_id query string true "Appointment or patient ID"
// @Param kind query string true "cancelled, no_show or inactive"
// @Success 200 {object} dto.OpenFollowUpResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /follow-ups/open [get]
func (h *Handler) handleHasOpenFollowUp(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	open, err := h.taskService.HasOpenFollowUpTask(
		r.Context(),
		scope.ClinicID,
		query.Get("entity_id"),
		domain.FollowUpKind(query.Get("kind")),
	)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.OpenFollowUpResponse{Open: open})
}

func parseTaskFilter(query url.Values) (domain.TaskFilter, error) {
	var filter domain.TaskFilter
	var err error

	if filter.Statuses, err = parseEnumList(query.Get("status"), "status", domain.TaskStatus.IsValid); err != nil {
		return filter, err
	}
	if filter.Types, err = parseEnumList(query.Get("type"), "type", domain.TaskType.IsValid); err != nil {
		return filter, err
	}
	if filter.Priorities, err = parseEnumList(query.Get("priority"), "priority", domain.TaskPriority.IsValid); err != nil {
		return filter, err
	}
	if filter.Sources, err = parseEnumList(query.Get("source"), "source", domain.TaskSource.IsValid); err != nil {
		return filter, err
	}

	if assignee := query.Get("assignee"); assignee != "" {
		filter.AssignedTo = &assignee
	}
	if patientID := query.Get("patient_id"); patientID != "" {
		filter.PatientID = &patientID
	}
	filter.Query = query.Get("q")

	return filter, nil
}

func parseEnumList[T ~string](raw, name string, valid func(T) bool) ([]T, error) {
	if raw == "" {
		return nil, nil
	}
	var values []T
	for _, part := range strings.Split(raw, ",") {
		v := T(strings.TrimSpace(part))
		if v == "" {
			continue
		}
		if !valid(v) {
			return nil, fmt.Errorf("%w: invalid %s %q", domain.ErrValidation, name, v)
		}
		values = append(values, v)
	}
	return values, nil
}

func parsePage(query url.Values) (domain.Page, error) {
	var page domain.Page
	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			return page, fmt.Errorf("%w: limit must be a positive integer", domain.ErrValidation)
		}
		page.Limit = limit
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return page, fmt.Errorf("%w: offset must be a non-negative integer", domain.ErrValidation)
		}
		page.Offset = offset
	}
	return page, nil
}
