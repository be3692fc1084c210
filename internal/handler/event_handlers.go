package handler

import (
	"net/http"

	"github.com/mtlprog/clinictask/internal/domain"
	"github.com/mtlprog/clinictask/internal/handler/dto"
	"github.com/mtlprog/clinictask/internal/service"
)

// handleAppointmentEvent opens a follow-up for a cancelled or missed appointment.
// @Summary Appointment status changed
// @Description cancelled and no_show open a follow-up lineage; other statuses are ignored.
// @Tags events
// @Accept json
// @Produce json
// @Param X-Clinic-ID header string true "Clinic scope"
// @Param request body dto.AppointmentEventRequest true "Appointment event"
// @Success 200 {object} dto.FollowUpEventResponse "Existing follow-up or ignored status"
// @Success 201 {object} dto.FollowUpEventResponse "Follow-up created"
// @Failure 422 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /events/appointments [post]
func (h *Handler) handleAppointmentEvent(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}

	var req dto.AppointmentEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	event := service.AppointmentEvent{
		ClinicID:      scope.ClinicID,
		PatientID:     req.PatientID,
		AppointmentID: req.AppointmentID,
		NewStatus:     req.Status,
	}
	if req.OccurredAt != nil {
		event.OccurredAt = *req.OccurredAt
	}

	task, created, err := h.followUpPolicy.HandleAppointmentStatusChange(r.Context(), event)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	h.respondFollowUp(w, task, created)
}

// handleInactivityEvent opens a reactivation follow-up for a lapsed patient.
// @Summary Patient inactivity
// @Description Opens a reactivation lineage when the last visit is past the clinic's threshold.
// @Tags events
// @Accept json
// @Produce json
// @Param X-Clinic-ID header string true "Clinic scope"
// @Param request body dto.InactivityEventRequest true "Inactivity event"
// @Success 200 {object} dto.FollowUpEventResponse "Existing follow-up or patient still active"
// @Success 201 {object} dto.FollowUpEventResponse "Follow-up created"
// @Failure 422 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /events/inactivity [post]
func (h *Handler) handleInactivityEvent(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}

	var req dto.InactivityEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, created, err := h.followUpPolicy.HandlePatientInactive(r.Context(), service.InactivityEvent{
		ClinicID:    scope.ClinicID,
		PatientID:   req.PatientID,
		LastVisitAt: req.LastVisitAt,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	h.respondFollowUp(w, task, created)
}

// handleIngestAlert creates the task for a clinical alert.
// @Summary Ingest alert
// @Description Creates a task with SLA deadline and priority derived from the alert severity.
// @Tags events
// @Accept json
// @Produce json
// @Param X-Clinic-ID header string true "Clinic scope"
// @Param request body dto.AlertRequest true "Alert"
// @Success 201 {object} dto.TaskDetail
// @Failure 422 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /alerts [post]
func (h *Handler) handleIngestAlert(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}

	var req dto.AlertRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	alert := &domain.Alert{
		ID:          req.ID,
		Type:        domain.AlertType(req.AlertType),
		Severity:    domain.AlertSeverity(req.Severity),
		PatientID:   req.PatientID,
		Message:     req.Message,
		CreatedAt:   req.CreatedAt,
		LabResultID: req.LabResultID,
		LabTestName: req.LabTestName,
		Reviewed:    req.Reviewed,
	}

	task, err := h.alertIngestor.Ingest(r.Context(), scope.Actor, scope.ClinicID, alert)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ToTaskDetail(task, h.now()))
}

func (h *Handler) respondFollowUp(w http.ResponseWriter, task *domain.Task, created bool) {
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondJSON(w, status, dto.FollowUpEventResponse{
		Task:    dto.ToTaskDetailPtr(task, h.now()),
		Created: created,
	})
}
