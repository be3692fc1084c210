package handler

import (
	"net/http"
	"time"

	"github.com/mtlprog/clinictask/internal/handler/dto"
)

// statsPeriods maps a period name to the start of its window.
var statsPeriods = map[string]func(time.Time) time.Time{
	"day":   func(now time.Time) time.Time { return now.AddDate(0, 0, -1) },
	"week":  func(now time.Time) time.Time { return now.AddDate(0, 0, -7) },
	"month": func(now time.Time) time.Time { return now.AddDate(0, -1, 0) },
	"all":   func(time.Time) time.Time { return time.Time{} },
}

// handleGetStats returns clinic and assignee statistics.
// @Summary Get statistics
// @Description Get clinic task statistics for a given period
// @Tags stats
// @Produce json
// @Param X-Clinic-ID header string true "Clinic scope"
// @Param period query string false "Period: day, week (default), month, all"
// @Success 200 {object} dto.StatsResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /stats [get]
func (h *Handler) handleGetStats(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}

	period := r.URL.Query().Get("period")
	if period == "" {
		period = "week"
	}
	start, ok := statsPeriods[period]
	if !ok {
		respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid period, must be: day, week, month, all")
		return
	}

	summary, err := h.taskService.Stats(r.Context(), scope.ClinicID, start(h.now()))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	assignees := make([]dto.AssigneeStats, len(summary.Assignees))
	for i, a := range summary.Assignees {
		assignees[i] = dto.AssigneeStats{
			UserID:            a.UserID,
			Name:              a.Name,
			Pending:           a.Pending,
			CompletedInPeriod: a.CompletedInPeriod,
			CancelledInPeriod: a.CancelledInPeriod,
		}
	}

	byStatus := make(map[string]int, len(summary.Stats.ByStatus))
	for status, count := range summary.Stats.ByStatus {
		byStatus[string(status)] = count
	}

	respondJSON(w, http.StatusOK, dto.StatsResponse{
		Period:      period,
		PeriodStart: summary.Period.Start,
		PeriodEnd:   summary.Period.End,
		Assignees:   assignees,
		Clinic: dto.ClinicStats{
			TasksCreated:          summary.Stats.CreatedInPeriod,
			TasksByStatus:         byStatus,
			OverdueCount:          summary.Stats.OverdueCount,
			CompletionRatePercent: summary.CompletionRate,
		},
	})
}
