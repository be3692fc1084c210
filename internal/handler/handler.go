package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/mtlprog/clinictask/docs" // Import generated docs
	"github.com/mtlprog/clinictask/internal/handler/dto"
	"github.com/mtlprog/clinictask/internal/middleware"
	"github.com/mtlprog/clinictask/internal/service"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Config holds what the HTTP layer is built from.
type Config struct {
	Deps    service.Dependencies
	Clinics []string      // accepted X-Clinic-ID values; empty accepts any
	Health  HealthChecker // nil when the store has nothing to ping
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	taskService     *service.TaskService
	followUpPolicy  *service.FollowUpPolicy
	alertIngestor   *service.AlertIngestor
	scopeMiddleware *middleware.ScopeMiddleware
	health          HealthChecker
	now             func() time.Time
}

// New creates a new Handler instance with all dependencies.
func New(cfg Config) *Handler {
	now := cfg.Deps.Now
	if now == nil {
		now = time.Now
	}

	return &Handler{
		taskService:     service.NewTaskService(cfg.Deps),
		followUpPolicy:  service.NewFollowUpPolicy(cfg.Deps),
		alertIngestor:   service.NewAlertIngestor(cfg.Deps),
		scopeMiddleware: middleware.NewScopeMiddleware(cfg.Clinics),
		health:          cfg.Health,
		now:             now,
	}
}

// RegisterRoutes registers all HTTP routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /healthz", h.handleHealthz)

	// Swagger UI
	mux.HandleFunc("GET /swagger/", httpSwagger.Handler())

	// API v1 routes scoped to a clinic
	scoped := func(fn http.HandlerFunc) http.Handler {
		return h.scopeMiddleware.Require(fn)
	}
	mux.Handle("GET /api/v1/tasks", scoped(h.handleListTasks))
	mux.Handle("POST /api/v1/tasks", scoped(h.handleCreateTask))
	mux.Handle("GET /api/v1/tasks/{id}", scoped(h.handleGetTask))
	mux.Handle("PATCH /api/v1/tasks/{id}/status", scoped(h.handleUpdateStatus))
	mux.Handle("PATCH /api/v1/tasks/{id}/assignee", scoped(h.handleAssignTask))
	mux.Handle("POST /api/v1/tasks/{id}/snooze", scoped(h.handleSnoozeTask))
	mux.Handle("POST /api/v1/tasks/{id}/next-attempt", scoped(h.handleNextAttempt))
	mux.Handle("GET /api/v1/follow-ups/open", scoped(h.handleHasOpenFollowUp))
	mux.Handle("POST /api/v1/events/appointments", scoped(h.handleAppointmentEvent))
	mux.Handle("POST /api/v1/events/inactivity", scoped(h.handleInactivityEvent))
	mux.Handle("POST /api/v1/alerts", scoped(h.handleIngestAlert))
	mux.Handle("GET /api/v1/stats", scoped(h.handleGetStats))
}

// handleHealthz returns 200 OK if the store is reachable.
func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.Ping(r.Context()); err != nil {
			slog.Error("database health check failed", "error", err)
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes a standard error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, dto.NewErrorResponse(code, message))
}

// respondDomainError maps a service error onto the standard error response.
func respondDomainError(w http.ResponseWriter, err error) {
	status, code, message := dto.MapDomainError(err)
	respondError(w, status, code, message)
}

// requireScope extracts the request scope.
// Returns (scope, true) if present, (zero, false) if not (error already sent to client).
func requireScope(w http.ResponseWriter, r *http.Request) (middleware.Scope, bool) {
	scope, ok := middleware.GetScopeFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusBadRequest, "MISSING_SCOPE", "clinic scope is required")
		return middleware.Scope{}, false
	}
	return scope, true
}

// extractTaskID extracts the task ID from the path parameter.
// Returns (taskID, true) if present, ("", false) if not (error already sent to client).
func extractTaskID(w http.ResponseWriter, r *http.Request) (string, bool) {
	taskID := r.PathValue("id")
	if taskID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "task id is required")
		return "", false
	}
	return taskID, true
}

// decodeJSON decodes the request body.
// Returns false if the body is invalid (error already sent to client).
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return false
	}
	return true
}
