package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mtlprog/clinictask/internal/domain"
)

type contextKey string

const (
	// ContextKeyScope is the key for storing the request scope in context.
	ContextKeyScope contextKey = "scope"

	HeaderClinicID = "X-Clinic-ID"
	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"
)

// Scope is the clinic and acting user of a request.
type Scope struct {
	ClinicID string
	Actor    domain.Actor
}

// ScopeMiddleware resolves the clinic scope and actor from request headers.
// Authentication happens upstream; the headers are trusted.
type ScopeMiddleware struct {
	clinics map[string]struct{}
}

// NewScopeMiddleware creates a ScopeMiddleware. When clinics is non-empty
// only those clinic ids are accepted.
func NewScopeMiddleware(clinics []string) *ScopeMiddleware {
	m := &ScopeMiddleware{clinics: make(map[string]struct{}, len(clinics))}
	for _, id := range clinics {
		m.clinics[id] = struct{}{}
	}
	return m
}

// Require rejects requests without a known clinic and stores the scope in context.
func (m *ScopeMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clinicID := strings.TrimSpace(r.Header.Get(HeaderClinicID))
		if clinicID == "" {
			reject(w, http.StatusBadRequest, "MISSING_SCOPE", HeaderClinicID+" header is required")
			return
		}
		if len(m.clinics) > 0 {
			if _, ok := m.clinics[clinicID]; !ok {
				reject(w, http.StatusForbidden, "UNKNOWN_CLINIC", "clinic is not configured")
				return
			}
		}

		actor := domain.Actor{
			UserID: strings.TrimSpace(r.Header.Get(HeaderUserID)),
			Name:   strings.TrimSpace(r.Header.Get(HeaderUserName)),
		}
		if actor.Name == "" {
			actor.Name = actor.UserID
		}
		if actor.IsSystem() {
			actor = domain.SystemActor
		}

		ctx := context.WithValue(r.Context(), ContextKeyScope, Scope{ClinicID: clinicID, Actor: actor})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetScopeFromContext retrieves the request scope.
func GetScopeFromContext(ctx context.Context) (Scope, bool) {
	scope, ok := ctx.Value(ContextKeyScope).(Scope)
	return scope, ok && scope.ClinicID != ""
}

func reject(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]map[string]string{"error": {"code": code, "message": message}}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}
