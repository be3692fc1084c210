package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/clinictask/internal/domain"
)

func serveScoped(m *ScopeMiddleware, headers map[string]string) (*httptest.ResponseRecorder, *Scope) {
	var seen *Scope
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if scope, ok := GetScopeFromContext(r.Context()); ok {
			seen = &scope
		}
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	m.Require(next).ServeHTTP(rec, req)
	return rec, seen
}

func TestRequire_MissingClinic(t *testing.T) {
	rec, seen := serveScoped(NewScopeMiddleware(nil), nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "MISSING_SCOPE")
	assert.Nil(t, seen)
}

func TestRequire_UnknownClinic(t *testing.T) {
	rec, seen := serveScoped(NewScopeMiddleware([]string{"c1"}), map[string]string{HeaderClinicID: "c9"})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNKNOWN_CLINIC")
	assert.Nil(t, seen)
}

func TestRequire_StaffActor(t *testing.T) {
	rec, seen := serveScoped(NewScopeMiddleware([]string{"c1"}), map[string]string{
		HeaderClinicID: " c1 ",
		HeaderUserID:   "coord-1",
	})

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "c1", seen.ClinicID)
	assert.Equal(t, domain.Actor{UserID: "coord-1", Name: "coord-1"}, seen.Actor)
}

func TestRequire_AnonymousIsSystem(t *testing.T) {
	rec, seen := serveScoped(NewScopeMiddleware(nil), map[string]string{HeaderClinicID: "c2"})

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, domain.SystemActor, seen.Actor)
}
