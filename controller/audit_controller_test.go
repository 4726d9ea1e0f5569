// api/controller/audit_controller_test.go
package controller_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arbiterhq/arbiter/api/audit"
	"github.com/arbiterhq/arbiter/api/controller"
	"github.com/arbiterhq/arbiter/api/middleware"
	mock_service "github.com/arbiterhq/arbiter/api/test/mock"
)

func newAuditRouter(svc audit.Service, authn gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	controller.NewAuditController(svc).RegisterRoutes(r.Group("/"), authn, middleware.RequireRole("admin"))
	return r
}

func TestAuditController(t *testing.T) {
	t.Run("QueryEvents_Success_DefaultWindow", func(t *testing.T) {
		svc := new(mock_service.MockAuditService)
		svc.On("Query", mock.Anything, mock.Anything, mock.Anything, "", "").
			Return([]audit.Event{{Actor: "admin-1", Action: audit.ActionCacheFlush, Success: true}}, nil)
		router := newAuditRouter(svc, stubAuthn("admin-1", "admin"))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/admin/audit", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "cache.flush")
		assert.Contains(t, w.Body.String(), `"total":1`)
	})

	t.Run("QueryEvents_Success_ExplicitRangeAndFilters", func(t *testing.T) {
		from, err := time.Parse(time.RFC3339, "2026-08-01T00:00:00Z")
		require.NoError(t, err)
		to, err := time.Parse(time.RFC3339, "2026-08-02T00:00:00Z")
		require.NoError(t, err)

		svc := new(mock_service.MockAuditService)
		svc.On("Query", mock.Anything, from, to, "admin-1", "cache.flush").
			Return([]audit.Event{}, nil)
		router := newAuditRouter(svc, stubAuthn("admin-1", "admin"))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET",
			"/admin/audit?from=2026-08-01T00:00:00Z&to=2026-08-02T00:00:00Z&actor=admin-1&action=cache.flush", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"total":0`)
		svc.AssertExpectations(t)
	})

	t.Run("QueryEvents_Failure_BadTimestamp", func(t *testing.T) {
		svc := new(mock_service.MockAuditService)
		router := newAuditRouter(svc, stubAuthn("admin-1", "admin"))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/admin/audit?from=yesterday", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid 'from' timestamp, want RFC3339", errorBody(t, w))
	})

	t.Run("QueryEvents_Failure_InvertedRange", func(t *testing.T) {
		svc := new(mock_service.MockAuditService)
		router := newAuditRouter(svc, stubAuthn("admin-1", "admin"))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET",
			"/admin/audit?from=2026-08-02T00:00:00Z&to=2026-08-01T00:00:00Z", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "'from' must be before 'to'", errorBody(t, w))
		svc.AssertNotCalled(t, "Query",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("NonAdmin_Forbidden", func(t *testing.T) {
		svc := new(mock_service.MockAuditService)
		router := newAuditRouter(svc, stubAuthn("user-1", "user"))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/admin/audit", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		svc.AssertNotCalled(t, "Query",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
