// api/controller/admin_cache_controller_test.go
package controller_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/arbiterhq/arbiter/api/cache"
	"github.com/arbiterhq/arbiter/api/controller"
	arbiter_errors "github.com/arbiterhq/arbiter/api/errors"
	"github.com/arbiterhq/arbiter/api/middleware"
	"github.com/arbiterhq/arbiter/api/service"
	mock_service "github.com/arbiterhq/arbiter/api/test/mock"
)

// newAdminCacheRouter wires the real role middleware so the admin gate is
// part of what gets tested.
func newAdminCacheRouter(svc service.ICacheAdminService, authn gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	controller.NewAdminCacheController(svc).RegisterRoutes(r.Group("/"), authn, middleware.RequireRole("admin"))
	return r
}

func TestAdminCacheController(t *testing.T) {
	t.Run("GetStats_Success", func(t *testing.T) {
		svc := new(mock_service.MockCacheAdminService)
		svc.On("Stats", mock.Anything).Return(service.CacheStatsReport{
			Invalidation: cache.InvalidationStats{TotalKeys: 42},
			Server:       cache.ServerInfo{},
			Available:    true,
		})
		router := newAdminCacheRouter(svc, stubAuthn("admin-1", "admin"))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/admin/cache/stats", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "invalidation_stats")
	})

	t.Run("NonAdmin_Forbidden", func(t *testing.T) {
		svc := new(mock_service.MockCacheAdminService)
		router := newAdminCacheRouter(svc, stubAuthn("user-1", "user"))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/admin/cache/stats", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "Not enough permissions", errorBody(t, w))
		svc.AssertNotCalled(t, "Stats")
	})

	t.Run("InvalidateUser_Success", func(t *testing.T) {
		svc := new(mock_service.MockCacheAdminService)
		svc.On("InvalidateUser", mock.Anything, "user-7", "admin-1", mock.Anything).Return(5)
		router := newAdminCacheRouter(svc, stubAuthn("admin-1", "admin"))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/admin/cache/users/user-7", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Invalidated 5 cache keys for user user-7")
	})

	t.Run("InvalidateDecision_Success", func(t *testing.T) {
		svc := new(mock_service.MockCacheAdminService)
		svc.On("InvalidateDecision", mock.Anything, "dec-3", "admin-1", mock.Anything).Return(1)
		router := newAdminCacheRouter(svc, stubAuthn("admin-1", "admin"))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/admin/cache/decisions/dec-3", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Invalidated decision cache: dec-3")
	})

	t.Run("InvalidateByPattern_Success", func(t *testing.T) {
		svc := new(mock_service.MockCacheAdminService)
		svc.On("InvalidatePattern", mock.Anything, "v1:user:*", "admin-1", mock.Anything).Return(12)
		router := newAdminCacheRouter(svc, stubAuthn("admin-1", "admin"))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/admin/cache/pattern/v1:user:*", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "keys matching pattern")
	})

	t.Run("FlushAll_Success", func(t *testing.T) {
		svc := new(mock_service.MockCacheAdminService)
		svc.On("Flush", mock.Anything, "admin-1", mock.Anything).Return(30, nil)
		router := newAdminCacheRouter(svc, stubAuthn("admin-1", "admin"))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/admin/cache/flush", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "All cache flushed successfully")
		assert.Contains(t, w.Body.String(), `"keys_deleted":30`)
	})

	t.Run("FlushAll_Failure_Production", func(t *testing.T) {
		svc := new(mock_service.MockCacheAdminService)
		svc.On("Flush", mock.Anything, "admin-1", mock.Anything).
			Return(0, arbiter_errors.ErrFlushForbidden)
		router := newAdminCacheRouter(svc, stubAuthn("admin-1", "admin"))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/admin/cache/flush", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "Cache flush is not allowed in production", errorBody(t, w))
	})
}
