// api/controller/admin_cache_controller.go
package controller

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	arbiter_errors "github.com/arbiterhq/arbiter/api/errors"
	"github.com/arbiterhq/arbiter/api/model"
	"github.com/arbiterhq/arbiter/api/service"
	"github.com/arbiterhq/arbiter/api/util"
)

// AdminCacheController exposes the cache maintenance surface. Every route is
// admin only; the pattern endpoint can take out arbitrary keyspaces, so it
// is not something to hand to regular users.
type AdminCacheController struct {
	cacheService service.ICacheAdminService
}

func NewAdminCacheController(cacheService service.ICacheAdminService) *AdminCacheController {
	return &AdminCacheController{
		cacheService: cacheService,
	}
}

// RegisterRoutes registers the API routes
func (cc *AdminCacheController) RegisterRoutes(r *gin.RouterGroup, authn, admin gin.HandlerFunc) {
	cache := r.Group("/admin/cache", authn, admin)
	{
		cache.GET("/stats", cc.GetStats)
		cache.DELETE("/users/:id", cc.InvalidateUser)
		cache.DELETE("/decisions/:id", cc.InvalidateDecision)
		cache.DELETE("/pattern/:pattern", cc.InvalidateByPattern)
		cache.POST("/flush", cc.FlushAll)
	}
}

// GetStats endpoint
func (cc *AdminCacheController) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, cc.cacheService.Stats(c))
}

// InvalidateUser endpoint drops every cache key belonging to one user.
func (cc *AdminCacheController) InvalidateUser(c *gin.Context) {
	userID := c.Param("id")
	actorID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Not authenticated", err)
		return
	}

	total := cc.cacheService.InvalidateUser(c, userID, actorID, clientMeta(c))

	c.JSON(http.StatusOK, model.InvalidateResponse{
		Success:     true,
		KeysDeleted: total,
		Message:     fmt.Sprintf("Invalidated %d cache keys for user %s", total, userID),
	})
}

// InvalidateDecision endpoint
func (cc *AdminCacheController) InvalidateDecision(c *gin.Context) {
	decisionID := c.Param("id")
	actorID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Not authenticated", err)
		return
	}

	deleted := cc.cacheService.InvalidateDecision(c, decisionID, actorID, clientMeta(c))

	c.JSON(http.StatusOK, model.InvalidateResponse{
		Success:     true,
		KeysDeleted: deleted,
		Message:     fmt.Sprintf("Invalidated decision cache: %s", decisionID),
	})
}

// InvalidateByPattern endpoint
func (cc *AdminCacheController) InvalidateByPattern(c *gin.Context) {
	pattern := c.Param("pattern")
	actorID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Not authenticated", err)
		return
	}
	if pattern == "" {
		util.RespondWithError(c, http.StatusBadRequest, "Pattern is required", nil)
		return
	}

	deleted := cc.cacheService.InvalidatePattern(c, pattern, actorID, clientMeta(c))

	c.JSON(http.StatusOK, model.InvalidateResponse{
		Success:     true,
		KeysDeleted: deleted,
		Message:     fmt.Sprintf("Invalidated %d keys matching pattern: %s", deleted, pattern),
	})
}

// FlushAll endpoint wipes the whole cache. Refused outright in production.
func (cc *AdminCacheController) FlushAll(c *gin.Context) {
	actorID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Not authenticated", err)
		return
	}

	deleted, err := cc.cacheService.Flush(c, actorID, clientMeta(c))
	if err != nil {
		if errors.Is(err, arbiter_errors.ErrFlushForbidden) {
			util.RespondWithError(c, http.StatusForbidden, "Cache flush is not allowed in production", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to flush cache", err)
		}
		return
	}

	c.JSON(http.StatusOK, model.InvalidateResponse{
		Success:     true,
		KeysDeleted: deleted,
		Message:     "All cache flushed successfully",
	})
}
