// api/router/router.go

package router

import (
	"github.com/gin-gonic/gin"

	"github.com/arbiterhq/arbiter/api/auth"
	"github.com/arbiterhq/arbiter/api/cache"
	"github.com/arbiterhq/arbiter/api/controller"
	"github.com/arbiterhq/arbiter/api/middleware"
)

func SetupRouter(
	controllers *controller.Controllers,
	tokens auth.ITokenService,
	limiter *cache.RateLimiter,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.RateLimiter(limiter))

	authn := middleware.RequireAuth(tokens)
	admin := middleware.RequireRole("admin")

	api := router.Group("/api/v1")

	controllers.Health.RegisterRoutes(api)
	controllers.Auth.RegisterRoutes(api, authn)
	controllers.User.RegisterRoutes(api, authn, admin)
	controllers.Decision.RegisterRoutes(api, authn, admin)
	controllers.AdminCache.RegisterRoutes(api, authn, admin)
	controllers.Audit.RegisterRoutes(api, authn, admin)

	return router
}
