// api/controller/health_controller.go
package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/arbiterhq/arbiter/api/cache"
	"github.com/arbiterhq/arbiter/api/config"
)

// HealthController serves the probes. Liveness never touches a dependency;
// readiness pings Mongo and the cache. A dead cache degrades readiness but
// does not fail it, because every cache path in the service tolerates a
// miss.
type HealthController struct {
	mongoClient *mongo.Client
	store       cache.Store
}

func NewHealthController(mongoClient *mongo.Client, store cache.Store) *HealthController {
	return &HealthController{
		mongoClient: mongoClient,
		store:       store,
	}
}

// RegisterRoutes registers the API routes
func (hc *HealthController) RegisterRoutes(r *gin.RouterGroup) {
	health := r.Group("/health")
	{
		health.GET("", hc.Liveness)
		health.GET("/ready", hc.Readiness)
	}
}

// Liveness endpoint
func (hc *HealthController) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": config.Environment(),
	})
}

// Readiness endpoint
func (hc *HealthController) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c, 2*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK

	mongoStatus := "ok"
	if err := hc.mongoClient.Ping(ctx, readpref.Primary()); err != nil {
		mongoStatus = "down"
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	cacheStatus := "ok"
	if err := hc.store.Ping(ctx); err != nil {
		cacheStatus = "degraded"
		if status == "ok" {
			status = "degraded"
		}
	}

	c.JSON(code, gin.H{
		"status":    status,
		"mongo":     mongoStatus,
		"cache":     cacheStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
