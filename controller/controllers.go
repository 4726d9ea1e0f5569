// api/controller/controllers.go
package controller

import (
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/arbiterhq/arbiter/api/cache"
	"github.com/arbiterhq/arbiter/api/service"
)

type Controllers struct {
	Auth       *AuthController
	User       *UserController
	Decision   *DecisionController
	AdminCache *AdminCacheController
	Audit      *AuditController
	Health     *HealthController
}

func InitializeControllers(services *service.Services, mongoClient *mongo.Client, store cache.Store) *Controllers {
	return &Controllers{
		Auth:       NewAuthController(services.Auth),
		User:       NewUserController(services.User),
		Decision:   NewDecisionController(services.Decision),
		AdminCache: NewAdminCacheController(services.CacheAdmin),
		Audit:      NewAuditController(services.Audit),
		Health:     NewHealthController(mongoClient, store),
	}
}
