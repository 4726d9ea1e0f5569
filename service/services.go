// api/service/services.go
package service

import (
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/arbiterhq/arbiter/api/audit"
	"github.com/arbiterhq/arbiter/api/auth"
	"github.com/arbiterhq/arbiter/api/cache"
	"github.com/arbiterhq/arbiter/api/dao"
	"github.com/arbiterhq/arbiter/api/util"
)

type Services struct {
	Auth       IAuthService
	User       IUserService
	Decision   IDecisionService
	CacheAdmin ICacheAdminService
	Audit      audit.Service
}

func InitializeServices(
	database *mongo.Database,
	store cache.Store,
	keys cache.KeyScheme,
	inv *cache.Invalidator,
	tokens auth.ITokenService,
	blacklist auth.IBlacklist,
	auditService audit.Service,
	validationUtil *util.ValidationUtil,
	notificationSvc *util.NotificationService,
	eventBus *util.EventBus,
) (*Services, error) {
	userDAO := dao.NewUserDAO(database, store, keys, inv)
	decisionDAO := dao.NewDecisionDAO(database, store, keys, inv)
	sessionDAO := dao.NewSessionDAO(store, keys, inv)
	hasher := auth.NewPasswordHasher()

	services := &Services{
		Auth: NewAuthService(userDAO, sessionDAO, tokens, blacklist, hasher,
			store, keys, validationUtil, auditService, notificationSvc, eventBus),
		User:       NewUserService(userDAO, sessionDAO, auditService, eventBus),
		Decision:   NewDecisionService(decisionDAO, validationUtil, auditService, notificationSvc, eventBus),
		CacheAdmin: NewCacheAdminService(store, inv, auditService, eventBus),
		Audit:      auditService,
	}

	return services, nil
}
