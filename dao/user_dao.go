// api/dao/user_dao.go
package dao

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/arbiterhq/arbiter/api/cache"
	"github.com/arbiterhq/arbiter/api/db"
	arbiter_errors "github.com/arbiterhq/arbiter/api/errors"
	logger "github.com/arbiterhq/arbiter/api/logging"
	"github.com/arbiterhq/arbiter/api/model"
)

// UserDAO owns user persistence plus the cache-aside reads and the
// synchronous invalidation that follows every successful write.
type UserDAO struct {
	collection *mongo.Collection
	store      cache.Store
	keys       cache.KeyScheme
	inv        *cache.Invalidator
}

func NewUserDAO(database *mongo.Database, store cache.Store, keys cache.KeyScheme, inv *cache.Invalidator) *UserDAO {
	return &UserDAO{
		collection: database.Collection(db.CollectionUsers),
		store:      store,
		keys:       keys,
		inv:        inv,
	}
}

func (dao *UserDAO) CreateUser(ctx context.Context, user model.User) (string, error) {
	start := time.Now()
	logger.Info("Creating new user", zap.String("email", cache.HashString(user.Email)))

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := dao.collection.InsertOne(ctx, user)
	duration := time.Since(start)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			logger.Warn("User already exists",
				zap.String("email", cache.HashString(user.Email)),
				zap.Duration("duration", duration))
			return "", arbiter_errors.ErrUserConflict
		}
		logger.Error("Failed to create user",
			zap.Error(err),
			zap.Duration("duration", duration))
		return "", arbiter_errors.ErrDatabaseOperation
	}

	logger.Info("User created successfully",
		zap.String("userID", user.ID),
		zap.Duration("duration", duration))
	return user.ID, nil
}

// GetUserByID reads through the cache. A database miss is returned as
// ErrUserNotFound and is never cached.
func (dao *UserDAO) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	user, err := cache.GetOrFetch(ctx, dao.store, dao.keys.User(userID), cache.TTLLong,
		func(ctx context.Context) (model.User, error) {
			return dao.fetchUser(ctx, bson.M{"_id": userID})
		})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail caches the full document under the hashed-email key, so
// lookups during login never touch Mongo on a warm cache.
func (dao *UserDAO) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := cache.GetOrFetch(ctx, dao.store, dao.keys.UserByEmail(email), cache.TTLLong,
		func(ctx context.Context) (model.User, error) {
			return dao.fetchUser(ctx, bson.M{"email": email})
		})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (dao *UserDAO) fetchUser(ctx context.Context, filter bson.M) (model.User, error) {
	start := time.Now()
	var user model.User
	err := dao.collection.FindOne(ctx, filter).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return model.User{}, arbiter_errors.ErrUserNotFound
	}
	if err != nil {
		logger.Error("Failed to retrieve user",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return model.User{}, arbiter_errors.ErrDatabaseOperation
	}
	return user, nil
}

// SearchUsers pages through accounts for the admin listing, newest first.
// Results read straight from Mongo; no cache key covers cross-user views.
func (dao *UserDAO) SearchUsers(ctx context.Context, criteria model.UserSearchCriteria) (*model.UserPage, error) {
	if criteria.Page < 1 || criteria.PageSize < 1 || criteria.PageSize > 100 {
		return nil, arbiter_errors.ErrInvalidPagination
	}
	start := time.Now()

	filter := bson.M{}
	if criteria.Role != "" {
		filter["role"] = criteria.Role
	}
	if criteria.IsActive != nil {
		filter["is_active"] = *criteria.IsActive
	}

	total, err := dao.collection.CountDocuments(ctx, filter)
	if err != nil {
		logger.Error("Failed to count users", zap.Error(err))
		return nil, arbiter_errors.ErrDatabaseOperation
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((criteria.Page - 1) * criteria.PageSize)).
		SetLimit(int64(criteria.PageSize))
	cursor, err := dao.collection.Find(ctx, filter, opts)
	if err != nil {
		logger.Error("Failed to list users", zap.Error(err))
		return nil, arbiter_errors.ErrDatabaseOperation
	}
	defer cursor.Close(ctx)

	items := make([]model.User, 0, criteria.PageSize)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, arbiter_errors.ErrDatabaseOperation
	}

	logger.Debug("Fetched user page from database",
		zap.Int("page", criteria.Page),
		zap.Int64("total", total),
		zap.Duration("duration", time.Since(start)))

	return &model.UserPage{Items: items, Total: total, Page: criteria.Page, PageSize: criteria.PageSize}, nil
}

// UpdateUser applies the mutable fields and invalidates every cached view
// of the user before returning, so readers cannot observe the stale copy.
func (dao *UserDAO) UpdateUser(ctx context.Context, userID string, updates model.UpdateUserRequest) (*model.User, error) {
	start := time.Now()
	logger.Info("Updating user", zap.String("userID", userID))

	set := bson.M{"updated_at": time.Now().UTC()}
	if updates.FullName != nil {
		set["full_name"] = *updates.FullName
	}
	if updates.Metadata != nil {
		set["metadata"] = updates.Metadata
	}

	updated, err := cache.InvalidateAfter(ctx,
		func(ctx context.Context) (model.User, error) {
			return dao.findOneAndApply(ctx, userID, bson.M{"$set": set})
		},
		func(ctx context.Context) {
			dao.invalidateUser(ctx, userID)
		})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to update user",
			zap.Error(err),
			zap.String("userID", userID),
			zap.Duration("duration", duration))
		return nil, err
	}

	// The hashed-email key holds the full document, so it is stale too.
	dao.inv.UserByEmail(ctx, updated.Email)

	logger.Info("User updated successfully",
		zap.String("userID", userID),
		zap.Duration("duration", duration))
	return &updated, nil
}

// SetActive flips the active flag. Deactivation is the soft form of delete
// used by the admin surface; tokens already issued keep working until they
// expire or are revoked, but login and refresh check this flag.
func (dao *UserDAO) SetActive(ctx context.Context, userID string, active bool) error {
	start := time.Now()
	logger.Info("Setting user active flag", zap.String("userID", userID), zap.Bool("active", active))

	updated, err := cache.InvalidateAfter(ctx,
		func(ctx context.Context) (model.User, error) {
			return dao.findOneAndApply(ctx, userID,
				bson.M{"$set": bson.M{"is_active": active, "updated_at": time.Now().UTC()}})
		},
		func(ctx context.Context) {
			dao.invalidateUser(ctx, userID)
		})

	if err != nil {
		logger.Error("Failed to set user active flag",
			zap.Error(err),
			zap.String("userID", userID),
			zap.Duration("duration", time.Since(start)))
		return err
	}

	dao.inv.UserByEmail(ctx, updated.Email)
	return nil
}

func (dao *UserDAO) DeleteUser(ctx context.Context, userID string) error {
	start := time.Now()
	logger.Info("Deleting user", zap.String("userID", userID))

	// FindOneAndDelete returns the removed document; its email is needed to
	// drop the hashed-email key, which no pattern delete can reach.
	deleted, err := cache.InvalidateAfter(ctx,
		func(ctx context.Context) (model.User, error) {
			var user model.User
			err := dao.collection.FindOneAndDelete(ctx, bson.M{"_id": userID}).Decode(&user)
			if err == mongo.ErrNoDocuments {
				return model.User{}, arbiter_errors.ErrUserNotFound
			}
			if err != nil {
				return model.User{}, arbiter_errors.ErrDatabaseOperation
			}
			return user, nil
		},
		func(ctx context.Context) {
			dao.invalidateUser(ctx, userID)
		})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to delete user",
			zap.Error(err),
			zap.String("userID", userID),
			zap.Duration("duration", duration))
		return err
	}

	dao.inv.UserByEmail(ctx, deleted.Email)

	logger.Info("User deleted successfully",
		zap.String("userID", userID),
		zap.Duration("duration", duration))
	return nil
}

// UpdateLastLogin stamps the login time without touching updated_at and
// returns the fresh document so the login path can warm the cache with it.
func (dao *UserDAO) UpdateLastLogin(ctx context.Context, userID string, at time.Time) (*model.User, error) {
	updated, err := cache.InvalidateAfter(ctx,
		func(ctx context.Context) (model.User, error) {
			return dao.findOneAndApply(ctx, userID, bson.M{"$set": bson.M{"last_login": at.UTC()}})
		},
		func(ctx context.Context) {
			dao.invalidateUser(ctx, userID)
		})
	if err != nil {
		logger.Warn("Failed to update last login",
			zap.Error(err),
			zap.String("userID", userID))
		return nil, err
	}
	dao.inv.UserByEmail(ctx, updated.Email)
	return &updated, nil
}

// UpdatePassword swaps the stored hash. Every cached copy of the user goes
// with it.
func (dao *UserDAO) UpdatePassword(ctx context.Context, userID, hashedPassword string) error {
	updated, err := cache.InvalidateAfter(ctx,
		func(ctx context.Context) (model.User, error) {
			return dao.findOneAndApply(ctx, userID,
				bson.M{"$set": bson.M{"hashed_password": hashedPassword, "updated_at": time.Now().UTC()}})
		},
		func(ctx context.Context) {
			dao.invalidateUser(ctx, userID)
		})
	if err != nil {
		logger.Error("Failed to update password",
			zap.Error(err),
			zap.String("userID", userID))
		return err
	}
	dao.inv.UserByEmail(ctx, updated.Email)
	logger.Info("Password updated", zap.String("userID", userID))
	return nil
}

// SetVerified marks the account's email as confirmed.
func (dao *UserDAO) SetVerified(ctx context.Context, userID string) error {
	updated, err := cache.InvalidateAfter(ctx,
		func(ctx context.Context) (model.User, error) {
			return dao.findOneAndApply(ctx, userID,
				bson.M{"$set": bson.M{"is_verified": true, "updated_at": time.Now().UTC()}})
		},
		func(ctx context.Context) {
			dao.invalidateUser(ctx, userID)
		})
	if err != nil {
		logger.Error("Failed to mark user verified",
			zap.Error(err),
			zap.String("userID", userID))
		return err
	}
	dao.inv.UserByEmail(ctx, updated.Email)
	return nil
}

func (dao *UserDAO) findOneAndApply(ctx context.Context, userID string, update bson.M) (model.User, error) {
	var user model.User
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := dao.collection.FindOneAndUpdate(ctx, bson.M{"_id": userID}, update, opts).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return model.User{}, arbiter_errors.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, arbiter_errors.ErrDatabaseOperation
	}
	return user, nil
}

// invalidateUser drops the ID key and every dependent per-user pattern. The
// hashed-email key is handled at the call sites, which have the document in
// hand; a pattern delete cannot derive it.
func (dao *UserDAO) invalidateUser(ctx context.Context, userID string) {
	dao.inv.User(ctx, userID)
}
