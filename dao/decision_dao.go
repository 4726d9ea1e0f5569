// api/dao/decision_dao.go
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

type DecisionDAO struct {
	collection *mongo.Collection
	store      cache.Store
	keys       cache.KeyScheme
	inv        *cache.Invalidator
}

func NewDecisionDAO(database *mongo.Database, store cache.Store, keys cache.KeyScheme, inv *cache.Invalidator) *DecisionDAO {
	return &DecisionDAO{
		collection: database.Collection(db.CollectionDecisions),
		store:      store,
		keys:       keys,
		inv:        inv,
	}
}

func (dao *DecisionDAO) CreateDecision(ctx context.Context, decision model.Decision) (string, error) {
	start := time.Now()
	logger.Info("Creating decision", zap.String("userID", decision.UserID))

	if decision.ID == "" {
		decision.ID = uuid.New().String()
	}
	if decision.Status == "" {
		decision.Status = model.DecisionPending
	}
	now := time.Now().UTC()
	decision.CreatedAt = now
	decision.UpdatedAt = now

	id, err := cache.InvalidateAfter(ctx,
		func(ctx context.Context) (string, error) {
			if _, err := dao.collection.InsertOne(ctx, decision); err != nil {
				return "", arbiter_errors.ErrDatabaseOperation
			}
			return decision.ID, nil
		},
		func(ctx context.Context) {
			// A new decision changes every cached page of the owner's list
			// and the owner's aggregate stats.
			dao.inv.UserDecisions(ctx, decision.UserID)
			dao.inv.UserStats(ctx, decision.UserID)
		})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to create decision",
			zap.Error(err),
			zap.String("userID", decision.UserID),
			zap.Duration("duration", duration))
		return "", err
	}

	logger.Info("Decision created successfully",
		zap.String("decisionID", id),
		zap.Duration("duration", duration))
	return id, nil
}

func (dao *DecisionDAO) GetDecisionByID(ctx context.Context, decisionID string) (*model.Decision, error) {
	decision, err := cache.GetOrFetch(ctx, dao.store, dao.keys.Decision(decisionID), cache.TTLMedium,
		func(ctx context.Context) (model.Decision, error) {
			var d model.Decision
			err := dao.collection.FindOne(ctx, bson.M{"_id": decisionID}).Decode(&d)
			if err == mongo.ErrNoDocuments {
				return model.Decision{}, arbiter_errors.ErrDecisionNotFound
			}
			if err != nil {
				return model.Decision{}, arbiter_errors.ErrDatabaseOperation
			}
			return d, nil
		})
	if err != nil {
		return nil, err
	}
	return &decision, nil
}

// ListUserDecisions pages through one user's decisions, newest first. Each
// page caches under its own key, so a short TTL bounds staleness for pages
// the write-path invalidation may miss between versions.
func (dao *DecisionDAO) ListUserDecisions(ctx context.Context, userID string, page, pageSize int) (*model.DecisionPage, error) {
	if page < 1 || pageSize < 1 || pageSize > 100 {
		return nil, arbiter_errors.ErrInvalidPagination
	}

	result, err := cache.GetOrFetch(ctx, dao.store, dao.keys.UserDecisions(userID, page, pageSize), cache.TTLShort,
		func(ctx context.Context) (model.DecisionPage, error) {
			return dao.fetchDecisionPage(ctx, userID, page, pageSize)
		})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (dao *DecisionDAO) fetchDecisionPage(ctx context.Context, userID string, page, pageSize int) (model.DecisionPage, error) {
	start := time.Now()
	filter := bson.M{"user_id": userID}

	total, err := dao.collection.CountDocuments(ctx, filter)
	if err != nil {
		return model.DecisionPage{}, arbiter_errors.ErrDatabaseOperation
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))
	cursor, err := dao.collection.Find(ctx, filter, opts)
	if err != nil {
		return model.DecisionPage{}, arbiter_errors.ErrDatabaseOperation
	}
	defer cursor.Close(ctx)

	items := make([]model.Decision, 0, pageSize)
	if err := cursor.All(ctx, &items); err != nil {
		return model.DecisionPage{}, arbiter_errors.ErrDatabaseOperation
	}

	logger.Debug("Fetched decision page from database",
		zap.String("userID", userID),
		zap.Int("page", page),
		zap.Int64("total", total),
		zap.Duration("duration", time.Since(start)))

	return model.DecisionPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// UpdateDecision applies a worker's progress and drops the decision key,
// the owner's list pages, and the owner's stats in the same call. The status
// transition rules live in the service layer; the DAO persists what it is
// given.
func (dao *DecisionDAO) UpdateDecision(ctx context.Context, decisionID string, updates model.UpdateDecisionRequest) (*model.Decision, error) {
	start := time.Now()
	logger.Info("Updating decision",
		zap.String("decisionID", decisionID),
		zap.String("status", string(updates.Status)))

	set := bson.M{"status": updates.Status, "updated_at": time.Now().UTC()}
	if updates.Result != nil {
		set["decision"] = updates.Result
	}
	if updates.Citations != nil {
		set["citations"] = updates.Citations
	}
	if updates.Confidence != nil {
		set["confidence_score"] = *updates.Confidence
	}
	if updates.ProcessingTimeMs != nil {
		set["processing_time_ms"] = *updates.ProcessingTimeMs
	}
	if updates.LLMModel != "" {
		set["llm_model_used"] = updates.LLMModel
	}
	if updates.TotalTokens != nil {
		set["total_tokens"] = *updates.TotalTokens
	}
	if updates.ErrorMessage != "" {
		set["error_message"] = updates.ErrorMessage
	}
	if updates.Status == model.DecisionCompleted || updates.Status == model.DecisionFailed {
		set["completed_at"] = time.Now().UTC()
	}

	updated, err := cache.InvalidateAfter(ctx,
		func(ctx context.Context) (model.Decision, error) {
			var d model.Decision
			opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
			err := dao.collection.FindOneAndUpdate(ctx, bson.M{"_id": decisionID}, bson.M{"$set": set}, opts).Decode(&d)
			if err == mongo.ErrNoDocuments {
				return model.Decision{}, arbiter_errors.ErrDecisionNotFound
			}
			if err != nil {
				return model.Decision{}, arbiter_errors.ErrDatabaseOperation
			}
			return d, nil
		},
		func(ctx context.Context) {
			dao.inv.Decision(ctx, decisionID)
		})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to update decision",
			zap.Error(err),
			zap.String("decisionID", decisionID),
			zap.Duration("duration", duration))
		return nil, err
	}

	dao.inv.UserDecisions(ctx, updated.UserID)
	dao.inv.UserStats(ctx, updated.UserID)

	logger.Info("Decision updated successfully",
		zap.String("decisionID", decisionID),
		zap.String("status", string(updated.Status)),
		zap.Duration("duration", duration))
	return &updated, nil
}

func (dao *DecisionDAO) DeleteDecision(ctx context.Context, decisionID string) error {
	start := time.Now()
	logger.Info("Deleting decision", zap.String("decisionID", decisionID))

	deleted, err := cache.InvalidateAfter(ctx,
		func(ctx context.Context) (model.Decision, error) {
			var d model.Decision
			err := dao.collection.FindOneAndDelete(ctx, bson.M{"_id": decisionID}).Decode(&d)
			if err == mongo.ErrNoDocuments {
				return model.Decision{}, arbiter_errors.ErrDecisionNotFound
			}
			if err != nil {
				return model.Decision{}, arbiter_errors.ErrDatabaseOperation
			}
			return d, nil
		},
		func(ctx context.Context) {
			dao.inv.Decision(ctx, decisionID)
		})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to delete decision",
			zap.Error(err),
			zap.String("decisionID", decisionID),
			zap.Duration("duration", duration))
		return err
	}

	dao.inv.UserDecisions(ctx, deleted.UserID)
	dao.inv.UserStats(ctx, deleted.UserID)

	logger.Info("Decision deleted successfully",
		zap.String("decisionID", decisionID),
		zap.Duration("duration", duration))
	return nil
}

// FindDecisionByQuery returns the user's most recent completed decision for
// the exact query text, memoized under the query-hash key. Repeat
// submissions of the same question reuse the finished answer instead of
// running the pipeline again.
func (dao *DecisionDAO) FindDecisionByQuery(ctx context.Context, userID, query string) (*model.Decision, error) {
	decision, err := cache.GetOrFetch(ctx, dao.store, dao.keys.DecisionQuery(userID, query), cache.TTLMedium,
		func(ctx context.Context) (model.Decision, error) {
			var d model.Decision
			opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
			err := dao.collection.FindOne(ctx, bson.M{
				"user_id": userID,
				"query":   query,
				"status":  model.DecisionCompleted,
			}, opts).Decode(&d)
			if err == mongo.ErrNoDocuments {
				return model.Decision{}, arbiter_errors.ErrDecisionNotFound
			}
			if err != nil {
				return model.Decision{}, arbiter_errors.ErrDatabaseOperation
			}
			return d, nil
		})
	if err != nil {
		return nil, err
	}
	return &decision, nil
}

// decisionAggregate matches the $group stage of the stats pipeline.
type decisionAggregate struct {
	Total         int     `bson:"total"`
	Completed     int     `bson:"completed"`
	Pending       int     `bson:"pending"`
	Failed        int     `bson:"failed"`
	AvgProcessing float64 `bson:"avg_processing_ms"`
	AvgConfidence float64 `bson:"avg_confidence"`
	TotalTokens   int64   `bson:"total_tokens"`
}

// GetUserStats aggregates the user's decision history in Mongo and caches
// the result. Averages cover completed decisions only; a user with no
// decisions gets zeroed stats, not an error.
func (dao *DecisionDAO) GetUserStats(ctx context.Context, userID string) (*model.DecisionStats, error) {
	stats, err := cache.GetOrFetch(ctx, dao.store, dao.keys.UserStats(userID), cache.TTLMedium,
		func(ctx context.Context) (model.DecisionStats, error) {
			return dao.aggregateStats(ctx, userID)
		})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (dao *DecisionDAO) aggregateStats(ctx context.Context, userID string) (model.DecisionStats, error) {
	start := time.Now()

	statusCount := func(statuses ...model.DecisionStatus) bson.M {
		return bson.M{"$sum": bson.M{"$cond": bson.A{
			bson.M{"$in": bson.A{"$status", statuses}}, 1, 0,
		}}}
	}
	// Averages and token totals cover completed decisions only.
	ifCompleted := func(field string, otherwise any) bson.M {
		return bson.M{"$cond": bson.A{
			bson.M{"$eq": bson.A{"$status", model.DecisionCompleted}}, field, otherwise,
		}}
	}

	pipeline := []bson.M{
		{"$match": bson.M{"user_id": userID}},
		{"$group": bson.M{
			"_id":               nil,
			"total":             bson.M{"$sum": 1},
			"completed":         statusCount(model.DecisionCompleted),
			"pending":           statusCount(model.DecisionPending, model.DecisionProcessing),
			"failed":            statusCount(model.DecisionFailed),
			"avg_processing_ms": bson.M{"$avg": ifCompleted("$processing_time_ms", nil)},
			"avg_confidence":    bson.M{"$avg": ifCompleted("$confidence_score", nil)},
			"total_tokens":      bson.M{"$sum": ifCompleted("$total_tokens", 0)},
		}},
	}

	cursor, err := dao.collection.Aggregate(ctx, pipeline)
	if err != nil {
		logger.Error("Stats aggregation failed",
			zap.Error(err),
			zap.String("userID", userID))
		return model.DecisionStats{}, arbiter_errors.ErrDatabaseOperation
	}
	defer cursor.Close(ctx)

	var rows []decisionAggregate
	if err := cursor.All(ctx, &rows); err != nil {
		return model.DecisionStats{}, arbiter_errors.ErrDatabaseOperation
	}
	if len(rows) == 0 {
		return model.DecisionStats{}, nil
	}

	agg := rows[0]
	logger.Debug("Computed user stats",
		zap.String("userID", userID),
		zap.Int("total", agg.Total),
		zap.Duration("duration", time.Since(start)))

	return model.DecisionStats{
		TotalDecisions:      agg.Total,
		CompletedDecisions:  agg.Completed,
		PendingDecisions:    agg.Pending,
		FailedDecisions:     agg.Failed,
		AvgProcessingTimeMs: agg.AvgProcessing,
		AvgConfidenceScore:  agg.AvgConfidence,
		TotalTokensUsed:     agg.TotalTokens,
	}, nil
}
