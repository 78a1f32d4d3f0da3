package services

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/AnshRaj112/patience-portal/internal/logger"
	"github.com/AnshRaj112/patience-portal/internal/models"
)

const ActivityCollection = "portal_activity"

// ActivityRecorder stores portal activity. Record must not block the request.
type ActivityRecorder interface {
	Record(ctx context.Context, a models.Activity)
}

// NopActivity discards every entry. Used when MongoDB is not configured.
type NopActivity struct{}

func (NopActivity) Record(context.Context, models.Activity) {}

// MongoActivityLog writes the trail to the portal_activity collection.
type MongoActivityLog struct {
	col *mongo.Collection
	wg  sync.WaitGroup
}

func NewMongoActivityLog(db *mongo.Database) *MongoActivityLog {
	return &MongoActivityLog{col: db.Collection(ActivityCollection)}
}

// EnsureIndexes creates the lookup indexes. Called once on startup.
func (l *MongoActivityLog) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "phone", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_phone_created"),
		},
		{
			Keys:    bson.D{{Key: "subscriber_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_subscriber_created"),
		},
	}
	_, err := l.col.Indexes().CreateMany(ctx, indexes)
	return err
}

// Record inserts asynchronously; failures are logged and dropped.
func (l *MongoActivityLog) Record(ctx context.Context, a models.Activity) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	log := logger.From(ctx)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		insertCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := l.col.InsertOne(insertCtx, a); err != nil {
			log.Warn("activity insert failed", zap.String("activity", a.Action), zap.Error(err))
		}
	}()
}

// Flush waits for pending inserts.
func (l *MongoActivityLog) Flush() {
	l.wg.Wait()
}

// Recent returns the newest entries for a normalized phone.
func (l *MongoActivityLog) Recent(ctx context.Context, phone string, limit int64) ([]models.Activity, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cur, err := l.col.Find(ctx, bson.M{"phone": phone}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Activity
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
