package repositories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/runleveling/server/database"
	"github.com/runleveling/server/database/models"
	"github.com/runleveling/server/logger"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("not found")

type ProgressRepository interface {
	Create(ctx context.Context, progress *models.UserProgress) error
	GetByDeviceID(ctx context.Context, deviceID string) (*models.UserProgress, error)
	Replace(ctx context.Context, progress *models.UserProgress) error
	Delete(ctx context.Context, deviceID string) error
	SetUsername(ctx context.Context, deviceID, username string) error
	SetNotifications(ctx context.Context, deviceID string, enabled bool, at string) error
	Top(ctx context.Context, limit int, rankID string) ([]*models.UserProgress, error)
}

type progressRepository struct {
	db *database.DB
}

func NewProgressRepository(db *database.DB) ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) coll() *mongo.Collection {
	return r.db.Collection(database.CollUsers)
}

func (r *progressRepository) Create(ctx context.Context, progress *models.UserProgress) error {
	progress.CreatedAt = time.Now()
	progress.UpdatedAt = time.Now()
	_, err := r.coll().InsertOne(ctx, progress)
	if err != nil {
		return fmt.Errorf("failed to create progress: %w", err)
	}
	return nil
}

func (r *progressRepository) GetByDeviceID(ctx context.Context, deviceID string) (*models.UserProgress, error) {
	progress := new(models.UserProgress)
	err := r.coll().FindOne(ctx, bson.M{"device_id": deviceID}).Decode(progress)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		slog.Error("Database error when getting progress",
			slog.String("type", "db"),
			slog.String("operation", "GetByDeviceID"),
			slog.String("device_id", deviceID),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return progress, nil
}

// Replace swaps the whole document's mutable state in one write. Settlement
// relies on this being a single-document atomic update.
func (r *progressRepository) Replace(ctx context.Context, progress *models.UserProgress) error {
	progress.UpdatedAt = time.Now()
	res, err := r.coll().ReplaceOne(ctx,
		bson.M{"device_id": progress.DeviceID},
		progress,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to replace progress: %w", err)
	}
	slog.Debug("Progress replaced",
		slog.String("type", "db"),
		slog.String("device_id", progress.DeviceID),
		slog.Int64("matched", res.MatchedCount))
	return nil
}

func (r *progressRepository) Delete(ctx context.Context, deviceID string) error {
	_, err := r.coll().DeleteOne(ctx, bson.M{"device_id": deviceID})
	if err != nil {
		return fmt.Errorf("failed to delete progress: %w", err)
	}
	return nil
}

func (r *progressRepository) SetUsername(ctx context.Context, deviceID, username string) error {
	_, err := r.coll().UpdateOne(ctx,
		bson.M{"device_id": deviceID},
		bson.M{"$set": bson.M{
			"username":     username,
			"username_set": true,
			"updated_at":   time.Now(),
		}})
	if err != nil {
		return fmt.Errorf("failed to set username: %w", err)
	}
	return nil
}

func (r *progressRepository) SetNotifications(ctx context.Context, deviceID string, enabled bool, at string) error {
	_, err := r.coll().UpdateOne(ctx,
		bson.M{"device_id": deviceID},
		bson.M{"$set": bson.M{
			"notification_enabled": enabled,
			"notification_time":    at,
			"updated_at":           time.Now(),
		}})
	if err != nil {
		return fmt.Errorf("failed to set notifications: %w", err)
	}
	return nil
}

// Top returns progress documents sorted by total XP descending. The scan is
// read-only and eventually consistent; that is all the leaderboard promises.
func (r *progressRepository) Top(ctx context.Context, limit int, rankID string) ([]*models.UserProgress, error) {
	filter := bson.M{}
	if rankID != "" {
		filter["rank.id"] = rankID
	}

	start := time.Now()
	cursor, err := r.coll().Find(ctx, filter,
		options.Find().
			SetSort(bson.D{{Key: "total_xp", Value: -1}}).
			SetLimit(int64(limit)))
	logger.LogQuery("progress.Top", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer cursor.Close(ctx)

	var results []*models.UserProgress
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode leaderboard: %w", err)
	}
	return results, nil
}
