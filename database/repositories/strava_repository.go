package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/runleveling/server/database"
	"github.com/runleveling/server/database/models"
)

type StravaTokenRepository interface {
	Get(ctx context.Context, deviceID string) (*models.StravaToken, error)
	Upsert(ctx context.Context, token *models.StravaToken) error
	Delete(ctx context.Context, deviceID string) error
	ConnectedDevices(ctx context.Context) ([]string, error)
}

type stravaTokenRepository struct {
	db *database.DB
}

func NewStravaTokenRepository(db *database.DB) StravaTokenRepository {
	return &stravaTokenRepository{db: db}
}

func (r *stravaTokenRepository) coll() *mongo.Collection {
	return r.db.Collection(database.CollStravaTokens)
}

func (r *stravaTokenRepository) Get(ctx context.Context, deviceID string) (*models.StravaToken, error) {
	token := new(models.StravaToken)
	err := r.coll().FindOne(ctx, bson.M{"device_id": deviceID}).Decode(token)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get strava token: %w", err)
	}
	return token, nil
}

func (r *stravaTokenRepository) Upsert(ctx context.Context, token *models.StravaToken) error {
	token.UpdatedAt = time.Now()
	if token.CreatedAt.IsZero() {
		token.CreatedAt = token.UpdatedAt
	}
	_, err := r.coll().ReplaceOne(ctx,
		bson.M{"device_id": token.DeviceID},
		token,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert strava token: %w", err)
	}
	return nil
}

func (r *stravaTokenRepository) Delete(ctx context.Context, deviceID string) error {
	_, err := r.coll().DeleteOne(ctx, bson.M{"device_id": deviceID})
	if err != nil {
		return fmt.Errorf("failed to delete strava token: %w", err)
	}
	return nil
}

func (r *stravaTokenRepository) ConnectedDevices(ctx context.Context) ([]string, error) {
	values, err := r.coll().Distinct(ctx, "device_id", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list connected devices: %w", err)
	}
	ids := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids, nil
}
