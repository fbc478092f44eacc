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
	"github.com/runleveling/server/logger"
)

type SessionRepository interface {
	Insert(ctx context.Context, session *models.Session) error
	GetByDeviceID(ctx context.Context, deviceID string, limit int) ([]*models.Session, error)
	SetRouteKey(ctx context.Context, sessionID, key string) error
	DeleteByDeviceID(ctx context.Context, deviceID string) error
	ExistsByStravaID(ctx context.Context, stravaID string) (bool, error)
}

type sessionRepository struct {
	db *database.DB
}

func NewSessionRepository(db *database.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) coll() *mongo.Collection {
	return r.db.Collection(database.CollSessions)
}

func (r *sessionRepository) Insert(ctx context.Context, session *models.Session) error {
	start := time.Now()
	_, err := r.coll().InsertOne(ctx, session)
	logger.LogQuery("sessions.Insert", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (r *sessionRepository) GetByDeviceID(ctx context.Context, deviceID string, limit int) ([]*models.Session, error) {
	start := time.Now()
	cursor, err := r.coll().Find(ctx,
		bson.M{"device_id": deviceID},
		options.Find().
			SetSort(bson.D{{Key: "completed_at", Value: -1}}).
			SetLimit(int64(limit)))
	logger.LogQuery("sessions.GetByDeviceID", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var sessions []*models.Session
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}
	return sessions, nil
}

// SetRouteKey records the object-storage key of an archived GPS trace on an
// already inserted session.
func (r *sessionRepository) SetRouteKey(ctx context.Context, sessionID, key string) error {
	res, err := r.coll().UpdateOne(ctx,
		bson.M{"id": sessionID},
		bson.M{"$set": bson.M{"route_key": key}})
	if err != nil {
		return fmt.Errorf("failed to set route key: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sessionRepository) DeleteByDeviceID(ctx context.Context, deviceID string) error {
	_, err := r.coll().DeleteMany(ctx, bson.M{"device_id": deviceID})
	if err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	return nil
}

func (r *sessionRepository) ExistsByStravaID(ctx context.Context, stravaID string) (bool, error) {
	err := r.coll().FindOne(ctx, bson.M{"strava_id": stravaID}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check strava id: %w", err)
	}
	return true, nil
}
