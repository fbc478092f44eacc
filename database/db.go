package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultConnTimeout   = 5 * time.Second
	defaultMaxRetries    = 3
	defaultRetryInterval = time.Second
)

type DBConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// DB wraps the Mongo client and the app database handle.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// Collection names
const (
	CollUsers        = "users"
	CollSessions     = "sessions"
	CollStravaTokens = "strava_tokens"
)

func New(ctx context.Context, cfg DBConfig) (*DB, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(defaultConnTimeout).
		SetServerSelectionTimeout(defaultConnTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	// The driver connects lazily; ping with retries so startup fails fast
	// with a useful error instead of on the first query.
	var pingErr error
	for attempt := 1; attempt <= defaultMaxRetries; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
		pingErr = client.Ping(pingCtx, nil)
		cancel()
		if pingErr == nil {
			break
		}
		slog.Warn("Mongo ping failed, retrying",
			slog.String("type", "db"),
			slog.Int("attempt", attempt),
			slog.String("error", pingErr.Error()))
		time.Sleep(defaultRetryInterval)
	}
	if pingErr != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to connect to mongo after %d attempts: %w", defaultMaxRetries, pingErr)
	}

	db := &DB{
		client: client,
		db:     client.Database(cfg.Database),
	}

	if err := db.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}

	slog.Info("Database connected",
		slog.String("type", "db"),
		slog.String("database", cfg.Database))

	return db, nil
}

func (d *DB) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	_, err := d.db.Collection(CollUsers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "device_id", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return err
	}

	_, err = d.db.Collection(CollUsers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "total_xp", Value: -1}},
	})
	if err != nil {
		return err
	}

	_, err = d.db.Collection(CollSessions).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "device_id", Value: 1}, {Key: "completed_at", Value: -1}},
	})
	if err != nil {
		return err
	}

	_, err = d.db.Collection(CollStravaTokens).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "device_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// Ping checks the server connection.
func (d *DB) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, nil)
}

// Collection returns a raw collection handle.
func (d *DB) Collection(name string) *mongo.Collection {
	return d.db.Collection(name)
}

// Close disconnects the underlying client.
func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}
