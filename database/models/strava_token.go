package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StravaToken holds the OAuth tokens for one connected device.
type StravaToken struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	DeviceID string             `bson:"device_id" json:"device_id"`

	AccessToken  string `bson:"access_token" json:"-"`
	RefreshToken string `bson:"refresh_token" json:"-"`
	ExpiresAt    int64  `bson:"expires_at" json:"expires_at"` // unix seconds

	AthleteID   int64  `bson:"athlete_id" json:"athlete_id"`
	AthleteName string `bson:"athlete_name,omitempty" json:"athlete_name,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Expired reports whether the access token needs a refresh.
func (t *StravaToken) Expired(now time.Time) bool {
	return t.ExpiresAt <= now.Unix()
}
