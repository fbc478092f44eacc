package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserProgress is the single per-device progress document. One document per
// device id; every settlement replaces the mutable fields wholesale, which is
// what keeps one user's progress atomic without multi-document transactions.
type UserProgress struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	DeviceID string             `bson:"device_id" json:"device_id"`

	Username    string `bson:"username" json:"username"`
	UsernameSet bool   `bson:"username_set" json:"username_set"`

	Level     int `bson:"level" json:"level"`
	CurrentXP int `bson:"current_xp" json:"current_xp"`
	TotalXP   int `bson:"total_xp" json:"total_xp"`

	SessionsCompleted int     `bson:"sessions_completed" json:"sessions_completed"`
	TotalDistance     float64 `bson:"total_distance" json:"total_distance"` // km
	TotalDuration     float64 `bson:"total_duration" json:"total_duration"` // minutes
	TotalCalories     int     `bson:"total_calories" json:"total_calories"`

	Streak          int    `bson:"streak" json:"streak"`
	BestStreak      int    `bson:"best_streak" json:"best_streak"`
	LastSessionDate string `bson:"last_session_date,omitempty" json:"last_session_date,omitempty"` // YYYY-MM-DD

	// QuestsCompleted counts claimed quests over the device lifetime.
	QuestsCompleted int `bson:"quests_completed" json:"quests_completed"`

	// Rank is a denormalized cache; the authoritative value is always
	// recomputed from Level.
	Rank Rank `bson:"rank" json:"rank"`

	TrophiesEarned  []TrophyUnlock `bson:"trophies_earned" json:"trophies_earned"`
	DailyQuests     []DailyQuest   `bson:"daily_quests" json:"daily_quests"`
	DailyQuestsDate string         `bson:"daily_quests_date" json:"daily_quests_date"`

	// Lifetime extrema, tracked for trophy conditions.
	BestPaceSec        float64 `bson:"best_pace_sec,omitempty" json:"best_pace_sec,omitempty"` // lowest avg sec/km ever
	MaxSessionDistance float64 `bson:"max_session_distance,omitempty" json:"max_session_distance,omitempty"`
	MaxIntensity       string  `bson:"max_intensity,omitempty" json:"max_intensity,omitempty"`

	NotificationEnabled bool   `bson:"notification_enabled" json:"notification_enabled"`
	NotificationTime    string `bson:"notification_time,omitempty" json:"notification_time,omitempty"` // HH:MM

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Rank is one tier of the rank ladder. The catalog owns the ladder; the copy
// stored on UserProgress is read-convenience only.
type Rank struct {
	ID       string `bson:"id" json:"id"`
	Name     string `bson:"name" json:"name"`
	MinLevel int    `bson:"min_level" json:"min_level"`
	Color    string `bson:"color" json:"color"`
	Icon     string `bson:"icon" json:"icon"`
}

// TrophyUnlock records a trophy id the device has earned. Append-only.
type TrophyUnlock struct {
	TrophyID   string    `bson:"trophy_id" json:"trophy_id"`
	UnlockedAt time.Time `bson:"unlocked_at" json:"unlocked_at"`
}

// UnlockedTrophyIDs returns the set of unlocked trophy ids.
func (u *UserProgress) UnlockedTrophyIDs() map[string]bool {
	ids := make(map[string]bool, len(u.TrophiesEarned))
	for _, t := range u.TrophiesEarned {
		ids[t.TrophyID] = true
	}
	return ids
}

// QuestByID finds a daily quest instance by id. Returns nil if absent.
func (u *UserProgress) QuestByID(questID string) *DailyQuest {
	for i := range u.DailyQuests {
		if u.DailyQuests[i].ID == questID {
			return &u.DailyQuests[i]
		}
	}
	return nil
}
