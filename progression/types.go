package progression

import (
	"fmt"
	"time"

	"github.com/runleveling/server/database/models"
)

// SessionInput is one finished workout, as reported by the client or an
// external sync. CompletedAt defaults to now when zero.
type SessionInput struct {
	DurationMinutes float64
	DistanceKm      float64
	Calories        int

	// Intensity, when set by the client, wins over pace classification.
	Intensity Intensity

	AvgPaceSec      float64 // seconds per km, 0 when unknown
	BestPaceSec     float64
	WorstPaceSec    float64
	AvgSpeedKmh     float64 // fallback when pace is unusable
	ElevationGain   float64
	ElevationLoss   float64
	RoutePoints     []models.RoutePoint
	Name            string
	StravaID        string
	CompletedAt     time.Time
}

func (in *SessionInput) Validate() error {
	if in.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidSession)
	}
	if in.DistanceKm < 0 {
		return fmt.Errorf("%w: distance cannot be negative", ErrInvalidSession)
	}
	if in.Calories < 0 {
		return fmt.Errorf("%w: calories cannot be negative", ErrInvalidSession)
	}
	if in.Intensity != "" && !in.Intensity.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownIntensity, in.Intensity)
	}
	return nil
}

// XPBreakdown itemizes where a settlement's XP came from.
type XPBreakdown struct {
	SessionXP int               `json:"session_xp"`
	TrophyXP  int               `json:"trophy_xp"`
	TotalXP   int               `json:"total_xp"`
	Trophies  []TrophyDefinition `json:"trophies,omitempty"`
}

// SettlementResult is everything a client needs to animate the end-of-run
// screen: the recorded session, the XP breakdown, and the before/after
// level and rank.
type SettlementResult struct {
	Session        *models.Session      `json:"session"`
	Progress       *models.UserProgress `json:"progress"`
	XP             XPBreakdown          `json:"xp"`
	Intensity      Intensity            `json:"intensity"`
	LeveledUp      bool                 `json:"leveled_up"`
	LevelsGained   int                  `json:"levels_gained"`
	RankChanged    bool                 `json:"rank_changed"`
	QuestsAdvanced []models.DailyQuest  `json:"quests_advanced,omitempty"`
}

// ClaimResult reports a successful quest claim.
type ClaimResult struct {
	Quest     models.DailyQuest    `json:"quest"`
	XPEarned  int                  `json:"xp_earned"`
	LeveledUp bool                 `json:"leveled_up"`
	Progress  *models.UserProgress `json:"progress"`
}

// StatsSnapshot is the read-only view trophy evaluation works against. It
// mixes lifetime totals with the extrema of the session being settled.
type StatsSnapshot struct {
	Sessions        int
	TotalDistance   float64
	TotalDuration   float64
	TotalCalories   int
	Level           int
	RankID          string
	Streak          int
	QuestsClaimed   int
	SessionDistance float64 // best single-session distance
	BestPaceSec     float64 // lowest avg sec/km, 0 when never measured
	MaxIntensity    Intensity
}
