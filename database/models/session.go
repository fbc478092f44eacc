package models

import (
	"fmt"
	"time"
)

// Session is the immutable record of one completed workout. Written exactly
// once at settlement time; only the bulk device reset ever removes it.
type Session struct {
	ID       string `bson:"id" json:"id"`
	DeviceID string `bson:"device_id" json:"device_id"`

	DurationMinutes float64 `bson:"duration_minutes" json:"duration_minutes"`
	DistanceKm      float64 `bson:"distance_km" json:"distance_km"`
	Calories        int     `bson:"calories" json:"calories"`

	Intensity     string `bson:"intensity" json:"intensity"`
	IntensityName string `bson:"intensity_name" json:"intensity_name"`

	// XP breakdown: XPEarned = SessionXP + TrophyXP. Quest rewards are paid
	// out at claim time and never attributed to a session record.
	XPEarned  int `bson:"xp_earned" json:"xp_earned"`
	SessionXP int `bson:"session_xp" json:"session_xp"`
	TrophyXP  int `bson:"trophy_xp" json:"trophy_xp"`

	LevelBefore int    `bson:"level_before" json:"level_before"`
	LevelAfter  int    `bson:"level_after" json:"level_after"`
	LeveledUp   bool   `bson:"leveled_up" json:"leveled_up"`
	RankBefore  string `bson:"rank_before" json:"rank_before"`
	RankAfter   string `bson:"rank_after" json:"rank_after"`
	RankedUp    bool   `bson:"ranked_up" json:"ranked_up"`

	AvgPaceSec   float64 `bson:"avg_pace_sec,omitempty" json:"avg_pace_sec,omitempty"` // seconds per km
	BestPaceSec  float64 `bson:"best_pace_sec,omitempty" json:"best_pace_sec,omitempty"`
	WorstPaceSec float64 `bson:"worst_pace_sec,omitempty" json:"worst_pace_sec,omitempty"`

	ElevationGain float64 `bson:"elevation_gain,omitempty" json:"elevation_gain,omitempty"`
	ElevationLoss float64 `bson:"elevation_loss,omitempty" json:"elevation_loss,omitempty"`

	RoutePointCount int    `bson:"route_point_count,omitempty" json:"route_point_count,omitempty"`
	RouteKey        string `bson:"route_key,omitempty" json:"route_key,omitempty"`

	// StravaID is set for sessions imported from Strava, used for dedup.
	StravaID string `bson:"strava_id,omitempty" json:"strava_id,omitempty"`
	Name     string `bson:"name,omitempty" json:"name,omitempty"`

	CompletedAt time.Time `bson:"completed_at" json:"completed_at"`
}

// RoutePoint is one GPS sample of a session route.
type RoutePoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp,omitempty"`
}

// FormatPace renders seconds-per-km as "m:ss", or "--:--" when unknown.
func FormatPace(paceSec float64) string {
	if paceSec <= 0 {
		return "--:--"
	}
	m := int(paceSec) / 60
	s := int(paceSec) % 60
	return fmt.Sprintf("%d:%02d", m, s)
}

// AvgPace returns the session's average pace formatted for display.
func (s *Session) AvgPace() string {
	if s.AvgPaceSec > 0 {
		return FormatPace(s.AvgPaceSec)
	}
	if s.DistanceKm > 0 && s.DurationMinutes > 0 {
		return FormatPace(s.DurationMinutes * 60 / s.DistanceKm)
	}
	return "--:--"
}
