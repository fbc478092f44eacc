package models

import (
	"testing"
)

func TestFormatPace(t *testing.T) {
	tests := []struct {
		pace float64
		want string
	}{
		{pace: 0, want: "--:--"},
		{pace: -10, want: "--:--"},
		{pace: 300, want: "5:00"},
		{pace: 365, want: "6:05"},
		{pace: 59, want: "0:59"},
		{pace: 612.8, want: "10:12"},
	}

	for _, tt := range tests {
		if got := FormatPace(tt.pace); got != tt.want {
			t.Errorf("FormatPace(%v) = %q, want %q", tt.pace, got, tt.want)
		}
	}
}

func TestSession_AvgPace(t *testing.T) {
	s := &Session{AvgPaceSec: 330}
	if got := s.AvgPace(); got != "5:30" {
		t.Errorf("AvgPace with explicit pace = %q", got)
	}

	// derived from distance and duration when pace was not recorded
	s = &Session{DurationMinutes: 30, DistanceKm: 5}
	if got := s.AvgPace(); got != "6:00" {
		t.Errorf("derived AvgPace = %q", got)
	}

	s = &Session{DurationMinutes: 10}
	if got := s.AvgPace(); got != "--:--" {
		t.Errorf("AvgPace without distance = %q", got)
	}
}

func TestDailyQuest_ProgressPercentage(t *testing.T) {
	q := DailyQuest{Target: 5, Progress: 2}
	if got := q.ProgressPercentage(); got != 40 {
		t.Errorf("ProgressPercentage = %v, want 40", got)
	}
	q = DailyQuest{Target: 5, Progress: 7}
	if got := q.ProgressPercentage(); got != 100 {
		t.Errorf("ProgressPercentage caps at 100, got %v", got)
	}
	q = DailyQuest{Target: 0}
	if got := q.ProgressPercentage(); got != 0 {
		t.Errorf("ProgressPercentage with zero target = %v", got)
	}
}

func TestUserProgress_UnlockedTrophyIDs(t *testing.T) {
	p := &UserProgress{TrophiesEarned: []TrophyUnlock{{TrophyID: "first_run"}}}
	ids := p.UnlockedTrophyIDs()
	if !ids["first_run"] || len(ids) != 1 {
		t.Errorf("UnlockedTrophyIDs = %v", ids)
	}
}
