package services

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sahilm/fuzzy"

	"github.com/runleveling/server/config"
	"github.com/runleveling/server/database/models"
	"github.com/runleveling/server/database/repositories"
)

// LeaderboardEntry is one row of the global ranking.
type LeaderboardEntry struct {
	Position      int         `json:"position"`
	DeviceID      string      `json:"device_id"`
	Username      string      `json:"username"`
	Level         int         `json:"level"`
	TotalXP       int         `json:"total_xp"`
	Rank          models.Rank `json:"rank"`
	Streak        int         `json:"streak"`
	Sessions      int         `json:"sessions_completed"`
	Distance      float64     `json:"total_distance"`
	IsCurrentUser bool        `json:"is_current_user,omitempty"`
}

type cachedBoard struct {
	entries   []LeaderboardEntry
	timestamp time.Time
}

// LeaderboardService serves the global ranking with a short-lived LRU cache
// in front of the total_xp index, keyed by (limit, rank filter).
type LeaderboardService struct {
	progressRepo repositories.ProgressRepository
	cache        *lru.Cache
	cacheExpiry  time.Duration
}

func NewLeaderboardService(progressRepo repositories.ProgressRepository) *LeaderboardService {
	cache, _ := lru.New(config.LeaderboardCacheSize)
	return &LeaderboardService{
		progressRepo: progressRepo,
		cache:        cache,
		cacheExpiry:  config.LeaderboardCacheExpiry,
	}
}

// Top returns the leaderboard sorted by lifetime XP, optionally filtered to
// one rank tier. Positions are 1-based after filtering.
func (s *LeaderboardService) Top(ctx context.Context, limit int, rankID string) ([]LeaderboardEntry, error) {
	key := fmt.Sprintf("%d:%s", limit, rankID)
	if cached, ok := s.cache.Get(key); ok {
		board := cached.(cachedBoard)
		if time.Since(board.timestamp) < s.cacheExpiry {
			return board.entries, nil
		}
		s.cache.Remove(key)
	}

	rows, err := s.progressRepo.Top(ctx, limit, rankID)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(rows))
	for i, p := range rows {
		entries = append(entries, LeaderboardEntry{
			Position: i + 1,
			DeviceID: p.DeviceID,
			Username: p.Username,
			Level:    p.Level,
			TotalXP:  p.TotalXP,
			Rank:     p.Rank,
			Streak:   p.Streak,
			Sessions: p.SessionsCompleted,
			Distance: p.TotalDistance,
		})
	}

	s.cache.Add(key, cachedBoard{entries: entries, timestamp: time.Now()})
	return entries, nil
}

// Search fuzzy-matches usernames against the current board, preserving the
// match ranking that fuzzy returns.
func (s *LeaderboardService) Search(ctx context.Context, query string, limit int) ([]LeaderboardEntry, error) {
	entries, err := s.Top(ctx, config.MaxLeaderboardLimit, "")
	if err != nil {
		return nil, err
	}

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Username
	}

	matches := fuzzy.Find(query, names)
	results := make([]LeaderboardEntry, 0, limit)
	for _, m := range matches {
		if len(results) >= limit {
			break
		}
		results = append(results, entries[m.Index])
	}
	return results, nil
}

// PositionOf finds a device's row on the board, or nil when it is outside
// the returned window. The row is a copy; callers may annotate it.
func (s *LeaderboardService) PositionOf(ctx context.Context, deviceID string) (*LeaderboardEntry, error) {
	entries, err := s.Top(ctx, config.MaxLeaderboardLimit, "")
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].DeviceID == deviceID {
			entry := entries[i]
			return &entry, nil
		}
	}
	return nil, nil
}

// Invalidate drops every cached board. Called after writes that move XP.
func (s *LeaderboardService) Invalidate() {
	s.cache.Purge()
}
