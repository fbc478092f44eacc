package services

import (
	"context"
	"sort"
	"testing"

	"github.com/runleveling/server/database/models"
)

type stubProgressRepo struct {
	docs  []*models.UserProgress
	calls int
}

func (r *stubProgressRepo) Create(context.Context, *models.UserProgress) error  { return nil }
func (r *stubProgressRepo) GetByDeviceID(context.Context, string) (*models.UserProgress, error) {
	return nil, nil
}
func (r *stubProgressRepo) Replace(context.Context, *models.UserProgress) error { return nil }
func (r *stubProgressRepo) Delete(context.Context, string) error                { return nil }
func (r *stubProgressRepo) SetUsername(context.Context, string, string) error   { return nil }
func (r *stubProgressRepo) SetNotifications(context.Context, string, bool, string) error {
	return nil
}
func (r *stubProgressRepo) Top(_ context.Context, limit int, rankID string) ([]*models.UserProgress, error) {
	r.calls++
	var out []*models.UserProgress
	for _, p := range r.docs {
		if rankID != "" && p.Rank.ID != rankID {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalXP > out[j].TotalXP })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func testBoardRepo() *stubProgressRepo {
	return &stubProgressRepo{docs: []*models.UserProgress{
		{DeviceID: "d1", Username: "Antoine", TotalXP: 900, Level: 9, Rank: models.Rank{ID: "debutant"}},
		{DeviceID: "d2", Username: "Camille", TotalXP: 2400, Level: 15, Rank: models.Rank{ID: "jogger"}},
		{DeviceID: "d3", Username: "Bastien", TotalXP: 1500, Level: 12, Rank: models.Rank{ID: "jogger"}},
	}}
}

func TestLeaderboardService_Top(t *testing.T) {
	repo := testBoardRepo()
	svc := NewLeaderboardService(repo)
	ctx := context.Background()

	entries, err := svc.Top(ctx, 10, "")
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Username != "Camille" || entries[0].Position != 1 {
		t.Errorf("first entry: %+v", entries[0])
	}
	if entries[2].Username != "Antoine" || entries[2].Position != 3 {
		t.Errorf("last entry: %+v", entries[2])
	}

	// served from cache on the second call
	if _, err := svc.Top(ctx, 10, ""); err != nil {
		t.Fatalf("cached Top: %v", err)
	}
	if repo.calls != 1 {
		t.Errorf("expected 1 repository call, got %d", repo.calls)
	}

	// invalidation forces a refresh
	svc.Invalidate()
	if _, err := svc.Top(ctx, 10, ""); err != nil {
		t.Fatalf("Top after invalidate: %v", err)
	}
	if repo.calls != 2 {
		t.Errorf("expected 2 repository calls after invalidate, got %d", repo.calls)
	}
}

func TestLeaderboardService_TopRankFilter(t *testing.T) {
	svc := NewLeaderboardService(testBoardRepo())

	entries, err := svc.Top(context.Background(), 10, "jogger")
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 jogger entries, got %d", len(entries))
	}
	if entries[0].Username != "Camille" || entries[1].Username != "Bastien" {
		t.Errorf("filtered board: %+v", entries)
	}
	// positions are re-numbered within the filter
	if entries[1].Position != 2 {
		t.Errorf("filtered position = %d, want 2", entries[1].Position)
	}
}

func TestLeaderboardService_Search(t *testing.T) {
	svc := NewLeaderboardService(testBoardRepo())

	entries, err := svc.Search(context.Background(), "bast", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(entries) != 1 || entries[0].Username != "Bastien" {
		t.Errorf("search result: %+v", entries)
	}

	none, err := svc.Search(context.Background(), "zzzz", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no matches, got %+v", none)
	}
}

func TestLeaderboardService_PositionOf(t *testing.T) {
	svc := NewLeaderboardService(testBoardRepo())

	me, err := svc.PositionOf(context.Background(), "d3")
	if err != nil {
		t.Fatalf("PositionOf: %v", err)
	}
	if me == nil || me.Position != 2 {
		t.Errorf("PositionOf(d3) = %+v, want position 2", me)
	}

	missing, err := svc.PositionOf(context.Background(), "nope")
	if err != nil {
		t.Fatalf("PositionOf: %v", err)
	}
	if missing != nil {
		t.Errorf("PositionOf(nope) = %+v, want nil", missing)
	}
}
