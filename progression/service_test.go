package progression

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/runleveling/server/database/models"
	"github.com/runleveling/server/database/repositories"
)

type memProgressRepo struct {
	docs map[string]*models.UserProgress
}

func newMemProgressRepo() *memProgressRepo {
	return &memProgressRepo{docs: map[string]*models.UserProgress{}}
}

func (r *memProgressRepo) Create(_ context.Context, p *models.UserProgress) error {
	cp := *p
	r.docs[p.DeviceID] = &cp
	return nil
}

func (r *memProgressRepo) GetByDeviceID(_ context.Context, deviceID string) (*models.UserProgress, error) {
	p, ok := r.docs[deviceID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memProgressRepo) Replace(_ context.Context, p *models.UserProgress) error {
	cp := *p
	r.docs[p.DeviceID] = &cp
	return nil
}

func (r *memProgressRepo) Delete(_ context.Context, deviceID string) error {
	if _, ok := r.docs[deviceID]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.docs, deviceID)
	return nil
}

func (r *memProgressRepo) SetUsername(_ context.Context, deviceID, username string) error {
	p := r.docs[deviceID]
	p.Username = username
	p.UsernameSet = true
	return nil
}

func (r *memProgressRepo) SetNotifications(_ context.Context, deviceID string, enabled bool, at string) error {
	p := r.docs[deviceID]
	p.NotificationEnabled = enabled
	p.NotificationTime = at
	return nil
}

func (r *memProgressRepo) Top(_ context.Context, limit int, rankID string) ([]*models.UserProgress, error) {
	var out []*models.UserProgress
	for _, p := range r.docs {
		if rankID != "" && p.Rank.ID != rankID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalXP > out[j].TotalXP })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memSessionRepo struct {
	sessions []*models.Session
}

func (r *memSessionRepo) Insert(_ context.Context, s *models.Session) error {
	cp := *s
	r.sessions = append(r.sessions, &cp)
	return nil
}

func (r *memSessionRepo) GetByDeviceID(_ context.Context, deviceID string, limit int) ([]*models.Session, error) {
	var out []*models.Session
	for _, s := range r.sessions {
		if s.DeviceID == deviceID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memSessionRepo) SetRouteKey(_ context.Context, sessionID, key string) error {
	for _, s := range r.sessions {
		if s.ID == sessionID {
			s.RouteKey = key
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r *memSessionRepo) DeleteByDeviceID(_ context.Context, deviceID string) error {
	var kept []*models.Session
	for _, s := range r.sessions {
		if s.DeviceID != deviceID {
			kept = append(kept, s)
		}
	}
	r.sessions = kept
	return nil
}

func (r *memSessionRepo) ExistsByStravaID(_ context.Context, stravaID string) (bool, error) {
	for _, s := range r.sessions {
		if s.StravaID == stravaID {
			return true, nil
		}
	}
	return false, nil
}

var testNow = time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

func newTestService(cfg *Config) (*Service, *memProgressRepo, *memSessionRepo) {
	progressRepo := newMemProgressRepo()
	sessionRepo := &memSessionRepo{}
	s := NewService(cfg, progressRepo, sessionRepo)
	s.now = func() time.Time { return testNow }
	s.quests = NewQuestEngine(cfg, rand.New(rand.NewSource(1)))
	return s, progressRepo, sessionRepo
}

func TestService_GetOrCreateProgress(t *testing.T) {
	s, _, _ := newTestService(NewDefaultConfig())
	ctx := context.Background()

	p, err := s.GetOrCreateProgress(ctx, "device-1234")
	if err != nil {
		t.Fatalf("GetOrCreateProgress: %v", err)
	}
	if p.Level != 1 || p.TotalXP != 0 {
		t.Errorf("fresh profile level=%d total=%d", p.Level, p.TotalXP)
	}
	if p.Rank.ID != "debutant" {
		t.Errorf("fresh profile rank %s", p.Rank.ID)
	}
	if len(p.DailyQuests) != 3 || p.DailyQuestsDate != "2026-08-30" {
		t.Errorf("fresh profile quests: %d on %s", len(p.DailyQuests), p.DailyQuestsDate)
	}
	if p.Username == "" {
		t.Error("fresh profile should get a placeholder username")
	}

	// second call returns the same document, no duplicate creation
	again, err := s.GetOrCreateProgress(ctx, "device-1234")
	if err != nil {
		t.Fatalf("second GetOrCreateProgress: %v", err)
	}
	if again.DailyQuests[0].ID != p.DailyQuests[0].ID {
		t.Error("existing profile quest slate should be stable within the day")
	}
}

func TestService_QuestRollover(t *testing.T) {
	s, repo, _ := newTestService(NewDefaultConfig())
	ctx := context.Background()

	p, _ := s.GetOrCreateProgress(ctx, "device-1234")
	staleID := p.DailyQuests[0].ID

	stored := repo.docs["device-1234"]
	stored.DailyQuestsDate = "2026-08-29"
	for i := range stored.DailyQuests {
		stored.DailyQuests[i].Date = "2026-08-29"
	}

	rolled, err := s.GetOrCreateProgress(ctx, "device-1234")
	if err != nil {
		t.Fatalf("GetOrCreateProgress: %v", err)
	}
	if rolled.DailyQuestsDate != "2026-08-30" {
		t.Errorf("quest date not rolled: %s", rolled.DailyQuestsDate)
	}
	for _, q := range rolled.DailyQuests {
		if q.ID == staleID && q.Date != "2026-08-30" {
			t.Errorf("stale quest survived rollover: %+v", q)
		}
		if q.Progress != 0 || q.Completed || q.Claimed {
			t.Errorf("rolled quest not pristine: %+v", q)
		}
	}
}

func TestService_SettleSession_FlatLinear(t *testing.T) {
	s, _, sessionRepo := newTestService(linearFlatConfig())
	ctx := context.Background()

	result, err := s.SettleSession(ctx, "device-1234", SessionInput{
		DurationMinutes: 5,
		DistanceKm:      0.8,
	})
	if err != nil {
		t.Fatalf("SettleSession: %v", err)
	}

	// flat formula: 50 + 5*10 = 100, exactly one level on the linear curve
	if result.XP.SessionXP != 100 {
		t.Errorf("session XP = %d, want 100", result.XP.SessionXP)
	}
	// first session also unlocks the first-run trophy
	if result.XP.TrophyXP != 50 {
		t.Errorf("trophy XP = %d, want 50", result.XP.TrophyXP)
	}
	if !result.LeveledUp || result.Progress.Level != 2 {
		t.Errorf("level = %d leveledUp=%v, want level 2", result.Progress.Level, result.LeveledUp)
	}
	// 150 total, 100 consumed by the level-up
	if result.Progress.CurrentXP != 50 || result.Progress.TotalXP != 150 {
		t.Errorf("currentXP=%d totalXP=%d, want 50/150", result.Progress.CurrentXP, result.Progress.TotalXP)
	}
	if result.Progress.Streak != 1 {
		t.Errorf("streak = %d, want 1", result.Progress.Streak)
	}

	if len(sessionRepo.sessions) != 1 {
		t.Fatalf("expected 1 session record, got %d", len(sessionRepo.sessions))
	}
	rec := sessionRepo.sessions[0]
	if rec.LevelBefore != 1 || rec.LevelAfter != 2 || !rec.LeveledUp {
		t.Errorf("session record levels %d->%d", rec.LevelBefore, rec.LevelAfter)
	}
	if rec.XPEarned != 150 || rec.SessionXP != 100 || rec.TrophyXP != 50 {
		t.Errorf("session record XP breakdown: %+v", rec)
	}
	if rec.ID == "" {
		t.Error("session record needs an id")
	}
}

func TestService_SettleSession_WeightedGeometric(t *testing.T) {
	s, repo, _ := newTestService(geometricConfig())
	ctx := context.Background()

	// seed an existing profile so the first-run trophy does not interfere
	_, _ = s.GetOrCreateProgress(ctx, "device-1234")
	stored := repo.docs["device-1234"]
	stored.SessionsCompleted = 4
	stored.TotalDistance = 4
	stored.TotalDuration = 30
	stored.Streak = 1
	stored.LastSessionDate = "2026-08-29"
	stored.TrophiesEarned = []models.TrophyUnlock{{TrophyID: "first_run", UnlockedAt: testNow}}

	result, err := s.SettleSession(ctx, "device-1234", SessionInput{
		DurationMinutes: 10,
		DistanceKm:      0,
		AvgPaceSec:      330, // intense
	})
	if err != nil {
		t.Fatalf("SettleSession: %v", err)
	}

	if result.Intensity != IntensityIntense {
		t.Errorf("intensity = %s, want intense", result.Intensity)
	}
	// 10 min * 8 * 1.5 * tier 1.0, no distance terms
	if result.XP.SessionXP != 120 {
		t.Errorf("session XP = %d, want 120", result.XP.SessionXP)
	}
	// five_sessions unlocks at the new sessions count
	if result.XP.TrophyXP != 100 {
		t.Errorf("trophy XP = %d, want 100 (five_sessions)", result.XP.TrophyXP)
	}
	// 220 total vs 150 for level 2: one level, 70 left
	if result.Progress.Level != 2 || result.Progress.CurrentXP != 70 {
		t.Errorf("level=%d currentXP=%d, want 2/70", result.Progress.Level, result.Progress.CurrentXP)
	}
	// yesterday's run extends the streak
	if result.Progress.Streak != 2 {
		t.Errorf("streak = %d, want 2", result.Progress.Streak)
	}
}

func TestService_SettleSession_MultiLevelAndTrophyCascade(t *testing.T) {
	s, _, _ := newTestService(linearFlatConfig())
	ctx := context.Background()

	result, err := s.SettleSession(ctx, "device-1234", SessionInput{
		DurationMinutes: 60,
	})
	if err != nil {
		t.Fatalf("SettleSession: %v", err)
	}

	// flat: 50 + 600 = 650 session XP crosses levels 1..4 (100+125+150+175),
	// landing on level 5 with 100 left
	if result.XP.SessionXP != 650 {
		t.Errorf("session XP = %d, want 650", result.XP.SessionXP)
	}
	// first_run + level_5 + hour_total
	if result.XP.TrophyXP != 200 {
		t.Errorf("trophy XP = %d, want 200", result.XP.TrophyXP)
	}
	ids := trophyIDs(result.XP.Trophies)
	for _, want := range []string{"first_run", "level_5", "hour_total"} {
		if !contains(ids, want) {
			t.Errorf("expected trophy %s in %v", want, ids)
		}
	}
	// trophy XP pushes through level 5 (200 needed): level 6, 100 left
	if result.Progress.Level != 6 || result.Progress.CurrentXP != 100 {
		t.Errorf("level=%d currentXP=%d, want 6/100", result.Progress.Level, result.Progress.CurrentXP)
	}
	if result.Progress.TotalXP != 850 {
		t.Errorf("totalXP = %d, want 850", result.Progress.TotalXP)
	}
}

func TestService_SettleSession_StreakRules(t *testing.T) {
	s, _, _ := newTestService(linearFlatConfig())
	ctx := context.Background()

	day := func(d int, hour int) time.Time {
		return time.Date(2026, 8, d, hour, 0, 0, 0, time.UTC)
	}

	settle := func(at time.Time) *SettlementResult {
		t.Helper()
		result, err := s.SettleSession(ctx, "device-1234", SessionInput{
			DurationMinutes: 5,
			CompletedAt:     at,
		})
		if err != nil {
			t.Fatalf("SettleSession: %v", err)
		}
		return result
	}

	if got := settle(day(25, 9)).Progress.Streak; got != 1 {
		t.Errorf("first day streak = %d, want 1", got)
	}
	if got := settle(day(26, 9)).Progress.Streak; got != 2 {
		t.Errorf("consecutive day streak = %d, want 2", got)
	}
	if got := settle(day(26, 18)).Progress.Streak; got != 2 {
		t.Errorf("same day streak = %d, want 2", got)
	}
	if got := settle(day(27, 9)).Progress.Streak; got != 3 {
		t.Errorf("third day streak = %d, want 3", got)
	}
	// a missed day resets
	result := settle(day(29, 9))
	if result.Progress.Streak != 1 {
		t.Errorf("streak after gap = %d, want 1", result.Progress.Streak)
	}
	if result.Progress.BestStreak != 3 {
		t.Errorf("best streak = %d, want 3", result.Progress.BestStreak)
	}
}

func TestService_SettleSession_BackdatedSkipsQuests(t *testing.T) {
	s, _, _ := newTestService(NewDefaultConfig())
	ctx := context.Background()

	result, err := s.SettleSession(ctx, "device-1234", SessionInput{
		DurationMinutes: 30,
		DistanceKm:      5,
		CompletedAt:     time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("SettleSession: %v", err)
	}
	if len(result.QuestsAdvanced) != 0 {
		t.Errorf("backdated session must not advance today's quests: %v", result.QuestsAdvanced)
	}
	for _, q := range result.Progress.DailyQuests {
		if q.Progress != 0 {
			t.Errorf("quest %s advanced by backdated session: %+v", q.ID, q)
		}
	}
}

func TestService_SettleSession_Invalid(t *testing.T) {
	s, _, _ := newTestService(NewDefaultConfig())
	ctx := context.Background()

	_, err := s.SettleSession(ctx, "device-1234", SessionInput{DurationMinutes: 0})
	if !errors.Is(err, ErrInvalidSession) {
		t.Errorf("zero duration: err = %v, want ErrInvalidSession", err)
	}
	_, err = s.SettleSession(ctx, "device-1234", SessionInput{DurationMinutes: 10, DistanceKm: -1})
	if !errors.Is(err, ErrInvalidSession) {
		t.Errorf("negative distance: err = %v, want ErrInvalidSession", err)
	}
	_, err = s.SettleSession(ctx, "device-1234", SessionInput{DurationMinutes: 10, Intensity: "blistering"})
	if !errors.Is(err, ErrUnknownIntensity) {
		t.Errorf("unknown intensity: err = %v, want ErrUnknownIntensity", err)
	}
}

func TestService_SettleSession_IntensityOverrideAndCalories(t *testing.T) {
	s, _, _ := newTestService(linearFlatConfig())
	ctx := context.Background()

	// client tag wins over the pace classification, and a missing calorie
	// count falls back to the 8 kcal/min estimate
	result, err := s.SettleSession(ctx, "device-1234", SessionInput{
		DurationMinutes: 30,
		Intensity:       IntensityExtreme,
		AvgPaceSec:      500, // would classify as light
	})
	if err != nil {
		t.Fatalf("SettleSession: %v", err)
	}
	if result.Intensity != IntensityExtreme {
		t.Errorf("intensity = %s, want extreme", result.Intensity)
	}
	if result.Session.Calories != 240 {
		t.Errorf("calories = %d, want estimated 240", result.Session.Calories)
	}
	if result.Progress.TotalCalories != 240 {
		t.Errorf("total calories = %d, want 240", result.Progress.TotalCalories)
	}
}

func TestService_ClaimQuest(t *testing.T) {
	s, repo, _ := newTestService(linearFlatConfig())
	ctx := context.Background()

	_, _ = s.GetOrCreateProgress(ctx, "device-1234")
	stored := repo.docs["device-1234"]
	stored.DailyQuests = []models.DailyQuest{
		{ID: "done", Type: models.QuestTypeSessions, Target: 1, Progress: 1, Completed: true, XPReward: 40, Date: "2026-08-30"},
		{ID: "pending", Type: models.QuestTypeDistance, Target: 5, Progress: 2, Date: "2026-08-30"},
	}

	result, err := s.ClaimQuest(ctx, "device-1234", "done")
	if err != nil {
		t.Fatalf("ClaimQuest: %v", err)
	}
	if result.XPEarned != 40 {
		t.Errorf("claim XP = %d, want 40", result.XPEarned)
	}
	if !result.Quest.Claimed {
		t.Error("claimed quest should be flagged")
	}
	if result.Progress.QuestsCompleted != 1 {
		t.Errorf("quests completed = %d, want 1", result.Progress.QuestsCompleted)
	}
	if result.Progress.TotalXP != 40 || result.Progress.CurrentXP != 40 {
		t.Errorf("XP after claim: total=%d current=%d", result.Progress.TotalXP, result.Progress.CurrentXP)
	}

	if _, err := s.ClaimQuest(ctx, "device-1234", "done"); !errors.Is(err, ErrQuestAlreadyClaimed) {
		t.Errorf("double claim: err = %v, want ErrQuestAlreadyClaimed", err)
	}
	if _, err := s.ClaimQuest(ctx, "device-1234", "pending"); !errors.Is(err, ErrQuestNotCompleted) {
		t.Errorf("incomplete claim: err = %v, want ErrQuestNotCompleted", err)
	}
	if _, err := s.ClaimQuest(ctx, "device-1234", "missing"); !errors.Is(err, ErrQuestNotFound) {
		t.Errorf("unknown claim: err = %v, want ErrQuestNotFound", err)
	}
}

func TestService_ClaimQuest_CanLevelUp(t *testing.T) {
	s, repo, _ := newTestService(linearFlatConfig())
	ctx := context.Background()

	_, _ = s.GetOrCreateProgress(ctx, "device-1234")
	stored := repo.docs["device-1234"]
	stored.CurrentXP = 90
	stored.TotalXP = 90
	stored.DailyQuests = []models.DailyQuest{
		{ID: "big", Type: models.QuestTypeXP, Target: 100, Progress: 100, Completed: true, XPReward: 30, Date: "2026-08-30"},
	}

	result, err := s.ClaimQuest(ctx, "device-1234", "big")
	if err != nil {
		t.Fatalf("ClaimQuest: %v", err)
	}
	if !result.LeveledUp || result.Progress.Level != 2 {
		t.Errorf("claim should level up: level=%d leveledUp=%v", result.Progress.Level, result.LeveledUp)
	}
	if result.Progress.CurrentXP != 20 {
		t.Errorf("currentXP = %d, want 20", result.Progress.CurrentXP)
	}
}

func TestService_SetUsernameOnce(t *testing.T) {
	s, _, _ := newTestService(NewDefaultConfig())
	ctx := context.Background()

	p, err := s.SetUsername(ctx, "device-1234", "Antoine")
	if err != nil {
		t.Fatalf("SetUsername: %v", err)
	}
	if p.Username != "Antoine" || !p.UsernameSet {
		t.Errorf("username not applied: %+v", p)
	}

	if _, err := s.SetUsername(ctx, "device-1234", "Bertrand"); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("second SetUsername: err = %v, want ErrUsernameTaken", err)
	}
}

func TestService_ResetDevice(t *testing.T) {
	s, repo, sessionRepo := newTestService(linearFlatConfig())
	ctx := context.Background()

	_, err := s.SettleSession(ctx, "device-1234", SessionInput{DurationMinutes: 5})
	if err != nil {
		t.Fatalf("SettleSession: %v", err)
	}

	if err := s.ResetDevice(ctx, "device-1234"); err != nil {
		t.Fatalf("ResetDevice: %v", err)
	}
	if _, ok := repo.docs["device-1234"]; ok {
		t.Error("progress document should be gone")
	}
	if len(sessionRepo.sessions) != 0 {
		t.Errorf("sessions should be gone, %d left", len(sessionRepo.sessions))
	}

	// resetting an unknown device is not an error
	if err := s.ResetDevice(ctx, "device-1234"); err != nil {
		t.Errorf("second reset: %v", err)
	}

	// first contact after reset starts from scratch
	p, _ := s.GetOrCreateProgress(ctx, "device-1234")
	if p.Level != 1 || p.TotalXP != 0 {
		t.Errorf("profile after reset: level=%d total=%d", p.Level, p.TotalXP)
	}
}

func TestService_SettleSession_RankBoundary(t *testing.T) {
	s, repo, sessionRepo := newTestService(linearFlatConfig())
	ctx := context.Background()

	// park the profile one session short of the debutant/jogger boundary:
	// level 10 needs 325 XP, a 5-minute flat session pays 100
	_, _ = s.GetOrCreateProgress(ctx, "device-1234")
	stored := repo.docs["device-1234"]
	stored.Level = 10
	stored.CurrentXP = 300
	stored.TotalXP = 2200
	stored.Rank = s.config.RankForLevel(10)
	stored.TrophiesEarned = []models.TrophyUnlock{
		{TrophyID: "first_run", UnlockedAt: testNow},
		{TrophyID: "level_5", UnlockedAt: testNow},
		{TrophyID: "level_10", UnlockedAt: testNow},
		{TrophyID: "jogger_rank", UnlockedAt: testNow},
	}

	result, err := s.SettleSession(ctx, "device-1234", SessionInput{
		DurationMinutes: 5,
	})
	if err != nil {
		t.Fatalf("SettleSession: %v", err)
	}

	if result.XP.TrophyXP != 0 {
		t.Errorf("trophy XP = %d, want 0 (all pre-unlocked)", result.XP.TrophyXP)
	}
	if result.Progress.Level != 11 || result.Progress.CurrentXP != 75 {
		t.Errorf("level=%d currentXP=%d, want 11/75", result.Progress.Level, result.Progress.CurrentXP)
	}
	if !result.RankChanged || result.Progress.Rank.ID != "jogger" {
		t.Errorf("rankChanged=%v rank=%s, want true/jogger", result.RankChanged, result.Progress.Rank.ID)
	}

	rec := sessionRepo.sessions[0]
	if rec.RankBefore != "debutant" || rec.RankAfter != "jogger" || !rec.RankedUp {
		t.Errorf("session record ranks %s->%s rankedUp=%v", rec.RankBefore, rec.RankAfter, rec.RankedUp)
	}
	if rec.LevelBefore != 10 || rec.LevelAfter != 11 {
		t.Errorf("session record levels %d->%d", rec.LevelBefore, rec.LevelAfter)
	}
}

func TestService_AttachRouteKey(t *testing.T) {
	s, _, _ := newTestService(linearFlatConfig())
	ctx := context.Background()

	result, err := s.SettleSession(ctx, "device-1234", SessionInput{DurationMinutes: 5})
	if err != nil {
		t.Fatalf("SettleSession: %v", err)
	}

	key := "routes/device-1234/" + result.Session.ID + ".json"
	if err := s.AttachRouteKey(ctx, result.Session.ID, key); err != nil {
		t.Fatalf("AttachRouteKey: %v", err)
	}

	// the persisted record carries the key, so history and route retrieval
	// can find the archive
	sessions, err := s.Sessions(ctx, "device-1234", 10)
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].RouteKey != key {
		t.Errorf("stored route key = %q, want %q", sessions[0].RouteKey, key)
	}

	if err := s.AttachRouteKey(ctx, "no-such-session", key); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("unknown session: err = %v, want ErrNotFound", err)
	}
}
