package progression

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/runleveling/server/database/models"
	"github.com/runleveling/server/database/repositories"
)

// Service orchestrates the whole progression pipeline: it owns the rule-set
// and the pure engines and drives the repositories. One instance is shared by
// every handler.
type Service struct {
	config     *Config
	calculator *Calculator
	quests     *QuestEngine

	progressRepo repositories.ProgressRepository
	sessionRepo  repositories.SessionRepository

	now func() time.Time
}

func NewService(config *Config, progressRepo repositories.ProgressRepository, sessionRepo repositories.SessionRepository) *Service {
	return &Service{
		config:       config,
		calculator:   NewCalculator(config),
		quests:       NewQuestEngine(config, rand.New(rand.NewSource(time.Now().UnixNano()))),
		progressRepo: progressRepo,
		sessionRepo:  sessionRepo,
		now:          time.Now,
	}
}

func (s *Service) Config() *Config         { return s.config }
func (s *Service) Calculator() *Calculator { return s.calculator }

// GetOrCreateProgress loads the device's document, creating a fresh level-1
// profile on first contact. Stale daily quests are rolled over to today's
// slate before the document is returned.
func (s *Service) GetOrCreateProgress(ctx context.Context, deviceID string) (*models.UserProgress, error) {
	progress, err := s.progressRepo.GetByDeviceID(ctx, deviceID)
	if errors.Is(err, repositories.ErrNotFound) {
		progress = s.newProgress(deviceID)
		if err := s.progressRepo.Create(ctx, progress); err != nil {
			return nil, err
		}
		slog.Info("New device registered",
			slog.String("type", "game"),
			slog.String("device_id", deviceID))
		return progress, nil
	}
	if err != nil {
		return nil, err
	}

	if s.rolloverQuests(progress) {
		progress.UpdatedAt = s.now()
		if err := s.progressRepo.Replace(ctx, progress); err != nil {
			return nil, err
		}
	}
	return progress, nil
}

func (s *Service) newProgress(deviceID string) *models.UserProgress {
	today := s.today()
	return &models.UserProgress{
		DeviceID:        deviceID,
		Username:        fmt.Sprintf("Runner-%s", shortID(deviceID)),
		Level:           1,
		Rank:            s.config.RankForLevel(1),
		TrophiesEarned:  []models.TrophyUnlock{},
		DailyQuests:     s.quests.GenerateDaily(1, today),
		DailyQuestsDate: today,
	}
}

// rolloverQuests replaces the quest slate when its date is not today.
// Unclaimed rewards from the old day are forfeited.
func (s *Service) rolloverQuests(progress *models.UserProgress) bool {
	today := s.today()
	if progress.DailyQuestsDate == today && len(progress.DailyQuests) > 0 {
		return false
	}
	progress.DailyQuests = s.quests.GenerateDaily(progress.Level, today)
	progress.DailyQuestsDate = today
	return true
}

// SettleSession runs the full pipeline for one finished workout: classify
// intensity, score XP, advance streak and quests, level up, re-rank, award
// trophies, then persist the document and the immutable session record.
func (s *Service) SettleSession(ctx context.Context, deviceID string, in SessionInput) (*SettlementResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	progress, err := s.GetOrCreateProgress(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	completedAt := in.CompletedAt
	if completedAt.IsZero() {
		completedAt = s.now()
	}
	if in.Calories == 0 {
		// rough running burn estimate, 8 kcal per minute
		in.Calories = int(in.DurationMinutes * 8)
	}
	sessionDate := completedAt.Format("2006-01-02")

	// A backdated sync may carry a quest date other than today; quests only
	// move for sessions that happened on the slate's day.
	questDay := sessionDate == progress.DailyQuestsDate

	levelBefore := progress.Level
	rankBefore := progress.Rank

	intensity := s.resolveIntensity(in)
	sessionXP := s.calculator.SessionXP(in.DurationMinutes, in.DistanceKm, intensity)

	s.advanceStreak(progress, sessionDate)

	progress.SessionsCompleted++
	progress.TotalDistance += in.DistanceKm
	progress.TotalDuration += in.DurationMinutes
	progress.TotalCalories += in.Calories
	if in.DistanceKm > progress.MaxSessionDistance {
		progress.MaxSessionDistance = in.DistanceKm
	}
	if intensity.Ordinal() > Intensity(progress.MaxIntensity).Ordinal() || progress.MaxIntensity == "" {
		progress.MaxIntensity = string(intensity)
	}
	pace := in.AvgPaceSec
	if pace <= 0 && in.DistanceKm > 0 {
		pace = in.DurationMinutes * 60 / in.DistanceKm
	}
	if pace > 0 && pace < s.config.Pace.MaxValidSec && (progress.BestPaceSec == 0 || pace < progress.BestPaceSec) {
		progress.BestPaceSec = pace
	}

	progress.CurrentXP += sessionXP
	progress.TotalXP += sessionXP
	s.applyLevelUps(progress)

	var advanced []models.DailyQuest
	if questDay {
		advanced = s.quests.ApplyProgress(progress.DailyQuests, QuestFacts{
			DurationMinutes: in.DurationMinutes,
			DistanceKm:      in.DistanceKm,
			XPEarned:        sessionXP,
			Calories:        in.Calories,
			Intensity:       intensity,
		})
	}

	// Trophy evaluation runs once, after totals and level are final. Trophy
	// XP can itself trigger level-ups but never a second trophy pass within
	// the same settlement.
	earned := s.config.EvaluateTrophies(s.snapshot(progress), progress.UnlockedTrophyIDs())
	trophyXP := 0
	for _, t := range earned {
		trophyXP += t.XPReward
		progress.TrophiesEarned = append(progress.TrophiesEarned, models.TrophyUnlock{
			TrophyID:   t.ID,
			UnlockedAt: completedAt,
		})
	}
	if trophyXP > 0 {
		progress.CurrentXP += trophyXP
		progress.TotalXP += trophyXP
		s.applyLevelUps(progress)
	}

	progress.Rank = s.config.RankForLevel(progress.Level)
	progress.UpdatedAt = s.now()

	session := &models.Session{
		ID:              uuid.New().String(),
		DeviceID:        deviceID,
		DurationMinutes: in.DurationMinutes,
		DistanceKm:      in.DistanceKm,
		Calories:        in.Calories,
		Intensity:       string(intensity),
		IntensityName:   intensity.DisplayName(),
		XPEarned:        sessionXP + trophyXP,
		SessionXP:       sessionXP,
		TrophyXP:        trophyXP,
		LevelBefore:     levelBefore,
		LevelAfter:      progress.Level,
		LeveledUp:       progress.Level > levelBefore,
		RankBefore:      rankBefore.ID,
		RankAfter:       progress.Rank.ID,
		RankedUp:        progress.Rank.ID != rankBefore.ID,
		AvgPaceSec:      in.AvgPaceSec,
		BestPaceSec:     in.BestPaceSec,
		WorstPaceSec:    in.WorstPaceSec,
		ElevationGain:   in.ElevationGain,
		ElevationLoss:   in.ElevationLoss,
		RoutePointCount: len(in.RoutePoints),
		StravaID:        in.StravaID,
		Name:            in.Name,
		CompletedAt:     completedAt,
	}

	if err := s.progressRepo.Replace(ctx, progress); err != nil {
		return nil, err
	}
	if err := s.sessionRepo.Insert(ctx, session); err != nil {
		return nil, err
	}

	slog.Info("Session settled",
		slog.String("type", "game"),
		slog.String("device_id", deviceID),
		slog.Int("xp", session.XPEarned),
		slog.String("intensity", string(intensity)),
		slog.Int("level", progress.Level))

	return &SettlementResult{
		Session:  session,
		Progress: progress,
		XP: XPBreakdown{
			SessionXP: sessionXP,
			TrophyXP:  trophyXP,
			TotalXP:   sessionXP + trophyXP,
			Trophies:  earned,
		},
		Intensity:      intensity,
		LeveledUp:      progress.Level > levelBefore,
		LevelsGained:   progress.Level - levelBefore,
		RankChanged:    progress.Rank.ID != rankBefore.ID,
		QuestsAdvanced: advanced,
	}, nil
}

func (s *Service) resolveIntensity(in SessionInput) Intensity {
	if in.Intensity.Valid() {
		return in.Intensity
	}
	pace := in.AvgPaceSec
	if pace <= 0 && in.DistanceKm > 0 && in.DurationMinutes > 0 {
		pace = in.DurationMinutes * 60 / in.DistanceKm
	}
	speed := in.AvgSpeedKmh
	if speed <= 0 && in.DurationMinutes > 0 {
		speed = in.DistanceKm / (in.DurationMinutes / 60)
	}
	return s.calculator.IntensityFromPace(pace, speed)
}

// advanceStreak applies the consecutive-day rules: same day keeps the
// streak, the day after yesterday's run extends it, anything else resets it
// to 1.
func (s *Service) advanceStreak(progress *models.UserProgress, sessionDate string) {
	switch {
	case progress.LastSessionDate == sessionDate:
		// second run today, streak unchanged
	case progress.LastSessionDate > sessionDate:
		// backdated import, the streak already accounts for newer days
	case progress.LastSessionDate == previousDay(sessionDate):
		progress.Streak++
	default:
		progress.Streak = 1
	}
	if progress.Streak > progress.BestStreak {
		progress.BestStreak = progress.Streak
	}
	if progress.LastSessionDate < sessionDate {
		progress.LastSessionDate = sessionDate
	}
}

func previousDay(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format("2006-01-02")
}

// applyLevelUps consumes CurrentXP against the curve until the next level is
// unaffordable. A big settlement can cross several levels at once.
func (s *Service) applyLevelUps(progress *models.UserProgress) {
	for {
		needed := s.calculator.XPRequiredForLevel(progress.Level)
		if progress.CurrentXP < needed {
			return
		}
		progress.CurrentXP -= needed
		progress.Level++
	}
}

func (s *Service) snapshot(progress *models.UserProgress) StatsSnapshot {
	return StatsSnapshot{
		Sessions:        progress.SessionsCompleted,
		TotalDistance:   progress.TotalDistance,
		TotalDuration:   progress.TotalDuration,
		TotalCalories:   progress.TotalCalories,
		Level:           progress.Level,
		RankID:          s.config.RankForLevel(progress.Level).ID,
		Streak:          progress.Streak,
		QuestsClaimed:   progress.QuestsCompleted,
		SessionDistance: progress.MaxSessionDistance,
		BestPaceSec:     progress.BestPaceSec,
		MaxIntensity:    Intensity(progress.MaxIntensity),
	}
}

// ClaimQuest pays out a completed quest. Claiming is the only moment quest
// XP moves; a claim can level the player up and shift their rank, but never
// re-runs trophy evaluation except for the claim-count trophies.
func (s *Service) ClaimQuest(ctx context.Context, deviceID, questID string) (*ClaimResult, error) {
	progress, err := s.GetOrCreateProgress(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	quest := progress.QuestByID(questID)
	if quest == nil {
		return nil, ErrQuestNotFound
	}
	if quest.Claimed {
		return nil, ErrQuestAlreadyClaimed
	}
	if !quest.Completed {
		return nil, ErrQuestNotCompleted
	}

	quest.Claimed = true
	progress.QuestsCompleted++

	levelBefore := progress.Level
	progress.CurrentXP += quest.XPReward
	progress.TotalXP += quest.XPReward
	s.applyLevelUps(progress)

	earned := s.config.EvaluateTrophies(s.snapshot(progress), progress.UnlockedTrophyIDs())
	for _, t := range earned {
		progress.CurrentXP += t.XPReward
		progress.TotalXP += t.XPReward
		progress.TrophiesEarned = append(progress.TrophiesEarned, models.TrophyUnlock{
			TrophyID:   t.ID,
			UnlockedAt: s.now(),
		})
	}
	if len(earned) > 0 {
		s.applyLevelUps(progress)
	}

	progress.Rank = s.config.RankForLevel(progress.Level)
	progress.UpdatedAt = s.now()

	if err := s.progressRepo.Replace(ctx, progress); err != nil {
		return nil, err
	}

	slog.Info("Quest claimed",
		slog.String("type", "game"),
		slog.String("device_id", deviceID),
		slog.String("quest_id", questID),
		slog.Int("xp", quest.XPReward))

	return &ClaimResult{
		Quest:     *quest,
		XPEarned:  quest.XPReward,
		LeveledUp: progress.Level > levelBefore,
		Progress:  progress,
	}, nil
}

// Sessions returns the device's recent history, newest first.
func (s *Service) Sessions(ctx context.Context, deviceID string, limit int) ([]*models.Session, error) {
	return s.sessionRepo.GetByDeviceID(ctx, deviceID, limit)
}

// AttachRouteKey persists the object-storage key of an archived GPS trace on
// a settled session, so route retrieval can find it later.
func (s *Service) AttachRouteKey(ctx context.Context, sessionID, key string) error {
	return s.sessionRepo.SetRouteKey(ctx, sessionID, key)
}

// TrophyStatus pairs a catalog trophy with the device's unlock state.
type TrophyStatus struct {
	TrophyDefinition
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

// UserTrophies returns the full catalog annotated with the device's unlocks,
// in catalog order.
func (s *Service) UserTrophies(ctx context.Context, deviceID string) ([]TrophyStatus, error) {
	progress, err := s.GetOrCreateProgress(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	unlockedAt := make(map[string]time.Time, len(progress.TrophiesEarned))
	for _, t := range progress.TrophiesEarned {
		unlockedAt[t.TrophyID] = t.UnlockedAt
	}

	statuses := make([]TrophyStatus, 0, len(s.config.Trophies))
	for _, def := range s.config.Trophies {
		status := TrophyStatus{TrophyDefinition: def}
		if at, ok := unlockedAt[def.ID]; ok {
			status.Unlocked = true
			at := at
			status.UnlockedAt = &at
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// SetUsername sets the display name exactly once per device.
func (s *Service) SetUsername(ctx context.Context, deviceID, username string) (*models.UserProgress, error) {
	progress, err := s.GetOrCreateProgress(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if progress.UsernameSet {
		return nil, ErrUsernameTaken
	}
	if err := s.progressRepo.SetUsername(ctx, deviceID, username); err != nil {
		return nil, err
	}
	progress.Username = username
	progress.UsernameSet = true
	return progress, nil
}

func (s *Service) SetNotifications(ctx context.Context, deviceID string, enabled bool, at string) error {
	if _, err := s.GetOrCreateProgress(ctx, deviceID); err != nil {
		return err
	}
	return s.progressRepo.SetNotifications(ctx, deviceID, enabled, at)
}

// ResetDevice wipes the progress document and every session record.
func (s *Service) ResetDevice(ctx context.Context, deviceID string) error {
	if err := s.sessionRepo.DeleteByDeviceID(ctx, deviceID); err != nil {
		return err
	}
	if err := s.progressRepo.Delete(ctx, deviceID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return err
	}
	slog.Info("Device reset",
		slog.String("type", "game"),
		slog.String("device_id", deviceID))
	return nil
}

func (s *Service) today() string {
	return s.now().Format("2006-01-02")
}

func shortID(deviceID string) string {
	if len(deviceID) <= 6 {
		return deviceID
	}
	return deviceID[:6]
}
