package progression

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/runleveling/server/database/models"
)

// QuestEngine generates and advances daily quests. The rand source is
// injected so generation is reproducible under test.
type QuestEngine struct {
	config *Config
	rng    *rand.Rand
}

func NewQuestEngine(config *Config, rng *rand.Rand) *QuestEngine {
	return &QuestEngine{config: config, rng: rng}
}

// GenerateDaily rolls the day's quest slate: QuestCount templates with
// pairwise distinct types, each with a random target from its pool. Rewards
// scale with the player's level at generation time.
func (e *QuestEngine) GenerateDaily(level int, date string) []models.DailyQuest {
	pool := make([]QuestTemplate, len(e.config.QuestTemplates))
	copy(pool, e.config.QuestTemplates)
	e.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	quests := make([]models.DailyQuest, 0, e.config.QuestCount)
	seen := make(map[string]bool)
	for _, tpl := range pool {
		if len(quests) >= e.config.QuestCount {
			break
		}
		if seen[tpl.Type] {
			continue
		}
		seen[tpl.Type] = true

		target := tpl.Targets[e.rng.Intn(len(tpl.Targets))]
		quests = append(quests, models.DailyQuest{
			ID:           fmt.Sprintf("%s_%s_%d", tpl.Type, date, len(quests)),
			Type:         tpl.Type,
			Name:         tpl.Name,
			Description:  strings.ReplaceAll(tpl.Description, "{target}", formatTarget(target)),
			Icon:         tpl.Icon,
			Target:       target,
			XPReward:     tpl.BaseXP + level*e.config.QuestLevelScaling,
			Date:         date,
			MinIntensity: string(tpl.MinIntensity),
		})
	}
	return quests
}

func formatTarget(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// QuestFacts is what one settled session contributes to quest progress.
type QuestFacts struct {
	DurationMinutes float64
	DistanceKm      float64
	XPEarned        int
	Calories        int
	Intensity       Intensity
}

// ApplyProgress advances every unclaimed quest with the session's facts and
// returns the quests that moved. Cumulative types add; single-session types
// set the bar only when the session clears it. Progress caps at the target,
// and crossing it flips Completed. No XP moves here: rewards are paid when
// the quest is claimed.
func (e *QuestEngine) ApplyProgress(quests []models.DailyQuest, facts QuestFacts) []models.DailyQuest {
	var advanced []models.DailyQuest
	for i := range quests {
		q := &quests[i]
		if q.Claimed || q.Completed {
			continue
		}

		before := q.Progress
		switch q.Type {
		case models.QuestTypeSessions:
			q.Progress++
		case models.QuestTypeDuration:
			q.Progress += facts.DurationMinutes
		case models.QuestTypeDistance:
			q.Progress += facts.DistanceKm
		case models.QuestTypeXP:
			q.Progress += float64(facts.XPEarned)
		case models.QuestTypeCalories:
			q.Progress += float64(facts.Calories)
		case models.QuestTypeSessionDuration:
			if facts.DurationMinutes >= q.Target {
				q.Progress = q.Target
			}
		case models.QuestTypeSessionDistance:
			if facts.DistanceKm >= q.Target {
				q.Progress = q.Target
			}
		case models.QuestTypeIntensity:
			if facts.Intensity.AtLeast(Intensity(q.MinIntensity)) {
				q.Progress = q.Target
			}
		}

		if q.Progress > q.Target {
			q.Progress = q.Target
		}
		if q.Progress >= q.Target {
			q.Completed = true
		}
		if q.Progress != before {
			advanced = append(advanced, *q)
		}
	}
	return advanced
}
