package progression

import (
	"github.com/runleveling/server/database/models"
)

// CurveMode selects the XP-requirement curve.
type CurveMode string

const (
	CurveGeometric CurveMode = "geometric"
	CurveLinear    CurveMode = "linear"
)

// FormulaMode selects the session XP formula. Weighted is the system of
// record; flat is retained for the legacy rule-set.
type FormulaMode string

const (
	FormulaWeighted FormulaMode = "weighted"
	FormulaFlat     FormulaMode = "flat"
)

// Tier maps a lower bound to a multiplier. Ladders are ascending by Min and
// resolved last-qualifying, same as the rank ladder.
type Tier struct {
	Min        float64
	Multiplier float64
}

type CurveConfig struct {
	Mode       CurveMode
	BaseXP     int     // XP needed for level 1 -> 2
	GrowthRate float64 // geometric only
	Increment  int     // linear only
}

type SessionXPConfig struct {
	Formula FormulaMode

	// Weighted formula
	XPPerMinute        float64
	DistanceBonusPerKm float64
	Intensity          map[Intensity]float64
	DurationTiers      []Tier // minutes
	DistanceTiers      []Tier // km

	// Flat formula
	FlatBase      float64
	FlatPerMinute float64

	// Every session grants at least this much, whatever the formula says.
	MinXP int
}

type PaceThresholds struct {
	// pace, seconds per km; a pace outside (0, MaxValidSec) is discarded
	ExtremeMaxSec  float64
	IntenseMaxSec  float64
	ModerateMaxSec float64
	MaxValidSec    float64

	// speed fallback, km/h
	ExtremeMinKmh  float64
	IntenseMinKmh  float64
	ModerateMinKmh float64
}

// ConditionKind enumerates trophy condition variants.
type ConditionKind int

const (
	CondSessions ConditionKind = iota
	CondTotalDistance
	CondLevel
	CondRank
	CondTotalDuration
	CondTotalCalories
	CondStreak
	CondQuestsClaimed
	CondSessionDistance
	CondIntensityReached
	CondBestPace
)

// TrophyCondition is a tagged variant: Kind selects which payload field is
// meaningful. Value carries numeric thresholds, Rank a ladder tier id,
// Intensity an intensity tier.
type TrophyCondition struct {
	Kind      ConditionKind
	Value     float64
	Rank      string
	Intensity Intensity
}

type TrophyDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Category    string `json:"category"`
	XPReward    int    `json:"xp_reward"`

	Condition TrophyCondition `json:"-"`
}

type QuestTemplate struct {
	Type        string
	Name        string
	Description string // "{target}" placeholder
	Icon        string
	Targets     []float64
	BaseXP      int

	// MinIntensity is set for intensity-threshold templates only.
	MinIntensity Intensity
}

// Config is the full injected rule-set: rank ladder, trophy catalog, quest
// templates and tuning constants. Immutable after construction so several
// rule-sets can coexist in one process.
type Config struct {
	Curve   CurveConfig
	Session SessionXPConfig
	Pace    PaceThresholds

	QuestCount        int
	QuestLevelScaling int // reward = template base + level * scaling

	Ranks          []models.Rank
	Trophies       []TrophyDefinition
	QuestTemplates []QuestTemplate
}

// NewDefaultConfig returns the stock rule-set.
func NewDefaultConfig() *Config {
	return &Config{
		Curve: CurveConfig{
			Mode:       CurveGeometric,
			BaseXP:     100,
			GrowthRate: 1.15,
			Increment:  25,
		},
		Session: SessionXPConfig{
			Formula:            FormulaWeighted,
			XPPerMinute:        8,
			DistanceBonusPerKm: 5,
			Intensity: map[Intensity]float64{
				IntensityLight:    0.5,
				IntensityModerate: 1.0,
				IntensityIntense:  1.5,
				IntensityExtreme:  2.0,
			},
			DurationTiers: []Tier{
				{Min: 0, Multiplier: 0.8},
				{Min: 10, Multiplier: 1.0},
				{Min: 20, Multiplier: 1.2},
				{Min: 30, Multiplier: 1.4},
				{Min: 45, Multiplier: 1.6},
				{Min: 60, Multiplier: 1.8},
			},
			DistanceTiers: []Tier{
				{Min: 0, Multiplier: 0.9},
				{Min: 1, Multiplier: 1.0},
				{Min: 3, Multiplier: 1.1},
				{Min: 5, Multiplier: 1.2},
				{Min: 10, Multiplier: 1.3},
			},
			FlatBase:      50,
			FlatPerMinute: 10,
			MinXP:         10,
		},
		Pace: PaceThresholds{
			ExtremeMaxSec:  300,
			IntenseMaxSec:  360,
			ModerateMaxSec: 420,
			MaxValidSec:    3600,
			ExtremeMinKmh:  12,
			IntenseMinKmh:  10,
			ModerateMinKmh: 8.6,
		},
		QuestCount:        3,
		QuestLevelScaling: 2,
		Ranks:             defaultRanks(),
		Trophies:          defaultTrophies(),
		QuestTemplates:    defaultQuestTemplates(),
	}
}

func defaultRanks() []models.Rank {
	return []models.Rank{
		{ID: "debutant", Name: "Débutant", MinLevel: 1, Color: "#6B7280", Icon: "🏃"},
		{ID: "jogger", Name: "Jogger", MinLevel: 11, Color: "#10B981", Icon: "🏃‍♂️"},
		{ID: "coureur", Name: "Coureur", MinLevel: 26, Color: "#3B82F6", Icon: "🏅"},
		{ID: "athlete", Name: "Athlète", MinLevel: 46, Color: "#8B5CF6", Icon: "💪"},
		{ID: "champion", Name: "Champion", MinLevel: 71, Color: "#F59E0B", Icon: "🏆"},
		{ID: "maitre", Name: "Maître", MinLevel: 91, Color: "#EF4444", Icon: "👑"},
	}
}

func defaultQuestTemplates() []QuestTemplate {
	return []QuestTemplate{
		{Type: models.QuestTypeDistance, Name: "Coureur du jour", Description: "Cours {target} km aujourd'hui", Icon: "🏃", Targets: []float64{1, 2, 3, 5}, BaseXP: 30},
		{Type: models.QuestTypeSessionDistance, Name: "Explorateur", Description: "Parcours {target} km en une session", Icon: "🗺️", Targets: []float64{2, 3, 5, 8}, BaseXP: 40},
		{Type: models.QuestTypeDuration, Name: "Endurance", Description: "Cours pendant {target} minutes", Icon: "⏱️", Targets: []float64{10, 15, 20, 30}, BaseXP: 25},
		{Type: models.QuestTypeDuration, Name: "Marathon mental", Description: "Accumule {target} min de course", Icon: "🧠", Targets: []float64{20, 30, 45, 60}, BaseXP: 35},
		{Type: models.QuestTypeSessions, Name: "Régulier", Description: "Fais {target} session(s) aujourd'hui", Icon: "📅", Targets: []float64{1, 2, 3}, BaseXP: 40},
		{Type: models.QuestTypeSessions, Name: "Double dose", Description: "Complète {target} courses", Icon: "✌️", Targets: []float64{2, 3}, BaseXP: 50},
		{Type: models.QuestTypeXP, Name: "Chasseur d'XP", Description: "Gagne {target} XP aujourd'hui", Icon: "⭐", Targets: []float64{50, 100, 150, 200}, BaseXP: 35},
		{Type: models.QuestTypeXP, Name: "XP Hunter", Description: "Accumule {target} XP", Icon: "💎", Targets: []float64{75, 125, 200}, BaseXP: 45},
		{Type: models.QuestTypeCalories, Name: "Brûleur", Description: "Brûle {target} calories", Icon: "🔥", Targets: []float64{100, 200, 300, 500}, BaseXP: 30},
		{Type: models.QuestTypeCalories, Name: "Fournaise", Description: "Élimine {target} kcal en courant", Icon: "🌋", Targets: []float64{150, 250, 400}, BaseXP: 40},
		{Type: models.QuestTypeSessionDuration, Name: "Longue sortie", Description: "Tiens {target} minutes d'affilée", Icon: "🏔️", Targets: []float64{15, 20, 30, 45}, BaseXP: 45},
		{Type: models.QuestTypeIntensity, Name: "Tempo", Description: "Atteins une intensité intense", Icon: "🎵", Targets: []float64{1}, BaseXP: 45, MinIntensity: IntensityIntense},
		{Type: models.QuestTypeIntensity, Name: "Accélérateur", Description: "Atteins une intensité extrême", Icon: "⚡", Targets: []float64{1}, BaseXP: 55, MinIntensity: IntensityExtreme},
	}
}

func defaultTrophies() []TrophyDefinition {
	return []TrophyDefinition{
		// Sessions milestones
		{ID: "first_run", Name: "Premier Pas", Description: "Complète ta première course", Icon: "🎯", Category: "sessions", XPReward: 50, Condition: TrophyCondition{Kind: CondSessions, Value: 1}},
		{ID: "five_sessions", Name: "En Route", Description: "Complète 5 sessions", Icon: "🚀", Category: "sessions", XPReward: 100, Condition: TrophyCondition{Kind: CondSessions, Value: 5}},
		{ID: "ten_sessions", Name: "Persévérant", Description: "Complète 10 sessions", Icon: "💪", Category: "sessions", XPReward: 150, Condition: TrophyCondition{Kind: CondSessions, Value: 10}},
		{ID: "twenty_five_sessions", Name: "Déterminé", Description: "Complète 25 sessions", Icon: "🔥", Category: "sessions", XPReward: 250, Condition: TrophyCondition{Kind: CondSessions, Value: 25}},
		{ID: "fifty_sessions", Name: "Machine", Description: "Complète 50 sessions", Icon: "⚡", Category: "sessions", XPReward: 500, Condition: TrophyCondition{Kind: CondSessions, Value: 50}},
		{ID: "hundred_sessions", Name: "Centenaire", Description: "Complète 100 sessions", Icon: "💯", Category: "sessions", XPReward: 1000, Condition: TrophyCondition{Kind: CondSessions, Value: 100}},
		{ID: "two_fifty_sessions", Name: "Légende", Description: "Complète 250 sessions", Icon: "🌟", Category: "sessions", XPReward: 2500, Condition: TrophyCondition{Kind: CondSessions, Value: 250}},

		// Distance milestones (cumulative km)
		{ID: "first_5k", Name: "5K Club", Description: "Cours un total de 5 km", Icon: "🏃", Category: "distance", XPReward: 50, Condition: TrophyCondition{Kind: CondTotalDistance, Value: 5}},
		{ID: "first_10k", Name: "10K Runner", Description: "Cours un total de 10 km", Icon: "🏃‍♂️", Category: "distance", XPReward: 100, Condition: TrophyCondition{Kind: CondTotalDistance, Value: 10}},
		{ID: "half_marathon", Name: "Semi-Marathonien", Description: "Cours un total de 21 km", Icon: "🥈", Category: "distance", XPReward: 200, Condition: TrophyCondition{Kind: CondTotalDistance, Value: 21}},
		{ID: "marathon", Name: "Marathonien", Description: "Cours un total de 42 km", Icon: "🥇", Category: "distance", XPReward: 400, Condition: TrophyCondition{Kind: CondTotalDistance, Value: 42}},
		{ID: "hundred_km", Name: "Centurion", Description: "Cours un total de 100 km", Icon: "💯", Category: "distance", XPReward: 750, Condition: TrophyCondition{Kind: CondTotalDistance, Value: 100}},
		{ID: "two_hundred_km", Name: "Ultra Runner", Description: "Cours un total de 200 km", Icon: "🦸", Category: "distance", XPReward: 1200, Condition: TrophyCondition{Kind: CondTotalDistance, Value: 200}},
		{ID: "five_hundred_km", Name: "Nomade", Description: "Cours un total de 500 km", Icon: "🌍", Category: "distance", XPReward: 2500, Condition: TrophyCondition{Kind: CondTotalDistance, Value: 500}},
		{ID: "thousand_km", Name: "Globetrotter", Description: "Cours un total de 1000 km", Icon: "🌎", Category: "distance", XPReward: 5000, Condition: TrophyCondition{Kind: CondTotalDistance, Value: 1000}},

		// Level milestones
		{ID: "level_5", Name: "Démarrage", Description: "Atteins le niveau 5", Icon: "📊", Category: "level", XPReward: 50, Condition: TrophyCondition{Kind: CondLevel, Value: 5}},
		{ID: "level_10", Name: "Apprenti", Description: "Atteins le niveau 10", Icon: "📈", Category: "level", XPReward: 100, Condition: TrophyCondition{Kind: CondLevel, Value: 10}},
		{ID: "level_25", Name: "Confirmé", Description: "Atteins le niveau 25", Icon: "🎖️", Category: "level", XPReward: 250, Condition: TrophyCondition{Kind: CondLevel, Value: 25}},
		{ID: "level_50", Name: "Expert", Description: "Atteins le niveau 50", Icon: "🏆", Category: "level", XPReward: 500, Condition: TrophyCondition{Kind: CondLevel, Value: 50}},
		{ID: "level_75", Name: "Vétéran", Description: "Atteins le niveau 75", Icon: "⭐", Category: "level", XPReward: 750, Condition: TrophyCondition{Kind: CondLevel, Value: 75}},
		{ID: "level_100", Name: "Maître Absolu", Description: "Atteins le niveau 100", Icon: "👑", Category: "level", XPReward: 1500, Condition: TrophyCondition{Kind: CondLevel, Value: 100}},

		// Rank achievements (ordinal comparison on the ladder)
		{ID: "jogger_rank", Name: "Rang Jogger", Description: "Atteins le rang Jogger", Icon: "🏃‍♂️", Category: "rank", XPReward: 150, Condition: TrophyCondition{Kind: CondRank, Rank: "jogger"}},
		{ID: "coureur_rank", Name: "Rang Coureur", Description: "Atteins le rang Coureur", Icon: "🏅", Category: "rank", XPReward: 300, Condition: TrophyCondition{Kind: CondRank, Rank: "coureur"}},
		{ID: "athlete_rank", Name: "Rang Athlète", Description: "Atteins le rang Athlète", Icon: "💪", Category: "rank", XPReward: 500, Condition: TrophyCondition{Kind: CondRank, Rank: "athlete"}},
		{ID: "champion_rank", Name: "Rang Champion", Description: "Atteins le rang Champion", Icon: "🏆", Category: "rank", XPReward: 800, Condition: TrophyCondition{Kind: CondRank, Rank: "champion"}},
		{ID: "maitre_rank", Name: "Rang Maître", Description: "Atteins le rang Maître", Icon: "👑", Category: "rank", XPReward: 1500, Condition: TrophyCondition{Kind: CondRank, Rank: "maitre"}},

		// Calories
		{ID: "burn_500", Name: "Brûleur", Description: "Brûle 500 calories au total", Icon: "🔥", Category: "calories", XPReward: 75, Condition: TrophyCondition{Kind: CondTotalCalories, Value: 500}},
		{ID: "burn_2000", Name: "Fournaise", Description: "Brûle 2000 calories au total", Icon: "🌋", Category: "calories", XPReward: 200, Condition: TrophyCondition{Kind: CondTotalCalories, Value: 2000}},
		{ID: "burn_5000", Name: "Incendie", Description: "Brûle 5000 calories au total", Icon: "☄️", Category: "calories", XPReward: 400, Condition: TrophyCondition{Kind: CondTotalCalories, Value: 5000}},
		{ID: "burn_10000", Name: "Supernova", Description: "Brûle 10000 calories au total", Icon: "💥", Category: "calories", XPReward: 800, Condition: TrophyCondition{Kind: CondTotalCalories, Value: 10000}},

		// Duration (cumulative minutes)
		{ID: "hour_total", Name: "1 Heure", Description: "Cours 1 heure au total", Icon: "⏱️", Category: "duration", XPReward: 100, Condition: TrophyCondition{Kind: CondTotalDuration, Value: 60}},
		{ID: "five_hours", Name: "5 Heures", Description: "Cours 5 heures au total", Icon: "⏰", Category: "duration", XPReward: 300, Condition: TrophyCondition{Kind: CondTotalDuration, Value: 300}},
		{ID: "ten_hours", Name: "10 Heures", Description: "Cours 10 heures au total", Icon: "🕐", Category: "duration", XPReward: 600, Condition: TrophyCondition{Kind: CondTotalDuration, Value: 600}},
		{ID: "day_runner", Name: "24 Heures", Description: "Cours 24 heures au total", Icon: "📆", Category: "duration", XPReward: 1500, Condition: TrophyCondition{Kind: CondTotalDuration, Value: 1440}},

		// Streaks and quests
		{ID: "streak_3", Name: "Série de 3", Description: "Cours 3 jours d'affilée", Icon: "🔗", Category: "special", XPReward: 100, Condition: TrophyCondition{Kind: CondStreak, Value: 3}},
		{ID: "streak_7", Name: "Semaine Parfaite", Description: "Cours 7 jours d'affilée", Icon: "📅", Category: "special", XPReward: 300, Condition: TrophyCondition{Kind: CondStreak, Value: 7}},
		{ID: "streak_30", Name: "Mois de Feu", Description: "Cours 30 jours d'affilée", Icon: "🗓️", Category: "special", XPReward: 1000, Condition: TrophyCondition{Kind: CondStreak, Value: 30}},
		{ID: "quest_master", Name: "Maître des Quêtes", Description: "Réclame 50 quêtes", Icon: "📜", Category: "special", XPReward: 500, Condition: TrophyCondition{Kind: CondQuestsClaimed, Value: 50}},
		{ID: "quest_legend", Name: "Légende des Quêtes", Description: "Réclame 200 quêtes", Icon: "📚", Category: "special", XPReward: 1500, Condition: TrophyCondition{Kind: CondQuestsClaimed, Value: 200}},

		// Single-session and pace achievements
		{ID: "session_5k", Name: "5K d'une traite", Description: "Cours 5 km en une seule session", Icon: "🎽", Category: "special", XPReward: 150, Condition: TrophyCondition{Kind: CondSessionDistance, Value: 5}},
		{ID: "session_10k", Name: "10K d'une traite", Description: "Cours 10 km en une seule session", Icon: "🥾", Category: "special", XPReward: 300, Condition: TrophyCondition{Kind: CondSessionDistance, Value: 10}},
		{ID: "extreme_mode", Name: "Mode Extrême", Description: "Termine une session en intensité extrême", Icon: "⚡", Category: "special", XPReward: 200, Condition: TrophyCondition{Kind: CondIntensityReached, Intensity: IntensityExtreme}},
		{ID: "sub_five_pace", Name: "Flèche", Description: "Tiens une allure moyenne sous 5:00/km", Icon: "🏹", Category: "special", XPReward: 400, Condition: TrophyCondition{Kind: CondBestPace, Value: 300}},
	}
}
