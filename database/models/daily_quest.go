package models

// Quest type constants. The three quests generated for a day always have
// pairwise distinct types.
const (
	QuestTypeSessions        = "sessions"
	QuestTypeDuration        = "duration"
	QuestTypeDistance        = "distance"
	QuestTypeXP              = "xp"
	QuestTypeCalories        = "calories"
	QuestTypeSessionDuration = "session_duration"
	QuestTypeSessionDistance = "session_distance"
	QuestTypeIntensity       = "intensity"
)

// DailyQuest is one quest instance, embedded in the UserProgress document.
// A batch of three is generated per calendar day and discarded wholesale when
// the day rolls over; unclaimed quests expire with no credit.
type DailyQuest struct {
	ID          string  `bson:"id" json:"id"`
	Type        string  `bson:"type" json:"type"`
	Name        string  `bson:"name" json:"name"`
	Description string  `bson:"description" json:"description"`
	Icon        string  `bson:"icon" json:"icon"`
	Target      float64 `bson:"target" json:"target"`
	XPReward    int     `bson:"xp_reward" json:"xp_reward"`
	Progress    float64 `bson:"progress" json:"progress"`
	Completed   bool    `bson:"completed" json:"completed"`
	Claimed     bool    `bson:"claimed" json:"claimed"`
	Date        string  `bson:"date" json:"date"` // YYYY-MM-DD

	// MinIntensity is set for intensity-threshold quests only.
	MinIntensity string `bson:"min_intensity,omitempty" json:"min_intensity,omitempty"`
}

// ProgressPercentage returns quest progress clamped to 0-100.
func (q *DailyQuest) ProgressPercentage() float64 {
	if q.Target <= 0 {
		return 0
	}
	pct := q.Progress / q.Target * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}
