package progression

// EvaluateTrophies returns catalog trophies the snapshot now satisfies that
// are not in the unlocked set, in catalog order. Pure: the caller appends
// them to the document and pays the rewards.
func (c *Config) EvaluateTrophies(snap StatsSnapshot, unlocked map[string]bool) []TrophyDefinition {
	var earned []TrophyDefinition
	for _, t := range c.Trophies {
		if unlocked[t.ID] {
			continue
		}
		if c.conditionMet(t.Condition, snap) {
			earned = append(earned, t)
		}
	}
	return earned
}

func (c *Config) conditionMet(cond TrophyCondition, snap StatsSnapshot) bool {
	switch cond.Kind {
	case CondSessions:
		return float64(snap.Sessions) >= cond.Value
	case CondTotalDistance:
		return snap.TotalDistance >= cond.Value
	case CondLevel:
		return float64(snap.Level) >= cond.Value
	case CondRank:
		want := c.RankIndex(cond.Rank)
		have := c.RankIndex(snap.RankID)
		return want >= 0 && have >= want
	case CondTotalDuration:
		return snap.TotalDuration >= cond.Value
	case CondTotalCalories:
		return float64(snap.TotalCalories) >= cond.Value
	case CondStreak:
		return float64(snap.Streak) >= cond.Value
	case CondQuestsClaimed:
		return float64(snap.QuestsClaimed) >= cond.Value
	case CondSessionDistance:
		return snap.SessionDistance >= cond.Value
	case CondIntensityReached:
		return snap.MaxIntensity.AtLeast(cond.Intensity)
	case CondBestPace:
		return snap.BestPaceSec > 0 && snap.BestPaceSec <= cond.Value
	}
	return false
}
