package progression

import (
	"github.com/runleveling/server/database/models"
)

// RankForLevel resolves the highest ladder tier whose MinLevel the level
// meets. The ladder is ascending by MinLevel and the first tier starts at 1,
// so every level resolves.
func (c *Config) RankForLevel(level int) models.Rank {
	rank := c.Ranks[0]
	for _, r := range c.Ranks {
		if level >= r.MinLevel {
			rank = r
		}
	}
	return rank
}

// NextRank returns the tier above the given level, or nil at the top.
func (c *Config) NextRank(level int) *models.Rank {
	for i := range c.Ranks {
		if c.Ranks[i].MinLevel > level {
			return &c.Ranks[i]
		}
	}
	return nil
}

// RankIndex returns the ordinal position of a rank id on the ladder, or -1
// if the id is unknown.
func (c *Config) RankIndex(id string) int {
	for i, r := range c.Ranks {
		if r.ID == id {
			return i
		}
	}
	return -1
}
