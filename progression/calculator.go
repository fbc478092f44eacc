package progression

import (
	"math"
)

// Calculator answers the pure math questions: how much XP a level costs,
// how much a session is worth, and how hard a run was.
type Calculator struct {
	config *Config
}

func NewCalculator(config *Config) *Calculator {
	return &Calculator{config: config}
}

// XPRequiredForLevel returns the XP needed to go from level to level+1.
func (c *Calculator) XPRequiredForLevel(level int) int {
	if level < 1 {
		level = 1
	}
	curve := c.config.Curve
	switch curve.Mode {
	case CurveLinear:
		return curve.BaseXP + (level-1)*curve.Increment
	default:
		return int(math.Floor(float64(curve.BaseXP) * math.Pow(curve.GrowthRate, float64(level-1))))
	}
}

// TotalXPForLevel returns the cumulative XP spent to reach level from level 1.
func (c *Calculator) TotalXPForLevel(level int) int {
	total := 0
	for l := 1; l < level; l++ {
		total += c.XPRequiredForLevel(l)
	}
	return total
}

// SessionXP scores a completed session. The weighted formula multiplies a
// per-minute base by intensity, duration-tier and distance-tier factors and
// adds a flat per-km bonus; the flat formula is base + minutes * rate. Both
// are floored at MinXP.
func (c *Calculator) SessionXP(durationMinutes, distanceKm float64, intensity Intensity) int {
	s := c.config.Session

	var xp float64
	switch s.Formula {
	case FormulaFlat:
		xp = s.FlatBase + durationMinutes*s.FlatPerMinute
	default:
		mult, ok := s.Intensity[intensity]
		if !ok {
			mult = s.Intensity[IntensityModerate]
		}
		xp = durationMinutes * s.XPPerMinute * mult
		xp *= tierMultiplier(s.DurationTiers, durationMinutes)
		if distanceKm > 0 {
			xp *= tierMultiplier(s.DistanceTiers, distanceKm)
			xp += distanceKm * s.DistanceBonusPerKm
		}
	}

	earned := int(math.Floor(xp))
	if earned < s.MinXP {
		earned = s.MinXP
	}
	return earned
}

// tierMultiplier scans an ascending ladder and keeps the last tier whose
// lower bound the value meets.
func tierMultiplier(tiers []Tier, value float64) float64 {
	mult := 1.0
	for _, t := range tiers {
		if value >= t.Min {
			mult = t.Multiplier
		}
	}
	return mult
}

// IntensityFromPace classifies effort from average pace (seconds per km),
// falling back to average speed (km/h) when the pace is missing or absurd.
func (c *Calculator) IntensityFromPace(paceSecPerKm, speedKmh float64) Intensity {
	p := c.config.Pace
	if paceSecPerKm > 0 && paceSecPerKm < p.MaxValidSec {
		switch {
		case paceSecPerKm < p.ExtremeMaxSec:
			return IntensityExtreme
		case paceSecPerKm < p.IntenseMaxSec:
			return IntensityIntense
		case paceSecPerKm < p.ModerateMaxSec:
			return IntensityModerate
		default:
			return IntensityLight
		}
	}
	switch {
	case speedKmh >= p.ExtremeMinKmh:
		return IntensityExtreme
	case speedKmh >= p.IntenseMinKmh:
		return IntensityIntense
	case speedKmh >= p.ModerateMinKmh:
		return IntensityModerate
	case speedKmh > 0:
		return IntensityLight
	}
	return IntensityModerate
}
