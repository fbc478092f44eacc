package progression

// Intensity classifies how hard a session was run. Tiers are ordered; ordinal
// comparison is what quest thresholds and trophy conditions use.
type Intensity string

const (
	IntensityLight    Intensity = "light"
	IntensityModerate Intensity = "moderate"
	IntensityIntense  Intensity = "intense"
	IntensityExtreme  Intensity = "extreme"
)

var intensityOrder = []Intensity{IntensityLight, IntensityModerate, IntensityIntense, IntensityExtreme}

var intensityNames = map[Intensity]string{
	IntensityLight:    "Léger",
	IntensityModerate: "Modéré",
	IntensityIntense:  "Intense",
	IntensityExtreme:  "Extrême",
}

// Valid reports whether the tag is one of the known tiers.
func (i Intensity) Valid() bool {
	_, ok := intensityNames[i]
	return ok
}

// Ordinal returns the tier's position in the ladder, light first. Unknown
// tiers sort below light.
func (i Intensity) Ordinal() int {
	for idx, tier := range intensityOrder {
		if tier == i {
			return idx
		}
	}
	return -1
}

// AtLeast reports whether i is the given tier or harder.
func (i Intensity) AtLeast(min Intensity) bool {
	return i.Ordinal() >= min.Ordinal()
}

// DisplayName returns the user-facing name for the tier.
func (i Intensity) DisplayName() string {
	if name, ok := intensityNames[i]; ok {
		return name
	}
	return intensityNames[IntensityModerate]
}

// Intensities returns the tier ladder in ascending order.
func Intensities() []Intensity {
	out := make([]Intensity, len(intensityOrder))
	copy(out, intensityOrder)
	return out
}
