package difficulty

// Class identifies a difficulty band.
type Class string

// Difficulty classes, hardest first.
const (
	ClassSuspicious Class = "suspicious"
	ClassExtreme    Class = "extreme"
	ClassVeryHard   Class = "very-hard"
	ClassHard       Class = "hard"
	ClassModerate   Class = "moderate"
	ClassAccessible Class = "accessible"
	ClassEasy       Class = "easy"

	// ClassUnknown is reserved for unscoreable segments. Classify never
	// returns it.
	ClassUnknown Class = "unknown"
)

// Band describes one difficulty classification band.
type Band struct {
	// MinScore is the inclusive lower bound for this band.
	MinScore float64

	// Class is the machine-readable band identifier.
	Class Class

	// Label is the display label.
	Label string

	// Color is the display color as a hex string.
	Color string
}

// bands is the classification table, evaluated top to bottom; the first band
// whose MinScore is at or below the score wins. Scores above ~150 usually
// mean bad segment data rather than a superhuman effort, hence the top band.
var bands = []Band{
	{MinScore: 150, Class: ClassSuspicious, Label: "hmmmm", Color: "#6b7280"},
	{MinScore: 130, Class: ClassExtreme, Label: "Extrem", Color: "#7c3aed"},
	{MinScore: 110, Class: ClassVeryHard, Label: "Sehr schwer", Color: "#dc2626"},
	{MinScore: 90, Class: ClassHard, Label: "Schwer", Color: "#ea580c"},
	{MinScore: 70, Class: ClassModerate, Label: "Moderat", Color: "#ca8a04"},
	{MinScore: 50, Class: ClassAccessible, Label: "Machbar", Color: "#16a34a"},
	{MinScore: 0, Class: ClassEasy, Label: "Einfach", Color: "#22c55e"},
}

// UnknownBand is the sentinel band attached to invalid results.
var UnknownBand = Band{
	Class: ClassUnknown,
	Label: "—",
	Color: "#9ca3af",
}

// Bands returns a copy of the classification table, hardest band first.
func Bands() []Band {
	out := make([]Band, len(bands))
	copy(out, bands)
	return out
}

// Classify maps a difficulty score to its band. The lowest band acts as the
// default, so every score (including negative ones from net-downhill
// segments) maps to exactly one band.
func Classify(score float64) Band {
	for _, b := range bands {
		if score >= b.MinScore {
			return b
		}
	}
	return bands[len(bands)-1]
}
