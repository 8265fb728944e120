package difficulty

// DefaultRiderMassKg is the assumed rider mass when none is configured.
const DefaultRiderMassKg = 75.0

// ScorerConfig holds configuration for the scorer.
type ScorerConfig struct {
	// RiderMassKg is the rider mass used when a profile does not carry its
	// own. Default: DefaultRiderMassKg.
	RiderMassKg float64
}

// Scorer computes difficulty results for segment physical profiles. It is
// stateless after construction and safe for concurrent use.
type Scorer struct {
	riderMassKg float64
}

// NewScorer creates a new Scorer.
func NewScorer(cfg ScorerConfig) *Scorer {
	mass := cfg.RiderMassKg
	if mass <= 0 {
		mass = DefaultRiderMassKg
	}
	return &Scorer{riderMassKg: mass}
}

// PhysicalProfile is the scoreable shape of a segment. Callers map loosely
// structured platform records into this type before scoring; the engine
// itself performs no field fallbacks.
type PhysicalProfile struct {
	// DistanceMeters is the segment length. Must be positive to score.
	DistanceMeters float64

	// ElevationGain is the net elevation gain in meters. Nil means unknown;
	// zero and negative values are valid.
	ElevationGain *float64

	// BestTime is the best known effort time as free-form text, e.g. "45s",
	// "5:30" or "1:23:45". Ignored when BestTimeSeconds is set.
	BestTime string

	// BestTimeSeconds is an already-parsed best time. Takes precedence over
	// BestTime when non-nil.
	BestTimeSeconds *int

	// RiderMassKg overrides the scorer's configured rider mass when
	// positive.
	RiderMassKg float64
}

// Result is the outcome of scoring one profile. When Valid is false the
// numeric fields are meaningless and Band is UnknownBand.
type Result struct {
	// RequiredPowerWatts is the estimated absolute power for the effort.
	RequiredPowerWatts float64

	// RequiredPowerPerKg is RequiredPowerWatts over the rider mass.
	RequiredPowerPerKg float64

	// Score is the required power per kg as a percentage of the
	// duration-matched reference power. Typically 0–150, but negative and
	// larger values occur for unusual segment data.
	Score float64

	// Band is the classification for Score.
	Band Band

	// Valid reports whether the profile was scoreable.
	Valid bool
}

// Invalid returns the sentinel result for an unscoreable profile.
func Invalid() Result {
	return Result{Band: UnknownBand}
}

// Score validates the profile and, if scoreable, computes the full
// difficulty result. Data-quality problems (missing distance, bad time
// strings, non-positive mass) never produce an error or panic; they yield a
// result with Valid=false.
func (s *Scorer) Score(p PhysicalProfile) Result {
	if p.DistanceMeters <= 0 {
		return Invalid()
	}
	if p.ElevationGain == nil {
		return Invalid()
	}

	mass := p.RiderMassKg
	if mass == 0 {
		mass = s.riderMassKg
	}
	if mass <= 0 {
		return Invalid()
	}

	seconds, ok := s.resolveSeconds(p)
	if !ok || seconds <= 0 {
		return Invalid()
	}

	estimate := EstimateRequiredPower(p.DistanceMeters, *p.ElevationGain, float64(seconds), mass)
	reference := ReferencePower(float64(seconds))
	score := estimate.WattsPerKg / reference * 100

	return Result{
		RequiredPowerWatts: estimate.Watts,
		RequiredPowerPerKg: estimate.WattsPerKg,
		Score:              score,
		Band:               Classify(score),
		Valid:              true,
	}
}

// resolveSeconds returns the effort duration, preferring the pre-parsed
// value over the raw string.
func (s *Scorer) resolveSeconds(p PhysicalProfile) (int, bool) {
	if p.BestTimeSeconds != nil {
		return *p.BestTimeSeconds, true
	}
	if p.BestTime == "" {
		return 0, false
	}
	seconds, err := ParseDuration(p.BestTime)
	if err != nil {
		return 0, false
	}
	return seconds, true
}

// RiderMassKg returns the scorer's configured rider mass.
func (s *Scorer) RiderMassKg() float64 {
	return s.riderMassKg
}
