package difficulty

// Three-parameter critical power model calibrated to a "Good" tier amateur
// athlete. The curve is the normalization denominator for difficulty scores.
const (
	// ReferencePmax is the theoretical instantaneous peak power in W/kg.
	ReferencePmax = 21.80

	// ReferenceCP is the critical (indefinitely sustainable) power in W/kg.
	ReferenceCP = 4.77

	// ReferenceWprime is the anaerobic work capacity above CP in J/kg.
	ReferenceWprime = 280.0
)

// anaerobicPowerReserve is the power span between peak and critical power.
const anaerobicPowerReserve = ReferencePmax - ReferenceCP

// weightedReserve pre-multiplies W' by the power reserve for the curve's
// numerator.
const weightedReserve = ReferenceWprime * anaerobicPowerReserve

// ReferencePower returns the power in W/kg a capable amateur is expected to
// sustain for an effort of the given duration.
//
// The curve decreases monotonically with duration, approaching ReferencePmax
// as seconds → 0 and ReferenceCP as seconds → ∞. Non-positive durations
// return the instantaneous peak.
func ReferencePower(seconds float64) float64 {
	if seconds <= 0 {
		return ReferencePmax
	}
	return ReferenceCP + weightedReserve/(ReferenceWprime+anaerobicPowerReserve*seconds)
}
