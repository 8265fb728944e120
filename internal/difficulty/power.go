package difficulty

// Physical model constants. Equipment and aerodynamic figures describe a
// typical road bike setup; they are fixed rather than per-rider.
const (
	// gravity is standard gravitational acceleration in m/s².
	gravity = 9.81

	// airDensity is the assumed air density in kg/m³.
	airDensity = 1.2

	// bikeMassKg is the fixed equipment mass added to the rider mass.
	bikeMassKg = 8.0

	// rollingResistanceCoeff is the rolling resistance coefficient (Crr).
	rollingResistanceCoeff = 0.004

	// dragArea is the effective frontal drag area (CdA) in m².
	dragArea = 0.28

	// drivetrainEfficiency is the fraction of pedal power reaching the wheel.
	drivetrainEfficiency = 0.98
)

// PowerEstimate is the output of the physical power model.
type PowerEstimate struct {
	// Watts is the absolute power required over the whole effort.
	Watts float64

	// WattsPerKg is Watts divided by the rider mass.
	WattsPerKg float64
}

// EstimateRequiredPower computes the average power a rider must sustain to
// cover distanceMeters with elevationGainMeters of net climbing in seconds,
// using a quasi-static model (gravity, rolling resistance, aerodynamic drag
// at average speed; no acceleration term).
//
// Net-downhill segments can legitimately produce low or negative power; the
// value is returned as computed, never clamped. Callers must guarantee
// seconds > 0, distanceMeters > 0 and riderMassKg > 0.
func EstimateRequiredPower(distanceMeters, elevationGainMeters, seconds, riderMassKg float64) PowerEstimate {
	speed := distanceMeters / seconds
	grade := elevationGainMeters / distanceMeters
	totalMass := riderMassKg + bikeMassKg

	gravityPower := totalMass * gravity * speed * grade
	rollingPower := totalMass * gravity * speed * rollingResistanceCoeff
	aeroPower := 0.5 * airDensity * dragArea * speed * speed * speed

	watts := (gravityPower + rollingPower + aeroPower) / drivetrainEfficiency

	return PowerEstimate{
		Watts:      watts,
		WattsPerKg: watts / riderMassKg,
	}
}
