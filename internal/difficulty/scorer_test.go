package difficulty_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segmentscout/segmentscout/internal/difficulty"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func TestScorer_ValidityGating(t *testing.T) {
	scorer := difficulty.NewScorer(difficulty.ScorerConfig{})

	tests := []struct {
		name    string
		profile difficulty.PhysicalProfile
	}{
		{
			name: "zero distance",
			profile: difficulty.PhysicalProfile{
				DistanceMeters: 0,
				ElevationGain:  floatPtr(100),
				BestTime:       "5:00",
			},
		},
		{
			name: "negative distance",
			profile: difficulty.PhysicalProfile{
				DistanceMeters: -500,
				ElevationGain:  floatPtr(100),
				BestTime:       "5:00",
			},
		},
		{
			name: "missing elevation gain",
			profile: difficulty.PhysicalProfile{
				DistanceMeters: 5000,
				BestTime:       "5:00",
			},
		},
		{
			name: "negative rider mass",
			profile: difficulty.PhysicalProfile{
				DistanceMeters: 5000,
				ElevationGain:  floatPtr(100),
				BestTime:       "5:00",
				RiderMassKg:    -1,
			},
		},
		{
			name: "missing best time",
			profile: difficulty.PhysicalProfile{
				DistanceMeters: 5000,
				ElevationGain:  floatPtr(100),
			},
		},
		{
			name: "unparseable best time",
			profile: difficulty.PhysicalProfile{
				DistanceMeters: 5000,
				ElevationGain:  floatPtr(100),
				BestTime:       "—",
			},
		},
		{
			name: "zero duration",
			profile: difficulty.PhysicalProfile{
				DistanceMeters: 5000,
				ElevationGain:  floatPtr(100),
				BestTime:       "0",
			},
		},
		{
			name: "non-positive parsed seconds",
			profile: difficulty.PhysicalProfile{
				DistanceMeters:  5000,
				ElevationGain:   floatPtr(100),
				BestTimeSeconds: intPtr(0),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := scorer.Score(tt.profile)
			assert.False(t, res.Valid)
			assert.Equal(t, difficulty.ClassUnknown, res.Band.Class)
			assert.Zero(t, res.RequiredPowerWatts)
			assert.Zero(t, res.RequiredPowerPerKg)
			assert.Zero(t, res.Score)
		})
	}
}

func TestScorer_EndToEnd(t *testing.T) {
	// 5 km, 300 m up, best time 20:00 at 75 kg:
	//   speed       = 5000/1200          = 4.1667 m/s
	//   gravity     = 83*9.81*speed*0.06 ≈ 203.56 W
	//   rolling     = 83*9.81*speed*Crr  ≈ 13.57 W
	//   aero        = 0.168*speed³       ≈ 12.15 W
	//   total/0.98                       ≈ 233.96 W → 3.119 W/kg
	//   reference(1200)                  ≈ 5.0002 W/kg
	scorer := difficulty.NewScorer(difficulty.ScorerConfig{RiderMassKg: 75})

	res := scorer.Score(difficulty.PhysicalProfile{
		DistanceMeters: 5000,
		ElevationGain:  floatPtr(300),
		BestTime:       "20:00",
	})

	require.True(t, res.Valid)
	assert.InDelta(t, 233.96, res.RequiredPowerWatts, 0.05)
	assert.InDelta(t, 3.119, res.RequiredPowerPerKg, 0.005)
	assert.InDelta(t, 62.39, res.Score, 0.05)
	assert.Equal(t, difficulty.ClassAccessible, res.Band.Class)
	assert.Equal(t, "Machbar", res.Band.Label)
}

func TestScorer_ParsedSecondsTakePrecedence(t *testing.T) {
	scorer := difficulty.NewScorer(difficulty.ScorerConfig{RiderMassKg: 75})

	fromString := scorer.Score(difficulty.PhysicalProfile{
		DistanceMeters: 5000,
		ElevationGain:  floatPtr(300),
		BestTime:       "20:00",
	})
	fromSeconds := scorer.Score(difficulty.PhysicalProfile{
		DistanceMeters:  5000,
		ElevationGain:   floatPtr(300),
		BestTime:        "garbage is ignored",
		BestTimeSeconds: intPtr(1200),
	})

	require.True(t, fromSeconds.Valid)
	assert.Equal(t, fromString, fromSeconds)
}

func TestScorer_DownhillNotClamped(t *testing.T) {
	scorer := difficulty.NewScorer(difficulty.ScorerConfig{RiderMassKg: 75})

	flat := scorer.Score(difficulty.PhysicalProfile{
		DistanceMeters: 5000,
		ElevationGain:  floatPtr(0),
		BestTime:       "20:00",
	})
	downhill := scorer.Score(difficulty.PhysicalProfile{
		DistanceMeters: 5000,
		ElevationGain:  floatPtr(-100),
		BestTime:       "20:00",
	})

	require.True(t, flat.Valid)
	require.True(t, downhill.Valid)
	assert.Less(t, downhill.RequiredPowerWatts, flat.RequiredPowerWatts)
	// Strong descents drive the model negative; that is preserved.
	assert.Negative(t, downhill.RequiredPowerWatts)
	assert.Negative(t, downhill.Score)
	assert.Equal(t, difficulty.ClassEasy, downhill.Band.Class)
}

func TestScorer_DefaultRiderMass(t *testing.T) {
	scorer := difficulty.NewScorer(difficulty.ScorerConfig{})
	assert.Equal(t, difficulty.DefaultRiderMassKg, scorer.RiderMassKg())

	// Profile mass overrides the configured default.
	heavier := scorer.Score(difficulty.PhysicalProfile{
		DistanceMeters: 5000,
		ElevationGain:  floatPtr(300),
		BestTime:       "20:00",
		RiderMassKg:    90,
	})
	lighter := scorer.Score(difficulty.PhysicalProfile{
		DistanceMeters: 5000,
		ElevationGain:  floatPtr(300),
		BestTime:       "20:00",
		RiderMassKg:    60,
	})
	require.True(t, heavier.Valid)
	require.True(t, lighter.Valid)
	assert.Greater(t, heavier.RequiredPowerWatts, lighter.RequiredPowerWatts)
}

func TestEstimateRequiredPower_Components(t *testing.T) {
	// Flat segment: only rolling and aero terms remain.
	est := difficulty.EstimateRequiredPower(5000, 0, 1200, 75)
	speed := 5000.0 / 1200.0
	rolling := 83 * 9.81 * speed * 0.004
	aero := 0.5 * 1.2 * 0.28 * speed * speed * speed
	assert.InDelta(t, (rolling+aero)/0.98, est.Watts, 1e-9)
	assert.InDelta(t, est.Watts/75, est.WattsPerKg, 1e-9)
}
