// Package segment provides segment discovery, caching and difficulty scoring
// on top of the fitness platform's API.
package segment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/segmentscout/segmentscout/internal/difficulty"
	"github.com/segmentscout/segmentscout/pkg/polyline"
)

// Sentinel errors for segment operations.
var (
	// ErrProviderUnavailable indicates the platform API is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("segment provider unavailable")
	// ErrNotFound indicates the requested segment does not exist.
	ErrNotFound = errors.New("segment not found")
	// ErrUnauthorized indicates the access token was missing, expired or revoked.
	ErrUnauthorized = errors.New("unauthorized for segment provider")
	// ErrRateLimited indicates the platform API quota has been exhausted.
	ErrRateLimited = errors.New("segment provider rate limit exceeded")
	// ErrInvalidBounds indicates a malformed or out-of-range viewport.
	ErrInvalidBounds = errors.New("invalid bounds")
)

// Provider defines the platform API surface the service depends on. The
// access token is passed per call; providers hold no user credentials.
type Provider interface {
	// Explore returns up to the platform's per-viewport cap of popular
	// segments inside bounds.
	Explore(ctx context.Context, accessToken string, bounds Bounds, activity ActivityType) ([]Summary, error)
	// GetSegment retrieves full detail for one segment.
	GetSegment(ctx context.Context, accessToken string, id int64) (*Detail, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// ActivityType selects the segment sport filter for explore calls.
type ActivityType string

const (
	ActivityRiding  ActivityType = "riding"
	ActivityRunning ActivityType = "running"
)

// ParseActivityType validates an activity filter, defaulting to riding.
func ParseActivityType(s string) (ActivityType, error) {
	switch ActivityType(s) {
	case "":
		return ActivityRiding, nil
	case ActivityRiding, ActivityRunning:
		return ActivityType(s), nil
	default:
		return "", fmt.Errorf("unknown activity type %q", s)
	}
}

// Bounds is a viewport as south-west and north-east corners.
type Bounds struct {
	SouthLat float64
	WestLon  float64
	NorthLat float64
	EastLon  float64
}

// ParseBounds parses the wire form "swLat,swLon,neLat,neLon".
func ParseBounds(s string) (Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Bounds{}, fmt.Errorf("%w: expected 4 comma-separated values", ErrInvalidBounds)
	}

	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Bounds{}, fmt.Errorf("%w: component %d is not a number", ErrInvalidBounds, i+1)
		}
		vals[i] = v
	}

	b := Bounds{SouthLat: vals[0], WestLon: vals[1], NorthLat: vals[2], EastLon: vals[3]}
	if err := b.Validate(); err != nil {
		return Bounds{}, err
	}
	return b, nil
}

// Validate checks coordinate ranges and corner ordering.
func (b Bounds) Validate() error {
	if b.SouthLat < -90 || b.SouthLat > 90 || b.NorthLat < -90 || b.NorthLat > 90 {
		return fmt.Errorf("%w: latitude out of range [-90, 90]", ErrInvalidBounds)
	}
	if b.WestLon < -180 || b.WestLon > 180 || b.EastLon < -180 || b.EastLon > 180 {
		return fmt.Errorf("%w: longitude out of range [-180, 180]", ErrInvalidBounds)
	}
	if b.SouthLat >= b.NorthLat || b.WestLon >= b.EastLon {
		return fmt.Errorf("%w: south-west corner must be below and left of north-east", ErrInvalidBounds)
	}
	return nil
}

// String renders the wire form "swLat,swLon,neLat,neLon".
func (b Bounds) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", b.SouthLat, b.WestLon, b.NorthLat, b.EastLon)
}

// LatSpan returns the latitude extent in degrees.
func (b Bounds) LatSpan() float64 { return b.NorthLat - b.SouthLat }

// LonSpan returns the longitude extent in degrees.
func (b Bounds) LonSpan() float64 { return b.EastLon - b.WestLon }

// Quadrants splits the bounds into four equal sub-viewports, used when an
// explore response hits the platform's per-viewport result cap.
func (b Bounds) Quadrants() [4]Bounds {
	midLat := b.SouthLat + b.LatSpan()/2
	midLon := b.WestLon + b.LonSpan()/2
	return [4]Bounds{
		{SouthLat: b.SouthLat, WestLon: b.WestLon, NorthLat: midLat, EastLon: midLon},
		{SouthLat: b.SouthLat, WestLon: midLon, NorthLat: midLat, EastLon: b.EastLon},
		{SouthLat: midLat, WestLon: b.WestLon, NorthLat: b.NorthLat, EastLon: midLon},
		{SouthLat: midLat, WestLon: midLon, NorthLat: b.NorthLat, EastLon: b.EastLon},
	}
}

// LatLng is a single coordinate pair.
type LatLng struct {
	Lat float64
	Lon float64
}

// Summary is the segment shape returned by explore.
type Summary struct {
	ID                  int64
	Name                string
	Activity            ActivityType
	DistanceMeters      float64
	AverageGrade        float64
	ClimbCategory       int
	ElevationDifference float64
	Start               LatLng
	End                 LatLng
	EncodedPolyline     string
}

// Detail is the full segment record, including the best-known-time fields
// the difficulty model needs.
type Detail struct {
	Summary

	MaximumGrade       float64
	ElevationHigh      *float64
	ElevationLow       *float64
	TotalElevationGain *float64

	// KomTime and QomTime are the platform's best known times as display
	// strings, e.g. "4:32" or "1:02:11". Empty when no effort exists.
	KomTime string
	QomTime string

	EffortCount  int
	AthleteCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// FetchedAt records when this detail was loaded from the platform.
	FetchedAt time.Time
}

// Path decodes the segment geometry. Nil when no polyline is present.
func (s *Summary) Path() []polyline.Point {
	if s.EncodedPolyline == "" {
		return nil
	}
	return polyline.Decode(s.EncodedPolyline)
}

// PhysicalProfile normalizes a possibly-partial detail record into the
// scoring engine's input shape. Fallbacks live here, at the boundary:
// elevation prefers the high/low difference over the total gain figure, and
// the summary-level explore elevation difference is the last resort; the
// best time prefers the KOM over the QOM. A missing distance is recovered
// from the polyline geometry when one is present.
func (d *Detail) PhysicalProfile() difficulty.PhysicalProfile {
	var elevation *float64
	switch {
	case d.ElevationHigh != nil && d.ElevationLow != nil:
		diff := *d.ElevationHigh - *d.ElevationLow
		elevation = &diff
	case d.TotalElevationGain != nil:
		elevation = d.TotalElevationGain
	case d.ElevationDifference != 0:
		diff := d.ElevationDifference
		elevation = &diff
	}

	bestTime := d.KomTime
	if bestTime == "" {
		bestTime = d.QomTime
	}

	distance := d.DistanceMeters
	if distance <= 0 {
		distance = polyline.Length(d.Path())
	}

	return difficulty.PhysicalProfile{
		DistanceMeters: distance,
		ElevationGain:  elevation,
		BestTime:       bestTime,
	}
}

// ScoredDetail pairs a detail with its difficulty result.
type ScoredDetail struct {
	Detail
	Difficulty difficulty.Result
}

// ExploreResult is one scored segment from an explore call.
type ExploreResult struct {
	Summary
	Difficulty difficulty.Result
}

// SortByDifficulty orders results ascending by score with unscoreable
// segments last, the order the presentation layer renders.
func SortByDifficulty(results []ExploreResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].Difficulty, results[j].Difficulty
		if a.Valid != b.Valid {
			return a.Valid
		}
		if !a.Valid {
			return false
		}
		return a.Score < b.Score
	})
}

// Error provides detailed error information from the segment provider.
type Error struct {
	Provider string // Provider that generated the error
	Code     string // Error code from the provider
	Message  string // Human-readable error message
	Err      error  // Underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is transient and the request can be
// retried.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable)
}
