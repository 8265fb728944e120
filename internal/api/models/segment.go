package models

import (
	"github.com/segmentscout/segmentscout/internal/difficulty"
	"github.com/segmentscout/segmentscout/internal/segment"
	"github.com/segmentscout/segmentscout/pkg/polyline"
)

// Difficulty is the wire form of a difficulty result. Numeric fields are null
// when the segment could not be scored; the class then degrades to the
// unknown band.
type Difficulty struct {
	Score              *float64 `json:"score"`
	Class              string   `json:"class"`
	Label              string   `json:"label"`
	Color              string   `json:"color"`
	RequiredPowerWatts *float64 `json:"requiredPowerWatts"`
	RequiredPowerPerKg *float64 `json:"requiredPowerPerKg"`
}

// NewDifficulty converts a scoring result to its wire form.
func NewDifficulty(r difficulty.Result) Difficulty {
	d := Difficulty{
		Class: string(r.Band.Class),
		Label: r.Band.Label,
		Color: r.Band.Color,
	}
	if r.Valid {
		score := r.Score
		watts := r.RequiredPowerWatts
		perKg := r.RequiredPowerPerKg
		d.Score = &score
		d.RequiredPowerWatts = &watts
		d.RequiredPowerPerKg = &perKg
	}
	return d
}

// SegmentSummary is one entry of an explore response.
type SegmentSummary struct {
	ID                  int64      `json:"id"`
	Name                string     `json:"name"`
	Activity            string     `json:"activity"`
	DistanceMeters      float64    `json:"distanceMeters"`
	AverageGrade        float64    `json:"averageGrade"`
	ClimbCategory       int        `json:"climbCategory"`
	ElevationDifference float64    `json:"elevationDifference"`
	Start               Point      `json:"start"`
	End                 Point      `json:"end"`
	EncodedPolyline     string     `json:"encodedPolyline,omitempty"`
	Difficulty          Difficulty `json:"difficulty"`
}

// NewSegmentSummary converts an explore result to its wire form.
func NewSegmentSummary(r segment.ExploreResult) SegmentSummary {
	return SegmentSummary{
		ID:                  r.ID,
		Name:                r.Name,
		Activity:            string(r.Activity),
		DistanceMeters:      r.DistanceMeters,
		AverageGrade:        r.AverageGrade,
		ClimbCategory:       r.ClimbCategory,
		ElevationDifference: r.ElevationDifference,
		Start:               Point{Lat: r.Start.Lat, Lon: r.Start.Lon},
		End:                 Point{Lat: r.End.Lat, Lon: r.End.Lon},
		EncodedPolyline:     r.EncodedPolyline,
		Difficulty:          NewDifficulty(r.Difficulty),
	}
}

// ExploreResponse is the payload of GET /v1/segments/explore.
type ExploreResponse struct {
	Segments []SegmentSummary `json:"segments"`
}

// SegmentDetail is the payload of GET /v1/segments/{segmentId}.
type SegmentDetail struct {
	SegmentSummary

	MaximumGrade       float64    `json:"maximumGrade"`
	ElevationHigh      *float64   `json:"elevationHigh"`
	ElevationLow       *float64   `json:"elevationLow"`
	TotalElevationGain *float64   `json:"totalElevationGain"`
	KomTime            string     `json:"komTime,omitempty"`
	QomTime            string     `json:"qomTime,omitempty"`
	EffortCount        int        `json:"effortCount"`
	AthleteCount       int        `json:"athleteCount"`
	CreatedAt          *Timestamp `json:"createdAt,omitempty"`
	FetchedAt          Timestamp  `json:"fetchedAt"`

	// Path is the decoded segment geometry, Bounds its extent, for map
	// rendering without a client-side polyline decoder.
	Path   []Point      `json:"path,omitempty"`
	Bounds *BoundingBox `json:"bounds,omitempty"`
}

// BoundingBox is the geographic extent of a segment path.
type BoundingBox struct {
	MinLat float64 `json:"minLat"`
	MinLon float64 `json:"minLon"`
	MaxLat float64 `json:"maxLat"`
	MaxLon float64 `json:"maxLon"`
}

// NewSegmentDetail converts a scored detail to its wire form.
func NewSegmentDetail(d *segment.ScoredDetail) SegmentDetail {
	out := SegmentDetail{
		SegmentSummary: SegmentSummary{
			ID:                  d.ID,
			Name:                d.Name,
			Activity:            string(d.Activity),
			DistanceMeters:      d.DistanceMeters,
			AverageGrade:        d.AverageGrade,
			ClimbCategory:       d.ClimbCategory,
			ElevationDifference: d.ElevationDifference,
			Start:               Point{Lat: d.Start.Lat, Lon: d.Start.Lon},
			End:                 Point{Lat: d.End.Lat, Lon: d.End.Lon},
			EncodedPolyline:     d.EncodedPolyline,
			Difficulty:          NewDifficulty(d.Difficulty),
		},
		MaximumGrade:       d.MaximumGrade,
		ElevationHigh:      d.ElevationHigh,
		ElevationLow:       d.ElevationLow,
		TotalElevationGain: d.TotalElevationGain,
		KomTime:            d.KomTime,
		QomTime:            d.QomTime,
		EffortCount:        d.EffortCount,
		AthleteCount:       d.AthleteCount,
		FetchedAt:          Timestamp(d.FetchedAt),
	}
	if !d.CreatedAt.IsZero() {
		created := Timestamp(d.CreatedAt)
		out.CreatedAt = &created
	}

	if path := d.Path(); len(path) > 0 {
		out.Path = make([]Point, 0, len(path))
		for _, p := range path {
			out.Path = append(out.Path, Point{Lat: p.Lat, Lon: p.Lon})
		}
		if box, ok := polyline.BoundsOf(path); ok {
			out.Bounds = &BoundingBox{
				MinLat: box.MinLat, MinLon: box.MinLon,
				MaxLat: box.MaxLat, MaxLon: box.MaxLon,
			}
		}
	}

	return out
}

// ScoreRequest is the payload of POST /v1/segments/score, for scoring a
// hypothetical or manually entered effort.
type ScoreRequest struct {
	DistanceMeters      float64  `json:"distanceMeters"`
	ElevationGainMeters *float64 `json:"elevationGainMeters"`
	BestTime            string   `json:"bestTime,omitempty"`
	BestTimeSeconds     *int     `json:"bestTimeSeconds,omitempty"`
	RiderMassKg         *float64 `json:"riderMassKg,omitempty"`
}

// ScoreResponse is the payload returned for a score request.
type ScoreResponse struct {
	Difficulty Difficulty `json:"difficulty"`
}
