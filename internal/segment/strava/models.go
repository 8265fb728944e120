package strava

// Wire types for the platform's segment endpoints. Only the fields the
// domain conversion reads are declared.

// exploreResponse is the payload of GET /segments/explore.
type exploreResponse struct {
	Segments []exploreSegment `json:"segments"`
}

// exploreSegment is one entry of an explore response.
type exploreSegment struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	ClimbCategory  int       `json:"climb_category"`
	AvgGrade       float64   `json:"avg_grade"`
	StartLatLng    []float64 `json:"start_latlng"`
	EndLatLng      []float64 `json:"end_latlng"`
	ElevDifference float64   `json:"elev_difference"`
	Distance       float64   `json:"distance"`
	Points         string    `json:"points"`
}

// segmentDetail is the payload of GET /segments/{id}.
type segmentDetail struct {
	ID                 int64       `json:"id"`
	Name               string      `json:"name"`
	ActivityType       string      `json:"activity_type"`
	Distance           float64     `json:"distance"`
	AverageGrade       float64     `json:"average_grade"`
	MaximumGrade       float64     `json:"maximum_grade"`
	ElevationHigh      *float64    `json:"elevation_high"`
	ElevationLow       *float64    `json:"elevation_low"`
	TotalElevationGain *float64    `json:"total_elevation_gain"`
	ClimbCategory      int         `json:"climb_category"`
	StartLatLng        []float64   `json:"start_latlng"`
	EndLatLng          []float64   `json:"end_latlng"`
	CreatedAt          string      `json:"created_at"`
	UpdatedAt          string      `json:"updated_at"`
	EffortCount        int         `json:"effort_count"`
	AthleteCount       int         `json:"athlete_count"`
	Map                segmentMap  `json:"map"`
	Xoms               segmentXoms `json:"xoms"`
}

type segmentMap struct {
	Polyline string `json:"polyline"`
}

// segmentXoms carries the best known times as display strings.
type segmentXoms struct {
	Kom string `json:"kom"`
	Qom string `json:"qom"`
}

// apiError is the platform's error envelope.
type apiError struct {
	Message string `json:"message"`
	Errors  []struct {
		Resource string `json:"resource"`
		Field    string `json:"field"`
		Code     string `json:"code"`
	} `json:"errors"`
}
