package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/segmentscout/segmentscout/internal/api/middleware"
	"github.com/segmentscout/segmentscout/internal/api/models"
	"github.com/segmentscout/segmentscout/internal/api/response"
	"github.com/segmentscout/segmentscout/internal/difficulty"
	"github.com/segmentscout/segmentscout/internal/segment"
)

// SegmentHandler handles segment discovery and scoring endpoints.
type SegmentHandler struct {
	service *segment.Service
	scorer  *difficulty.Scorer
}

// NewSegmentHandler creates a new SegmentHandler.
func NewSegmentHandler(service *segment.Service, scorer *difficulty.Scorer) *SegmentHandler {
	return &SegmentHandler{service: service, scorer: scorer}
}

// Explore handles GET /v1/segments/explore?bounds=&activity=.
func (h *SegmentHandler) Explore(w http.ResponseWriter, r *http.Request) {
	boundsParam := r.URL.Query().Get("bounds")
	if boundsParam == "" {
		response.BadRequest(w, r, "validation failed", []models.FieldError{
			{Field: "bounds", Message: "bounds query parameter is required", Code: "required"},
		})
		return
	}

	bounds, err := segment.ParseBounds(boundsParam)
	if err != nil {
		response.BadRequest(w, r, err.Error(), []models.FieldError{
			{Field: "bounds", Message: "expected swLat,swLon,neLat,neLon", Code: "invalid"},
		})
		return
	}

	activity, err := segment.ParseActivityType(r.URL.Query().Get("activity"))
	if err != nil {
		response.BadRequest(w, r, err.Error(), []models.FieldError{
			{Field: "activity", Message: "expected riding or running", Code: "invalid"},
		})
		return
	}

	results, err := h.service.Explore(r.Context(), middleware.GetAccessToken(r.Context()), bounds, activity)
	if err != nil {
		h.writeProviderError(w, r, err)
		return
	}

	resp := models.ExploreResponse{Segments: make([]models.SegmentSummary, 0, len(results))}
	for _, res := range results {
		resp.Segments = append(resp.Segments, models.NewSegmentSummary(res))
	}

	response.JSON(w, r, http.StatusOK, resp)
}

// GetSegment handles GET /v1/segments/{segmentId}.
func (h *SegmentHandler) GetSegment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "segmentId"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, r, "segment id must be a positive integer", []models.FieldError{
			{Field: "segmentId", Message: "invalid segment id", Code: "invalid"},
		})
		return
	}

	detail, err := h.service.GetSegment(r.Context(), middleware.GetAccessToken(r.Context()), id)
	if err != nil {
		h.writeProviderError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewSegmentDetail(detail))
}

// Score handles POST /v1/segments/score - scores a manually entered effort
// without touching the platform.
func (h *SegmentHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req models.ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	profile := difficulty.PhysicalProfile{
		DistanceMeters:  req.DistanceMeters,
		ElevationGain:   req.ElevationGainMeters,
		BestTime:        req.BestTime,
		BestTimeSeconds: req.BestTimeSeconds,
	}
	if req.RiderMassKg != nil {
		profile.RiderMassKg = *req.RiderMassKg
	}

	result := h.scorer.Score(profile)

	response.JSON(w, r, http.StatusOK, models.ScoreResponse{
		Difficulty: models.NewDifficulty(result),
	})
}

// writeProviderError maps segment domain errors onto problem responses.
func (h *SegmentHandler) writeProviderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, segment.ErrInvalidBounds):
		response.BadRequest(w, r, err.Error(), nil)
	case errors.Is(err, segment.ErrUnauthorized):
		response.Unauthorized(w, r, "the platform rejected the access token")
	case errors.Is(err, segment.ErrNotFound):
		response.NotFound(w, r, "segment not found")
	case errors.Is(err, segment.ErrRateLimited):
		// The platform quota resets on 15 minute boundaries.
		response.TooManyRequests(w, r, "the platform rate limit is exhausted, try again later", 900)
	case errors.Is(err, segment.ErrProviderUnavailable):
		response.ServiceUnavailable(w, r, "the segment provider is unavailable")
	default:
		response.InternalError(w, r, "segment lookup failed")
	}
}
