// Package strava provides a client for the fitness platform's segment API.
package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/segmentscout/segmentscout/internal/provider/resilience"
	"github.com/segmentscout/segmentscout/internal/segment"
)

const (
	// ProviderName identifies this segment provider.
	ProviderName = "strava"

	// DefaultBaseURL is the platform API base URL.
	DefaultBaseURL = "https://www.strava.com/api/v3"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the platform client.
type ClientConfig struct {
	// BaseURL is the API base URL (optional, defaults to the platform API).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a platform segment API client. Access tokens are passed per
// call; the client stores no credentials.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	registry   *resilience.Registry
	logger     zerolog.Logger
}

// NewClient creates a new platform client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		client := resilience.NewClient(clientCfg)
		if cfg.Registry != nil {
			cfg.Registry.Register(ProviderName, client)
		}
		httpClient = client
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		registry:   cfg.Registry,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Explore returns the platform's popular segments inside the viewport. The
// platform caps the response at 10 segments per call; callers subdivide
// large viewports themselves.
func (c *Client) Explore(ctx context.Context, accessToken string, bounds segment.Bounds, activity segment.ActivityType) ([]segment.Summary, error) {
	if err := bounds.Validate(); err != nil {
		return nil, &segment.Error{
			Provider: ProviderName,
			Code:     "INVALID_BOUNDS",
			Message:  "invalid explore bounds",
			Err:      err,
		}
	}

	query := url.Values{}
	query.Set("bounds", bounds.String())
	query.Set("activity_type", string(activity))

	var resp exploreResponse
	if err := c.get(ctx, accessToken, "/segments/explore?"+query.Encode(), &resp); err != nil {
		return nil, err
	}

	summaries := make([]segment.Summary, 0, len(resp.Segments))
	for i := range resp.Segments {
		summaries = append(summaries, toSummary(&resp.Segments[i], activity))
	}

	c.logger.Debug().
		Str("bounds", bounds.String()).
		Int("segment_count", len(summaries)).
		Msg("received explore response")

	return summaries, nil
}

// GetSegment retrieves full detail for one segment.
func (c *Client) GetSegment(ctx context.Context, accessToken string, id int64) (*segment.Detail, error) {
	var resp segmentDetail
	if err := c.get(ctx, accessToken, "/segments/"+strconv.FormatInt(id, 10), &resp); err != nil {
		return nil, err
	}

	detail := toDetail(&resp)

	c.logger.Debug().
		Int64("segment_id", id).
		Str("kom", detail.KomTime).
		Msg("received segment detail")

	return detail, nil
}

// get executes an authenticated GET and decodes a JSON response.
func (c *Client) get(ctx context.Context, accessToken, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure(err)
		return &segment.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach segment provider",
			Err:      segment.ErrProviderUnavailable,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := c.handleErrorResponse(resp.StatusCode, body)
		c.recordFailure(apiErr)
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	c.recordSuccess()
	return nil
}

// handleErrorResponse maps platform error responses to domain errors.
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	var apiErr apiError
	message := fmt.Sprintf("segment provider returned status %d", statusCode)
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		message = apiErr.Message
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return &segment.Error{
			Provider: ProviderName,
			Code:     "UNAUTHORIZED",
			Message:  message,
			Err:      segment.ErrUnauthorized,
		}
	case statusCode == http.StatusNotFound:
		return &segment.Error{
			Provider: ProviderName,
			Code:     "NOT_FOUND",
			Message:  message,
			Err:      segment.ErrNotFound,
		}
	case statusCode == http.StatusTooManyRequests:
		return &segment.Error{
			Provider: ProviderName,
			Code:     "RATE_LIMIT",
			Message:  "API rate limit exceeded, please try again later",
			Err:      segment.ErrRateLimited,
		}
	case statusCode >= 500:
		return &segment.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("SERVER_%d", statusCode),
			Message:  "segment provider is temporarily unavailable",
			Err:      segment.ErrProviderUnavailable,
		}
	default:
		return &segment.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", statusCode),
			Message:  message,
			Err:      segment.ErrProviderUnavailable,
		}
	}
}

func (c *Client) recordSuccess() {
	if c.registry != nil {
		c.registry.RecordSuccess(ProviderName)
	}
}

func (c *Client) recordFailure(err error) {
	if c.registry != nil {
		c.registry.RecordFailure(ProviderName, err)
	}
}

// toSummary converts an explore entry to the domain model.
func toSummary(s *exploreSegment, activity segment.ActivityType) segment.Summary {
	return segment.Summary{
		ID:                  s.ID,
		Name:                s.Name,
		Activity:            activity,
		DistanceMeters:      s.Distance,
		AverageGrade:        s.AvgGrade,
		ClimbCategory:       s.ClimbCategory,
		ElevationDifference: s.ElevDifference,
		Start:               toLatLng(s.StartLatLng),
		End:                 toLatLng(s.EndLatLng),
		EncodedPolyline:     s.Points,
	}
}

// toDetail converts a detail payload to the domain model.
func toDetail(d *segmentDetail) *segment.Detail {
	detail := &segment.Detail{
		Summary: segment.Summary{
			ID:              d.ID,
			Name:            d.Name,
			Activity:        toActivityType(d.ActivityType),
			DistanceMeters:  d.Distance,
			AverageGrade:    d.AverageGrade,
			ClimbCategory:   d.ClimbCategory,
			Start:           toLatLng(d.StartLatLng),
			End:             toLatLng(d.EndLatLng),
			EncodedPolyline: d.Map.Polyline,
		},
		MaximumGrade:       d.MaximumGrade,
		ElevationHigh:      d.ElevationHigh,
		ElevationLow:       d.ElevationLow,
		TotalElevationGain: d.TotalElevationGain,
		KomTime:            d.Xoms.Kom,
		QomTime:            d.Xoms.Qom,
		EffortCount:        d.EffortCount,
		AthleteCount:       d.AthleteCount,
	}

	if d.ElevationHigh != nil && d.ElevationLow != nil {
		detail.ElevationDifference = *d.ElevationHigh - *d.ElevationLow
	}
	if t, err := time.Parse(time.RFC3339, d.CreatedAt); err == nil {
		detail.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, d.UpdatedAt); err == nil {
		detail.UpdatedAt = t
	}

	return detail
}

// toActivityType maps the platform's sport names onto the explore filter
// vocabulary.
func toActivityType(s string) segment.ActivityType {
	if s == "Run" {
		return segment.ActivityRunning
	}
	return segment.ActivityRiding
}

func toLatLng(pair []float64) segment.LatLng {
	if len(pair) < 2 {
		return segment.LatLng{}
	}
	return segment.LatLng{Lat: pair[0], Lon: pair[1]}
}
