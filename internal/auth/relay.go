// Package auth provides the OAuth token relay for the fitness platform.
//
// The platform's token endpoint requires the confidential client secret and
// does not send CORS headers, so browsers cannot call it directly. The relay
// is a stateless proxy: it attaches the client credentials to an
// authorization-code or refresh-token exchange and forwards the platform's
// token payload back to the caller. No tokens are stored.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/segmentscout/segmentscout/internal/provider/resilience"
)

const (
	// ProviderName identifies the token endpoint for health tracking.
	ProviderName = "strava-oauth"

	// DefaultTokenURL is the platform's token endpoint.
	DefaultTokenURL = "https://www.strava.com/oauth/token"

	// DefaultTimeout is the default exchange timeout.
	DefaultTimeout = 10 * time.Second
)

// Relay errors.
var (
	// ErrInvalidGrant indicates the code or refresh token was rejected.
	ErrInvalidGrant = errors.New("invalid grant")
	// ErrEndpointUnavailable indicates the token endpoint could not be reached.
	ErrEndpointUnavailable = errors.New("token endpoint unavailable")
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RelayConfig holds configuration for the token relay.
type RelayConfig struct {
	// ClientID is the platform application id (required).
	ClientID string

	// ClientSecret is the confidential application secret (required).
	ClientSecret string

	// TokenURL is the token endpoint (optional, defaults to the platform).
	TokenURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the exchange timeout (optional, defaults to 10s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for relay operations.
	Logger zerolog.Logger
}

// Relay exchanges authorization codes and refresh tokens for access tokens.
type Relay struct {
	clientID     string
	clientSecret string
	tokenURL     string
	httpClient   HTTPDoer
	logger       zerolog.Logger
}

// NewRelay creates a new token relay.
func NewRelay(cfg RelayConfig) *Relay {
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
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

	return &Relay{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		tokenURL:     tokenURL,
		httpClient:   httpClient,
		logger:       cfg.Logger,
	}
}

// TokenResponse is the platform's token payload, forwarded verbatim.
type TokenResponse struct {
	TokenType    string          `json:"token_type"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresAt    int64           `json:"expires_at"`
	ExpiresIn    int64           `json:"expires_in"`
	Athlete      json.RawMessage `json:"athlete,omitempty"`
}

// Exchange trades an authorization code for tokens.
func (r *Relay) Exchange(ctx context.Context, code string) (*TokenResponse, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: empty authorization code", ErrInvalidGrant)
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)

	return r.post(ctx, form)
}

// Refresh trades a refresh token for a fresh access token.
func (r *Relay) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: empty refresh token", ErrInvalidGrant)
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	return r.post(ctx, form)
}

func (r *Relay) post(ctx context.Context, form url.Values) (*TokenResponse, error) {
	form.Set("client_id", r.clientID)
	form.Set("client_secret", r.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	r.logger.Debug().
		Str("grant_type", form.Get("grant_type")).
		Msg("forwarding token exchange to platform")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEndpointUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// fallthrough to decode
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized:
		r.logger.Warn().
			Int("status", resp.StatusCode).
			Str("grant_type", form.Get("grant_type")).
			Msg("platform rejected token exchange")
		return nil, ErrInvalidGrant
	default:
		return nil, fmt.Errorf("%w: status %d", ErrEndpointUnavailable, resp.StatusCode)
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: response carried no access token", ErrInvalidGrant)
	}

	return &token, nil
}
