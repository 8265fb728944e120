package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/segmentscout/segmentscout/internal/api/models"
	"github.com/segmentscout/segmentscout/internal/api/response"
	"github.com/segmentscout/segmentscout/internal/auth"
)

// OAuthHandler relays authorization-code and refresh grants to the fitness
// platform. Tokens are returned to the client and never stored server-side.
type OAuthHandler struct {
	relay  *auth.Relay
	states *auth.StateIssuer
}

// NewOAuthHandler creates a new OAuthHandler.
func NewOAuthHandler(relay *auth.Relay, states *auth.StateIssuer) *OAuthHandler {
	return &OAuthHandler{relay: relay, states: states}
}

// Token handles POST /v1/oauth/token - exchanges an authorization code.
func (h *OAuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req models.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}
	if req.Code == "" {
		response.BadRequest(w, r, "validation failed", []models.FieldError{
			{Field: "code", Message: "code is required", Code: "required"},
		})
		return
	}

	// The state token is optional; when the client threads one through the
	// authorize redirect it must verify.
	if req.State != "" && h.states != nil {
		if err := h.states.Verify(req.State); err != nil {
			response.BadRequest(w, r, "state token is invalid or expired", []models.FieldError{
				{Field: "state", Message: "invalid state token", Code: "invalid"},
			})
			return
		}
	}

	grant, err := h.relay.Exchange(r.Context(), req.Code)
	if err != nil {
		h.writeGrantError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toTokenResponse(grant))
}

// Refresh handles POST /v1/oauth/refresh - rotates a refresh token.
func (h *OAuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}
	if req.RefreshToken == "" {
		response.BadRequest(w, r, "validation failed", []models.FieldError{
			{Field: "refreshToken", Message: "refreshToken is required", Code: "required"},
		})
		return
	}

	grant, err := h.relay.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeGrantError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toTokenResponse(grant))
}

// State handles GET /v1/oauth/state - issues a signed single-use state token.
func (h *OAuthHandler) State(w http.ResponseWriter, r *http.Request) {
	token, expiresAt, err := h.states.Issue()
	if err != nil {
		response.InternalError(w, r, "failed to issue state token")
		return
	}

	response.JSON(w, r, http.StatusOK, models.StateResponse{
		State:     token,
		ExpiresAt: models.Timestamp(expiresAt),
	})
}

func (h *OAuthHandler) writeGrantError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidGrant):
		response.Unauthorized(w, r, "the authorization grant was rejected")
	case errors.Is(err, auth.ErrEndpointUnavailable):
		response.ServiceUnavailable(w, r, "the token endpoint is unavailable")
	default:
		response.InternalError(w, r, "token exchange failed")
	}
}

func toTokenResponse(grant *auth.TokenResponse) models.TokenResponse {
	return models.TokenResponse{
		TokenType:    grant.TokenType,
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		ExpiresAt:    grant.ExpiresAt,
		ExpiresIn:    grant.ExpiresIn,
		Athlete:      grant.Athlete,
	}
}
