package models

import "encoding/json"

// TokenRequest is the payload of POST /v1/oauth/token, exchanging an
// authorization code for platform tokens.
type TokenRequest struct {
	Code  string `json:"code"`
	State string `json:"state,omitempty"`
}

// RefreshRequest is the payload of POST /v1/oauth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse mirrors the platform's token grant. The athlete payload is
// passed through untouched.
type TokenResponse struct {
	TokenType    string          `json:"tokenType"`
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	ExpiresAt    int64           `json:"expiresAt"`
	ExpiresIn    int64           `json:"expiresIn"`
	Athlete      json.RawMessage `json:"athlete,omitempty"`
}

// StateResponse is the payload of GET /v1/oauth/state, a single-use token
// the client threads through the platform's authorize redirect.
type StateResponse struct {
	State     string    `json:"state"`
	ExpiresAt Timestamp `json:"expiresAt"`
}
