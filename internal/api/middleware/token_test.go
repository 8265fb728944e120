package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/segmentscout/segmentscout/internal/api/middleware"
)

func TestAccessToken(t *testing.T) {
	var captured string
	handler := middleware.AccessToken(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = middleware.GetAccessToken(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantToken  string
	}{
		{name: "valid bearer token", header: "Bearer abc123", wantStatus: http.StatusOK, wantToken: "abc123"},
		{name: "lowercase bearer accepted", header: "bearer abc123", wantStatus: http.StatusOK, wantToken: "abc123"},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc123", wantStatus: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer ", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captured = ""
			req := httptest.NewRequest(http.MethodGet, "/v1/segments/1", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantToken, captured)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestGetAccessToken_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, middleware.GetAccessToken(req.Context()))
}
