package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/segmentscout/segmentscout/internal/api/models"
)

// accessTokenKey is the context key for the platform access token.
type accessTokenKey struct{}

// AccessToken extracts the bearer token from the Authorization header and
// stores it in the request context. The token belongs to the fitness
// platform, not to this service, so it is passed through unvalidated; the
// platform rejects bad tokens downstream. Requests without a token are
// rejected here.
func AccessToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeUnauthorized(w, r, "missing authorization header")
			return
		}

		const bearerPrefix = "Bearer "
		if len(authHeader) < len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			writeUnauthorized(w, r, "invalid authorization header format")
			return
		}

		token := authHeader[len(bearerPrefix):]
		if token == "" {
			writeUnauthorized(w, r, "missing bearer token")
			return
		}

		ctx := context.WithValue(r.Context(), accessTokenKey{}, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// writeUnauthorized writes a 401 Unauthorized response.
// This is implemented directly here to avoid import cycle with response package.
func writeUnauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	traceID := GetRequestID(r.Context())
	problem := models.NewUnauthorized(traceID, detail)
	problem.Instance = r.URL.Path
	problem.Write(w)
}

// GetAccessToken retrieves the platform access token from the context.
// Returns an empty string if the request carried none.
func GetAccessToken(ctx context.Context) string {
	if token, ok := ctx.Value(accessTokenKey{}).(string); ok {
		return token
	}
	return ""
}
