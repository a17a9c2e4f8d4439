package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	applog "paycycle/internal/log"
	"paycycle/internal/store"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	userIDKey    contextKey = "user_id"
)

// requireAuth resolves the bearer token to a user ID and stores it in
// the request context. Unknown or missing tokens get 401.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, "unauthorized", "Missing or malformed Authorization header")
			return
		}

		token = strings.TrimSpace(token)

		// Resolution hits the data store, so successful lookups are
		// cached. Unknown tokens are never cached.
		if userID, ok := s.tokenCache.Get(token); ok {
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next(w, r.WithContext(ctx))
			return
		}

		userID, err := s.tokens.ResolveToken(r.Context(), token)
		if err != nil {
			if errors.Is(err, store.ErrUnknownToken) {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeError(w, http.StatusUnauthorized, "unauthorized", "Unknown API token")
				return
			}
			s.logs.LogError(r.Context(), "Token resolution failed", err,
				applog.ComponentHTTP, applog.OpRead, applog.NewFields())
			writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
			return
		}

		s.tokenCache.Set(token, userID)

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next(w, r.WithContext(ctx))
	}
}

// userIDFrom returns the authenticated user ID placed by requireAuth.
func userIDFrom(ctx context.Context) int64 {
	userID, _ := ctx.Value(userIDKey).(int64)
	return userID
}
