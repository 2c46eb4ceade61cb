package httpapi

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/arbiter-games/coordinator/infrastructure/errors"
)

type contextKey string

const agentIDContextKey contextKey = "agent_id"

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bearerMiddleware resolves the Authorization header to an agent id via
// the identity store and attaches it to the request context (spec.md §7
// invariant: "no request lacking a resolvable bearer secret ever
// produces a non-401 response on a secured endpoint").
func (s *Service) bearerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, s.log, apperrors.NewUnauthorized("missing bearer authorization header"))
			return
		}
		bearerSecret := strings.TrimPrefix(authHeader, "Bearer ")

		agentID, ok, err := s.identity.Resolve(r.Context(), bearerSecret)
		if err != nil {
			writeError(w, s.log, apperrors.NewInternal("resolve bearer secret", err))
			return
		}
		if !ok {
			writeError(w, s.log, apperrors.NewUnauthorized("bearer secret does not resolve to an agent"))
			return
		}

		ctx := context.WithValue(r.Context(), agentIDContextKey, agentID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func agentIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(agentIDContextKey).(string)
	return v, ok
}
