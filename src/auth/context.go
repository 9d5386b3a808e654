package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	logger "github.com/sirupsen/logrus"
)

type contextKey string

const OperatorKey contextKey = "operator"

// GetOperatorFromContext returns the caller name stored by RequireToken.
func GetOperatorFromContext(ctx context.Context) (string, bool) {
	op, ok := ctx.Value(OperatorKey).(string)
	return op, ok
}

// RequireToken rejects requests without "Authorization: Bearer <token>".
// An empty token disables the check.
func RequireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			got := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				logger.WithFields(map[string]interface{}{
					"path":   r.URL.Path,
					"remote": r.RemoteAddr,
				}).Warn("rejected unauthenticated admin request")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			operator := r.Header.Get("X-Operator")
			if operator == "" {
				operator = "admin"
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), OperatorKey, operator)))
		})
	}
}
