package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"stagepass/pkg/secrets"
)

// RequireOperatorToken guards operator endpoints (cache reset, scan history)
// behind a shared token presented in X-Operator-Token. A bcrypt hash takes
// precedence over a plain token so deployments never have to put the token
// itself in the environment. With neither configured the guard is a
// pass-through, matching the open demo setup.
func RequireOperatorToken(expectedToken, expectedHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if expectedToken == "" && expectedHash == "" {
				next.ServeHTTP(w, r)
				return
			}
			token := r.Header.Get("X-Operator-Token")
			if !operatorTokenValid(token, expectedToken, expectedHash) {
				ctx := r.Context()
				logger.WarnContext(ctx, "operator token mismatch",
					"request_id", GetRequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"operator token required"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func operatorTokenValid(token, expectedToken, expectedHash string) bool {
	if token == "" {
		return false
	}
	if expectedHash != "" {
		return secrets.Verify(token, expectedHash) == nil
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) == 1
}
