package middleware

import (
	"context"
	"net/http"
	"strings"

	"pushnotify/internal/util"

	"github.com/rs/zerolog"
)

// Injected key type to avoid context collisions
type contextKey string

const RoleContextKey = contextKey("role")

// WebhookAuthMiddleware checks the bearer JWT that Supabase attaches to
// database webhook calls. With an empty secret every request is let through.
// A non-empty requiredRole must match the token's role claim.
func WebhookAuthMiddleware(jwtSecret, requiredRole string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if jwtSecret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn().Msg("Authorization header missing")
				http.Error(w, "Authorization header missing", http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn().Msg("Invalid authorization header")
				http.Error(w, "Invalid authorization header", http.StatusUnauthorized)
				return
			}
			claims, err := util.ValidateJWT(strings.TrimSpace(parts[1]), jwtSecret)
			if err != nil {
				logger.Warn().Err(err).Msg("Invalid webhook token")
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}
			if requiredRole != "" && claims.Role != requiredRole {
				logger.Warn().
					Str("token_role", claims.Role).
					Str("required_role", requiredRole).
					Msg("Webhook token role does not match")
				http.Error(w, "Forbidden: token role not allowed", http.StatusForbidden)
				return
			}
			ctx := context.WithValue(r.Context(), RoleContextKey, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
