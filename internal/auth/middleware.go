package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Thaththathirian/lifeboat-college/internal/httputil"
	"github.com/Thaththathirian/lifeboat-college/internal/logger"
)

type contextKey string

const (
	// TokenKey is the context key for the raw bearer token
	TokenKey contextKey = "token"
	// ClaimsKey is the context key for verified claims (jwt mode only)
	ClaimsKey contextKey = "claims"
)

const (
	ModePresence = "presence"
	ModeJWT      = "jwt"
)

type Config struct {
	Mode   string
	Secret string
	Issuer string
}

// Middleware requires an Authorization: Bearer header. In presence mode any
// non-empty token is accepted; in jwt mode the token must verify.
func Middleware(cfg Config, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				log.WarnContext(r.Context(), "no bearer token", "path", r.URL.Path)
				httputil.RespondWithError(w, http.StatusUnauthorized, "No authorization token provided")
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			if token == "" {
				log.WarnContext(r.Context(), "empty bearer token", "path", r.URL.Path)
				httputil.RespondWithError(w, http.StatusUnauthorized, "Invalid authorization token")
				return
			}

			ctx := context.WithValue(r.Context(), TokenKey, token)

			if cfg.Mode == ModeJWT {
				claims, err := ValidateToken(cfg.Secret, cfg.Issuer, token)
				if err != nil {
					log.WarnContext(r.Context(), "invalid token", "error", err)
					httputil.RespondWithError(w, http.StatusUnauthorized, "Invalid authorization token")
					return
				}
				ctx = context.WithValue(ctx, ClaimsKey, claims)
			}

			log.DebugContext(ctx, "bearer token accepted", "token", logger.Mask(token))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetToken extracts the bearer token from context
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

// GetClaims extracts verified claims from context
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}
