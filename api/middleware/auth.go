package middleware

import (
	"net/http"
	"strings"

	"github.com/verdantlabs/farmpilot-backend/api/responses"
	pkgAuth "github.com/verdantlabs/farmpilot-backend/pkg/auth"
	"github.com/verdantlabs/farmpilot-backend/pkg/config"
	pkgerrors "github.com/verdantlabs/farmpilot-backend/pkg/errors"
	"github.com/verdantlabs/farmpilot-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// account identifier carried in the claims.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithAccountID(r.Context(), claims.AccountID)
			if logg != nil {
				ctx = logg.WithAccountID(ctx, claims.AccountID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
