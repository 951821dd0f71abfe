package middleware

import (
	"net/http"

	"github.com/rentease/rentease-backend/api/responses"
	pkgAuth "github.com/rentease/rentease-backend/pkg/auth"
	"github.com/rentease/rentease-backend/pkg/auth/session"
	"github.com/rentease/rentease-backend/pkg/config"
	pkgerrors "github.com/rentease/rentease-backend/pkg/errors"
	"github.com/rentease/rentease-backend/pkg/logger"
)

// Auth validates the bearer token, confirms its session is still live and seeds the
// request context with the actor and access id. A nil verifier skips the session check.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := pkgAuth.BearerToken(r.Header.Get("Authorization"))
			if token == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.ID == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(ctx, claims.ID)
				switch {
				case err != nil:
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				case !ok:
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session revoked"))
					return
				}
			}

			ctx = WithAccessID(WithRole(WithUserID(ctx, claims.UserID.String()), string(claims.Role)), claims.ID)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    claims.UserID.String(),
					"actor_role": string(claims.Role),
				})
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
