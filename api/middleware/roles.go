package middleware

import (
	"net/http"

	"github.com/rentease/rentease-backend/api/responses"
	"github.com/rentease/rentease-backend/pkg/enums"
	pkgerrors "github.com/rentease/rentease-backend/pkg/errors"
	"github.com/rentease/rentease-backend/pkg/logger"
)

// RequireRole admits requests whose role satisfies allow.
func RequireRole(allow func(enums.Role) bool, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, err := enums.ParseRole(RoleFromContext(r.Context()))
			if err != nil || !allow(role) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireVendorOrAdmin guards the management surface.
func RequireVendorOrAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return RequireRole(enums.Role.IsVendorOrAdmin, logg)
}

func RequireAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return RequireRole(enums.Role.IsAdmin, logg)
}
