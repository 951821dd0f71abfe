package controllers

import (
	"net/http"

	"github.com/rentease/rentease-backend/api/responses"
	"github.com/rentease/rentease-backend/internal/reports"
	"github.com/rentease/rentease-backend/pkg/logger"
)

// Dashboard reports vendor-scoped figures, or marketplace-wide ones for admins.
func Dashboard(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("reports service"))
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Dashboard(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
