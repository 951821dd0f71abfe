package controllers

import (
	"net/http"

	"github.com/rentease/rentease-backend/api/responses"
	"github.com/rentease/rentease-backend/api/validators"
	"github.com/rentease/rentease-backend/internal/checkout"
	"github.com/rentease/rentease-backend/pkg/logger"
)

// Checkout converts the caller's draft cart into one rental order per vendor.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("checkout service"))
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkout.CheckoutInput
		if err := validators.DecodeOptionalJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Execute(r.Context(), actor.UserID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
