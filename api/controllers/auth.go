package controllers

import (
	"net/http"
	"strings"

	"github.com/rentease/rentease-backend/api/middleware"
	"github.com/rentease/rentease-backend/api/responses"
	"github.com/rentease/rentease-backend/api/validators"
	"github.com/rentease/rentease-backend/internal/auth"
	pkgAuth "github.com/rentease/rentease-backend/pkg/auth"
	pkgerrors "github.com/rentease/rentease-backend/pkg/errors"
	"github.com/rentease/rentease-backend/pkg/logger"
)

// AuthLogin wires the login endpoint into the HTTP layer.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("auth service"))
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set(tokenHeader, result.AccessToken)
		responses.WriteSuccess(w, result)
	}
}

// AuthRegister creates a customer or vendor account and signs it in.
func AuthRegister(reg auth.RegisterService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reg == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("auth service"))
			return
		}

		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := reg.Register(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set(tokenHeader, result.AccessToken)
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

type refreshRequest struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthRefresh rotates the refresh token. The expired access token may arrive in the
// body or as the bearer credential.
func AuthRefresh(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("auth service"))
			return
		}

		var body refreshRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		access := strings.TrimSpace(body.AccessToken)
		if access == "" {
			access = pkgAuth.BearerToken(r.Header.Get("Authorization"))
		}
		if access == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		result, err := svc.Refresh(r.Context(), auth.RefreshRequest{AccessToken: access, RefreshToken: body.RefreshToken})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set(tokenHeader, result.AccessToken)
		responses.WriteSuccess(w, result)
	}
}

// AuthLogout revokes the session behind the presented access token.
func AuthLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("auth service"))
			return
		}

		accessID := middleware.AccessIDFromContext(r.Context())
		if accessID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
			return
		}
		if err := svc.Logout(r.Context(), accessID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}
