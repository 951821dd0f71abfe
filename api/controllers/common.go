package controllers

import (
	"net/http"

	"github.com/rentease/rentease-backend/api/middleware"
	"github.com/rentease/rentease-backend/api/validators"
	pkgerrors "github.com/rentease/rentease-backend/pkg/errors"
	"github.com/rentease/rentease-backend/pkg/pagination"
	"github.com/rentease/rentease-backend/pkg/types"
)

// tokenHeader mirrors the access token for clients that read headers instead of the body.
const tokenHeader = "X-RE-Token"

func actorFromRequest(r *http.Request) (types.Actor, error) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return types.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return actor, nil
}

func unavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" unavailable")
}

func pageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Limit: limit, Cursor: r.URL.Query().Get("cursor")}, nil
}
