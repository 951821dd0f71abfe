package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/rentease/rentease-backend/pkg/enums"
	"github.com/rentease/rentease-backend/pkg/types"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "actor_role"
	ctxJTI    contextKey = "access_id"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// AccessIDFromContext returns the session id (jti) of the authenticated token.
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxJTI).(string); ok {
		return v
	}
	return ""
}

// ActorFromContext resolves the authenticated caller. ok is false when the request
// carries no valid identity.
func ActorFromContext(ctx context.Context) (types.Actor, bool) {
	userID, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil {
		return types.Actor{}, false
	}
	role, err := enums.ParseRole(RoleFromContext(ctx))
	if err != nil {
		return types.Actor{}, false
	}
	return types.Actor{UserID: userID, Role: role}, true
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithRole injects the actor role into the context.
func WithRole(ctx context.Context, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}

// WithActor seeds both identity values, mainly for handlers exercised without Auth.
func WithActor(ctx context.Context, actor types.Actor) context.Context {
	return WithRole(WithUserID(ctx, actor.UserID.String()), string(actor.Role))
}

// WithAccessID injects the token session id into the context.
func WithAccessID(ctx context.Context, accessID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxJTI, accessID)
}
