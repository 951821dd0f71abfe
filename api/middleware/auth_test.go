package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rentease/rentease-backend/pkg/auth"
	"github.com/rentease/rentease-backend/pkg/auth/session"
	"github.com/rentease/rentease-backend/pkg/config"
	"github.com/rentease/rentease-backend/pkg/enums"
	"github.com/rentease/rentease-backend/pkg/types"
)

func TestAuthRejectsMissingToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	handler := Auth(cfg, stubSessionVerifier{ok: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	handler := Auth(cfg, stubSessionVerifier{ok: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthAllowsValidToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}
	userID := uuid.New()
	token, accessID := mintTestToken(t, cfg, userID, enums.RoleVendor)

	var captured struct {
		actor    types.Actor
		ok       bool
		accessID string
	}
	handler := Auth(cfg, stubSessionVerifier{ok: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.actor, captured.ok = ActorFromContext(r.Context())
		captured.accessID = AccessIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !captured.ok {
		t.Fatal("expected actor in context")
	}
	if captured.actor.UserID != userID {
		t.Fatalf("expected user %s got %s", userID, captured.actor.UserID)
	}
	if captured.actor.Role != enums.RoleVendor {
		t.Fatalf("expected role vendor got %s", captured.actor.Role)
	}
	if captured.accessID != accessID {
		t.Fatalf("expected access id %s got %s", accessID, captured.accessID)
	}
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}
	token, _ := mintTestToken(t, cfg, uuid.New(), enums.RoleCustomer)
	handler := Auth(cfg, stubSessionVerifier{ok: false}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthSessionLookupFailure(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}
	token, _ := mintTestToken(t, cfg, uuid.New(), enums.RoleCustomer)
	handler := Auth(cfg, stubSessionVerifier{err: errors.New("redis down")}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestAuthWithoutVerifierTrustsToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}
	token, _ := mintTestToken(t, cfg, uuid.New(), enums.RoleAdmin)
	handler := Auth(cfg, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
}

func TestRequireRoles(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	tests := []struct {
		name   string
		guard  http.Handler
		role   enums.Role
		status int
	}{
		{"vendor on manage", RequireVendorOrAdmin(nil)(ok), enums.RoleVendor, http.StatusNoContent},
		{"admin on manage", RequireVendorOrAdmin(nil)(ok), enums.RoleAdmin, http.StatusNoContent},
		{"customer on manage", RequireVendorOrAdmin(nil)(ok), enums.RoleCustomer, http.StatusForbidden},
		{"vendor on admin", RequireAdmin(nil)(ok), enums.RoleVendor, http.StatusForbidden},
		{"admin on admin", RequireAdmin(nil)(ok), enums.RoleAdmin, http.StatusNoContent},
		{"missing role", RequireAdmin(nil)(ok), "", http.StatusForbidden},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithRole(req.Context(), string(tt.role)))
		resp := httptest.NewRecorder()
		tt.guard.ServeHTTP(resp, req)
		if resp.Code != tt.status {
			t.Fatalf("%s: expected %d got %d", tt.name, tt.status, resp.Code)
		}
	}
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, userID uuid.UUID, role enums.Role) (string, string) {
	t.Helper()
	accessID := session.NewAccessID()
	payload := auth.AccessTokenPayload{
		UserID: userID,
		Email:  "someone@example.com",
		Role:   role,
		JTI:    accessID,
	}
	token, err := auth.MintAccessToken(cfg, time.Now(), payload)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token, accessID
}

type stubSessionVerifier struct {
	ok  bool
	err error
}

func (s stubSessionVerifier) HasSession(ctx context.Context, accessID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.ok, nil
}
