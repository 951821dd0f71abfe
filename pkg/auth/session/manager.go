// Package session keeps refresh-token sessions in redis, keyed by the access token id.
package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/rentease/rentease-backend/pkg/config"
	redisclient "github.com/rentease/rentease-backend/pkg/redis"
)

const refreshTokenBytes = 32

var (
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	errMissingAccessID     = errors.New("access id is required")
)

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	AccessSessionKey(accessID string) string
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// Manager binds refresh tokens to an access id and the user that owns it. Only a
// digest of the refresh token is stored.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// NewManager constructs a session manager backed by Redis. The refresh lifetime must
// outlast the access token it renews.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	refreshTTL := cfg.RefreshTokenTTL()
	accessTTL := time.Duration(cfg.ExpirationMinutes) * time.Minute
	switch {
	case refreshTTL <= 0:
		return nil, errors.New("refresh token ttl must be positive")
	case refreshTTL <= accessTTL:
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", refreshTTL, accessTTL)
	}
	return &Manager{store: client, keyer: client, ttl: refreshTTL}, nil
}

// NewAccessID produces the identifier used as the JWT jti and the redis key suffix.
func NewAccessID() string {
	return uuid.NewString()
}

// Generate issues a refresh token for accessID and records it against userID.
func (m *Manager) Generate(ctx context.Context, userID uuid.UUID, accessID string) (string, error) {
	switch {
	case strings.TrimSpace(accessID) == "":
		return "", errMissingAccessID
	case userID == uuid.Nil:
		return "", errors.New("user id is required")
	}
	raw := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("read refresh token entropy: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)
	entry := record{userID: userID, digest: digest(token)}
	if err := m.store.Set(ctx, m.keyer.AccessSessionKey(accessID), entry.String(), m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Rotate consumes a refresh token and returns a fresh access id and refresh token.
// The consumed session is deleted before the new one is written so a token works once.
func (m *Manager) Rotate(ctx context.Context, userID uuid.UUID, oldAccessID, provided string) (string, string, error) {
	if strings.TrimSpace(oldAccessID) == "" || strings.TrimSpace(provided) == "" {
		return "", "", ErrInvalidRefreshToken
	}
	key := m.keyer.AccessSessionKey(oldAccessID)
	entry, err := m.load(ctx, key)
	if err != nil {
		return "", "", err
	}
	if entry.userID != userID || subtle.ConstantTimeCompare([]byte(entry.digest), []byte(digest(provided))) != 1 {
		return "", "", ErrInvalidRefreshToken
	}
	if err := m.store.Del(ctx, key); err != nil {
		return "", "", err
	}

	accessID := NewAccessID()
	token, err := m.Generate(ctx, userID, accessID)
	if err != nil {
		return "", "", err
	}
	return accessID, token, nil
}

// Revoke deletes the refresh mapping tied to the access identifier.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return errMissingAccessID
	}
	return m.store.Del(ctx, m.keyer.AccessSessionKey(accessID))
}

// HasSession reports whether the access id still has an active refresh session.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return false, errMissingAccessID
	}
	_, err := m.store.Get(ctx, m.keyer.AccessSessionKey(accessID))
	switch {
	case errors.Is(err, redislib.Nil):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

func (m *Manager) load(ctx context.Context, key string) (record, error) {
	value, err := m.store.Get(ctx, key)
	if errors.Is(err, redislib.Nil) {
		return record{}, ErrInvalidRefreshToken
	}
	if err != nil {
		return record{}, err
	}
	entry, ok := parseRecord(value)
	if !ok {
		return record{}, ErrInvalidRefreshToken
	}
	return entry, nil
}

// record is the redis value: "<user id>|<sha256 hex of refresh token>".
type record struct {
	userID uuid.UUID
	digest string
}

func (r record) String() string {
	return r.userID.String() + "|" + r.digest
}

func parseRecord(value string) (record, bool) {
	rawID, sum, found := strings.Cut(value, "|")
	if !found || sum == "" {
		return record{}, false
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return record{}, false
	}
	return record{userID: id, digest: sum}, true
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
