package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/rentease/rentease-backend/api/responses"
	"github.com/rentease/rentease-backend/pkg/config"
	pkgerrors "github.com/rentease/rentease-backend/pkg/errors"
	"github.com/rentease/rentease-backend/pkg/logger"
	pkgredis "github.com/rentease/rentease-backend/pkg/redis"
)

const (
	IdempotencyKeyHeader     = "Idempotency-Key"
	IdempotentReplayedHeader = "Idempotent-Replayed"
	defaultIdempotencyTTL    = 24 * time.Hour
	criticalIdempotencyTTL   = 7 * 24 * time.Hour
)

// idempotentRoute is a POST route whose responses are memoised. "*" in path
// matches exactly one segment, either a chi placeholder or a concrete id.
type idempotentRoute struct {
	path     string
	critical bool
}

var idempotentRoutes = []idempotentRoute{
	{path: "/api/v1/auth/register"},
	{path: "/api/v1/cart/lines"},
	{path: "/api/v1/manage/products"},
	{path: "/api/v1/manage/orders/*/pickup"},
	{path: "/api/v1/manage/orders/*/return"},
	{path: "/api/v1/manage/invoices/*/email"},
	{path: "/api/v1/checkout", critical: true},
	{path: "/api/v1/invoices/*/pay", critical: true},
	{path: "/api/v1/manage/invoices/*/payments", critical: true},
}

func (r idempotentRoute) matches(pattern string) bool {
	want := strings.Split(r.path, "/")
	got := strings.Split(pattern, "/")
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i] != "*" && want[i] != got[i] {
			return false
		}
	}
	return true
}

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
	RequestHash string `json:"request_hash"`
}

// Idempotency replays the stored response for a repeated Idempotency-Key on the
// routes in idempotentRoutes. Keys are scoped per user, method and path. Requests
// without the header run normally and 5xx responses are never stored.
func Idempotency(store pkgredis.IdempotencyStore, ttls config.IdempotencyConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			clientKey := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
			ttl, tracked := routeTTL(r.Method, routePattern(r), ttls)
			if store == nil || clientKey == "" || !tracked {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			fingerprint := sha256.Sum256(body)
			requestHash := hex.EncodeToString(fingerprint[:])
			key := store.IdempotencyKey(strings.Join([]string{UserIDFromContext(ctx), r.Method, r.URL.Path}, "|"), clientKey)

			prior, err := lookup(r, store, key)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if prior != nil {
				if prior.RequestHash != requestHash {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
					return
				}
				replay(w, prior)
				return
			}

			capture := &responseCapture{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(capture, r)
			if capture.status >= http.StatusInternalServerError {
				return
			}

			payload, err := json.Marshal(storedResponse{
				Status:      capture.status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
				RequestHash: requestHash,
			})
			if err == nil {
				_, err = store.SetNX(ctx, key, string(payload), ttl)
			}
			if err != nil && logg != nil {
				logg.Error(ctx, "idempotency.store_failed", err)
			}
		})
	}
}

func lookup(r *http.Request, store pkgredis.IdempotencyStore, key string) (*storedResponse, error) {
	raw, err := store.Get(r.Context(), key)
	switch {
	case errors.Is(err, redis.Nil) || (err == nil && raw == ""):
		return nil, nil
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency")
	}
	var prior storedResponse
	if err := json.Unmarshal([]byte(raw), &prior); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record")
	}
	return &prior, nil
}

func replay(w http.ResponseWriter, prior *storedResponse) {
	if prior.ContentType != "" {
		w.Header().Set("Content-Type", prior.ContentType)
	}
	w.Header().Set(IdempotentReplayedHeader, "true")
	w.WriteHeader(prior.Status)
	_, _ = w.Write(prior.Body)
}

// routePattern prefers the chi pattern. Inside a mounted subrouter the pattern is
// still partial ("/api/v1/manage/*") so the raw path is used instead.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" && !strings.HasSuffix(pattern, "*") {
			return pattern
		}
	}
	return r.URL.Path
}

func routeTTL(method, pattern string, ttls config.IdempotencyConfig) (time.Duration, bool) {
	if method != http.MethodPost || pattern == "" {
		return 0, false
	}
	for _, route := range idempotentRoutes {
		if !route.matches(pattern) {
			continue
		}
		if route.critical {
			return ttlOr(ttls.CheckoutTTL, criticalIdempotencyTTL), true
		}
		return ttlOr(ttls.DefaultTTL, defaultIdempotencyTTL), true
	}
	return 0, false
}

func ttlOr(configured, fallback time.Duration) time.Duration {
	if configured > 0 {
		return configured
	}
	return fallback
}

type responseCapture struct {
	http.ResponseWriter
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

func (c *responseCapture) WriteHeader(code int) {
	if !c.wroteHeader {
		c.status = code
		c.wroteHeader = true
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	c.wroteHeader = true
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}
