package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rentease/rentease-backend/api/responses"
	pkgerrors "github.com/rentease/rentease-backend/pkg/errors"
	"github.com/rentease/rentease-backend/pkg/logger"
)

// WindowLimiter counts hits per scope inside a fixed window.
type WindowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// AuthRateLimitPolicy throttles one credential endpoint by client IP and by the
// email in the request body. A zero limit skips that dimension.
type AuthRateLimitPolicy struct {
	Name       string
	Window     time.Duration
	IPLimit    int
	EmailLimit int
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.Window > 0 && (p.IPLimit > 0 || p.EmailLimit > 0)
}

func (p AuthRateLimitPolicy) name() string {
	if name := strings.ToLower(strings.TrimSpace(p.Name)); name != "" {
		return name
	}
	return "auth"
}

type limitCheck struct {
	scope  string
	limit  int64
	window time.Duration
	fields map[string]any
}

// RateLimit applies a fixed-window request budget per authenticated user, falling
// back to the client IP. It must run after Auth.
func RateLimit(limiter WindowLimiter, limit int64, window time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || limit <= 0 || window <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			check := limitCheck{limit: limit, window: window}
			if userID := UserIDFromContext(r.Context()); userID != "" {
				check.scope = "api:user:" + userID
			} else {
				check.scope = "api:ip:" + clientIP(r)
			}
			if !enforce(w, r, limiter, logg, "api.rate_limit.blocked", check) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AuthRateLimit guards login and registration against credential stuffing. Emails are
// hashed before they reach the counter key or the logs.
func AuthRateLimit(policy AuthRateLimitPolicy, limiter WindowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if policy.IPLimit > 0 {
				ip := clientIP(r)
				check := limitCheck{
					scope:  "auth:" + policy.name() + ":ip:" + ip,
					limit:  int64(policy.IPLimit),
					window: policy.Window,
					fields: map[string]any{"policy": policy.name(), "ip": ip},
				}
				if !enforce(w, r, limiter, logg, "auth.rate_limit.blocked", check) {
					return
				}
			}

			if policy.EmailLimit > 0 {
				body, err := io.ReadAll(r.Body)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))

				if email := emailFromBody(body); email != "" {
					hash := hashValue(email)
					check := limitCheck{
						scope:  "auth:" + policy.name() + ":email:" + hash,
						limit:  int64(policy.EmailLimit),
						window: policy.Window,
						fields: map[string]any{"policy": policy.name(), "email_hash": hash},
					}
					if !enforce(w, r, limiter, logg, "auth.rate_limit.blocked", check) {
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// enforce counts the hit and writes the 429 itself when the budget is spent.
func enforce(w http.ResponseWriter, r *http.Request, limiter WindowLimiter, logg *logger.Logger, event string, check limitCheck) bool {
	ctx := r.Context()
	allowed, count, err := limiter.FixedWindowAllow(ctx, check.scope, check.limit, check.window)
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
		return false
	}
	if allowed {
		return true
	}
	if logg != nil {
		fields := map[string]any{
			"scope":          check.scope,
			"attempts":       count,
			"limit":          check.limit,
			"window_seconds": int(check.window.Seconds()),
		}
		for k, v := range check.fields {
			fields[k] = v
		}
		logg.Warn(logg.WithFields(ctx, fields), event)
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(check.window.Seconds())))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
	return false
}

func clientIP(r *http.Request) string {
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func emailFromBody(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(body.Email))
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
