package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rentease/rentease-backend/pkg/config"
	"github.com/rentease/rentease-backend/pkg/logger"
)

const (
	defaultNamespace  = "re"
	idempotencyPrefix = "idempotency"
	rateLimitPrefix   = "rate_limit"
	sessionPrefix     = "session"
	lockPrefix        = "lock"
	reminderPrefix    = "reminder"

	// TTL reports -1 for a key that exists without an expiry.
	noExpiry = -1 * time.Nanosecond
)

var errNotInitialized = errors.New("redis client not initialized")

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
	Incr(context.Context, string) *redis.IntCmd
	Expire(context.Context, string, time.Duration) *redis.BoolCmd
	TTL(context.Context, string) *redis.DurationCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// Client wraps the redis helpers behind sessions, idempotency, rate limits, cron
// locks and reminder dedupe. Every key lives under one namespace so several
// environments can share an instance.
type Client struct {
	store     cmdable
	raw       *redis.Client
	namespace string
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(context.Context) error
}

// IdempotencyStore exposes minimal operations used by idempotency helpers.
type IdempotencyStore interface {
	Get(context.Context, string) (string, error)
	SetNX(context.Context, string, any, time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
	Del(context.Context, ...string) error
}

// New bootstraps a Redis client with pooling and timeouts and verifies connectivity.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	client := &Client{store: raw, raw: raw, namespace: strings.TrimSpace(cfg.KeyPrefix)}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"redis_addr": opts.Addr,
			"redis_db":   opts.DB,
			"namespace":  client.ns(),
		}), "redis connection established")
	}
	return client, nil
}

func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	var opts *redis.Options
	switch {
	case cfg.URL != "":
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
		if opts.DB == 0 {
			opts.DB = cfg.DB
		}
	case cfg.Address != "":
		opts = &redis.Options{Addr: cfg.Address, Password: cfg.Password, DB: cfg.DB}
	default:
		return nil, errors.New("redis url or address is required")
	}

	// Values carried by the URL win over the env defaults.
	opts.PoolSize = firstPositive(opts.PoolSize, cfg.PoolSize)
	opts.MinIdleConns = firstPositive(opts.MinIdleConns, cfg.MinIdleConns)
	opts.DialTimeout = firstPositive(opts.DialTimeout, cfg.DialTimeout)
	opts.ReadTimeout = firstPositive(opts.ReadTimeout, cfg.ReadTimeout)
	opts.WriteTimeout = firstPositive(opts.WriteTimeout, cfg.WriteTimeout)
	return opts, nil
}

func firstPositive[T int | time.Duration](current, fallback T) T {
	if current > 0 {
		return current
	}
	return fallback
}

// Set stores a value with an optional TTL.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.store == nil {
		return errNotInitialized
	}
	return c.store.Set(ctx, key, value, ttl).Err()
}

// Get returns the string stored at key, or redis.Nil.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if c.store == nil {
		return "", errNotInitialized
	}
	return c.store.Get(ctx, key).Result()
}

func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if c.store == nil {
		return false, errNotInitialized
	}
	return c.store.SetNX(ctx, key, value, ttl).Result()
}

// IncrWithTTL increments key and makes sure it expires. The expiry is set on the
// first increment and repaired whenever the counter is found without one, so a crash
// between INCR and EXPIRE cannot leave a counter that never resets.
func (c *Client) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if c.store == nil {
		return 0, errNotInitialized
	}
	count, err := c.store.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if ttl <= 0 {
		return count, nil
	}
	if count > 1 {
		remaining, err := c.store.TTL(ctx, key).Result()
		if err != nil || remaining != noExpiry {
			return count, err
		}
	}
	if err := c.store.Expire(ctx, key, ttl).Err(); err != nil {
		return count, err
	}
	return count, nil
}

// FixedWindowAllow counts a hit against scope and reports whether it fits in limit.
func (c *Client) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	count, err := c.IncrWithTTL(ctx, c.RateLimitKey(scope), window)
	if err != nil {
		return false, 0, err
	}
	return count <= limit, count, nil
}

func (c *Client) IdempotencyKey(scope, id string) string {
	return c.buildKey(idempotencyPrefix, scope, id)
}

func (c *Client) RateLimitKey(scope string) string {
	return c.buildKey(rateLimitPrefix, scope)
}

func (c *Client) AccessSessionKey(accessID string) string {
	return c.buildKey(sessionPrefix, "access", accessID)
}

// LockKey names a distributed lock such as the cron worker's.
func (c *Client) LockKey(name string) string {
	return c.buildKey(lockPrefix, name)
}

// ReminderKey marks that a reminder of the given kind went out for an order.
func (c *Client) ReminderKey(kind, orderID string) string {
	return c.buildKey(reminderPrefix, kind, orderID)
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	if c.store == nil {
		return errNotInitialized
	}
	return c.store.Del(ctx, keys...).Err()
}

func (c *Client) Ping(ctx context.Context) error {
	if c.store == nil {
		return errNotInitialized
	}
	return c.store.Ping(ctx).Err()
}

// Close shuts down the underlying client if available.
func (c *Client) Close() error {
	if c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

func (c *Client) ns() string {
	if c.namespace == "" {
		return defaultNamespace
	}
	return c.namespace
}

func (c *Client) buildKey(parts ...string) string {
	clean := []string{c.ns()}
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			clean = append(clean, part)
		}
	}
	return strings.Join(clean, ":")
}
