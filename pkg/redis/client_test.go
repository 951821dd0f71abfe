package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentease/rentease-backend/pkg/config"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	allowed, count, err := client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Fatalf("expected allowed on first request")
	}
	if count != 1 {
		t.Fatalf("expected counter 1 got %d", count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expected expire for first increment")
	}

	allowed, count, err = client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed || count != 2 {
		t.Fatalf("unexpected second call state allowed=%v count=%d", allowed, count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expire should not be set again")
	}

	allowed, _, err = client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatalf("expected limit reached")
	}
}

func TestIncrWithTTLRepairsMissingExpiry(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	// A counter left behind without an expiry.
	mock.incr["re:rate_limit:orphan"] = 4

	count, err := client.IncrWithTTL(ctx, "re:rate_limit:orphan", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 5, count)
	require.Len(t, mock.expireCalls, 1)
	assert.Equal(t, time.Minute, mock.expireCalls[0].ttl)
}

func TestNamespaceOverride(t *testing.T) {
	client := &Client{namespace: "re-staging"}
	assert.Equal(t, "re-staging:lock:return_alerts", client.LockKey("return_alerts"))
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	assert.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/3", DB: 1, PoolSize: 7})
	require.NoError(t, err)
	assert.Equal(t, 3, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 2})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
}

func TestSetNXOnlyFirstWriterWins(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	ok, err := client.SetNX(ctx, client.LockKey("cron"), "owner-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.SetNX(ctx, client.LockKey("cron"), "owner-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	owner, err := client.Get(ctx, client.LockKey("cron"))
	require.NoError(t, err)
	assert.Equal(t, "owner-a", owner)

	require.NoError(t, client.Del(ctx, client.LockKey("cron")))
	_, err = client.Get(ctx, client.LockKey("cron"))
	assert.ErrorIs(t, err, redis.Nil)
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	assert.Equal(t, "re:idempotency:scope:id", client.IdempotencyKey("scope", "id"))
	assert.Equal(t, "re:rate_limit:scope", client.RateLimitKey("scope"))
	assert.Equal(t, "re:session:access:abc", client.AccessSessionKey("abc"))
	assert.Equal(t, "re:lock:cron", client.LockKey("cron"))
	assert.Equal(t, "re:reminder:overdue:order-1", client.ReminderKey("overdue", "order-1"))
	assert.Equal(t, "re:idempotency:scope", client.IdempotencyKey("scope", ""), "empty parts are skipped")
}

func TestUninitializedClientErrors(t *testing.T) {
	client := &Client{}
	_, err := client.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.NoError(t, client.Close())
}

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	ttls        map[string]time.Duration
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		incr: make(map[string]int64),
		ttls: make(map[string]time.Duration),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	m.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) TTL(ctx context.Context, key string) *redis.DurationCmd {
	if ttl, ok := m.ttls[key]; ok {
		return redis.NewDurationResult(ttl, nil)
	}
	return redis.NewDurationResult(-1, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
