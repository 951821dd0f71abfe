package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := context.Background()
	ctx = log.WithRequestID(ctx, "req-123")
	ctx = log.WithOrderID(ctx, "order-1")

	log.Error(ctx, "boom", errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-123"`)
	assert.Contains(t, out, `"order_id":"order-1"`)
	assert.Contains(t, out, `"stack"`)
}

func TestLoggerWarnStackToggle(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf, WarnStack: true})
	log.Warn(context.Background(), "warny")
	require.Contains(t, buf.String(), `"stack"`)

	buf.Reset()
	quiet := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})
	quiet.Warn(context.Background(), "warny")
	require.NotContains(t, buf.String(), `"stack"`)
}

func TestLoggerRespectsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("warn"), Output: buf})
	log.Info(context.Background(), "hidden")
	assert.Empty(t, buf.String())
}

func TestParseLevelDefaults(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("invalid"))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" DEBUG "))
}

func TestLoggerStampsEnvironment(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "api", Environment: "staging", Output: buf})

	ctx := log.WithInvoiceID(context.Background(), "inv-9")
	ctx = log.WithJob(ctx, "return_alerts")
	log.Info(ctx, "hello")

	out := buf.String()
	assert.Contains(t, out, `"env":"staging"`)
	assert.Contains(t, out, `"service":"api"`)
	assert.Contains(t, out, `"invoice_id":"inv-9"`)
	assert.Contains(t, out, `"job":"return_alerts"`)
}

func TestNopDiscards(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Error(context.Background(), "ignored", errors.New("x"))
	})
}
