package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithContext_FallsBackToGlobal(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("production", "debug", &buf)

	WithContext(context.Background()).Info().Msg("hello")
	assert.Contains(t, buf.String(), `"message":"hello"`)
	assert.Contains(t, buf.String(), `"service":"storefront"`)
}

func TestWithContext_UsesScopedLogger(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("production", "info", &buf)

	scoped := WithRequestID("abc123")
	ctx := NewContext(context.Background(), &scoped)
	WithContext(ctx).Info().Msg("scoped")

	assert.Contains(t, buf.String(), `"request_id":"abc123"`)
}

func TestOutbound_FailureIsWarn(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("production", "info", &buf)

	Outbound(context.Background(), "GET", "http://x/y", 0, time.Millisecond, errors.New("boom"))
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "boom")

	buf.Reset()
	Outbound(context.Background(), "GET", "http://x/y", 200, time.Millisecond, nil)
	assert.Empty(t, buf.String(), "2xx round trips are debug-level")
}
