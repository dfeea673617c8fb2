package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestRequestIDContext(t *testing.T) {
	t.Run("stores and retrieves request ID", func(t *testing.T) {
		ctx := context.Background()
		ctx = WithRequestID(ctx, "req-123")

		result := RequestIDFromContext(ctx)
		assert.Equal(t, "req-123", result)
	})

	t.Run("returns empty string when not set", func(t *testing.T) {
		ctx := context.Background()
		result := RequestIDFromContext(ctx)
		assert.Equal(t, "", result)
	})
}

func TestEndpointContext(t *testing.T) {
	ctx := WithEndpoint(context.Background(), "/citar_texto")
	assert.Equal(t, "/citar_texto", EndpointFromContext(ctx))
	assert.Equal(t, "", EndpointFromContext(context.Background()))
}

func TestLoggerContext(t *testing.T) {
	var stored, fallback bytes.Buffer
	ctx := WithLogger(context.Background(), zerolog.New(&stored))

	fromCtx := LoggerFromContext(ctx, zerolog.New(&fallback))
	fromCtx.Info().Msg("stored")
	fallbackLogger := LoggerFromContext(context.Background(), zerolog.New(&fallback))
	fallbackLogger.Info().Msg("fallback")

	assert.Contains(t, stored.String(), `"message":"stored"`)
	assert.Contains(t, fallback.String(), `"message":"fallback"`)
	assert.NotContains(t, fallback.String(), "stored")
}

func TestRequestContextFull(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		rc := RequestContext{RequestID: "req-1", Endpoint: "/buscar"}
		ctx := WithRequestContextFull(context.Background(), rc)
		assert.Equal(t, rc, RequestContextFromContext(ctx))
	})

	t.Run("empty values are not stored", func(t *testing.T) {
		ctx := WithRequestContextFull(context.Background(), RequestContext{})
		assert.Nil(t, ctx.Value(requestIDKey))
		assert.Nil(t, ctx.Value(endpointKey))
	})
}
