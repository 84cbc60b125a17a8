package traces

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetupOTelSDK_NoEndpoint(t *testing.T) {
	shutdown, err := SetupOTelSDK(context.Background(), "fantasyee-test", "")
	require.NoError(t, err)
	assert.NotNil(t, otel.GetTextMapPropagator())
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetupOTelSDK_WithEndpoint(t *testing.T) {
	ctx := context.Background()
	shutdown, err := SetupOTelSDK(ctx, "fantasyee-test", "localhost:4318")
	require.NoError(t, err)

	_, span := otel.Tracer("fantasyee.test").Start(ctx, "noop")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	// Nothing listens on the endpoint; shutdown must still return.
	ctx, cancel := context.WithCancel(ctx)
	cancel()
	_ = shutdown(ctx)
}
