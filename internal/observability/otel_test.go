package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketlens/marketlens/internal/log"
)

func TestSetup_DefaultEndpoint(t *testing.T) {
	cfg := Config{
		Environment: "test",
		ServiceName: "marketlens-test",
	}

	ctx := context.Background()
	shutdown, err := Setup(ctx, cfg, log.NewNop())

	// Exporter construction does not dial, so this succeeds without a
	// running collector.
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.NoError(t, shutdown(ctx))
}

func TestSetup_CustomEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{
		Endpoint:    "127.0.0.1:14318",
		ServiceName: "marketlens-test",
	}, log.NewNop())

	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
