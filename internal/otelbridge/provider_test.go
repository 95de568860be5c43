package otelbridge_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenttrace-labs/agenttrace/internal/logger"
	"github.com/agenttrace-labs/agenttrace/internal/otelbridge"
	"github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/model"
)

func TestNoOpProvider(t *testing.T) {
	log := logger.NewLogger("warn", "text", &bytes.Buffer{})
	provider := otelbridge.NewNoOpProvider(log)

	assert.True(t, provider.IsNoOp())
	assert.NotNil(t, provider.Tracer("test"))
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestNewProviderFromEnvDisabled(t *testing.T) {
	t.Setenv("OTEL_SDK_DISABLED", "true")
	log := logger.NewLogger("warn", "text", &bytes.Buffer{})

	provider, err := otelbridge.NewProviderFromEnv(context.Background(), log)
	require.NoError(t, err)
	assert.True(t, provider.IsNoOp())
}

func TestNewProviderFromEnvWithoutEndpoint(t *testing.T) {
	t.Setenv("OTEL_SDK_DISABLED", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_TRACES_EXPORTER", "")
	log := logger.NewLogger("warn", "text", &bytes.Buffer{})

	provider, err := otelbridge.NewProviderFromEnv(context.Background(), log)
	require.NoError(t, err)
	assert.True(t, provider.IsNoOp(), "no endpoint configured means no exporting")
}

// TestHookNoOpProviderIsInert checks the lifecycle hook does nothing when the
// provider has no SDK backend.
func TestHookNoOpProviderIsInert(t *testing.T) {
	log := logger.NewLogger("warn", "text", &bytes.Buffer{})
	hook := otelbridge.NewHook(otelbridge.NewNoOpProvider(log))

	graph := model.NewTraceGraph("silent", nil)
	node := model.NewNode(0, "step", model.NodeTypeCustom, "", 0)

	assert.NotPanics(t, func() {
		hook.OnNodeStarted(node, graph.TraceID)
		hook.OnNodeCompleted(node, graph.TraceID)
		hook.OnNodeFailed(node, graph.TraceID)
		hook.OnTraceCompleted(graph)
	})
}
