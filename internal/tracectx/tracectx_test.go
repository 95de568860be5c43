package tracectx_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenttrace-labs/agenttrace/internal/tracectx"
	"github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/model"
)

func TestEmptyContext(t *testing.T) {
	_, ok := tracectx.CurrentTrace(context.Background())
	assert.False(t, ok)
	_, ok = tracectx.CurrentNodeID(context.Background())
	assert.False(t, ok)
	_, ok = tracectx.CurrentNode(context.Background())
	assert.False(t, ok)
}

func TestWithTraceInstallsTraceWithoutNode(t *testing.T) {
	graph := model.NewTraceGraph("ambient", nil)
	ctx := tracectx.WithTrace(context.Background(), graph)

	got, ok := tracectx.CurrentTrace(ctx)
	require.True(t, ok)
	assert.Same(t, graph, got)

	_, ok = tracectx.CurrentNodeID(ctx)
	assert.False(t, ok, "trace scope opens with no current node")
}

// TestDerivedContextsRestoreOnUnwind checks the push/restore behavior: a
// child derivation shadows the parent's ambient node, and the parent context
// still sees its own.
func TestDerivedContextsRestoreOnUnwind(t *testing.T) {
	graph := model.NewTraceGraph("stack", nil)
	parent := model.NewNode(0, "parent", model.NodeTypeCustom, "", 0)
	child := model.NewNode(1, "child", model.NodeTypeCustom, parent.ID, 1)
	graph.AddNode(parent)
	graph.AddNode(child)

	parentCtx := tracectx.WithNode(context.Background(), graph, parent.ID)
	childCtx := tracectx.WithNode(parentCtx, graph, child.ID)

	id, ok := tracectx.CurrentNodeID(childCtx)
	require.True(t, ok)
	assert.Equal(t, child.ID, id)

	// The parent context is untouched by the child derivation.
	id, ok = tracectx.CurrentNodeID(parentCtx)
	require.True(t, ok)
	assert.Equal(t, parent.ID, id)

	node, ok := tracectx.CurrentNode(childCtx)
	require.True(t, ok)
	assert.Same(t, child, node)
}

func TestCurrentNodeUnknownID(t *testing.T) {
	graph := model.NewTraceGraph("dangling", nil)
	ctx := tracectx.WithNode(context.Background(), graph, "never-registered")

	// The id is ambient but the node has not been registered yet.
	id, ok := tracectx.CurrentNodeID(ctx)
	require.True(t, ok)
	assert.Equal(t, "never-registered", id)

	_, ok = tracectx.CurrentNode(ctx)
	assert.False(t, ok)
}

func TestNilContext(t *testing.T) {
	_, ok := tracectx.CurrentTrace(nil)
	assert.False(t, ok)
}
