// Package tracectx carries the ambient "current trace / current node" state
// through context.Context. Deriving a child context installs a new value
// (the push), keeping the parent context around restores the previous one,
// and handing a context to a concurrently running branch forks the snapshot:
// contexts are immutable, so one branch's derivations can never leak into a
// sibling's.
package tracectx

import (
	"context"

	"github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/model"
)

// bundleKeyType is a private type for context keys to avoid collisions.
type bundleKeyType string

const bundleKey bundleKeyType = "agenttrace"

// bundle is the immutable ambient snapshot stored in a context. A fresh
// bundle is allocated on every push; existing bundles are never mutated.
type bundle struct {
	graph  *model.TraceGraph
	nodeID string
}

// WithTrace installs a trace as the ambient current trace with no current
// node. Used when a trace scope opens, before the root span enters.
func WithTrace(ctx context.Context, graph *model.TraceGraph) context.Context {
	return context.WithValue(ctx, bundleKey, &bundle{graph: graph})
}

// WithNode installs a node id as the ambient current node within its trace.
func WithNode(ctx context.Context, graph *model.TraceGraph, nodeID string) context.Context {
	return context.WithValue(ctx, bundleKey, &bundle{graph: graph, nodeID: nodeID})
}

// CurrentTrace returns the ambient trace, if any.
func CurrentTrace(ctx context.Context) (*model.TraceGraph, bool) {
	b := bundleFrom(ctx)
	if b == nil || b.graph == nil {
		return nil, false
	}
	return b.graph, true
}

// CurrentNodeID returns the id of the ambient current node, if any.
func CurrentNodeID(ctx context.Context) (string, bool) {
	b := bundleFrom(ctx)
	if b == nil || b.nodeID == "" {
		return "", false
	}
	return b.nodeID, true
}

// CurrentNode resolves the ambient current node through its owning graph's
// id-keyed node map.
func CurrentNode(ctx context.Context) (*model.Node, bool) {
	b := bundleFrom(ctx)
	if b == nil || b.graph == nil || b.nodeID == "" {
		return nil, false
	}
	return b.graph.Node(b.nodeID)
}

func bundleFrom(ctx context.Context) *bundle {
	if ctx == nil {
		return nil
	}
	b, _ := ctx.Value(bundleKey).(*bundle)
	return b
}
