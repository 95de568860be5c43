package otelbridge

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/hooks"
	"github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/model"
)

const tracerName = "agenttrace"

// Hook mirrors the node lifecycle into OpenTelemetry spans. Each started node
// opens an OTel span parented on its causal parent's span; completion or
// failure ends it with the matching status. When the provider is NoOp every
// callback is a cheap no-op.
type Hook struct {
	provider *Provider
	tracer   oteltrace.Tracer

	mu   sync.Mutex
	live map[string]liveSpan
}

type liveSpan struct {
	ctx  context.Context
	span oteltrace.Span
}

func NewHook(provider *Provider) *Hook {
	return &Hook{
		provider: provider,
		tracer:   provider.Tracer(tracerName),
		live:     make(map[string]liveSpan),
	}
}

func (h *Hook) OnNodeStarted(node *model.Node, traceID string) {
	if h.provider.IsNoOp() {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	parentCtx := context.Background()
	if node.ParentID != "" {
		if parent, ok := h.live[h.key(traceID, node.ParentID)]; ok {
			parentCtx = parent.ctx
		}
	}
	ctx, span := h.tracer.Start(parentCtx, node.Name,
		oteltrace.WithAttributes(
			attribute.String("agenttrace.trace_id", traceID),
			attribute.String("agenttrace.node_id", node.ID),
			attribute.String("agenttrace.node_type", node.NodeType),
			attribute.Int("agenttrace.sequence_number", node.SequenceNumber),
		),
	)
	h.live[h.key(traceID, node.ID)] = liveSpan{ctx: ctx, span: span}
}

func (h *Hook) OnNodeCompleted(node *model.Node, traceID string) {
	h.endNode(node, traceID, nil)
}

func (h *Hook) OnNodeFailed(node *model.Node, traceID string) {
	h.endNode(node, traceID, &node.Error)
}

// OnTraceCompleted ends any spans left open by nodes that never reached a
// terminal status, so exporters are not kept waiting on them.
func (h *Hook) OnTraceCompleted(graph *model.TraceGraph) {
	if h.provider.IsNoOp() {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	prefix := graph.TraceID + "/"
	for key, ls := range h.live {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			ls.span.End()
			delete(h.live, key)
		}
	}
}

func (h *Hook) endNode(node *model.Node, traceID string, errMsg *string) {
	if h.provider.IsNoOp() {
		return
	}
	h.mu.Lock()
	ls, ok := h.live[h.key(traceID, node.ID)]
	if ok {
		delete(h.live, h.key(traceID, node.ID))
	}
	h.mu.Unlock()
	if !ok {
		return
	}
	if errMsg != nil {
		ls.span.SetStatus(codes.Error, *errMsg)
	} else {
		ls.span.SetStatus(codes.Ok, "")
	}
	ls.span.SetAttributes(attribute.String("agenttrace.status", string(node.Status)))
	ls.span.End()
}

func (h *Hook) key(traceID, nodeID string) string {
	return traceID + "/" + nodeID
}

var _ hooks.Hook = (*Hook)(nil)
