package events

import (
	"time"

	"github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/hooks"
	"github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/model"
)

// BusHook adapts the hook contract onto an event bus: each lifecycle
// callback becomes one emitted Event. Because Emit never blocks, attaching a
// BusHook keeps the span critical path free of consumer latency.
type BusHook struct {
	bus Bus
}

// NewBusHook creates a hook that publishes onto bus.
func NewBusHook(bus Bus) *BusHook {
	return &BusHook{bus: bus}
}

func (h *BusHook) OnNodeStarted(node *model.Node, traceID string) {
	h.bus.Emit(nodeEvent(NodeStarted, node, traceID))
}

func (h *BusHook) OnNodeCompleted(node *model.Node, traceID string) {
	h.bus.Emit(nodeEvent(NodeCompleted, node, traceID))
}

func (h *BusHook) OnNodeFailed(node *model.Node, traceID string) {
	h.bus.Emit(nodeEvent(NodeFailed, node, traceID))
}

func (h *BusHook) OnTraceCompleted(graph *model.TraceGraph) {
	h.bus.Emit(Event{
		Type:      TraceCompleted,
		Timestamp: time.Now().UTC(),
		TraceID:   graph.TraceID,
	})
}

func nodeEvent(eventType EventType, node *model.Node, traceID string) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		TraceID:   traceID,
		NodeID:    node.ID,
		NodeName:  node.Name,
		NodeType:  node.NodeType,
		Status:    string(node.Status),
		Error:     node.Error,
	}
}

var _ hooks.Hook = (*BusHook)(nil)
