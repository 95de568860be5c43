// Package hooks defines the lifecycle observer contract. Hooks run
// synchronously on the span's goroutine but off the critical persistence
// path: a panicking callback is recovered by the dispatcher, reported as a
// diagnostic, and never affects the trace's own outcome or the remaining
// hooks.
package hooks

import (
	"github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/model"
)

// Hook receives trace lifecycle events. Implement the subset you need by
// embedding Base, which provides no-op defaults for all four callbacks.
//
// The *model.Node passed to node callbacks is the live graph node; hooks
// must treat it as read-only and must not retain it past the callback.
type Hook interface {
	// OnNodeStarted fires after a span has entered and registered its node.
	// A parent's started event always precedes its children's.
	OnNodeStarted(node *model.Node, traceID string)

	// OnNodeCompleted fires after a span has exited without error. A child's
	// completion event always precedes its parent's.
	OnNodeCompleted(node *model.Node, traceID string)

	// OnNodeFailed fires after a span has exited with an error, once the
	// error has been captured onto the node.
	OnNodeFailed(node *model.Node, traceID string)

	// OnTraceCompleted fires exactly once per trace, after the root span has
	// exited and the storage save has been attempted.
	OnTraceCompleted(graph *model.TraceGraph)
}

// Base is an embeddable no-op implementation of Hook.
type Base struct{}

func (Base) OnNodeStarted(*model.Node, string)   {}
func (Base) OnNodeCompleted(*model.Node, string) {}
func (Base) OnNodeFailed(*model.Node, string)    {}
func (Base) OnTraceCompleted(*model.TraceGraph)  {}

var _ Hook = Base{}
