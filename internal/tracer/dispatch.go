package tracer

import (
	"github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/model"
)

// Hook dispatch runs synchronously on the span's goroutine, so dispatch
// order mirrors nesting: a parent's started event precedes its children's,
// and each child's completion event precedes its parent's. A panicking
// callback is recovered and reported as one diagnostic per invocation; the
// remaining hooks still receive the event.

func (t *Tracer) dispatchNodeStarted(node *model.Node, traceID string) {
	for _, h := range t.hooks {
		t.safeHook("OnNodeStarted", func() { h.OnNodeStarted(node, traceID) })
	}
}

func (t *Tracer) dispatchNodeCompleted(node *model.Node, traceID string) {
	for _, h := range t.hooks {
		t.safeHook("OnNodeCompleted", func() { h.OnNodeCompleted(node, traceID) })
	}
}

func (t *Tracer) dispatchNodeFailed(node *model.Node, traceID string) {
	for _, h := range t.hooks {
		t.safeHook("OnNodeFailed", func() { h.OnNodeFailed(node, traceID) })
	}
}

func (t *Tracer) dispatchTraceCompleted(graph *model.TraceGraph) {
	for _, h := range t.hooks {
		t.safeHook("OnTraceCompleted", func() { h.OnTraceCompleted(graph) })
	}
}

func (t *Tracer) safeHook(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			t.diag("hook panic in %s: %v", name, r)
		}
	}()
	fn()
}
