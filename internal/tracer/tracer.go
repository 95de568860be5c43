// Package tracer implements the trace/span lifecycle engine: span state
// machine, ambient context propagation, hook dispatch and trace-scope
// finalization. Storage backends, serialization and rendering are external
// collaborators behind the public interfaces.
package tracer

import (
	"context"

	"github.com/zoobzio/clockz"

	"github.com/agenttrace-labs/agenttrace/internal/config"
	"github.com/agenttrace-labs/agenttrace/internal/tracectx"
	traceerrors "github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/errors"
	"github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/hooks"
	tracelog "github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/log"
	"github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/model"
	"github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/storage"
)

// Tracer bundles an immutable configuration, a storage collaborator, hooks
// and a clock. Construct one via New and share it freely: all mutable state
// lives in the per-trace graphs.
//
// Error-handling contract: configuration errors fail New immediately;
// runtime tracing-infrastructure errors (storage saves, hook panics) are
// recovered and downgraded to warn-level diagnostics so the host application
// is never affected by its tracing.
type Tracer struct {
	cfg   *config.Config
	store storage.Store
	hooks []hooks.Hook
	clock clockz.Clock
	log   tracelog.Logger
}

// New validates the configuration and builds a Tracer. A nil logger or
// storage is a configuration error; defaulting happens one layer up, in the
// public construction surface.
func New(log tracelog.Logger, cfg *config.Config, store storage.Store, hookList []hooks.Hook, clock clockz.Clock) (*Tracer, error) {
	if log == nil {
		return nil, traceerrors.NewConfigError("logger cannot be nil", nil)
	}
	if store == nil {
		return nil, traceerrors.NewConfigError("storage cannot be nil", nil)
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Tracer{
		cfg:   cfg,
		store: store,
		hooks: hookList,
		clock: clock,
		log:   log.With("component", "tracer"),
	}, nil
}

// Config returns the tracer's configuration. Callers must treat it as
// read-only.
func (t *Tracer) Config() *config.Config { return t.cfg }

// Storage returns the storage collaborator, for callers that want to read
// back persisted traces.
func (t *Tracer) Storage() storage.Store { return t.store }

// StartTrace opens a trace scope: a fresh graph becomes the ambient current
// trace and a root span of type "trace" is constructed and entered. The
// returned context carries the root span; ending the root span finalizes the
// trace and hands the graph to storage.
func (t *Tracer) StartTrace(ctx context.Context, name string, metadata map[string]any) (context.Context, *Span) {
	graph := model.NewTraceGraph(name, metadata)
	now := t.clock.Now().UTC()
	graph.StartTime = &now

	ctx = tracectx.WithTrace(ctx, graph)
	root := t.newSpan(graph, name, model.NodeTypeTrace, "")
	root.root = true
	ctx = root.start(ctx)
	return ctx, root
}

// StartSpan opens a span under the ambient trace in ctx, parented to the
// ambient current node. When no trace is active it returns ctx unchanged and
// a no-op span, so instrumented code behaves exactly as if tracing were
// absent.
func (t *Tracer) StartSpan(ctx context.Context, name, nodeType string) (context.Context, *Span) {
	graph, ok := tracectx.CurrentTrace(ctx)
	if !ok {
		return ctx, noopSpan
	}
	parentID, _ := tracectx.CurrentNodeID(ctx)
	span := t.newSpan(graph, name, nodeType, parentID)
	return span.start(ctx), span
}

// finalize closes out a trace scope after the root span has ended: stamp the
// graph's end time, attempt the storage save, then fire trace-completed
// hooks. A save failure is a diagnostic, never an error for the host; the
// in-memory graph keeps the captured data either way.
func (t *Tracer) finalize(graph *model.TraceGraph) {
	now := t.clock.Now().UTC()
	graph.EndTime = &now

	if err := t.store.Save(graph); err != nil {
		t.diag("failed to save trace %s, persistence abandoned: %v", graph.TraceID, err)
	}
	t.dispatchTraceCompleted(graph)
}

// diag emits a recovered-infrastructure-error diagnostic.
func (t *Tracer) diag(format string, args ...interface{}) {
	t.log.Warnf("agenttrace: "+format, args...)
}
