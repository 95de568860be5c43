package tracer

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/agenttrace-labs/agenttrace/internal/tracectx"
	"github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/model"
)

// Span is the active handle for one node: it exposes the mutation API from
// construction until End. A Span is bound to one logical flow of execution
// and must not be shared between concurrently running branches; concurrent
// branches each open their own child span over a forked context.
//
// The node state machine drives the span: pending at construction, running
// after start, terminal after End. The graph owns every node; the span's
// node pointer is a non-owning working reference, and parent resolution
// always goes through the graph's id-keyed map.
type Span struct {
	tracer *Tracer
	graph  *model.TraceGraph
	rec    *model.Node

	// ctx carries this span's node as the ambient current node. It is set
	// at start and handed to child work; the caller's own context remains
	// untouched, which is what restores the previous ambient node when
	// this span ends.
	ctx context.Context

	entered bool
	ended   bool
	// root marks the span whose End finalizes the whole trace scope.
	root bool
}

// noopSpan is returned when no trace is ambient: every operation is a no-op
// so instrumented code runs unchanged without an active trace.
var noopSpan = &Span{ended: true}

// newSpan constructs a pending span. The sequence number is drawn from the
// graph's shared counter here, at construction, so concurrent branches get a
// deterministic ordering key regardless of when they start running. The
// shared graph is not touched otherwise.
func (t *Tracer) newSpan(graph *model.TraceGraph, name, nodeType, parentID string) *Span {
	depth := 0
	if parentID != "" {
		if parent, ok := graph.Node(parentID); ok {
			depth = parent.Depth + 1
		}
	}
	node := model.NewNode(graph.NextSequenceNumber(), name, nodeType, parentID, depth)
	return &Span{
		tracer: t,
		graph:  graph,
		rec:    node,
	}
}

// start enters the span: the node becomes running, registers into the graph,
// gains its implicit causal edge from the parent, and is installed as the
// ambient current node in the returned context.
func (s *Span) start(ctx context.Context) context.Context {
	if s.entered || s.IsNoop() {
		return ctx
	}
	s.entered = true

	node := s.rec
	node.Status = model.StatusRunning
	now := s.tracer.clock.Now().UTC()
	node.StartTime = &now
	s.graph.AddNode(node)
	if node.ParentID != "" {
		if err := s.graph.AddEdge(model.Edge{SourceID: node.ParentID, TargetID: node.ID, EdgeType: model.EdgeCausedBy}); err != nil {
			s.tracer.diag("failed to add causal edge for node '%s': %v", node.Name, err)
		}
	}
	s.ctx = tracectx.WithNode(ctx, s.graph, node.ID)
	s.tracer.dispatchNodeStarted(node, s.graph.TraceID)
	return s.ctx
}

// Context returns the context carrying this span as the ambient current
// node. Work belonging to this span, including concurrent branches, should
// run under this context (or one derived from it).
func (s *Span) Context() context.Context {
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

// NodeID returns the id of the node this span records.
func (s *Span) NodeID() string {
	if s.IsNoop() {
		return ""
	}
	return s.rec.ID
}

// TraceID returns the id of the owning trace.
func (s *Span) TraceID() string {
	if s.IsNoop() {
		return ""
	}
	return s.graph.TraceID
}

// Graph returns the owning trace graph.
func (s *Span) Graph() *model.TraceGraph { return s.graph }

// IsNoop reports whether this span was opened without an ambient trace and
// records nothing.
func (s *Span) IsNoop() bool { return s.graph == nil }

// Input merges key-value pairs into the node's input data after sanitizing
// each value (redaction, JSON-safety, input size limit).
func (s *Span) Input(kv map[string]any) {
	if s.IsNoop() || !s.tracer.cfg.CapturePayloads() {
		return
	}
	node := s.rec
	if node.InputData == nil {
		node.InputData = make(map[string]any, len(kv))
	}
	for key, value := range kv {
		node.InputData[key] = sanitizeValue(value, s.tracer.cfg.RedactRegexps(), s.tracer.cfg.MaxInputSize)
	}
}

// Output merges key-value pairs into the node's output data after sanitizing
// each value (redaction, JSON-safety, output size limit).
func (s *Span) Output(kv map[string]any) {
	if s.IsNoop() || !s.tracer.cfg.CapturePayloads() {
		return
	}
	node := s.rec
	if node.OutputData == nil {
		node.OutputData = make(map[string]any, len(kv))
	}
	for key, value := range kv {
		node.OutputData[key] = sanitizeValue(value, s.tracer.cfg.RedactRegexps(), s.tracer.cfg.MaxOutputSize)
	}
}

// Meta merges key-value pairs into the node's metadata. Metadata is not
// subject to size limits, only to JSON-safety.
func (s *Span) Meta(kv map[string]any) {
	if s.IsNoop() {
		return
	}
	node := s.rec
	if node.Metadata == nil {
		node.Metadata = make(map[string]any, len(kv))
	}
	for key, value := range kv {
		node.Metadata[key] = safeValue(redactValue(value, s.tracer.cfg.RedactRegexps()))
	}
}

// Annotate appends a free-text message to the node's ordered annotation log.
// Annotations are never reordered or deduplicated.
func (s *Span) Annotate(message string) {
	if s.IsNoop() {
		return
	}
	s.rec.Annotations = append(s.rec.Annotations, message)
}

// SetStatus overrides the node's status. Setting StatusCancelled marks the
// span terminally cancelled: a later clean End leaves that status in place.
func (s *Span) SetStatus(status model.NodeStatus) {
	if s.IsNoop() {
		return
	}
	s.rec.Status = status
}

// Link appends an explicit typed edge from this span's node to the target
// span's node, independent of the implicit causal edges created at entry.
// Both spans must have entered (their nodes must be registered).
func (s *Span) Link(target *Span, edgeType model.EdgeType, label string) error {
	if s.IsNoop() || target.IsNoop() {
		return nil
	}
	return s.graph.AddEdge(model.Edge{
		SourceID: s.rec.ID,
		TargetID: target.rec.ID,
		EdgeType: edgeType,
		Label:    label,
	})
}

// Child constructs and enters a span nested under this span, regardless of
// the ambient current node. The returned context carries the child as the
// new ambient node.
func (s *Span) Child(name, nodeType string) (context.Context, *Span) {
	if s.IsNoop() {
		return context.Background(), noopSpan
	}
	child := s.tracer.newSpan(s.graph, name, nodeType, s.rec.ID)
	ctx := child.start(s.Context())
	return ctx, child
}

// End exits the span. A nil err completes the node (unless a terminal status
// such as cancelled was set explicitly); a non-nil err marks it failed and
// captures the error's message, type label and stack trace onto the node.
// The error itself stays with the caller: tracing never swallows it.
//
// Ending the root span additionally finalizes the trace scope: the graph's
// end time is stamped, the storage save is attempted, and trace-completed
// hooks fire. End is idempotent.
func (s *Span) End(err error) {
	if s.IsNoop() || s.ended || !s.entered {
		return
	}
	s.ended = true

	node := s.rec
	if err == nil {
		if node.Status == model.StatusRunning {
			node.Status = model.StatusCompleted
		}
	} else {
		node.Status = model.StatusFailed
		node.Error = err.Error()
		node.ErrorType = fmt.Sprintf("%T", err)
		node.ErrorTraceback = fmt.Sprintf("%s\n%s", err.Error(), debug.Stack())
	}
	now := s.tracer.clock.Now().UTC()
	node.EndTime = &now

	if err != nil {
		s.tracer.dispatchNodeFailed(node, s.graph.TraceID)
	} else {
		s.tracer.dispatchNodeCompleted(node, s.graph.TraceID)
	}

	if s.root {
		s.tracer.finalize(s.graph)
	}
}
