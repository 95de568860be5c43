// Package model defines the trace graph data entities shared by every
// agenttrace component: Node, Edge, and the owning TraceGraph container.
package model

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	traceerrors "github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/errors"
)

// CurrentSchemaVersion is the wire schema version written by this library.
// Loaded traces with a different version are parsed tolerantly; the mismatch
// is reported to the caller as a diagnostic, not an error.
const CurrentSchemaVersion = "0.1.0"

// NodeStatus represents the lifecycle state of a recorded execution step.
type NodeStatus string

const (
	StatusPending   NodeStatus = "pending"
	StatusRunning   NodeStatus = "running"
	StatusCompleted NodeStatus = "completed"
	StatusFailed    NodeStatus = "failed"
	StatusCancelled NodeStatus = "cancelled"
)

// Terminal reports whether the status is one of the three end states.
// A node never leaves a terminal status once it has entered one.
func (s NodeStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Well-known node type labels. NodeType is a free-form string; these cover
// the common shapes of agent execution steps.
const (
	NodeTypeLLMCall        = "llm_call"
	NodeTypeToolCall       = "tool_call"
	NodeTypeDecision       = "decision"
	NodeTypeRetrieval      = "retrieval"
	NodeTypeTransformation = "transformation"
	NodeTypeValidation     = "validation"
	NodeTypeHumanInput     = "human_input"
	NodeTypeSubAgent       = "sub_agent"
	NodeTypeCustom         = "custom"
	NodeTypeTrace          = "trace"
)

// EdgeType categorizes the directed relationship an Edge records.
type EdgeType string

const (
	EdgeCausedBy     EdgeType = "caused_by"
	EdgeDataFlow     EdgeType = "data_flow"
	EdgeBranchedFrom EdgeType = "branched_from"
	EdgeRetryOf      EdgeType = "retry_of"
	EdgeFallbackOf   EdgeType = "fallback_of"
)

// Node is a single recorded unit of execution in a trace. Nodes are owned
// exclusively by their TraceGraph; spans and consumers hold node ids, never
// owning references.
type Node struct {
	ID             string         `json:"id"`
	SequenceNumber int            `json:"sequence_number"`
	Name           string         `json:"name"`
	NodeType       string         `json:"node_type"`
	Status         NodeStatus     `json:"status"`
	ParentID       string         `json:"parent_id,omitempty"`
	Depth          int            `json:"depth"`
	StartTime      *time.Time     `json:"start_time,omitempty"`
	EndTime        *time.Time     `json:"end_time,omitempty"`
	InputData      map[string]any `json:"input_data,omitempty"`
	OutputData     map[string]any `json:"output_data,omitempty"`
	Annotations    []string       `json:"annotations,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Error          string         `json:"error,omitempty"`
	ErrorType      string         `json:"error_type,omitempty"`
	ErrorTraceback string         `json:"error_traceback,omitempty"`
}

// NewNode constructs a pending node with a fresh id. The sequence number must
// be drawn from the owning graph's counter at construction time.
func NewNode(sequenceNumber int, name, nodeType, parentID string, depth int) *Node {
	return &Node{
		ID:             uuid.NewString(),
		SequenceNumber: sequenceNumber,
		Name:           name,
		NodeType:       nodeType,
		Status:         StatusPending,
		ParentID:       parentID,
		Depth:          depth,
	}
}

// DurationMS returns the node's wall-clock duration in milliseconds.
// The second return value is false until both timestamps are set.
func (n *Node) DurationMS() (float64, bool) {
	if n.StartTime == nil || n.EndTime == nil {
		return 0, false
	}
	return float64(n.EndTime.Sub(*n.StartTime)) / float64(time.Millisecond), true
}

// Edge is a directed, typed relationship between two nodes of the same graph.
type Edge struct {
	SourceID string         `json:"source_id"`
	TargetID string         `json:"target_id"`
	EdgeType EdgeType       `json:"edge_type"`
	Label    string         `json:"label,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// TraceGraph is the complete record of one trace. It exclusively owns all
// nodes (keyed by id) and the append-only edge list, and carries the shared
// monotonic sequence counter spans draw from at construction.
//
// AddNode, AddEdge and NextSequenceNumber are safe for concurrent use; the
// remaining accessors assume the graph is no longer being mutated.
type TraceGraph struct {
	SchemaVersion string           `json:"schema_version"`
	TraceID       string           `json:"trace_id"`
	Name          string           `json:"name"`
	Nodes         map[string]*Node `json:"nodes"`
	Edges         []Edge           `json:"edges"`
	StartTime     *time.Time       `json:"start_time,omitempty"`
	EndTime       *time.Time       `json:"end_time,omitempty"`
	Metadata      map[string]any   `json:"metadata,omitempty"`

	mu  sync.Mutex
	seq int
}

// NewTraceGraph creates an empty graph with a fresh trace id and the current
// schema version.
func NewTraceGraph(name string, metadata map[string]any) *TraceGraph {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &TraceGraph{
		SchemaVersion: CurrentSchemaVersion,
		TraceID:       uuid.NewString(),
		Name:          name,
		Nodes:         make(map[string]*Node),
		Metadata:      metadata,
	}
}

// NextSequenceNumber atomically draws the next value from the shared counter.
// Exactly one increment happens per constructed span; values are pairwise
// distinct and reflect construction order, not completion order.
func (g *TraceGraph) NextSequenceNumber() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	value := g.seq
	g.seq++
	return value
}

// AddNode registers a node into the graph. Each node is added exactly once,
// at span entry.
func (g *TraceGraph) AddNode(node *Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Nodes[node.ID] = node
}

// AddEdge appends an edge after checking that both endpoints name nodes
// already present in this graph. Unknown endpoints are a validation error.
func (g *TraceGraph) AddEdge(edge Edge) error {
	if edge.EdgeType == "" {
		edge.EdgeType = EdgeCausedBy
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.Nodes[edge.SourceID]; !ok {
		return traceerrors.NewValidationError(fmt.Sprintf("unknown edge source node id: %s", edge.SourceID), nil)
	}
	if _, ok := g.Nodes[edge.TargetID]; !ok {
		return traceerrors.NewValidationError(fmt.Sprintf("unknown edge target node id: %s", edge.TargetID), nil)
	}
	g.Edges = append(g.Edges, edge)
	return nil
}

// Node looks up a node by id.
func (g *TraceGraph) Node(id string) (*Node, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	node, ok := g.Nodes[id]
	return node, ok
}

// NodeCount returns the number of registered nodes.
func (g *TraceGraph) NodeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Nodes)
}

// RootNodes returns every node without a parent, i.e. depth-0 nodes.
func (g *TraceGraph) RootNodes() []*Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	var roots []*Node
	for _, node := range g.Nodes {
		if node.ParentID == "" {
			roots = append(roots, node)
		}
	}
	return roots
}

// FailedNodes returns every node whose terminal status is failed.
func (g *TraceGraph) FailedNodes() []*Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	var failed []*Node
	for _, node := range g.Nodes {
		if node.Status == StatusFailed {
			failed = append(failed, node)
		}
	}
	return failed
}

// DurationMS returns the trace's wall-clock duration in milliseconds, or
// false while the trace is still open.
func (g *TraceGraph) DurationMS() (float64, bool) {
	if g.StartTime == nil || g.EndTime == nil {
		return 0, false
	}
	return float64(g.EndTime.Sub(*g.StartTime)) / float64(time.Millisecond), true
}

// Validate checks the graph's referential invariants. It is called after
// deserialization, when a graph is reconstructed outside the span lifecycle.
func (g *TraceGraph) Validate() error {
	for i := range g.Edges {
		edge := &g.Edges[i]
		if _, ok := g.Nodes[edge.SourceID]; !ok {
			return traceerrors.NewValidationError(fmt.Sprintf("edge source_id not found in nodes: %s", edge.SourceID), nil)
		}
		if _, ok := g.Nodes[edge.TargetID]; !ok {
			return traceerrors.NewValidationError(fmt.Sprintf("edge target_id not found in nodes: %s", edge.TargetID), nil)
		}
	}
	for id, node := range g.Nodes {
		if node.ParentID == "" {
			continue
		}
		parent, ok := g.Nodes[node.ParentID]
		if !ok {
			return traceerrors.NewValidationError(fmt.Sprintf("node %s references unknown parent %s", id, node.ParentID), nil)
		}
		if node.Depth != parent.Depth+1 {
			return traceerrors.NewValidationError(fmt.Sprintf("node %s depth %d does not follow parent depth %d", id, node.Depth, parent.Depth), nil)
		}
	}
	return nil
}

// RestoreSequenceCounter re-seeds the internal counter after reconstruction
// so that further spans (if any) keep drawing distinct values.
func (g *TraceGraph) RestoreSequenceCounter() {
	g.mu.Lock()
	defer g.mu.Unlock()
	next := 0
	for _, node := range g.Nodes {
		if node.SequenceNumber >= next {
			next = node.SequenceNumber + 1
		}
	}
	g.seq = next
}
