package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/model"
)

// Verbosity controls how much node detail the tree renderer emits.
type Verbosity string

const (
	VerbosityMinimal  Verbosity = "minimal"
	VerbosityStandard Verbosity = "standard"
	VerbosityFull     Verbosity = "full"
)

// ParseVerbosity validates a verbosity flag value.
func ParseVerbosity(s string) (Verbosity, error) {
	switch Verbosity(s) {
	case VerbosityMinimal, VerbosityStandard, VerbosityFull:
		return Verbosity(s), nil
	default:
		return "", fmt.Errorf("invalid verbosity %q (want minimal, standard or full)", s)
	}
}

// RenderTree renders the trace as an indented tree. Siblings are ordered by
// sequence number, so the output reflects causal entry order even when the
// trace was recorded concurrently.
func RenderTree(graph *model.TraceGraph, verbosity Verbosity) string {
	var b strings.Builder
	b.WriteString(traceLabel(graph))
	b.WriteString("\n")

	children := childrenByParent(graph)
	roots := children[""]
	for i, root := range roots {
		writeBranch(&b, root, children, verbosity, "", i == len(roots)-1)
	}
	return b.String()
}

func traceLabel(graph *model.TraceGraph) string {
	duration := "ongoing"
	if ms, ok := graph.DurationMS(); ok {
		duration = fmt.Sprintf("%.0fms", ms)
	}
	name := graph.Name
	if name == "" {
		name = graph.TraceID
	}
	return fmt.Sprintf("Trace: %s (%s)", name, duration)
}

func childrenByParent(graph *model.TraceGraph) map[string][]*model.Node {
	children := make(map[string][]*model.Node)
	for _, node := range graph.Nodes {
		children[node.ParentID] = append(children[node.ParentID], node)
	}
	for _, siblings := range children {
		sort.Slice(siblings, func(i, j int) bool {
			return siblings[i].SequenceNumber < siblings[j].SequenceNumber
		})
	}
	return children
}

func writeBranch(b *strings.Builder, node *model.Node, children map[string][]*model.Node, verbosity Verbosity, prefix string, last bool) {
	connector := "├── "
	childPrefix := prefix + "│   "
	if last {
		connector = "└── "
		childPrefix = prefix + "    "
	}

	duration := "running"
	if ms, ok := node.DurationMS(); ok {
		duration = fmt.Sprintf("%.0fms", ms)
	}
	fmt.Fprintf(b, "%s%s[%s] %s (%s) %s\n", prefix, connector, node.NodeType, node.Name, duration, statusGlyph(node.Status))

	var details []string
	if verbosity == VerbosityFull {
		if len(node.InputData) > 0 {
			details = append(details, fmt.Sprintf("input: %v", node.InputData))
		}
		if len(node.OutputData) > 0 {
			details = append(details, fmt.Sprintf("output: %v", node.OutputData))
		}
		if len(node.Metadata) > 0 {
			details = append(details, fmt.Sprintf("metadata: %v", node.Metadata))
		}
		for _, annotation := range node.Annotations {
			details = append(details, fmt.Sprintf("annotation: %q", annotation))
		}
		if node.Error != "" {
			details = append(details, fmt.Sprintf("error: %s: %s", node.ErrorType, node.Error))
		}
	}

	kids := children[node.ID]
	for i, detail := range details {
		detailLast := i == len(details)-1 && len(kids) == 0
		detailConnector := "├── "
		if detailLast {
			detailConnector = "└── "
		}
		fmt.Fprintf(b, "%s%s%s\n", childPrefix, detailConnector, detail)
	}
	for i, child := range kids {
		writeBranch(b, child, children, verbosity, childPrefix, i == len(kids)-1)
	}
}

func statusGlyph(status model.NodeStatus) string {
	switch status {
	case model.StatusCompleted:
		return "✓"
	case model.StatusFailed:
		return "✗"
	case model.StatusCancelled:
		return "⊘"
	case model.StatusRunning:
		return "…"
	default:
		return "·"
	}
}
