package render

import (
	"fmt"
	"io"
	"sort"

	"github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/model"
)

// Summary is the machine-readable digest of a trace emitted by `inspect --json`.
type Summary struct {
	TraceID        string         `json:"trace_id"`
	Name           string         `json:"name"`
	SchemaVersion  string         `json:"schema_version"`
	DurationMS     *float64       `json:"duration_ms"`
	NodeCount      int            `json:"node_count"`
	EdgeCount      int            `json:"edge_count"`
	StatusCounts   map[string]int `json:"status_counts"`
	NodeTypeCounts map[string]int `json:"node_type_counts"`
}

// BuildSummary computes a Summary from a trace graph. StatusCounts always
// carries every known status, including zeroes, so consumers can rely on the
// key set.
func BuildSummary(graph *model.TraceGraph) Summary {
	statusCounts := map[string]int{
		string(model.StatusPending):   0,
		string(model.StatusRunning):   0,
		string(model.StatusCompleted): 0,
		string(model.StatusFailed):    0,
		string(model.StatusCancelled): 0,
	}
	typeCounts := make(map[string]int)
	for _, node := range graph.Nodes {
		statusCounts[string(node.Status)]++
		typeCounts[node.NodeType]++
	}

	var durationMS *float64
	if ms, ok := graph.DurationMS(); ok {
		durationMS = &ms
	}

	return Summary{
		TraceID:        graph.TraceID,
		Name:           graph.Name,
		SchemaVersion:  graph.SchemaVersion,
		DurationMS:     durationMS,
		NodeCount:      graph.NodeCount(),
		EdgeCount:      len(graph.Edges),
		StatusCounts:   statusCounts,
		NodeTypeCounts: typeCounts,
	}
}

// WriteSummaryText prints the human-readable header block used before the tree.
func WriteSummaryText(w io.Writer, graph *model.TraceGraph) {
	summary := BuildSummary(graph)

	name := summary.Name
	if name == "" {
		name = "<unnamed>"
	}
	duration := "unknown"
	if summary.DurationMS != nil {
		duration = fmt.Sprintf("%.0fms", *summary.DurationMS)
	}

	fmt.Fprintf(w, "Trace ID: %s\n", summary.TraceID)
	fmt.Fprintf(w, "Name: %s\n", name)
	fmt.Fprintf(w, "Schema: %s\n", summary.SchemaVersion)
	fmt.Fprintf(w, "Duration: %s\n", duration)
	fmt.Fprintf(w, "Nodes: %d\n", summary.NodeCount)
	fmt.Fprintf(w, "Edges: %d\n", summary.EdgeCount)

	fmt.Fprintln(w, "Status counts:")
	for _, status := range sortedKeys(summary.StatusCounts) {
		fmt.Fprintf(w, "  - %s: %d\n", status, summary.StatusCounts[status])
	}
	fmt.Fprintln(w, "Node type counts:")
	for _, nodeType := range sortedKeys(summary.NodeTypeCounts) {
		fmt.Fprintf(w, "  - %s: %d\n", nodeType, summary.NodeTypeCounts[nodeType])
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
