package serializer_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenttrace-labs/agenttrace/internal/logger"
	"github.com/agenttrace-labs/agenttrace/internal/serializer"
	"github.com/agenttrace-labs/agenttrace/internal/storage"
	"github.com/agenttrace-labs/agenttrace/internal/tracer"
	traceerrors "github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/errors"
	tracelog "github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/log"
	"github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/model"
)

func newTestLogger(t *testing.T) (tracelog.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return logger.NewLogger("warn", "text", &buf), &buf
}

// recordedGraph runs a short traced pipeline and returns its graph, so tests
// round-trip realistic data instead of hand-built structs.
func recordedGraph(t *testing.T) *model.TraceGraph {
	t.Helper()
	log, _ := newTestLogger(t)
	tr, err := tracer.New(log, nil, storage.NewMemoryStore(), nil, nil)
	require.NoError(t, err)

	ctx, root := tr.StartTrace(context.Background(), "roundtrip", map[string]any{"run": 7})
	_, llm := tr.StartSpan(ctx, "ask", model.NodeTypeLLMCall)
	llm.Input(map[string]any{"prompt": "hello"})
	llm.Output(map[string]any{"answer": "world"})
	llm.Annotate("first attempt")
	llm.End(nil)

	_, tool := tr.StartSpan(ctx, "lookup", model.NodeTypeToolCall)
	require.NoError(t, tool.Link(llm, model.EdgeDataFlow, "answer feeds query"))
	tool.End(nil)
	root.End(nil)
	return root.Graph()
}

// TestRoundTrip checks that marshal followed by unmarshal reproduces ids,
// topology, payloads and timestamps.
func TestRoundTrip(t *testing.T) {
	log, _ := newTestLogger(t)
	codec := serializer.New(log, false)
	original := recordedGraph(t)

	payload, err := codec.Marshal(original)
	require.NoError(t, err)

	restored, err := codec.Unmarshal(payload)
	require.NoError(t, err)

	assert.Equal(t, original.TraceID, restored.TraceID)
	assert.Equal(t, original.SchemaVersion, restored.SchemaVersion)
	assert.Equal(t, original.Name, restored.Name)
	require.Len(t, restored.Nodes, len(original.Nodes))
	assert.Len(t, restored.Edges, len(original.Edges))
	require.NotNil(t, restored.StartTime)
	require.NotNil(t, restored.EndTime)
	assert.True(t, original.StartTime.Equal(*restored.StartTime))

	for id, node := range original.Nodes {
		got, ok := restored.Nodes[id]
		require.True(t, ok, "node %s lost in round trip", id)
		assert.Equal(t, node.SequenceNumber, got.SequenceNumber)
		assert.Equal(t, node.Name, got.Name)
		assert.Equal(t, node.NodeType, got.NodeType)
		assert.Equal(t, node.Status, got.Status)
		assert.Equal(t, node.ParentID, got.ParentID)
		assert.Equal(t, node.Depth, got.Depth)
		assert.Equal(t, node.Annotations, got.Annotations)
	}

	// The restored counter continues past the recorded maximum.
	maxSeq := -1
	for _, node := range restored.Nodes {
		if node.SequenceNumber > maxSeq {
			maxSeq = node.SequenceNumber
		}
	}
	assert.Equal(t, maxSeq+1, restored.NextSequenceNumber())
}

func TestUnmarshalMalformedJSON(t *testing.T) {
	log, _ := newTestLogger(t)
	codec := serializer.New(log, false)

	_, err := codec.Unmarshal([]byte(`{"trace_id": "x", "nodes": {`))
	require.Error(t, err)
	var loadErr *traceerrors.LoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestUnmarshalRejectsMissingRequiredFields(t *testing.T) {
	log, _ := newTestLogger(t)
	codec := serializer.New(log, false)

	_, err := codec.Unmarshal([]byte(`{"name": "no ids here"}`))
	require.Error(t, err)
	var loadErr *traceerrors.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, err.Error(), "schema validation")
}

// TestUnmarshalRejectsDanglingEdge ensures referential invalidity surfaces as
// a load error even when the payload is structurally well-formed.
func TestUnmarshalRejectsDanglingEdge(t *testing.T) {
	log, _ := newTestLogger(t)
	codec := serializer.New(log, false)

	payload := []byte(`{
		"schema_version": "0.1.0",
		"trace_id": "t-1",
		"nodes": {
			"n-1": {"id": "n-1", "sequence_number": 0, "name": "root", "node_type": "trace", "status": "completed"}
		},
		"edges": [
			{"source_id": "n-1", "target_id": "ghost", "edge_type": "caused_by"}
		]
	}`)

	_, err := codec.Unmarshal(payload)
	require.Error(t, err)
	var loadErr *traceerrors.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, err.Error(), "validation")
}

func TestUnmarshalVersionMismatch(t *testing.T) {
	payload := []byte(`{
		"schema_version": "9.9.9",
		"trace_id": "t-2",
		"nodes": {}
	}`)

	// Tolerant mode parses and warns.
	log, buf := newTestLogger(t)
	codec := serializer.New(log, false)
	graph, err := codec.Unmarshal(payload)
	require.NoError(t, err)
	assert.Equal(t, "9.9.9", graph.SchemaVersion)
	assert.Contains(t, buf.String(), "schema version")

	// Strict mode rejects.
	strictLog, _ := newTestLogger(t)
	strict := serializer.New(strictLog, true)
	_, err = strict.Unmarshal(payload)
	require.Error(t, err)
	var loadErr *traceerrors.LoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestSaveAndLoadFile(t *testing.T) {
	log, _ := newTestLogger(t)
	codec := serializer.New(log, false)
	graph := recordedGraph(t)

	path := filepath.Join(t.TempDir(), "nested", "trace.json")
	require.NoError(t, codec.SaveFile(graph, path))

	restored, err := codec.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, graph.TraceID, restored.TraceID)
}

func TestLoadFileMissing(t *testing.T) {
	log, _ := newTestLogger(t)
	codec := serializer.New(log, false)

	_, err := codec.LoadFile(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err), "missing files surface as fs errors, not load errors")
}
