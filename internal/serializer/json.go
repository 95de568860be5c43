// Package serializer implements the JSON wire codec for trace graphs.
// Loading is tolerant by default: unknown fields are ignored, missing fields
// are defaulted, and a schema-version mismatch is a logged diagnostic rather
// than an error. Structural invalidity (malformed JSON, edges referencing
// unknown nodes) is always a LoadError.
package serializer

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	traceerrors "github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/errors"
	tracelog "github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/log"
	"github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/model"
)

//go:embed trace_schema_v0.1.0.json
var traceSchemaBytes []byte

var (
	traceSchema     *gojsonschema.Schema
	traceSchemaOnce sync.Once
	traceSchemaErr  error
)

func loadTraceSchema() (*gojsonschema.Schema, error) {
	traceSchemaOnce.Do(func() {
		if len(traceSchemaBytes) == 0 {
			traceSchemaErr = traceerrors.NewConfigError("embedded schema 'trace_schema_v0.1.0.json' is empty or not found", nil)
			return
		}
		traceSchema, traceSchemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(traceSchemaBytes))
		if traceSchemaErr != nil {
			traceSchemaErr = traceerrors.NewConfigError("failed to compile embedded trace schema", traceSchemaErr)
		}
	})
	return traceSchema, traceSchemaErr
}

// Serializer converts trace graphs to and from their JSON wire form.
type Serializer struct {
	log tracelog.Logger
	// strict rejects schema-version mismatches instead of warning.
	strict bool
}

// New creates a Serializer. A nil logger silences mismatch diagnostics only
// if strict is set; otherwise the logger is required.
func New(log tracelog.Logger, strict bool) *Serializer {
	return &Serializer{log: log, strict: strict}
}

// Marshal renders the graph as indented JSON.
func (s *Serializer) Marshal(graph *model.TraceGraph) ([]byte, error) {
	payload, err := json.MarshalIndent(graph, "", "  ")
	if err != nil {
		return nil, traceerrors.NewLoadError("failed to encode trace graph", err)
	}
	return payload, nil
}

// Unmarshal parses a JSON payload into a TraceGraph. It validates structure
// against the embedded wire schema, checks referential invariants, and
// surfaces schema-version mismatches per the configured strictness.
func (s *Serializer) Unmarshal(payload []byte) (*model.TraceGraph, error) {
	if err := s.validateStructure(payload); err != nil {
		return nil, err
	}

	graph := &model.TraceGraph{}
	if err := json.Unmarshal(payload, graph); err != nil {
		return nil, traceerrors.NewLoadError("failed to parse trace JSON", err)
	}
	if graph.Nodes == nil {
		graph.Nodes = make(map[string]*model.Node)
	}

	if graph.SchemaVersion != model.CurrentSchemaVersion {
		if s.strict {
			return nil, traceerrors.NewLoadError(
				fmt.Sprintf("trace schema version '%s' differs from current '%s'", graph.SchemaVersion, model.CurrentSchemaVersion), nil)
		}
		if s.log != nil {
			s.log.Warnf("agenttrace: trace schema version '%s' differs from current '%s'; some fields may be missing or ignored",
				graph.SchemaVersion, model.CurrentSchemaVersion)
		}
	}

	if err := graph.Validate(); err != nil {
		return nil, traceerrors.NewLoadError("trace graph failed validation", err)
	}
	graph.RestoreSequenceCounter()
	return graph, nil
}

// SaveFile writes the graph to path, creating parent directories as needed.
func (s *Serializer) SaveFile(graph *model.TraceGraph, path string) error {
	payload, err := s.Marshal(graph)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating trace directory: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("writing trace file: %w", err)
	}
	return nil
}

// LoadFile reads and parses a trace file. File-level I/O conditions (missing
// or unreadable file) surface as fs errors, distinct from the LoadError a
// malformed payload produces.
func (s *Serializer) LoadFile(path string) (*model.TraceGraph, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return s.Unmarshal(payload)
}

// validateStructure checks the raw payload against the embedded JSON schema.
func (s *Serializer) validateStructure(payload []byte) error {
	schema, err := loadTraceSchema()
	if err != nil {
		return err
	}
	if !json.Valid(payload) {
		return traceerrors.NewLoadError("payload is not valid JSON", nil)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return traceerrors.NewLoadError("trace schema validation process failed", err)
	}
	if !result.Valid() {
		errMsg := "trace payload failed schema validation:"
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "(root)" || field == "" {
				field = desc.Context().String()
			}
			errMsg += fmt.Sprintf("\n  - Field '%s': %s", field, desc.Description())
		}
		return traceerrors.NewLoadError(errMsg, nil)
	}
	return nil
}
