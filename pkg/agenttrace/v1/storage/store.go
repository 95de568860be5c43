// Package storage defines the persistence collaborator contract for trace
// graphs. Implementations must be safe for concurrent use.
package storage

import (
	"github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/model"
)

// Store persists finalized trace graphs. Save is invoked exactly once per
// trace, at root-scope exit; a Save failure is caught by the tracer and
// downgraded to a diagnostic, so implementations should return errors rather
// than panic.
type Store interface {
	// Save persists the graph. Returns a *errors.StorageError on write failure.
	Save(graph *model.TraceGraph) error

	// Load retrieves a graph by trace id. Returns errors.ErrTraceNotFound
	// (possibly wrapped) when the id is unknown.
	Load(traceID string) (*model.TraceGraph, error)

	// ListTraces returns the ids of all known traces.
	ListTraces() ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}
