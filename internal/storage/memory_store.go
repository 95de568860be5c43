// Package storage implements the built-in persistence backends for trace
// graphs: in-memory, JSON-file directory, and SQLite.
package storage

import (
	"sort"
	"sync"

	traceerrors "github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/errors"
	"github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/model"
	"github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/storage"
)

// MemoryStore keeps finalized graphs in a map protected by a sync.RWMutex.
// Volatile; suitable for tests and short-lived processes. Loaded graphs are
// the stored instances: callers must treat them as read-only.
type MemoryStore struct {
	traces map[string]*model.TraceGraph
	mu     sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		traces: make(map[string]*model.TraceGraph),
	}
}

func (s *MemoryStore) Save(graph *model.TraceGraph) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.traces[graph.TraceID] = graph
	return nil
}

func (s *MemoryStore) Load(traceID string) (*model.TraceGraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	graph, ok := s.traces[traceID]
	if !ok {
		return nil, traceerrors.ErrTraceNotFound
	}
	return graph, nil
}

func (s *MemoryStore) ListTraces() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.traces))
	for id := range s.traces {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close is a no-op for the MemoryStore.
func (s *MemoryStore) Close() error { return nil }

var _ storage.Store = (*MemoryStore)(nil)
