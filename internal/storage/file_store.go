package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agenttrace-labs/agenttrace/internal/serializer"
	traceerrors "github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/errors"
	"github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/model"
	"github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/storage"
)

// FileStore writes each trace as `<trace_id>.json` in a directory. The
// directory is created (and checked for writability) at construction, so a
// non-writable target fails fast as a configuration error.
type FileStore struct {
	dir   string
	codec *serializer.Serializer
}

// NewFileStore creates the directory if needed and returns a store over it.
func NewFileStore(dir string, codec *serializer.Serializer) (*FileStore, error) {
	if dir == "" {
		return nil, traceerrors.NewConfigError("file store directory cannot be empty", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, traceerrors.NewConfigError(fmt.Sprintf("cannot create trace directory '%s'", dir), err)
	}
	return &FileStore{dir: dir, codec: codec}, nil
}

// Dir returns the directory this store writes into.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) Save(graph *model.TraceGraph) error {
	path := filepath.Join(s.dir, graph.TraceID+".json")
	if err := s.codec.SaveFile(graph, path); err != nil {
		return traceerrors.NewStorageError("save", graph.TraceID, err)
	}
	return nil
}

func (s *FileStore) Load(traceID string) (*model.TraceGraph, error) {
	path := filepath.Join(s.dir, traceID+".json")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, traceerrors.ErrTraceNotFound
	}
	graph, err := s.codec.LoadFile(path)
	if err != nil {
		return nil, traceerrors.NewStorageError("load", traceID, err)
	}
	return graph, nil
}

func (s *FileStore) ListTraces() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, traceerrors.NewStorageError("list", "", err)
	}
	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

// Close is a no-op for the FileStore.
func (s *FileStore) Close() error { return nil }

var _ storage.Store = (*FileStore)(nil)
