package storage_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenttrace-labs/agenttrace/internal/logger"
	"github.com/agenttrace-labs/agenttrace/internal/serializer"
	"github.com/agenttrace-labs/agenttrace/internal/storage"
	traceerrors "github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/errors"
	"github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/model"
	tracestorage "github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/storage"
)

func newCodec(t *testing.T) *serializer.Serializer {
	t.Helper()
	return serializer.New(logger.NewLogger("warn", "text", &bytes.Buffer{}), false)
}

func sampleGraph(name string) *model.TraceGraph {
	graph := model.NewTraceGraph(name, nil)
	root := model.NewNode(graph.NextSequenceNumber(), name, model.NodeTypeTrace, "", 0)
	root.Status = model.StatusCompleted
	graph.AddNode(root)
	return graph
}

// backendTest runs the storage contract against any backend: save, load,
// overwrite, list, and the not-found sentinel.
func backendTest(t *testing.T, store tracestorage.Store) {
	t.Helper()

	_, err := store.Load("does-not-exist")
	require.Error(t, err)
	assert.True(t, traceerrors.IsNotFound(err))

	first := sampleGraph("first")
	second := sampleGraph("second")
	require.NoError(t, store.Save(first))
	require.NoError(t, store.Save(second))

	loaded, err := store.Load(first.TraceID)
	require.NoError(t, err)
	assert.Equal(t, first.TraceID, loaded.TraceID)
	assert.Equal(t, "first", loaded.Name)
	assert.Equal(t, 1, loaded.NodeCount())

	// Saving the same trace again overwrites, it does not duplicate.
	first.Name = "first-renamed"
	require.NoError(t, store.Save(first))
	loaded, err = store.Load(first.TraceID)
	require.NoError(t, err)
	assert.Equal(t, "first-renamed", loaded.Name)

	ids, err := store.ListTraces()
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	assert.Contains(t, ids, first.TraceID)
	assert.Contains(t, ids, second.TraceID)

	require.NoError(t, store.Close())
}

func TestMemoryStore(t *testing.T) {
	backendTest(t, storage.NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewFileStore(dir, newCodec(t))
	require.NoError(t, err)
	backendTest(t, store)

	// One JSON file per trace on disk.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Equal(t, ".json", filepath.Ext(entry.Name()))
	}
}

func TestFileStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "deep", "traces")
	store, err := storage.NewFileStore(dir, newCodec(t))
	require.NoError(t, err)
	defer store.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.db")
	store, err := storage.NewSQLiteStore(path, newCodec(t))
	require.NoError(t, err)
	backendTest(t, store)
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.db")
	codec := newCodec(t)

	store, err := storage.NewSQLiteStore(path, codec)
	require.NoError(t, err)
	graph := sampleGraph("persisted")
	require.NoError(t, store.Save(graph))
	require.NoError(t, store.Close())

	reopened, err := storage.NewSQLiteStore(path, codec)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load(graph.TraceID)
	require.NoError(t, err)
	assert.Equal(t, "persisted", loaded.Name)
}

func TestResolve(t *testing.T) {
	codec := newCodec(t)

	store, err := storage.Resolve("memory", codec)
	require.NoError(t, err)
	assert.IsType(t, &storage.MemoryStore{}, store)

	dir := t.TempDir()
	store, err = storage.Resolve("file://"+dir, codec)
	require.NoError(t, err)
	assert.IsType(t, &storage.FileStore{}, store)
	store.Close()

	store, err = storage.Resolve("sqlite://"+filepath.Join(dir, "t.db"), codec)
	require.NoError(t, err)
	assert.IsType(t, &storage.SQLiteStore{}, store)
	store.Close()

	_, err = storage.Resolve("redis://nope", codec)
	require.Error(t, err)
	var cfgErr *traceerrors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}
