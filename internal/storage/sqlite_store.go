package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/agenttrace-labs/agenttrace/internal/serializer"
	traceerrors "github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/errors"
	"github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/model"
	"github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/storage"
)

// SQLiteStore persists traces in a single SQLite file, one row per trace
// with the serialized graph as payload. WAL mode keeps concurrent readers
// cheap.
type SQLiteStore struct {
	conn  *sql.DB
	codec *serializer.Serializer
}

// NewSQLiteStore opens (or creates) the database at path and ensures the
// traces table exists. Open failures are configuration errors.
func NewSQLiteStore(path string, codec *serializer.Serializer) (*SQLiteStore, error) {
	if path == "" {
		return nil, traceerrors.NewConfigError("sqlite store path cannot be empty", nil)
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, traceerrors.NewConfigError(fmt.Sprintf("opening trace database '%s'", path), err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, traceerrors.NewConfigError("setting WAL mode", err)
	}
	if _, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS traces (
			trace_id   TEXT PRIMARY KEY,
			name       TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			payload    TEXT NOT NULL
		)
	`); err != nil {
		conn.Close()
		return nil, traceerrors.NewConfigError("creating traces table", err)
	}
	return &SQLiteStore{conn: conn, codec: codec}, nil
}

func (s *SQLiteStore) Save(graph *model.TraceGraph) error {
	payload, err := s.codec.Marshal(graph)
	if err != nil {
		return traceerrors.NewStorageError("save", graph.TraceID, err)
	}
	createdAt := time.Now().UTC().Format(time.RFC3339Nano)
	if graph.StartTime != nil {
		createdAt = graph.StartTime.Format(time.RFC3339Nano)
	}
	_, err = s.conn.Exec(`
		INSERT INTO traces (trace_id, name, created_at, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(trace_id) DO UPDATE SET
			name = excluded.name,
			created_at = excluded.created_at,
			payload = excluded.payload
	`, graph.TraceID, graph.Name, createdAt, string(payload))
	if err != nil {
		return traceerrors.NewStorageError("save", graph.TraceID, err)
	}
	return nil
}

func (s *SQLiteStore) Load(traceID string) (*model.TraceGraph, error) {
	var payload string
	err := s.conn.QueryRow(`SELECT payload FROM traces WHERE trace_id = ?`, traceID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, traceerrors.ErrTraceNotFound
	}
	if err != nil {
		return nil, traceerrors.NewStorageError("load", traceID, err)
	}
	graph, err := s.codec.Unmarshal([]byte(payload))
	if err != nil {
		return nil, traceerrors.NewStorageError("load", traceID, err)
	}
	return graph, nil
}

func (s *SQLiteStore) ListTraces() ([]string, error) {
	rows, err := s.conn.Query(`SELECT trace_id FROM traces ORDER BY created_at DESC, trace_id`)
	if err != nil {
		return nil, traceerrors.NewStorageError("list", "", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, traceerrors.NewStorageError("list", "", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, traceerrors.NewStorageError("list", "", err)
	}
	return ids, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error { return s.conn.Close() }

var _ storage.Store = (*SQLiteStore)(nil)
