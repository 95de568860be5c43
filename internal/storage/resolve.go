package storage

import (
	"fmt"
	"strings"

	traceerrors "github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/errors"
	"github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/storage"

	"github.com/agenttrace-labs/agenttrace/internal/serializer"
)

// Resolve maps a storage spec string to a backend. Accepted forms are
// "memory", "file://<dir>" and "sqlite://<path>".
func Resolve(spec string, codec *serializer.Serializer) (storage.Store, error) {
	switch {
	case spec == "memory":
		return NewMemoryStore(), nil
	case strings.HasPrefix(spec, "file://"):
		return NewFileStore(strings.TrimPrefix(spec, "file://"), codec)
	case strings.HasPrefix(spec, "sqlite://"):
		return NewSQLiteStore(strings.TrimPrefix(spec, "sqlite://"), codec)
	default:
		return nil, traceerrors.NewConfigError(fmt.Sprintf("unsupported storage value %q, use 'memory', 'file://<dir>' or 'sqlite://<path>'", spec), nil)
	}
}
