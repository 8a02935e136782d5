// Package storage provides the persistence backends behind the ledger:
// a JSON file (the default), SQLite, and an in-memory store for tests.
// Every backend implements the same load-all/save-all contract; there
// are no partial writes.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"expenses/internal/ledger"
)

// BackendType selects a persistence backend.
type BackendType string

const (
	JSONBackend   BackendType = "json"
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case JSONBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Config holds what each backend needs to open.
type Config struct {
	Type BackendType

	// JSON backend
	DataFile string

	// SQLite backend
	SQLiteDBPath string
}

// Result carries the opened store and an optional cleanup function.
type Result struct {
	Store   ledger.Store
	Cleanup CleanupFunc
}

// Open creates the store selected by cfg.Type.
func Open(ctx context.Context, cfg Config) (*Result, error) {
	if !cfg.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.Type)
	}

	switch cfg.Type {
	case JSONBackend:
		store := NewJSONFile(cfg.DataFile)
		slog.InfoContext(ctx, "initialized json file backend",
			"component", "storage",
			"path", cfg.DataFile)
		return &Result{Store: store}, nil

	case SQLiteBackend:
		store, err := NewSQLite(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		slog.InfoContext(ctx, "initialized sqlite backend",
			"component", "storage",
			"db_path", cfg.SQLiteDBPath)
		return &Result{Store: store, Cleanup: store.Close}, nil

	case MemoryBackend:
		slog.InfoContext(ctx, "initialized memory backend",
			"component", "storage")
		return &Result{Store: NewMemory()}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}
