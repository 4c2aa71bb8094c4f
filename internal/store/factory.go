package store

import (
	"fmt"
	"os"
)

// Backend names a gateway implementation.
type Backend string

const (
	// BackendBleve keeps one Bleve v2 index per name (default).
	// Holds exclusive file locks, so a data directory serves one process.
	BackendBleve Backend = "bleve"

	// BackendSQLite keeps every index in one SQLite FTS5 database.
	// WAL mode allows other processes to read while this one writes.
	BackendSQLite Backend = "sqlite"
)

// ParseBackend validates a backend name. Empty selects Bleve.
func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case BackendBleve, "":
		return BackendBleve, nil
	case BackendSQLite:
		return BackendSQLite, nil
	default:
		return "", fmt.Errorf("unknown search backend: %s (valid options: bleve, sqlite)", s)
	}
}

// NewGateway creates the gateway selected by cfg.Backend.
// An empty cfg.DataDir creates an in-memory gateway for testing.
func NewGateway(cfg Config) (Gateway, error) {
	backend, err := ParseBackend(cfg.Backend)
	if err != nil {
		return nil, err
	}

	switch backend {
	case BackendSQLite:
		return NewSQLiteGateway(cfg)
	default:
		return NewBleveGateway(cfg)
	}
}

// DetectBackend reports which backend already has files in dataDir.
// Returns an empty string when the directory holds no indices.
func DetectBackend(dataDir string) Backend {
	if fileExists(sqlitePath(dataDir)) {
		return BackendSQLite
	}
	names, err := listBleveIndices(dataDir)
	if err == nil && len(names) > 0 {
		return BackendBleve
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
