package backend

import (
	"context"

	"ccpp/internal/session"
	"ccpp/internal/sheets"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult holds the data reader, the session store and the cleanup
// that closes them.
type BackendResult struct {
	Reader   sheets.TableReader
	Sessions session.Store
	Cleanup  CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend builds the data and session backends named in config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Data     DataBackendType
	Sessions SessionBackendType

	// File backend
	DataDirectory string

	// Google Sheets backend
	GoogleSpreadsheetID string

	// SQLite sessions
	SQLiteDBPath string
}

// DataBackendType names where the spreadsheets are read from.
type DataBackendType string

const (
	FileBackend   DataBackendType = "file"
	SheetsBackend DataBackendType = "sheets"
)

// String implements fmt.Stringer
func (bt DataBackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt DataBackendType) IsValid() bool {
	switch bt {
	case FileBackend, SheetsBackend:
		return true
	default:
		return false
	}
}

// SessionBackendType names where sessions are kept.
type SessionBackendType string

const (
	MemorySessions SessionBackendType = "memory"
	SQLiteSessions SessionBackendType = "sqlite"
)

func (st SessionBackendType) String() string {
	return string(st)
}

func (st SessionBackendType) IsValid() bool {
	switch st {
	case MemorySessions, SQLiteSessions:
		return true
	default:
		return false
	}
}
