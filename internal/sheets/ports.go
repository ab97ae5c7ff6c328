package sheets

import (
	"context"
	"errors"

	"ccpp/internal/core"
)

// ErrSourceNotFound is returned when a named table does not exist in the
// backend.
var ErrSourceNotFound = errors.New("table source not found")

// Ports for outbound adapters.
type (
	// TableReader loads one whole spreadsheet tab into memory.
	TableReader interface {
		ReadTable(ctx context.Context, source string) (core.Table, error)
	}

	// Fingerprinter reports a value that changes whenever the source
	// content changes (for example modification time and size).
	Fingerprinter interface {
		Fingerprint(ctx context.Context, source string) (string, error)
	}

	// TableWriter replaces a whole tab. Used by the offline hashing utility.
	TableWriter interface {
		WriteTable(ctx context.Context, dest string, t core.Table) error
	}
)
