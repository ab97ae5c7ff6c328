package backend

import (
	"context"
	"fmt"
	"log/slog"

	"ccpp/internal/session"
	"ccpp/internal/sheets"
	"ccpp/internal/sheets/file"
	gsheet "ccpp/internal/sheets/google"
	"ccpp/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	reader, err := f.createReader(ctx, config)
	if err != nil {
		return nil, err
	}

	store, cleanup, err := f.createSessionStore(config)
	if err != nil {
		return nil, err
	}

	return &BackendResult{
		Reader:   reader,
		Sessions: store,
		Cleanup:  cleanup,
	}, nil
}

func (f *DefaultFactory) createReader(ctx context.Context, config Config) (sheets.TableReader, error) {
	switch config.Data {
	case FileBackend:
		dir := config.DataDirectory
		if dir == "" {
			dir = "."
		}
		f.logger.Info("Initialized file backend", "data_directory", dir)
		return file.New(dir), nil
	case SheetsBackend:
		cli, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		f.logger.Info("Initialized Google Sheets backend")
		return cli, nil
	default:
		return nil, fmt.Errorf("unsupported data backend type: %s", config.Data)
	}
}

func (f *DefaultFactory) createSessionStore(config Config) (session.Store, CleanupFunc, error) {
	switch config.Sessions {
	case MemorySessions:
		f.logger.Info("Initialized in-memory session store")
		return session.NewMemoryStore(), func() error { return nil }, nil
	case SQLiteSessions:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite session store", "db_path", config.SQLiteDBPath)
		return repo, repo.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported session backend type: %s", config.Sessions)
	}
}
