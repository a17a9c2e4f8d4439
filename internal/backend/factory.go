package backend

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"paycycle/internal/storage"
	"paycycle/internal/store/memory"
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

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	// Dev tokens let local setups authenticate without a separate
	// account system.
	for token, email := range config.DevTokens {
		if _, err := repo.SeedToken(ctx, email, token); err != nil {
			repo.Close()
			return nil, fmt.Errorf("seed dev token for %s: %w", email, err)
		}
	}

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"dev_tokens", len(config.DevTokens))

	return &BackendResult{
		Backend: repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(_ context.Context, config Config) (*BackendResult, error) {
	// Sort by email so user IDs are stable across restarts.
	emails := make([]string, 0, len(config.DevTokens))
	byEmail := make(map[string]string, len(config.DevTokens))
	for token, email := range config.DevTokens {
		emails = append(emails, email)
		byEmail[email] = token
	}
	sort.Strings(emails)

	tokens := make(map[string]int64, len(emails))
	for i, email := range emails {
		tokens[byEmail[email]] = int64(i + 1)
	}
	store := memory.NewWithTokens(tokens)

	f.logger.Info("Initialized memory backend", "dev_tokens", len(tokens))

	return &BackendResult{
		Backend: store,
		Cleanup: nil, // No cleanup needed for memory backend
	}, nil
}
