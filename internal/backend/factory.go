// Package backend wires a ledger backend from configuration: the in-memory
// store for development, SQLite with the optional sync queue for real use.
package backend

import (
	"fmt"

	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/amqp"
	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/config"
	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/ledger"
	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/ledger/memory"
	applog "github.com/Masaya-j9/account-book-monorepo-sub001/internal/log"
	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/storage"
)

// Type selects the storage backend.
type Type string

const (
	MemoryBackend Type = "memory"
	SQLiteBackend Type = "sqlite"
)

func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Result holds the assembled backend. Repository is non-nil only for the
// SQLite backend, AMQP only when a broker URL is configured.
type Result struct {
	Backend    ledger.Backend
	Repository *storage.SQLiteRepository
	AMQP       *amqp.Client
	Cleanup    CleanupFunc
}

// Build assembles the backend named by cfg.DataBackend.
func Build(cfg *config.Config, logger *applog.Logger) (*Result, error) {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentStorage)

	backendType := Type(cfg.DataBackend)
	switch backendType {
	case MemoryBackend:
		logger.Info("Initialized memory backend")
		return &Result{Backend: memory.New()}, nil
	case SQLiteBackend:
		return buildSQLite(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported data backend %q", cfg.DataBackend)
	}
}

func buildSQLite(cfg *config.Config, logger *applog.Logger) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize SQLite repository: %w", err)
	}

	// The queue is optional: without it, writes stay local and the worker's
	// periodic sweep picks them up.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without sync",
				"error", err)
			amqpClient = nil
		} else {
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	logger.Info("Initialized SQLite backend",
		"db_path", cfg.SQLiteDBPath, "amqp_enabled", amqpClient != nil)

	cleanup := func() error {
		if amqpClient != nil {
			amqpClient.Close()
		}
		return repo.Close()
	}

	return &Result{
		Backend:    repo,
		Repository: repo,
		AMQP:       amqpClient,
		Cleanup:    cleanup,
	}, nil
}
