package main

import (
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/amqp"
	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/cli"
	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/export/google"
	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/services"
	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/storage"
	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting account-book worker")

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			"error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, done := cli.ShutdownContext(logger, 30*time.Second, nil)

	var syncWorker *worker.SyncWorker
	if cfg.GoogleSpreadsheetID != "" {
		exporter, err := google.NewFromConfig(ctx, cfg)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets exporter", "error", err)
			os.Exit(1)
		}
		syncWorker = worker.NewSyncWorker(repo, exporter, cfg.SyncBatchSize)
		logger.Info("Google Sheets exporter initialized",
			"spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Sheets export disabled, no GOOGLE_SPREADSHEET_ID provided")
	}

	auth := services.NewAuthService(repo, repo, cfg.JWTSecret, cfg.TokenTTL)
	janitor := worker.NewBlacklistJanitor(auth, cfg.BlacklistPurgeEvery)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return janitor.Run(ctx)
	})

	if syncWorker != nil {
		// Recover rows whose queue messages were lost while the worker
		// was down.
		if err := syncWorker.StartupSyncCheck(ctx); err != nil {
			logger.Error("Startup sync check failed", "error", err)
		}

		group.Go(func() error {
			return syncWorker.RunPeriodicSweep(ctx, cfg.SyncInterval)
		})

		if cfg.AMQPURL != "" {
			group.Go(func() error {
				return amqp.ConsumeWithReconnect(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, syncWorker)
			})
		} else {
			logger.Info("AMQP disabled, relying on the periodic sweep only")
		}
	}

	// On a real failure every goroutine in the group has already stopped,
	// so exit for the supervisor to restart instead of waiting for a signal.
	if err := group.Wait(); cli.FatalGroupError(err) {
		logger.Error("Worker stopped with error", "error", err)
		repo.Close()
		os.Exit(1)
	}

	<-done
	logger.Info("Worker stopped gracefully")
}
