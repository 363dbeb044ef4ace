package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/backend"
	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/cli"
	apphttp "github.com/Masaya-j9/account-book-monorepo-sub001/internal/http"
	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	result, err := backend.Build(cfg, logger)
	if err != nil {
		logger.Error("Failed to build backend", "error", err)
		os.Exit(1)
	}

	// AMQP is nil on the memory backend or when no broker is configured,
	// which disables the async sync pipeline.
	var publisher services.SyncPublisher
	if result.AMQP != nil {
		publisher = result.AMQP
	}

	auth := services.NewAuthService(result.Backend, result.Backend, cfg.JWTSecret, cfg.TokenTTL)
	transactions := services.NewTransactionService(result.Backend, publisher)

	srv := apphttp.NewServer(":"+cfg.Port, result.Backend, transactions, auth)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.ShutdownContext(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}
	})

	logger.Info("Starting account-book server",
		"port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	<-done
	logger.Info("Server stopped gracefully")
}
