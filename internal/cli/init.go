// Package cli provides common initialization shared by cmd/findash,
// cmd/findash-worker and cmd/findash-scan.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"findash/internal/config"
	"findash/internal/core"
	"findash/internal/log"
	"findash/internal/sources"
	"findash/internal/sources/memory"
	"findash/internal/sources/sheets"
	"findash/internal/sources/vault"
	"findash/internal/storage"
)

// SetupLogger builds the process logger at the given level and installs it
// as the slog default.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite initializes a SQLite repository with the given path.
// Returns the repository or exits the process on failure.
func InitSQLite(logger *log.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}

// OpenSource builds the document source selected by DOCUMENT_SOURCE. For
// the sqlite source the already opened repository is reused.
func OpenSource(ctx context.Context, cfg *config.Config, repo *storage.SQLiteRepository) (sources.Source, error) {
	switch cfg.DocumentSource {
	case config.SourceVault:
		return vault.New(cfg.VaultDir, cfg.VaultExtensions...), nil
	case config.SourceMemory:
		return memory.NewFromFiles(cfg.VaultDir), nil
	case config.SourceSQLite:
		if repo == nil {
			return nil, fmt.Errorf("sqlite source requires an open repository")
		}
		return repo, nil
	case config.SourceSheets:
		return sheets.Open(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	default:
		return nil, fmt.Errorf("unknown document source %q", cfg.DocumentSource)
	}
}

// Today returns the current calendar date in loc.
func Today(loc *time.Location) core.Date {
	return core.DateOf(time.Now().In(loc))
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown, "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()

		if cleanup != nil {
			cleanup()
		}

		select {
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		default:
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
