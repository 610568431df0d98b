package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"findash/internal/amqp"
	"findash/internal/cli"
	"findash/internal/config"
	"findash/internal/dashboard"
	apphttp "findash/internal/http"
	"findash/internal/log"
	"findash/internal/observability"
	"findash/internal/storage"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	metrics := observability.NewMetrics()
	opts := []apphttp.Option{
		apphttp.WithLogger(logger),
		apphttp.WithMetrics(metrics),
		apphttp.WithLocation(cfg.Location()),
		apphttp.WithScanTimeout(cfg.ScanTimeout),
	}

	// Scan history lives in SQLite; the worker writes it when AMQP is on.
	var repo *storage.SQLiteRepository
	if cfg.DocumentSource == config.SourceSQLite || cfg.AMQPEnabled() {
		repo = cli.InitSQLite(logger, cfg.SQLiteDBPath)
		defer repo.Close()
		opts = append(opts, apphttp.WithScanRuns(repo), apphttp.WithReadiness(repo))
	}

	source, err := cli.OpenSource(context.Background(), cfg, repo)
	if err != nil {
		logger.Error("Failed to open document source", "error", err, "source", cfg.DocumentSource)
		os.Exit(1)
	}

	if cfg.AMQPEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		opts = append(opts, apphttp.WithPublisher(amqpClient))
	} else {
		logger.Info("AMQP disabled - POST /api/scans will answer 503")
	}

	assembler := dashboard.NewAssembler(logger, metrics, cfg.ScanWorkers)
	srv := apphttp.NewServer(":"+cfg.Port, source, assembler, opts...)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = cfg.ScanTimeout + 10*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Starting findash server", log.FieldOperation, log.OpStartup, "port", cfg.Port, "source", cfg.DocumentSource, "timezone", cfg.Timezone)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
