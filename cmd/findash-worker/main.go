package main

import (
	"context"
	"errors"
	"os"
	"time"

	"findash/internal/amqp"
	"findash/internal/cli"
	"findash/internal/dashboard"
	"findash/internal/log"
	"findash/internal/observability"
	"findash/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting findash-worker", log.FieldOperation, log.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	source, err := cli.OpenSource(context.Background(), cfg, repo)
	if err != nil {
		logger.Error("Failed to open document source", "error", err, "source", cfg.DocumentSource)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	metrics := observability.NewMetrics()
	scanWorker := worker.NewScanWorker(
		source,
		cfg.DocumentSource,
		dashboard.NewAssembler(logger, metrics, cfg.ScanWorkers),
		repo,
		logger,
		worker.WithLocation(cfg.Location()),
		worker.WithTimeout(cfg.ScanTimeout),
		worker.WithMetrics(metrics),
	)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	go func() {
		err := amqpClient.ConsumeScanRequests(ctx, scanWorker.HandleScanRequest)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
