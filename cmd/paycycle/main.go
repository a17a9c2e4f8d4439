package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"paycycle/internal/amqp"
	"paycycle/internal/cli"
	apphttp "paycycle/internal/http"
	"paycycle/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting paycycle server")

	cfg := cli.LoadAndValidateConfig(logger)

	backendResult := cli.InitBackend(context.Background(), logger, cfg)
	if backendResult.Cleanup != nil {
		defer backendResult.Cleanup()
	}
	dataStore := backendResult.Backend

	// AMQP is optional. Without it, settings writes still succeed and
	// the worker falls back to its periodic sweep.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without change events", "error", err)
		} else {
			publisher = amqpClient
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - settings changes will not be published")
	}

	settingsService := services.NewSettingsService(dataStore, publisher)
	defer settingsService.Close()

	periodService := services.NewPeriodService(dataStore, dataStore, cfg.PeriodHorizon)

	srv := apphttp.NewServer(":"+cfg.Port, settingsService, periodService, dataStore)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Starting paycycle server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
