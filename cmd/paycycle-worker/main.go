package main

import (
	"context"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"paycycle/internal/amqp"
	"paycycle/internal/cli"
	"paycycle/internal/report"
	gsheet "paycycle/internal/report/google"
	"paycycle/internal/services"
	"paycycle/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting paycycle-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	backendResult := cli.InitBackend(context.Background(), logger, cfg)
	if backendResult.Cleanup != nil {
		defer backendResult.Cleanup()
	}
	dataStore := backendResult.Backend

	// Initialize Google Sheets rollover report (optional)
	var reporter report.Writer
	if cfg.ReportEnabled() {
		sheetsClient, err := gsheet.NewFromConfig(context.Background(), cfg)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		reporter = sheetsClient
		logger.Info("Rollover report enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Rollover report disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	// Initialize AMQP client for consuming settings change messages
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	periodService := services.NewPeriodService(dataStore, dataStore, cfg.PeriodHorizon)
	rolloverWorker := worker.NewRolloverWorker(periodService, dataStore, reporter, cfg.RolloverBatchSize)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// On startup, materialize periods for any users whose windows may
	// have lapsed while the worker was down.
	logger.Info("Performing startup rollover check...")
	if err := rolloverWorker.StartupCheck(ctx); err != nil {
		logger.Error("Startup rollover check failed", "error", err)
		// Don't exit - continue with normal operation
	}

	group, groupCtx := errgroup.WithContext(ctx)

	// Consume settings change messages
	group.Go(func() error {
		err := amqpClient.ConsumeSettingsChanged(groupCtx, func(msg *amqp.SettingsChangedMessage) error {
			return rolloverWorker.HandleSettingsChanged(groupCtx, msg)
		})
		if err != nil && err != context.Canceled {
			logger.Error("Message consumption failed", "error", err)
			return err
		}
		return nil
	})

	// Daily sweep keeps period windows fresh even when no settings
	// change, since calendar time alone moves users across boundaries.
	cronRunner := cron.New()
	if _, err := cronRunner.AddFunc(cfg.RolloverCronSpec, func() {
		logger.Info("Running scheduled rollover sweep", "cron", cfg.RolloverCronSpec)
		if err := rolloverWorker.SweepAll(groupCtx); err != nil {
			logger.Error("Scheduled rollover sweep failed", "error", err)
		}
	}); err != nil {
		logger.Error("Invalid rollover cron spec", "error", err, "cron", cfg.RolloverCronSpec)
		os.Exit(1)
	}
	cronRunner.Start()

	// Short-interval sweep catches missed AMQP messages between cron runs
	group.Go(func() error {
		ticker := time.NewTicker(cfg.RolloverInterval)
		defer ticker.Stop()
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				if err := rolloverWorker.SweepAll(groupCtx); err != nil {
					logger.Error("Periodic rollover sweep failed", "error", err)
				}
			}
		}
	})

	groupErr := group.Wait()

	cronCtx := cronRunner.Stop()
	select {
	case <-cronCtx.Done():
	case <-time.After(5 * time.Second):
		logger.Warn("Timed out waiting for in-flight cron jobs")
	}

	if groupErr != nil {
		logger.Error("Worker stopped with error", "error", groupErr)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
