package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"paycycle/internal/amqp"
	applog "paycycle/internal/log"
	"paycycle/internal/report"
	"paycycle/internal/services"
	"paycycle/internal/store"
)

// RolloverWorker keeps materialized period boundaries current. It
// reacts to settings-changed messages and runs periodic sweeps over all
// stored configurations so missed messages heal themselves.
type RolloverWorker struct {
	periods   *services.PeriodService
	lister    store.SettingsLister
	reporter  report.Writer
	batchSize int
	log       *applog.Logger
}

func NewRolloverWorker(periods *services.PeriodService, lister store.SettingsLister, reporter report.Writer, batchSize int) *RolloverWorker {
	if batchSize < 1 {
		batchSize = 1
	}
	return &RolloverWorker{
		periods:   periods,
		lister:    lister,
		reporter:  reporter,
		batchSize: batchSize,
		log:       applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker),
	}
}

// HandleSettingsChanged processes a single settings-changed message.
func (w *RolloverWorker) HandleSettingsChanged(ctx context.Context, msg *amqp.SettingsChangedMessage) error {
	w.log.InfoContext(ctx, "Processing settings changed message",
		applog.FieldUserID, msg.UserID,
		"change", msg.Change)

	if msg.Change == amqp.ChangeDeleted {
		// Reverted to calendar defaults, drop the stale rows.
		if err := w.periods.Reset(ctx, msg.UserID); err != nil {
			return fmt.Errorf("reset periods for user %d: %w", msg.UserID, err)
		}
		return nil
	}

	return w.rolloverUser(ctx, msg.UserID, time.Now().UTC())
}

// rolloverUser recomputes the user's materialized periods and reports
// the new current period.
func (w *RolloverWorker) rolloverUser(ctx context.Context, userID int64, now time.Time) error {
	periods, err := w.periods.Materialize(ctx, userID, now)
	if err != nil {
		return fmt.Errorf("materialize periods for user %d: %w", userID, err)
	}

	if w.reporter != nil && len(periods) > 0 {
		settings, err := w.periods.EffectiveSettings(ctx, userID)
		if err != nil {
			return fmt.Errorf("load settings for report: %w", err)
		}
		entry := report.RolloverEntry{
			UserID:    userID,
			CycleType: settings.CycleType,
			Start:     periods[0].Start,
			End:       periods[0].End,
			RolledAt:  now,
		}
		if err := w.reporter.AppendRollover(ctx, entry); err != nil {
			// Report rows are an audit convenience, never fail the
			// rollover over them.
			w.log.ErrorContext(ctx, "Failed to append rollover report row",
				applog.FieldUserID, userID,
				applog.FieldError, err)
		}
	}

	return nil
}

// SweepAll recomputes periods for every user with a stored
// configuration. This is the backup mechanism behind the message flow
// and the body of the daily cron job.
func (w *RolloverWorker) SweepAll(ctx context.Context) error {
	all, err := w.lister.ListAllSettings(ctx)
	if err != nil {
		return fmt.Errorf("list settings for sweep: %w", err)
	}

	if len(all) == 0 {
		w.log.InfoContext(ctx, "No stored configurations to sweep")
		return nil
	}

	now := time.Now().UTC()
	successCount := 0
	errorCount := 0

	for i, saved := range all {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.rolloverUser(ctx, saved.UserID, now); err != nil {
			w.log.ErrorContext(ctx, "Failed to roll over user",
				applog.FieldUserID, saved.UserID,
				applog.FieldError, err)
			errorCount++
			continue
		}
		successCount++

		// Small pause between batches to keep the sweep gentle on
		// storage.
		if (i+1)%w.batchSize == 0 && i+1 < len(all) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(100 * time.Millisecond):
			}
		}
	}

	w.log.InfoContext(ctx, "Rollover sweep completed",
		"total", len(all),
		"rolled", successCount,
		"errors", errorCount)

	if errorCount > 0 {
		return errors.New("rollover sweep finished with errors")
	}
	return nil
}

// StartupCheck runs one sweep at worker startup to recover from missed
// messages or downtime.
func (w *RolloverWorker) StartupCheck(ctx context.Context) error {
	w.log.InfoContext(ctx, "Running startup rollover sweep")
	return w.SweepAll(ctx)
}
