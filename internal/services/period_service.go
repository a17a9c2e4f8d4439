package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"paycycle/internal/core"
	"paycycle/internal/store"
)

// PeriodService computes period boundaries from a user's stored
// configuration, falling back to calendar defaults for users without
// one.
type PeriodService struct {
	repo    store.SettingsRepository
	periods store.PeriodStore
	horizon int
}

// NewPeriodService builds a period service. periods may be nil when
// materialization is not wanted; horizon is the number of future
// periods kept materialized per user.
func NewPeriodService(repo store.SettingsRepository, periods store.PeriodStore, horizon int) *PeriodService {
	if horizon < 1 {
		horizon = 1
	}
	return &PeriodService{
		repo:    repo,
		periods: periods,
		horizon: horizon,
	}
}

// settingsFor loads the user's configuration, substituting calendar
// defaults when none is stored.
func (s *PeriodService) settingsFor(ctx context.Context, userID int64) (core.Settings, error) {
	saved, err := s.repo.GetSettings(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return core.DefaultSettings(), nil
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return saved.Settings, nil
}

// EffectiveSettings returns the configuration period math runs on,
// which is the calendar default for unconfigured users.
func (s *PeriodService) EffectiveSettings(ctx context.Context, userID int64) (core.Settings, error) {
	return s.settingsFor(ctx, userID)
}

// PeriodAt returns the period containing the given date.
func (s *PeriodService) PeriodAt(ctx context.Context, userID int64, date time.Time) (core.Period, error) {
	settings, err := s.settingsFor(ctx, userID)
	if err != nil {
		return core.Period{}, err
	}
	return core.PeriodFor(settings, date)
}

// PeriodsBetween returns the contiguous run of periods covering
// [from, to).
func (s *PeriodService) PeriodsBetween(ctx context.Context, userID int64, from, to time.Time) ([]core.Period, error) {
	settings, err := s.settingsFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return core.PeriodsInRange(settings, from, to)
}

// Materialize recomputes and stores the current period plus the
// configured horizon of future periods for the user.
func (s *PeriodService) Materialize(ctx context.Context, userID int64, now time.Time) ([]core.Period, error) {
	settings, err := s.settingsFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	current, err := core.PeriodFor(settings, now)
	if err != nil {
		return nil, err
	}

	periods := []core.Period{current}
	for i := 0; i < s.horizon; i++ {
		next, err := core.PeriodFor(settings, periods[len(periods)-1].End)
		if err != nil {
			return nil, err
		}
		periods = append(periods, next)
	}

	if s.periods != nil {
		if err := s.periods.UpsertPeriods(ctx, userID, periods, settings.CycleType); err != nil {
			return nil, fmt.Errorf("materialize periods: %w", err)
		}
	}

	return periods, nil
}

// Reset drops the user's materialized periods. Used when a
// configuration is deleted.
func (s *PeriodService) Reset(ctx context.Context, userID int64) error {
	if s.periods == nil {
		return nil
	}
	return s.periods.DeletePeriods(ctx, userID)
}
