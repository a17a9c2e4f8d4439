package store

import (
	"context"
	"errors"
	"time"

	"paycycle/internal/core"
)

var (
	// ErrNotFound is a normal outcome for users who never saved a
	// configuration; callers fall back to calendar defaults.
	ErrNotFound = errors.New("settings not found")

	// ErrAlreadyExists guards the one-config-per-user rule on create.
	ErrAlreadyExists = errors.New("settings already exist")

	// ErrUnknownToken means the bearer token resolves to no user.
	ErrUnknownToken = errors.New("unknown api token")
)

// UserSettings is a stored pay-cycle configuration together with its
// ownership and bookkeeping columns.
type UserSettings struct {
	ID        int64
	UserID    int64
	Settings  core.Settings
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// MaterializedPeriod is one precomputed period boundary row kept for
// analytics bucketing.
type MaterializedPeriod struct {
	UserID     int64
	Start      time.Time
	End        time.Time
	CycleType  core.CycleType
	ComputedAt time.Time
}

// Ports for the persistence gateway.
type (
	// SettingsRepository owns the single pay-cycle configuration each
	// user may have.
	SettingsRepository interface {
		// GetSettings returns ErrNotFound when the user never saved one.
		GetSettings(ctx context.Context, userID int64) (UserSettings, error)
		// CreateSettings returns ErrAlreadyExists when a row exists.
		CreateSettings(ctx context.Context, userID int64, s core.Settings) (UserSettings, error)
		// UpdateSettings returns ErrNotFound when there is nothing to replace.
		UpdateSettings(ctx context.Context, userID int64, s core.Settings) (UserSettings, error)
		// DeleteSettings reverts the user to implicit calendar defaults.
		// Deleting an absent row is not an error.
		DeleteSettings(ctx context.Context, userID int64) error
	}

	// TokenResolver maps bearer tokens to user IDs.
	TokenResolver interface {
		ResolveToken(ctx context.Context, token string) (userID int64, err error)
	}

	// PeriodStore keeps materialized period boundaries for analytics.
	PeriodStore interface {
		UpsertPeriods(ctx context.Context, userID int64, periods []core.Period, cycleType core.CycleType) error
		ListPeriods(ctx context.Context, userID int64, from, to time.Time) ([]MaterializedPeriod, error)
		DeletePeriods(ctx context.Context, userID int64) error
	}

	// SettingsLister enumerates users with a stored configuration, for
	// worker-side rollover sweeps.
	SettingsLister interface {
		ListAllSettings(ctx context.Context) ([]UserSettings, error)
	}
)
