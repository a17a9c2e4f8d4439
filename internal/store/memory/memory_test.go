package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"paycycle/internal/core"
	"paycycle/internal/store"
)

func TestSettingsLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.GetSettings(ctx, 1); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	cfg := core.Settings{CycleType: core.CustomDay, PayDay: core.IntPtr(25), CycleStartOffset: 1}
	created, err := s.CreateSettings(ctx, 1, cfg)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.UserID != 1 || created.Settings.CycleType != core.CustomDay {
		t.Fatalf("unexpected created row: %+v", created)
	}

	if _, err := s.CreateSettings(ctx, 1, cfg); !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	cfg.CycleType = core.BiWeekly
	cfg.PayDay = core.IntPtr(5)
	updated, err := s.UpdateSettings(ctx, 1, cfg)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.UpdatedAt == nil || updated.Settings.CycleType != core.BiWeekly {
		t.Fatalf("unexpected updated row: %+v", updated)
	}

	if err := s.DeleteSettings(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetSettings(ctx, 1); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	// Idempotent delete
	if err := s.DeleteSettings(ctx, 1); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}

	if _, err := s.UpdateSettings(ctx, 2, cfg); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update of absent row, got %v", err)
	}
}

func TestResolveToken(t *testing.T) {
	s := NewWithTokens(map[string]int64{"tok-a": 7})
	uid, err := s.ResolveToken(context.Background(), "tok-a")
	if err != nil || uid != 7 {
		t.Fatalf("ResolveToken = (%d, %v)", uid, err)
	}
	if _, err := s.ResolveToken(context.Background(), "nope"); !errors.Is(err, store.ErrUnknownToken) {
		t.Fatalf("expected ErrUnknownToken, got %v", err)
	}
}

func TestPeriodUpsertAndList(t *testing.T) {
	ctx := context.Background()
	s := New()

	d := func(day int) time.Time { return time.Date(2024, time.March, day, 0, 0, 0, 0, time.UTC) }
	periods := []core.Period{
		{Start: d(1), End: d(15)},
		{Start: d(15), End: d(29)},
	}
	if err := s.UpsertPeriods(ctx, 1, periods, core.BiWeekly); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	// Re-upserting the same start replaces, not duplicates
	if err := s.UpsertPeriods(ctx, 1, periods[:1], core.BiWeekly); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	rows, err := s.ListPeriods(ctx, 1, d(10), d(20))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected both overlapping periods, got %d", len(rows))
	}

	rows, err = s.ListPeriods(ctx, 1, d(29), d(31))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no periods past the range, got %d", len(rows))
	}
}
