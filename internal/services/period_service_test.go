package services

import (
	"context"
	"testing"
	"time"

	"paycycle/internal/core"
	"paycycle/internal/store/memory"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPeriodService_DefaultsToCalendar(t *testing.T) {
	mem := memory.New()
	svc := NewPeriodService(mem, mem, 3)

	// user 42 never saved a configuration
	period, err := svc.PeriodAt(context.Background(), 42, day(2024, time.March, 14))
	if err != nil {
		t.Fatalf("PeriodAt: %v", err)
	}
	if !period.Start.Equal(day(2024, time.March, 1)) {
		t.Errorf("period start = %v, want 2024-03-01", period.Start)
	}
	if !period.End.Equal(day(2024, time.April, 1)) {
		t.Errorf("period end = %v, want 2024-04-01", period.End)
	}
}

func TestPeriodService_UsesStoredSettings(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	svc := NewPeriodService(mem, mem, 3)

	if _, err := mem.CreateSettings(ctx, 7, core.Settings{
		CycleType:        core.CustomDay,
		PayDay:           core.IntPtr(25),
		CycleStartOffset: 0,
	}); err != nil {
		t.Fatalf("CreateSettings: %v", err)
	}

	period, err := svc.PeriodAt(ctx, 7, day(2024, time.March, 14))
	if err != nil {
		t.Fatalf("PeriodAt: %v", err)
	}
	if !period.Start.Equal(day(2024, time.February, 25)) {
		t.Errorf("period start = %v, want 2024-02-25", period.Start)
	}
	if !period.End.Equal(day(2024, time.March, 25)) {
		t.Errorf("period end = %v, want 2024-03-25", period.End)
	}
}

func TestPeriodService_PeriodsBetween(t *testing.T) {
	mem := memory.New()
	svc := NewPeriodService(mem, mem, 3)

	periods, err := svc.PeriodsBetween(context.Background(), 1, day(2024, time.January, 15), day(2024, time.April, 15))
	if err != nil {
		t.Fatalf("PeriodsBetween: %v", err)
	}
	if len(periods) != 4 {
		t.Fatalf("got %d periods, want 4", len(periods))
	}
	for i := 1; i < len(periods); i++ {
		if !periods[i].Start.Equal(periods[i-1].End) {
			t.Errorf("periods not contiguous at %d: %v vs %v", i, periods[i].Start, periods[i-1].End)
		}
	}

	if _, err := svc.PeriodsBetween(context.Background(), 1, day(2024, time.April, 1), day(2024, time.January, 1)); err == nil {
		t.Error("inverted range accepted")
	}
}

func TestPeriodService_Materialize(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	svc := NewPeriodService(mem, mem, 2)

	periods, err := svc.Materialize(ctx, 5, day(2024, time.March, 14))
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	// current period plus two future ones
	if len(periods) != 3 {
		t.Fatalf("materialized %d periods, want 3", len(periods))
	}
	if !periods[0].Start.Equal(day(2024, time.March, 1)) {
		t.Errorf("first period start = %v", periods[0].Start)
	}
	if !periods[2].End.Equal(day(2024, time.June, 1)) {
		t.Errorf("last period end = %v", periods[2].End)
	}

	stored, err := mem.ListPeriods(ctx, 5, day(2024, time.January, 1), day(2025, time.January, 1))
	if err != nil {
		t.Fatalf("ListPeriods: %v", err)
	}
	if len(stored) != 3 {
		t.Errorf("stored %d periods, want 3", len(stored))
	}

	if err := svc.Reset(ctx, 5); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	stored, err = mem.ListPeriods(ctx, 5, day(2024, time.January, 1), day(2025, time.January, 1))
	if err != nil {
		t.Fatalf("ListPeriods after reset: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("periods survived reset: %d", len(stored))
	}
}

func TestPeriodService_NilPeriodStore(t *testing.T) {
	mem := memory.New()
	svc := NewPeriodService(mem, nil, 3)

	periods, err := svc.Materialize(context.Background(), 1, day(2024, time.March, 14))
	if err != nil {
		t.Fatalf("Materialize without period store: %v", err)
	}
	if len(periods) != 4 {
		t.Errorf("materialized %d periods, want 4", len(periods))
	}
	if err := svc.Reset(context.Background(), 1); err != nil {
		t.Fatalf("Reset without period store: %v", err)
	}
}
