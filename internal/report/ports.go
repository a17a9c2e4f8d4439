// Package report defines the outbound port for the rollover report, an
// append-only audit trail of recomputed period boundaries.
package report

import (
	"context"
	"time"

	"paycycle/internal/core"
)

// RolloverEntry is one recorded period recomputation.
type RolloverEntry struct {
	UserID    int64
	CycleType core.CycleType
	Start     time.Time
	End       time.Time
	RolledAt  time.Time
}

// Writer appends rollover entries to a report sink.
type Writer interface {
	AppendRollover(ctx context.Context, entry RolloverEntry) error
}
