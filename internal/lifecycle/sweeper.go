// Package lifecycle runs the periodic expiry sweep.
package lifecycle

import (
	"context"
	"log/slog"
	"time"
)

// DefaultInterval is how often expired rooms are swept.
const DefaultInterval = time.Minute

// Expirer removes expired rooms and reports how many went.
type Expirer interface {
	SweepExpired(ctx context.Context) int
}

// Sweeper calls an Expirer on a fixed interval until its context ends.
type Sweeper struct {
	target   Expirer
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper constructs a sweeper. A non-positive interval selects DefaultInterval.
func NewSweeper(target Expirer, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{target: target, interval: interval, logger: logger.With("component", "sweeper")}
}

// Run sweeps once immediately, then on every tick. It returns when ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.DebugContext(ctx, "sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	if n := s.target.SweepExpired(ctx); n > 0 {
		s.logger.InfoContext(ctx, "swept expired rooms", "count", n)
	}
}
