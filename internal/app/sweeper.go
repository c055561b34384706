package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/metrics"
)

// expirer is anything the sweeper can ask to reclaim expired state.
type expirer interface {
	SweepExpired(ctx context.Context) (int, error)
}

// Sweeper periodically reclaims expired checkout sessions and carts. Sweeps
// are idempotent and safe to race with lazy expiry and with Complete, so
// running them on a timer is enough.
type Sweeper struct {
	sessions expirer
	carts    expirer
	interval time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

const defaultSweepInterval = time.Minute

func NewSweeper(sessions, carts expirer, interval time.Duration, logger *slog.Logger, m *metrics.Metrics) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		sessions: sessions,
		carts:    carts,
		interval: interval,
		logger:   logger,
		metrics:  m,
	}
}

// Run blocks until the context is cancelled, sweeping once per interval.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs one pass. Errors are logged, not fatal: the next tick
// retries.
func (s *Sweeper) Sweep(ctx context.Context) {
	if s.metrics != nil {
		s.metrics.SweepRuns.Inc()
	}

	if n, err := s.sessions.SweepExpired(ctx); err != nil {
		s.logger.ErrorContext(ctx, "session sweep failed", "error", err, "swept", n)
	} else if n > 0 {
		s.logger.InfoContext(ctx, "expired checkout sessions released", "count", n)
	}

	if n, err := s.carts.SweepExpired(ctx); err != nil {
		s.logger.ErrorContext(ctx, "cart sweep failed", "error", err, "swept", n)
	} else if n > 0 {
		s.logger.InfoContext(ctx, "expired carts cleared", "count", n)
	}
}
