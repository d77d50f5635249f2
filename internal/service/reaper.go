package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Reaper ends matches that have seen no command for longer than the idle
// timeout.
type Reaper struct {
	svc      *MatchService
	timeout  time.Duration
	interval time.Duration
}

// NewReaper creates a Reaper. The sweep interval is a tenth of the timeout,
// clamped to [1s, 1m].
func NewReaper(svc *MatchService, timeout time.Duration) *Reaper {
	interval := min(max(timeout/10, time.Second), time.Minute)
	return &Reaper{svc: svc, timeout: timeout, interval: interval}
}

// Start sweeps until ctx is cancelled.
func (r *Reaper) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.Info().Dur("timeout", r.timeout).Dur("interval", r.interval).Msg("Idle match reaper started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Idle match reaper stopped")
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) {
	if n := r.svc.ReapIdle(ctx, r.svc.now().Add(-r.timeout)); n > 0 {
		log.Info().Int("count", n).Int("live", r.svc.Count()).Msg("Reaped idle matches")
	}
}
