// Package scheduler runs the pipeline on an adaptive day/night cadence.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type TickFunc func(ctx context.Context) error

// Scheduler fires ticks at the daytime interval inside the configured
// hour window and at the nighttime interval otherwise. The window is
// re-evaluated after every tick, so the cadence changes at the first
// tick after a day/night boundary without restarting.
type Scheduler struct {
	dayStartHour  int
	dayEndHour    int
	dayInterval   time.Duration
	nightInterval time.Duration
	log           zerolog.Logger

	now func() time.Time
}

func New(dayStartHour, dayEndHour int, dayInterval, nightInterval time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		dayStartHour:  dayStartHour,
		dayEndHour:    dayEndHour,
		dayInterval:   dayInterval,
		nightInterval: nightInterval,
		log:           log,
		now:           time.Now,
	}
}

// Run fires the first tick immediately, then keeps ticking until the
// context is cancelled. Tick errors are logged and do not stop the loop.
func (s *Scheduler) Run(ctx context.Context, tick TickFunc) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			if err := tick(ctx); err != nil {
				s.log.Error().Err(err).Msg("tick failed")
			}
			next := s.interval(s.now())
			s.log.Debug().Dur("next_tick_in", next).Msg("tick rescheduled")
			timer.Reset(next)
		}
	}
}

func (s *Scheduler) interval(t time.Time) time.Duration {
	if h := t.Hour(); h >= s.dayStartHour && h < s.dayEndHour {
		return s.dayInterval
	}
	return s.nightInterval
}
