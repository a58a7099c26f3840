package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/melalfey/schoolos-admin-portal/internal/storage"
)

// Scheduler periodically drops persisted sessions older than the configured
// lifetime from backends that cannot expire keys themselves.
type Scheduler struct {
	cron     *cron.Cron
	sweeper  storage.Sweeper
	schedule string
	lifetime time.Duration
	log      zerolog.Logger
}

func NewScheduler(sweeper storage.Sweeper, schedule string, lifetime time.Duration, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:     c,
		sweeper:  sweeper,
		schedule: schedule,
		lifetime: lifetime,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if s.sweeper == nil || s.lifetime <= 0 {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.sweep); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the schedule. The returned context is done once a sweep in
// progress has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := s.sweeper.Sweep(ctx, s.lifetime)
	if err != nil {
		s.log.Error().Err(err).Msg("session sweep failed")
		return
	}
	if removed > 0 {
		s.log.Info().Int("removed", removed).Msg("stale sessions swept")
	}
}
