package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"legalport/config"
)

const jobTimeout = 30 * time.Second

// PresenceSweeper flips users offline whose heartbeat went stale.
type PresenceSweeper interface {
	SweepStale(ctx context.Context) (int, error)
}

// Scheduler runs periodic background jobs.
type Scheduler struct {
	cron     *cron.Cron
	presence PresenceSweeper
	cfg      config.PresenceConfig
	logger   *zap.Logger
}

func NewScheduler(presence PresenceSweeper, cfg config.PresenceConfig, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		presence: presence,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start registers every job and starts the cron runner.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.SweepSchedule, s.sweepPresence); err != nil {
		return fmt.Errorf("failed to register presence sweep %q: %w", s.cfg.SweepSchedule, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("presenceSweep", s.cfg.SweepSchedule))
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) sweepPresence() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.presence.SweepStale(ctx)
	if err != nil {
		s.logger.Error("presence sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("marked stale users offline", zap.Int("count", n), zap.Duration("staleAfter", s.cfg.StaleAfter))
	}
}
