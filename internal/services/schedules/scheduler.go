package schedules

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/igtmtakan/pyspiderNx-sub000/pkg/config"
	"github.com/igtmtakan/pyspiderNx-sub000/pkg/logging"
)

// Scheduler polls for due schedules on a fixed cron interval and
// dispatches them.
type Scheduler struct {
	cron   *cron.Cron
	svc    Service
	logger *zap.Logger
}

func NewScheduler(cfg config.SchedulerConfig, svc Service, logger *zap.Logger) (*Scheduler, error) {
	cronLogger := logging.NewCronLogger(logger.Named("cron"))
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	s := &Scheduler{cron: c, svc: svc, logger: logger}
	if _, err := c.AddFunc(cfg.Interval, s.tick); err != nil {
		return nil, fmt.Errorf("failed to register scheduler interval %q: %w", cfg.Interval, err)
	}
	return s, nil
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if _, err := s.svc.Dispatch(ctx, time.Now()); err != nil {
		s.logger.Warn("scheduler tick finished with errors", zap.Error(err))
	}
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running tick to finish or for
// ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.logger.Info("Stopping scheduler...")
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
