package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler runs periodic jobs on a UTC cron.
type Scheduler struct {
	cron       *cron.Cron
	spec       string
	reportFunc func(ctx context.Context) error
	log        logrus.FieldLogger
}

// New creates a scheduler that runs the daily report on spec. An empty spec
// disables it.
func New(spec string, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
		spec: spec,
		log:  log,
	}
}

func (s *Scheduler) SetReportFunction(f func(ctx context.Context) error) {
	s.reportFunc = f
}

// Run registers the jobs, starts the cron and blocks until ctx is done.
// Running jobs get ctx and are waited for on shutdown.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.spec == "" || s.reportFunc == nil {
		s.log.Warn("daily report disabled")
		<-ctx.Done()
		return nil
	}

	_, err := s.cron.AddFunc(s.spec, func() {
		s.log.Info("daily report triggered")
		if err := s.reportFunc(ctx); err != nil {
			s.log.WithError(err).Error("daily report failed")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule daily report %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.log.WithField("spec", s.spec).Info("scheduler started")

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
	return nil
}

// IsRunning reports whether any job is registered.
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}
