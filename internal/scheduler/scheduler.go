// Package scheduler runs the daily digest job at the configured local time.
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"campusdigest/internal/service"
)

type Scheduler struct {
	cron   *cron.Cron
	runner *service.Runner
	logger *zap.Logger
}

// New builds a cron scheduler in the digest timezone.
func New(runner *service.Runner, loc *time.Location, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		runner: runner,
		logger: logger,
	}
}

// parseScheduleTime splits "HH:MM" into its cron fields.
func parseScheduleTime(scheduleTime string) (hour, minute int, err error) {
	parts := strings.SplitN(strings.TrimSpace(scheduleTime), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("schedule time %q is not HH:MM", scheduleTime)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("schedule time %q has a bad hour", scheduleTime)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("schedule time %q has a bad minute", scheduleTime)
	}
	return hour, minute, nil
}

// Start registers the daily job and starts the cron loop.
func (s *Scheduler) Start(scheduleTime string) error {
	hour, minute, err := parseScheduleTime(scheduleTime)
	if err != nil {
		return err
	}

	spec := fmt.Sprintf("%d %d * * *", minute, hour)
	_, err = s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		s.logger.Info("scheduled digest run starting")
		result, err := s.runner.RunNow(ctx)
		if err != nil {
			s.logger.Error("scheduled digest run failed", zap.Error(err))
			return
		}
		s.logger.Info("scheduled digest run finished",
			zap.String("digest_id", result.Digest.ID),
			zap.Bool("push_sent", result.PushSent),
		)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("daily digest scheduled", zap.String("time", scheduleTime))
	return nil
}

// Stop halts the cron loop without waiting for a running job.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
