// Package cron runs the scheduled background jobs of the rental worker.
package cron

import (
	"context"
	"fmt"
	"time"

	robfig "github.com/robfig/cron/v3"
	"go.uber.org/multierr"

	"github.com/rentease/rentease-backend/pkg/logger"
	"github.com/rentease/rentease-backend/pkg/metrics"
)

const defaultSchedule = "@every 15m"

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Schedule string
}

// Service runs every registered job on each tick of a cron schedule.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.CronJobMetrics
	schedule robfig.Schedule
	now      func() time.Time
}

// ParseSchedule accepts standard five-field expressions and descriptors such as
// "@hourly" or "@every 15m".
func ParseSchedule(expr string) (robfig.Schedule, error) {
	if expr == "" {
		expr = defaultSchedule
	}
	schedule, err := robfig.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("parse cron schedule %q: %w", expr, err)
	}
	return schedule, nil
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	schedule, err := ParseSchedule(params.Schedule)
	if err != nil {
		return nil, err
	}
	registry := params.Registry
	if registry == nil {
		registry, _ = NewRegistry()
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		schedule: schedule,
		now:      time.Now,
	}, nil
}

// Run executes one cycle immediately and then one per scheduled activation until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	if err := s.runCycle(ctx); err != nil {
		s.logg.Error(ctx, "scheduled run failed", err)
	}
	for {
		next := s.schedule.Next(s.now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logg.Info(ctx, "cron service stopping")
			return ctx.Err()
		case <-timer.C:
			if err := s.runCycle(ctx); err != nil {
				s.logg.Error(ctx, "scheduled run failed", err)
			}
		}
	}
}

// runCycle runs every job even when earlier ones fail and returns their combined errors.
func (s *Service) runCycle(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.metrics.IncSkipped()
		s.logg.Info(ctx, "another worker holds the cron lock; skipping cycle")
		return nil
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "failed to release cron lock", relErr)
		}
	}()

	s.logg.Info(ctx, "scheduled run starting")
	var errs error
	for _, job := range s.registry.Jobs() {
		errs = multierr.Append(errs, s.runJob(ctx, job))
	}
	s.logg.Info(ctx, "scheduled run complete")
	return errs
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": job.Name(), "event": "cron.job"})
	s.logg.Info(jobCtx, "job start")

	started := s.now()
	err := job.Run(jobCtx)
	duration := s.now().Sub(started)
	s.metrics.ObserveDuration(job.Name(), duration)

	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		s.metrics.IncFailure(job.Name())
		return fmt.Errorf("%s: %w", job.Name(), err)
	}
	s.logg.Info(jobCtx, "job completed")
	s.metrics.IncSuccess(job.Name())
	return nil
}
