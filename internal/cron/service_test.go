package cron

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rentease/rentease-backend/pkg/logger"
	"github.com/rentease/rentease-backend/pkg/metrics"
)

type fakeLock struct {
	held     bool
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.releases++
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func newTestService(t *testing.T, lock Lock, jobs ...Job) *Service {
	t.Helper()
	registry, err := NewRegistry(jobs...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	svc, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.NewRegistry()),
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return svc
}

func TestRunCycleRunsAllJobsAndCombinesErrors(t *testing.T) {
	ok := &testJob{name: "ok"}
	first := &testJob{name: "first", err: errors.New("boom")}
	second := &testJob{name: "second", err: errors.New("bang")}
	lock := &fakeLock{}
	svc := newTestService(t, lock, first, ok, second)

	err := svc.runCycle(context.Background())
	if err == nil {
		t.Fatal("expected combined error")
	}
	for _, want := range []string{"first: boom", "second: bang"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err, want)
		}
	}
	if ok.runs != 1 || first.runs != 1 || second.runs != 1 {
		t.Fatalf("expected every job to run once, got ok=%d first=%d second=%d", ok.runs, first.runs, second.runs)
	}
	if lock.held || lock.releases != 1 {
		t.Fatalf("lock not released: held=%v releases=%d", lock.held, lock.releases)
	}
}

func TestRunCycleSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "job"}
	svc := newTestService(t, &fakeLock{held: true}, job)

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("job ran without the lock")
	}
}

func TestParseSchedule(t *testing.T) {
	schedule, err := ParseSchedule("")
	if err != nil {
		t.Fatalf("default schedule: %v", err)
	}
	from := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if next := schedule.Next(from); !next.Equal(from.Add(15 * time.Minute)) {
		t.Fatalf("unexpected next activation %s", next)
	}

	hourly, err := ParseSchedule("0 * * * *")
	if err != nil {
		t.Fatalf("hourly schedule: %v", err)
	}
	if next := hourly.Next(from.Add(time.Minute)); !next.Equal(from.Add(time.Hour)) {
		t.Fatalf("unexpected hourly activation %s", next)
	}

	if _, err := ParseSchedule("not a schedule"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "job"}
	svc := newTestService(t, &fakeLock{}, job)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := svc.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if job.runs != 1 {
		t.Fatalf("expected the immediate cycle to run once, got %d", job.runs)
	}
}
