// SPDX-License-Identifier: AGPL-3.0-only
package scheduler

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hli-yohan-lee/dev-mcp/internal/auth"
	"github.com/hli-yohan-lee/dev-mcp/internal/errors"
	"github.com/hli-yohan-lee/dev-mcp/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.New(logging.Options{Output: io.Discard, Level: logging.Fatal})
}

func TestNewScheduler(t *testing.T) {
	s := NewScheduler(testLogger())
	if s == nil {
		t.Fatal("NewScheduler() returned nil")
	}
	if s.cron == nil {
		t.Error("Scheduler.cron is nil")
	}
	if s.entryIDs == nil {
		t.Error("Scheduler.entryIDs is nil")
	}
}

func TestAddRemoveJob(t *testing.T) {
	s := NewScheduler(testLogger())
	noop := func(context.Context) error { return nil }

	if err := s.AddJob("a", "@every 1m", noop); err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	if err := s.AddJob("a", "@every 1m", noop); !errors.Is(err, errors.KindAlreadyExists) {
		t.Errorf("duplicate AddJob err = %v", err)
	}
	if err := s.AddJob("b", "not a schedule", noop); err == nil {
		t.Error("expected error for invalid schedule")
	}
	if got := s.Jobs(); len(got) != 1 || got[0] != "a" {
		t.Errorf("Jobs = %v", got)
	}

	if err := s.RemoveJob("a"); err != nil {
		t.Fatalf("RemoveJob: %v", err)
	}
	if err := s.RemoveJob("a"); !errors.Is(err, errors.KindNotFound) {
		t.Errorf("second RemoveJob err = %v", err)
	}
	if _, err := s.NextRun("a"); !errors.Is(err, errors.KindNotFound) {
		t.Errorf("NextRun err = %v", err)
	}
}

func TestJobRuns(t *testing.T) {
	s := NewScheduler(testLogger())
	var runs int32
	done := make(chan struct{}, 1)
	err := s.AddJob("tick", "* * * * * *", func(context.Context) error {
		if atomic.AddInt32(&runs, 1) == 1 {
			done <- struct{}{}
		}
		return fmt.Errorf("failures are logged, not fatal")
	})
	if err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	next, err := s.NextRun("tick")
	if err != nil || next.IsZero() {
		t.Errorf("NextRun = %v, %v", next, err)
	}

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run within 3s")
	}
}

func TestSweepNoncesJob(t *testing.T) {
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store, err := auth.NewMemoryNonceStore(100, 300*time.Second, auth.WithClock(func() time.Time { return base }))
	if err != nil {
		t.Fatalf("NewMemoryNonceStore: %v", err)
	}
	ctx := context.Background()
	if _, err := store.Insert(ctx, "old", base.Add(-10*time.Minute)); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Insert(ctx, "fresh", base); err != nil {
		t.Fatal(err)
	}

	job := SweepNonces(store, func() time.Time { return base }, testLogger())
	if err := job(ctx); err != nil {
		t.Fatalf("job: %v", err)
	}
	if n, _ := store.Len(ctx); n != 1 {
		t.Errorf("Len = %d, want 1", n)
	}
	if ok, _ := store.Exists(ctx, "fresh"); !ok {
		t.Error("fresh nonce was swept")
	}
}

type failingSweeper struct{}

func (failingSweeper) Sweep(context.Context, time.Time) (int, error) {
	return 0, fmt.Errorf("redis down")
}

func TestScheduleNonceSweep(t *testing.T) {
	s := NewScheduler(testLogger())
	if err := s.ScheduleNonceSweep("", failingSweeper{}); err != nil || len(s.Jobs()) != 0 {
		t.Errorf("empty schedule should register nothing, jobs=%v err=%v", s.Jobs(), err)
	}
	if err := s.ScheduleNonceSweep("@every 5m", failingSweeper{}); err != nil {
		t.Fatalf("ScheduleNonceSweep: %v", err)
	}
	if got := s.Jobs(); len(got) != 1 || got[0] != NonceSweepJob {
		t.Errorf("Jobs = %v", got)
	}
	if err := SweepNonces(failingSweeper{}, nil, testLogger())(context.Background()); err == nil {
		t.Error("expected sweep error")
	}
}
