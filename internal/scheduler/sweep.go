// SPDX-License-Identifier: AGPL-3.0-only
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/hli-yohan-lee/dev-mcp/internal/logging"
)

// NonceSweepJob is the job name used for the replay-cache sweep
const NonceSweepJob = "nonce-sweep"

// Sweeper removes expired entries as of now and reports how many went
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// SweepNonces returns a Job that expires old nonces from store
func SweepNonces(store Sweeper, now func() time.Time, logger *logging.Logger) Job {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context) error {
		removed, err := store.Sweep(ctx, now())
		if err != nil {
			return fmt.Errorf("sweep nonces: %w", err)
		}
		if removed > 0 {
			logger.Debugf("Swept %d expired nonces", removed)
		}
		return nil
	}
}

// ScheduleNonceSweep registers the sweep when schedule is non-empty
func (s *Scheduler) ScheduleNonceSweep(schedule string, store Sweeper) error {
	if schedule == "" {
		return nil
	}
	return s.AddJob(NonceSweepJob, schedule, SweepNonces(store, time.Now, s.logger))
}
