// SPDX-License-Identifier: AGPL-3.0-only
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hli-yohan-lee/dev-mcp/internal/errors"
	"github.com/hli-yohan-lee/dev-mcp/internal/logging"
)

// JobTimeout bounds a single run of a maintenance job
const JobTimeout = 30 * time.Second

// Job is a named maintenance function run on a cron schedule
type Job func(ctx context.Context) error

// Scheduler runs maintenance jobs such as nonce sweeps
type Scheduler struct {
	cron     *cron.Cron
	entryIDs map[string]cron.EntryID
	mu       sync.RWMutex
	logger   *logging.Logger
}

// NewScheduler creates a new scheduler instance. Schedules accept an
// optional leading seconds field and descriptors such as @every 1m.
func NewScheduler(logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.GetDefaultLogger()
	}
	c := cron.New(
		cron.WithParser(cron.NewParser(
			cron.SecondOptional|cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)),
		cron.WithChain(
			cron.Recover(cron.DefaultLogger),
		),
	)
	return &Scheduler{
		cron:     c,
		entryIDs: make(map[string]cron.EntryID),
		logger:   logger,
	}
}

// Start begins the scheduler and stops it when ctx is done
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// Stop halts the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// AddJob schedules job under name
func (s *Scheduler) AddJob(name, schedule string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entryIDs[name]; exists {
		return errors.AlreadyExists("job", name)
	}

	entryID, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), JobTimeout)
		defer cancel()
		if err := job(ctx); err != nil {
			s.logger.Errorf("Job %s failed: %v", name, err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}
	s.entryIDs[name] = entryID
	s.logger.Infof("Scheduled job %s (%s)", name, schedule)
	return nil
}

// RemoveJob unschedules the job called name
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, exists := s.entryIDs[name]
	if !exists {
		return errors.NotFound("job", name)
	}
	s.cron.Remove(entryID)
	delete(s.entryIDs, name)
	return nil
}

// NextRun returns when the job called name runs next. The zero time is
// returned before Start.
func (s *Scheduler) NextRun(name string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entryID, exists := s.entryIDs[name]
	if !exists {
		return time.Time{}, errors.NotFound("job", name)
	}
	return s.cron.Entry(entryID).Next, nil
}

// Jobs returns the names of all scheduled jobs
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.entryIDs))
	for name := range s.entryIDs {
		names = append(names, name)
	}
	return names
}
