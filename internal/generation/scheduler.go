package generation

import (
	"context"
	"errors"
	"sync"
	"time"

	"server/internal/domain"
	"server/internal/infra"
)

const defaultTickInterval = 3 * time.Second

// Scheduler owns the server-side polling loop. It tracks every non-terminal
// job and ticks each one on an interval, so a job keeps progressing whether
// or not any client is watching it. Jobs leave the active set when they
// reach a terminal state.
type Scheduler struct {
	poller   *Poller
	jobs     domain.JobRepository
	logger   infra.Logger
	interval time.Duration

	mu     sync.Mutex
	active map[string]struct{}
}

// SchedulerOptions bundles the scheduler's collaborators.
type SchedulerOptions struct {
	Poller   *Poller
	Jobs     domain.JobRepository
	Logger   infra.Logger
	Interval time.Duration
}

func NewScheduler(opts SchedulerOptions) *Scheduler {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultTickInterval
	}
	return &Scheduler{
		poller:   opts.Poller,
		jobs:     opts.Jobs,
		logger:   opts.Logger,
		interval: interval,
		active:   make(map[string]struct{}),
	}
}

// Watch registers a job with the polling loop.
func (s *Scheduler) Watch(jobID string) {
	if jobID == "" {
		return
	}
	s.mu.Lock()
	s.active[jobID] = struct{}{}
	s.mu.Unlock()
}

// ActiveCount returns the number of tracked jobs.
func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Resume re-hydrates the active set from the store, picking up jobs that
// were in flight when the process last stopped.
func (s *Scheduler) Resume(ctx context.Context) error {
	jobs, err := s.jobs.ListActive(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	for _, job := range jobs {
		s.active[job.ID] = struct{}{}
	}
	count := len(s.active)
	s.mu.Unlock()
	if count > 0 {
		s.logger.Info().Int("jobs", count).Msg("scheduler: resumed active jobs")
	}
	return nil
}

// Run ticks every active job until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.logger.Info().Dur("interval", s.interval).Msg("scheduler: started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	for _, jobID := range s.snapshot() {
		job, err := s.poller.Check(ctx, jobID)
		if err != nil {
			if errors.Is(err, domain.ErrJobNotFound) {
				s.forget(jobID)
				continue
			}
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Str("job_id", jobID).Msg("scheduler: check failed")
			continue
		}
		if job.State.Terminal() {
			s.forget(jobID)
			s.logger.Info().
				Str("job_id", jobID).
				Str("state", string(job.State)).
				Msg("scheduler: job finished")
		}
	}
}

// Tick advances each tracked job once; used by tests and cmd/poller.
func (s *Scheduler) Tick(ctx context.Context) {
	s.tick(ctx)
}

func (s *Scheduler) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.active))
	for id := range s.active {
		out = append(out, id)
	}
	return out
}

func (s *Scheduler) forget(jobID string) {
	s.mu.Lock()
	delete(s.active, jobID)
	s.mu.Unlock()
}

var _ Watcher = (*Scheduler)(nil)
