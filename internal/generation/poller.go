package generation

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"server/internal/domain"
	"server/internal/engine"
	"server/internal/infra"
)

const (
	// enginePollIncrement is added while an engine operation is pending.
	enginePollIncrement = 5
	// enginePollCeiling caps progress until the provider confirms completion.
	enginePollCeiling = 90

	defaultPollTimeout = 20 * time.Second
)

// Poller advances a single job by querying the engine, or by deterministic
// local simulation when the job carries no operation handle. Checking a
// terminal job is a no-op.
type Poller struct {
	jobs   domain.JobRepository
	engine engine.Client
	logger infra.Logger

	pollTimeout time.Duration
	// increment supplies the simulated-path progress step; injectable for
	// deterministic tests.
	increment func() int
}

// PollerOptions bundles the poller's collaborators.
type PollerOptions struct {
	Jobs        domain.JobRepository
	Engine      engine.Client
	Logger      infra.Logger
	PollTimeout time.Duration
	Increment   func() int
}

func NewPoller(opts PollerOptions) *Poller {
	timeout := opts.PollTimeout
	if timeout <= 0 {
		timeout = defaultPollTimeout
	}
	inc := opts.Increment
	if inc == nil {
		inc = func() int { return rand.Intn(10) + 2 }
	}
	return &Poller{
		jobs:        opts.Jobs,
		engine:      opts.Engine,
		logger:      opts.Logger,
		pollTimeout: timeout,
		increment:   inc,
	}
}

// Check advances the job one step and returns the refreshed record. The
// engine poll runs before any job lock is taken; all persistence goes
// through the store's atomic read-modify-write, so concurrent checks on the
// same job cannot corrupt state or move progress backwards.
func (p *Poller) Check(ctx context.Context, jobID string) (*domain.Job, error) {
	job, err := p.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.State.Terminal() {
		return job, nil
	}

	if job.EngineHandle != "" && p.engine != nil {
		return p.checkEngine(ctx, job)
	}
	return p.checkSimulated(ctx, job)
}

func (p *Poller) checkEngine(ctx context.Context, job *domain.Job) (*domain.Job, error) {
	pollCtx, cancel := context.WithTimeout(ctx, p.pollTimeout)
	res, err := p.engine.Poll(pollCtx, job.EngineHandle)
	cancel()
	if err != nil {
		// Transient poll errors are swallowed; the next tick retries.
		p.logger.Warn().Err(err).Str("job_id", job.ID).Msg("generation: engine poll failed, will retry")
		return job, nil
	}

	switch {
	case !res.Done:
		return p.apply(ctx, job.ID, func(j *domain.Job) error {
			j.Progress = clampProgress(j.Progress+enginePollIncrement, enginePollCeiling)
			return nil
		})
	case res.Failed:
		p.logger.Info().Str("job_id", job.ID).Msg("generation: engine reported failure")
		return p.apply(ctx, job.ID, func(j *domain.Job) error {
			j.State = domain.JobStateFailed
			j.FailureReason = domain.ErrEngineOperationFailed.Error()
			return nil
		})
	default:
		p.logger.Info().Str("job_id", job.ID).Msg("generation: engine operation completed")
		return p.apply(ctx, job.ID, func(j *domain.Job) error {
			j.State = domain.JobStateCompleted
			j.Progress = 100
			j.ResultURI = res.ResultURI
			return nil
		})
	}
}

func (p *Poller) checkSimulated(ctx context.Context, job *domain.Job) (*domain.Job, error) {
	step := p.increment()
	if step < 1 {
		step = 1
	}
	return p.apply(ctx, job.ID, func(j *domain.Job) error {
		next := j.Progress + step
		if next >= 100 {
			j.State = domain.JobStateCompleted
			j.Progress = 100
			j.ResultURI = engine.DemoResultURI
			return nil
		}
		j.Progress = clampProgress(next, 99)
		return nil
	})
}

// apply runs the mutation through the store. Losing the race to a competing
// check that finished the job first is not an error; the terminal record is
// returned as-is.
func (p *Poller) apply(ctx context.Context, jobID string, mutate func(*domain.Job) error) (*domain.Job, error) {
	job, err := p.jobs.Update(ctx, jobID, mutate)
	if err != nil {
		if errors.Is(err, domain.ErrJobTerminal) {
			return p.jobs.GetByID(ctx, jobID)
		}
		return nil, err
	}
	return job, nil
}

// clampProgress keeps progress monotone and below the given ceiling.
func clampProgress(next, ceiling int) int {
	if next > ceiling {
		return ceiling
	}
	return next
}
