// Package generation owns the job lifecycle: the Orchestrator validates and
// prices a submission, the Poller advances a job toward a terminal state,
// and the Scheduler ticks every active job server-side.
package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"server/internal/domain"
	"server/internal/engine"
	"server/internal/infra"
	"server/internal/pricing"
	"server/internal/storage"
)

const defaultSubmitTimeout = 30 * time.Second

// Watcher is notified when a new job should be tracked by the poll loop.
type Watcher interface {
	Watch(jobID string)
}

// Orchestrator coordinates submission: account resolution, server-side cost
// computation, the ledger debit, the engine launch, and job persistence. No
// other path creates a job.
type Orchestrator struct {
	accounts domain.AccountRepository
	jobs     domain.JobRepository
	engine   engine.Client
	assets   *storage.FileStore
	watcher  Watcher
	logger   infra.Logger

	submitTimeout time.Duration
}

// OrchestratorOptions bundles the orchestrator's collaborators. Assets and
// Watcher are optional.
type OrchestratorOptions struct {
	Accounts      domain.AccountRepository
	Jobs          domain.JobRepository
	Engine        engine.Client
	Assets        *storage.FileStore
	Watcher       Watcher
	Logger        infra.Logger
	SubmitTimeout time.Duration
}

func NewOrchestrator(opts OrchestratorOptions) *Orchestrator {
	timeout := opts.SubmitTimeout
	if timeout <= 0 {
		timeout = defaultSubmitTimeout
	}
	return &Orchestrator{
		accounts:      opts.Accounts,
		jobs:          opts.Jobs,
		engine:        opts.Engine,
		assets:        opts.Assets,
		watcher:       opts.Watcher,
		logger:        opts.Logger,
		submitTimeout: timeout,
	}
}

// Submit validates the request, charges the account, launches the engine
// operation, and persists the job in the processing state.
//
// An engine launch failure after the debit does not abort the request: the
// coins are already committed, so the job proceeds without a handle and the
// poller advances it in simulated mode. The debit is not refunded.
func (o *Orchestrator) Submit(ctx context.Context, accountID string, req domain.GenerationRequest) (*domain.Job, error) {
	account, err := o.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.Suspended {
		return nil, domain.ErrAccountSuspended
	}

	cfg, motion, err := normalizeRequest(req)
	if err != nil {
		return nil, err
	}

	cost := pricing.Cost(cfg, req.ReferenceKey != "")
	balance, err := o.accounts.Debit(ctx, accountID, cost)
	if err != nil {
		return nil, err
	}
	o.logger.Info().
		Str("account_id", accountID).
		Int("cost", cost).
		Int("balance", balance).
		Msg("generation: debited submission cost")

	handle := o.launchEngine(ctx, req, cfg, motion)

	job := &domain.Job{
		ID:            newJobID(),
		OwnerID:       accountID,
		State:         domain.JobStateProcessing,
		Progress:      0,
		Cost:          cost,
		Config:        cfg,
		MotionID:      req.MotionID,
		InputImageKey: req.InputImageKey,
		ReferenceKey:  req.ReferenceKey,
		EngineHandle:  handle,
		CreatedAt:     time.Now().UTC(),
	}
	if err := o.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("persist job: %w", err)
	}
	if o.watcher != nil {
		o.watcher.Watch(job.ID)
	}

	o.logger.Info().
		Str("job_id", job.ID).
		Str("account_id", accountID).
		Bool("engine_backed", handle != "").
		Msg("generation: job submitted")
	return job, nil
}

// launchEngine attempts the provider submission with a bounded timeout. A
// failure returns an empty handle; the job then runs in simulated mode.
func (o *Orchestrator) launchEngine(ctx context.Context, req domain.GenerationRequest, cfg domain.VideoConfig, motion domain.MotionTemplate) string {
	if o.engine == nil {
		return ""
	}
	subCtx, cancel := context.WithTimeout(ctx, o.submitTimeout)
	defer cancel()

	var imageBytes []byte
	if o.assets != nil && req.InputImageKey != "" {
		data, err := o.assets.Read(subCtx, req.InputImageKey)
		if err != nil {
			o.logger.Warn().Err(err).Str("key", req.InputImageKey).Msg("generation: input image unavailable")
		} else {
			imageBytes = data
		}
	}

	handle, err := o.engine.Submit(subCtx, engine.SubmitRequest{
		ImageBytes:  imageBytes,
		ImageMIME:   "image/png",
		Prompt:      buildPrompt(motion, req.ReferenceKey != ""),
		AspectRatio: cfg.AspectRatio,
	})
	if err != nil {
		// The account is already charged; degrade to simulated progress
		// instead of failing the whole request.
		o.logger.Warn().Err(err).Msg("generation: engine launch failed, continuing without handle")
		return ""
	}
	return handle
}

// normalizeRequest validates the submission and fills defaults from the
// motion template.
func normalizeRequest(req domain.GenerationRequest) (domain.VideoConfig, domain.MotionTemplate, error) {
	motion, ok := domain.FindMotion(req.MotionID)
	if req.MotionID != "" && !ok {
		return domain.VideoConfig{}, domain.MotionTemplate{}, fmt.Errorf("unknown motion template %q: %w", req.MotionID, ErrInvalidRequest)
	}

	cfg := req.Config
	if cfg.DurationSeconds <= 0 {
		if motion.DurationSeconds > 0 {
			cfg.DurationSeconds = motion.DurationSeconds
		} else {
			cfg.DurationSeconds = 5
		}
	}
	if cfg.Quality == "" {
		cfg.Quality = domain.VideoQualityMedium
	}
	if cfg.AspectRatio == "" {
		cfg.AspectRatio = domain.AspectPortrait
	}
	if !cfg.AspectRatio.Valid() {
		return domain.VideoConfig{}, domain.MotionTemplate{}, fmt.Errorf("unsupported aspect ratio %q: %w", cfg.AspectRatio, ErrInvalidRequest)
	}
	switch cfg.Quality {
	case domain.VideoQualityLow, domain.VideoQualityMedium, domain.VideoQualityHigh:
	default:
		return domain.VideoConfig{}, domain.MotionTemplate{}, fmt.Errorf("unsupported quality %q: %w", cfg.Quality, ErrInvalidRequest)
	}
	return cfg, motion, nil
}

// ErrInvalidRequest marks submissions rejected before any debit occurs.
var ErrInvalidRequest = errors.New("invalid generation request")

func buildPrompt(motion domain.MotionTemplate, hasReference bool) string {
	if hasReference {
		return "Cinematic video, character motion transfer, high quality, 4k. Style matching the reference image."
	}
	if motion.Name != "" {
		return fmt.Sprintf("Cinematic dance video, %s (%s), high quality, 4k", motion.Name, motion.Category)
	}
	return "Cinematic video, high quality, 4k"
}

// newJobID returns a time-ordered UUID so job IDs sort by creation.
func newJobID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
