package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"server/internal/domain"
)

// JobStore implements domain.JobRepository in memory. Update holds the
// store lock for the duration of the mutator, serializing per-job mutation.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*domain.Job
}

func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*domain.Job)}
}

func (s *JobStore) Create(ctx context.Context, job *domain.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	cp := *job
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	s.jobs[cp.ID] = &cp
	*job = cp
	return nil
}

func (s *JobStore) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

func (s *JobStore) Update(ctx context.Context, id string, mutate func(*domain.Job) error) (*domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	if job.State.Terminal() {
		return nil, domain.ErrJobTerminal
	}
	cp := *job
	if err := mutate(&cp); err != nil {
		return nil, err
	}
	cp.UpdatedAt = time.Now().UTC()
	s.jobs[id] = &cp
	out := cp
	return &out, nil
}

func (s *JobStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Job
	for _, job := range s.jobs {
		if job.OwnerID == ownerID {
			out = append(out, *job)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *JobStore) ListActive(ctx context.Context) ([]domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Job
	for _, job := range s.jobs {
		if !job.State.Terminal() {
			out = append(out, *job)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *JobStore) ListAll(ctx context.Context) ([]domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, *job)
	}
	sortNewestFirst(out)
	return out, nil
}

// sortNewestFirst orders by creation time, falling back to the time-ordered
// job ID so listings stay stable within a timestamp tick.
func sortNewestFirst(jobs []domain.Job) {
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].ID > jobs[j].ID
		}
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
}

var _ domain.JobRepository = (*JobStore)(nil)
