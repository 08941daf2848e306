package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"server/internal/domain"
)

func seedJob(t *testing.T, store *JobStore, id string, state domain.JobState) *domain.Job {
	t.Helper()
	job := &domain.Job{
		ID:      id,
		OwnerID: "owner-1",
		State:   state,
		Cost:    15,
		Config:  domain.VideoConfig{DurationSeconds: 5, AspectRatio: domain.AspectPortrait, Quality: domain.VideoQualityMedium},
	}
	if err := store.Create(context.Background(), job); err != nil {
		t.Fatalf("create job: %v", err)
	}
	return job
}

func TestUpdateAppliesMutator(t *testing.T) {
	store := NewJobStore()
	seedJob(t, store, "job-1", domain.JobStateProcessing)

	updated, err := store.Update(context.Background(), "job-1", func(j *domain.Job) error {
		j.Progress = 40
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Progress != 40 {
		t.Fatalf("progress = %d, want 40", updated.Progress)
	}
}

func TestUpdateRefusesTerminalJob(t *testing.T) {
	store := NewJobStore()
	seedJob(t, store, "job-done", domain.JobStateCompleted)

	_, err := store.Update(context.Background(), "job-done", func(j *domain.Job) error {
		j.Progress = 10
		return nil
	})
	if !errors.Is(err, domain.ErrJobTerminal) {
		t.Fatalf("err = %v, want ErrJobTerminal", err)
	}
}

func TestUpdateMutatorErrorLeavesJobUntouched(t *testing.T) {
	store := NewJobStore()
	seedJob(t, store, "job-2", domain.JobStateProcessing)

	boom := errors.New("boom")
	if _, err := store.Update(context.Background(), "job-2", func(j *domain.Job) error {
		j.Progress = 99
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want mutator error", err)
	}
	got, err := store.GetByID(context.Background(), "job-2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Progress != 0 {
		t.Fatalf("progress = %d, want 0 after failed mutation", got.Progress)
	}
}

func TestGetMissingJob(t *testing.T) {
	store := NewJobStore()
	if _, err := store.GetByID(context.Background(), "nope"); !errors.Is(err, domain.ErrJobNotFound) {
		t.Fatalf("err = %v, want ErrJobNotFound", err)
	}
}

func TestListByOwnerNewestFirst(t *testing.T) {
	store := NewJobStore()
	older := &domain.Job{ID: "job-a", OwnerID: "owner-1", State: domain.JobStateCompleted, CreatedAt: time.Now().Add(-time.Hour)}
	newer := &domain.Job{ID: "job-b", OwnerID: "owner-1", State: domain.JobStateProcessing, CreatedAt: time.Now()}
	other := &domain.Job{ID: "job-c", OwnerID: "owner-2", State: domain.JobStateProcessing, CreatedAt: time.Now()}
	for _, j := range []*domain.Job{older, newer, other} {
		if err := store.Create(context.Background(), j); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	jobs, err := store.ListByOwner(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("len = %d, want 2", len(jobs))
	}
	if jobs[0].ID != "job-b" || jobs[1].ID != "job-a" {
		t.Fatalf("order = %s,%s; want job-b,job-a", jobs[0].ID, jobs[1].ID)
	}
}

func TestListActiveExcludesTerminal(t *testing.T) {
	store := NewJobStore()
	seedJob(t, store, "job-p", domain.JobStateProcessing)
	seedJob(t, store, "job-c", domain.JobStateCompleted)
	seedJob(t, store, "job-f", domain.JobStateFailed)

	active, err := store.ListActive(context.Background())
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 || active[0].ID != "job-p" {
		t.Fatalf("active = %+v, want only job-p", active)
	}
}
