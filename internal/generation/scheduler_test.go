package generation

import (
	"context"
	"testing"

	"server/internal/adapter/memory"
	"server/internal/domain"
)

func TestSchedulerDropsFinishedJobs(t *testing.T) {
	jobs := memory.NewJobStore()
	poller := NewPoller(PollerOptions{
		Jobs:      jobs,
		Logger:    testLogger(),
		Increment: func() int { return 50 },
	})
	sched := NewScheduler(SchedulerOptions{Poller: poller, Jobs: jobs, Logger: testLogger()})

	job := &domain.Job{ID: "job-tick", OwnerID: "owner-1", State: domain.JobStateProcessing}
	if err := jobs.Create(context.Background(), job); err != nil {
		t.Fatalf("create: %v", err)
	}
	sched.Watch(job.ID)
	if sched.ActiveCount() != 1 {
		t.Fatalf("active = %d, want 1", sched.ActiveCount())
	}

	// 50 + 50 reaches 100 on the second tick.
	sched.Tick(context.Background())
	sched.Tick(context.Background())

	got, err := jobs.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State != domain.JobStateCompleted {
		t.Fatalf("state = %s, want completed", got.State)
	}
	if sched.ActiveCount() != 0 {
		t.Fatalf("active = %d, want 0 after completion", sched.ActiveCount())
	}
}

func TestSchedulerResumePicksUpActiveJobs(t *testing.T) {
	jobs := memory.NewJobStore()
	poller := NewPoller(PollerOptions{Jobs: jobs, Logger: testLogger()})
	sched := NewScheduler(SchedulerOptions{Poller: poller, Jobs: jobs, Logger: testLogger()})

	active := &domain.Job{ID: "job-a", State: domain.JobStateProcessing}
	done := &domain.Job{ID: "job-b", State: domain.JobStateCompleted}
	for _, j := range []*domain.Job{active, done} {
		if err := jobs.Create(context.Background(), j); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	if err := sched.Resume(context.Background()); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if sched.ActiveCount() != 1 {
		t.Fatalf("active = %d, want 1 (terminal jobs excluded)", sched.ActiveCount())
	}
}

func TestSchedulerForgetsVanishedJobs(t *testing.T) {
	jobs := memory.NewJobStore()
	poller := NewPoller(PollerOptions{Jobs: jobs, Logger: testLogger()})
	sched := NewScheduler(SchedulerOptions{Poller: poller, Jobs: jobs, Logger: testLogger()})

	sched.Watch("job-gone")
	sched.Tick(context.Background())
	if sched.ActiveCount() != 0 {
		t.Fatalf("active = %d, want 0 after missing job", sched.ActiveCount())
	}
}
