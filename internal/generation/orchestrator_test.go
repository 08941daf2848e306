package generation

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"server/internal/adapter/memory"
	"server/internal/domain"
	"server/internal/engine"
)

type fakeEngine struct {
	mu          sync.Mutex
	submits     int
	submitErr   error
	lastSubmit  engine.SubmitRequest
	pollResults map[string][]engine.PollResult
	pollErr     error
	pollCalls   map[string]int
}

func (f *fakeEngine) Submit(ctx context.Context, req engine.SubmitRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits++
	f.lastSubmit = req
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return "operations/fake-1", nil
}

func (f *fakeEngine) Poll(ctx context.Context, handle string) (engine.PollResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pollErr != nil {
		return engine.PollResult{}, f.pollErr
	}
	if f.pollCalls == nil {
		f.pollCalls = make(map[string]int)
	}
	idx := f.pollCalls[handle]
	f.pollCalls[handle]++
	queue := f.pollResults[handle]
	if idx >= len(queue) {
		return engine.PollResult{}, nil
	}
	return queue[idx], nil
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func newEnv(t *testing.T, eng engine.Client) (*Orchestrator, *memory.AccountStore, *memory.JobStore) {
	t.Helper()
	accounts := memory.NewAccountStore()
	jobs := memory.NewJobStore()
	orc := NewOrchestrator(OrchestratorOptions{
		Accounts: accounts,
		Jobs:     jobs,
		Engine:   eng,
		Logger:   testLogger(),
	})
	return orc, accounts, jobs
}

func seedAccount(t *testing.T, accounts *memory.AccountStore, coins int) *domain.Account {
	t.Helper()
	acc := &domain.Account{
		ID:    "acc-" + t.Name(),
		Email: t.Name() + "@example.com",
		Role:  domain.AccountRoleUser,
		Coins: coins,
	}
	if err := accounts.Create(context.Background(), acc); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return acc
}

func standardRequest() domain.GenerationRequest {
	return domain.GenerationRequest{
		MotionID: "motion-1",
		Config: domain.VideoConfig{
			DurationSeconds: 5,
			AspectRatio:     domain.AspectPortrait,
			Quality:         domain.VideoQualityMedium,
		},
	}
}

func TestSubmitDebitsAndCreatesJob(t *testing.T) {
	eng := &fakeEngine{}
	orc, accounts, jobs := newEnv(t, eng)
	acc := seedAccount(t, accounts, 15)

	job, err := orc.Submit(context.Background(), acc.ID, standardRequest())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if job.Cost != 15 {
		t.Fatalf("cost = %d, want 15", job.Cost)
	}
	if job.State != domain.JobStateProcessing || job.Progress != 0 {
		t.Fatalf("job = %s/%d, want processing/0", job.State, job.Progress)
	}
	if job.EngineHandle != "operations/fake-1" {
		t.Fatalf("handle = %q", job.EngineHandle)
	}

	got, err := accounts.GetByID(context.Background(), acc.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if got.Coins != 0 {
		t.Fatalf("balance = %d, want 0", got.Coins)
	}

	// A second submission no longer affordable.
	if _, err := orc.Submit(context.Background(), acc.ID, standardRequest()); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("second submit err = %v, want ErrInsufficientFunds", err)
	}
	owned, _ := jobs.ListByOwner(context.Background(), acc.ID)
	if len(owned) != 1 {
		t.Fatalf("jobs = %d, want 1 (rejected submission must create none)", len(owned))
	}
}

func TestSubmitInsufficientFundsCreatesNothing(t *testing.T) {
	eng := &fakeEngine{}
	orc, accounts, jobs := newEnv(t, eng)
	acc := seedAccount(t, accounts, 10)

	_, err := orc.Submit(context.Background(), acc.ID, standardRequest())
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	if eng.submits != 0 {
		t.Fatalf("engine submits = %d, want 0", eng.submits)
	}
	got, _ := accounts.GetByID(context.Background(), acc.ID)
	if got.Coins != 10 {
		t.Fatalf("balance = %d, want 10 unchanged", got.Coins)
	}
	owned, _ := jobs.ListByOwner(context.Background(), acc.ID)
	if len(owned) != 0 {
		t.Fatalf("jobs = %d, want 0", len(owned))
	}
}

func TestSubmitUnknownAccount(t *testing.T) {
	orc, _, _ := newEnv(t, &fakeEngine{})
	if _, err := orc.Submit(context.Background(), "missing", standardRequest()); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("err = %v, want ErrAccountNotFound", err)
	}
}

func TestSubmitSuspendedAccount(t *testing.T) {
	orc, accounts, _ := newEnv(t, &fakeEngine{})
	acc := seedAccount(t, accounts, 100)
	if err := accounts.SetSuspended(context.Background(), acc.ID, true); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if _, err := orc.Submit(context.Background(), acc.ID, standardRequest()); !errors.Is(err, domain.ErrAccountSuspended) {
		t.Fatalf("err = %v, want ErrAccountSuspended", err)
	}
	if err := accounts.SetSuspended(context.Background(), acc.ID, false); err != nil {
		t.Fatalf("unsuspend: %v", err)
	}
	if _, err := orc.Submit(context.Background(), acc.ID, standardRequest()); err != nil {
		t.Fatalf("submit after unban: %v", err)
	}
}

func TestSubmitEngineFailureDegradesWithoutRefund(t *testing.T) {
	eng := &fakeEngine{submitErr: domain.ErrEngineUnavailable}
	orc, accounts, _ := newEnv(t, eng)
	acc := seedAccount(t, accounts, 50)

	job, err := orc.Submit(context.Background(), acc.ID, standardRequest())
	if err != nil {
		t.Fatalf("submit should degrade, got %v", err)
	}
	if job.EngineHandle != "" {
		t.Fatalf("handle = %q, want empty in degraded mode", job.EngineHandle)
	}
	if job.State != domain.JobStateProcessing {
		t.Fatalf("state = %s, want processing", job.State)
	}
	got, _ := accounts.GetByID(context.Background(), acc.ID)
	if got.Coins != 35 {
		t.Fatalf("balance = %d, want 35 (no refund)", got.Coins)
	}
}

func TestSubmitComputesCostServerSide(t *testing.T) {
	eng := &fakeEngine{}
	orc, accounts, _ := newEnv(t, eng)
	acc := seedAccount(t, accounts, 100)

	req := domain.GenerationRequest{
		MotionID:     "motion-2",
		ReferenceKey: "uploads/ref.png",
		Config: domain.VideoConfig{
			DurationSeconds: 10,
			AspectRatio:     domain.AspectLandscape,
			Quality:         domain.VideoQualityMedium,
		},
	}
	job, err := orc.Submit(context.Background(), acc.ID, req)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if job.Cost != 35 {
		t.Fatalf("cost = %d, want 35 (base + duration + reference)", job.Cost)
	}
}

func TestSubmitRejectsInvalidConfigBeforeDebit(t *testing.T) {
	orc, accounts, _ := newEnv(t, &fakeEngine{})
	acc := seedAccount(t, accounts, 100)

	req := standardRequest()
	req.Config.AspectRatio = "4:3"
	if _, err := orc.Submit(context.Background(), acc.ID, req); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
	got, _ := accounts.GetByID(context.Background(), acc.ID)
	if got.Coins != 100 {
		t.Fatalf("balance = %d, want 100 unchanged", got.Coins)
	}
}

func TestConcurrentSubmitsOnlyOneAfforded(t *testing.T) {
	eng := &fakeEngine{}
	orc, accounts, jobs := newEnv(t, eng)
	acc := seedAccount(t, accounts, 15)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = orc.Submit(context.Background(), acc.ID, standardRequest())
		}(i)
	}
	wg.Wait()

	var ok, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientFunds):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || insufficient != 1 {
		t.Fatalf("results = %d ok / %d insufficient, want 1/1", ok, insufficient)
	}
	got, _ := accounts.GetByID(context.Background(), acc.ID)
	if got.Coins != 0 {
		t.Fatalf("balance = %d, want 0", got.Coins)
	}
	owned, _ := jobs.ListByOwner(context.Background(), acc.ID)
	if len(owned) != 1 {
		t.Fatalf("jobs = %d, want 1", len(owned))
	}
}
