package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"server/internal/adapter/memory"
	"server/internal/admin"
	"server/internal/domain"
	"server/internal/engine"
	"server/internal/generation"
	"server/internal/middleware"
	"server/internal/storage"
)

const (
	testSecret    = "handler-test-secret"
	testRootEmail = "root@dancestar.test"
)

type testEnv struct {
	app      *App
	router   http.Handler
	accounts *memory.AccountStore
	jobs     *memory.JobStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zerolog.New(io.Discard)
	accounts := memory.NewAccountStore()
	jobs := memory.NewJobStore()
	sim := engine.NewSimulator(1)

	assets, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}

	orchestrator := generation.NewOrchestrator(generation.OrchestratorOptions{
		Accounts: accounts,
		Jobs:     jobs,
		Engine:   sim,
		Assets:   assets,
		Logger:   logger,
	})
	poller := generation.NewPoller(generation.PollerOptions{
		Jobs:      jobs,
		Engine:    sim,
		Logger:    logger,
		Increment: func() int { return 100 },
	})
	aggregator := admin.New(admin.Options{
		Accounts:  accounts,
		Jobs:      jobs,
		RootEmail: testRootEmail,
		Logger:    logger,
	})

	app := &App{
		Accounts:     accounts,
		Jobs:         jobs,
		Orchestrator: orchestrator,
		Poller:       poller,
		Admin:        aggregator,
		Assets:       assets,
		Logger:       logger,
		JWTSecret:    testSecret,
	}

	r := chi.NewRouter()
	r.Use(middleware.Locale(nil))
	r.Get("/v1/healthz", app.Health)
	r.Get("/motions", app.Motions)
	r.Post("/auth/signup", app.Signup)
	r.Post("/auth/login", app.Login)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(testSecret))
		r.Get("/me", app.Me)
		r.Post("/assets", app.UploadAsset)
		r.Post("/jobs", app.SubmitJob)
		r.Get("/jobs/{id}", app.GetJob)
		r.Get("/accounts/{id}/jobs", app.ListAccountJobs)
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Get("/stats", app.AdminStats)
			r.Get("/accounts", app.AdminListAccounts)
			r.Post("/accounts/{id}/ban", app.AdminBan)
			r.Post("/accounts/{id}/coins", app.AdminGrantCoins)
		})
	})

	return &testEnv{app: app, router: r, accounts: accounts, jobs: jobs}
}

// seedAccount creates an account directly in the store and returns it with a
// valid bearer token.
func (e *testEnv) seedAccount(t *testing.T, email string, role domain.AccountRole, coins int) (*domain.Account, string) {
	t.Helper()
	account := &domain.Account{
		ID:    uuid.NewString(),
		Email: email,
		Name:  "Test User",
		Role:  role,
		Coins: coins,
	}
	if err := e.accounts.Create(context.Background(), account); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	token, err := middleware.SignToken(testSecret, middleware.TokenClaims{
		Sub:  account.ID,
		Role: string(role),
		Exp:  time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return account, token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}
