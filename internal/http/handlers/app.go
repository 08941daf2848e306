package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"server/internal/admin"
	"server/internal/domain"
	"server/internal/generation"
	"server/internal/infra"
	"server/internal/middleware"
	"server/internal/storage"
)

const tokenIssuer = "dancestar"
const tokenTTL = 24 * time.Hour

// App bundles the handler dependencies.
type App struct {
	Accounts     domain.AccountRepository
	Jobs         domain.JobRepository
	Orchestrator *generation.Orchestrator
	Poller       *generation.Poller
	Admin        *admin.Aggregator
	Assets       *storage.FileStore
	Logger       infra.Logger
	JWTSecret    string
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]string{"error": errCode, "message": message})
}

// domainError maps the domain sentinels onto the wire contract. Unmatched
// errors become opaque 500s.
func (a *App) domainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		a.error(w, http.StatusPaymentRequired, "insufficient_funds", "not enough coins")
	case errors.Is(err, domain.ErrAccountSuspended):
		a.error(w, http.StatusForbidden, "account_suspended", "account is suspended")
	case errors.Is(err, domain.ErrAccountNotFound):
		a.error(w, http.StatusNotFound, "account_not_found", "account not found")
	case errors.Is(err, domain.ErrJobNotFound):
		a.error(w, http.StatusNotFound, "job_not_found", "job not found")
	case errors.Is(err, domain.ErrJobTerminal):
		a.error(w, http.StatusConflict, "job_terminal", "job already finished")
	case errors.Is(err, domain.ErrEmailTaken):
		a.error(w, http.StatusConflict, "email_taken", "email already registered")
	case errors.Is(err, generation.ErrInvalidRequest):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrEngineUnavailable), errors.Is(err, domain.ErrEngineOperationFailed):
		a.error(w, http.StatusBadGateway, "engine_unavailable", "video engine unavailable")
	default:
		a.Logger.Error().Err(err).Msg("unhandled handler error")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (a *App) currentAccountID(r *http.Request) string {
	return middleware.AccountIDFromContext(r.Context())
}

func (a *App) isAdmin(r *http.Request) bool {
	return middleware.RoleFromContext(r.Context()) == string(domain.AccountRoleAdmin)
}

func (a *App) signToken(account *domain.Account) (string, error) {
	return middleware.SignToken(a.JWTSecret, middleware.TokenClaims{
		Sub:    account.ID,
		Role:   string(account.Role),
		Exp:    time.Now().Add(tokenTTL).Unix(),
		Issuer: tokenIssuer,
	})
}

type accountDTO struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Coins     int       `json:"coins"`
	Suspended bool      `json:"suspended"`
	Country   string    `json:"country,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toAccountDTO(a *domain.Account) accountDTO {
	return accountDTO{
		ID:        a.ID,
		Email:     a.Email,
		Name:      a.Name,
		Role:      string(a.Role),
		Coins:     a.Coins,
		Suspended: a.Suspended,
		Country:   a.Country,
		CreatedAt: a.CreatedAt,
	}
}

type jobDTO struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner_id"`
	State         string    `json:"state"`
	Progress      int       `json:"progress"`
	Cost          int       `json:"cost"`
	Duration      int       `json:"duration_seconds"`
	AspectRatio   string    `json:"aspect_ratio"`
	Quality       string    `json:"quality"`
	MotionID      string    `json:"motion_id,omitempty"`
	ResultURI     string    `json:"result_uri,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toJobDTO(j *domain.Job) jobDTO {
	return jobDTO{
		ID:            j.ID,
		OwnerID:       j.OwnerID,
		State:         string(j.State),
		Progress:      j.Progress,
		Cost:          j.Cost,
		Duration:      j.Config.DurationSeconds,
		AspectRatio:   string(j.Config.AspectRatio),
		Quality:       string(j.Config.Quality),
		MotionID:      j.MotionID,
		ResultURI:     j.ResultURI,
		FailureReason: j.FailureReason,
		CreatedAt:     j.CreatedAt,
		UpdatedAt:     j.UpdatedAt,
	}
}

func toJobDTOs(jobs []domain.Job) []jobDTO {
	out := make([]jobDTO, 0, len(jobs))
	for i := range jobs {
		out = append(out, toJobDTO(&jobs[i]))
	}
	return out
}
