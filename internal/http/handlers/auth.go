package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"server/internal/domain"
	"server/internal/middleware"
	"server/internal/pricing"
)

type signupRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type loginRequest struct {
	Email string `json:"email"`
}

type sessionResponse struct {
	Token   string     `json:"token"`
	Account accountDTO `json:"account"`
}

// Signup creates an account with the welcome bonus and returns a session
// token. Country is resolved best-effort from the request.
func (a *App) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		a.error(w, http.StatusBadRequest, "bad_request", "valid email required")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	account := &domain.Account{
		ID:      uuid.NewString(),
		Email:   email,
		Name:    name,
		Role:    domain.AccountRoleUser,
		Coins:   pricing.SignupBonus,
		Country: middleware.CountryFromContext(r.Context()),
	}
	if err := a.Accounts.Create(r.Context(), account); err != nil {
		a.domainError(w, err)
		return
	}

	token, err := a.signToken(account)
	if err != nil {
		a.Logger.Error().Err(err).Msg("sign token failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to sign token")
		return
	}
	a.Logger.Info().Str("account_id", account.ID).Str("country", account.Country).Msg("account created")
	a.json(w, http.StatusCreated, sessionResponse{Token: token, Account: toAccountDTO(account)})
}

// Login resolves an account by email and issues a fresh session token.
// Suspended accounts cannot log in.
func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	account, err := a.Accounts.GetByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		a.domainError(w, err)
		return
	}
	if account.Suspended {
		a.error(w, http.StatusForbidden, "account_suspended", "account is suspended")
		return
	}
	token, err := a.signToken(account)
	if err != nil {
		a.Logger.Error().Err(err).Msg("sign token failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to sign token")
		return
	}
	a.json(w, http.StatusOK, sessionResponse{Token: token, Account: toAccountDTO(account)})
}

// Me returns the authenticated account.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	accountID := a.currentAccountID(r)
	if accountID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing account context")
		return
	}
	account, err := a.Accounts.GetByID(r.Context(), accountID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, toAccountDTO(account))
}
