package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type statsResponse struct {
	TotalAccounts    int            `json:"total_accounts"`
	TotalJobs        int            `json:"total_jobs"`
	TotalCoinsSpent  int            `json:"total_coins_spent"`
	ActivityByDay    []dayActivity  `json:"activity_by_day"`
	SignupsByCountry map[string]int `json:"signups_by_country"`
}

type dayActivity struct {
	Day         time.Time `json:"day"`
	Generations int       `json:"generations"`
	NewAccounts int       `json:"new_accounts"`
}

// AdminStats returns the system rollup.
func (a *App) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.Admin.Stats(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("stats rollup failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load stats")
		return
	}
	resp := statsResponse{
		TotalAccounts:    stats.TotalAccounts,
		TotalJobs:        stats.TotalJobs,
		TotalCoinsSpent:  stats.TotalCoinsSpent,
		ActivityByDay:    make([]dayActivity, 0, len(stats.ActivityByDay)),
		SignupsByCountry: stats.SignupsByCountry,
	}
	for _, day := range stats.ActivityByDay {
		resp.ActivityByDay = append(resp.ActivityByDay, dayActivity{
			Day:         day.Day,
			Generations: day.Generations,
			NewAccounts: day.NewAccounts,
		})
	}
	a.json(w, http.StatusOK, resp)
}

// AdminListAccounts lists every account, oldest first.
func (a *App) AdminListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := a.Admin.ListAccounts(r.Context())
	if err != nil {
		a.domainError(w, err)
		return
	}
	items := make([]accountDTO, 0, len(accounts))
	for i := range accounts {
		items = append(items, toAccountDTO(&accounts[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

type banRequest struct {
	Banned bool `json:"banned"`
}

// AdminBan sets or clears an account suspension.
func (a *App) AdminBan(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	var req banRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := a.Admin.Ban(r.Context(), accountID, req.Banned); err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]bool{"banned": req.Banned})
}

type grantCoinsRequest struct {
	Amount int `json:"amount"`
}

// AdminGrantCoins credits an account. Works on suspended accounts.
func (a *App) AdminGrantCoins(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	var req grantCoinsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Amount <= 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "amount must be positive")
		return
	}
	balance, err := a.Admin.GrantCoins(r.Context(), accountID, req.Amount)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]int{"balance": balance})
}
