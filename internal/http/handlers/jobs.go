package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
)

type submitJobRequest struct {
	MotionID        string `json:"motion_id"`
	InputImageKey   string `json:"input_image_key"`
	ReferenceKey    string `json:"reference_key"`
	DurationSeconds int    `json:"duration_seconds"`
	AspectRatio     string `json:"aspect_ratio"`
	Quality         string `json:"quality"`
}

// SubmitJob charges the account and starts a generation.
func (a *App) SubmitJob(w http.ResponseWriter, r *http.Request) {
	accountID := a.currentAccountID(r)
	if accountID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing account context")
		return
	}
	var req submitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	job, err := a.Orchestrator.Submit(r.Context(), accountID, domain.GenerationRequest{
		MotionID:      req.MotionID,
		InputImageKey: req.InputImageKey,
		ReferenceKey:  req.ReferenceKey,
		Config: domain.VideoConfig{
			DurationSeconds: req.DurationSeconds,
			AspectRatio:     domain.AspectRatio(req.AspectRatio),
			Quality:         domain.VideoQuality(req.Quality),
		},
	})
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusCreated, toJobDTO(job))
}

// GetJob returns a job snapshot. Each read advances the job one poll step,
// so clients polling this endpoint drive their own progress.
func (a *App) GetJob(w http.ResponseWriter, r *http.Request) {
	accountID := a.currentAccountID(r)
	if accountID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing account context")
		return
	}
	jobID := chi.URLParam(r, "id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job id required")
		return
	}

	job, err := a.Poller.Check(r.Context(), jobID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	// Hide other owners' jobs rather than acknowledging them.
	if job.OwnerID != accountID && !a.isAdmin(r) {
		a.error(w, http.StatusNotFound, "job_not_found", "job not found")
		return
	}
	a.json(w, http.StatusOK, toJobDTO(job))
}

// ListAccountJobs returns the account's jobs, newest first. Admins may list
// any account.
func (a *App) ListAccountJobs(w http.ResponseWriter, r *http.Request) {
	accountID := a.currentAccountID(r)
	if accountID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing account context")
		return
	}
	ownerID := chi.URLParam(r, "id")
	if ownerID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "account id required")
		return
	}
	if ownerID != accountID && !a.isAdmin(r) {
		a.error(w, http.StatusForbidden, "forbidden", "cannot list another account's jobs")
		return
	}

	jobs, err := a.Jobs.ListByOwner(r.Context(), ownerID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": toJobDTOs(jobs)})
}
