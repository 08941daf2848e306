package handlers

import (
	"net/http"

	"server/internal/domain"
)

type motionDTO struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Category        string `json:"category"`
	ThumbnailURL    string `json:"thumbnail_url"`
	DurationSeconds int    `json:"duration_seconds"`
}

// Motions returns the built-in motion template catalog.
func (a *App) Motions(w http.ResponseWriter, r *http.Request) {
	catalog := domain.MotionCatalog()
	items := make([]motionDTO, 0, len(catalog))
	for _, m := range catalog {
		items = append(items, motionDTO{
			ID:              m.ID,
			Name:            m.Name,
			Category:        m.Category,
			ThumbnailURL:    m.ThumbnailURL,
			DurationSeconds: m.DurationSeconds,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
