package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// 8 MiB covers phone camera stills after client-side resize.
const maxUploadBytes = 8 << 20

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

type uploadResponse struct {
	Key string `json:"key"`
}

// UploadAsset stores a character or reference image and returns the storage
// key to pass on job submission.
func (a *App) UploadAsset(w http.ResponseWriter, r *http.Request) {
	accountID := a.currentAccountID(r)
	if accountID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing account context")
		return
	}
	if a.Assets == nil {
		a.error(w, http.StatusServiceUnavailable, "storage_unavailable", "asset storage not configured")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "multipart image upload required")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "image field required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExts[ext] {
		a.error(w, http.StatusBadRequest, "bad_request", "unsupported image type")
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "failed to read upload")
		return
	}
	if len(data) > maxUploadBytes {
		a.error(w, http.StatusRequestEntityTooLarge, "too_large", "image exceeds upload limit")
		return
	}

	key := accountID + "/" + uuid.NewString() + ext
	if _, err := a.Assets.Write(r.Context(), key, data); err != nil {
		a.Logger.Error().Err(err).Msg("asset write failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to store image")
		return
	}
	a.json(w, http.StatusCreated, uploadResponse{Key: key})
}
