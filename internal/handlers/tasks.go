package handlers

import (
	"crypto/subtle"
	"net/http"

	"media-share/internal/apperr"
	"media-share/internal/logging"
)

// TaskResponse is one outstanding generation task.
type TaskResponse struct {
	ID        string `json:"id"`
	Thumbnail bool   `json:"thumbnail"`
	Gif       bool   `json:"gif"`
}

// Tasks returns every outstanding generation task, oldest upload
// first. The feed is for the trusted client that renders real video
// thumbnails, so a session or the upload secret is required.
func (h *Handlers) Tasks(w http.ResponseWriter, r *http.Request) {
	if !h.hasSession(r) && !h.secretMatches(r.URL.Query().Get("secret")) {
		writeAppError(w, apperr.Unauthorized())
		return
	}

	tasks, err := h.db.ListTasks(r.Context())
	if err != nil {
		logging.Error("failed to list tasks: %v", err)
		writeAppError(w, err)
		return
	}

	response := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		response = append(response, TaskResponse{ID: t.ID, Thumbnail: t.Thumbnail, Gif: t.Gif})
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}

func (h *Handlers) secretMatches(candidate string) bool {
	if h.uploadSecret == "" || candidate == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(h.uploadSecret), []byte(candidate)) == 1
}
