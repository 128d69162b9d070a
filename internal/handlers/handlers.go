package handlers

import (
	"net/http"
	"strings"

	"media-share/internal/artifacts"
	"media-share/internal/database"
	"media-share/internal/editor"
	"media-share/internal/ingest"
	"media-share/internal/startup"
)

type Handlers struct {
	db           *database.Database
	store        *artifacts.Store
	ingest       *ingest.Service
	editor       *editor.Editor
	uploadSecret string
	maxBodySize  int64
	baseURL      string
}

func New(db *database.Database, store *artifacts.Store, svc *ingest.Service, ed *editor.Editor, config *startup.Config) *Handlers {
	return &Handlers{
		db:           db,
		store:        store,
		ingest:       svc,
		editor:       ed,
		uploadSecret: config.UploadSecret,
		maxBodySize:  config.MaxUploadSize,
		baseURL:      strings.TrimRight(config.BaseURL, "/"),
	}
}

// hasSession reports whether the request carries a valid session
// cookie.
func (h *Handlers) hasSession(r *http.Request) bool {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	_, err = h.db.ValidateSession(r.Context(), cookie.Value)
	return err == nil
}
