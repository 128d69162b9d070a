package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"media-share/internal/ingest"
	"media-share/internal/validate"
)

// UploadResponse is returned for a successfully ingested file.
type UploadResponse struct {
	ID              string `json:"id"`
	Token           string `json:"token"`
	URL             string `json:"url"`
	ThumbnailURL    string `json:"thumbnailUrl"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	ThumbnailHeight int    `json:"thumbnailHeight"`
	Title           string `json:"title"`
}

// Upload accepts one multipart upload in the "data" field, alongside
// optional "secret", "title" and "timestamp" form values.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	hasSession := h.hasSession(r)

	// Headroom over the media ceiling for the other form fields.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize+1<<20)

	up, err := h.parseUpload(r, hasSession)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if up.Content != nil {
		if closer, ok := up.Content.(io.Closer); ok {
			defer closer.Close()
		}
	}

	stored, err := h.ingest.Ingest(r.Context(), *up)
	if err != nil {
		writeAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, UploadResponse{
		ID:              stored.ID,
		Token:           stored.Token,
		URL:             fmt.Sprintf("%s/%s.%s", h.baseURL, stored.ID, stored.Extension),
		ThumbnailURL:    fmt.Sprintf("%s/%s.thumb.jpg", h.baseURL, stored.ID),
		Width:           stored.Width,
		Height:          stored.Height,
		ThumbnailHeight: stored.ThumbnailHeight,
		Title:           stored.Title,
	})
}

// parseUpload extracts the upload from the multipart form. Transport
// failures are folded into the descriptor so that validation reports
// them in its defined order instead of ad hoc here.
func (h *Handlers) parseUpload(r *http.Request, hasSession bool) (*ingest.Upload, error) {
	up := &ingest.Upload{HasSession: hasSession}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			// Oversized body: descriptor with the declared length
			// trips the size ceiling.
			up.Descriptor.SizeBytes = r.ContentLength
			up.Secret = r.FormValue("secret")
			return up, nil
		}
		up.Descriptor.TransportErrorCode = 1
		up.Descriptor.SizeBytes = 1
		return up, nil
	}

	up.Secret = r.FormValue("secret")
	up.Title = r.FormValue("title")
	if ts := r.FormValue("timestamp"); ts != "" {
		if unix, err := strconv.ParseInt(ts, 10, 64); err == nil && unix > 0 {
			up.CreatedAt = time.Unix(unix, 0)
		}
	}

	file, header, err := r.FormFile("data")
	if err != nil {
		// Missing file: zero size trips the size check.
		return up, nil
	}

	up.Content = file
	up.Descriptor = validate.Descriptor{
		SizeBytes:        header.Size,
		DeclaredMimeType: header.Header.Get("Content-Type"),
	}
	return up, nil
}
