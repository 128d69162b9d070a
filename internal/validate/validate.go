// Package validate gates candidate uploads before any processing or
// file I/O begins. It is a pure check with no side effects.
package validate

import (
	"crypto/subtle"
	"strings"

	"media-share/internal/apperr"
)

// Kind is the media class a validated upload is routed to.
type Kind string

const (
	// KindImage uploads are fully processed server-side.
	KindImage Kind = "image"
	// KindVideo uploads get a placeholder thumbnail and a deferred
	// generation task.
	KindVideo Kind = "video"
)

// Descriptor describes a candidate upload as declared by the
// transport layer, before any bytes are inspected.
type Descriptor struct {
	SizeBytes          int64
	DeclaredMimeType   string
	TransportErrorCode int
}

// Gate validates upload descriptors against the configured secret and
// size ceiling.
type Gate struct {
	secret        string
	maxUploadSize int64
}

// New creates a Gate. An empty secret disables secret-based uploads;
// only callers with a session may then upload.
func New(secret string, maxUploadSize int64) *Gate {
	return &Gate{secret: secret, maxUploadSize: maxUploadSize}
}

// Check applies the validation rules in order: authorization, size
// ceiling, transport error, declared format. hasSession reports
// whether the caller holds a valid session; secret is the shared
// upload secret presented with the request, if any.
func (g *Gate) Check(d Descriptor, hasSession bool, secret string) (Kind, error) {
	if !hasSession && !g.secretMatches(secret) {
		return "", apperr.Unauthorized()
	}

	if d.SizeBytes <= 0 || d.SizeBytes > g.maxUploadSize {
		return "", apperr.PayloadTooLarge()
	}

	if d.TransportErrorCode != 0 {
		return "", apperr.TransportError(d.TransportErrorCode)
	}

	kind, ok := kindForMime(d.DeclaredMimeType)
	if !ok {
		return "", apperr.UnsupportedFormat(d.DeclaredMimeType)
	}
	return kind, nil
}

func (g *Gate) secretMatches(candidate string) bool {
	if g.secret == "" || candidate == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(g.secret), []byte(candidate)) == 1
}

// kindForMime maps a declared MIME type to the media class handling
// it. Parameters (e.g. "; charset=...") are ignored.
func kindForMime(mime string) (Kind, bool) {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}

	switch mime {
	case "image/png", "image/jpeg", "image/gif":
		return KindImage, true
	case "video/mp4", "application/mp4":
		return KindVideo, true
	}
	return "", false
}
