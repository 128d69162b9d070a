package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestStatusCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    *Error
		status int
	}{
		{"unauthorized", Unauthorized(), http.StatusUnauthorized},
		{"invalid input", InvalidInput("missing field"), http.StatusBadRequest},
		{"payload too large", PayloadTooLarge(), http.StatusBadRequest},
		{"transport error", TransportError(3), http.StatusBadRequest},
		{"unsupported format", UnsupportedFormat("image/tiff"), http.StatusUnsupportedMediaType},
		{"corrupt media", CorruptMedia(errors.New("bad header")), http.StatusBadRequest},
		{"analysis failed", MediaAnalysisFailed("", false, nil), http.StatusInternalServerError},
		{"thumbnail failed", ThumbnailGenerationFailed(nil), http.StatusInternalServerError},
		{"write failed", StorageWriteFailed(nil), http.StatusInternalServerError},
		{"delete failed", StorageDeleteFailed("abc.png", nil), http.StatusInternalServerError},
		{"storage unavailable", StorageUnavailable(nil), http.StatusInternalServerError},
		{"token not found", TokenNotFound(), http.StatusBadRequest},
		{"unsupported action", UnsupportedAction(), http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.err.Status != tt.status {
				t.Errorf("status = %d, want %d", tt.err.Status, tt.status)
			}
		})
	}
}

func TestStorageUnavailableCode(t *testing.T) {
	t.Parallel()

	if code := StorageUnavailable(nil).Code; code != "error.directoryNotFound" {
		t.Errorf("code = %q, want error.directoryNotFound", code)
	}
}

func TestFromPassesThroughTaxonomyErrors(t *testing.T) {
	t.Parallel()

	orig := TokenNotFound()
	wrapped := fmt.Errorf("resolving selection: %w", orig)

	got := From(wrapped)
	if got != orig {
		t.Errorf("From() did not unwrap to the original *Error")
	}
}

func TestFromWrapsUnknownErrors(t *testing.T) {
	t.Parallel()

	got := From(errors.New("disk on fire"))
	if got.Status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", got.Status)
	}
	if strings.Contains(got.Message, "disk on fire") {
		t.Errorf("raw error text leaked into message: %q", got.Message)
	}
}

func TestUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("no space left on device")
	err := StorageWriteFailed(cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is() should find the wrapped cause")
	}
}

func TestStorageDeleteFailedNamesFile(t *testing.T) {
	t.Parallel()

	err := StorageDeleteFailed("abc123.thumb.jpg", nil)
	if !strings.Contains(err.Message, "abc123.thumb.jpg") {
		t.Errorf("message %q does not name the file", err.Message)
	}
}
