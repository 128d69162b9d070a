package preprocess

import (
	"context"
	"errors"
	"os"
	"time"

	"media-share/internal/apperr"
	"media-share/internal/artifacts"
	"media-share/internal/database"
	"media-share/internal/logging"
	"media-share/internal/probe"
)

// Result is the normalized outcome of preprocessing one upload.
type Result struct {
	Width           int
	Height          int
	ThumbnailHeight int
}

// Preprocessor is the shared contract both variants implement.
// Upload performs the full preprocessing pipeline for the variant;
// CleanupOnError removes any artifacts Upload wrote before failing.
// CleanupOnError never touches the database.
type Preprocessor interface {
	Upload(ctx context.Context) (*Result, error)
	CleanupOnError()
}

// Config carries the tuning values preprocessors need.
type Config struct {
	// ThumbnailWidth is the target thumbnail width in pixels.
	ThumbnailWidth int
	// MagickPath is the ImageMagick convert binary for placeholder
	// synthesis.
	MagickPath string
	// SubprocessTimeout bounds external tool invocations.
	SubprocessTimeout time.Duration
}

// Deps are the collaborators a preprocessor may need.
type Deps struct {
	Store  *artifacts.Store
	DB     *database.Database
	Prober *probe.Prober
}

// New selects the preprocessor variant for a detected format tag. The
// set is closed: png, jpeg and gif go to the image variant, mp4 to the
// video variant, everything else is rejected.
func New(format, id, path string, cfg Config, deps Deps) (Preprocessor, error) {
	switch format {
	case "png", "jpeg", "gif":
		return newImagePreprocessor(id, path, cfg, deps.Store), nil
	case "mp4":
		return newVideoPreprocessor(id, path, cfg, deps), nil
	default:
		return nil, apperr.UnsupportedFormat(format)
	}
}

// removeIfPresent deletes a file, ignoring a missing one. Cleanup
// paths call this for artifacts that may never have been written.
func removeIfPresent(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn("failed to remove %s during cleanup: %v", path, err)
	}
}
