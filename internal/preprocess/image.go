package preprocess

import (
	"context"
	"time"

	"media-share/internal/apperr"
	"media-share/internal/artifacts"
	"media-share/internal/logging"
	"media-share/internal/metrics"

	"github.com/disintegration/imaging"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// imagePreprocessor handles still images synchronously: the server can
// rasterize any frame directly, so no deferred work is needed.
type imagePreprocessor struct {
	id         string
	path       string
	thumbPath  string
	thumbWidth int
}

func newImagePreprocessor(id, path string, cfg Config, store *artifacts.Store) *imagePreprocessor {
	return &imagePreprocessor{
		id:         id,
		path:       path,
		thumbPath:  store.ThumbPath(id),
		thumbWidth: cfg.ThumbnailWidth,
	}
}

// Upload decodes the image, reads its intrinsic dimensions and writes
// a thumbnail scaled to the configured width.
func (p *imagePreprocessor) Upload(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := imaging.Open(p.path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperr.CorruptMedia(err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	logging.Debug("Image %s decoded: %dx%d", p.id, width, height)

	start := time.Now()
	thumb := imaging.Resize(img, p.thumbWidth, 0, imaging.Lanczos)
	if err := imaging.Save(thumb, p.thumbPath, imaging.JPEGQuality(80)); err != nil {
		return nil, apperr.StorageWriteFailed(err)
	}
	metrics.ThumbnailDuration.WithLabelValues("image").Observe(time.Since(start).Seconds())

	return &Result{
		Width:           width,
		Height:          height,
		ThumbnailHeight: thumb.Bounds().Dy(),
	}, nil
}

// CleanupOnError removes the thumbnail if it was written.
func (p *imagePreprocessor) CleanupOnError() {
	removeIfPresent(p.thumbPath)
}
