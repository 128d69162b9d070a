package preprocess

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"time"

	"media-share/internal/apperr"
	"media-share/internal/database"
	"media-share/internal/logging"
	"media-share/internal/metrics"
	"media-share/internal/probe"
)

// videoPreprocessor extracts container metadata and synthesizes a
// placeholder thumbnail. The server cannot decode video frames, so
// the real thumbnail and the animated preview are owed by the trusted
// client; a task record tracks that debt.
type videoPreprocessor struct {
	id         string
	path       string
	thumbPath  string
	thumbWidth int
	magick     string
	timeout    time.Duration
	db         *database.Database
	prober     *probe.Prober
}

func newVideoPreprocessor(id, path string, cfg Config, deps Deps) *videoPreprocessor {
	return &videoPreprocessor{
		id:         id,
		path:       path,
		thumbPath:  deps.Store.ThumbPath(id),
		thumbWidth: cfg.ThumbnailWidth,
		magick:     cfg.MagickPath,
		timeout:    cfg.SubprocessTimeout,
		db:         deps.DB,
		prober:     deps.Prober,
	}
}

// Upload analyzes the container, writes the placeholder thumbnail and
// enqueues the deferred generation task.
func (p *videoPreprocessor) Upload(ctx context.Context) (*Result, error) {
	info, err := p.prober.Probe(ctx, p.path)
	if err != nil {
		return nil, err
	}
	if info.Container != "mp4" {
		return nil, apperr.UnsupportedFormat(info.Container)
	}

	thumbHeight := int(math.Round(float64(p.thumbWidth) * float64(info.Height) / float64(info.Width)))
	if thumbHeight < 1 {
		thumbHeight = 1
	}

	if err := p.generatePlaceholder(ctx, thumbHeight); err != nil {
		return nil, err
	}

	if err := p.db.CreateTask(ctx, p.id); err != nil {
		return nil, fmt.Errorf("failed to enqueue generation task: %w", err)
	}
	metrics.TasksEnqueuedTotal.Inc()
	logging.Debug("Video %s: enqueued thumbnail/gif generation task", p.id)

	return &Result{
		Width:           info.Width,
		Height:          info.Height,
		ThumbnailHeight: thumbHeight,
	}, nil
}

// generatePlaceholder renders a noise/translucency pattern at the
// thumbnail size by invoking ImageMagick. A non-zero exit, a timeout
// or a missing output file are all fatal.
func (p *videoPreprocessor) generatePlaceholder(ctx context.Context, thumbHeight int) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	size := fmt.Sprintf("%dx%d", p.thumbWidth, thumbHeight)
	args := []string{
		"-size", size,
		"(", "xc:", "+noise", "Random", "-channel", "G", "-separate", "-level", "0%,100%,2.0", ")",
		"(", "xc:white", "-alpha", "set", "-channel", "A", "-evaluate", "set", "30%", ")",
		"-composite",
		p.thumbPath,
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, p.magick, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return apperr.ThumbnailGenerationFailed(ctx.Err())
		}
		logging.Debug("placeholder generation failed for %s: %v, stderr: %s", p.id, err, stderr.String())
		return apperr.ThumbnailGenerationFailed(fmt.Errorf("%s: %w", p.magick, err))
	}

	if _, err := os.Stat(p.thumbPath); err != nil {
		return apperr.ThumbnailGenerationFailed(fmt.Errorf("renderer produced no output: %w", err))
	}
	metrics.ThumbnailDuration.WithLabelValues("placeholder").Observe(time.Since(start).Seconds())
	return nil
}

// CleanupOnError removes the placeholder thumbnail if present. Rows
// already written to the database are the caller's responsibility.
func (p *videoPreprocessor) CleanupOnError() {
	removeIfPresent(p.thumbPath)
}
