package ingest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"media-share/internal/apperr"
	"media-share/internal/artifacts"
	"media-share/internal/database"
	"media-share/internal/ids"
	"media-share/internal/logging"
	"media-share/internal/metrics"
	"media-share/internal/preprocess"
	"media-share/internal/probe"
	"media-share/internal/validate"
)

// Upload is one candidate upload as received at the boundary.
type Upload struct {
	Descriptor validate.Descriptor
	Content    io.Reader
	Title      string
	// CreatedAt is the client-supplied capture time. Zero means now.
	CreatedAt  time.Time
	Secret     string
	HasSession bool
}

// Stored describes a successfully ingested file.
type Stored struct {
	ID              string
	Token           string
	Title           string
	Extension       string
	Width           int
	Height          int
	ThumbnailHeight int
}

// Service coordinates the upload pipeline.
type Service struct {
	db     *database.Database
	store  *artifacts.Store
	gate   *validate.Gate
	prober *probe.Prober
	pcfg   preprocess.Config
}

// New creates a Service.
func New(db *database.Database, store *artifacts.Store, gate *validate.Gate, prober *probe.Prober, pcfg preprocess.Config) *Service {
	return &Service{db: db, store: store, gate: gate, prober: prober, pcfg: pcfg}
}

// Ingest validates, stores and preprocesses one upload, then writes
// its metadata row.
func (s *Service) Ingest(ctx context.Context, up Upload) (*Stored, error) {
	start := time.Now()

	stored, format, err := s.ingest(ctx, up)

	status := "success"
	if err != nil {
		status = "error"
	}
	if format == "" {
		format = "unknown"
	}
	metrics.UploadsTotal.WithLabelValues(format, status).Inc()
	metrics.UploadDuration.WithLabelValues(format).Observe(time.Since(start).Seconds())

	return stored, err
}

func (s *Service) ingest(ctx context.Context, up Upload) (*Stored, string, error) {
	if _, err := s.gate.Check(up.Descriptor, up.HasSession, up.Secret); err != nil {
		return nil, "", err
	}

	format, extension := formatForMime(up.Descriptor.DeclaredMimeType)

	id, err := ids.NewFileID()
	if err != nil {
		return nil, format, fmt.Errorf("failed to generate file id: %w", err)
	}
	token, err := ids.NewToken()
	if err != nil {
		return nil, format, fmt.Errorf("failed to generate token: %w", err)
	}

	rawPath, err := s.store.Save(id, extension, up.Content)
	if err != nil {
		return nil, format, err
	}
	metrics.UploadBytes.Observe(float64(up.Descriptor.SizeBytes))

	pp, err := preprocess.New(format, id, rawPath, s.pcfg, preprocess.Deps{
		Store:  s.store,
		DB:     s.db,
		Prober: s.prober,
	})
	if err != nil {
		s.store.RemoveIfPresent(rawPath)
		return nil, format, err
	}

	res, err := pp.Upload(ctx)
	if err != nil {
		pp.CleanupOnError()
		s.store.RemoveIfPresent(rawPath)
		return nil, format, err
	}

	title := up.Title
	if title == "" {
		title = database.DefaultTitle
	}
	record := &database.FileRecord{
		ID:              id,
		Title:           title,
		Extension:       extension,
		Width:           res.Width,
		Height:          res.Height,
		ThumbnailHeight: res.ThumbnailHeight,
		Token:           token,
		CreatedAt:       up.CreatedAt,
	}
	if err := s.db.InsertFile(ctx, record); err != nil {
		// Unwind everything: artifacts, and the task row a video
		// preprocessor may already have written.
		pp.CleanupOnError()
		s.store.RemoveIfPresent(rawPath)
		if _, derr := s.db.DeleteTasks(ctx, []string{id}); derr != nil {
			logging.Warn("failed to unwind task row for %s: %v", id, derr)
		}
		return nil, format, apperr.From(err)
	}

	logging.Info("Ingested %s file %s (%dx%d)", format, id, res.Width, res.Height)

	return &Stored{
		ID:              id,
		Token:           token,
		Title:           title,
		Extension:       extension,
		Width:           res.Width,
		Height:          res.Height,
		ThumbnailHeight: res.ThumbnailHeight,
	}, format, nil
}

// formatForMime maps an already-validated MIME type to the internal
// format tag and on-disk extension.
func formatForMime(mime string) (format, extension string) {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}

	switch mime {
	case "image/png":
		return "png", "png"
	case "image/jpeg":
		return "jpeg", "jpg"
	case "image/gif":
		return "gif", "gif"
	case "video/mp4", "application/mp4":
		return "mp4", "mp4"
	}
	return "", ""
}
