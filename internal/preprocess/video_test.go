package preprocess

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"media-share/internal/apperr"
	"media-share/internal/artifacts"
	"media-share/internal/database"
	"media-share/internal/probe"
)

// writeStub writes an executable shell script.
func writeStub(t *testing.T, name, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub scripts require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

// stubFFprobe reports an mp4 container of the given size.
func stubFFprobe(t *testing.T, width, height int, container string) string {
	t.Helper()
	json := fmt.Sprintf(
		`{"format":{"format_name":"%s"},"streams":[{"codec_type":"video","width":%d,"height":%d}]}`,
		container, width, height,
	)
	return writeStub(t, "ffprobe", "#!/bin/sh\ncat <<'EOF'\n"+json+"\nEOF\n")
}

// stubMagick touches its last argument, standing in for convert.
func stubMagick(t *testing.T) string {
	return writeStub(t, "convert", `#!/bin/sh
out=""
for a in "$@"; do out="$a"; done
: > "$out"
`)
}

func newVideoTestDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "test.db"), "")
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newVideoPP(t *testing.T, id string, cfg Config, ffprobePath string, db *database.Database, store *artifacts.Store) Preprocessor {
	t.Helper()
	deps := Deps{
		Store:  store,
		DB:     db,
		Prober: probe.New(ffprobePath, cfg.SubprocessTimeout),
	}
	pp, err := New("mp4", id, store.ArtifactPath(id, "mp4"), cfg, deps)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return pp
}

func TestVideoUpload(t *testing.T) {
	t.Parallel()

	store := artifacts.New(t.TempDir())
	db := newVideoTestDB(t)

	cfg := Config{
		ThumbnailWidth:    300,
		MagickPath:        stubMagick(t),
		SubprocessTimeout: 5 * time.Second,
	}
	pp := newVideoPP(t, "vid00001", cfg, stubFFprobe(t, 1920, 1080, "mov,mp4,m4a,3gp,3g2,mj2"), db, store)

	res, err := pp.Upload(context.Background())
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if res.Width != 1920 || res.Height != 1080 {
		t.Errorf("dimensions = %dx%d, want 1920x1080", res.Width, res.Height)
	}
	// 300 * 1080/1920 = 168.75, rounded to 169.
	if res.ThumbnailHeight != 169 {
		t.Errorf("thumbnail height = %d, want 169", res.ThumbnailHeight)
	}

	if _, err := os.Stat(store.ThumbPath("vid00001")); err != nil {
		t.Errorf("placeholder thumbnail not written: %v", err)
	}

	task, err := db.GetTask(context.Background(), "vid00001")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if !task.Thumbnail || !task.Gif {
		t.Errorf("task flags = %+v, want both true", task)
	}
}

func TestVideoUnsupportedContainer(t *testing.T) {
	t.Parallel()

	store := artifacts.New(t.TempDir())
	db := newVideoTestDB(t)

	cfg := Config{ThumbnailWidth: 300, MagickPath: stubMagick(t), SubprocessTimeout: 5 * time.Second}
	pp := newVideoPP(t, "vid00002", cfg, stubFFprobe(t, 100, 100, "matroska,webm"), db, store)

	_, err := pp.Upload(context.Background())
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("err = %v, want *apperr.Error", err)
	}
	if ae.Status != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", ae.Status)
	}

	// No task may exist for a rejected upload.
	if _, err := db.GetTask(context.Background(), "vid00002"); !errors.Is(err, database.ErrNotFound) {
		t.Error("task record created for rejected upload")
	}
}

func TestVideoRendererFailure(t *testing.T) {
	t.Parallel()

	store := artifacts.New(t.TempDir())
	db := newVideoTestDB(t)

	failing := writeStub(t, "convert", "#!/bin/sh\nexit 1\n")
	cfg := Config{ThumbnailWidth: 300, MagickPath: failing, SubprocessTimeout: 5 * time.Second}
	pp := newVideoPP(t, "vid00003", cfg, stubFFprobe(t, 640, 360, "mov,mp4,m4a,3gp,3g2,mj2"), db, store)

	_, err := pp.Upload(context.Background())
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("err = %v, want *apperr.Error", err)
	}
	if ae.Status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", ae.Status)
	}

	if _, err := db.GetTask(context.Background(), "vid00003"); !errors.Is(err, database.ErrNotFound) {
		t.Error("task record created despite renderer failure")
	}
}

func TestVideoRendererTimeout(t *testing.T) {
	t.Parallel()

	store := artifacts.New(t.TempDir())
	db := newVideoTestDB(t)

	slow := writeStub(t, "convert", "#!/bin/sh\nsleep 5\n")
	cfg := Config{ThumbnailWidth: 300, MagickPath: slow, SubprocessTimeout: 200 * time.Millisecond}
	// The probe shares the timeout, so give it its own fast stub.
	pp := newVideoPP(t, "vid00004", cfg, stubFFprobe(t, 640, 360, "mov,mp4,m4a,3gp,3g2,mj2"), db, store)

	_, err := pp.Upload(context.Background())
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("err = %v, want *apperr.Error", err)
	}
	if ae.Status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", ae.Status)
	}
}

func TestVideoCleanupOnError(t *testing.T) {
	t.Parallel()

	store := artifacts.New(t.TempDir())
	db := newVideoTestDB(t)

	cfg := Config{ThumbnailWidth: 300, MagickPath: stubMagick(t), SubprocessTimeout: 5 * time.Second}
	pp := newVideoPP(t, "vid00005", cfg, stubFFprobe(t, 640, 360, "mov,mp4,m4a,3gp,3g2,mj2"), db, store)

	if _, err := pp.Upload(context.Background()); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	pp.CleanupOnError()
	if _, err := os.Stat(store.ThumbPath("vid00005")); !errors.Is(err, os.ErrNotExist) {
		t.Error("CleanupOnError did not remove the placeholder")
	}
}
