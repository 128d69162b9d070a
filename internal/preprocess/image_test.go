package preprocess

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"os"
	"testing"
	"time"

	"media-share/internal/apperr"
	"media-share/internal/artifacts"
)

func testConfig() Config {
	return Config{
		ThumbnailWidth:    50,
		MagickPath:        "convert",
		SubprocessTimeout: 5 * time.Second,
	}
}

// writeTestPNG writes a width x height PNG to the store.
func writeTestPNG(t *testing.T, store *artifacts.Store, id string, width, height int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 80, A: 255})
		}
	}

	path := store.ArtifactPath(id, "png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return path
}

func TestImageUpload(t *testing.T) {
	t.Parallel()

	store := artifacts.New(t.TempDir())
	path := writeTestPNG(t, store, "img00001", 100, 60)

	pp, err := New("png", "img00001", path, testConfig(), Deps{Store: store})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := pp.Upload(context.Background())
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if res.Width != 100 || res.Height != 60 {
		t.Errorf("dimensions = %dx%d, want 100x60", res.Width, res.Height)
	}
	// 50 wide at 100x60 aspect gives a 30px tall thumbnail.
	if res.ThumbnailHeight != 30 {
		t.Errorf("thumbnail height = %d, want 30", res.ThumbnailHeight)
	}

	if _, err := os.Stat(store.ThumbPath("img00001")); err != nil {
		t.Errorf("thumbnail not written: %v", err)
	}
}

func TestImageUploadCorrupt(t *testing.T) {
	t.Parallel()

	store := artifacts.New(t.TempDir())
	path := store.ArtifactPath("bad00001", "png")
	if err := os.WriteFile(path, []byte("definitely not a png"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	pp, err := New("png", "bad00001", path, testConfig(), Deps{Store: store})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = pp.Upload(context.Background())
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("err = %v, want *apperr.Error", err)
	}
	if ae.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", ae.Status)
	}

	// Nothing should be left behind after cleanup.
	pp.CleanupOnError()
	if _, err := os.Stat(store.ThumbPath("bad00001")); !errors.Is(err, os.ErrNotExist) {
		t.Error("thumbnail left behind for corrupt upload")
	}
}

func TestImageCleanupOnError(t *testing.T) {
	t.Parallel()

	store := artifacts.New(t.TempDir())
	path := writeTestPNG(t, store, "cl000001", 20, 20)

	pp, err := New("png", "cl000001", path, testConfig(), Deps{Store: store})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := pp.Upload(context.Background()); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	pp.CleanupOnError()
	if _, err := os.Stat(store.ThumbPath("cl000001")); !errors.Is(err, os.ErrNotExist) {
		t.Error("CleanupOnError did not remove the thumbnail")
	}
}

func TestDispatcherClosedSet(t *testing.T) {
	t.Parallel()

	store := artifacts.New(t.TempDir())

	for _, format := range []string{"webm", "avi", "tiff", ""} {
		_, err := New(format, "x", "x", testConfig(), Deps{Store: store})
		var ae *apperr.Error
		if !errors.As(err, &ae) {
			t.Fatalf("New(%q): err = %v, want *apperr.Error", format, err)
		}
		if ae.Status != http.StatusUnsupportedMediaType {
			t.Errorf("New(%q): status = %d, want 415", format, ae.Status)
		}
	}
}
