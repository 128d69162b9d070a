package artifacts

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"media-share/internal/apperr"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}

func TestSaveAndPaths(t *testing.T) {
	t.Parallel()

	s := New(t.TempDir())

	path, err := s.Save("abc123", "png", strings.NewReader("fake image bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if path != s.ArtifactPath("abc123", "png") {
		t.Errorf("path = %q, want %q", path, s.ArtifactPath("abc123", "png"))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "fake image bytes" {
		t.Errorf("content = %q", data)
	}

	if got := s.ThumbPath("abc123"); filepath.Base(got) != "abc123.thumb.jpg" {
		t.Errorf("ThumbPath = %q", got)
	}
}

func TestSaveRefusesOverwrite(t *testing.T) {
	t.Parallel()

	s := New(t.TempDir())
	writeFile(t, s.ArtifactPath("dup1", "png"))

	_, err := s.Save("dup1", "png", strings.NewReader("y"))
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("err = %v, want *apperr.Error", err)
	}
}

func TestRemoveForIDs(t *testing.T) {
	t.Parallel()

	s := New(t.TempDir())
	writeFile(t, s.ArtifactPath("aaa111", "png"))
	writeFile(t, s.ThumbPath("aaa111"))
	writeFile(t, s.ArtifactPath("bbb222", "mp4"))
	writeFile(t, s.ArtifactPath("keepme", "gif"))

	if err := s.RemoveForIDs([]string{"aaa111", "bbb222"}); err != nil {
		t.Fatalf("RemoveForIDs: %v", err)
	}

	for _, gone := range []string{
		s.ArtifactPath("aaa111", "png"),
		s.ThumbPath("aaa111"),
		s.ArtifactPath("bbb222", "mp4"),
	} {
		if _, err := os.Stat(gone); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("%s still exists", gone)
		}
	}
	if _, err := os.Stat(s.ArtifactPath("keepme", "gif")); err != nil {
		t.Errorf("unrelated artifact removed: %v", err)
	}
}

func TestRemoveForIDsIdempotent(t *testing.T) {
	t.Parallel()

	s := New(t.TempDir())
	writeFile(t, s.ArtifactPath("once11", "png"))

	if err := s.RemoveForIDs([]string{"once11"}); err != nil {
		t.Fatalf("first RemoveForIDs: %v", err)
	}
	// Re-deleting the same selection must not error.
	if err := s.RemoveForIDs([]string{"once11"}); err != nil {
		t.Fatalf("second RemoveForIDs: %v", err)
	}
}

func TestRemoveForIDsIgnoresPrefixCollisions(t *testing.T) {
	t.Parallel()

	// "abc" must not match "abcdef.png": the prefix is "{id}.".
	s := New(t.TempDir())
	writeFile(t, s.ArtifactPath("abcdef", "png"))

	if err := s.RemoveForIDs([]string{"abc"}); err != nil {
		t.Fatalf("RemoveForIDs: %v", err)
	}
	if _, err := os.Stat(s.ArtifactPath("abcdef", "png")); err != nil {
		t.Errorf("artifact with longer id removed: %v", err)
	}
}

func TestRemoveForIDsMissingDirectory(t *testing.T) {
	t.Parallel()

	s := New(filepath.Join(t.TempDir(), "does-not-exist"))
	err := s.RemoveForIDs([]string{"abc123"})

	var ae *apperr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("err = %v, want *apperr.Error", err)
	}
	if ae.Code != "error.directoryNotFound" {
		t.Errorf("code = %q, want error.directoryNotFound", ae.Code)
	}
}

func TestSweepRemovesOnlyOldOrphans(t *testing.T) {
	t.Parallel()

	s := New(t.TempDir())
	writeFile(t, s.ArtifactPath("known1", "png"))
	writeFile(t, s.ArtifactPath("orphan", "png"))
	writeFile(t, s.ArtifactPath("fresh1", "png"))

	// Age the orphan past the grace period.
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(s.ArtifactPath("orphan", "png"), old, old); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	if err := os.Chtimes(s.ArtifactPath("known1", "png"), old, old); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	removed, err := s.Sweep(map[string]bool{"known1": true}, time.Hour)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	if _, err := os.Stat(s.ArtifactPath("orphan", "png")); !errors.Is(err, os.ErrNotExist) {
		t.Error("orphan not swept")
	}
	if _, err := os.Stat(s.ArtifactPath("known1", "png")); err != nil {
		t.Error("referenced artifact swept")
	}
	if _, err := os.Stat(s.ArtifactPath("fresh1", "png")); err != nil {
		t.Error("fresh artifact swept before grace period")
	}
}
