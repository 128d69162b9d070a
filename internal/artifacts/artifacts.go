// Package artifacts owns the flat on-disk artifact directory.
//
// Every artifact belonging to an upload shares its id as a filename
// prefix: the raw upload lives at {id}.{extension} and thumbnails at
// {id}.thumb.jpg. The directory must not contain unrelated files
// matching those patterns.
package artifacts

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"media-share/internal/apperr"
	"media-share/internal/logging"
	"media-share/internal/metrics"
)

// Store manages artifact files inside a single directory.
type Store struct {
	dir string
}

// New creates a Store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the artifact directory.
func (s *Store) Dir() string {
	return s.dir
}

// ArtifactPath returns the path of the raw artifact for an id.
func (s *Store) ArtifactPath(id, extension string) string {
	return filepath.Join(s.dir, id+"."+extension)
}

// ThumbPath returns the path of the thumbnail for an id.
func (s *Store) ThumbPath(id string) string {
	return filepath.Join(s.dir, id+".thumb.jpg")
}

// Save streams an upload to {id}.{extension}. A partial file left by
// a failed write is removed before the error is returned.
func (s *Store) Save(id, extension string, r io.Reader) (string, error) {
	path := s.ArtifactPath(id, extension)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", apperr.StorageWriteFailed(err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", apperr.StorageWriteFailed(err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", apperr.StorageWriteFailed(err)
	}
	return path, nil
}

// RemoveIfPresent deletes path, ignoring a missing file. Used by
// error-path cleanup where the artifact may never have been written.
func (s *Store) RemoveIfPresent(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn("failed to remove artifact %s: %v", path, err)
	}
}

// RemoveForIDs scans the directory and deletes every file whose name
// is prefixed by "{id}." for any selected id. An already-absent
// artifact counts as success (concurrent deletes race benignly); any
// other removal failure is fatal and names the offending file.
func (s *Store) RemoveForIDs(ids []string) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return apperr.StorageUnavailable(err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		for _, id := range ids {
			if !strings.HasPrefix(name, id+".") {
				continue
			}
			err := os.Remove(filepath.Join(s.dir, name))
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return apperr.StorageDeleteFailed(name, err)
			}
			if err == nil {
				metrics.ArtifactsDeletedTotal.Inc()
				logging.Debug("Removed artifact %s", name)
			}
			break
		}
	}
	return nil
}

// Sweep removes artifacts that no stored file references and that are
// older than grace. It backstops the window between an artifact write
// and its metadata insert: a crash there leaves a file no row points
// at. Returns the number of files removed.
func (s *Store) Sweep(known map[string]bool, grace time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to scan artifact directory: %w", err)
	}

	cutoff := time.Now().Add(-grace)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		id, _, found := strings.Cut(name, ".")
		if !found || id == "" || known[id] {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			// Might belong to an upload still in flight.
			continue
		}

		if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				logging.Warn("sweep failed to remove %s: %v", name, err)
			}
			continue
		}
		metrics.OrphansSweptTotal.Inc()
		logging.Info("Swept orphaned artifact %s", name)
		removed++
	}
	return removed, nil
}
