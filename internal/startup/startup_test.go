package startup

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("UPLOAD_DIR", filepath.Join(dir, "uploads"))
	t.Setenv("DATABASE_DIR", filepath.Join(dir, "db"))

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.MaxUploadSize != 128<<20 {
		t.Errorf("MaxUploadSize = %d, want %d", cfg.MaxUploadSize, 128<<20)
	}
	if cfg.ThumbnailWidth != 300 {
		t.Errorf("ThumbnailWidth = %d, want 300", cfg.ThumbnailWidth)
	}
	if cfg.SubprocessTimeout != 10*time.Second {
		t.Errorf("SubprocessTimeout = %s, want 10s", cfg.SubprocessTimeout)
	}
	if cfg.DatabasePath != filepath.Join(cfg.DatabaseDir, DatabaseFile) {
		t.Errorf("DatabasePath = %q not derived from DatabaseDir", cfg.DatabasePath)
	}
}

func TestLoadConfigCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	uploads := filepath.Join(dir, "u", "nested")
	t.Setenv("UPLOAD_DIR", uploads)
	t.Setenv("DATABASE_DIR", filepath.Join(dir, "d"))

	if _, err := LoadConfig(); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("UPLOAD_DIR", filepath.Join(dir, "uploads"))
	t.Setenv("DATABASE_DIR", filepath.Join(dir, "db"))
	t.Setenv("MAX_UPLOAD_SIZE", "1024")
	t.Setenv("THUMBNAIL_WIDTH", "150")
	t.Setenv("TABLE_PREFIX", "ms_")
	t.Setenv("SUBPROCESS_TIMEOUT", "3s")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.MaxUploadSize != 1024 {
		t.Errorf("MaxUploadSize = %d, want 1024", cfg.MaxUploadSize)
	}
	if cfg.ThumbnailWidth != 150 {
		t.Errorf("ThumbnailWidth = %d, want 150", cfg.ThumbnailWidth)
	}
	if cfg.TablePrefix != "ms_" {
		t.Errorf("TablePrefix = %q, want ms_", cfg.TablePrefix)
	}
	if cfg.SubprocessTimeout != 3*time.Second {
		t.Errorf("SubprocessTimeout = %s, want 3s", cfg.SubprocessTimeout)
	}
}

func TestLoadConfigRejectsNonPositiveLimits(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("UPLOAD_DIR", filepath.Join(dir, "uploads"))
	t.Setenv("DATABASE_DIR", filepath.Join(dir, "db"))
	t.Setenv("MAX_UPLOAD_SIZE", "-5")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for negative MAX_UPLOAD_SIZE")
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("STARTUP_TEST_BOOL", "not-a-bool")
	if got := getEnvBool("STARTUP_TEST_BOOL", true); got != true {
		t.Errorf("getEnvBool fallback = %v, want true", got)
	}

	t.Setenv("STARTUP_TEST_INT", "17")
	if got := getEnvInt("STARTUP_TEST_INT", 3); got != 17 {
		t.Errorf("getEnvInt = %d, want 17", got)
	}
}
