package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"media-share/internal/logging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information.
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all application configuration. Components receive the
// values they need at construction; nothing reads the environment
// after LoadConfig returns.
type Config struct {
	UploadDir   string
	DatabaseDir string
	Port        string
	MetricsPort string

	// UploadSecret is the shared secret accepted in lieu of a session
	// on the upload boundary. Empty disables secret-based uploads.
	UploadSecret string
	// MaxUploadSize is the upload size ceiling in bytes.
	MaxUploadSize int64
	// ThumbnailWidth is the target width for generated thumbnails.
	ThumbnailWidth int
	// TablePrefix is prepended to every table name.
	TablePrefix string
	// BaseURL is used to build the URLs returned after an upload.
	BaseURL string

	// MagickPath is the ImageMagick convert binary used for
	// placeholder thumbnails.
	MagickPath string
	// FFprobePath is the ffprobe binary used for container analysis.
	FFprobePath string
	// SubprocessTimeout bounds every external tool invocation.
	SubprocessTimeout time.Duration

	// SweepInterval is how often orphaned artifacts are collected.
	// Zero disables the sweep.
	SweepInterval time.Duration
	// SweepGrace is how old an unreferenced artifact must be before
	// the sweep removes it.
	SweepGrace time.Duration

	LogHealthChecks bool
	MetricsEnabled  bool

	// Derived paths
	DatabasePath string
}

// DatabaseFile is the name of the sqlite database file inside
// DatabaseDir.
const DatabaseFile = "media-share.db"

// LoadConfig loads and validates configuration from environment
// variables.
func LoadConfig() (*Config, error) {
	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	cfg := &Config{
		UploadDir:         getEnv("UPLOAD_DIR", "/uploads"),
		DatabaseDir:       getEnv("DATABASE_DIR", "/database"),
		Port:              getEnv("PORT", "8080"),
		MetricsPort:       getEnv("METRICS_PORT", "9090"),
		UploadSecret:      os.Getenv("UPLOAD_SECRET"),
		MaxUploadSize:     getEnvInt64("MAX_UPLOAD_SIZE", 128<<20),
		ThumbnailWidth:    getEnvInt("THUMBNAIL_WIDTH", 300),
		TablePrefix:       getEnv("TABLE_PREFIX", ""),
		BaseURL:           getEnv("BASE_URL", "http://localhost:8080"),
		MagickPath:        getEnv("MAGICK_PATH", "convert"),
		FFprobePath:       getEnv("FFPROBE_PATH", "ffprobe"),
		SubprocessTimeout: getEnvDuration("SUBPROCESS_TIMEOUT", 10*time.Second),
		SweepInterval:     getEnvDuration("SWEEP_INTERVAL", time.Hour),
		SweepGrace:        getEnvDuration("SWEEP_GRACE", time.Hour),
		LogHealthChecks:   getEnvBool("LOG_HEALTH_CHECKS", true),
		MetricsEnabled:    getEnvBool("METRICS_ENABLED", true),
	}

	logging.Info("  UPLOAD_DIR:          %s", cfg.UploadDir)
	logging.Info("  DATABASE_DIR:        %s", cfg.DatabaseDir)
	logging.Info("  PORT:                %s", cfg.Port)
	logging.Info("  METRICS_PORT:        %s", cfg.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", cfg.MetricsEnabled)
	logging.Info("  UPLOAD_SECRET:       %s", maskSecret(cfg.UploadSecret))
	logging.Info("  MAX_UPLOAD_SIZE:     %d", cfg.MaxUploadSize)
	logging.Info("  THUMBNAIL_WIDTH:     %d", cfg.ThumbnailWidth)
	logging.Info("  TABLE_PREFIX:        %q", cfg.TablePrefix)
	logging.Info("  BASE_URL:            %s", cfg.BaseURL)
	logging.Info("  MAGICK_PATH:         %s", cfg.MagickPath)
	logging.Info("  FFPROBE_PATH:        %s", cfg.FFprobePath)
	logging.Info("  SUBPROCESS_TIMEOUT:  %s", cfg.SubprocessTimeout)
	logging.Info("  SWEEP_INTERVAL:      %s", cfg.SweepInterval)
	logging.Info("  SWEEP_GRACE:         %s", cfg.SweepGrace)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	if cfg.MaxUploadSize <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_SIZE must be positive")
	}
	if cfg.ThumbnailWidth <= 0 {
		return nil, fmt.Errorf("THUMBNAIL_WIDTH must be positive")
	}

	var err error
	cfg.UploadDir, err = filepath.Abs(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload directory path: %w", err)
	}
	cfg.DatabaseDir, err = filepath.Abs(cfg.DatabaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}

	if err := ensureDirectory(cfg.UploadDir, "upload"); err != nil {
		return nil, err
	}
	if err := ensureDirectory(cfg.DatabaseDir, "database"); err != nil {
		return nil, err
	}

	cfg.DatabasePath = filepath.Join(cfg.DatabaseDir, DatabaseFile)

	return cfg, nil
}

// ensureDirectory creates the directory if missing and verifies it is
// writable.
func ensureDirectory(dir, label string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s directory %s: %w", label, dir, err)
	}
	probe := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(probe, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("%s directory %s is not writable: %w", label, dir, err)
	}
	_ = os.Remove(probe)
	return nil
}

func maskSecret(s string) string {
	if s == "" {
		return "(unset)"
	}
	return "(set)"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		logging.Warn("  Invalid %s=%q, using default: %v", key, v, fallback)
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		logging.Warn("  Invalid %s=%q, using default: %d", key, v, fallback)
		return fallback
	}
	return parsed
}

func getEnvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		logging.Warn("  Invalid %s=%q, using default: %d", key, v, fallback)
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		logging.Warn("  Invalid %s=%q, using default: %s", key, v, fallback)
		return fallback
	}
	return parsed
}

// LogFatal logs a fatal error and exits.
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// LogServerStarted logs the startup completion banner.
func LogServerStarted(port string, elapsed time.Duration) {
	logging.Info("------------------------------------------------------------")
	logging.Info("media-share %s listening on :%s (started in %s)", Version, port, elapsed.Round(time.Millisecond))
	logging.Info("------------------------------------------------------------")
}

// LogShutdownInitiated logs the beginning of a graceful shutdown.
func LogShutdownInitiated(signal string) {
	logging.Info("Received %s, shutting down gracefully", signal)
}

// LogShutdownComplete logs the end of a graceful shutdown.
func LogShutdownComplete() {
	logging.Info("Shutdown complete")
}
