package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"media-share/internal/logging"
	"media-share/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// Database manages all metadata storage for the media share server.
type Database struct {
	db     *sql.DB
	dbPath string
	prefix string
	mu     sync.RWMutex
}

// New opens (and if necessary creates) the database at dbPath. The
// prefix is prepended to every table name, matching the deployment's
// TABLE_PREFIX configuration. The parent directory must already exist
// and be writable; use startup.LoadConfig to guarantee that.
func New(ctx context.Context, dbPath, prefix string) (*Database, error) {
	logging.Info("Database path: %s", dbPath)

	// busy_timeout helps prevent "database is locked" errors
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{
		db:     db,
		dbPath: dbPath,
		prefix: prefix,
	}

	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Database initialized successfully at %s", dbPath)
	return d, nil
}

// table returns the prefixed name of a table. The prefix comes from
// configuration, never from request input.
func (d *Database) table(name string) string {
	return d.prefix + name
}

func (d *Database) initialize(ctx context.Context) error {
	schema := fmt.Sprintf(`
	-- One row per uploaded asset. The id doubles as the on-disk
	-- artifact name prefix ({id}.{extension}, {id}.thumb.jpg).
	CREATE TABLE IF NOT EXISTS %[1]s (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT 'untitled',
		extension TEXT NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		thumbnail_height INTEGER NOT NULL,
		token TEXT,
		created_at INTEGER NOT NULL DEFAULT (strftime('%%s', 'now'))
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_%[1]s_token ON %[1]s(token) WHERE token IS NOT NULL;

	-- Outstanding client-side generation work, keyed by file id.
	CREATE TABLE IF NOT EXISTS %[2]s (
		id TEXT PRIMARY KEY,
		thumbnail INTEGER NOT NULL DEFAULT 0,
		gif INTEGER NOT NULL DEFAULT 0
	);

	-- Admin account (single user) and its sessions.
	CREATE TABLE IF NOT EXISTS %[3]s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		password_hash TEXT NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%%s', 'now')),
		updated_at INTEGER NOT NULL DEFAULT (strftime('%%s', 'now'))
	);

	CREATE TABLE IF NOT EXISTS %[4]s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		token TEXT NOT NULL UNIQUE,
		expires_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%%s', 'now')),
		FOREIGN KEY (user_id) REFERENCES %[3]s(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_%[4]s_token ON %[4]s(token);
	CREATE INDEX IF NOT EXISTS idx_%[4]s_expires ON %[4]s(expires_at);
	`,
		d.table("files"),
		d.table("file_tasks"),
		d.table("users"),
		d.table("sessions"),
	)

	_, err := d.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// recordQuery records database query metrics.
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// UpdateDBMetrics updates database connection metrics.
func (d *Database) UpdateDBMetrics() {
	stats := d.db.Stats()
	metrics.DBConnectionsOpen.Set(float64(stats.OpenConnections))
}

// placeholders returns "?, ?, ?" for a batched IN clause of n values.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// stringArgs converts a string slice into driver arguments.
func stringArgs(values []string) []interface{} {
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}
