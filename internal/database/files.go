package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// InsertFile writes the metadata row for a freshly preprocessed
// upload. The caller must only invoke this once every artifact the row
// refers to exists on disk.
func (d *Database) InsertFile(ctx context.Context, f *FileRecord) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("insert_file", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	title := f.Title
	if title == "" {
		title = DefaultTitle
	}
	createdAt := f.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var token interface{}
	if f.Token != "" {
		token = f.Token
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (id, title, extension, width, height, thumbnail_height, token, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		d.table("files"),
	)
	_, err = d.db.ExecContext(ctx, query,
		f.ID, title, f.Extension, f.Width, f.Height, f.ThumbnailHeight, token, createdAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert file record: %w", err)
	}
	return nil
}

// GetFile retrieves a single file record by id. Returns ErrNotFound
// when no row matches.
func (d *Database) GetFile(ctx context.Context, id string) (*FileRecord, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_file", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT id, title, extension, width, height, thumbnail_height, COALESCE(token, ''), created_at FROM %s WHERE id = ?",
		d.table("files"),
	)

	var f FileRecord
	var createdAt int64
	err = d.db.QueryRowContext(ctx, query, id).Scan(
		&f.ID, &f.Title, &f.Extension, &f.Width, &f.Height, &f.ThumbnailHeight, &f.Token, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file record: %w", err)
	}

	f.CreatedAt = time.Unix(createdAt, 0)
	return &f, nil
}

// FileIDByToken resolves an access token to the id of the single file
// it grants access to. Returns ErrNotFound when the token matches no
// row.
func (d *Database) FileIDByToken(ctx context.Context, token string) (string, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("file_id_by_token", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := fmt.Sprintf("SELECT id FROM %s WHERE token = ?", d.table("files"))

	var id string
	err = d.db.QueryRowContext(ctx, query, token).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve token: %w", err)
	}
	return id, nil
}

// DeleteFiles removes the metadata rows for every id in the selection
// with one batched statement. Returns the number of rows deleted.
func (d *Database) DeleteFiles(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	start := time.Now()
	var err error
	defer func() { recordQuery("delete_files", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := fmt.Sprintf("DELETE FROM %s WHERE id IN (%s)", d.table("files"), placeholders(len(ids)))
	result, err := d.db.ExecContext(ctx, query, stringArgs(ids)...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete file records: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}

// UpdateTitles sets the title for every id in the selection with one
// batched statement. Returns the number of rows updated.
func (d *Database) UpdateTitles(ctx context.Context, ids []string, title string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	start := time.Now()
	var err error
	defer func() { recordQuery("update_titles", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := fmt.Sprintf("UPDATE %s SET title = ? WHERE id IN (%s)", d.table("files"), placeholders(len(ids)))
	args := append([]interface{}{title}, stringArgs(ids)...)
	result, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update titles: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}

// ListFileIDs returns the ids of every stored file. Used by the orphan
// sweep to decide which artifacts are still referenced.
func (d *Database) ListFileIDs(ctx context.Context) (map[string]bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_file_ids", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := fmt.Sprintf("SELECT id FROM %s", d.table("files"))
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list file ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan file id: %w", err)
		}
		ids[id] = true
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate file ids: %w", err)
	}
	return ids, nil
}
