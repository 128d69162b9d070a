package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateTask records that both a proper thumbnail and an animated
// preview are still owed for the given file.
func (d *Database) CreateTask(ctx context.Context, id string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_task", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := fmt.Sprintf(
		"INSERT INTO %s (id, thumbnail, gif) VALUES (?, ?, ?)",
		d.table("file_tasks"),
	)
	_, err = d.db.ExecContext(ctx, query, id, 1, 1)
	if err != nil {
		return fmt.Errorf("failed to create task record: %w", err)
	}
	return nil
}

// GetTask retrieves the task record for one file. Returns ErrNotFound
// when the file has no outstanding work.
func (d *Database) GetTask(ctx context.Context, id string) (*TaskRecord, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_task", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := fmt.Sprintf("SELECT id, thumbnail, gif FROM %s WHERE id = ?", d.table("file_tasks"))

	var t TaskRecord
	err = d.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Thumbnail, &t.Gif)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read task record: %w", err)
	}
	return &t, nil
}

// ListTasks returns every outstanding task, oldest file first.
func (d *Database) ListTasks(ctx context.Context) ([]TaskRecord, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_tasks", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT t.id, t.thumbnail, t.gif FROM %s t JOIN %s f ON f.id = t.id ORDER BY f.created_at",
		d.table("file_tasks"), d.table("files"),
	)
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list task records: %w", err)
	}
	defer rows.Close()

	var tasks []TaskRecord
	for rows.Next() {
		var t TaskRecord
		if err = rows.Scan(&t.ID, &t.Thumbnail, &t.Gif); err != nil {
			return nil, fmt.Errorf("failed to scan task record: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate task records: %w", err)
	}
	return tasks, nil
}

// DeleteTasks removes the task rows for every id in the selection.
// Application-layer cascade: deleting a file must also delete its
// task, so the batch editor always calls this alongside DeleteFiles.
func (d *Database) DeleteTasks(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	start := time.Now()
	var err error
	defer func() { recordQuery("delete_tasks", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := fmt.Sprintf("DELETE FROM %s WHERE id IN (%s)", d.table("file_tasks"), placeholders(len(ids)))
	result, err := d.db.ExecContext(ctx, query, stringArgs(ids)...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete task records: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}
