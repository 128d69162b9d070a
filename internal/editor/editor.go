package editor

import (
	"context"
	"errors"
	"fmt"

	"media-share/internal/apperr"
	"media-share/internal/artifacts"
	"media-share/internal/database"
	"media-share/internal/ids"
	"media-share/internal/logging"
	"media-share/internal/metrics"
)

// Supported batch actions.
const (
	ActionDelete    = "delete"
	ActionEditTitle = "editTitle"
)

// Request is one batch edit submission. Selection is honored only for
// session callers; a token caller's selection is always the single
// file the token resolves to, regardless of what was submitted.
type Request struct {
	Token     string
	Selection []string
	Action    string
	Value     string
}

// Editor coordinates metadata rows and on-disk artifacts for batch
// actions.
type Editor struct {
	db    *database.Database
	store *artifacts.Store
}

// New creates an Editor.
func New(db *database.Database, store *artifacts.Store) *Editor {
	return &Editor{db: db, store: store}
}

// Apply resolves the request's selection and performs its action.
func (e *Editor) Apply(ctx context.Context, req Request, hasSession bool) error {
	err := e.apply(ctx, req, hasSession)

	status := "success"
	if err != nil {
		status = "error"
	}
	action := req.Action
	switch action {
	case ActionDelete, ActionEditTitle:
	default:
		action = "unknown"
	}
	metrics.EditActionsTotal.WithLabelValues(action, status).Inc()

	return err
}

func (e *Editor) apply(ctx context.Context, req Request, hasSession bool) error {
	selection, err := e.resolveSelection(ctx, req, hasSession)
	if err != nil {
		return err
	}

	switch req.Action {
	case ActionDelete:
		return e.delete(ctx, selection)
	case ActionEditTitle:
		return e.editTitle(ctx, selection, req.Value)
	default:
		return apperr.UnsupportedAction()
	}
}

// resolveSelection decides which file ids the action targets. A
// supplied token always takes precedence, even for session callers: a
// malformed or unknown token is rejected, a valid one pins the
// selection to its own file. Only a session caller without a token
// gets to name an arbitrary selection.
func (e *Editor) resolveSelection(ctx context.Context, req Request, hasSession bool) ([]string, error) {
	if req.Token == "" && hasSession {
		if len(req.Selection) == 0 {
			return nil, apperr.InvalidInput("No files selected")
		}
		return req.Selection, nil
	}

	if len(req.Token) != ids.TokenLength {
		return nil, apperr.TokenNotFound()
	}
	id, err := e.db.FileIDByToken(ctx, req.Token)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.TokenNotFound()
	}
	if err != nil {
		return nil, err
	}
	return []string{id}, nil
}

// delete removes the metadata rows first, then every artifact whose
// name is prefixed by a selected id. A file whose row is gone but
// whose artifacts linger is caught by the orphan sweep; the reverse
// would leave dangling rows, so rows go first.
func (e *Editor) delete(ctx context.Context, selection []string) error {
	files, err := e.db.DeleteFiles(ctx, selection)
	if err != nil {
		return fmt.Errorf("failed to delete files: %w", err)
	}
	if _, err := e.db.DeleteTasks(ctx, selection); err != nil {
		return fmt.Errorf("failed to delete tasks: %w", err)
	}

	if err := e.store.RemoveForIDs(selection); err != nil {
		return err
	}

	logging.Info("Deleted %d file(s)", files)
	return nil
}

func (e *Editor) editTitle(ctx context.Context, selection []string, title string) error {
	if title == "" {
		return apperr.InvalidInput("No title provided")
	}

	updated, err := e.db.UpdateTitles(ctx, selection, title)
	if err != nil {
		return fmt.Errorf("failed to update titles: %w", err)
	}
	logging.Debug("Retitled %d file(s)", updated)
	return nil
}
