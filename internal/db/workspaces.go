package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/dori/tabshelf/internal/model"
	"github.com/google/uuid"
)

const workspaceColumns = `id, name, project_id, windows, created_at, updated_at`

// GetAllWorkspaces returns every workspace, newest first
func (db *DB) GetAllWorkspaces(ctx context.Context) ([]model.Workspace, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+workspaceColumns+` FROM workspaces ORDER BY updated_at DESC, id
	`)
	if err != nil {
		return nil, ioFailure("get workspaces", err)
	}
	defer rows.Close()

	workspaces := []model.Workspace{}
	for rows.Next() {
		w, err := scanWorkspace(rows)
		if err != nil {
			return nil, ioFailure("get workspaces", err)
		}
		workspaces = append(workspaces, *w)
	}
	return workspaces, ioFailure("get workspaces", rows.Err())
}

// GetWorkspace returns a single workspace by ID
func (db *DB) GetWorkspace(ctx context.Context, id string) (*model.Workspace, error) {
	w, err := scanWorkspace(db.QueryRowContext(ctx, `SELECT `+workspaceColumns+` FROM workspaces WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, notFound("get workspace", id)
	}
	if err != nil {
		return nil, ioFailure("get workspace", err)
	}
	return w, nil
}

// AddWorkspace saves a new layout snapshot. A nil projectID leaves it detached.
func (db *DB) AddWorkspace(ctx context.Context, name string, windows []model.WorkspaceWindow, projectID *string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("add workspace", "workspace name is required")
	}
	encoded, err := encodeWindows(windows)
	if err != nil {
		return "", invalid("add workspace", "bad windows: %v", err)
	}

	id := uuid.New().String()
	now := db.now()

	err = db.Transaction(ctx, "add workspace", func(tx *sql.Tx) error {
		if projectID != nil && *projectID != "" {
			if err := requireProject(ctx, tx, "add workspace", *projectID); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO workspaces (id, name, project_id, windows, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id, name, optionalID(projectID), encoded, now, now)
		return err
	})
	if err != nil {
		return "", err
	}

	db.log.WithField("workspace_id", id).Info("workspace saved")
	return id, nil
}

// UpdateWorkspace applies a patch. Setting Windows replaces the whole layout.
func (db *DB) UpdateWorkspace(ctx context.Context, id string, patch model.WorkspacePatch) error {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return invalid("update workspace", "workspace name is required")
	}

	return db.Transaction(ctx, "update workspace", func(tx *sql.Tx) error {
		w, err := scanWorkspace(tx.QueryRowContext(ctx, `SELECT `+workspaceColumns+` FROM workspaces WHERE id = ?`, id))
		if err == sql.ErrNoRows {
			return notFound("update workspace", id)
		}
		if err != nil {
			return err
		}

		if patch.Name != nil {
			w.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.ProjectID != nil {
			w.ProjectID = *patch.ProjectID
			if !w.IsDetached() {
				if err := requireProject(ctx, tx, "update workspace", *w.ProjectID); err != nil {
					return err
				}
			}
		}
		if patch.Windows != nil {
			w.Windows = *patch.Windows
		}

		encoded, err := encodeWindows(w.Windows)
		if err != nil {
			return invalid("update workspace", "bad windows: %v", err)
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE workspaces SET name = ?, project_id = ?, windows = ?, updated_at = ? WHERE id = ?
		`, w.Name, optionalID(w.ProjectID), encoded, db.stamp(w.UpdatedAt), id)
		return err
	})
}

// SaveWorkspaceAsNew copies a workspace under a new id and name
func (db *DB) SaveWorkspaceAsNew(ctx context.Context, id, name string) (string, error) {
	w, err := db.GetWorkspace(ctx, id)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(name) == "" {
		name = w.Name + " (copy)"
	}
	windows := make([]model.WorkspaceWindow, len(w.Windows))
	for i, win := range w.Windows {
		win.ID = ""
		windows[i] = win
	}
	return db.AddWorkspace(ctx, name, windows, w.ProjectID)
}

// DeleteWorkspace removes a workspace. Deleting a missing workspace is a no-op.
func (db *DB) DeleteWorkspace(ctx context.Context, id string) error {
	return db.Transaction(ctx, "delete workspace", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM workspaces WHERE id = ?`, id)
		return err
	})
}

func scanWorkspace(s scanner) (*model.Workspace, error) {
	var w model.Workspace
	var projectID sql.NullString
	var windows string

	if err := s.Scan(&w.ID, &w.Name, &projectID, &windows, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	if projectID.Valid && projectID.String != "" {
		pid := projectID.String
		w.ProjectID = &pid
	}
	w.Windows = []model.WorkspaceWindow{}
	if windows != "" {
		if err := json.Unmarshal([]byte(windows), &w.Windows); err != nil {
			return nil, err
		}
	}
	return &w, nil
}

// encodeWindows assigns missing window ids and serializes the layout
func encodeWindows(windows []model.WorkspaceWindow) (string, error) {
	out := make([]model.WorkspaceWindow, len(windows))
	for i, win := range windows {
		if win.ID == "" {
			win.ID = uuid.New().String()
		}
		if win.Tabs == nil {
			win.Tabs = []model.WorkspaceTab{}
		}
		out[i] = win
	}
	b, err := json.Marshal(out)
	return string(b), err
}

func optionalID(id *string) interface{} {
	if id == nil || *id == "" {
		return nil
	}
	return *id
}
