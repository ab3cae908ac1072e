package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/dori/tabshelf/internal/model"
	"github.com/google/uuid"
)

const projectColumns = `id, name, description, is_default, created_at, updated_at`

// GetAllProjects returns every stored project, default first
func (db *DB) GetAllProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		ORDER BY is_default DESC, created_at, id
	`)
	if err != nil {
		return nil, ioFailure("get projects", err)
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, ioFailure("get projects", err)
		}
		projects = append(projects, *p)
	}
	return projects, ioFailure("get projects", rows.Err())
}

// GetProject returns a single project by ID
func (db *DB) GetProject(ctx context.Context, id string) (*model.Project, error) {
	if id == model.AllProjectsID {
		p := model.AllProjects()
		return &p, nil
	}
	row := db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, notFound("get project", id)
	}
	if err != nil {
		return nil, ioFailure("get project", err)
	}
	return p, nil
}

// AddProject creates a project together with its default collection
func (db *DB) AddProject(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("add project", "project name is required")
	}

	id := uuid.New().String()
	now := db.now()

	err := db.Transaction(ctx, "add project", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO projects (id, name, description, is_default, created_at, updated_at)
			VALUES (?, ?, '', 0, ?, ?)
		`, id, name, now, now)
		if err != nil {
			return err
		}
		return ensureDefaultCollection(ctx, tx, id, now)
	})
	if err != nil {
		return "", err
	}

	db.log.WithField("project_id", id).Info("project added")
	return id, nil
}

// UpdateProject applies a patch to a project
func (db *DB) UpdateProject(ctx context.Context, id string, patch model.ProjectPatch) error {
	if id == model.AllProjectsID {
		return invalid("update project", "the all-projects view cannot be edited")
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return invalid("update project", "project name is required")
	}

	return db.Transaction(ctx, "update project", func(tx *sql.Tx) error {
		p, err := scanProject(tx.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
		if err == sql.ErrNoRows {
			return notFound("update project", id)
		}
		if err != nil {
			return err
		}
		if patch.Name != nil {
			p.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			p.Description = *patch.Description
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE projects SET name = ?, description = ?, updated_at = ? WHERE id = ?
		`, p.Name, p.Description, db.stamp(p.UpdatedAt), id)
		return err
	})
}

// DeleteProject deletes a non-default project. Its items are moved to the
// default project's Unsorted collection, never destroyed. It returns false and
// changes nothing when the project is the default one or does not exist.
func (db *DB) DeleteProject(ctx context.Context, id string) (bool, error) {
	if id == model.AllProjectsID {
		return false, invalid("delete project", "the all-projects view cannot be deleted")
	}

	deleted := false
	err := db.Transaction(ctx, "delete project", func(tx *sql.Tx) error {
		var isDefault bool
		err := tx.QueryRowContext(ctx, `SELECT is_default FROM projects WHERE id = ?`, id).Scan(&isDefault)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}
		if isDefault {
			return nil
		}

		now := db.now()
		fallback := model.DefaultCollectionID(model.DefaultProjectID)

		// Touch every item losing a membership
		_, err = tx.ExecContext(ctx, `
			UPDATE items SET updated_at = MAX(updated_at, ?)
			WHERE id IN (
				SELECT ic.item_id FROM item_collections ic
				JOIN collections c ON c.id = ic.collection_id
				WHERE c.primary_project_id = ?
			)
		`, now, id)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			DELETE FROM item_collections
			WHERE collection_id IN (SELECT id FROM collections WHERE primary_project_id = ?)
		`, id)
		if err != nil {
			return err
		}

		// Items left without any collection fall back to the default Unsorted
		_, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO item_collections (item_id, collection_id)
			SELECT id, ? FROM items
			WHERE id NOT IN (SELECT item_id FROM item_collections)
		`, fallback)
		if err != nil {
			return err
		}

		if _, err = tx.ExecContext(ctx, `DELETE FROM collections WHERE primary_project_id = ?`, id); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM collection_projects WHERE project_id = ?`, id); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, `UPDATE workspaces SET project_id = NULL, updated_at = MAX(updated_at, ?) WHERE project_id = ?`, now, id); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id); err != nil {
			return err
		}

		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if deleted {
		db.log.WithField("project_id", id).Info("project deleted")
	}
	return deleted, nil
}

// ensureDefaultCollection creates the Unsorted collection for a project if missing
func ensureDefaultCollection(ctx context.Context, tx *sql.Tx, projectID string, now time.Time) error {
	cid := model.DefaultCollectionID(projectID)
	_, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO collections (id, name, is_default, primary_project_id, created_at)
		VALUES (?, 'Unsorted', 1, ?, ?)
	`, cid, projectID, now)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO collection_projects (collection_id, project_id) VALUES (?, ?)
	`, cid, projectID)
	return err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(s scanner) (*model.Project, error) {
	var p model.Project
	var isDefault int
	err := s.Scan(&p.ID, &p.Name, &p.Description, &isDefault, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.IsDefault = isDefault == 1
	return &p, nil
}
