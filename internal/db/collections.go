package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dori/tabshelf/internal/model"
	"github.com/google/uuid"
)

// GetAllCollections returns every collection with its item count
func (db *DB) GetAllCollections(ctx context.Context) ([]model.Collection, error) {
	return db.queryCollections(ctx, "get collections", `
		SELECT c.id, c.name, c.is_default, c.primary_project_id, c.color, c.created_at,
		       (SELECT COUNT(*) FROM item_collections ic WHERE ic.collection_id = c.id) AS item_count
		FROM collections c
		ORDER BY c.is_default DESC, c.created_at, c.id
	`)
}

// GetCollectionsByProject returns the collections visible in a project. The
// all-projects sentinel returns everything.
func (db *DB) GetCollectionsByProject(ctx context.Context, projectID string) ([]model.Collection, error) {
	if projectID == model.AllProjectsID {
		return db.GetAllCollections(ctx)
	}
	return db.queryCollections(ctx, "get collections", `
		SELECT c.id, c.name, c.is_default, c.primary_project_id, c.color, c.created_at,
		       (SELECT COUNT(*) FROM item_collections ic WHERE ic.collection_id = c.id) AS item_count
		FROM collections c
		JOIN collection_projects cp ON cp.collection_id = c.id
		WHERE cp.project_id = ?
		ORDER BY c.is_default DESC, c.created_at, c.id
	`, projectID)
}

// GetCollection returns a single collection by ID
func (db *DB) GetCollection(ctx context.Context, id string) (*model.Collection, error) {
	cs, err := db.queryCollections(ctx, "get collection", `
		SELECT c.id, c.name, c.is_default, c.primary_project_id, c.color, c.created_at,
		       (SELECT COUNT(*) FROM item_collections ic WHERE ic.collection_id = c.id) AS item_count
		FROM collections c
		WHERE c.id = ?
	`, id)
	if err != nil {
		return nil, err
	}
	if len(cs) == 0 {
		return nil, notFound("get collection", id)
	}
	return &cs[0], nil
}

// AddCollection creates a collection in a project. An empty projectID means
// the default project.
func (db *DB) AddCollection(ctx context.Context, name, color, projectID string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("add collection", "collection name is required")
	}
	if projectID == "" {
		projectID = model.DefaultProjectID
	}
	if projectID == model.AllProjectsID {
		return "", invalid("add collection", "choose a concrete project")
	}

	id := uuid.New().String()
	now := db.now()

	err := db.Transaction(ctx, "add collection", func(tx *sql.Tx) error {
		if err := requireProject(ctx, tx, "add collection", projectID); err != nil {
			return err
		}
		var colorVal interface{}
		if color != "" {
			colorVal = color
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO collections (id, name, is_default, primary_project_id, color, created_at)
			VALUES (?, ?, 0, ?, ?, ?)
		`, id, name, projectID, colorVal, now)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO collection_projects (collection_id, project_id) VALUES (?, ?)
		`, id, projectID)
		return err
	})
	if err != nil {
		return "", err
	}

	db.log.WithField("collection_id", id).Info("collection added")
	return id, nil
}

// UpdateCollection applies a patch to a collection
func (db *DB) UpdateCollection(ctx context.Context, id string, patch model.CollectionPatch) error {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return invalid("update collection", "collection name is required")
	}

	return db.Transaction(ctx, "update collection", func(tx *sql.Tx) error {
		var name string
		var color sql.NullString
		err := tx.QueryRowContext(ctx, `SELECT name, color FROM collections WHERE id = ?`, id).Scan(&name, &color)
		if err == sql.ErrNoRows {
			return notFound("update collection", id)
		}
		if err != nil {
			return err
		}
		if patch.Name != nil {
			name = strings.TrimSpace(*patch.Name)
		}
		if patch.Color != nil {
			color = sql.NullString{String: *patch.Color, Valid: *patch.Color != ""}
		}
		_, err = tx.ExecContext(ctx, `UPDATE collections SET name = ?, color = ? WHERE id = ?`, name, color, id)
		return err
	})
}

// DeleteCollection deletes a non-default collection. Every item that
// referenced it is reassigned to the owning project's default collection in
// the same transaction, so no item is ever lost. Deleting a missing
// collection is a no-op.
func (db *DB) DeleteCollection(ctx context.Context, id string) error {
	var moved int64
	err := db.Transaction(ctx, "delete collection", func(tx *sql.Tx) error {
		var isDefault int
		var projectID string
		err := tx.QueryRowContext(ctx, `
			SELECT is_default, primary_project_id FROM collections WHERE id = ?
		`, id).Scan(&isDefault, &projectID)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}
		if isDefault == 1 {
			return invalid("delete collection", "the Unsorted collection cannot be deleted")
		}

		fallback := model.DefaultCollectionID(projectID)
		if err := ensureDefaultCollection(ctx, tx, projectID, db.now()); err != nil {
			return err
		}

		// stored times are UTC text, so MAX keeps updated_at from going back
		res, err := tx.ExecContext(ctx, `
			UPDATE items SET updated_at = MAX(updated_at, ?)
			WHERE id IN (SELECT item_id FROM item_collections WHERE collection_id = ?)
		`, db.now(), id)
		if err != nil {
			return err
		}
		moved, _ = res.RowsAffected()

		_, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO item_collections (item_id, collection_id)
			SELECT item_id, ? FROM item_collections WHERE collection_id = ?
		`, fallback, id)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM item_collections WHERE collection_id = ?`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM collection_projects WHERE collection_id = ?`, id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, id)
		return err
	})
	if err != nil {
		return err
	}

	db.log.WithField("collection_id", id).WithField("reassigned", moved).Info("collection deleted")
	return nil
}

// ShareCollection makes a collection visible in another project
func (db *DB) ShareCollection(ctx context.Context, id, projectID string) error {
	if projectID == model.AllProjectsID {
		return invalid("share collection", "choose a concrete project")
	}
	return db.Transaction(ctx, "share collection", func(tx *sql.Tx) error {
		if err := requireCollection(ctx, tx, "share collection", id); err != nil {
			return err
		}
		if err := requireProject(ctx, tx, "share collection", projectID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO collection_projects (collection_id, project_id) VALUES (?, ?)
		`, id, projectID)
		return err
	})
}

// UnshareCollection removes a collection from a project other than its primary one
func (db *DB) UnshareCollection(ctx context.Context, id, projectID string) error {
	return db.Transaction(ctx, "unshare collection", func(tx *sql.Tx) error {
		var primary string
		err := tx.QueryRowContext(ctx, `SELECT primary_project_id FROM collections WHERE id = ?`, id).Scan(&primary)
		if err == sql.ErrNoRows {
			return notFound("unshare collection", id)
		}
		if err != nil {
			return err
		}
		if primary == projectID {
			return invalid("unshare collection", "a collection cannot leave its primary project")
		}
		_, err = tx.ExecContext(ctx, `
			DELETE FROM collection_projects WHERE collection_id = ? AND project_id = ?
		`, id, projectID)
		return err
	})
}

// queryCollections runs a collection query and then loads project links.
// Rows are closed before the second query since the pool holds one connection.
func (db *DB) queryCollections(ctx context.Context, op, query string, args ...interface{}) ([]model.Collection, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ioFailure(op, err)
	}

	collections := []model.Collection{}
	for rows.Next() {
		var c model.Collection
		var isDefault int
		var color sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &isDefault, &c.PrimaryProjectID, &color, &c.CreatedAt, &c.ItemCount); err != nil {
			rows.Close()
			return nil, ioFailure(op, err)
		}
		c.IsDefault = isDefault == 1
		c.Color = color.String
		collections = append(collections, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, ioFailure(op, err)
	}
	rows.Close()

	links, err := db.collectionProjects(ctx)
	if err != nil {
		return nil, ioFailure(op, err)
	}
	for i := range collections {
		collections[i].ProjectIDs = links[collections[i].ID]
		if collections[i].ProjectIDs == nil {
			collections[i].ProjectIDs = []string{}
		}
	}
	return collections, nil
}

func (db *DB) collectionProjects(ctx context.Context) (map[string][]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT collection_id, project_id FROM collection_projects ORDER BY collection_id, project_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := make(map[string][]string)
	for rows.Next() {
		var cid, pid string
		if err := rows.Scan(&cid, &pid); err != nil {
			return nil, err
		}
		links[cid] = append(links[cid], pid)
	}
	return links, rows.Err()
}

func requireProject(ctx context.Context, tx *sql.Tx, op, id string) error {
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects WHERE id = ?`, id).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return notFound(op, id)
	}
	return nil
}

func requireCollection(ctx context.Context, tx *sql.Tx, op, id string) error {
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM collections WHERE id = ?`, id).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return notFound(op, id)
	}
	return nil
}
