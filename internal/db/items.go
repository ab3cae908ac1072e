package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"strings"

	"github.com/dori/tabshelf/internal/model"
	"github.com/google/uuid"
)

const itemColumns = `i.id, i.title, i.url, i.favicon, i.notes, i.tags, i.source, i.created_at, i.updated_at`

// GetAllItems returns every item, oldest first
func (db *DB) GetAllItems(ctx context.Context) ([]model.Item, error) {
	return db.queryItems(ctx, "get items", `
		SELECT `+itemColumns+` FROM items i
		ORDER BY i.created_at, i.id
	`)
}

// GetItem returns a single item by ID
func (db *DB) GetItem(ctx context.Context, id string) (*model.Item, error) {
	items, err := db.queryItems(ctx, "get item", `SELECT `+itemColumns+` FROM items i WHERE i.id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, notFound("get item", id)
	}
	return &items[0], nil
}

// GetItemsByCollection returns the items that are members of a collection
func (db *DB) GetItemsByCollection(ctx context.Context, collectionID string) ([]model.Item, error) {
	return db.queryItems(ctx, "get items", `
		SELECT `+itemColumns+` FROM items i
		JOIN item_collections ic ON ic.item_id = i.id
		WHERE ic.collection_id = ?
		ORDER BY i.created_at, i.id
	`, collectionID)
}

// GetItemsByProject returns the items in any collection visible in a project
func (db *DB) GetItemsByProject(ctx context.Context, projectID string) ([]model.Item, error) {
	if projectID == model.AllProjectsID {
		return db.GetAllItems(ctx)
	}
	return db.queryItems(ctx, "get items", `
		SELECT `+itemColumns+` FROM items i
		WHERE i.id IN (
			SELECT ic.item_id FROM item_collections ic
			JOIN collection_projects cp ON cp.collection_id = ic.collection_id
			WHERE cp.project_id = ?
		)
		ORDER BY i.created_at, i.id
	`, projectID)
}

// SearchItems returns items whose title, url, notes or tags contain query
func (db *DB) SearchItems(ctx context.Context, query string) ([]model.Item, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return db.GetAllItems(ctx)
	}
	like := "%" + strings.ToLower(query) + "%"
	return db.queryItems(ctx, "search items", `
		SELECT `+itemColumns+` FROM items i
		WHERE lower(i.title) LIKE ? OR lower(COALESCE(i.url, '')) LIKE ?
		   OR lower(COALESCE(i.notes, '')) LIKE ? OR lower(i.tags) LIKE ?
		ORDER BY i.updated_at DESC, i.id
	`, like, like, like, like)
}

// AddItem creates an item. With no collections it lands in the default
// project's Unsorted collection.
func (db *DB) AddItem(ctx context.Context, f model.ItemFields) (string, error) {
	title := strings.TrimSpace(f.Title)
	url := strings.TrimSpace(f.URL)
	if title == "" {
		title = url
	}
	if title == "" {
		return "", invalid("add item", "an item needs a title or a url")
	}
	source := f.Source
	if source == "" {
		source = model.SourceManual
	}
	if !source.Valid() {
		return "", invalid("add item", "unknown source %q", source)
	}

	collectionIDs := normalizeIDs(f.CollectionIDs)
	if len(collectionIDs) == 0 {
		collectionIDs = []string{model.DefaultCollectionID(model.DefaultProjectID)}
	}
	tags, err := encodeTags(f.Tags)
	if err != nil {
		return "", invalid("add item", "bad tags: %v", err)
	}

	id := uuid.New().String()
	now := db.now()

	err = db.Transaction(ctx, "add item", func(tx *sql.Tx) error {
		for _, cid := range collectionIDs {
			if err := requireCollection(ctx, tx, "add item", cid); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO items (id, title, url, favicon, notes, tags, source, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, id, title, nullable(url), nullable(f.Favicon), nullable(f.Notes), tags, string(source), now, now)
		if err != nil {
			return err
		}
		return setMemberships(ctx, tx, id, collectionIDs)
	})
	if err != nil {
		return "", err
	}

	db.log.WithField("item_id", id).Debug("item added")
	return id, nil
}

// UpdateItem applies a patch to an item and bumps updated_at
func (db *DB) UpdateItem(ctx context.Context, id string, patch model.ItemPatch) error {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return invalid("update item", "item title is required")
	}
	if patch.Source != nil && !patch.Source.Valid() {
		return invalid("update item", "unknown source %q", *patch.Source)
	}

	return db.Transaction(ctx, "update item", func(tx *sql.Tx) error {
		return db.updateItemTx(ctx, tx, id, patch)
	})
}

func (db *DB) updateItemTx(ctx context.Context, tx *sql.Tx, id string, patch model.ItemPatch) error {
	item, err := loadItemTx(ctx, tx, id)
	if err == sql.ErrNoRows {
		return notFound("update item", id)
	}
	if err != nil {
		return err
	}

	previous := item.CollectionIDs
	patch.Apply(item)
	item.Title = strings.TrimSpace(item.Title)

	if patch.CollectionIDs != nil {
		item.CollectionIDs = normalizeIDs(item.CollectionIDs)
		if len(item.CollectionIDs) == 0 {
			fallback, err := fallbackCollection(ctx, tx, previous)
			if err != nil {
				return err
			}
			item.CollectionIDs = []string{fallback}
		}
		for _, cid := range item.CollectionIDs {
			if err := requireCollection(ctx, tx, "update item", cid); err != nil {
				return err
			}
		}
	}

	tags, err := encodeTags(item.Tags)
	if err != nil {
		return invalid("update item", "bad tags: %v", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE items SET title = ?, url = ?, favicon = ?, notes = ?, tags = ?, source = ?, updated_at = ?
		WHERE id = ?
	`, item.Title, nullable(item.URL), nullable(item.Favicon), nullable(item.Notes), tags,
		string(item.Source), db.stamp(item.UpdatedAt), id)
	if err != nil {
		return err
	}

	if patch.CollectionIDs != nil {
		return setMemberships(ctx, tx, id, item.CollectionIDs)
	}
	return nil
}

// MoveItem replaces one collection membership with another
func (db *DB) MoveItem(ctx context.Context, id, fromCollectionID, toCollectionID string) error {
	if strings.TrimSpace(toCollectionID) == "" {
		return invalid("move item", "a destination collection is required")
	}
	return db.Transaction(ctx, "move item", func(tx *sql.Tx) error {
		item, err := loadItemTx(ctx, tx, id)
		if err == sql.ErrNoRows {
			return notFound("move item", id)
		}
		if err != nil {
			return err
		}
		next := make([]string, 0, len(item.CollectionIDs)+1)
		for _, cid := range item.CollectionIDs {
			if cid != fromCollectionID {
				next = append(next, cid)
			}
		}
		next = append(next, toCollectionID)
		return db.updateItemTx(ctx, tx, id, model.ItemPatch{CollectionIDs: &next})
	})
}

// DeleteItem hard-deletes an item. Deleting a missing item is a no-op.
func (db *DB) DeleteItem(ctx context.Context, id string) error {
	return db.Transaction(ctx, "delete item", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM item_collections WHERE item_id = ?`, id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
		return err
	})
}

// Helper functions

// queryItems loads item rows, closes them, then fills memberships
func (db *DB) queryItems(ctx context.Context, op, query string, args ...interface{}) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ioFailure(op, err)
	}

	items := []model.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			rows.Close()
			return nil, ioFailure(op, err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, ioFailure(op, err)
	}
	rows.Close()

	if len(items) == 0 {
		return items, nil
	}

	members, err := db.memberships(ctx)
	if err != nil {
		return nil, ioFailure(op, err)
	}
	for i := range items {
		items[i].CollectionIDs = members[items[i].ID]
		if items[i].CollectionIDs == nil {
			items[i].CollectionIDs = []string{}
		}
	}
	return items, nil
}

func (db *DB) memberships(ctx context.Context) (map[string][]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT item_id, collection_id FROM item_collections ORDER BY item_id, collection_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make(map[string][]string)
	for rows.Next() {
		var iid, cid string
		if err := rows.Scan(&iid, &cid); err != nil {
			return nil, err
		}
		members[iid] = append(members[iid], cid)
	}
	return members, rows.Err()
}

func loadItemTx(ctx context.Context, tx *sql.Tx, id string) (*model.Item, error) {
	item, err := scanItem(tx.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items i WHERE i.id = ?`, id))
	if err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT collection_id FROM item_collections WHERE item_id = ? ORDER BY collection_id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	item.CollectionIDs = []string{}
	for rows.Next() {
		var cid string
		if err := rows.Scan(&cid); err != nil {
			return nil, err
		}
		item.CollectionIDs = append(item.CollectionIDs, cid)
	}
	return item, rows.Err()
}

// fallbackCollection picks the Unsorted collection of the project that owned
// the first of the item's previous collections
func fallbackCollection(ctx context.Context, tx *sql.Tx, previous []string) (string, error) {
	for _, cid := range previous {
		var projectID string
		err := tx.QueryRowContext(ctx, `SELECT primary_project_id FROM collections WHERE id = ?`, cid).Scan(&projectID)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return "", err
		}
		return model.DefaultCollectionID(projectID), nil
	}
	return model.DefaultCollectionID(model.DefaultProjectID), nil
}

func setMemberships(ctx context.Context, tx *sql.Tx, itemID string, collectionIDs []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM item_collections WHERE item_id = ?`, itemID); err != nil {
		return err
	}
	for _, cid := range collectionIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO item_collections (item_id, collection_id) VALUES (?, ?)
		`, itemID, cid)
		if err != nil {
			return err
		}
	}
	return nil
}

func scanItem(s scanner) (*model.Item, error) {
	var item model.Item
	var url, favicon, notes sql.NullString
	var tags, source string

	err := s.Scan(&item.ID, &item.Title, &url, &favicon, &notes, &tags, &source, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}

	item.URL = url.String
	item.Favicon = favicon.String
	item.Notes = notes.String
	item.Source = model.Source(source)
	item.Tags = []string{}
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &item.Tags); err != nil {
			return nil, err
		}
	}
	return &item, nil
}

// normalizeIDs trims, drops blanks and duplicates, and sorts a set of ids
func normalizeIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func encodeTags(tags []string) (string, error) {
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	b, err := json.Marshal(clean)
	return string(b), err
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
