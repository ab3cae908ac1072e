package db

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dori/tabshelf/internal/model"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// MinImportVersion is the oldest export document version ImportAll can upgrade
const MinImportVersion = 1

// Snapshot is the export document
type Snapshot struct {
	Version     int                `json:"version" yaml:"version"`
	Items       []model.Item       `json:"items" yaml:"items"`
	Collections []model.Collection `json:"collections" yaml:"collections"`
	Projects    []model.Project    `json:"projects" yaml:"projects"`
	Workspaces  []model.Workspace  `json:"workspaces" yaml:"workspaces"`
}

// Format selects the export encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// VerifyResult reports whether a document can be imported
type VerifyResult struct {
	Valid       bool   `json:"valid"`
	Error       string `json:"error,omitempty"`
	Version     int    `json:"version,omitempty"`
	Items       int    `json:"items"`
	Collections int    `json:"collections"`
	Projects    int    `json:"projects"`
	Workspaces  int    `json:"workspaces"`
}

// ExportAll returns every entity plus the schema version. Writers are held off
// while the snapshot is read so it is consistent.
func (db *DB) ExportAll(ctx context.Context) (*Snapshot, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.export(ctx)
}

func (db *DB) export(ctx context.Context) (*Snapshot, error) {
	items, err := db.GetAllItems(ctx)
	if err != nil {
		return nil, err
	}
	collections, err := db.GetAllCollections(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := db.GetAllProjects(ctx)
	if err != nil {
		return nil, err
	}
	workspaces, err := db.GetAllWorkspaces(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Version:     SchemaVersion,
		Items:       items,
		Collections: collections,
		Projects:    projects,
		Workspaces:  workspaces,
	}, nil
}

// Marshal encodes the snapshot
func (s *Snapshot) Marshal(format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(s)
	case FormatJSON, "":
		return json.MarshalIndent(s, "", "  ")
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// Backup writes a safety export into the backup directory and returns its path
func (db *DB) Backup(ctx context.Context, label string) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.backup(ctx, label)
}

func (db *DB) backup(ctx context.Context, label string) (string, error) {
	snap, err := db.export(ctx)
	if err != nil {
		return "", err
	}
	data, err := snap.Marshal(FormatJSON)
	if err != nil {
		return "", ioFailure("backup", err)
	}

	if err := os.MkdirAll(db.backupDir, 0755); err != nil {
		return "", ioFailure("backup", err)
	}
	name := fmt.Sprintf("%s-%s.json", label, db.now().Format("20060102T150405.000000000Z"))
	path := filepath.Join(db.backupDir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", ioFailure("backup", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", ioFailure("backup", err)
	}

	db.log.WithField("path", path).Info("backup written")
	return path, nil
}

// VerifyBackup checks that a document parses, has a supported version and
// well-formed records. It never touches the store. Version is the document's
// own version, before any upgrade. Missing top-level arrays count as empty.
func VerifyBackup(data []byte) VerifyResult {
	snap, version, err := parseSnapshot(data)
	if err != nil {
		return VerifyResult{Valid: false, Error: err.Error()}
	}
	return VerifyResult{
		Valid:       true,
		Version:     version,
		Items:       len(snap.Items),
		Collections: len(snap.Collections),
		Projects:    len(snap.Projects),
		Workspaces:  len(snap.Workspaces),
	}
}

// ImportAll merges a document into the store. Records are upserted by id;
// records missing from the document are left alone. When backupFirst is set
// a safety export is written before anything changes. On any failure it
// returns false and the store is unchanged.
func (db *DB) ImportAll(ctx context.Context, data []byte, backupFirst bool) (bool, error) {
	snap, err := ParseSnapshot(data)
	if err != nil {
		return false, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if backupFirst {
		if _, err := db.backup(ctx, "pre-import"); err != nil {
			return false, err
		}
	}

	err = db.runTx(ctx, "import", func(tx *sql.Tx) error {
		return upsertSnapshot(ctx, tx, snap)
	})
	if err != nil {
		return false, err
	}

	db.log.WithFields(logrus.Fields{
		"items":       len(snap.Items),
		"collections": len(snap.Collections),
		"projects":    len(snap.Projects),
		"workspaces":  len(snap.Workspaces),
	}).Info("import merged")
	return true, nil
}

// wireItem accepts the version 1 single-collection field
type wireItem struct {
	model.Item   `yaml:",inline"`
	CollectionID string `json:"collectionId,omitempty" yaml:"collectionId,omitempty"`
}

type wireSnapshot struct {
	Version     *int               `json:"version" yaml:"version"`
	Items       []wireItem         `json:"items" yaml:"items"`
	Collections []model.Collection `json:"collections" yaml:"collections"`
	Projects    []model.Project    `json:"projects" yaml:"projects"`
	Workspaces  []model.Workspace  `json:"workspaces" yaml:"workspaces"`
}

// ParseSnapshot decodes a JSON or YAML export document, upgrades older
// versions in memory and validates record structure. Missing arrays are
// treated as empty.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	snap, _, err := parseSnapshot(data)
	return snap, err
}

// parseSnapshot is ParseSnapshot that also returns the version the document
// was written with
func parseSnapshot(data []byte) (*Snapshot, int, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, 0, invalid("parse", "empty document")
	}

	var w wireSnapshot
	var err error
	if trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		err = dec.Decode(&w)
	} else {
		err = yaml.Unmarshal(trimmed, &w)
	}
	if err != nil {
		return nil, 0, invalid("parse", "malformed document: %v", err)
	}

	if w.Version == nil {
		return nil, 0, invalid("parse", "missing version")
	}
	v := *w.Version
	if v > SchemaVersion || v < MinImportVersion {
		return nil, 0, &StorageError{
			Kind: KindSchemaVersionMismatch,
			Op:   "parse",
			Err:  fmt.Errorf("document version %d is outside the supported range %d..%d", v, MinImportVersion, SchemaVersion),
		}
	}

	snap := &Snapshot{
		Version:     v,
		Items:       make([]model.Item, 0, len(w.Items)),
		Collections: w.Collections,
		Projects:    w.Projects,
		Workspaces:  w.Workspaces,
	}
	for _, wi := range w.Items {
		item := wi.Item
		if v < 2 && wi.CollectionID != "" && len(item.CollectionIDs) == 0 {
			item.CollectionIDs = []string{wi.CollectionID}
		}
		snap.Items = append(snap.Items, item)
	}
	if snap.Collections == nil {
		snap.Collections = []model.Collection{}
	}
	if snap.Projects == nil {
		snap.Projects = []model.Project{}
	}
	if snap.Workspaces == nil {
		snap.Workspaces = []model.Workspace{}
	}

	if err := validateSnapshot(snap); err != nil {
		return nil, 0, err
	}
	snap.Version = SchemaVersion
	return snap, v, nil
}

func validateSnapshot(s *Snapshot) error {
	var problems []string
	for i, p := range s.Projects {
		switch {
		case strings.TrimSpace(p.ID) == "":
			problems = append(problems, fmt.Sprintf("projects[%d]: missing id", i))
		case p.ID == model.AllProjectsID:
			problems = append(problems, fmt.Sprintf("projects[%d]: reserved id %q", i, p.ID))
		case strings.TrimSpace(p.Name) == "":
			problems = append(problems, fmt.Sprintf("projects[%d]: missing name", i))
		}
	}
	for i, c := range s.Collections {
		switch {
		case strings.TrimSpace(c.ID) == "":
			problems = append(problems, fmt.Sprintf("collections[%d]: missing id", i))
		case strings.TrimSpace(c.Name) == "":
			problems = append(problems, fmt.Sprintf("collections[%d]: missing name", i))
		}
	}
	for i, it := range s.Items {
		switch {
		case strings.TrimSpace(it.ID) == "":
			problems = append(problems, fmt.Sprintf("items[%d]: missing id", i))
		case strings.TrimSpace(it.Title) == "" && strings.TrimSpace(it.URL) == "":
			problems = append(problems, fmt.Sprintf("items[%d]: needs a title or url", i))
		}
	}
	for i, w := range s.Workspaces {
		switch {
		case strings.TrimSpace(w.ID) == "":
			problems = append(problems, fmt.Sprintf("workspaces[%d]: missing id", i))
		case strings.TrimSpace(w.Name) == "":
			problems = append(problems, fmt.Sprintf("workspaces[%d]: missing name", i))
		}
	}
	if len(problems) > 0 {
		return &StorageError{Kind: KindValidationFailed, Op: "parse", Err: errors.New(strings.Join(problems, "; "))}
	}
	return nil
}

// upsertSnapshot writes every record in dependency order
func upsertSnapshot(ctx context.Context, tx *sql.Tx, s *Snapshot) error {
	for _, p := range s.Projects {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO projects (id, name, description, is_default, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name, description = excluded.description,
				created_at = excluded.created_at, updated_at = excluded.updated_at
		`, p.ID, p.Name, p.Description, boolInt(p.ID == model.DefaultProjectID),
			p.CreatedAt.UTC(), p.UpdatedAt.UTC())
		if err != nil {
			return fmt.Errorf("project %s: %w", p.ID, err)
		}
		if err := ensureDefaultCollection(ctx, tx, p.ID, p.CreatedAt.UTC()); err != nil {
			return fmt.Errorf("project %s: %w", p.ID, err)
		}
	}

	for _, c := range s.Collections {
		primary := c.PrimaryProjectID
		if ok, err := exists(ctx, tx, "projects", primary); err != nil {
			return err
		} else if !ok {
			primary = model.DefaultProjectID
		}
		isDefault := c.ID == model.DefaultCollectionID(primary)

		_, err := tx.ExecContext(ctx, `
			INSERT INTO collections (id, name, is_default, primary_project_id, color, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name, is_default = excluded.is_default,
				primary_project_id = excluded.primary_project_id,
				color = excluded.color, created_at = excluded.created_at
		`, c.ID, c.Name, boolInt(isDefault), primary, nullable(c.Color), c.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("collection %s: %w", c.ID, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM collection_projects WHERE collection_id = ?`, c.ID); err != nil {
			return err
		}
		for _, pid := range normalizeIDs(append([]string{primary}, c.ProjectIDs...)) {
			ok, err := exists(ctx, tx, "projects", pid)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			_, err = tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO collection_projects (collection_id, project_id) VALUES (?, ?)
			`, c.ID, pid)
			if err != nil {
				return err
			}
		}
	}

	for _, it := range s.Items {
		title := strings.TrimSpace(it.Title)
		if title == "" {
			title = strings.TrimSpace(it.URL)
		}
		source := it.Source
		if !source.Valid() {
			source = model.SourceImported
		}
		tags, err := encodeTags(it.Tags)
		if err != nil {
			return fmt.Errorf("item %s: %w", it.ID, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO items (id, title, url, favicon, notes, tags, source, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title = excluded.title, url = excluded.url, favicon = excluded.favicon,
				notes = excluded.notes, tags = excluded.tags, source = excluded.source,
				created_at = excluded.created_at, updated_at = excluded.updated_at
		`, it.ID, title, nullable(it.URL), nullable(it.Favicon), nullable(it.Notes), tags,
			string(source), it.CreatedAt.UTC(), it.UpdatedAt.UTC())
		if err != nil {
			return fmt.Errorf("item %s: %w", it.ID, err)
		}

		var members []string
		for _, cid := range normalizeIDs(it.CollectionIDs) {
			ok, err := exists(ctx, tx, "collections", cid)
			if err != nil {
				return err
			}
			if ok {
				members = append(members, cid)
			}
		}
		if len(members) == 0 {
			members = []string{model.DefaultCollectionID(model.DefaultProjectID)}
		}
		if err := setMemberships(ctx, tx, it.ID, members); err != nil {
			return fmt.Errorf("item %s: %w", it.ID, err)
		}
	}

	for _, w := range s.Workspaces {
		projectID := w.ProjectID
		if projectID != nil {
			ok, err := exists(ctx, tx, "projects", *projectID)
			if err != nil {
				return err
			}
			if !ok {
				projectID = nil
			}
		}
		encoded, err := encodeWindows(w.Windows)
		if err != nil {
			return fmt.Errorf("workspace %s: %w", w.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO workspaces (id, name, project_id, windows, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name, project_id = excluded.project_id, windows = excluded.windows,
				created_at = excluded.created_at, updated_at = excluded.updated_at
		`, w.ID, w.Name, optionalID(projectID), encoded, w.CreatedAt.UTC(), w.UpdatedAt.UTC())
		if err != nil {
			return fmt.Errorf("workspace %s: %w", w.ID, err)
		}
	}

	return nil
}

// exists reports whether a row with id is present in table. table is always
// one of the fixed names above, never user input.
func exists(ctx context.Context, tx *sql.Tx, table, id string) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE id = ?`, id).Scan(&n)
	return n > 0, err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
