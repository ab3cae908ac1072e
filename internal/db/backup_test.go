package db

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dori/tabshelf/internal/model"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seed fills a store with one of everything
func seed(t *testing.T, db *DB) (projectID, collectionID, itemID string) {
	t.Helper()
	ctx := context.Background()

	projectID, err := db.AddProject(ctx, "Research")
	require.NoError(t, err)
	collectionID, err = db.AddCollection(ctx, "Papers", "#a3be8c", projectID)
	require.NoError(t, err)
	itemID, err = db.AddItem(ctx, model.ItemFields{
		Title:         "Raft",
		URL:           "https://raft.github.io",
		Tags:          []string{"consensus"},
		CollectionIDs: []string{collectionID},
		Source:        model.SourceBookmark,
	})
	require.NoError(t, err)
	_, err = db.AddItem(ctx, model.ItemFields{Title: "Ideas", Notes: "write more tests"})
	require.NoError(t, err)
	_, err = db.AddWorkspace(ctx, "Reading", sampleWindows(), &projectID)
	require.NoError(t, err)
	return projectID, collectionID, itemID
}

func TestExportImportRoundTripIsNoop(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	seed(t, db)

	before, err := db.ExportAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, before.Version)

	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			data, err := before.Marshal(format)
			require.NoError(t, err)

			ok, err := db.ImportAll(ctx, data, false)
			require.NoError(t, err)
			require.True(t, ok)

			after, err := db.ExportAll(ctx)
			require.NoError(t, err)
			if diff := cmp.Diff(before, after); diff != "" {
				t.Errorf("round trip changed the store (-before +after):\n%s", diff)
			}
		})
	}
}

func TestImportIsMerge(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, _, itemID := seed(t, db)

	snap, err := db.ExportAll(ctx)
	require.NoError(t, err)

	// Import a document holding a single edited item
	var target model.Item
	for _, it := range snap.Items {
		if it.ID == itemID {
			target = it
		}
	}
	target.Title = "Raft (edited)"
	doc, err := json.Marshal(map[string]interface{}{
		"version": SchemaVersion,
		"items":   []model.Item{target},
	})
	require.NoError(t, err)

	ok, err := db.ImportAll(ctx, doc, false)
	require.NoError(t, err)
	require.True(t, ok)

	after, err := db.ExportAll(ctx)
	require.NoError(t, err)
	assert.Len(t, after.Items, len(snap.Items))
	assert.Equal(t, snap.Collections, after.Collections)
	assert.Equal(t, snap.Projects, after.Projects)
	assert.Equal(t, snap.Workspaces, after.Workspaces)

	for _, it := range after.Items {
		if it.ID == itemID {
			assert.Equal(t, "Raft (edited)", it.Title)
			assert.Equal(t, target.CollectionIDs, it.CollectionIDs)
		}
	}
}

func TestImportIntoFreshStore(t *testing.T) {
	src := openTestDB(t)
	ctx := context.Background()
	seed(t, src)

	snap, err := src.ExportAll(ctx)
	require.NoError(t, err)
	data, err := snap.Marshal(FormatJSON)
	require.NoError(t, err)

	dst := openTestDB(t)
	ok, err := dst.ImportAll(ctx, data, true)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := dst.ExportAll(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(snap, got); diff != "" {
		t.Errorf("import mismatch (-want +got):\n%s", diff)
	}

	entries, err := os.ReadDir(dst.BackupDir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".json", filepath.Ext(entries[0].Name()))
}

func TestImportRejectsBadDocuments(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	seed(t, db)

	before, err := db.ExportAll(ctx)
	require.NoError(t, err)

	tests := []struct {
		name string
		doc  string
		kind error
	}{
		{"empty", "", ErrValidationFailed},
		{"malformed json", `{"version": 2, "items": [`, ErrValidationFailed},
		{"missing version", `{"items": []}`, ErrValidationFailed},
		{"newer version", `{"version": 99}`, ErrSchemaVersionMismatch},
		{"zero version", `{"version": 0}`, ErrSchemaVersionMismatch},
		{"item without id", `{"version": 2, "items": [{"title": "x"}]}`, ErrValidationFailed},
		{"reserved project", `{"version": 2, "projects": [{"id": "__all__", "name": "All"}]}`, ErrValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := db.ImportAll(ctx, []byte(tt.doc), true)
			assert.False(t, ok)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
		})
	}

	after, err := db.ExportAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	_, err = os.Stat(db.BackupDir())
	assert.True(t, os.IsNotExist(err), "no safety export for a rejected document")
}

func TestImportMissingArraysAndRepairs(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	doc := `{
		"version": 2,
		"items": [{"id": "i1", "title": "dangling", "collectionIds": ["gone"], "source": "tab",
			"created_at": "2024-05-01T10:00:00Z", "updated_at": "2024-05-01T10:00:00Z"}],
		"workspaces": [{"id": "w1", "name": "lost", "projectId": "gone",
			"created_at": "2024-05-01T10:00:00Z", "updated_at": "2024-05-01T10:00:00Z"}]
	}`
	ok, err := db.ImportAll(ctx, []byte(doc), false)
	require.NoError(t, err)
	require.True(t, ok)

	item, err := db.GetItem(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, []string{model.DefaultCollectionID(model.DefaultProjectID)}, item.CollectionIDs)
	assert.Equal(t, model.SourceTab, item.Source)

	ws, err := db.GetWorkspace(ctx, "w1")
	require.NoError(t, err)
	assert.True(t, ws.IsDetached())
}

func TestImportIsAllOrNothing(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, collectionID, itemID := seed(t, db)

	before, err := db.ExportAll(ctx)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `
		CREATE TRIGGER boom BEFORE INSERT ON items WHEN NEW.id = 'last'
		BEGIN SELECT RAISE(ABORT, 'boom'); END
	`)
	require.NoError(t, err)

	doc := `{"version": 2,
		"projects": [{"id": "p-new", "name": "Imported",
			"created_at": "2024-05-01T10:00:00Z", "updated_at": "2024-05-01T10:00:00Z"}],
		"collections": [{"id": "c-new", "name": "Incoming", "primaryProjectId": "p-new",
			"created_at": "2024-05-01T10:00:00Z"}],
		"items": [
			{"id": "` + itemID + `", "title": "renamed", "collectionIds": ["c-new"],
				"created_at": "2024-05-01T10:00:00Z", "updated_at": "2024-05-01T10:00:00Z"},
			{"id": "last", "title": "never lands", "collectionIds": ["` + collectionID + `"],
				"created_at": "2024-05-01T10:00:00Z", "updated_at": "2024-05-01T10:00:00Z"}
		]
	}`
	ok, err := db.ImportAll(ctx, []byte(doc), false)
	require.Error(t, err)
	assert.False(t, ok)

	after, err := db.ExportAll(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("failed import changed the store (-before +after):\n%s", diff)
	}
}

func TestImportVersionOneDocument(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	doc := `
version: 1
collections:
  - id: c1
    name: Old
    primaryProjectId: default
    created_at: 2023-01-01T00:00:00Z
items:
  - id: i1
    title: legacy
    url: https://example.com
    collectionId: c1
    created_at: 2023-01-01T00:00:00Z
    updated_at: 2023-01-01T00:00:00Z
`
	res := VerifyBackup([]byte(doc))
	require.True(t, res.Valid, res.Error)
	assert.Equal(t, 1, res.Version)
	assert.Equal(t, 1, res.Items)

	ok, err := db.ImportAll(ctx, []byte(doc), false)
	require.NoError(t, err)
	require.True(t, ok)

	item, err := db.GetItem(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, item.CollectionIDs)
	assert.Equal(t, model.SourceImported, item.Source)

	c, err := db.GetCollection(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{model.DefaultProjectID}, c.ProjectIDs)
}

func TestVerifyBackup(t *testing.T) {
	res := VerifyBackup([]byte(`{"version": 2}`))
	assert.True(t, res.Valid)
	assert.Equal(t, 2, res.Version)
	assert.Zero(t, res.Items)

	res = VerifyBackup([]byte(`{"version": 1, "items": []}`))
	assert.True(t, res.Valid, res.Error)
	assert.Equal(t, 1, res.Version, "verify reports the document's version, not the upgraded one")

	res = VerifyBackup([]byte(`{"version": 3}`))
	assert.False(t, res.Valid)
	assert.Contains(t, res.Error, "outside the supported range")

	res = VerifyBackup([]byte("not: [valid"))
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Error)
}

func TestBackupWritesFile(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	seed(t, db)

	path, err := db.Backup(ctx, "manual")
	require.NoError(t, err)
	assert.Equal(t, db.BackupDir(), filepath.Dir(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	res := VerifyBackup(data)
	require.True(t, res.Valid, res.Error)
	assert.Equal(t, 2, res.Items)
	assert.Equal(t, 2, res.Projects)
}
