package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dori/tabshelf/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteCollectionReassignsItems(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	projectID, err := db.AddProject(ctx, "Work")
	require.NoError(t, err)
	doomed, err := db.AddCollection(ctx, "Doomed", "#ff0000", projectID)
	require.NoError(t, err)

	x, err := db.AddItem(ctx, model.ItemFields{Title: "X", CollectionIDs: []string{doomed}})
	require.NoError(t, err)
	y, err := db.AddItem(ctx, model.ItemFields{Title: "Y", CollectionIDs: []string{doomed}})
	require.NoError(t, err)

	require.NoError(t, db.DeleteCollection(ctx, doomed))

	want := []string{model.DefaultCollectionID(projectID)}
	for _, id := range []string{x, y} {
		item, err := db.GetItem(ctx, id)
		require.NoError(t, err, "items are never destroyed")
		assert.Equal(t, want, item.CollectionIDs)
	}

	_, err = db.GetCollection(ctx, doomed)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDeleteCollectionKeepsOtherMemberships(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	a, err := db.AddCollection(ctx, "A", "", "")
	require.NoError(t, err)
	b, err := db.AddCollection(ctx, "B", "", "")
	require.NoError(t, err)
	id, err := db.AddItem(ctx, model.ItemFields{Title: "both", CollectionIDs: []string{a, b}})
	require.NoError(t, err)
	before, err := db.GetItem(ctx, id)
	require.NoError(t, err)

	require.NoError(t, db.DeleteCollection(ctx, a))

	after, err := db.GetItem(ctx, id)
	require.NoError(t, err)
	assert.NotContains(t, after.CollectionIDs, a)
	assert.Contains(t, after.CollectionIDs, b)
	assert.Contains(t, after.CollectionIDs, model.DefaultCollectionID(model.DefaultProjectID))
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
}

func TestDeleteCollectionRules(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := db.DeleteCollection(ctx, model.DefaultCollectionID(model.DefaultProjectID))
	assert.True(t, errors.Is(err, ErrValidationFailed), "got %v", err)

	assert.NoError(t, db.DeleteCollection(ctx, "does-not-exist"))
}

func TestUpdateCollection(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id, err := db.AddCollection(ctx, "Reading", "", "")
	require.NoError(t, err)

	require.NoError(t, db.UpdateCollection(ctx, id, model.CollectionPatch{
		Name:  model.Ptr("Later"),
		Color: model.Ptr("#88c0d0"),
	}))
	c, err := db.GetCollection(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Later", c.Name)
	assert.Equal(t, "#88c0d0", c.Color)

	err = db.UpdateCollection(ctx, id, model.CollectionPatch{Name: model.Ptr("   ")})
	assert.True(t, errors.Is(err, ErrValidationFailed))
	c, err = db.GetCollection(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Later", c.Name, "rejected rename must not write")

	err = db.UpdateCollection(ctx, "missing", model.CollectionPatch{Name: model.Ptr("x")})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestShareCollection(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	home, err := db.AddProject(ctx, "Home")
	require.NoError(t, err)
	work, err := db.AddProject(ctx, "Work")
	require.NoError(t, err)
	cid, err := db.AddCollection(ctx, "Shared", "", home)
	require.NoError(t, err)
	_, err = db.AddItem(ctx, model.ItemFields{Title: "doc", CollectionIDs: []string{cid}})
	require.NoError(t, err)

	require.NoError(t, db.ShareCollection(ctx, cid, work))

	inWork, err := db.GetCollectionsByProject(ctx, work)
	require.NoError(t, err)
	var found *model.Collection
	for i := range inWork {
		if inWork[i].ID == cid {
			found = &inWork[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, 1, found.ItemCount)
	assert.ElementsMatch(t, []string{home, work}, found.ProjectIDs)

	items, err := db.GetItemsByProject(ctx, work)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	err = db.UnshareCollection(ctx, cid, home)
	assert.True(t, errors.Is(err, ErrValidationFailed), "primary project link is fixed")

	require.NoError(t, db.UnshareCollection(ctx, cid, work))
	items, err = db.GetItemsByProject(ctx, work)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCollectionsAllProjects(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	p, err := db.AddProject(ctx, "Other")
	require.NoError(t, err)
	_, err = db.AddCollection(ctx, "Elsewhere", "", p)
	require.NoError(t, err)

	all, err := db.GetCollectionsByProject(ctx, model.AllProjectsID)
	require.NoError(t, err)
	// default-unsorted, other's unsorted, Elsewhere
	assert.Len(t, all, 3)

	_, err = db.AddCollection(ctx, "nowhere", "", model.AllProjectsID)
	assert.True(t, errors.Is(err, ErrValidationFailed))
}

func TestDeleteCollectionNeverRewindsUpdatedAt(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	doc := `{"version": 2,
		"collections": [{"id": "c1", "name": "Later", "primaryProjectId": "default",
			"created_at": "2024-01-01T00:00:00Z"}],
		"items": [{"id": "x", "title": "from the future", "collectionIds": ["c1"],
			"created_at": "2030-01-01T00:00:00Z", "updated_at": "2030-01-01T00:00:00Z"}]
	}`
	ok, err := db.ImportAll(ctx, []byte(doc), false)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, db.DeleteCollection(ctx, "c1"))

	item, err := db.GetItem(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, []string{model.DefaultCollectionID(model.DefaultProjectID)}, item.CollectionIDs)
	assert.False(t, item.UpdatedAt.Before(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)),
		"updated_at went backwards: %s", item.UpdatedAt)
}

func TestDeleteCollectionIsAllOrNothing(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	doomed, err := db.AddCollection(ctx, "Doomed", "", "")
	require.NoError(t, err)
	other, err := db.AddCollection(ctx, "Other", "", "")
	require.NoError(t, err)
	x, err := db.AddItem(ctx, model.ItemFields{Title: "X", CollectionIDs: []string{doomed}})
	require.NoError(t, err)
	y, err := db.AddItem(ctx, model.ItemFields{Title: "Y", CollectionIDs: []string{doomed, other}})
	require.NoError(t, err)

	before, err := db.GetAllItems(ctx)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `
		CREATE TRIGGER boom BEFORE DELETE ON collections
		BEGIN SELECT RAISE(ABORT, 'boom'); END
	`)
	require.NoError(t, err)

	err = db.DeleteCollection(ctx, doomed)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIOFailure))

	after, err := db.GetAllItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after, "a failed delete must not touch any item")

	for _, id := range []string{x, y} {
		item, err := db.GetItem(ctx, id)
		require.NoError(t, err)
		assert.Contains(t, item.CollectionIDs, doomed)
	}
	_, err = db.GetCollection(ctx, doomed)
	assert.NoError(t, err)
}
