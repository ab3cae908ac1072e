package db

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dori/tabshelf/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddItemDefaultsToUnsorted(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id, err := db.AddItem(ctx, model.ItemFields{URL: "https://go.dev", Tags: []string{"go", " ", "lang"}})
	require.NoError(t, err)

	item, err := db.GetItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "https://go.dev", item.Title, "title falls back to url")
	assert.Equal(t, []string{model.DefaultCollectionID(model.DefaultProjectID)}, item.CollectionIDs)
	assert.Equal(t, []string{"go", "lang"}, item.Tags)
	assert.Equal(t, model.SourceManual, item.Source)
	assert.False(t, item.IsNote())
	assert.Equal(t, item.CreatedAt, item.UpdatedAt)
}

func TestAddItemValidation(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		fields model.ItemFields
		kind   error
	}{
		{"blank", model.ItemFields{Title: "  "}, ErrValidationFailed},
		{"bad source", model.ItemFields{Title: "x", Source: "clipboard"}, ErrValidationFailed},
		{"unknown collection", model.ItemFields{Title: "x", CollectionIDs: []string{"nope"}}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.AddItem(ctx, tt.fields)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
		})
	}

	items, err := db.GetAllItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items, "rejected adds must not write")
}

func TestNoteItem(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id, err := db.AddItem(ctx, model.ItemFields{Title: "Shopping", Notes: "# eggs\n- milk"})
	require.NoError(t, err)
	item, err := db.GetItem(ctx, id)
	require.NoError(t, err)
	assert.True(t, item.IsNote())
	assert.Equal(t, "# eggs\n- milk", item.Notes)
}

func TestUpdateItem(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id, err := db.AddItem(ctx, model.ItemFields{Title: "Old", URL: "https://a.example"})
	require.NoError(t, err)
	before, err := db.GetItem(ctx, id)
	require.NoError(t, err)

	err = db.UpdateItem(ctx, id, model.ItemPatch{
		Title: model.Ptr("New"),
		Tags:  &[]string{"x"},
	})
	require.NoError(t, err)

	after, err := db.GetItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "New", after.Title)
	assert.Equal(t, "https://a.example", after.URL, "unset fields are untouched")
	assert.Equal(t, []string{"x"}, after.Tags)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
	assert.Equal(t, before.CreatedAt, after.CreatedAt)

	err = db.UpdateItem(ctx, id, model.ItemPatch{Title: model.Ptr("")})
	assert.True(t, errors.Is(err, ErrValidationFailed))

	err = db.UpdateItem(ctx, "missing", model.ItemPatch{Title: model.Ptr("x")})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUpdateItemEmptyCollectionsFallsBack(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	projectID, err := db.AddProject(ctx, "Work")
	require.NoError(t, err)
	cid, err := db.AddCollection(ctx, "Docs", "", projectID)
	require.NoError(t, err)
	id, err := db.AddItem(ctx, model.ItemFields{Title: "Spec", CollectionIDs: []string{cid}})
	require.NoError(t, err)

	require.NoError(t, db.UpdateItem(ctx, id, model.ItemPatch{CollectionIDs: &[]string{}}))

	item, err := db.GetItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{model.DefaultCollectionID(projectID)}, item.CollectionIDs)
}

func TestMoveItem(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	a, err := db.AddCollection(ctx, "A", "", "")
	require.NoError(t, err)
	b, err := db.AddCollection(ctx, "B", "", "")
	require.NoError(t, err)
	id, err := db.AddItem(ctx, model.ItemFields{Title: "t", CollectionIDs: []string{a}})
	require.NoError(t, err)

	require.NoError(t, db.MoveItem(ctx, id, a, b))

	inA, err := db.GetItemsByCollection(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, inA)
	inB, err := db.GetItemsByCollection(ctx, b)
	require.NoError(t, err)
	require.Len(t, inB, 1)
	assert.Equal(t, id, inB[0].ID)

	assert.True(t, errors.Is(db.MoveItem(ctx, "missing", a, b), ErrNotFound))
	assert.True(t, errors.Is(db.MoveItem(ctx, id, b, ""), ErrValidationFailed))
	assert.True(t, errors.Is(db.MoveItem(ctx, id, b, "nowhere"), ErrNotFound))
}

func TestConcurrentMovesAreNotLost(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	const n = 8
	from := make([]string, n)
	to := make([]string, n)
	for i := range n {
		var err error
		from[i], err = db.AddCollection(ctx, fmt.Sprintf("from-%d", i), "", "")
		require.NoError(t, err)
		to[i], err = db.AddCollection(ctx, fmt.Sprintf("to-%d", i), "", "")
		require.NoError(t, err)
	}
	id, err := db.AddItem(ctx, model.ItemFields{Title: "busy", CollectionIDs: from})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- db.MoveItem(ctx, id, from[i], to[i])
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	item, err := db.GetItem(ctx, id)
	require.NoError(t, err)
	assert.ElementsMatch(t, to, item.CollectionIDs)
}

func TestDeleteItemIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id, err := db.AddItem(ctx, model.ItemFields{Title: "gone"})
	require.NoError(t, err)
	require.NoError(t, db.DeleteItem(ctx, id))
	require.NoError(t, db.DeleteItem(ctx, id))

	_, err = db.GetItem(ctx, id)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSearchItems(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.AddItem(ctx, model.ItemFields{Title: "Go blog", URL: "https://go.dev/blog", Tags: []string{"golang"}})
	require.NoError(t, err)
	_, err = db.AddItem(ctx, model.ItemFields{Title: "Recipes", Notes: "pasta with garlic"})
	require.NoError(t, err)

	hits, err := db.SearchItems(ctx, "GARLIC")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Recipes", hits[0].Title)

	hits, err = db.SearchItems(ctx, "golang")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Go blog", hits[0].Title)
}
