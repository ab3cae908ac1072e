package browser

import (
	"context"
	"errors"
	"testing"

	"github.com/dori/tabshelf/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureWorkspace(t *testing.T) {
	fake := newFake(
		Window{ID: 1, Tabs: []Tab{
			{ID: "a", URL: "https://go.dev", Title: "Go", Active: true},
			{ID: "b", URL: ""},
		}},
		Window{ID: 7, Tabs: []Tab{{ID: "c", URL: "https://example.com", FavIconURL: "https://example.com/favicon.ico"}}},
	)

	windows, err := CaptureWorkspace(context.Background(), fake)
	require.NoError(t, err)
	require.Len(t, windows, 2)

	assert.Equal(t, "Window 1", windows[0].Name)
	assert.Equal(t, []model.WorkspaceTab{{URL: "https://go.dev", Title: "Go"}}, windows[0].Tabs)
	assert.Equal(t, "https://example.com/favicon.ico", windows[1].Tabs[0].FavIconURL)
	assert.Empty(t, windows[0].ID, "ids are assigned when the workspace is saved")
}

func TestCaptureWorkspaceError(t *testing.T) {
	fake := newFake()
	fake.failOn["list"] = errors.New("disconnected")

	_, err := CaptureWorkspace(context.Background(), fake)
	assert.Error(t, err)
}

func TestRestoreWorkspace(t *testing.T) {
	fake := newFake()
	ws := &model.Workspace{
		Name: "Morning",
		Windows: []model.WorkspaceWindow{
			{Name: "one", Tabs: []model.WorkspaceTab{{URL: "https://a.example"}, {URL: "https://b.example"}}},
			{Name: "empty"},
			{Name: "two", Tabs: []model.WorkspaceTab{{URL: "https://c.example"}}},
		},
	}

	n, err := RestoreWorkspace(context.Background(), fake, ws)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.ElementsMatch(t, [][]string{
		{"https://a.example", "https://b.example"},
		{"https://c.example"},
	}, fake.created)
}

func TestRestoreWorkspacePartialFailure(t *testing.T) {
	fake := newFake()
	fake.failOn["createWindow:https://bad.example"] = errors.New("blocked")
	ws := &model.Workspace{
		Windows: []model.WorkspaceWindow{
			{Name: "good", Tabs: []model.WorkspaceTab{{URL: "https://ok.example"}}},
			{Name: "bad", Tabs: []model.WorkspaceTab{{URL: "https://bad.example"}}},
		},
	}

	n, err := RestoreWorkspace(context.Background(), fake, ws)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"bad"`)
	assert.LessOrEqual(t, n, 1)
}

func TestFindTabByURL(t *testing.T) {
	windows := []Window{{ID: 1, Tabs: []Tab{{ID: "x", URL: "https://go.dev"}}}}

	tab, ok := FindTabByURL(windows, "https://go.dev")
	require.True(t, ok)
	assert.Equal(t, "x", tab.ID)

	_, ok = FindTabByURL(windows, "https://nope.example")
	assert.False(t, ok)
}

func TestFaviconFor(t *testing.T) {
	assert.Equal(t, "https://go.dev/favicon.ico", faviconFor("https://go.dev/doc/"))
	assert.Equal(t, "", faviconFor("chrome://newtab"))
}
