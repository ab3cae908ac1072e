package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/dori/tabshelf/internal/browser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	t.Setenv("TABSHELF_DATA_DIR", filepath.Join(t.TempDir(), "data"))
	t.Setenv("TABSHELF_NOTIFICATIONS", "false")
	return t.TempDir()
}

func run(t *testing.T, configDir string, args ...string) (string, error) {
	t.Helper()
	return runWith(t, &options{}, configDir, args...)
}

func runWith(t *testing.T, o *options, configDir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmdWith(o)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config-dir", configDir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

var (
	createdID = regexp.MustCompile(`\(([^)]+)\)`)
	addedID   = regexp.MustCompile(`ID: (\S+)`)
)

// fakeBrowser reports a fixed set of windows and opens nothing
type fakeBrowser struct {
	windows []browser.Window
}

func (f *fakeBrowser) ListWindows(ctx context.Context) ([]browser.Window, error) {
	return f.windows, nil
}
func (f *fakeBrowser) RaiseWindow(ctx context.Context, tabID string) error { return nil }
func (f *fakeBrowser) FocusTab(ctx context.Context, tabID string) error { return nil }
func (f *fakeBrowser) CloseTab(ctx context.Context, tabID string) error { return nil }
func (f *fakeBrowser) CloseWindow(ctx context.Context, windowID int) error { return nil }
func (f *fakeBrowser) CreateWindow(ctx context.Context, urls []string) (int, error) {
	return 1, nil
}
func (f *fakeBrowser) CreateTab(ctx context.Context, url string, windowID int) (string, error) {
	return "t", nil
}

func TestVersion(t *testing.T) {
	out, err := run(t, setupEnv(t), "version")
	require.NoError(t, err)
	assert.Equal(t, "tabshelf v"+version+"\n", out)
}

func TestItemAddAndList(t *testing.T) {
	dir := setupEnv(t)

	out, err := run(t, dir, "collection", "add", "Reading")
	require.NoError(t, err)
	m := createdID.FindStringSubmatch(out)
	require.Len(t, m, 2)
	readingID := m[1]

	out, err = run(t, dir, "item", "add", "https://go.dev/blog", "Go", "blog", "@go", "#reading", "--tag", "lang")
	require.NoError(t, err)
	assert.Contains(t, out, "Added: Go blog")
	assert.Contains(t, out, "Tags: go, lang")

	out, err = run(t, dir, "item", "list", "--collection", readingID)
	require.NoError(t, err)
	assert.Contains(t, out, "Go blog")
	assert.Contains(t, out, "https://go.dev/blog")

	out, err = run(t, dir, "item", "add", "Call the plumber")
	require.NoError(t, err)
	assert.Contains(t, out, "Added: Call the plumber")

	out, err = run(t, dir, "item", "list", "--search", "plumber")
	require.NoError(t, err)
	assert.Contains(t, out, "(note)")
	assert.NotContains(t, out, "Go blog")

	_, err = run(t, dir, "item", "add", "x", "#missing")
	assert.ErrorContains(t, err, `unknown collection "missing"`)
}

func TestItemAddAmbiguousCollection(t *testing.T) {
	dir := setupEnv(t)

	out, err := run(t, dir, "project", "add", "Work")
	require.NoError(t, err)
	workID := createdID.FindStringSubmatch(out)[1]

	_, err = run(t, dir, "collection", "add", "Later")
	require.NoError(t, err)
	_, err = run(t, dir, "collection", "add", "Later", "--project", workID)
	require.NoError(t, err)

	_, err = run(t, dir, "item", "add", "https://example.com", "-c", "later")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = run(t, dir, "item", "add", "https://example.com", "-c", "later", "--project", workID)
	assert.NoError(t, err)
}

func TestExportVerifyImport(t *testing.T) {
	dir := setupEnv(t)
	_, err := run(t, dir, "item", "add", "https://example.com/a", "First")
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "library.yaml")
	out, err := run(t, dir, "export", "--format", "yaml", "-o", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 items")

	out, err = run(t, dir, "verify", file)
	require.NoError(t, err)
	assert.Contains(t, out, `"valid": true`)
	assert.Contains(t, out, `"items": 1`)

	out, err = run(t, dir, "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 items")
	assert.Contains(t, out, "pre-import-")

	out, err = run(t, dir, "import", "--no-backup", file)
	require.NoError(t, err)
	assert.NotContains(t, out, "Backup:")

	out, err = run(t, dir, "export")
	require.NoError(t, err)
	assert.Contains(t, out, `"version": 2`)
}

func TestImportRejectsBadDocument(t *testing.T) {
	dir := setupEnv(t)
	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"items": []}`), 0644))

	out, err := run(t, dir, "verify", bad)
	assert.Error(t, err)
	assert.Contains(t, out, `"valid": false`)

	_, err = run(t, dir, "import", bad)
	assert.Error(t, err)

	_, err = run(t, dir, "export", "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")
}

func TestProjectLifecycle(t *testing.T) {
	dir := setupEnv(t)

	out, err := run(t, dir, "project", "add", "Side")
	require.NoError(t, err)
	id := createdID.FindStringSubmatch(out)[1]

	out, err = run(t, dir, "project", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Default")
	assert.Contains(t, out, "Side")

	_, err = run(t, dir, "project", "rm", "default")
	assert.ErrorContains(t, err, "not deleted")

	_, err = run(t, dir, "project", "rm", id)
	require.NoError(t, err)
	out, err = run(t, dir, "project", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "Side")
}

func TestWorkspaceListAndLookup(t *testing.T) {
	dir := setupEnv(t)

	out, err := run(t, dir, "workspace", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")

	_, err = run(t, dir, "ws", "rm", "Nope")
	assert.ErrorContains(t, err, `no workspace named "Nope"`)
}

func TestLatestBackup(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, latestBackup(dir, "pre-import"))

	for _, name := range []string{"pre-import-20250101T000000.json", "pre-import-20250301T000000.json", "manual-20251201T000000.json"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644))
	}
	assert.Equal(t, filepath.Join(dir, "pre-import-20250301T000000.json"), latestBackup(dir, "pre-import"))
}

func TestItemMove(t *testing.T) {
	dir := setupEnv(t)

	_, err := run(t, dir, "collection", "add", "Inbox")
	require.NoError(t, err)
	out, err := run(t, dir, "collection", "add", "Archive")
	require.NoError(t, err)
	archiveID := createdID.FindStringSubmatch(out)[1]

	out, err = run(t, dir, "item", "add", "https://example.com", "Example", "#inbox")
	require.NoError(t, err)
	itemID := addedID.FindStringSubmatch(out)[1]

	out, err = run(t, dir, "item", "mv", itemID, "inbox", "archive")
	require.NoError(t, err)
	assert.Contains(t, out, "Moved Example to archive")

	out, err = run(t, dir, "item", "list", "-c", archiveID)
	require.NoError(t, err)
	assert.Contains(t, out, "Example")

	_, err = run(t, dir, "item", "mv", itemID, "inbox", "Nowhere")
	assert.ErrorContains(t, err, `unknown collection "Nowhere"`)
}

func TestItemListByProject(t *testing.T) {
	dir := setupEnv(t)

	out, err := run(t, dir, "project", "add", "Side")
	require.NoError(t, err)
	sideID := createdID.FindStringSubmatch(out)[1]

	_, err = run(t, dir, "item", "add", "https://side.example", "Side", "link", "--project", sideID)
	require.NoError(t, err)
	_, err = run(t, dir, "item", "add", "https://main.example", "Main", "link")
	require.NoError(t, err)

	out, err = run(t, dir, "item", "list", "--project", sideID)
	require.NoError(t, err)
	assert.Contains(t, out, "Side link")
	assert.NotContains(t, out, "Main link")

	out, err = run(t, dir, "item", "list", "--project", sideID, "-s", "nothing-matches")
	require.NoError(t, err)
	assert.NotContains(t, out, "Side link")
}

func TestProjectRename(t *testing.T) {
	dir := setupEnv(t)

	out, err := run(t, dir, "project", "add", "Old")
	require.NoError(t, err)
	id := createdID.FindStringSubmatch(out)[1]

	_, err = run(t, dir, "project", "rename", id, "New", "-d", "fresh start")
	require.NoError(t, err)

	out, err = run(t, dir, "project", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "New")
	assert.NotContains(t, out, "Old")

	_, err = run(t, dir, "project", "rename", "missing", "x")
	assert.Error(t, err)
}

const workspaceDoc = `{"version": 2,
	"workspaces": [{"id": "w1", "name": "Desk",
		"windows": [{"id": "1", "name": "Window 1", "tabs": [{"url": "https://a.example", "title": "A"}]}],
		"created_at": "2024-05-01T10:00:00Z", "updated_at": "2024-05-01T10:00:00Z"}]
}`

func TestWorkspaceSaveFromAndUpdate(t *testing.T) {
	dir := setupEnv(t)

	doc := filepath.Join(t.TempDir(), "ws.json")
	require.NoError(t, os.WriteFile(doc, []byte(workspaceDoc), 0644))
	_, err := run(t, dir, "import", doc, "--no-backup")
	require.NoError(t, err)

	out, err := run(t, dir, "workspace", "save", "Desk copy", "--from", "desk")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved Desk copy: 1 windows, 1 tabs")

	fake := &fakeBrowser{windows: []browser.Window{
		{ID: 1, Tabs: []browser.Tab{{ID: "t1", URL: "https://b.example"}, {ID: "t2", URL: "https://c.example"}}},
		{ID: 2, Tabs: []browser.Tab{{ID: "t3", URL: "https://d.example"}}},
	}}
	out, err = runWith(t, &options{browser: fake}, dir, "workspace", "update", "Desk")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated Desk: 2 windows")

	out, err = run(t, dir, "workspace", "list")
	require.NoError(t, err)
	var desk, cp string
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.Contains(line, "Desk copy"):
			cp = line
		case strings.Contains(line, "Desk"):
			desk = line
		}
	}
	assert.Regexp(t, `Desk\s+2\s+3\s`, desk, "update replaces the windows")
	assert.Regexp(t, `Desk copy\s+1\s+1\s`, cp, "the copy keeps the old windows")

	_, err = run(t, dir, "workspace", "save", "x", "--from", "Desk", "-p", "default")
	assert.Error(t, err)
}
