package ui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dori/tabshelf/internal/app"
	"github.com/dori/tabshelf/internal/browser"
	"github.com/dori/tabshelf/internal/layout"
	"github.com/dori/tabshelf/internal/model"
)

// opTimeout bounds a single store or browser call made from the UI
const opTimeout = 10 * time.Second

func opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), opTimeout)
}

func loadLibrary(a *app.App) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		var msg LibraryLoadedMsg
		if msg.Projects, msg.Err = a.DB.GetAllProjects(ctx); msg.Err != nil {
			return msg
		}
		if msg.Collections, msg.Err = a.DB.GetAllCollections(ctx); msg.Err != nil {
			return msg
		}
		if msg.Items, msg.Err = a.DB.GetAllItems(ctx); msg.Err != nil {
			return msg
		}
		msg.Workspaces, msg.Err = a.DB.GetAllWorkspaces(ctx)
		return msg
	}
}

func addItem(a *app.App, fields model.ItemFields) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		id, err := a.DB.AddItem(ctx, fields)
		if err != nil {
			return ItemSavedMsg{Err: err}
		}
		it, err := a.DB.GetItem(ctx, id)
		if err != nil {
			return ItemSavedMsg{Err: err}
		}
		return ItemSavedMsg{Item: *it, Created: true}
	}
}

func updateItem(a *app.App, id string, patch model.ItemPatch) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		if err := a.DB.UpdateItem(ctx, id, patch); err != nil {
			return ItemSavedMsg{Err: err}
		}
		it, err := a.DB.GetItem(ctx, id)
		if err != nil {
			return ItemSavedMsg{Err: err}
		}
		return ItemSavedMsg{Item: *it}
	}
}

// moveItem swaps one collection membership of an item for another
func moveItem(a *app.App, id, from string, to model.Collection) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		if err := a.DB.MoveItem(ctx, id, from, to.ID); err != nil {
			return ItemSavedMsg{Err: err}
		}
		it, err := a.DB.GetItem(ctx, id)
		if err != nil {
			return ItemSavedMsg{Err: err}
		}
		return ItemSavedMsg{Item: *it, MovedTo: to.Name}
	}
}

func deleteItem(a *app.App, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		return ItemDeletedMsg{ItemID: id, Err: a.DB.DeleteItem(ctx, id)}
	}
}

func addCollection(a *app.App, name, projectID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		id, err := a.DB.AddCollection(ctx, name, "", projectID)
		if err != nil {
			return CollectionSavedMsg{Err: err}
		}
		c, err := a.DB.GetCollection(ctx, id)
		if err != nil {
			return CollectionSavedMsg{Err: err}
		}
		return CollectionSavedMsg{Collection: *c, Created: true}
	}
}

func renameCollection(a *app.App, id, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		if err := a.DB.UpdateCollection(ctx, id, model.CollectionPatch{Name: model.Ptr(name)}); err != nil {
			return CollectionSavedMsg{Err: err}
		}
		c, err := a.DB.GetCollection(ctx, id)
		if err != nil {
			return CollectionSavedMsg{Err: err}
		}
		return CollectionSavedMsg{Collection: *c}
	}
}

func deleteCollection(a *app.App, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		return CollectionDeletedMsg{CollectionID: id, Err: a.DB.DeleteCollection(ctx, id)}
	}
}

func renameWorkspace(a *app.App, id, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		if err := a.DB.UpdateWorkspace(ctx, id, model.WorkspacePatch{Name: model.Ptr(name)}); err != nil {
			return WorkspaceSavedMsg{Err: err}
		}
		ws, err := a.DB.GetWorkspace(ctx, id)
		if err != nil {
			return WorkspaceSavedMsg{Err: err}
		}
		return WorkspaceSavedMsg{Workspace: *ws}
	}
}

func deleteWorkspace(a *app.App, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		return WorkspaceDeletedMsg{WorkspaceID: id, Err: a.DB.DeleteWorkspace(ctx, id)}
	}
}

// captureWorkspace snapshots the browser into a new workspace linked to
// projectID (nil for detached)
func captureWorkspace(a *app.App, name string, projectID *string) tea.Cmd {
	return func() tea.Msg {
		if a.Browser == nil {
			return WorkspaceSavedMsg{Err: browser.ErrNotConnected}
		}
		ctx, cancel := opContext()
		defer cancel()

		windows, err := browser.CaptureWorkspace(ctx, a.Browser)
		if err != nil {
			return WorkspaceSavedMsg{Err: err}
		}
		id, err := a.DB.AddWorkspace(ctx, name, windows, projectID)
		if err != nil {
			return WorkspaceSavedMsg{Err: err}
		}
		ws, err := a.DB.GetWorkspace(ctx, id)
		if err != nil {
			return WorkspaceSavedMsg{Err: err}
		}
		return WorkspaceSavedMsg{Workspace: *ws, Created: true}
	}
}

func restoreWorkspace(a *app.App, ws model.Workspace) tea.Cmd {
	return func() tea.Msg {
		if a.Browser == nil {
			return WorkspaceRestoredMsg{Name: ws.Name, Err: browser.ErrNotConnected}
		}
		ctx, cancel := opContext()
		defer cancel()

		n, err := browser.RestoreWorkspace(ctx, a.Browser, &ws)
		if err == nil {
			a.Notifier.SendWorkspaceRestored(ws.Name, n)
		}
		return WorkspaceRestoredMsg{Name: ws.Name, Windows: n, Err: err}
	}
}

// openInBrowser raises the tab already showing url, or opens a new one.
// Raising goes through the relay so the window has time to come forward.
func openInBrowser(a *app.App, url string) tea.Cmd {
	return func() tea.Msg {
		if a.Browser == nil {
			return BrowserOpenedMsg{URL: url, Err: browser.ErrNotConnected}
		}
		ctx, cancel := opContext()
		defer cancel()

		windows, err := a.Browser.ListWindows(ctx)
		if err != nil {
			return BrowserOpenedMsg{URL: url, Err: err}
		}
		if tab, ok := browser.FindTabByURL(windows, url); ok {
			a.Relay.Focus(tab.ID)
			return BrowserOpenedMsg{URL: url, Focused: true}
		}
		if len(windows) == 0 {
			_, err = a.Browser.CreateWindow(ctx, []string{url})
		} else {
			_, err = a.Browser.CreateTab(ctx, url, 0)
		}
		return BrowserOpenedMsg{URL: url, Err: err}
	}
}

func writeBackup(a *app.App) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		path, err := a.DB.Backup(ctx, "manual")
		if err == nil {
			a.Notifier.SendBackupWritten(path)
		}
		return BackupWrittenMsg{Path: path, Err: err}
	}
}

func loadLayout(a *app.App, v View) tea.Cmd {
	if a.Layout == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		l, err := a.Layout.Load(ctx, v.layoutKey())
		return LayoutLoadedMsg{View: v, Layout: l, Err: err}
	}
}

func saveLayout(a *app.App, v View, l layout.Layout) tea.Cmd {
	if a.Layout == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		if err := a.Layout.Save(ctx, v.layoutKey(), l); err != nil {
			return ErrorMsg{Err: fmt.Errorf("save layout: %w", err)}
		}
		return nil
	}
}
