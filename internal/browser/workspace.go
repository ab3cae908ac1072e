package browser

import (
	"context"
	"fmt"

	"github.com/dori/tabshelf/internal/model"
	"golang.org/x/sync/errgroup"
)

// maxParallelWindows bounds how many windows a restore opens at once
const maxParallelWindows = 4

// CaptureWorkspace snapshots every open window as workspace windows. Tabs are
// kept by URL only since live tab ids do not survive a browser restart.
func CaptureWorkspace(ctx context.Context, ctl Controller) ([]model.WorkspaceWindow, error) {
	windows, err := ctl.ListWindows(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture workspace: %w", err)
	}

	out := make([]model.WorkspaceWindow, 0, len(windows))
	for i, w := range windows {
		win := model.WorkspaceWindow{
			Name: fmt.Sprintf("Window %d", i+1),
			Tabs: make([]model.WorkspaceTab, 0, len(w.Tabs)),
		}
		for _, t := range w.Tabs {
			if t.URL == "" {
				continue
			}
			win.Tabs = append(win.Tabs, model.WorkspaceTab{
				URL:        t.URL,
				Title:      t.Title,
				FavIconURL: t.FavIconURL,
			})
		}
		out = append(out, win)
	}
	return out, nil
}

// RestoreWorkspace opens one browser window per saved window. Empty windows
// are skipped. It returns the number of windows opened.
func RestoreWorkspace(ctx context.Context, ctl Controller, ws *model.Workspace) (int, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelWindows)

	opened := make([]bool, len(ws.Windows))
	for i, w := range ws.Windows {
		if len(w.Tabs) == 0 {
			continue
		}
		urls := make([]string, len(w.Tabs))
		for j, t := range w.Tabs {
			urls[j] = t.URL
		}
		g.Go(func() error {
			if _, err := ctl.CreateWindow(gctx, urls); err != nil {
				return fmt.Errorf("restore window %q: %w", w.Name, err)
			}
			opened[i] = true
			return nil
		})
	}

	err := g.Wait()
	n := 0
	for _, ok := range opened {
		if ok {
			n++
		}
	}
	return n, err
}
