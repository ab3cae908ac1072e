package browser

import (
	"context"
	"errors"
)

// ErrNotConnected is returned when no browser is attached
var ErrNotConnected = errors.New("browser not connected")

// ErrTabNotFound is returned when a tab id is not open in the browser
var ErrTabNotFound = errors.New("tab not found")

// Tab is a live browser tab
type Tab struct {
	ID         string
	WindowID   int
	Title      string
	URL        string
	FavIconURL string
	Active     bool
}

// Window is a live browser window and its tabs in strip order
type Window struct {
	ID   int
	Tabs []Tab
}

// Controller drives the user's browser
type Controller interface {
	ListWindows(ctx context.Context) ([]Window, error)
	// RaiseWindow brings the window owning tabID to the foreground
	RaiseWindow(ctx context.Context, tabID string) error
	// FocusTab makes tabID the active tab of its window
	FocusTab(ctx context.Context, tabID string) error
	CloseTab(ctx context.Context, tabID string) error
	CloseWindow(ctx context.Context, windowID int) error
	// CreateWindow opens a new window holding urls and returns its id
	CreateWindow(ctx context.Context, urls []string) (int, error)
	// CreateTab opens url. A windowID of 0 means the last focused window.
	CreateTab(ctx context.Context, url string, windowID int) (string, error)
}

// FindTabByURL returns the first open tab showing url
func FindTabByURL(windows []Window, url string) (Tab, bool) {
	for _, w := range windows {
		for _, t := range w.Tabs {
			if t.URL == url {
				return t, true
			}
		}
	}
	return Tab{}, false
}
