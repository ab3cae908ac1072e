package ui

import (
	"github.com/dori/tabshelf/internal/config"
	"github.com/dori/tabshelf/internal/layout"
	"github.com/dori/tabshelf/internal/model"
)

// View represents the current active view
type View int

const (
	ViewWorkbench View = iota
	ViewHelp
)

// String returns the display name for a view
func (v View) String() string {
	switch v {
	case ViewWorkbench:
		return "Workbench"
	case ViewHelp:
		return "Help"
	default:
		return "Unknown"
	}
}

// layoutKey is the name a view's layout is cached under
func (v View) layoutKey() string {
	switch v {
	case ViewWorkbench:
		return "workbench"
	default:
		return "unknown"
	}
}

// Messages for inter-component communication

// LibraryLoadedMsg carries a fresh read of everything the sidebar shows
type LibraryLoadedMsg struct {
	Projects    []model.Project
	Collections []model.Collection
	Items       []model.Item
	Workspaces  []model.Workspace
	Err         error
}

// ItemSavedMsg indicates an item was created or updated
type ItemSavedMsg struct {
	Item    model.Item
	Created bool
	// MovedTo names the destination collection after a move
	MovedTo string
	Err     error
}

// ItemDeletedMsg indicates an item was deleted
type ItemDeletedMsg struct {
	ItemID string
	Err    error
}

// CollectionSavedMsg indicates a collection was created or renamed
type CollectionSavedMsg struct {
	Collection model.Collection
	Created    bool
	Err        error
}

// CollectionDeletedMsg indicates a collection was deleted
type CollectionDeletedMsg struct {
	CollectionID string
	Err          error
}

// WorkspaceSavedMsg indicates a workspace was captured or renamed
type WorkspaceSavedMsg struct {
	Workspace model.Workspace
	Created   bool
	Err       error
}

// WorkspaceDeletedMsg indicates a workspace was deleted
type WorkspaceDeletedMsg struct {
	WorkspaceID string
	Err         error
}

// WorkspaceRestoredMsg reports how many windows a restore opened
type WorkspaceRestoredMsg struct {
	Name    string
	Windows int
	Err     error
}

// BrowserOpenedMsg reports an item sent to the browser
type BrowserOpenedMsg struct {
	URL string
	// Focused is true when an existing tab was raised instead of a new one opened
	Focused bool
	Err     error
}

// BackupWrittenMsg reports a manual backup
type BackupWrittenMsg struct {
	Path string
	Err  error
}

// LayoutLoadedMsg carries the cached layout for a view
type LayoutLoadedMsg struct {
	View   View
	Layout layout.Layout
	Err    error
}

// ErrorMsg contains an error to display
type ErrorMsg struct {
	Err error
}

// StatusMsg contains a status message to display
type StatusMsg struct {
	Message string
}

// ThemeChangedMsg indicates the theme was changed
type ThemeChangedMsg struct {
	ThemeName string
}

// ConfigReloadedMsg is sent when the config file changes on disk
type ConfigReloadedMsg struct {
	Config config.Config
}

// RefreshMsg requests data refresh
type RefreshMsg struct{}
