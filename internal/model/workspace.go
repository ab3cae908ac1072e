package model

import (
	"time"
)

// WorkspaceTab is a tab captured by URL; live browser tab ids are never stored
type WorkspaceTab struct {
	URL        string `json:"url" yaml:"url"`
	Title      string `json:"title,omitempty" yaml:"title,omitempty"`
	FavIconURL string `json:"favIconUrl,omitempty" yaml:"favIconUrl,omitempty"`
}

// WorkspaceWindow is one captured browser window
type WorkspaceWindow struct {
	ID   string         `json:"id" yaml:"id"`
	Name string         `json:"name" yaml:"name"`
	Tabs []WorkspaceTab `json:"tabs" yaml:"tabs"`
}

// Workspace is a saved browser layout snapshot
type Workspace struct {
	ID        string            `json:"id" yaml:"id"`
	Name      string            `json:"name" yaml:"name"`
	ProjectID *string           `json:"projectId,omitempty" yaml:"projectId,omitempty"`
	CreatedAt time.Time         `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" yaml:"updated_at"`
	Windows   []WorkspaceWindow `json:"windows" yaml:"windows"`
}

// IsDetached returns true if the workspace is not linked to a project
func (w *Workspace) IsDetached() bool {
	return w.ProjectID == nil || *w.ProjectID == ""
}

// TabCount returns the number of tabs across all windows
func (w *Workspace) TabCount() int {
	n := 0
	for _, win := range w.Windows {
		n += len(win.Tabs)
	}
	return n
}

// WorkspacePatch lists the workspace fields that may be updated.
// Windows, when set, replaces the whole window list.
type WorkspacePatch struct {
	Name      *string
	ProjectID **string
	Windows   *[]WorkspaceWindow
}
