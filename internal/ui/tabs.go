package ui

import (
	"github.com/dori/tabshelf/internal/model"
	"github.com/dori/tabshelf/internal/placement"
	"github.com/dori/tabshelf/internal/ui/views"
)

// System tab references
const (
	systemWorkspaces = "workspaces"
	systemStats      = "stats"
	systemHelp       = "help"
)

func itemTab(it model.Item) placement.Tab {
	return placement.Tab{ID: "item:" + it.ID, Kind: placement.KindItem, Title: it.Title, RefID: it.ID}
}

func collectionTab(c model.Collection) placement.Tab {
	return placement.Tab{ID: "collection:" + c.ID, Kind: placement.KindCollection, Title: c.Name, RefID: c.ID}
}

func systemTab(ref string) placement.Tab {
	title := "Help"
	switch ref {
	case systemWorkspaces:
		title = "Workspaces"
	case systemStats:
		title = "Stats"
	}
	return placement.Tab{ID: "system:" + ref, Kind: placement.KindSystem, Title: title, RefID: ref}
}

// syncTabs closes tabs whose item or collection is gone and refreshes the
// titles of the rest. It returns how many tabs were closed.
func syncTabs(e *placement.Engine, lib views.Library) int {
	closed := e.CloseWhere(func(t placement.Tab) bool {
		switch t.Kind {
		case placement.KindItem:
			_, ok := lib.Items[t.RefID]
			return !ok
		case placement.KindCollection:
			_, ok := lib.Collections[t.RefID]
			return !ok
		}
		return false
	})

	for _, p := range placement.Panes() {
		for _, t := range e.Tabs(p) {
			switch t.Kind {
			case placement.KindItem:
				if it := lib.Items[t.RefID]; it.Title != t.Title {
					e.RetitleTab(t.ID, it.Title)
				}
			case placement.KindCollection:
				if c := lib.Collections[t.RefID]; c.Name != t.Title {
					e.RetitleTab(t.ID, c.Name)
				}
			}
		}
	}
	return closed
}
