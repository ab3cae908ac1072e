package ui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the application
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Expand   key.Binding
	Collapse key.Binding

	// Projects
	NextProject key.Binding
	PrevProject key.Binding

	// Tabs
	Open          key.Binding
	OpenSecondary key.Binding
	OpenRight     key.Binding
	CloseTab      key.Binding
	NextTab       key.Binding
	PrevTab       key.Binding
	MoveTab       key.Binding
	FocusNext     key.Binding
	FocusPrev     key.Binding

	// Layout
	ToggleSplit      key.Binding
	ToggleRightSplit key.Binding
	ToggleRight      key.Binding
	Narrower         key.Binding
	Wider            key.Binding

	// Library
	Add           key.Binding
	AddCollection key.Binding
	Rename        key.Binding
	MoveItem      key.Binding
	EditNotes     key.Binding
	Delete        key.Binding
	Search        key.Binding
	Workspaces    key.Binding
	Stats         key.Binding
	Refresh       key.Binding

	// Browser
	OpenInBrowser key.Binding
	SaveWorkspace key.Binding

	// Power User
	Help       key.Binding
	HelpTab    key.Binding
	Backup     key.Binding
	ThemeCycle key.Binding

	// General
	Quit    key.Binding
	Confirm key.Binding
	Cancel  key.Binding
	Save    key.Binding
}

// DefaultKeyMap returns the default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		// Navigation
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "bottom"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("PgUp", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("PgDn", "page down"),
		),
		Expand: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l", "expand"),
		),
		Collapse: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h", "collapse"),
		),

		// Projects
		NextProject: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "next project"),
		),
		PrevProject: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "prev project"),
		),

		// Tabs
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		OpenSecondary: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open below"),
		),
		OpenRight: key.NewBinding(
			key.WithKeys("O"),
			key.WithHelp("O", "open right"),
		),
		CloseTab: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "close tab"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "prev tab"),
		),
		MoveTab: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "move tab"),
		),
		FocusNext: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next pane"),
		),
		FocusPrev: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-tab", "prev pane"),
		),

		// Layout
		ToggleSplit: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "split"),
		),
		ToggleRightSplit: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "split right"),
		),
		ToggleRight: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "right column"),
		),
		Narrower: key.NewBinding(
			key.WithKeys("<"),
			key.WithHelp("<", "narrower"),
		),
		Wider: key.NewBinding(
			key.WithKeys(">"),
			key.WithHelp(">", "wider"),
		),

		// Library
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add item"),
		),
		AddCollection: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "add collection"),
		),
		Rename: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rename"),
		),
		MoveItem: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "move to collection"),
		),
		EditNotes: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit notes"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Workspaces: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "workspaces"),
		),
		Stats: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "stats"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "refresh"),
		),

		// Browser
		OpenInBrowser: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "browser"),
		),
		SaveWorkspace: key.NewBinding(
			key.WithKeys("W"),
			key.WithHelp("W", "capture workspace"),
		),

		// Power User
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		HelpTab: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "help in a tab"),
		),
		Backup: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("C-e", "backup"),
		),
		ThemeCycle: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "theme"),
		),

		// General
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("C-s", "save"),
		),
	}
}

// ShortHelp returns short help bindings (for status bar)
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns full help bindings (for help view)
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom, k.Expand, k.Collapse},
		{k.NextProject, k.PrevProject, k.Search, k.Refresh},
		{k.Open, k.OpenSecondary, k.OpenRight, k.CloseTab},
		{k.NextTab, k.PrevTab, k.MoveTab, k.FocusNext, k.FocusPrev},
		{k.ToggleSplit, k.ToggleRightSplit, k.ToggleRight, k.Narrower, k.Wider},
		{k.Add, k.AddCollection, k.Rename, k.MoveItem, k.EditNotes, k.Delete},
		{k.Workspaces, k.Stats, k.OpenInBrowser, k.SaveWorkspace},
		{k.Backup, k.ThemeCycle, k.Help, k.HelpTab, k.Quit},
	}
}
