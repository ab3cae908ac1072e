package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dori/tabshelf/internal/app"
	"github.com/dori/tabshelf/internal/config"
	"github.com/dori/tabshelf/internal/layout"
	"github.com/dori/tabshelf/internal/model"
	"github.com/dori/tabshelf/internal/placement"
	"github.com/dori/tabshelf/internal/ui/theme"
	"github.com/dori/tabshelf/internal/ui/views"
	"github.com/sirupsen/logrus"
)

// inputMode is what the keyboard is currently feeding
type inputMode int

const (
	modeNormal inputMode = iota
	modeAddItem
	modeAddCollection
	modeRename
	modeSearch
	modeConfirmDelete
	modeEditNotes
	modeNameWorkspace
	modeMoveItem
)

// RootModel is the workbench: the library sidebar plus up to four panes of
// tabs driven by the placement engine
type RootModel struct {
	app    *app.App
	log    logrus.FieldLogger
	keys   KeyMap
	help   help.Model
	width  int
	height int

	currentView View
	engine      *placement.Engine
	focus       placement.PaneID
	sidebar     views.Sidebar
	library     views.Library
	markdown    *views.Markdown
	widths      map[string]int

	mode   inputMode
	input  textinput.Model
	notes  textarea.Model
	target views.Node

	drag dragState

	// Status message
	statusMsg string
	errorMsg  string
}

// NewRootModel creates a new root model
func NewRootModel(application *app.App) RootModel {
	h := help.New()
	h.ShowAll = false

	if t, ok := theme.ByName(application.Config.Theme); ok {
		theme.SetTheme(t)
	}

	ti := textinput.New()
	ti.CharLimit = 2048

	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.Placeholder = "Markdown notes"

	return RootModel{
		app:         application,
		log:         application.Component("ui"),
		keys:        DefaultKeyMap(),
		help:        h,
		currentView: ViewWorkbench,
		engine:      placement.New(),
		focus:       placement.Primary,
		sidebar:     views.NewSidebar(),
		library:     views.NewLibrary(nil, nil, nil, nil),
		markdown:    views.NewMarkdown(),
		widths:      make(map[string]int),
		input:       ti,
		notes:       ta,
	}
}

// Run starts the workbench and blocks until it exits
func Run(a *app.App) error {
	p := tea.NewProgram(NewRootModel(a), tea.WithAltScreen(), tea.WithMouseCellMotion())
	a.OnReload(func(c config.Config) {
		p.Send(ConfigReloadedMsg{Config: c})
	})
	_, err := p.Run()
	return err
}

// Init initializes the model
func (m RootModel) Init() tea.Cmd {
	return tea.Batch(loadLibrary(m.app), loadLayout(m.app, m.currentView))
}

// Update handles messages
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resize()

	case tea.MouseMsg:
		if m.mode != modeNormal || m.currentView != ViewWorkbench {
			return m, nil
		}
		return m.handleMouse(msg)

	case tea.KeyMsg:
		// Clear status/error on any keypress
		m.statusMsg = ""
		m.errorMsg = ""

		if m.mode != modeNormal {
			return m.handleInput(msg)
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			if m.currentView == ViewHelp {
				m.currentView = ViewWorkbench
			} else {
				m.currentView = ViewHelp
			}
			return m, nil
		case key.Matches(msg, m.keys.ThemeCycle):
			m.cycleTheme()
			return m, nil
		case key.Matches(msg, m.keys.Backup):
			m.statusMsg = "Writing backup..."
			return m, writeBackup(m.app)
		}

		if m.currentView == ViewHelp {
			if key.Matches(msg, m.keys.Cancel) {
				m.currentView = ViewWorkbench
			}
			return m, nil
		}
		return m.handleKey(msg)

	case LayoutLoadedMsg:
		if msg.Err != nil {
			m.log.WithError(msg.Err).Warn("layout not restored")
			return m, nil
		}
		m.applyLayout(msg.Layout)

	case LibraryLoadedMsg:
		if msg.Err != nil {
			m.errorMsg = fmt.Sprintf("Error: %v", msg.Err)
			return m, nil
		}
		m.sidebar = m.sidebar.SetData(msg.Projects, msg.Collections, msg.Items, msg.Workspaces)
		m.library = views.NewLibrary(msg.Projects, msg.Collections, msg.Items, msg.Workspaces)
		if n := syncTabs(m.engine, m.library); n > 0 {
			m.fixFocus()
		}

	case ItemSavedMsg:
		if msg.Err != nil {
			m.errorMsg = fmt.Sprintf("Error: %v", msg.Err)
			return m, nil
		}
		switch {
		case msg.Created:
			m.statusMsg = fmt.Sprintf("Added: %s", msg.Item.Title)
		case msg.MovedTo != "":
			m.statusMsg = fmt.Sprintf("Moved %s to %s", msg.Item.Title, msg.MovedTo)
		default:
			m.statusMsg = fmt.Sprintf("Saved: %s", msg.Item.Title)
		}
		m.engine.RetitleTab(itemTab(msg.Item).ID, msg.Item.Title)
		return m, loadLibrary(m.app)

	case ItemDeletedMsg:
		if msg.Err != nil {
			m.errorMsg = fmt.Sprintf("Error: %v", msg.Err)
			return m, nil
		}
		m.engine.CloseTab("item:" + msg.ItemID)
		m.fixFocus()
		m.statusMsg = "Item deleted"
		return m, loadLibrary(m.app)

	case CollectionSavedMsg:
		if msg.Err != nil {
			m.errorMsg = fmt.Sprintf("Error: %v", msg.Err)
			return m, nil
		}
		if msg.Created {
			m.statusMsg = fmt.Sprintf("Created collection: %s", msg.Collection.Name)
		} else {
			m.statusMsg = fmt.Sprintf("Renamed collection: %s", msg.Collection.Name)
		}
		m.engine.RetitleTab(collectionTab(msg.Collection).ID, msg.Collection.Name)
		return m, loadLibrary(m.app)

	case CollectionDeletedMsg:
		if msg.Err != nil {
			m.errorMsg = fmt.Sprintf("Error: %v", msg.Err)
			return m, nil
		}
		m.engine.CloseTab("collection:" + msg.CollectionID)
		m.fixFocus()
		m.statusMsg = "Collection deleted, items kept"
		return m, loadLibrary(m.app)

	case WorkspaceSavedMsg:
		if msg.Err != nil {
			m.errorMsg = fmt.Sprintf("Error: %v", msg.Err)
			return m, nil
		}
		if msg.Created {
			m.statusMsg = fmt.Sprintf("Captured %s: %d tabs", msg.Workspace.Name, msg.Workspace.TabCount())
		} else {
			m.statusMsg = fmt.Sprintf("Renamed workspace: %s", msg.Workspace.Name)
		}
		return m, loadLibrary(m.app)

	case WorkspaceDeletedMsg:
		if msg.Err != nil {
			m.errorMsg = fmt.Sprintf("Error: %v", msg.Err)
			return m, nil
		}
		m.statusMsg = "Workspace deleted"
		return m, loadLibrary(m.app)

	case WorkspaceRestoredMsg:
		if msg.Err != nil {
			m.errorMsg = fmt.Sprintf("Restore %s: %v (%d windows opened)", msg.Name, msg.Err, msg.Windows)
			return m, nil
		}
		m.statusMsg = fmt.Sprintf("Restored %s: %d windows", msg.Name, msg.Windows)

	case BrowserOpenedMsg:
		if msg.Err != nil {
			m.errorMsg = fmt.Sprintf("Browser: %v", msg.Err)
			return m, nil
		}
		if msg.Focused {
			m.statusMsg = "Switched to open tab"
		} else {
			m.statusMsg = fmt.Sprintf("Opened %s", msg.URL)
		}

	case BackupWrittenMsg:
		if msg.Err != nil {
			m.errorMsg = fmt.Sprintf("Backup failed: %v", msg.Err)
			return m, nil
		}
		m.statusMsg = fmt.Sprintf("Backup written: %s", msg.Path)

	case ErrorMsg:
		m.errorMsg = msg.Err.Error()

	case StatusMsg:
		m.statusMsg = msg.Message

	case ThemeChangedMsg:
		if t, ok := theme.ByName(msg.ThemeName); ok {
			theme.SetTheme(t)
			m.statusMsg = fmt.Sprintf("Theme: %s", t.Name)
		}

	case ConfigReloadedMsg:
		if msg.Config.Theme != theme.Current.Theme.Name {
			if t, ok := theme.ByName(msg.Config.Theme); ok {
				theme.SetTheme(t)
				m.statusMsg = fmt.Sprintf("Config reloaded, theme: %s", t.Name)
			}
		}

	case RefreshMsg:
		return m, loadLibrary(m.app)
	}

	// Inputs need non-key messages such as cursor blinks
	var cmd tea.Cmd
	switch m.mode {
	case modeEditNotes:
		m.notes, cmd = m.notes.Update(msg)
	case modeNormal:
	default:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

// handleKey handles keys in normal mode
func (m RootModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	// Sidebar navigation
	case key.Matches(msg, m.keys.Up):
		m.sidebar = m.sidebar.MoveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.sidebar = m.sidebar.MoveCursor(1)
	case key.Matches(msg, m.keys.Top):
		m.sidebar = m.sidebar.Top()
	case key.Matches(msg, m.keys.Bottom):
		m.sidebar = m.sidebar.Bottom()
	case key.Matches(msg, m.keys.PageUp):
		m.sidebar = m.sidebar.MoveCursor(-m.sidebar.PageSize())
	case key.Matches(msg, m.keys.PageDown):
		m.sidebar = m.sidebar.MoveCursor(m.sidebar.PageSize())
	case key.Matches(msg, m.keys.Expand):
		m.sidebar = m.sidebar.SetExpanded(true)
	case key.Matches(msg, m.keys.Collapse):
		m.sidebar = m.sidebar.SetExpanded(false)
	case key.Matches(msg, m.keys.NextProject):
		m.sidebar = m.sidebar.CycleProject(1)
	case key.Matches(msg, m.keys.PrevProject):
		m.sidebar = m.sidebar.CycleProject(-1)

	// Tabs
	case key.Matches(msg, m.keys.Open):
		if n, ok := m.sidebar.Selected(); ok && n.Kind == views.NodeWorkspace {
			return m.restoreSelected(n)
		}
		return m.openSelection(m.focus)
	case key.Matches(msg, m.keys.OpenSecondary):
		if m.focus == placement.RightPrimary || m.focus == placement.RightSecondary {
			return m.openSelection(placement.RightSecondary)
		}
		return m.openSelection(placement.Secondary)
	case key.Matches(msg, m.keys.OpenRight):
		return m.openSelection(placement.RightPrimary)
	case key.Matches(msg, m.keys.CloseTab):
		if id := m.engine.ActiveID(m.focus); id != "" {
			m.engine.CloseTab(id)
		}
	case key.Matches(msg, m.keys.NextTab):
		m.engine.CycleTab(m.focus, 1)
	case key.Matches(msg, m.keys.PrevTab):
		m.engine.CycleTab(m.focus, -1)
	case key.Matches(msg, m.keys.MoveTab):
		return m.moveActiveTab()
	case key.Matches(msg, m.keys.FocusNext):
		m.cycleFocus(1)
	case key.Matches(msg, m.keys.FocusPrev):
		m.cycleFocus(-1)

	// Layout
	case key.Matches(msg, m.keys.ToggleSplit):
		m.engine.ToggleSplit(placement.SplitMain)
		m.fixFocus()
		return m, m.persistLayout()
	case key.Matches(msg, m.keys.ToggleRightSplit):
		if !m.engine.RightPaneVisible() {
			m.engine.SetRightPaneVisible(true)
		}
		m.engine.ToggleSplit(placement.SplitRight)
		m.fixFocus()
		return m, m.persistLayout()
	case key.Matches(msg, m.keys.ToggleRight):
		m.engine.SetRightPaneVisible(!m.engine.RightPaneVisible())
		m.fixFocus()
		return m, m.persistLayout()
	case key.Matches(msg, m.keys.Narrower):
		return m.resizeColumn(-resizeStep)
	case key.Matches(msg, m.keys.Wider):
		return m.resizeColumn(resizeStep)

	// Library
	case key.Matches(msg, m.keys.Add):
		placeholder := "https://... title @tag #collection"
		return m.startInput(modeAddItem, "", placeholder, views.Node{})
	case key.Matches(msg, m.keys.AddCollection):
		return m.startInput(modeAddCollection, "", "Collection name", views.Node{})
	case key.Matches(msg, m.keys.Rename):
		n, ok := m.sidebar.Selected()
		if !ok {
			return m, nil
		}
		return m.startInput(modeRename, n.Title, "New name", n)
	case key.Matches(msg, m.keys.MoveItem):
		n, ok := m.sidebar.Selected()
		if !ok || n.Kind != views.NodeItem {
			m.errorMsg = "Select an item in a collection to move it"
			return m, nil
		}
		return m.startInput(modeMoveItem, "", "Destination collection", n)
	case key.Matches(msg, m.keys.EditNotes):
		return m.startNotes()
	case key.Matches(msg, m.keys.Delete):
		n, ok := m.sidebar.Selected()
		if !ok {
			return m, nil
		}
		m.mode = modeConfirmDelete
		m.target = n
	case key.Matches(msg, m.keys.Search):
		return m.startInput(modeSearch, m.sidebar.Filter(), "Filter items", views.Node{})
	case key.Matches(msg, m.keys.Workspaces):
		m.focus = m.engine.OpenTab(systemTab(systemWorkspaces), m.focus)
		return m, m.persistLayout()
	case key.Matches(msg, m.keys.Stats):
		m.focus = m.engine.OpenTab(systemTab(systemStats), m.focus)
		return m, m.persistLayout()
	case key.Matches(msg, m.keys.HelpTab):
		m.focus = m.engine.OpenTab(systemTab(systemHelp), m.focus)
		return m, m.persistLayout()
	case key.Matches(msg, m.keys.Refresh):
		return m, loadLibrary(m.app)

	// Browser
	case key.Matches(msg, m.keys.OpenInBrowser):
		it, ok := m.selectedItem()
		if !ok {
			m.errorMsg = "Select an item to open"
			return m, nil
		}
		if it.IsNote() {
			m.errorMsg = "Notes have no URL"
			return m, nil
		}
		return m, openInBrowser(m.app, it.URL)
	case key.Matches(msg, m.keys.SaveWorkspace):
		name := "Workspace " + time.Now().Format("2006-01-02 15:04")
		return m.startInput(modeNameWorkspace, name, "Workspace name", views.Node{})
	}
	return m, nil
}

// handleInput handles keys while a prompt or editor is open
func (m RootModel) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeConfirmDelete:
		m.mode = modeNormal
		if msg.String() == "y" || msg.String() == "Y" {
			return m, m.deleteTarget()
		}
		m.statusMsg = "Delete cancelled"
		return m, nil

	case modeEditNotes:
		switch {
		case key.Matches(msg, m.keys.Cancel):
			m.mode = modeNormal
			m.notes.Blur()
			return m, nil
		case key.Matches(msg, m.keys.Save):
			m.mode = modeNormal
			m.notes.Blur()
			return m, updateItem(m.app, m.target.ID, model.ItemPatch{Notes: model.Ptr(m.notes.Value())})
		}
		var cmd tea.Cmd
		m.notes, cmd = m.notes.Update(msg)
		return m, cmd

	case modeSearch:
		switch {
		case key.Matches(msg, m.keys.Cancel):
			m.mode = modeNormal
			m.input.Blur()
			m.sidebar = m.sidebar.SetFilter("")
			return m, nil
		case key.Matches(msg, m.keys.Confirm):
			m.mode = modeNormal
			m.input.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.sidebar = m.sidebar.SetFilter(m.input.Value())
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.mode = modeNormal
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		value := strings.TrimSpace(m.input.Value())
		mode := m.mode
		m.mode = modeNormal
		m.input.Blur()
		if value == "" {
			return m, nil
		}
		return m.submit(mode, value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m RootModel) startInput(mode inputMode, value, placeholder string, target views.Node) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.target = target
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	cmd := m.input.Focus()
	return m, cmd
}

func (m RootModel) startNotes() (tea.Model, tea.Cmd) {
	it, ok := m.selectedItem()
	if !ok {
		m.errorMsg = "Select an item to edit its notes"
		return m, nil
	}
	m.mode = modeEditNotes
	m.target = views.Node{Kind: views.NodeItem, ID: it.ID, Title: it.Title}
	m.notes.SetValue(it.Notes)
	m.notes.SetWidth(m.width - 4)
	m.notes.SetHeight(m.contentHeight() - 4)
	cmd := m.notes.Focus()
	return m, cmd
}

// submit runs a confirmed prompt
func (m RootModel) submit(mode inputMode, value string) (tea.Model, tea.Cmd) {
	switch mode {
	case modeAddItem:
		q := model.ParseQuickAdd(value)
		ids, err := m.resolveCollections(q.Collections)
		if err != nil {
			m.errorMsg = err.Error()
			return m, nil
		}
		return m, addItem(m.app, q.Fields(ids))

	case modeAddCollection:
		return m, addCollection(m.app, value, m.writableProjectID())

	case modeRename:
		switch m.target.Kind {
		case views.NodeCollection:
			return m, renameCollection(m.app, m.target.ID, value)
		case views.NodeItem:
			return m, updateItem(m.app, m.target.ID, model.ItemPatch{Title: model.Ptr(value)})
		case views.NodeWorkspace:
			return m, renameWorkspace(m.app, m.target.ID, value)
		}

	case modeMoveItem:
		ids, err := m.resolveCollections([]string{strings.TrimPrefix(value, "#")})
		if err != nil {
			m.errorMsg = err.Error()
			return m, nil
		}
		to, found := m.library.Collections[ids[0]]
		if !found {
			return m, nil
		}
		if to.ID == m.target.ParentID {
			m.statusMsg = fmt.Sprintf("%s is already in %s", m.target.Title, to.Name)
			return m, nil
		}
		return m, moveItem(m.app, m.target.ID, m.target.ParentID, to)

	case modeNameWorkspace:
		var project *string
		if pid := m.sidebar.ProjectID(); pid != model.AllProjectsID {
			project = model.Ptr(pid)
		}
		m.statusMsg = "Capturing browser windows..."
		return m, captureWorkspace(m.app, value, project)
	}
	return m, nil
}

func (m RootModel) deleteTarget() tea.Cmd {
	switch m.target.Kind {
	case views.NodeCollection:
		return deleteCollection(m.app, m.target.ID)
	case views.NodeItem:
		return deleteItem(m.app, m.target.ID)
	case views.NodeWorkspace:
		return deleteWorkspace(m.app, m.target.ID)
	}
	return nil
}

// writableProjectID is the project new collections go into. The aggregate
// view is read-only, so it falls back to the default project.
func (m RootModel) writableProjectID() string {
	if pid := m.sidebar.ProjectID(); pid != model.AllProjectsID {
		return pid
	}
	return model.DefaultProjectID
}

// resolveCollections maps #names from a quick-add line to collection ids.
// With no names the item goes into the collection under the cursor, or the
// project's Unsorted.
func (m RootModel) resolveCollections(names []string) ([]string, error) {
	if len(names) == 0 {
		if n, ok := m.sidebar.Selected(); ok {
			switch n.Kind {
			case views.NodeCollection:
				return []string{n.ID}, nil
			case views.NodeItem:
				return []string{n.ParentID}, nil
			}
		}
		return []string{model.DefaultCollectionID(m.writableProjectID())}, nil
	}

	visible := m.sidebar.Collections()
	var ids []string
	for _, name := range names {
		found := false
		for _, c := range visible {
			if strings.EqualFold(c.Name, name) || c.ID == name {
				ids = append(ids, c.ID)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown collection #%s", name)
		}
	}
	return ids, nil
}

// selectedItem is the item under the sidebar cursor, or else the active
// item tab of the focused pane
func (m RootModel) selectedItem() (model.Item, bool) {
	if n, ok := m.sidebar.Selected(); ok && n.Kind == views.NodeItem {
		it, found := m.library.Items[n.ID]
		return it, found
	}
	if t, ok := m.engine.ActiveTab(m.focus); ok && t.Kind == placement.KindItem {
		it, found := m.library.Items[t.RefID]
		return it, found
	}
	return model.Item{}, false
}

// openSelection opens the sidebar selection as a tab in target
func (m RootModel) openSelection(target placement.PaneID) (tea.Model, tea.Cmd) {
	n, ok := m.sidebar.Selected()
	if !ok {
		return m, nil
	}

	var tab placement.Tab
	switch n.Kind {
	case views.NodeCollection:
		c, found := m.library.Collections[n.ID]
		if !found {
			return m, nil
		}
		tab = collectionTab(c)
	case views.NodeItem:
		it, found := m.library.Items[n.ID]
		if !found {
			return m, nil
		}
		tab = itemTab(it)
	case views.NodeWorkspace:
		tab = systemTab(systemWorkspaces)
	default:
		return m, nil
	}

	m.focus = m.engine.OpenTab(tab, target)
	return m, m.persistLayout()
}

func (m RootModel) restoreSelected(n views.Node) (tea.Model, tea.Cmd) {
	for _, ws := range m.library.Workspaces {
		if ws.ID == n.ID {
			m.statusMsg = fmt.Sprintf("Restoring %s...", ws.Name)
			return m, restoreWorkspace(m.app, ws)
		}
	}
	return m, nil
}

// moveActiveTab sends the focused pane's active tab to the next pane in
// layout order, revealing it if hidden
func (m RootModel) moveActiveTab() (tea.Model, tea.Cmd) {
	id := m.engine.ActiveID(m.focus)
	if id == "" {
		return m, nil
	}
	dest := placement.PaneID((int(m.focus) + 1) % placement.PaneCount)
	if m.engine.MoveTab(id, dest) {
		m.focus = dest
	}
	return m, m.persistLayout()
}

func (m *RootModel) cycleFocus(delta int) {
	panes := m.engine.VisiblePanes()
	for i, p := range panes {
		if p == m.focus {
			m.focus = panes[((i+delta)%len(panes)+len(panes))%len(panes)]
			return
		}
	}
	m.focus = placement.Primary
}

func (m *RootModel) fixFocus() {
	if !m.engine.Visible(m.focus) {
		m.focus = placement.Primary
	}
}

// resizeColumn widens or narrows the right column when it has focus, the
// sidebar otherwise
func (m RootModel) resizeColumn(delta int) (tea.Model, tea.Cmd) {
	g := m.geometry()
	if m.focus == placement.RightPrimary || m.focus == placement.RightSecondary {
		box, _ := g.pane(m.focus)
		// the right column grows leftwards
		m.widths[widthRight] = box.Outer.W - delta
	} else {
		m.widths[widthSidebar] = g.Sidebar.W + delta
	}
	m.resize()
	return m, m.persistLayout()
}

func (m *RootModel) applyLayout(l layout.Layout) {
	m.widths = make(map[string]int, len(l.Widths))
	for k, v := range l.Widths {
		m.widths[k] = v
	}
	m.engine.SetRightPaneVisible(l.RightPaneVisible)
	m.engine.SetSplit(placement.SplitRight, l.RightPaneVisible && l.RightSplit)
	m.engine.SetSplit(placement.SplitMain, l.MainSplit)
	m.fixFocus()
	m.resize()
}

func (m RootModel) currentLayout() layout.Layout {
	widths := make(map[string]int, len(m.widths))
	for k, v := range m.widths {
		widths[k] = v
	}
	return layout.Layout{
		Widths:           widths,
		MainSplit:        m.engine.MainSplit(),
		RightSplit:       m.engine.RightSplit(),
		RightPaneVisible: m.engine.RightPaneVisible(),
	}
}

func (m RootModel) persistLayout() tea.Cmd {
	return saveLayout(m.app, m.currentView, m.currentLayout())
}

func (m RootModel) contentHeight() int {
	return m.height - headerHeight - footerHeight
}

func (m RootModel) geometry() geometry {
	return computeGeometry(m.engine, m.width, m.height, m.widths)
}

func (m *RootModel) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}
	g := m.geometry()
	m.sidebar = m.sidebar.SetSize(g.Sidebar.W, g.Sidebar.H)
}

// cycleTheme cycles through available themes
func (m *RootModel) cycleTheme() {
	next := theme.Next(theme.Current.Theme.Name)
	theme.SetTheme(next)
	m.statusMsg = fmt.Sprintf("Theme: %s", next.Name)
}
