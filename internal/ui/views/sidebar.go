package views

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dori/tabshelf/internal/model"
	"github.com/dori/tabshelf/internal/ui/theme"
)

// NodeKind says what a sidebar row points at
type NodeKind int

const (
	NodeHeader NodeKind = iota
	NodeCollection
	NodeItem
	NodeWorkspace
)

// Node is one visible sidebar row
type Node struct {
	Kind  NodeKind
	ID    string
	Title string
	Depth int
	// ParentID is the collection an item row sits under
	ParentID string
	Count    int
	Shared   bool
	Note     bool
	Expanded bool
}

// Sidebar is the library tree: the selected project's collections, their
// items, and the project's workspaces
type Sidebar struct {
	projects    []model.Project
	projectIdx  int
	collections []model.Collection
	items       []model.Item
	workspaces  []model.Workspace

	expanded map[string]bool
	filter   string

	rows   []Node
	cursor int
	offset int

	width  int
	height int
}

// NewSidebar creates an empty sidebar showing all projects
func NewSidebar() Sidebar {
	return Sidebar{
		projects: []model.Project{model.AllProjects()},
		expanded: make(map[string]bool),
	}
}

// SetData replaces the library contents, keeping the selected project and
// cursor where they still exist
func (s Sidebar) SetData(projects []model.Project, collections []model.Collection, items []model.Item, workspaces []model.Workspace) Sidebar {
	current := s.ProjectID()
	selected, hadSelection := s.Selected()

	s.projects = append([]model.Project{model.AllProjects()}, projects...)
	s.projectIdx = 0
	for i, p := range s.projects {
		if p.ID == current {
			s.projectIdx = i
			break
		}
	}
	s.collections = collections
	s.items = items
	s.workspaces = workspaces
	s.rebuild()

	if hadSelection {
		s = s.SelectID(selected.ID)
	}
	return s
}

// SetSize sets the outer size of the sidebar box
func (s Sidebar) SetSize(width, height int) Sidebar {
	s.width = width
	s.height = height
	s.ensureCursorVisible()
	return s
}

// Width returns the outer width
func (s Sidebar) Width() int {
	return s.width
}

// Project returns the project being browsed
func (s Sidebar) Project() model.Project {
	if s.projectIdx < 0 || s.projectIdx >= len(s.projects) {
		return model.AllProjects()
	}
	return s.projects[s.projectIdx]
}

// ProjectID returns the id of the project being browsed
func (s Sidebar) ProjectID() string {
	return s.Project().ID
}

// CycleProject switches to the next or previous project
func (s Sidebar) CycleProject(delta int) Sidebar {
	n := len(s.projects)
	if n == 0 {
		return s
	}
	s.projectIdx = ((s.projectIdx+delta)%n + n) % n
	s.cursor, s.offset = 0, 0
	s.rebuild()
	return s
}

// Collections returns the collections visible in the current project
func (s Sidebar) Collections() []model.Collection {
	pid := s.ProjectID()
	var out []model.Collection
	for _, c := range s.collections {
		if c.InProject(pid) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Workspaces returns the workspaces linked to the current project plus
// detached ones
func (s Sidebar) Workspaces() []model.Workspace {
	pid := s.ProjectID()
	var out []model.Workspace
	for _, w := range s.workspaces {
		if pid == model.AllProjectsID || w.IsDetached() || *w.ProjectID == pid {
			out = append(out, w)
		}
	}
	return out
}

// Filter returns the active filter text
func (s Sidebar) Filter() string {
	return s.filter
}

// SetFilter narrows item rows to those matching text. Collections with
// matches are shown expanded.
func (s Sidebar) SetFilter(text string) Sidebar {
	s.filter = strings.TrimSpace(text)
	s.cursor, s.offset = 0, 0
	s.rebuild()
	return s
}

func (s Sidebar) matches(it *model.Item) bool {
	if s.filter == "" {
		return true
	}
	f := strings.ToLower(s.filter)
	if strings.Contains(strings.ToLower(it.Title), f) ||
		strings.Contains(strings.ToLower(it.URL), f) ||
		strings.Contains(strings.ToLower(it.Notes), f) {
		return true
	}
	return it.HasTag(strings.TrimPrefix(s.filter, "@"))
}

func (s *Sidebar) rebuild() {
	s.rows = nil

	for _, c := range s.Collections() {
		var members []model.Item
		for i := range s.items {
			if s.items[i].InCollection(c.ID) && s.matches(&s.items[i]) {
				members = append(members, s.items[i])
			}
		}
		if s.filter != "" && len(members) == 0 {
			continue
		}

		open := s.expanded[c.ID] || s.filter != ""
		s.rows = append(s.rows, Node{
			Kind:     NodeCollection,
			ID:       c.ID,
			Title:    c.Name,
			Count:    len(members),
			Shared:   len(c.ProjectIDs) > 1,
			Expanded: open,
		})
		if !open {
			continue
		}
		for _, it := range members {
			s.rows = append(s.rows, Node{
				Kind:     NodeItem,
				ID:       it.ID,
				Title:    it.Title,
				Depth:    1,
				ParentID: c.ID,
				Note:     it.IsNote(),
			})
		}
	}

	if ws := s.Workspaces(); len(ws) > 0 && s.filter == "" {
		s.rows = append(s.rows, Node{Kind: NodeHeader, Title: "Workspaces"})
		for _, w := range ws {
			s.rows = append(s.rows, Node{
				Kind:  NodeWorkspace,
				ID:    w.ID,
				Title: w.Name,
				Depth: 1,
				Count: w.TabCount(),
			})
		}
	}

	if s.cursor >= len(s.rows) {
		s.cursor = len(s.rows) - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
	s.skipHeader(1)
	s.ensureCursorVisible()
}

// Rows returns the visible rows
func (s Sidebar) Rows() []Node {
	return s.rows
}

// Cursor returns the selected row index
func (s Sidebar) Cursor() int {
	return s.cursor
}

// Selected returns the row under the cursor
func (s Sidebar) Selected() (Node, bool) {
	if s.cursor < 0 || s.cursor >= len(s.rows) {
		return Node{}, false
	}
	n := s.rows[s.cursor]
	return n, n.Kind != NodeHeader
}

// SelectID moves the cursor to the first row with id
func (s Sidebar) SelectID(id string) Sidebar {
	for i, n := range s.rows {
		if n.ID == id && n.Kind != NodeHeader {
			s.cursor = i
			s.ensureCursorVisible()
			break
		}
	}
	return s
}

// MoveCursor moves the selection by delta rows, skipping headers
func (s Sidebar) MoveCursor(delta int) Sidebar {
	if len(s.rows) == 0 {
		return s
	}
	s.cursor += delta
	if s.cursor < 0 {
		s.cursor = 0
	}
	if s.cursor >= len(s.rows) {
		s.cursor = len(s.rows) - 1
	}
	dir := 1
	if delta < 0 {
		dir = -1
	}
	s.skipHeader(dir)
	s.ensureCursorVisible()
	return s
}

// Top jumps to the first row
func (s Sidebar) Top() Sidebar {
	return s.MoveCursor(-len(s.rows))
}

// Bottom jumps to the last row
func (s Sidebar) Bottom() Sidebar {
	return s.MoveCursor(len(s.rows))
}

// PageSize is how many rows fit in the box
func (s Sidebar) PageSize() int {
	// border (2) + project line (1)
	n := s.height - 3
	if n < 1 {
		return 1
	}
	return n
}

func (s *Sidebar) skipHeader(dir int) {
	for s.cursor >= 0 && s.cursor < len(s.rows) && s.rows[s.cursor].Kind == NodeHeader {
		next := s.cursor + dir
		if next < 0 || next >= len(s.rows) {
			dir = -dir
			next = s.cursor + dir
			if next < 0 || next >= len(s.rows) {
				return
			}
		}
		s.cursor = next
	}
}

func (s *Sidebar) ensureCursorVisible() {
	page := s.PageSize()
	if s.cursor < s.offset {
		s.offset = s.cursor
	}
	if s.cursor >= s.offset+page {
		s.offset = s.cursor - page + 1
	}
	if s.offset < 0 {
		s.offset = 0
	}
}

// SetExpanded opens or folds the selected collection. On an item row,
// folding jumps to and folds its collection.
func (s Sidebar) SetExpanded(open bool) Sidebar {
	n, ok := s.Selected()
	if !ok {
		return s
	}
	switch n.Kind {
	case NodeCollection:
		s.expanded[n.ID] = open
		s.rebuild()
	case NodeItem:
		if !open {
			s.expanded[n.ParentID] = false
			s.rebuild()
			s = s.SelectID(n.ParentID)
		}
	}
	return s
}

// RowAt maps a line inside the sidebar body (0 = first row line) to a row
// index
func (s Sidebar) RowAt(line int) (int, bool) {
	i := s.offset + line
	if line < 0 || line >= s.PageSize() || i >= len(s.rows) {
		return 0, false
	}
	return i, true
}

// ClickRow selects a row by index. Clicking a collection toggles it.
func (s Sidebar) ClickRow(i int) Sidebar {
	if i < 0 || i >= len(s.rows) || s.rows[i].Kind == NodeHeader {
		return s
	}
	s.cursor = i
	if n := s.rows[i]; n.Kind == NodeCollection {
		s.expanded[n.ID] = !n.Expanded
		s.rebuild()
		s = s.SelectID(n.ID)
	}
	return s
}

// View renders the sidebar box
func (s Sidebar) View(focused bool) string {
	styles := theme.Current.Styles
	inner := s.width - 2
	if inner < 4 {
		inner = 4
	}

	var b strings.Builder
	title := fmt.Sprintf("‹ %s ›", s.Project().Name)
	b.WriteString(styles.Title.Render(ansi.Truncate(title, inner, "…")))

	end := s.offset + s.PageSize()
	if end > len(s.rows) {
		end = len(s.rows)
	}
	for i := s.offset; i < end; i++ {
		b.WriteString("\n")
		b.WriteString(s.renderRow(s.rows[i], i == s.cursor, focused, inner))
	}
	if len(s.rows) == 0 {
		b.WriteString("\n")
		msg := "No collections"
		if s.filter != "" {
			msg = "No matches"
		}
		b.WriteString(styles.RowMuted.Render(msg))
	}

	box := styles.Pane
	if focused {
		box = styles.PaneFocused
	}
	return box.Width(inner).Height(s.height - 2).MaxHeight(s.height).Render(b.String())
}

func (s Sidebar) renderRow(n Node, selected, focused bool, width int) string {
	styles := theme.Current.Styles

	var text string
	switch n.Kind {
	case NodeHeader:
		return styles.Label.Render(ansi.Truncate("── "+n.Title+" ──", width, "…"))
	case NodeCollection:
		marker := "▸"
		if n.Expanded {
			marker = "▾"
		}
		text = fmt.Sprintf("%s %s (%d)", marker, n.Title, n.Count)
		if n.Shared {
			text += " ⇄"
		}
	case NodeItem:
		marker := "•"
		if n.Note {
			marker = "✎"
		}
		text = strings.Repeat("  ", n.Depth) + marker + " " + n.Title
	case NodeWorkspace:
		text = fmt.Sprintf("%s⧉ %s [%d]", strings.Repeat("  ", n.Depth), n.Title, n.Count)
	}
	text = ansi.Truncate(text, width, "…")

	style := styles.RowNormal
	switch {
	case selected && focused:
		style = styles.RowSelected
	case selected:
		style = lipgloss.NewStyle().Foreground(theme.Current.Theme.Primary)
	case n.Kind == NodeItem && n.Note:
		style = styles.Note
	case n.Kind == NodeCollection && n.Shared:
		style = styles.Shared
	}
	return style.Render(text)
}
