package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dori/tabshelf/internal/placement"
	"github.com/dori/tabshelf/internal/ui/theme"
	"github.com/dori/tabshelf/internal/ui/views"
)

// View renders the model
func (m RootModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content string
	switch {
	case m.currentView == ViewHelp:
		content = m.renderHelp()
	case m.mode == modeEditNotes:
		content = m.renderNotesEditor()
	default:
		content = m.renderWorkbench(m.geometry())
	}

	// Ensure content fills available space
	contentHeight := m.contentHeight()
	lines := strings.Split(content, "\n")
	if len(lines) > contentHeight {
		lines = lines[:contentHeight]
	}
	for len(lines) < contentHeight {
		lines = append(lines, "")
	}

	return m.renderHeader() + "\n" + strings.Join(lines, "\n") + "\n" + m.renderFooter()
}

func (m RootModel) renderWorkbench(g geometry) string {
	sidebar := m.sidebar.View(true)

	var left, right []string
	for _, box := range g.Panes {
		rendered := m.renderPane(box)
		switch box.Pane {
		case placement.Primary, placement.Secondary:
			left = append(left, rendered)
		default:
			right = append(right, rendered)
		}
	}

	columns := []string{sidebar, lipgloss.JoinVertical(lipgloss.Left, left...)}
	if len(right) > 0 {
		columns = append(columns, lipgloss.JoinVertical(lipgloss.Left, right...))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columns...)
}

func (m RootModel) renderPane(box paneBox) string {
	styles := theme.Current.Styles

	style := styles.Pane
	if box.Pane == m.focus {
		style = styles.PaneFocused
	}
	if m.drag.moved && m.drag.over.Kind != hitNone && m.drag.over.Kind != hitSidebar && m.drag.over.Pane == box.Pane {
		style = styles.PaneDrop
	}

	body := m.renderBody(box.Pane, box.Body.W)
	lines := strings.Split(body, "\n")
	if len(lines) > box.Body.H {
		lines = lines[:max(box.Body.H, 0)]
	}
	for i, l := range lines {
		lines[i] = ansi.Truncate(l, box.Body.W, "")
	}

	inner := m.renderStrip(box) + "\n" + strings.Join(lines, "\n")
	return style.
		Width(box.Outer.W - 2).
		Height(box.Outer.H - 2).
		MaxHeight(box.Outer.H).
		Render(inner)
}

// renderStrip draws the tab headers recorded in box
func (m RootModel) renderStrip(box paneBox) string {
	styles := theme.Current.Styles
	tabs := m.engine.Tabs(box.Pane)
	if len(tabs) == 0 {
		return styles.RowMuted.Render(" (empty)")
	}

	active := m.engine.ActiveID(box.Pane)
	var b strings.Builder
	for _, tb := range box.Tabs {
		t := tabs[tb.Index]
		style := styles.TabInactive
		switch {
		case m.drag.moved && t.ID == m.drag.tabID:
			style = styles.TabDragging
		case t.ID == active:
			style = styles.TabActive
		}
		b.WriteString(style.Render(tabLabel(t.Title)))
	}
	if hidden := len(tabs) - len(box.Tabs); hidden > 0 {
		more := fmt.Sprintf(" +%d", hidden)
		used := 0
		if n := len(box.Tabs); n > 0 {
			last := box.Tabs[n-1].Area
			used = last.X + last.W - box.Strip.X
		}
		if used+len(more) <= box.Strip.W {
			b.WriteString(styles.Label.Render(more))
		}
	}
	return b.String()
}

// renderBody draws the active tab of a pane
func (m RootModel) renderBody(p placement.PaneID, width int) string {
	styles := theme.Current.Styles
	t, ok := m.engine.ActiveTab(p)
	if !ok {
		return "\n" + styles.RowMuted.Render("Open something from the sidebar: enter, o, O")
	}

	switch t.Kind {
	case placement.KindItem:
		it, found := m.library.Items[t.RefID]
		if !found {
			return styles.RowMuted.Render("This item no longer exists")
		}
		return views.RenderItem(it, m.library, m.markdown, width)
	case placement.KindCollection:
		c, found := m.library.Collections[t.RefID]
		if !found {
			return styles.RowMuted.Render("This collection no longer exists")
		}
		return views.RenderCollection(c, m.library.ItemsIn(c.ID), m.library, width)
	case placement.KindSystem:
		switch t.RefID {
		case systemWorkspaces:
			return views.RenderWorkspaces(m.sidebar.Workspaces(), m.library, width)
		case systemStats:
			now := time.Now()
			return views.RenderStats(views.ComputeStats(m.library, m.sidebar.ProjectID(), now), now, width)
		case systemHelp:
			return m.renderHelp()
		}
	}
	return ""
}

func (m RootModel) renderNotesEditor() string {
	styles := theme.Current.Styles
	title := styles.Title.Render("Notes: " + m.target.Title)
	return styles.PaneFocused.Width(m.width - 2).Render(title + "\n\n" + m.notes.View())
}

// renderHeader renders the header bar
func (m RootModel) renderHeader() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	title := styles.Header.Render("tabshelf")

	viewStyle := lipgloss.NewStyle().
		Foreground(t.Subtle).
		Padding(0, 1)
	viewIndicator := viewStyle.Render(fmt.Sprintf("[%s]", m.currentView.String()))
	projectIndicator := viewStyle.Render(m.sidebar.Project().Name)

	browserState := "browser: offline"
	if m.app.Browser != nil {
		browserState = "browser: connected"
	}
	rightSide := viewStyle.Render(fmt.Sprintf("%s · theme: %s", browserState, t.Name))

	leftSide := lipgloss.JoinHorizontal(lipgloss.Center, title, viewIndicator, projectIndicator)

	gap := m.width - lipgloss.Width(leftSide) - lipgloss.Width(rightSide)
	if gap < 0 {
		gap = 0
	}
	return leftSide + strings.Repeat(" ", gap) + rightSide
}

// renderFooter renders the status line and two hint lines
func (m RootModel) renderFooter() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	// Helper to format key hints
	key := func(k, desc string) string {
		return styles.HelpKey.Render(k) + styles.HelpDesc.Render(" "+desc)
	}
	sep := styles.HelpSeparator.Render(" │ ")

	var statusLine string
	switch {
	case m.mode == modeConfirmDelete:
		statusLine = lipgloss.NewStyle().Foreground(t.Warning).
			Render(fmt.Sprintf("Delete %q? (y/n)", m.target.Title))
	case m.mode != modeNormal && m.mode != modeEditNotes:
		statusLine = styles.StatusKey.Render(m.promptLabel()) + " " + m.input.View()
	case m.errorMsg != "":
		statusLine = lipgloss.NewStyle().Foreground(t.Error).Render(m.errorMsg)
	case m.statusMsg != "":
		statusLine = lipgloss.NewStyle().Foreground(t.Info).Render(m.statusMsg)
	case m.sidebar.Filter() != "":
		statusLine = styles.Label.Render(fmt.Sprintf("filter: %s", m.sidebar.Filter()))
	}

	var line1, line2 string
	switch {
	case m.currentView == ViewHelp:
		line1 = key("?", "close") + sep + key("esc", "close")
	case m.mode == modeEditNotes:
		line1 = key("ctrl+s", "save") + sep + key("esc", "cancel")
	case m.mode == modeConfirmDelete:
		line1 = key("y", "delete") + sep + key("any", "cancel")
	case m.mode != modeNormal:
		line1 = key("enter", "confirm") + sep + key("esc", "cancel")
	default:
		line1 = key("enter", "open") + sep +
			key("o/O", "below/right") + sep +
			key("x", "close") + sep +
			key("[/]", "tabs") + sep +
			key("m", "move") + sep +
			key("tab", "pane") + sep +
			key("s/S/R", "splits")
		line2 = key("a", "add") + sep +
			key("c", "collection") + sep +
			key("r", "rename") + sep +
				key("M", "move") + sep +
			key("e", "notes") + sep +
			key("d", "del") + sep +
			key("/", "filter") + sep +
			key("b", "browser") + sep +
			key("?", "help")
	}

	lines := []string{statusLine, line1, line2}
	for i, l := range lines {
		lines[i] = ansi.Truncate(l, m.width, "")
	}
	return strings.Join(lines, "\n")
}

func (m RootModel) promptLabel() string {
	switch m.mode {
	case modeAddItem:
		return "Add:"
	case modeAddCollection:
		return "New collection:"
	case modeRename:
		return "Rename:"
	case modeSearch:
		return "Filter:"
	case modeNameWorkspace:
		return "Capture as:"
	case modeMoveItem:
		return "Move to:"
	}
	return ""
}

// renderHelp renders the help overlay
func (m RootModel) renderHelp() string {
	t := theme.Current.Theme

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Primary).
		MarginBottom(1)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Secondary).
		MarginTop(1)

	keyStyle := lipgloss.NewStyle().
		Foreground(t.Foreground).
		Bold(true).
		Width(12)

	descStyle := lipgloss.NewStyle().
		Foreground(t.Subtle)

	sections := []struct {
		title string
		keys  [][]string
	}{
		{"Library", [][]string{
			{"↑/k ↓/j", "Move in the sidebar"},
			{"l / h", "Expand / collapse a collection"},
			{"p / P", "Next / previous project"},
			{"/", "Filter items by title, URL, notes or @tag"},
			{"a", "Add item: URL, title, @tags, #collection"},
			{"c", "New collection in this project"},
			{"r / e / d", "Rename, edit notes, delete"},
			{"M", "Move an item to another collection"},
		}},
		{"Tabs", [][]string{
			{"enter", "Open in the focused pane"},
			{"o / O", "Open below / in the right column"},
			{"x", "Close the active tab"},
			{"[ / ]", "Previous / next tab"},
			{"m", "Move the active tab to the next pane"},
			{"tab", "Focus the next pane"},
			{"drag", "Drop on a tab strip to reorder, on a pane to move"},
		}},
		{"Layout", [][]string{
			{"s", "Split the main column"},
			{"S", "Split the right column"},
			{"R", "Show / hide the right column"},
			{"< / >", "Resize the focused column"},
		}},
		{"Browser", [][]string{
			{"b", "Open or switch to the item's page"},
			{"W", "Capture open windows as a workspace"},
			{"w", "Show workspaces; enter restores"},
			{"i", "Library stats for this project"},
		}},
		{"System", [][]string{
			{"ctrl+e", "Write a backup"},
			{"ctrl+t", "Cycle theme"},
			{"H", "Open this help in a tab"},
			{"q / ctrl+c", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("tabshelf help"))
	b.WriteString("\n")
	for _, s := range sections {
		b.WriteString(sectionStyle.Render(s.title))
		b.WriteString("\n")
		for _, kv := range s.keys {
			b.WriteString(keyStyle.Render(kv[0]))
			b.WriteString(descStyle.Render(kv[1]))
			b.WriteString("\n")
		}
	}
	b.WriteString(sectionStyle.Render("All bindings"))
	b.WriteString("\n")
	b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	b.WriteString("\n\n")
	b.WriteString(descStyle.Render("Press ? or esc to close"))
	return b.String()
}
