package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dori/tabshelf/internal/placement"
)

// dragThreshold is how far the pointer must travel before a press on a tab
// header counts as a drag rather than a click
const dragThreshold = 2

// dragState tracks a tab being dragged between a press and a release
type dragState struct {
	active bool
	tabID  string
	from   placement.PaneID
	startX int
	startY int
	moved  bool
	over   hit
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// handleMouse routes clicks, wheel events and tab drags
func (m RootModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	g := m.geometry()
	h := g.hitTest(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown:
			delta := 1
			if msg.Button == tea.MouseButtonWheelUp {
				delta = -1
			}
			switch h.Kind {
			case hitSidebar:
				m.sidebar = m.sidebar.MoveCursor(delta)
			case hitTab, hitClose, hitStrip, hitBody:
				m.engine.CycleTab(h.Pane, delta)
			}
			return m, nil

		case tea.MouseButtonLeft:
		default:
			return m, nil
		}

		switch h.Kind {
		case hitSidebar:
			if i, ok := m.sidebar.RowAt(h.Index); ok {
				m.sidebar = m.sidebar.ClickRow(i)
			}
		case hitClose:
			m.engine.CloseTab(h.TabID)
			m.fixFocus()
		case hitTab:
			m.engine.SelectTab(h.TabID)
			m.focus = h.Pane
			m.drag = dragState{
				active: true,
				tabID:  h.TabID,
				from:   h.Pane,
				startX: msg.X,
				startY: msg.Y,
			}
		case hitStrip, hitBody:
			m.focus = h.Pane
		}
		return m, nil

	case tea.MouseActionMotion:
		if !m.drag.active {
			return m, nil
		}
		if abs(msg.X-m.drag.startX) >= dragThreshold || msg.Y != m.drag.startY {
			m.drag.moved = true
		}
		m.drag.over = h
		return m, nil

	case tea.MouseActionRelease:
		d := m.drag
		m.drag = dragState{}
		if !d.active || !d.moved {
			return m, nil
		}
		return m.drop(d, h, msg.X, g)
	}
	return m, nil
}

// drop finishes a drag. Releasing over a tab strip reorders to the hovered
// slot; releasing over another pane's body moves the tab to its end.
func (m RootModel) drop(d dragState, h hit, x int, g geometry) (tea.Model, tea.Cmd) {
	switch h.Kind {
	case hitTab, hitClose, hitStrip:
		box, ok := g.pane(h.Pane)
		if !ok {
			return m, nil
		}
		index := box.dropIndex(x)
		if h.Pane == d.from {
			// indexes past the dragged tab shift left once it is lifted out
			if _, i, found := m.engine.Locate(d.tabID); found && i < index {
				index--
			}
		}
		if m.engine.ReorderTab(d.tabID, h.Pane, index) {
			m.focus = h.Pane
		}

	case hitBody:
		if h.Pane == d.from {
			return m, nil
		}
		if m.engine.MoveTab(d.tabID, h.Pane) {
			m.focus = h.Pane
		}

	default:
		return m, nil
	}
	m.fixFocus()
	return m, m.persistLayout()
}
