package ui

import (
	"github.com/charmbracelet/x/ansi"
	"github.com/dori/tabshelf/internal/placement"
)

const (
	headerHeight = 1
	footerHeight = 3

	defaultSidebarWidth = 32
	minSidebarWidth     = 18
	minPaneWidth        = 24
	minPaneHeight       = 5
	resizeStep          = 4

	tabTitleMax = 18
)

// Layout width keys
const (
	widthSidebar = "sidebar"
	widthRight   = "right"
)

type rect struct {
	X, Y, W, H int
}

func (r rect) contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// tabBox is where one tab header was drawn
type tabBox struct {
	ID    string
	Index int
	Area  rect
	Close rect
}

// paneBox is where one visible pane was drawn
type paneBox struct {
	Pane  placement.PaneID
	Outer rect
	Strip rect
	Body  rect
	Tabs  []tabBox
}

// geometry is the screen layout for one frame. View and the mouse handler
// both derive it from the same state so hit testing matches what is drawn.
type geometry struct {
	Sidebar rect
	Panes   []paneBox
}

func (g geometry) pane(p placement.PaneID) (paneBox, bool) {
	for _, b := range g.Panes {
		if b.Pane == p {
			return b, true
		}
	}
	return paneBox{}, false
}

// tabLabel is the text drawn for a tab header, close mark included
func tabLabel(title string) string {
	return " " + ansi.Truncate(title, tabTitleMax, "…") + " × "
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// computeGeometry lays out the sidebar and the visible panes. Widths maps
// widthSidebar and widthRight to their requested sizes; zero means default.
func computeGeometry(e *placement.Engine, width, height int, widths map[string]int) geometry {
	top := headerHeight
	h := height - headerHeight - footerHeight
	if h < minPaneHeight {
		h = minPaneHeight
	}

	sw := widths[widthSidebar]
	if sw == 0 {
		sw = defaultSidebarWidth
	}
	sw = clamp(sw, minSidebarWidth, width-minPaneWidth)

	g := geometry{Sidebar: rect{X: 0, Y: top, W: sw, H: h}}

	workX := sw
	workW := width - sw
	leftW := workW
	rightW := 0
	if e.RightPaneVisible() {
		rightW = widths[widthRight]
		if rightW == 0 {
			rightW = workW / 2
		}
		rightW = clamp(rightW, minPaneWidth, workW-minPaneWidth)
		leftW = workW - rightW
	}

	column := func(x, w int, first, second placement.PaneID, split bool) {
		if !split {
			g.Panes = append(g.Panes, newPaneBox(e, first, rect{X: x, Y: top, W: w, H: h}))
			return
		}
		h1 := h / 2
		g.Panes = append(g.Panes,
			newPaneBox(e, first, rect{X: x, Y: top, W: w, H: h1}),
			newPaneBox(e, second, rect{X: x, Y: top + h1, W: w, H: h - h1}),
		)
	}

	column(workX, leftW, placement.Primary, placement.Secondary, e.MainSplit())
	if rightW > 0 {
		column(workX+leftW, rightW, placement.RightPrimary, placement.RightSecondary, e.RightSplit())
	}
	return g
}

func newPaneBox(e *placement.Engine, p placement.PaneID, outer rect) paneBox {
	b := paneBox{
		Pane:  p,
		Outer: outer,
		Strip: rect{X: outer.X + 1, Y: outer.Y + 1, W: outer.W - 2, H: 1},
		Body:  rect{X: outer.X + 1, Y: outer.Y + 2, W: outer.W - 2, H: outer.H - 3},
	}

	x := b.Strip.X
	limit := b.Strip.X + b.Strip.W
	for i, t := range e.Tabs(p) {
		w := ansi.StringWidth(tabLabel(t.Title))
		if x+w > limit {
			break
		}
		b.Tabs = append(b.Tabs, tabBox{
			ID:    t.ID,
			Index: i,
			Area:  rect{X: x, Y: b.Strip.Y, W: w, H: 1},
			Close: rect{X: x + w - 2, Y: b.Strip.Y, W: 1, H: 1},
		})
		x += w
	}
	return b
}

type hitKind int

const (
	hitNone hitKind = iota
	hitSidebar
	hitTab
	hitClose
	hitStrip
	hitBody
)

type hit struct {
	Kind  hitKind
	Pane  placement.PaneID
	TabID string
	// Index is the tab index for hitTab and hitClose, the insertion index
	// for hitStrip, and the sidebar line for hitSidebar
	Index int
}

func (g geometry) hitTest(x, y int) hit {
	if g.Sidebar.contains(x, y) {
		// border and project line sit above the first row
		return hit{Kind: hitSidebar, Index: y - g.Sidebar.Y - 2}
	}
	for _, b := range g.Panes {
		if !b.Outer.contains(x, y) {
			continue
		}
		if b.Strip.contains(x, y) {
			for _, t := range b.Tabs {
				if t.Close.contains(x, y) {
					return hit{Kind: hitClose, Pane: b.Pane, TabID: t.ID, Index: t.Index}
				}
				if t.Area.contains(x, y) {
					return hit{Kind: hitTab, Pane: b.Pane, TabID: t.ID, Index: t.Index}
				}
			}
			return hit{Kind: hitStrip, Pane: b.Pane, Index: b.dropIndex(x)}
		}
		return hit{Kind: hitBody, Pane: b.Pane}
	}
	return hit{Kind: hitNone}
}

// dropIndex is where a tab released at column x lands: before the first
// header whose midpoint lies right of x
func (b paneBox) dropIndex(x int) int {
	for _, t := range b.Tabs {
		if x < t.Area.X+t.Area.W/2 {
			return t.Index
		}
	}
	if len(b.Tabs) == 0 {
		return 0
	}
	return b.Tabs[len(b.Tabs)-1].Index + 1
}
