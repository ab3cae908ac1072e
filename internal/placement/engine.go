package placement

// PaneID identifies one of the four panes. Panes are stored in an array
// indexed by PaneID so every operation treats them uniformly.
type PaneID int

const (
	Primary PaneID = iota
	Secondary
	RightPrimary
	RightSecondary
)

// PaneCount is the number of panes the engine manages
const PaneCount = 4

var paneNames = [PaneCount]string{"primary", "secondary", "rightPrimary", "rightSecondary"}

// Panes lists every pane in layout order
func Panes() []PaneID {
	return []PaneID{Primary, Secondary, RightPrimary, RightSecondary}
}

// String returns the display name for a pane
func (p PaneID) String() string {
	if !p.Valid() {
		return "unknown"
	}
	return paneNames[p]
}

// Valid reports whether p names a pane
func (p PaneID) Valid() bool {
	return p >= 0 && int(p) < PaneCount
}

// ParsePaneID converts a pane name back to its id
func ParsePaneID(s string) (PaneID, bool) {
	for i, name := range paneNames {
		if name == s {
			return PaneID(i), true
		}
	}
	return Primary, false
}

// Kind says what a tab shows
type Kind string

const (
	KindItem       Kind = "item"
	KindCollection Kind = "collection"
	KindSystem     Kind = "system"
)

// Tab is a view open in a pane. ID is unique across all panes.
type Tab struct {
	ID    string
	Kind  Kind
	Title string
	// RefID points at the item or collection the tab renders
	RefID string
}

// Split selects which split ToggleSplit acts on
type Split int

const (
	SplitMain Split = iota
	SplitRight
)

type pane struct {
	tabs   []Tab
	active string
}

func (p *pane) indexOf(id string) int {
	for i, t := range p.tabs {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// remove drops the tab at i and reselects the active tab if needed: the tab
// now at i, else the new last tab, else none.
func (p *pane) remove(i int) Tab {
	t := p.tabs[i]
	p.tabs = append(p.tabs[:i:i], p.tabs[i+1:]...)
	if p.active == t.ID {
		switch {
		case len(p.tabs) == 0:
			p.active = ""
		case i < len(p.tabs):
			p.active = p.tabs[i].ID
		default:
			p.active = p.tabs[len(p.tabs)-1].ID
		}
	}
	return t
}

func (p *pane) insert(i int, t Tab) {
	if i < 0 {
		i = 0
	}
	if i > len(p.tabs) {
		i = len(p.tabs)
	}
	p.tabs = append(p.tabs, Tab{})
	copy(p.tabs[i+1:], p.tabs[i:])
	p.tabs[i] = t
}

// Engine owns which tabs are open in which pane. It is not safe for
// concurrent use; the UI drives it from a single goroutine.
type Engine struct {
	panes [PaneCount]pane

	mainSplit        bool
	rightSplit       bool
	rightPaneVisible bool
}

// New returns an engine with every pane empty and all splits off
func New() *Engine {
	return &Engine{}
}

// MainSplit reports whether the secondary pane is shown
func (e *Engine) MainSplit() bool { return e.mainSplit }

// RightSplit reports whether the right secondary pane is shown
func (e *Engine) RightSplit() bool { return e.rightSplit }

// RightPaneVisible reports whether the right column is shown
func (e *Engine) RightPaneVisible() bool { return e.rightPaneVisible }

// Visible reports whether a pane is currently reachable on screen
func (e *Engine) Visible(p PaneID) bool {
	switch p {
	case Primary:
		return true
	case Secondary:
		return e.mainSplit
	case RightPrimary:
		return e.rightPaneVisible
	case RightSecondary:
		return e.rightPaneVisible && e.rightSplit
	}
	return false
}

// VisiblePanes returns the reachable panes in layout order
func (e *Engine) VisiblePanes() []PaneID {
	var out []PaneID
	for _, p := range Panes() {
		if e.Visible(p) {
			out = append(out, p)
		}
	}
	return out
}

// Locate returns the pane and index holding a tab
func (e *Engine) Locate(id string) (PaneID, int, bool) {
	for p := range e.panes {
		if i := e.panes[p].indexOf(id); i >= 0 {
			return PaneID(p), i, true
		}
	}
	return Primary, -1, false
}

// Tabs returns a copy of a pane's tabs in order
func (e *Engine) Tabs(p PaneID) []Tab {
	if !p.Valid() {
		return nil
	}
	out := make([]Tab, len(e.panes[p].tabs))
	copy(out, e.panes[p].tabs)
	return out
}

// ActiveID returns the active tab id of a pane, or "" when the pane is empty
func (e *Engine) ActiveID(p PaneID) string {
	if !p.Valid() {
		return ""
	}
	return e.panes[p].active
}

// ActiveTab returns the active tab of a pane
func (e *Engine) ActiveTab(p PaneID) (Tab, bool) {
	if !p.Valid() {
		return Tab{}, false
	}
	pn := &e.panes[p]
	if i := pn.indexOf(pn.active); i >= 0 {
		return pn.tabs[i], true
	}
	return Tab{}, false
}

// OpenTab shows a tab in target. If the tab is already open anywhere, its
// pane just selects it and nothing else changes. It returns the pane that
// now shows the tab.
func (e *Engine) OpenTab(t Tab, target PaneID) PaneID {
	if owner, _, ok := e.Locate(t.ID); ok {
		e.panes[owner].active = t.ID
		return owner
	}
	if !target.Valid() {
		target = Primary
	}
	e.panes[target].tabs = append(e.panes[target].tabs, t)
	e.panes[target].active = t.ID
	e.reveal(target)
	return target
}

// CloseTab removes a tab from whichever pane holds it
func (e *Engine) CloseTab(id string) bool {
	owner, i, ok := e.Locate(id)
	if !ok {
		return false
	}
	e.panes[owner].remove(i)
	return true
}

// CloseWhere closes every tab matching pred and returns how many were closed
func (e *Engine) CloseWhere(pred func(Tab) bool) int {
	var ids []string
	for p := range e.panes {
		for _, t := range e.panes[p].tabs {
			if pred(t) {
				ids = append(ids, t.ID)
			}
		}
	}
	for _, id := range ids {
		e.CloseTab(id)
	}
	return len(ids)
}

// MoveTab moves a tab to the end of dest and makes it active there. Unknown
// tabs are ignored.
func (e *Engine) MoveTab(id string, dest PaneID) bool {
	if !dest.Valid() {
		return false
	}
	owner, i, ok := e.Locate(id)
	if !ok {
		return false
	}
	t := e.panes[owner].remove(i)
	e.panes[dest].tabs = append(e.panes[dest].tabs, t)
	e.panes[dest].active = t.ID
	e.reveal(dest)
	return true
}

// ReorderTab places a tab at index in dest. Within the same pane this is a
// pure reorder; across panes it is a move followed by an indexed insert.
// index is clamped to the destination's bounds.
func (e *Engine) ReorderTab(id string, dest PaneID, index int) bool {
	if !dest.Valid() {
		return false
	}
	owner, i, ok := e.Locate(id)
	if !ok {
		return false
	}

	if owner == dest {
		pn := &e.panes[dest]
		t := pn.tabs[i]
		pn.tabs = append(pn.tabs[:i:i], pn.tabs[i+1:]...)
		pn.insert(index, t)
		return true
	}

	t := e.panes[owner].remove(i)
	e.panes[dest].insert(index, t)
	e.panes[dest].active = t.ID
	e.reveal(dest)
	return true
}

// SelectTab makes a tab active in its pane
func (e *Engine) SelectTab(id string) bool {
	owner, _, ok := e.Locate(id)
	if !ok {
		return false
	}
	e.panes[owner].active = id
	return true
}

// CycleTab moves the active selection of a pane by delta, wrapping around
func (e *Engine) CycleTab(p PaneID, delta int) {
	if !p.Valid() {
		return
	}
	pn := &e.panes[p]
	n := len(pn.tabs)
	if n == 0 {
		return
	}
	i := pn.indexOf(pn.active)
	if i < 0 {
		i = 0
	}
	pn.active = pn.tabs[((i+delta)%n+n)%n].ID
}

// RetitleTab updates the title shown for a tab
func (e *Engine) RetitleTab(id, title string) bool {
	owner, i, ok := e.Locate(id)
	if !ok {
		return false
	}
	e.panes[owner].tabs[i].Title = title
	return true
}

// ToggleSplit flips a split. Turning a split off merges the secondary pane
// back into its primary counterpart.
func (e *Engine) ToggleSplit(which Split) {
	switch which {
	case SplitMain:
		if e.mainSplit {
			e.merge(Secondary, Primary, true)
		}
		e.mainSplit = !e.mainSplit
	case SplitRight:
		if e.rightSplit {
			e.merge(RightSecondary, RightPrimary, true)
		}
		e.rightSplit = !e.rightSplit
	}
}

// SetSplit sets a split to on, merging when it turns off
func (e *Engine) SetSplit(which Split, on bool) {
	current := e.mainSplit
	if which == SplitRight {
		current = e.rightSplit
	}
	if current != on {
		e.ToggleSplit(which)
	}
}

// SetRightPaneVisible shows or hides the right column. Hiding it merges both
// right panes into primary and turns the right split off.
func (e *Engine) SetRightPaneVisible(visible bool) {
	if !visible && e.rightPaneVisible {
		e.merge(RightPrimary, Primary, false)
		e.merge(RightSecondary, Primary, false)
		e.rightSplit = false
	}
	e.rightPaneVisible = visible
}

// merge appends src's tabs to dst, skipping ids dst already holds, and clears
// src. With takeActive, src's active tab becomes dst's active tab.
func (e *Engine) merge(src, dst PaneID, takeActive bool) {
	from := &e.panes[src]
	to := &e.panes[dst]
	for _, t := range from.tabs {
		if to.indexOf(t.ID) < 0 {
			to.tabs = append(to.tabs, t)
		}
	}
	if takeActive && from.active != "" {
		to.active = from.active
	}
	if to.active == "" && len(to.tabs) > 0 {
		to.active = to.tabs[0].ID
	}
	from.tabs = nil
	from.active = ""
}

// reveal turns on the flags that make p reachable
func (e *Engine) reveal(p PaneID) {
	switch p {
	case Secondary:
		e.mainSplit = true
	case RightPrimary:
		e.rightPaneVisible = true
	case RightSecondary:
		e.rightPaneVisible = true
		e.rightSplit = true
	}
}

// PaneState is a read-only copy of one pane
type PaneState struct {
	Tabs        []Tab
	ActiveTabID string
}

// State is a read-only copy of the whole engine
type State struct {
	Panes            [PaneCount]PaneState
	MainSplit        bool
	RightSplit       bool
	RightPaneVisible bool
}

// Snapshot copies the current state
func (e *Engine) Snapshot() State {
	s := State{
		MainSplit:        e.mainSplit,
		RightSplit:       e.rightSplit,
		RightPaneVisible: e.rightPaneVisible,
	}
	for _, p := range Panes() {
		s.Panes[p] = PaneState{Tabs: e.Tabs(p), ActiveTabID: e.panes[p].active}
	}
	return s
}
