package placement

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tab(id string) Tab {
	return Tab{ID: id, Kind: KindItem, Title: "Tab " + id, RefID: id}
}

func ids(tabs []Tab) []string {
	out := make([]string, len(tabs))
	for i, t := range tabs {
		out[i] = t.ID
	}
	return out
}

// assertUnique fails if any tab id appears in more than one pane or twice in one
func assertUnique(t *testing.T, e *Engine) {
	t.Helper()
	seen := map[string]PaneID{}
	for _, p := range Panes() {
		for _, tb := range e.Tabs(p) {
			if prev, ok := seen[tb.ID]; ok {
				t.Fatalf("tab %s open in %s and %s", tb.ID, prev, p)
			}
			seen[tb.ID] = p
		}
	}
}

func TestOpenTabAppendsAndActivates(t *testing.T) {
	e := New()

	assert.Equal(t, Primary, e.OpenTab(tab("A"), Primary))
	e.OpenTab(tab("B"), Primary)

	assert.Equal(t, []string{"A", "B"}, ids(e.Tabs(Primary)))
	assert.Equal(t, "B", e.ActiveID(Primary))
	assert.False(t, e.MainSplit())
	assert.False(t, e.RightPaneVisible())
}

func TestOpenTabNeverDuplicates(t *testing.T) {
	e := New()
	e.OpenTab(tab("A"), Primary)
	e.OpenTab(tab("B"), Primary)

	got := e.OpenTab(tab("A"), RightPrimary)

	assert.Equal(t, Primary, got)
	assert.Equal(t, []string{"A", "B"}, ids(e.Tabs(Primary)))
	assert.Equal(t, "A", e.ActiveID(Primary), "existing pane focuses the tab")
	assert.Empty(t, e.Tabs(RightPrimary))
	assert.False(t, e.RightPaneVisible(), "visibility is unchanged")
}

func TestOpenTabRevealsPanes(t *testing.T) {
	tests := []struct {
		target                           PaneID
		mainSplit, rightSplit, rightShow bool
	}{
		{Primary, false, false, false},
		{Secondary, true, false, false},
		{RightPrimary, false, false, true},
		{RightSecondary, false, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.target.String(), func(t *testing.T) {
			e := New()
			e.OpenTab(tab("X"), tt.target)
			assert.Equal(t, tt.mainSplit, e.MainSplit())
			assert.Equal(t, tt.rightSplit, e.RightSplit())
			assert.Equal(t, tt.rightShow, e.RightPaneVisible())
			assert.True(t, e.Visible(tt.target))
		})
	}
}

func TestCloseTabReselection(t *testing.T) {
	tests := []struct {
		name       string
		tabs       []string
		active     string
		close      string
		wantActive string
	}{
		{"middle picks same index", []string{"A", "B", "C"}, "B", "B", "C"},
		{"first picks same index", []string{"A", "B", "C"}, "A", "A", "B"},
		{"last falls back to new last", []string{"A", "B", "C"}, "C", "C", "B"},
		{"sole tab empties", []string{"A"}, "A", "A", ""},
		{"inactive keeps active", []string{"A", "B", "C"}, "A", "C", "A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New()
			for _, id := range tt.tabs {
				e.OpenTab(tab(id), Primary)
			}
			require.True(t, e.SelectTab(tt.active))

			require.True(t, e.CloseTab(tt.close))
			assert.Equal(t, tt.wantActive, e.ActiveID(Primary))
			_, _, ok := e.Locate(tt.close)
			assert.False(t, ok)
		})
	}
}

// TestCloseTabReselectionRule checks min(i, n-2) for every index and size
func TestCloseTabReselectionRule(t *testing.T) {
	for n := 2; n <= 6; n++ {
		for i := 0; i < n; i++ {
			e := New()
			for k := 0; k < n; k++ {
				e.OpenTab(tab(fmt.Sprint(k)), RightSecondary)
			}
			before := ids(e.Tabs(RightSecondary))
			e.SelectTab(before[i])
			e.CloseTab(before[i])

			after := ids(e.Tabs(RightSecondary))
			want := i
			if n-2 < want {
				want = n - 2
			}
			assert.Equal(t, after[want], e.ActiveID(RightSecondary), "n=%d i=%d", n, i)
		}
	}
}

func TestCloseTabUnknown(t *testing.T) {
	e := New()
	e.OpenTab(tab("A"), Primary)
	before := e.Snapshot()

	assert.False(t, e.CloseTab("nope"))
	assert.Empty(t, cmp.Diff(before, e.Snapshot()))
}

func TestMoveTab(t *testing.T) {
	e := New()
	e.OpenTab(tab("A"), Primary)
	e.OpenTab(tab("B"), Primary)
	e.OpenTab(tab("C"), Primary)
	e.SelectTab("B")

	require.True(t, e.MoveTab("B", RightPrimary))

	assert.Equal(t, []string{"A", "C"}, ids(e.Tabs(Primary)))
	assert.Equal(t, "C", e.ActiveID(Primary))
	assert.Equal(t, []string{"B"}, ids(e.Tabs(RightPrimary)))
	assert.Equal(t, "B", e.ActiveID(RightPrimary))
	assert.True(t, e.RightPaneVisible())

	before := e.Snapshot()
	assert.False(t, e.MoveTab("missing", Secondary))
	assert.False(t, e.MainSplit())
	assert.Empty(t, cmp.Diff(before, e.Snapshot()))
}

func TestReorderTabSamePane(t *testing.T) {
	e := New()
	for _, id := range []string{"A", "B", "C", "D"} {
		e.OpenTab(tab(id), Secondary)
	}
	e.SelectTab("B")
	e.ToggleSplit(SplitMain)
	e.ToggleSplit(SplitMain)
	require.Equal(t, []string{"A", "B", "C", "D"}, ids(e.Tabs(Primary)))

	require.True(t, e.ReorderTab("A", Primary, 2))
	assert.Equal(t, []string{"B", "C", "A", "D"}, ids(e.Tabs(Primary)))
	assert.Equal(t, "B", e.ActiveID(Primary), "pure reorder keeps selection")

	require.True(t, e.ReorderTab("D", Primary, -5))
	assert.Equal(t, []string{"D", "B", "C", "A"}, ids(e.Tabs(Primary)))

	require.True(t, e.ReorderTab("D", Primary, 99))
	assert.Equal(t, []string{"B", "C", "A", "D"}, ids(e.Tabs(Primary)))
	assert.True(t, e.MainSplit(), "same-pane reorder has no visibility side effects")
}

func TestReorderTabAcrossPanes(t *testing.T) {
	e := New()
	e.OpenTab(tab("A"), Primary)
	e.OpenTab(tab("B"), Primary)
	e.OpenTab(tab("X"), RightPrimary)
	e.OpenTab(tab("Y"), RightPrimary)
	e.SetRightPaneVisible(true)

	require.True(t, e.ReorderTab("B", RightSecondary, 0))

	assert.Equal(t, []string{"A"}, ids(e.Tabs(Primary)))
	assert.Equal(t, "A", e.ActiveID(Primary))
	assert.Equal(t, []string{"B"}, ids(e.Tabs(RightSecondary)))
	assert.Equal(t, "B", e.ActiveID(RightSecondary))
	assert.True(t, e.RightSplit())

	require.True(t, e.ReorderTab("A", RightPrimary, 1))
	assert.Equal(t, []string{"X", "A", "Y"}, ids(e.Tabs(RightPrimary)))
	assert.Equal(t, "A", e.ActiveID(RightPrimary))
	assert.Empty(t, e.Tabs(Primary))
	assert.Equal(t, "", e.ActiveID(Primary))

	assert.False(t, e.ReorderTab("missing", Primary, 0))
}

func TestToggleSplitMergesWithoutDuplicates(t *testing.T) {
	e := New()
	e.OpenTab(tab("A"), Primary)
	e.OpenTab(tab("B"), Primary)
	e.OpenTab(tab("C"), Secondary)
	e.OpenTab(tab("D"), Secondary)
	e.SelectTab("C")
	require.True(t, e.MainSplit())

	e.ToggleSplit(SplitMain)

	assert.False(t, e.MainSplit())
	assert.Equal(t, []string{"A", "B", "C", "D"}, ids(e.Tabs(Primary)))
	assert.Empty(t, e.Tabs(Secondary))
	assert.Equal(t, "", e.ActiveID(Secondary))
	assert.Equal(t, "C", e.ActiveID(Primary))

	e.ToggleSplit(SplitMain)
	assert.True(t, e.MainSplit())
	assert.Len(t, e.Tabs(Primary), 4, "turning a split on moves nothing")
}

func TestToggleRightSplit(t *testing.T) {
	e := New()
	e.OpenTab(tab("A"), RightPrimary)
	e.OpenTab(tab("B"), RightSecondary)

	e.ToggleSplit(SplitRight)

	assert.False(t, e.RightSplit())
	assert.True(t, e.RightPaneVisible())
	assert.Equal(t, []string{"A", "B"}, ids(e.Tabs(RightPrimary)))
	assert.Equal(t, "B", e.ActiveID(RightPrimary))
}

func TestSetRightPaneVisibleMergesIntoPrimary(t *testing.T) {
	e := New()
	e.OpenTab(tab("A"), Primary)
	e.OpenTab(tab("R1"), RightPrimary)
	e.OpenTab(tab("R2"), RightSecondary)

	e.SetRightPaneVisible(false)

	assert.False(t, e.RightPaneVisible())
	assert.False(t, e.RightSplit())
	assert.Equal(t, []string{"A", "R1", "R2"}, ids(e.Tabs(Primary)))
	assert.Equal(t, "A", e.ActiveID(Primary))
	assert.Equal(t, []PaneID{Primary}, e.VisiblePanes())
}

func TestSetSplitIsIdempotent(t *testing.T) {
	e := New()
	e.SetSplit(SplitMain, true)
	e.SetSplit(SplitMain, true)
	assert.True(t, e.MainSplit())
	e.SetSplit(SplitRight, false)
	assert.False(t, e.RightSplit())
}

func TestRetitleAndCloseWhere(t *testing.T) {
	e := New()
	e.OpenTab(Tab{ID: "item:1", Kind: KindItem, RefID: "1", Title: "old"}, Primary)
	e.OpenTab(Tab{ID: "item:2", Kind: KindItem, RefID: "2"}, Secondary)
	e.OpenTab(Tab{ID: "collection:c", Kind: KindCollection, RefID: "c"}, Primary)

	require.True(t, e.RetitleTab("item:1", "new"))
	active, ok := e.ActiveTab(Primary)
	require.True(t, ok)
	assert.Equal(t, "collection:c", active.ID)
	assert.Equal(t, "new", e.Tabs(Primary)[0].Title)

	n := e.CloseWhere(func(t Tab) bool { return t.Kind == KindItem })
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"collection:c"}, ids(e.Tabs(Primary)))
	assert.Empty(t, e.Tabs(Secondary))
}

func TestCycleTab(t *testing.T) {
	e := New()
	for _, id := range []string{"A", "B", "C"} {
		e.OpenTab(tab(id), Primary)
	}
	e.CycleTab(Primary, 1)
	assert.Equal(t, "A", e.ActiveID(Primary))
	e.CycleTab(Primary, -1)
	assert.Equal(t, "C", e.ActiveID(Primary))
	e.CycleTab(Secondary, 1)
	assert.Equal(t, "", e.ActiveID(Secondary))
}

func TestPaneIDNames(t *testing.T) {
	for _, p := range Panes() {
		got, ok := ParsePaneID(p.String())
		require.True(t, ok)
		assert.Equal(t, p, got)
	}
	_, ok := ParsePaneID("left")
	assert.False(t, ok)
	assert.Equal(t, "unknown", PaneID(9).String())
}

// TestRandomOperationsKeepTabsUnique drives the engine with a long random
// sequence and checks the uniqueness and active-pointer invariants throughout.
func TestRandomOperationsKeepTabsUnique(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	e := New()
	pool := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	for step := 0; step < 2000; step++ {
		id := pool[rng.Intn(len(pool))]
		p := PaneID(rng.Intn(PaneCount))
		switch rng.Intn(8) {
		case 0, 1:
			e.OpenTab(tab(id), p)
		case 2:
			e.CloseTab(id)
		case 3:
			e.MoveTab(id, p)
		case 4:
			e.ReorderTab(id, p, rng.Intn(6)-1)
		case 5:
			e.ToggleSplit(Split(rng.Intn(2)))
		case 6:
			e.SetRightPaneVisible(rng.Intn(2) == 0)
		case 7:
			e.SelectTab(id)
		}

		assertUnique(t, e)
		for _, pn := range Panes() {
			tabs := e.Tabs(pn)
			active := e.ActiveID(pn)
			if len(tabs) == 0 {
				require.Equal(t, "", active, "step %d: empty %s has an active tab", step, pn)
				continue
			}
			_, i, ok := e.Locate(active)
			require.True(t, ok, "step %d: %s active %q is not open", step, pn, active)
			require.Equal(t, active, tabs[i].ID)
		}
	}
}
