package views

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dori/tabshelf/internal/model"
	"github.com/dori/tabshelf/internal/ui/theme"
)

// LibraryStats summarizes the library for the stats tab
type LibraryStats struct {
	Items       int
	Notes       int
	Collections int
	Workspaces  int

	// DailyAdded counts items created on each of the last 7 days, oldest first
	DailyAdded [7]int
	// PerCollection is item count by collection name, largest first
	PerCollection []NameCount
	// TopTags is the most used tags, largest first
	TopTags []NameCount
}

// NameCount pairs a label with a count
type NameCount struct {
	Name  string
	Count int
}

// maxRanked bounds the collection and tag rankings
const maxRanked = 8

// ComputeStats counts over the items and collections visible in projectID
func ComputeStats(lib Library, projectID string, now time.Time) LibraryStats {
	var s LibraryStats

	visible := make(map[string]model.Collection)
	for id, c := range lib.Collections {
		if c.InProject(projectID) {
			visible[id] = c
		}
	}
	s.Collections = len(visible)

	for _, w := range lib.Workspaces {
		if projectID == model.AllProjectsID || w.IsDetached() || *w.ProjectID == projectID {
			s.Workspaces++
		}
	}

	perCollection := make(map[string]int)
	tags := make(map[string]int)
	today := startOfDay(now)

	for _, it := range lib.ordered {
		in := false
		for _, cid := range it.CollectionIDs {
			if c, ok := visible[cid]; ok {
				in = true
				perCollection[c.Name]++
			}
		}
		if !in {
			continue
		}

		s.Items++
		if it.IsNote() {
			s.Notes++
		}
		for _, t := range it.Tags {
			tags[strings.ToLower(t)]++
		}

		daysAgo := int(today.Sub(startOfDay(it.CreatedAt.In(now.Location()))).Hours() / 24)
		if daysAgo >= 0 && daysAgo < len(s.DailyAdded) {
			s.DailyAdded[len(s.DailyAdded)-1-daysAgo]++
		}
	}

	s.PerCollection = rank(perCollection)
	s.TopTags = rank(tags)
	return s
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func rank(counts map[string]int) []NameCount {
	out := make([]NameCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, NameCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > maxRanked {
		out = out[:maxRanked]
	}
	return out
}

// RenderStats renders the stats tab
func RenderStats(s LibraryStats, now time.Time, width int) string {
	t := theme.Current.Theme

	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
	sections = append(sections, titleStyle.Render("Library"))
	sections = append(sections, "")

	// Summary cards (side by side)
	cardStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 1).
		Width(12)

	valueStyle := lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(t.Subtle)

	card := func(value int, label string) string {
		return cardStyle.Render(valueStyle.Render(fmt.Sprintf("%d", value)) + "\n" + labelStyle.Render(label))
	}
	cards := []string{
		card(s.Items, "Items"),
		card(s.Notes, "Notes"),
		card(s.Collections, "Collections"),
		card(s.Workspaces, "Workspaces"),
	}
	// Stack the cards when the pane is too narrow for a row of four
	if width >= 4*lipgloss.Width(cards[0]) {
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	} else {
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1]))
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, cards[2], cards[3]))
	}
	sections = append(sections, "")

	sections = append(sections, renderActivityChart(s.DailyAdded, now))
	sections = append(sections, "")

	if len(s.PerCollection) > 0 {
		sections = append(sections, renderBars("Items by Collection", s.PerCollection, width))
		sections = append(sections, "")
	}
	if len(s.TopTags) > 0 {
		sections = append(sections, renderBars("Top Tags", s.TopTags, width))
	}

	return strings.Join(sections, "\n")
}

// renderActivityChart renders the 7-day added-items chart
func renderActivityChart(daily [7]int, now time.Time) string {
	t := theme.Current.Theme

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(t.Secondary)

	var lines []string
	lines = append(lines, headerStyle.Render("Added (Last 7 Days)"))

	// Find max for scaling
	maxCount := 1
	for _, count := range daily {
		if count > maxCount {
			maxCount = count
		}
	}

	chartHeight := 4
	barWidth := 3

	for row := chartHeight; row >= 1; row-- {
		var rowStr strings.Builder
		threshold := float64(row) / float64(chartHeight)

		for i, count := range daily {
			ratio := float64(count) / float64(maxCount)

			var block string
			if ratio >= threshold {
				block = lipgloss.NewStyle().Foreground(t.Success).Render(strings.Repeat("█", barWidth))
			} else if ratio >= threshold-0.25 && ratio > 0 {
				block = lipgloss.NewStyle().Foreground(t.Info).Render(strings.Repeat("▄", barWidth))
			} else {
				block = strings.Repeat(" ", barWidth)
			}

			rowStr.WriteString(block)
			if i < len(daily)-1 {
				rowStr.WriteString(" ")
			}
		}
		lines = append(lines, rowStr.String())
	}

	// Day labels, oldest first
	var labelStr strings.Builder
	for i := range daily {
		day := now.AddDate(0, 0, i-(len(daily)-1)).Weekday().String()[:2]
		labelStr.WriteString(lipgloss.NewStyle().Foreground(t.Subtle).Width(barWidth).Align(lipgloss.Center).Render(day))
		if i < len(daily)-1 {
			labelStr.WriteString(" ")
		}
	}
	lines = append(lines, labelStr.String())

	return strings.Join(lines, "\n")
}

// renderBars renders a ranked horizontal bar chart
func renderBars(title string, rows []NameCount, width int) string {
	t := theme.Current.Theme

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(t.Secondary)

	var lines []string
	lines = append(lines, headerStyle.Render(title))

	maxCount := 1
	for _, r := range rows {
		if r.Count > maxCount {
			maxCount = r.Count
		}
	}

	const labelWidth = 14
	barMaxWidth := width - labelWidth - 6
	if barMaxWidth > 30 {
		barMaxWidth = 30
	}
	if barMaxWidth < 1 {
		barMaxWidth = 1
	}

	for _, r := range rows {
		ratio := float64(r.Count) / float64(maxCount)
		barWidth := int(ratio * float64(barMaxWidth))
		if barWidth < 1 && r.Count > 0 {
			barWidth = 1
		}

		name := r.Name
		if len([]rune(name)) > labelWidth {
			name = string([]rune(name)[:labelWidth-1]) + "…"
		}
		bar := lipgloss.NewStyle().Foreground(t.Info).Render(strings.Repeat("█", barWidth))
		lines = append(lines, fmt.Sprintf("%-*s %s %d", labelWidth, name, bar, r.Count))
	}

	return strings.Join(lines, "\n")
}
