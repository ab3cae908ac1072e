package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/dori/tabshelf/internal/model"
	"github.com/dori/tabshelf/internal/ui/theme"
)

// Library is the read-only view of the store a tab body renders from
type Library struct {
	Items       map[string]model.Item
	Collections map[string]model.Collection
	Projects    map[string]model.Project
	Workspaces  []model.Workspace

	ordered []model.Item
}

// NewLibrary indexes loaded store data by id
func NewLibrary(projects []model.Project, collections []model.Collection, items []model.Item, workspaces []model.Workspace) Library {
	lib := Library{
		Items:       make(map[string]model.Item, len(items)),
		Collections: make(map[string]model.Collection, len(collections)),
		Projects:    make(map[string]model.Project, len(projects)),
		Workspaces:  workspaces,
		ordered:     items,
	}
	for _, it := range items {
		lib.Items[it.ID] = it
	}
	for _, c := range collections {
		lib.Collections[c.ID] = c
	}
	for _, p := range projects {
		lib.Projects[p.ID] = p
	}
	return lib
}

// ItemsIn returns the members of a collection in store order
func (l Library) ItemsIn(collectionID string) []model.Item {
	var out []model.Item
	for _, it := range l.ordered {
		if it.InCollection(collectionID) {
			out = append(out, it)
		}
	}
	return out
}

// RenderItem renders an item tab: header fields, then its notes as markdown
func RenderItem(it model.Item, lib Library, md *Markdown, width int) string {
	styles := theme.Current.Styles
	var b strings.Builder

	b.WriteString(styles.Title.Render(ansi.Truncate(it.Title, width, "…")))
	b.WriteString("\n")
	if it.IsNote() {
		b.WriteString(styles.Note.Render("note"))
	} else {
		b.WriteString(styles.URL.Render(ansi.Truncate(it.URL, width, "…")))
	}
	b.WriteString("\n\n")

	if len(it.Tags) > 0 {
		tags := make([]string, len(it.Tags))
		for i, t := range it.Tags {
			tags[i] = styles.Tag.Render("@" + t)
		}
		b.WriteString(styles.Label.Render("Tags  "))
		b.WriteString(strings.Join(tags, " "))
		b.WriteString("\n")
	}

	var names []string
	for _, id := range it.CollectionIDs {
		if c, ok := lib.Collections[id]; ok {
			names = append(names, c.Name)
		}
	}
	if len(names) > 0 {
		b.WriteString(styles.Label.Render("In    "))
		b.WriteString(ansi.Truncate(strings.Join(names, ", "), width-6, "…"))
		b.WriteString("\n")
	}

	b.WriteString(styles.Label.Render(fmt.Sprintf("%s · added %s · updated %s",
		it.Source, it.CreatedAt.Local().Format("2006-01-02"), it.UpdatedAt.Local().Format("2006-01-02 15:04"))))

	if notes := md.Render(it.Notes, theme.Current.Theme.Glamour, width); notes != "" {
		b.WriteString("\n\n")
		b.WriteString(notes)
	}
	return b.String()
}

// RenderCollection renders a collection tab: its name, sharing, and members
func RenderCollection(c model.Collection, members []model.Item, lib Library, width int) string {
	styles := theme.Current.Styles
	var b strings.Builder

	b.WriteString(styles.Title.Render(ansi.Truncate(c.Name, width, "…")))
	b.WriteString("\n")

	var projects []string
	for _, id := range c.ProjectIDs {
		if p, ok := lib.Projects[id]; ok {
			projects = append(projects, p.Name)
		}
	}
	meta := fmt.Sprintf("%d items", len(members))
	if len(projects) > 0 {
		meta += " · " + strings.Join(projects, ", ")
	}
	if c.IsDefault {
		meta += " · default"
	}
	b.WriteString(styles.Label.Render(ansi.Truncate(meta, width, "…")))
	b.WriteString("\n")

	if len(members) == 0 {
		b.WriteString("\n")
		b.WriteString(styles.RowMuted.Render("Empty. Press a to add an item."))
		return b.String()
	}

	for _, it := range members {
		b.WriteString("\n")
		if it.IsNote() {
			b.WriteString(styles.Note.Render(ansi.Truncate("✎ "+it.Title, width, "…")))
			continue
		}
		b.WriteString(styles.RowNormal.Render(ansi.Truncate("• "+it.Title, width, "…")))
		if width > 30 {
			b.WriteString("\n  ")
			b.WriteString(styles.URL.Render(ansi.Truncate(it.URL, width-2, "…")))
		}
	}
	return b.String()
}

// RenderWorkspaces renders the workspaces system tab
func RenderWorkspaces(workspaces []model.Workspace, lib Library, width int) string {
	styles := theme.Current.Styles
	var b strings.Builder

	b.WriteString(styles.Title.Render("Workspaces"))
	b.WriteString("\n")
	if len(workspaces) == 0 {
		b.WriteString("\n")
		b.WriteString(styles.RowMuted.Render("None saved. Press W to capture the browser."))
		return b.String()
	}

	for _, w := range workspaces {
		b.WriteString("\n")
		owner := "detached"
		if !w.IsDetached() {
			if p, ok := lib.Projects[*w.ProjectID]; ok {
				owner = p.Name
			}
		}
		line := fmt.Sprintf("⧉ %s  %d windows, %d tabs  (%s)", w.Name, len(w.Windows), w.TabCount(), owner)
		b.WriteString(styles.RowNormal.Render(ansi.Truncate(line, width, "…")))
		for _, win := range w.Windows {
			b.WriteString("\n")
			b.WriteString(styles.Label.Render(ansi.Truncate(fmt.Sprintf("    %s: %d tabs", win.Name, len(win.Tabs)), width, "…")))
		}
	}
	return b.String()
}
