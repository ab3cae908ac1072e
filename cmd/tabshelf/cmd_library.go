package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dori/tabshelf/internal/app"
	"github.com/dori/tabshelf/internal/model"
	"github.com/spf13/cobra"
)

// renderTable draws rows the way list commands print them
func renderTable(headers []string, rows [][]string) string {
	header := lipgloss.NewStyle().Bold(true)
	return table.New().
		Border(lipgloss.HiddenBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

func newItemCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Add, list, move and remove items",
	}
	cmd.AddCommand(newItemAddCmd(o), newItemListCmd(o), newItemMvCmd(o), newItemRmCmd(o))
	return cmd
}

func newItemAddCmd(o *options) *cobra.Command {
	var collections, tags []string
	var project string

	cmd := &cobra.Command{
		Use:   "add <text>...",
		Short: "Quick add a link or note",
		Example: `  tabshelf item add https://go.dev/blog @go
  tabshelf item add "Standup notes #Meetings" --tag work
  tabshelf item add https://example.com --project work -c Reading`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := model.ParseQuickAdd(strings.Join(args, " "))
			for _, t := range tags {
				t = strings.TrimPrefix(strings.TrimSpace(t), "@")
				if t != "" && !hasFold(q.Tags, t) {
					q.Tags = append(q.Tags, t)
				}
			}
			names := append(q.Collections, collections...)

			a, err := o.open(false, false)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := commandContext(cmd)

			ids, err := resolveCollections(ctx, a, project, names)
			if err != nil {
				return err
			}

			id, err := a.DB.AddItem(ctx, q.Fields(ids))
			if err != nil {
				return err
			}
			it, err := a.DB.GetItem(ctx, id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Added: %s\n", it.Title)
			if it.URL != "" {
				fmt.Fprintf(out, "URL: %s\n", it.URL)
			}
			if len(it.Tags) > 0 {
				fmt.Fprintf(out, "Tags: %s\n", strings.Join(it.Tags, ", "))
			}
			fmt.Fprintf(out, "ID: %s\n", it.ID)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&collections, "collection", "c", nil, "Collection name or id (repeatable)")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "Tag (repeatable)")
	cmd.Flags().StringVarP(&project, "project", "p", "", "Project to resolve collection names in")
	return cmd
}

func hasFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// resolveCollections maps names or ids to collection ids within project (all
// projects when empty). With no names the item goes to the project's
// Unsorted collection.
func resolveCollections(ctx context.Context, a *app.App, project string, names []string) ([]string, error) {
	if len(names) == 0 {
		if project == "" {
			return nil, nil
		}
		if _, err := a.DB.GetProject(ctx, project); err != nil {
			return nil, err
		}
		return []string{model.DefaultCollectionID(project)}, nil
	}

	var all []model.Collection
	var err error
	if project == "" {
		all, err = a.DB.GetAllCollections(ctx)
	} else {
		all, err = a.DB.GetCollectionsByProject(ctx, project)
	}
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, name := range names {
		var matches []string
		for _, c := range all {
			if c.ID == name {
				matches = []string{c.ID}
				break
			}
			if strings.EqualFold(c.Name, name) {
				matches = append(matches, c.ID)
			}
		}
		switch len(matches) {
		case 0:
			return nil, fmt.Errorf("unknown collection %q", name)
		case 1:
			ids = append(ids, matches[0])
		default:
			return nil, fmt.Errorf("collection %q is ambiguous, use an id or --project: %s", name, strings.Join(matches, ", "))
		}
	}
	return ids, nil
}

func newItemListCmd(o *options) *cobra.Command {
	var collection, project, search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(false, false)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := commandContext(cmd)

			var items []model.Item
			filtered := true
			switch {
			case collection != "":
				items, err = a.DB.GetItemsByCollection(ctx, collection)
			case project != "":
				items, err = a.DB.GetItemsByProject(ctx, project)
			default:
				items, err = a.DB.SearchItems(ctx, search)
				filtered = false
			}
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(items))
			for _, it := range items {
				if search != "" && filtered && !matchesSearch(it, search) {
					continue
				}
				where := it.URL
				if it.IsNote() {
					where = "(note)"
				}
				rows = append(rows, []string{it.ID, it.Title, where, strings.Join(it.Tags, " ")})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "TITLE", "URL", "TAGS"}, rows))
			return nil
		},
	}

	cmd.Flags().StringVarP(&collection, "collection", "c", "", "Only items in this collection id")
	cmd.Flags().StringVarP(&project, "project", "p", "", "Only items in collections shown in this project")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Match title, URL, notes or tags")
	cmd.MarkFlagsMutuallyExclusive("collection", "project")
	return cmd
}

func newItemMvCmd(o *options) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "mv <item-id> <from> <to>",
		Short: "Move an item from one collection to another",
		Long: `Move an item from one collection to another. Collections are given by
id or name. Other memberships of the item are kept.`,
		Example: `  tabshelf item mv 1b9d6bcd Reading Archive
  tabshelf item mv 1b9d6bcd Inbox Papers --project research`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(false, false)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := commandContext(cmd)

			ids, err := resolveCollections(ctx, a, project, args[1:])
			if err != nil {
				return err
			}
			if err := a.DB.MoveItem(ctx, args[0], ids[0], ids[1]); err != nil {
				return err
			}
			it, err := a.DB.GetItem(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to %s\n", it.Title, args[2])
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Project to resolve collection names in")
	return cmd
}

func matchesSearch(it model.Item, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(it.Title), q) ||
		strings.Contains(strings.ToLower(it.URL), q) ||
		strings.Contains(strings.ToLower(it.Notes), q) ||
		it.HasTag(query)
}

func newItemRmCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(false, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.DB.DeleteItem(commandContext(cmd), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted item %s\n", args[0])
			return nil
		},
	}
}

func newCollectionCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collection",
		Aliases: []string{"col"},
		Short:   "Manage collections",
	}

	var project, color string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(false, false)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := a.DB.AddCollection(commandContext(cmd), args[0], color, project)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created collection %s (%s)\n", args[0], id)
			return nil
		},
	}
	add.Flags().StringVarP(&project, "project", "p", model.DefaultProjectID, "Owning project id")
	add.Flags().StringVar(&color, "color", "", "Display color")

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a collection, keeping its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(false, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.DB.DeleteCollection(commandContext(cmd), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted collection %s\n", args[0])
			return nil
		},
	}

	share := &cobra.Command{
		Use:   "share <id> <project-id>",
		Short: "Show a collection in another project as well",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(false, false)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.DB.ShareCollection(commandContext(cmd), args[0], args[1])
		},
	}

	unshare := &cobra.Command{
		Use:   "unshare <id> <project-id>",
		Short: "Stop showing a collection in a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(false, false)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.DB.UnshareCollection(commandContext(cmd), args[0], args[1])
		},
	}

	var listProject string
	list := &cobra.Command{
		Use:   "list",
		Short: "List collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(false, false)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := commandContext(cmd)

			var cols []model.Collection
			if listProject == "" {
				cols, err = a.DB.GetAllCollections(ctx)
			} else {
				cols, err = a.DB.GetCollectionsByProject(ctx, listProject)
			}
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(cols))
			for _, c := range cols {
				rows = append(rows, []string{c.ID, c.Name, strconv.Itoa(c.ItemCount), strings.Join(c.ProjectIDs, " ")})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "NAME", "ITEMS", "PROJECTS"}, rows))
			return nil
		},
	}
	list.Flags().StringVarP(&listProject, "project", "p", "", "Only collections shown in this project")

	cmd.AddCommand(add, rm, share, unshare, list)
	return cmd
}

func newProjectCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a project with its own Unsorted collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(false, false)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := a.DB.AddProject(commandContext(cmd), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (%s)\n", args[0], id)
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a project; its items move to the default Unsorted collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(false, false)
			if err != nil {
				return err
			}
			defer a.Close()

			deleted, err := a.DB.DeleteProject(commandContext(cmd), args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("project %s was not deleted: it is the default project or does not exist", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", args[0])
			return nil
		},
	}

	var description string
	rename := &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(false, false)
			if err != nil {
				return err
			}
			defer a.Close()

			patch := model.ProjectPatch{Name: model.Ptr(args[1])}
			if cmd.Flags().Changed("description") {
				patch.Description = model.Ptr(description)
			}
			if err := a.DB.UpdateProject(commandContext(cmd), args[0], patch); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed project %s to %s\n", args[0], args[1])
			return nil
		},
	}
	rename.Flags().StringVarP(&description, "description", "d", "", "Also set the description")

	list := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(false, false)
			if err != nil {
				return err
			}
			defer a.Close()

			projects, err := a.DB.GetAllProjects(commandContext(cmd))
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(projects))
			for _, p := range projects {
				def := ""
				if p.IsDefault {
					def = "default"
				}
				rows = append(rows, []string{p.ID, p.Name, def})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "NAME", ""}, rows))
			return nil
		},
	}

	cmd.AddCommand(add, rename, rm, list)
	return cmd
}
