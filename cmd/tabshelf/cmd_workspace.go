package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dori/tabshelf/internal/app"
	"github.com/dori/tabshelf/internal/browser"
	"github.com/dori/tabshelf/internal/db"
	"github.com/dori/tabshelf/internal/model"
	"github.com/spf13/cobra"
)

func newWorkspaceCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workspace",
		Aliases: []string{"ws"},
		Short:   "Capture and restore browser windows",
		Long: `Workspaces are saved sets of browser windows and their tabs.
save and restore talk to the browser through its remote debugging port
(browser.debugger_url in config.yaml).`,
	}

	var project, from string
	save := &cobra.Command{
		Use:   "save <name>",
		Short: "Capture every open browser window as a workspace",
		Long: `Capture every open browser window as a new workspace.
With --from the new workspace copies a saved one instead and the browser
is not contacted.`,
		Example: `  tabshelf workspace save Research -p work
  tabshelf workspace save "Research v2" --from Research`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(false, from == "")
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := commandContext(cmd)

			var id string
			if from != "" {
				src, err := findWorkspace(ctx, a, from)
				if err != nil {
					return err
				}
				if id, err = a.DB.SaveWorkspaceAsNew(ctx, src.ID, args[0]); err != nil {
					return err
				}
			} else {
				if a.Browser == nil {
					return browser.ErrNotConnected
				}
				windows, err := browser.CaptureWorkspace(ctx, a.Browser)
				if err != nil {
					return err
				}
				var owner *string
				if project != "" {
					owner = &project
				}
				if id, err = a.DB.AddWorkspace(ctx, args[0], windows, owner); err != nil {
					return err
				}
			}

			ws, err := a.DB.GetWorkspace(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s: %d windows, %d tabs (%s)\n", ws.Name, len(ws.Windows), ws.TabCount(), ws.ID)
			return nil
		},
	}
	save.Flags().StringVarP(&project, "project", "p", "", "Link the workspace to a project")
	save.Flags().StringVar(&from, "from", "", "Copy this saved workspace (id or name) instead of capturing")
	save.MarkFlagsMutuallyExclusive("project", "from")

	update := &cobra.Command{
		Use:   "update <id|name>",
		Short: "Replace a workspace's windows with the ones open now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(false, true)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.Browser == nil {
				return browser.ErrNotConnected
			}
			ctx := commandContext(cmd)

			ws, err := findWorkspace(ctx, a, args[0])
			if err != nil {
				return err
			}
			windows, err := browser.CaptureWorkspace(ctx, a.Browser)
			if err != nil {
				return err
			}
			if err := a.DB.UpdateWorkspace(ctx, ws.ID, model.WorkspacePatch{Windows: &windows}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %d windows\n", ws.Name, len(windows))
			return nil
		},
	}

	restore := &cobra.Command{
		Use:   "restore <id|name>",
		Short: "Open a saved workspace, one browser window per saved window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(false, true)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.Browser == nil {
				return browser.ErrNotConnected
			}
			ctx := commandContext(cmd)

			ws, err := findWorkspace(ctx, a, args[0])
			if err != nil {
				return err
			}
			n, err := browser.RestoreWorkspace(ctx, a.Browser, ws)
			if err != nil {
				a.Notifier.SendFailure("Restore "+ws.Name, err)
				return fmt.Errorf("restore %s: %d windows opened: %w", ws.Name, n, err)
			}
			a.Notifier.SendWorkspaceRestored(ws.Name, n)
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s: %d windows\n", ws.Name, n)
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <id|name>",
		Short: "Delete a saved workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(false, false)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := commandContext(cmd)

			ws, err := findWorkspace(ctx, a, args[0])
			if err != nil {
				return err
			}
			if err := a.DB.DeleteWorkspace(ctx, ws.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted workspace %s\n", ws.Name)
			return nil
		},
	}

	var listProject string
	list := &cobra.Command{
		Use:   "list",
		Short: "List saved workspaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(false, false)
			if err != nil {
				return err
			}
			defer a.Close()

			all, err := a.DB.GetAllWorkspaces(commandContext(cmd))
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(all))
			for _, w := range all {
				owner := "detached"
				if !w.IsDetached() {
					owner = *w.ProjectID
				}
				if listProject != "" && !w.IsDetached() && owner != listProject {
					continue
				}
				rows = append(rows, []string{
					w.ID, w.Name,
					strconv.Itoa(len(w.Windows)), strconv.Itoa(w.TabCount()),
					owner, w.UpdatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "NAME", "WINDOWS", "TABS", "PROJECT", "UPDATED"}, rows))
			return nil
		},
	}
	list.Flags().StringVarP(&listProject, "project", "p", "", "Only workspaces linked to this project, plus detached ones")

	cmd.AddCommand(save, update, restore, rm, list)
	return cmd
}

// findWorkspace looks a workspace up by id, then by name
func findWorkspace(ctx context.Context, a *app.App, ref string) (*model.Workspace, error) {
	ws, err := a.DB.GetWorkspace(ctx, ref)
	if err == nil {
		return ws, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}

	all, err := a.DB.GetAllWorkspaces(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if strings.EqualFold(all[i].Name, ref) {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("no workspace named %q", ref)
}
