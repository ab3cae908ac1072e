package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dori/tabshelf/internal/app"
	"github.com/dori/tabshelf/internal/browser"
	"github.com/dori/tabshelf/internal/ui"
	"github.com/dori/tabshelf/internal/ui/theme"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options are the persistent flags shared by every command
type options struct {
	configDir string
	theme     string

	// browser replaces the devtools connection when set
	browser browser.Controller
}

// open starts the parts of the app a command needs. Only the workbench is
// interactive; scripted commands skip the instance lock and layout cache.
func (o *options) open(interactive, withBrowser bool) (*app.App, error) {
	a, err := app.New(app.Options{
		ConfigDir:   o.configDir,
		Interactive: interactive,
		Browser:     withBrowser && o.browser == nil,
	})
	if err != nil {
		return nil, err
	}
	if withBrowser && o.browser != nil {
		a.Browser = o.browser
	}
	return a, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&options{})
}

func newRootCmdWith(o *options) *cobra.Command {

	root := &cobra.Command{
		Use:   "tabshelf",
		Short: "A terminal workbench for links, notes and browser workspaces",
		Long: `tabshelf keeps bookmarks and notes in collections grouped by project,
opens them side by side in up to four panes, and captures or restores
browser windows as workspaces.

Run without a command to start the workbench.

Quick add syntax (item add, or a in the workbench):
  tabshelf item add "https://go.dev/blog Go blog @go @reading #Later"

  URL:         the first http(s) or file URL
  Tags:        @tag
  Collection:  #name (repeatable, must already exist)
  Title:       everything else, or the URL's host and path`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkbench(o)
		},
	}

	root.PersistentFlags().StringVar(&o.configDir, "config-dir", "", "Config directory (default: ~/.config/tabshelf)")
	root.Flags().StringVar(&o.theme, "theme", "", "Theme name (nord, dracula, gruvbox, catppuccin)")

	root.AddCommand(
		newVersionCmd(),
		newExportCmd(o),
		newVerifyCmd(),
		newImportCmd(o),
		newBackupCmd(o),
		newItemCmd(o),
		newCollectionCmd(o),
		newProjectCmd(o),
		newWorkspaceCmd(o),
	)
	return root
}

func runWorkbench(o *options) error {
	if o.theme != "" {
		if _, ok := theme.ByName(o.theme); !ok {
			return fmt.Errorf("unknown theme %q", o.theme)
		}
	}

	a, err := o.open(true, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if o.theme != "" {
		a.Config.Theme = o.theme
	}
	return ui.Run(a)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tabshelf v%s\n", version)
		},
	}
}
