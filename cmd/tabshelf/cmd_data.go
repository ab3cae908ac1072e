package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dori/tabshelf/internal/db"
	"github.com/spf13/cobra"
)

func newExportCmd(o *options) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the whole library",
		Long: `Write every project, collection, item and workspace as one document.
The document can be checked with verify and merged back with import.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := db.Format(strings.ToLower(format))
			if f != db.FormatJSON && f != db.FormatYAML {
				return fmt.Errorf("unknown format %q (json or yaml)", format)
			}

			a, err := o.open(false, false)
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.DB.ExportAll(commandContext(cmd))
			if err != nil {
				return err
			}
			data, err := snap.Marshal(f)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d items to %s\n", len(snap.Items), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Document format (json, yaml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Check that an export document can be imported",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			res := db.VerifyBackup(data)
			out, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if !res.Valid {
				return fmt.Errorf("%s is not importable", args[0])
			}
			return nil
		},
	}
}

func newImportCmd(o *options) *cobra.Command {
	var noBackup bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Merge an export document into the library",
		Long: `Merge a JSON or YAML export into the library. Records are matched by id;
anything not in the document is left alone. A safety backup is written
first unless --no-backup is given. Nothing changes if the document is
invalid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			a, err := o.open(false, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.DB.ImportAll(commandContext(cmd), data, !noBackup); err != nil {
				a.Notifier.SendFailure("Import", err)
				return fmt.Errorf("import %s: %w", args[0], err)
			}

			items := db.VerifyBackup(data).Items
			backup := ""
			if !noBackup {
				backup = latestBackup(a.DB.BackupDir(), "pre-import")
			}
			a.Notifier.SendImportComplete(items, backup)

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d items\n", items)
			if backup != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Backup: %s\n", backup)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noBackup, "no-backup", false, "Skip the safety backup")
	return cmd
}

// latestBackup returns the newest backup with label, or "" if there is none.
// Backup names embed a sortable timestamp.
func latestBackup(dir, label string) string {
	matches, err := filepath.Glob(filepath.Join(dir, label+"-*.json"))
	if err != nil || len(matches) == 0 {
		return ""
	}
	sort.Strings(matches)
	return matches[len(matches)-1]
}

func newBackupCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Write a backup into the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(false, false)
			if err != nil {
				return err
			}
			defer a.Close()

			path, err := a.DB.Backup(commandContext(cmd), "manual")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup written: %s\n", path)
			return nil
		},
	}
}
