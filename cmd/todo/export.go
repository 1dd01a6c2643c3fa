package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/amonks/tracker/digest"
	"github.com/amonks/tracker/internal/failure"
	"github.com/amonks/tracker/internal/markdown"
	"github.com/amonks/tracker/internal/paths"
	"github.com/amonks/tracker/internal/ui"
	"github.com/spf13/cobra"
)

var exportFlagAliases = map[string]string{
	"stdout": "print",
}

func newExportCmd(a *app) *cobra.Command {
	var printOnly bool
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write pending tasks to a markdown checklist",
		Long: `Write pending tasks to a markdown checklist.

The file defaults to TODO_CLI_FILE or export.file in the config. With
--print the checklist is rendered to stdout instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				tasks, err := s.tasks.ListPending(ctx, s.owner)
				if err != nil {
					return reportf(err, "Failed to fetch tasks: %v", err)
				}
				content := digest.Markdown(tasks, s.tasks.Today())

				if printOnly {
					width := ui.TerminalWidth(a.stdout)
					fmt.Fprint(a.stdout, markdown.Render(content, width, ui.ColorEnabled(a.stdout)))
					return nil
				}

				target := s.cfg.Export.File
				if len(args) == 1 {
					target = args[0]
				}
				if target == "" {
					return failure.Usage("Missing export file. Pass one or set TODO_CLI_FILE, e.g. TODO_CLI_FILE=~/Documents/todo/todo.md")
				}
				target, err = paths.ExpandHome(target)
				if err != nil {
					return err
				}
				if err := writeExport(target, content); err != nil {
					return reportf(err, "Failed to write file: %v", err)
				}
				fmt.Fprintf(a.stdout, "✅ Exported %d tasks to %s\n", len(tasks), target)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print", false, "render the checklist to stdout instead of a file")
	setFlagAliases(cmd.Flags(), exportFlagAliases)
	return cmd
}

func writeExport(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
