package main

import (
	"context"
	"fmt"

	"github.com/amonks/tracker/digest"
	"github.com/amonks/tracker/internal/failure"
	internalstrings "github.com/amonks/tracker/internal/strings"
	"github.com/amonks/tracker/internal/ui"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"
)

func newDigestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "digest <daily|weekly>",
		Short: "Print the daily digest or weekly review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := internalstrings.NormalizeLowerTrimSpace(args[0])
			if kind != "daily" && kind != "weekly" {
				return failure.Usage("Unknown digest %q (valid: daily, weekly)", args[0])
			}
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				generator := digest.NewGenerator(s.tasks, digest.Options{Now: s.tasks.Now})

				var text string
				if kind == "daily" {
					report, err := generator.Daily(ctx, s.owner)
					if err != nil {
						return reportf(err, "Failed to build digest: %v", err)
					}
					text = report.String()
				} else {
					report, err := generator.Weekly(ctx, s.owner)
					if err != nil {
						return reportf(err, "Failed to build weekly report: %v", err)
					}
					text = report.String()
				}

				fmt.Fprintln(a.stdout, wordwrap.String(text, ui.TerminalWidth(a.stdout)))
				return nil
			})
		},
	}
}
