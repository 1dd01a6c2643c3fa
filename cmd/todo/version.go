package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var buildChangeID = "unknown"
var buildCommitID = "unknown"

func versionString() string {
	return fmt.Sprintf("change_id %s\ncommit_id %s", buildChangeID, buildCommitID)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), versionString())
			return err
		},
	}
}
