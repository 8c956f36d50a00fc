package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, buildDate, gitCommit string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "regtab %s\n", version)
			if buildDate != "unknown" {
				fmt.Fprintf(out, "built %s (%s)\n", buildDate, gitCommit)
			}
			return nil
		},
	}
}
