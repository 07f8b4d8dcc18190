package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCommand(version, commit, buildDate string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if jsonOutput {
				return printJSON(map[string]string{
					"version":    version,
					"commit":     commit,
					"build_date": buildDate,
				})
			}
			fmt.Printf("sf %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", buildDate)
			return nil
		},
	}

	return cmd
}
