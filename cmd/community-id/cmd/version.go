package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the tool version. Release builds override it via
// -ldflags "-X github.com/corelight/go-community-id/cmd/community-id/cmd.Version=...".
var Version = "1.0.0"

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "community-id v%s\n", Version)
		},
	}
}
