package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/t3track/t3agent/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "t3agent %s\n", version.String())
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
}
