package cmd

import (
	"fmt"

	"github.com/bobmcallan/tracket/internal/common"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		common.LoadVersionFromFile()
		info := common.GetVersionInfo()
		fmt.Fprintf(cmd.OutOrStdout(), "tracket version %s (build %s, commit %s)\n", info.Version, info.Build, info.Commit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
