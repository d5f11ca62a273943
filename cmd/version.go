package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Actual version and commit can be specified in build command.
var (
	version = "unknown"
	commit  = "none"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		if short, _ := cmd.Flags().GetBool("short"); short {
			fmt.Println(version)
			return
		}
		fmt.Printf("%s version: %s (commit: %s)\n", app, version, commit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().Bool("short", false, "print the version number only")
}
