// internal/commands/show.go
package compbench

import (
	"github.com/spf13/cobra"

	"github.com/mwiater/compbench/internal/appconfig"
)

// showCmd represents the 'show' command group for displaying resources.
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Group commands for displaying resources",
	Long:  `The 'show' command groups subcommands that display resources or information related to compbench.`,
}

// showConfigCmd implements the 'show config' command, which displays the current configuration settings.
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Long:  `Show config settings ensuring that the JSON configs are loaded properly and overriden by flags accordingly.`,
	Run: func(cmd *cobra.Command, args []string) {
		appconfig.ShowConfig(cmd.OutOrStdout(), configUsed, GetConfig())
	},
}

func init() {
	showCmd.AddCommand(showConfigCmd)
	rootCmd.AddCommand(showCmd)
}
