// internal/commands/list_commands.go
package compbench

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwiater/compbench/internal/dataset"
)

// listCmd represents the 'list' command group.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Group commands for listing resources",
}

// commandsCmd implements 'list commands', which prints the available
// commands and subcommands in a hierarchical, indented, two-column format.
var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List all commands and subcommands in two columns",
	Long:  `The 'commands' subcommand lists all commands and subcommands in a hierarchical, indented format, with the command path in the first column and its short description in the second column.`,
	Run: func(cmd *cobra.Command, args []string) {
		commandData := collectCommandData(rootCmd, "", "")
		filtered := make([]commandInfo, 0, len(commandData))
		for _, data := range commandData {
			if strings.Contains(data.path, "completion") {
				continue
			}
			filtered = append(filtered, data)
		}
		listCommands(cmd.OutOrStdout(), filtered)
	},
}

// categoriesCmd implements 'list categories'.
var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the benchmark categories and their configured inputs",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := GetConfig()
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Categories:")
		for _, c := range dataset.Categories {
			fmt.Fprintf(out, "  %-9s %s\n", c, cfg.DatasetPath(c))
		}
	},
}

func init() {
	listCmd.AddCommand(commandsCmd)
	listCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(listCmd)
}

// commandInfo holds the path and description of a command for display.
type commandInfo struct {
	path        string
	description string
}

// listCommands prints the command tree in a two-column layout.
func listCommands(out io.Writer, commands []commandInfo) {
	maxPathLength := 0
	for _, data := range commands {
		if len(data.path) > maxPathLength {
			maxPathLength = len(data.path)
		}
	}

	fmt.Fprintln(out, "Commands and Subcommands:")
	for _, data := range commands {
		fmt.Fprintf(out, "  %s%s%s\n", data.path, strings.Repeat(" ", maxPathLength-len(data.path)+2), data.description)
	}
}

// collectCommandData collects command metadata for display, walking the
// command tree and returning a flattened slice of path/description pairs.
func collectCommandData(cmd *cobra.Command, currentPath string, indent string) []commandInfo {
	var allData []commandInfo

	fullPath := currentPath + cmd.Name()
	if currentPath != "" {
		fullPath = currentPath + " " + cmd.Name()
	}

	allData = append(allData, commandInfo{
		path:        indent + fullPath,
		description: cmd.Short,
	})

	for _, subCmd := range cmd.Commands() {
		allData = append(allData, collectCommandData(subCmd, fullPath, indent+"  ")...)
	}

	return allData
}
