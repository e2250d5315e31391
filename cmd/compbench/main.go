// cmd/compbench/main.go
package main

import (
	cmd "github.com/mwiater/compbench/internal/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	setVersionInfo = cmd.SetVersionInfo
	executeCmd     = cmd.Execute
)

// main starts the compbench CLI by handing build metadata to the command
// package and executing the cobra root command.
func main() {
	setVersionInfo(version, commit, date)
	executeCmd()
}
