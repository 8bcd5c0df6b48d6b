// Package cli implements the agentswarm command tree. Service dependencies
// are injected through the package-level variables in vars.go during app
// initialization.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "agentswarm",
	Short: "Local-first post-deployment task workflow",
	Long: `agentswarm manages post-deployment development tasks tracked in
markdown checklists, keeping them synchronized with local JSON state.

Tasks live in human-editable documents; status, history, and work sessions
are recorded under the state directory. Dependencies gate what can start,
and QA commands gate what can complete.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("agentswarm %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
