package cmd

import (
	"github.com/spf13/cobra"
)

// prCmd is the parent command for PR operations.
var prCmd = &cobra.Command{
	Use:   "pr",
	Short: "Manage pull requests",
	Long: `Manage Azure DevOps pull requests.

The pr command provides subcommands for listing the pull requests of the
configured project and for creating new ones.

Examples:
  adopr pr create              # Create PR from current branch
  adopr pr list                # List my, reviewing and all PRs
  adopr pr list --view mine    # Only the PRs I opened`,
}

func init() {
	rootCmd.AddCommand(prCmd)
}
