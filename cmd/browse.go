package cmd

import (
	"github.com/spf13/cobra"
)

var browseExpand bool

// browseCmd starts the interactive browser.
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse pull requests interactively",
	Long: `Browse the three pull request views in a full-screen terminal UI.

Keys:
  ←/→, tab   switch between My Pull Requests, Reviewing and All Pull Requests
  ↑/↓        move the cursor
  enter      expand or collapse a pull request, or open the selected link
  o          open the selected pull request in the browser
  r          refresh
  q          quit`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(appOptions{expanded: browseExpand})
		if err != nil {
			return err
		}
		return a.Browse(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)

	browseCmd.Flags().BoolVarP(&browseExpand, "expand", "e", false, "Start with every pull request expanded")
}
