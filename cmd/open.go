package cmd

import (
	"github.com/spf13/cobra"
)

// openCmd opens a pull request link in the browser.
var openCmd = &cobra.Command{
	Use:   "open <url>",
	Short: "Open a pull request in the browser",
	Long: `Open a pull request web link, as printed by 'adopr pr list --expand',
in the default browser.

Examples:
  adopr open https://dev.azure.com/acme/Core/_git/svc/pullrequest/42`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(appOptions{})
		if err != nil {
			return err
		}
		return a.OpenInBrowser(args[0])
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
}
