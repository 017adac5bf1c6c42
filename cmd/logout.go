package cmd

import (
	"github.com/spf13/cobra"
)

// logoutCmd removes the stored credentials.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the saved Azure DevOps credentials",
	Long: `Remove the organization URL, project name and access token saved by
'adopr login'. Values set through environment variables or the config file
are not affected.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(appOptions{})
		if err != nil {
			return err
		}
		return a.Logout(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
