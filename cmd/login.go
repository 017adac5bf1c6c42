package cmd

import (
	"github.com/spf13/cobra"

	"thoreinstein.com/adopr/pkg/app"
)

var loginVerify bool

// loginCmd stores the Azure DevOps credentials.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Save your Azure DevOps organization, project and access token",
	Long: `Ask for the Azure DevOps organization URL, project name and personal
access token, one after the other, and save each answer as soon as it is given.

Leaving an answer empty keeps the value saved before. Cancelling a prompt
(Esc or Ctrl+C) skips the remaining ones but keeps what was already saved.

Values are stored in the system keychain, or in
~/.config/adopr/credentials.toml when no keychain is available.

Examples:
  adopr login             # Prompt for all three values
  adopr login --verify    # Also check the token against Azure DevOps`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(appOptions{})
		if err != nil {
			return err
		}

		_, err = a.Login(cmd.Context(), app.LoginOptions{Verify: loginVerify})
		return err
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().BoolVar(&loginVerify, "verify", false, "Check the saved credentials against Azure DevOps")
}
