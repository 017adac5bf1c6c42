package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"thoreinstein.com/adopr/pkg/bootstrap"
	"thoreinstein.com/adopr/pkg/config"
	adoerrors "thoreinstein.com/adopr/pkg/errors"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string
var verbose bool
var appConfig *config.Config

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "adopr",
	Short: "adopr - Azure DevOps pull requests from the terminal",
	Long: `adopr lists and creates Azure DevOps pull requests without leaving the terminal.

Log in once with your organization URL, project name and a personal access
token, then list the pull requests you opened, the ones you are reviewing and
everything active in the project, or open a new pull request from the branch
you are on.

Examples:
  adopr login                 # Store organization, project and token
  adopr pr list               # Show all three pull request views
  adopr pr create             # Create a pull request from the current branch
  adopr browse                # Browse pull requests interactively`,
	Version:       Version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cfgFile, verbose = bootstrap.PreParseGlobalFlags(os.Args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		reportError(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 1 for anything the user was told about, warnings included, so
// scripts can tell a missing login from a successful run. Silent errors exit 0.
func exitCode(err error) int {
	if adoerrors.SeverityOf(err) == adoerrors.SeveritySilent {
		return 0
	}
	return 1
}

// reportError prints err unless a command already showed it.
func reportError(w io.Writer, err error) {
	if err == nil || adoerrors.IsSurfaced(err) {
		return
	}
	fmt.Fprintf(w, "Error: %s\n", adoerrors.FormatUserError(err))
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "C", "", "config file (default is $HOME/.config/adopr/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.SetVersionTemplate("adopr {{.Version}}\n")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	cfg, err := bootstrap.InitConfig(cfgFile, verbose)
	if err != nil {
		return err
	}
	appConfig = cfg
	return nil
}

// loadConfig returns the configuration loaded by initConfig, loading it when
// a command runs without the root pre-run (tests).
func loadConfig() (*config.Config, error) {
	if appConfig != nil {
		return appConfig, nil
	}
	if err := initConfig(); err != nil {
		return nil, err
	}
	return appConfig, nil
}

// resetConfig clears the cached configuration.
// This is primarily used in tests to ensure each test starts with a fresh config.
func resetConfig() {
	appConfig = nil
	bootstrap.Reset()
	viper.Reset()
}
