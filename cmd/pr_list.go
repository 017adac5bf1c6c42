package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"thoreinstein.com/adopr/pkg/app"
	"thoreinstein.com/adopr/pkg/pullrequest"
	"thoreinstein.com/adopr/pkg/ui"
)

var (
	prListViews  viewsValue
	prListOutput outputValue
	prListExpand bool
)

// prListCmd refreshes and prints the pull request views.
var prListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"refresh", "ls"},
	Short:   "List pull requests",
	Long: `Fetch the active pull requests of the configured project and print them
in three views:

  mine       pull requests you opened
  reviewing  pull requests you are a reviewer on
  all        every active pull request in the project

Each pull request shows its repository and target branch. With --expand the
title, author and web link are shown underneath.

Output formats: tree (default), table, json, yaml. The default can be changed
with output.format in the config file.

Examples:
  adopr pr list                       # All three views
  adopr pr list --view mine           # Only my pull requests
  adopr pr list --view mine,reviewing # Two views
  adopr pr list --expand              # Show details
  adopr pr list -o json               # Machine-readable output`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		a, err := newApp(cfg, appOptions{expanded: prListExpand})
		if err != nil {
			return err
		}

		return runPRList(cmd.Context(), a, cmd.OutOrStdout(), prListViews.Selected(), prListOutput.Or(cfg.Output.Format))
	},
}

func init() {
	prCmd.AddCommand(prListCmd)

	prListCmd.Flags().VarP(&prListViews, "view", "w", "Views to show: mine, reviewing, all (default all three)")
	prListCmd.Flags().VarP(&prListOutput, "output", "o", "Output format: tree, table, json, yaml")
	prListCmd.Flags().BoolVarP(&prListExpand, "expand", "e", false, "Show title, author and link for each pull request")
}

func runPRList(ctx context.Context, a *app.App, w io.Writer, views []pullrequest.View, format string) error {
	if err := a.Refresh(ctx); err != nil {
		return err
	}
	return ui.Render(w, format, a.Views(), views)
}
