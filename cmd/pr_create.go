package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"thoreinstein.com/adopr/pkg/app"
)

var prCreateOptions app.CreateOptions

// prCreateCmd creates a new pull request.
var prCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a pull request",
	Long: `Create a new pull request in the configured Azure DevOps project.

You are asked for the repository, the source branch and the target branch.
The repository defaults to the name of the current git checkout, the source
branch to the branch checked out there, and the target branch to
devops.default_target_branch ("stage" unless configured). The source branch
becomes the pull request title.

Examples:
  adopr pr create                                  # Prompt for everything
  adopr pr create --target main                    # Prompt for repo and source only
  adopr pr create -r svc -s feature/login -t main  # No prompts
  adopr pr create --no-browser                     # Don't offer to open the PR`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(appOptions{})
		if err != nil {
			return err
		}
		return runPRCreate(cmd.Context(), a, cmd.OutOrStdout(), prCreateOptions)
	},
}

func init() {
	prCmd.AddCommand(prCreateCmd)

	prCreateCmd.Flags().StringVarP(&prCreateOptions.Repository, "repo", "r", "", "Repository name (defaults to the current checkout)")
	prCreateCmd.Flags().StringVarP(&prCreateOptions.SourceBranch, "source", "s", "", "Source branch (defaults to the current branch)")
	prCreateCmd.Flags().StringVarP(&prCreateOptions.TargetBranch, "target", "t", "", "Target branch (defaults to devops.default_target_branch)")
	prCreateCmd.Flags().BoolVar(&prCreateOptions.NoBrowser, "no-browser", false, "Don't offer to open the PR in the browser")
}

func runPRCreate(ctx context.Context, a *app.App, w io.Writer, opts app.CreateOptions) error {
	created, err := a.CreatePullRequest(ctx, opts)
	if err != nil {
		return err
	}
	if created == nil {
		return nil
	}

	fmt.Fprintf(w, "Created PR #%d: %s\n", created.ID, created.Title)
	fmt.Fprintf(w, "URL: %s\n", created.Link)
	return nil
}
