package app

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"

	"thoreinstein.com/adopr/pkg/git"
	"thoreinstein.com/adopr/pkg/pullrequest"
	"thoreinstein.com/adopr/pkg/tui"
	"thoreinstein.com/adopr/pkg/ui"
)

// OpenOnBrowserAction is offered after a pull request is created.
const OpenOnBrowserAction = "Open on Browser"

// CreateOptions pre-answers CreatePullRequest prompts. Empty fields are asked.
type CreateOptions struct {
	Repository   string
	SourceBranch string
	TargetBranch string
	// NoBrowser skips the offer to open the new pull request.
	NoBrowser bool
}

// Refresh reloads the three pull request views.
func (a *App) Refresh(ctx context.Context) error {
	return a.surface("refresh", a.refresh(ctx))
}

func (a *App) refresh(ctx context.Context) error {
	creds, err := a.session.Load()
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	return a.sync.RefreshAll(ctx, creds)
}

// CreatePullRequest asks for the repository, source branch and target
// branch, then opens the pull request. Defaults come from the local checkout
// and the configured target branch. Cancelling or leaving an answer empty
// abandons the command without error and returns nil.
func (a *App) CreatePullRequest(ctx context.Context, opts CreateOptions) (*pullrequest.Created, error) {
	creds, err := a.session.Load()
	if err != nil {
		return nil, a.surface("create", err)
	}
	if err := creds.Validate(); err != nil {
		return nil, a.surface("create", err)
	}

	ws := git.Inspect(a.workspaceFolder())
	a.logger.Debug("inspected workspace", "folder", ws.Folder, "repository", ws.RepositoryName, "branch", ws.Branch)

	questions := []struct {
		dest  *string
		title string
		value string
	}{
		{&opts.Repository, "Repository Name", ws.RepositoryName},
		{&opts.SourceBranch, "Source Branch", ws.Branch},
		{&opts.TargetBranch, "Target Branch", a.defaultTarget},
	}

	for _, q := range questions {
		if *q.dest != "" {
			continue
		}

		answer, err := a.prompter.Input(ctx, ui.InputOptions{Title: q.title, Placeholder: q.title, Value: q.value})
		if errors.Is(err, ui.ErrCancelled) || (err == nil && answer == "") {
			a.logger.Debug("create pull request abandoned", "prompt", q.title)
			return nil, nil
		}
		if err != nil {
			return nil, a.surface("create", err)
		}
		*q.dest = answer
	}

	reqCtx, cancel := a.withTimeout(ctx)
	defer cancel()

	created, err := a.sync.CreatePullRequest(reqCtx, creds, opts.Repository, opts.SourceBranch, opts.TargetBranch)
	if err != nil {
		return nil, a.surface("create", err)
	}

	var actions []string
	if !opts.NoBrowser {
		actions = append(actions, OpenOnBrowserAction)
	}

	choice, err := a.notifier.Info(ctx, "Pull request successfully created!", actions...)
	if err != nil {
		return created, err
	}
	if choice == OpenOnBrowserAction {
		if err := a.OpenInBrowser(created.Link); err != nil {
			return created, err
		}
	}
	return created, nil
}

// OpenInBrowser hands link to the system browser.
func (a *App) OpenInBrowser(link string) error {
	a.logger.Debug("opening in browser", "url", link)
	return a.surface("open", a.opener.Open(link))
}

// Browse runs the interactive browser until the user quits.
func (a *App) Browse(ctx context.Context) error {
	return tui.Run(ctx, a.Browser())
}

// Browser returns the interactive browser model. Refresh failures are shown
// inside the browser instead of through the notifier.
func (a *App) Browser() tui.Model {
	return tui.New(a.views, a.refresh, a.opener)
}

func (a *App) workspaceFolder() string {
	dir := a.workdir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return ""
		}
		dir = cwd
	}
	if root := git.FindRoot(dir); root != "" {
		return root
	}
	return dir
}
