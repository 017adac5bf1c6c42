package app

import (
	"context"

	"github.com/cockroachdb/errors"

	"thoreinstein.com/adopr/pkg/credentials"
	"thoreinstein.com/adopr/pkg/ui"
)

// LoginOptions controls Login.
type LoginOptions struct {
	// Verify checks the saved credentials against Azure DevOps afterwards.
	Verify bool
}

// LoginResult reports what Login did.
type LoginResult struct {
	Updated   []credentials.Field
	Cancelled bool
	User      string
}

var loginPrompts = map[credentials.Field]ui.InputOptions{
	credentials.FieldOrganization: {
		Title:       "Azure Organization URI",
		Placeholder: "https://dev.azure.com/yourorganization",
	},
	credentials.FieldProject: {
		Title:       "Azure Project Name",
		Placeholder: "Azure Project Name",
	},
	credentials.FieldToken: {
		Title:       "Azure DevOps Personal Access Token",
		Placeholder: "Azure DevOps Personal Access Token",
		Secret:      true,
	},
}

// Login asks for the organization URL, project name and access token in
// turn and stores each non-empty answer right away. An empty answer keeps the
// stored value. Cancelling a prompt skips the remaining ones and keeps
// whatever was already saved.
func (a *App) Login(ctx context.Context, opts LoginOptions) (*LoginResult, error) {
	result := &LoginResult{}

	for _, f := range credentials.Fields {
		current, err := a.session.Stored(f)
		if err != nil {
			return result, a.surface("login", err)
		}

		prompt := loginPrompts[f]
		if !prompt.Secret {
			prompt.Value = current
		} else if current != "" {
			prompt.Placeholder = "leave empty to keep the saved token"
		}

		value, err := a.prompter.Input(ctx, prompt)
		if errors.Is(err, ui.ErrCancelled) {
			a.logger.Debug("login cancelled", "field", f.Label())
			result.Cancelled = true
			break
		}
		if err != nil {
			return result, a.surface("login", err)
		}

		if value == "" || value == current {
			continue
		}
		if err := a.session.Set(f, value); err != nil {
			return result, a.surface("login", err)
		}
		result.Updated = append(result.Updated, f)
	}

	for _, f := range credentials.Fields {
		if a.session.Overridden(f) {
			a.notifier.Warn("The " + f.Label() + " set in the environment or config file takes precedence over the saved one.")
		}
	}

	if result.Cancelled || !opts.Verify {
		return result, nil
	}

	creds, err := a.session.Load()
	if err != nil {
		return result, a.surface("login", err)
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	me, err := a.sync.Whoami(ctx, creds)
	if err != nil {
		return result, a.surface("login", err)
	}
	result.User = me.DisplayName

	if _, err := a.notifier.Info(ctx, "Logged in to Azure DevOps as "+me.DisplayName+"."); err != nil {
		return result, err
	}
	return result, nil
}

// Logout removes the stored credentials.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Clear(); err != nil {
		return a.surface("logout", err)
	}
	_, err := a.notifier.Info(ctx, "Removed saved Azure DevOps credentials.")
	return err
}
