// Package app implements the adopr commands on top of the credential
// session, the synchronizer and the terminal UI. Each operation reports its
// own failures to the user and returns them marked as surfaced.
package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"thoreinstein.com/adopr/pkg/credentials"
	adoerrors "thoreinstein.com/adopr/pkg/errors"
	"thoreinstein.com/adopr/pkg/logging"
	"thoreinstein.com/adopr/pkg/pullrequest"
	"thoreinstein.com/adopr/pkg/tree"
	"thoreinstein.com/adopr/pkg/ui"
)

// DefaultTargetBranch is offered as the target of new pull requests when
// nothing else is configured.
const DefaultTargetBranch = "stage"

// Deps are the collaborators an App works with. All are required.
type Deps struct {
	Session  *credentials.Session
	Sync     *pullrequest.Synchronizer
	Views    *tree.Model
	Prompter ui.Prompter
	Notifier ui.Notifier
	Opener   ui.Opener
}

// App runs adopr commands.
type App struct {
	session  *credentials.Session
	sync     *pullrequest.Synchronizer
	views    *tree.Model
	prompter ui.Prompter
	notifier ui.Notifier
	opener   ui.Opener

	logger        *slog.Logger
	timeout       time.Duration
	defaultTarget string
	workdir       string
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the application logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logging.Component(logger, "app")
	}
}

// WithTimeout bounds every network operation. Zero means no deadline.
func WithTimeout(d time.Duration) Option {
	return func(a *App) {
		a.timeout = d
	}
}

// WithDefaultTargetBranch sets the target branch offered by CreatePullRequest.
func WithDefaultTargetBranch(branch string) Option {
	return func(a *App) {
		if branch != "" {
			a.defaultTarget = branch
		}
	}
}

// WithWorkdir sets the folder inspected for repository and branch defaults.
func WithWorkdir(dir string) Option {
	return func(a *App) {
		a.workdir = dir
	}
}

// New creates an App.
func New(deps Deps, opts ...Option) *App {
	a := &App{
		session:       deps.Session,
		sync:          deps.Sync,
		views:         deps.Views,
		prompter:      deps.Prompter,
		notifier:      deps.Notifier,
		opener:        deps.Opener,
		logger:        logging.Discard(),
		defaultTarget: DefaultTargetBranch,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Views returns the tree model refreshed by this App.
func (a *App) Views() *tree.Model {
	return a.views
}

func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.timeout)
}

// surface shows err according to its severity and marks it as shown.
// Superseded refreshes are dropped.
func (a *App) surface(op string, err error) error {
	if err == nil {
		return nil
	}
	if adoerrors.IsSurfaced(err) {
		return err
	}

	switch adoerrors.SeverityOf(err) {
	case adoerrors.SeveritySilent:
		a.logger.Debug("dropping silent error", "op", op, "error", err)
		return nil
	case adoerrors.SeverityWarning:
		a.logger.Debug("operation needs attention", "op", op, "error", err)
		a.notifier.Warn(userMessage(err))
	default:
		a.logger.Info("operation failed", "op", op, "error", err)
		a.notifier.Error(userMessage(err))
	}
	return adoerrors.MarkSurfaced(err)
}

func userMessage(err error) string {
	return strings.TrimRight(adoerrors.FormatUserError(err), "\n")
}
