package cmd

import (
	"log/slog"
	"os"

	"thoreinstein.com/adopr/pkg/app"
	"thoreinstein.com/adopr/pkg/config"
	"thoreinstein.com/adopr/pkg/credentials"
	"thoreinstein.com/adopr/pkg/devops"
	"thoreinstein.com/adopr/pkg/logging"
	"thoreinstein.com/adopr/pkg/pullrequest"
	"thoreinstein.com/adopr/pkg/tree"
	"thoreinstein.com/adopr/pkg/ui"
)

// appOptions tune the App built for one command.
type appOptions struct {
	expanded bool
}

// newApp wires an App from the loaded configuration. Tests replace it.
var newApp = func(cfg *config.Config, opts appOptions) (*app.App, error) {
	logger := newLogger(cfg)

	store, err := credentials.NewStore(cfg.Credentials)
	if err != nil {
		return nil, err
	}

	session := credentials.NewSession(store, cfg.DevOps.AppID,
		credentials.WithOverrides(credentials.OverridesFromConfig(cfg.DevOps)),
		credentials.WithLogger(logger),
	)

	views := tree.NewModel(tree.WithExpanded(opts.expanded || cfg.Output.Expand))
	sync := pullrequest.NewSynchronizer(devops.NewClientFactory(logger), views, pullrequest.WithLogger(logger))

	coord := ui.NewCoordinator()
	prompter := ui.NewPrompter(os.Stdin, os.Stderr, coord)
	notifier := ui.NewNotifier(os.Stderr, prompter, coord, ui.IsInteractive(os.Stdin))

	return app.New(app.Deps{
		Session:  session,
		Sync:     sync,
		Views:    views,
		Prompter: prompter,
		Notifier: notifier,
		Opener:   ui.NewBrowserOpener(),
	},
		app.WithLogger(logger),
		app.WithTimeout(cfg.DevOps.Timeout),
		app.WithDefaultTargetBranch(cfg.DevOps.DefaultTargetBranch),
	), nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logging.New(cfg.Log, verbose, os.Stderr)
}

// loadApp loads the configuration and builds an App from it.
func loadApp(opts appOptions) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newApp(cfg, opts)
}
