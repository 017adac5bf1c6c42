package pullrequest

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"thoreinstein.com/adopr/pkg/credentials"
	"thoreinstein.com/adopr/pkg/devops"
	adoerrors "thoreinstein.com/adopr/pkg/errors"
	"thoreinstein.com/adopr/pkg/logging"
)

// ViewSink receives the result of a successful refresh. All three views are
// delivered together.
type ViewSink interface {
	ReplaceAll(views Views)
}

// Created describes a newly opened pull request.
type Created struct {
	ID         int
	Title      string
	Repository string
	Link       string
}

// Synchronizer fetches pull requests and publishes them to a ViewSink.
type Synchronizer struct {
	newClient devops.ClientFactory
	sink      ViewSink
	logger    *slog.Logger

	mu         sync.Mutex
	generation uint64
	applied    uint64
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets the synchronizer logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synchronizer) {
		s.logger = logging.Component(logger, "sync")
	}
}

// NewSynchronizer creates a synchronizer building clients with newClient.
// sink may be nil when only CreatePullRequest is used.
func NewSynchronizer(newClient devops.ClientFactory, sink ViewSink, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		newClient: newClient,
		sink:      sink,
		logger:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// client checks creds and builds a client. Missing credentials stop here,
// before any client exists.
func (s *Synchronizer) client(creds credentials.Credentials) (devops.Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return s.newClient(creds)
}

// Whoami checks creds against Azure DevOps and returns the user they belong to.
func (s *Synchronizer) Whoami(ctx context.Context, creds credentials.Credentials) (*devops.Identity, error) {
	client, err := s.client(creds)
	if err != nil {
		return nil, err
	}

	me, err := client.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	if me == nil {
		return nil, adoerrors.NewAuthError("bad credentials")
	}
	return me, nil
}

// RefreshAll reloads the three views. Either all three lists are fetched and
// published together, or nothing changes. Refreshes are numbered when they
// start; a result is dropped with ErrSuperseded only when a newer refresh has
// already been published. A newer refresh that fails leaves older results
// free to publish.
func (s *Synchronizer) RefreshAll(ctx context.Context, creds credentials.Credentials) error {
	client, err := s.client(creds)
	if err != nil {
		return err
	}

	gen := s.begin()

	me, err := client.Authenticate(ctx)
	if err != nil {
		return err
	}
	if me == nil {
		return adoerrors.NewAuthError("bad credentials")
	}

	s.logger.Debug("refreshing pull requests", "generation", gen, "user", me.DisplayName)

	var views Views
	filters := []struct {
		filter devops.Filter
		dest   *[]Record
	}{
		{devops.ByCreator(me.ID), &views.Mine},
		{devops.ByReviewer(me.ID), &views.Reviewing},
		{devops.AllPullRequests(), &views.All},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, f := range filters {
		g.Go(func() error {
			prs, err := client.ListPullRequests(gctx, creds.ProjectName, f.filter)
			if err != nil {
				return err
			}
			*f.dest = Normalize(creds.OrganizationURL, creds.ProjectName, prs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return s.publish(gen, views)
}

func (s *Synchronizer) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

func (s *Synchronizer) publish(gen uint64, views Views) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen <= s.applied {
		s.logger.Debug("discarding stale refresh", "generation", gen, "applied", s.applied)
		return adoerrors.ErrSuperseded
	}
	s.applied = gen

	if s.sink != nil {
		s.sink.ReplaceAll(views)
	}

	s.logger.Debug("refresh applied", "generation", gen,
		"mine", len(views.Mine), "reviewing", len(views.Reviewing), "all", len(views.All))
	return nil
}

// CreatePullRequest opens a pull request from sourceBranch into targetBranch
// in the repository named exactly repositoryName. The source branch is used
// as the title.
func (s *Synchronizer) CreatePullRequest(ctx context.Context, creds credentials.Credentials, repositoryName, sourceBranch, targetBranch string) (*Created, error) {
	client, err := s.client(creds)
	if err != nil {
		return nil, err
	}

	repos, err := client.ListRepositories(ctx, creds.ProjectName)
	if err != nil {
		return nil, err
	}

	var repo *devops.Repository
	for i := range repos {
		if repos[i].Name == repositoryName {
			repo = &repos[i]
			break
		}
	}
	if repo == nil {
		return nil, adoerrors.NewLookupError("repository", repositoryName)
	}

	s.logger.Debug("creating pull request", "repository", repo.Name, "source", sourceBranch, "target", targetBranch)

	pr, err := client.CreatePullRequest(ctx, creds.ProjectName, devops.CreateOptions{
		RepositoryID:  repo.ID,
		SourceRefName: BranchRef(sourceBranch),
		TargetRefName: BranchRef(targetBranch),
		Title:         sourceBranch,
	})
	if err != nil {
		return nil, err
	}
	if pr == nil {
		return nil, adoerrors.NewDevOpsError("CreatePullRequest", "empty response")
	}

	title := pr.Title
	if title == "" {
		title = sourceBranch
	}

	return &Created{
		ID:         pr.ID,
		Title:      title,
		Repository: repo.Name,
		Link:       createdLink(creds, repo, pr),
	}, nil
}

func createdLink(creds credentials.Credentials, repo *devops.Repository, pr *devops.PullRequest) string {
	switch {
	case pr.RepositoryWebURL != "":
		return strings.TrimRight(pr.RepositoryWebURL, "/") + "/pullrequest/" + strconv.Itoa(pr.ID)
	case repo.WebURL != "":
		return strings.TrimRight(repo.WebURL, "/") + "/pullrequest/" + strconv.Itoa(pr.ID)
	default:
		return Link(creds.OrganizationURL, creds.ProjectName, repo.Name, pr.ID)
	}
}
