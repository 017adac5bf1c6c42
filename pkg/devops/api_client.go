package devops

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/git"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/location"

	adoerrors "thoreinstein.com/adopr/pkg/errors"
	"thoreinstein.com/adopr/pkg/logging"
)

// APIClient implements Client using the Azure DevOps REST API.
type APIClient struct {
	conn   *azuredevops.Connection
	logger *slog.Logger

	mu        sync.Mutex
	gitClient git.Client
	locClient location.Client
}

// APIClientOption is a functional option for configuring APIClient.
type APIClientOption func(*APIClient)

// WithLogger sets a custom logger for the API client.
func WithLogger(logger *slog.Logger) APIClientOption {
	return func(c *APIClient) {
		c.logger = logging.Component(logger, "devops")
	}
}

// withGitClient injects the git area client.
func withGitClient(gc git.Client) APIClientOption {
	return func(c *APIClient) {
		c.gitClient = gc
	}
}

// withLocationClient injects the location area client.
func withLocationClient(lc location.Client) APIClientOption {
	return func(c *APIClient) {
		c.locClient = lc
	}
}

// NewAPIClient creates an Azure DevOps client for organizationURL
// authenticating with a personal access token.
func NewAPIClient(organizationURL, token string, opts ...APIClientOption) (*APIClient, error) {
	if organizationURL == "" {
		return nil, adoerrors.NewDevOpsError("NewAPIClient", "organization URL is required")
	}
	if token == "" {
		return nil, adoerrors.NewDevOpsError("NewAPIClient", "token is required")
	}

	client := &APIClient{
		conn:   azuredevops.NewPatConnection(organizationURL, token),
		logger: logging.Discard(),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// gitArea returns the git area client, creating it on first use. Creation
// resolves the area location with a network call.
func (c *APIClient) gitArea(ctx context.Context) (git.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gitClient != nil {
		return c.gitClient, nil
	}

	gc, err := git.NewClient(ctx, c.conn)
	if err != nil {
		return nil, toDevOpsError("NewGitClient", err)
	}
	c.gitClient = gc
	return gc, nil
}

func (c *APIClient) locationArea(ctx context.Context) location.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.locClient == nil {
		c.locClient = location.NewClient(ctx, c.conn)
	}
	return c.locClient
}

// Authenticate resolves the user the token belongs to. A token that does not
// resolve to a user is an AuthError.
func (c *APIClient) Authenticate(ctx context.Context) (*Identity, error) {
	c.logger.Debug("fetching connection data")

	data, err := c.locationArea(ctx).GetConnectionData(ctx, location.GetConnectionDataArgs{})
	if err != nil {
		return nil, toAuthError(toDevOpsError("Authenticate", err))
	}

	if data == nil || data.AuthenticatedUser == nil || data.AuthenticatedUser.Id == nil || *data.AuthenticatedUser.Id == uuid.Nil {
		return nil, adoerrors.NewAuthError("bad credentials")
	}

	user := data.AuthenticatedUser
	identity := &Identity{
		ID:          *user.Id,
		DisplayName: deref(user.ProviderDisplayName),
	}
	if identity.DisplayName == "" {
		identity.DisplayName = deref(user.CustomDisplayName)
	}

	c.logger.Debug("authenticated", "user", identity.DisplayName, "id", identity.ID)
	return identity, nil
}

// ListRepositories lists the git repositories in project.
func (c *APIClient) ListRepositories(ctx context.Context, project string) ([]Repository, error) {
	gc, err := c.gitArea(ctx)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("listing repositories", "project", project)

	repos, err := gc.GetRepositories(ctx, git.GetRepositoriesArgs{Project: &project})
	if err != nil {
		return nil, toDevOpsError("ListRepositories", err)
	}
	if repos == nil {
		return nil, nil
	}

	out := make([]Repository, 0, len(*repos))
	for _, r := range *repos {
		out = append(out, repositoryFromSDK(&r))
	}
	return out, nil
}

// ListPullRequests lists active pull requests in project matching filter.
// Results keep the order returned by the service.
func (c *APIClient) ListPullRequests(ctx context.Context, project string, filter Filter) ([]PullRequest, error) {
	gc, err := c.gitArea(ctx)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("listing pull requests", "project", project, "filter", filter.String())

	prs, err := gc.GetPullRequestsByProject(ctx, git.GetPullRequestsByProjectArgs{
		Project:        &project,
		SearchCriteria: filter.criteria(),
	})
	if err != nil {
		return nil, toDevOpsError("ListPullRequests", err)
	}
	if prs == nil {
		return nil, nil
	}

	out := make([]PullRequest, 0, len(*prs))
	for i := range *prs {
		out = append(out, pullRequestFromSDK(&(*prs)[i]))
	}
	return out, nil
}

// CreatePullRequest opens a pull request in project.
func (c *APIClient) CreatePullRequest(ctx context.Context, project string, opts CreateOptions) (*PullRequest, error) {
	if opts.RepositoryID == uuid.Nil {
		return nil, adoerrors.NewDevOpsError("CreatePullRequest", "repository id is required")
	}

	gc, err := c.gitArea(ctx)
	if err != nil {
		return nil, err
	}

	repoID := opts.RepositoryID.String()
	c.logger.Debug("creating pull request", "project", project, "repository", repoID,
		"source", opts.SourceRefName, "target", opts.TargetRefName)

	created, err := gc.CreatePullRequest(ctx, git.CreatePullRequestArgs{
		GitPullRequestToCreate: &git.GitPullRequest{
			SourceRefName: &opts.SourceRefName,
			TargetRefName: &opts.TargetRefName,
			Title:         &opts.Title,
			Repository:    &git.GitRepository{Id: &opts.RepositoryID},
		},
		RepositoryId: &repoID,
		Project:      &project,
	})
	if err != nil {
		return nil, toDevOpsError("CreatePullRequest", err)
	}
	if created == nil {
		return nil, adoerrors.NewDevOpsError("CreatePullRequest", "empty response")
	}

	pr := pullRequestFromSDK(created)
	return &pr, nil
}

// toDevOpsError maps SDK failures onto DevOpsError. The service message is
// kept verbatim so it can be shown to the user unchanged.
func toDevOpsError(operation string, err error) error {
	if err == nil {
		return nil
	}

	var wrapped *azuredevops.WrappedError
	if !errors.As(err, &wrapped) {
		var value azuredevops.WrappedError
		if errors.As(err, &value) {
			wrapped = &value
		}
	}

	if wrapped == nil {
		return adoerrors.NewDevOpsErrorWithCause(operation, err.Error(), err)
	}

	message := deref(wrapped.Message)
	if message == "" {
		message = err.Error()
	}

	status := 0
	if wrapped.StatusCode != nil {
		status = *wrapped.StatusCode
	}

	devopsErr := adoerrors.NewDevOpsErrorWithStatus(operation, status, message)
	devopsErr.Cause = err
	return devopsErr
}

// toAuthError turns a rejected token or organization during Authenticate
// into an AuthError. Other calls keep 401/403 as DevOpsError.
func toAuthError(err error) error {
	var devopsErr *adoerrors.DevOpsError
	if !errors.As(err, &devopsErr) {
		return err
	}

	switch devopsErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return adoerrors.NewAuthErrorWithCause(devopsErr.Message, devopsErr)
	}
	return err
}
