package devops

import (
	"context"
	"log/slog"

	"thoreinstein.com/adopr/pkg/credentials"
)

// Client defines the Azure DevOps operations adopr performs.
type Client interface {
	// Authenticate resolves the user the token belongs to.
	Authenticate(ctx context.Context) (*Identity, error)

	// ListRepositories lists the git repositories in project.
	ListRepositories(ctx context.Context, project string) ([]Repository, error)

	// ListPullRequests lists active pull requests in project matching filter.
	ListPullRequests(ctx context.Context, project string, filter Filter) ([]PullRequest, error)

	// CreatePullRequest opens a pull request in project.
	CreatePullRequest(ctx context.Context, project string, opts CreateOptions) (*PullRequest, error)
}

// Compile-time check that APIClient implements Client.
var _ Client = (*APIClient)(nil)

// ClientFactory builds a Client for a set of credentials.
type ClientFactory func(creds credentials.Credentials) (Client, error)

// NewClientFactory returns a factory producing SDK-backed clients.
func NewClientFactory(logger *slog.Logger) ClientFactory {
	return func(creds credentials.Credentials) (Client, error) {
		return NewAPIClient(creds.OrganizationURL, creds.AccessToken, WithLogger(logger))
	}
}
