// Package devops provides the Azure DevOps integration used by adopr.
//
// The Client interface covers the four calls the rest of the program needs:
// resolving the authenticated user, listing repositories, listing pull
// requests and creating one. APIClient implements it with the official
// Azure DevOps Go SDK.
package devops

import (
	"time"

	"github.com/google/uuid"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/git"
)

// Identity is the user the access token belongs to.
type Identity struct {
	ID          uuid.UUID
	DisplayName string
}

// Repository is a git repository in a project.
type Repository struct {
	ID     uuid.UUID
	Name   string
	WebURL string
}

// PullRequest is a pull request as returned by the service, with refs in
// their full "refs/heads/..." form.
type PullRequest struct {
	ID                 int
	Title              string
	RepositoryID       uuid.UUID
	RepositoryName     string
	RepositoryWebURL   string
	CreatorDisplayName string
	SourceRefName      string
	TargetRefName      string
	Status             string
	IsDraft            bool
	CreatedAt          time.Time
}

// Filter narrows a pull request listing. The zero value lists everything.
type Filter struct {
	CreatorID  *uuid.UUID
	ReviewerID *uuid.UUID
}

// ByCreator lists pull requests opened by id.
func ByCreator(id uuid.UUID) Filter {
	return Filter{CreatorID: &id}
}

// ByReviewer lists pull requests where id is a reviewer.
func ByReviewer(id uuid.UUID) Filter {
	return Filter{ReviewerID: &id}
}

// AllPullRequests lists every active pull request in the project.
func AllPullRequests() Filter {
	return Filter{}
}

// String describes the filter for logs.
func (f Filter) String() string {
	switch {
	case f.CreatorID != nil:
		return "creator=" + f.CreatorID.String()
	case f.ReviewerID != nil:
		return "reviewer=" + f.ReviewerID.String()
	default:
		return "all"
	}
}

func (f Filter) criteria() *git.GitPullRequestSearchCriteria {
	return &git.GitPullRequestSearchCriteria{
		CreatorId:  f.CreatorID,
		ReviewerId: f.ReviewerID,
	}
}

// CreateOptions holds options for creating a pull request.
type CreateOptions struct {
	RepositoryID  uuid.UUID
	SourceRefName string // Full ref, e.g. "refs/heads/feature"
	TargetRefName string // Full ref, e.g. "refs/heads/stage"
	Title         string
}
