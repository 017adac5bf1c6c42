package devops

import (
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/git"
)

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func repositoryFromSDK(r *git.GitRepository) Repository {
	if r == nil {
		return Repository{}
	}
	return Repository{
		ID:     deref(r.Id),
		Name:   deref(r.Name),
		WebURL: deref(r.WebUrl),
	}
}

func pullRequestFromSDK(pr *git.GitPullRequest) PullRequest {
	out := PullRequest{
		ID:            deref(pr.PullRequestId),
		Title:         deref(pr.Title),
		SourceRefName: deref(pr.SourceRefName),
		TargetRefName: deref(pr.TargetRefName),
		IsDraft:       deref(pr.IsDraft),
	}

	if pr.Repository != nil {
		repo := repositoryFromSDK(pr.Repository)
		out.RepositoryID = repo.ID
		out.RepositoryName = repo.Name
		out.RepositoryWebURL = repo.WebURL
	}
	if pr.CreatedBy != nil {
		out.CreatorDisplayName = deref(pr.CreatedBy.DisplayName)
	}
	if pr.Status != nil {
		out.Status = string(*pr.Status)
	}
	if pr.CreationDate != nil {
		out.CreatedAt = pr.CreationDate.Time
	}

	return out
}
