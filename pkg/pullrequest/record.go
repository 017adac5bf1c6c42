// Package pullrequest turns Azure DevOps pull requests into the flat records
// shown in the three list views, and keeps those views in sync.
package pullrequest

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"thoreinstein.com/adopr/pkg/devops"
)

const headsPrefix = "refs/heads/"

// View names one of the three pull request lists.
type View string

const (
	ViewMine      View = "mine"
	ViewReviewing View = "reviewing"
	ViewAll       View = "all"
)

// AllViews lists the views in display order.
var AllViews = []View{ViewMine, ViewReviewing, ViewAll}

// Title is the heading shown for the view.
func (v View) Title() string {
	switch v {
	case ViewMine:
		return "My Pull Requests"
	case ViewReviewing:
		return "Reviewing"
	case ViewAll:
		return "All Pull Requests"
	default:
		return string(v)
	}
}

// Record is the display form of a pull request. Branches have their
// "refs/heads/" prefix removed.
type Record struct {
	ID           int       `json:"id" yaml:"id"`
	Repository   string    `json:"repository" yaml:"repository"`
	Creator      string    `json:"creator" yaml:"creator"`
	Link         string    `json:"link" yaml:"link"`
	TargetBranch string    `json:"targetBranch" yaml:"targetBranch"`
	SourceBranch string    `json:"sourceBranch" yaml:"sourceBranch"`
	Title        string    `json:"title" yaml:"title"`
	Status       string    `json:"status,omitempty" yaml:"status,omitempty"`
	IsDraft      bool      `json:"isDraft,omitempty" yaml:"isDraft,omitempty"`
	CreatedAt    time.Time `json:"createdAt,omitzero" yaml:"createdAt,omitempty"`
}

// Key identifies a pull request across views.
func (r Record) Key() string {
	return r.Repository + "#" + strconv.Itoa(r.ID)
}

// Views holds one ordered record list per view.
type Views struct {
	Mine      []Record
	Reviewing []Record
	All       []Record
}

// Get returns the records of v.
func (vs Views) Get(v View) []Record {
	switch v {
	case ViewMine:
		return vs.Mine
	case ViewReviewing:
		return vs.Reviewing
	default:
		return vs.All
	}
}

// StripRef removes one leading "refs/heads/" from ref.
func StripRef(ref string) string {
	return strings.TrimPrefix(ref, headsPrefix)
}

// BranchRef turns a branch name into a full ref.
func BranchRef(branch string) string {
	return headsPrefix + branch
}

// Link builds the web address of a pull request:
// <org>/<escaped project>/_git/<repository>/pullrequest/<id>.
func Link(organizationURL, project, repository string, id int) string {
	return strings.TrimRight(organizationURL, "/") + "/" + url.PathEscape(project) +
		"/_git/" + repository + "/pullrequest/" + strconv.Itoa(id)
}

// Normalize converts raw pull requests into records, preserving order.
func Normalize(organizationURL, project string, prs []devops.PullRequest) []Record {
	records := make([]Record, 0, len(prs))
	for _, pr := range prs {
		records = append(records, Record{
			ID:           pr.ID,
			Repository:   pr.RepositoryName,
			Creator:      pr.CreatorDisplayName,
			Link:         Link(organizationURL, project, pr.RepositoryName, pr.ID),
			TargetBranch: StripRef(pr.TargetRefName),
			SourceBranch: StripRef(pr.SourceRefName),
			Title:        pr.Title,
			Status:       pr.Status,
			IsDraft:      pr.IsDraft,
			CreatedAt:    pr.CreatedAt,
		})
	}
	return records
}
