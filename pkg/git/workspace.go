package git

import (
	"os"
	"path/filepath"
	"strings"
)

const headsPrefix = "refs/heads/"

// Workspace holds best-effort defaults read from a local checkout.
// Either field may be empty; inspection never fails.
type Workspace struct {
	Folder         string
	RepositoryName string
	Branch         string
}

// Inspect derives the repository name and current branch for folder.
// The repository name is the folder's base name; the branch comes from HEAD.
func Inspect(folder string) Workspace {
	ws := Workspace{Folder: folder}
	if folder == "" {
		return ws
	}

	if abs, err := filepath.Abs(folder); err == nil {
		folder = abs
		ws.Folder = abs
	}

	ws.RepositoryName = RepositoryName(folder)
	ws.Branch = CurrentBranch(folder)
	return ws
}

// RepositoryName guesses the remote repository name from the workspace folder.
func RepositoryName(folder string) string {
	name := filepath.Base(filepath.Clean(folder))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return name
}

// CurrentBranch returns the branch checked out in folder, or "" when it
// cannot be read. A detached HEAD has no branch.
func CurrentBranch(folder string) string {
	dir, err := gitDir(folder)
	if err != nil {
		return ""
	}

	data, err := os.ReadFile(filepath.Join(dir, "HEAD"))
	if err != nil {
		return ""
	}

	return BranchFromHead(string(data))
}

// BranchFromHead extracts the branch name from HEAD file content: the text
// after the last "refs/heads/" up to the next newline.
func BranchFromHead(content string) string {
	idx := strings.LastIndex(content, headsPrefix)
	if idx < 0 {
		return ""
	}

	branch := content[idx+len(headsPrefix):]
	if nl := strings.IndexByte(branch, '\n'); nl >= 0 {
		branch = branch[:nl]
	}
	return strings.TrimRight(branch, "\r")
}
