package git

import (
	"os"
	"path/filepath"
	"strings"
)

// IsGitRepo checks if a path is a git working tree (.git directory or worktree file)
func IsGitRepo(path string) bool {
	gitPath := filepath.Join(path, ".git")
	if info, err := os.Stat(gitPath); err == nil {
		return info.IsDir() || info.Mode().IsRegular()
	}
	return false
}

// FindRoot walks up from dir to the nearest git working tree root.
// It returns "" when dir is not inside a repository.
func FindRoot(dir string) string {
	for {
		if IsGitRepo(dir) {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// gitDir resolves the git directory for a working tree root. Linked worktrees
// and submodules have a .git file whose "gitdir:" line points elsewhere.
func gitDir(root string) (string, error) {
	gitPath := filepath.Join(root, ".git")
	info, err := os.Stat(gitPath)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return gitPath, nil
	}

	data, err := os.ReadFile(gitPath)
	if err != nil {
		return "", err
	}

	for _, line := range strings.Split(string(data), "\n") {
		if target, ok := strings.CutPrefix(strings.TrimSpace(line), "gitdir:"); ok {
			target = strings.TrimSpace(target)
			if !filepath.IsAbs(target) {
				target = filepath.Join(root, target)
			}
			return target, nil
		}
	}

	return "", os.ErrNotExist
}
