// Package gitsource mirrors remote deck repositories into a local
// directory so their files can be read like any other deck folder.
package gitsource

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"

	"github.com/conorfennell/recall/internal/logger"
)

// Mirror keeps one checkout per repository URL under a base directory.
type Mirror struct {
	baseDir string
	log     *logger.Logger
}

func NewMirror(baseDir string, log *logger.Logger) *Mirror {
	return &Mirror{baseDir: baseDir, log: log}
}

// Refresh clones the repository on first sight and pulls after that,
// returning the local checkout path.
func (m *Mirror) Refresh(ctx context.Context, repoURL string) (string, error) {
	local, err := m.LocalPath(repoURL)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(local); err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to check checkout path %s: %w", local, err)
		}
		m.log.Info("cloning deck repository", "url", repoURL, "path", local)
		if _, err := git.PlainCloneContext(ctx, local, false, &git.CloneOptions{URL: repoURL}); err != nil {
			return "", fmt.Errorf("failed to clone repo %s: %w", repoURL, err)
		}
		return local, nil
	}

	repo, err := git.PlainOpen(local)
	if err != nil {
		return "", fmt.Errorf("failed to open existing repo at %s: %w", local, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree for repo at %s: %w", local, err)
	}

	m.log.Info("pulling deck repository", "url", repoURL, "path", local)
	err = worktree.PullContext(ctx, &git.PullOptions{RemoteName: "origin"})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return "", fmt.Errorf("failed to pull repo at %s: %w", local, err)
	}
	return local, nil
}

// LocalPath maps a repository URL onto a stable directory under the
// mirror's base: host plus repository path, .git suffix stripped. Both
// https URLs and scp-like git@host:path addresses are understood.
func (m *Mirror) LocalPath(repoURL string) (string, error) {
	parsed, err := url.Parse(repoURL)
	if err == nil && (parsed.Scheme == "https" || parsed.Scheme == "http") {
		repoPath := strings.TrimSuffix(parsed.Path, ".git")
		return filepath.Join(m.baseDir, parsed.Host, repoPath), nil
	}

	if at := strings.Index(repoURL, "@"); at >= 0 {
		if colon := strings.Index(repoURL[at:], ":"); colon >= 0 {
			host := repoURL[at+1 : at+colon]
			repoPath := strings.TrimSuffix(repoURL[at+colon+1:], ".git")
			return filepath.Join(m.baseDir, host, repoPath), nil
		}
	}

	return "", fmt.Errorf("could not parse git URL: %s", repoURL)
}
