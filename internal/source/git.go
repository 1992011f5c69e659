package source

import (
	"context"
	"log/slog"
	"os"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// acquireRepo shallow-clones the configured repository into the app
// directory. A clone with an explicit branch that fails is retried once
// against the remote's default branch before falling back to an empty
// directory, so the filesystem is never left in a partial state.
func (a *Acquirer) acquireRepo(ctx context.Context) RepoState {
	dest := a.cfg.AppDir()

	// A leftover tree from a previous run would make the clone fail.
	if _, err := os.Stat(dest); err == nil {
		slog.Info("Removing existing app directory", "dir", dest)
		if err := os.RemoveAll(dest); err != nil {
			slog.Warn("Failed to remove existing app directory", "dir", dest, "error", err)
		}
	}

	slog.Info("Cloning repository", "url", a.cfg.RepoURL, "branch", a.cfg.RepoBranch, "depth", a.CloneDepth)

	err := a.clone(ctx, dest, a.cfg.RepoBranch)
	if err != nil && a.cfg.RepoBranch != "" {
		slog.Warn("Clone with branch failed, retrying default branch", "branch", a.cfg.RepoBranch, "error", err)
		os.RemoveAll(dest)
		err = a.clone(ctx, dest, "")
	}

	if err != nil {
		slog.Warn("Repository clone failed, continuing with empty directory", "url", a.cfg.RepoURL, "error", err)
		os.RemoveAll(dest)
		if mkErr := os.MkdirAll(dest, 0750); mkErr != nil {
			slog.Warn("Failed to create fallback app directory", "dir", dest, "error", mkErr)
		}
		return RepoFallback
	}

	slog.Info("Repository cloned", "url", a.cfg.RepoURL, "dir", dest)
	return RepoCloned
}

func (a *Acquirer) clone(ctx context.Context, dest, branch string) error {
	opts := &git.CloneOptions{
		URL:   a.cfg.RepoURL,
		Depth: a.CloneDepth,
	}
	if branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
		opts.SingleBranch = true
	}

	_, err := git.PlainCloneContext(ctx, dest, false, opts)
	return err
}
