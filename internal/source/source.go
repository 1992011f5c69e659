package source

import (
	"context"
	"log/slog"
	"os"

	"launchkit/pkg/instance"
)

// RepoState describes the outcome of the repository acquisition step.
type RepoState string

const (
	// RepoSkipped means no repository URL was configured.
	RepoSkipped RepoState = "skipped"
	// RepoCloned means the shallow clone succeeded and the app directory
	// holds the checked-out tree.
	RepoCloned RepoState = "cloned"
	// RepoFallback means the clone failed and the app directory was created
	// empty instead. Never fatal.
	RepoFallback RepoState = "fallback"
)

// NotebookState describes the outcome of the notebook acquisition step.
type NotebookState string

const (
	NotebookSkipped    NotebookState = "skipped"
	NotebookDownloaded NotebookState = "downloaded"
	// NotebookFromRepo means the in-repo notebook named by NOTEBOOK_PATH was
	// copied over any downloaded file.
	NotebookFromRepo NotebookState = "from-repo"
	NotebookFailed   NotebookState = "failed"
)

// Acquisition is the result of running the acquirer: which of the repo and
// notebook inputs were present, what happened to each, and the directory the
// rest of the pipeline works from.
type Acquisition struct {
	// WorkDir is the active working directory: the clone target when a
	// repository URL was configured, otherwise the workspace root.
	WorkDir  string
	Repo     RepoState
	Notebook NotebookState
	// NotebookFile is the path of the acquired notebook, empty if none.
	NotebookFile string
}

// Degraded reports whether any requested acquisition fell back.
func (a *Acquisition) Degraded() bool {
	return a.Repo == RepoFallback || a.Notebook == NotebookFailed
}

// Empty reports whether nothing was requested. An empty workspace is a valid
// outcome, not an error.
func (a *Acquisition) Empty() bool {
	return a.Repo == RepoSkipped && a.Notebook == NotebookSkipped
}

// Acquirer fetches the instance workload into the workspace: a shallow
// repository clone, a notebook download, or both. Every step is best-effort;
// failures degrade to an empty state and are reported through the returned
// Acquisition, never as errors.
type Acquirer struct {
	cfg *instance.Config

	// CloneDepth is the history depth for repository clones. The default of 1
	// keeps transfers small; tests clone local fixtures with full history.
	CloneDepth int
}

// NewAcquirer creates an Acquirer for the given configuration snapshot.
func NewAcquirer(cfg *instance.Config) *Acquirer {
	return &Acquirer{cfg: cfg, CloneDepth: 1}
}

// Acquire runs the full acquisition sequence: repository clone, notebook
// download, then the in-repo notebook copy that overrides the download.
func (a *Acquirer) Acquire(ctx context.Context) *Acquisition {
	acq := &Acquisition{
		WorkDir:  a.cfg.WorkspaceDir,
		Repo:     RepoSkipped,
		Notebook: NotebookSkipped,
	}

	if err := os.MkdirAll(a.cfg.WorkspaceDir, 0750); err != nil {
		slog.Warn("Failed to create workspace directory", "dir", a.cfg.WorkspaceDir, "error", err)
	}

	if a.cfg.HasRepo() {
		acq.Repo = a.acquireRepo(ctx)
		// The app directory is the active working directory whether the
		// clone succeeded or fell back to an empty directory.
		acq.WorkDir = a.cfg.AppDir()
	}

	if a.cfg.HasNotebook() {
		file, err := a.downloadNotebook(ctx)
		if err != nil {
			slog.Warn("Notebook download failed", "url", a.cfg.NotebookURL, "error", err)
			acq.Notebook = NotebookFailed
		} else {
			acq.Notebook = NotebookDownloaded
			acq.NotebookFile = file
		}
	}

	if acq.Repo == RepoCloned && a.cfg.NotebookPath != "" {
		if file, ok := a.copyRepoNotebook(); ok {
			acq.Notebook = NotebookFromRepo
			acq.NotebookFile = file
		}
	}

	return acq
}
