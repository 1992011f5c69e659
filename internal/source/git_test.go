package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"launchkit/pkg/instance"
)

// newFixtureRepo creates a local repository with one commit on its default
// branch and returns its path.
func newFixtureRepo(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("Failed to init fixture repository: %s", err)
	}

	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			t.Fatalf("Failed to create fixture directory: %s", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write fixture file: %s", err)
		}
	}

	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Failed to get worktree: %s", err)
	}
	if _, err := worktree.Add("."); err != nil {
		t.Fatalf("Failed to add fixture files: %s", err)
	}
	_, err = worktree.Commit("fixture", &git.CommitOptions{
		Author: &object.Signature{Name: "fixture", Email: "fixture@test"},
	})
	if err != nil {
		t.Fatalf("Failed to commit fixture: %s", err)
	}

	return dir
}

// fixtureAcquirer returns an acquirer cloning local fixtures with full
// history; shallow transfer is a network optimization the file transport
// does not need.
func fixtureAcquirer(cfg *instance.Config) *Acquirer {
	a := NewAcquirer(cfg)
	a.CloneDepth = 0
	return a
}

func TestAcquire_CloneFallsBackToDefaultBranch(t *testing.T) {
	repoDir := newFixtureRepo(t, map[string]string{"app.py": "import gradio\n"})

	workspace := t.TempDir()
	cfg := &instance.Config{
		WorkspaceDir: workspace,
		RepoURL:      repoDir,
		// The fixture's default branch is master; the configured branch does
		// not exist, exercising the retry-without-branch path.
		RepoBranch: "main",
	}

	acq := fixtureAcquirer(cfg).Acquire(context.Background())

	if acq.Repo != RepoCloned {
		t.Fatalf("Repo state = %s, want %s", acq.Repo, RepoCloned)
	}
	if acq.WorkDir != cfg.AppDir() {
		t.Errorf("WorkDir = %s, want app dir %s", acq.WorkDir, cfg.AppDir())
	}
	if _, err := os.Stat(filepath.Join(cfg.AppDir(), "app.py")); err != nil {
		t.Errorf("Cloned tree missing app.py: %s", err)
	}
}

func TestAcquire_CloneFailureLeavesEmptyDirectory(t *testing.T) {
	workspace := t.TempDir()
	cfg := &instance.Config{
		WorkspaceDir: workspace,
		RepoURL:      filepath.Join(t.TempDir(), "does-not-exist"),
		RepoBranch:   "main",
	}

	acq := fixtureAcquirer(cfg).Acquire(context.Background())

	if acq.Repo != RepoFallback {
		t.Fatalf("Repo state = %s, want %s", acq.Repo, RepoFallback)
	}
	if !acq.Degraded() {
		t.Error("Fallback clone should mark the acquisition degraded")
	}

	// The stage never leaves the filesystem in a partial state: the app
	// directory exists and is empty.
	entries, err := os.ReadDir(cfg.AppDir())
	if err != nil {
		t.Fatalf("App directory should exist after fallback: %s", err)
	}
	if len(entries) != 0 {
		t.Errorf("Fallback app directory should be empty, has %d entries", len(entries))
	}
	if acq.WorkDir != cfg.AppDir() {
		t.Errorf("WorkDir = %s, want app dir even after fallback", acq.WorkDir)
	}
}

func TestAcquire_ExistingAppDirIsReplaced(t *testing.T) {
	repoDir := newFixtureRepo(t, map[string]string{"main.py": "print('hi')\n"})

	workspace := t.TempDir()
	cfg := &instance.Config{
		WorkspaceDir: workspace,
		RepoURL:      repoDir,
		RepoBranch:   "master",
	}

	stale := filepath.Join(cfg.AppDir(), "stale.txt")
	if err := os.MkdirAll(cfg.AppDir(), 0750); err != nil {
		t.Fatalf("Failed to create stale app dir: %s", err)
	}
	if err := os.WriteFile(stale, []byte("old"), 0644); err != nil {
		t.Fatalf("Failed to write stale file: %s", err)
	}

	acq := fixtureAcquirer(cfg).Acquire(context.Background())

	if acq.Repo != RepoCloned {
		t.Fatalf("Repo state = %s, want %s", acq.Repo, RepoCloned)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("Stale file should have been removed before cloning")
	}
}

func TestAcquire_RepoNotebookOverridesDownload(t *testing.T) {
	repoDir := newFixtureRepo(t, map[string]string{
		"notebooks/train.ipynb": `{"from": "repo"}`,
	})

	workspace := t.TempDir()
	cfg := &instance.Config{
		WorkspaceDir: workspace,
		RepoURL:      repoDir,
		RepoBranch:   "master",
		NotebookPath: "notebooks/train.ipynb",
		NotebookDir:  filepath.Join(workspace, "notebooks"),
	}

	acq := fixtureAcquirer(cfg).Acquire(context.Background())

	if acq.Notebook != NotebookFromRepo {
		t.Fatalf("Notebook state = %s, want %s", acq.Notebook, NotebookFromRepo)
	}
	data, err := os.ReadFile(filepath.Join(cfg.NotebookDir, "train.ipynb"))
	if err != nil {
		t.Fatalf("Copied notebook missing: %s", err)
	}
	if string(data) != `{"from": "repo"}` {
		t.Errorf("Unexpected notebook content: %s", data)
	}
}

func TestAcquire_MissingRepoNotebookPathIsIgnored(t *testing.T) {
	repoDir := newFixtureRepo(t, map[string]string{"app.py": "import streamlit\n"})

	workspace := t.TempDir()
	cfg := &instance.Config{
		WorkspaceDir: workspace,
		RepoURL:      repoDir,
		RepoBranch:   "master",
		NotebookPath: "nonexistent.ipynb",
		NotebookDir:  filepath.Join(workspace, "notebooks"),
	}

	acq := fixtureAcquirer(cfg).Acquire(context.Background())

	if acq.Repo != RepoCloned {
		t.Fatalf("Repo state = %s, want %s", acq.Repo, RepoCloned)
	}
	if acq.Notebook != NotebookSkipped {
		t.Errorf("Notebook state = %s, want %s", acq.Notebook, NotebookSkipped)
	}
}
