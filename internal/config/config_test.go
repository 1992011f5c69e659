package config

import (
	"path/filepath"
	"testing"
)

// clearEnv blanks every recognized variable so tests see documented defaults
// regardless of the host environment.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"WORKSPACE_DIR", "REPO_URL", "REPO_BRANCH",
		"NOTEBOOK_URL", "NOTEBOOK_PATH", "NOTEBOOK_DIR",
		"CONDA_ENV_URL", "CONDA_ENV", "START_COMMAND",
		"EXPOSED_PORT", "JUPYTER_PORT", "NOTEBOOK_TOKEN",
		"INSTANCE_ID", "GITLAB_PRIVATE_TOKEN",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, warnings := Load()

	if len(warnings) != 0 {
		t.Errorf("Expected no warnings for defaults, got %v", warnings)
	}
	if cfg.WorkspaceDir != DefaultWorkspaceDir {
		t.Errorf("WorkspaceDir = %s, want %s", cfg.WorkspaceDir, DefaultWorkspaceDir)
	}
	if cfg.RepoBranch != DefaultRepoBranch {
		t.Errorf("RepoBranch = %s, want %s", cfg.RepoBranch, DefaultRepoBranch)
	}
	if cfg.NotebookDir != filepath.Join(DefaultWorkspaceDir, "notebooks") {
		t.Errorf("NotebookDir = %s, want workspace default", cfg.NotebookDir)
	}
	if cfg.ExposedPort != DefaultExposedPort {
		t.Errorf("ExposedPort = %d, want %d", cfg.ExposedPort, DefaultExposedPort)
	}
	if cfg.JupyterPort != DefaultJupyterPort {
		t.Errorf("JupyterPort = %d, want %d", cfg.JupyterPort, DefaultJupyterPort)
	}
	if cfg.NotebookToken != DefaultNotebookToken {
		t.Errorf("NotebookToken = %s, want %s", cfg.NotebookToken, DefaultNotebookToken)
	}
	if cfg.HasRepo() || cfg.HasNotebook() || cfg.HasCondaEnv() {
		t.Error("Nothing was configured, no acquisition should be requested")
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("WORKSPACE_DIR", "/srv/work")
	t.Setenv("REPO_URL", "https://github.com/acme/demo")
	t.Setenv("REPO_BRANCH", "develop")
	t.Setenv("NOTEBOOK_DIR", "/srv/nb")
	t.Setenv("EXPOSED_PORT", "9000")
	t.Setenv("START_COMMAND", "python serve.py")

	cfg, warnings := Load()

	if len(warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", warnings)
	}
	if cfg.WorkspaceDir != "/srv/work" {
		t.Errorf("WorkspaceDir = %s", cfg.WorkspaceDir)
	}
	if cfg.RepoBranch != "develop" {
		t.Errorf("RepoBranch = %s", cfg.RepoBranch)
	}
	if cfg.NotebookDir != "/srv/nb" {
		t.Errorf("NotebookDir override not honored: %s", cfg.NotebookDir)
	}
	if cfg.ExposedPort != 9000 {
		t.Errorf("ExposedPort = %d, want 9000", cfg.ExposedPort)
	}
	if cfg.StartCommand != "python serve.py" {
		t.Errorf("StartCommand = %s", cfg.StartCommand)
	}
	if cfg.AppDir() != "/srv/work/app" {
		t.Errorf("AppDir = %s, want /srv/work/app", cfg.AppDir())
	}
}

func TestLoad_BadPortDegradesToDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("EXPOSED_PORT", "not-a-port")
	t.Setenv("JUPYTER_PORT", "99999")

	cfg, warnings := Load()

	if cfg.ExposedPort != DefaultExposedPort {
		t.Errorf("ExposedPort = %d, want default %d", cfg.ExposedPort, DefaultExposedPort)
	}
	if cfg.JupyterPort != DefaultJupyterPort {
		t.Errorf("JupyterPort = %d, want default %d", cfg.JupyterPort, DefaultJupyterPort)
	}
	if len(warnings) != 2 {
		t.Errorf("Expected 2 warnings, got %v", warnings)
	}
}

func TestLoad_MalformedURLWarnsButLoads(t *testing.T) {
	clearEnv(t)
	t.Setenv("REPO_URL", "not a url at all")

	cfg, warnings := Load()

	if cfg.RepoURL != "not a url at all" {
		t.Errorf("RepoURL should be kept verbatim, got %s", cfg.RepoURL)
	}
	if len(warnings) == 0 {
		t.Error("Expected a warning for the malformed URL")
	}
}

func TestBasePath(t *testing.T) {
	clearEnv(t)

	cfg, _ := Load()
	if cfg.BasePath() != "/" {
		t.Errorf("BasePath without INSTANCE_ID = %s, want /", cfg.BasePath())
	}

	t.Setenv("INSTANCE_ID", "nb-1234")
	cfg, _ = Load()
	if cfg.BasePath() != "/instance/nb-1234/" {
		t.Errorf("BasePath = %s, want /instance/nb-1234/", cfg.BasePath())
	}
}
