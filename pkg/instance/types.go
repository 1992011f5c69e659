package instance

import "path/filepath"

// Variant selects which entrypoint flavor the bootstrap runs as. The app
// variant serves a cloned workspace application, the notebook variant serves
// a single downloaded notebook through Jupyter.
type Variant string

const (
	VariantApp      Variant = "app"
	VariantNotebook Variant = "notebook"
)

// Config is the immutable snapshot of the recognized environment variables,
// captured once at process start. No component re-reads the environment after
// the snapshot is taken; derived values (base path, default notebook
// directory) are computed from the snapshot alone.
type Config struct {
	WorkspaceDir  string `validate:"required"`
	RepoURL       string `validate:"omitempty,url"`
	RepoBranch    string
	NotebookURL   string `validate:"omitempty,url"`
	NotebookPath  string
	NotebookDir   string
	CondaEnvURL   string `validate:"omitempty,url"`
	CondaEnv      string
	StartCommand  string
	ExposedPort   int
	JupyterPort   int
	NotebookToken string
	InstanceID    string

	// GitLabToken authenticates notebook downloads from private GitLab
	// instances. Optional; plain HTTP is used when absent.
	GitLabToken string
}

// AppDir is the fixed subdirectory of the workspace a repository is cloned
// into. It is the active working directory after a successful clone.
func (c *Config) AppDir() string {
	return filepath.Join(c.WorkspaceDir, "app")
}

// BasePath derives the URL prefix the notebook server is mounted under.
// Instances addressed through the manager's reverse proxy get
// /instance/<id>/, standalone instances get /.
func (c *Config) BasePath() string {
	if c.InstanceID == "" {
		return "/"
	}
	return "/instance/" + c.InstanceID + "/"
}

// HasRepo reports whether a repository clone was requested.
func (c *Config) HasRepo() bool { return c.RepoURL != "" }

// HasNotebook reports whether a notebook download was requested.
func (c *Config) HasNotebook() bool { return c.NotebookURL != "" }

// HasCondaEnv reports whether a runtime environment was requested. Both the
// archive URL and the environment name are required together.
func (c *Config) HasCondaEnv() bool { return c.CondaEnvURL != "" && c.CondaEnv != "" }
