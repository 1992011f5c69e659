package provision

import (
	"context"
	"log/slog"
	"os"
	"os/exec"

	"launchkit/pkg/instance"
)

// DefaultEnvRoot is where named runtime environments are extracted. Each
// environment occupies <root>/<name> with its interpreter under bin/.
const DefaultEnvRoot = "/opt/conda_envs"

// CommandRunner executes an external tool in a working directory. The
// interface exists so dependency installs can be exercised without a Python
// toolchain present.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) error
}

// execRunner runs commands through os/exec, streaming output to the
// bootstrap's own stdio so install progress is visible in container logs.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Provisioner materializes the named runtime environment and installs
// declared dependencies. Every operation is best-effort: failures are logged
// and the bootstrap continues with the system-default interpreter.
type Provisioner struct {
	cfg *instance.Config

	// EnvRoot is overridable for tests.
	EnvRoot string
	runner  CommandRunner
	setenv  func(key, value string) error
	getenv  func(key string) string
}

// New creates a Provisioner for the given configuration snapshot.
func New(cfg *instance.Config) *Provisioner {
	return &Provisioner{
		cfg:     cfg,
		EnvRoot: DefaultEnvRoot,
		runner:  execRunner{},
		setenv:  os.Setenv,
		getenv:  os.Getenv,
	}
}

// NewWithRunner creates a Provisioner with a custom command runner.
func NewWithRunner(cfg *instance.Config, runner CommandRunner) *Provisioner {
	p := New(cfg)
	p.runner = runner
	return p
}

// EnsureJupyter installs JupyterLab when no jupyter binary is on the search
// path. Runs after environment activation so a provisioned environment's own
// jupyter is found first.
func (p *Provisioner) EnsureJupyter(ctx context.Context) {
	if _, err := exec.LookPath("jupyter"); err == nil {
		return
	}

	slog.Info("Jupyter not found, installing JupyterLab")
	if err := p.runner.Run(ctx, "", "pip", "install", "jupyterlab", "--quiet"); err != nil {
		slog.Warn("Failed to install JupyterLab", "error", err)
	}
}
