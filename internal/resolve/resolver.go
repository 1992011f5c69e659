package resolve

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	bserrors "launchkit/internal/errors"
	"launchkit/pkg/instance"
)

// Entry-point files inspected during auto-detection, in precedence order.
const (
	PrimaryEntryFile   = "app.py"
	SecondaryEntryFile = "main.py"
)

// Command is the resolved launch command: the shell command line plus any
// extra environment the detected framework needs in the child process.
// Immutable once chosen; consumed exactly once by the supervisor.
type Command struct {
	Line string
	// Env holds extra KEY=VALUE pairs appended to the child's environment.
	Env []string
	// Origin records how the command was chosen, for logging and the state file.
	Origin string
}

// frameworkRule maps a marker token found in the primary entry file to the
// launch command for that framework. Rules are evaluated in declared order
// and the first match wins, so a file importing several frameworks gets the
// earliest rule's command.
type frameworkRule struct {
	token string
	build func(cfg *instance.Config) *Command
}

var frameworkRules = []frameworkRule{
	{
		token: "gradio",
		build: func(cfg *instance.Config) *Command {
			// Gradio reads its bind address and port from the environment.
			return &Command{
				Line: "python " + PrimaryEntryFile,
				Env: []string{
					"GRADIO_SERVER_NAME=0.0.0.0",
					fmt.Sprintf("GRADIO_SERVER_PORT=%d", cfg.ExposedPort),
				},
				Origin: "gradio",
			}
		},
	},
	{
		token: "streamlit",
		build: func(cfg *instance.Config) *Command {
			return &Command{
				Line: fmt.Sprintf("streamlit run %s --server.port %d --server.address 0.0.0.0",
					PrimaryEntryFile, cfg.ExposedPort),
				Origin: "streamlit",
			}
		},
	},
}

// Resolve determines the command that will run the workload. An explicit
// START_COMMAND always wins. Otherwise the app variant inspects the working
// directory for entry-point files and the notebook variant serves Jupyter.
// An unresolvable command is the pipeline's only fatal condition.
func Resolve(cfg *instance.Config, variant instance.Variant, workDir string) (*Command, error) {
	if cfg.StartCommand != "" {
		cmd := &Command{Line: cfg.StartCommand, Origin: "override"}
		if err := checkSyntax(cmd.Line); err != nil {
			return nil, bserrors.NewResolveError(
				"Explicit start command is not valid shell",
				fmt.Sprintf("START_COMMAND=%q failed to parse", cfg.StartCommand),
				"Fix the START_COMMAND value",
				err,
			)
		}
		slog.Info("Using explicit start command", "command", cmd.Line)
		return cmd, nil
	}

	if variant == instance.VariantNotebook {
		return notebookCommand(cfg), nil
	}

	return detectAppCommand(cfg, workDir)
}

// detectAppCommand picks a default command from recognizable entry-point
// files. The primary entry file's textual contents are matched against the
// framework rule table; an unrecognized primary file still runs under a
// plain interpreter invocation.
func detectAppCommand(cfg *instance.Config, workDir string) (*Command, error) {
	primary := filepath.Join(workDir, PrimaryEntryFile)
	if content, err := os.ReadFile(primary); err == nil {
		for _, rule := range frameworkRules {
			if strings.Contains(string(content), rule.token) {
				cmd := rule.build(cfg)
				slog.Info("Detected framework entry point", "file", PrimaryEntryFile, "framework", rule.token, "command", cmd.Line)
				return cmd, nil
			}
		}
		slog.Info("No framework marker found, using plain interpreter", "file", PrimaryEntryFile)
		return &Command{Line: "python " + PrimaryEntryFile, Origin: "plain"}, nil
	}

	secondary := filepath.Join(workDir, SecondaryEntryFile)
	if _, err := os.Stat(secondary); err == nil {
		slog.Info("Using secondary entry point", "file", SecondaryEntryFile)
		return &Command{Line: "python " + SecondaryEntryFile, Origin: "plain"}, nil
	}

	return nil, bserrors.NewResolveError(
		"Could not determine a start command",
		fmt.Sprintf("no START_COMMAND set and neither %s nor %s exists in %s", PrimaryEntryFile, SecondaryEntryFile, workDir),
		"Set the START_COMMAND environment variable to the command that launches the workload",
		nil,
	)
}

// notebookCommand builds the Jupyter Lab invocation serving the notebook
// directory on the configured port, token and base path.
func notebookCommand(cfg *instance.Config) *Command {
	line := fmt.Sprintf(
		"jupyter lab --ip=0.0.0.0 --port=%d --no-browser --allow-root "+
			"--ServerApp.token=%q --ServerApp.base_url=%q --notebook-dir=%q",
		cfg.JupyterPort, cfg.NotebookToken, cfg.BasePath(), cfg.NotebookDir,
	)
	slog.Info("Using notebook server default command", "port", cfg.JupyterPort, "basePath", cfg.BasePath())
	return &Command{Line: line, Origin: "jupyter"}
}

func checkSyntax(line string) error {
	_, err := syntax.NewParser().Parse(strings.NewReader(line), "start-command")
	return err
}
