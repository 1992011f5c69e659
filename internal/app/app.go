package app

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"launchkit/internal/config"
	"launchkit/internal/supervise"
	"launchkit/internal/ui"
	"launchkit/pkg/instance"
)

// Run executes the full bootstrap for one entrypoint variant: configuration
// snapshot, source acquisition, environment provisioning, command
// resolution, then supervised execution of the workload. The returned int is
// the exit status the process must terminate with; a non-nil error
// accompanies any non-zero status that was not the workload's own doing.
func Run(ctx context.Context, variant instance.Variant) (int, error) {
	cfg, warnings := config.Load()
	console := ui.NewConsole()

	for _, w := range warnings {
		console.PrintWarning(w)
		slog.Warn("Configuration warning", "warning", w)
	}

	runID := uuid.New().String()
	slog.Info("Starting instance bootstrap", "runId", runID, "variant", variant, "workspace", cfg.WorkspaceDir)

	if err := os.MkdirAll(cfg.WorkspaceDir, 0750); err != nil {
		slog.Warn("Failed to create workspace directory", "dir", cfg.WorkspaceDir, "error", err)
	}

	state := newState(runID, variant, cfg.WorkspaceDir)
	stages := buildStages(cfg, variant)

	for i, stage := range stages {
		console.PrintStage(i+1, stage.Name())

		out := stage.Execute(ctx, state)
		state.Record(stage.Name(), out)
		saveState(state)

		switch out.Status {
		case StatusFailed:
			// The single abort point of the pipeline. Today only command
			// resolution can end up here; every other stage degrades.
			slog.Error("Bootstrap stage failed", "stage", stage.Name(), "error", out.Err)
			return 1, out.Err
		case StatusDegraded:
			console.PrintWarning(stage.Name() + " degraded: " + out.Detail)
			slog.Warn("Bootstrap stage degraded", "stage", stage.Name(), "detail", out.Detail)
		case StatusSkipped:
			slog.Info("Bootstrap stage skipped", "stage", stage.Name(), "detail", out.Detail)
		default:
			slog.Info("Bootstrap stage completed", "stage", stage.Name(), "detail", out.Detail)
		}
	}

	console.PrintInfo("Launching: " + state.ResolvedCommand)

	supervisor := supervise.New()
	code, err := supervisor.Run(ctx, state.command, state.WorkDir)

	slog.Info("Workload finished", "runId", runID, "exitCode", code)
	return code, err
}

// saveState persists the bootstrap state best-effort. Diagnostics must never
// block startup.
func saveState(state *BootstrapState) {
	if err := state.save(); err != nil {
		slog.Warn("Failed to save bootstrap state", "error", err)
	}
}
