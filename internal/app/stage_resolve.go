package app

import (
	"context"

	"launchkit/internal/resolve"
	"launchkit/pkg/instance"
)

// ResolveStage determines the workload launch command. This is the only
// stage whose failure aborts the bootstrap: with nothing to run, degrading
// is not an option.
type ResolveStage struct {
	cfg     *instance.Config
	variant instance.Variant
}

// NewResolveStage creates the command resolution stage.
func NewResolveStage(cfg *instance.Config, variant instance.Variant) *ResolveStage {
	return &ResolveStage{cfg: cfg, variant: variant}
}

// Name returns the name of the stage.
func (s *ResolveStage) Name() string {
	return "resolve"
}

// Execute resolves the command and stores it in the shared state for the
// supervisor.
func (s *ResolveStage) Execute(ctx context.Context, state *BootstrapState) Outcome {
	cmd, err := resolve.Resolve(s.cfg, s.variant, state.WorkDir)
	if err != nil {
		return Outcome{Status: StatusFailed, Err: err}
	}

	state.setCommand(cmd)
	return Outcome{Status: StatusOK, Detail: cmd.Line}
}
