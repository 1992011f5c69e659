package app

import (
	"context"
	"fmt"

	"launchkit/internal/source"
	"launchkit/pkg/instance"
)

// SourceStage acquires the workload: repository clone, notebook download, or
// neither. Acquisition failures degrade, they never abort.
type SourceStage struct {
	cfg *instance.Config
	// acquirer is swappable for tests.
	acquirer *source.Acquirer
}

// NewSourceStage creates the source acquisition stage.
func NewSourceStage(cfg *instance.Config) *SourceStage {
	return &SourceStage{cfg: cfg, acquirer: source.NewAcquirer(cfg)}
}

// Name returns the name of the stage.
func (s *SourceStage) Name() string {
	return "source"
}

// Execute runs the acquisition and records the resulting working directory
// in the shared state.
func (s *SourceStage) Execute(ctx context.Context, state *BootstrapState) Outcome {
	acq := s.acquirer.Acquire(ctx)
	state.WorkDir = acq.WorkDir

	switch {
	case acq.Empty():
		return Outcome{Status: StatusSkipped, Detail: "no repository or notebook configured"}
	case acq.Degraded():
		return Outcome{
			Status: StatusDegraded,
			Detail: fmt.Sprintf("repo=%s notebook=%s", acq.Repo, acq.Notebook),
		}
	default:
		return Outcome{
			Status: StatusOK,
			Detail: fmt.Sprintf("repo=%s notebook=%s", acq.Repo, acq.Notebook),
		}
	}
}
