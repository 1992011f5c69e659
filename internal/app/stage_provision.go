package app

import (
	"context"

	"launchkit/internal/provision"
	"launchkit/pkg/instance"
)

// ProvisionStage materializes the runtime environment and installs declared
// dependencies. Everything here is best-effort; the workload can still start
// against the system interpreter.
type ProvisionStage struct {
	cfg         *instance.Config
	variant     instance.Variant
	provisioner *provision.Provisioner
}

// NewProvisionStage creates the environment provisioning stage.
func NewProvisionStage(cfg *instance.Config, variant instance.Variant) *ProvisionStage {
	return &ProvisionStage{
		cfg:         cfg,
		variant:     variant,
		provisioner: provision.New(cfg),
	}
}

// Name returns the name of the stage.
func (s *ProvisionStage) Name() string {
	return "provision"
}

// Execute provisions the environment, then installs dependencies found in
// the working directory established by the source stage.
func (s *ProvisionStage) Execute(ctx context.Context, state *BootstrapState) Outcome {
	out := Outcome{Status: StatusOK}

	if s.cfg.HasCondaEnv() {
		activated, err := s.provisioner.ProvisionEnv(ctx)
		if err != nil {
			out = Outcome{Status: StatusDegraded, Err: err, Detail: "environment provisioning failed"}
		} else if activated {
			out.Detail = "environment " + s.cfg.CondaEnv + " active"
		}
	} else if s.cfg.CondaEnvURL != "" || s.cfg.CondaEnv != "" {
		// One of CONDA_ENV_URL/CONDA_ENV without the other is a no-op.
		out = Outcome{Status: StatusSkipped, Detail: "CONDA_ENV_URL and CONDA_ENV are required together"}
	} else {
		out = Outcome{Status: StatusSkipped, Detail: "no runtime environment configured"}
	}

	s.provisioner.InstallRequirements(ctx, state.WorkDir)
	s.provisioner.InstallEditable(ctx, state.WorkDir)

	if s.variant == instance.VariantNotebook {
		s.provisioner.EnsureJupyter(ctx)
	}

	return out
}
