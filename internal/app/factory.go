package app

import (
	"launchkit/pkg/instance"
)

// buildStages returns the ordered pipeline for a variant. Both variants run
// the same three stages; variant-specific behavior lives inside the stages
// themselves (the notebook variant checks for Jupyter during provisioning
// and resolves to the notebook server command).
func buildStages(cfg *instance.Config, variant instance.Variant) []Stage {
	return []Stage{
		NewSourceStage(cfg),
		NewProvisionStage(cfg, variant),
		NewResolveStage(cfg, variant),
	}
}
