package app

import "context"

// Status classifies a stage outcome. The orchestrator holds the single
// degrade-vs-abort decision: Degraded and Skipped continue, Failed aborts.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
)

// Outcome is the typed result of a stage execution.
type Outcome struct {
	Status Status
	Err    error `json:"-"`
	// Detail is a short human-readable note recorded in the state file.
	Detail string
}

// Stage is a single step of the bootstrap pipeline. Stages run sequentially
// and communicate through the shared BootstrapState; they report degradation
// through the Outcome rather than aborting themselves.
type Stage interface {
	Name() string
	Execute(ctx context.Context, state *BootstrapState) Outcome
}
