package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"launchkit/internal/resolve"
	"launchkit/pkg/instance"
)

const (
	// StateFileName is written into the workspace after every stage so a
	// failed or wedged instance can be diagnosed from its volume.
	StateFileName      = ".launchkit.state.json"
	StateSchemaVersion = "1.0"
)

// StageRecord is the persisted outcome of one pipeline stage.
type StageRecord struct {
	Stage      string    `json:"stage"`
	Status     Status    `json:"status"`
	Detail     string    `json:"detail,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

// BootstrapState tracks one bootstrap run: which stages ran, how they ended,
// and what command the supervisor was handed. It is persisted best-effort;
// a state write failure never blocks startup.
type BootstrapState struct {
	SchemaVersion   string           `json:"schema_version"`
	RunID           string           `json:"run_id"`
	Variant         instance.Variant `json:"variant"`
	WorkDir         string           `json:"work_dir"`
	ResolvedCommand string           `json:"resolved_command,omitempty"`
	Stages          []StageRecord    `json:"stages"`
	CreatedAt       time.Time        `json:"created_at"`
	LastUpdatedAt   time.Time        `json:"last_updated_at"`

	workspaceDir string
	command      *resolve.Command
}

// newState creates the state for a fresh bootstrap run.
func newState(runID string, variant instance.Variant, workspaceDir string) *BootstrapState {
	now := time.Now()
	return &BootstrapState{
		SchemaVersion: StateSchemaVersion,
		RunID:         runID,
		Variant:       variant,
		WorkDir:       workspaceDir,
		CreatedAt:     now,
		LastUpdatedAt: now,
		workspaceDir:  workspaceDir,
	}
}

// Record appends a stage outcome.
func (s *BootstrapState) Record(stage string, out Outcome) {
	detail := out.Detail
	if detail == "" && out.Err != nil {
		detail = out.Err.Error()
	}
	s.Stages = append(s.Stages, StageRecord{
		Stage:      stage,
		Status:     out.Status,
		Detail:     detail,
		FinishedAt: time.Now(),
	})
}

// setCommand stores the resolved command for the supervisor and the state file.
func (s *BootstrapState) setCommand(cmd *resolve.Command) {
	s.command = cmd
	s.ResolvedCommand = cmd.Line
}

func (s *BootstrapState) statePath() string {
	return filepath.Join(s.workspaceDir, StateFileName)
}

// save persists the state into the workspace.
func (s *BootstrapState) save() error {
	s.LastUpdatedAt = time.Now()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize bootstrap state: %w", err)
	}

	if err := os.WriteFile(s.statePath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write bootstrap state: %w", err)
	}

	return nil
}

// loadState reads a previously written state file, for tests and post-mortem
// tooling. Returns nil when no state file exists.
func loadState(workspaceDir string) (*BootstrapState, error) {
	path := filepath.Join(workspaceDir, StateFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state BootstrapState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}
	state.workspaceDir = workspaceDir

	return &state, nil
}
