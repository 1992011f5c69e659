package app

import (
	"context"
	"errors"
	"testing"

	bserrors "launchkit/internal/errors"
	"launchkit/internal/resolve"
	"launchkit/pkg/instance"
)

// clearBootstrapEnv unsets every recognized variable so ambient configuration
// cannot leak into the run under test.
func clearBootstrapEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"WORKSPACE_DIR", "REPO_URL", "REPO_BRANCH",
		"NOTEBOOK_URL", "NOTEBOOK_PATH", "NOTEBOOK_DIR",
		"CONDA_ENV_URL", "CONDA_ENV", "START_COMMAND",
		"EXPOSED_PORT", "JUPYTER_PORT", "NOTEBOOK_TOKEN",
		"INSTANCE_ID", "GITLAB_PRIVATE_TOKEN", "LAUNCHKIT_LOG_DIR",
	} {
		t.Setenv(key, "")
	}
}

func TestBuildStages_Order(t *testing.T) {
	stages := buildStages(&instance.Config{}, instance.VariantApp)

	want := []string{"source", "provision", "resolve"}
	if len(stages) != len(want) {
		t.Fatalf("Pipeline has %d stages, want %d", len(stages), len(want))
	}
	for i, name := range want {
		if stages[i].Name() != name {
			t.Errorf("Stage %d = %s, want %s", i, stages[i].Name(), name)
		}
	}
}

func TestState_RecordAndRoundTrip(t *testing.T) {
	workspace := t.TempDir()
	state := newState("run-1", instance.VariantApp, workspace)

	state.Record("source", Outcome{Status: StatusDegraded, Detail: "clone fell back"})
	state.Record("provision", Outcome{Status: StatusSkipped, Err: errors.New("no env configured")})
	state.setCommand(&resolve.Command{Line: "python app.py", Origin: "plain"})
	state.Record("resolve", Outcome{Status: StatusOK, Detail: "python app.py"})

	if err := state.save(); err != nil {
		t.Fatalf("save failed: %s", err)
	}

	loaded, err := loadState(workspace)
	if err != nil {
		t.Fatalf("loadState failed: %s", err)
	}
	if loaded == nil {
		t.Fatal("loadState returned nil for an existing state file")
	}

	if loaded.RunID != "run-1" {
		t.Errorf("RunID = %s, want run-1", loaded.RunID)
	}
	if loaded.SchemaVersion != StateSchemaVersion {
		t.Errorf("SchemaVersion = %s, want %s", loaded.SchemaVersion, StateSchemaVersion)
	}
	if loaded.ResolvedCommand != "python app.py" {
		t.Errorf("ResolvedCommand = %s, want python app.py", loaded.ResolvedCommand)
	}
	if len(loaded.Stages) != 3 {
		t.Fatalf("Stages = %d records, want 3", len(loaded.Stages))
	}
	if loaded.Stages[0].Status != StatusDegraded {
		t.Errorf("Stage[0].Status = %s, want %s", loaded.Stages[0].Status, StatusDegraded)
	}
	// An outcome without a Detail falls back to the error text.
	if loaded.Stages[1].Detail != "no env configured" {
		t.Errorf("Stage[1].Detail = %q, want the error text", loaded.Stages[1].Detail)
	}
}

func TestLoadState_NoFile(t *testing.T) {
	state, err := loadState(t.TempDir())
	if err != nil {
		t.Fatalf("loadState failed: %s", err)
	}
	if state != nil {
		t.Error("loadState should return nil when no state file exists")
	}
}

func TestRun_EndToEndWithOverride(t *testing.T) {
	clearBootstrapEnv(t)
	workspace := t.TempDir()
	t.Setenv("WORKSPACE_DIR", workspace)
	t.Setenv("START_COMMAND", "sh -c 'exit 0'")

	code, err := Run(context.Background(), instance.VariantApp)
	if err != nil {
		t.Fatalf("Run failed: %s", err)
	}
	if code != 0 {
		t.Errorf("Exit code = %d, want 0", code)
	}

	state, err := loadState(workspace)
	if err != nil {
		t.Fatalf("loadState failed: %s", err)
	}
	if state == nil {
		t.Fatal("Bootstrap should leave a state file in the workspace")
	}
	if state.ResolvedCommand != "sh -c 'exit 0'" {
		t.Errorf("ResolvedCommand = %q, want the override", state.ResolvedCommand)
	}
	if len(state.Stages) != 3 {
		t.Errorf("Stages = %d records, want 3", len(state.Stages))
	}
}

func TestRun_WorkloadExitCodeIsPropagated(t *testing.T) {
	clearBootstrapEnv(t)
	t.Setenv("WORKSPACE_DIR", t.TempDir())
	t.Setenv("START_COMMAND", "sh -c 'exit 5'")

	code, err := Run(context.Background(), instance.VariantApp)
	if err != nil {
		t.Fatalf("Run failed: %s", err)
	}
	if code != 5 {
		t.Errorf("Exit code = %d, want the workload's own 5", code)
	}
}

func TestRun_UnresolvableCommandAborts(t *testing.T) {
	clearBootstrapEnv(t)
	workspace := t.TempDir()
	t.Setenv("WORKSPACE_DIR", workspace)

	code, err := Run(context.Background(), instance.VariantApp)
	if err == nil {
		t.Fatal("Expected error when nothing is resolvable")
	}
	if !errors.Is(err, bserrors.ErrCommandUnresolved) {
		t.Errorf("Error should wrap ErrCommandUnresolved, got %v", err)
	}
	if code != 1 {
		t.Errorf("Exit code = %d, want 1", code)
	}

	// The aborted run still leaves its state file for post-mortem inspection.
	state, err := loadState(workspace)
	if err != nil {
		t.Fatalf("loadState failed: %s", err)
	}
	if state == nil {
		t.Fatal("Aborted bootstrap should still write the state file")
	}
	last := state.Stages[len(state.Stages)-1]
	if last.Stage != "resolve" || last.Status != StatusFailed {
		t.Errorf("Last record = %s/%s, want resolve/%s", last.Stage, last.Status, StatusFailed)
	}
}
