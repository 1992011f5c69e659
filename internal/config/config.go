package config

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"launchkit/pkg/instance"
)

// Defaults for the recognized environment variables.
const (
	DefaultWorkspaceDir  = "/workspace"
	DefaultRepoBranch    = "main"
	DefaultExposedPort   = 7860
	DefaultJupyterPort   = 8888
	DefaultNotebookToken = "amd-oneclick"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load reads the recognized environment variables into an immutable Config
// snapshot. Absent variables resolve to their documented defaults. Malformed
// values never abort the bootstrap: they fall back to the default and are
// reported in the returned warning list.
func Load() (*instance.Config, []string) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("WORKSPACE_DIR", DefaultWorkspaceDir)
	v.SetDefault("REPO_BRANCH", DefaultRepoBranch)
	v.SetDefault("NOTEBOOK_TOKEN", DefaultNotebookToken)

	var warnings []string

	workspaceDir := stringOr(v, "WORKSPACE_DIR", DefaultWorkspaceDir)

	notebookDir := v.GetString("NOTEBOOK_DIR")
	if notebookDir == "" {
		notebookDir = filepath.Join(workspaceDir, "notebooks")
	}

	exposedPort, warn := intOr(v, "EXPOSED_PORT", DefaultExposedPort)
	warnings = append(warnings, warn...)

	jupyterPort, warn := intOr(v, "JUPYTER_PORT", DefaultJupyterPort)
	warnings = append(warnings, warn...)

	cfg := &instance.Config{
		WorkspaceDir:  workspaceDir,
		RepoURL:       v.GetString("REPO_URL"),
		RepoBranch:    stringOr(v, "REPO_BRANCH", DefaultRepoBranch),
		NotebookURL:   v.GetString("NOTEBOOK_URL"),
		NotebookPath:  v.GetString("NOTEBOOK_PATH"),
		NotebookDir:   notebookDir,
		CondaEnvURL:   v.GetString("CONDA_ENV_URL"),
		CondaEnv:      v.GetString("CONDA_ENV"),
		StartCommand:  v.GetString("START_COMMAND"),
		ExposedPort:   exposedPort,
		JupyterPort:   jupyterPort,
		NotebookToken: stringOr(v, "NOTEBOOK_TOKEN", DefaultNotebookToken),
		InstanceID:    v.GetString("INSTANCE_ID"),
		GitLabToken:   v.GetString("GITLAB_PRIVATE_TOKEN"),
	}

	warnings = append(warnings, softValidate(cfg)...)

	return cfg, warnings
}

// softValidate checks URL-shaped fields and reports problems as warnings.
// Bad inputs degrade downstream (a clone or download simply fails), so
// validation here never aborts.
func softValidate(cfg *instance.Config) []string {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{fmt.Sprintf("configuration validation failed: %s", err)}
	}

	var warnings []string
	for _, e := range validationErrors {
		warnings = append(warnings, formatFieldWarning(e))
	}
	return warnings
}

// formatFieldWarning formats a single validation error into a user-friendly message.
func formatFieldWarning(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("field '%s' is required but missing", e.Field())
	case "url":
		return fmt.Sprintf("field '%s' does not look like a valid URL: %q", e.Field(), e.Value())
	default:
		return fmt.Sprintf("field '%s' failed validation (%s)", e.Field(), e.Tag())
	}
}

func stringOr(v *viper.Viper, key, fallback string) string {
	if s := v.GetString(key); s != "" {
		return s
	}
	return fallback
}

// intOr coerces a numeric variable, falling back to the default with a
// warning when the value does not parse. Viper's GetInt would silently
// return zero here, which is not a usable port.
func intOr(v *viper.Viper, key string, fallback int) (int, []string) {
	raw := v.GetString(key)
	if raw == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > 65535 {
		return fallback, []string{fmt.Sprintf("%s=%q is not a valid port, using %d", key, raw, fallback)}
	}
	return n, nil
}
