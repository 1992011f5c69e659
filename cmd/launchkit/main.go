package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"launchkit/internal/app"
	"launchkit/internal/config"
	"launchkit/internal/errors"
	"launchkit/internal/resolve"
	"launchkit/pkg/instance"
)

// version is set at build time via ldflags
var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "launchkit",
	Short:   "launchkit - container instance bootstrapper and process supervisor",
	Version: version,
	Long: `launchkit is the entrypoint of an ephemeral compute instance. It acquires
the workload (a repository or a notebook), provisions a runtime environment,
resolves the command that launches the workload, and supervises that process
for the lifetime of the container, relaying termination signals.

All behavior is driven by environment variables: WORKSPACE_DIR, REPO_URL,
REPO_BRANCH, NOTEBOOK_URL, NOTEBOOK_PATH, NOTEBOOK_DIR, CONDA_ENV_URL,
CONDA_ENV, START_COMMAND, EXPOSED_PORT, JUPYTER_PORT, NOTEBOOK_TOKEN,
INSTANCE_ID and GITLAB_PRIVATE_TOKEN.`,
}

var appCmd = &cobra.Command{
	Use:   "app",
	Short: "Bootstrap a workspace/app instance",
	Long: `App clones the configured repository, provisions the runtime environment,
resolves a start command (explicit START_COMMAND or auto-detected from the
repository's entry-point files) and supervises it. The workload's exit code
becomes the container's exit code.`,
	Run: func(cmd *cobra.Command, args []string) {
		runVariant(instance.VariantApp)
	},
}

var notebookCmd = &cobra.Command{
	Use:   "notebook",
	Short: "Bootstrap a notebook instance",
	Long: `Notebook downloads the configured notebook into the notebook directory,
provisions the runtime environment, and serves the directory through
Jupyter Lab on the configured port and token.`,
	Run: func(cmd *cobra.Command, args []string) {
		runVariant(instance.VariantNotebook)
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Print the start command that would run, without running it",
	Run: func(cmd *cobra.Command, args []string) {
		variant, _ := cmd.Flags().GetString("variant")
		dir, _ := cmd.Flags().GetString("dir")

		cfg, warnings := config.Load()
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
		}
		if dir == "" {
			dir = cfg.WorkspaceDir
		}

		resolved, err := resolve.Resolve(cfg, instance.Variant(variant), dir)
		if err != nil {
			errors.HandleError(err)
			os.Exit(1)
		}

		fmt.Println(resolved.Line)
		for _, kv := range resolved.Env {
			fmt.Println("env:", kv)
		}
	},
}

func runVariant(variant instance.Variant) {
	code, err := app.Run(context.Background(), variant)
	if err != nil {
		errors.HandleError(err)
	}
	os.Exit(code)
}

func init() {
	rootCmd.AddCommand(appCmd)
	rootCmd.AddCommand(notebookCmd)

	resolveCmd.Flags().String("variant", string(instance.VariantApp), "Entrypoint variant (app or notebook)")
	resolveCmd.Flags().String("dir", "", "Working directory to inspect (defaults to the workspace)")
	rootCmd.AddCommand(resolveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
