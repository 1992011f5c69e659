package provision

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// RequirementsFile is the dependency manifest looked for in the working
// directory.
const RequirementsFile = "requirements.txt"

// skipPatterns marks requirement lines that cannot install on this platform.
// CUDA wheels and flash-attn have no ROCm builds and would fail every time.
var skipPatterns = []string{"cu1", "flash_attn", "flash-attn"}

// InstallRequirements installs the dependencies listed in the working
// directory's requirements manifest. Each requirement is installed
// separately so one broken package does not block the rest; failures are
// logged and skipped.
func (p *Provisioner) InstallRequirements(ctx context.Context, workDir string) {
	manifest := filepath.Join(workDir, RequirementsFile)

	f, err := os.Open(manifest)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Cannot read requirements manifest", "file", manifest, "error", err)
		}
		return
	}
	defer f.Close()

	slog.Info("Installing requirements", "file", manifest)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		req := strings.TrimSpace(scanner.Text())
		if req == "" || strings.HasPrefix(req, "#") {
			continue
		}
		if skipRequirement(req) {
			slog.Info("Skipping platform-incompatible requirement", "requirement", req)
			continue
		}

		if err := p.runner.Run(ctx, workDir, "pip", "install", req, "--quiet"); err != nil {
			slog.Warn("Failed to install requirement", "requirement", req, "error", err)
		}
	}

	if err := scanner.Err(); err != nil {
		slog.Warn("Failed while reading requirements manifest", "file", manifest, "error", err)
	}
}

func skipRequirement(req string) bool {
	for _, pattern := range skipPatterns {
		if strings.Contains(req, pattern) {
			return true
		}
	}
	return false
}

// InstallEditable installs the working directory itself in editable mode
// when it carries an installable package descriptor. Best-effort.
func (p *Provisioner) InstallEditable(ctx context.Context, workDir string) {
	if !hasPackageDescriptor(workDir) {
		return
	}

	slog.Info("Installing local package in editable mode", "dir", workDir)
	if err := p.runner.Run(ctx, workDir, "pip", "install", "-e", ".", "--quiet"); err != nil {
		slog.Warn("Editable install failed", "dir", workDir, "error", err)
	}
}

func hasPackageDescriptor(workDir string) bool {
	for _, name := range []string{"setup.py", "pyproject.toml"} {
		if _, err := os.Stat(filepath.Join(workDir, name)); err == nil {
			return true
		}
	}
	return false
}
