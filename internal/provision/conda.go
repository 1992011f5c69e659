package provision

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"launchkit/internal/fetch"
)

// ProvisionEnv materializes the named runtime environment from the
// configured archive. Provisioning is idempotent per environment name: when
// <EnvRoot>/<name> already exists the fetch and extraction are skipped
// entirely. Whenever the environment directory exists afterwards, its bin/
// directory is prepended to PATH so later commands resolve binaries from it
// first.
//
// The returned bool reports whether the environment ended up active; errors
// are advisory (the caller logs and continues without the environment).
func (p *Provisioner) ProvisionEnv(ctx context.Context) (bool, error) {
	if !p.cfg.HasCondaEnv() {
		return false, nil
	}

	dest := filepath.Join(p.EnvRoot, p.cfg.CondaEnv)

	if _, err := os.Stat(dest); os.IsNotExist(err) {
		if err := p.fetchAndExtract(ctx, dest); err != nil {
			// Activate anyway if a partial previous run left the directory.
			if _, statErr := os.Stat(dest); statErr != nil {
				return false, err
			}
			slog.Warn("Environment fetch failed but directory exists, activating", "env", p.cfg.CondaEnv, "error", err)
		}
	} else {
		slog.Info("Runtime environment already provisioned", "env", p.cfg.CondaEnv, "dir", dest)
	}

	if _, err := os.Stat(dest); err != nil {
		return false, fmt.Errorf("environment directory missing after provisioning: %w", err)
	}

	return true, p.activate(dest)
}

func (p *Provisioner) fetchAndExtract(ctx context.Context, dest string) error {
	tmp, err := os.CreateTemp("", "launchkit-env-*.tar.gz")
	if err != nil {
		return fmt.Errorf("failed to create temporary archive file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	slog.Info("Downloading runtime environment archive", "url", p.cfg.CondaEnvURL, "env", p.cfg.CondaEnv)
	if err := fetch.Download(ctx, p.cfg.CondaEnvURL, tmpPath); err != nil {
		return fmt.Errorf("environment archive download failed: %w", err)
	}

	if err := os.MkdirAll(p.EnvRoot, 0750); err != nil {
		return fmt.Errorf("failed to create environments root: %w", err)
	}

	slog.Info("Extracting runtime environment", "archive", tmpPath, "root", p.EnvRoot)
	if err := extractTarGz(tmpPath, p.EnvRoot); err != nil {
		return fmt.Errorf("environment archive extraction failed: %w", err)
	}

	slog.Info("Runtime environment extracted", "env", p.cfg.CondaEnv, "dir", dest)
	return nil
}

// activate prepends the environment's bin directory to PATH for the
// remainder of the bootstrap and for every child process it spawns.
func (p *Provisioner) activate(dest string) error {
	binDir := filepath.Join(dest, "bin")
	newPath := binDir + string(os.PathListSeparator) + p.getenv("PATH")

	if err := p.setenv("PATH", newPath); err != nil {
		return fmt.Errorf("failed to prepend %s to PATH: %w", binDir, err)
	}

	slog.Info("Runtime environment activated", "env", p.cfg.CondaEnv, "bin", binDir)
	return nil
}
