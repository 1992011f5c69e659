package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// Download performs an HTTP GET of rawURL and writes the body to dest,
// creating parent directories as needed. The partial file is removed on
// failure so a failed download never leaves a truncated artifact behind.
// Downloads are not cancellable mid-transfer beyond ctx; a slow transfer
// simply delays startup.
func Download(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("invalid download URL %s: %w", rawURL, err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("download request failed for %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download of %s returned status %s", rawURL, resp.Status)
	}

	return WriteFile(dest, resp.Body)
}

// WriteFile streams r into dest, creating parent directories as needed.
func WriteFile(dest string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", dest, err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dest)
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(dest)
		return fmt.Errorf("failed to close %s: %w", dest, err)
	}

	return nil
}
