package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"launchkit/internal/fetch"
)

// RewriteRawURL converts the human-browsable form of a hosted repository
// file URL into its raw-content equivalent. It is a pure function: URLs
// already in raw form, or not matching a known hosting pattern, are returned
// unchanged.
//
//	https://github.com/<org>/<repo>/blob/<ref>/<path>
//	  -> https://raw.githubusercontent.com/<org>/<repo>/<ref>/<path>
//	https://<gitlab host>/<project>/-/blob/<ref>/<path>
//	  -> https://<gitlab host>/<project>/-/raw/<ref>/<path>
func RewriteRawURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	switch {
	case u.Host == "github.com":
		// /<org>/<repo>/blob/<ref>/<path...>
		parts := strings.Split(strings.TrimPrefix(u.Path, "/"), "/")
		if len(parts) >= 5 && parts[2] == "blob" {
			u.Host = "raw.githubusercontent.com"
			u.Path = "/" + strings.Join(append(parts[:2], parts[3:]...), "/")
			return u.String()
		}
	case strings.Contains(u.Path, "/-/blob/"):
		u.Path = strings.Replace(u.Path, "/-/blob/", "/-/raw/", 1)
		return u.String()
	}

	return rawURL
}

// notebookFilename derives the destination filename from the final path
// segment of the notebook URL.
func notebookFilename(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid notebook URL %s: %w", rawURL, err)
	}

	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("notebook URL %s has no filename", rawURL)
	}
	return name, nil
}

// downloadNotebook fetches the configured notebook into the notebook
// directory. GitLab-hosted notebooks go through the API when a token is
// available so private repositories work; everything else is a plain HTTP
// GET of the raw-content URL.
func (a *Acquirer) downloadNotebook(ctx context.Context) (string, error) {
	name, err := notebookFilename(a.cfg.NotebookURL)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(a.cfg.NotebookDir, name)

	if ref, ok := parseGitLabBlobURL(a.cfg.NotebookURL); ok && a.cfg.GitLabToken != "" {
		if err := a.fetchGitLabFile(ref, dest); err == nil {
			slog.Info("Notebook fetched via GitLab API", "project", ref.Project, "file", dest)
			return dest, nil
		} else {
			slog.Warn("GitLab API fetch failed, falling back to HTTP", "error", err)
		}
	}

	rawURL := RewriteRawURL(a.cfg.NotebookURL)
	if rawURL != a.cfg.NotebookURL {
		slog.Info("Rewrote notebook URL to raw form", "url", rawURL)
	}

	if err := fetch.Download(ctx, rawURL, dest); err != nil {
		return "", err
	}

	slog.Info("Notebook downloaded", "file", dest)
	return dest, nil
}

// copyRepoNotebook copies the notebook named by NOTEBOOK_PATH out of the
// cloned repository into the notebook directory, overwriting any previously
// downloaded file. Returns false when the path does not exist in the clone.
func (a *Acquirer) copyRepoNotebook() (string, bool) {
	src := filepath.Join(a.cfg.AppDir(), a.cfg.NotebookPath)
	if _, err := os.Stat(src); err != nil {
		slog.Warn("Notebook path not found in clone", "path", a.cfg.NotebookPath)
		return "", false
	}

	dest := filepath.Join(a.cfg.NotebookDir, filepath.Base(a.cfg.NotebookPath))
	if err := copyFile(src, dest); err != nil {
		slog.Warn("Failed to copy in-repo notebook", "src", src, "error", err)
		return "", false
	}

	slog.Info("Copied in-repo notebook", "src", src, "dest", dest)
	return dest, true
}

// copyFile copies a single file from src to dst, creating parent directories
// and preserving permissions.
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", src, err)
	}
	defer srcFile.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0750); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	dstFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", dst, err)
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file content: %w", err)
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to get source file info: %w", err)
	}

	return os.Chmod(dst, srcInfo.Mode())
}
