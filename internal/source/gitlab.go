package source

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	gitlab "github.com/xanzy/go-gitlab"

	"launchkit/internal/fetch"
)

// gitLabFileRef identifies a single file in a GitLab project, parsed from a
// web UI blob URL.
type gitLabFileRef struct {
	Host    string
	Project string
	Ref     string
	Path    string
}

// parseGitLabBlobURL decomposes a GitLab web UI URL of the form
// https://<host>/<group>/<project>/-/blob/<ref>/<path>. The host is not
// checked against a fixed list; self-managed GitLab instances use the same
// path layout.
func parseGitLabBlobURL(rawURL string) (gitLabFileRef, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return gitLabFileRef{}, false
	}

	project, rest, found := strings.Cut(u.Path, "/-/blob/")
	if !found {
		return gitLabFileRef{}, false
	}

	ref, filePath, found := strings.Cut(strings.TrimPrefix(rest, "/"), "/")
	if !found || ref == "" || filePath == "" {
		return gitLabFileRef{}, false
	}

	return gitLabFileRef{
		Host:    u.Scheme + "://" + u.Host,
		Project: strings.Trim(project, "/"),
		Ref:     ref,
		Path:    filePath,
	}, true
}

// fetchGitLabFile downloads a single repository file through the GitLab API
// using the configured private token. This is the only path that can reach
// notebooks in private projects.
func (a *Acquirer) fetchGitLabFile(ref gitLabFileRef, dest string) error {
	client, err := gitlab.NewClient(a.cfg.GitLabToken, gitlab.WithBaseURL(ref.Host+"/api/v4"))
	if err != nil {
		return fmt.Errorf("failed to create GitLab client: %w", err)
	}

	raw, _, err := client.RepositoryFiles.GetRawFile(ref.Project, ref.Path, &gitlab.GetRawFileOptions{
		Ref: gitlab.String(ref.Ref),
	})
	if err != nil {
		return fmt.Errorf("failed to fetch %s from GitLab project %s: %w", ref.Path, ref.Project, err)
	}

	return fetch.WriteFile(dest, bytes.NewReader(raw))
}
