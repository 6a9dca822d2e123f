package gitlab

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// MRRef identifies a merge request by instance, project, and IID. Produced
// by parsing a browser URL, used by the one-shot review command.
type MRRef struct {
	// BaseURL is the GitLab instance root, e.g. https://gitlab.example.com
	BaseURL string

	// ProjectPath is the full namespace path, e.g. group/subgroup/repo
	ProjectPath string

	// IID is the merge request number within the project
	IID int64
}

var (
	mrPathPattern       = regexp.MustCompile(`^/(.+?)/-/merge_requests/(\d+)`)
	mrPathLegacyPattern = regexp.MustCompile(`^/(.+?)/merge_requests/(\d+)`)
)

// ParseMRURL parses a merge request browser URL into an MRRef.
// Supported formats:
//   - https://gitlab.com/owner/repo/-/merge_requests/123
//   - https://gitlab.com/group/subgroup/repo/-/merge_requests/123
//   - the legacy form without the /-/ separator
func ParseMRURL(raw string) (*MRRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty merge request URL")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("merge request URL must be absolute: %s", raw)
	}

	matches := mrPathPattern.FindStringSubmatch(u.Path)
	if len(matches) != 3 {
		matches = mrPathLegacyPattern.FindStringSubmatch(u.Path)
		if len(matches) != 3 {
			return nil, fmt.Errorf("invalid merge request URL format: %s", u.Path)
		}
	}

	iid, err := strconv.ParseInt(matches[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid merge request number: %s", matches[2])
	}

	// Nested groups are allowed, so the project path may hold several
	// namespace segments
	projectPath := matches[1]
	if !strings.Contains(projectPath, "/") {
		return nil, fmt.Errorf("invalid project path: %s", projectPath)
	}

	return &MRRef{
		BaseURL:     u.Scheme + "://" + u.Host,
		ProjectPath: projectPath,
		IID:         iid,
	}, nil
}

// String returns a human readable reference like group/repo!7
func (r *MRRef) String() string {
	return fmt.Sprintf("%s!%d", r.ProjectPath, r.IID)
}
