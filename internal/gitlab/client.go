// Package gitlab wraps the GitLab REST API behind the narrow surface the
// review pipeline needs: diff version lookup and comment posting.
package gitlab

import (
	"context"
	"crypto/tls"
	"net/http"
	"sort"
	"strings"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/mergewarden/mergewarden/pkg/errors"
	"github.com/mergewarden/mergewarden/pkg/logger"
	"go.uber.org/zap"
)

const positionTypeText = "text"

// Options configures the GitLab REST client
type Options struct {
	// BaseURL is the GitLab instance URL, e.g. https://gitlab.example.com
	BaseURL string
	// Token is the bot account's personal access token
	Token string
	// InsecureSkipVerify disables TLS certificate verification for
	// self-signed instances
	InsecureSkipVerify bool
}

// Client implements API on top of the official GitLab client
type Client struct {
	api *gl.Client
}

// NewClient builds a GitLab REST client for the given instance
func NewClient(opts Options) (*Client, error) {
	clientOpts := []gl.ClientOptionFunc{}

	if opts.BaseURL != "" {
		base := strings.TrimSuffix(opts.BaseURL, "/")
		clientOpts = append(clientOpts, gl.WithBaseURL(base+"/api/v4"))
	}

	if opts.InsecureSkipVerify {
		httpClient := &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // explicit opt-in for self-signed instances
			},
		}
		clientOpts = append(clientOpts, gl.WithHTTPClient(httpClient))
	}

	api, err := gl.NewClient(opts.Token, clientOpts...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to create gitlab client", err)
	}

	return &Client{api: api}, nil
}

// MRInfo describes merge request metadata looked up by project path. Used
// by the one-shot review command, where only the MR URL is known.
type MRInfo struct {
	ProjectID    int64
	IID          int64
	Title        string
	Description  string
	SourceBranch string
	TargetBranch string
	WebURL       string
}

// GetMergeRequest fetches merge request metadata by project path
func (c *Client) GetMergeRequest(ctx context.Context, projectPath string, mrIID int64) (*MRInfo, error) {
	mr, _, err := c.api.MergeRequests.GetMergeRequest(projectPath, mrIID, nil, gl.WithContext(ctx))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMRNotFound, "failed to fetch merge request", err)
	}

	return &MRInfo{
		ProjectID:    int64(mr.ProjectID),
		IID:          int64(mr.IID),
		Title:        mr.Title,
		Description:  mr.Description,
		SourceBranch: mr.SourceBranch,
		TargetBranch: mr.TargetBranch,
		WebURL:       mr.WebURL,
	}, nil
}

// ListDiffVersions returns the merge request's diff versions, newest first
func (c *Client) ListDiffVersions(ctx context.Context, projectID, mrIID int64) ([]DiffVersion, error) {
	// pid must be an int or string, the client rejects other integer kinds
	raw, _, err := c.api.MergeRequests.GetMergeRequestDiffVersions(int(projectID), mrIID, nil, gl.WithContext(ctx))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDiffFetch, "failed to list diff versions", err)
	}

	versions := make([]DiffVersion, 0, len(raw))
	for _, v := range raw {
		dv := DiffVersion{
			ID:       int64(v.ID),
			BaseSHA:  v.BaseCommitSHA,
			HeadSHA:  v.HeadCommitSHA,
			StartSHA: v.StartCommitSHA,
		}
		if v.CreatedAt != nil {
			dv.CreatedAt = *v.CreatedAt
		}
		versions = append(versions, dv)
	}

	// GitLab returns newest first, but the anchor SHAs only work against the
	// true latest version, so enforce the order rather than trust it
	sort.Slice(versions, func(i, j int) bool { return versions[i].ID > versions[j].ID })

	return versions, nil
}

// GetDiffVersion returns one diff version with its changed files
func (c *Client) GetDiffVersion(ctx context.Context, projectID, mrIID, versionID int64) (*DiffVersion, error) {
	raw, _, err := c.api.MergeRequests.GetSingleMergeRequestDiffVersion(int(projectID), mrIID, versionID, nil, gl.WithContext(ctx))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDiffFetch, "failed to get diff version", err)
	}

	dv := &DiffVersion{
		ID:       int64(raw.ID),
		BaseSHA:  raw.BaseCommitSHA,
		HeadSHA:  raw.HeadCommitSHA,
		StartSHA: raw.StartCommitSHA,
	}
	if raw.CreatedAt != nil {
		dv.CreatedAt = *raw.CreatedAt
	}

	for _, d := range raw.Diffs {
		dv.Files = append(dv.Files, DiffFile{
			OldPath:     d.OldPath,
			NewPath:     d.NewPath,
			NewFile:     d.NewFile,
			RenamedFile: d.RenamedFile,
			DeletedFile: d.DeletedFile,
			// GitLab omits diff text for oversized files; an empty diff on a
			// non-deleted file means the content was collapsed upstream
			Collapsed: d.Diff == "" && !d.DeletedFile,
			Diff:      d.Diff,
		})
	}

	logger.Debug("fetched diff version",
		zap.Int64("project_id", projectID),
		zap.Int64("mr_iid", mrIID),
		zap.Int64("version_id", dv.ID),
		zap.Int("files", len(dv.Files)))

	return dv, nil
}

// PostNote adds a general note to the merge request
func (c *Client) PostNote(ctx context.Context, projectID, mrIID int64, body string) error {
	_, _, err := c.api.Notes.CreateMergeRequestNote(int(projectID), mrIID, &gl.CreateMergeRequestNoteOptions{
		Body: gl.Ptr(body),
	}, gl.WithContext(ctx))
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotePost, "failed to post merge request note", err)
	}
	return nil
}

// PostInlineDiscussion starts a discussion anchored at the given position
func (c *Client) PostInlineDiscussion(ctx context.Context, projectID, mrIID int64, body string, pos DiffPosition) error {
	position := &gl.PositionOptions{
		BaseSHA:      gl.Ptr(pos.BaseSHA),
		HeadSHA:      gl.Ptr(pos.HeadSHA),
		StartSHA:     gl.Ptr(pos.StartSHA),
		PositionType: gl.Ptr(positionTypeText),
		NewPath:      gl.Ptr(pos.NewPath),
		OldPath:      gl.Ptr(pos.OldPath),
	}
	if pos.NewLine > 0 {
		position.NewLine = gl.Ptr(pos.NewLine)
	}
	if pos.OldLine > 0 {
		position.OldLine = gl.Ptr(pos.OldLine)
	}

	_, _, err := c.api.Discussions.CreateMergeRequestDiscussion(int(projectID), mrIID, &gl.CreateMergeRequestDiscussionOptions{
		Body:     gl.Ptr(body),
		Position: position,
	}, gl.WithContext(ctx))
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotePost, "failed to post inline discussion", err)
	}
	return nil
}
