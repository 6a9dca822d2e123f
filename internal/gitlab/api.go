package gitlab

import "context"

// API is the subset of GitLab operations the review pipeline consumes.
// Implementations own transport concerns (auth, TLS, retries); callers get
// typed results or an error per call.
type API interface {
	// ListDiffVersions returns the merge request's diff versions ordered
	// newest first, metadata only.
	ListDiffVersions(ctx context.Context, projectID, mrIID int64) ([]DiffVersion, error)

	// GetDiffVersion returns one diff version with its file list populated.
	GetDiffVersion(ctx context.Context, projectID, mrIID, versionID int64) (*DiffVersion, error)

	// PostNote adds a general (non-inline) note to the merge request.
	PostNote(ctx context.Context, projectID, mrIID int64, body string) error

	// PostInlineDiscussion starts a discussion anchored at the given diff
	// position.
	PostInlineDiscussion(ctx context.Context, projectID, mrIID int64, body string, pos DiffPosition) error
}
