package gitlab

import "time"

// DiffVersion is one immutable diff snapshot of a merge request. The three
// commit SHAs define the coordinate space every inline comment against this
// version must use; posting with stale SHAs makes GitLab reject or
// mis-anchor the comment.
type DiffVersion struct {
	ID        int64
	BaseSHA   string
	HeadSHA   string
	StartSHA  string
	CreatedAt time.Time
	Files     []DiffFile
}

// DiffFile is one changed file within a diff version. An empty Diff with
// Collapsed set means GitLab omitted the content (file too large) and the
// text must be treated as absent.
type DiffFile struct {
	OldPath     string
	NewPath     string
	NewFile     bool
	RenamedFile bool
	DeletedFile bool
	Collapsed   bool
	Diff        string
}

// DiffPosition anchors one inline comment in a diff version's coordinate
// space. Exactly one of NewLine/OldLine is set. Built fresh per posted
// comment, never stored.
type DiffPosition struct {
	BaseSHA  string
	HeadSHA  string
	StartSHA string
	OldPath  string
	NewPath  string
	NewLine  int64
	OldLine  int64
}
