package review

import (
	"errors"

	"github.com/mergewarden/mergewarden/internal/gitlab"
)

// ErrFileNotInDiff signals that a comment's file is not part of the diff
// version. The caller falls back to a general note.
var ErrFileNotInDiff = errors.New("file not found in diff version")

// Position maps a comment onto the diff version's coordinate space. The
// comment's line is always anchored on the new side of the diff; reviews
// only target added or changed lines.
func Position(c Comment, dv *gitlab.DiffVersion) (gitlab.DiffPosition, error) {
	for _, f := range dv.Files {
		if f.NewPath == c.File || f.OldPath == c.File {
			return gitlab.DiffPosition{
				BaseSHA:  dv.BaseSHA,
				HeadSHA:  dv.HeadSHA,
				StartSHA: dv.StartSHA,
				OldPath:  f.OldPath,
				NewPath:  f.NewPath,
				NewLine:  int64(c.Line),
			}, nil
		}
	}
	return gitlab.DiffPosition{}, ErrFileNotInDiff
}
