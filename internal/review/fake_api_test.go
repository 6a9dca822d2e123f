package review

import (
	"context"
	"errors"
	"strings"

	"github.com/mergewarden/mergewarden/internal/gitlab"
)

var errInlineRejected = errors.New("inline discussion rejected")

// fakeAPI is an in-memory gitlab.API for pipeline and poster tests
type fakeAPI struct {
	versions  []gitlab.DiffVersion
	detail    *gitlab.DiffVersion
	listErr   error
	detailErr error

	// gotVersionID records the version requested from GetDiffVersion
	gotVersionID int64

	notes   []string
	noteErr error

	inline []string
	// inlineFailSubstring fails inline posts whose body contains it
	inlineFailSubstring string
	inlineErr           error
}

func (f *fakeAPI) ListDiffVersions(_ context.Context, _, _ int64) ([]gitlab.DiffVersion, error) {
	return f.versions, f.listErr
}

func (f *fakeAPI) GetDiffVersion(_ context.Context, _, _, versionID int64) (*gitlab.DiffVersion, error) {
	f.gotVersionID = versionID
	return f.detail, f.detailErr
}

func (f *fakeAPI) PostNote(_ context.Context, _, _ int64, body string) error {
	if f.noteErr != nil {
		return f.noteErr
	}
	f.notes = append(f.notes, body)
	return nil
}

func (f *fakeAPI) PostInlineDiscussion(_ context.Context, _, _ int64, body string, _ gitlab.DiffPosition) error {
	if f.inlineErr != nil {
		return f.inlineErr
	}
	if f.inlineFailSubstring != "" && strings.Contains(body, f.inlineFailSubstring) {
		return errInlineRejected
	}
	f.inline = append(f.inline, body)
	return nil
}
