package review

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostAll_InlineSuccess(t *testing.T) {
	api := &fakeAPI{}
	result := &Result{
		Summary: "looks good",
		Comments: []Comment{
			{File: "main.go", Line: 12, Body: "check error", Severity: SeverityCritical},
		},
	}

	outcome := NewPoster(api, 101, 7).PostAll(context.Background(), result, sampleDiffVersion())

	assert.Equal(t, PostingOutcome{Posted: 1, Failed: 0}, outcome)
	require.Len(t, api.inline, 1)
	assert.Contains(t, api.inline[0], "🔴")
	assert.Contains(t, api.inline[0], "check error")

	// Trailing summary note
	require.Len(t, api.notes, 1)
	assert.Contains(t, api.notes[0], "looks good")
}

func TestPostAll_FileNotInDiffFallsBack(t *testing.T) {
	api := &fakeAPI{}
	result := &Result{
		Summary: "s",
		Comments: []Comment{
			{File: "missing.go", Line: 3, Body: "finding", Severity: SeverityWarning},
		},
	}

	outcome := NewPoster(api, 101, 7).PostAll(context.Background(), result, sampleDiffVersion())

	assert.Equal(t, PostingOutcome{Posted: 1, Failed: 0}, outcome)
	assert.Empty(t, api.inline)
	// The fallback note plus the summary note
	require.Len(t, api.notes, 2)
	assert.Contains(t, api.notes[0], "missing.go:3")
}

func TestPostAll_InlineFailureRecoveredByFallback(t *testing.T) {
	api := &fakeAPI{inlineFailSubstring: "flaky"}
	result := &Result{
		Summary: "s",
		Comments: []Comment{
			{File: "main.go", Line: 1, Body: "solid finding", Severity: SeverityInfo},
			{File: "main.go", Line: 2, Body: "flaky finding", Severity: SeverityInfo},
		},
	}

	outcome := NewPoster(api, 101, 7).PostAll(context.Background(), result, sampleDiffVersion())

	// The failed inline post recovers through the general-note fallback
	assert.Equal(t, PostingOutcome{Posted: 2, Failed: 0}, outcome)
	assert.Len(t, api.inline, 1)
	require.Len(t, api.notes, 2)
	assert.Contains(t, api.notes[0], "main.go:2")
}

func TestPostAll_BothAttemptsFail(t *testing.T) {
	api := &fakeAPI{
		inlineErr: errors.New("boom"),
		noteErr:   errors.New("boom"),
	}
	result := &Result{
		Summary:  "s",
		Comments: []Comment{{File: "main.go", Line: 1, Body: "b", Severity: SeverityInfo}},
	}

	outcome := NewPoster(api, 101, 7).PostAll(context.Background(), result, sampleDiffVersion())
	assert.Equal(t, PostingOutcome{Posted: 0, Failed: 1}, outcome)
}

func TestPostAll_ZeroComments(t *testing.T) {
	api := &fakeAPI{}
	outcome := NewPoster(api, 101, 7).PostAll(context.Background(), &Result{Summary: "all clear"}, sampleDiffVersion())

	assert.Equal(t, PostingOutcome{Posted: 0, Failed: 0}, outcome)
	// Exactly one note: the summary
	require.Len(t, api.notes, 1)
	assert.Contains(t, api.notes[0], "all clear")
}

func TestPostAll_SummaryPostedEvenWhenAllCommentsFail(t *testing.T) {
	api := &fakeAPI{inlineErr: errors.New("boom")}
	result := &Result{
		Summary:  "still here",
		Comments: []Comment{{File: "main.go", Line: 1, Body: "b", Severity: SeverityInfo}},
	}

	outcome := NewPoster(api, 101, 7).PostAll(context.Background(), result, sampleDiffVersion())

	// Inline fails, fallback note succeeds, then the summary note follows
	assert.Equal(t, PostingOutcome{Posted: 1, Failed: 0}, outcome)
	require.Len(t, api.notes, 2)
	assert.Contains(t, api.notes[1], "still here")
}

func TestSeverityMarkers(t *testing.T) {
	assert.Equal(t, "🔴", SeverityCritical.Marker())
	assert.Equal(t, "🟠", SeverityWarning.Marker())
	assert.Equal(t, "🔵", SeverityInfo.Marker())
	assert.Equal(t, "🔵", Severity("unknown").Marker())
}
