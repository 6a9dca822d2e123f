package gitlab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMRURL(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		wantBase    string
		wantProject string
		wantIID     int64
	}{
		{
			name:        "standard format",
			url:         "https://gitlab.com/owner/repo/-/merge_requests/123",
			wantBase:    "https://gitlab.com",
			wantProject: "owner/repo",
			wantIID:     123,
		},
		{
			name:        "nested groups",
			url:         "https://gitlab.example.com/group/subgroup/repo/-/merge_requests/7",
			wantBase:    "https://gitlab.example.com",
			wantProject: "group/subgroup/repo",
			wantIID:     7,
		},
		{
			name:        "legacy format without dash separator",
			url:         "https://gitlab.example.com/owner/repo/merge_requests/9",
			wantBase:    "https://gitlab.example.com",
			wantProject: "owner/repo",
			wantIID:     9,
		},
		{
			name:        "trailing path segments",
			url:         "https://gitlab.com/owner/repo/-/merge_requests/123/diffs",
			wantBase:    "https://gitlab.com",
			wantProject: "owner/repo",
			wantIID:     123,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParseMRURL(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBase, ref.BaseURL)
			assert.Equal(t, tt.wantProject, ref.ProjectPath)
			assert.Equal(t, tt.wantIID, ref.IID)
		})
	}
}

func TestParseMRURL_Invalid(t *testing.T) {
	for _, raw := range []string{
		"",
		"not a url",
		"https://gitlab.com/owner/repo",
		"https://gitlab.com/owner/repo/-/issues/5",
		"/owner/repo/-/merge_requests/1",
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseMRURL(raw)
			assert.Error(t, err)
		})
	}
}

func TestMRRef_String(t *testing.T) {
	ref := &MRRef{ProjectPath: "group/repo", IID: 7}
	assert.Equal(t, "group/repo!7", ref.String())
}
