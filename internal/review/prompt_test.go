package review

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mergewarden/mergewarden/internal/gitlab"
)

func TestBuildPrompt(t *testing.T) {
	meta := MRMeta{
		Title:        "Fix cache eviction",
		Description:  "Evict by LRU instead of FIFO",
		SourceBranch: "fix/eviction",
		TargetBranch: "main",
		URL:          "https://gitlab.example.com/g/r/-/merge_requests/9",
	}
	files := []gitlab.DiffFile{
		{OldPath: "cache.go", NewPath: "cache.go", Diff: "@@ -1,3 +1,4 @@\n+evict()"},
		{OldPath: "huge.bin", NewPath: "huge.bin", Collapsed: true},
		{OldPath: "gone.go", NewPath: "gone.go", DeletedFile: true, Diff: "@@ -1 +0,0 @@\n-x"},
		{OldPath: "a.go", NewPath: "b.go", RenamedFile: true, Diff: "@@ -1 +1 @@\n-a\n+b"},
	}

	prompt := BuildPrompt(meta, files)

	assert.Contains(t, prompt, "Fix cache eviction")
	assert.Contains(t, prompt, "Evict by LRU instead of FIFO")
	assert.Contains(t, prompt, "fix/eviction -> main")
	assert.Contains(t, prompt, "merge_requests/9")

	assert.Contains(t, prompt, "### cache.go")
	assert.Contains(t, prompt, "+evict()")

	// Collapsed files appear by name only with an explicit call-out
	assert.Contains(t, prompt, "### huge.bin")
	assert.Contains(t, prompt, "omitted upstream")
	assert.NotContains(t, prompt, "huge.bin\n```diff")

	assert.Contains(t, prompt, "### gone.go (deleted)")
	assert.Contains(t, prompt, "### b.go (renamed from a.go)")
}

func TestBuildPrompt_NoDescription(t *testing.T) {
	prompt := BuildPrompt(MRMeta{Title: "t", SourceBranch: "s", TargetBranch: "m"}, nil)
	assert.NotContains(t, prompt, "Description:")
}
