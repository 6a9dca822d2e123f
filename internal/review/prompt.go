package review

import (
	"fmt"
	"strings"

	"github.com/mergewarden/mergewarden/internal/gitlab"
)

// MRMeta is the merge request context included in the assistant prompt
type MRMeta struct {
	Title        string
	Description  string
	SourceBranch string
	TargetBranch string
	URL          string
}

const promptInstructions = `You are reviewing a merge request. The full source tree is available in the current working directory for additional context.

Respond with a single JSON object of this shape:
{"summary": "<overall assessment>", "comments": [{"file": "<new file path>", "line": <line number in the new file>, "body": "<finding>", "severity": "info|warning|critical"}]}

Only report findings you are confident about. Use the diff below to pick file paths and line numbers; line numbers refer to the new side of the diff.`

// BuildPrompt renders the assistant prompt from merge request metadata and
// the diff version's files. Files whose diff text was omitted upstream are
// listed by name and explicitly called out as not included.
func BuildPrompt(meta MRMeta, files []gitlab.DiffFile) string {
	var b strings.Builder

	b.WriteString(promptInstructions)
	b.WriteString("\n\n## Merge Request\n\n")
	fmt.Fprintf(&b, "Title: %s\n", meta.Title)
	if meta.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", meta.Description)
	}
	fmt.Fprintf(&b, "Branches: %s -> %s\n", meta.SourceBranch, meta.TargetBranch)
	if meta.URL != "" {
		fmt.Fprintf(&b, "URL: %s\n", meta.URL)
	}

	b.WriteString("\n## Changed Files\n")
	for _, f := range files {
		path := f.NewPath
		if f.DeletedFile {
			path = f.OldPath
		}

		fmt.Fprintf(&b, "\n### %s%s\n", path, fileFlags(f))

		if f.Collapsed {
			b.WriteString("(diff content omitted upstream: file too large; review the file in the source tree if relevant)\n")
			continue
		}
		if f.Diff == "" {
			continue
		}

		b.WriteString("```diff\n")
		b.WriteString(f.Diff)
		if !strings.HasSuffix(f.Diff, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("```\n")
	}

	return b.String()
}

func fileFlags(f gitlab.DiffFile) string {
	switch {
	case f.NewFile:
		return " (new file)"
	case f.DeletedFile:
		return " (deleted)"
	case f.RenamedFile:
		return fmt.Sprintf(" (renamed from %s)", f.OldPath)
	default:
		return ""
	}
}
