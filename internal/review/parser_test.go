package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_WellFormed(t *testing.T) {
	result := Parse(`{"summary":"ok","comments":[]}`)
	assert.Equal(t, "ok", result.Summary)
	assert.Empty(t, result.Comments)
}

func TestParse_FencedWithLanguageTag(t *testing.T) {
	raw := "```json\n{\"summary\":\"ok\",\"comments\":[]}\n```"
	result := Parse(raw)
	assert.Equal(t, "ok", result.Summary)
	assert.Empty(t, result.Comments)
}

func TestParse_FencedWithoutLanguageTag(t *testing.T) {
	raw := "```\n{\"summary\":\"fenced\",\"comments\":[]}\n```"
	result := Parse(raw)
	assert.Equal(t, "fenced", result.Summary)
}

func TestParse_NotJSON(t *testing.T) {
	result := Parse("not json at all")
	assert.Equal(t, "not json at all", result.Summary)
	assert.NotNil(t, result.Comments)
	assert.Empty(t, result.Comments)
}

func TestParse_Comments(t *testing.T) {
	raw := `{
		"summary": "two findings",
		"comments": [
			{"file": "a.go", "line": 10, "body": "check error", "severity": "critical"},
			{"file": "b.go", "line": 3, "body": "typo", "severity": "weird-value"},
			{"file": "c.go", "line": 7, "body": "note"}
		]
	}`
	result := Parse(raw)
	require.Len(t, result.Comments, 3)

	assert.Equal(t, Comment{File: "a.go", Line: 10, Body: "check error", Severity: SeverityCritical}, result.Comments[0])
	// Unrecognized and missing severities default to info
	assert.Equal(t, SeverityInfo, result.Comments[1].Severity)
	assert.Equal(t, SeverityInfo, result.Comments[2].Severity)
}

func TestParse_MalformedCommentDropped(t *testing.T) {
	raw := `{"summary":"x","comments":[{"file":"a.ts","line":"not-a-number","body":"b","severity":"critical"}]}`
	result := Parse(raw)
	assert.Equal(t, "x", result.Summary)
	assert.Empty(t, result.Comments)
}

func TestParse_DroppedCommentVariants(t *testing.T) {
	tests := []struct {
		name    string
		comment string
	}{
		{"missing file", `{"line":1,"body":"b"}`},
		{"empty file", `{"file":"","line":1,"body":"b"}`},
		{"missing line", `{"file":"a.go","body":"b"}`},
		{"missing body", `{"file":"a.go","line":1}`},
		{"not an object", `"just a string"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse(`{"summary":"s","comments":[` + tt.comment + `]}`)
			assert.Equal(t, "s", result.Summary)
			assert.Empty(t, result.Comments)
		})
	}
}

func TestParse_CommentsNotASequence(t *testing.T) {
	result := Parse(`{"summary":"s","comments":"oops"}`)
	assert.Equal(t, "s", result.Summary)
	assert.Empty(t, result.Comments)
}

func TestParse_MissingSummary(t *testing.T) {
	raw := `{"comments":[{"file":"a.go","line":1,"body":"b"}]}`
	result := Parse(raw)
	// Without a string summary the whole text becomes the summary
	assert.Equal(t, raw, result.Summary)
	assert.Empty(t, result.Comments)
}

func TestParse_RepairsAlmostJSON(t *testing.T) {
	// Trailing comma is invalid JSON but repairable
	raw := `{"summary":"ok","comments":[],}`
	result := Parse(raw)
	assert.Equal(t, "ok", result.Summary)
	assert.Empty(t, result.Comments)
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no fence", `{"a":1}`, `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  ```json\n{\"a\":1}\n```  \n", `{"a":1}`},
		{"unterminated fence left alone", "```json\n{\"a\":1}", "```json\n{\"a\":1}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripCodeFence(tt.input))
		})
	}
}

func TestNormalizeSeverity(t *testing.T) {
	assert.Equal(t, SeverityCritical, NormalizeSeverity("critical"))
	assert.Equal(t, SeverityWarning, NormalizeSeverity("warning"))
	assert.Equal(t, SeverityInfo, NormalizeSeverity("info"))
	assert.Equal(t, SeverityInfo, NormalizeSeverity(""))
	assert.Equal(t, SeverityInfo, NormalizeSeverity("CRITICAL"))
}
