package review

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/mergewarden/mergewarden/pkg/logger"
	"go.uber.org/zap"
)

// Parse turns raw assistant output into a Result. It never fails: when the
// output is not the expected JSON shape, the raw text becomes the summary
// and the comment list is empty. Assistant output is natural-language
// adjacent, so every step here degrades instead of erroring.
func Parse(raw string) *Result {
	text := stripCodeFence(raw)

	decoded, ok := decodeObject(text)
	if !ok {
		// One repair attempt for almost-JSON before giving up on structure
		if repaired, err := jsonrepair.JSONRepair(text); err == nil {
			decoded, ok = decodeObject(repaired)
		}
	}
	if !ok {
		logger.Debug("assistant output is not structured, using raw text as summary",
			zap.Int("length", len(text)))
		return &Result{Summary: text, Comments: []Comment{}}
	}

	summary, ok := decoded["summary"].(string)
	if !ok {
		return &Result{Summary: text, Comments: []Comment{}}
	}

	result := &Result{Summary: summary, Comments: []Comment{}}

	items, ok := decoded["comments"].([]any)
	if !ok {
		// A malformed comments field degrades to an empty list, the summary
		// is still worth posting
		return result
	}

	for _, item := range items {
		if c, ok := parseComment(item); ok {
			result.Comments = append(result.Comments, c)
		}
	}

	return result
}

// decodeObject unmarshals text into a JSON object
func decodeObject(text string) (map[string]any, bool) {
	var m map[string]any
	if err := json.Unmarshal([]byte(text), &m); err != nil {
		return nil, false
	}
	return m, true
}

// parseComment validates one candidate comment. A comment needs a string
// file, a numeric line, and a string body; anything else is dropped.
// Severity is normalized, defaulting to info.
func parseComment(item any) (Comment, bool) {
	m, ok := item.(map[string]any)
	if !ok {
		return Comment{}, false
	}

	file, ok := m["file"].(string)
	if !ok || file == "" {
		return Comment{}, false
	}

	line, ok := m["line"].(float64)
	if !ok {
		return Comment{}, false
	}

	body, ok := m["body"].(string)
	if !ok {
		return Comment{}, false
	}

	severity, _ := m["severity"].(string)

	return Comment{
		File:     file,
		Line:     int(line),
		Body:     body,
		Severity: NormalizeSeverity(severity),
	}, true
}

// stripCodeFence removes a single enclosing fenced code block, tolerating an
// optional language tag after the opening fence
func stripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)

	if !strings.HasPrefix(text, "```") {
		return text
	}

	// Drop the opening fence line (``` or ```json)
	idx := strings.Index(text, "\n")
	if idx < 0 {
		return text
	}
	inner := text[idx+1:]

	inner = strings.TrimRight(inner, " \t\n")
	if !strings.HasSuffix(inner, "```") {
		return text
	}
	inner = strings.TrimSuffix(inner, "```")

	return strings.TrimSpace(inner)
}
