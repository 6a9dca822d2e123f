// Package review implements the review pipeline: parsing assistant output,
// mapping findings onto diff coordinates, posting comments, and the
// orchestration that ties those together for one merge request.
package review

// Severity classifies one review finding
type Severity string

// Severity tiers, lowest to highest
const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// NormalizeSeverity maps arbitrary input onto a known severity tier,
// defaulting to info
func NormalizeSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityWarning:
		return SeverityWarning
	case SeverityCritical:
		return SeverityCritical
	default:
		return SeverityInfo
	}
}

// Marker returns the visual prefix used when posting a comment of this
// severity
func (s Severity) Marker() string {
	switch s {
	case SeverityCritical:
		return "🔴"
	case SeverityWarning:
		return "🟠"
	default:
		return "🔵"
	}
}

// Comment is one assistant-produced finding. Line is a line number in the
// new-file coordinate space.
type Comment struct {
	File     string   `json:"file"`
	Line     int      `json:"line"`
	Body     string   `json:"body"`
	Severity Severity `json:"severity"`
}

// Result is the parsed assistant output. Summary is always present: when
// structured parsing fails it carries the raw text. Comments is always a
// well-typed slice, possibly empty.
type Result struct {
	Summary  string    `json:"summary"`
	Comments []Comment `json:"comments"`
}

// PostingOutcome aggregates comment posting across one review
type PostingOutcome struct {
	Posted int
	Failed int
}
