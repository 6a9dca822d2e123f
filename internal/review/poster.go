package review

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mergewarden/mergewarden/internal/gitlab"
	"github.com/mergewarden/mergewarden/pkg/logger"
)

// Poster publishes a parsed review back onto the merge request
type Poster struct {
	api       gitlab.API
	projectID int64
	mrIID     int64
}

// NewPoster creates a Poster for one merge request
func NewPoster(api gitlab.API, projectID, mrIID int64) *Poster {
	return &Poster{api: api, projectID: projectID, mrIID: mrIID}
}

// PostAll publishes every comment and then the summary note. Comments are
// posted inline-first with one general-note fallback each; one comment's
// failure never aborts the rest. The summary note is posted unconditionally
// after all comment attempts, even with zero comments.
func (p *Poster) PostAll(ctx context.Context, result *Result, dv *gitlab.DiffVersion) PostingOutcome {
	var outcome PostingOutcome

	for _, c := range result.Comments {
		if p.postComment(ctx, c, dv) {
			outcome.Posted++
		} else {
			outcome.Failed++
		}
	}

	if err := p.api.PostNote(ctx, p.projectID, p.mrIID, formatSummary(result.Summary)); err != nil {
		logger.Warn("failed to post summary note",
			zap.Int64("mr_iid", p.mrIID),
			zap.Error(err))
	}

	logger.Info("review posted",
		zap.Int64("project_id", p.projectID),
		zap.Int64("mr_iid", p.mrIID),
		zap.Int("posted", outcome.Posted),
		zap.Int("failed", outcome.Failed))

	return outcome
}

// postComment attempts one inline post with a single general-note fallback.
// Returns true when either attempt lands.
func (p *Poster) postComment(ctx context.Context, c Comment, dv *gitlab.DiffVersion) bool {
	pos, err := Position(c, dv)
	if err != nil {
		// The file is not in this diff version; a general note is the only
		// possible placement
		if noteErr := p.api.PostNote(ctx, p.projectID, p.mrIID, formatFallback(c)); noteErr != nil {
			logger.Warn("failed to post out-of-diff comment",
				zap.String("file", c.File),
				zap.Int("line", c.Line),
				zap.Error(noteErr))
			return false
		}
		return true
	}

	if err := p.api.PostInlineDiscussion(ctx, p.projectID, p.mrIID, formatInline(c), pos); err == nil {
		return true
	} else {
		logger.Debug("inline post failed, falling back to general note",
			zap.String("file", c.File),
			zap.Int("line", c.Line),
			zap.Error(err))
	}

	if err := p.api.PostNote(ctx, p.projectID, p.mrIID, formatFallback(c)); err != nil {
		logger.Warn("failed to post comment after fallback",
			zap.String("file", c.File),
			zap.Int("line", c.Line),
			zap.Error(err))
		return false
	}
	return true
}

func formatInline(c Comment) string {
	return fmt.Sprintf("%s %s", c.Severity.Marker(), c.Body)
}

func formatFallback(c Comment) string {
	return fmt.Sprintf("%s `%s:%d` %s", c.Severity.Marker(), c.File, c.Line, c.Body)
}

func formatSummary(summary string) string {
	return "## Review Summary\n\n" + summary
}
