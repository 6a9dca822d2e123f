package review

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mergewarden/mergewarden/internal/agent"
	"github.com/mergewarden/mergewarden/internal/gitlab"
	"github.com/mergewarden/mergewarden/internal/workspace"
	"github.com/mergewarden/mergewarden/pkg/errors"
	"github.com/mergewarden/mergewarden/pkg/logger"
	"github.com/mergewarden/mergewarden/pkg/telemetry"
)

// Run status values, shared with run history records
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusNoChanges = "no_changes"
)

// Input identifies the merge request to review and carries the metadata
// the prompt needs
type Input struct {
	RunID        string
	ProjectID    int64
	MRIID        int64
	Title        string
	Description  string
	SourceBranch string
	TargetBranch string
	URL          string

	// CloneURL is the repository's HTTPS clone URL
	CloneURL string
}

// Outcome reports one finished run
type Outcome struct {
	Status         string
	Summary        string
	CommentsPosted int
	CommentsFailed int
}

// Acquirer obtains a source checkout for the run. Satisfied by
// *workspace.Manager.
type Acquirer interface {
	Acquire(ctx context.Context, spec workspace.CloneSpec) (*workspace.Checkout, error)
}

// CheckoutAuth carries the credentials the checkout uses
type CheckoutAuth struct {
	Username           string
	Token              string
	InsecureSkipVerify bool
}

// Pipeline orchestrates one review run: fetch diff, acquire source, invoke
// the assistant, parse, post. One run is strictly sequential and owns all
// of its state; concurrent runs are independent.
type Pipeline struct {
	api    gitlab.API
	source Acquirer
	agent  agent.Agent
	auth   CheckoutAuth
}

// NewPipeline wires a Pipeline from its collaborators
func NewPipeline(api gitlab.API, source Acquirer, ag agent.Agent, auth CheckoutAuth) *Pipeline {
	return &Pipeline{api: api, source: source, agent: ag, auth: auth}
}

// Run executes one review. Fatal errors (diff fetch, checkout, assistant)
// produce a best-effort failure note on the merge request and a non-nil
// error; posting degradation is reported through the Outcome instead. The
// checkout, once acquired, is released exactly once on every path.
func (p *Pipeline) Run(ctx context.Context, in *Input) (*Outcome, error) {
	log := logger.WithRun(in.RunID)
	metrics := telemetry.GetMetrics()

	ctx, span := telemetry.StartSpan(ctx, "review.run",
		telemetry.WithRunAttributes(in.RunID, in.ProjectID, in.MRIID))
	defer span.End()

	metrics.RecordRunStarted(ctx, p.agent.Name())
	start := time.Now()

	outcome, err := p.run(ctx, in, log)

	status := StatusFailed
	if err == nil {
		status = outcome.Status
	}
	metrics.RecordRunCompleted(ctx, status, time.Since(start).Seconds())
	telemetry.SetSpanAttributes(span, telemetry.AttrRunStatus.String(status))

	if err != nil {
		telemetry.SetSpanError(span, err)
		p.notifyFailure(ctx, in, err, log)
		return nil, err
	}

	telemetry.SetSpanOK(span)
	return outcome, nil
}

func (p *Pipeline) run(ctx context.Context, in *Input, log *zap.Logger) (*Outcome, error) {
	metrics := telemetry.GetMetrics()

	dv, err := p.fetchLatestDiff(ctx, in)
	if err != nil {
		return nil, err
	}

	if len(dv.Files) == 0 {
		log.Info("no file changes in latest diff version, skipping review",
			zap.Int64("mr_iid", in.MRIID))
		if noteErr := p.api.PostNote(ctx, in.ProjectID, in.MRIID, "No file changes detected, nothing to review."); noteErr != nil {
			log.Warn("failed to post no-changes note", zap.Error(noteErr))
		}
		return &Outcome{Status: StatusNoChanges}, nil
	}

	checkoutStart := time.Now()
	co, err := p.source.Acquire(ctx, workspace.CloneSpec{
		URL:                in.CloneURL,
		Branch:             in.SourceBranch,
		Username:           p.auth.Username,
		Token:              p.auth.Token,
		InsecureSkipVerify: p.auth.InsecureSkipVerify,
	})
	metrics.RecordCheckout(ctx, err == nil, time.Since(checkoutStart).Seconds())
	if err != nil {
		return nil, err
	}
	defer co.Release()

	prompt := BuildPrompt(MRMeta{
		Title:        in.Title,
		Description:  in.Description,
		SourceBranch: in.SourceBranch,
		TargetBranch: in.TargetBranch,
		URL:          in.URL,
	}, dv.Files)

	raw, err := p.agent.Invoke(ctx, &agent.Request{Prompt: prompt, WorkDir: co.Root})
	metrics.RecordAgentExecution(ctx, p.agent.Name(), err == nil)
	if err != nil {
		return nil, err
	}

	result := Parse(raw)
	log.Info("parsed assistant response",
		zap.Int("comments", len(result.Comments)),
		zap.Int("summary_length", len(result.Summary)))

	posting := NewPoster(p.api, in.ProjectID, in.MRIID).PostAll(ctx, result, dv)
	metrics.RecordCommentsPosted(ctx, int64(posting.Posted), int64(posting.Failed))

	return &Outcome{
		Status:         StatusCompleted,
		Summary:        result.Summary,
		CommentsPosted: posting.Posted,
		CommentsFailed: posting.Failed,
	}, nil
}

// fetchLatestDiff resolves the newest diff version and loads its files
func (p *Pipeline) fetchLatestDiff(ctx context.Context, in *Input) (*gitlab.DiffVersion, error) {
	versions, err := p.api.ListDiffVersions(ctx, in.ProjectID, in.MRIID)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, errors.New(errors.ErrCodeDiffFetch, "merge request has no diff versions")
	}

	return p.api.GetDiffVersion(ctx, in.ProjectID, in.MRIID, versions[0].ID)
}

// notifyFailure posts a best-effort failure note. Its own failure is only
// debug-logged and never replaces the primary error.
func (p *Pipeline) notifyFailure(ctx context.Context, in *Input, runErr error, log *zap.Logger) {
	body := fmt.Sprintf("⚠️ Review failed: %s", runErr.Error())
	if err := p.api.PostNote(ctx, in.ProjectID, in.MRIID, body); err != nil {
		log.Debug("failed to post failure note", zap.Error(err))
	}
}
