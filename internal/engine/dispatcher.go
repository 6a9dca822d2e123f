// Package engine runs review pipelines in the background with bounded
// concurrency. The webhook handler submits accepted events and returns
// immediately; workers drain the queue and record each run's outcome.
package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mergewarden/mergewarden/internal/event"
	"github.com/mergewarden/mergewarden/internal/model"
	"github.com/mergewarden/mergewarden/internal/review"
	"github.com/mergewarden/mergewarden/internal/store"
	"github.com/mergewarden/mergewarden/pkg/errors"
	"github.com/mergewarden/mergewarden/pkg/idgen"
	"github.com/mergewarden/mergewarden/pkg/logger"
)

// defaultQueueSize bounds how many accepted events may wait for a worker
const defaultQueueSize = 100

// Runner executes one review run. Satisfied by *review.Pipeline.
type Runner interface {
	Run(ctx context.Context, in *review.Input) (*review.Outcome, error)
}

// Dispatcher owns the worker pool and the pending-run queue
type Dispatcher struct {
	runner    Runner
	runs      store.RunStore
	agentName string

	queue      chan *review.Input
	maxWorkers int

	workerWg sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc

	running bool
	mu      sync.Mutex
}

// NewDispatcher creates a Dispatcher with maxWorkers concurrent runs
func NewDispatcher(runner Runner, runs store.RunStore, agentName string, maxWorkers int) *Dispatcher {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &Dispatcher{
		runner:     runner,
		runs:       runs,
		agentName:  agentName,
		queue:      make(chan *review.Input, defaultQueueSize),
		maxWorkers: maxWorkers,
	}
}

// Start launches the worker pool
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.ctx, d.cancel = context.WithCancel(ctx)
	d.mu.Unlock()

	for i := 0; i < d.maxWorkers; i++ {
		d.workerWg.Add(1)
		go d.worker(i)
	}

	logger.Info("dispatcher started", zap.Int("workers", d.maxWorkers))
}

// Stop cancels the workers and waits for in-flight runs to settle
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.mu.Unlock()

	d.cancel()
	d.workerWg.Wait()
	logger.Info("dispatcher stopped")
}

// Submit accepts a triggering event: it records the pending run and
// enqueues it for a worker. Returns the run id, or an error when the queue
// is full.
func (d *Dispatcher) Submit(ev *event.MergeRequestEvent) (string, error) {
	in := inputFromEvent(ev)

	record := &model.ReviewRun{
		RunID:        in.RunID,
		ProjectID:    in.ProjectID,
		ProjectPath:  ev.ProjectPath,
		MRIID:        in.MRIID,
		MRTitle:      in.Title,
		MRURL:        in.URL,
		SourceBranch: in.SourceBranch,
		TargetBranch: in.TargetBranch,
		HeadSHA:      ev.HeadSHA,
		AgentName:    d.agentName,
		Status:       model.RunStatusRunning,
		StartedAt:    time.Now(),
	}
	if err := d.runs.Create(record); err != nil {
		return "", err
	}

	select {
	case d.queue <- in:
		return in.RunID, nil
	default:
		record.Status = model.RunStatusFailed
		record.Error = "review queue is full"
		if err := d.runs.Update(record); err != nil {
			logger.Warn("failed to mark overflowed run", zap.Error(err))
		}
		return "", errors.New(errors.ErrCodeConflict, "review queue is full")
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.workerWg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return
		case in := <-d.queue:
			d.execute(in)
		}
	}
}

// execute runs one review and persists its outcome
func (d *Dispatcher) execute(in *review.Input) {
	log := logger.WithRun(in.RunID)
	start := time.Now()

	outcome, err := d.runner.Run(d.ctx, in)

	record, getErr := d.runs.GetByRunID(in.RunID)
	if getErr != nil {
		log.Warn("failed to load run record for update", zap.Error(getErr))
		return
	}

	now := time.Now()
	record.CompletedAt = &now
	record.DurationMs = time.Since(start).Milliseconds()

	if err != nil {
		record.Status = model.RunStatusFailed
		record.Error = err.Error()
		log.Error("review run failed", zap.Error(err))
	} else {
		record.Status = model.RunStatus(outcome.Status)
		record.CommentsPosted = outcome.CommentsPosted
		record.CommentsFailed = outcome.CommentsFailed
		log.Info("review run finished",
			zap.String("status", outcome.Status),
			zap.Int("posted", outcome.CommentsPosted),
			zap.Int("failed", outcome.CommentsFailed))
	}

	if err := d.runs.Update(record); err != nil {
		log.Warn("failed to persist run outcome", zap.Error(err))
	}
}

// inputFromEvent builds a pipeline input from an accepted webhook event
func inputFromEvent(ev *event.MergeRequestEvent) *review.Input {
	return &review.Input{
		RunID:        idgen.NewRunID(),
		ProjectID:    ev.ProjectID,
		MRIID:        ev.IID,
		Title:        ev.Title,
		Description:  ev.Description,
		SourceBranch: ev.SourceBranch,
		TargetBranch: ev.TargetBranch,
		URL:          ev.URL,
		CloneURL:     cloneURL(ev.ProjectURL),
	}
}

// cloneURL derives the HTTPS clone URL from the project's web URL
func cloneURL(projectURL string) string {
	if projectURL == "" {
		return ""
	}
	return strings.TrimSuffix(projectURL, "/") + ".git"
}
