// Package telemetry provides OpenTelemetry integration for the application.
package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/mergewarden/mergewarden/pkg/logger"
)

const (
	// MeterName is the default meter name for the application
	MeterName = "github.com/mergewarden/mergewarden"
)

// Metrics holds all application metrics
type Metrics struct {
	// Review run metrics
	RunsTotal    metric.Int64Counter
	RunDuration  metric.Float64Histogram
	ActiveRuns   metric.Int64UpDownCounter
	RunsByStatus metric.Int64Counter

	// Comment posting metrics
	CommentsPosted metric.Int64Counter
	CommentsFailed metric.Int64Counter

	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram

	// Assistant metrics
	AgentExecutionsTotal metric.Int64Counter
	AgentExecutionErrors metric.Int64Counter

	// Checkout metrics
	CheckoutTotal    metric.Int64Counter
	CheckoutDuration metric.Float64Histogram
}

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// GetMetrics returns the global metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		var err error
		globalMetrics, err = initMetrics()
		if err != nil {
			logger.Error("Failed to initialize metrics", zap.Error(err))
			// Return empty metrics to avoid nil pointer
			globalMetrics = &Metrics{}
		}
	})
	return globalMetrics
}

// initMetrics initializes all application metrics
func initMetrics() (*Metrics, error) {
	meter := otel.Meter(MeterName)
	m := &Metrics{}

	var err error

	m.RunsTotal, err = meter.Int64Counter(
		"mergewarden_runs_total",
		metric.WithDescription("Total number of review runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	m.RunDuration, err = meter.Float64Histogram(
		"mergewarden_run_duration_seconds",
		metric.WithDescription("Duration of review runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 30, 60, 120, 300, 600, 1800),
	)
	if err != nil {
		return nil, err
	}

	m.ActiveRuns, err = meter.Int64UpDownCounter(
		"mergewarden_active_runs",
		metric.WithDescription("Number of currently active review runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	m.RunsByStatus, err = meter.Int64Counter(
		"mergewarden_runs_by_status_total",
		metric.WithDescription("Total number of review runs by terminal status"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	m.CommentsPosted, err = meter.Int64Counter(
		"mergewarden_comments_posted_total",
		metric.WithDescription("Total number of review comments posted"),
		metric.WithUnit("{comment}"),
	)
	if err != nil {
		return nil, err
	}

	m.CommentsFailed, err = meter.Int64Counter(
		"mergewarden_comments_failed_total",
		metric.WithDescription("Total number of review comments that could not be posted"),
		metric.WithUnit("{comment}"),
	)
	if err != nil {
		return nil, err
	}

	m.HTTPRequestsTotal, err = meter.Int64Counter(
		"mergewarden_http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"mergewarden_http_request_duration_seconds",
		metric.WithDescription("Duration of HTTP requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, err
	}

	m.AgentExecutionsTotal, err = meter.Int64Counter(
		"mergewarden_agent_executions_total",
		metric.WithDescription("Total number of assistant executions"),
		metric.WithUnit("{execution}"),
	)
	if err != nil {
		return nil, err
	}

	m.AgentExecutionErrors, err = meter.Int64Counter(
		"mergewarden_agent_execution_errors_total",
		metric.WithDescription("Total number of assistant execution errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	m.CheckoutTotal, err = meter.Int64Counter(
		"mergewarden_checkout_total",
		metric.WithDescription("Total number of source checkout operations"),
		metric.WithUnit("{checkout}"),
	)
	if err != nil {
		return nil, err
	}

	m.CheckoutDuration, err = meter.Float64Histogram(
		"mergewarden_checkout_duration_seconds",
		metric.WithDescription("Duration of source checkout operations in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("Metrics initialized successfully")
	return m, nil
}

// RecordRunStarted records that a review run has started
func (m *Metrics) RecordRunStarted(ctx context.Context, agent string) {
	if m.RunsTotal == nil {
		return
	}
	m.RunsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("agent", agent)),
	)
	if m.ActiveRuns != nil {
		m.ActiveRuns.Add(ctx, 1)
	}
}

// RecordRunCompleted records that a review run has reached a terminal state
func (m *Metrics) RecordRunCompleted(ctx context.Context, status string, durationSeconds float64) {
	if m.ActiveRuns != nil {
		m.ActiveRuns.Add(ctx, -1)
	}
	if m.RunsByStatus != nil {
		m.RunsByStatus.Add(ctx, 1,
			metric.WithAttributes(attribute.String("status", status)),
		)
	}
	if m.RunDuration != nil {
		m.RunDuration.Record(ctx, durationSeconds,
			metric.WithAttributes(attribute.String("status", status)),
		)
	}
}

// RecordCommentsPosted records the posting outcome of a run
func (m *Metrics) RecordCommentsPosted(ctx context.Context, posted, failed int64) {
	if m.CommentsPosted != nil && posted > 0 {
		m.CommentsPosted.Add(ctx, posted)
	}
	if m.CommentsFailed != nil && failed > 0 {
		m.CommentsFailed.Add(ctx, failed)
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, durationSeconds float64) {
	if m.HTTPRequestsTotal != nil {
		m.HTTPRequestsTotal.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("method", method),
				attribute.String("path", path),
				attribute.Int("status_code", statusCode),
			),
		)
	}
	if m.HTTPRequestDuration != nil {
		m.HTTPRequestDuration.Record(ctx, durationSeconds,
			metric.WithAttributes(
				attribute.String("method", method),
				attribute.String("path", path),
			),
		)
	}
}

// RecordAgentExecution records an assistant execution
func (m *Metrics) RecordAgentExecution(ctx context.Context, agentName string, success bool) {
	if m.AgentExecutionsTotal != nil {
		m.AgentExecutionsTotal.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("agent.name", agentName),
				attribute.Bool("success", success),
			),
		)
	}
	if !success && m.AgentExecutionErrors != nil {
		m.AgentExecutionErrors.Add(ctx, 1,
			metric.WithAttributes(attribute.String("agent.name", agentName)),
		)
	}
}

// RecordCheckout records a source checkout operation
func (m *Metrics) RecordCheckout(ctx context.Context, success bool, durationSeconds float64) {
	if m.CheckoutTotal != nil {
		m.CheckoutTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.Bool("success", success)),
		)
	}
	if m.CheckoutDuration != nil {
		m.CheckoutDuration.Record(ctx, durationSeconds,
			metric.WithAttributes(attribute.Bool("success", success)),
		)
	}
}
