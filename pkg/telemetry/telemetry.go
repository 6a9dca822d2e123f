// Package telemetry wires OpenTelemetry into the review service: one span
// tree per review run (see tracer.go) and counters/histograms for runs,
// checkouts, assistant invocations, and comment posting (see metrics.go).
// Traces go to an OTLP collector, metrics are scraped from a Prometheus
// endpoint; both are opt-in and everything degrades to no-ops when disabled.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.uber.org/zap"

	"github.com/mergewarden/mergewarden/consts"
	"github.com/mergewarden/mergewarden/pkg/logger"
)

const (
	// defaultContextTimeout bounds exporter setup; a collector that is down
	// must not stall server startup indefinitely
	defaultContextTimeout = 10 * time.Second
	// defaultHTTPTimeout applies to the /metrics scrape server
	defaultHTTPTimeout = 10 * time.Second
	// defaultPrometheusPort is separate from the API port so the scrape
	// endpoint can be firewalled independently of the webhook surface
	defaultPrometheusPort = 9090
)

// Config holds the telemetry configuration
type Config struct {
	// Enabled turns the whole subsystem on; when false, spans are no-ops
	// and GetMetrics() returns nil (the Record* methods tolerate that)
	Enabled bool `yaml:"enabled"`
	// ServiceName identifies this deployment in traces; defaults to the
	// mergewarden service name
	ServiceName string `yaml:"service_name"`
	// OTLP configures trace export
	OTLP OTLPConfig `yaml:"otlp"`
	// Prometheus configures the metrics scrape endpoint
	Prometheus PrometheusConfig `yaml:"prometheus"`
}

// OTLPConfig holds OTLP trace exporter configuration
type OTLPConfig struct {
	// Enabled enables OTLP trace export
	Enabled bool `yaml:"enabled"`
	// Endpoint is the collector's gRPC endpoint, e.g. "localhost:4317"
	Endpoint string `yaml:"endpoint"`
	// Insecure disables TLS for the collector connection
	Insecure bool `yaml:"insecure"`
}

// PrometheusConfig holds metrics endpoint configuration
type PrometheusConfig struct {
	// Enabled starts the /metrics HTTP server
	Enabled bool `yaml:"enabled"`
	// Port is where /metrics listens
	Port int `yaml:"port"`
}

// Telemetry owns the provider lifecycle. Create with New at startup,
// Shutdown before exit so batched spans flush.
type Telemetry struct {
	config         Config
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	metricsServer  *http.Server
}

// New creates the telemetry stack from configuration. A disabled config
// returns a usable instance whose Shutdown is a no-op.
func New(cfg Config) (*Telemetry, error) {
	if !cfg.Enabled {
		logger.Info("Telemetry is disabled")
		return &Telemetry{config: cfg}, nil
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = consts.ServiceName
	}
	if cfg.Prometheus.Port == 0 {
		cfg.Prometheus.Port = defaultPrometheusPort
	}

	t := &Telemetry{config: cfg}

	// resource.New rather than resource.Merge keeps us out of schema URL
	// conflicts between semconv versions pulled in by dependencies
	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if err := t.initTracerProvider(res); err != nil {
		return nil, fmt.Errorf("failed to initialize tracer provider: %w", err)
	}

	if err := t.initMeterProvider(res); err != nil {
		return nil, fmt.Errorf("failed to initialize meter provider: %w", err)
	}

	// W3C trace context + baggage, so run ids survive across the webhook
	// request into the background pipeline spans
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("Telemetry initialized",
		zap.String("service_name", cfg.ServiceName),
		zap.Bool("otlp_enabled", cfg.OTLP.Enabled),
		zap.Bool("prometheus_enabled", cfg.Prometheus.Enabled),
	)

	return t, nil
}

// initTracerProvider sets up the tracer provider, with an OTLP batcher
// when an exporter endpoint is configured
func (t *Telemetry) initTracerProvider(res *resource.Resource) error {
	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}

	if t.config.OTLP.Enabled && t.config.OTLP.Endpoint != "" {
		ctx, cancel := context.WithTimeout(context.Background(), defaultContextTimeout)
		defer cancel()

		exporterOpts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(t.config.OTLP.Endpoint),
		}
		if t.config.OTLP.Insecure {
			exporterOpts = append(exporterOpts, otlptracegrpc.WithInsecure())
		}

		exporter, err := otlptracegrpc.New(ctx, exporterOpts...)
		if err != nil {
			return fmt.Errorf("failed to create OTLP trace exporter: %w", err)
		}

		opts = append(opts, sdktrace.WithBatcher(exporter))
		logger.Info("OTLP trace exporter initialized", zap.String("endpoint", t.config.OTLP.Endpoint))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	t.tracerProvider = tp

	return nil
}

// initMeterProvider sets up the meter provider and, when enabled, the
// Prometheus scrape server the review metrics are read from
func (t *Telemetry) initMeterProvider(res *resource.Resource) error {
	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if t.config.Prometheus.Enabled {
		exporter, err := prometheus.New()
		if err != nil {
			return fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(exporter))

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())

		t.metricsServer = &http.Server{
			Addr:         fmt.Sprintf(":%d", t.config.Prometheus.Port),
			Handler:      mux,
			ReadTimeout:  defaultHTTPTimeout,
			WriteTimeout: defaultHTTPTimeout,
		}

		go func() {
			logger.Info("Starting Prometheus metrics server", zap.Int("port", t.config.Prometheus.Port))
			if err := t.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Prometheus metrics server error", zap.Error(err))
			}
		}()
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)
	t.meterProvider = mp

	return nil
}

// Shutdown flushes and stops the providers and the metrics server. Each
// component is shut down independently so one failure does not strand the
// others; errors are logged, not returned, since nothing can retry them
// at exit.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if !t.config.Enabled {
		return nil
	}

	logger.Info("Shutting down telemetry")

	if t.tracerProvider != nil {
		if err := t.tracerProvider.Shutdown(ctx); err != nil {
			logger.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}

	if t.meterProvider != nil {
		if err := t.meterProvider.Shutdown(ctx); err != nil {
			logger.Error("Failed to shutdown meter provider", zap.Error(err))
		}
	}

	if t.metricsServer != nil {
		if err := t.metricsServer.Shutdown(ctx); err != nil {
			logger.Error("Failed to shutdown metrics server", zap.Error(err))
		}
	}

	return nil
}

// IsEnabled returns whether telemetry is enabled
func (t *Telemetry) IsEnabled() bool {
	return t.config.Enabled
}
