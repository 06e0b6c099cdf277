// Package telemetry provides OpenTelemetry instrumentation for the ticket
// classifier service. It exports Prometheus metrics and provides tracing
// capabilities.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "ticket-classifier"

// Metrics holds all classifier Prometheus metrics.
type Metrics struct {
	// Run metrics
	RunsTotal   *prometheus.CounterVec
	RunDuration prometheus.Histogram
	RunSize     prometheus.Histogram

	// Per-ticket metrics
	TicketsClassified        *prometheus.CounterVec
	ClassificationConfidence prometheus.Histogram
	RuleMatchDuration        prometheus.Histogram

	// Insights metrics
	InsightsRequests *prometheus.CounterVec
}

// Provider wraps telemetry providers.
type Provider struct {
	Tracer  trace.Tracer
	Metrics *Metrics
}

// NewProvider initializes telemetry with Prometheus metrics.
func NewProvider() *Provider {
	return &Provider{
		Tracer:  otel.Tracer(serviceName),
		Metrics: initMetrics(),
	}
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (p *Provider) Handler() http.Handler {
	return promhttp.Handler()
}

func initMetrics() *Metrics {
	return &Metrics{
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ticket_classifier_runs_total",
			Help: "Total classification runs by outcome (success, empty, error)",
		}, []string{"status", "engine"}),

		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ticket_classifier_run_duration_seconds",
			Help:    "Wall time of a full classification run",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		}),

		RunSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ticket_classifier_run_size",
			Help:    "Number of tickets per run",
			Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000, 10000},
		}),

		TicketsClassified: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ticket_classifier_tickets_classified_total",
			Help: "Total tickets classified by category",
		}, []string{"category"}),

		ClassificationConfidence: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ticket_classifier_confidence",
			Help:    "Confidence distribution of per-ticket classifications",
			Buckets: []float64{0.3, 0.5, 0.6, 0.65, 0.7, 0.75, 0.8, 0.85, 0.9, 1.0},
		}),

		RuleMatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ticket_classifier_rule_match_duration_seconds",
			Help:    "Time spent in keyword matching (Aho-Corasick)",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),

		InsightsRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ticket_classifier_insights_requests_total",
			Help: "Narrative insight generations by outcome (ok, fallback)",
		}, []string{"status"}),
	}
}

// RecordRun records the outcome and duration of one classification run.
func (p *Provider) RecordRun(ctx context.Context, status, engine string, size int, duration time.Duration) {
	p.Metrics.RunsTotal.WithLabelValues(status, engine).Inc()
	p.Metrics.RunDuration.Observe(duration.Seconds())
	p.Metrics.RunSize.Observe(float64(size))
}

// RecordTicket records one per-ticket classification.
func (p *Provider) RecordTicket(ctx context.Context, category string, confidence float64) {
	p.Metrics.TicketsClassified.WithLabelValues(category).Inc()
	p.Metrics.ClassificationConfidence.Observe(confidence)
}

// RecordRuleMatch records the keyword-scan duration.
func (p *Provider) RecordRuleMatch(ctx context.Context, duration time.Duration) {
	p.Metrics.RuleMatchDuration.Observe(duration.Seconds())
}

// RecordInsights records one narrative-insight generation.
func (p *Provider) RecordInsights(ctx context.Context, status string) {
	p.Metrics.InsightsRequests.WithLabelValues(status).Inc()
}

// StartSpan starts a new trace span. The caller is responsible for ending
// the span with span.End().
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return p.Tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
