// Package metrics provides Prometheus-based metrics recording for guided workflows.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder receives engine observations.
type Recorder interface {
	ObserveTurn(classification, responseKind string, duration time.Duration)
	IncWorkflow(event string)
	IncInterruption(action string)
	ObserveGeneration(provider string, success bool, errorType string, duration time.Duration)
	SetActiveWorkflows(count int)
}

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	turnsTotal         *prometheus.CounterVec
	turnDuration       *prometheus.HistogramVec
	workflowsTotal     *prometheus.CounterVec
	interruptionsTotal *prometheus.CounterVec
	generationTotal    *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	activeWorkflows    prometheus.Gauge
}

// NewPrometheusRecorder registers the collectors on reg.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		turnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "safehands_turns_total",
				Help: "Total number of processed conversation turns by classification and response kind",
			},
			[]string{"classification", "response_kind"},
		),
		turnDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "safehands_turn_duration_seconds",
				Help:    "Duration of conversation turns in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"classification"},
		),
		workflowsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "safehands_workflows_total",
				Help: "Workflow lifecycle transitions (started, advanced, completed, cleared)",
			},
			[]string{"event"},
		),
		interruptionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "safehands_interruptions_total",
				Help: "Interruption records raised and acknowledged",
			},
			[]string{"action"},
		),
		generationTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "safehands_generation_requests_total",
				Help: "Text generation requests by provider and status",
			},
			[]string{"provider", "status", "error_type"},
		),
		generationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "safehands_generation_duration_seconds",
				Help:    "Duration of text generation requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		activeWorkflows: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "safehands_active_workflows",
				Help: "Number of sessions with an active workflow at the last sample",
			},
		),
	}
}

func (p *PrometheusRecorder) ObserveTurn(classification, responseKind string, duration time.Duration) {
	p.turnsTotal.WithLabelValues(classification, responseKind).Inc()
	p.turnDuration.WithLabelValues(classification).Observe(duration.Seconds())
}

func (p *PrometheusRecorder) IncWorkflow(event string) {
	p.workflowsTotal.WithLabelValues(event).Inc()
}

func (p *PrometheusRecorder) IncInterruption(action string) {
	p.interruptionsTotal.WithLabelValues(action).Inc()
}

func (p *PrometheusRecorder) ObserveGeneration(provider string, success bool, errorType string, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}

	p.generationTotal.WithLabelValues(provider, status, errorType).Inc()
	p.generationDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func (p *PrometheusRecorder) SetActiveWorkflows(count int) {
	p.activeWorkflows.Set(float64(count))
}

// Noop discards every observation.
type Noop struct{}

func (Noop) ObserveTurn(string, string, time.Duration) {}
func (Noop) IncWorkflow(string) {}
func (Noop) IncInterruption(string) {}
func (Noop) ObserveGeneration(string, bool, string, time.Duration) {}
func (Noop) SetActiveWorkflows(int) {}
