// Package metrics exposes Prometheus collectors for the dispatch pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOK     = "ok"
	OutcomeDenied = "denied"
	OutcomeFailed = "failed"
)

// Callback route labels.
const (
	RoutePattern  = "pattern"
	RouteReplay   = "replay"
	RouteUnrouted = "unrouted"
)

// Metrics holds the bot collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Labels: kind (message|callback|other)
	Updates *prometheus.CounterVec
	// Labels: command (primary alias), outcome (ok|denied|failed)
	Commands *prometheus.CounterVec
	// Labels: route (pattern|replay|unrouted), outcome
	Callbacks *prometheus.CounterVec
	// Labels: reason
	Denials    *prometheus.CounterVec
	LoadErrors prometheus.Counter
	// Labels: command
	HandlerDuration *prometheus.HistogramVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		Updates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cmdbot_updates_total",
			Help: "Inbound Telegram updates by kind",
		}, []string{"kind"}),
		Commands: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cmdbot_commands_total",
			Help: "Command invocations by primary alias and outcome",
		}, []string{"command", "outcome"}),
		Callbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cmdbot_callbacks_total",
			Help: "Callback queries by route and outcome",
		}, []string{"route", "outcome"}),
		Denials: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cmdbot_denials_total",
			Help: "Permission denials by reason",
		}, []string{"reason"}),
		LoadErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "cmdbot_command_load_errors_total",
			Help: "Command modules that failed to load",
		}),
		HandlerDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cmdbot_handler_duration_seconds",
			Help:    "Handler run time in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"command"}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Update counts one inbound update of the given kind.
func (m *Metrics) Update(kind string) {
	if m == nil {
		return
	}
	m.Updates.WithLabelValues(kind).Inc()
}

// Command counts a command outcome. Denied commands never ran, so no
// duration is observed for them.
func (m *Metrics) Command(command, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(command, outcome).Inc()
	if outcome != OutcomeDenied {
		m.HandlerDuration.WithLabelValues(command).Observe(took.Seconds())
	}
}

// Callback counts a callback query by route and outcome.
func (m *Metrics) Callback(route, outcome string) {
	if m == nil {
		return
	}
	m.Callbacks.WithLabelValues(route, outcome).Inc()
}

// Denied counts a permission denial by reason.
func (m *Metrics) Denied(reason string) {
	if m == nil {
		return
	}
	m.Denials.WithLabelValues(reason).Inc()
}

// LoadFailed adds n command modules that failed to load.
func (m *Metrics) LoadFailed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.LoadErrors.Add(float64(n))
}
