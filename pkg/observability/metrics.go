package observability

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aretw0/vozgraph/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors exported by vozgraph.
type Metrics struct {
	registry *prometheus.Registry

	Commands      *prometheus.CounterVec
	Resets        prometheus.Counter
	AutomatonSize prometheus.Histogram
	HTTPDurations *prometheus.HistogramVec
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vozgraph_commands_total",
				Help: "Total number of commands processed, by category and validity",
			},
			[]string{"event", "category", "valid"},
		),
		Resets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vozgraph_session_resets_total",
			Help: "Total number of session history resets",
		}),
		AutomatonSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vozgraph_automaton_states",
			Help:    "Number of states in built automata",
			Buckets: prometheus.LinearBuckets(1, 4, 8),
		}),
		HTTPDurations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "vozgraph_http_request_duration_seconds",
				Help: "Duration of HTTP requests",
			},
			[]string{"route", "code"},
		),
	}
	m.registry.MustRegister(m.Commands, m.Resets, m.AutomatonSize, m.HTTPDurations)
	return m
}

// Registry exposes the registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAutomaton records the size of a built automaton.
func (m *Metrics) ObserveAutomaton(a *domain.Automaton) {
	m.AutomatonSize.Observe(float64(len(a.States)))
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	count := func(e *domain.CommandEvent) {
		m.Commands.WithLabelValues(string(e.Type), e.Category.String(), strconv.FormatBool(e.Valid)).Inc()
	}
	return domain.LifecycleHooks{
		OnAnalyze: func(_ context.Context, e *domain.CommandEvent) { count(e) },
		OnRecord:  func(_ context.Context, e *domain.CommandEvent) { count(e) },
		OnReset:   func(context.Context, string) { m.Resets.Inc() },
	}
}
