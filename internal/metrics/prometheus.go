package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Explanation outcomes
const (
	ExplainOK                = "ok"
	ExplainMissingCredential = "missing_credential"
	ExplainError             = "error"
)

// Metrics holds the dashboard's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	verdicts       *prometheus.CounterVec
	analysisErrors *prometheus.CounterVec
	explanations   *prometheus.CounterVec
	explainLatency prometheus.Histogram
	datasetRecords prometheus.Gauge
	wsClients      prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowdash_verdicts_total",
			Help: "Scored flow records by verdict label.",
		}, []string{"label"}),
		analysisErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowdash_analysis_errors_total",
			Help: "Failed analyze interactions by error kind.",
		}, []string{"kind"}),
		explanations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowdash_explanations_total",
			Help: "Explanation requests by outcome.",
		}, []string{"outcome"}),
		explainLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "flowdash_explain_latency_seconds",
			Help:    "Latency of chat-completion calls.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		datasetRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flowdash_dataset_records",
			Help: "Records in the most recently loaded dataset slice.",
		}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flowdash_websocket_clients",
			Help: "Connected websocket clients.",
		}),
	}

	m.registry.MustRegister(
		m.verdicts,
		m.analysisErrors,
		m.explanations,
		m.explainLatency,
		m.datasetRecords,
		m.wsClients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveVerdict(label string) {
	m.verdicts.WithLabelValues(label).Inc()
}

func (m *Metrics) ObserveAnalysisError(kind string) {
	m.analysisErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveExplanation(outcome string, seconds float64) {
	m.explanations.WithLabelValues(outcome).Inc()
	if outcome != ExplainMissingCredential {
		m.explainLatency.Observe(seconds)
	}
}

func (m *Metrics) SetDatasetRecords(n int) {
	m.datasetRecords.Set(float64(n))
}

func (m *Metrics) SetWebsocketClients(n int) {
	m.wsClients.Set(float64(n))
}
