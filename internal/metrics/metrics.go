package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeEmpty   = "no_results"
)

type Metrics struct {
	EmailsFetched prometheus.Counter
	EmailsStored  prometheus.Counter
	EmailsDropped prometheus.Counter
	FetchRequests *prometheus.CounterVec

	Searches      prometheus.Counter
	SearchResults prometheus.Histogram

	Questions  *prometheus.CounterVec
	LLMLatency prometheus.Histogram

	ActiveSessions prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New registers the service metrics with reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not collide.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EmailsFetched: factory.NewCounter(prometheus.CounterOpts{
			Name: "mailqa_emails_fetched_total",
			Help: "Raw mail records returned by the mail provider",
		}),
		EmailsStored: factory.NewCounter(prometheus.CounterOpts{
			Name: "mailqa_emails_stored_total",
			Help: "Normalized emails placed in a session store",
		}),
		EmailsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "mailqa_emails_dropped_total",
			Help: "Mail records dropped during normalization",
		}),
		FetchRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mailqa_fetch_requests_total",
			Help: "Fetch-by-date requests by outcome",
		}, []string{"outcome"}),
		Searches: factory.NewCounter(prometheus.CounterOpts{
			Name: "mailqa_searches_total",
			Help: "Store searches performed",
		}),
		SearchResults: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mailqa_search_results",
			Help:    "Number of results returned per search",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
		}),
		Questions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mailqa_questions_total",
			Help: "Questions answered by outcome",
		}, []string{"outcome"}),
		LLMLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mailqa_llm_request_duration_seconds",
			Help:    "LLM completion latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mailqa_active_sessions",
			Help: "Signed-in sessions holding a mail store",
		}),
		gatherer: reg,
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
