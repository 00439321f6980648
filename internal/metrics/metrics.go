package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	backtestsTotal       *prometheus.CounterVec
	backtestDuration     prometheus.Histogram
	fetchRequestsTotal   *prometheus.CounterVec
	cacheEventsTotal     *prometheus.CounterVec
	advisorRequestsTotal *prometheus.CounterVec
	jobsActive           *prometheus.GaugeVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.backtestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vega_backtests_total",
			Help: "Total number of backtest runs",
		},
		[]string{"strategy", "status"},
	)
	r.backtestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vega_backtest_duration_seconds",
			Help:    "Backtest run duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)
	r.fetchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vega_fetch_requests_total",
			Help: "Total number of market data fetch attempts",
		},
		[]string{"source", "status"},
	)
	r.cacheEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vega_cache_events_total",
			Help: "Total number of bar cache events",
		},
		[]string{"event"},
	)
	r.advisorRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vega_advisor_requests_total",
			Help: "Total number of advisor commentary requests",
		},
		[]string{"provider", "status"},
	)
	r.jobsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vega_jobs_active",
			Help: "Number of active jobs",
		},
		[]string{"type"},
	)

	reg.MustRegister(r.backtestsTotal)
	reg.MustRegister(r.backtestDuration)
	reg.MustRegister(r.fetchRequestsTotal)
	reg.MustRegister(r.cacheEventsTotal)
	reg.MustRegister(r.advisorRequestsTotal)
	reg.MustRegister(r.jobsActive)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// ObserveRun records a finished backtest run.
func (r *Registry) ObserveRun(strategy, status string, seconds float64) {
	r.backtestsTotal.WithLabelValues(strategy, status).Inc()
	r.backtestDuration.Observe(seconds)
}

// ObserveCacheEvent records a bar cache event such as a hit or a miss.
func (r *Registry) ObserveCacheEvent(event string) {
	r.cacheEventsTotal.WithLabelValues(event).Inc()
}

// ObserveFetch records a market data fetch attempt against a source.
func (r *Registry) ObserveFetch(source, status string) {
	r.fetchRequestsTotal.WithLabelValues(source, status).Inc()
}

// ObserveAdvisorRequest records an advisor commentary request.
func (r *Registry) ObserveAdvisorRequest(provider, status string) {
	r.advisorRequestsTotal.WithLabelValues(provider, status).Inc()
}

// SetJobsActive sets the number of active jobs of a type.
func (r *Registry) SetJobsActive(jobType string, count int) {
	r.jobsActive.WithLabelValues(jobType).Set(float64(count))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
