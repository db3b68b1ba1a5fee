package observability

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Auth metrics
	AuthFailuresTotal  *prometheus.CounterVec
	LoginAttemptsTotal *prometheus.CounterVec
	RegistrationsTotal *prometheus.CounterVec

	// Store metrics
	StoreOperationDuration *prometheus.HistogramVec
	StoreErrorsTotal       *prometheus.CounterVec

	registry       *prometheus.Registry
	expectedErrors []error
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "warden_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "warden_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(64, 4, 8),
			},
			[]string{"method", "route"},
		),

		AuthFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_auth_failures_total",
				Help: "Rejected bearer credentials by reason",
			},
			[]string{"reason"},
		),
		LoginAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_login_attempts_total",
				Help: "Login attempts by result",
			},
			[]string{"result"},
		),
		RegistrationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_registrations_total",
				Help: "Account registrations by role",
			},
			[]string{"role"},
		),

		StoreOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "warden_store_operation_duration_seconds",
				Help:    "Credential store operation duration in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation", "backend"},
		),
		StoreErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_store_errors_total",
				Help: "Credential store operations that returned an error",
			},
			[]string{"operation", "backend", "error_type"},
		),

		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.AuthFailuresTotal,
		m.LoginAttemptsTotal,
		m.RegistrationsTotal,
		m.StoreOperationDuration,
		m.StoreErrorsTotal,
	)

	return m
}

// SetExpectedStoreErrors marks store errors that are ordinary results (not found,
// duplicate) so they are labelled "expected" rather than "failure".
// Call before serving traffic.
func (m *Metrics) SetExpectedStoreErrors(errs ...error) {
	m.expectedErrors = append([]error(nil), errs...)
}

// ObserveStoreOperation records one store call
func (m *Metrics) ObserveStoreOperation(operation, backend string, duration time.Duration, err error) {
	m.StoreOperationDuration.WithLabelValues(operation, backend).Observe(duration.Seconds())
	if err == nil {
		return
	}
	m.StoreErrorsTotal.WithLabelValues(operation, backend, m.errorType(err)).Inc()
}

func (m *Metrics) errorType(err error) string {
	for _, target := range m.expectedErrors {
		if errors.Is(err, target) {
			return "expected"
		}
	}
	return "failure"
}

// RegisterCacheCounters exposes user cache counters read from stats on every scrape
func (m *Metrics) RegisterCacheCounters(stats func() (hits, redisHits, misses int64)) {
	for _, c := range []struct {
		result string
		pick   func(h, r, mi int64) int64
	}{
		{"hit", func(h, _, _ int64) int64 { return h }},
		{"redis_hit", func(_, r, _ int64) int64 { return r }},
		{"miss", func(_, _, mi int64) int64 { return mi }},
	} {
		pick := c.pick
		m.registry.MustRegister(prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Name:        "warden_user_cache_lookups_total",
				Help:        "User cache lookups by result",
				ConstLabels: prometheus.Labels{"result": c.result},
			},
			func() float64 { return float64(pick(stats())) },
		))
	}
}

// RecordAuthFailure counts a rejected bearer credential
func (m *Metrics) RecordAuthFailure(reason string) {
	m.AuthFailuresTotal.WithLabelValues(reason).Inc()
}

// RecordLogin counts a login attempt
func (m *Metrics) RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	m.LoginAttemptsTotal.WithLabelValues(result).Inc()
}

// RecordRegistration counts a new account
func (m *Metrics) RecordRegistration(role string) {
	m.RegistrationsTotal.WithLabelValues(role).Inc()
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// routeLabel returns the mux route template so ids do not explode label cardinality
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			route := routeLabel(r)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
			metrics.HTTPResponseSize.WithLabelValues(r.Method, route).Observe(float64(rw.bytesWritten))
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
