package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder collects service metrics into its own registry.
type Recorder struct {
	registry *prometheus.Registry

	ordersCreated   *prometheus.CounterVec
	ordersSettled   *prometheus.CounterVec
	gatewayRequests *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec
	accessDenied    *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New creates a Recorder whose metric names are prefixed with namespace.
// Go runtime and process collectors are registered alongside.
func New(namespace string) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		ordersCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_created_total",
				Help:      "Orders registered with the payment gateway, by plan.",
			},
			[]string{"plan"},
		),
		ordersSettled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_verified_total",
				Help:      "Orders moved to a terminal status, by result.",
			},
			[]string{"result"},
		),
		gatewayRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gateway_requests_total",
				Help:      "Payment gateway calls by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		gatewayDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "gateway_request_duration_seconds",
				Help:      "Payment gateway call latency.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"operation"},
		),
		accessDenied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "access_denied_total",
				Help:      "Requests refused by the access gate, by reason.",
			},
			[]string{"reason"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by method, route and status.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency by method and route.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.ordersCreated,
		r.ordersSettled,
		r.gatewayRequests,
		r.gatewayDuration,
		r.accessDenied,
		r.httpRequests,
		r.httpDuration,
	)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) OrderCreated(plan string) {
	r.ordersCreated.WithLabelValues(orUnknown(plan)).Inc()
}

func (r *Recorder) OrderSettled(result string) {
	r.ordersSettled.WithLabelValues(orUnknown(result)).Inc()
}

func (r *Recorder) GatewayCall(operation, outcome string, d time.Duration) {
	r.gatewayRequests.WithLabelValues(operation, outcome).Inc()
	r.gatewayDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// AccessDenied counts a gate refusal.
func (r *Recorder) AccessDenied(reason string) {
	r.accessDenied.WithLabelValues(orUnknown(reason)).Inc()
}

// RouteFunc returns the route pattern a request matched, used as a
// low-cardinality label. An empty result is recorded as "unmatched".
type RouteFunc func(*http.Request) string

// Middleware records request counts and latency.
func (r *Recorder) Middleware(route RouteFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, req)

			pattern := "unmatched"
			if route != nil {
				if p := route(req); p != "" {
					pattern = p
				}
			}
			r.httpRequests.WithLabelValues(req.Method, pattern, strconv.Itoa(sw.status)).Inc()
			r.httpDuration.WithLabelValues(req.Method, pattern).Observe(time.Since(start).Seconds())
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
