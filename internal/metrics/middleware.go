package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// Route groups reported in the "group" label.
const (
	GroupItems   = "items"
	GroupSearch  = "search"
	GroupAdmin   = "admin"
	GroupHealth  = "health"
	GroupMetrics = "metrics"
	GroupOther   = "other"
)

// HTTP Prometheus metrics. Routes are chi patterns, so item ids never become label values.
var (
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds by route group.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"group", "method", "status_class"},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by route pattern and status code.",
		},
		[]string{"group", "method", "route", "status"},
	)
)

var httpMetricsRegistered bool

// RegisterHTTPMetrics registers the HTTP metrics. Must be called once from main.
func RegisterHTTPMetrics() {
	if httpMetricsRegistered {
		return
	}
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestsTotal)
	httpMetricsRegistered = true
}

// Middleware records request duration per route group and status class,
// and counts requests per route pattern and status code.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			route := routePattern(r)
			group := RouteGroup(route)

			HTTPRequestDuration.WithLabelValues(group, r.Method, StatusClass(ww.status)).
				Observe(time.Since(start).Seconds())
			HTTPRequestsTotal.WithLabelValues(group, r.Method, route, strconv.Itoa(ww.status)).Inc()
		})
	}
}

// routePattern is the matched chi pattern, or "unknown" for unrouted requests.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil || rctx.RoutePattern() == "" {
		return "unknown"
	}
	return rctx.RoutePattern()
}

// RouteGroup maps a route pattern to its API area.
func RouteGroup(route string) string {
	switch {
	case route == "/items/search":
		return GroupSearch
	case route == "/items" || strings.HasPrefix(route, "/items/"):
		return GroupItems
	case strings.HasPrefix(route, "/admin/"):
		return GroupAdmin
	case route == "/health" || strings.HasPrefix(route, "/health/"):
		return GroupHealth
	case route == "/metrics":
		return GroupMetrics
	default:
		return GroupOther
	}
}

// StatusClass renders a status code as "2xx", "4xx", etc.
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}

// statusWriter captures the response status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.wroteHeader = true
	}
	return w.ResponseWriter.Write(b) //nolint:wrapcheck // delegating to underlying ResponseWriter
}
