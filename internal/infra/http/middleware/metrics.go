package middleware

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	leadWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_writes_total",
			Help: "Lead create, update and delete attempts by result",
		},
		[]string{"op", "result"},
	)

	liveSubscriptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lead_live_subscriptions",
			Help: "Open live lead streams",
		},
	)

	subscriptionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lead_subscription_errors_total",
			Help: "Live subscriptions that ended with an error",
		},
	)

	cachedLeads = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "leads_cached",
			Help: "Leads in the latest server snapshot",
		},
	)

	alertsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_alerts_total",
			Help: "New lead alert emails by result",
		},
		[]string{"result"},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrade through.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Metrics labels requests by chi route pattern so ids do not explode the
// label space.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)
		path := routePattern(r)

		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func RecordLeadWrite(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	leadWrites.WithLabelValues(op, result).Inc()
}

func StreamOpened() { liveSubscriptions.Inc() }
func StreamClosed() { liveSubscriptions.Dec() }

func RecordSubscriptionError() {
	subscriptionErrors.Inc()
}

func SetCachedLeads(n int) {
	cachedLeads.Set(float64(n))
}

func RecordAlert(err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	alertsSent.WithLabelValues(result).Inc()
}
