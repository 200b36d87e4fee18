package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/example/turnos/internal/booking"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "turnos"

// Collector owns its registry so several servers (and tests) can coexist in
// one process. It implements booking.Observer.
type Collector struct {
	reg *prometheus.Registry

	decisions      *prometheus.CounterVec
	remoteFailures *prometheus.CounterVec
	logins         *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

func New() *Collector {
	c := &Collector{
		reg: prometheus.NewRegistry(),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_decisions_total",
			Help:      "Booking attempts by outcome and rejection reason.",
		}, []string{"outcome", "reason"}),
		remoteFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_failures_total",
			Help:      "Failed calls to the appointment store by operation.",
		}, []string{"op"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_logins_total",
			Help:      "Admin login attempts by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	c.reg.MustRegister(
		c.decisions,
		c.remoteFailures,
		c.logins,
		c.httpRequests,
		c.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Decided(d booking.Decision) {
	if d.Accepted {
		c.decisions.WithLabelValues("accepted", "none").Inc()
		return
	}
	c.decisions.WithLabelValues("rejected", string(d.Reason)).Inc()
}

func (c *Collector) RemoteFailed(op string) {
	c.remoteFailures.WithLabelValues(op).Inc()
}

// Login records an admin login attempt; result is "ok", "denied" or "limited".
func (c *Collector) Login(result string) {
	c.logins.WithLabelValues(result).Inc()
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

// Instrument counts and times requests to h under a fixed route label.
func (c *Collector) Instrument(route string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(sw, r)
		c.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(sw.status)).Inc()
		c.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
