package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry    *prometheus.Registry
	httpReqCnt  *prometheus.CounterVec
	httpDur     *prometheus.HistogramVec
	httpInfl    *prometheus.GaugeVec
	transitions *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	r := prometheus.NewRegistry()
	r.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.MustRegister(collectors.NewGoCollector())

	httpReqCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total"}, []string{"method", "route", "status"})
	httpDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: "http_request_duration_seconds", Buckets: prometheus.DefBuckets}, []string{"method", "route", "status"})
	httpInfl := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: "http_requests_inflight"}, []string{"route"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "booking_transitions_total"}, []string{"event"})
	r.MustRegister(httpReqCnt, httpDur, httpInfl, transitions)

	return &Metrics{
		registry:    r,
		httpReqCnt:  httpReqCnt,
		httpDur:     httpDur,
		httpInfl:    httpInfl,
		transitions: transitions,
	}
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpInfl.WithLabelValues(route).Inc()
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		m.httpReqCnt.WithLabelValues(c.Request.Method, route, status).Inc()
		m.httpDur.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpInfl.WithLabelValues(route).Dec()
	}
}

// ObserveTransition counts a committed booking lifecycle event.
func (m *Metrics) ObserveTransition(event string) {
	m.transitions.WithLabelValues(event).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
