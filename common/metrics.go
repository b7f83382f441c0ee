package common

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts API calls and cache behaviour. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Requests      *prometheus.CounterVec
	CacheHits     *prometheus.CounterVec
	CacheMisses   *prometheus.CounterVec
	Invalidations prometheus.Counter
}

// NewMetrics creates the counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bcards",
			Name:      "api_requests_total",
			Help:      "API requests by method and status class.",
		}, []string{"method", "status"}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bcards",
			Name:      "cache_hits_total",
			Help:      "Card list reads served from cache.",
		}, []string{"slot"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bcards",
			Name:      "cache_misses_total",
			Help:      "Card list reads that went to the network.",
		}, []string{"slot"}),
		Invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bcards",
			Name:      "cache_invalidations_total",
			Help:      "Times both card cache slots were cleared.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Requests, m.CacheHits, m.CacheMisses, m.Invalidations)
	}
	return m
}

func (m *Metrics) observeRequest(method string, status int) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, statusClass(status)).Inc()
}

// CacheHit records a read served from slot.
func (m *Metrics) CacheHit(slot string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(slot).Inc()
}

// CacheMiss records a read of slot that required a fetch.
func (m *Metrics) CacheMiss(slot string) {
	if m == nil {
		return
	}
	m.CacheMisses.WithLabelValues(slot).Inc()
}

// Invalidated records a full cache clear.
func (m *Metrics) Invalidated() {
	if m == nil {
		return
	}
	m.Invalidations.Inc()
}

func statusClass(status int) string {
	if status == 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}
