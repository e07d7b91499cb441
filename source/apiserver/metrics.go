package apiserver

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vamseeds/k8sedit/model/resource"
)

const metricsNamespace = "k8sedit"

// Metrics records informer and remote store activity. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	waitDuration *prometheus.HistogramVec
	waitTimeouts *prometheus.CounterVec
	remoteErrors *prometheus.CounterVec
	cacheEvents  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		waitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "informer",
			Name:      "wait_seconds",
			Help:      "Time spent waiting for an informer to sync or to establish its watch.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 30},
		}, []string{"kind", "phase"}),
		waitTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "informer",
			Name:      "timeouts_total",
			Help:      "Number of bounded waits that did not observe readiness in time.",
		}, []string{"kind", "phase"}),
		remoteErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "remote_store",
			Name:      "errors_total",
			Help:      "Number of failed calls against the remote store.",
		}, []string{"kind", "op"}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "events_total",
			Help:      "Number of watch events applied to the local cache.",
		}, []string{"kind", "operation"}),
	}
	if reg != nil {
		reg.MustRegister(m.waitDuration, m.waitTimeouts, m.remoteErrors, m.cacheEvents)
	}
	return m
}

func (m *Metrics) observeWait(kind string, phase resource.Phase, d time.Duration) {
	if m == nil {
		return
	}
	m.waitDuration.WithLabelValues(kind, string(phase)).Observe(d.Seconds())
}

func (m *Metrics) incTimeout(kind string, phase resource.Phase) {
	if m == nil {
		return
	}
	m.waitTimeouts.WithLabelValues(kind, string(phase)).Inc()
}

func (m *Metrics) incRemoteError(kind, op string) {
	if m == nil {
		return
	}
	m.remoteErrors.WithLabelValues(kind, op).Inc()
}

func (m *Metrics) incCacheEvent(kind string, op resource.ResOperation) {
	if m == nil {
		return
	}
	m.cacheEvents.WithLabelValues(kind, op.String()).Inc()
}
