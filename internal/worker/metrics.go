package worker

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "dealwatch"

// Metrics are the poller's prometheus collectors.
type Metrics struct {
	cycles        prometheus.Counter
	cycleDuration prometheus.Histogram
	dealsSeen     *prometheus.GaugeVec
	events        *prometheus.CounterVec
	fetchErrors   *prometheus.CounterVec
	sendErrors    *prometheus.CounterVec
	evicted       prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "poll_cycles_total",
			Help:      "Number of completed poll cycles.",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "poll_cycle_duration_seconds",
			Help:      "Duration of a poll cycle including notification delivery.",
			Buckets:   prometheus.DefBuckets,
		}),
		dealsSeen: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "deals_in_snapshot",
			Help:      "Number of deals in the last snapshot of a scope.",
		}, []string{"scope"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_total",
			Help:      "Lifecycle events emitted by the tracker.",
		}, []string{"kind"}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "fetch_errors_total",
			Help:      "Failed snapshot fetches.",
		}, []string{"scope", "code"}),
		sendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "send_errors_total",
			Help:      "Notifications that could not be delivered.",
		}, []string{"kind"}),
		evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "deal_states_evicted_total",
			Help:      "Deal states dropped after retention.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.cycles,
			m.cycleDuration,
			m.dealsSeen,
			m.events,
			m.fetchErrors,
			m.sendErrors,
			m.evicted,
		)
	}

	return m
}
