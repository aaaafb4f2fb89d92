package service

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gitlab.com/distributed_lab/logan/v3"
)

type metrics struct {
	registry    *prometheus.Registry
	cycles      *prometheus.CounterVec
	transitions *prometheus.CounterVec
	approvals   prometheus.Counter
	lastSettled prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mint_cycles_total",
			Help: "Finished cycles by outcome",
		}, []string{"outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mint_state_transitions_total",
			Help: "Entries into each lifecycle state",
		}, []string{"state"}),
		approvals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mint_approvals_total",
			Help: "Approval transactions confirmed",
		}),
		lastSettled: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mint_last_settled_timestamp_seconds",
			Help: "Unix time of the last order accepted for settlement",
		}),
	}
	m.registry.MustRegister(
		m.cycles,
		m.transitions,
		m.approvals,
		m.lastSettled,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// serve exposes the registry until the listener fails. It is the only
// goroutine besides the cycle loop.
func (m *metrics) serve(log *logan.Entry, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	go func() {
		log.WithField("addr", addr).Info("Serving metrics")
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.WithError(err).Error("Metrics listener stopped")
		}
	}()
}
