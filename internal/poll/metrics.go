package poll

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pollCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sipconsole_poll_cycles_total",
		Help: "Number of poll ticks fired.",
	})

	fetchSuccesses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sipconsole_fetch_success_total",
		Help: "Snapshot fetches that replaced the store, by resource.",
	}, []string{"resource"})

	fetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sipconsole_fetch_failures_total",
		Help: "Snapshot fetches that failed and were dropped, by resource.",
	}, []string{"resource"})
)
