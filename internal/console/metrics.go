package console

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sipconsole_mutations_total",
		Help: "Administrative mutations issued through the console, by action and outcome.",
	}, []string{"action", "outcome"})

	wsClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sipconsole_websocket_clients",
		Help: "Browsers currently connected to the live update socket.",
	})
)
