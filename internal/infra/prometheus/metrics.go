package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Application counters, registered on the default registry so the /metrics
// server picks them up without extra wiring.
var (
	ClicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "onebooknav_clicks_total",
		Help: "Total number of website clicks recorded.",
	})

	RegistrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "onebooknav_registrations_total",
		Help: "Total number of user registrations.",
	})

	LinkChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onebooknav_link_checks_total",
		Help: "Total number of link health checks by resulting status.",
	}, []string{"status"})
)
