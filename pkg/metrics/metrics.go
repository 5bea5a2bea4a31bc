// Package metrics defines the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EntriesSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "nuvem", Name: "entries_submitted_total", Help: "Number of accepted public submissions."},
	)
	EntriesRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "nuvem", Name: "entries_rejected_total", Help: "Number of rejected public submissions by reason."},
		[]string{"reason"},
	)
	AdminLogins = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "nuvem", Name: "admin_logins_total", Help: "Number of admin login attempts by outcome."},
		[]string{"outcome"},
	)
	ReportsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "nuvem", Name: "reports_generated_total", Help: "Number of report generation attempts by outcome."},
		[]string{"outcome"},
	)
)

// RegisterCollectors registers all collectors with reg.
func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(EntriesSubmitted)
	reg.MustRegister(EntriesRejected)
	reg.MustRegister(AdminLogins)
	reg.MustRegister(ReportsGenerated)
}
