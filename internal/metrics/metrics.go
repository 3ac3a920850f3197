// Package metrics exposes the service's Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PunchesIngested counts scans accepted into the claim queue.
var PunchesIngested = promauto.NewCounter(prometheus.CounterOpts{
	Name: "attendance_punches_total",
	Help: "RFID punches accepted and queued for verification.",
})

// Verifications counts location-submission outcomes by terminal state:
// marked, already_marked, rejected, no_pending.
var Verifications = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "attendance_verifications_total",
	Help: "Verification attempts by outcome.",
}, []string{"outcome"})
