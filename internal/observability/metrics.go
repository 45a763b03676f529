// Package observability exposes Prometheus counters for dispatch table
// registration activity.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Slot label values.
const (
	SlotKeyed    = "keyed"
	SlotCatchall = "catchall"
)

var (
	registerOnce sync.Once

	registrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "opdispatch",
			Subsystem: "table",
			Name:      "registrations_total",
			Help:      "Kernels written into dispatch tables.",
		},
		[]string{"operator", "slot"},
	)
	overwrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "opdispatch",
			Subsystem: "table",
			Name:      "kernel_overwrites_total",
			Help:      "Registrations that replaced an already registered kernel.",
		},
		[]string{"operator", "slot"},
	)
	retrofits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "opdispatch",
			Subsystem: "table",
			Name:      "retrofitted_kernels_total",
			Help:      "Kernels that received a calling-convention adapter.",
		},
		[]string{"operator"},
	)
)

// RegisterMetrics registers the counters with the default registry once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(registrations, overwrites, retrofits)
	})
}

// RecordRegistration counts one kernel write; overwrote marks a replacement.
func RecordRegistration(operator, slot string, overwrote bool) {
	RegisterMetrics()
	registrations.WithLabelValues(operator, slot).Inc()
	if overwrote {
		overwrites.WithLabelValues(operator, slot).Inc()
	}
}

// RecordRetrofit counts n kernels adapted at retrofit install time.
func RecordRetrofit(operator string, n int) {
	RegisterMetrics()
	retrofits.WithLabelValues(operator).Add(float64(n))
}

// Collectors returns the counters for tests and custom registries.
func Collectors() (registered, overwritten, retrofitted *prometheus.CounterVec) {
	return registrations, overwrites, retrofits
}
