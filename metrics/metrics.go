// Package metrics exposes prometheus counters and gauges for the kernel's
// dispatch and lifecycle components, grounded on go-lynx's
// app/observability/metrics/registry.go. The kernel never opens an HTTP
// listener itself; a plugin or the host binary may expose /metrics by
// registering prometheus.DefaultGatherer (or the prometheus registry passed
// to NewRegistry) with an HTTP handler of their own.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry bundles the kernel-level metrics into one struct so lifecycle
// code can take a single dependency instead of package-global
// metrics, matching the "no package-global state besides logging" design
// note.
type Registry struct {
	PermitsInUse      *prometheus.GaugeVec
	EnvelopesHandled  *prometheus.CounterVec
	EnvelopesDropped  *prometheus.CounterVec
	HandlerPanics     *prometheus.CounterVec
	ShutdownDuration  *prometheus.HistogramVec
}

// NewRegistry constructs a Registry and registers its collectors with reg.
// Pass prometheus.NewRegistry() for an isolated registry (tests) or
// prometheus.DefaultRegisterer for the process-wide default.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		PermitsInUse: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "edged",
			Subsystem: "dispatch",
			Name:      "permits_in_use",
			Help:      "Number of concurrency permits currently held, per plugin.",
		}, []string{"plugin"}),
		EnvelopesHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "edged",
			Subsystem: "dispatch",
			Name:      "envelopes_handled_total",
			Help:      "Envelopes successfully dispatched to a plugin handler.",
		}, []string{"plugin"}),
		EnvelopesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "edged",
			Subsystem: "dispatch",
			Name:      "envelopes_dropped_total",
			Help:      "Envelopes that could not acquire a permit, or whose handler failed or panicked.",
		}, []string{"plugin"}),
		HandlerPanics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "edged",
			Subsystem: "dispatch",
			Name:      "handler_panics_total",
			Help:      "Handler invocations that panicked.",
		}, []string{"plugin", "message_type"}),
		ShutdownDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "edged",
			Subsystem: "lifecycle",
			Name:      "shutdown_duration_seconds",
			Help:      "Time taken for a plugin's shutdown to return.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"plugin"}),
	}
	reg.MustRegister(r.PermitsInUse, r.EnvelopesHandled, r.EnvelopesDropped, r.HandlerPanics, r.ShutdownDuration)
	return r
}
