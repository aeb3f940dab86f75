// Package stats is the external statistics registry spec §6 names
// ("Statistics (decisions, conflicts, restarts, propagations by kind)
// are published to an external registry as counters"). It reprises
// cvc4's FMPluginStats (original_source/src/mcsat/fm/fm_plugin.h),
// whose hand-rolled IntStats this package turns into Prometheus
// CounterVecs, matching the metrics stack three pack members
// (hashicorp-nomad, operator-lifecycle-manager, dolthub-go-mysql-
// server) all vendor.
package stats

import "github.com/prometheus/client_golang/prometheus"

// Registry holds the counters the MCSAT core publishes. It owns a
// private prometheus.Registry rather than registering into the global
// default one, so multiple solver instances in one process don't
// collide (mirroring cvc4's per-solver StatisticsRegistry instance).
type Registry struct {
	reg *prometheus.Registry

	Decisions    prometheus.Counter
	Conflicts    prometheus.Counter
	Restarts     prometheus.Counter
	Propagations *prometheus.CounterVec

	// Arithmetic-plugin-specific counters, named after cvc4's
	// FMPluginStats fields.
	FMDecisions       prometheus.Counter
	FMConflicts       prometheus.Counter
	FMPropagationsS   prometheus.Counter
	FMPropagationsD   prometheus.Counter
}

// New creates and registers a fresh counter set.
func New() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{
		reg: reg,
		Decisions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mcsat_decisions_total",
			Help: "Total number of decisions made by the solver loop.",
		}),
		Conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mcsat_conflicts_total",
			Help: "Total number of conflicts analyzed by the solver loop.",
		}),
		Restarts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mcsat_restarts_total",
			Help: "Total number of restarts performed.",
		}),
		Propagations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mcsat_propagations_total",
			Help: "Total number of propagations, labeled by kind.",
		}, []string{"kind"}),
		FMDecisions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mcsat_fm_decisions_total",
			Help: "Decisions made by the Fourier-Motzkin plugin.",
		}),
		FMConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mcsat_fm_conflicts_total",
			Help: "Conflicts reported by the Fourier-Motzkin plugin.",
		}),
		FMPropagationsS: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mcsat_fm_propagations_semantic_total",
			Help: "Semantic propagations (x -> 1 => x > 0) by the FM plugin.",
		}),
		FMPropagationsD: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mcsat_fm_propagations_deductive_total",
			Help: "Deductive propagations (x > 1 => x > 0) by the FM plugin.",
		}),
	}
	reg.MustRegister(r.Decisions, r.Conflicts, r.Restarts, r.Propagations,
		r.FMDecisions, r.FMConflicts, r.FMPropagationsS, r.FMPropagationsD)
	return r
}

// PrometheusRegistry exposes the underlying registry for callers that
// want to serve /metrics or merge it into a larger one.
func (r *Registry) PrometheusRegistry() *prometheus.Registry { return r.reg }

const (
	KindClausal  = "clausal"
	KindSemantic = "semantic"
)
