// Package metrics exposes Prometheus counters and histograms for the
// tick engine, planner, and HTTP API, registered on the default registry
// and served at /metrics alongside the rest of the API mux.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TicksAdvanced counts ticks consumed by tick.Advance across all calls.
	TicksAdvanced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "idlecore_ticks_total",
		Help: "Total simulated ticks advanced.",
	})

	// PlannerNodesExpanded counts frontier nodes popped during PlanSegment's
	// best-first search.
	PlannerNodesExpanded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "idlecore_planner_nodes_expanded_total",
		Help: "Total planner search nodes expanded.",
	})

	// Replans counts segment boundaries that forced a new PlanSegment call.
	Replans = promauto.NewCounter(prometheus.CounterOpts{
		Name: "idlecore_replans_total",
		Help: "Total replan events triggered by a non-terminal segment boundary.",
	})

	// ActiveActionCompletions counts completed action cycles, labeled by skill.
	ActiveActionCompletions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "idlecore_active_action_completions_total",
		Help: "Total completed action cycles, by skill.",
	}, []string{"skill"})

	// PlansGenerated counts successful PlanSegment calls.
	PlansGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "idlecore_plans_generated_total",
		Help: "Total plans generated via PlanSegment.",
	})

	// PlanDuration observes wall-clock time spent inside PlanSegment.
	PlanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "idlecore_plan_duration_seconds",
		Help:    "Wall-clock duration of PlanSegment calls.",
		Buckets: prometheus.DefBuckets,
	})

	// Deaths counts player-death restarts absorbed inside the tick engine
	// during hazardous (thieving/combat) actions.
	Deaths = promauto.NewCounter(prometheus.CounterOpts{
		Name: "idlecore_deaths_total",
		Help: "Total player-death restart events during hazardous actions.",
	})
)
