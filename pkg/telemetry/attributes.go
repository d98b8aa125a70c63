package telemetry

import "go.opentelemetry.io/otel/attribute"

// Standard span attribute keys used across the orchestrator's stages.
const (
	// Graph
	AttrGraphNodes  = "graph.nodes"
	AttrGraphEdges  = "graph.edges"
	AttrGraphSource = "graph.source_id"

	// Planning
	AttrStage         = "planning.stage"
	AttrVariant       = "planning.variant"
	AttrBudgetEUR     = "planning.budget_eur"
	AttrCostEUR       = "planning.cost_eur"
	AttrIterations    = "planning.iterations"
	AttrDemandServed  = "planning.demand_served"
	AttrPercentServed = "planning.percent_served"

	// Availability
	AttrAvailabilityModel = "availability.model"
	AttrFailureRatePct    = "availability.failure_rate_pct"
	AttrMonteCarloReps    = "availability.monte_carlo_reps"
)

// GraphAttributes describes the street graph a stage is operating on.
func GraphAttributes(nodes, edges int, source int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrGraphNodes, nodes),
		attribute.Int(AttrGraphEdges, edges),
		attribute.Int64(AttrGraphSource, source),
	}
}

// StageAttributes describes a builder/resilience stage's outcome.
func StageAttributes(variant string, iterations int, costEUR, demandServed float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrVariant, variant),
		attribute.Int(AttrIterations, iterations),
		attribute.Float64(AttrCostEUR, costEUR),
		attribute.Float64(AttrDemandServed, demandServed),
	}
}

// AvailabilityAttributes describes a Monte Carlo availability sweep.
func AvailabilityAttributes(model string, failureRatePct float64, reps int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrAvailabilityModel, model),
		attribute.Float64(AttrFailureRatePct, failureRatePct),
		attribute.Int(AttrMonteCarloReps, reps),
	}
}
