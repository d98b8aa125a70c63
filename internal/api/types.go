package api

import (
	"watermesh/internal/availability"
	"watermesh/internal/costmodel"
	"watermesh/pkg/domain"
)

// PlanRequest is the wire request for PlanningService.Plan: a street
// graph plus the same planning knobs cmd/waterplan reads from
// config.PlanningConfig, so a client can submit exactly what a
// config.yaml run would otherwise fix ahead of time.
type PlanRequest struct {
	Nodes []NodeDTO `json:"nodes"`
	Edges []EdgeDTO `json:"edges"`

	BudgetEUR           float64 `json:"budget_eur"`
	Source              int64   `json:"source"`
	Resilience          bool    `json:"resilience"`
	HydraulicCheck      bool    `json:"hydraulic_check"`
	ResilienceBudgetEUR float64 `json:"resilience_budget_eur"`
	RNGSeed             uint64  `json:"rng_seed"`
	MonteCarloReps      int     `json:"monte_carlo_reps"`
	AvailabilityModel   string  `json:"availability_model"` // legacy, current
	FailureRatePct      float64 `json:"failure_rate_pct"`
}

// NodeDTO is the wire shape of a domain.Node.
type NodeDTO struct {
	ID        int64   `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Elevation float64 `json:"elevation"`
	Demand    float64 `json:"demand"`
	REFCAT    string  `json:"refcat"`
}

// EdgeDTO is the wire shape of a domain.Edge, carrying the raw
// condition attributes the availability stage needs alongside the
// planning geometry.
type EdgeDTO struct {
	From          int64   `json:"from"`
	To            int64   `json:"to"`
	Length        float64 `json:"length"`
	Age           float64 `json:"age"`
	Diameter      float64 `json:"diameter"`
	WallThickness float64 `json:"wall_thickness"`
	Material      string  `json:"material"`
}

// PlanReport is the wire response for Plan and GetReport: the subset
// of orchestrator.Report that marshals cleanly over the wire. The
// network graph is left out as internal working state; the sized-edge
// map is carried as a flat SizedEdgeDTO list.
type PlanReport struct {
	RunID string `json:"run_id"`

	Variant              string  `json:"variant"`
	StopReason           string  `json:"stop_reason"`
	Partial              bool    `json:"partial"`
	NodesServed          int     `json:"nodes_served"`
	DemandServed         float64 `json:"demand_served"`
	TotalDemand          float64 `json:"total_demand"`
	PercentServed        float64 `json:"percent_served"`
	PipeLengthMeters     float64 `json:"pipe_length_meters"`
	CostEUR              float64 `json:"cost_eur"`
	TankCapacityM3       float64 `json:"tank_capacity_m3"`
	TankCapacityExceeded bool    `json:"tank_capacity_exceeded"`
	FailureRate          float64 `json:"failure_rate"`
	Iterations           int     `json:"iterations"`

	Sized []SizedEdgeDTO `json:"sized,omitempty"`

	Availability *availability.Result `json:"availability,omitempty"`
}

// SizedEdgeDTO is the wire shape of a costmodel.SizedEdge.
type SizedEdgeDTO struct {
	From          int64   `json:"from"`
	To            int64   `json:"to"`
	Length        float64 `json:"length"`
	FlowM3PerDay  float64 `json:"flow_m3_per_day"`
	DiameterMM    int     `json:"diameter_mm"`
	HasValve      bool    `json:"has_valve"`
	ValveMM       int     `json:"valve_mm"`
	WallThickness float64 `json:"wall_thickness"`
}

// ReportIDRequest is the wire request for PlanningService.GetReport.
type ReportIDRequest struct {
	RunID string `json:"run_id"`
}

func sizedEdgeDTOs(sized map[domain.EdgeKey]*costmodel.SizedEdge) []SizedEdgeDTO {
	if len(sized) == 0 {
		return nil
	}
	out := make([]SizedEdgeDTO, 0, len(sized))
	for _, e := range sized {
		out = append(out, SizedEdgeDTO{
			From: e.From, To: e.To, Length: e.Length, FlowM3PerDay: e.FlowM3PerDay,
			DiameterMM: e.DiameterMM, HasValve: e.HasValve, ValveMM: e.ValveMM,
			WallThickness: e.WallThickness,
		})
	}
	return out
}

func buildGraph(req *PlanRequest) (*domain.StreetGraph, map[domain.EdgeKey]availability.EdgeAttributes) {
	g := domain.NewStreetGraph()
	for _, n := range req.Nodes {
		g.AddNode(&domain.Node{
			ID: n.ID, X: n.X, Y: n.Y, Elevation: n.Elevation, Demand: n.Demand, REFCAT: n.REFCAT,
		})
	}

	attrs := make(map[domain.EdgeKey]availability.EdgeAttributes, len(req.Edges))
	for _, e := range req.Edges {
		material := domain.ParseMaterial(e.Material)
		edge := &domain.Edge{
			From: e.From, To: e.To, Length: e.Length,
			Age: e.Age, Diameter: e.Diameter, WallThickness: e.WallThickness, Material: material,
		}
		g.AddEdge(edge)
		attrs[edge.Key()] = availability.EdgeAttributes{
			DiameterMM: e.Diameter, AgeYears: e.Age, LengthM: e.Length, WallThickness: e.WallThickness, Material: material,
		}
	}

	return g, attrs
}
