package store

import (
	"time"

	"watermesh/internal/availability"
	"watermesh/internal/orchestrator"
)

// PlanningReport is the persisted row for a finalized planning run: the
// flat, reporting-facing subset of orchestrator.Report (the working
// Network/Sized maps never leave memory; see cmd/waterplan's summary type
// for the same reasoning applied to stdout).
type PlanningReport struct {
	RunID                string
	Variant              string
	StopReason           string
	Partial              bool
	NodesServed          int
	DemandServed         float64
	TotalDemand          float64
	PercentServed        float64
	PipeLengthMeters     float64
	CostEUR              float64
	TankCapacityM3       float64
	TankCapacityExceeded bool
	FailureRate          float64
	Iterations           int
	RuntimeMS            float64
	CreatedAt            time.Time

	Availability *AvailabilityRun
}

// AvailabilityRun is the persisted Monte Carlo sweep attached to a report,
// when one was computed.
type AvailabilityRun struct {
	ID                    int64
	ReportID              string
	Model                 string
	Repetitions           int
	Seed                  uint64
	NodeAvgAvailability   float64
	NodeWorstAvailability float64
	NetworkAvailability   float64
	MeanUnsuppliedWaterM3 float64
	MTBFDays              float64
	AFY                   float64
	YAUW                  float64
	CreatedAt             time.Time
}

// FromReport converts an orchestrator.Report plus its run duration and the
// availability model/seed/repetitions that produced it into the persisted
// shape.
func FromReport(r *orchestrator.Report, runtime time.Duration, model string, seed uint64, reps int) *PlanningReport {
	pr := &PlanningReport{
		RunID:                r.RunID,
		Variant:              r.Variant,
		StopReason:           r.StopReason,
		Partial:              r.Partial,
		NodesServed:          r.NodesServed,
		DemandServed:         r.DemandServed,
		TotalDemand:          r.TotalDemand,
		PercentServed:        r.PercentServed,
		PipeLengthMeters:     r.PipeLength,
		CostEUR:              r.CostEUR,
		TankCapacityM3:       r.TankCapacityM3,
		TankCapacityExceeded: r.TankCapacityExceeded,
		FailureRate:          r.FailureRate,
		Iterations:           r.Iterations,
		RuntimeMS:            float64(runtime.Microseconds()) / 1000,
	}

	if r.Availability != nil {
		pr.Availability = availabilityRunFromResult(r.RunID, r.Availability, model, seed, reps)
	}

	return pr
}

func availabilityRunFromResult(reportID string, a *availability.Result, model string, seed uint64, reps int) *AvailabilityRun {
	return &AvailabilityRun{
		ReportID:              reportID,
		Model:                 model,
		Repetitions:           reps,
		Seed:                  seed,
		NodeAvgAvailability:   a.NodeAvgAvailability,
		NodeWorstAvailability: a.NodeWorstAvailability,
		NetworkAvailability:   a.NetworkAvailability,
		MeanUnsuppliedWaterM3: a.MeanUnsuppliedWaterM3,
		MTBFDays:              a.MTBFDays,
		AFY:                   a.AFY,
		YAUW:                  a.YAUW,
	}
}

// ListParams filters and paginates List.
type ListParams struct {
	Limit   int32
	Offset  int32
	Variant string

	OrderDesc bool
}

// ListResult is a page of reports plus pagination metadata.
type ListResult struct {
	Reports    []*PlanningReport
	TotalCount int64
	HasMore    bool
}
