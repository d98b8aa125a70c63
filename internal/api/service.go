package api

import (
	"context"
	"fmt"
	"time"

	"connectrpc.com/connect"

	"watermesh/internal/availability"
	"watermesh/internal/hydraulic"
	"watermesh/internal/orchestrator"
	"watermesh/internal/store"
	"watermesh/pkg/logger"
)

// PlanningService implements the two-method planning RPC contract:
// submit a graph and planning config, get back a report; fetch a
// previously-run report by id.
type PlanningService struct {
	cfg   orchestrator.Config
	store store.Store // nil is valid: reports simply aren't persisted
}

// NewPlanningService builds a PlanningService. cfg supplies the
// planning defaults a request doesn't override; st is optional.
func NewPlanningService(cfg orchestrator.Config, st store.Store) *PlanningService {
	return &PlanningService{cfg: cfg, store: st}
}

// Plan runs a full planning pass and, when a store is configured,
// persists the resulting report before returning it.
func (s *PlanningService) Plan(ctx context.Context, req *connect.Request[PlanRequest]) (*connect.Response[PlanReport], error) {
	body := req.Msg
	g, edgeAttrs := buildGraph(body)

	cfg := s.cfg
	cfg.BudgetEUR = body.BudgetEUR
	cfg.Source = body.Source
	cfg.Resilience = body.Resilience
	cfg.HydraulicCheck = body.HydraulicCheck
	cfg.ResilienceBudgetEUR = body.ResilienceBudgetEUR
	cfg.RNGSeed = body.RNGSeed
	cfg.MonteCarloReps = body.MonteCarloReps
	cfg.FailureRatePct = body.FailureRatePct
	if body.AvailabilityModel == "legacy" {
		cfg.AvailabilityModel = availability.Legacy
	} else {
		cfg.AvailabilityModel = availability.Current
	}

	start := time.Now()
	probe := hydraulic.NewStubProbe(g)
	report, err := orchestrator.Run(ctx, g, cfg, probe, edgeAttrs)
	if err != nil {
		return nil, toConnectError(err)
	}
	runtime := time.Since(start)

	if s.store != nil {
		rec := store.FromReport(report, runtime, modelName(cfg.AvailabilityModel), cfg.RNGSeed, cfg.MonteCarloReps)
		if err := s.store.Save(ctx, rec); err != nil {
			logger.Log.Error("failed to persist planning report", "run_id", report.RunID, "error", err)
		}
	}

	return connect.NewResponse(toPlanReport(report)), nil
}

// GetReport fetches a previously-run report by id. It requires a
// configured store; without one it fails with CodeUnimplemented.
func (s *PlanningService) GetReport(ctx context.Context, req *connect.Request[ReportIDRequest]) (*connect.Response[PlanReport], error) {
	if s.store == nil {
		return nil, connect.NewError(connect.CodeUnimplemented, fmt.Errorf("no report store configured"))
	}

	rec, err := s.store.Get(ctx, req.Msg.RunID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(planReportFromRecord(rec)), nil
}

func modelName(m availability.Model) string {
	if m == availability.Legacy {
		return "legacy"
	}
	return "current"
}

func toPlanReport(r *orchestrator.Report) *PlanReport {
	return &PlanReport{
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
		Sized:                sizedEdgeDTOs(r.Sized),
		Availability:         r.Availability,
	}
}

func planReportFromRecord(rec *store.PlanningReport) *PlanReport {
	p := &PlanReport{
		RunID:                rec.RunID,
		Variant:              rec.Variant,
		StopReason:           rec.StopReason,
		Partial:              rec.Partial,
		NodesServed:          rec.NodesServed,
		DemandServed:         rec.DemandServed,
		TotalDemand:          rec.TotalDemand,
		PercentServed:        rec.PercentServed,
		PipeLengthMeters:     rec.PipeLengthMeters,
		CostEUR:              rec.CostEUR,
		TankCapacityM3:       rec.TankCapacityM3,
		TankCapacityExceeded: rec.TankCapacityExceeded,
		FailureRate:          rec.FailureRate,
		Iterations:           rec.Iterations,
	}
	if rec.Availability != nil {
		p.Availability = &availability.Result{
			NodeAvgAvailability:   rec.Availability.NodeAvgAvailability,
			NodeWorstAvailability: rec.Availability.NodeWorstAvailability,
			NetworkAvailability:   rec.Availability.NetworkAvailability,
			MeanUnsuppliedWaterM3: rec.Availability.MeanUnsuppliedWaterM3,
			MTBFDays:              rec.Availability.MTBFDays,
			AFY:                   rec.Availability.AFY,
			YAUW:                  rec.Availability.YAUW,
		}
	}
	return p
}
