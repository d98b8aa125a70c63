// Package orchestrator sequences a full planning run: PreCompute once,
// a configured Builder variant, an optional ResilienceAugmenter pass,
// and a final AvailabilityEvaluator sweep, assembling the report
// bundle documented in the external interface contract.
package orchestrator

import (
	"context"

	"github.com/google/uuid"

	"watermesh/internal/availability"
	"watermesh/internal/builder"
	"watermesh/internal/costmodel"
	"watermesh/internal/hydraulic"
	"watermesh/internal/precompute"
	"watermesh/internal/resilience"
	"watermesh/pkg/domain"
	"watermesh/pkg/telemetry"
)

// Config is the full set of enumerated planning options from the
// external interface contract.
type Config struct {
	BudgetEUR           float64
	Source              int64
	Resilience          bool
	HydraulicCheck      bool
	SpeedBand           costmodel.SpeedBand
	ResilienceBudgetEUR float64 // spent by the post-pass ResilienceAugmenter, independent of BudgetEUR
	RNGSeed             uint64
	MonteCarloReps      int
	AvailabilityModel   availability.Model
	FailureRatePct      float64
}

// Report is the full planning report bundle.
type Report struct {
	RunID string

	Variant              string
	StopReason           string
	Partial              bool
	NodesServed          int
	DemandServed         float64
	TotalDemand          float64
	PercentServed        float64
	PipeLength           float64
	CostEUR              float64
	TankCapacityM3       float64
	TankCapacityExceeded bool
	FailureRate          float64
	Iterations           int

	Network *domain.StreetGraph
	Sized   map[domain.EdgeKey]*costmodel.SizedEdge

	Augmentation *resilience.Report

	Availability *availability.Result
}

// PreCompute performs the one-time graph analysis every run needs
// (demand index, shortest paths). It defaults to precompute.Run;
// production wiring that has a bundle cache configured replaces it
// with a closure over internal/cache.Run so repeated runs against the
// same graph skip the O(V^2) shortest-path sweep.
var PreCompute = precompute.Run

// Run executes PreCompute, the configured Builder variant, an optional
// ResilienceAugmenter pass, and AvailabilityEvaluator in sequence, and
// assembles the final report. The report's RunID comes from
// uuid.NewString.
func Run(ctx context.Context, g *domain.StreetGraph, cfg Config, probe hydraulic.Probe, edgeAttrs map[domain.EdgeKey]availability.EdgeAttributes) (*Report, error) {
	ctx, runSpan := telemetry.StartSpan(ctx, "orchestrator.Run",
		telemetry.WithAttributes(telemetry.GraphAttributes(g.NodeCount(), g.EdgeCount(), cfg.Source)...),
	)
	defer runSpan.End()

	bundle, err := runPreCompute(ctx, g)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	bcfg := builder.Config{
		BudgetEUR:      cfg.BudgetEUR,
		Source:         cfg.Source,
		Resilience:     cfg.Resilience,
		HydraulicCheck: cfg.HydraulicCheck,
		SpeedBand:      cfg.SpeedBand,
	}
	built, err := runBuilder(ctx, g, bundle, bcfg, probe)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	report := &Report{
		RunID:                uuid.NewString(),
		Variant:              built.Variant,
		StopReason:           built.StopReason,
		Partial:              built.Partial,
		NodesServed:          built.NodesServed,
		DemandServed:         built.DemandServed,
		TotalDemand:          built.TotalDemand,
		PercentServed:        built.PercentServed,
		PipeLength:           built.PipeLengthMeters,
		CostEUR:              built.CostEUR,
		TankCapacityM3:       built.TankCapacityM3,
		TankCapacityExceeded: built.TankCapacityExceeded,
		FailureRate:          built.FailureRate,
		Iterations:           built.Iterations,
		Network:              built.Network,
		Sized:                built.Sized,
	}
	telemetry.SetAttributes(ctx, telemetry.StageAttributes(built.Variant, built.Iterations, built.CostEUR, built.DemandServed)...)

	if cfg.Resilience && cfg.ResilienceBudgetEUR > 0 {
		augmented, err := runResilience(ctx, g, built.Network, bundle, cfg, probe)
		if err == nil {
			report.Augmentation = augmented
			report.Network = augmented.Network
			report.Sized = augmented.Sized
			report.PipeLength = augmented.PipeLength
			report.CostEUR += augmented.CostEUR
		} else {
			telemetry.RecordError(ctx, err)
		}
	}

	if cfg.MonteCarloReps > 0 {
		var checkNodes []int64
		for id := range bundle.DemandNodes {
			if report.Network != nil {
				if _, ok := report.Network.GetNode(id); ok {
					checkNodes = append(checkNodes, id)
				}
			}
		}
		avail, err := runAvailability(ctx, cfg, report.Network, report.Sized, edgeAttrs, checkNodes, bundle.Demand)
		if err == nil {
			report.Availability = avail
		} else {
			telemetry.RecordError(ctx, err)
		}
	}

	return report, nil
}

// runPreCompute wraps the PreCompute stage in its own span, separate
// from the Run-level span so a cache hit (internal/cache.Run skipping
// the shortest-path sweep entirely) is visible as a short span rather
// than hidden inside the parent.
func runPreCompute(ctx context.Context, g *domain.StreetGraph) (*precompute.Bundle, error) {
	_, span := telemetry.StartSpan(ctx, "orchestrator.PreCompute")
	defer span.End()
	return PreCompute(g)
}

func runBuilder(ctx context.Context, g *domain.StreetGraph, bundle *precompute.Bundle, bcfg builder.Config, probe hydraulic.Probe) (*builder.Report, error) {
	ctx, span := telemetry.StartSpan(ctx, "orchestrator.Builder")
	defer span.End()
	return builder.Run(ctx, g, bundle, bcfg, probe)
}

func runResilience(ctx context.Context, g, built *domain.StreetGraph, bundle *precompute.Bundle, cfg Config, probe hydraulic.Probe) (*resilience.Report, error) {
	ctx, span := telemetry.StartSpan(ctx, "orchestrator.ResilienceAugmenter")
	defer span.End()
	rcfg := resilience.Config{
		BudgetEUR: cfg.ResilienceBudgetEUR,
		Source:    cfg.Source,
		SpeedBand: cfg.SpeedBand,
	}
	return resilience.Run(ctx, g, built, bundle, rcfg, probe)
}

func runAvailability(ctx context.Context, cfg Config, network *domain.StreetGraph, sized map[domain.EdgeKey]*costmodel.SizedEdge, edgeAttrs map[domain.EdgeKey]availability.EdgeAttributes, checkNodes []int64, demand map[int64]float64) (*availability.Result, error) {
	ctx, span := telemetry.StartSpan(ctx, "orchestrator.AvailabilityEvaluator",
		telemetry.WithAttributes(telemetry.AvailabilityAttributes(modelName(cfg.AvailabilityModel), cfg.FailureRatePct, cfg.MonteCarloReps)...),
	)
	defer span.End()
	acfg := availability.Config{
		Model:          cfg.AvailabilityModel,
		FailureRatePct: cfg.FailureRatePct,
		Repetitions:    cfg.MonteCarloReps,
		Seed:           cfg.RNGSeed,
		Source:         cfg.Source,
	}
	result, err := availability.Evaluate(acfg, network, sized, edgeAttrs, checkNodes, demand)
	if err != nil {
		telemetry.SetError(ctx, err)
	}
	return result, err
}

func modelName(m availability.Model) string {
	if m == availability.Legacy {
		return "legacy"
	}
	return "current"
}
