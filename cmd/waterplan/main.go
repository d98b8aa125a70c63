// Package main is the entry point for the waterplan CLI: loads a
// street graph, runs the planning orchestrator against it, and prints
// the resulting report.
//
// Usage:
//
//	waterplan -graph street-graph.json
//
// Configuration loads with the standard priority (environment
// variables over config.yaml over built-in defaults); see
// pkg/config/loader.go.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"watermesh/internal/availability"
	"watermesh/internal/hydraulic"
	"watermesh/internal/orchestrator"
	"watermesh/pkg/config"
	"watermesh/pkg/domain"
	"watermesh/pkg/logger"
	"watermesh/pkg/metrics"
	"watermesh/pkg/telemetry"
)

func main() {
	graphPath := flag.String("graph", "", "path to a street-graph JSON file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	m := metrics.InitMetrics(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)
	m.SetServiceInfo(cfg.App.Version, cfg.App.Environment)

	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.StartMetricsServer(cfg.Metrics.Port); err != nil {
				logger.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	tracingProvider, err := telemetry.Init(context.Background(), telemetry.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.App.Name,
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		logger.Fatal("failed to initialize tracing", "error", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := tracingProvider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown error", "error", err)
		}
	}()

	if *graphPath == "" {
		logger.Fatal("missing required -graph flag")
	}

	g, edgeAttrs, err := loadGraph(*graphPath)
	if err != nil {
		logger.Fatal("failed to load graph", "error", err, "path", *graphPath)
	}
	m.RecordGraphSize("ingest", g.NodeCount(), g.EdgeCount())

	orchCfg := orchestrator.Config{
		BudgetEUR:           cfg.Planning.BudgetEUR,
		Source:              cfg.Planning.Source,
		Resilience:          cfg.Planning.Resilience == config.ResilienceK2,
		HydraulicCheck:      cfg.Planning.HydraulicCheck,
		ResilienceBudgetEUR: cfg.Planning.BudgetEUR,
		RNGSeed:             cfg.Planning.RNGSeed,
		MonteCarloReps:      cfg.Planning.MonteCarloReps,
		FailureRatePct:      cfg.Planning.FailureRate,
	}
	orchCfg.SpeedBand.Min = cfg.Planning.SpeedBand.Min
	orchCfg.SpeedBand.Max = cfg.Planning.SpeedBand.Max
	orchCfg.SpeedBand.RelaxationMin = cfg.Planning.SpeedBand.RelaxationMin
	orchCfg.SpeedBand.RelaxationStep = cfg.Planning.SpeedBand.RelaxationStep
	if cfg.Planning.AvailabilityModel == config.AvailabilityCurrent {
		orchCfg.AvailabilityModel = availability.Current
	} else {
		orchCfg.AvailabilityModel = availability.Legacy
	}

	start := time.Now()
	probe := hydraulic.NewStubProbe(g)
	report, err := orchestrator.Run(context.Background(), g, orchCfg, probe, edgeAttrs)
	duration := time.Since(start)
	if err != nil {
		logger.Fatal("planning run failed", "error", err)
	}

	m.RecordBuilderRun(report.Variant, report.StopReason, report.Iterations, 0, duration, report.CostEUR, report.PercentServed, cfg.Planning.BudgetEUR-report.CostEUR)
	if report.Availability != nil {
		m.RecordMonteCarloRun(string(cfg.Planning.AvailabilityModel), cfg.Planning.MonteCarloReps, duration, report.Availability.NetworkAvailability, report.Availability.MeanUnsuppliedWaterM3)
	}

	logger.Info("planning run complete",
		"run_id", report.RunID,
		"variant", report.Variant,
		"stop_reason", report.StopReason,
		"percent_served", report.PercentServed,
		"cost_eur", report.CostEUR,
		"pipe_length_m", report.PipeLength,
		"tank_capacity_m3", report.TankCapacityM3,
		"duration", duration,
	)

	if err := json.NewEncoder(os.Stdout).Encode(summarize(report)); err != nil {
		logger.Fatal("failed to encode report", "error", err)
	}
}

// summary is the stdout-facing subset of orchestrator.Report: the
// network/sized-edge maps are internal working state, not reporting
// output, and their EdgeKey-keyed maps don't marshal to JSON directly
// (EdgeKey is a struct, not a string or integer).
type summary struct {
	RunID                string  `json:"run_id"`
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

	Availability *availability.Result `json:"availability,omitempty"`
}

func summarize(r *orchestrator.Report) summary {
	return summary{
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
		Availability:         r.Availability,
	}
}

// graphFile is the on-disk JSON shape for a street graph: nodes with
// consumption/elevation, edges with length plus condition attributes
// the availability stage normalizes.
type graphFile struct {
	Nodes []struct {
		ID        int64   `json:"id"`
		X         float64 `json:"x"`
		Y         float64 `json:"y"`
		Elevation float64 `json:"elevation"`
		Demand    float64 `json:"demand"`
		REFCAT    string  `json:"refcat"`
	} `json:"nodes"`
	Edges []struct {
		From          int64   `json:"from"`
		To            int64   `json:"to"`
		Length        float64 `json:"length"`
		Age           float64 `json:"age"`
		Diameter      float64 `json:"diameter"`
		WallThickness float64 `json:"wall_thickness"`
		Material      string  `json:"material"`
	} `json:"edges"`
}

func loadGraph(path string) (*domain.StreetGraph, map[domain.EdgeKey]availability.EdgeAttributes, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	var gf graphFile
	if err := json.NewDecoder(f).Decode(&gf); err != nil {
		return nil, nil, err
	}

	g := domain.NewStreetGraph()
	for _, n := range gf.Nodes {
		g.AddNode(&domain.Node{
			ID: n.ID, X: n.X, Y: n.Y, Elevation: n.Elevation, Demand: n.Demand, REFCAT: n.REFCAT,
		})
	}

	attrs := make(map[domain.EdgeKey]availability.EdgeAttributes, len(gf.Edges))
	for _, e := range gf.Edges {
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

	return g, attrs, nil
}
