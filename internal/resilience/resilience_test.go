package resilience

import (
	"context"
	"testing"

	"watermesh/internal/builder"
	"watermesh/internal/costmodel"
	"watermesh/internal/hydraulic"
	"watermesh/internal/precompute"
	"watermesh/pkg/domain"
)

func buildDiamond(t *testing.T) *domain.StreetGraph {
	t.Helper()
	g := domain.NewStreetGraph()
	g.AddNode(&domain.Node{ID: 0, Demand: 0})
	g.AddNode(&domain.Node{ID: 1, Demand: 0})
	g.AddNode(&domain.Node{ID: 2, Demand: 10})
	g.AddNode(&domain.Node{ID: 3, Demand: 0})
	g.AddEdge(&domain.Edge{From: 0, To: 1, Length: 100})
	g.AddEdge(&domain.Edge{From: 1, To: 2, Length: 100})
	g.AddEdge(&domain.Edge{From: 0, To: 3, Length: 100})
	g.AddEdge(&domain.Edge{From: 3, To: 2, Length: 100})
	return g
}

func defaultSpeedBand() costmodel.SpeedBand {
	return costmodel.SpeedBand{Min: 0.6, Max: 1.0, RelaxationMin: 0.4, RelaxationStep: 0.05}
}

func TestRun_InvalidSource(t *testing.T) {
	g := buildDiamond(t)
	bundle, err := precompute.Run(g)
	if err != nil {
		t.Fatalf("precompute.Run: %v", err)
	}

	cfg := Config{BudgetEUR: 1000, Source: 999}
	_, err = Run(context.Background(), g, g, bundle, cfg, nil)
	if err == nil {
		t.Fatal("expected error for invalid source")
	}
}

func TestRun_InvalidBudget(t *testing.T) {
	g := buildDiamond(t)
	bundle, err := precompute.Run(g)
	if err != nil {
		t.Fatalf("precompute.Run: %v", err)
	}

	cfg := Config{BudgetEUR: 0, Source: 0}
	_, err = Run(context.Background(), g, g, bundle, cfg, nil)
	if err == nil {
		t.Fatal("expected error for non-positive budget")
	}
}

// TestRun_AugmentsAlternatePath builds a network along one branch of a
// diamond (0-1-2), then augments it: with the full graph available the
// augmenter should find the alternate branch (0-3-2) and add it,
// closing the diamond into a 2-edge-connected loop.
func TestRun_AugmentsAlternatePath(t *testing.T) {
	g := buildDiamond(t)
	bundle, err := precompute.Run(g)
	if err != nil {
		t.Fatalf("precompute.Run: %v", err)
	}

	bcfg := builder.Config{BudgetEUR: 50000, Source: 0}
	built, err := builder.Run(context.Background(), g, bundle, bcfg, nil)
	if err != nil {
		t.Fatalf("builder.Run: %v", err)
	}
	if _, ok := built.Network.GetNode(2); !ok {
		t.Fatal("expected builder to have served node 2 via one branch")
	}

	probe := hydraulic.NewStubProbe(g)
	rcfg := Config{BudgetEUR: 50000, Source: 0, SpeedBand: defaultSpeedBand()}
	report, err := Run(context.Background(), g, built.Network, bundle, rcfg, probe)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.StopReason != "allDemandServed" && report.StopReason != "noFeasibleCandidate" {
		t.Errorf("StopReason = %q, want allDemandServed or noFeasibleCandidate", report.StopReason)
	}

	assertSurvivesSingleEdgeRemoval(t, report.Network, report.Sized, rcfg.Source)
}

// assertSurvivesSingleEdgeRemoval exercises P7: it removes each
// non-valved edge of net in turn and checks every demand node is still
// reachable from source, then restores the edge before moving on.
func assertSurvivesSingleEdgeRemoval(t *testing.T, net *domain.StreetGraph, sized map[domain.EdgeKey]*costmodel.SizedEdge, source int64) {
	t.Helper()

	demandNodes := net.DemandNodes()
	for key, se := range sized {
		if se.HasValve {
			continue
		}

		edge, ok := net.RemoveEdge(key.From, key.To)
		if !ok {
			continue
		}

		reachable := domain.BFSReachable(net, source)
		for _, id := range demandNodes {
			if !reachable[id] {
				t.Errorf("edge %v removed: node %d unreachable from source %d", key, id, source)
			}
		}

		net.RestoreEdge(edge)
	}
}

func TestRun_Cancellation(t *testing.T) {
	g := buildDiamond(t)
	bundle, err := precompute.Run(g)
	if err != nil {
		t.Fatalf("precompute.Run: %v", err)
	}

	bcfg := builder.Config{BudgetEUR: 50000, Source: 0}
	built, err := builder.Run(context.Background(), g, bundle, bcfg, nil)
	if err != nil {
		t.Fatalf("builder.Run: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rcfg := Config{BudgetEUR: 50000, Source: 0, SpeedBand: defaultSpeedBand()}
	report, err := Run(ctx, g, built.Network, bundle, rcfg, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.StopReason != "cancelled" && report.StopReason != "allDemandServed" {
		t.Errorf("StopReason = %q, want cancelled (or already fully served)", report.StopReason)
	}
}
