package hydraulic

import (
	"context"
	"testing"

	"watermesh/internal/costmodel"
	"watermesh/internal/precompute"
	"watermesh/pkg/domain"
)

func buildLine(t *testing.T) *domain.StreetGraph {
	t.Helper()
	g := domain.NewStreetGraph()
	g.AddNode(&domain.Node{ID: 0, Demand: 0})
	g.AddNode(&domain.Node{ID: 1, Demand: 10})
	g.AddNode(&domain.Node{ID: 2, Demand: 10})
	g.AddNode(&domain.Node{ID: 3, Demand: 10})
	g.AddEdge(&domain.Edge{From: 0, To: 1, Length: 100})
	g.AddEdge(&domain.Edge{From: 1, To: 2, Length: 100})
	g.AddEdge(&domain.Edge{From: 2, To: 3, Length: 100})
	return g
}

func allNodes(g *domain.StreetGraph) map[int64]bool {
	nodes := make(map[int64]bool)
	for _, id := range g.SortedNodeIDs() {
		nodes[id] = true
	}
	return nodes
}

func TestEvaluateVerdict_Pass(t *testing.T) {
	ok := EvaluateVerdict(
		map[int64]NodeReading{0: {Supplied: true, PressureM: 30}},
		map[domain.EdgeKey]LinkReading{{From: 0, To: 1}: {VelocityMS: 1.0}},
	)
	if !ok {
		t.Error("expected verdict to pass within thresholds")
	}
}

func TestEvaluateVerdict_PressureTooLow(t *testing.T) {
	ok := EvaluateVerdict(
		map[int64]NodeReading{0: {Supplied: true, PressureM: 10}},
		map[domain.EdgeKey]LinkReading{},
	)
	if ok {
		t.Error("expected verdict to fail when pressure below 15m")
	}
}

func TestEvaluateVerdict_VelocityTooHigh(t *testing.T) {
	ok := EvaluateVerdict(
		map[int64]NodeReading{0: {Supplied: true, PressureM: 30}},
		map[domain.EdgeKey]LinkReading{{From: 0, To: 1}: {VelocityMS: 2.0}},
	)
	if ok {
		t.Error("expected verdict to fail when velocity exceeds 1.2 m/s")
	}
}

func TestEvaluateVerdict_Unsupplied(t *testing.T) {
	ok := EvaluateVerdict(
		map[int64]NodeReading{0: {Supplied: false, PressureM: 30}},
		map[domain.EdgeKey]LinkReading{},
	)
	if ok {
		t.Error("expected verdict to fail when demand is reduced")
	}
}

func TestStubProbe_Evaluate(t *testing.T) {
	g := buildLine(t)
	bundle, err := precompute.Run(g)
	if err != nil {
		t.Fatalf("precompute.Run: %v", err)
	}
	sized, err := costmodel.SizeAggregation(g, 0, allNodes(g), bundle)
	if err != nil {
		t.Fatalf("SizeAggregation: %v", err)
	}

	probe := NewStubProbe(g)
	verdict, err := probe.Evaluate(context.Background(), sized, sized.TankCapacityM3, 0)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(verdict.Nodes) != 4 {
		t.Errorf("expected 4 node readings, got %d", len(verdict.Nodes))
	}
	if len(verdict.Links) != 3 {
		t.Errorf("expected 3 link readings, got %d", len(verdict.Links))
	}
	if verdict.Nodes[0].HeadM != probe.BaseHeadM {
		t.Errorf("source head = %v, want %v", verdict.Nodes[0].HeadM, probe.BaseHeadM)
	}
}
