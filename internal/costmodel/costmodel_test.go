package costmodel

import (
	"math"
	"testing"

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

func TestDiameterForFlow_S6(t *testing.T) {
	required := diameterForFlow(100)
	want := 1000 * math.Sqrt(4*100/(86400*math.Pi))
	if math.Abs(required-want) > 1e-9 {
		t.Errorf("diameterForFlow(100) = %v, want %v", required, want)
	}
}

func TestSizeAggregation_Line(t *testing.T) {
	g := buildLine(t)
	bundle, err := precompute.Run(g)
	if err != nil {
		t.Fatalf("precompute.Run: %v", err)
	}

	result, err := SizeAggregation(g, 0, allNodes(g), bundle)
	if err != nil {
		t.Fatalf("SizeAggregation: %v", err)
	}

	if len(result.Edges) != 3 {
		t.Fatalf("expected 3 sized edges, got %d", len(result.Edges))
	}

	e01 := result.Edges[domain.EdgeKey{From: 0, To: 1}]
	if e01.FlowM3PerDay != 30 {
		t.Errorf("flow(0,1) = %v, want 30 (all downstream demand)", e01.FlowM3PerDay)
	}

	e23 := result.Edges[domain.EdgeKey{From: 2, To: 3}]
	if e23.FlowM3PerDay != 10 {
		t.Errorf("flow(2,3) = %v, want 10", e23.FlowM3PerDay)
	}

	if result.PipeValveCostEUR <= 0 {
		t.Error("expected positive pipe/valve cost")
	}
	if result.TankCostEUR <= 0 {
		t.Error("expected positive tank cost")
	}
	if result.CostEUR != result.PipeValveCostEUR+result.TankCostEUR {
		t.Errorf("CostEUR = %v, want PipeValveCostEUR+TankCostEUR = %v", result.CostEUR, result.PipeValveCostEUR+result.TankCostEUR)
	}
	if result.TankCapacityM3 != 400 {
		t.Errorf("TankCapacityM3 = %v, want 400 (smallest tier >= 30)", result.TankCapacityM3)
	}
}

func TestSizeAggregation_ValveAtDegreeThree(t *testing.T) {
	g := domain.NewStreetGraph()
	g.AddNode(&domain.Node{ID: 0, Demand: 0})
	g.AddNode(&domain.Node{ID: 1, Demand: 5})
	g.AddNode(&domain.Node{ID: 2, Demand: 5})
	g.AddNode(&domain.Node{ID: 3, Demand: 5})
	g.AddEdge(&domain.Edge{From: 0, To: 1, Length: 50})
	g.AddEdge(&domain.Edge{From: 0, To: 2, Length: 50})
	g.AddEdge(&domain.Edge{From: 0, To: 3, Length: 50})

	bundle, err := precompute.Run(g)
	if err != nil {
		t.Fatalf("precompute.Run: %v", err)
	}

	result, err := SizeAggregation(g, 0, allNodes(g), bundle)
	if err != nil {
		t.Fatalf("SizeAggregation: %v", err)
	}

	found := false
	for _, se := range result.Edges {
		if se.HasValve {
			found = true
		}
	}
	if !found {
		t.Error("expected a valve at the degree-3 hub node")
	}
}

func TestSizeBFSSpeedConstrained_Line(t *testing.T) {
	g := buildLine(t)
	bundle, err := precompute.Run(g)
	if err != nil {
		t.Fatalf("precompute.Run: %v", err)
	}

	band := SpeedBand{Min: 0.6, Max: 1.0, RelaxationMin: 0.4, RelaxationStep: 0.05}
	result, err := SizeBFSSpeedConstrained(g, 0, allNodes(g), bundle, band)
	if err != nil {
		t.Fatalf("SizeBFSSpeedConstrained: %v", err)
	}

	if len(result.Edges) != 3 {
		t.Fatalf("expected 3 sized edges, got %d", len(result.Edges))
	}
	for key, se := range result.Edges {
		speed := speedForFlow(se.FlowM3PerDay, float64(se.DiameterMM))
		if speed < band.RelaxationMin-1e-6 {
			t.Errorf("edge %v speed %v below relaxation floor", key, speed)
		}
	}
}

func TestSelectSpeedConstrainedDiameter(t *testing.T) {
	tier, ok := selectSpeedConstrainedDiameter(50, 0.6, 1.0)
	if !ok {
		t.Fatal("expected a feasible diameter for a modest flow")
	}
	speed := speedForFlow(50, float64(tier.DiameterMM))
	if speed <= 0 {
		t.Errorf("speed should be positive, got %v", speed)
	}
}
