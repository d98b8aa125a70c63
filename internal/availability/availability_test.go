package availability

import (
	"math"
	"testing"

	"watermesh/internal/costmodel"
	"watermesh/pkg/domain"
)

// buildLinePath builds the S5 scenario: s(0)-a(1)-b(2), both edges
// identical so each carries the same failure probability.
func buildLinePath(t *testing.T) (*domain.StreetGraph, map[domain.EdgeKey]*costmodel.SizedEdge, map[domain.EdgeKey]EdgeAttributes) {
	t.Helper()
	g := domain.NewStreetGraph()
	g.AddNode(&domain.Node{ID: 0, Demand: 0})
	g.AddNode(&domain.Node{ID: 1, Demand: 0})
	g.AddNode(&domain.Node{ID: 2, Demand: 10})
	g.AddEdge(&domain.Edge{From: 0, To: 1, Length: 100})
	g.AddEdge(&domain.Edge{From: 1, To: 2, Length: 100})

	sized := map[domain.EdgeKey]*costmodel.SizedEdge{
		{From: 0, To: 1}: {From: 0, To: 1, Length: 100, DiameterMM: 32},
		{From: 1, To: 2}: {From: 1, To: 2, Length: 100, DiameterMM: 32},
	}
	attrs := map[domain.EdgeKey]EdgeAttributes{
		{From: 0, To: 1}: {DiameterMM: 32, AgeYears: 0, LengthM: 100, WallThickness: 2.0, Material: domain.MaterialHDPE},
		{From: 1, To: 2}: {DiameterMM: 32, AgeYears: 0, LengthM: 100, WallThickness: 2.0, Material: domain.MaterialHDPE},
	}
	return g, sized, attrs
}

// TestEvaluate_S5 matches scenario S5: a 2-edge path with p_fail=0.1 per
// edge, R=10000, seed=42 -> node b availability ~ 0.81 (i.e. (1-0.1)^2).
func TestEvaluate_S5(t *testing.T) {
	g, sized, _ := buildLinePath(t)

	// Construct attrs that give each edge a failure probability of exactly
	// 0.1 (survivalProbability = 0.9) under the Legacy model by driving
	// every normalized component to 0 and solving FailureRatePct so
	// f/100 * 0.604 = 0.1.
	attrs := map[domain.EdgeKey]EdgeAttributes{
		{From: 0, To: 1}: {DiameterMM: 10, AgeYears: 0, LengthM: 10, WallThickness: 50, Material: domain.MaterialUPVC},
		{From: 1, To: 2}: {DiameterMM: 10, AgeYears: 0, LengthM: 10, WallThickness: 50, Material: domain.MaterialUPVC},
	}
	failureRatePct := 0.1 / legacyNonPipeWeight * 100

	cfg := Config{Model: Legacy, FailureRatePct: failureRatePct, Repetitions: 10000, Seed: 42, Source: 0}
	result, err := Evaluate(cfg, g, sized, attrs, []int64{2}, map[int64]float64{2: 10})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	want := 0.81
	if math.Abs(result.NetworkAvailability-want) > 0.02 {
		t.Errorf("NetworkAvailability = %v, want ~%v", result.NetworkAvailability, want)
	}
}

func TestNormalize_Thresholds(t *testing.T) {
	diam, age, length, wall, material := normalize(EdgeAttributes{
		DiameterMM: 600, AgeYears: 101, LengthM: 201, WallThickness: 1, Material: domain.MaterialUPVC,
	})
	if diam != 1 || age != 1 || length != 1 || wall != 1 {
		t.Errorf("expected all high-risk norms to hit 1, got diam=%v age=%v length=%v wall=%v", diam, age, length, wall)
	}
	if material != 0 {
		t.Errorf("UPVC should normalize to 0, got %v", material)
	}
}

func TestFailureProbability_Bounds(t *testing.T) {
	cfg := Config{Model: Legacy, FailureRatePct: 0.4}
	p := survivalProbability(cfg, EdgeAttributes{DiameterMM: 600, AgeYears: 101, LengthM: 201, WallThickness: 1, Material: domain.MaterialUPVC})
	if p < 0 || p > 1 {
		t.Errorf("survivalProbability = %v, want within [0,1]", p)
	}
}

func TestEvaluate_InvalidReps(t *testing.T) {
	g, sized, attrs := buildLinePath(t)
	cfg := Config{Model: Legacy, FailureRatePct: 0.4, Repetitions: 0, Source: 0}
	_, err := Evaluate(cfg, g, sized, attrs, []int64{2}, map[int64]float64{2: 10})
	if err == nil {
		t.Fatal("expected error for non-positive repetitions")
	}
}

func TestIsolationSegments_ValveBoundsSegment(t *testing.T) {
	g, sized, _ := buildLinePath(t)
	sized[domain.EdgeKey{From: 0, To: 1}].HasValve = true

	tree := domain.Dijkstra(g, 0)
	segments := isolationSegments(g, sized, tree.Distance)

	valved := segments[domain.EdgeKey{From: 0, To: 1}]
	if len(valved) != 1 {
		t.Errorf("valved edge should isolate alone, got %d edges", len(valved))
	}
}
