package catalogue

import (
	"math"
	"testing"
)

func TestSelectPipe_Ceiling(t *testing.T) {
	// S6: required ~= 1000*sqrt(4*100/(86400*pi)) =~ 38.4 -> 63
	required := 1000 * math.Sqrt(4*100/(86400*math.Pi))
	tier, ok := SelectPipe(required)
	if !ok {
		t.Fatalf("expected selection within catalogue, required=%v", required)
	}
	if tier.DiameterMM != 63 {
		t.Errorf("diameter = %d, want 63 (required=%v)", tier.DiameterMM, required)
	}

	tier, ok = SelectPipe(300)
	if !ok {
		t.Fatal("expected selection within catalogue")
	}
	if tier.DiameterMM != 315 {
		t.Errorf("diameter = %d, want 315", tier.DiameterMM)
	}
}

func TestSelectPipe_ExactTier(t *testing.T) {
	tier, ok := SelectPipe(250)
	if !ok || tier.DiameterMM != 250 {
		t.Errorf("exact tier should select itself, got %d ok=%v", tier.DiameterMM, ok)
	}
}

func TestSelectPipe_Overflow(t *testing.T) {
	tier, ok := SelectPipe(10000)
	if ok {
		t.Error("expected overflow to report false")
	}
	if tier.DiameterMM != 630 {
		t.Errorf("overflow should clamp to largest tier, got %d", tier.DiameterMM)
	}
}

func TestSelectValve_Ceiling(t *testing.T) {
	tier, ok := SelectValve(90)
	if !ok || tier.DiameterMM != 100 {
		t.Errorf("diameter = %d, want 100", tier.DiameterMM)
	}
}

func TestSelectValve_Overflow(t *testing.T) {
	tier, ok := SelectValve(5000)
	if ok {
		t.Error("expected overflow to report false")
	}
	if tier.DiameterMM != 700 {
		t.Errorf("overflow should clamp to largest tier, got %d", tier.DiameterMM)
	}
}

func TestSelectTank_Ceiling(t *testing.T) {
	tier, ok := SelectTank(3000)
	if !ok || tier.CapacityM3 != 5000 {
		t.Errorf("capacity = %v, want 5000", tier.CapacityM3)
	}
}

func TestSelectTank_Overflow(t *testing.T) {
	tier, ok := SelectTank(25000)
	if ok {
		t.Error("expected overflow to report false for demand beyond largest tank tier")
	}
	if tier.CapacityM3 != 20000 {
		t.Errorf("overflow should clamp to largest tier, got %v", tier.CapacityM3)
	}
}

func TestCataloguesStrictlyAscending(t *testing.T) {
	for i := 1; i < len(Pipes); i++ {
		if Pipes[i].DiameterMM <= Pipes[i-1].DiameterMM {
			t.Errorf("pipe catalogue not strictly ascending at index %d", i)
		}
	}
	for i := 1; i < len(Valves); i++ {
		if Valves[i].DiameterMM <= Valves[i-1].DiameterMM {
			t.Errorf("valve catalogue not strictly ascending at index %d", i)
		}
	}
	for i := 1; i < len(Tanks); i++ {
		if Tanks[i].CapacityM3 <= Tanks[i-1].CapacityM3 {
			t.Errorf("tank catalogue not strictly ascending at index %d", i)
		}
	}
}

func TestMinPipeUnitCost(t *testing.T) {
	if got := MinPipeUnitCost(); got != 71.91 {
		t.Errorf("MinPipeUnitCost() = %v, want 71.91", got)
	}
}

func TestWallThickness(t *testing.T) {
	if got := WallThickness(63); got != 3.8 {
		t.Errorf("WallThickness(63) = %v, want 3.8", got)
	}
	if got := WallThickness(99999); got != 0 {
		t.Errorf("WallThickness(unknown) = %v, want 0", got)
	}
}
