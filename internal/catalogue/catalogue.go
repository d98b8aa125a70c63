// Package catalogue holds the static pipe, valve, and tank selection
// tables used by the cost model when sizing a candidate network.
package catalogue

import "sort"

// PipeTier describes one catalogue diameter for pressure pipe.
type PipeTier struct {
	DiameterMM    int
	WallThickness float64 // mm
	UnitCostPerM  float64 // €/m
}

// ValveTier describes one catalogue diameter for an isolation valve.
type ValveTier struct {
	DiameterMM int
	Cost       float64 // €
}

// TankTier describes one catalogue water tank size.
type TankTier struct {
	CapacityM3 float64
	Cost       float64 // €
	RadiusM    float64
}

// Pipes is the ascending catalogue of pressure pipe diameters, 32mm to
// 630mm, with their wall thickness and per-meter unit cost.
var Pipes = []PipeTier{
	{32, 2.0, 71.91},
	{63, 3.8, 74.38},
	{75, 4.5, 77.45},
	{90, 5.4, 80.28},
	{110, 6.6, 83.54},
	{125, 7.4, 87.27},
	{140, 8.3, 91.29},
	{160, 9.5, 96.68},
	{180, 10.7, 116.89},
	{200, 11.9, 134.53},
	{225, 13.4, 153.50},
	{250, 14.8, 172.77},
	{315, 18.7, 217.17},
	{400, 23.7, 271.49},
	{450, 26.7, 334.66},
	{560, 33.2, 424.33},
	{630, 37.4, 489.38},
}

// Valves is the ascending catalogue of isolation valve diameters, 40mm
// to 700mm, with their unit cost.
var Valves = []ValveTier{
	{40, 89.29},
	{50, 100.46},
	{65, 125.77},
	{80, 169.88},
	{100, 210.88},
	{125, 278.35},
	{150, 334.97},
	{200, 650.00},
	{250, 865.55},
	{300, 1116.81},
	{350, 1812.51},
	{400, 2388.50},
	{450, 3095.43},
	{500, 4058.26},
	{600, 8026.65},
	{700, 9014.04},
}

// Tanks is the ascending catalogue of water tank sizes.
var Tanks = []TankTier{
	{400, 240000, 3.56825},
	{2500, 350000, 8.92062},
	{5000, 440000, 12.61566},
	{10000, 560000, 17.84124},
	{20000, 760000, 25.231328},
}

// MinPipeUnitCost returns the cheapest per-meter pipe cost, used by the
// Builder to prune candidates whose minimum possible construction cost
// already exceeds the remaining budget.
func MinPipeUnitCost() float64 {
	return Pipes[0].UnitCostPerM
}

// SelectPipe returns the smallest catalogue pipe tier whose diameter is
// greater than or equal to requiredMM (ceiling selection), and true. If
// requiredMM exceeds the largest catalogue tier, it returns the largest
// tier and false so callers can flag the overflow.
func SelectPipe(requiredMM float64) (PipeTier, bool) {
	idx := sort.Search(len(Pipes), func(i int) bool {
		return float64(Pipes[i].DiameterMM) >= requiredMM
	})
	if idx >= len(Pipes) {
		return Pipes[len(Pipes)-1], false
	}
	return Pipes[idx], true
}

// SelectValve returns the smallest catalogue valve tier whose diameter
// is greater than or equal to requiredMM, ceiling selection. If
// requiredMM exceeds the largest tier, it returns the largest tier and
// false.
func SelectValve(requiredMM int) (ValveTier, bool) {
	idx := sort.Search(len(Valves), func(i int) bool {
		return Valves[i].DiameterMM >= requiredMM
	})
	if idx >= len(Valves) {
		return Valves[len(Valves)-1], false
	}
	return Valves[idx], true
}

// SelectTank returns the smallest catalogue tank tier whose capacity is
// greater than or equal to totalDemandM3, ceiling selection. If
// totalDemandM3 exceeds the largest tier, it returns the largest tier
// and false so the caller can record tankCapacityExceeded.
func SelectTank(totalDemandM3 float64) (TankTier, bool) {
	idx := sort.Search(len(Tanks), func(i int) bool {
		return Tanks[i].CapacityM3 >= totalDemandM3
	})
	if idx >= len(Tanks) {
		return Tanks[len(Tanks)-1], false
	}
	return Tanks[idx], true
}

// WallThickness returns the wall thickness in mm for a catalogue pipe
// diameter, or 0 if the diameter is not a catalogue tier.
func WallThickness(diameterMM int) float64 {
	for _, p := range Pipes {
		if p.DiameterMM == diameterMM {
			return p.WallThickness
		}
	}
	return 0
}
