// Package costmodel sizes a candidate network's pipes, valves, and tank
// and prices the result. It implements both sizing strategies: the
// aggregation sizer (Strategy A) and the BFS speed-constrained sizer
// (Strategy B).
package costmodel

import (
	"math"
	"sort"

	"watermesh/internal/catalogue"
	"watermesh/internal/precompute"
	"watermesh/pkg/apperror"
	"watermesh/pkg/domain"
)

// SizedEdge carries the sizing outcome for one pipe.
type SizedEdge struct {
	From          int64
	To            int64
	Length        float64
	FlowM3PerDay  float64
	DiameterMM    int
	HasValve      bool
	ValveMM       int
	WallThickness float64
}

// Result is what both sizing strategies return: the per-edge sizing,
// construction cost, and the tank capacity required to meet total
// demand.
//
// PipeValveCostEUR and TankCostEUR are kept separate rather than
// folded into one total because the Builder's admission loop gates
// each candidate against budget using pipe+valve cost alone: the tank
// is a one-time, shared-across-the-whole-network facility sized off
// total served demand, not an incremental per-candidate cost, and
// gating admission on it would make the very first candidate's cost
// jump to the smallest catalogue tank tier. CostEUR is the sum of the
// two, reported for the finalized network only.
type Result struct {
	Edges              map[domain.EdgeKey]*SizedEdge
	PipeValveCostEUR   float64
	TankCostEUR        float64
	CostEUR            float64
	TankCapacityM3     float64
	TankCapacityExceed bool
}

// SpeedBand bounds acceptable pipe velocity for Strategy B, with a floor
// speedMin cannot relax past.
type SpeedBand struct {
	Min            float64
	Max            float64
	RelaxationMin  float64
	RelaxationStep float64
}

func edgesOf(g *domain.StreetGraph, nodes map[int64]bool) []domain.EdgeKey {
	var keys []domain.EdgeKey
	for key := range g.Edges {
		if nodes[key.From] && nodes[key.To] {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].From != keys[j].From {
			return keys[i].From < keys[j].From
		}
		return keys[i].To < keys[j].To
	})
	return keys
}

// diameterForFlow returns the required diameter (mm) for a flow in
// m3/day, per 1000*sqrt(4*flow/(86400*pi)).
func diameterForFlow(flowM3PerDay float64) float64 {
	return 1000 * math.Sqrt(4*flowM3PerDay/(86400*math.Pi))
}

// speedForFlow returns velocity in m/s for a flow (m3/day) through a
// diameter (mm).
func speedForFlow(flowM3PerDay float64, diameterMM float64) float64 {
	dM := diameterMM / 1000
	return (4 * flowM3PerDay / 86400) / (math.Pi * dM * dM)
}

// SizeAggregation implements Strategy A: accumulate consumption along
// each demand node's shortest path to source, interpolate unset edges
// from neighbors, then price diameters/valves/tank.
func SizeAggregation(h *domain.StreetGraph, source int64, nodes map[int64]bool, bundle *precompute.Bundle) (*Result, error) {
	flows := make(map[domain.EdgeKey]float64)

	var demandNodes []int64
	for id := range nodes {
		if id != source && bundle.Demand[id] > domain.Epsilon {
			demandNodes = append(demandNodes, id)
		}
	}
	sort.Slice(demandNodes, func(i, j int) bool { return demandNodes[i] < demandNodes[j] })

	for _, v := range demandNodes {
		residual := h.Clone()
		consumption := bundle.Demand[v]

		for {
			tree := domain.Dijkstra(residual, v)
			path := domain.ReconstructPath(tree, source)
			if path == nil {
				break
			}
			for _, key := range domain.PathEdgeKeys(path) {
				flows[key] += consumption
				residual.RemoveEdge(key.From, key.To)
			}
		}
	}

	edgeKeys := edgesOf(h, nodes)

	// Bounded interpolation pass: an edge with no direct flow inherits the
	// maximum flow of its adjacent edges. Repeat until every edge has a
	// flow value or no progress is made in a full pass (SizingInfeasible).
	maxPasses := len(edgeKeys) + 1
	for pass := 0; pass < maxPasses; pass++ {
		progressed := false
		missing := false
		for _, key := range edgeKeys {
			if _, ok := flows[key]; ok {
				continue
			}
			missing = true
			best := -1.0
			for _, n := range h.Neighbors(key.From) {
				if n == key.To {
					continue
				}
				if f, ok := flows[newEdgeKeyPublic(key.From, n)]; ok && f > best {
					best = f
				}
			}
			for _, n := range h.Neighbors(key.To) {
				if n == key.From {
					continue
				}
				if f, ok := flows[newEdgeKeyPublic(key.To, n)]; ok && f > best {
					best = f
				}
			}
			if best >= 0 {
				flows[key] = best
				progressed = true
			}
		}
		if !missing {
			break
		}
		if !progressed {
			return nil, apperror.New(apperror.CodeSizingInfeasible, "aggregation sizer could not assign flow to every edge")
		}
	}

	for _, key := range edgeKeys {
		if _, ok := flows[key]; !ok {
			return nil, apperror.New(apperror.CodeSizingInfeasible, "aggregation sizer exhausted interpolation passes")
		}
	}

	sized := make(map[domain.EdgeKey]*SizedEdge, len(edgeKeys))
	var cost float64
	diameterOf := make(map[domain.EdgeKey]int, len(edgeKeys))

	for _, key := range edgeKeys {
		e, _ := h.GetEdge(key.From, key.To)
		flow := flows[key]
		tier, _ := catalogue.SelectPipe(diameterForFlow(flow))
		cost += tier.UnitCostPerM * e.Length
		diameterOf[key] = tier.DiameterMM
		sized[key] = &SizedEdge{
			From: e.From, To: e.To, Length: e.Length,
			FlowM3PerDay: flow, DiameterMM: tier.DiameterMM,
			WallThickness: tier.WallThickness,
		}
	}

	var sortedNodes []int64
	for id := range nodes {
		sortedNodes = append(sortedNodes, id)
	}
	sort.Slice(sortedNodes, func(i, j int) bool { return sortedNodes[i] < sortedNodes[j] })

	for _, u := range sortedNodes {
		var incident []domain.EdgeKey
		for _, n := range h.Neighbors(u) {
			if !nodes[n] {
				continue
			}
			incident = append(incident, newEdgeKeyPublic(u, n))
		}
		if len(incident) <= 2 {
			continue
		}
		maxDiam := 0
		for _, key := range incident {
			if d := diameterOf[key]; d > maxDiam {
				maxDiam = d
			}
		}
		valveTier, _ := catalogue.SelectValve(maxDiam)
		cost += valveTier.Cost
		for _, key := range incident {
			if diameterOf[key] == maxDiam {
				sized[key].HasValve = true
				sized[key].ValveMM = valveTier.DiameterMM
				break
			}
		}
	}

	total := totalDemand(nodes, bundle)
	tankTier, withinCatalogue := catalogue.SelectTank(total)

	return &Result{
		Edges:              sized,
		PipeValveCostEUR:   cost,
		TankCostEUR:        tankTier.Cost,
		CostEUR:            cost + tankTier.Cost,
		TankCapacityM3:     tankTier.CapacityM3,
		TankCapacityExceed: !withinCatalogue,
	}, nil
}

func totalDemand(nodes map[int64]bool, bundle *precompute.Bundle) float64 {
	var total float64
	for id := range nodes {
		total += bundle.Demand[id]
	}
	return total
}

// newEdgeKeyPublic is a thin wrapper so costmodel doesn't depend on the
// unexported canonicalization rule in pkg/domain; it mirrors the same
// From<=To ordering.
func newEdgeKeyPublic(a, b int64) domain.EdgeKey {
	if a <= b {
		return domain.EdgeKey{From: a, To: b}
	}
	return domain.EdgeKey{From: b, To: a}
}

// bfsOrder walks nodes in decreasing distance-from-source order (leaves
// first), the order Strategy B must process them in.
func bfsOrder(h *domain.StreetGraph, source int64, nodes map[int64]bool) []int64 {
	type entry struct {
		id   int64
		dist float64
	}
	dist := map[int64]float64{source: 0}
	visited := map[int64]bool{source: true}
	queue := []int64{source}
	var order []entry
	order = append(order, entry{source, 0})

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]

		neighbors := make([]int64, 0)
		for _, n := range h.Neighbors(u) {
			if nodes[n] {
				neighbors = append(neighbors, n)
			}
		}
		sort.Slice(neighbors, func(i, j int) bool {
			ei, _ := h.GetEdge(u, neighbors[i])
			ej, _ := h.GetEdge(u, neighbors[j])
			return ei.Length < ej.Length
		})

		for _, n := range neighbors {
			if visited[n] {
				continue
			}
			visited[n] = true
			e, _ := h.GetEdge(u, n)
			dist[n] = dist[u] + e.Length
			order = append(order, entry{n, dist[n]})
			queue = append(queue, n)
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].dist != order[j].dist {
			return order[i].dist > order[j].dist
		}
		return order[i].id < order[j].id
	})

	ids := make([]int64, len(order))
	for i, e := range order {
		ids[i] = e.id
	}
	return ids
}

// SizeBFSSpeedConstrained implements Strategy B: process nodes leaf-first
// by BFS distance, propagate accumulated flow toward source, and select
// the largest diameter whose speed stays within [band.Min, band.Max]
// (with relaxation of band.Min down to band.RelaxationMin on failure).
func SizeBFSSpeedConstrained(h *domain.StreetGraph, source int64, nodes map[int64]bool, bundle *precompute.Bundle, band SpeedBand) (*Result, error) {
	speedMin := band.Min
	for {
		result, err := sizeBFSOnce(h, source, nodes, bundle, speedMin, band.Max)
		if err == nil {
			return result, nil
		}
		if speedMin-band.RelaxationStep < band.RelaxationMin-domain.Epsilon {
			return nil, apperror.New(apperror.CodeHydraulicInfeasible, "speed band exhausted without a feasible diameter assignment")
		}
		speedMin -= band.RelaxationStep
	}
}

func sizeBFSOnce(h *domain.StreetGraph, source int64, nodes map[int64]bool, bundle *precompute.Bundle, speedMin, speedMax float64) (*Result, error) {
	order := bfsOrder(h, source, nodes)

	visited := make(map[int64]bool)
	accumFlow := make(map[int64]float64)
	sized := make(map[domain.EdgeKey]*SizedEdge)
	var cost float64

	for _, node := range order {
		visited[node] = true

		var unvisited, visitedNeighbors []int64
		for _, n := range h.Neighbors(node) {
			if !nodes[n] {
				continue
			}
			if visited[n] {
				visitedNeighbors = append(visitedNeighbors, n)
			} else {
				unvisited = append(unvisited, n)
			}
		}

		if len(unvisited) > 0 {
			flowEach := (bundle.Demand[node] + accumFlow[node]) / float64(len(unvisited))
			for _, n := range unvisited {
				accumFlow[n] += flowEach

				tier, diameterFound := selectSpeedConstrainedDiameter(flowEach, speedMin, speedMax)
				if !diameterFound {
					return nil, apperror.New(apperror.CodeHydraulicInfeasible, "no catalogue diameter satisfies the speed band")
				}
				e, _ := h.GetEdge(node, n)
				cost += tier.UnitCostPerM * e.Length
				sized[newEdgeKeyPublic(node, n)] = &SizedEdge{
					From: node, To: n, Length: e.Length,
					FlowM3PerDay: flowEach, DiameterMM: tier.DiameterMM,
					WallThickness: tier.WallThickness,
				}
			}
		}

		if len(visitedNeighbors) > 1 {
			maxDiam := 0
			for _, n := range visitedNeighbors {
				if se, ok := sized[newEdgeKeyPublic(node, n)]; ok && se.DiameterMM > maxDiam {
					maxDiam = se.DiameterMM
				}
			}
			if maxDiam > 0 {
				valveTier, _ := catalogue.SelectValve(maxDiam)
				cost += valveTier.Cost
				for _, n := range visitedNeighbors {
					if se, ok := sized[newEdgeKeyPublic(node, n)]; ok && se.DiameterMM == maxDiam {
						se.HasValve = true
						se.ValveMM = valveTier.DiameterMM
						break
					}
				}
			}
		}
	}

	total := totalDemand(nodes, bundle)
	tankTier, withinCatalogue := catalogue.SelectTank(total)

	return &Result{
		Edges:              sized,
		PipeValveCostEUR:   cost,
		TankCostEUR:        tankTier.Cost,
		CostEUR:            cost + tankTier.Cost,
		TankCapacityM3:     tankTier.CapacityM3,
		TankCapacityExceed: !withinCatalogue,
	}, nil
}

// selectSpeedConstrainedDiameter scans the catalogue ascending and
// returns the largest diameter whose speed stays above speedMin, i.e.
// the tier just before the first one whose speed drops to or below
// speedMin, accepted when its speed is at or below speedMax. Returns false if no catalogue tier
// keeps speed within [speedMin, speedMax].
func selectSpeedConstrainedDiameter(flow, speedMin, speedMax float64) (catalogue.PipeTier, bool) {
	prevSpeed := math.Inf(1)
	for i, tier := range catalogue.Pipes {
		speed := speedForFlow(flow, float64(tier.DiameterMM))
		if speed <= speedMin && prevSpeed <= speedMax {
			if i == 0 {
				break
			}
			return catalogue.Pipes[i-1], true
		}
		if speed <= speedMin {
			return tier, true
		}
		prevSpeed = speed
	}
	return catalogue.Pipes[len(catalogue.Pipes)-1], prevSpeed <= speedMax
}
