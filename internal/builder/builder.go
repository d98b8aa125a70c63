// Package builder implements the greedy budgeted network Builder (the
// LB algorithm family): LB, LB-hydro, LBR, and LBR-hydro, as one
// admission loop parameterized by (resilience, hydraulicCheck).
package builder

import (
	"context"
	"sort"

	"watermesh/internal/catalogue"
	"watermesh/internal/costmodel"
	"watermesh/internal/hydraulic"
	"watermesh/internal/precompute"
	"watermesh/pkg/apperror"
	"watermesh/pkg/domain"
)

// Config parameterizes one Builder run.
type Config struct {
	BudgetEUR      float64
	Source         int64
	Resilience     bool
	HydraulicCheck bool
	SpeedBand      costmodel.SpeedBand
}

// Variant returns the LB-family name for this configuration.
func (c Config) Variant() string {
	switch {
	case c.Resilience && c.HydraulicCheck:
		return "LBR-hydro"
	case c.Resilience:
		return "LBR"
	case c.HydraulicCheck:
		return "LB-hydro"
	default:
		return "LB"
	}
}

// Report is the finalized outcome of a Builder run.
type Report struct {
	Variant              string
	StopReason           string
	Partial              bool
	NodesServed          int
	DemandServed         float64
	TotalDemand          float64
	PercentServed        float64
	PipeLengthMeters     float64
	CostEUR              float64
	TankCapacityM3       float64
	TankCapacityExceeded bool
	FailureRate          float64
	Network              *domain.StreetGraph
	Sized                map[domain.EdgeKey]*costmodel.SizedEdge
	Iterations           int
	CandidatesSeen       int
}

type candidate struct {
	demandNode int64
	anchor     int64
	path       []int64
	profit     float64
	totalCons  float64
	length     float64
}

// Run executes a single Builder variant against the given street graph
// and its precomputed bundle. probe may be nil when cfg.HydraulicCheck
// is false.
func Run(ctx context.Context, g *domain.StreetGraph, bundle *precompute.Bundle, cfg Config, probe hydraulic.Probe) (*Report, error) {
	if _, ok := g.GetNode(cfg.Source); !ok {
		return nil, apperror.ErrInvalidSource
	}
	if cfg.BudgetEUR <= 0 {
		return nil, apperror.New(apperror.CodeInvalidInput, "budget must be positive")
	}

	var bridges map[domain.EdgeKey]bool
	if cfg.Resilience {
		bridges = computeBridges(g)
	}

	added := map[int64]bool{cfg.Source: true}
	remaining := make(map[int64]bool)
	for id := range bundle.DemandNodes {
		if id != cfg.Source {
			remaining[id] = true
		}
	}

	h := domain.NewStreetGraph()
	if node, ok := g.GetNode(cfg.Source); ok {
		h.AddNode(node.Clone())
	}

	budget := cfg.BudgetEUR
	var lastSized *costmodel.Result
	stopReason := "noFeasibleCandidate"
	partial := false
	iterations := 0
	candidatesSeen := 0

	for len(remaining) > 0 {
		iterations++

		select {
		case <-ctx.Done():
			partial = true
			stopReason = "cancelled"
		default:
		}
		if partial {
			break
		}

		candidates := enumerateCandidates(bundle, added, remaining, budget, cfg.Resilience)
		candidatesSeen += len(candidates)
		if len(candidates) == 0 {
			stopReason = "noFeasibleCandidate"
			break
		}

		admitted := false
		for _, cand := range candidates {
			addedNodeSnapshot := snapshotNodes(h)
			addedEdgeSnapshot := snapshotEdges(h)

			addPathToH(h, g, cand.path)

			var secondPath []int64
			if cfg.Resilience {
				secondPath = admitSecondPath(g, h, bridges, cand.path)
			}

			nodes := snapshotNodes(h)

			var sized *costmodel.Result
			var err error
			if cfg.HydraulicCheck {
				sized, err = costmodel.SizeBFSSpeedConstrained(h, cfg.Source, nodes, bundle, cfg.SpeedBand)
				if err == nil && probe != nil {
					verdict, probeErr := probe.Evaluate(ctx, sized, sized.TankCapacityM3, cfg.Source)
					if probeErr != nil || !verdict.Success {
						err = apperror.ErrProbeUnavailable
					}
				}
			} else {
				sized, err = costmodel.SizeAggregation(h, cfg.Source, nodes, bundle)
			}

			if err == nil && sized.PipeValveCostEUR <= cfg.BudgetEUR {
				lastSized = sized
				budget = cfg.BudgetEUR - sized.PipeValveCostEUR
				delete(remaining, cand.demandNode)
				for _, n := range cand.path {
					delete(remaining, n)
					added[n] = true
				}
				for _, n := range secondPath {
					delete(remaining, n)
					added[n] = true
				}
				admitted = true
				break
			}

			restoreNodes(h, addedNodeSnapshot)
			restoreEdges(h, addedEdgeSnapshot)
		}

		if !admitted {
			stopReason = "budgetExhausted"
			break
		}
	}

	if len(remaining) == 0 && stopReason != "cancelled" {
		stopReason = "allDemandServed"
	}

	finalNodes := domain.LargestComponent(h)
	finalSet := make(map[int64]bool, len(finalNodes))
	for _, id := range finalNodes {
		finalSet[id] = true
	}

	finalGraph := domain.NewStreetGraph()
	for id := range finalSet {
		node, _ := g.GetNode(id)
		finalGraph.AddNode(node.Clone())
	}
	sizedOut := make(map[domain.EdgeKey]*costmodel.SizedEdge)
	var pipeLength float64
	for key := range h.Edges {
		if !finalSet[key.From] || !finalSet[key.To] {
			continue
		}
		e, _ := h.GetEdge(key.From, key.To)
		finalGraph.AddEdge(e.Clone())
		pipeLength += e.Length
		if lastSized != nil {
			if se, ok := lastSized.Edges[key]; ok {
				sizedOut[key] = se
			}
		}
	}

	var totalDemand, demandServed float64
	for id := range bundle.DemandNodes {
		totalDemand += bundle.Demand[id]
	}
	for id := range finalSet {
		if bundle.DemandNodes[id] {
			demandServed += bundle.Demand[id]
		}
	}

	var percentServed float64
	if totalDemand > 0 {
		percentServed = 100 * demandServed / totalDemand
	}

	var costEUR, tankCapacity float64
	var tankExceeded bool
	if lastSized != nil {
		costEUR = lastSized.CostEUR
		tankCapacity = lastSized.TankCapacityM3
		tankExceeded = lastSized.TankCapacityExceed
	}

	edgeCount := len(sizedOut)
	var failureRate float64
	if edgeCount > 0 {
		failureRate = 100 * (0.4 / 12) * (pipeLength / 1000) / float64(edgeCount)
	}

	return &Report{
		Variant:              cfg.Variant(),
		StopReason:           stopReason,
		Partial:              partial,
		NodesServed:          len(finalSet),
		DemandServed:         demandServed,
		TotalDemand:          totalDemand,
		PercentServed:        percentServed,
		PipeLengthMeters:     pipeLength,
		CostEUR:              costEUR,
		TankCapacityM3:       tankCapacity,
		TankCapacityExceeded: tankExceeded,
		FailureRate:          failureRate,
		Network:              finalGraph,
		Sized:                sizedOut,
		Iterations:           iterations,
		CandidatesSeen:       candidatesSeen,
	}, nil
}

// enumerateCandidates builds, for each remaining demand node, the best
// candidate path from any currently-added node, pruning candidates whose
// minimum possible cost already exceeds the remaining budget, and
// returns them sorted by profit descending with a node-id tie-break.
func enumerateCandidates(bundle *precompute.Bundle, added, remaining map[int64]bool, remainingBudget float64, resilience bool) []candidate {
	var addedIDs []int64
	for id := range added {
		addedIDs = append(addedIDs, id)
	}
	sort.Slice(addedIDs, func(i, j int) bool { return addedIDs[i] < addedIDs[j] })

	var remainingIDs []int64
	for id := range remaining {
		remainingIDs = append(remainingIDs, id)
	}
	sort.Slice(remainingIDs, func(i, j int) bool { return remainingIDs[i] < remainingIDs[j] })

	var candidates []candidate
	for _, v := range remainingIDs {
		bestLen := domain.Infinity
		var bestAnchor int64
		for _, u := range addedIDs {
			if bundle.SPL[u][v] < bestLen {
				bestLen = bundle.SPL[u][v]
				bestAnchor = u
			}
		}
		if bestLen == domain.Infinity {
			continue
		}
		minCost := minUnitCost() * bestLen
		if minCost > remainingBudget {
			continue
		}

		totalCons := bundle.TC[bestAnchor][v]
		length := bestLen
		var profit float64
		if resilience {
			profit = totalCons / (2 * length)
		} else {
			profit = totalCons / length
		}

		candidates = append(candidates, candidate{
			demandNode: v,
			anchor:     bestAnchor,
			path:       bundle.SP[bestAnchor][v],
			profit:     profit,
			totalCons:  totalCons,
			length:     length,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].profit != candidates[j].profit {
			return candidates[i].profit > candidates[j].profit
		}
		return candidates[i].demandNode < candidates[j].demandNode
	})

	return candidates
}

func minUnitCost() float64 {
	return catalogue.MinPipeUnitCost()
}

func addPathToH(h, g *domain.StreetGraph, path []int64) {
	for _, id := range path {
		if _, ok := h.GetNode(id); !ok {
			node, _ := g.GetNode(id)
			h.AddNode(node.Clone())
		}
	}
	for _, key := range domain.PathEdgeKeys(path) {
		if _, ok := h.GetEdge(key.From, key.To); !ok {
			e, _ := g.GetEdge(key.From, key.To)
			h.AddEdge(e.Clone())
		}
	}
}

// admitSecondPath computes, for a just-added primary path, a secondary
// edge-disjoint path between its endpoints over the residual graph with
// the primary path's non-bridge edges temporarily removed, adds it to h,
// and restores the residual graph on every exit path. It returns the
// second path's node ids, or nil if no second path exists.
func admitSecondPath(g, h *domain.StreetGraph, bridges map[domain.EdgeKey]bool, primaryPath []int64) []int64 {
	var removed []*domain.Edge
	for _, key := range domain.PathEdgeKeys(primaryPath) {
		if bridges[key] {
			continue
		}
		if e, ok := g.RemoveEdge(key.From, key.To); ok {
			removed = append(removed, e)
		}
	}
	defer func() {
		for _, e := range removed {
			g.RestoreEdge(e)
		}
	}()

	source := primaryPath[0]
	sink := primaryPath[len(primaryPath)-1]
	tree := domain.Dijkstra(g, source)
	secondPath := domain.ReconstructPath(tree, sink)
	if secondPath == nil {
		return nil
	}
	addPathToH(h, g, secondPath)
	return secondPath
}

func snapshotNodes(h *domain.StreetGraph) map[int64]bool {
	nodes := make(map[int64]bool)
	for _, id := range h.SortedNodeIDs() {
		nodes[id] = true
	}
	return nodes
}

func restoreNodes(h *domain.StreetGraph, snapshot map[int64]bool) {
	for _, id := range h.SortedNodeIDs() {
		if !snapshot[id] {
			delete(h.Nodes, id)
		}
	}
}

func snapshotEdges(h *domain.StreetGraph) map[domain.EdgeKey]bool {
	edges := make(map[domain.EdgeKey]bool, len(h.Edges))
	for key := range h.Edges {
		edges[key] = true
	}
	return edges
}

func restoreEdges(h *domain.StreetGraph, snapshot map[domain.EdgeKey]bool) {
	for key := range h.Edges {
		if !snapshot[key] {
			h.RemoveEdge(key.From, key.To)
		}
	}
}

// computeBridges precomputes, once per Builder run, the edges whose
// removal would disconnect g - these are excluded from the temporary
// deletion performed while searching for a resilience second path.
func computeBridges(g *domain.StreetGraph) map[domain.EdgeKey]bool {
	bridges := make(map[domain.EdgeKey]bool)
	for key := range g.Edges {
		e, _ := g.RemoveEdge(key.From, key.To)
		if !domain.IsConnected(g) {
			bridges[key] = true
		}
		g.RestoreEdge(e)
	}
	return bridges
}
