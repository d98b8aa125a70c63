// Package resilience implements the ResilienceAugmenter: a post-pass
// over an already-built network that spends a second budget adding
// edge-disjoint alternate paths to demand nodes, moving the network
// toward 2-edge-connectivity.
package resilience

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

// Config parameterizes one augmentation run.
type Config struct {
	BudgetEUR float64
	Source    int64
	SpeedBand costmodel.SpeedBand
}

// Report is the finalized outcome of an augmentation run.
type Report struct {
	StopReason   string
	NewPipes     []domain.EdgeKey
	Network      *domain.StreetGraph
	Sized        map[domain.EdgeKey]*costmodel.SizedEdge
	CostEUR      float64
	PipeLength   float64
	Iterations   int
}

type candidate struct {
	primaryPath []int64
	altPath     []int64
	profit      float64
	totalCons   float64
	length      float64
}

// Run augments network against g, trying to add an edge-disjoint
// alternate path for every demand node already present in network; an
// augmentation is admitted only while the re-sized network's total
// pipe-and-valve cost stays within cfg.BudgetEUR.
// probe may be nil to skip hydraulic verification (Strategy A is never
// used here: every committed augmentation is re-validated by Strategy
// B + probe, matching the source's always-hydraulic augmentation
// pass).
func Run(ctx context.Context, g, network *domain.StreetGraph, bundle *precompute.Bundle, cfg Config, probe hydraulic.Probe) (*Report, error) {
	if _, ok := g.GetNode(cfg.Source); !ok {
		return nil, apperror.ErrInvalidSource
	}
	if cfg.BudgetEUR <= 0 {
		return nil, apperror.New(apperror.CodeInvalidInput, "augmentation budget must be positive")
	}

	toImprove := network.Clone()

	var remaining []int64
	for _, id := range toImprove.SortedNodeIDs() {
		if id != cfg.Source && bundle.DemandNodes[id] {
			remaining = append(remaining, id)
		}
	}

	budget := cfg.BudgetEUR
	newPipes := make(map[domain.EdgeKey]bool)
	var lastSized *costmodel.Result
	stopReason := "noFeasibleCandidate"
	iterations := 0

	for len(remaining) > 0 {
		iterations++

		select {
		case <-ctx.Done():
			stopReason = "cancelled"
		default:
		}
		if stopReason == "cancelled" {
			break
		}

		candidates := enumerateCandidates(g, toImprove, bundle, remaining, budget, cfg.Source)
		if len(candidates) == 0 {
			stopReason = "noFeasibleCandidate"
			break
		}

		admitted := false
		for _, cand := range candidates {
			nodeSnapshot := snapshotNodes(toImprove)
			edgeSnapshot := snapshotEdges(toImprove)

			var edgesAdded []domain.EdgeKey
			for _, key := range domain.PathEdgeKeys(cand.altPath) {
				if _, ok := toImprove.GetNode(key.From); !ok {
					node, _ := g.GetNode(key.From)
					toImprove.AddNode(node.Clone())
				}
				if _, ok := toImprove.GetNode(key.To); !ok {
					node, _ := g.GetNode(key.To)
					toImprove.AddNode(node.Clone())
				}
				if _, ok := toImprove.GetEdge(key.From, key.To); !ok {
					e, _ := g.GetEdge(key.From, key.To)
					toImprove.AddEdge(e.Clone())
					edgesAdded = append(edgesAdded, key)
				}
			}

			nodes := snapshotNodes(toImprove)
			var sized *costmodel.Result
			var err error
			speedMin := cfg.SpeedBand.Min
			for {
				sized, err = costmodel.SizeBFSSpeedConstrained(toImprove, cfg.Source, nodes, bundle, costmodel.SpeedBand{
					Min: speedMin, Max: cfg.SpeedBand.Max,
					RelaxationMin: cfg.SpeedBand.RelaxationMin, RelaxationStep: cfg.SpeedBand.RelaxationStep,
				})
				if err == nil && probe != nil {
					verdict, probeErr := probe.Evaluate(ctx, sized, sized.TankCapacityM3, cfg.Source)
					if probeErr != nil || !verdict.Success {
						err = apperror.ErrProbeUnavailable
					}
				}
				if err == nil || speedMin-cfg.SpeedBand.RelaxationStep < cfg.SpeedBand.RelaxationMin-domain.Epsilon {
					break
				}
				speedMin -= cfg.SpeedBand.RelaxationStep
			}

			if err == nil && sized.PipeValveCostEUR <= cfg.BudgetEUR {
				lastSized = sized
				budget = cfg.BudgetEUR - sized.PipeValveCostEUR
				for _, key := range edgesAdded {
					newPipes[key] = true
				}
				remaining = removeServed(remaining, cand.primaryPath, cand.altPath)
				admitted = true
				break
			}

			restoreNodes(toImprove, nodeSnapshot)
			restoreEdges(toImprove, edgeSnapshot)
		}

		if !admitted {
			stopReason = "budgetExhausted"
			break
		}
	}

	if len(remaining) == 0 && stopReason != "cancelled" {
		stopReason = "allDemandServed"
	}

	finalNodes := domain.LargestComponent(toImprove)
	finalSet := make(map[int64]bool, len(finalNodes))
	for _, id := range finalNodes {
		finalSet[id] = true
	}

	finalGraph := domain.NewStreetGraph()
	for id := range finalSet {
		node, _ := toImprove.GetNode(id)
		finalGraph.AddNode(node.Clone())
	}
	sizedOut := make(map[domain.EdgeKey]*costmodel.SizedEdge)
	var pipeLength float64
	for key := range toImprove.Edges {
		if !finalSet[key.From] || !finalSet[key.To] {
			continue
		}
		e, _ := toImprove.GetEdge(key.From, key.To)
		finalGraph.AddEdge(e.Clone())
		pipeLength += e.Length
		if lastSized != nil {
			if se, ok := lastSized.Edges[key]; ok {
				sizedOut[key] = se
			}
		}
	}

	var pipes []domain.EdgeKey
	for key := range newPipes {
		if finalSet[key.From] && finalSet[key.To] {
			pipes = append(pipes, key)
		}
	}
	sort.Slice(pipes, func(i, j int) bool {
		if pipes[i].From != pipes[j].From {
			return pipes[i].From < pipes[j].From
		}
		return pipes[i].To < pipes[j].To
	})

	var cost float64
	if lastSized != nil {
		cost = lastSized.CostEUR
	}

	return &Report{
		StopReason: stopReason,
		NewPipes:   pipes,
		Network:    finalGraph,
		Sized:      sizedOut,
		CostEUR:    cost,
		PipeLength: pipeLength,
		Iterations: iterations,
	}, nil
}

// enumerateCandidates mirrors the Builder's candidate pass, but against
// a single already-admitted network: for every remaining demand node,
// compute its primary path in toImprove, then an alternate path in g
// with the primary's non-bridge edges removed.
func enumerateCandidates(g, toImprove *domain.StreetGraph, bundle *precompute.Bundle, remaining []int64, remainingBudget float64, source int64) []candidate {
	sorted := append([]int64(nil), remaining...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var candidates []candidate
	for _, v := range sorted {
		tree := domain.Dijkstra(toImprove, source)
		primaryPath := domain.ReconstructPath(tree, v)
		if primaryPath == nil {
			continue
		}

		var removed []*domain.Edge
		for _, key := range domain.PathEdgeKeys(primaryPath) {
			if e, ok := g.RemoveEdge(key.From, key.To); ok {
				if domain.IsConnected(g) {
					removed = append(removed, e)
				} else {
					g.RestoreEdge(e)
				}
			}
		}

		altTree := domain.Dijkstra(g, primaryPath[0])
		altPath := domain.ReconstructPath(altTree, primaryPath[len(primaryPath)-1])
		var altLength float64
		if altPath != nil {
			altLength = altTree.Distance[primaryPath[len(primaryPath)-1]]
		}

		for _, e := range removed {
			g.RestoreEdge(e)
		}

		if altPath == nil {
			continue
		}

		minCost := catalogue.MinPipeUnitCost() * altLength
		if minCost >= remainingBudget {
			continue
		}

		accumCons := downstreamConsumption(primaryPath, bundle.Demand)

		candidates = append(candidates, candidate{
			primaryPath: primaryPath,
			altPath:     altPath,
			profit:      accumCons / altLength,
			totalCons:   accumCons,
			length:      altLength,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].profit != candidates[j].profit {
			return candidates[i].profit > candidates[j].profit
		}
		return candidates[i].primaryPath[len(candidates[i].primaryPath)-1] < candidates[j].primaryPath[len(candidates[j].primaryPath)-1]
	})

	return candidates
}

func downstreamConsumption(path []int64, demand map[int64]float64) float64 {
	if len(path) < 2 {
		return 0
	}
	var total float64
	for _, v := range path[1:] {
		total += demand[v]
	}
	return total
}

func removeServed(remaining []int64, paths ...[]int64) []int64 {
	served := make(map[int64]bool)
	for _, path := range paths {
		for _, id := range path {
			served[id] = true
		}
	}
	var out []int64
	for _, id := range remaining {
		if !served[id] {
			out = append(out, id)
		}
	}
	return out
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
