// Package precompute builds the immutable PrecomputedBundle every other
// planning stage reads from: all-pairs shortest paths, path lengths,
// and downstream consumption sums over the input street graph.
package precompute

import (
	"watermesh/pkg/apperror"
	"watermesh/pkg/domain"
)

// Bundle is the immutable precomputed data shared by reference across a
// planning run. Once returned by Run, none of its fields are mutated.
type Bundle struct {
	Graph *domain.StreetGraph

	// Demand is the consumption c(v) for every node, v -> c(v).
	Demand map[int64]float64

	// DemandNodes is the set D of nodes with c(v) > 0.
	DemandNodes map[int64]bool

	// SP[u][v] is the shortest path from u to v, as a node-id sequence
	// starting at u and ending at v.
	SP map[int64]map[int64][]int64

	// SPL[u][v] is the length of SP[u][v].
	SPL map[int64]map[int64]float64

	// TC[u][v] is the sum of demand at every node downstream of u along
	// SP[u][v], excluding u itself.
	TC map[int64]map[int64]float64
}

// Run computes the PrecomputedBundle for g. It fails with InvalidInput
// if the graph is not connected or any node carries negative demand.
func Run(g *domain.StreetGraph) (*Bundle, error) {
	if g.NodeCount() == 0 {
		return nil, apperror.ErrEmptyGraph
	}
	if errs := g.Validate(); len(errs) > 0 {
		return nil, apperror.NewWithField(apperror.CodeInvalidInput, errs[0].Error(), "graph")
	}
	if !domain.IsConnected(g) {
		return nil, apperror.ErrDisconnectedGraph
	}

	ids := g.SortedNodeIDs()

	demand := make(map[int64]float64, len(ids))
	demandNodes := make(map[int64]bool)
	for _, id := range ids {
		node, _ := g.GetNode(id)
		demand[id] = node.Demand
		if node.Demand > domain.Epsilon {
			demandNodes[id] = true
		}
	}

	sp := make(map[int64]map[int64][]int64, len(ids))
	spl := make(map[int64]map[int64]float64, len(ids))
	tc := make(map[int64]map[int64]float64, len(ids))

	for _, u := range ids {
		tree := domain.Dijkstra(g, u)
		sp[u] = make(map[int64][]int64, len(ids))
		spl[u] = make(map[int64]float64, len(ids))
		tc[u] = make(map[int64]float64, len(ids))

		for _, v := range ids {
			path := domain.ReconstructPath(tree, v)
			sp[u][v] = path
			spl[u][v] = tree.Distance[v]
			tc[u][v] = downstreamConsumption(path, demand)
		}
	}

	return &Bundle{
		Graph:       g,
		Demand:      demand,
		DemandNodes: demandNodes,
		SP:          sp,
		SPL:         spl,
		TC:          tc,
	}, nil
}

// downstreamConsumption sums demand over every node in path except the
// first (u itself); TC[u][u] is 0 since a single-node path has nothing
// downstream of u.
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
