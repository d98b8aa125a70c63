package domain

import "sort"

// BFSReachable returns the set of node ids reachable from source, walking
// the undirected adjacency of g.
func BFSReachable(g *StreetGraph, source int64) map[int64]bool {
	visited := map[int64]bool{source: true}
	queue := []int64{source}

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]

		for _, v := range g.Neighbors(u) {
			if visited[v] {
				continue
			}
			visited[v] = true
			queue = append(queue, v)
		}
	}

	return visited
}

// IsConnected reports whether every node of g is reachable from any single
// node (the graph is connected as an undirected simple graph).
func IsConnected(g *StreetGraph) bool {
	ids := g.SortedNodeIDs()
	if len(ids) == 0 {
		return true
	}
	reachable := BFSReachable(g, ids[0])
	return len(reachable) == len(ids)
}

// ConnectedComponents partitions g's nodes into connected components.
// Components are returned in the order their first (smallest-id) node is
// discovered, and each component's node list is sorted ascending - this
// keeps finalization deterministic (P10).
func ConnectedComponents(g *StreetGraph) [][]int64 {
	visited := make(map[int64]bool)
	var components [][]int64

	for _, id := range g.SortedNodeIDs() {
		if visited[id] {
			continue
		}

		var component []int64
		queue := []int64{id}
		visited[id] = true

		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			component = append(component, u)

			for _, v := range g.Neighbors(u) {
				if !visited[v] {
					visited[v] = true
					queue = append(queue, v)
				}
			}
		}

		sort.Slice(component, func(i, j int) bool { return component[i] < component[j] })
		components = append(components, component)
	}

	return components
}

// LargestComponent returns the node ids of g's largest connected component,
// breaking ties by the smallest minimum node id - the Builder's
// finalization step keeps only this component.
func LargestComponent(g *StreetGraph) []int64 {
	components := ConnectedComponents(g)
	if len(components) == 0 {
		return nil
	}

	best := components[0]
	for _, c := range components[1:] {
		if len(c) > len(best) || (len(c) == len(best) && c[0] < best[0]) {
			best = c
		}
	}
	return best
}
