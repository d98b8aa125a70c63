package domain

import "container/heap"

// pqItem is an entry in Dijkstra's priority queue.
type pqItem struct {
	node     int64
	distance float64
	index    int
}

// pq is a min-heap over pqItem, ordered by distance with a deterministic
// tie-break on node id so repeated runs over the same graph produce
// bit-identical shortest-path trees (P10).
type pq []*pqItem

func (q pq) Len() int { return len(q) }

func (q pq) Less(i, j int) bool {
	if q[i].distance != q[j].distance {
		return q[i].distance < q[j].distance
	}
	return q[i].node < q[j].node
}

func (q pq) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *pq) Push(x any) {
	item := x.(*pqItem)
	item.index = len(*q)
	*q = append(*q, item)
}

func (q *pq) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*q = old[:n-1]
	return item
}

// ShortestPathTree is the result of a single-source Dijkstra run: the
// distance and predecessor of every node reached from source.
type ShortestPathTree struct {
	Source   int64
	Distance map[int64]float64
	Parent   map[int64]int64
}

// Dijkstra computes shortest paths by edge length from source over the
// undirected graph g. Street-graph lengths are always positive, so no
// negative-cycle fallback is needed.
func Dijkstra(g *StreetGraph, source int64) *ShortestPathTree {
	ids := g.SortedNodeIDs()

	dist := make(map[int64]float64, len(ids))
	parent := make(map[int64]int64, len(ids))
	for _, id := range ids {
		dist[id] = Infinity
		parent[id] = -1
	}
	dist[source] = 0

	queue := make(pq, 0, len(ids))
	heap.Init(&queue)
	heap.Push(&queue, &pqItem{node: source, distance: 0})

	for queue.Len() > 0 {
		current := heap.Pop(&queue).(*pqItem)
		u := current.node

		if current.distance > dist[u]+Epsilon {
			continue
		}

		for _, v := range g.Neighbors(u) {
			edge, ok := g.GetEdge(u, v)
			if !ok {
				continue
			}

			newDist := dist[u] + edge.Length
			if newDist < dist[v]-Epsilon {
				dist[v] = newDist
				parent[v] = u
				heap.Push(&queue, &pqItem{node: v, distance: newDist})
			}
		}
	}

	return &ShortestPathTree{Source: source, Distance: dist, Parent: parent}
}

// ReconstructPath walks the parent map from sink back to source and returns
// the path in source-to-sink order, or nil if sink is unreachable.
func ReconstructPath(tree *ShortestPathTree, sink int64) []int64 {
	if tree.Distance[sink] == Infinity {
		return nil
	}

	var path []int64
	for cur := sink; ; {
		path = append(path, cur)
		if cur == tree.Source {
			break
		}
		p, ok := tree.Parent[cur]
		if !ok || p == -1 {
			return nil
		}
		cur = p
	}

	// reverse into source-to-sink order
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// PathLength sums edge lengths along a node-id path.
func PathLength(g *StreetGraph, path []int64) float64 {
	var total float64
	for i := 0; i+1 < len(path); i++ {
		if e, ok := g.GetEdge(path[i], path[i+1]); ok {
			total += e.Length
		}
	}
	return total
}

// PathEdgeKeys returns the canonical EdgeKey for every edge along a path.
func PathEdgeKeys(path []int64) []EdgeKey {
	keys := make([]EdgeKey, 0, len(path)-1)
	for i := 0; i+1 < len(path); i++ {
		keys = append(keys, newEdgeKey(path[i], path[i+1]))
	}
	return keys
}
