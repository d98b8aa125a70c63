package domain

// NetworkStatistics summarizes structural properties of a street graph or
// a candidate/sized network snapshot, independent of the planning stage
// that produced it.
type NetworkStatistics struct {
	NodeCount         int
	EdgeCount         int
	TotalLength       float64
	AverageEdgeLength float64
	AverageDegree     float64
	MaxDegree         int
	MinDegree         int
	IsConnected       bool
}

// ComputeNetworkStatistics walks g once and derives degree, length, and
// connectivity statistics.
func ComputeNetworkStatistics(g *StreetGraph) *NetworkStatistics {
	stats := &NetworkStatistics{
		NodeCount: g.NodeCount(),
		EdgeCount: g.EdgeCount(),
	}

	degree := make(map[int64]int, stats.NodeCount)
	for _, id := range g.SortedNodeIDs() {
		degree[id] = len(g.Neighbors(id))
	}

	var totalLength float64
	for _, e := range g.Edges {
		totalLength += e.Length
	}
	stats.TotalLength = totalLength
	if stats.EdgeCount > 0 {
		stats.AverageEdgeLength = totalLength / float64(stats.EdgeCount)
	}

	if len(degree) > 0 {
		minDegree := degree[g.SortedNodeIDs()[0]]
		var totalDegree int
		for _, d := range degree {
			totalDegree += d
			if d > stats.MaxDegree {
				stats.MaxDegree = d
			}
			if d < minDegree {
				minDegree = d
			}
		}
		stats.MinDegree = minDegree
		stats.AverageDegree = float64(totalDegree) / float64(len(degree))
	}

	stats.IsConnected = IsConnected(g)

	return stats
}

// Degree returns the number of incident edges a node has within g, used by
// the Builder/CostModel to detect valve-bearing junctions (degree > 2).
func Degree(g *StreetGraph, node int64) int {
	return len(g.Neighbors(node))
}
