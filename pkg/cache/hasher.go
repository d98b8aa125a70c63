package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"watermesh/pkg/domain"
)

// GraphHash computes a stable, order-independent hash of g's topology,
// demand, and pipe attributes, for use as a cache key.
func GraphHash(g *domain.StreetGraph) string {
	if g == nil {
		return ""
	}
	hash := sha256.Sum256(graphCanonical(g))
	return hex.EncodeToString(hash[:16])
}

func graphCanonical(g *domain.StreetGraph) []byte {
	ids := g.SortedNodeIDs()

	type edgeData struct {
		from, to                         int64
		length, age, diameter, thickness float64
		material                         domain.Material
	}
	edges := make([]edgeData, 0, len(g.Edges))
	for key, e := range g.Edges {
		edges = append(edges, edgeData{key.From, key.To, e.Length, e.Age, e.Diameter, e.WallThickness, e.Material})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].from != edges[j].from {
			return edges[i].from < edges[j].from
		}
		return edges[i].to < edges[j].to
	})

	var buf []byte
	for _, id := range ids {
		n, _ := g.GetNode(id)
		buf = append(buf, []byte(fmt.Sprintf("n:%d:%.6f:%.6f:%.6f;", id, n.X, n.Y, n.Demand))...)
	}
	for _, e := range edges {
		buf = append(buf, []byte(fmt.Sprintf("e:%d:%d:%.6f:%.6f:%.6f:%.6f:%d;",
			e.from, e.to, e.length, e.age, e.diameter, e.thickness, e.material))...)
	}
	return buf
}

// BuildBundleKey builds the cache key for a PrecomputedBundle derived from
// a street graph whose hash is graphHash.
func BuildBundleKey(graphHash string) string {
	return fmt.Sprintf("bundle:%s", graphHash)
}
