package hydraulic

import (
	"context"
	"math"

	"watermesh/internal/costmodel"
	"watermesh/pkg/domain"
)

// StubProbe is a deterministic, in-process stand-in for the real
// external hydraulic solver (EPANET in the reference deployment,
// invoked as a subprocess against a generated .inp file). It derives
// head/pressure/velocity from pipe sizing alone, with no iterative
// hydraulic solve. Both cmd/waterplan and the planning API construct
// it as their Probe; a Probe that shells out to, or calls over RPC
// into, a real simulator can take its place behind the same interface.
type StubProbe struct {
	Graph *domain.StreetGraph

	// BaseHeadM is the head at the source, in meters above the datum.
	BaseHeadM float64

	// MinorLossPerMeter approximates headloss per meter of pipe run,
	// used only to produce a plausible pressure gradient.
	MinorLossPerMeter float64
}

// NewStubProbe returns a StubProbe with reference defaults: 45m source
// head and a gentle 0.01 m/m headloss gradient, enough to keep a
// modestly sized network within the [15m, 60m] pressure band.
func NewStubProbe(graph *domain.StreetGraph) *StubProbe {
	return &StubProbe{Graph: graph, BaseHeadM: 45, MinorLossPerMeter: 0.01}
}

// Evaluate computes a deterministic verdict from the sized network: head
// decreases from source proportionally to cumulative pipe length,
// velocity comes directly from the sizing's flow/diameter.
func (p *StubProbe) Evaluate(_ context.Context, sized *costmodel.Result, _ float64, source int64) (*Verdict, error) {
	adj := make(map[int64][]domain.EdgeKey)
	for key := range sized.Edges {
		adj[key.From] = append(adj[key.From], key)
		adj[key.To] = append(adj[key.To], key)
	}

	head := map[int64]float64{source: p.BaseHeadM}
	visited := map[int64]bool{source: true}
	queue := []int64{source}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, key := range adj[u] {
			se := sized.Edges[key]
			var v int64
			if key.From == u {
				v = key.To
			} else {
				v = key.From
			}
			if visited[v] {
				continue
			}
			visited[v] = true
			head[v] = head[u] - p.MinorLossPerMeter*se.Length
			queue = append(queue, v)
		}
	}

	nodes := make(map[int64]NodeReading, len(head))
	for id, h := range head {
		nodes[id] = NodeReading{Supplied: true, HeadM: h, PressureM: h}
	}

	links := make(map[domain.EdgeKey]LinkReading, len(sized.Edges))
	for key, se := range sized.Edges {
		dM := float64(se.DiameterMM) / 1000
		velocity := (4 * se.FlowM3PerDay / 86400) / (math.Pi * dM * dM)
		links[key] = LinkReading{
			FlowM3PerDay: se.FlowM3PerDay,
			VelocityMS:   velocity,
			HeadlossM:    p.MinorLossPerMeter * se.Length,
		}
	}

	return &Verdict{
		Success: EvaluateVerdict(nodes, links),
		Nodes:   nodes,
		Links:   links,
	}, nil
}
