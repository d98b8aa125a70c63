// Package hydraulic defines the external HydraulicProbe collaborator
// interface. The planning core never reimplements hydraulic simulation;
// it only consumes a probe's pass/fail verdict and per-link/per-node
// readings.
package hydraulic

import (
	"context"

	"watermesh/internal/costmodel"
	"watermesh/pkg/domain"
)

const (
	minPressureM  = 15.0
	maxPressureM  = 60.0
	maxVelocityMS = 1.2
)

// NodeReading is a probe's per-node result.
type NodeReading struct {
	Supplied bool
	HeadM    float64
	PressureM float64
}

// LinkReading is a probe's per-link result.
type LinkReading struct {
	FlowM3PerDay float64
	VelocityMS   float64
	HeadlossM    float64
}

// Verdict is the outcome of a single probe invocation.
type Verdict struct {
	Success bool
	Nodes   map[int64]NodeReading
	Links   map[domain.EdgeKey]LinkReading
}

// Probe models the external hydraulic solver. Implementations may call
// out to a real simulator process; the core only ever sees Evaluate's
// return value.
type Probe interface {
	Evaluate(ctx context.Context, sized *costmodel.Result, tankCapacityM3 float64, source int64) (*Verdict, error)
}

// EvaluateVerdict derives a pass/fail verdict from per-node/per-link
// readings using the fixed thresholds every Probe implementation must
// honor: no node with reduced demand, pressure within [15m, 60m], and
// velocity at most 1.2 m/s.
func EvaluateVerdict(nodes map[int64]NodeReading, links map[domain.EdgeKey]LinkReading) bool {
	for _, n := range nodes {
		if !n.Supplied {
			return false
		}
		if n.PressureM < minPressureM || n.PressureM > maxPressureM {
			return false
		}
	}
	for _, l := range links {
		if l.VelocityMS > maxVelocityMS {
			return false
		}
	}
	return true
}
