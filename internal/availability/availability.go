// Package availability implements the AvailabilityEvaluator: per-edge
// failure probability normalization, isolation-segment derivation, and
// Monte-Carlo connectivity sampling against a finalized, sized
// network.
package availability

import (
	"math"
	"math/rand"
	"sort"

	"watermesh/internal/costmodel"
	"watermesh/pkg/apperror"
	"watermesh/pkg/domain"
)

// Model selects which weighted failure-probability formula to apply.
type Model int

const (
	// Legacy applies the original pipe/non-pipe weighted split.
	Legacy Model = iota
	// Current applies the annualized-baseline weighted formula.
	Current
)

// Config parameterizes one evaluation run.
type Config struct {
	Model          Model
	FailureRatePct float64 // pipes per km per year, default 0.4 (expressed as a percent-style rate, matching the legacy formula's f/100)
	Repetitions    int
	Seed           uint64
	Source         int64
}

// Result is the finalized availability report.
type Result struct {
	NodeAvgAvailability   float64
	NodeWorstAvailability float64
	NetworkAvailability   float64
	MeanUnsuppliedWaterM3 float64
	MTBFDays              float64
	AFY                   float64
	YAUW                  float64
}

// EdgeAttributes carries the raw physical attributes an edge needs for
// normalization; availability never touches costmodel sizing beyond
// diameter/flow/valve, so callers assemble this from whatever source
// (freshly built network or persisted catalog) holds age/material.
type EdgeAttributes struct {
	DiameterMM    float64
	AgeYears      float64
	LengthM       float64
	WallThickness float64
	Material      domain.Material
	HasValve      bool
}

func normMaterial(m domain.Material) float64 {
	switch m {
	case domain.MaterialHDPE:
		return 1
	case domain.MaterialMDPEBlack:
		return 0.67
	case domain.MaterialMDPEBlue, domain.MaterialGI, domain.MaterialLDPEBlack, domain.MaterialAC:
		return 0.33
	default: // UPVC, DI
		return 0
	}
}

func threshold(value float64, t1, t2, t3 float64) float64 {
	switch {
	case value > t1:
		return 1
	case value > t2:
		return 0.67
	case value > t3:
		return 0.33
	default:
		return 0
	}
}

// normalize derives the {0,0.33,0.67,1} normalization vector for one
// edge's attributes, per the fixed thresholds in the external
// interface contract. Wall thickness is inverted: a thicker pipe is
// safer, so the highest threshold maps to 0.
func normalize(a EdgeAttributes) (diam, age, length, wall, material float64) {
	diam = threshold(a.DiameterMM, 560, 250, 90)
	age = threshold(a.AgeYears, 100, 67, 33)
	length = threshold(a.LengthM, 200, 100, 50)
	switch {
	case a.WallThickness > 33.2:
		wall = 0
	case a.WallThickness > 14.8:
		wall = 0.33
	case a.WallThickness > 3.8:
		wall = 0.67
	default:
		wall = 1
	}
	material = normMaterial(a.Material)
	return
}

const (
	legacyPipeWeight    = 0.396
	legacyNonPipeWeight = 0.604
)

var legacyWeights = struct{ age, diameter, length, wallThickness, material float64 }{
	age: 0.266, diameter: 0.308, length: 0.167, wallThickness: 0.068, material: 0.191,
}

var currentWeights = struct{ age, diameter, length, wallThickness, material float64 }{
	age: 0.105, diameter: 0.122, length: 0.066, wallThickness: 0.027, material: 0.076,
}

const currentBaseline = 0.413 + 0.191

// survivalProbability returns the probability an edge does NOT fail in
// one Monte-Carlo trial, per cfg.Model. Sampling compares a uniform
// draw against this value directly (draw >= survival -> edge fails),
// matching the source's get_probability/new_get_probability naming,
// which also returns survival probability despite calling it
// "probability" unqualified.
func survivalProbability(cfg Config, a EdgeAttributes) float64 {
	diam, age, length, wall, material := normalize(a)
	switch cfg.Model {
	case Current:
		relative := diam*currentWeights.diameter + length*currentWeights.length +
			age*currentWeights.age + wall*currentWeights.wallThickness + material*currentWeights.material
		weightSum := relative + currentBaseline
		q := (0.4 * 24) / (24 * 365)
		maxMonthUnavailability := 1 - math.Pow(1-q, a.LengthM/1000)
		return 1 - maxMonthUnavailability*weightSum
	default: // Legacy
		f := cfg.FailureRatePct / 100
		pNonPipe := f * legacyNonPipeWeight
		relative := diam*legacyWeights.diameter + length*legacyWeights.length +
			age*legacyWeights.age + wall*legacyWeights.wallThickness + material*legacyWeights.material
		pPipe := f * legacyPipeWeight * relative
		return 1 - (pNonPipe + pPipe)
	}
}

// direction orients an edge by distance-to-source: flow moves from the
// farther node toward the nearer one, mirroring the aggregation
// sizer's consumption-toward-source flow direction.
func direction(key domain.EdgeKey, distFromSource map[int64]float64) (from, to int64) {
	if distFromSource[key.From] >= distFromSource[key.To] {
		return key.From, key.To
	}
	return key.To, key.From
}

// isolationSegments derives, for every edge, the set of edges (itself
// included) that fail together when that edge fails: walk upstream and
// downstream along the flow direction until an edge carrying a valve
// stops the walk (inclusive of the stopping edge), mirroring the
// source's find_edges_until_valve/pipe_failure_map.
func isolationSegments(g *domain.StreetGraph, sized map[domain.EdgeKey]*costmodel.SizedEdge, distFromSource map[int64]float64) map[domain.EdgeKey][]domain.EdgeKey {
	// successors[u] = directed edges leaving u (toward the node nearer source).
	successors := make(map[int64][]domain.EdgeKey)
	predecessors := make(map[int64][]domain.EdgeKey)
	for key := range sized {
		from, to := direction(key, distFromSource)
		successors[from] = append(successors[from], key)
		predecessors[to] = append(predecessors[to], key)
	}

	segments := make(map[domain.EdgeKey][]domain.EdgeKey, len(sized))
	for key, se := range sized {
		if se.HasValve {
			segments[key] = []domain.EdgeKey{key}
			continue
		}
		from, to := direction(key, distFromSource)
		segment := []domain.EdgeKey{key}
		segment = append(segment, walkUntilValve(from, predecessors, sized, true)...)
		segment = append(segment, walkUntilValve(to, successors, sized, false)...)
		segments[key] = dedupeKeys(segment)
	}
	return segments
}

func walkUntilValve(node int64, adjacency map[int64][]domain.EdgeKey, sized map[domain.EdgeKey]*costmodel.SizedEdge, reverse bool) []domain.EdgeKey {
	var collected []domain.EdgeKey
	edges := adjacency[node]
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	for _, key := range edges {
		se := sized[key]
		collected = append(collected, key)
		if se.HasValve {
			continue
		}
		var next int64
		if reverse {
			_, next = oppositeOf(key, node)
		} else {
			_, next = oppositeOf(key, node)
		}
		collected = append(collected, walkUntilValve(next, adjacency, sized, reverse)...)
	}
	return collected
}

func oppositeOf(key domain.EdgeKey, node int64) (int64, int64) {
	if key.From == node {
		return key.From, key.To
	}
	return key.To, key.From
}

func dedupeKeys(keys []domain.EdgeKey) []domain.EdgeKey {
	seen := make(map[domain.EdgeKey]bool, len(keys))
	var out []domain.EdgeKey
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// Evaluate runs the Monte-Carlo availability sampling against a
// finalized, sized network. checkNodes is the set of demand nodes to
// track; demand maps node id to consumption for unsupplied-water
// accounting.
func Evaluate(cfg Config, g *domain.StreetGraph, sized map[domain.EdgeKey]*costmodel.SizedEdge, attrs map[domain.EdgeKey]EdgeAttributes, checkNodes []int64, demand map[int64]float64) (*Result, error) {
	if cfg.Repetitions <= 0 {
		return nil, apperror.New(apperror.CodeInvalidInput, "monteCarloReps must be positive")
	}
	if _, ok := g.GetNode(cfg.Source); !ok {
		return nil, apperror.ErrInvalidSource
	}

	tree := domain.Dijkstra(g, cfg.Source)

	edgeProb := make(map[domain.EdgeKey]float64, len(sized))
	for key, se := range sized {
		a := attrs[key]
		a.HasValve = se.HasValve
		edgeProb[key] = survivalProbability(cfg, a)
	}

	segments := isolationSegments(g, sized, tree.Distance)

	rng := rand.New(rand.NewSource(int64(cfg.Seed)))

	nodeHits := make(map[int64]int, len(checkNodes))
	for _, n := range checkNodes {
		nodeHits[n] = 0
	}
	var networkHits int
	var unsupplied []float64

	for rep := 0; rep < cfg.Repetitions; rep++ {
		failed := make(map[domain.EdgeKey]bool)
		for key := range sized {
			if rng.Float64() >= edgeProb[key] {
				for _, seg := range segments[key] {
					failed[seg] = true
				}
			}
		}

		working := g.Clone()
		for key := range failed {
			working.RemoveEdge(key.From, key.To)
		}

		reachable := domain.BFSReachable(working, cfg.Source)

		allReached := true
		var unsuppliedThisRep float64
		for _, n := range checkNodes {
			if reachable[n] {
				nodeHits[n]++
			} else {
				allReached = false
				unsuppliedThisRep += demand[n]
			}
		}
		if allReached {
			networkHits++
		}
		unsupplied = append(unsupplied, unsuppliedThisRep)
	}

	reps := float64(cfg.Repetitions)
	var sumAvail, worst float64
	worst = math.Inf(1)
	for _, n := range checkNodes {
		a := float64(nodeHits[n]) / reps
		sumAvail += a
		if a < worst {
			worst = a
		}
	}
	var avgAvail float64
	if len(checkNodes) > 0 {
		avgAvail = sumAvail / float64(len(checkNodes))
	} else {
		worst = 0
	}

	networkAvail := float64(networkHits) / reps

	var meanUnsupplied float64
	for _, u := range unsupplied {
		meanUnsupplied += u
	}
	if len(unsupplied) > 0 {
		meanUnsupplied /= float64(len(unsupplied))
	}

	var mtbf, afy, yauw float64
	if networkAvail < 1 && networkAvail > 0 {
		mtbf = -networkAvail * (1.0 / 365) / (networkAvail - 1)
		afy = 1 / mtbf
		yauw = afy * meanUnsupplied
	}

	return &Result{
		NodeAvgAvailability:   avgAvail,
		NodeWorstAvailability: worst,
		NetworkAvailability:   networkAvail,
		MeanUnsuppliedWaterM3: meanUnsupplied,
		MTBFDays:              mtbf,
		AFY:                   afy,
		YAUW:                  yauw,
	}, nil
}
