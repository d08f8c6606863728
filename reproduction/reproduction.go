// Package reproduction implements crossover and genetic-distance computation
// over graph.Network values (spec.md §4.7). It is grounded on the teacher's
// neat/genetics/genome_compatibility.go (two-pointer merge-by-innovation
// distance) and genome_reproduce.go (dominant/recessive parent crossover),
// adapted to BIOME's single unified Network type and to spec.md's simpler
// two-coefficient distance formula (see DESIGN.md's Open Question decision).
package reproduction

import (
	"math"
	"math/rand"
	"sort"

	"github.com/jharvey/biome-substrate/config"
	"github.com/jharvey/biome-substrate/graph"
)

// Crossover produces a child network from parents p1 and p2 per spec.md
// §4.7: every node of the fitter ("dominant") parent (by Network.Fitness) is
// cloned into the child, and for every dominant connection either its own
// copy or the recessive parent's matching-innovation copy is chosen by a
// fair coin; a connection with no match in the recessive parent (disjoint or
// excess) is always inherited from the dominant parent. The child's fitness
// is 0 and its generation is one past the younger of the two parents'.
func Crossover(p1, p2 *graph.Network, rng *rand.Rand) *graph.Network {
	dom, rec := p1, p2
	if p2.Fitness > p1.Fitness {
		dom, rec = p2, p1
	}

	child := dom.Clone()
	child.Fitness = 0
	if p1.Generation > p2.Generation {
		child.Generation = p1.Generation + 1
	} else {
		child.Generation = p2.Generation + 1
	}
	child.AdoptNextInnovation(p1.NextInnovationPeek())
	child.AdoptNextInnovation(p2.NextInnovationPeek())

	recByInnovation := make(map[int64]*graph.Connection, len(rec.Connections()))
	for _, c := range rec.Connections() {
		recByInnovation[c.Innovation] = c
	}

	for _, childConn := range child.Connections() {
		if recConn, ok := recByInnovation[childConn.Innovation]; ok && rng.Float64() < 0.5 {
			childConn.Weight = recConn.Weight
			childConn.Enabled = recConn.Enabled
		}
	}

	return child
}

// Distance computes the speciation metric of spec.md §4.7:
//
//	d = c2 * D/N + c3 * W̄
//
// where D counts connections whose innovation id appears in exactly one of
// a, b; N is the larger connection count (or 1 below cfg.SmallGenomeThreshold
// on both sides); and W̄ is the mean absolute weight difference across
// matching innovations (0 if none match).
func Distance(a, b *graph.Network, cfg *config.Config) float64 {
	ac, bc := sortedByInnovation(a.Connections()), sortedByInnovation(b.Connections())

	var disjointExcess int
	var matchingCount int
	var weightDiffSum float64

	i, j := 0, 0
	for i < len(ac) && j < len(bc) {
		switch {
		case ac[i].Innovation == bc[j].Innovation:
			weightDiffSum += math.Abs(ac[i].Weight - bc[j].Weight)
			matchingCount++
			i++
			j++
		case ac[i].Innovation < bc[j].Innovation:
			disjointExcess++
			i++
		default:
			disjointExcess++
			j++
		}
	}
	disjointExcess += (len(ac) - i) + (len(bc) - j)

	n := len(ac)
	if len(bc) > n {
		n = len(bc)
	}
	if n < cfg.SmallGenomeThreshold {
		n = 1
	}

	meanWeightDiff := 0.0
	if matchingCount > 0 {
		meanWeightDiff = weightDiffSum / float64(matchingCount)
	}

	return cfg.DisjointExcessCoeff*float64(disjointExcess)/float64(n) + cfg.WeightDiffCoeff*meanWeightDiff
}

func sortedByInnovation(cs []*graph.Connection) []*graph.Connection {
	out := append([]*graph.Connection(nil), cs...)
	sort.Slice(out, func(i, j int) bool { return out[i].Innovation < out[j].Innovation })
	return out
}
