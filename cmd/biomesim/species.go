package main

import (
	"math/rand"
	"sort"

	"github.com/jharvey/biome-substrate/catalogue"
	"github.com/jharvey/biome-substrate/config"
	"github.com/jharvey/biome-substrate/graph"
	"github.com/jharvey/biome-substrate/mutation"
	"github.com/jharvey/biome-substrate/reproduction"
)

// species groups networks considered mutually compatible by
// reproduction.Distance, adapted from neat/genetics/species.go's Species
// (age/members/fitness bookkeeping) pared down to what a single-generation
// toy harness needs: no aging penalty, no stagnation tracking, since
// cmd/biomesim is a demonstration loop rather than a full NEAT population
// manager (species.go's AgeOfLastImprovement/extinction logic belongs to a
// host, not the substrate, and is out of SPEC_FULL.md's scope for the
// reference harness).
type species struct {
	representative *graph.Network
	members        []*graph.Network
}

// speciate groups pop into species by threshold, in the teacher's
// "compare against the first member of each existing species, else start a
// new one" single-pass style (species.go's Population.speciate).
func speciate(pop []*graph.Network, cfg *config.Config, threshold float64) []*species {
	var groups []*species
	for _, n := range pop {
		placed := false
		for _, g := range groups {
			if reproduction.Distance(n, g.representative, cfg) < threshold {
				g.members = append(g.members, n)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, &species{representative: n, members: []*graph.Network{n}})
		}
	}
	return groups
}

func (g *species) meanFitness() float64 {
	if len(g.members) == 0 {
		return 0
	}
	var sum float64
	for _, n := range g.members {
		sum += n.Fitness
	}
	return sum / float64(len(g.members))
}

func (g *species) sortedByFitnessDesc() []*graph.Network {
	out := append([]*graph.Network(nil), g.members...)
	sort.Slice(out, func(i, j int) bool { return out[i].Fitness > out[j].Fitness })
	return out
}

// reproducePopulation performs one epoch: culling to each species' top
// half, fitness-proportionate offspring allocation across species
// (adapted from population_epoch.go's "expected offspring" pass, collapsed
// from its parallel per-species worker-pool shape to a single sequential
// pass since spec.md §5 already makes this the host's call to parallelize,
// not the substrate's), and crossover+mutation to refill the population
// back up to targetSize. Every new connection produced by structural
// mutation whose endpoints are both catalogue nodes has its innovation id
// reconciled through ledger so independently-evolved lineages converge on
// one shared id, per SPEC_FULL.md §4's population-wide innovation ledger.
func reproducePopulation(groups []*species, targetSize int, cfg *config.Config, ledger *innovationLedger, rng *rand.Rand) []*graph.Network {
	var totalMean float64
	for _, g := range groups {
		totalMean += g.meanFitness()
	}
	if totalMean <= 0 {
		totalMean = 1
	}

	offspring := make([]*graph.Network, 0, targetSize)
	allocated := 0
	for gi, g := range groups {
		share := g.meanFitness() / totalMean
		n := int(float64(targetSize) * share)
		if gi == len(groups)-1 {
			n = targetSize - allocated // last species absorbs the rounding remainder
		}
		if n < 1 {
			n = 1
		}
		allocated += n

		ranked := g.sortedByFitnessDesc()
		elite := ranked[0]
		offspring = append(offspring, elite.Clone())

		parents := ranked[:(len(ranked)+1)/2] // cull to the top half
		for len(offspring) < allocated && len(offspring) < targetSize {
			p1 := parents[rng.Intn(len(parents))]
			p2 := parents[rng.Intn(len(parents))]
			child := reproduction.Crossover(p1, p2, rng)
			mutation.AllNonstructural(child, rng, cfg)
			// No bound modules in this harness's population, so the module
			// definition lookup is empty: ModuleDuplicate/ModuleTierUpgrade
			// are no-ops, and Modularization is unaffected by it.
			mutation.AllStructural(child, rng, cfg, nil)
			reconcileInnovations(child, ledger)
			offspring = append(offspring, child)
		}
	}

	// Rounding can leave offspring short of targetSize (every species floored
	// to at least 1 member); top up by cloning+mutating from the best species.
	best := groups[0]
	for _, g := range groups {
		if g.meanFitness() > best.meanFitness() {
			best = g
		}
	}
	bestRanked := best.sortedByFitnessDesc()
	for len(offspring) < targetSize {
		child := bestRanked[0].Clone()
		mutation.AllNonstructural(child, rng, cfg)
		reconcileInnovations(child, ledger)
		offspring = append(offspring, child)
	}

	return offspring[:targetSize]
}

// reconcileInnovations reassigns the innovation id of every connection whose
// endpoints are both catalogue-backed to the population-wide id ledger
// hands out for that (from, to) catalogue pair. Connections touching a
// hidden node keep whatever id graph.AddConnection minted locally.
func reconcileInnovations(n *graph.Network, ledger *innovationLedger) {
	for _, c := range n.Connections() {
		fromNode, ok := n.Node(c.FromID)
		if !ok {
			continue
		}
		toNode, ok := n.Node(c.ToID)
		if !ok {
			continue
		}
		if fromNode.CatalogueID == catalogue.NONE || toNode.CatalogueID == catalogue.NONE {
			continue
		}
		c.Innovation = ledger.assign(fromNode.CatalogueID, toNode.CatalogueID)
	}
}
