package main

import (
	"math/rand"

	"github.com/jharvey/biome-substrate/config"
	"github.com/jharvey/biome-substrate/graph"
	"github.com/jharvey/biome-substrate/starter"
)

// population is a fixed-size collection of bibite networks advanced one
// generation at a time. It is the host-role counterpart spec.md §1 excludes
// from the core: reproduction scheduling, fitness evaluation, and
// speciation over a generation all belong here, not in package graph.
type population struct {
	cfg     *config.Config
	members []*graph.Network
	ledger  *innovationLedger
}

// newPopulation seeds size bibites from randomized starter networks
// (spec.md §6 build_randomized_starter), each independently jittered by rng.
func newPopulation(cfg *config.Config, size int, variance float64, rng *rand.Rand) (*population, error) {
	members := make([]*graph.Network, 0, size)
	for i := 0; i < size; i++ {
		n, err := starter.BuildRandomizedStarter(rng, variance)
		if err != nil {
			return nil, err
		}
		members = append(members, n)
	}
	return &population{cfg: cfg, members: members, ledger: newInnovationLedger(1)}, nil
}

// runGeneration evaluates every member's fitness against env across ticks
// simulated ticks of dt, speciates the result, and replaces p.members with
// the next generation's offspring. It returns the stats for the generation
// that was just evaluated (not the offspring that replace it).
func (p *population) runGeneration(gen int, env *environment, ticks int, dt float64, speciationThreshold float64, rng *rand.Rand) (generationStats, error) {
	ev := graph.NewEvaluator(p.cfg)
	for _, n := range p.members {
		fitness, err := evaluateFitness(ev, n, env, ticks, dt)
		if err != nil {
			return generationStats{}, err
		}
		n.Fitness = fitness
	}

	groups := speciate(p.members, p.cfg, speciationThreshold)
	stats := summarize(gen, p.members, len(groups))

	p.ledger.reset()
	p.members = reproducePopulation(groups, len(p.members), p.cfg, p.ledger, rng)
	for _, n := range p.members {
		n.Generation = gen + 1
	}

	return stats, nil
}

// best returns the fittest member of the current generation.
func (p *population) best() *graph.Network {
	best := p.members[0]
	for _, n := range p.members {
		if n.Fitness > best.Fitness {
			best = n
		}
	}
	return best
}
