// Package main implements cmd/biomesim, the reference host harness for the
// BIOME substrate: a toy multi-agent population loop that drives the
// substrate across generations, in the role spec.md §1 assigns to "the world
// simulation" — an external collaborator, not part of the core.
package main

import (
	"github.com/jharvey/biome-substrate/catalogue"
)

// structuralKey identifies a connection by the catalogue ids of its
// endpoints rather than by per-network node id. BIOME node ids are dense
// per-network counters (spec.md §3), not globally allocated across a
// population the way the teacher's NNode ids are (neat/genetics/innovation.go's
// InnovationsObserver keys innovations by global node id pairs precisely
// because NEAT allocates node ids from one population-wide counter). Two
// lineages in the same generation can only be meaningfully recognized as
// having evolved "the same" connection when both endpoints are
// catalogue-backed (genes, sensors, outputs) — hidden-node endpoints have no
// population-wide identity, so a structural novelty touching a hidden node
// keeps the per-network innovation id AddConnection already minted.
type structuralKey struct {
	from, to catalogue.ID
}

// innovationLedger is the population-wide record spec.md §9's Open Question
// discussion (and standard NEAT practice, per SPEC_FULL.md §4) calls for:
// identical structural mutations arising independently in two lineages
// within one generation are assigned the same innovation number, so that
// genetic distance (reproduction.Distance) treats them as homologous rather
// than spuriously disjoint. Grounded on neat/genetics/innovation.go's
// InnovationsObserver, narrowed to the catalogue-id-keyed case BIOME's
// per-network node ids make tractable.
type innovationLedger struct {
	next    int64
	known   map[structuralKey]int64
}

func newInnovationLedger(start int64) *innovationLedger {
	return &innovationLedger{next: start, known: make(map[structuralKey]int64)}
}

// assign returns the shared innovation id for the (from, to) catalogue pair,
// minting one on first sight this generation.
func (l *innovationLedger) assign(from, to catalogue.ID) int64 {
	key := structuralKey{from, to}
	if id, ok := l.known[key]; ok {
		return id
	}
	id := l.next
	l.next++
	l.known[key] = id
	return id
}

// reset is called once per generation: independently-evolved structural
// novelty is only unified within a generation, matching the teacher's own
// per-epoch innovation bookkeeping (population_epoch.go clears its
// "innovations of the current generation" list at the start of every epoch).
func (l *innovationLedger) reset() {
	l.known = make(map[structuralKey]int64)
}
