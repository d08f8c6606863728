package graph

import (
	"fmt"

	"github.com/jharvey/biome-substrate/catalogue"
)

// Affinity is re-exported from catalogue so callers need not import both
// packages to describe a node's update class.
type Affinity = catalogue.Affinity

const (
	Genetic     = catalogue.Genetic
	Biological  = catalogue.Biological
	Behavioural = catalogue.Behavioural
)

// effectiveness is the affinity effectiveness matrix of spec.md §4.2, indexed
// [from][to]: the multiplicative scale applied to a connection's weight at
// propagation time.
var effectiveness = [3][3]float64{
	// to:      Gen   Bio   Beh
	Genetic:     {1.00, 0.80, 0.30},
	Biological:  {0.05, 1.00, 1.00},
	Behavioural: {0.01, 0.30, 1.00},
}

// Effectiveness returns the connection-effectiveness multiplier for a link
// running from an affinity-`from` node to an affinity-`to` node.
func Effectiveness(from, to Affinity) float64 {
	return effectiveness[from][to]
}

// mutationPrior is the affinity mutation-prior matrix of spec.md §4.2,
// indexed [from][to]: the relative probability a proposed connection of this
// directionality is accepted by the connection-add mutator.
var mutationPrior = [3][3]float64{
	Genetic:     {0.50, 1.00, 0.80},
	Biological:  {0.05, 0.70, 1.00},
	Behavioural: {0.01, 0.20, 1.00},
}

// MutationPrior returns the acceptance probability for a proposed connection
// of the given directionality.
func MutationPrior(from, to Affinity) float64 {
	return mutationPrior[from][to]
}

// AffinityName returns the serializable name of an affinity, for package
// persist.
func AffinityName(a Affinity) (string, error) {
	switch a {
	case Genetic, Biological, Behavioural:
		return a.String(), nil
	default:
		return "", fmt.Errorf("graph: unknown affinity %d", a)
	}
}

// AffinityByName resolves a serialized affinity name back to its value, for
// package persist.
func AffinityByName(name string) (Affinity, error) {
	switch name {
	case "Genetic":
		return Genetic, nil
	case "Biological":
		return Biological, nil
	case "Behavioural":
		return Behavioural, nil
	default:
		return 0, fmt.Errorf("graph: unknown affinity name %q", name)
	}
}

// ShouldUpdate reports whether a node of the given affinity is due to update
// this tick, per spec.md §4.2's three update-timing rules.
func ShouldUpdate(affinity Affinity, lastUpdateTick, currentTick int64, biologicalInterval int64) bool {
	switch affinity {
	case Genetic:
		return false
	case Biological:
		return currentTick-lastUpdateTick >= biologicalInterval
	case Behavioural:
		return true
	default:
		return false
	}
}
