// Package starter builds the initial network every new lineage begins from
// (spec.md §6). It is grounded on the teacher's
// neat/genetics/genome.go's newGenomeRand (connection-matrix-based random
// topology generator) and the population's minimal-genome spawn pattern,
// adapted to BIOME's fixed gene/sensor/output skeleton plus three seed
// connections instead of NEAT's fully-random initial wiring.
package starter

import (
	"fmt"
	"math/rand"

	"github.com/jharvey/biome-substrate/catalogue"
	"github.com/jharvey/biome-substrate/graph"
)

// seedConnection names one of the three fixed initial connections spec.md
// §6 specifies by name.
type seedConnection struct {
	from, to catalogue.ID
	weight   float64
}

var seedConnections = []seedConnection{
	{catalogue.SensorPlantAngle, catalogue.OutputRotate, 1.0},
	{catalogue.SensorPlantCloseness, catalogue.OutputAccelerate, -1.0},
	{catalogue.SensorFullness, catalogue.OutputDigestion, 1.0},
}

// starterSensors are the four sensor-class nodes spec.md §6 names for the
// starter network, a strict subset of the full catalogue's ~25+7 sensors.
var starterSensors = []catalogue.ID{
	catalogue.SensorEnergyRatio,
	catalogue.SensorFullness,
	catalogue.SensorPlantCloseness,
	catalogue.SensorPlantAngle,
}

// unitRangeGenes lists the genes build_randomized_starter clamps to [0, 1]
// after jittering, per spec.md §6.
var unitRangeGenes = map[catalogue.ID]bool{
	catalogue.GeneColorR: true,
	catalogue.GeneColorG: true,
	catalogue.GeneColorB: true,
	catalogue.GeneDiet:   true,
}

// positiveFloorGenes lists every gene spec.md §6 floors at 0.1 after
// jittering: SizeRatio/MetabolismSpeed explicitly, plus every radius- and
// period-valued gene (vision, pheromone, herding, clock).
var positiveFloorGenes = map[catalogue.ID]bool{
	catalogue.GeneSizeRatio:          true,
	catalogue.GeneMetabolismSpeed:    true,
	catalogue.GeneVisionRadius:       true,
	catalogue.GenePheromoneRadius:    true,
	catalogue.GeneHerdingRadius:      true,
	catalogue.GeneClockPeriod:        true,
	catalogue.GeneReproductionCooldown: true,
}

// BuildStarterNetwork creates a network containing every gene-class node at
// its catalogue default bias, the four named sensor-class nodes, every
// output-class node, and the three fixed seed connections. seed is accepted
// for interface symmetry with BuildRandomizedStarter but otherwise unused:
// the unrandomized starter is deterministic.
func BuildStarterNetwork(seed int64) (*graph.Network, error) {
	n := graph.NewNetwork()

	for _, e := range catalogue.ByCategory(catalogue.CategoryGene) {
		if _, err := n.AddFromCatalogue(e.ID, nil); err != nil {
			return nil, fmt.Errorf("starter: instantiate gene %s: %w", e.Name, err)
		}
	}
	for _, id := range starterSensors {
		if _, err := n.AddFromCatalogue(id, nil); err != nil {
			return nil, fmt.Errorf("starter: instantiate sensor %d: %w", id, err)
		}
	}
	for _, e := range catalogue.ByCategory(catalogue.CategoryOutput) {
		if _, err := n.AddFromCatalogue(e.ID, nil); err != nil {
			return nil, fmt.Errorf("starter: instantiate output %s: %w", e.Name, err)
		}
	}

	for _, sc := range seedConnections {
		fromID, toID, err := resolveSeed(n, sc)
		if err != nil {
			return nil, err
		}
		if _, err := n.AddConnection(fromID, toID, sc.weight, graph.AutoInnovation); err != nil {
			return nil, fmt.Errorf("starter: seed connection: %w", err)
		}
	}

	return n, nil
}

// BuildRandomizedStarter builds the same skeleton as BuildStarterNetwork,
// then jitters every gene's bias by bias + U(-variance,+variance)*|bias+0.1|,
// clamped per spec.md §6's per-gene rules: colors and diet to [0,1];
// radii/periods and SizeRatio/MetabolismSpeed to >= 0.1.
func BuildRandomizedStarter(rng *rand.Rand, variance float64) (*graph.Network, error) {
	n, err := BuildStarterNetwork(0)
	if err != nil {
		return nil, err
	}

	for _, id := range n.GeneIDs() {
		node, ok := n.Node(id)
		if !ok {
			continue
		}
		jitter := uniform(rng, -variance, variance) * (absF(node.Bias+0.1))
		value := node.Bias + jitter

		switch {
		case unitRangeGenes[node.CatalogueID]:
			value = clamp(value, 0, 1)
		case positiveFloorGenes[node.CatalogueID]:
			value = maxF(value, 0.1)
		}

		if err := n.SetGeneValue(node.CatalogueID, value); err != nil {
			return nil, fmt.Errorf("starter: jitter gene %d: %w", node.CatalogueID, err)
		}
	}

	return n, nil
}

// ErrMissingEntry reports that validate_starter found an essential
// catalogue entry missing. It wraps the offending id.
type ErrMissingEntry struct {
	CatalogueID catalogue.ID
}

func (e *ErrMissingEntry) Error() string {
	return fmt.Sprintf("starter: missing essential catalogue entry %d", e.CatalogueID)
}

// essentialGenes and essentialOutputs are the catalogue ids
// ValidateStarter requires present, per spec.md §6.
var essentialGenes = []catalogue.ID{
	catalogue.GeneSizeRatio,
	catalogue.GeneMetabolismSpeed,
	catalogue.GeneDiet,
}

var essentialOutputs = []catalogue.ID{
	catalogue.OutputAccelerate,
}

// ValidateStarter confirms the essential genes (SizeRatio, MetabolismSpeed,
// Diet) and at least one movement output (Accelerate) are present. It
// returns an *ErrMissingEntry for the first missing id found, or nil.
func ValidateStarter(n *graph.Network) error {
	instantiated := make(map[catalogue.ID]bool)
	for _, id := range append(append(n.GeneIDs(), n.SensorIDs()...), n.OutputIDs()...) {
		if node, ok := n.Node(id); ok {
			instantiated[node.CatalogueID] = true
		}
	}
	for _, id := range essentialGenes {
		if !instantiated[id] {
			return &ErrMissingEntry{CatalogueID: id}
		}
	}
	for _, id := range essentialOutputs {
		if !instantiated[id] {
			return &ErrMissingEntry{CatalogueID: id}
		}
	}
	return nil
}

func resolveSeed(n *graph.Network, sc seedConnection) (fromID, toID int, err error) {
	fromID, ok := catalogueNodeID(n, sc.from)
	if !ok {
		return 0, 0, fmt.Errorf("starter: seed source %d not instantiated", sc.from)
	}
	toID, ok = catalogueNodeID(n, sc.to)
	if !ok {
		return 0, 0, fmt.Errorf("starter: seed target %d not instantiated", sc.to)
	}
	return fromID, toID, nil
}

func catalogueNodeID(n *graph.Network, id catalogue.ID) (int, bool) {
	for _, candidateList := range [][]int{n.GeneIDs(), n.SensorIDs(), n.OutputIDs()} {
		for _, nodeID := range candidateList {
			if node, ok := n.Node(nodeID); ok && node.CatalogueID == id {
				return nodeID, true
			}
		}
	}
	return 0, false
}

func uniform(rng *rand.Rand, lo, hi float64) float64 { return lo + rng.Float64()*(hi-lo) }
func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
