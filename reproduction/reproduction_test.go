package reproduction

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jharvey/biome-substrate/catalogue"
	"github.com/jharvey/biome-substrate/config"
	"github.com/jharvey/biome-substrate/graph"
)

func simpleParent(t *testing.T, fitness float64) *graph.Network {
	t.Helper()
	n := graph.NewNetwork()
	a, err := n.AddFromCatalogue(catalogue.SensorEnergyRatio, nil)
	require.NoError(t, err)
	b, err := n.AddFromCatalogue(catalogue.OutputAccelerate, nil)
	require.NoError(t, err)
	_, err = n.AddConnection(a, b, 1.0, graph.AutoInnovation)
	require.NoError(t, err)
	n.Fitness = fitness
	return n
}

func TestCrossoverChildReferencesOnlyExistingNodes(t *testing.T) {
	p1 := simpleParent(t, 1.0)
	p2 := simpleParent(t, 2.0)
	rng := rand.New(rand.NewSource(1))

	child := Crossover(p1, p2, rng)

	for _, c := range child.Connections() {
		_, okFrom := child.Node(c.FromID)
		_, okTo := child.Node(c.ToID)
		assert.True(t, okFrom)
		assert.True(t, okTo)
	}
}

func TestCrossoverChildFitnessResetsToZero(t *testing.T) {
	p1 := simpleParent(t, 1.0)
	p2 := simpleParent(t, 2.0)
	rng := rand.New(rand.NewSource(2))

	child := Crossover(p1, p2, rng)
	assert.Equal(t, 0.0, child.Fitness)
}

func TestCrossoverChildGenerationIsOnePastYoungest(t *testing.T) {
	p1 := simpleParent(t, 1.0)
	p1.Generation = 3
	p2 := simpleParent(t, 2.0)
	p2.Generation = 5
	rng := rand.New(rand.NewSource(3))

	child := Crossover(p1, p2, rng)
	assert.Equal(t, 6, child.Generation)
}

func TestDistanceIsZeroForIdenticalNetworks(t *testing.T) {
	p1 := simpleParent(t, 1.0)
	p2 := p1.Clone()
	cfg := config.Default()

	d := Distance(p1, p2, cfg)
	assert.Equal(t, 0.0, d)
}

func TestDistanceGrowsWithDisjointConnections(t *testing.T) {
	cfg := config.Default()
	cfg.SmallGenomeThreshold = 0 // force N = max(len) rather than 1, for a stable comparison

	p1 := simpleParent(t, 1.0)
	p2 := simpleParent(t, 1.0)
	hidden := p2.AddHidden(0, 0)
	outID := p2.OutputIDs()[0]
	_, err := p2.AddConnection(hidden, outID, 1.0, graph.AutoInnovation)
	require.NoError(t, err)

	before := Distance(p1, simpleParent(t, 1.0), cfg)
	after := Distance(p1, p2, cfg)
	assert.Greater(t, after, before)
}

func TestDistanceIncludesMeanWeightDifference(t *testing.T) {
	cfg := config.Default()
	p1 := simpleParent(t, 1.0)
	p2 := simpleParent(t, 1.0)

	// Give p2's matching connection (same innovation, since both networks
	// were built identically from innovation 1) a different weight.
	p2.Connections()[0].Weight = -1.0

	d := Distance(p1, p2, cfg)
	assert.Greater(t, d, 0.0)
}
