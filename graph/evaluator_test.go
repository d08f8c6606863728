package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jharvey/biome-substrate/activation"
	"github.com/jharvey/biome-substrate/catalogue"
	"github.com/jharvey/biome-substrate/config"
)

// TestProcessChainHasOneTickLatencyPerHop verifies spec.md §4.5's central
// semantic: a chain of hidden nodes propagates one hop per tick, because a
// destination's accumulator only ever sees a source's output from BEFORE
// this tick's activate phase ran, never the value activate just produced.
func TestProcessChainHasOneTickLatencyPerHop(t *testing.T) {
	n := NewNetwork()
	a := n.AddHidden(activation.Identity, 0)
	b := n.AddHidden(activation.Identity, 0)
	c := n.AddHidden(activation.Identity, 0)
	_, err := n.AddConnection(a, b, 1.0, AutoInnovation)
	require.NoError(t, err)
	_, err = n.AddConnection(b, c, 1.0, AutoInnovation)
	require.NoError(t, err)

	n.nodes[a].Output = 1.0 // seed, bypassing evaluation

	ev := NewEvaluator(config.Default())

	require.NoError(t, ev.Process(n, 0.1))
	assert.Equal(t, 1.0, n.nodes[b].Output, "b sees a's pre-tick output on the first tick")
	assert.Equal(t, 0.0, n.nodes[c].Output, "c must not yet see b's brand-new output within the same tick")

	require.NoError(t, ev.Process(n, 0.1))
	assert.Equal(t, 1.0, n.nodes[c].Output, "c sees b's output only on the tick after b updated")
}

func TestProcessNeverTouchesGeneticNodes(t *testing.T) {
	n := NewNetwork()
	geneID, err := n.AddFromCatalogue(catalogue.GeneColorR, nil)
	require.NoError(t, err)
	require.NoError(t, n.SetGeneValue(catalogue.GeneColorR, 0.77))

	ev := NewEvaluator(config.Default())
	for i := 0; i < 5; i++ {
		require.NoError(t, ev.Process(n, 0.1))
	}

	node := n.nodes[geneID]
	assert.Equal(t, 0.77, node.Output)
	assert.Equal(t, int64(0), node.LastUpdateTick)
}

func TestProcessHonoursBiologicalUpdateInterval(t *testing.T) {
	n := NewNetwork()
	sensorID, err := n.AddFromCatalogue(catalogue.SensorEnergyRatio, nil)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.BiologicalUpdateInterval = 3
	ev := NewEvaluator(cfg)

	require.NoError(t, ev.Process(n, 0.1))
	assert.Equal(t, int64(0), n.nodes[sensorID].LastUpdateTick, "sensor must not update before its first interval elapses")

	require.NoError(t, ev.Process(n, 0.1))
	require.NoError(t, ev.Process(n, 0.1))
	assert.Equal(t, int64(3), n.nodes[sensorID].LastUpdateTick, "sensor updates once the interval elapses at tick 3")

	require.NoError(t, ev.Process(n, 0.1))
	assert.Equal(t, int64(3), n.nodes[sensorID].LastUpdateTick, "sensor must not update again before the next interval elapses")
}

func TestProcessAlwaysUpdatesBehaviouralHiddenNodes(t *testing.T) {
	n := NewNetwork()
	hidden := n.AddHidden(activation.TanH, 0.1)

	ev := NewEvaluator(config.Default())
	for tick := int64(1); tick <= 3; tick++ {
		require.NoError(t, ev.Process(n, 0.1))
		assert.Equal(t, tick, n.nodes[hidden].LastUpdateTick)
	}
}

func TestProcessSkipsDisabledConnections(t *testing.T) {
	n := NewNetwork()
	a, _ := n.AddFromCatalogue(catalogue.SensorEnergyRatio, nil)
	b, _ := n.AddFromCatalogue(catalogue.OutputAccelerate, nil)
	conn, err := n.AddConnection(a, b, 3.0, AutoInnovation)
	require.NoError(t, err)
	conn.Enabled = false
	n.nodes[a].Output = 10.0

	ev := NewEvaluator(config.Default())
	require.NoError(t, ev.Process(n, 0.1))
	assert.Equal(t, 0.0, n.nodes[b].Accumulator, "disabled connections must not contribute to the accumulator")
}

func TestSetSensorWritesOutputDirectlyForBehaviouralSensors(t *testing.T) {
	n := NewNetwork()
	internalID, err := n.AddFromCatalogue(catalogue.SensorEnergyRatio, nil)
	require.NoError(t, err)
	externalID, err := n.AddFromCatalogue(catalogue.SensorOwnSpeed, nil)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.BiologicalUpdateInterval = 2
	ev := NewEvaluator(cfg)

	require.NoError(t, n.SetSensor(catalogue.SensorEnergyRatio, 0.5))
	require.NoError(t, n.SetSensor(catalogue.SensorOwnSpeed, 0.5))

	// An external sensor's reading is visible even before the first Process
	// call, since SetSensor writes its Output directly.
	assert.Equal(t, 0.5, n.nodes[externalID].Output, "external sensor output is set immediately, bypassing activation")

	require.NoError(t, ev.Process(n, 0.1))
	assert.Equal(t, 0.5, n.nodes[externalID].Output, "external sensor output is untouched by the evaluator")
	assert.Equal(t, 0.0, n.nodes[internalID].Output, "internal sensor has not republished before its first interval elapses")

	require.NoError(t, n.SetSensor(catalogue.SensorEnergyRatio, 0.9))
	require.NoError(t, n.SetSensor(catalogue.SensorOwnSpeed, 0.9))
	assert.Equal(t, 0.9, n.nodes[externalID].Output, "external sensor updates the instant SetSensor is called")

	require.NoError(t, ev.Process(n, 0.1))
	assert.Equal(t, 0.9, n.nodes[externalID].Output, "external sensor still reflects the latest SetSensor write")
	assert.Equal(t, 0.9, n.nodes[internalID].Output, "internal sensor republishes its latest reading once its interval elapses")
}

// TestSetSensorIsVisibleToSameTickPropagation is spec.md §8 scenario 1, "minimal
// reflex": a Behavioural sensor set before Process must feed that same tick's
// propagation, not the next one. This is the bug a bias-write SetSensor used
// to have — a fresh reading only reached a downstream output's accumulator on
// the tick after it was set.
func TestSetSensorIsVisibleToSameTickPropagation(t *testing.T) {
	n := NewNetwork()
	sensorID, err := n.AddFromCatalogue(catalogue.SensorPlantAngle, nil)
	require.NoError(t, err)
	outputID, err := n.AddFromCatalogue(catalogue.OutputRotate, nil)
	require.NoError(t, err)
	_, err = n.AddConnection(sensorID, outputID, 1.0, AutoInnovation)
	require.NoError(t, err)

	ev := NewEvaluator(config.Default())

	require.NoError(t, n.SetSensor(catalogue.SensorPlantAngle, 0.5))
	require.NoError(t, ev.Process(n, 0.016))

	assert.InDelta(t, 0.4621, n.nodes[outputID].Output, 1e-3, "a sensor set before Process must be visible to that same tick's propagation")
}

func TestProcessSkipsDanglingConnectionsInReleaseMode(t *testing.T) {
	n := NewNetwork()
	a, _ := n.AddFromCatalogue(catalogue.SensorEnergyRatio, nil)
	b, _ := n.AddFromCatalogue(catalogue.OutputAccelerate, nil)
	_, err := n.AddConnection(a, b, 1.0, AutoInnovation)
	require.NoError(t, err)

	// Simulate a dangling reference by deleting the source node directly,
	// bypassing RemoveHidden's connection cleanup (which would never leave
	// this state reachable through the public API).
	delete(n.nodes, a)

	ev := NewEvaluator(config.Default())
	assert.NotPanics(t, func() {
		require.NoError(t, ev.Process(n, 0.1))
	})
}
