package module

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jharvey/biome-substrate/activation"
	"github.com/jharvey/biome-substrate/catalogue"
	"github.com/jharvey/biome-substrate/config"
	"github.com/jharvey/biome-substrate/graph"
)

// TestBindHonoursDeclaredAffinity checks that an interface node's affinity
// comes from its InterfaceDeclaration, not AddHidden's Behavioural default —
// the clock's Period input declares Genetic affinity precisely so a gene can
// drive it through an ordinary graph connection.
func TestBindHonoursDeclaredAffinity(t *testing.T) {
	n := graph.NewNetwork()
	inst := Bind(n, NewClockDefinition())

	en, ok := n.Node(inst.Binding.InputNodeIDs[0])
	require.True(t, ok)
	assert.Equal(t, graph.Genetic, en.Affinity)

	period, ok := n.Node(inst.Binding.InputNodeIDs[1])
	require.True(t, ok)
	assert.Equal(t, graph.Genetic, period.Affinity)

	tic, ok := n.Node(inst.Binding.OutputNodeIDs[0])
	require.True(t, ok)
	assert.Equal(t, graph.Behavioural, tic.Affinity)
}

// TestBindDefaultsZeroActivationToIdentity checks that an interface
// declaration which omits Activation (as the clock's Period input does)
// still gets a valid activation.Kind: the zero value is not one, since
// activation.Kind's enum starts at 1.
func TestBindDefaultsZeroActivationToIdentity(t *testing.T) {
	n := graph.NewNetwork()
	def := &Definition{
		ID:     "zero-activation-probe",
		Inputs: []InterfaceDeclaration{{Name: "in", Affinity: graph.Genetic}},
	}
	inst := Bind(n, def)

	node, ok := n.Node(inst.Binding.InputNodeIDs[0])
	require.True(t, ok)
	assert.Equal(t, activation.Identity, node.Activation)
}

// TestClockTicksWhenPeriodIsWiredFromAGene exercises the graph-wired
// configuration path spec.md §4.8 describes: a gene feeds the clock's
// Period input through an ordinary connection, rather than a test setting
// periodNode.Output directly. This only works once Bind gives the Period
// node a valid activation (the declaration leaves Activation at its zero
// value) — before that fix, activateIfDue silently failed to apply it and
// the node's output never left zero, so the gene-configured period was
// discarded and the clock never ticked via this path.
//
// The connected gene contributes to the Period node's accumulator, same as
// any other hidden node; its effective period is exactly the gene's value,
// since Period's own DefaultBias is 0 (spec.md §9: the graph owns the
// period, not the module), so a gene value of 0.5 yields a period of 0.5.
// The first tick only primes that value into the node's output — the
// clock's own process() callback runs before activate, so it still sees the
// pre-tick zero — and the remaining ticks drive the accumulator to the
// crossing. En is left unwired, so it holds its default-enabled value of 1.0.
func TestClockTicksWhenPeriodIsWiredFromAGene(t *testing.T) {
	n := graph.NewNetwork()
	geneID, err := n.AddFromCatalogue(catalogue.GeneClockPeriod, nil)
	require.NoError(t, err)
	require.NoError(t, n.SetGeneValue(catalogue.GeneClockPeriod, 0.5))

	inst := Bind(n, NewClockDefinition())
	periodID := inst.Binding.InputNodeIDs[1]
	_, err = n.AddConnection(geneID, periodID, 1.0, graph.AutoInnovation)
	require.NoError(t, err)

	ev := graph.NewEvaluator(config.Default())
	tic, _ := n.Node(inst.Binding.OutputNodeIDs[0])

	require.NoError(t, ev.Process(n, 0.2)) // primes Period's output to 0.5; process() still sees the old zero
	assert.Equal(t, 0.0, tic.Output)

	period, err := GetModuleInput(inst, n, 1)
	require.NoError(t, err)
	require.InDelta(t, 0.5, period, 1e-9, "Period should equal the gene's value, with no interface-node offset")

	require.NoError(t, ev.Process(n, 0.2)) // acc = 0.2
	assert.Equal(t, 0.0, tic.Output, "well under a full period elapsed")

	require.NoError(t, ev.Process(n, 0.2)) // acc = 0.4
	assert.Equal(t, 0.0, tic.Output, "still under a full period elapsed")

	require.NoError(t, ev.Process(n, 0.2)) // acc = 0.6, crosses 0.5
	assert.Equal(t, 1.0, tic.Output, "accumulator crossed the gene-configured period, should tic")
}

// TestClockScenarioSixWiredFromConstantsAndGene is spec.md §8 scenario 6
// verbatim: En wired from Constant_1, Period wired from Gene_ClockPeriod at
// its default bias of 1.0, ticked at dt=0.25 for 10 ticks (2.5s total, 2.5
// periods). Tic must raise exactly 2 or 3 times, tolerating one tick of
// boundary slop from the wiring's priming tick.
func TestClockScenarioSixWiredFromConstantsAndGene(t *testing.T) {
	n := graph.NewNetwork()
	constantID, err := n.AddFromCatalogue(catalogue.GeneConstant1, nil)
	require.NoError(t, err)
	periodGeneID, err := n.AddFromCatalogue(catalogue.GeneClockPeriod, nil)
	require.NoError(t, err)

	inst := Bind(n, NewClockDefinition())
	_, err = n.AddConnection(constantID, inst.Binding.InputNodeIDs[0], 1.0, graph.AutoInnovation)
	require.NoError(t, err)
	_, err = n.AddConnection(periodGeneID, inst.Binding.InputNodeIDs[1], 1.0, graph.AutoInnovation)
	require.NoError(t, err)

	ev := graph.NewEvaluator(config.Default())
	tic, _ := n.Node(inst.Binding.OutputNodeIDs[0])

	tics := 0
	for i := 0; i < 10; i++ {
		require.NoError(t, ev.Process(n, 0.25))
		if tic.Output == 1.0 {
			tics++
		}
	}

	assert.True(t, tics == 2 || tics == 3, "expected 2 or 3 tics over 10 ticks at dt=0.25 with period 1.0, got %d", tics)
}

func TestBindCreatesDistinctInterfaceNodes(t *testing.T) {
	n := graph.NewNetwork()
	def := NewClockDefinition()

	inst := Bind(n, def)

	require.Len(t, inst.Binding.InputNodeIDs, 2)
	require.Len(t, inst.Binding.OutputNodeIDs, 1)
	assert.NotEqual(t, inst.Binding.InputNodeIDs[0], inst.Binding.InputNodeIDs[1])
	assert.NotEqual(t, inst.Binding.InputNodeIDs[1], inst.Binding.OutputNodeIDs[0])
	assert.Len(t, n.HiddenIDs(), 3)
}

func TestSetAndGetModuleOutputRoundTrip(t *testing.T) {
	n := graph.NewNetwork()
	def := &Definition{
		ID:      "probe",
		Inputs:  []InterfaceDeclaration{{Name: "in"}},
		Outputs: []InterfaceDeclaration{{Name: "out"}},
	}
	inst := Bind(n, def)

	require.NoError(t, SetModuleOutput(inst, n, 0, 3.5))
	node, ok := n.Node(inst.Binding.OutputNodeIDs[0])
	require.True(t, ok)
	assert.Equal(t, 3.5, node.Output)

	node, ok = n.Node(inst.Binding.InputNodeIDs[0])
	require.True(t, ok)
	node.Output = 7.0
	got, err := GetModuleInput(inst, n, 0)
	require.NoError(t, err)
	assert.Equal(t, 7.0, got)
}

func TestSetModuleOutputRejectsOutOfRangeSlot(t *testing.T) {
	n := graph.NewNetwork()
	inst := Bind(n, NewClockDefinition())
	err := SetModuleOutput(inst, n, 5, 1.0)
	assert.Error(t, err)
}

func TestClockEmitsTicWhenPeriodElapses(t *testing.T) {
	n := graph.NewNetwork()
	inst := Bind(n, NewClockDefinition())

	// Drive the En and Period input nodes directly, as network evaluation
	// would. Both Bias and Output are set: Bias so the node's own
	// Identity activation (accumulator 0, since nothing is wired in) holds
	// the value steady every subsequent tick, and Output so clockProcess —
	// which runs before this tick's activate pass — sees the right value
	// immediately rather than only from the tick after.
	enNode, _ := n.Node(inst.Binding.InputNodeIDs[0])
	enNode.Bias, enNode.Output = 1.0, 1.0
	periodNode, _ := n.Node(inst.Binding.InputNodeIDs[1])
	periodNode.Bias, periodNode.Output = 1.0, 1.0

	ev := graph.NewEvaluator(config.Default())

	tic, _ := n.Node(inst.Binding.OutputNodeIDs[0])

	require.NoError(t, ev.Process(n, 0.6))
	assert.Equal(t, 0.0, tic.Output, "less than a full period elapsed, should not tic yet")

	require.NoError(t, ev.Process(n, 0.6))
	assert.Equal(t, 1.0, tic.Output, "accumulator crossed the period, should tic")
}

func TestClockDoesNotShareStateBetweenClones(t *testing.T) {
	n := graph.NewNetwork()
	inst := Bind(n, NewClockDefinition())
	enNode, _ := n.Node(inst.Binding.InputNodeIDs[0])
	enNode.Bias, enNode.Output = 1.0, 1.0
	periodNode, _ := n.Node(inst.Binding.InputNodeIDs[1])
	periodNode.Bias, periodNode.Output = 10.0, 10.0

	ev := graph.NewEvaluator(config.Default())
	require.NoError(t, ev.Process(n, 5.0))

	clone := n.Clone()
	require.NoError(t, ev.Process(clone, 5.0))

	original, _ := n.Node(inst.Binding.OutputNodeIDs[0])
	assert.Equal(t, 0.0, original.Output, "the original network must be unaffected by advancing the clone")
}
