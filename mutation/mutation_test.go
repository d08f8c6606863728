package mutation

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jharvey/biome-substrate/catalogue"
	"github.com/jharvey/biome-substrate/config"
	"github.com/jharvey/biome-substrate/graph"
	"github.com/jharvey/biome-substrate/module"
)

func buildSmallNetwork(t *testing.T) *graph.Network {
	t.Helper()
	n := graph.NewNetwork()
	a, err := n.AddFromCatalogue(catalogue.SensorEnergyRatio, nil)
	require.NoError(t, err)
	b, err := n.AddFromCatalogue(catalogue.OutputAccelerate, nil)
	require.NoError(t, err)
	_, err = n.AddConnection(a, b, 1.0, graph.AutoInnovation)
	require.NoError(t, err)
	return n
}

func TestWeightShiftKeepsWeightInBounds(t *testing.T) {
	n := buildSmallNetwork(t)
	rng := rand.New(rand.NewSource(1))
	cfg := config.Default()

	for i := 0; i < 100; i++ {
		WeightShift(n, rng, cfg)
	}
	for _, c := range n.Connections() {
		assert.GreaterOrEqual(t, c.Weight, graph.WeightMin)
		assert.LessOrEqual(t, c.Weight, graph.WeightMax)
	}
}

func TestWeightRandomizeStaysInRange(t *testing.T) {
	n := buildSmallNetwork(t)
	rng := rand.New(rand.NewSource(2))
	WeightRandomize(n, rng)
	for _, c := range n.Connections() {
		assert.GreaterOrEqual(t, c.Weight, -2.0)
		assert.LessOrEqual(t, c.Weight, 2.0)
	}
}

func TestNodeAddSplitPreservesInsertionTimeBehavior(t *testing.T) {
	n := buildSmallNetwork(t)
	rng := rand.New(rand.NewSource(3))

	orig := n.Connections()[0]
	origWeight := orig.Weight

	require.True(t, NodeAddSplit(n, rng))

	assert.False(t, orig.Enabled, "the split connection must be disabled")
	require.Len(t, n.HiddenIDs(), 1)
	hiddenID := n.HiddenIDs()[0]

	var toHidden, fromHidden *graph.Connection
	for _, c := range n.Connections() {
		if c.ToID == hiddenID {
			toHidden = c
		}
		if c.FromID == hiddenID {
			fromHidden = c
		}
	}
	require.NotNil(t, toHidden)
	require.NotNil(t, fromHidden)
	assert.Equal(t, 1.0, toHidden.Weight)
	assert.Equal(t, origWeight, fromHidden.Weight)
}

func TestNodeAddSplitNoEnabledConnectionsIsNoop(t *testing.T) {
	n := graph.NewNetwork()
	rng := rand.New(rand.NewSource(4))
	assert.False(t, NodeAddSplit(n, rng))
}

func TestNodeRemoveOnlyTargetsHidden(t *testing.T) {
	n := buildSmallNetwork(t)
	rng := rand.New(rand.NewSource(5))
	assert.False(t, NodeRemove(n, rng), "no hidden nodes exist yet")

	NodeAddSplit(n, rng)
	require.Len(t, n.HiddenIDs(), 1)
	assert.True(t, NodeRemove(n, rng))
	assert.Empty(t, n.HiddenIDs())
}

func TestConnectionAddRejectsSelfLoopAndDuplicate(t *testing.T) {
	n := buildSmallNetwork(t)
	rng := rand.New(rand.NewSource(6))
	for i := 0; i < 50; i++ {
		ConnectionAdd(n, rng)
	}
	seen := make(map[[2]int]bool)
	for _, c := range n.Connections() {
		assert.NotEqual(t, c.FromID, c.ToID)
		key := [2]int{c.FromID, c.ToID}
		assert.False(t, seen[key], "duplicate ordered edge must never be added")
		seen[key] = true
	}
}

func TestBiasShiftClampsRange(t *testing.T) {
	n := buildSmallNetwork(t)
	rng := rand.New(rand.NewSource(7))
	cfg := config.Default()
	for i := 0; i < 100; i++ {
		BiasShift(n, rng, cfg, false)
	}
	for _, id := range n.OutputIDs() {
		node, _ := n.Node(id)
		assert.GreaterOrEqual(t, node.Bias, -3.0)
		assert.LessOrEqual(t, node.Bias, 3.0)
	}
}

func TestBiasShiftExcludesGenesByDefault(t *testing.T) {
	n := graph.NewNetwork()
	_, err := n.AddFromCatalogue(catalogue.GeneColorR, nil)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(8))
	cfg := config.Default()

	before, _ := n.GetOutput(catalogue.GeneColorR, 0.1)
	for i := 0; i < 20; i++ {
		BiasShift(n, rng, cfg, false)
	}
	after, _ := n.GetOutput(catalogue.GeneColorR, 0.1)
	assert.Equal(t, before, after)
}

func TestAffinityShiftStaysWithinBounds(t *testing.T) {
	n := graph.NewNetwork()
	hiddenID := n.AddHidden(0, 0)
	rng := rand.New(rand.NewSource(9))
	for i := 0; i < 50; i++ {
		AffinityShift(n, rng)
		node, _ := n.Node(hiddenID)
		assert.GreaterOrEqual(t, int(node.Affinity), int(graph.Genetic))
		assert.LessOrEqual(t, int(node.Affinity), int(graph.Behavioural))
	}
}

func TestAddInterfaceNodeNeverDuplicatesCatalogueInstance(t *testing.T) {
	n := graph.NewNetwork()
	rng := rand.New(rand.NewSource(10))
	seen := make(map[catalogue.ID]bool)
	for i := 0; i < len(catalogue.All())+5; i++ {
		AddInterfaceNode(n, rng)
	}
	for _, ids := range [][]int{n.GeneIDs(), n.SensorIDs(), n.OutputIDs()} {
		for _, id := range ids {
			node, _ := n.Node(id)
			assert.False(t, seen[node.CatalogueID])
			seen[node.CatalogueID] = true
		}
	}
}

func TestModuleDuplicateSkipsSingletonCategory(t *testing.T) {
	n := graph.NewNetwork()
	def := &module.Definition{ID: "stomach", Category: "Stomach", Outputs: []module.InterfaceDeclaration{{Name: "out"}}}
	module.Bind(n, def)

	rng := rand.New(rand.NewSource(11))
	defs := map[string]*module.Definition{"stomach": def}
	assert.False(t, ModuleDuplicate(n, rng, defs), "Stomach is a singleton category, never duplication-eligible")
	assert.Len(t, n.Modules, 1)
}

func TestModuleDuplicateClonesInternalConnectionsWithFreshNodes(t *testing.T) {
	n := graph.NewNetwork()
	def := &module.Definition{
		ID:       "probe",
		Category: "Probe",
		Inputs:   []module.InterfaceDeclaration{{Name: "in"}},
		Outputs:  []module.InterfaceDeclaration{{Name: "out"}},
	}
	inst := module.Bind(n, def)
	_, err := n.AddConnection(inst.Binding.InputNodeIDs[0], inst.Binding.OutputNodeIDs[0], 2.0, graph.AutoInnovation)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(12))
	defs := map[string]*module.Definition{"probe": def}
	require.True(t, ModuleDuplicate(n, rng, defs))

	require.Len(t, n.Modules, 2)
	newBinding := n.Modules[1]
	assert.NotEqual(t, inst.Binding.InputNodeIDs[0], newBinding.InputNodeIDs[0])
	assert.NotEqual(t, inst.Binding.OutputNodeIDs[0], newBinding.OutputNodeIDs[0])

	var cloned *graph.Connection
	for _, c := range n.Connections() {
		if c.FromID == newBinding.InputNodeIDs[0] && c.ToID == newBinding.OutputNodeIDs[0] {
			cloned = c
		}
	}
	require.NotNil(t, cloned, "the internal connection must be cloned onto the new instance's fresh nodes")
	assert.InDelta(t, 2.0, cloned.Weight, 0.5, "weight should be a small perturbation of the original")
}

func TestModuleDuplicateWithNoEligibleModulesIsNoop(t *testing.T) {
	n := graph.NewNetwork()
	rng := rand.New(rand.NewSource(13))
	assert.False(t, ModuleDuplicate(n, rng, nil))
}

func TestModuleTierUpgradeIncrementsTierAndRunsHook(t *testing.T) {
	n := graph.NewNetwork()
	upgraded := 0
	def := &module.Definition{
		ID:      "tiered",
		MaxTier: 2,
		Outputs: []module.InterfaceDeclaration{{Name: "out"}},
		TierUpgrade: func(inst *module.Instance, net *graph.Network, newTier int) {
			upgraded = newTier
		},
	}
	module.Bind(n, def)

	rng := rand.New(rand.NewSource(14))
	defs := map[string]*module.Definition{"tiered": def}
	require.True(t, ModuleTierUpgrade(n, rng, defs))
	assert.Equal(t, 1, n.Modules[0].Tier)
	assert.Equal(t, 1, upgraded)
}

func TestModuleTierUpgradeSkipsModulesAtMaxTier(t *testing.T) {
	n := graph.NewNetwork()
	def := &module.Definition{ID: "capped", MaxTier: 0, Outputs: []module.InterfaceDeclaration{{Name: "out"}}}
	module.Bind(n, def)

	rng := rand.New(rand.NewSource(15))
	defs := map[string]*module.Definition{"capped": def}
	assert.False(t, ModuleTierUpgrade(n, rng, defs))
	assert.Equal(t, 0, n.Modules[0].Tier)
}

func TestModularizationWrapsAConnectedFreeCluster(t *testing.T) {
	n := graph.NewNetwork()
	a := n.AddHidden(0, 0)
	b := n.AddHidden(0, 0)
	c := n.AddHidden(0, 0)
	_, err := n.AddConnection(a, b, 1.0, graph.AutoInnovation)
	require.NoError(t, err)
	_, err = n.AddConnection(b, c, 1.0, graph.AutoInnovation)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(16))
	require.True(t, Modularization(n, rng))

	require.Len(t, n.Modules, 1)
	require.Len(t, n.MetaTemplates, 1)
	assert.GreaterOrEqual(t, len(n.MetaTemplates[0].NodeIDs), 2)
	assert.LessOrEqual(t, len(n.MetaTemplates[0].NodeIDs), 4)

	moduleOutputs := n.ModuleOutputNodeSet()
	for _, id := range n.MetaTemplates[0].NodeIDs {
		assert.False(t, moduleOutputs[id], "a Meta module's nodes must still be activated normally")
	}
}

func TestModularizationSkipsNodesAlreadyOwnedByAModule(t *testing.T) {
	n := graph.NewNetwork()
	module.Bind(n, &module.Definition{ID: "solo", Outputs: []module.InterfaceDeclaration{{Name: "out"}}})

	rng := rand.New(rand.NewSource(17))
	assert.False(t, Modularization(n, rng), "the only hidden node is already module-owned")
}
