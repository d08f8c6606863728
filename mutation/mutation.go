// Package mutation implements the BIOME substrate's structural and
// parametric mutation operators (spec.md §4.6). It is grounded on the
// teacher's neat/genetics/genome_mutate.go, adapted from genome-level
// mutation (acting on Gene/NNode wrapper types) to acting directly on a
// graph.Network, and from the teacher's global math/rand usage to an
// explicitly passed *rand.Rand so a run is reproducible given a fixed seed
// (spec.md §5's determinism requirement).
package mutation

import (
	"fmt"
	"math/rand"

	"github.com/jharvey/biome-substrate/activation"
	"github.com/jharvey/biome-substrate/catalogue"
	"github.com/jharvey/biome-substrate/config"
	"github.com/jharvey/biome-substrate/graph"
	"github.com/jharvey/biome-substrate/module"
)

// WeightShift adds N(0,1) * power to every connection's weight independently,
// then clamps. power is cfg.WeightShiftPower.
func WeightShift(n *graph.Network, rng *rand.Rand, cfg *config.Config) {
	for _, c := range n.Connections() {
		c.Weight += rng.NormFloat64() * cfg.WeightShiftPower
		c.ClampWeight()
	}
}

// WeightRandomize replaces every connection's weight independently with
// U(-2, +2).
func WeightRandomize(n *graph.Network, rng *rand.Rand) {
	for _, c := range n.Connections() {
		c.Weight = uniform(rng, -2, 2)
		c.ClampWeight()
	}
}

// ConnectionToggle flips Enabled on each connection independently with
// probability prob.
func ConnectionToggle(n *graph.Network, rng *rand.Rand, prob float64) {
	for _, c := range n.Connections() {
		if rng.Float64() < prob {
			c.Enabled = !c.Enabled
		}
	}
}

// ConnectionAdd attempts to add one new connection: a random source node of
// any affinity to a random non-sensor target (output or hidden), rejecting
// self-loops and duplicate edges, and accepting probabilistically by the
// mutation-prior matrix for the chosen directionality. It reports whether a
// connection was added.
func ConnectionAdd(n *graph.Network, rng *rand.Rand) bool {
	allIDs := allNodeIDs(n)
	targets := append(append([]int(nil), n.OutputIDs()...), n.HiddenIDs()...)
	if len(allIDs) == 0 || len(targets) == 0 {
		return false
	}

	fromID := allIDs[rng.Intn(len(allIDs))]
	toID := targets[rng.Intn(len(targets))]
	if fromID == toID {
		return false
	}

	from, ok := n.Node(fromID)
	if !ok {
		return false
	}
	to, ok := n.Node(toID)
	if !ok {
		return false
	}

	prior := graph.MutationPrior(from.Affinity, to.Affinity)
	if rng.Float64() >= prior {
		return false
	}

	_, err := n.AddConnection(fromID, toID, uniform(rng, -2, 2), graph.AutoInnovation)
	return err == nil
}

// NodeAddSplit picks a random enabled connection A->B, disables it, inserts
// a hidden node H between A and B with a randomly chosen hidden-suitable
// activation, and wires A->H (weight 1.0) and H->B (weight = the original
// edge's weight). It reports whether a split was performed.
func NodeAddSplit(n *graph.Network, rng *rand.Rand) bool {
	enabled := make([]*graph.Connection, 0, len(n.Connections()))
	for _, c := range n.Connections() {
		if c.Enabled {
			enabled = append(enabled, c)
		}
	}
	if len(enabled) == 0 {
		return false
	}

	chosen := enabled[rng.Intn(len(enabled))]

	from, _ := n.Node(chosen.FromID)
	to, _ := n.Node(chosen.ToID)

	chosen.Enabled = false

	act := hiddenSuitablePick(rng)
	var hiddenID int
	if from.Affinity == graph.Genetic && to.Affinity == graph.Genetic {
		hiddenID = n.AddHidden(act, 0)
		if h, ok := n.Node(hiddenID); ok {
			h.Affinity = graph.Genetic
		}
	} else {
		hiddenID = n.AddHidden(act, 0)
	}

	if _, err := n.AddConnection(chosen.FromID, hiddenID, 1.0, graph.AutoInnovation); err != nil {
		return false
	}
	if _, err := n.AddConnection(hiddenID, chosen.ToID, chosen.Weight, graph.AutoInnovation); err != nil {
		return false
	}
	return true
}

// NodeRemove deletes one random hidden node not owned by any module
// (RemoveHidden already rejects module-owned nodes), along with every
// connection touching it. It reports whether a node was removed.
func NodeRemove(n *graph.Network, rng *rand.Rand) bool {
	hidden := n.HiddenIDs()
	if len(hidden) == 0 {
		return false
	}
	id := hidden[rng.Intn(len(hidden))]
	return n.RemoveHidden(id) == nil
}

// BiasShift adds N(0,1) * power to the bias of every non-sensor node
// (outputs, hidden nodes, and genes when includeGenes is set), clamping to
// [-3, +3]. For Genetic nodes the new bias is also written to Output, keeping
// a gene's output equal to its bias.
func BiasShift(n *graph.Network, rng *rand.Rand, cfg *config.Config, includeGenes bool) {
	const biasMin, biasMax = -3.0, 3.0
	shiftNode := func(id int) {
		node, ok := n.Node(id)
		if !ok {
			return
		}
		node.Bias += rng.NormFloat64() * cfg.BiasShiftPower
		if node.Bias < biasMin {
			node.Bias = biasMin
		} else if node.Bias > biasMax {
			node.Bias = biasMax
		}
		if node.Affinity == graph.Genetic {
			node.Output = node.Bias
		}
	}
	for _, id := range n.OutputIDs() {
		shiftNode(id)
	}
	for _, id := range n.HiddenIDs() {
		shiftNode(id)
	}
	if includeGenes {
		for _, id := range n.GeneIDs() {
			shiftNode(id)
		}
	}
}

// AffinityShift steps a random hidden node's affinity up or down by one
// level (Genetic < Biological < Behavioural), clamped at the ends.
func AffinityShift(n *graph.Network, rng *rand.Rand) {
	hidden := n.HiddenIDs()
	if len(hidden) == 0 {
		return
	}
	node, _ := n.Node(hidden[rng.Intn(len(hidden))])
	step := 1
	if rng.Float64() < 0.5 {
		step = -1
	}
	next := int(node.Affinity) + step
	if next < int(graph.Genetic) {
		next = int(graph.Genetic)
	} else if next > int(graph.Behavioural) {
		next = int(graph.Behavioural)
	}
	node.Affinity = graph.Affinity(next)
}

// ActivationChange assigns a random hidden-suitable activation function to a
// random hidden node.
func ActivationChange(n *graph.Network, rng *rand.Rand) {
	hidden := n.HiddenIDs()
	if len(hidden) == 0 {
		return
	}
	node, _ := n.Node(hidden[rng.Intn(len(hidden))])
	node.Activation = hiddenSuitablePick(rng)
}

// AddInterfaceNode instantiates one catalogue entry not yet present in the
// network, at its default bias. It reports whether an entry was added.
func AddInterfaceNode(n *graph.Network, rng *rand.Rand) bool {
	candidates := make([]catalogue.Entry, 0)
	instantiated := make(map[catalogue.ID]bool)
	for _, id := range append(append(n.GeneIDs(), n.SensorIDs()...), n.OutputIDs()...) {
		if node, ok := n.Node(id); ok {
			instantiated[node.CatalogueID] = true
		}
	}
	for _, e := range catalogue.All() {
		if !instantiated[e.ID] {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return false
	}
	entry := candidates[rng.Intn(len(candidates))]
	_, err := n.AddFromCatalogue(entry.ID, nil)
	return err == nil
}

// ModuleDuplicate selects a duplication-eligible module instance — one whose
// definition's Category is not a "there can be only one" body-state
// singleton, per module.Definition.DuplicationEligible — and creates a
// fresh instance of the same definition: new node ids, zeroed state, and
// every connection that was purely internal to the source instance
// re-created between the corresponding new nodes with a small weight
// perturbation (spec.md §4.6). defs resolves a binding's DefinitionID to
// its static Definition; bindings with no matching entry are skipped. It
// reports whether a module was duplicated.
func ModuleDuplicate(n *graph.Network, rng *rand.Rand, defs map[string]*module.Definition) bool {
	type candidate struct {
		binding *graph.ModuleBinding
		def     *module.Definition
	}
	var eligible []candidate
	for _, m := range n.Modules {
		def, ok := defs[m.DefinitionID]
		if !ok || !def.DuplicationEligible() {
			continue
		}
		eligible = append(eligible, candidate{m, def})
	}
	if len(eligible) == 0 {
		return false
	}
	chosen := eligible[rng.Intn(len(eligible))]

	inst := module.Bind(n, chosen.def)

	oldToNew := make(map[int]int, len(chosen.binding.InputNodeIDs)+len(chosen.binding.OutputNodeIDs))
	for i, id := range chosen.binding.InputNodeIDs {
		oldToNew[id] = inst.Binding.InputNodeIDs[i]
	}
	for i, id := range chosen.binding.OutputNodeIDs {
		oldToNew[id] = inst.Binding.OutputNodeIDs[i]
	}

	for _, c := range append([]*graph.Connection(nil), n.Connections()...) {
		newFrom, fromOK := oldToNew[c.FromID]
		newTo, toOK := oldToNew[c.ToID]
		if !fromOK || !toOK {
			continue
		}
		weight := c.Weight + rng.NormFloat64()*0.1
		_, _ = n.AddConnection(newFrom, newTo, weight, graph.AutoInnovation)
	}

	return true
}

// ModuleTierUpgrade raises one random below-max-tier module instance's tier
// by one, via module.UpgradeTier (spec.md §4.6). defs resolves a binding's
// DefinitionID to its static Definition; bindings with no matching entry,
// or already at their definition's MaxTier, are skipped. It reports whether
// a module was upgraded.
func ModuleTierUpgrade(n *graph.Network, rng *rand.Rand, defs map[string]*module.Definition) bool {
	type candidate struct {
		binding *graph.ModuleBinding
		def     *module.Definition
	}
	var eligible []candidate
	for _, m := range n.Modules {
		def, ok := defs[m.DefinitionID]
		if !ok || m.Tier >= def.MaxTier {
			continue
		}
		eligible = append(eligible, candidate{m, def})
	}
	if len(eligible) == 0 {
		return false
	}
	chosen := eligible[rng.Intn(len(eligible))]
	inst := &module.Instance{Definition: chosen.def, Binding: chosen.binding}
	return module.UpgradeTier(inst, n) == nil
}

// Modularization wraps a connected cluster of 2-4 hidden nodes not already
// owned by any module in a new Meta module (spec.md §4.6): a MetaTemplate
// records the cluster's full membership, while the new ModuleBinding's
// interface classifies only the boundary-crossing nodes — those with an
// edge arriving from outside the cluster are inputs, those with an edge
// leaving to outside are outputs. No node or connection is touched or
// rewired; this only records ownership. It reports whether a cluster was
// found and wrapped.
func Modularization(n *graph.Network, rng *rand.Rand) bool {
	owned := ownedNodeSet(n)
	var free []int
	for _, id := range n.HiddenIDs() {
		if !owned[id] {
			free = append(free, id)
		}
	}
	if len(free) == 0 {
		return false
	}
	freeSet := make(map[int]bool, len(free))
	for _, id := range free {
		freeSet[id] = true
	}

	adjacency := make(map[int][]int)
	for _, c := range n.Connections() {
		adjacency[c.FromID] = append(adjacency[c.FromID], c.ToID)
		adjacency[c.ToID] = append(adjacency[c.ToID], c.FromID)
	}

	seed := free[rng.Intn(len(free))]
	target := 2 + rng.Intn(3) // 2..4 inclusive
	inCluster := map[int]bool{seed: true}
	cluster := []int{seed}
	frontier := append([]int(nil), adjacency[seed]...)
	for len(cluster) < target && len(frontier) > 0 {
		i := rng.Intn(len(frontier))
		next := frontier[i]
		frontier = append(frontier[:i], frontier[i+1:]...)
		if inCluster[next] || !freeSet[next] {
			continue
		}
		inCluster[next] = true
		cluster = append(cluster, next)
		frontier = append(frontier, adjacency[next]...)
	}
	if len(cluster) < 2 {
		return false
	}

	var inputs, outputs []int
	for _, c := range n.Connections() {
		if inCluster[c.ToID] && !inCluster[c.FromID] {
			inputs = appendOnce(inputs, c.ToID)
		}
		if inCluster[c.FromID] && !inCluster[c.ToID] {
			outputs = appendOnce(outputs, c.FromID)
		}
	}

	templateName := fmt.Sprintf("meta-%d", len(n.MetaTemplates)+1)
	n.Modules = append(n.Modules, &graph.ModuleBinding{
		DefinitionID:  templateName,
		Type:          graph.ModuleMeta,
		InputNodeIDs:  inputs,
		OutputNodeIDs: outputs,
		State:         make(map[string]float64),
	})
	n.MetaTemplates = append(n.MetaTemplates, &graph.MetaTemplate{
		Name:    templateName,
		NodeIDs: cluster,
	})
	return true
}

func ownedNodeSet(n *graph.Network) map[int]bool {
	owned := make(map[int]bool)
	for _, m := range n.Modules {
		for _, id := range m.InputNodeIDs {
			owned[id] = true
		}
		for _, id := range m.OutputNodeIDs {
			owned[id] = true
		}
	}
	return owned
}

func appendOnce(ids []int, id int) []int {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

// Mutate is the single external mutation entry point spec.md §6 documents as
// `mutate(network, rng, config)`: it runs the full non-structural pass
// followed by the full structural pass. Module-bearing networks that want
// ModuleDuplicate/ModuleTierUpgrade to participate should call
// AllStructural directly with a non-nil defs map instead; Mutate passes nil,
// so those two operators are no-ops here (every other structural and
// non-structural operator still applies).
func Mutate(n *graph.Network, rng *rand.Rand, cfg *config.Config) {
	AllNonstructural(n, rng, cfg)
	AllStructural(n, rng, cfg, nil)
}

// AllNonstructural dispatches the sequential, probability-gated pass over
// the non-structural mutations (weight/bias/toggle), mirroring the teacher's
// mutateAllNonstructural gate-and-apply sequence in
// neat/genetics/genome_mutate.go.
func AllNonstructural(n *graph.Network, rng *rand.Rand, cfg *config.Config) {
	if rng.Float64() < cfg.WeightShiftProb {
		WeightShift(n, rng, cfg)
	}
	if rng.Float64() < cfg.WeightRandomizeProb {
		WeightRandomize(n, rng)
	}
	if rng.Float64() < cfg.ConnectionToggleProb {
		ConnectionToggle(n, rng, cfg.ConnectionToggleProb)
	}
	if rng.Float64() < cfg.BiasShiftProb {
		BiasShift(n, rng, cfg, false)
	}
	if rng.Float64() < cfg.AffinityShiftProb {
		AffinityShift(n, rng)
	}
	if rng.Float64() < cfg.ActivationChangeProb {
		ActivationChange(n, rng)
	}
}

// AllStructural dispatches the structural mutations (topology-changing),
// each independently gated by its configured probability. defs resolves a
// bound module's DefinitionID to its static Definition for ModuleDuplicate
// and ModuleTierUpgrade; pass nil if n has no bound modules.
func AllStructural(n *graph.Network, rng *rand.Rand, cfg *config.Config, defs map[string]*module.Definition) {
	if rng.Float64() < cfg.ConnectionAddProb {
		ConnectionAdd(n, rng)
	}
	if rng.Float64() < cfg.NodeAddProb {
		NodeAddSplit(n, rng)
	}
	if rng.Float64() < cfg.NodeRemoveProb {
		NodeRemove(n, rng)
	}
	if rng.Float64() < cfg.AddInterfaceNodeProb {
		AddInterfaceNode(n, rng)
	}
	if rng.Float64() < cfg.ModuleDuplicateProb {
		ModuleDuplicate(n, rng, defs)
	}
	if rng.Float64() < cfg.ModuleTierUpgradeProb {
		ModuleTierUpgrade(n, rng, defs)
	}
	if rng.Float64() < cfg.ModularizationProb {
		Modularization(n, rng)
	}
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func hiddenSuitablePick(rng *rand.Rand) activation.Kind {
	kinds := activation.HiddenSuitable()
	return kinds[rng.Intn(len(kinds))]
}

func allNodeIDs(n *graph.Network) []int {
	ids := make([]int, 0)
	ids = append(ids, n.GeneIDs()...)
	ids = append(ids, n.SensorIDs()...)
	ids = append(ids, n.OutputIDs()...)
	ids = append(ids, n.HiddenIDs()...)
	return ids
}
