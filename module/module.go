// Package module implements the BIOME module layer (spec.md §4.8): static
// definitions of host-facing interface groups, instance binding against a
// graph.Network, and the two thin per-tick operations a host uses to move
// values across the sensor/actuator boundary. It is grounded on the
// teacher's neat/genetics/mimo_gene.go MIMOControlGene — a control node
// mediating several inputs/outputs — generalized from one control node per
// gene into an ordered list of dedicated interface nodes per instance.
package module

import (
	"fmt"

	"github.com/jharvey/biome-substrate/activation"
	"github.com/jharvey/biome-substrate/graph"
)

// InterfaceDeclaration names one interface-node slot: its affinity profile
// and default activation/bias, instantiated fresh for every Instance.
type InterfaceDeclaration struct {
	Name       string
	Affinity   graph.Affinity
	Activation activation.Kind
	DefaultBias float64
}

// ProcessFunc is the optional per-tick behavior of a Functional module. It
// runs inside the evaluator, after propagation but before the final activate
// pass, so its effect on output nodes is visible within the same tick
// (spec.md §4.8).
type ProcessFunc func(inst *Instance, n *graph.Network, dt float64)

// TierUpgradeFunc is a module's optional per-type growth hook, invoked by
// UpgradeTier after an instance's tier has been raised. It adds whatever
// tier-specific extra nodes or wiring the module type defines (spec.md §4.6
// leaves the particulars to "defined per module type") using the same
// Network operations a Definition's own Process callback would use.
type TierUpgradeFunc func(inst *Instance, n *graph.Network, newTier int)

// Definition is a static module blueprint: type, category, maximum tier, and
// ordered interface-node declarations for inputs and outputs.
type Definition struct {
	ID          string
	Category    string
	MaxTier     int
	Inputs      []InterfaceDeclaration
	Outputs     []InterfaceDeclaration
	Process     ProcessFunc
	TierUpgrade TierUpgradeFunc
}

// singletonCategories names the body-state module categories ineligible for
// ModuleDuplicate (spec.md §4.6): "there can be only one" per network.
var singletonCategories = map[string]bool{
	"Energy":   true,
	"Health":   true,
	"Maturity": true,
	"Stomach":  true,
}

// DuplicationEligible reports whether a module of this definition may be
// targeted by the ModuleDuplicate mutation.
func (d *Definition) DuplicationEligible() bool {
	return !singletonCategories[d.Category]
}

// Instance binds a Definition to a network: it records the interface node
// ids created for this particular binding and the generic graph.ModuleBinding
// plain-data record that travels with the network (persistence, cloning).
type Instance struct {
	Definition *Definition
	Binding    *graph.ModuleBinding
}

// Bind creates def's interface nodes as fresh hidden nodes in n, owned by a
// new instance, appends the corresponding graph.ModuleBinding to n so it
// travels with the network through Clone/persistence, and — if def declares
// a Process callback — registers it on n.Processors keyed by def.ID so the
// evaluator can dispatch to it without importing package module (see
// graph.ModuleProcessFunc).
func Bind(n *graph.Network, def *Definition) *Instance {
	binding := &graph.ModuleBinding{
		DefinitionID: def.ID,
		Type:         moduleType(def),
		State:        make(map[string]float64),
	}
	for _, decl := range def.Inputs {
		id := addInterfaceNode(n, decl)
		binding.InputNodeIDs = append(binding.InputNodeIDs, id)
	}
	for _, decl := range def.Outputs {
		id := addInterfaceNode(n, decl)
		binding.OutputNodeIDs = append(binding.OutputNodeIDs, id)
	}
	n.Modules = append(n.Modules, binding)

	if def.Process != nil {
		if n.Processors == nil {
			n.Processors = make(map[string]graph.ModuleProcessFunc)
		}
		d := def
		n.Processors[d.ID] = func(b *graph.ModuleBinding, net *graph.Network, dt float64) {
			d.Process(&Instance{Definition: d, Binding: b}, net, dt)
		}
	}

	return &Instance{Definition: def, Binding: binding}
}

// addInterfaceNode creates one of def's declared interface-node slots.
// decl.Activation defaults to Identity when left at its zero value —
// activation.Kind's enum starts at 1, so an unset Activation is not a valid
// kind and must not reach the evaluator. AddHidden always creates a
// Behavioural-affinity node, so decl.Affinity is applied afterward, the same
// way mutation.NodeAddSplit promotes a split node to Genetic affinity.
func addInterfaceNode(n *graph.Network, decl InterfaceDeclaration) int {
	act := decl.Activation
	if act == 0 {
		act = activation.Identity
	}
	id := n.AddHidden(act, decl.DefaultBias)
	if decl.Affinity != graph.Behavioural {
		if node, ok := n.Node(id); ok {
			node.Affinity = decl.Affinity
		}
	}
	return id
}

func moduleType(def *Definition) graph.ModuleType {
	switch {
	case len(def.Inputs) == 0 && len(def.Outputs) > 0:
		return graph.ModuleOutput
	case len(def.Outputs) == 0 && len(def.Inputs) > 0:
		return graph.ModuleInput
	case def.Process != nil:
		return graph.ModuleFunctional
	default:
		return graph.ModuleMeta
	}
}

// SetModuleOutput writes a sensor reading directly into instance's
// output_node_ids[slotIndex], bypassing the activation pipeline — per
// spec.md §4.8 this is the host handing the substrate a raw observation,
// not something to be activated. Must be called before Process runs this
// tick.
func SetModuleOutput(inst *Instance, n *graph.Network, slotIndex int, value float64) error {
	if slotIndex < 0 || slotIndex >= len(inst.Binding.OutputNodeIDs) {
		return fmt.Errorf("module: output slot %d out of range for %q", slotIndex, inst.Definition.ID)
	}
	nodeID := inst.Binding.OutputNodeIDs[slotIndex]
	node, ok := n.Node(nodeID)
	if !ok {
		return fmt.Errorf("module: output node %d for %q no longer exists", nodeID, inst.Definition.ID)
	}
	node.Output = value
	return nil
}

// UpgradeTier raises inst's tier by one, per spec.md §4.6's Module tier
// upgrade mutation, and invokes the definition's TierUpgrade hook (if any)
// to add tier-specific nodes or wiring. It errors if the instance is already
// at its definition's MaxTier.
func UpgradeTier(inst *Instance, n *graph.Network) error {
	if inst.Binding.Tier >= inst.Definition.MaxTier {
		return fmt.Errorf("module: %q is already at max tier %d", inst.Definition.ID, inst.Definition.MaxTier)
	}
	inst.Binding.Tier++
	if inst.Definition.TierUpgrade != nil {
		inst.Definition.TierUpgrade(inst, n, inst.Binding.Tier)
	}
	return nil
}

// GetModuleInput reads the current output of the node at
// instance.input_node_ids[slotIndex], to drive a host actuator. Must be
// called after Process runs this tick.
func GetModuleInput(inst *Instance, n *graph.Network, slotIndex int) (float64, error) {
	if slotIndex < 0 || slotIndex >= len(inst.Binding.InputNodeIDs) {
		return 0, fmt.Errorf("module: input slot %d out of range for %q", slotIndex, inst.Definition.ID)
	}
	nodeID := inst.Binding.InputNodeIDs[slotIndex]
	node, ok := n.Node(nodeID)
	if !ok {
		return 0, fmt.Errorf("module: input node %d for %q no longer exists", nodeID, inst.Definition.ID)
	}
	return node.Output, nil
}
