// Package graph implements the BIOME network container: the single unified
// computation graph that is simultaneously an agent's genome and its control
// policy (spec.md §3, §4.4). It is grounded on the teacher's neat/network
// package, generalized from a fixed-role (sensor/neuron) phenotype into the
// three-affinity, catalogue-backed substrate spec.md requires.
package graph

import (
	"github.com/jharvey/biome-substrate/activation"
	"github.com/jharvey/biome-substrate/catalogue"
)

// AutoInnovation tells AddConnection to mint a fresh innovation id rather
// than reuse one supplied by the caller (used by crossover/mutation replay).
const AutoInnovation int64 = -1

// ModuleType categorizes a module binding (spec.md §3 Module).
type ModuleType byte

const (
	ModuleInput ModuleType = iota
	ModuleOutput
	ModuleFunctional
	ModuleMeta
)

// ModuleBinding is the plain-data half of a module: an ordered pair of
// interface-node-id lists, annotated with a type and an opaque internal
// state map for Functional modules. The behavior that interprets these
// bindings (definitions, process callbacks, host-facing get/set) lives in
// package module, which depends on graph rather than the reverse.
type ModuleBinding struct {
	DefinitionID   string
	Type           ModuleType
	InputNodeIDs   []int
	OutputNodeIDs  []int
	State          map[string]float64
	Tier           int
}

// MetaTemplate records a modularized cluster of hidden nodes: a reusable
// template produced by the modularization mutation (spec.md §4.6).
type MetaTemplate struct {
	Name    string
	NodeIDs []int
}

// ModuleProcessFunc is the per-tick behavior of a Functional module's
// definition (spec.md §4.8). It is keyed by DefinitionID on Network rather
// than captured per-instance, because it is stateless dispatch logic over
// whatever ModuleBinding it is handed — the actual per-instance state lives
// on the binding itself, which Clone deep-copies. This keeps a cloned
// network's functional modules from sharing mutable state with their parent.
type ModuleProcessFunc func(binding *ModuleBinding, n *Network, dt float64)

// Network aggregates every node, connection, and bookkeeping index for one
// agent. A Network is created empty, populated by the starter builder or by
// cloning a parent, optionally mutated, then consulted every tick until its
// owning agent dies (spec.md §3 Lifecycle).
type Network struct {
	nodes       map[int]*Node
	connections []*Connection

	catalogueToNode map[catalogue.ID]int
	byDestination   map[int][]*Connection
	cacheDirty      bool

	geneIDs    []int
	sensorIDs  []int
	outputIDs  []int
	hiddenIDs  []int

	nextNodeID     int
	nextInnovation int64

	CurrentTick int64
	Generation  int
	Fitness     float64

	Modules       []*ModuleBinding
	MetaTemplates []*MetaTemplate

	// Processors dispatches a Functional module's definition id to its
	// process callback. Populated by package module's Bind.
	Processors map[string]ModuleProcessFunc
}

// NewNetwork returns an empty network ready for population by a starter
// builder or by Clone.
func NewNetwork() *Network {
	return &Network{
		nodes:           make(map[int]*Node),
		connections:     make([]*Connection, 0),
		catalogueToNode: make(map[catalogue.ID]int),
		byDestination:   make(map[int][]*Connection),
		nextNodeID:      1,
		nextInnovation:  1,
	}
}

// Node returns the node with the given id, if any.
func (n *Network) Node(id int) (*Node, bool) {
	nd, ok := n.nodes[id]
	return nd, ok
}

// Connections returns the connection list in insertion (evaluation) order.
// The returned slice is the network's own backing slice and must not be
// mutated by callers outside this package.
func (n *Network) Connections() []*Connection {
	return n.connections
}

// GeneIDs, SensorIDs, OutputIDs, HiddenIDs expose the four index lists of
// spec.md §3. Each returns a copy so callers cannot corrupt the index.
func (n *Network) GeneIDs() []int   { return append([]int(nil), n.geneIDs...) }
func (n *Network) SensorIDs() []int { return append([]int(nil), n.sensorIDs...) }
func (n *Network) OutputIDs() []int { return append([]int(nil), n.outputIDs...) }
func (n *Network) HiddenIDs() []int { return append([]int(nil), n.hiddenIDs...) }

// NextInnovationPeek returns the innovation id that would be assigned next,
// without consuming it.
func (n *Network) NextInnovationPeek() int64 { return n.nextInnovation }

// NextNodeIDPeek returns the node id that would be assigned next, without
// consuming it.
func (n *Network) NextNodeIDPeek() int { return n.nextNodeID }

// ModuleOutputNodeSet returns the set of node ids that are some module's
// output_node_ids: nodes whose value is always written directly by a host
// (SetModuleOutput) or a Functional module's process callback, and which
// therefore must never be overwritten by the evaluator's ordinary
// accumulator-driven activation (spec.md §4.8's "bypasses the activation
// pipeline" contract).
func (n *Network) ModuleOutputNodeSet() map[int]bool {
	set := make(map[int]bool)
	for _, m := range n.Modules {
		if m.Type == ModuleMeta {
			// A Meta module (spec.md §4.6 Modularization) only records
			// ownership over nodes that already existed; it does not take
			// over writing their output, so it must not be excluded from
			// ordinary activation.
			continue
		}
		for _, id := range m.OutputNodeIDs {
			set[id] = true
		}
	}
	return set
}

// AdoptNextInnovation raises the network's next-innovation counter to v if
// v is larger than its current value. Crossover uses this to give a child
// the larger of its two parents' counters (spec.md §4.7).
func (n *Network) AdoptNextInnovation(v int64) {
	if v > n.nextInnovation {
		n.nextInnovation = v
	}
}

func (n *Network) allocNodeID() int {
	id := n.nextNodeID
	n.nextNodeID++
	return id
}

func (n *Network) allocInnovation() int64 {
	id := n.nextInnovation
	n.nextInnovation++
	return id
}

// AddFromCatalogue instantiates the node for catalogue id e, optionally
// overriding its default bias, and indexes it. It fails if that catalogue id
// is already instantiated in this network (spec.md §4.4).
func (n *Network) AddFromCatalogue(id catalogue.ID, overrideBias *float64) (int, error) {
	if _, exists := n.catalogueToNode[id]; exists {
		return 0, ErrDuplicateCatalogueInstance
	}
	entry, err := catalogue.Lookup(id)
	if err != nil {
		return 0, ErrUnknownCatalogueID
	}
	nodeID := n.allocNodeID()
	node := NewCatalogueNode(nodeID, entry, overrideBias)
	n.nodes[nodeID] = node
	n.catalogueToNode[id] = nodeID

	switch entry.Category {
	case catalogue.CategoryGene:
		n.geneIDs = append(n.geneIDs, nodeID)
	case catalogue.CategorySensorInternal, catalogue.CategorySensorExternal:
		n.sensorIDs = append(n.sensorIDs, nodeID)
	case catalogue.CategoryOutput:
		n.outputIDs = append(n.outputIDs, nodeID)
	}
	return nodeID, nil
}

// AddHidden creates a Behavioural-affinity node with no catalogue backing.
func (n *Network) AddHidden(act activation.Kind, bias float64) int {
	nodeID := n.allocNodeID()
	node := NewHiddenNode(nodeID, act, bias)
	n.nodes[nodeID] = node
	n.hiddenIDs = append(n.hiddenIDs, nodeID)
	return nodeID
}

// AddConnection creates a connection from fromID to toID, rejecting
// self-loops and duplicate ordered edges. If innovation is AutoInnovation a
// fresh id is minted; otherwise the caller's id is used verbatim (for
// crossover/mutation replay where the innovation is already known).
func (n *Network) AddConnection(fromID, toID int, weight float64, innovation int64) (*Connection, error) {
	if fromID == toID {
		return nil, ErrSelfLoop
	}
	if _, ok := n.nodes[fromID]; !ok {
		return nil, ErrUnknownNode
	}
	if _, ok := n.nodes[toID]; !ok {
		return nil, ErrUnknownNode
	}
	for _, c := range n.connections {
		if c.FromID == fromID && c.ToID == toID {
			return nil, ErrDuplicateEdge
		}
	}
	if innovation == AutoInnovation {
		innovation = n.allocInnovation()
	} else if innovation >= n.nextInnovation {
		n.nextInnovation = innovation + 1
	}
	c := &Connection{FromID: fromID, ToID: toID, Weight: weight, Enabled: true, Innovation: innovation}
	c.ClampWeight()
	n.connections = append(n.connections, c)
	n.byDestination[toID] = append(n.byDestination[toID], c)
	return c, nil
}

// RemoveHidden removes a hidden node and every connection touching it. It
// fails for genes, sensors, outputs, and nodes referenced by a module binding.
func (n *Network) RemoveHidden(nodeID int) error {
	if !n.isPlainHidden(nodeID) {
		return ErrNotHidden
	}
	delete(n.nodes, nodeID)
	n.hiddenIDs = removeInt(n.hiddenIDs, nodeID)

	kept := n.connections[:0:0]
	for _, c := range n.connections {
		if c.FromID == nodeID || c.ToID == nodeID {
			continue
		}
		kept = append(kept, c)
	}
	n.connections = kept
	n.markDirty()
	n.RebuildCaches()
	return nil
}

func (n *Network) isPlainHidden(nodeID int) bool {
	found := false
	for _, id := range n.hiddenIDs {
		if id == nodeID {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	for _, m := range n.Modules {
		for _, id := range m.InputNodeIDs {
			if id == nodeID {
				return false
			}
		}
		for _, id := range m.OutputNodeIDs {
			if id == nodeID {
				return false
			}
		}
	}
	return true
}

// SetGeneValue writes both bias and output for a Genetic node; it fails if
// the node is not Genetic.
func (n *Network) SetGeneValue(id catalogue.ID, value float64) error {
	nodeID, ok := n.catalogueToNode[id]
	if !ok {
		return ErrUnknownCatalogueID
	}
	node := n.nodes[nodeID]
	if node.Affinity != Genetic {
		return ErrNotGenetic
	}
	node.Bias = value
	node.Output = value
	return nil
}

// SetSensor writes a sensor's current reading, per spec.md §6. Behavioural
// (external) sensors are written straight into Output, exactly like
// SetModuleOutput: the host contract calls for set_sensor to bypass the
// activation pipeline entirely, so a reading set before Process is visible
// to this same tick's propagate phase rather than the next one. Biological
// (internal) sensors keep the slower path: the reading lands in Bias, and
// the evaluator's activate pass republishes it into Output at the sensor's
// own BiologicalUpdateInterval-gated cadence, simulating internal sensing
// lag.
func (n *Network) SetSensor(id catalogue.ID, value float64) error {
	nodeID, ok := n.catalogueToNode[id]
	if !ok {
		return ErrUnknownCatalogueID
	}
	node := n.nodes[nodeID]
	if node.Affinity == Behavioural {
		node.Output = value
		return nil
	}
	node.Bias = value
	return nil
}

// GetOutput returns catalogue id's current output if instantiated, or the
// catalogue entry's expected default value otherwise (spec.md §4.4).
func (n *Network) GetOutput(id catalogue.ID, dt float64) (float64, error) {
	if nodeID, ok := n.catalogueToNode[id]; ok {
		return n.nodes[nodeID].Output, nil
	}
	return catalogue.ExpectedDefault(id, dt)
}

// RebuildCaches recomputes the destination-grouped connection cache. It is
// idempotent and safe to call redundantly.
func (n *Network) RebuildCaches() {
	n.byDestination = make(map[int][]*Connection, len(n.nodes))
	for _, c := range n.connections {
		n.byDestination[c.ToID] = append(n.byDestination[c.ToID], c)
	}
	n.cacheDirty = false
}

func (n *Network) markDirty() { n.cacheDirty = true }

// incomingTo returns the connections whose destination is nodeID, in
// insertion order, rebuilding the cache first if it was marked dirty.
func (n *Network) incomingTo(nodeID int) []*Connection {
	if n.cacheDirty {
		n.RebuildCaches()
	}
	return n.byDestination[nodeID]
}

// Clone deep-copies the network, preserving every id and innovation number.
// CurrentTick resets to 0 (spec.md §4.4).
func (n *Network) Clone() *Network {
	c := NewNetwork()
	c.nextNodeID = n.nextNodeID
	c.nextInnovation = n.nextInnovation
	c.CurrentTick = 0
	c.Generation = n.Generation
	c.Fitness = n.Fitness

	for id, node := range n.nodes {
		cp := *node
		c.nodes[id] = &cp
	}
	for catID, nodeID := range n.catalogueToNode {
		c.catalogueToNode[catID] = nodeID
	}
	c.geneIDs = append([]int(nil), n.geneIDs...)
	c.sensorIDs = append([]int(nil), n.sensorIDs...)
	c.outputIDs = append([]int(nil), n.outputIDs...)
	c.hiddenIDs = append([]int(nil), n.hiddenIDs...)

	for _, conn := range n.connections {
		cp := *conn
		c.connections = append(c.connections, &cp)
	}

	for _, m := range n.Modules {
		cp := *m
		cp.InputNodeIDs = append([]int(nil), m.InputNodeIDs...)
		cp.OutputNodeIDs = append([]int(nil), m.OutputNodeIDs...)
		cp.State = make(map[string]float64, len(m.State))
		for k, v := range m.State {
			cp.State[k] = v
		}
		c.Modules = append(c.Modules, &cp)
	}
	for _, t := range n.MetaTemplates {
		cp := *t
		cp.NodeIDs = append([]int(nil), t.NodeIDs...)
		c.MetaTemplates = append(c.MetaTemplates, &cp)
	}

	if n.Processors != nil {
		c.Processors = make(map[string]ModuleProcessFunc, len(n.Processors))
		for id, fn := range n.Processors {
			c.Processors[id] = fn
		}
	}

	c.RebuildCaches()
	return c
}

// AdoptHiddenID adds id to the hidden-node index if it is not already
// present in any index. Used by persist.UpgradeLegacyModuleOwnership to
// repair bookkeeping old snapshots may not have carried.
func (n *Network) AdoptHiddenID(id int) {
	for _, existing := range n.hiddenIDs {
		if existing == id {
			return
		}
	}
	n.hiddenIDs = append(n.hiddenIDs, id)
}

// AdoptNextNodeID raises the network's next-node-id counter to v if v is
// larger than its current value. Used by package persist to resume
// allocation past the highest id a loaded snapshot contains.
func (n *Network) AdoptNextNodeID(v int) {
	if v > n.nextNodeID {
		n.nextNodeID = v
	}
}

// RestoreHidden recreates a hidden node at an id chosen by the caller
// (package persist), rather than minting a fresh one. previousOutput is
// spec.md §6's stored field; Output is reconstructed as equal to it, since
// a serialized snapshot has no separate "current output" field — the node's
// last known stable value is the best available reconstruction until the
// next Process call recomputes it.
func (n *Network) RestoreHidden(id int, act activation.Kind, bias, previousOutput float64) error {
	if _, exists := n.nodes[id]; exists {
		return ErrDuplicateCatalogueInstance
	}
	node := NewHiddenNode(id, act, bias)
	node.Output = previousOutput
	node.PreviousOutput = previousOutput
	n.nodes[id] = node
	n.hiddenIDs = append(n.hiddenIDs, id)
	return nil
}

// RestoreCatalogueNode recreates a catalogue-backed node at an id and
// affinity/activation chosen by the caller (package persist), rather than
// deriving them fresh from the current catalogue entry — a loaded snapshot's
// affinity/activation reflect whatever they were at save time, which matters
// if the node was a mutation target (affinity shift, activation change)
// before being serialized.
func (n *Network) RestoreCatalogueNode(id int, catID catalogue.ID, affinity Affinity, act activation.Kind, bias, previousOutput float64) error {
	if _, exists := n.nodes[id]; exists {
		return ErrDuplicateCatalogueInstance
	}
	if _, exists := n.catalogueToNode[catID]; exists {
		return ErrDuplicateCatalogueInstance
	}
	entry, err := catalogue.Lookup(catID)
	if err != nil {
		return ErrUnknownCatalogueID
	}
	node := &Node{
		Id:          id,
		CatalogueID: catID,
		Affinity:    affinity,
		Activation:  act,
		Bias:        bias,
	}
	if affinity == Genetic {
		node.Output = bias
		node.PreviousOutput = bias
	} else {
		node.Output = previousOutput
		node.PreviousOutput = previousOutput
	}
	n.nodes[id] = node
	n.catalogueToNode[catID] = id

	switch entry.Category {
	case catalogue.CategoryGene:
		n.geneIDs = append(n.geneIDs, id)
	case catalogue.CategorySensorInternal, catalogue.CategorySensorExternal:
		n.sensorIDs = append(n.sensorIDs, id)
	case catalogue.CategoryOutput:
		n.outputIDs = append(n.outputIDs, id)
	}
	return nil
}

// RestoreConnection recreates a connection with a caller-supplied innovation
// id verbatim (package persist), rather than minting or validating against
// AutoInnovation, and without AddConnection's self-loop/duplicate-edge
// rejection — a previously-valid network cannot have acquired either by
// being serialized.
func (n *Network) RestoreConnection(fromID, toID int, weight float64, innovation int64, enabled bool) error {
	if _, ok := n.nodes[fromID]; !ok {
		return ErrUnknownNode
	}
	if _, ok := n.nodes[toID]; !ok {
		return ErrUnknownNode
	}
	c := &Connection{FromID: fromID, ToID: toID, Weight: weight, Enabled: enabled, Innovation: innovation}
	n.connections = append(n.connections, c)
	if innovation >= n.nextInnovation {
		n.nextInnovation = innovation + 1
	}
	return nil
}

func removeInt(xs []int, v int) []int {
	out := xs[:0:0]
	for _, x := range xs {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
