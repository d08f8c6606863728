package graph

import (
	"fmt"

	"github.com/jharvey/biome-substrate/activation"
	"github.com/jharvey/biome-substrate/config"
	"github.com/jharvey/biome-substrate/logging"
)

// Evaluator drives one network through time. It is grounded on the teacher's
// Network.ActivateSteps, but replaces the teacher's "settle to a fixed point"
// loop with a single reset/propagate/activate pass per tick: BIOME networks
// are evaluated once per simulation tick, not iterated to convergence
// (spec.md §4.5).
type Evaluator struct {
	cfg   *config.Config
	debug bool
}

// NewEvaluator builds an evaluator bound to cfg. Debug enables the
// graph-invariant check described in spec.md §4.5's Failure clause.
func NewEvaluator(cfg *config.Config) *Evaluator {
	return &Evaluator{cfg: cfg, debug: cfg != nil && cfg.Debug}
}

// Process advances network by one tick of size dt: it increments
// CurrentTick, then performs reset, propagate, and activate in that order
// for every node due to update this tick. Biological sensors only reset and
// activate when their update interval has elapsed; gene nodes are never
// touched. Hidden nodes, including module interface nodes declared with
// Genetic affinity, update every tick.
func (e *Evaluator) Process(n *Network, dt float64) error {
	n.CurrentTick++

	due := e.dueSet(n)

	for id := range due {
		node := n.nodes[id]
		node.Accumulator = 0
	}

	for _, c := range n.connections {
		if !c.Enabled {
			continue
		}
		if !due[c.ToID] {
			continue
		}
		from, ok := n.nodes[c.FromID]
		if !ok {
			if e.debug {
				logging.Warn(fmt.Sprintf("graph: dangling connection source node %d (conn %s)", c.FromID, c))
			}
			continue
		}
		to, ok := n.nodes[c.ToID]
		if !ok {
			if e.debug {
				logging.Warn(fmt.Sprintf("graph: dangling connection destination node %d (conn %s)", c.ToID, c))
			}
			continue
		}
		eff := Effectiveness(from.Affinity, to.Affinity)
		to.Accumulator += from.Output * c.Weight * eff
	}

	e.runFunctionalModules(n, dt)

	moduleOutputs := n.ModuleOutputNodeSet()
	for _, id := range n.outputIDs {
		if moduleOutputs[id] {
			continue
		}
		e.activateIfDue(n, id, due, dt)
	}
	for _, id := range n.hiddenIDs {
		if moduleOutputs[id] {
			continue
		}
		e.activateIfDue(n, id, due, dt)
	}
	for _, id := range n.sensorIDs {
		if moduleOutputs[id] {
			continue
		}
		node, ok := n.nodes[id]
		if !ok {
			continue
		}
		if node.Affinity == Behavioural {
			// Behavioural sensors are written directly by SetSensor and never
			// run through activation (spec.md §4.5's activate order lists
			// only outputs, hidden nodes, and due Biological sensors).
			continue
		}
		e.activateIfDue(n, id, due, dt)
	}

	return nil
}

// runFunctionalModules invokes each bound module's process callback, if its
// definition registered one, after propagation but before the final
// activate pass (spec.md §4.8). A Functional module's writes (e.g. the
// internal clock's Tic) are readable by the host once Process returns;
// because propagation has already run, other nodes first read them in the
// next tick's propagate phase.
func (e *Evaluator) runFunctionalModules(n *Network, dt float64) {
	if len(n.Processors) == 0 {
		return
	}
	for _, m := range n.Modules {
		if fn, ok := n.Processors[m.DefinitionID]; ok {
			fn(m, n, dt)
		}
	}
}

// dueSet computes which node ids update this tick: every output and hidden
// node, plus any sensor whose affinity-gated interval has elapsed. Gene
// nodes are never included; hidden nodes are included whatever their
// affinity. Sensor ids with no node behind them are skipped.
func (e *Evaluator) dueSet(n *Network) map[int]bool {
	due := make(map[int]bool, len(n.outputIDs)+len(n.hiddenIDs)+len(n.sensorIDs))
	for _, id := range n.outputIDs {
		due[id] = true
	}
	for _, id := range n.hiddenIDs {
		due[id] = true
	}
	interval := int64(12)
	if e.cfg != nil {
		interval = e.cfg.BiologicalUpdateInterval
	}
	for _, id := range n.sensorIDs {
		node, ok := n.nodes[id]
		if !ok {
			continue
		}
		if ShouldUpdate(node.Affinity, node.LastUpdateTick, n.CurrentTick, interval) {
			due[id] = true
		}
	}
	return due
}

func (e *Evaluator) activateIfDue(n *Network, id int, due map[int]bool, dt float64) {
	if !due[id] {
		return
	}
	node := n.nodes[id]
	node.PreviousOutput = node.Output
	out, err := activation.Registry.Apply(node.Activation, node.Accumulator, node.Bias, node.PreviousOutput, dt)
	if err != nil {
		if e.debug {
			logging.Warn(fmt.Sprintf("graph: node %d has unknown activation kind %d, holding previous output", id, node.Activation))
		}
		return
	}
	node.Output = out
	node.LastUpdateTick = n.CurrentTick
}
