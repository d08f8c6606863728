package module

import "github.com/jharvey/biome-substrate/graph"

// periodStateKey is the instance-state key under which the clock's current
// accumulator value is kept between ticks.
const periodStateKey = "accumulator"

// NewClockDefinition builds the internal-clock Functional module spec.md
// §4.8 names as its worked example: while its En input is wired positive, it
// integrates dt into an accumulator on its Period input and raises its Tic
// output (1.0 for one tick, then reset to 0.0) whenever the accumulator
// crosses that period. En defaults to Genetic affinity so it can be wired
// from a constant gene (spec.md §8 scenario 6 wires it from Constant_1);
// Period's DefaultBias is 0 so an unwired Period node's own bias never adds
// to the value a connection configures it with — the graph, not the module,
// owns the period (spec.md §9).
func NewClockDefinition() *Definition {
	def := &Definition{
		ID:       "internal_clock",
		Category: "Clock",
		MaxTier:  1,
		Inputs: []InterfaceDeclaration{
			{Name: "En", Affinity: graph.Genetic, DefaultBias: 1.0},
			{Name: "Period", Affinity: graph.Genetic, DefaultBias: 0.0},
		},
		Outputs: []InterfaceDeclaration{
			{Name: "Tic", Affinity: graph.Behavioural, DefaultBias: 0.0},
		},
	}
	def.Process = clockProcess
	return def
}

func clockProcess(inst *Instance, n *graph.Network, dt float64) {
	en, err := GetModuleInput(inst, n, 0)
	if err != nil || en <= 0 {
		_ = SetModuleOutput(inst, n, 0, 0.0)
		return
	}

	period, err := GetModuleInput(inst, n, 1)
	if err != nil || period <= 0 {
		return
	}

	acc := inst.Binding.State[periodStateKey] + dt
	if acc >= period {
		acc -= period
		_ = SetModuleOutput(inst, n, 0, 1.0)
	} else {
		_ = SetModuleOutput(inst, n, 0, 0.0)
	}
	inst.Binding.State[periodStateKey] = acc
}
