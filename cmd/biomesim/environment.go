package main

import (
	"math"
	"math/rand"

	"github.com/jharvey/biome-substrate/catalogue"
	"github.com/jharvey/biome-substrate/graph"
)

// environment is a deterministic toy "plant field" a bibite forages in: each
// tick it presents a fresh PlantCloseness/PlantAngle/Fullness reading and
// scores how well the network's Accelerate/Rotate/Digestion outputs respond
// to it. It stands in for the world simulation spec.md §1 places out of
// scope; cmd/biomesim needs *some* sensor source to exercise the substrate
// across generations, so this is deliberately the simplest thing that gives
// evolution a gradient to climb.
type environment struct {
	rng *rand.Rand
}

func newEnvironment(rng *rand.Rand) *environment {
	return &environment{rng: rng}
}

// sample draws one tick's sensor frame.
type frame struct {
	closeness float64 // 0..1, 1 = plant adjacent
	angle     float64 // -1..1, bearing to the plant
	fullness  float64 // 0..1
}

func (e *environment) sample() frame {
	return frame{
		closeness: e.rng.Float64(),
		angle:     e.rng.Float64()*2 - 1,
		fullness:  e.rng.Float64(),
	}
}

// drive writes f into n's sensor nodes, runs one evaluator tick, reads the
// Accelerate/Rotate/Digestion outputs back, and returns this tick's reward.
// Sensor writes before Process and output reads after it are exactly the
// ordering spec.md §4.8's module contract requires of any host.
func drive(ev *graph.Evaluator, n *graph.Network, f frame, dt float64) (reward float64, err error) {
	if err = n.SetSensor(catalogue.SensorPlantCloseness, f.closeness); err != nil {
		return 0, err
	}
	if err = n.SetSensor(catalogue.SensorPlantAngle, f.angle); err != nil {
		return 0, err
	}
	if err = n.SetSensor(catalogue.SensorFullness, f.fullness); err != nil {
		return 0, err
	}
	if err = n.SetSensor(catalogue.SensorEnergyRatio, 1-f.fullness); err != nil {
		return 0, err
	}

	if err = ev.Process(n, dt); err != nil {
		return 0, err
	}

	accelerate, err := n.GetOutput(catalogue.OutputAccelerate, dt)
	if err != nil {
		return 0, err
	}
	rotate, err := n.GetOutput(catalogue.OutputRotate, dt)
	if err != nil {
		return 0, err
	}
	digestion, err := n.GetOutput(catalogue.OutputDigestion, dt)
	if err != nil {
		return 0, err
	}

	seekReward := f.closeness * accelerate
	turnReward := 1 - math.Abs(rotate-f.angle)
	digestReward := f.fullness * digestion

	return seekReward + 0.5*turnReward + 0.2*digestReward, nil
}

// evaluateFitness runs n through ticks frames of the environment and returns
// its mean per-tick reward, scaled to a positive fitness BIOME's
// reproduction.Crossover/Distance can compare across the population
// (spec.md §4.7 treats Network.Fitness as an opaque host-set scalar).
func evaluateFitness(ev *graph.Evaluator, n *graph.Network, env *environment, ticks int, dt float64) (float64, error) {
	var total float64
	for i := 0; i < ticks; i++ {
		r, err := drive(ev, n, env.sample(), dt)
		if err != nil {
			return 0, err
		}
		total += r
	}
	mean := total / float64(ticks)
	// shift into positive territory: seekReward/turnReward/digestReward each
	// range roughly [-1, 1.2], so +2 keeps fitness non-negative for
	// fitness-proportionate selection (population.go) without changing its
	// ordering.
	return mean + 2.0, nil
}
