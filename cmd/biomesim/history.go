package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/stat"

	"github.com/jharvey/biome-substrate/graph"
)

// generationStats is the per-generation summary cmd/biomesim logs and, at
// the end of a run, persists as a NumPy-readable trace — the teacher's own
// dependency on sbinet/npyio (examples/performance) existed for exactly this
// kind of numeric interop with an operator's analysis tooling.
type generationStats struct {
	Generation int
	Mean       float64
	StdDev     float64
	Best       float64
	Species    int
}

// summarize computes per-generation fitness statistics with gonum/stat, in
// place of the teacher's hand-rolled Population.MeanFitness/Variance fields
// (neat/genetics/population.go).
func summarize(generation int, pop []*graph.Network, speciesCount int) generationStats {
	fitness := make([]float64, len(pop))
	best := pop[0].Fitness
	for i, n := range pop {
		fitness[i] = n.Fitness
		if n.Fitness > best {
			best = n.Fitness
		}
	}
	mean := stat.Mean(fitness, nil)
	std := stat.StdDev(fitness, nil)
	return generationStats{Generation: generation, Mean: mean, StdDev: std, Best: best, Species: speciesCount}
}

// writeFitnessHistory dumps the run's per-generation mean fitness as a
// float64 .npy array at path, so an operator can load it with numpy.load
// without any BIOME-specific tooling.
func writeFitnessHistory(path string, history []generationStats) error {
	means := make([]float64, len(history))
	for i, h := range history {
		means[i] = h.Mean
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "biomesim: creating fitness history file")
	}
	defer f.Close()

	if err := npyio.Write(f, means); err != nil {
		return errors.Wrap(err, "biomesim: writing fitness history npy")
	}
	return nil
}
