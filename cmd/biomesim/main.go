package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/jharvey/biome-substrate/config"
	"github.com/jharvey/biome-substrate/graph"
	"github.com/jharvey/biome-substrate/logging"
	"github.com/jharvey/biome-substrate/persist"
)

// cmd/biomesim is the reference host harness named in SPEC_FULL.md §1: it
// drives a toy population of bibite networks across generations, exercising
// every substrate package (starter, graph's evaluator, mutation,
// reproduction, persist) the way a real world simulation would, minus the
// physics. It is adapted from the teacher's executor.go/experiment_runner.go
// command-line-flags-then-run-experiment shape.
func main() {
	var (
		generations = flag.Int("generations", 25, "number of generations to run")
		popSize     = flag.Int("population", 40, "population size")
		ticks       = flag.Int("ticks", 200, "simulated ticks evaluated per generation")
		dt          = flag.Float64("dt", 0.016, "tick duration in seconds")
		seed        = flag.Int64("seed", 1, "PRNG seed")
		variance    = flag.Float64("variance", 0.3, "starter gene jitter variance")
		threshold   = flag.Float64("speciation-threshold", 3.0, "genetic distance below which two networks are considered the same species")
		configPath  = flag.String("config", "", "optional YAML config file (config.LoadYAML); defaults to config.Default()")
		outDir      = flag.String("out", ".", "directory to write fitness_history.npy and best_network.yaml into")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "biomesim:", err)
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(*seed))

	pop, err := newPopulation(cfg, *popSize, *variance, rng)
	if err != nil {
		logging.Error(fmt.Sprintf("biomesim: seeding population: %v", err))
		os.Exit(1)
	}

	env := newEnvironment(rng)

	history := make([]generationStats, 0, *generations)
	for gen := 0; gen < *generations; gen++ {
		stats, err := pop.runGeneration(gen, env, *ticks, *dt, *threshold, rng)
		if err != nil {
			logging.Error(fmt.Sprintf("biomesim: generation %d: %v", gen, err))
			os.Exit(1)
		}
		history = append(history, stats)
		logging.Info(fmt.Sprintf("generation %d: mean=%.4f stddev=%.4f best=%.4f species=%d",
			stats.Generation, stats.Mean, stats.StdDev, stats.Best, stats.Species))
	}

	best := pop.best()
	diag := diagnose(best)
	if len(diag.Unreachable) > 0 {
		logging.Warn(fmt.Sprintf("biomesim: best network has %d output node(s) unreachable from any gene/sensor: %v",
			len(diag.Unreachable), diag.Unreachable))
	} else {
		logging.Info(fmt.Sprintf("biomesim: best network's longest source-to-node propagation depth is %d", diag.MaxDepth))
	}

	if err := writeFitnessHistory(filepath.Join(*outDir, "fitness_history.npy"), history); err != nil {
		logging.Error(fmt.Sprintf("biomesim: %v", err))
		os.Exit(1)
	}

	if err := writeBestNetwork(filepath.Join(*outDir, "best_network.yaml"), best); err != nil {
		logging.Error(fmt.Sprintf("biomesim: %v", err))
		os.Exit(1)
	}

	logging.Info(fmt.Sprintf("biomesim: wrote %s and %s", "fitness_history.npy", "best_network.yaml"))
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return config.LoadYAML(f)
}

func writeBestNetwork(path string, n *graph.Network) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := persist.NewWriter(f, persist.YAMLEncoding)
	if err != nil {
		return err
	}
	return w.WriteNetwork(n)
}
