// Package config holds the tunables that govern affinity timing, mutation rates,
// and speciation coefficients for the BIOME substrate. It mirrors the shape of
// the teacher's neat.Options: a flat struct of small numeric knobs, loadable
// from YAML or from a legacy plain-text key/value format.
package config

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/jharvey/biome-substrate/logging"
)

// Config is the process-wide set of tunables for mutation, affinity timing and
// genetic distance. A zero Config is not valid; use Default() or a loader.
type Config struct {
	LogLevel string `yaml:"log_level"`

	// BiologicalUpdateInterval is the "12" from spec.md §4.2: the number of ticks
	// between successive activations of a Biological-affinity node.
	BiologicalUpdateInterval int64 `yaml:"biological_update_interval"`

	// Mutation rates, §4.6. Defaults in parens are the spec.md defaults.
	WeightShiftProb      float64 `yaml:"weight_shift_prob"`      // 0.80
	WeightRandomizeProb  float64 `yaml:"weight_randomize_prob"`  // 0.10
	ConnectionToggleProb float64 `yaml:"connection_toggle_prob"` // 0.05
	ConnectionAddProb    float64 `yaml:"connection_add_prob"`    // 0.15
	NodeAddProb          float64 `yaml:"node_add_prob"`          // 0.03
	NodeRemoveProb       float64 `yaml:"node_remove_prob"`       // 0.01
	BiasShiftProb        float64 `yaml:"bias_shift_prob"`        // 0.30
	AffinityShiftProb    float64 `yaml:"affinity_shift_prob"`    // 0.10
	ActivationChangeProb float64 `yaml:"activation_change_prob"` // 0.05
	AddInterfaceNodeProb float64 `yaml:"add_interface_node_prob"` // 0.05
	ModuleDuplicateProb  float64 `yaml:"module_duplicate_prob"`  // 0.005
	ModuleTierUpgradeProb float64 `yaml:"module_tier_upgrade_prob"` // 0.01
	ModularizationProb   float64 `yaml:"modularization_prob"`    // 0.001

	// ConnectionTypeChange (spec.md §4.6, 0.02) is not implemented: the
	// substrate has no connection subtype attribute for it to modulate, and
	// the spec permits a conforming minimal implementation to omit it.

	WeightShiftPower float64 `yaml:"weight_shift_power"` // 0.5 multiplier on N(0,1)
	BiasShiftPower   float64 `yaml:"bias_shift_power"`   // 0.3 multiplier on N(0,1)

	NodeAddSplitRetries int `yaml:"node_add_split_retries"` // ~10

	// Genetic distance coefficients, §4.7.
	DisjointExcessCoeff float64 `yaml:"disjoint_excess_coeff"` // c2 = 1.0
	WeightDiffCoeff     float64 `yaml:"weight_diff_coeff"`     // c3 = 0.4
	SmallGenomeThreshold int    `yaml:"small_genome_threshold"` // N floor, 20

	// Debug toggles fail-fast graph-invariant checks during evaluation (§4.5, §7).
	Debug bool `yaml:"debug"`
}

// Default returns the spec.md default configuration.
func Default() *Config {
	return &Config{
		LogLevel:                 "info",
		BiologicalUpdateInterval: 12,

		WeightShiftProb:          0.80,
		WeightRandomizeProb:      0.10,
		ConnectionToggleProb:     0.05,
		ConnectionAddProb:        0.15,
		NodeAddProb:              0.03,
		NodeRemoveProb:           0.01,
		BiasShiftProb:            0.30,
		AffinityShiftProb:        0.10,
		ActivationChangeProb:     0.05,
		AddInterfaceNodeProb:     0.05,
		ModuleDuplicateProb:      0.005,
		ModuleTierUpgradeProb:    0.01,
		ModularizationProb:       0.001,

		WeightShiftPower: 0.5,
		BiasShiftPower:   0.3,

		NodeAddSplitRetries: 10,

		DisjointExcessCoeff:  1.0,
		WeightDiffCoeff:      0.4,
		SmallGenomeThreshold: 20,
	}
}

// LoadYAML reads a Config from YAML, initializes the logger from its LogLevel,
// and validates it.
func LoadYAML(r io.Reader) (*Config, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read YAML config")
	}
	c := Default()
	if err := yaml.Unmarshal(content, c); err != nil {
		return nil, errors.Wrap(err, "failed to decode BIOME config from YAML")
	}
	if err := logging.Init(c.LogLevel); err != nil {
		return nil, errors.Wrap(err, "failed to initialize logger")
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid BIOME config")
	}
	return c, nil
}

// LoadPlainText reads a Config encoded as "key value" lines per the legacy
// flat-file format, using cast to coerce each value.
func LoadPlainText(r io.Reader) (*Config, error) {
	c := Default()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, errors.Errorf("malformed config line: %q", line)
		}
		name, param := fields[0], fields[1]
		switch name {
		case "biological_update_interval":
			c.BiologicalUpdateInterval = cast.ToInt64(param)
		case "weight_shift_prob":
			c.WeightShiftProb = cast.ToFloat64(param)
		case "weight_randomize_prob":
			c.WeightRandomizeProb = cast.ToFloat64(param)
		case "connection_toggle_prob":
			c.ConnectionToggleProb = cast.ToFloat64(param)
		case "connection_add_prob":
			c.ConnectionAddProb = cast.ToFloat64(param)
		case "node_add_prob":
			c.NodeAddProb = cast.ToFloat64(param)
		case "node_remove_prob":
			c.NodeRemoveProb = cast.ToFloat64(param)
		case "bias_shift_prob":
			c.BiasShiftProb = cast.ToFloat64(param)
		case "affinity_shift_prob":
			c.AffinityShiftProb = cast.ToFloat64(param)
		case "activation_change_prob":
			c.ActivationChangeProb = cast.ToFloat64(param)
		case "add_interface_node_prob":
			c.AddInterfaceNodeProb = cast.ToFloat64(param)
		case "module_duplicate_prob":
			c.ModuleDuplicateProb = cast.ToFloat64(param)
		case "module_tier_upgrade_prob":
			c.ModuleTierUpgradeProb = cast.ToFloat64(param)
		case "modularization_prob":
			c.ModularizationProb = cast.ToFloat64(param)
		case "weight_shift_power":
			c.WeightShiftPower = cast.ToFloat64(param)
		case "bias_shift_power":
			c.BiasShiftPower = cast.ToFloat64(param)
		case "node_add_split_retries":
			c.NodeAddSplitRetries = cast.ToInt(param)
		case "disjoint_excess_coeff":
			c.DisjointExcessCoeff = cast.ToFloat64(param)
		case "weight_diff_coeff":
			c.WeightDiffCoeff = cast.ToFloat64(param)
		case "small_genome_threshold":
			c.SmallGenomeThreshold = cast.ToInt(param)
		case "debug":
			c.Debug = cast.ToBool(param)
		case "log_level":
			c.LogLevel = param
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to scan plain-text config")
	}
	if err := logging.Init(c.LogLevel); err != nil {
		return nil, errors.Wrap(err, "failed to initialize logger")
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid BIOME config")
	}
	return c, nil
}

// Validate checks the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.BiologicalUpdateInterval <= 0 {
		return errors.New("biological_update_interval must be positive")
	}
	if c.SmallGenomeThreshold <= 0 {
		return errors.New("small_genome_threshold must be positive")
	}
	for name, p := range map[string]float64{
		"weight_shift_prob":           c.WeightShiftProb,
		"weight_randomize_prob":       c.WeightRandomizeProb,
		"connection_toggle_prob":      c.ConnectionToggleProb,
		"connection_add_prob":         c.ConnectionAddProb,
		"node_add_prob":               c.NodeAddProb,
		"node_remove_prob":            c.NodeRemoveProb,
		"bias_shift_prob":             c.BiasShiftProb,
		"affinity_shift_prob":         c.AffinityShiftProb,
		"activation_change_prob":      c.ActivationChangeProb,
		"add_interface_node_prob":     c.AddInterfaceNodeProb,
		"module_duplicate_prob":       c.ModuleDuplicateProb,
		"module_tier_upgrade_prob":    c.ModuleTierUpgradeProb,
		"modularization_prob":         c.ModularizationProb,
	} {
		if p < 0 || p > 1 {
			return errors.Errorf("%s must be within [0,1], got %f", name, p)
		}
	}
	return nil
}
