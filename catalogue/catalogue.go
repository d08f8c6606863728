// Package catalogue implements the process-global, read-only-after-init
// registry of pre-defined node types described in spec.md §4.3. It is the
// single mutable-at-init, immutable-thereafter singleton permitted by the
// design notes of spec.md §9 — grounded on the same register-once factory
// shape as the teacher's neat/math.NodeActivatorsFactory, but holding node
// metadata instead of activation functions.
package catalogue

import (
	"fmt"

	"github.com/jharvey/biome-substrate/activation"
)

// Affinity is a node's update-rate and connection-effectiveness class.
type Affinity byte

const (
	Genetic Affinity = iota
	Biological
	Behavioural
)

func (a Affinity) String() string {
	switch a {
	case Genetic:
		return "Genetic"
	case Biological:
		return "Biological"
	case Behavioural:
		return "Behavioural"
	default:
		return fmt.Sprintf("Affinity(%d)", a)
	}
}

// Category groups catalogue entries by role.
type Category byte

const (
	CategoryGene Category = iota
	CategorySensorInternal
	CategorySensorExternal
	CategoryOutput
)

// ID is a stable, cross-version catalogue identifier. IDs are never reused or
// renumbered; new entries are appended.
type ID int32

// NONE marks a node as not catalogue-instantiated (an evolved hidden node).
const NONE ID = 0

// Entry is one immutable, process-global catalogue record.
type Entry struct {
	ID          ID
	Name        string
	Category    Category
	Affinity    Affinity
	Activation  activation.Kind
	DefaultBias float64
	Description string
}

const (
	// Gene entries (~35): appearance, size/metabolism, diet, mutation tuning,
	// reproduction timing, vision, clock period, pheromone radius, herding,
	// growth curve, the seven WAG organ weights, fat storage, two wire constants.
	GeneColorR ID = iota + 1
	GeneColorG
	GeneColorB
	GeneHueOffset
	GeneSizeRatio
	GeneMetabolismSpeed
	GeneDiet
	GeneMutationRate
	GeneMutationVariance
	GeneWeightMutationPower
	GeneBiasMutationPower
	GeneReproductionCooldown
	GeneClutchSize
	GeneVisionRadius
	GeneVisionAngle
	GeneClockPeriod
	GenePheromoneRadius
	GeneHerdingWeight
	GeneHerdingRadius
	GeneGrowthRate
	GeneGrowthCurveExponent
	GeneMaturityAge
	GeneOrganWeightMuscle
	GeneOrganWeightArmor
	GeneOrganWeightStomach
	GeneOrganWeightHealth
	GeneOrganWeightMouth
	GeneOrganWeightEye
	GeneOrganWeightBrain
	GeneFatStorageThreshold
	GeneFatStorageDeadband
	GeneLifespanFactor
	GeneImmuneStrength
	GeneConstant0
	GeneConstant1

	// Internal sensors (~7, Biological affinity).
	SensorEnergyRatio
	SensorLifeRatio
	SensorFullness
	SensorMaturity
	SensorEggCount
	SensorFatRatio
	SensorTimeAlive

	// External sensors (~25, Behavioural affinity).
	SensorOwnSpeed
	SensorOwnAngularSpeed
	SensorGrabFlag
	SensorAttackedFlag
	SensorPlantCloseness
	SensorPlantAngle
	SensorPlantCount
	SensorMeatCloseness
	SensorMeatAngle
	SensorMeatCount
	SensorBibiteCloseness
	SensorBibiteAngle
	SensorBibiteCount
	SensorNeighborColorHue
	SensorTicClockPulse
	SensorMinuteClockPulse
	SensorPheromone1Intensity
	SensorPheromone1Angle
	SensorPheromone1Heading
	SensorPheromone2Intensity
	SensorPheromone2Angle
	SensorPheromone2Heading
	SensorPheromone3Intensity
	SensorPheromone3Angle
	SensorPheromone3Heading

	// Output entries (~15, Behavioural affinity, fixed activation).
	OutputAccelerate
	OutputRotate
	OutputHerding
	OutputEggProduction
	OutputWantToLay
	OutputWantToEat
	OutputDigestion
	OutputGrab
	OutputWantToAttack
	OutputWantToGrow
	OutputWantToHeal
	OutputClockReset
	OutputPheromone1Emit
	OutputPheromone2Emit
	OutputPheromone3Emit
)

var registry = buildRegistry()

func gene(id ID, name string, bias float64, desc string) Entry {
	return Entry{ID: id, Name: name, Category: CategoryGene, Affinity: Genetic,
		Activation: activation.Identity, DefaultBias: bias, Description: desc}
}

func internalSensor(id ID, name, desc string) Entry {
	return Entry{ID: id, Name: name, Category: CategorySensorInternal, Affinity: Biological,
		Activation: activation.Identity, DefaultBias: 0, Description: desc}
}

func externalSensor(id ID, name, desc string) Entry {
	return Entry{ID: id, Name: name, Category: CategorySensorExternal, Affinity: Behavioural,
		Activation: activation.Identity, DefaultBias: 0, Description: desc}
}

func output(id ID, name string, act activation.Kind, bias float64, desc string) Entry {
	return Entry{ID: id, Name: name, Category: CategoryOutput, Affinity: Behavioural,
		Activation: act, DefaultBias: bias, Description: desc}
}

func buildRegistry() map[ID]Entry {
	entries := []Entry{
		gene(GeneColorR, "ColorR", 0.5, "appearance: red channel"),
		gene(GeneColorG, "ColorG", 0.5, "appearance: green channel"),
		gene(GeneColorB, "ColorB", 0.5, "appearance: blue channel"),
		gene(GeneHueOffset, "HueOffset", 0.0, "appearance: hue offset"),
		gene(GeneSizeRatio, "SizeRatio", 1.0, "body size relative to baseline"),
		gene(GeneMetabolismSpeed, "MetabolismSpeed", 1.0, "metabolic rate multiplier"),
		gene(GeneDiet, "Diet", 0.5, "0 = pure herbivore, 1 = pure carnivore"),
		gene(GeneMutationRate, "MutationRate", 0.05, "probability a given mutator fires"),
		gene(GeneMutationVariance, "MutationVariance", 0.2, "spread of mutation magnitude"),
		gene(GeneWeightMutationPower, "WeightMutationPower", 0.5, "connection weight jitter scale"),
		gene(GeneBiasMutationPower, "BiasMutationPower", 0.3, "node bias jitter scale"),
		gene(GeneReproductionCooldown, "ReproductionCooldown", 10.0, "ticks between egg-laying attempts"),
		gene(GeneClutchSize, "ClutchSize", 1.0, "eggs per laying event"),
		gene(GeneVisionRadius, "VisionRadius", 5.0, "sensing radius"),
		gene(GeneVisionAngle, "VisionAngle", 2.0, "sensing field-of-view, radians"),
		gene(GeneClockPeriod, "ClockPeriod", 1.0, "internal clock module period"),
		gene(GenePheromoneRadius, "PheromoneRadius", 3.0, "pheromone emission radius"),
		gene(GeneHerdingWeight, "HerdingWeight", 0.0, "strength of herding behavior"),
		gene(GeneHerdingRadius, "HerdingRadius", 3.0, "radius considered for herding"),
		gene(GeneGrowthRate, "GrowthRate", 0.1, "growth curve rate"),
		gene(GeneGrowthCurveExponent, "GrowthCurveExponent", 1.0, "growth curve shape"),
		gene(GeneMaturityAge, "MaturityAge", 100.0, "ticks until maturity"),
		gene(GeneOrganWeightMuscle, "OrganWeightMuscle", 1.0, "WAG: muscle allocation"),
		gene(GeneOrganWeightArmor, "OrganWeightArmor", 1.0, "WAG: armor allocation"),
		gene(GeneOrganWeightStomach, "OrganWeightStomach", 1.0, "WAG: stomach allocation"),
		gene(GeneOrganWeightHealth, "OrganWeightHealth", 1.0, "WAG: health-pool allocation"),
		gene(GeneOrganWeightMouth, "OrganWeightMouth", 1.0, "WAG: mouth allocation"),
		gene(GeneOrganWeightEye, "OrganWeightEye", 1.0, "WAG: eye allocation"),
		gene(GeneOrganWeightBrain, "OrganWeightBrain", 1.0, "WAG: brain allocation"),
		gene(GeneFatStorageThreshold, "FatStorageThreshold", 0.8, "fullness above which fat accumulates"),
		gene(GeneFatStorageDeadband, "FatStorageDeadband", 0.05, "hysteresis band around the threshold"),
		gene(GeneLifespanFactor, "LifespanFactor", 1.0, "lifespan multiplier"),
		gene(GeneImmuneStrength, "ImmuneStrength", 0.5, "resistance to damage-over-time"),
		gene(GeneConstant0, "Constant_0", 0.0, "wire source: always 0"),
		gene(GeneConstant1, "Constant_1", 1.0, "wire source: always 1"),

		internalSensor(SensorEnergyRatio, "EnergyRatio", "current energy / max energy"),
		internalSensor(SensorLifeRatio, "LifeRatio", "current health / max health"),
		internalSensor(SensorFullness, "Fullness", "stomach contents / stomach capacity"),
		internalSensor(SensorMaturity, "Maturity", "age / maturity age, clamped to 1"),
		internalSensor(SensorEggCount, "EggCount", "eggs currently carried"),
		internalSensor(SensorFatRatio, "FatRatio", "stored fat / fat capacity"),
		internalSensor(SensorTimeAlive, "TimeAlive", "ticks alive"),

		externalSensor(SensorOwnSpeed, "OwnSpeed", "own linear speed"),
		externalSensor(SensorOwnAngularSpeed, "OwnAngularSpeed", "own angular speed"),
		externalSensor(SensorGrabFlag, "GrabFlag", "currently grabbing another entity"),
		externalSensor(SensorAttackedFlag, "AttackedFlag", "currently being attacked"),
		externalSensor(SensorPlantCloseness, "PlantCloseness", "closeness of nearest plant"),
		externalSensor(SensorPlantAngle, "PlantAngle", "bearing to nearest plant"),
		externalSensor(SensorPlantCount, "PlantCount", "plants in view"),
		externalSensor(SensorMeatCloseness, "MeatCloseness", "closeness of nearest meat"),
		externalSensor(SensorMeatAngle, "MeatAngle", "bearing to nearest meat"),
		externalSensor(SensorMeatCount, "MeatCount", "meat items in view"),
		externalSensor(SensorBibiteCloseness, "BibiteCloseness", "closeness of nearest bibite"),
		externalSensor(SensorBibiteAngle, "BibiteAngle", "bearing to nearest bibite"),
		externalSensor(SensorBibiteCount, "BibiteCount", "bibites in view"),
		externalSensor(SensorNeighborColorHue, "NeighborColorHue", "hue of nearest bibite"),
		externalSensor(SensorTicClockPulse, "TicClockPulse", "fast clock pulse"),
		externalSensor(SensorMinuteClockPulse, "MinuteClockPulse", "slow clock pulse"),
		externalSensor(SensorPheromone1Intensity, "Pheromone1Intensity", "channel 1 intensity"),
		externalSensor(SensorPheromone1Angle, "Pheromone1Angle", "channel 1 bearing"),
		externalSensor(SensorPheromone1Heading, "Pheromone1Heading", "channel 1 gradient heading"),
		externalSensor(SensorPheromone2Intensity, "Pheromone2Intensity", "channel 2 intensity"),
		externalSensor(SensorPheromone2Angle, "Pheromone2Angle", "channel 2 bearing"),
		externalSensor(SensorPheromone2Heading, "Pheromone2Heading", "channel 2 gradient heading"),
		externalSensor(SensorPheromone3Intensity, "Pheromone3Intensity", "channel 3 intensity"),
		externalSensor(SensorPheromone3Angle, "Pheromone3Angle", "channel 3 bearing"),
		externalSensor(SensorPheromone3Heading, "Pheromone3Heading", "channel 3 gradient heading"),

		output(OutputAccelerate, "Accelerate", activation.TanH, 0.45, "forward/backward thrust"),
		output(OutputRotate, "Rotate", activation.TanH, 0.0, "turning rate"),
		output(OutputHerding, "Herding", activation.TanH, 0.0, "herding pull"),
		output(OutputEggProduction, "EggProduction", activation.TanH, 0.2, "egg production drive"),
		output(OutputWantToLay, "WantToLay", activation.Sigmoid, 0.0, "egg-laying intent"),
		output(OutputWantToEat, "WantToEat", activation.TanH, 1.23, "eating intent"),
		output(OutputDigestion, "Digestion", activation.Sigmoid, -2.07, "digestion rate"),
		output(OutputGrab, "Grab", activation.TanH, 0.0, "grab intent"),
		output(OutputWantToAttack, "WantToAttack", activation.Sigmoid, 0.0, "attack intent"),
		output(OutputWantToGrow, "WantToGrow", activation.Sigmoid, 0.0, "growth intent"),
		output(OutputWantToHeal, "WantToHeal", activation.Sigmoid, 0.0, "healing intent"),
		output(OutputClockReset, "ClockReset", activation.Sigmoid, 0.0, "resets the internal clock"),
		output(OutputPheromone1Emit, "Pheromone1Emit", activation.ReLU, 0.0, "channel 1 emission rate"),
		output(OutputPheromone2Emit, "Pheromone2Emit", activation.ReLU, 0.0, "channel 2 emission rate"),
		output(OutputPheromone3Emit, "Pheromone3Emit", activation.ReLU, 0.0, "channel 3 emission rate"),
	}

	m := make(map[ID]Entry, len(entries))
	for _, e := range entries {
		m[e.ID] = e
	}
	return m
}

// Lookup returns the entry for id.
func Lookup(id ID) (Entry, error) {
	e, ok := registry[id]
	if !ok {
		return Entry{}, fmt.Errorf("catalogue: unknown id %d", id)
	}
	return e, nil
}

// ByCategory enumerates every entry in a category, in declaration order.
func ByCategory(cat Category) []Entry {
	out := make([]Entry, 0)
	for id := GeneColorR; id <= OutputPheromone3Emit; id++ {
		if e, ok := registry[id]; ok && e.Category == cat {
			out = append(out, e)
		}
	}
	return out
}

// All enumerates every catalogue entry in declaration order.
func All() []Entry {
	out := make([]Entry, 0, len(registry))
	for id := GeneColorR; id <= OutputPheromone3Emit; id++ {
		if e, ok := registry[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

// ExpectedDefault returns the value a node would yield if it were instantiated
// with its default bias and never received any input: activation.Apply(0, bias, 0, dt).
// This is the fallback spec.md §4.4 requires from Network.GetOutput for
// uninstantiated outputs.
func ExpectedDefault(id ID, dt float64) (float64, error) {
	e, err := Lookup(id)
	if err != nil {
		return 0, err
	}
	return activation.Registry.Apply(e.Activation, 0, e.DefaultBias, 0, dt)
}
