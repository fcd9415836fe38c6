package evolution

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"patternlab/internal/eval"
	"patternlab/internal/ga"
	"patternlab/internal/model"
)

var (
	// ErrUnknownStrategy is returned for a strategy name with no implementation
	ErrUnknownStrategy = errors.New("unknown evolution strategy")
	// ErrInvalidConfig wraps range and enumeration failures
	ErrInvalidConfig = errors.New("invalid evolution config")
)

// Strategy names a generation-to-generation reproduction scheme
type Strategy string

const (
	NaturalSelection  Strategy = "natural_selection"
	GuidedEvolution   Strategy = "guided_evolution"
	ExperimentalDrift Strategy = "experimental_drift"
	HybridBreeding    Strategy = "hybrid_breeding"
	PressureEvolution Strategy = "pressure_evolution"
	CreativeExplosion Strategy = "creative_explosion"
)

// Strategies lists every supported strategy in a stable order
var Strategies = []Strategy{
	NaturalSelection,
	GuidedEvolution,
	ExperimentalDrift,
	HybridBreeding,
	PressureEvolution,
	CreativeExplosion,
}

// Constraints limit what mutation may rewrite
type Constraints struct {
	PreserveComponents []string `json:"preserve_components,omitempty" validate:"dive,oneof=rhythmic melodic harmonic structural timbral stylistic"`
}

// Config controls one evolution session. Start from DefaultConfig and
// override fields; a zero Config is not valid.
type Config struct {
	Strategy            Strategy             `json:"strategy"`
	Generations         int                  `json:"generations" validate:"gte=1"`
	TargetFitness       float64              `json:"target_fitness" validate:"gte=0,lte=1"`
	MutationIntensity   float64              `json:"mutation_intensity" validate:"gt=0,lte=1"`
	DiversityPressure   float64              `json:"diversity_pressure" validate:"gte=0,lte=1"`
	CreativityBoost     float64              `json:"creativity_boost" validate:"gte=0,lte=1"`
	PopulationSize      int                  `json:"population_size" validate:"gte=2"`
	UserPreferences     eval.Preferences     `json:"user_preferences"`
	Constraints         Constraints          `json:"constraints"`
	PreserveOriginalDNA bool                 `json:"preserve_original_dna"`
	EnableHybridization bool                 `json:"enable_hybridization"`
	CrossoverStrategy   ga.CrossoverStrategy `json:"crossover_strategy" validate:"omitempty,oneof=uniform single_point artistic_blend"`
}

// DefaultConfig returns the documented defaults
func DefaultConfig() Config {
	return Config{
		Strategy:            NaturalSelection,
		Generations:         10,
		TargetFitness:       0.85,
		MutationIntensity:   0.3,
		DiversityPressure:   0.4,
		CreativityBoost:     0.2,
		PopulationSize:      32,
		PreserveOriginalDNA: true,
		EnableHybridization: true,
		CrossoverStrategy:   ga.Uniform,
	}
}

// Validate checks the strategy name and numeric ranges
func (c Config) Validate() error {
	if !c.Strategy.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, c.Strategy)
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Valid reports whether s names a known strategy
func (s Strategy) Valid() bool {
	for _, known := range Strategies {
		if s == known {
			return true
		}
	}
	return false
}

// diversityFloor is the minimum distance a new member keeps from the
// others when the population is seeded or refreshed
func (c Config) diversityFloor() float64 {
	return c.DiversityPressure * 0.5
}

func (c Config) sessionConfig() model.SessionConfig {
	return model.SessionConfig{
		Strategy:          string(c.Strategy),
		Generations:       c.Generations,
		TargetFitness:     c.TargetFitness,
		MutationIntensity: c.MutationIntensity,
		PopulationSize:    c.PopulationSize,
	}
}
