package breeding

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrNoValidParents is returned when no parent carries any code
	ErrNoValidParents = errors.New("at least one valid parent pattern required")
	// ErrInsufficientParents is returned when a strategy needs more parents
	ErrInsufficientParents = errors.New("not enough parents")
	// ErrUnknownStrategy is returned for a strategy name with no implementation
	ErrUnknownStrategy = errors.New("unknown breeding strategy")
	// ErrInvalidConfig wraps range and enumeration failures
	ErrInvalidConfig = errors.New("invalid breeding config")
)

// Strategy names a reproduction mode
type Strategy string

const (
	Sexual     Strategy = "sexual"
	Asexual    Strategy = "asexual"
	Polygamous Strategy = "polygamous"
	Hybrid     Strategy = "hybrid"
	Chimeric   Strategy = "chimeric"
)

// Strategies lists every reproduction mode in a stable order
var Strategies = []Strategy{Sexual, Asexual, Polygamous, Hybrid, Chimeric}

// Valid reports whether s names a known strategy
func (s Strategy) Valid() bool {
	for _, known := range Strategies {
		if s == known {
			return true
		}
	}
	return false
}

// Dominance decides which parent's chromosome survives when two are not
// recombined
type Dominance string

const (
	Balanced Dominance = "balanced"
	Maternal Dominance = "maternal"
	Paternal Dominance = "paternal"
	Random   Dominance = "random"
)

// Config controls one BreedPatterns call. Start from DefaultConfig.
type Config struct {
	Strategy           Strategy  `json:"strategy"`
	Offspring          int       `json:"offspring" validate:"gte=1,lte=16"`
	MutationRate       float64   `json:"mutation_rate" validate:"gte=0,lte=1"`
	CrossoverRate      float64   `json:"crossover_rate" validate:"gte=0,lte=1"`
	Dominance          Dominance `json:"dominance_rules" validate:"oneof=balanced maternal paternal random"`
	PreserveGenre      bool      `json:"preserve_genre"`
	AllowHybridization bool      `json:"allow_hybridization"`
	FitnessWeighting   bool      `json:"fitness_weighting"`
}

// DefaultConfig returns the documented defaults
func DefaultConfig() Config {
	return Config{
		Strategy:           Sexual,
		Offspring:          1,
		MutationRate:       0.1,
		CrossoverRate:      0.8,
		Dominance:          Balanced,
		AllowHybridization: true,
		FitnessWeighting:   true,
	}
}

// Validate checks numeric ranges and the dominance rule. The strategy is
// checked when it is dispatched, after the parents.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
