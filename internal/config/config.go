package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid config")

// Config is the root configuration structure
type Config struct {
	Seed      int64           `yaml:"seed" mapstructure:"seed"`
	Evolution EvolutionConfig `yaml:"evolution" mapstructure:"evolution"`
	Breeding  BreedingConfig  `yaml:"breeding" mapstructure:"breeding"`
	Storage   StorageConfig   `yaml:"storage" mapstructure:"storage"`
	Logging   LogConfig       `yaml:"logging" mapstructure:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics" mapstructure:"metrics"`
}

// EvolutionConfig defines the pattern evolution run
type EvolutionConfig struct {
	Strategy            string            `yaml:"strategy" mapstructure:"strategy" validate:"oneof=natural_selection guided_evolution experimental_drift hybrid_breeding pressure_evolution creative_explosion"`
	Generations         int               `yaml:"generations" mapstructure:"generations" validate:"gte=1"`
	TargetFitness       float64           `yaml:"target_fitness" mapstructure:"target_fitness" validate:"gte=0,lte=1"`
	MutationIntensity   float64           `yaml:"mutation_intensity" mapstructure:"mutation_intensity" validate:"gt=0,lte=1"`
	DiversityPressure   float64           `yaml:"diversity_pressure" mapstructure:"diversity_pressure" validate:"gte=0,lte=1"`
	CreativityBoost     float64           `yaml:"creativity_boost" mapstructure:"creativity_boost" validate:"gte=0,lte=1"`
	PopulationSize      int               `yaml:"population_size" mapstructure:"population_size" validate:"gte=2"`
	CrossoverStrategy   string            `yaml:"crossover_strategy" mapstructure:"crossover_strategy" validate:"oneof=uniform single_point artistic_blend"`
	PreserveComponents  []string          `yaml:"preserve_components,omitempty" mapstructure:"preserve_components" validate:"dive,oneof=rhythmic melodic harmonic structural timbral stylistic"`
	PreserveOriginalDNA *bool             `yaml:"preserve_original_dna" mapstructure:"preserve_original_dna"`
	EnableHybridization *bool             `yaml:"enable_hybridization" mapstructure:"enable_hybridization"`
	Preferences         PreferencesConfig `yaml:"preferences" mapstructure:"preferences"`
	Workers             int               `yaml:"workers" mapstructure:"workers" validate:"gte=0"`
}

// PreferencesConfig biases fitness towards a listener's taste
type PreferencesConfig struct {
	FavoriteGenres      []string `yaml:"favorite_genres,omitempty" mapstructure:"favorite_genres"`
	PreferredComplexity float64  `yaml:"preferred_complexity" mapstructure:"preferred_complexity" validate:"gte=0,lte=10"`
}

// BreedingConfig defines cross-pattern breeding defaults
type BreedingConfig struct {
	Strategy           string  `yaml:"strategy" mapstructure:"strategy" validate:"oneof=sexual asexual polygamous hybrid chimeric"`
	Offspring          int     `yaml:"offspring" mapstructure:"offspring" validate:"gte=1,lte=16"`
	MutationRate       float64 `yaml:"mutation_rate" mapstructure:"mutation_rate" validate:"gte=0,lte=1"`
	CrossoverRate      float64 `yaml:"crossover_rate" mapstructure:"crossover_rate" validate:"gte=0,lte=1"`
	Dominance          string  `yaml:"dominance" mapstructure:"dominance" validate:"oneof=balanced maternal paternal random"`
	PreserveGenre      bool    `yaml:"preserve_genre" mapstructure:"preserve_genre"`
	AllowHybridization *bool   `yaml:"allow_hybridization" mapstructure:"allow_hybridization"`
	FitnessWeighting   *bool   `yaml:"fitness_weighting" mapstructure:"fitness_weighting"`
}

// StorageConfig selects and bounds the session store
type StorageConfig struct {
	Kind           string `yaml:"kind" mapstructure:"kind" validate:"oneof=memory sqlite"`
	Path           string `yaml:"path" mapstructure:"path" validate:"required_if=Kind sqlite"`
	Sessions       int    `yaml:"sessions" mapstructure:"sessions" validate:"gte=1"`
	Specimens      int    `yaml:"specimens" mapstructure:"specimens" validate:"gte=1"`
	BreedingEvents int    `yaml:"breeding_events" mapstructure:"breeding_events" validate:"gte=1"`
}

// LogConfig defines logging parameters
type LogConfig struct {
	Level        string `yaml:"level" mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Pretty       bool   `yaml:"pretty" mapstructure:"pretty"`
	EveryGen     bool   `yaml:"every_gen_summary" mapstructure:"every_gen_summary"`
	CSVPath      string `yaml:"csv_path" mapstructure:"csv_path"`
	JSONPath     string `yaml:"json_path" mapstructure:"json_path"`
	ChampionPath string `yaml:"champion_path" mapstructure:"champion_path"`
}

// MetricsConfig defines the optional prometheus endpoint
type MetricsConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr" validate:"omitempty,hostname_port"`
}

// Load reads a YAML config file and returns a validated Config
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// keys missing from the file keep their defaults
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	fillUnset(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a config with every default applied
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Save writes cfg as YAML
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks field ranges and enumerations
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ApplyDefaults fills zero fields, for configs assembled outside Load
func (c *Config) ApplyDefaults() {
	applyDefaults(c)
}

// applyDefaults fills every zero field. Loaders use fillUnset instead,
// because they start from Default() and an explicit 0 must survive.
func applyDefaults(cfg *Config) {
	if cfg.Seed == 0 {
		cfg.Seed = 1337
	}

	e := &cfg.Evolution
	if e.Generations == 0 {
		e.Generations = 10
	}
	if e.TargetFitness == 0 {
		e.TargetFitness = 0.85
	}
	if e.MutationIntensity == 0 {
		e.MutationIntensity = 0.3
	}
	if e.DiversityPressure == 0 {
		e.DiversityPressure = 0.4
	}
	if e.CreativityBoost == 0 {
		e.CreativityBoost = 0.2
	}
	if e.PopulationSize == 0 {
		e.PopulationSize = 32
	}

	b := &cfg.Breeding
	if b.Offspring == 0 {
		b.Offspring = 1
	}
	if b.MutationRate == 0 {
		b.MutationRate = 0.1
	}
	if b.CrossoverRate == 0 {
		b.CrossoverRate = 0.8
	}

	if cfg.Storage.Sessions == 0 {
		cfg.Storage.Sessions = 100
	}
	if cfg.Storage.Specimens == 0 {
		cfg.Storage.Specimens = 4096
	}
	if cfg.Storage.BreedingEvents == 0 {
		cfg.Storage.BreedingEvents = 100
	}

	fillUnset(cfg)
}

// fillUnset fills names, switches and paths that were left blank. Numbers
// are never touched: zero is a real setting for most of them.
func fillUnset(cfg *Config) {
	e := &cfg.Evolution
	if e.Strategy == "" {
		e.Strategy = "natural_selection"
	}
	if e.CrossoverStrategy == "" {
		e.CrossoverStrategy = "uniform"
	}
	if e.PreserveOriginalDNA == nil {
		e.PreserveOriginalDNA = boolPtr(true)
	}
	if e.EnableHybridization == nil {
		e.EnableHybridization = boolPtr(true)
	}

	b := &cfg.Breeding
	if b.Strategy == "" {
		b.Strategy = "sexual"
	}
	if b.Dominance == "" {
		b.Dominance = "balanced"
	}
	if b.AllowHybridization == nil {
		b.AllowHybridization = boolPtr(true)
	}
	if b.FitnessWeighting == nil {
		b.FitnessWeighting = boolPtr(true)
	}

	if cfg.Storage.Kind == "" {
		cfg.Storage.Kind = "memory"
	}
	if cfg.Storage.Kind == "sqlite" && cfg.Storage.Path == "" {
		cfg.Storage.Path = "runs/patternlab.db"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.CSVPath == "" {
		cfg.Logging.CSVPath = "runs/run.csv"
	}
	if cfg.Logging.JSONPath == "" {
		cfg.Logging.JSONPath = "runs/run.jsonl"
	}
	if cfg.Logging.ChampionPath == "" {
		cfg.Logging.ChampionPath = "artifacts/champion_final.json"
	}
}

func boolPtr(b bool) *bool {
	return &b
}
