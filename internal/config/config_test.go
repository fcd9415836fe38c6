package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "seed: 7\n"))
	require.NoError(t, err)

	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, "natural_selection", cfg.Evolution.Strategy)
	assert.Equal(t, 10, cfg.Evolution.Generations)
	assert.Equal(t, 0.85, cfg.Evolution.TargetFitness)
	assert.Equal(t, 32, cfg.Evolution.PopulationSize)
	assert.True(t, *cfg.Evolution.PreserveOriginalDNA)
	assert.True(t, *cfg.Evolution.EnableHybridization)
	assert.Equal(t, "sexual", cfg.Breeding.Strategy)
	assert.Equal(t, 0.8, cfg.Breeding.CrossoverRate)
	assert.Equal(t, "memory", cfg.Storage.Kind)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadKeepsExplicitValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
evolution:
  strategy: hybrid_breeding
  generations: 4
  preserve_original_dna: false
  preserve_components: [structural]
  preferences:
    favorite_genres: [jazz]
    preferred_complexity: 6
breeding:
  strategy: polygamous
  offspring: 3
storage:
  kind: sqlite
`))
	require.NoError(t, err)

	assert.Equal(t, "hybrid_breeding", cfg.Evolution.Strategy)
	assert.Equal(t, 4, cfg.Evolution.Generations)
	assert.False(t, *cfg.Evolution.PreserveOriginalDNA)
	assert.Equal(t, []string{"structural"}, cfg.Evolution.PreserveComponents)
	assert.Equal(t, []string{"jazz"}, cfg.Evolution.Preferences.FavoriteGenres)
	assert.Equal(t, 3, cfg.Breeding.Offspring)
	assert.Equal(t, "runs/patternlab.db", cfg.Storage.Path)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"strategy":   "evolution:\n  strategy: teleport\n",
		"target":     "evolution:\n  target_fitness: 1.5\n",
		"component":  "evolution:\n  preserve_components: [percussion]\n",
		"dominance":  "breeding:\n  dominance: sideways\n",
		"storage":    "storage:\n  kind: redis\n",
		"log level":  "logging:\n  level: loud\n",
		"bad yaml":   "evolution: [\n",
		"intensity":  "evolution:\n  mutation_intensity: 2\n",
		"offspring":  "breeding:\n  offspring: 40\n",
		"population": "evolution:\n  population_size: 1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Evolution.Generations = 3
	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadLayeredDefaultsOnly(t *testing.T) {
	cfg, err := LoadLayered("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadLayeredPrecedence(t *testing.T) {
	path := writeConfig(t, `
seed: 9
evolution:
  generations: 4
  strategy: guided_evolution
breeding:
  offspring: 2
`)
	t.Setenv("PATTERNLAB_EVOLUTION_GENERATIONS", "12")
	t.Setenv("PATTERNLAB_STORAGE_KIND", "sqlite")

	cfg, err := LoadLayered(path, func(v *viper.Viper) error {
		v.Set("breeding.offspring", 5)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, int64(9), cfg.Seed)
	assert.Equal(t, "guided_evolution", cfg.Evolution.Strategy, "file beats defaults")
	assert.Equal(t, 12, cfg.Evolution.Generations, "env beats file")
	assert.Equal(t, 5, cfg.Breeding.Offspring, "bindings beat env and file")
	assert.Equal(t, "sqlite", cfg.Storage.Kind)
	assert.Equal(t, "runs/patternlab.db", cfg.Storage.Path)
	assert.True(t, *cfg.Evolution.PreserveOriginalDNA)
}

func TestLoadLayeredRejectsInvalid(t *testing.T) {
	t.Setenv("PATTERNLAB_BREEDING_DOMINANCE", "recessive")
	_, err := LoadLayered("", nil)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	_, err = LoadLayered(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

// zeroable lists the numeric settings whose validation accepts 0, with the
// YAML body that sets them and a getter for the loaded value.
var zeroable = []struct {
	key  string
	yaml string
	get  func(*Config) float64
}{
	{"seed", "seed: 0\n", func(c *Config) float64 { return float64(c.Seed) }},
	{"evolution.target_fitness", "evolution:\n  target_fitness: 0\n", func(c *Config) float64 { return c.Evolution.TargetFitness }},
	{"evolution.diversity_pressure", "evolution:\n  diversity_pressure: 0\n", func(c *Config) float64 { return c.Evolution.DiversityPressure }},
	{"evolution.creativity_boost", "evolution:\n  creativity_boost: 0\n", func(c *Config) float64 { return c.Evolution.CreativityBoost }},
	{"evolution.workers", "evolution:\n  workers: 0\n", func(c *Config) float64 { return float64(c.Evolution.Workers) }},
	{"evolution.preferences.preferred_complexity", "evolution:\n  preferences:\n    preferred_complexity: 0\n", func(c *Config) float64 { return c.Evolution.Preferences.PreferredComplexity }},
	{"breeding.mutation_rate", "breeding:\n  mutation_rate: 0\n", func(c *Config) float64 { return c.Breeding.MutationRate }},
	{"breeding.crossover_rate", "breeding:\n  crossover_rate: 0\n", func(c *Config) float64 { return c.Breeding.CrossoverRate }},
}

func TestLoadKeepsExplicitZero(t *testing.T) {
	for _, tc := range zeroable {
		t.Run(tc.key, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tc.yaml))
			require.NoError(t, err)
			assert.Zero(t, tc.get(cfg))
		})
	}
}

func TestLoadLayeredKeepsExplicitZero(t *testing.T) {
	for _, tc := range zeroable {
		t.Run(tc.key+"/file", func(t *testing.T) {
			cfg, err := LoadLayered(writeConfig(t, tc.yaml), nil)
			require.NoError(t, err)
			assert.Zero(t, tc.get(cfg))
		})
		t.Run(tc.key+"/env", func(t *testing.T) {
			env := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(tc.key, ".", "_"))
			t.Setenv(env, "0")
			cfg, err := LoadLayered("", nil)
			require.NoError(t, err)
			assert.Zero(t, tc.get(cfg))
		})
		t.Run(tc.key+"/binding", func(t *testing.T) {
			cfg, err := LoadLayered("", func(v *viper.Viper) error {
				v.Set(tc.key, 0)
				return nil
			})
			require.NoError(t, err)
			assert.Zero(t, tc.get(cfg))
		})
	}
}

func TestZeroTargetReachesEngineSettings(t *testing.T) {
	cfg, err := Load(writeConfig(t, "evolution:\n  target_fitness: 0\n  generations: 5\n"))
	require.NoError(t, err)
	assert.Zero(t, cfg.Evolution.TargetFitness)
	assert.Equal(t, 5, cfg.Evolution.Generations)
	assert.Equal(t, 0.3, cfg.Evolution.MutationIntensity, "untouched keys keep defaults")
	assert.Equal(t, 0.1, cfg.Breeding.MutationRate)
}

func TestLoadRejectsZeroWhereRangeForbidsIt(t *testing.T) {
	cases := map[string]string{
		"generations": "evolution:\n  generations: 0\n",
		"intensity":   "evolution:\n  mutation_intensity: 0\n",
		"offspring":   "breeding:\n  offspring: 0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestApplyDefaultsFillsZeroStruct(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	assert.Equal(t, Default(), cfg)
}
