package logging

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patternlab/internal/genome"
	"patternlab/internal/model"
	"patternlab/internal/pattern"
)

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "warn", Writer: &buf})
	log.Info().Msg("hidden")
	log.Warn().Str("k", "v").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"message":"shown"`)
	assert.Contains(t, out, `"app":"patternlab"`)

	buf.Reset()
	fallback := New(Options{Level: "nonsense", Writer: &buf})
	fallback.Info().Msg("info")
	assert.Contains(t, buf.String(), "info")
}

func TestRecorderWritesCSVAndJSONL(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	r, err := NewRecorder(filepath.Join(dir, "out", "gens.csv"), filepath.Join(dir, "out", "gens.jsonl"), &console)
	require.NoError(t, err)
	require.NoError(t, r.Init())

	for i := 0; i < 3; i++ {
		require.NoError(t, r.LogGeneration("s1", model.GenerationRecord{
			Generation:     i,
			PopulationSize: 32,
			Diversity:      0.4,
			Fitness:        model.FitnessStats{Average: 0.5, Maximum: 0.7},
			Species:        map[string]int{"a": 30, "b": 2},
		}))
	}
	require.NoError(t, r.Close())

	f, err := os.Open(filepath.Join(dir, "out", "gens.csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "session", rows[0][0])
	assert.Equal(t, []string{"s1", "2", "32", "0.7000"}, rows[3][:4])
	assert.Equal(t, "2", rows[3][8])

	jf, err := os.Open(filepath.Join(dir, "out", "gens.jsonl"))
	require.NoError(t, err)
	defer jf.Close()
	sc := bufio.NewScanner(jf)
	lines := 0
	for sc.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
		assert.Equal(t, "s1", line["session_id"])
		lines++
	}
	assert.Equal(t, 3, lines)
	assert.Contains(t, console.String(), "Gen    2 | Best: 0.700")
}

func TestRecorderInitReleasesCSVOnFailure(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "gens.jsonl")
	require.NoError(t, os.Mkdir(jsonPath, 0755))

	r, err := NewRecorder(filepath.Join(dir, "gens.csv"), jsonPath, nil)
	require.NoError(t, err)

	require.Error(t, r.Init())
	assert.Nil(t, r.csvFile)
	assert.Nil(t, r.csvWriter)
	assert.NoError(t, r.LogGeneration("s1", model.GenerationRecord{}), "uninitialized recorder ignores records")
	assert.NoError(t, r.Close())
}

func TestChampionRoundTrip(t *testing.T) {
	sys := genome.NewSystem(rand.New(rand.NewSource(1)))
	g := sys.RandomGenome()
	path := filepath.Join(t.TempDir(), "champ", "best.json")

	require.NoError(t, SaveChampion(path, Champion{
		SessionID: "s1",
		Strategy:  "natural_selection",
		Fitness:   0.8,
		Pattern:   pattern.New(`sound("bd")`),
		Genome:    g,
	}))

	c, err := LoadChampion(path)
	require.NoError(t, err)
	assert.Equal(t, "s1", c.SessionID)
	assert.Equal(t, `sound("bd")`, c.Pattern.Code)
	assert.False(t, c.SavedAt.IsZero())
	require.NotNil(t, c.Genome)
	assert.Equal(t, g.ID, c.Genome.ID)
	assert.InDelta(t, 0.0, sys.GeneticDistance(g, c.Genome), 1e-12)
}
