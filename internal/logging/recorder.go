package logging

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"patternlab/internal/genome"
	"patternlab/internal/model"
	"patternlab/internal/pattern"
)

// Recorder writes generation records to CSV and JSON lines and echoes a
// one-line summary per generation
type Recorder struct {
	csvPath     string
	jsonPath    string
	console     io.Writer
	csvFile     *os.File
	csvWriter   *csv.Writer
	jsonFile    *os.File
	initialized bool
}

// NewRecorder creates a recorder. A nil console disables the summary lines.
func NewRecorder(csvPath, jsonPath string, console io.Writer) (*Recorder, error) {
	r := &Recorder{
		csvPath:  csvPath,
		jsonPath: jsonPath,
		console:  console,
	}

	if err := os.MkdirAll(filepath.Dir(csvPath), 0755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(jsonPath), 0755); err != nil {
		return nil, err
	}
	return r, nil
}

// Init creates the output files and writes the CSV header
func (r *Recorder) Init() error {
	var err error

	r.csvFile, err = os.Create(r.csvPath)
	if err != nil {
		return err
	}
	r.csvWriter = csv.NewWriter(r.csvFile)

	header := []string{
		"session", "generation", "population", "best_fitness", "mean_fitness",
		"min_fitness", "stddev_fitness", "diversity", "species", "injected", "best_genome",
	}
	if err := r.csvWriter.Write(header); err != nil {
		r.closeCSV()
		return err
	}

	r.jsonFile, err = os.OpenFile(r.jsonPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		r.closeCSV()
		return err
	}

	r.initialized = true
	return nil
}

// closeCSV releases the CSV file after a failed Init
func (r *Recorder) closeCSV() {
	if r.csvFile != nil {
		r.csvFile.Close()
	}
	r.csvFile = nil
	r.csvWriter = nil
}

// Close flushes and closes all files
func (r *Recorder) Close() error {
	var firstErr error
	if r.csvWriter != nil {
		r.csvWriter.Flush()
		firstErr = r.csvWriter.Error()
	}
	if r.csvFile != nil {
		if err := r.csvFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if r.jsonFile != nil {
		if err := r.jsonFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type generationLine struct {
	SessionID string `json:"session_id"`
	model.GenerationRecord
}

// LogGeneration appends one generation of a session
func (r *Recorder) LogGeneration(sessionID string, rec model.GenerationRecord) error {
	if !r.initialized {
		return nil
	}

	row := []string{
		sessionID,
		strconv.Itoa(rec.Generation),
		strconv.Itoa(rec.PopulationSize),
		fmt.Sprintf("%.4f", rec.Fitness.Maximum),
		fmt.Sprintf("%.4f", rec.Fitness.Average),
		fmt.Sprintf("%.4f", rec.Fitness.Minimum),
		fmt.Sprintf("%.4f", rec.Fitness.StdDev),
		fmt.Sprintf("%.4f", rec.Diversity),
		strconv.Itoa(len(rec.Species)),
		strconv.Itoa(rec.Injected),
		rec.BestGenomeID,
	}
	if err := r.csvWriter.Write(row); err != nil {
		return err
	}
	r.csvWriter.Flush()
	if err := r.csvWriter.Error(); err != nil {
		return err
	}

	line, err := json.Marshal(generationLine{SessionID: sessionID, GenerationRecord: rec})
	if err != nil {
		return err
	}
	if _, err := r.jsonFile.Write(append(line, '\n')); err != nil {
		return err
	}

	if r.console != nil {
		fmt.Fprintf(r.console, "Gen %4d | Best: %.3f | Mean: %.3f | Div: %.3f | Species: %d | Injected: %d\n",
			rec.Generation, rec.Fitness.Maximum, rec.Fitness.Average, rec.Diversity, len(rec.Species), rec.Injected)
	}
	return nil
}

// Champion is the saved outcome of an evolution session
type Champion struct {
	SessionID string          `json:"session_id"`
	Strategy  string          `json:"strategy"`
	Fitness   float64         `json:"fitness"`
	SavedAt   time.Time       `json:"saved_at"`
	Pattern   pattern.Pattern `json:"pattern"`
	Genome    *genome.Genome  `json:"genome"`
}

// SaveChampion writes the champion as indented JSON
func SaveChampion(path string, c Champion) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if c.SavedAt.IsZero() {
		c.SavedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadChampion reads a champion written by SaveChampion
func LoadChampion(path string) (Champion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Champion{}, err
	}

	var c Champion
	if err := json.Unmarshal(data, &c); err != nil {
		return Champion{}, fmt.Errorf("decode champion %s: %w", path, err)
	}
	return c, nil
}
