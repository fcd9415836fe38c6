package pattern

import (
	"errors"
	"strings"
	"time"
)

// ErrEmptyCode is returned when a pattern carries no source text.
var ErrEmptyCode = errors.New("pattern code is empty")

// BreedingInfo describes how a bred pattern was produced
type BreedingInfo struct {
	Strategy      string  `json:"strategy" yaml:"strategy"`
	ParentCount   int     `json:"parent_count" yaml:"parent_count"`
	Compatibility float64 `json:"compatibility" yaml:"compatibility"`
	MutationRate  float64 `json:"mutation_rate" yaml:"mutation_rate"`
	CrossoverRate float64 `json:"crossover_rate" yaml:"crossover_rate"`
	Generation    int     `json:"generation" yaml:"generation"`
}

// Metadata holds optional descriptive fields carried alongside pattern code
type Metadata struct {
	ID           string        `json:"id,omitempty" yaml:"id,omitempty"`
	Genre        string        `json:"genre,omitempty" yaml:"genre,omitempty"`
	Mood         string        `json:"mood,omitempty" yaml:"mood,omitempty"`
	Generation   int           `json:"generation" yaml:"generation"`
	ParentIDs    []string      `json:"parent_ids,omitempty" yaml:"parent_ids,omitempty"`
	GenomeID     string        `json:"genome_id,omitempty" yaml:"genome_id,omitempty"`
	Engine       string        `json:"engine,omitempty" yaml:"engine,omitempty"`
	Strategy     string        `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Synthesized  bool          `json:"synthesized,omitempty" yaml:"synthesized,omitempty"`
	Hybrid       bool          `json:"hybrid,omitempty" yaml:"hybrid,omitempty"`
	Experimental bool          `json:"experimental,omitempty" yaml:"experimental,omitempty"`
	HybridGenres []string      `json:"hybrid_genres,omitempty" yaml:"hybrid_genres,omitempty"`
	Timestamp    time.Time     `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Breeding     *BreedingInfo `json:"breeding,omitempty" yaml:"breeding,omitempty"`
}

// Pattern is a live-coding snippet plus metadata. Producers always return
// new values; nothing in this module edits a Pattern it was handed.
type Pattern struct {
	Code        string   `json:"code" yaml:"code"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Metadata    Metadata `json:"metadata" yaml:"metadata"`
	Fitness     *float64 `json:"fitness,omitempty" yaml:"fitness,omitempty"`
	Parents     []string `json:"parents,omitempty" yaml:"parents,omitempty"`
}

// New returns a pattern for the given code with no metadata
func New(code string) Pattern {
	return Pattern{Code: code}
}

// Validate reports whether the pattern can be analyzed
func (p Pattern) Validate() error {
	if strings.TrimSpace(p.Code) == "" {
		return ErrEmptyCode
	}
	return nil
}

// Clone returns a copy that shares no slices with p
func (p Pattern) Clone() Pattern {
	c := p
	c.Parents = append([]string(nil), p.Parents...)
	c.Metadata.ParentIDs = append([]string(nil), p.Metadata.ParentIDs...)
	c.Metadata.HybridGenres = append([]string(nil), p.Metadata.HybridGenres...)
	if p.Fitness != nil {
		f := *p.Fitness
		c.Fitness = &f
	}
	if p.Metadata.Breeding != nil {
		b := *p.Metadata.Breeding
		c.Metadata.Breeding = &b
	}
	return c
}

// WithFitness returns a copy of p carrying the given fitness
func (p Pattern) WithFitness(f float64) Pattern {
	c := p.Clone()
	c.Fitness = &f
	return c
}

// FitnessOr returns the pattern fitness or def when none is set
func (p Pattern) FitnessOr(def float64) float64 {
	if p.Fitness == nil {
		return def
	}
	return *p.Fitness
}
