package model

import (
	"time"

	"patternlab/internal/pattern"
)

// SessionStatus is the lifecycle state of one evolution run
type SessionStatus string

const (
	StatusRunning   SessionStatus = "running"
	StatusConverged SessionStatus = "converged"
	StatusExhausted SessionStatus = "exhausted"
	StatusFailed    SessionStatus = "failed"
)

// FitnessStats summarizes a population's fitness scores
type FitnessStats struct {
	Average float64 `json:"average"`
	Maximum float64 `json:"maximum"`
	Minimum float64 `json:"minimum"`
	StdDev  float64 `json:"standard_deviation"`
}

// GenerationRecord is the per-generation snapshot appended to a session
type GenerationRecord struct {
	Generation     int               `json:"generation"`
	Timestamp      time.Time         `json:"timestamp"`
	PopulationSize int               `json:"population_size"`
	Diversity      float64           `json:"diversity"`
	Fitness        FitnessStats      `json:"fitness"`
	BestGenomeID   string            `json:"best_genome_id"`
	DominantTraits map[string]string `json:"dominant_traits,omitempty"`
	Species        map[string]int    `json:"species,omitempty"`
	Injected       int               `json:"injected,omitempty"`
}

// SessionConfig is the part of an evolution configuration kept with a session
type SessionConfig struct {
	Strategy          string  `json:"strategy"`
	Generations       int     `json:"generations"`
	TargetFitness     float64 `json:"target_fitness"`
	MutationIntensity float64 `json:"mutation_intensity"`
	PopulationSize    int     `json:"population_size"`
}

// Session is one call to evolve a pattern
type Session struct {
	ID           string             `json:"id"`
	StartedAt    time.Time          `json:"started_at"`
	FinishedAt   time.Time          `json:"finished_at,omitempty"`
	Original     pattern.Pattern    `json:"original"`
	Config       SessionConfig      `json:"config"`
	Status       SessionStatus      `json:"status"`
	Error        string             `json:"error,omitempty"`
	BestGenomeID string             `json:"best_genome_id,omitempty"`
	FinalFitness float64            `json:"final_fitness"`
	Generations  []GenerationRecord `json:"generations"`
}

// Complete reports whether the session reached a terminal state
func (s Session) Complete() bool {
	return s.Status == StatusConverged || s.Status == StatusExhausted
}

// BreedingEvent records one call to the cross-pattern breeding system
type BreedingEvent struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Strategy      string    `json:"strategy"`
	ParentIDs     []string  `json:"parent_ids"`
	OffspringIDs  []string  `json:"offspring_ids"`
	Compatibility float64   `json:"compatibility"`
	MutationRate  float64   `json:"mutation_rate"`
	CrossoverRate float64   `json:"crossover_rate"`
	Offspring     int       `json:"offspring"`
	Success       bool      `json:"success"`
}
