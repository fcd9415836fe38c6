package storage

import (
	"context"
	"errors"

	"patternlab/internal/genome"
	"patternlab/internal/model"
)

// ErrNotInitialized is returned by stores used before Init
var ErrNotInitialized = errors.New("store is not initialized")

// Store persists evolution sessions, specimens and breeding history.
// List methods return records oldest first.
type Store interface {
	Init(ctx context.Context) error
	SaveSession(ctx context.Context, session model.Session) error
	GetSession(ctx context.Context, id string) (model.Session, bool, error)
	ListSessions(ctx context.Context) ([]model.Session, error)
	SaveSpecimens(ctx context.Context, specimens []*genome.Genome) error
	GetSpecimen(ctx context.Context, id string) (*genome.Genome, bool, error)
	CountSpecimens(ctx context.Context) (int, error)
	SaveBreedingEvent(ctx context.Context, event model.BreedingEvent) error
	ListBreedingEvents(ctx context.Context) ([]model.BreedingEvent, error)
	Reset(ctx context.Context) error
	Close() error
}

// Retention caps each collection. A collection that grows past its cap is
// trimmed to the newest 80% of the cap.
type Retention struct {
	Sessions       int `yaml:"sessions" mapstructure:"sessions" validate:"gte=1"`
	Specimens      int `yaml:"specimens" mapstructure:"specimens" validate:"gte=1"`
	BreedingEvents int `yaml:"breeding_events" mapstructure:"breeding_events" validate:"gte=1"`
}

// DefaultRetention matches the breeding history cap of 100 entries
var DefaultRetention = Retention{
	Sessions:       100,
	Specimens:      4096,
	BreedingEvents: 100,
}

func (r Retention) withDefaults() Retention {
	if r.Sessions <= 0 {
		r.Sessions = DefaultRetention.Sessions
	}
	if r.Specimens <= 0 {
		r.Specimens = DefaultRetention.Specimens
	}
	if r.BreedingEvents <= 0 {
		r.BreedingEvents = DefaultRetention.BreedingEvents
	}
	return r
}

// keepCount is how many records survive once count exceeds max
func keepCount(count, max int) int {
	if count <= max {
		return count
	}
	return max * 4 / 5
}

// copyGenome deep-copies g keeping its id
func copyGenome(g *genome.Genome) *genome.Genome {
	c := g.Clone()
	c.ID = g.ID
	return c
}
