// Package evolution runs generational pattern evolution sessions.
package evolution

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"patternlab/internal/eval"
	"patternlab/internal/ga"
	"patternlab/internal/genome"
	"patternlab/internal/metrics"
	"patternlab/internal/model"
	"patternlab/internal/pattern"
	"patternlab/internal/storage"
	"patternlab/internal/suggest"
)

// Version is stamped on every result
const Version = "4.0.0"

const engineName = "pattern_evolution_v" + Version

const (
	diversityThreshold = 0.3
	diversityInterval  = 5
	injectFraction     = 0.25
	seedAttempts       = 10
	randomAttempts     = 50

	statusOriginal = "original"
	statusRandom   = "random"
)

// Options wires an Engine's collaborators. Every field is optional.
type Options struct {
	Rand    *rand.Rand
	Store   storage.Store // must already be initialized
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
	Workers int

	// OnGeneration is called after each generation is recorded
	OnGeneration func(sessionID string, rec model.GenerationRecord)
}

// Engine evolves patterns. Sessions run one at a time; concurrent calls
// queue on an internal lock because the random source is shared.
type Engine struct {
	mu sync.Mutex

	rng       *rand.Rand
	system    *genome.System
	mutator   *ga.MutationEngine
	chamber   *ga.BreedingChamber
	evaluator *eval.Evaluator
	suggester *suggest.Engine

	store        storage.Store
	log          zerolog.Logger
	metrics      *metrics.Metrics
	onGeneration func(string, model.GenerationRecord)
}

// New creates an engine. Without a store an in-memory one is created.
func New(opts Options) (*Engine, error) {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	store := opts.Store
	if store == nil {
		mem := storage.NewMemoryStore(storage.DefaultRetention)
		if err := mem.Init(context.Background()); err != nil {
			return nil, err
		}
		store = mem
	}

	system := genome.NewSystem(rng)
	return &Engine{
		rng:          rng,
		system:       system,
		mutator:      ga.NewMutationEngine(rng),
		chamber:      ga.NewBreedingChamber(rng),
		evaluator:    eval.NewEvaluator(opts.Workers),
		suggester:    suggest.NewEngine(system),
		store:        store,
		log:          opts.Logger.With().Str("component", "evolution").Logger(),
		metrics:      opts.Metrics,
		onGeneration: opts.OnGeneration,
	}, nil
}

// EvolvePattern evolves p for up to cfg.Generations generations and returns
// the fittest descendant. The session is recorded in the store whether or
// not the run succeeds.
func (e *Engine) EvolvePattern(ctx context.Context, p pattern.Pattern, cfg Config) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	session := model.Session{
		ID:          "evolution_" + uuid.NewString(),
		StartedAt:   start.UTC(),
		Original:    p.Clone(),
		Config:      cfg.sessionConfig(),
		Status:      model.StatusRunning,
		Generations: []model.GenerationRecord{},
	}
	log := e.log.With().Str("session", session.ID).Str("strategy", string(cfg.Strategy)).Logger()

	if err := e.store.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("evolution failed: %w", err)
	}
	log.Info().Int("generations", cfg.Generations).Float64("target", cfg.TargetFitness).Msg("starting evolution")

	res, err := e.run(ctx, &session, p, cfg, log)
	session.FinishedAt = time.Now().UTC()
	if err != nil {
		session.Status = model.StatusFailed
		session.Error = err.Error()
		if serr := e.store.SaveSession(context.WithoutCancel(ctx), session); serr != nil {
			log.Error().Err(serr).Msg("failed to record session")
		}
		e.metrics.ObserveSession(string(cfg.Strategy), string(session.Status), time.Since(start))
		log.Error().Err(err).Msg("evolution failed")
		return nil, fmt.Errorf("evolution failed: %w", err)
	}

	if err := e.store.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("evolution failed: %w", err)
	}
	e.metrics.ObserveSession(string(cfg.Strategy), string(session.Status), time.Since(start))

	log.Info().
		Int("generations", res.Metadata.Generations).
		Float64("fitness", res.Metadata.FinalFitness).
		Float64("distance", res.Metadata.GeneticDistance).
		Str("status", string(session.Status)).
		Msg("evolution complete")
	return res, nil
}

func (e *Engine) run(ctx context.Context, session *model.Session, p pattern.Pattern, cfg Config, log zerolog.Logger) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	original := e.system.AnalyzePattern(p)
	original.Metadata.Status = statusOriginal
	if cfg.PreserveOriginalDNA {
		if err := e.store.SaveSpecimens(ctx, []*genome.Genome{original}); err != nil {
			return nil, err
		}
	}

	pop, err := e.initialPopulation(original, cfg)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("population", pop.Size()).Msg("population initialized")

	session.Status = model.StatusExhausted
	for gen := 0; gen < cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := e.evaluate(ctx, pop, cfg); err != nil {
			return nil, err
		}
		best, bestFitness := pop.Best()
		rec := e.record(gen, pop, best)
		if err := e.store.SaveSpecimens(ctx, pop.Genomes); err != nil {
			return nil, err
		}
		e.metrics.ObserveGeneration(string(cfg.Strategy), bestFitness, rec.Diversity)

		converged := bestFitness >= cfg.TargetFitness
		if !converged {
			next, err := e.applyStrategy(pop, cfg, gen)
			if err != nil {
				return nil, err
			}
			pop.Replace(next)

			if gen%diversityInterval == 0 {
				rec.Injected = e.ensureDiversity(pop, cfg)
			}
		}

		session.Generations = append(session.Generations, rec)
		log.Debug().
			Int("generation", gen).
			Float64("best", bestFitness).
			Float64("mean", rec.Fitness.Average).
			Float64("diversity", rec.Diversity).
			Int("species", len(rec.Species)).
			Msg("generation")
		if e.onGeneration != nil {
			e.onGeneration(session.ID, rec)
		}

		if converged {
			session.Status = model.StatusConverged
			log.Info().Int("generation", gen).Float64("fitness", bestFitness).Msg("target fitness reached")
			break
		}
	}

	if err := e.evaluate(ctx, pop, cfg); err != nil {
		return nil, err
	}
	best, bestFitness := pop.Best()
	if err := e.store.SaveSpecimens(ctx, pop.Genomes); err != nil {
		return nil, err
	}
	session.BestGenomeID = best.ID
	session.FinalFitness = bestFitness

	return e.buildResult(ctx, session, p, original, best, pop, cfg)
}

func (e *Engine) evaluate(ctx context.Context, pop *ga.Population, cfg Config) error {
	scores, err := e.evaluator.EvaluatePopulation(ctx, pop.Genomes, cfg.UserPreferences)
	if err != nil {
		return err
	}
	pop.SetFitness(scores)
	return nil
}

func (e *Engine) record(gen int, pop *ga.Population, best *genome.Genome) model.GenerationRecord {
	return model.GenerationRecord{
		Generation:     gen,
		Timestamp:      time.Now().UTC(),
		PopulationSize: pop.Size(),
		Diversity:      ga.Diversity(e.system, pop.Genomes),
		Fitness:        ga.Summarize(pop.Fitness),
		BestGenomeID:   best.ID,
		DominantTraits: suggest.DominantTraits(pop.Genomes),
		Species:        ga.SpeciesCounts(pop.Genomes),
	}
}
