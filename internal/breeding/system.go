// Package breeding crosses live-coding patterns directly from their source
// text, without the generational genome machinery.
package breeding

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"patternlab/internal/metrics"
	"patternlab/internal/model"
	"patternlab/internal/pattern"
	"patternlab/internal/storage"
)

// Version is stamped on every offspring
const Version = "3.1.0"

const engineName = "cross_pattern_breeding_v" + Version

const (
	maxPolygamousExtra = 3 // 3 to 5 parents
	minPolygamous      = 3
	maxChimeraParents  = 4
	asexualMutation    = 2.0
	chimericMutation   = 0.5
)

// ParentCountError reports a strategy called with too few parents
type ParentCountError struct {
	Strategy Strategy
	Need     int
}

func (e *ParentCountError) Error() string {
	return fmt.Sprintf("%s reproduction requires at least %d parents", e.Strategy, e.Need)
}

// Is matches ErrInsufficientParents
func (e *ParentCountError) Is(target error) bool {
	return target == ErrInsufficientParents
}

// Options wires a System's collaborators. Every field is optional.
type Options struct {
	Rand    *rand.Rand
	Store   storage.Store // must already be initialized
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// System breeds offspring from parent patterns and keeps a bounded history
// of breeding events in its store. Calls are serialized because the random
// source is shared.
type System struct {
	mu sync.Mutex

	rng     *rand.Rand
	store   storage.Store
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// New creates a breeding system. Without a store an in-memory one is created.
func New(opts Options) (*System, error) {
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
	return &System{
		rng:     rng,
		store:   store,
		log:     opts.Logger.With().Str("component", "breeding").Logger(),
		metrics: opts.Metrics,
	}, nil
}

// BreedPatterns produces cfg.Offspring children from parents. Parents with
// empty code are ignored. Parents without an id are given one so offspring
// can name them.
func (s *System) BreedPatterns(ctx context.Context, parents []pattern.Pattern, cfg Config) ([]pattern.Pattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	offspring, compat, err := s.breed(ctx, parents, cfg)
	s.metrics.ObserveBreeding(string(cfg.Strategy), len(offspring), compat, err)
	if err != nil {
		s.log.Error().Err(err).Str("strategy", string(cfg.Strategy)).Int("parents", len(parents)).Msg("breeding failed")
		return nil, fmt.Errorf("breeding failed: %w", err)
	}
	return offspring, nil
}

func (s *System) breed(ctx context.Context, parents []pattern.Pattern, cfg Config) ([]pattern.Pattern, float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, 0, err
	}

	valid := validParents(parents)
	if len(valid) == 0 {
		return nil, 0, ErrNoValidParents
	}
	compat := Compatibility(valid)
	if len(valid) > 1 {
		s.log.Debug().Float64("compatibility", compat).Int("parents", len(valid)).Msg("parent compatibility")
	}

	offspring, err := s.reproduce(cfg.Strategy, valid, cfg)
	if err != nil {
		return nil, compat, err
	}
	for i := range offspring {
		s.postProcess(&offspring[i], valid, cfg, compat)
	}

	if err := s.record(ctx, valid, offspring, cfg, compat); err != nil {
		return nil, compat, err
	}
	s.log.Info().
		Str("strategy", string(cfg.Strategy)).
		Int("parents", len(valid)).
		Int("offspring", len(offspring)).
		Msg("breeding complete")
	return offspring, compat, nil
}

func validParents(parents []pattern.Pattern) []pattern.Pattern {
	out := make([]pattern.Pattern, 0, len(parents))
	for _, p := range parents {
		if p.Code == "" {
			continue
		}
		c := p.Clone()
		if c.Metadata.ID == "" {
			c.Metadata.ID = "pattern_" + uuid.NewString()
		}
		out = append(out, c)
	}
	return out
}

func (s *System) reproduce(strategy Strategy, parents []pattern.Pattern, cfg Config) ([]pattern.Pattern, error) {
	switch strategy {
	case Sexual:
		return s.sexual(parents, cfg)
	case Asexual:
		return s.asexual(parents, cfg), nil
	case Polygamous:
		return s.polygamous(parents, cfg)
	case Hybrid:
		return s.hybrid(parents, cfg), nil
	case Chimeric:
		return s.chimeric(parents, cfg), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
}

func (s *System) sexual(parents []pattern.Pattern, cfg Config) ([]pattern.Pattern, error) {
	if len(parents) < 2 {
		return nil, &ParentCountError{Strategy: Sexual, Need: 2}
	}
	out := make([]pattern.Pattern, 0, cfg.Offspring)
	for i := 0; i < cfg.Offspring; i++ {
		out = append(out, s.sexualChild(parents, cfg))
	}
	return out, nil
}

func (s *System) sexualChild(parents []pattern.Pattern, cfg Config) pattern.Pattern {
	i := s.selectParent(parents, cfg)
	p1 := parents[i]
	rest := append(append([]pattern.Pattern(nil), parents[:i]...), parents[i+1:]...)
	p2 := rest[s.selectParent(rest, cfg)]

	g := crossover(s.rng, Extract(p1.Code, s.rng), Extract(p2.Code, s.rng), cfg)
	g = mutate(s.rng, g, cfg.MutationRate)
	return s.child(g, []pattern.Pattern{p1, p2}, cfg)
}

func (s *System) asexual(parents []pattern.Pattern, cfg Config) []pattern.Pattern {
	out := make([]pattern.Pattern, 0, cfg.Offspring)
	for i := 0; i < cfg.Offspring; i++ {
		out = append(out, s.asexualChild(parents, cfg))
	}
	return out
}

func (s *System) asexualChild(parents []pattern.Pattern, cfg Config) pattern.Pattern {
	p := parents[s.selectParent(parents, cfg)]
	g := mutate(s.rng, Extract(p.Code, s.rng), cfg.MutationRate*asexualMutation)
	return s.child(g, []pattern.Pattern{p}, cfg)
}

func (s *System) polygamous(parents []pattern.Pattern, cfg Config) ([]pattern.Pattern, error) {
	if len(parents) < minPolygamous {
		return nil, &ParentCountError{Strategy: Polygamous, Need: minPolygamous}
	}
	out := make([]pattern.Pattern, 0, cfg.Offspring)
	for i := 0; i < cfg.Offspring; i++ {
		n := min(len(parents), minPolygamous+s.rng.Intn(maxPolygamousExtra))
		selected := selectParents(s.rng, parents, n, cfg.FitnessWeighting)

		genomes := make([]Genome, len(selected))
		for j, p := range selected {
			genomes[j] = Extract(p.Code, s.rng)
		}
		g := mutate(s.rng, multiParentCrossover(s.rng, genomes, cfg), cfg.MutationRate)
		out = append(out, s.child(g, selected, cfg))
	}
	return out, nil
}

// hybrid picks sexual or asexual reproduction per child. With a single
// parent every child is asexual.
func (s *System) hybrid(parents []pattern.Pattern, cfg Config) []pattern.Pattern {
	out := make([]pattern.Pattern, 0, cfg.Offspring)
	for i := 0; i < cfg.Offspring; i++ {
		if len(parents) > 1 && s.rng.Float64() < 0.5 {
			out = append(out, s.sexualChild(parents, cfg))
			continue
		}
		out = append(out, s.asexualChild(parents, cfg))
	}
	return out
}

// chimeric hands each chromosome kind wholesale to one parent, round robin
func (s *System) chimeric(parents []pattern.Pattern, cfg Config) []pattern.Pattern {
	out := make([]pattern.Pattern, 0, cfg.Offspring)
	for i := 0; i < cfg.Offspring; i++ {
		selected := selectParents(s.rng, parents, min(len(parents), maxChimeraParents), cfg.FitnessWeighting)

		g := make(Genome, len(Kinds))
		for k, kind := range Kinds {
			idx := k % len(selected)
			chrs := Extract(selected[idx].Code, s.rng)[kind]
			for j := range chrs {
				chrs[j].Source = fmt.Sprintf("chimeric_parent_%d", idx)
			}
			g[kind] = chrs
		}
		g = mutate(s.rng, g, cfg.MutationRate*chimericMutation)
		out = append(out, s.child(g, selected, cfg))
	}
	return out
}

func (s *System) selectParent(parents []pattern.Pattern, cfg Config) int {
	return selectParent(s.rng, parents, cfg.FitnessWeighting)
}

// child renders g into a pattern whose metadata descends from parents
func (s *System) child(g Genome, parents []pattern.Pattern, cfg Config) pattern.Pattern {
	ids := make([]string, len(parents))
	gen := 0
	for i, p := range parents {
		ids[i] = p.Metadata.ID
		gen = max(gen, p.Metadata.Generation)
	}

	md := pattern.Metadata{
		ID:         "offspring_" + uuid.NewString(),
		Mood:       parents[0].Metadata.Mood,
		Generation: gen + 1,
		ParentIDs:  ids,
		Engine:     engineName,
		Strategy:   string(cfg.Strategy),
		Timestamp:  time.Now().UTC(),
	}
	genres := parentGenres(parents)
	switch {
	case cfg.PreserveGenre:
		md.Genre = parents[0].Metadata.Genre
	case len(genres) > 1 && cfg.AllowHybridization:
		md.Genre = strings.Join(genres, "_") + "_hybrid"
		md.HybridGenres = genres
		md.Hybrid = true
	case len(genres) > 0:
		md.Genre = genres[0]
	}

	return pattern.Pattern{
		Code:        g.Render(),
		Description: describe(parents, cfg.Strategy),
		Metadata:    md,
		Parents:     append([]string(nil), ids...),
	}
}

// parentGenres lists the distinct non-empty genres in parent order
func parentGenres(parents []pattern.Pattern) []string {
	var out []string
	seen := make(map[string]bool)
	for _, p := range parents {
		g := p.Metadata.Genre
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
	}
	return out
}

func describe(parents []pattern.Pattern, strategy Strategy) string {
	var genres []string
	seen := make(map[string]bool)
	for _, p := range parents {
		if g := genreOf(p); !seen[g] {
			seen[g] = true
			genres = append(genres, g)
		}
	}

	switch strategy {
	case Sexual:
		return fmt.Sprintf("Offspring of %s patterns through sexual reproduction", strings.Join(genres, " and "))
	case Asexual:
		return fmt.Sprintf("Asexual clone of %s pattern with mutations", genres[0])
	case Polygamous:
		return fmt.Sprintf("Multi-parent offspring combining %s influences", strings.Join(genres, ", "))
	case Chimeric:
		return fmt.Sprintf("Chimeric fusion of %s pattern elements", strings.Join(genres, ", "))
	}
	return fmt.Sprintf("Hybrid offspring of %s patterns", strings.Join(genres, " and "))
}

func (s *System) postProcess(child *pattern.Pattern, parents []pattern.Pattern, cfg Config, compat float64) {
	child.Metadata.Breeding = &pattern.BreedingInfo{
		Strategy:      string(cfg.Strategy),
		ParentCount:   len(parents),
		Compatibility: compat,
		MutationRate:  cfg.MutationRate,
		CrossoverRate: cfg.CrossoverRate,
		Generation:    child.Metadata.Generation,
	}
	f := EstimateFitness(child.Metadata.Generation, parents, compat)
	child.Fitness = &f
}

// EstimateFitness guesses an offspring's fitness from parent compatibility,
// its generation and the mean parent fitness. Parents without a fitness
// count as 0.5. The result is clamped to [0,1].
func EstimateFitness(generation int, parents []pattern.Pattern, compat float64) float64 {
	f := 0.5 + compat*0.2
	f += math.Min(0.1, float64(generation)*0.02)
	if len(parents) > 0 {
		total := 0.0
		for _, p := range parents {
			total += parentWeight(p)
		}
		f += (total/float64(len(parents)) - 0.5) * 0.3
	}
	return math.Max(0, math.Min(1, f))
}

func (s *System) record(ctx context.Context, parents, offspring []pattern.Pattern, cfg Config, compat float64) error {
	event := model.BreedingEvent{
		ID:            uuid.NewString(),
		Timestamp:     time.Now().UTC(),
		Strategy:      string(cfg.Strategy),
		ParentIDs:     make([]string, len(parents)),
		OffspringIDs:  make([]string, len(offspring)),
		Compatibility: compat,
		MutationRate:  cfg.MutationRate,
		CrossoverRate: cfg.CrossoverRate,
		Offspring:     cfg.Offspring,
		Success:       len(offspring) > 0,
	}
	for i, p := range parents {
		event.ParentIDs[i] = p.Metadata.ID
	}
	for i, o := range offspring {
		event.OffspringIDs[i] = o.Metadata.ID
	}
	if err := s.store.SaveBreedingEvent(ctx, event); err != nil {
		return fmt.Errorf("record breeding event: %w", err)
	}
	return nil
}

// History lists recorded breeding events, oldest first
func (s *System) History(ctx context.Context) ([]model.BreedingEvent, error) {
	return s.store.ListBreedingEvents(ctx)
}

// Stats summarizes the recorded breeding history
type Stats struct {
	TotalBreedings       int      `json:"total_breedings"`
	StrategiesUsed       []string `json:"strategies_used"`
	AverageCompatibility float64  `json:"average_compatibility"`
	SuccessRate          float64  `json:"success_rate"`
	Version              string   `json:"version"`
}

// Stats aggregates the breeding history held by the store. Averages are 0
// when nothing has been bred.
func (s *System) Stats(ctx context.Context) (Stats, error) {
	events, err := s.store.ListBreedingEvents(ctx)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{TotalBreedings: len(events), StrategiesUsed: []string{}, Version: Version}
	if len(events) == 0 {
		return st, nil
	}

	seen := make(map[string]bool)
	compat, succeeded := 0.0, 0
	for _, e := range events {
		if !seen[e.Strategy] {
			seen[e.Strategy] = true
			st.StrategiesUsed = append(st.StrategiesUsed, e.Strategy)
		}
		compat += e.Compatibility
		if e.Success {
			succeeded++
		}
	}
	st.AverageCompatibility = compat / float64(len(events))
	st.SuccessRate = float64(succeeded) / float64(len(events))
	return st, nil
}
