package evolution

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"patternlab/internal/ga"
	"patternlab/internal/genome"
	"patternlab/internal/model"
	"patternlab/internal/pattern"
	"patternlab/internal/suggest"
)

// DefaultTreeDepth bounds how many ancestor levels a family tree resolves
const DefaultTreeDepth = 8

// Metadata identifies how a result was produced
type Metadata struct {
	SessionID       string    `json:"session_id"`
	Engine          string    `json:"evolution_engine"`
	Strategy        Strategy  `json:"strategy"`
	Generations     int       `json:"generations"`
	FinalFitness    float64   `json:"final_fitness"`
	GeneticDistance float64   `json:"genetic_distance"`
	Timestamp       time.Time `json:"timestamp"`
}

// Summary is the per-generation trajectory of a session
type Summary struct {
	FitnessProgression   []float64           `json:"fitness_progression"`
	DiversityProgression []float64           `json:"diversity_progression"`
	TraitEvolution       []map[string]string `json:"trait_evolution"`
	EmergentBehaviors    []string            `json:"emergent_behaviors"`
}

// FamilyTree is a genome and its resolved ancestors. Shared ancestors
// appear once under every descendant that names them.
type FamilyTree struct {
	ID         string                    `json:"id"`
	Generation int                       `json:"generation"`
	Fitness    float64                   `json:"fitness"`
	Traits     map[string]map[string]any `json:"traits"`
	Parents    []*FamilyTree             `json:"parents"`
}

// Genealogy condenses a family tree
type Genealogy struct {
	ID            string  `json:"id"`
	Generation    int     `json:"generation"`
	Fitness       float64 `json:"fitness"`
	ParentCount   int     `json:"parent_count"`
	AncestryDepth int     `json:"ancestry_depth"`
}

// Point is one sample of a per-generation series
type Point struct {
	Generation int     `json:"generation"`
	Value      float64 `json:"value"`
}

// Visualization holds chart-ready series
type Visualization struct {
	Fitness        []Point `json:"fitness_chart"`
	Diversity      []Point `json:"diversity_chart"`
	PopulationSize []Point `json:"population_size"`
}

// Result is the outcome of one evolution session
type Result struct {
	Success         bool            `json:"success"`
	EvolvedPattern  pattern.Pattern `json:"evolved_pattern"`
	OriginalPattern pattern.Pattern `json:"original_pattern"`
	Metadata        Metadata        `json:"metadata"`
	Summary         Summary         `json:"evolution_summary"`
	FamilyTree      *FamilyTree     `json:"family_tree"`
	LineageHash     string          `json:"lineage_hash"`
	Visualization   Visualization   `json:"visualization"`
	BestGenome      *genome.Genome  `json:"best_genome"`
}

func (e *Engine) buildResult(ctx context.Context, session *model.Session, original pattern.Pattern, originalGenome, best *genome.Genome, pop *ga.Population, cfg Config) (*Result, error) {
	tree, err := e.familyTree(ctx, best, DefaultTreeDepth)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	evolved := e.system.GenomeToPattern(best)
	evolved.Metadata.Engine = engineName
	evolved.Metadata.Strategy = string(cfg.Strategy)

	records := session.Generations
	return &Result{
		Success:         true,
		EvolvedPattern:  evolved,
		OriginalPattern: original.Clone(),
		Metadata: Metadata{
			SessionID:       session.ID,
			Engine:          engineName,
			Strategy:        cfg.Strategy,
			Generations:     len(records),
			FinalFitness:    session.FinalFitness,
			GeneticDistance: e.system.GeneticDistance(best, originalGenome),
			Timestamp:       now,
		},
		Summary: Summary{
			FitnessProgression:   series(records, func(r model.GenerationRecord) float64 { return r.Fitness.Maximum }),
			DiversityProgression: series(records, func(r model.GenerationRecord) float64 { return r.Diversity }),
			TraitEvolution:       traitEvolution(records),
			EmergentBehaviors:    emergentBehaviors(records, pop.Genomes),
		},
		FamilyTree:    tree,
		LineageHash:   LineageHash(tree),
		Visualization: visualize(records),
		BestGenome:    best,
	}, nil
}

// BuildFamilyTree resolves g's ancestors through the specimen store
func (e *Engine) BuildFamilyTree(ctx context.Context, g *genome.Genome) (*FamilyTree, error) {
	return e.familyTree(ctx, g, DefaultTreeDepth)
}

func (e *Engine) familyTree(ctx context.Context, g *genome.Genome, depth int) (*FamilyTree, error) {
	node := &FamilyTree{
		ID:         g.ID,
		Generation: g.Metadata.Generation,
		Fitness:    g.Metadata.Fitness,
		Traits:     g.TraitSummary(),
		Parents:    []*FamilyTree{},
	}
	if depth <= 0 {
		return node, nil
	}
	for _, id := range g.Metadata.ParentIDs {
		parent, ok, err := e.store.GetSpecimen(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("resolve parent %s: %w", id, err)
		}
		if !ok {
			continue
		}
		sub, err := e.familyTree(ctx, parent, depth-1)
		if err != nil {
			return nil, err
		}
		node.Parents = append(node.Parents, sub)
	}
	return node, nil
}

// Depth is the number of ancestor levels below the root
func (t *FamilyTree) Depth() int {
	if t == nil || len(t.Parents) == 0 {
		return 0
	}
	deepest := 0
	for _, p := range t.Parents {
		if d := p.Depth(); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}

// Genealogy summarizes the tree root
func (t *FamilyTree) Genealogy() Genealogy {
	return Genealogy{
		ID:            t.ID,
		Generation:    t.Generation,
		Fitness:       t.Fitness,
		ParentCount:   len(t.Parents),
		AncestryDepth: t.Depth(),
	}
}

func (t *FamilyTree) walk(fn func(*FamilyTree)) {
	fn(t)
	for _, p := range t.Parents {
		p.walk(fn)
	}
}

// LineageHash fingerprints every id in the tree, depth first
func LineageHash(t *FamilyTree) string {
	if t == nil {
		return "lineage_unknown"
	}
	h := sha1.New()
	t.walk(func(n *FamilyTree) {
		h.Write([]byte(n.ID))
		h.Write([]byte{0})
	})
	return "lineage_" + hex.EncodeToString(h.Sum(nil))
}

func series(records []model.GenerationRecord, value func(model.GenerationRecord) float64) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = value(r)
	}
	return out
}

func traitEvolution(records []model.GenerationRecord) []map[string]string {
	out := make([]map[string]string, len(records))
	for i, r := range records {
		out[i] = r.DominantTraits
	}
	return out
}

// emergentBehaviors reports components whose dominant gene changed over
// the session, then gene positions that are high across the final population
func emergentBehaviors(records []model.GenerationRecord, final []*genome.Genome) []string {
	out := []string{}
	if len(records) > 1 {
		first, last := records[0].DominantTraits, records[len(records)-1].DominantTraits
		for _, comp := range genome.ComponentNames() {
			if first[comp] != "" && last[comp] != "" && first[comp] != last[comp] {
				out = append(out, fmt.Sprintf("%s shifted from %s to %s", comp, first[comp], last[comp]))
			}
		}
	}
	for _, key := range suggest.EmergentPatterns(final) {
		out = append(out, "high "+key)
	}
	return out
}

func visualize(records []model.GenerationRecord) Visualization {
	v := Visualization{
		Fitness:        make([]Point, len(records)),
		Diversity:      make([]Point, len(records)),
		PopulationSize: make([]Point, len(records)),
	}
	for i, r := range records {
		v.Fitness[i] = Point{Generation: i, Value: r.Fitness.Maximum}
		v.Diversity[i] = Point{Generation: i, Value: r.Diversity}
		v.PopulationSize[i] = Point{Generation: i, Value: float64(r.PopulationSize)}
	}
	return v
}
