package genome

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidGenome is wrapped by Validate failures
var ErrInvalidGenome = errors.New("invalid genome")

// Metadata is the bookkeeping carried by every genome
type Metadata struct {
	Generation    int       `json:"generation"`
	ParentIDs     []string  `json:"parent_ids"`
	Fitness       float64   `json:"fitness"`
	Mutations     []string  `json:"mutations,omitempty"`
	Status        string    `json:"status,omitempty"`
	Strategy      string    `json:"strategy,omitempty"`
	Intensity     float64   `json:"intensity,omitempty"`
	Crossover     string    `json:"crossover,omitempty"`
	Hybrid        bool      `json:"hybrid,omitempty"`
	Experimental  bool      `json:"experimental,omitempty"`
	ParentSpecies []string  `json:"parent_species,omitempty"`
	SourceGenre   string    `json:"source_genre,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Genome is the gene-level encoding of one pattern
type Genome struct {
	ID       string                     `json:"id"`
	Genes    map[string]map[string]Gene `json:"genes"`
	Metadata Metadata                   `json:"metadata"`
}

// New returns an empty genome with a fresh id
func New() *Genome {
	return &Genome{
		ID:       uuid.NewString(),
		Genes:    make(map[string]map[string]Gene, len(schema)),
		Metadata: Metadata{ParentIDs: []string{}, CreatedAt: time.Now().UTC()},
	}
}

// Clone deep-copies the genome under a new id
func (g *Genome) Clone() *Genome {
	c := &Genome{
		ID:       uuid.NewString(),
		Genes:    make(map[string]map[string]Gene, len(g.Genes)),
		Metadata: g.Metadata,
	}
	c.Metadata.ParentIDs = append([]string{}, g.Metadata.ParentIDs...)
	c.Metadata.Mutations = append([]string(nil), g.Metadata.Mutations...)
	c.Metadata.ParentSpecies = append([]string(nil), g.Metadata.ParentSpecies...)
	for comp, genes := range g.Genes {
		cg := make(map[string]Gene, len(genes))
		for name, v := range genes {
			cg[name] = v.Clone()
		}
		c.Genes[comp] = cg
	}
	return c
}

// Gene returns a gene and whether it exists
func (g *Genome) Gene(component, gene string) (Gene, bool) {
	genes, ok := g.Genes[component]
	if !ok {
		return Gene{}, false
	}
	v, ok := genes[gene]
	return v, ok
}

// SetGene stores a gene, clamping scalars
func (g *Genome) SetGene(component, gene string, v Gene) {
	if v.Kind == KindScalar {
		v.Scalar = Clamp(v.Scalar)
	}
	genes, ok := g.Genes[component]
	if !ok {
		genes = make(map[string]Gene)
		g.Genes[component] = genes
	}
	genes[gene] = v
}

// ScalarValue returns the numeric value of a gene, 0 when missing or non-numeric
func (g *Genome) ScalarValue(component, gene string) float64 {
	v, ok := g.Gene(component, gene)
	if !ok {
		return 0
	}
	f, _ := v.Numeric()
	return f
}

// Genre returns the text genre gene, if one was extracted
func (g *Genome) Genre() string {
	v, ok := g.Gene(Stylistic, "genre")
	if !ok || v.Kind != KindText {
		return ""
	}
	return v.Text
}

// CompareComponent is the mean gene difference within one component.
// A component missing on either side is maximally distant.
func (g *Genome) CompareComponent(other *Genome, component string) float64 {
	a, ok := g.Genes[component]
	if !ok {
		return 1
	}
	b, ok := other.Genes[component]
	if !ok {
		return 1
	}
	var total float64
	count := 0
	for _, name := range orderedGenes(component, a) {
		bv, ok := b[name]
		if !ok {
			continue
		}
		total += Difference(a[name], bv)
		count++
	}
	if count == 0 {
		return 1
	}
	return total / float64(count)
}

// TraitSummary is a rounded view of every gene, for display and logs
func (g *Genome) TraitSummary() map[string]map[string]any {
	out := make(map[string]map[string]any, len(g.Genes))
	for comp, genes := range g.Genes {
		m := make(map[string]any, len(genes))
		for name, v := range genes {
			m[name] = v.Simplified()
		}
		out[comp] = m
	}
	return out
}

// SpeciesIdentifier buckets genomes by the dominant gene of each component
func (g *Genome) SpeciesIdentifier() string {
	parts := make([]string, 0, len(schema))
	for _, c := range schema {
		genes, ok := g.Genes[c.Name]
		if !ok {
			continue
		}
		parts = append(parts, c.Name+":"+dominantGene(c.Name, genes))
	}
	return strings.Join(parts, "|")
}

func dominantGene(component string, genes map[string]Gene) string {
	best := -1.0
	dominant := "unknown"
	for _, name := range orderedGenes(component, genes) {
		v, ok := genes[name].Numeric()
		if !ok {
			v = 0.5
		}
		if v > best {
			best = v
			dominant = name
		}
	}
	return dominant
}

// DominantGenes maps each component to its dominant gene
func (g *Genome) DominantGenes() map[string]string {
	out := make(map[string]string, len(g.Genes))
	for _, c := range schema {
		if genes, ok := g.Genes[c.Name]; ok {
			out[c.Name] = dominantGene(c.Name, genes)
		}
	}
	return out
}

// ComplexityScore grows with gene magnitude and sequence length
func (g *Genome) ComplexityScore() float64 {
	var sum float64
	g.Each(func(_, _ string, v Gene) {
		switch v.Kind {
		case KindScalar:
			sum += math.Abs(v.Scalar)
		case KindSequence:
			sum += 0.1 * float64(len(v.Seq))
		default:
			sum += 0.5
		}
	})
	return math.Min(1, sum/10)
}

// CreativityScore rewards extreme scalar genes over moderate ones
func (g *Genome) CreativityScore() float64 {
	var sum float64
	g.Each(func(_, _ string, v Gene) {
		if f, ok := v.Numeric(); ok {
			sum += math.Abs(f-0.5) * 2
			return
		}
		sum += 0.5
	})
	return math.Min(1, sum/5)
}

// DistinctiveTraits returns scalar genes at least 0.25 away from the
// neutral 0.5, keyed "component.gene".
func (g *Genome) DistinctiveTraits() map[string]float64 {
	out := make(map[string]float64)
	g.Each(func(comp, name string, v Gene) {
		if f, ok := v.Numeric(); ok && math.Abs(f-0.5) >= 0.25 {
			out[comp+"."+name] = f
		}
	})
	return out
}

// HasSignificantGenes reports whether any gene in component would be voiced
func (g *Genome) HasSignificantGenes(component string) bool {
	for _, v := range g.Genes[component] {
		if v.Significant() {
			return true
		}
	}
	return false
}

// Validate checks schema completeness and scalar bounds
func (g *Genome) Validate() error {
	for _, c := range schema {
		genes, ok := g.Genes[c.Name]
		if !ok {
			return fmt.Errorf("%w: missing component %s", ErrInvalidGenome, c.Name)
		}
		for _, name := range c.Genes {
			v, ok := genes[name]
			if !ok {
				return fmt.Errorf("%w: missing gene %s.%s", ErrInvalidGenome, c.Name, name)
			}
			if v.Kind == KindScalar && (v.Scalar < 0 || v.Scalar > 1) {
				return fmt.Errorf("%w: gene %s.%s out of range: %f", ErrInvalidGenome, c.Name, name, v.Scalar)
			}
		}
	}
	return nil
}

// Each visits genes in canonical order
func (g *Genome) Each(fn func(component, gene string, v Gene)) {
	for _, c := range schema {
		genes, ok := g.Genes[c.Name]
		if !ok {
			continue
		}
		for _, name := range orderedGenes(c.Name, genes) {
			fn(c.Name, name, genes[name])
		}
	}
}

// orderedGenes lists schema genes first, then any extras in sorted order
func orderedGenes(component string, genes map[string]Gene) []string {
	names := make([]string, 0, len(genes))
	seen := make(map[string]bool, len(genes))
	for _, name := range GeneNames(component) {
		if _, ok := genes[name]; ok {
			names = append(names, name)
			seen[name] = true
		}
	}
	if len(names) == len(genes) {
		return names
	}
	var extra []string
	for name := range genes {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}
