package genome

import (
	"hash/fnv"
	"math/rand"
	"strings"
	"time"

	"patternlab/internal/pattern"
)

// RandomIntervalCount is the length of a freshly randomized intervals gene
const RandomIntervalCount = 3

// System converts between pattern text and genomes and measures distance
type System struct {
	rng *rand.Rand
	now func() time.Time
}

// NewSystem creates a genome system drawing random genes from rng
func NewSystem(rng *rand.Rand) *System {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &System{rng: rng, now: time.Now}
}

// AnalyzePattern extracts a genome from pattern code. Genes that cannot be
// read from the text are drawn from a generator seeded with a hash of the
// code, so analyzing the same text twice yields the same genes.
func (s *System) AnalyzePattern(p pattern.Pattern) *Genome {
	code := p.Code
	seeded := rand.New(rand.NewSource(codeSeed(code)))

	noteCalls := pattern.NoteCalls(code)
	extracted := map[string]map[string]Gene{
		Rhythmic: {
			"kick":  Scalar(boolScore(pattern.HasInstrument(code, "bd"))),
			"snare": Scalar(boolScore(pattern.HasInstrument(code, "sd"))),
			"hihat": Scalar(boolScore(pattern.HasInstrument(code, "hh"))),
		},
		Melodic: {
			"intervals": Sequence(pattern.Intervals(code)),
			"range":     Scalar(float64(len(noteCalls)) / 4),
		},
		Structural: {
			"form": Scalar(float64(pattern.CountLayers(code)) / 4),
		},
	}
	if genre := strings.ToLower(strings.TrimSpace(p.Metadata.Genre)); genre != "" {
		extracted[Stylistic] = map[string]Gene{"genre": Text(genre)}
	}

	g := New()
	g.Metadata.Generation = p.Metadata.Generation
	g.Metadata.SourceGenre = p.Metadata.Genre
	if p.Fitness != nil {
		g.Metadata.Fitness = Clamp(*p.Fitness)
	}
	for _, c := range schema {
		for _, name := range c.Genes {
			// draw for every gene so extracted positions do not shift the sequence
			fallback := randomGene(seeded, c.Name, name)
			if v, ok := extracted[c.Name][name]; ok {
				g.SetGene(c.Name, name, v)
				continue
			}
			g.SetGene(c.Name, name, fallback)
		}
	}
	return g
}

// GeneticDistance is the weighted mean component distance between two genomes.
// A nil genome is maximally distant.
func (s *System) GeneticDistance(a, b *Genome) float64 {
	if a == nil || b == nil {
		return 1
	}
	var total, weights float64
	for _, c := range schema {
		total += a.CompareComponent(b, c.Name) * c.Weight
		weights += c.Weight
	}
	return total / weights
}

// GenomeToPattern synthesizes pattern code, returning the default pattern for nil
func (s *System) GenomeToPattern(g *Genome) pattern.Pattern {
	if g == nil {
		return pattern.Pattern{Code: DefaultCode, Metadata: pattern.Metadata{Timestamp: s.now()}}
	}
	return g.SynthesizePattern(s.now())
}

// RandomGenome returns a genome with every gene independently randomized
func (s *System) RandomGenome() *Genome {
	g := New()
	for _, c := range schema {
		for _, name := range c.Genes {
			g.SetGene(c.Name, name, randomGene(s.rng, c.Name, name))
		}
	}
	return g
}

// RandomGene draws a fresh value suited to the named gene
func (s *System) RandomGene(component, gene string) Gene {
	return randomGene(s.rng, component, gene)
}

// Rand exposes the generator shared with collaborators
func (s *System) Rand() *rand.Rand {
	return s.rng
}

// RandomGeneValue draws a fresh value for a gene from rng
func RandomGeneValue(rng *rand.Rand, component, gene string) Gene {
	return randomGene(rng, component, gene)
}

func randomGene(rng *rand.Rand, component, gene string) Gene {
	if component == Melodic && gene == "intervals" {
		seq := make([]float64, RandomIntervalCount)
		for i := range seq {
			seq[i] = float64(rng.Intn(12))
		}
		return Gene{Kind: KindSequence, Seq: seq}
	}
	return Scalar(rng.Float64())
}

func codeSeed(code string) int64 {
	h := fnv.New64a()
	h.Write([]byte(code))
	return int64(h.Sum64())
}

func boolScore(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
