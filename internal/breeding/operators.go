package breeding

import (
	"math"
	"math/rand"
	"strconv"
	"strings"

	"patternlab/internal/pattern"
)

const (
	maxEffects        = 4
	rhythmSwapRate    = 0.3
	noteSwapRate      = 0.2
	textureDrift      = 0.2
	defaultTextureVal = 0.5
	neutralFitness    = 0.5
	restToken         = "~"
)

var rhythmAlternatives = map[string]string{
	"bd": "kick",
	"sd": "snare",
	"hh": "hihat",
	"~":  "bd",
}

var mutationNotes = []string{"c4", "d4", "e4", "f4", "g4", "a4", "b4", restToken}

// crossover pairs chromosomes position by position within each kind.
// Positions only one parent has are passed through.
func crossover(rng *rand.Rand, g1, g2 Genome, cfg Config) Genome {
	child := make(Genome, len(Kinds))
	for _, k := range Kinds {
		a, b := g1[k], g2[k]
		n := max(len(a), len(b))
		out := make([]Chromosome, 0, n)
		for i := 0; i < n; i++ {
			switch {
			case i < len(a) && i < len(b):
				if rng.Float64() < cfg.CrossoverRate {
					out = append(out, recombine(rng, a[i], b[i]))
				} else {
					out = append(out, selectByDominance(rng, a[i], b[i], cfg.Dominance).clone())
				}
			case i < len(a):
				c := a[i].clone()
				c.Source = "parent1_only"
				out = append(out, c)
			default:
				c := b[i].clone()
				c.Source = "parent2_only"
				out = append(out, c)
			}
		}
		child[k] = out
	}
	return child
}

func recombine(rng *rand.Rand, a, b Chromosome) Chromosome {
	out := Chromosome{
		Kind:      a.Kind,
		Dominance: (a.Dominance + b.Dominance) / 2,
		Source:    "crossover",
	}
	switch a.Kind {
	case Rhythm:
		out.Pattern = strings.Join(crossTokens(rng, strings.Fields(a.Pattern), strings.Fields(b.Pattern)), " ")
		out.Effects = combineEffects(a.Effects, b.Effects)
	case Melody, Harmony:
		out.Notes = crossTokens(rng, a.Notes, b.Notes)
		out.Effects = combineEffects(a.Effects, b.Effects)
	case Structure:
		out.Element = pick(rng, a.Element, b.Element)
		out.Params = averageParams(a.Params, b.Params)
	case Texture:
		out.Effect = pick(rng, a.Effect, b.Effect)
		out.Params = averageParams(a.Params, b.Params)
	}
	return out
}

// crossTokens picks each step from either side, padding the shorter with rests
func crossTokens(rng *rand.Rand, a, b []string) []string {
	n := max(len(a), len(b))
	out := make([]string, n)
	for i := range out {
		t1, t2 := restToken, restToken
		if i < len(a) {
			t1 = a[i]
		}
		if i < len(b) {
			t2 = b[i]
		}
		out[i] = pick(rng, t1, t2)
	}
	return out
}

func pick(rng *rand.Rand, a, b string) string {
	if rng.Float64() < 0.5 {
		return a
	}
	return b
}

func selectByDominance(rng *rand.Rand, a, b Chromosome, rule Dominance) Chromosome {
	switch rule {
	case Balanced:
		if a.Dominance > b.Dominance {
			return a
		}
		return b
	case Maternal:
		return a
	case Paternal:
		return b
	}
	if rng.Float64() < 0.5 {
		return a
	}
	return b
}

// combineEffects keeps a's effects and adds b's that a lacks by name
func combineEffects(a, b []pattern.Effect) []pattern.Effect {
	out := append([]pattern.Effect(nil), a...)
	for _, e := range b {
		seen := false
		for _, have := range out {
			if have.Name == e.Name {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, e)
		}
	}
	if len(out) > maxEffects {
		out = out[:maxEffects]
	}
	return out
}

func averageParams(a, b string) string {
	v1, _ := leadingFloat(a)
	v2, _ := leadingFloat(b)
	return strconv.FormatFloat((v1+v2)/2, 'f', 2, 64)
}

// multiParentCrossover chooses one chromosome per position from the parents
// that have one there
func multiParentCrossover(rng *rand.Rand, genomes []Genome, cfg Config) Genome {
	child := make(Genome, len(Kinds))
	for _, k := range Kinds {
		n := 0
		for _, g := range genomes {
			n = max(n, len(g[k]))
		}
		out := make([]Chromosome, 0, n)
		for i := 0; i < n; i++ {
			var available []Chromosome
			for _, g := range genomes {
				if i < len(g[k]) {
					available = append(available, g[k][i])
				}
			}
			c := weightedChromosome(rng, available, cfg.FitnessWeighting).clone()
			c.Source = "multi_parent_selection"
			out = append(out, c)
		}
		child[k] = out
	}
	return child
}

// weightedChromosome draws by dominance when weighted, uniformly otherwise
func weightedChromosome(rng *rand.Rand, chrs []Chromosome, weighted bool) Chromosome {
	if !weighted {
		return chrs[rng.Intn(len(chrs))]
	}
	total := 0.0
	for _, c := range chrs {
		total += c.Dominance
	}
	r := rng.Float64() * total
	acc := 0.0
	for _, c := range chrs {
		acc += c.Dominance
		if r <= acc {
			return c
		}
	}
	return chrs[len(chrs)-1]
}

// mutate returns a copy of g where each chromosome mutates with probability rate
func mutate(rng *rand.Rand, g Genome, rate float64) Genome {
	out := g.clone()
	for _, k := range Kinds {
		for i, c := range out[k] {
			if rng.Float64() < rate {
				out[k][i] = mutateChromosome(rng, c)
			}
		}
	}
	return out
}

func mutateChromosome(rng *rand.Rand, c Chromosome) Chromosome {
	switch c.Kind {
	case Rhythm:
		steps := strings.Fields(c.Pattern)
		for i, s := range steps {
			if rng.Float64() < rhythmSwapRate {
				if alt, ok := rhythmAlternatives[s]; ok {
					steps[i] = alt
				}
			}
		}
		c.Pattern = strings.Join(steps, " ")
	case Melody, Harmony:
		for i := range c.Notes {
			if rng.Float64() < noteSwapRate {
				c.Notes[i] = mutationNotes[rng.Intn(len(mutationNotes))]
			}
		}
	case Texture:
		v, ok := leadingFloat(c.Params)
		if !ok || v == 0 {
			v = defaultTextureVal
		}
		v = math.Max(0, math.Min(1, v+(rng.Float64()-0.5)*textureDrift))
		c.Params = strconv.FormatFloat(v, 'f', 2, 64)
	}
	c.Source += "_mutated"
	return c
}

// selectParent draws a parent by fitness when weighting is on and every
// parent has a fitness, uniformly otherwise. A fitness of 0 counts as 0.5.
func selectParent(rng *rand.Rand, parents []pattern.Pattern, weighted bool) int {
	if weighted && allHaveFitness(parents) {
		total := 0.0
		for _, p := range parents {
			total += parentWeight(p)
		}
		r := rng.Float64() * total
		acc := 0.0
		for i, p := range parents {
			acc += parentWeight(p)
			if r <= acc {
				return i
			}
		}
		return len(parents) - 1
	}
	return rng.Intn(len(parents))
}

func parentWeight(p pattern.Pattern) float64 {
	if f := p.FitnessOr(0); f > 0 {
		return f
	}
	return neutralFitness
}

func allHaveFitness(parents []pattern.Pattern) bool {
	for _, p := range parents {
		if p.Fitness == nil {
			return false
		}
	}
	return true
}

// selectParents draws count distinct parents
func selectParents(rng *rand.Rand, parents []pattern.Pattern, count int, weighted bool) []pattern.Pattern {
	available := append([]pattern.Pattern(nil), parents...)
	selected := make([]pattern.Pattern, 0, count)
	for len(selected) < count && len(available) > 0 {
		i := selectParent(rng, available, weighted)
		selected = append(selected, available[i])
		available = append(available[:i], available[i+1:]...)
	}
	return selected
}
