package breeding

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"

	"patternlab/internal/pattern"
)

// Kind is the musical role a chromosome plays
type Kind string

const (
	Rhythm    Kind = "rhythm"
	Melody    Kind = "melody"
	Harmony   Kind = "harmony"
	Structure Kind = "structure"
	Texture   Kind = "texture"
)

// Kinds lists chromosome kinds in the order they are crossed and rendered
var Kinds = []Kind{Rhythm, Melody, Harmony, Structure, Texture}

var structuralElements = []string{"stack", "seq", "slow", "fast", "every"}

var (
	rhythmRe    = regexp.MustCompile(`sound\("([^"]+)"\)[^,\n]*`)
	noteRe      = regexp.MustCompile(`note\("([^"]+)"\)[^,\n]*`)
	structureRe = make(map[string]*regexp.Regexp, len(structuralElements))
	leadingNum  = regexp.MustCompile(`^\s*[-+]?(\d+\.?\d*|\.\d+)`)
)

func init() {
	for _, el := range structuralElements {
		structureRe[el] = regexp.MustCompile(el + `\(([^)]*)\)`)
	}
}

// Chromosome is one extracted piece of a parent pattern. Which fields are
// set depends on Kind: Pattern for rhythm, Notes for melody and harmony,
// Element for structure, Effect for texture.
type Chromosome struct {
	Kind      Kind             `json:"type"`
	Pattern   string           `json:"pattern,omitempty"`
	Notes     []string         `json:"notes,omitempty"`
	Effects   []pattern.Effect `json:"effects,omitempty"`
	Element   string           `json:"element,omitempty"`
	Effect    string           `json:"effect,omitempty"`
	Params    string           `json:"parameters,omitempty"`
	Dominance float64          `json:"dominance"`
	Source    string           `json:"source"`
}

func (c Chromosome) clone() Chromosome {
	c.Notes = append([]string(nil), c.Notes...)
	c.Effects = append([]pattern.Effect(nil), c.Effects...)
	return c
}

// Genome is a pattern split into chromosomes by kind
type Genome map[Kind][]Chromosome

func (g Genome) clone() Genome {
	out := make(Genome, len(g))
	for k, chrs := range g {
		cp := make([]Chromosome, len(chrs))
		for i, c := range chrs {
			cp[i] = c.clone()
		}
		out[k] = cp
	}
	return out
}

// Extract splits code into chromosomes. Each gets a fresh random dominance
// in [0,1). A note call is harmony when any of its notes sits in octave 0-3.
func Extract(code string, rng *rand.Rand) Genome {
	g := make(Genome, len(Kinds))

	for _, m := range rhythmRe.FindAllStringSubmatchIndex(code, -1) {
		// sound("...") chained onto a note call names an instrument
		if m[0] > 0 && code[m[0]-1] == '.' {
			continue
		}
		match := code[m[0]:m[1]]
		g[Rhythm] = append(g[Rhythm], Chromosome{
			Kind:      Rhythm,
			Pattern:   code[m[2]:m[3]],
			Effects:   pattern.MethodCalls(match),
			Dominance: rng.Float64(),
			Source:    "rhythm_extraction",
		})
	}

	for _, m := range noteRe.FindAllStringSubmatch(code, -1) {
		kind := Melody
		if pattern.IsLowRegister(m[1]) {
			kind = Harmony
		}
		g[kind] = append(g[kind], Chromosome{
			Kind:      kind,
			Notes:     strings.Fields(m[1]),
			Effects:   pattern.MethodCalls(m[0]),
			Dominance: rng.Float64(),
			Source:    string(kind) + "_extraction",
		})
	}

	for _, el := range structuralElements {
		for _, m := range structureRe[el].FindAllStringSubmatch(code, -1) {
			g[Structure] = append(g[Structure], Chromosome{
				Kind:      Structure,
				Element:   el,
				Params:    m[1],
				Dominance: rng.Float64(),
				Source:    "structure_extraction",
			})
		}
	}

	for _, e := range pattern.MethodCalls(code) {
		g[Texture] = append(g[Texture], Chromosome{
			Kind:      Texture,
			Effect:    e.Name,
			Params:    e.Params,
			Dominance: rng.Float64(),
			Source:    "texture_extraction",
		})
	}
	return g
}

// layer renders a chromosome as a playable line. Structure and texture
// chromosomes have no layer of their own.
func (c Chromosome) layer() (string, bool) {
	var b strings.Builder
	switch c.Kind {
	case Rhythm:
		fmt.Fprintf(&b, `sound("%s").gain(0.7)`, c.Pattern)
	case Melody:
		fmt.Fprintf(&b, `note("%s").sound("sine").gain(0.6)`, strings.Join(c.Notes, " "))
	case Harmony:
		fmt.Fprintf(&b, `note("%s").sound("sawtooth").gain(0.5)`, strings.Join(c.Notes, " "))
	default:
		return "", false
	}
	for _, e := range c.Effects {
		if e.Name == "gain" || e.Name == "sound" {
			continue
		}
		fmt.Fprintf(&b, ".%s(%s)", e.Name, e.Params)
	}
	return b.String(), true
}

// Render joins every layer-producing chromosome into pattern code, falling
// back to a plain kick when there are none
func (g Genome) Render() string {
	var layers []string
	for _, k := range Kinds {
		for _, c := range g[k] {
			if l, ok := c.layer(); ok {
				layers = append(layers, l)
			}
		}
	}
	if len(layers) == 0 {
		return fallbackCode
	}
	return pattern.Stack(layers...)
}

const fallbackCode = `sound("bd ~ ~ bd").gain(0.7)`

// leadingFloat parses the number at the start of s, 0 when there is none
func leadingFloat(s string) (float64, bool) {
	m := leadingNum.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(m), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
