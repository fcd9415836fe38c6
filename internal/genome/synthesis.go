package genome

import (
	"fmt"
	"strings"
	"time"

	"patternlab/internal/pattern"
)

// DefaultCode is emitted when a genome has nothing significant to voice
const DefaultCode = `note("c4")`

const middleC = 60

// chord tables for the harmonic layer, each chord root-third-fifth-seventh
var progressions = [][][]string{
	{{"c3", "e3", "g3", "b3"}, {"f3", "a3", "c4", "e4"}, {"g3", "b3", "d4", "f4"}},
	{{"a2", "c3", "e3", "g3"}, {"f2", "a2", "c3", "e3"}, {"c3", "e3", "g3", "b3"}, {"g2", "b2", "d3", "f3"}},
	{{"d3", "f3", "a3", "c4"}, {"g3", "b3", "d4", "f4"}, {"c3", "e3", "g3", "b3"}},
	{{"c3", "e3", "g3", "b3"}, {"a2", "c3", "e3", "g3"}, {"f2", "a2", "c3", "e3"}, {"g2", "b2", "d3", "f3"}},
}

// SynthesizePattern renders the genome back into pattern code
func (g *Genome) SynthesizePattern(now time.Time) pattern.Pattern {
	var layers, voiced []string
	if g.HasSignificantGenes(Rhythmic) {
		layers = append(layers, g.rhythmicLayer())
		voiced = append(voiced, Rhythmic)
	}
	if g.HasSignificantGenes(Melodic) {
		layers = append(layers, g.melodicLayer())
		voiced = append(voiced, Melodic)
	}
	if g.HasSignificantGenes(Harmonic) {
		layers = append(layers, g.harmonicLayer())
		voiced = append(voiced, Harmonic)
	}

	code := DefaultCode
	if len(layers) > 0 {
		code = pattern.Stack(layers...)
	}
	code += strings.Join(g.effects(), "")

	description := "Synthesized pattern with default voicing"
	if len(voiced) > 0 {
		description = fmt.Sprintf("Synthesized pattern with %s characteristics", strings.Join(voiced, ", "))
	}

	fitness := g.Metadata.Fitness
	return pattern.Pattern{
		Code:        code,
		Description: description,
		Fitness:     &fitness,
		Parents:     append([]string(nil), g.Metadata.ParentIDs...),
		Metadata: pattern.Metadata{
			ID:           g.ID,
			Genre:        g.Genre(),
			Generation:   g.Metadata.Generation,
			ParentIDs:    append([]string(nil), g.Metadata.ParentIDs...),
			GenomeID:     g.ID,
			Strategy:     g.Metadata.Strategy,
			Synthesized:  true,
			Hybrid:       g.Metadata.Hybrid,
			Experimental: g.Metadata.Experimental,
			Timestamp:    now,
		},
	}
}

func (g *Genome) rhythmicLayer() string {
	var steps []string
	if g.ScalarValue(Rhythmic, "kick") > 0.5 {
		steps = append(steps, "bd*2")
	}
	if g.ScalarValue(Rhythmic, "snare") > 0.5 {
		if g.ScalarValue(Rhythmic, "syncopation") > 0.6 {
			steps = append(steps, "~")
		}
		steps = append(steps, "sd")
	}
	if g.ScalarValue(Rhythmic, "hihat") > 0.5 {
		steps = append(steps, "hh*4")
	}
	if len(steps) == 0 {
		return `sound("bd ~ ~ ~")`
	}
	return fmt.Sprintf(`sound("%s")`, strings.Join(steps, " "))
}

// melodicLayer walks the interval gene upward from middle C, folding the
// line back into two octaves so re-analysis recovers the same intervals.
func (g *Genome) melodicLayer() string {
	intervals := []float64{0, 2, 4}
	if v, ok := g.Gene(Melodic, "intervals"); ok && v.Kind == KindSequence && len(v.Seq) > 0 {
		intervals = v.Seq
	}
	note := middleC
	notes := []string{pattern.MIDIToNote(note)}
	for _, iv := range intervals {
		step := ((int(iv) % 12) + 12) % 12
		note += step
		for note >= middleC+24 {
			note -= 12
		}
		notes = append(notes, pattern.MIDIToNote(note))
	}
	return fmt.Sprintf(`note("%s")`, strings.Join(notes, " "))
}

func (g *Genome) harmonicLayer() string {
	idx := int(g.ScalarValue(Harmonic, "progression") * float64(len(progressions)))
	if idx >= len(progressions) {
		idx = len(progressions) - 1
	}
	size := 3
	if g.ScalarValue(Harmonic, "tension") > 0.6 {
		size = 4
	}
	voiced := g.ScalarValue(Harmonic, "voicing") > 0.5

	chords := make([]string, 0, len(progressions[idx]))
	for _, chord := range progressions[idx] {
		if voiced {
			chords = append(chords, "["+strings.Join(chord[:size], ",")+"]")
		} else {
			chords = append(chords, chord[0])
		}
	}
	return fmt.Sprintf(`note("<%s>").sound("sawtooth")`, strings.Join(chords, " "))
}

func (g *Genome) effects() []string {
	var fx []string
	if g.ScalarValue(Timbral, "processing") > 0.6 {
		fx = append(fx, ".reverb(0.3)")
	}
	if g.ScalarValue(Timbral, "dynamics") > 0.4 {
		fx = append(fx, ".gain(0.7)")
	}
	return fx
}
