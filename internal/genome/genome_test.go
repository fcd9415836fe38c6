package genome

import (
	"encoding/json"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patternlab/internal/pattern"
)

func newTestSystem() *System {
	return NewSystem(rand.New(rand.NewSource(42)))
}

func TestSchemaWeightsSumToOne(t *testing.T) {
	assert.InDelta(t, 1.0, TotalWeight(), 1e-9)
	assert.Len(t, Schema(), 6)
	assert.Equal(t, []string{Rhythmic, Melodic, Harmonic, Structural, Timbral, Stylistic}, ComponentNames())

	s := Schema()
	s[0].Genes[0] = "changed"
	assert.Equal(t, "kick", GeneNames(Rhythmic)[0])
}

func TestAnalyzePatternExtractsGenes(t *testing.T) {
	sys := newTestSystem()
	p := pattern.Pattern{
		Code:     `stack(sound("bd*2 ~ sd"), note("c4 e4 g4"))`,
		Metadata: pattern.Metadata{Genre: "House"},
	}

	g := sys.AnalyzePattern(p)
	require.NoError(t, g.Validate())

	assert.Equal(t, 1.0, g.ScalarValue(Rhythmic, "kick"))
	assert.Equal(t, 1.0, g.ScalarValue(Rhythmic, "snare"))
	assert.Equal(t, 0.0, g.ScalarValue(Rhythmic, "hihat"))
	assert.InDelta(t, 0.25, g.ScalarValue(Melodic, "range"), 1e-9)
	assert.InDelta(t, 0.5, g.ScalarValue(Structural, "form"), 1e-9)

	iv, ok := g.Gene(Melodic, "intervals")
	require.True(t, ok)
	assert.Equal(t, []float64{4, 3}, iv.Seq)
	assert.Equal(t, "house", g.Genre())
}

func TestAnalyzePatternIsDeterministic(t *testing.T) {
	sys := newTestSystem()
	p := pattern.New(`sound("bd sd hh*2")`)

	a := sys.AnalyzePattern(p)
	b := sys.AnalyzePattern(p)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 0.0, sys.GeneticDistance(a, b))
}

func TestGeneticDistance(t *testing.T) {
	sys := newTestSystem()
	a := sys.RandomGenome()
	b := sys.RandomGenome()

	d := sys.GeneticDistance(a, b)
	assert.Greater(t, d, 0.0)
	assert.LessOrEqual(t, d, 1.0)
	assert.InDelta(t, d, sys.GeneticDistance(b, a), 1e-12)
	assert.Equal(t, 0.0, sys.GeneticDistance(a, a.Clone()))
	assert.Equal(t, 1.0, sys.GeneticDistance(a, nil))
}

func TestDistanceSymmetryAcrossGeneKinds(t *testing.T) {
	sys := newTestSystem()
	for i := 0; i < 50; i++ {
		a := sys.RandomGenome()
		b := sys.AnalyzePattern(pattern.Pattern{Code: `note("c4 d4")`, Metadata: pattern.Metadata{Genre: "jazz"}})
		assert.InDelta(t, sys.GeneticDistance(a, b), sys.GeneticDistance(b, a), 1e-12)
	}
}

func TestGeneDifference(t *testing.T) {
	assert.InDelta(t, 0.5, Difference(Scalar(0.2), Scalar(0.7)), 1e-9)
	assert.Equal(t, 0.0, Difference(Text("jazz"), Text("jazz")))
	assert.Equal(t, 1.0, Difference(Text("jazz"), Text("trap")))
	assert.Equal(t, 1.0, Difference(Text("jazz"), Scalar(0.5)))
	assert.Equal(t, 0.0, Difference(Sequence(nil), Sequence(nil)))
	assert.InDelta(t, 2.0/3.0, Difference(Sequence([]float64{1, 2, 3}), Sequence([]float64{1})), 1e-9)
}

func TestCompareComponentMissing(t *testing.T) {
	a := newTestSystem().RandomGenome()
	b := a.Clone()
	delete(b.Genes, Timbral)
	assert.Equal(t, 1.0, a.CompareComponent(b, Timbral))
	assert.Equal(t, 1.0, b.CompareComponent(a, Timbral))
}

func TestCloneIsDeep(t *testing.T) {
	g := newTestSystem().RandomGenome()
	g.Metadata.ParentIDs = []string{"p"}
	c := g.Clone()

	require.NotEqual(t, g.ID, c.ID)
	c.SetGene(Rhythmic, "kick", Scalar(0.123))
	iv, _ := c.Gene(Melodic, "intervals")
	iv.Seq[0] = 99
	c.Metadata.ParentIDs[0] = "q"

	assert.NotEqual(t, 0.123, g.ScalarValue(Rhythmic, "kick"))
	orig, _ := g.Gene(Melodic, "intervals")
	assert.NotEqual(t, 99.0, orig.Seq[0])
	assert.Equal(t, "p", g.Metadata.ParentIDs[0])
}

func TestSpeciesIdentifier(t *testing.T) {
	g := newTestSystem().RandomGenome()
	for _, c := range Schema() {
		for _, name := range c.Genes {
			if _, ok := g.Gene(c.Name, name); ok && name != "intervals" {
				g.SetGene(c.Name, name, Scalar(0.1))
			}
		}
	}
	g.SetGene(Rhythmic, "snare", Scalar(0.9))
	g.SetGene(Rhythmic, "swing", Scalar(0.9))
	g.SetGene(Stylistic, "genre", Text("trap"))

	id := g.SpeciesIdentifier()
	parts := strings.Split(id, "|")
	require.Len(t, parts, 6)
	assert.Equal(t, "rhythmic:snare", parts[0])
	// sequence genes count as 0.5
	assert.Equal(t, "melodic:intervals", parts[1])
	assert.Equal(t, "harmonic:progression", parts[2])
	assert.Equal(t, "stylistic:genre", parts[5])
}

func TestScores(t *testing.T) {
	g := New()
	for _, c := range Schema() {
		for _, name := range c.Genes {
			g.SetGene(c.Name, name, Scalar(0.5))
		}
	}
	assert.Equal(t, 0.0, g.CreativityScore())
	// 24 genes at 0.5 = 12, capped
	assert.Equal(t, 1.0, g.ComplexityScore())
	assert.Empty(t, g.DistinctiveTraits())

	g.SetGene(Rhythmic, "kick", Scalar(1))
	g.SetGene(Rhythmic, "snare", Scalar(0))
	assert.InDelta(t, 0.4, g.CreativityScore(), 1e-9)
	assert.Equal(t, map[string]float64{"rhythmic.kick": 1, "rhythmic.snare": 0}, g.DistinctiveTraits())
}

func TestTraitSummary(t *testing.T) {
	g := New()
	g.SetGene(Rhythmic, "kick", Scalar(0.4567))
	g.SetGene(Melodic, "intervals", Sequence([]float64{1, 2, 3, 4, 5}))

	summary := g.TraitSummary()
	assert.Equal(t, 0.46, summary[Rhythmic]["kick"])
	assert.Equal(t, []float64{1, 2, 3}, summary[Melodic]["intervals"])
}

func TestSetGeneClamps(t *testing.T) {
	g := New()
	g.SetGene(Timbral, "space", Gene{Kind: KindScalar, Scalar: 3})
	assert.Equal(t, 1.0, g.ScalarValue(Timbral, "space"))
	g.SetGene(Timbral, "space", Scalar(-2))
	assert.Equal(t, 0.0, g.ScalarValue(Timbral, "space"))
}

func TestRandomGenomeIsValid(t *testing.T) {
	sys := newTestSystem()
	for i := 0; i < 20; i++ {
		g := sys.RandomGenome()
		require.NoError(t, g.Validate())
		iv, _ := g.Gene(Melodic, "intervals")
		assert.Len(t, iv.Seq, RandomIntervalCount)
		for _, v := range iv.Seq {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.Less(t, v, 12.0)
		}
	}
}

func TestValidateReportsMissingGenes(t *testing.T) {
	g := newTestSystem().RandomGenome()
	delete(g.Genes[Harmonic], "voicing")
	assert.ErrorIs(t, g.Validate(), ErrInvalidGenome)
}

func TestSynthesizeRoundTripKeepsSchema(t *testing.T) {
	sys := newTestSystem()
	for i := 0; i < 20; i++ {
		g := sys.RandomGenome()
		p := sys.GenomeToPattern(g)
		require.NotEmpty(t, p.Code)

		back := sys.AnalyzePattern(p)
		require.NoError(t, back.Validate())
		for _, c := range Schema() {
			assert.Len(t, back.Genes[c.Name], len(c.Genes))
			for _, name := range c.Genes {
				_, ok := back.Gene(c.Name, name)
				assert.True(t, ok, "%s.%s", c.Name, name)
			}
		}
	}
}

func TestSynthesizeLayers(t *testing.T) {
	g := New()
	for _, c := range Schema() {
		for _, name := range c.Genes {
			g.SetGene(c.Name, name, Scalar(0))
		}
	}
	g.SetGene(Melodic, "intervals", Sequence(nil))

	p := g.SynthesizePattern(time.Unix(0, 0))
	assert.Equal(t, DefaultCode, p.Code)
	assert.True(t, p.Metadata.Synthesized)
	assert.Equal(t, g.ID, p.Metadata.GenomeID)

	g.SetGene(Rhythmic, "kick", Scalar(0.9))
	g.SetGene(Rhythmic, "snare", Scalar(0.9))
	g.SetGene(Rhythmic, "syncopation", Scalar(0.9))
	g.SetGene(Melodic, "intervals", Sequence([]float64{4, 3}))
	g.SetGene(Timbral, "processing", Scalar(0.9))
	g.SetGene(Timbral, "dynamics", Scalar(0.9))

	p = g.SynthesizePattern(time.Unix(0, 0))
	assert.Contains(t, p.Code, `sound("bd*2 ~ sd")`)
	assert.Contains(t, p.Code, `note("c4 e4 g4")`)
	assert.True(t, strings.HasPrefix(p.Code, "stack("))
	assert.True(t, strings.HasSuffix(p.Code, ".reverb(0.3).gain(0.7)"))
	assert.Equal(t, []float64{4, 3}, pattern.Intervals(p.Code))
}

func TestSynthesizeHarmonicLayer(t *testing.T) {
	g := New()
	g.SetGene(Harmonic, "progression", Scalar(0))
	g.SetGene(Harmonic, "voicing", Scalar(0.9))
	g.SetGene(Harmonic, "tension", Scalar(0))

	assert.Equal(t, `note("<[c3,e3,g3] [f3,a3,c4] [g3,b3,d4]>").sound("sawtooth")`, g.SynthesizePattern(time.Now()).Code)

	g.SetGene(Harmonic, "voicing", Scalar(0.35))
	g.SetGene(Harmonic, "progression", Scalar(1))
	assert.Equal(t, `note("<c3 a2 f2 g2>").sound("sawtooth")`, g.SynthesizePattern(time.Now()).Code)
}

func TestGeneJSON(t *testing.T) {
	g := newTestSystem().RandomGenome()
	g.SetGene(Stylistic, "genre", Text("ambient"))

	data, err := json.Marshal(g)
	require.NoError(t, err)

	var back Genome
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, g.ID, back.ID)
	assert.Equal(t, "ambient", back.Genre())
	assert.InDelta(t, 0.0, newTestSystem().GeneticDistance(g, &back), 1e-12)
}
