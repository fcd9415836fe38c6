package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSoundAndNoteCalls(t *testing.T) {
	code := `stack(sound("bd*2 ~ sd").gain(0.8), note("c4 e4 g4").sound("sine"))`

	assert.Equal(t, []string{"bd*2 ~ sd"}, SoundCalls(code))
	assert.Equal(t, []string{"c4 e4 g4"}, NoteCalls(code))
	assert.True(t, HasInstrument(code, "bd"))
	assert.True(t, HasInstrument(code, "sd"))
	assert.False(t, HasInstrument(code, "hh"))
}

func TestHasInstrumentIgnoresNoteText(t *testing.T) {
	assert.False(t, HasInstrument(`note("bd")`, "bd"))
	assert.True(t, HasInstrument(`sound("[~ bd] hh")`, "bd"))
}

func TestEffectsAndMethods(t *testing.T) {
	code := `sound("bd").gain(0.7).reverb(0.3).fast(2)`

	effects := Effects(code)
	require.Len(t, effects, 2)
	assert.Equal(t, Effect{Name: "gain", Params: "0.7"}, effects[0])
	assert.Equal(t, Effect{Name: "reverb", Params: "0.3"}, effects[1])
	assert.Len(t, MethodCalls(code), 3)
}

func TestCountLayers(t *testing.T) {
	tests := []struct {
		name string
		code string
		want int
	}{
		{"plain", `sound("bd sd")`, 1},
		{"two", `stack(sound("bd"), note("c4"))`, 2},
		{"nested commas", `stack(sound("bd").lpf(800, 2), note("[c3,e3,g3]"), sound("hh*4"))`, 3},
		{"multiline", Stack(`sound("bd")`, `note("c4")`, `note("c3")`), 3},
		{"empty", `stack()`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountLayers(tt.code))
		})
	}
}

func TestNoteConversions(t *testing.T) {
	n, ok := NoteToMIDI("c4")
	require.True(t, ok)
	assert.Equal(t, 60, n)

	n, ok = NoteToMIDI("F#3")
	require.True(t, ok)
	assert.Equal(t, 54, n)

	n, ok = NoteToMIDI("eb")
	require.True(t, ok)
	assert.Equal(t, 63, n)

	_, ok = NoteToMIDI("~")
	assert.False(t, ok)

	assert.Equal(t, "c4", MIDIToNote(60))
	assert.Equal(t, "a#2", MIDIToNote(46))
}

func TestIntervals(t *testing.T) {
	assert.Equal(t, []float64{4, 3, 5}, Intervals(`note("c4 e4 ~ g4 c5")`))
	assert.Equal(t, []float64{11}, Intervals(`note("c4 b3")`))
	assert.Empty(t, Intervals(`sound("bd")`))
}

func TestIsLowRegister(t *testing.T) {
	assert.True(t, IsLowRegister("c3 e3 g3"))
	assert.True(t, IsLowRegister("[c2,e2] g4"))
	assert.False(t, IsLowRegister("c4 e5 g4"))
}

func TestStack(t *testing.T) {
	assert.Equal(t, "", Stack())
	assert.Equal(t, `sound("bd")`, Stack(`sound("bd")`))
	assert.Equal(t, "stack(\n  a,\n  b\n)", Stack("a", "b"))
}

func TestComplexity(t *testing.T) {
	assert.InDelta(t, 0.1, Complexity(`sound("bd")`), 1e-9)
	// 1 sound + 1.5 note + 0.5 method + 2 stack
	assert.InDelta(t, 0.5, Complexity(`stack(sound("bd"), note("c4").gain(1))`), 1e-9)
}

func TestPatternCloneAndValidate(t *testing.T) {
	p := New(`sound("bd")`).WithFitness(0.4)
	p.Metadata.ParentIDs = []string{"a"}

	c := p.Clone()
	c.Metadata.ParentIDs[0] = "b"
	*c.Fitness = 0.9

	assert.Equal(t, "a", p.Metadata.ParentIDs[0])
	assert.InDelta(t, 0.4, p.FitnessOr(0), 1e-9)
	assert.NoError(t, p.Validate())
	assert.ErrorIs(t, New("  ").Validate(), ErrEmptyCode)
}
