package pattern

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	soundCallRe = regexp.MustCompile(`sound\("([^"]*)"\)`)
	noteCallRe  = regexp.MustCompile(`note\("([^"]+)"\)`)
	effectRe    = regexp.MustCompile(`\.(reverb|delay|lpf|hpf|gain|distortion)\(([^)]+)\)`)
	methodRe    = regexp.MustCompile(`\.(\w+)\(([^)]*)\)`)
	methodOpRe  = regexp.MustCompile(`\.\w+\(`)
	noteNameRe  = regexp.MustCompile(`^([a-g])([#sb]?)(-?\d)?$`)
	lowOctaveRe = regexp.MustCompile(`^[a-g][#sb]?[0-3]$`)
)

var noteNames = []string{"c", "c#", "d", "d#", "e", "f", "f#", "g", "g#", "a", "a#", "b"}

var noteOffsets = map[string]int{"c": 0, "d": 2, "e": 4, "f": 5, "g": 7, "a": 9, "b": 11}

// Effect is a single `.name(params)` call found in pattern code
type Effect struct {
	Name   string `json:"name"`
	Params string `json:"params"`
}

// SoundCalls returns the quoted body of every sound("...") call
func SoundCalls(code string) []string {
	return submatches(soundCallRe, code)
}

// NoteCalls returns the quoted body of every note("...") call
func NoteCalls(code string) []string {
	return submatches(noteCallRe, code)
}

// Effects returns the recognised audio effects applied in code
func Effects(code string) []Effect {
	return effectMatches(effectRe, code)
}

// MethodCalls returns every chained `.name(params)` call
func MethodCalls(code string) []Effect {
	return effectMatches(methodRe, code)
}

func submatches(re *regexp.Regexp, code string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(code, -1) {
		out = append(out, m[1])
	}
	return out
}

func effectMatches(re *regexp.Regexp, code string) []Effect {
	var out []Effect
	for _, m := range re.FindAllStringSubmatch(code, -1) {
		out = append(out, Effect{Name: m[1], Params: m[2]})
	}
	return out
}

// Tokens splits a mini-notation sequence into its step tokens, dropping
// grouping brackets.
func Tokens(seq string) []string {
	return strings.FieldsFunc(seq, func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', ',', '[', ']', '<', '>', '{', '}':
			return true
		}
		return false
	})
}

// stripModifiers drops mini-notation suffixes such as *2, @3 or :1
func stripModifiers(tok string) string {
	if i := strings.IndexAny(tok, "*@!:/?("); i >= 0 {
		return tok[:i]
	}
	return tok
}

// HasInstrument reports whether any sound call plays a sample whose name
// starts with prefix (bd, sd, hh ...)
func HasInstrument(code, prefix string) bool {
	for _, body := range SoundCalls(code) {
		for _, tok := range Tokens(body) {
			if strings.HasPrefix(tok, prefix) {
				return true
			}
		}
	}
	return false
}

// CountLayers returns the number of top-level entries in the outermost
// stack(...) call, or 1 when the code is not stacked.
func CountLayers(code string) int {
	start := strings.Index(code, "stack(")
	if start < 0 {
		return 1
	}
	depth := 0
	inQuote := false
	layers := 0
	segment := false
	for _, r := range code[start+len("stack("):] {
		switch {
		case r == '"':
			inQuote = !inQuote
			segment = true
		case inQuote:
		case r == '(':
			depth++
			segment = true
		case r == ')':
			if depth == 0 {
				if segment {
					layers++
				}
				if layers == 0 {
					return 1
				}
				return layers
			}
			depth--
		case r == ',' && depth == 0:
			if segment {
				layers++
			}
			segment = false
		case r != ' ' && r != '\n' && r != '\t':
			segment = true
		}
	}
	if segment {
		layers++
	}
	if layers == 0 {
		return 1
	}
	return layers
}

// Complexity is a rough structural weight of the code on a 0..n/10 scale
func Complexity(code string) float64 {
	c := float64(len(soundCallRe.FindAllString(code, -1)))
	c += float64(strings.Count(code, "note(")) * 1.5
	c += float64(len(methodOpRe.FindAllString(code, -1))) * 0.5
	if strings.Contains(code, "stack(") {
		c += 2
	}
	return c / 10
}

// NoteToMIDI parses a note name such as "c4", "f#3" or "eb2". A missing
// octave means octave 4.
func NoteToMIDI(name string) (int, bool) {
	m := noteNameRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(name)))
	if m == nil {
		return 0, false
	}
	n := noteOffsets[m[1]]
	switch m[2] {
	case "#", "s":
		n++
	case "b":
		n--
	}
	octave := 4
	if m[3] != "" {
		o, err := strconv.Atoi(m[3])
		if err != nil {
			return 0, false
		}
		octave = o
	}
	return (octave+1)*12 + n, true
}

// MIDIToNote converts a MIDI number to a lower-case note name
func MIDIToNote(n int) string {
	if n < 0 {
		n = 0
	}
	return noteNames[n%12] + strconv.Itoa(n/12-1)
}

// Interval is the upward semitone distance from a to b, folded into one octave
func Interval(a, b string) (int, bool) {
	ma, ok := NoteToMIDI(a)
	if !ok {
		return 0, false
	}
	mb, ok := NoteToMIDI(b)
	if !ok {
		return 0, false
	}
	return ((mb-ma)%12 + 12) % 12, true
}

// Intervals returns the steps between consecutive notes of every note call
func Intervals(code string) []float64 {
	var out []float64
	for _, body := range NoteCalls(code) {
		var prev string
		for _, tok := range Tokens(body) {
			tok = stripModifiers(tok)
			if tok == "~" {
				continue
			}
			if _, ok := NoteToMIDI(tok); !ok {
				continue
			}
			if prev != "" {
				if iv, ok := Interval(prev, tok); ok {
					out = append(out, float64(iv))
				}
			}
			prev = tok
		}
	}
	return out
}

// IsLowRegister reports whether a note sequence contains a note in octaves 0-3,
// which is how harmony is told apart from melody.
func IsLowRegister(seq string) bool {
	for _, tok := range Tokens(seq) {
		if lowOctaveRe.MatchString(strings.ToLower(stripModifiers(tok))) {
			return true
		}
	}
	return false
}

// Stack joins layers into a stack(...) call. A single layer is returned as is.
func Stack(layers ...string) string {
	switch len(layers) {
	case 0:
		return ""
	case 1:
		return layers[0]
	}
	return "stack(\n  " + strings.Join(layers, ",\n  ") + "\n)"
}
