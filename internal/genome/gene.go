package genome

import (
	"encoding/json"
	"fmt"
	"math"
)

// Kind tells which field of a Gene carries its value
type Kind int

const (
	KindScalar Kind = iota
	KindText
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindText:
		return "text"
	case KindSequence:
		return "sequence"
	default:
		return "unknown"
	}
}

// Gene is one trait value. Scalars live in [0,1]; sequences hold compound
// values such as melodic intervals; text is used for labels like genre.
type Gene struct {
	Kind   Kind
	Scalar float64
	Text   string
	Seq    []float64
}

// Scalar returns a clamped scalar gene
func Scalar(v float64) Gene {
	return Gene{Kind: KindScalar, Scalar: Clamp(v)}
}

// Text returns a text gene
func Text(s string) Gene {
	return Gene{Kind: KindText, Text: s}
}

// Sequence returns a sequence gene holding a copy of v
func Sequence(v []float64) Gene {
	return Gene{Kind: KindSequence, Seq: append([]float64{}, v...)}
}

// Clamp limits v to [0,1]
func Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// Clone deep-copies the gene
func (g Gene) Clone() Gene {
	if g.Kind == KindSequence {
		g.Seq = append([]float64{}, g.Seq...)
	}
	return g
}

// Numeric returns the scalar value, or ok=false for other kinds
func (g Gene) Numeric() (float64, bool) {
	if g.Kind != KindScalar {
		return 0, false
	}
	return g.Scalar, true
}

// Significant reports whether the gene should produce output on synthesis
func (g Gene) Significant() bool {
	switch g.Kind {
	case KindScalar:
		return g.Scalar > 0.3
	case KindSequence:
		return len(g.Seq) > 0
	}
	return false
}

// Present reports whether a fitness heuristic should count the gene as expressed
func (g Gene) Present() bool {
	switch g.Kind {
	case KindScalar:
		return g.Scalar > 0.3
	case KindSequence:
		return len(g.Seq) > 0
	case KindText:
		return g.Text != ""
	}
	return false
}

// Difference is the type dependent distance between two gene values in [0,1]
func Difference(a, b Gene) float64 {
	if a.Kind != b.Kind {
		return 1
	}
	switch a.Kind {
	case KindScalar:
		return math.Abs(a.Scalar-b.Scalar) / math.Max(math.Max(math.Abs(a.Scalar), math.Abs(b.Scalar)), 1)
	case KindText:
		if a.Text == b.Text {
			return 0
		}
		return 1
	case KindSequence:
		n := max(len(a.Seq), len(b.Seq))
		if n == 0 {
			return 0
		}
		diff := 0
		for i := 0; i < n; i++ {
			if i >= len(a.Seq) || i >= len(b.Seq) || a.Seq[i] != b.Seq[i] {
				diff++
			}
		}
		return float64(diff) / float64(n)
	}
	return 1
}

// Simplified is the display form used by trait summaries
func (g Gene) Simplified() any {
	switch g.Kind {
	case KindScalar:
		return math.Round(g.Scalar*100) / 100
	case KindSequence:
		n := min(3, len(g.Seq))
		return append([]float64{}, g.Seq[:n]...)
	default:
		return g.Text
	}
}

func (g Gene) String() string {
	switch g.Kind {
	case KindScalar:
		return fmt.Sprintf("%.2f", g.Scalar)
	case KindSequence:
		return fmt.Sprint(g.Seq)
	default:
		return g.Text
	}
}

// MarshalJSON encodes the gene as its natural JSON value
func (g Gene) MarshalJSON() ([]byte, error) {
	switch g.Kind {
	case KindScalar:
		return json.Marshal(g.Scalar)
	case KindSequence:
		if g.Seq == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(g.Seq)
	default:
		return json.Marshal(g.Text)
	}
}

// UnmarshalJSON decodes a number, string or number array
func (g *Gene) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		*g = Scalar(v)
	case string:
		*g = Text(v)
	case []any:
		seq := make([]float64, 0, len(v))
		for _, item := range v {
			f, ok := item.(float64)
			if !ok {
				return fmt.Errorf("sequence gene element %v is not a number", item)
			}
			seq = append(seq, f)
		}
		*g = Gene{Kind: KindSequence, Seq: seq}
	default:
		return fmt.Errorf("unsupported gene value %s", string(data))
	}
	return nil
}
