package genome

// Component names
const (
	Rhythmic   = "rhythmic"
	Melodic    = "melodic"
	Harmonic   = "harmonic"
	Structural = "structural"
	Timbral    = "timbral"
	Stylistic  = "stylistic"
)

// Component is one weighted group of genes
type Component struct {
	Name   string
	Weight float64
	Genes  []string
}

var schema = []Component{
	{Name: Rhythmic, Weight: 0.25, Genes: []string{"kick", "snare", "hihat", "syncopation", "swing"}},
	{Name: Melodic, Weight: 0.25, Genes: []string{"intervals", "contour", "range", "phrasing"}},
	{Name: Harmonic, Weight: 0.20, Genes: []string{"progression", "voicing", "tension", "resolution"}},
	{Name: Structural, Weight: 0.15, Genes: []string{"form", "repetition", "development", "climax"}},
	{Name: Timbral, Weight: 0.10, Genes: []string{"palette", "processing", "dynamics", "space"}},
	{Name: Stylistic, Weight: 0.05, Genes: []string{"genre", "era", "cultural", "personal"}},
}

// Schema returns a copy of the fixed component layout in canonical order
func Schema() []Component {
	out := make([]Component, len(schema))
	for i, c := range schema {
		out[i] = Component{Name: c.Name, Weight: c.Weight, Genes: append([]string(nil), c.Genes...)}
	}
	return out
}

// ComponentNames returns the component names in canonical order
func ComponentNames() []string {
	names := make([]string, len(schema))
	for i, c := range schema {
		names[i] = c.Name
	}
	return names
}

// GeneNames returns the genes of a component, or nil for an unknown name
func GeneNames(component string) []string {
	for _, c := range schema {
		if c.Name == component {
			return append([]string(nil), c.Genes...)
		}
	}
	return nil
}

// Weight returns the weight of a component, 0 when unknown
func Weight(component string) float64 {
	for _, c := range schema {
		if c.Name == component {
			return c.Weight
		}
	}
	return 0
}

// TotalWeight sums all component weights
func TotalWeight() float64 {
	var sum float64
	for _, c := range schema {
		sum += c.Weight
	}
	return sum
}

// IsComponent reports whether name is part of the schema
func IsComponent(name string) bool {
	return Weight(name) > 0
}
