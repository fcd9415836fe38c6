// Package cli holds the plumbing shared by the patternlab commands.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"patternlab/internal/logging"
	"patternlab/internal/pattern"
)

// ReadPattern resolves a command argument to a pattern. Existing files are
// decoded by extension: .yaml/.yml as a pattern document, .json as a saved
// champion or a pattern document, anything else as raw code. An argument
// that is not a file is taken as code.
func ReadPattern(arg string) (pattern.Pattern, error) {
	info, err := os.Stat(arg)
	if err != nil || info.IsDir() {
		p := pattern.New(arg)
		return p, p.Validate()
	}

	data, err := os.ReadFile(arg)
	if err != nil {
		return pattern.Pattern{}, err
	}

	var p pattern.Pattern
	switch strings.ToLower(filepath.Ext(arg)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &p); err != nil {
			return pattern.Pattern{}, fmt.Errorf("decode %s: %w", arg, err)
		}
	case ".json":
		if c, err := logging.LoadChampion(arg); err == nil && c.Pattern.Code != "" {
			p = c.Pattern
			if p.Fitness == nil {
				p = p.WithFitness(c.Fitness)
			}
			break
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return pattern.Pattern{}, fmt.Errorf("decode %s: %w", arg, err)
		}
	default:
		p = pattern.New(string(data))
	}

	if p.Metadata.ID == "" {
		p.Metadata.ID = strings.TrimSuffix(filepath.Base(arg), filepath.Ext(arg))
	}
	if err := p.Validate(); err != nil {
		return pattern.Pattern{}, fmt.Errorf("%s: %w", arg, err)
	}
	return p, nil
}

// ReadPatterns reads every argument and reports all failures together
func ReadPatterns(args []string) ([]pattern.Pattern, error) {
	out := make([]pattern.Pattern, 0, len(args))
	var errs []error
	for _, a := range args {
		p, err := ReadPattern(a)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, p)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

// WritePatterns encodes patterns as a YAML document stream
func WritePatterns(w io.Writer, patterns []pattern.Pattern) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	for _, p := range patterns {
		if err := enc.Encode(p); err != nil {
			return err
		}
	}
	return enc.Close()
}
