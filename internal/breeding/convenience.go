package breeding

import (
	"context"

	"patternlab/internal/pattern"
)

// DefaultCloneMutation is the mutation rate CloneWithMutation callers
// usually want
const DefaultCloneMutation = 0.2

// QuickBreed crosses two patterns. offspring <= 0 breeds one child.
func (s *System) QuickBreed(ctx context.Context, p1, p2 pattern.Pattern, offspring int) ([]pattern.Pattern, error) {
	cfg := DefaultConfig()
	cfg.Strategy = Sexual
	cfg.Offspring = orDefault(offspring, 1)
	cfg.MutationRate = 0.1
	cfg.CrossoverRate = 0.8
	return s.BreedPatterns(ctx, []pattern.Pattern{p1, p2}, cfg)
}

// ExperimentalBreed mixes three or more parents at a high mutation rate.
// offspring <= 0 breeds two children.
func (s *System) ExperimentalBreed(ctx context.Context, parents []pattern.Pattern, offspring int) ([]pattern.Pattern, error) {
	cfg := DefaultConfig()
	cfg.Strategy = Polygamous
	cfg.Offspring = orDefault(offspring, 2)
	cfg.MutationRate = 0.3
	cfg.AllowHybridization = true
	cfg.PreserveGenre = false
	return s.BreedPatterns(ctx, parents, cfg)
}

// CloneWithMutation breeds asexual copies of parent. The effective rate is
// doubled by asexual reproduction.
func (s *System) CloneWithMutation(ctx context.Context, parent pattern.Pattern, rate float64, offspring int) ([]pattern.Pattern, error) {
	cfg := DefaultConfig()
	cfg.Strategy = Asexual
	cfg.Offspring = orDefault(offspring, 1)
	cfg.MutationRate = rate
	return s.BreedPatterns(ctx, []pattern.Pattern{parent}, cfg)
}

// CreateChimera stitches up to four parents together by chromosome kind
func (s *System) CreateChimera(ctx context.Context, parents []pattern.Pattern, offspring int) ([]pattern.Pattern, error) {
	cfg := DefaultConfig()
	cfg.Strategy = Chimeric
	cfg.Offspring = orDefault(offspring, 1)
	cfg.MutationRate = 0.1
	cfg.AllowHybridization = true
	return s.BreedPatterns(ctx, parents, cfg)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
