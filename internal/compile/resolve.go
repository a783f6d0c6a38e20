package compile

import "github.com/sweetpea-org/sweetpea-go/internal/design"

// enumerateConfigurations produces, for each source factor, every
// width-tuple of its levels (one choice per relative trial offset, oldest
// first), then the
// Cartesian product of those per-factor tuples across factors. Order is
// the declared level order within each factor and the declared source
// order across factors, fixing clause emission order for reproducible
// serialization.
func enumerateConfigurations(sources []*design.Factor, width int) []design.Configuration {
	perFactor := make([][][]*design.Level, len(sources))
	for i, f := range sources {
		perFactor[i] = levelTuples(f.Levels, width)
	}

	configs := []design.Configuration{{}}
	for i := range sources {
		var next []design.Configuration
		for _, cfg := range configs {
			for _, tuple := range perFactor[i] {
				nc := make(design.Configuration, len(cfg), len(cfg)+1)
				copy(nc, cfg)
				nc = append(nc, tuple)
				next = append(next, nc)
			}
		}
		configs = next
	}
	return configs
}

// levelTuples returns every width-length tuple drawn from levels, in
// declared-level order, earliest-varying-last (so the final tuple position
// cycles fastest, matching a standard lexicographic Cartesian product).
func levelTuples(levels []*design.Level, width int) [][]*design.Level {
	result := [][]*design.Level{{}}
	for i := 0; i < width; i++ {
		var next [][]*design.Level
		for _, prefix := range result {
			for _, lvl := range levels {
				tuple := make([]*design.Level, len(prefix), len(prefix)+1)
				copy(tuple, prefix)
				tuple = append(tuple, lvl)
				next = append(next, tuple)
			}
		}
		result = next
	}
	return result
}

// ResolveDerivations emits the derivation CNF for every derived factor in
// factors, in declared order: a biconditional per level
// per applicable trial, and a forced-false assertion per level at every
// non-applicable trial.
func ResolveDerivations(b *Builder, layout *Layout, factors []*design.Factor) error {
	for _, f := range factors {
		if f.Kind != design.DerivedFactorKind {
			continue
		}
		if err := resolveFactor(b, layout, f); err != nil {
			return err
		}
	}
	return nil
}

func resolveFactor(b *Builder, layout *Layout, f *design.Factor) error {
	width, stride := f.Levels[0].Derivation.Width, f.Levels[0].Derivation.Stride
	applicable := make(map[int]bool)
	for _, t := range design.ApplicableTrials(width, stride, layout.TrialCount) {
		applicable[t] = true
	}

	for t := 0; t < layout.TrialCount; t++ {
		if !applicable[t] {
			for _, lvl := range f.Levels {
				if err := b.Formula.AssertFalse(layout.Var(f, lvl, t)); err != nil {
					return err
				}
			}
			continue
		}
		for _, lvl := range f.Levels {
			d := lvl.Derivation
			configs := enumerateConfigurations(d.Sources, d.Width)
			var terms [][]int
			for _, cfg := range configs {
				if !d.Predicate(cfg) {
					continue
				}
				term := make([]int, 0, len(d.Sources)*d.Width)
				for i, g := range d.Sources {
					for o := 0; o < d.Width; o++ {
						trialIdx := t - (d.Width - 1 - o)
						term = append(term, layout.Var(g, cfg[i][o], trialIdx).Lit())
					}
				}
				terms = append(terms, term)
			}
			if err := b.Biconditional(layout.Var(f, lvl, t), terms); err != nil {
				return err
			}
		}
	}
	return nil
}

// ApplyConsistency lowers the implicit exactly-one constraint for every
// factor, at every trial for a simple factor, and at every applicable
// trial for a derived factor.
func ApplyConsistency(b *Builder, layout *Layout, factors []*design.Factor) error {
	for _, f := range factors {
		if f.Kind == design.SimpleFactorKind {
			for t := 0; t < layout.TrialCount; t++ {
				if err := b.ExactlyOne(layout.VariableListForTrial(f, t)); err != nil {
					return err
				}
			}
			continue
		}
		width, stride := f.Levels[0].Derivation.Width, f.Levels[0].Derivation.Stride
		for _, t := range design.ApplicableTrials(width, stride, layout.TrialCount) {
			if err := b.ExactlyOne(layout.VariableListForTrial(f, t)); err != nil {
				return err
			}
		}
	}
	return nil
}
