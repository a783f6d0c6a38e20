package compile

import (
	"github.com/sweetpea-org/sweetpea-go/internal/cnf"
	"github.com/sweetpea-org/sweetpea-go/internal/design"
)

// Layout assigns a contiguous range of propositional variables to each
// (trial, factor, level) triple, in factor declaration order, per spec
// §4.7. Every factor — simple or derived — receives level variables at
// every trial; the derivation resolver (resolve.go) is responsible for
// forcing a derived factor's level variables false at trials where its
// derivation does not apply.
type Layout struct {
	TrialCount int
	Factors    []*design.Factor

	factorIndex map[design.FactorHandle]int
	levelIndex  map[design.FactorHandle]map[design.LevelHandle]int
	// vars[factorIdx] is trial-major: vars[factorIdx][trial*k+levelIdx]
	vars [][]cnf.Var
}

// NewLayout allocates the variable layout for factors over trialCount
// trials, consuming fresh variables from b.Formula.Pool.
func NewLayout(b *Builder, factors []*design.Factor, trialCount int) *Layout {
	l := &Layout{
		TrialCount:  trialCount,
		Factors:     factors,
		factorIndex: make(map[design.FactorHandle]int, len(factors)),
		levelIndex:  make(map[design.FactorHandle]map[design.LevelHandle]int, len(factors)),
		vars:        make([][]cnf.Var, len(factors)),
	}
	for fi, f := range factors {
		l.factorIndex[f.Handle] = fi
		li := make(map[design.LevelHandle]int, len(f.Levels))
		for k, lvl := range f.Levels {
			li[lvl.Handle] = k
		}
		l.levelIndex[f.Handle] = li

		k := len(f.Levels)
		fvars := make([]cnf.Var, trialCount*k)
		for i := range fvars {
			fvars[i] = b.Formula.Pool.Fresh()
		}
		l.vars[fi] = fvars
	}
	return l
}

// SupportSize is S = sum over factors of |levels(f)| * T, the total count
// of (trial, factor, level) variables.
func (l *Layout) SupportSize() int {
	total := 0
	for _, f := range l.Factors {
		total += len(f.Levels) * l.TrialCount
	}
	return total
}

// FactorIndex returns f's position in declaration order.
func (l *Layout) FactorIndex(f *design.Factor) int {
	return l.factorIndex[f.Handle]
}

// Var returns the variable for factor f's lvl at trial t.
func (l *Layout) Var(f *design.Factor, lvl *design.Level, t int) cnf.Var {
	fi := l.factorIndex[f.Handle]
	li := l.levelIndex[f.Handle][lvl.Handle]
	k := len(f.Levels)
	return l.vars[fi][t*k+li]
}

// VarByIndex returns the variable for the level at position levelIdx
// within factor f, at trial t.
func (l *Layout) VarByIndex(f *design.Factor, levelIdx, t int) cnf.Var {
	fi := l.factorIndex[f.Handle]
	k := len(f.Levels)
	return l.vars[fi][t*k+levelIdx]
}

// VariableListForTrial returns factor f's level variables available at
// trial t, in declared level order.
func (l *Layout) VariableListForTrial(f *design.Factor, t int) []cnf.Var {
	fi := l.factorIndex[f.Handle]
	k := len(f.Levels)
	out := make([]cnf.Var, k)
	copy(out, l.vars[fi][t*k:t*k+k])
	return out
}

// TrialVars returns every support variable available at trial t, across
// every factor in declared order. Sampling strategies that extend a
// sample one trial at a time (internal/sampling's Guided strategy) use
// this to know which variables belong to which trial without needing the
// full Layout.
func (l *Layout) TrialVars(t int) []cnf.Var {
	var out []cnf.Var
	for _, f := range l.Factors {
		out = append(out, l.VariableListForTrial(f, t)...)
	}
	return out
}
