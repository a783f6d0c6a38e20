package compile

import (
	"fmt"

	"github.com/sweetpea-org/sweetpea-go/internal/cardinality"
	"github.com/sweetpea-org/sweetpea-go/internal/cnf"
	"github.com/sweetpea-org/sweetpea-go/internal/design"
)

// Constraint is a single restriction on a design's trial sequence, lowered
// against a Builder and a Layout once the trial count is known: a
// self-describing value that knows how to turn itself into clauses.
type Constraint interface {
	String() string
	lower(b *Builder, layout *Layout, trialCount int) error
}

// combinationsOf returns the Cartesian product of factors' levels, one
// level per factor per entry, in declared factor and level order.
func combinationsOf(factors []*design.Factor) [][]*design.Level {
	combos := [][]*design.Level{{}}
	for _, f := range factors {
		var next [][]*design.Level
		for _, combo := range combos {
			for _, lvl := range f.Levels {
				c := make([]*design.Level, len(combo), len(combo)+1)
				copy(c, combo)
				c = append(c, lvl)
				next = append(next, c)
			}
		}
		combos = next
	}
	return combos
}

// ErrIncompatibleCrossing is returned when a crossing's applicable trial
// range cannot fit even one occurrence of every combination. block.go's
// resolveTrialCount takes the max of every crossing's own requiredTrialCount
// precisely so this never arises from automatic resolution; it is only
// reachable when lower is handed a trial count smaller than the crossing
// itself needs, which is the genuinely irreconcilable case (as opposed to
// two crossings simply asking for different sizes, which the block
// resolves by stretching the smaller one).
type ErrIncompatibleCrossing struct {
	Combinations, Applicable int
}

func (e ErrIncompatibleCrossing) Error() string {
	return fmt.Sprintf("compile: crossing needs %d combinations but only %d trials are applicable", e.Combinations, e.Applicable)
}

// crossingConstraint lowers FullyCrossed and MultipleCrossed identically:
// every combination of the named factors' levels gets a match variable per
// trial, and deferred cardinality requests bounding how many trials that
// combination occupies overall. The repeat count is never supplied by the
// caller; it is always derived from the crossing's own applicable trial
// range at the block's resolved trial count (see lower), so a block with
// several crossings of different sizes balances each one independently.
type crossingConstraint struct {
	factors []*design.Factor
	label   string
}

// FullyCrossed asserts that every combination of factors' levels appears
// equally often, within one, across the crossing's applicable trials:
// exactly once when that count equals the product of the factors' level
// counts.
func FullyCrossed(factors ...*design.Factor) Constraint {
	return &crossingConstraint{factors: factors, label: "FullyCrossed"}
}

// MultipleCrossed asserts that every combination of factors' levels is
// independently fully crossed, stretched to the block's trial count if
// that ends up larger than this crossing's own combination count.
func MultipleCrossed(factors ...*design.Factor) Constraint {
	return &crossingConstraint{factors: factors, label: "MultipleCrossed"}
}

func (c *crossingConstraint) String() string {
	return fmt.Sprintf("%s(%d combinations)", c.label, len(combinationsOf(c.factors)))
}

// requiredTrialCount is this crossing's own minimal trial count: the
// smallest trial count at which its applicable range covers every
// combination at least once. Block trial-count resolution takes the max of
// this across every crossing constraint in the block.
func (c *crossingConstraint) requiredTrialCount() int {
	n := len(combinationsOf(c.factors))
	t := n
	for c.applicableCount(t) < n {
		t++
	}
	return t
}

// applicableCount returns, out of t trials, how many have every factor in
// the crossing defined: the intersection of each derived factor's own
// applicable trial set (design.ApplicableTrials), restricted the same way
// resolveFactor forces a derived level false outside its window. Simple
// factors place no restriction.
func (c *crossingConstraint) applicableCount(t int) int {
	applicable := make(map[int]bool, t)
	for i := 0; i < t; i++ {
		applicable[i] = true
	}
	for _, f := range c.factors {
		if f.Kind != design.DerivedFactorKind {
			continue
		}
		width, stride := f.Levels[0].Derivation.Width, f.Levels[0].Derivation.Stride
		allowed := make(map[int]bool, t)
		for _, trial := range design.ApplicableTrials(width, stride, t) {
			allowed[trial] = true
		}
		for trial := range applicable {
			if !allowed[trial] {
				delete(applicable, trial)
			}
		}
	}
	return len(applicable)
}

func (c *crossingConstraint) lower(b *Builder, layout *Layout, trialCount int) error {
	combos := combinationsOf(c.factors)
	n := len(combos)
	applicable := c.applicableCount(trialCount)
	if applicable < n {
		return ErrIncompatibleCrossing{Combinations: n, Applicable: applicable}
	}

	// Balanced distribution: each combination appears ceil(A/n) or
	// floor(A/n) times across the crossing's own applicable range A. When
	// n divides A every combination is pinned to exactly A/n; otherwise each
	// count is bounded to [floor, ceil], and since every applicable trial
	// matches exactly one combination, A mod n of them take the extra
	// repeat, whichever ones a solution picks.
	base, extra := applicable/n, applicable%n

	for _, combo := range combos {
		matchVars := make([]cnf.Var, trialCount)
		for t := 0; t < trialCount; t++ {
			lits := make([]int, len(combo))
			for j, lvl := range combo {
				lits[j] = layout.Var(c.factors[j], lvl, t).Lit()
			}
			m := b.Formula.Pool.Fresh()
			if err := b.Biconditional(m, [][]int{lits}); err != nil {
				return err
			}
			matchVars[t] = m
		}
		if extra == 0 {
			b.Defer(cardinality.Request{Comparison: cardinality.Eq, K: base, Vars: matchVars})
			continue
		}
		b.Defer(cardinality.Request{Comparison: cardinality.Gt, K: base - 1, Vars: matchVars})
		b.Defer(cardinality.Request{Comparison: cardinality.Lt, K: base + 2, Vars: matchVars})
	}
	return nil
}

// atMostKInARow forbids k+1 consecutive trials all taking the same level
// out of levels. The target may be a whole factor, which expands to
// every one of its levels, or a single (factor, level) pair.
type atMostKInARow struct {
	k      int
	factor *design.Factor
	levels []*design.Level
}

// AtMostKInARow builds the AtMostKInARow constraint targeting every level
// of factor.
func AtMostKInARow(k int, factor *design.Factor) Constraint {
	return &atMostKInARow{k: k, factor: factor, levels: factor.Levels}
}

// AtMostKInARowLevel builds the AtMostKInARow constraint targeting a
// single (factor, level) pair.
func AtMostKInARowLevel(k int, factor *design.Factor, level *design.Level) Constraint {
	return &atMostKInARow{k: k, factor: factor, levels: []*design.Level{level}}
}

func (c *atMostKInARow) String() string {
	return fmt.Sprintf("AtMostKInARow(%d, %s)", c.k, c.factor.Name)
}

func (c *atMostKInARow) lower(b *Builder, layout *Layout, trialCount int) error {
	window := c.k + 1
	for t := 0; t+window <= trialCount; t++ {
		for _, lvl := range c.levels {
			lits := make([]int, window)
			for i := 0; i < window; i++ {
				lits[i] = -layout.Var(c.factor, lvl, t+i).Lit()
			}
			if err := b.Formula.AddClauseContext("at-most-k-in-a-row", lits...); err != nil {
				return err
			}
		}
	}
	return nil
}

// atLeastKInARow forbids a run of any level in levels from ever being
// shorter than k trials. It detects a "run start" at trial t (level true
// at t, and either t is the first trial or the level was false at t-1)
// and implies the level continues to hold for the following k-1 trials;
// a start with no room left before the end of the design is forbidden
// outright.
type atLeastKInARow struct {
	k      int
	factor *design.Factor
	levels []*design.Level
}

// AtLeastKInARow builds the AtLeastKInARow constraint for a single level
// (the target is always a single level, not a whole factor).
func AtLeastKInARow(k int, factor *design.Factor, level *design.Level) Constraint {
	return &atLeastKInARow{k: k, factor: factor, levels: []*design.Level{level}}
}

func (c *atLeastKInARow) String() string {
	return fmt.Sprintf("AtLeastKInARow(%d, %s)", c.k, c.factor.Name)
}

func (c *atLeastKInARow) lower(b *Builder, layout *Layout, trialCount int) error {
	if c.k <= 1 {
		return nil
	}
	for t := 0; t < trialCount; t++ {
		hasPrev := t > 0
		for _, lvl := range c.levels {
			startLit := -layout.Var(c.factor, lvl, t).Lit()
			var prevLit int
			if hasPrev {
				prevLit = layout.Var(c.factor, lvl, t-1).Lit()
			}
			for o := 1; o < c.k; o++ {
				if t+o >= trialCount {
					var err error
					if hasPrev {
						err = b.Formula.AddClauseContext("at-least-k-in-a-row", startLit, prevLit)
					} else {
						err = b.Formula.AddClauseContext("at-least-k-in-a-row", startLit)
					}
					if err != nil {
						return err
					}
					break
				}
				nextLit := layout.Var(c.factor, lvl, t+o).Lit()
				var err error
				if hasPrev {
					err = b.Formula.AddClauseContext("at-least-k-in-a-row", startLit, prevLit, nextLit)
				} else {
					err = b.Formula.AddClauseContext("at-least-k-in-a-row", startLit, nextLit)
				}
				if err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// exactlyKInARow composes AtLeastKInARow(k) and AtMostKInARow(k): every
// run of level has length exactly k.
type exactlyKInARow struct {
	atLeast *atLeastKInARow
	atMost  *atMostKInARow
}

// ExactlyKInARow builds the ExactlyKInARow constraint for a single level.
func ExactlyKInARow(k int, factor *design.Factor, level *design.Level) Constraint {
	return &exactlyKInARow{
		atLeast: &atLeastKInARow{k: k, factor: factor, levels: []*design.Level{level}},
		atMost:  &atMostKInARow{k: k, factor: factor, levels: []*design.Level{level}},
	}
}

func (c *exactlyKInARow) String() string {
	return fmt.Sprintf("ExactlyKInARow(%d, %s)", c.atLeast.k, c.atLeast.factor.Name)
}

func (c *exactlyKInARow) lower(b *Builder, layout *Layout, trialCount int) error {
	if err := c.atLeast.lower(b, layout, trialCount); err != nil {
		return err
	}
	return c.atMost.lower(b, layout, trialCount)
}

// excludeConstraint forbids factor from ever taking level.
type excludeConstraint struct {
	factor *design.Factor
	level  *design.Level
}

// Exclude builds the Exclude constraint.
func Exclude(factor *design.Factor, level *design.Level) Constraint {
	return &excludeConstraint{factor: factor, level: level}
}

func (c *excludeConstraint) String() string {
	return fmt.Sprintf("Exclude(%s, %s)", c.factor.Name, c.level.Name)
}

func (c *excludeConstraint) lower(b *Builder, layout *Layout, trialCount int) error {
	for t := 0; t < trialCount; t++ {
		if err := b.Formula.AssertFalse(layout.Var(c.factor, c.level, t)); err != nil {
			return err
		}
	}
	return nil
}

// minimumTrialsConstraint carries no CNF of its own: it only influences
// trial-count resolution in Block construction.
type minimumTrialsConstraint struct {
	n int
}

// MinimumTrials builds the MinimumTrials directive.
func MinimumTrials(n int) Constraint {
	return &minimumTrialsConstraint{n: n}
}

func (c *minimumTrialsConstraint) String() string {
	return fmt.Sprintf("MinimumTrials(%d)", c.n)
}

func (c *minimumTrialsConstraint) lower(b *Builder, layout *Layout, trialCount int) error {
	return nil
}
