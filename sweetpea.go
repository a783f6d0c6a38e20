// Package sweetpea is the public surface of the design compiler: build a
// factorial design out of Factors and Levels, cross it into a Block, and
// synthesize concrete trial sequences from the compiled result.
package sweetpea

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/sweetpea-org/sweetpea-go/internal/compile"
	"github.com/sweetpea-org/sweetpea-go/internal/design"
	"github.com/sweetpea-org/sweetpea-go/internal/request"
	"github.com/sweetpea-org/sweetpea-go/internal/sampling"
)

// Log is the package-wide logger: a single logrus instance used by
// NewBlock and SynthesizeTrials in this package; the internal compiler
// packages do not log. Callers may reconfigure it (level, formatter,
// output) before calling NewBlock or SynthesizeTrials.
var Log = logrus.New()

// Factor, Level, and Derivation are the design-language building blocks;
// re-exported here so callers never need to import internal/design
// directly.
type (
	Factor     = design.Factor
	Level      = design.Level
	Derivation = design.Derivation
	LevelLike  = design.LevelLike
)

// NewFactor constructs a Factor from a name and its levels (SimpleLevels,
// or DerivedLevels/ElseLevels, but never a mix of the two).
func NewFactor(name string, levels ...design.LevelLike) (*Factor, error) {
	return design.NewFactor(name, levels...)
}

// NewSimpleLevel constructs a level with no derivation.
func NewSimpleLevel(name string) *Level { return design.SimpleLevel(name) }

// NewDerivedLevel constructs a level computed from a Derivation built by
// WithinTrial, Transition, or Window.
func NewDerivedLevel(name string, derivation *Derivation) *Level {
	return design.DerivedLevel(name, derivation)
}

// NewElseLevel constructs a level whose predicate is the negation of the
// disjunction of its sibling DerivedLevels' predicates, resolved when the
// enclosing Factor is constructed.
func NewElseLevel(name string) design.LevelLike { return design.ElseLevel(name) }

// WithinTrial, Transition, and Window build Derivations over the current
// trial, the (previous, current) pair, and an arbitrary window,
// respectively.
func WithinTrial(pred func(levels []*Level) bool, sources []*Factor) (*Derivation, error) {
	return design.WithinTrial(pred, sources)
}

func Transition(pred func(groups [][]*Level) bool, sources []*Factor) (*Derivation, error) {
	return design.Transition(pred, sources)
}

func Window(pred func(groups [][]*Level) bool, sources []*Factor, width, stride int) (*Derivation, error) {
	return design.Window(pred, sources, width, stride)
}

// Constraint is a restriction lowered against a Block during NewBlock.
type Constraint = compile.Constraint

// FullyCrossed, MultipleCrossed, AtMostKInARow, AtLeastKInARow,
// ExactlyKInARow, Exclude, and MinimumTrials build the available
// constraint kinds.
func FullyCrossed(factors ...*Factor) Constraint    { return compile.FullyCrossed(factors...) }
func MultipleCrossed(factors ...*Factor) Constraint { return compile.MultipleCrossed(factors...) }

// AtMostKInARow targets every level of factor; AtMostKInARowLevel targets
// a single (factor, level) pair.
func AtMostKInARow(k int, factor *Factor) Constraint { return compile.AtMostKInARow(k, factor) }
func AtMostKInARowLevel(k int, factor *Factor, level *Level) Constraint {
	return compile.AtMostKInARowLevel(k, factor, level)
}

// AtLeastKInARow and ExactlyKInARow target a single level, not a whole
// factor.
func AtLeastKInARow(k int, factor *Factor, level *Level) Constraint {
	return compile.AtLeastKInARow(k, factor, level)
}
func ExactlyKInARow(k int, factor *Factor, level *Level) Constraint {
	return compile.ExactlyKInARow(k, factor, level)
}
func Exclude(factor *Factor, level *Level) Constraint { return compile.Exclude(factor, level) }
func MinimumTrials(n int) Constraint                  { return compile.MinimumTrials(n) }

// Block is a fully compiled design, ready to have trials synthesized
// from it.
type Block struct {
	inner *compile.Block
}

// NewBlock resolves factors and constraints into a compiled Block: trial
// count, variable layout, derivation CNF, and every constraint's
// lowering.
func NewBlock(factors []*Factor, constraints ...Constraint) (*Block, error) {
	inner, err := compile.NewBlock(factors, constraints)
	if err != nil {
		Log.WithError(err).Warn("sweetpea: block construction failed")
		return nil, err
	}
	Log.WithFields(logrus.Fields{
		"trials":  inner.TrialCount,
		"factors": len(factors),
	}).Debug("sweetpea: block compiled")
	return &Block{inner: inner}, nil
}

// TrialCount is the number of trials the block's constraints fixed.
func (b *Block) TrialCount() int { return b.inner.TrialCount }

// Strategy selects how SynthesizeTrials turns a Block into concrete trial
// sequences.
type Strategy = sampling.Strategy

// Uniform, NonUniform, and Guided are the three sampling strategies spec
// §4.10 describes. Uniform needs an external sampler supplied by the
// caller; NonUniform and Guided run entirely in-process.
func Uniform(sampler sampling.ExternalSampler) Strategy { return sampling.Uniform{Sampler: sampler} }

var (
	// NonUniformStrategy samples by repeated in-process solving with a
	// blocking clause appended after each solution.
	NonUniformStrategy Strategy = sampling.NonUniform{}
	// GuidedStrategy samples by extending a partial assignment one trial
	// at a time, each step filtered by in-process satisfiability.
	GuidedStrategy Strategy = sampling.Guided{}
)

// Trial is one row of a synthesized sequence: the level name assigned to
// each factor, keyed by factor name. A derived factor with no applicable
// window at this trial is simply absent from the map.
type Trial = map[string]string

// SynthesizeTrials packages b, expands its deferred cardinality requests,
// and asks strategy for n samples, decoding each into a trial sequence.
func SynthesizeTrials(ctx context.Context, b *Block, n int, strategy Strategy) ([][]Trial, error) {
	req := request.FromBlock(b.inner)
	if err := req.Finalize(); err != nil {
		Log.WithError(err).Warn("sweetpea: cardinality expansion failed")
		return nil, err
	}

	samples, err := strategy.Sample(ctx, req, n)
	if err != nil {
		Log.WithError(err).Warn("sweetpea: sampling failed")
		return nil, err
	}

	out := make([][]Trial, len(samples))
	for i, s := range samples {
		trials, err := request.Decode(b.inner.Layout, []bool(s))
		if err != nil {
			return nil, err
		}
		out[i] = trials
	}
	return out, nil
}
