package compile

import (
	"github.com/sweetpea-org/sweetpea-go/internal/cardinality"
	"github.com/sweetpea-org/sweetpea-go/internal/design"
)

// ErrNoTrialCount is returned when a block has neither a crossing
// constraint nor a MinimumTrials to fix its trial count.
type ErrNoTrialCount struct{}

func (ErrNoTrialCount) Error() string {
	return "compile: block has no crossing constraint or MinimumTrials to determine a trial count"
}

// Block is a fully resolved design: its factors, trial count, and the
// compiled CNF plus deferred cardinality requests.
type Block struct {
	Factors     []*design.Factor
	TrialCount  int
	Constraints []Constraint

	Builder *Builder
	Layout  *Layout
}

// NewBlock resolves a block's trial count from its crossing constraints
// and any MinimumTrials directive, allocates the variable layout, resolves
// every derived factor's CNF, applies the implicit Consistency constraint,
// and lowers every remaining constraint, in the order given.
func NewBlock(factors []*design.Factor, constraints []Constraint) (*Block, error) {
	trialCount, err := resolveTrialCount(constraints)
	if err != nil {
		return nil, err
	}

	b := NewBuilder()
	layout := NewLayout(b, factors, trialCount)

	if err := ResolveDerivations(b, layout, factors); err != nil {
		return nil, err
	}
	if err := ApplyConsistency(b, layout, factors); err != nil {
		return nil, err
	}

	for _, c := range constraints {
		if _, ok := c.(*minimumTrialsConstraint); ok {
			continue
		}
		if err := c.lower(b, layout, trialCount); err != nil {
			return nil, err
		}
	}

	return &Block{
		Factors:     factors,
		TrialCount:  trialCount,
		Constraints: constraints,
		Builder:     b,
		Layout:      layout,
	}, nil
}

// resolveTrialCount picks the block's trial count as the max of every
// crossing constraint's own requiredTrialCount and any MinimumTrials
// directive: a crossing smaller than that max simply stretches (see
// crossingConstraint.lower), so differently-sized crossings in the same
// block never conflict here.
func resolveTrialCount(constraints []Constraint) (int, error) {
	trialCount := -1
	minimum := -1
	for _, c := range constraints {
		switch cc := c.(type) {
		case *crossingConstraint:
			if t := cc.requiredTrialCount(); t > trialCount {
				trialCount = t
			}
		case *minimumTrialsConstraint:
			if cc.n > minimum {
				minimum = cc.n
			}
		}
	}

	if trialCount == -1 {
		if minimum == -1 {
			return 0, ErrNoTrialCount{}
		}
		return minimum, nil
	}
	if minimum > trialCount {
		return minimum, nil
	}
	return trialCount, nil
}

// GenerationRequests returns the deferred cardinality requests accumulated
// while lowering this block's constraints.
func (blk *Block) GenerationRequests() []cardinality.Request {
	return blk.Builder.Requests
}
