// Package compile resolves a block (factors, crossing, constraints) into
// CNF plus deferred cardinality assertions: a Constraint interface whose
// implementations lower themselves against a shared Builder, which owns the
// CNF algebra and the deferred requests, and a shared Layout, which owns
// the translation table between (factor, level, trial) triples and
// propositional variables.
package compile

import (
	"github.com/sweetpea-org/sweetpea-go/internal/cardinality"
	"github.com/sweetpea-org/sweetpea-go/internal/cnf"
)

// Builder accumulates CNF clauses and deferred cardinality requests while
// lowering a Block's constraints. Constraints lower themselves against it
// instead of against a raw circuit builder, because this encoder
// hand-rolls its own circuits rather than delegating to one.
type Builder struct {
	Formula  *cnf.Formula
	Requests []cardinality.Request
}

// NewBuilder returns a Builder with a fresh CNF formula and no pending
// cardinality requests.
func NewBuilder() *Builder {
	return &Builder{Formula: cnf.NewFormula()}
}

// Defer records a cardinality assertion to be expanded later by the
// request packager, instead of expanding it inline.
func (b *Builder) Defer(req cardinality.Request) {
	b.Requests = append(b.Requests, req)
}

// ExactlyOne lowers "exactly one of vs is true" directly as a clause plus
// a quadratic set of pairwise negations, rather than deferring to the
// cardinality encoder: k is fixed at 1 and vs is
// always small (a factor's level count), so the quadratic blowup is
// negligible and the direct encoding avoids a popcount circuit.
func (b *Builder) ExactlyOne(vs []cnf.Var) error {
	if len(vs) == 0 {
		return nil
	}
	lits := make([]int, len(vs))
	for i, v := range vs {
		lits[i] = v.Lit()
	}
	if err := b.Formula.AddClauseContext("exactly-one", lits...); err != nil {
		return err
	}
	for i := 0; i < len(vs); i++ {
		for j := i + 1; j < len(vs); j++ {
			if err := b.Formula.AddClauseContext("exactly-one", -vs[i].Lit(), -vs[j].Lit()); err != nil {
				return err
			}
		}
	}
	return nil
}

// Biconditional emits `v <-> OR(terms)` where each term is itself a
// conjunction of literals (derived_var <-> disjunction of conjunctions of
// source level variables). It is the CNF shape the
// derivation resolver and the crossing constraints' match variables need,
// so it lives on Builder rather than in the general cnf algebra.
func (b *Builder) Biconditional(v cnf.Var, terms [][]int) error {
	if len(terms) == 0 {
		// v <-> false
		return b.Formula.AssertFalse(v)
	}
	// Forward: v -> OR(terms), i.e. for every literal l in every term,
	// (-v ... ) is handled per-term below via auxiliary "term true" vars
	// when a term has more than one literal; single-literal terms need no
	// auxiliary.
	auxTerms := make([]int, len(terms))
	for i, term := range terms {
		if len(term) == 1 {
			auxTerms[i] = term[0]
			continue
		}
		t := b.Formula.Pool.Fresh()
		for _, l := range term {
			if err := b.Formula.AddClauseContext("derivation term", -t.Lit(), l); err != nil {
				return err
			}
		}
		negated := make([]int, 0, len(term)+1)
		negated = append(negated, t.Lit())
		for _, l := range term {
			negated = append(negated, -l)
		}
		if err := b.Formula.AddClauseContext("derivation term", negated...); err != nil {
			return err
		}
		auxTerms[i] = t.Lit()
	}

	// v <-> OR(auxTerms)
	orClause := make([]int, 0, len(auxTerms)+1)
	orClause = append(orClause, -v.Lit())
	orClause = append(orClause, auxTerms...)
	if err := b.Formula.AddClauseContext("derivation biconditional", orClause...); err != nil {
		return err
	}
	for _, a := range auxTerms {
		if err := b.Formula.AddClauseContext("derivation biconditional", v.Lit(), -a); err != nil {
			return err
		}
	}
	return nil
}
