// Package cnf implements the boolean variable pool and the append-only CNF
// algebra that every other encoding package builds on.
package cnf

import "fmt"

// Var is a propositional variable: a positive nonzero integer identity.
// Negation is the same identity negated. Var(0) never appears; it is
// reserved as the clause terminator in the exchange format.
type Var int

// Lit returns the positive literal for v.
func (v Var) Lit() int { return int(v) }

// Neg returns the negative literal for v.
func (v Var) Neg() int { return -int(v) }

// Clause is a nonempty ordered sequence of signed variable identities,
// interpreted as a disjunction. Order is preserved for reproducible
// serialization but is not semantically significant.
type Clause []int

// Pool allocates fresh propositional variables from a monotonic counter.
// No variable is ever freed; this package is not safe for concurrent use,
// matching the single-threaded compilation model of the rest of the core.
type Pool struct {
	next int
}

// NewPool returns a Pool with no variables allocated yet.
func NewPool() *Pool {
	return &Pool{}
}

// Fresh allocates and returns the next variable.
func (p *Pool) Fresh() Var {
	p.next++
	return Var(p.next)
}

// FreshN allocates n consecutive fresh variables.
func (p *Pool) FreshN(n int) []Var {
	vs := make([]Var, n)
	for i := range vs {
		vs[i] = p.Fresh()
	}
	return vs
}

// Len returns the number of variables allocated so far.
func (p *Pool) Len() int { return p.next }

// Formula is an ordered, append-only sequence of clauses together with the
// Pool that produced its variables. It is semantically conjunctive.
type Formula struct {
	Pool    *Pool
	Clauses []Clause
}

// NewFormula returns an empty Formula backed by a fresh Pool.
func NewFormula() *Formula {
	return &Formula{Pool: NewPool()}
}

// ErrEmptyClause is returned by AddClause when asked to add a clause with no
// literals. An empty clause renders the formula trivially unsatisfiable and
// almost always indicates a bug in the caller.
type ErrEmptyClause struct {
	Context string
}

func (e ErrEmptyClause) Error() string {
	if e.Context == "" {
		return "cnf: empty clause is forbidden"
	}
	return fmt.Sprintf("cnf: empty clause is forbidden (%s)", e.Context)
}

// ErrZeroLiteral is returned when a literal of identity 0 is supplied; 0 is
// reserved as the DIMACS clause terminator.
type ErrZeroLiteral struct {
	Context string
}

func (e ErrZeroLiteral) Error() string {
	if e.Context == "" {
		return "cnf: zero used as a variable identity"
	}
	return fmt.Sprintf("cnf: zero used as a variable identity (%s)", e.Context)
}

// AddClause appends a clause of signed literals to the formula. It returns
// ErrEmptyClause or ErrZeroLiteral on an empty clause or a zero literal:
// both indicate a bug in the lowering pass that built the clause, surfaced
// to the caller rather than panicking so a constraint's lower method can
// report it like any other encoding failure.
func (f *Formula) AddClause(lits ...int) error {
	if len(lits) == 0 {
		return ErrEmptyClause{}
	}
	for _, l := range lits {
		if l == 0 {
			return ErrZeroLiteral{}
		}
	}
	f.Clauses = append(f.Clauses, Clause(lits))
	return nil
}

// AddClauseContext is AddClause but tags the returned error with a context
// string, for lowering passes that want to name the constraint that
// produced the bug.
func (f *Formula) AddClauseContext(context string, lits ...int) error {
	if len(lits) == 0 {
		return ErrEmptyClause{Context: context}
	}
	for _, l := range lits {
		if l == 0 {
			return ErrZeroLiteral{Context: context}
		}
	}
	f.Clauses = append(f.Clauses, Clause(lits))
	return nil
}

// AssertTrue adds a unit clause asserting v is true.
func (f *Formula) AssertTrue(v Var) error {
	return f.AddClause(v.Lit())
}

// AssertFalse adds a unit clause asserting v is false.
func (f *Formula) AssertFalse(v Var) error {
	return f.AddClause(v.Neg())
}

// ZeroOut adds a unit negation for each variable in vs.
func (f *Formula) ZeroOut(vs []Var) error {
	for _, v := range vs {
		if err := f.AssertFalse(v); err != nil {
			return err
		}
	}
	return nil
}

// Distribute returns a new clause list in which the literal lit has been
// disjoined into every clause of src. src itself is untouched; the caller
// decides whether to append the result.
func Distribute(lit int, src []Clause) []Clause {
	out := make([]Clause, len(src))
	for i, c := range src {
		nc := make(Clause, 0, len(c)+1)
		nc = append(nc, lit)
		nc = append(nc, c...)
		out[i] = nc
	}
	return out
}

// Append adds every clause in other to f, in order.
func (f *Formula) Append(other []Clause) {
	f.Clauses = append(f.Clauses, other...)
}

// NumVars is the highest-numbered variable allocated in f's pool.
func (f *Formula) NumVars() int {
	return f.Pool.Len()
}
