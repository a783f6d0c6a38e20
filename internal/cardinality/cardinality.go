// Package cardinality builds assert-k-of-n cardinality assertions
// ("popcount(inputs) = k", "< k", "> k") against a fixed binary target k,
// lowering each to CNF over a circuit.Popcount bus plus a binary
// comparator.
package cardinality

import (
	"fmt"

	"github.com/sweetpea-org/sweetpea-go/internal/circuit"
	"github.com/sweetpea-org/sweetpea-go/internal/cnf"
)

// Comparison names the three relations a GenerationRequest may assert.
type Comparison int

const (
	// Eq asserts popcount(vars) == k.
	Eq Comparison = iota
	// Lt asserts popcount(vars) < k.
	Lt
	// Gt asserts popcount(vars) > k.
	Gt
)

func (c Comparison) String() string {
	switch c {
	case Eq:
		return "="
	case Lt:
		return "<"
	case Gt:
		return ">"
	default:
		return "?"
	}
}

// Request is a deferred cardinality assertion: the expansion into popcount
// and comparator clauses is postponed until request packaging time, so
// that constraint lowering can stay symbolic.
type Request struct {
	Comparison Comparison
	K          int
	Vars       []cnf.Var
}

// Expand lowers a single Request into f, allocating whatever popcount and
// comparator auxiliary variables it needs.
func Expand(f *cnf.Formula, req Request) error {
	n := len(req.Vars)
	switch req.Comparison {
	case Eq:
		if req.K == 0 {
			// Shortcut: popcount == 0 forces every input false, no
			// popcount circuit required.
			return f.ZeroOut(req.Vars)
		}
		if req.K < 0 || req.K > n {
			return forceUnsat(f)
		}
		bits := circuit.Popcount(f, req.Vars)
		return assertEqual(f, bits, req.K)
	case Lt:
		if req.K <= 0 {
			return forceUnsat(f)
		}
		if req.K > n {
			return nil // trivially satisfied: popcount(vars) <= n < k
		}
		bits := circuit.Popcount(f, req.Vars)
		return assertLess(f, bits, req.K)
	case Gt:
		if req.K >= n {
			return forceUnsat(f)
		}
		if req.K < 0 {
			return nil // trivially satisfied: popcount(vars) >= 0 > k
		}
		bits := circuit.Popcount(f, req.Vars)
		return assertGreater(f, bits, req.K)
	default:
		panic(fmt.Sprintf("cardinality: unknown comparison %d", req.Comparison))
	}
}

// forceUnsat adds two unit clauses that contradict each other, encoding an
// infeasible request without resorting to a syntactically empty clause
// (which is reserved for signalling a lowering bug, not a legitimately
// unsatisfiable user design).
func forceUnsat(f *cnf.Formula) error {
	v := f.Pool.Fresh()
	if err := f.AssertTrue(v); err != nil {
		return err
	}
	return f.AssertFalse(v)
}

// msbFirst reverses a circuit.Popcount bus (LSB first) into MSB-first
// order, the bit numbering the comparator below expects.
func msbFirst(bits []cnf.Var) []cnf.Var {
	out := make([]cnf.Var, len(bits))
	for i, b := range bits {
		out[len(bits)-1-i] = b
	}
	return out
}

func assertEqual(f *cnf.Formula, bits []cnf.Var, k int) error {
	m := len(bits)
	for i, b := range msbFirst(bits) {
		shift := m - 1 - i
		var err error
		if k&(1<<uint(shift)) != 0 {
			err = f.AssertTrue(b)
		} else {
			err = f.AssertFalse(b)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// assertLess asserts popcount(bits) < k using a standard bitwise
// comparator against the constant k: an "equal so far" chain from MSB
// downward, with one "ok at position i" auxiliary per bit where k's bit
// could admit a strictly-less divergence, each implying the prefix
// matched and this bit takes the favorable value. The final clause
// asserts at least one such position actually held.
func assertLess(f *cnf.Formula, bits []cnf.Var, k int) error {
	return comparator(f, bits, k, Lt)
}

// assertGreater is the dual of assertLess.
func assertGreater(f *cnf.Formula, bits []cnf.Var, k int) error {
	return comparator(f, bits, k, Gt)
}

func comparator(f *cnf.Formula, bits []cnf.Var, k int, dir Comparison) error {
	ms := msbFirst(bits)
	m := len(ms)

	oks := make([]int, 0, m)
	var eqPrev cnf.Var // zero value (0) means "vacuously true" (no prior bits)
	for i, b := range ms {
		shift := m - 1 - i
		kBit := (k>>uint(shift))&1 != 0

		// lit is "this bit matches k's corresponding bit".
		var litVar int
		if kBit {
			litVar = b.Lit()
		} else {
			litVar = -b.Lit()
		}

		// Decide whether position i can contribute to the asserted
		// comparator direction: for Lt we care about positions where
		// k's bit is 1 (popcount's bit can be strictly less there); for
		// Gt, positions where k's bit is 0.
		contributes := (dir == Lt && kBit) || (dir == Gt && !kBit)
		if contributes {
			var diffLit int
			if dir == Lt {
				diffLit = -b.Lit() // popcount bit is 0 where k's is 1
			} else {
				diffLit = b.Lit() // popcount bit is 1 where k's is 0
			}
			// ok <-> eqPrev AND diffLit: one direction (ok -> conjuncts)
			// is enough since ok is only ever used positively, in the
			// final disjunction below.
			ok := f.Pool.Fresh()
			if eqPrev != 0 {
				if err := f.AddClauseContext("cardinality comparator", -ok.Lit(), eqPrev.Lit()); err != nil {
					return err
				}
			}
			if err := f.AddClauseContext("cardinality comparator", -ok.Lit(), diffLit); err != nil {
				return err
			}
			oks = append(oks, ok.Lit())
		}

		if i == m-1 {
			break
		}

		// eq_i <-> eqPrev AND litVar (eqPrev implicitly true on the
		// first iteration, so eq_i <-> litVar there).
		eq := f.Pool.Fresh()
		if eqPrev == 0 {
			if err := f.AddClauseContext("cardinality eq", -eq.Lit(), litVar); err != nil {
				return err
			}
			if err := f.AddClauseContext("cardinality eq", eq.Lit(), -litVar); err != nil {
				return err
			}
		} else {
			if err := f.AddClauseContext("cardinality eq", -eq.Lit(), eqPrev.Lit()); err != nil {
				return err
			}
			if err := f.AddClauseContext("cardinality eq", -eq.Lit(), litVar); err != nil {
				return err
			}
			if err := f.AddClauseContext("cardinality eq", eq.Lit(), -eqPrev.Lit(), -litVar); err != nil {
				return err
			}
		}
		eqPrev = eq
	}

	return f.AddClauseContext("cardinality comparator", oks...)
}
