// Package verify provides a test-only, in-process round trip: solve a
// packaged request with gini and decode the result back into named trial
// sequences, so acceptance tests can assert directly on the trials a
// design compiles down to without any out-of-process sampler.
package verify

import (
	"fmt"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"

	"github.com/sweetpea-org/sweetpea-go/internal/compile"
	"github.com/sweetpea-org/sweetpea-go/internal/request"
)

const satisfiable = 1

// ErrUnsatisfiable is returned when the block's compiled formula has no
// satisfying assignment at all, which always indicates a bug in the
// compiler or in the test's own design, not a legitimate design choice.
type ErrUnsatisfiable struct{}

func (ErrUnsatisfiable) Error() string { return "verify: block formula is unsatisfiable" }

// OneSolution packages blk, finalizes its deferred cardinality requests,
// solves the result with an in-process gini instance, and decodes the
// first satisfying assignment into one map per trial.
func OneSolution(blk *compile.Block) ([]map[string]string, error) {
	req := request.FromBlock(blk)
	if err := req.Finalize(); err != nil {
		return nil, err
	}

	g := gini.New()
	for _, c := range req.Clauses {
		for _, lit := range c {
			g.Add(z.Dimacs2Lit(lit))
		}
		g.Add(z.LitNull)
	}

	if g.Solve() != satisfiable {
		return nil, ErrUnsatisfiable{}
	}

	assignment := make([]bool, req.NumVars+1)
	for v := 1; v <= req.NumVars; v++ {
		assignment[v] = g.Value(z.Dimacs2Lit(v))
	}

	return request.Decode(blk.Layout, assignment)
}

// AllSolutionsUpTo enumerates up to limit distinct satisfying assignments
// by blocking each one found (over the independent support set) before
// solving again, for tests that assert a property over every possible
// trial sequence a design admits rather than just one.
func AllSolutionsUpTo(blk *compile.Block, limit int) ([][]map[string]string, error) {
	req := request.FromBlock(blk)
	if err := req.Finalize(); err != nil {
		return nil, err
	}

	g := gini.New()
	for _, c := range req.Clauses {
		for _, lit := range c {
			g.Add(z.Dimacs2Lit(lit))
		}
		g.Add(z.LitNull)
	}

	var solutions [][]map[string]string
	for len(solutions) < limit {
		if g.Solve() != satisfiable {
			break
		}
		assignment := make([]bool, req.NumVars+1)
		for v := 1; v <= req.NumVars; v++ {
			assignment[v] = g.Value(z.Dimacs2Lit(v))
		}
		decoded, err := request.Decode(blk.Layout, assignment)
		if err != nil {
			return nil, fmt.Errorf("verify: decoding solution %d: %w", len(solutions), err)
		}
		solutions = append(solutions, decoded)

		for v := 1; v <= req.SupportSize; v++ {
			if assignment[v] {
				g.Add(z.Dimacs2Lit(-v))
			} else {
				g.Add(z.Dimacs2Lit(v))
			}
		}
		g.Add(z.LitNull)
	}
	return solutions, nil
}
