// Package request packages a compiled Block into the DIMACS-derived
// exchange format an external sampler consumes, and decodes a sampler's
// assignment back into named trial sequences.
package request

import (
	"bufio"
	"fmt"
	"io"

	"github.com/sweetpea-org/sweetpea-go/internal/cardinality"
	"github.com/sweetpea-org/sweetpea-go/internal/cnf"
	"github.com/sweetpea-org/sweetpea-go/internal/compile"
)

// Request is a packaged block: the base clauses plus the deferred
// cardinality requests that still need to be expanded before the formula
// is handed to a sampler, and the independent-support size used to build
// the optional "c ind" projection line.
type Request struct {
	NumVars            int
	Clauses            []cnf.Clause
	GenerationRequests []cardinality.Request
	SupportSize        int

	// TrialCount and TrialVars describe the support variables' grouping by
	// trial, in declared factor order within each trial. They carry no
	// CNF of their own; a trial-by-trial sampling strategy (internal/
	// sampling's Guided) uses them to extend a partial assignment one
	// trial at a time without depending on compile.Layout directly.
	TrialCount int
	TrialVars  [][]int
}

// FromBlock packages a compiled Block. Expansion of GenerationRequests is
// deferred to Finalize rather than done here, so a caller that
// only wants to count variables or inspect the un-expanded request list
// does not pay for popcount circuits it will not use.
func FromBlock(blk *compile.Block) *Request {
	trialVars := make([][]int, blk.Layout.TrialCount)
	for t := range trialVars {
		vs := blk.Layout.TrialVars(t)
		ints := make([]int, len(vs))
		for i, v := range vs {
			ints[i] = v.Lit()
		}
		trialVars[t] = ints
	}
	return &Request{
		NumVars:            blk.Builder.Formula.NumVars(),
		Clauses:            blk.Builder.Formula.Clauses,
		GenerationRequests: blk.GenerationRequests(),
		SupportSize:        blk.Layout.SupportSize(),
		TrialCount:         blk.Layout.TrialCount,
		TrialVars:          trialVars,
	}
}

// Finalize expands every GenerationRequest into req's own formula,
// consuming GenerationRequests and storing the fully-expanded clause list
// and variable count back into req.Clauses and req.NumVars. It is separated from FromBlock so the caller
// controls exactly when the (potentially large) popcount/comparator
// circuits are built.
func (req *Request) Finalize() error {
	f := &cnf.Formula{Pool: &cnf.Pool{}, Clauses: req.Clauses}
	f.Pool.FreshN(req.NumVars)
	for _, gr := range req.GenerationRequests {
		if err := cardinality.Expand(f, gr); err != nil {
			return err
		}
	}
	req.Clauses = f.Clauses
	req.NumVars = f.NumVars()
	req.GenerationRequests = nil
	return nil
}

// Serialize writes req in a DIMACS-derived exchange format: a header
// comment, an optional "c ind" independent-support projection line
// listing the first SupportSize variables (1..SupportSize, the
// (trial,factor,level) variables — every variable allocated after them is
// internal auxiliary machinery the sampler need not project over), the
// standard "p cnf" problem line, and one clause line per clause terminated
// with 0. Finalize must be called first if GenerationRequests is
// non-empty; Serialize does not expand them itself, so that callers who
// want byte-identical output across repeated calls can Finalize once and
// serialize many times.
func Serialize(w io.Writer, req *Request, projectSupport bool) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "c generated by sweetpea")
	if projectSupport {
		fmt.Fprint(bw, "c ind")
		for v := 1; v <= req.SupportSize; v++ {
			fmt.Fprintf(bw, " %d", v)
		}
		fmt.Fprintln(bw, " 0")
	}
	fmt.Fprintf(bw, "p cnf %d %d\n", req.NumVars, len(req.Clauses))
	for _, c := range req.Clauses {
		for _, lit := range c {
			fmt.Fprintf(bw, "%d ", lit)
		}
		fmt.Fprintln(bw, "0")
	}
	return bw.Flush()
}
