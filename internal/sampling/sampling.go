// Package sampling turns a packaged request.Request into concrete trial
// sequences. It implements two strategies directly with an in-process SAT
// solver, and defines the seam a caller plugs an out-of-process uniform
// sampler into for the third.
package sampling

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"

	"github.com/sweetpea-org/sweetpea-go/internal/request"
)

const (
	satisfiable   = 1
	unsatisfiable = -1
)

// Sample is a satisfying assignment indexed by variable identity: Sample[v]
// holds the truth value of variable v (index 0 is unused, matching
// request.Decode's expectations).
type Sample []bool

// ErrUnsatisfiable is returned when a strategy cannot find even one
// satisfying assignment for the packaged request.
type ErrUnsatisfiable struct{}

func (ErrUnsatisfiable) Error() string { return "sampling: request is unsatisfiable" }

// ErrSamplerFailed wraps an external sampler's failure with the strategy
// name that invoked it.
type ErrSamplerFailed struct {
	Strategy string
	Reason   string
}

func (e ErrSamplerFailed) Error() string {
	return fmt.Sprintf("sampling: %s sampler failed: %s", e.Strategy, e.Reason)
}

// Strategy produces up to n samples from a finalized request (Finalize
// must already have been called; these strategies do not expand deferred
// cardinality requests themselves).
type Strategy interface {
	Sample(ctx context.Context, req *request.Request, n int) ([]Sample, error)
}

// ExternalSampler is the boundary to an out-of-process uniform sampler
// such as Unigen or CMSGen. It is handed the DIMACS-plus-"c ind" stream
// that request.Serialize produces and returns n models in the standard
// DIMACS convention (one signed int per assigned variable, positive for
// true, negative for false). The boundary is plain bytes and ints rather
// than this package's own types so a caller outside this module — which
// cannot import an internal package — can implement it by shelling out to
// a real sampler binary. Actually launching or speaking to such a process
// is out of scope; Uniform only adapts whatever implementation a caller
// supplies into a Strategy.
type ExternalSampler interface {
	Sample(ctx context.Context, dimacs []byte, n int) ([][]int, error)
}

// Uniform delegates to an externally supplied uniform sampler.
type Uniform struct {
	Sampler ExternalSampler
}

func (u Uniform) Sample(ctx context.Context, req *request.Request, n int) ([]Sample, error) {
	if u.Sampler == nil {
		return nil, ErrSamplerFailed{Strategy: "Uniform", Reason: "no ExternalSampler configured"}
	}

	var buf bytes.Buffer
	if err := request.Serialize(&buf, req, true); err != nil {
		return nil, ErrSamplerFailed{Strategy: "Uniform", Reason: err.Error()}
	}

	models, err := u.Sampler.Sample(ctx, buf.Bytes(), n)
	if err != nil {
		return nil, ErrSamplerFailed{Strategy: "Uniform", Reason: err.Error()}
	}

	samples := make([]Sample, len(models))
	for i, model := range models {
		s := make(Sample, req.NumVars+1)
		for _, lit := range model {
			v := lit
			if v < 0 {
				v = -v
			}
			if v >= 1 && v <= req.NumVars {
				s[v] = lit > 0
			}
		}
		samples[i] = s
	}
	return samples, nil
}

// NonUniform repeatedly solves the request in-process with gini, blocking
// each previously found assignment (restricted to the independent support
// set) with a fresh clause before solving again, rather than shelling out
// to an external solve-and-block loop.
type NonUniform struct{}

func (NonUniform) Sample(ctx context.Context, req *request.Request, n int) ([]Sample, error) {
	g := gini.New()
	loadClauses(g, req)

	var out []Sample
	for len(out) < n {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if g.Solve() != satisfiable {
			break
		}
		s := extract(g, req.NumVars)
		out = append(out, s)
		blockSupport(g, s, req.SupportSize)
	}
	if len(out) == 0 {
		return nil, ErrUnsatisfiable{}
	}
	return out, nil
}

// Guided extends a sample one trial at a time: for each trial, in turn, it
// assumes each of that trial's candidate variables true (in declared
// order) until one keeps the remaining formula satisfiable, then commits
// to it and moves on, an incremental Assume/Test/Untest search.
type Guided struct{}

func (Guided) Sample(ctx context.Context, req *request.Request, n int) ([]Sample, error) {
	var out []Sample
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		s, ok := guidedExtend(req)
		if ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, ErrUnsatisfiable{}
	}
	return out, nil
}

func guidedExtend(req *request.Request) (Sample, bool) {
	g := gini.New()
	loadClauses(g, req)

	var assumed []z.Lit
	for t := 0; t < req.TrialCount; t++ {
		chosen := z.LitNull
		for _, v := range req.TrialVars[t] {
			cand := z.Dimacs2Lit(v)
			g.Assume(append(append([]z.Lit{}, assumed...), cand)...)
			result, _ := g.Test(nil)
			if result == unsatisfiable {
				g.Untest()
				continue
			}
			chosen = cand
			break
		}
		if chosen == z.LitNull {
			return nil, false
		}
		assumed = append(assumed, chosen)
	}

	g.Assume(assumed...)
	if g.Solve() != satisfiable {
		return nil, false
	}
	return extract(g, req.NumVars), true
}

func loadClauses(g *gini.Gini, req *request.Request) {
	for _, c := range req.Clauses {
		for _, lit := range c {
			g.Add(z.Dimacs2Lit(lit))
		}
		g.Add(z.LitNull)
	}
}

func blockSupport(g *gini.Gini, s Sample, supportSize int) {
	for v := 1; v <= supportSize; v++ {
		if s[v] {
			g.Add(z.Dimacs2Lit(-v))
		} else {
			g.Add(z.Dimacs2Lit(v))
		}
	}
	g.Add(z.LitNull)
}

func extract(g *gini.Gini, numVars int) Sample {
	s := make(Sample, numVars+1)
	for v := 1; v <= numVars; v++ {
		s[v] = g.Value(z.Dimacs2Lit(v))
	}
	return s
}
