package request_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweetpea-org/sweetpea-go/internal/cnf"
	"github.com/sweetpea-org/sweetpea-go/internal/compile"
	"github.com/sweetpea-org/sweetpea-go/internal/design"
	"github.com/sweetpea-org/sweetpea-go/internal/request"
)

func TestSerializeFormat(t *testing.T) {
	req := &request.Request{
		NumVars:     3,
		Clauses:     []cnf.Clause{{1, 2}, {-3}},
		SupportSize: 2,
	}

	var buf strings.Builder
	require.NoError(t, request.Serialize(&buf, req, true))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "c generated by sweetpea", lines[0])
	assert.Equal(t, "c ind 1 2 0", lines[1])
	assert.Equal(t, "p cnf 3 2", lines[2])
	assert.Equal(t, "1 2 0", lines[3])
}

func TestSerializeWithoutProjection(t *testing.T) {
	req := &request.Request{
		NumVars:     1,
		Clauses:     []cnf.Clause{{1}},
		SupportSize: 1,
	}

	var buf strings.Builder
	require.NoError(t, request.Serialize(&buf, req, false))
	assert.NotContains(t, buf.String(), "c ind")
}

func TestFromBlockDefersThenFinalizeExpands(t *testing.T) {
	color, err := design.NewFactor("color", design.SimpleLevel("red"), design.SimpleLevel("blue"))
	require.NoError(t, err)
	size, err := design.NewFactor("size", design.SimpleLevel("big"), design.SimpleLevel("small"))
	require.NoError(t, err)

	blk, err := compile.NewBlock([]*design.Factor{color, size}, []compile.Constraint{
		compile.FullyCrossed(color, size),
	})
	require.NoError(t, err)

	req := request.FromBlock(blk)
	require.NotEmpty(t, req.GenerationRequests)
	before := len(req.Clauses)

	require.NoError(t, req.Finalize())
	assert.Empty(t, req.GenerationRequests)
	assert.Greater(t, len(req.Clauses), before)
}

func TestDecodeAmbiguousTrial(t *testing.T) {
	l0 := design.SimpleLevel("l0")
	l1 := design.SimpleLevel("l1")
	f, err := design.NewFactor("f", l0, l1)
	require.NoError(t, err)

	b := compile.NewBuilder()
	layout := compile.NewLayout(b, []*design.Factor{f}, 1)

	assignment := make([]bool, b.Formula.NumVars()+1)
	assignment[int(layout.Var(f, l0, 0))] = true
	assignment[int(layout.Var(f, l1, 0))] = true

	_, err = request.Decode(layout, assignment)
	assert.Equal(t, request.ErrAmbiguousTrial{Factor: "f", Trial: 0}, err)
}

func TestDecodeOmitsInapplicableDerivedFactor(t *testing.T) {
	taskA := design.SimpleLevel("a")
	taskB := design.SimpleLevel("b")
	task, err := design.NewFactor("task", taskA, taskB)
	require.NoError(t, err)

	derivation, err := design.Transition(func(groups [][]*design.Level) bool {
		return groups[0][0] == groups[0][1]
	}, []*design.Factor{task})
	require.NoError(t, err)
	same := design.DerivedLevel("same", derivation)
	response, err := design.NewFactor("response", same)
	require.NoError(t, err)

	factors := []*design.Factor{task, response}
	b := compile.NewBuilder()
	layout := compile.NewLayout(b, factors, 2)
	compile.ResolveDerivations(b, layout, factors)

	assignment := make([]bool, b.Formula.NumVars()+1)
	assignment[int(layout.Var(task, taskA, 0))] = true
	assignment[int(layout.Var(task, taskA, 1))] = true
	assignment[int(layout.Var(response, same, 1))] = true

	trials, err := request.Decode(layout, assignment)
	require.NoError(t, err)
	_, present := trials[0]["response"]
	assert.False(t, present)
	assert.Equal(t, "same", trials[1]["response"])
}
