package sampling_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweetpea-org/sweetpea-go/internal/compile"
	"github.com/sweetpea-org/sweetpea-go/internal/design"
	"github.com/sweetpea-org/sweetpea-go/internal/request"
	"github.com/sweetpea-org/sweetpea-go/internal/sampling"
)

func crossedColorRequest(t *testing.T) (*request.Request, *compile.Block) {
	t.Helper()
	red := design.SimpleLevel("red")
	blue := design.SimpleLevel("blue")
	color, err := design.NewFactor("color", red, blue)
	require.NoError(t, err)

	blk, err := compile.NewBlock([]*design.Factor{color}, []compile.Constraint{
		compile.FullyCrossed(color),
	})
	require.NoError(t, err)
	require.Equal(t, 2, blk.TrialCount)

	req := request.FromBlock(blk)
	require.NoError(t, req.Finalize())
	return req, blk
}

type stubSampler struct {
	calledWith []byte
	models     [][]int
	err        error
}

func (s *stubSampler) Sample(ctx context.Context, dimacs []byte, n int) ([][]int, error) {
	s.calledWith = dimacs
	return s.models, s.err
}

func TestUniformDelegatesToExternalSampler(t *testing.T) {
	req, _ := crossedColorRequest(t)
	// two variables: var 1 false, var 2 true.
	stub := &stubSampler{models: [][]int{{-1, 2}}}

	u := sampling.Uniform{Sampler: stub}
	got, err := u.Sample(context.Background(), req, 1)
	require.NoError(t, err)
	require.Contains(t, string(stub.calledWith), "p cnf")
	require.Len(t, got, 1)
	assert.False(t, got[0][1])
	assert.True(t, got[0][2])
}

func TestUniformWithoutSamplerFails(t *testing.T) {
	req, _ := crossedColorRequest(t)
	u := sampling.Uniform{}
	_, err := u.Sample(context.Background(), req, 1)
	assert.Equal(t, sampling.ErrSamplerFailed{Strategy: "Uniform", Reason: "no ExternalSampler configured"}, err)
}

func TestNonUniformFindsExactlyTheTwoOrderings(t *testing.T) {
	req, blk := crossedColorRequest(t)

	out, err := sampling.NonUniform{}.Sample(context.Background(), req, 10)
	require.NoError(t, err)
	require.Len(t, out, 2)

	seen := make(map[string]bool)
	for _, s := range out {
		trials, err := request.Decode(blk.Layout, s)
		require.NoError(t, err)
		require.Len(t, trials, 2)
		seen[trials[0]["color"]+"/"+trials[1]["color"]] = true
	}
	assert.True(t, seen["red/blue"])
	assert.True(t, seen["blue/red"])
}

func TestGuidedProducesValidCrossedSamples(t *testing.T) {
	req, blk := crossedColorRequest(t)

	out, err := sampling.Guided{}.Sample(context.Background(), req, 3)
	require.NoError(t, err)
	require.Len(t, out, 3)

	for _, s := range out {
		trials, err := request.Decode(blk.Layout, s)
		require.NoError(t, err)
		require.Len(t, trials, 2)
		assert.NotEqual(t, trials[0]["color"], trials[1]["color"])
	}
}

func TestNonUniformUnsatisfiableRequest(t *testing.T) {
	red := design.SimpleLevel("red")
	color, err := design.NewFactor("color", red)
	require.NoError(t, err)
	blk, err := compile.NewBlock([]*design.Factor{color}, []compile.Constraint{
		compile.FullyCrossed(color),
		compile.Exclude(color, red),
	})
	require.NoError(t, err)

	req := request.FromBlock(blk)
	require.NoError(t, req.Finalize())

	_, err = sampling.NonUniform{}.Sample(context.Background(), req, 5)
	assert.Equal(t, sampling.ErrUnsatisfiable{}, err)
}
