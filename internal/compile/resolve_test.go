package compile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweetpea-org/sweetpea-go/internal/design"
)

func mustFactor(t *testing.T, name string, levels ...design.LevelLike) *design.Factor {
	t.Helper()
	f, err := design.NewFactor(name, levels...)
	require.NoError(t, err)
	return f
}

func TestEnumerateConfigurationsWithinTrial(t *testing.T) {
	a := design.SimpleLevel("a")
	b := design.SimpleLevel("b")
	f := mustFactor(t, "x", a, b)

	configs := enumerateConfigurations([]*design.Factor{f}, 1)
	require.Len(t, configs, 2)
	assert.Equal(t, design.Configuration{{a}}, configs[0])
	assert.Equal(t, design.Configuration{{b}}, configs[1])
}

func TestEnumerateConfigurationsTransitionWidth(t *testing.T) {
	a := design.SimpleLevel("a")
	b := design.SimpleLevel("b")
	f := mustFactor(t, "x", a, b)

	configs := enumerateConfigurations([]*design.Factor{f}, 2)
	require.Len(t, configs, 4) // 2 levels ^ width 2
	assert.Equal(t, design.Configuration{{a, a}}, configs[0])
	assert.Equal(t, design.Configuration{{b, b}}, configs[3])
}

func TestResolveDerivationsTransition(t *testing.T) {
	taskA := design.SimpleLevel("a")
	taskB := design.SimpleLevel("b")
	task := mustFactor(t, "task", taskA, taskB)

	sameDerivation, err := design.Transition(func(groups [][]*design.Level) bool {
		return groups[0][0] == groups[0][1]
	}, []*design.Factor{task})
	require.NoError(t, err)
	diffDerivation, err := design.Transition(func(groups [][]*design.Level) bool {
		return groups[0][0] != groups[0][1]
	}, []*design.Factor{task})
	require.NoError(t, err)

	same := design.DerivedLevel("same", sameDerivation)
	diff := design.DerivedLevel("diff", diffDerivation)
	response := mustFactor(t, "response", same, diff)

	factors := []*design.Factor{task, response}
	b := NewBuilder()
	layout := NewLayout(b, factors, 3)
	require.NoError(t, ResolveDerivations(b, layout, factors))
	require.NoError(t, ApplyConsistency(b, layout, factors))

	clauses := toIntClauses(t, b)
	sols := enumerate(clauses, b.Formula.NumVars())
	require.Len(t, sols, 8) // 2 free task choices per trial, response is determined

	for _, sol := range sols {
		taskLevelAt := func(trial int) *design.Level {
			if sol[layout.Var(task, taskA, trial)] {
				return taskA
			}
			return taskB
		}
		// trial 0 has no previous trial: response must be forced false.
		assert.False(t, sol[layout.Var(response, same, 0)])
		assert.False(t, sol[layout.Var(response, diff, 0)])

		for trial := 1; trial < 3; trial++ {
			prev, cur := taskLevelAt(trial-1), taskLevelAt(trial)
			if prev == cur {
				assert.True(t, sol[layout.Var(response, same, trial)], "trial %d", trial)
				assert.False(t, sol[layout.Var(response, diff, trial)], "trial %d", trial)
			} else {
				assert.False(t, sol[layout.Var(response, same, trial)], "trial %d", trial)
				assert.True(t, sol[layout.Var(response, diff, trial)], "trial %d", trial)
			}
		}
	}
}
