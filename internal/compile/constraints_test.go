package compile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweetpea-org/sweetpea-go/internal/design"
)

func TestCrossingRequiredTrialCount(t *testing.T) {
	a := mustFactor(t, "a", design.SimpleLevel("a1"), design.SimpleLevel("a2"))
	b := mustFactor(t, "b", design.SimpleLevel("b1"), design.SimpleLevel("b2"))

	full := FullyCrossed(a, b).(*crossingConstraint)
	assert.Equal(t, 4, full.requiredTrialCount())

	multi := MultipleCrossed(a, b).(*crossingConstraint)
	assert.Equal(t, 4, multi.requiredTrialCount())
}

// TestCrossingRequiredTrialCountWithTransition checks that a crossing
// including a Transition-derived factor needs one extra trial beyond its
// combination count, since the first trial never has a defined transition.
func TestCrossingRequiredTrialCountWithTransition(t *testing.T) {
	a := mustFactor(t, "a", design.SimpleLevel("a1"), design.SimpleLevel("a2"))
	b := mustFactor(t, "b", design.SimpleLevel("b1"), design.SimpleLevel("b2"))

	derivation, err := design.Transition(func(groups [][]*design.Level) bool {
		return groups[0][0] == groups[0][1]
	}, []*design.Factor{a})
	require.NoError(t, err)
	repeat := design.DerivedLevel("repeat", derivation)
	change := design.DerivedLevel("change", derivation)
	transitioned := mustFactor(t, "transitioned", repeat, change)

	multi := MultipleCrossed(a, b, transitioned).(*crossingConstraint)
	assert.Equal(t, 9, multi.requiredTrialCount()) // 8 combinations, +1 for the width-2 window
}

// TestCrossingLowerRejectsUndersizedTrialCount checks that lower itself
// still refuses a trial count smaller than the crossing's own requirement,
// rather than silently under-filling combinations.
func TestCrossingLowerRejectsUndersizedTrialCount(t *testing.T) {
	a := mustFactor(t, "a", design.SimpleLevel("a1"), design.SimpleLevel("a2"))
	b := mustFactor(t, "b", design.SimpleLevel("b1"), design.SimpleLevel("b2"))
	c := MultipleCrossed(a, b).(*crossingConstraint)

	bd := NewBuilder()
	layout := NewLayout(bd, []*design.Factor{a, b}, 3)
	err := c.lower(bd, layout, 3)
	assert.Equal(t, ErrIncompatibleCrossing{Combinations: 4, Applicable: 3}, err)
}

func TestAtMostKInARowNoRepeats(t *testing.T) {
	l0 := design.SimpleLevel("l0")
	l1 := design.SimpleLevel("l1")
	f := mustFactor(t, "f", l0, l1)

	b := NewBuilder()
	layout := NewLayout(b, []*design.Factor{f}, 4)
	ApplyConsistency(b, layout, []*design.Factor{f})
	require.NoError(t, AtMostKInARow(1, f).lower(b, layout, 4))

	sols := enumerate(toIntClauses(t, b), b.Formula.NumVars())
	assert.Len(t, sols, 2) // only the two strictly alternating sequences
	for _, sol := range sols {
		for trial := 0; trial+1 < 4; trial++ {
			same := sol[layout.Var(f, l0, trial)] == sol[layout.Var(f, l0, trial+1)]
			assert.False(t, same, "trial %d", trial)
		}
	}
}

func TestAtLeastKInARowRunsOfTwo(t *testing.T) {
	l0 := design.SimpleLevel("l0")
	l1 := design.SimpleLevel("l1")
	f := mustFactor(t, "f", l0, l1)

	b := NewBuilder()
	layout := NewLayout(b, []*design.Factor{f}, 4)
	ApplyConsistency(b, layout, []*design.Factor{f})
	require.NoError(t, AtLeastKInARow(2, f, l0).lower(b, layout, 4))
	require.NoError(t, AtLeastKInARow(2, f, l1).lower(b, layout, 4))

	sols := enumerate(toIntClauses(t, b), b.Formula.NumVars())
	assert.Len(t, sols, 4) // aaaa, bbbb, aabb, bbaa

	for _, sol := range sols {
		levelAt := func(trial int) bool { return sol[layout.Var(f, l0, trial)] }
		run := 1
		for trial := 1; trial < 4; trial++ {
			if levelAt(trial) == levelAt(trial-1) {
				run++
				continue
			}
			assert.GreaterOrEqual(t, run, 2)
			run = 1
		}
		assert.GreaterOrEqual(t, run, 2)
	}
}

func TestExcludeForbidsLevel(t *testing.T) {
	l0 := design.SimpleLevel("l0")
	l1 := design.SimpleLevel("l1")
	f := mustFactor(t, "f", l0, l1)

	b := NewBuilder()
	layout := NewLayout(b, []*design.Factor{f}, 3)
	ApplyConsistency(b, layout, []*design.Factor{f})
	require.NoError(t, Exclude(f, l0).lower(b, layout, 3))

	sols := enumerate(toIntClauses(t, b), b.Formula.NumVars())
	require.Len(t, sols, 1) // only all-l1 remains
	for trial := 0; trial < 3; trial++ {
		assert.False(t, sols[0][layout.Var(f, l0, trial)])
		assert.True(t, sols[0][layout.Var(f, l1, trial)])
	}
}
