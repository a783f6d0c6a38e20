package compile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweetpea-org/sweetpea-go/internal/compile"
	"github.com/sweetpea-org/sweetpea-go/internal/design"
	"github.com/sweetpea-org/sweetpea-go/internal/verify"
)

func TestFullyCrossed2x2(t *testing.T) {
	color, err := design.NewFactor("color", design.SimpleLevel("red"), design.SimpleLevel("blue"))
	require.NoError(t, err)
	size, err := design.NewFactor("size", design.SimpleLevel("big"), design.SimpleLevel("small"))
	require.NoError(t, err)

	blk, err := compile.NewBlock([]*design.Factor{color, size}, []compile.Constraint{
		compile.FullyCrossed(color, size),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, blk.TrialCount)

	solutions, err := verify.AllSolutionsUpTo(blk, 50)
	require.NoError(t, err)
	require.NotEmpty(t, solutions)

	for _, trials := range solutions {
		require.Len(t, trials, 4)
		seen := make(map[string]int)
		for _, trial := range trials {
			key := trial["color"] + "/" + trial["size"]
			seen[key]++
		}
		assert.Len(t, seen, 4)
		for _, count := range seen {
			assert.Equal(t, 1, count)
		}
	}
}

func TestMinimumTrialsStretchesAutomaticCrossing(t *testing.T) {
	response, err := design.NewFactor("correct_response", design.SimpleLevel("H"), design.SimpleLevel("S"))
	require.NoError(t, err)
	congruency, err := design.NewFactor("congruency", design.SimpleLevel("congruent"), design.SimpleLevel("incongruent"))
	require.NoError(t, err)

	blk, err := compile.NewBlock([]*design.Factor{response, congruency}, []compile.Constraint{
		compile.FullyCrossed(response, congruency),
		compile.MinimumTrials(7),
	})
	require.NoError(t, err)
	assert.Equal(t, 7, blk.TrialCount)

	solutions, err := verify.AllSolutionsUpTo(blk, 50)
	require.NoError(t, err)
	require.NotEmpty(t, solutions)

	for _, trials := range solutions {
		require.Len(t, trials, 7)
		seen := make(map[string]int)
		for _, trial := range trials {
			seen[trial["correct_response"]+"/"+trial["congruency"]]++
		}
		require.Len(t, seen, 4)
		for _, count := range seen {
			assert.True(t, count == 1 || count == 2, "combination appeared %d times", count)
		}
	}
}

// TestMultipleCrossStretchesToLargerCrossing checks that a block with two
// MultipleCrossed constraints of different combination counts resolves to
// the larger one's trial count, automatically stretching the smaller
// crossing rather than rejecting the block.
func TestMultipleCrossStretchesToLargerCrossing(t *testing.T) {
	color, err := design.NewFactor("color", design.SimpleLevel("red"), design.SimpleLevel("blue"))
	require.NoError(t, err)
	text, err := design.NewFactor("text", design.SimpleLevel("red"), design.SimpleLevel("blue"))
	require.NoError(t, err)
	mix, err := design.NewFactor("mix", design.SimpleLevel("cake"), design.SimpleLevel("concrete"), design.SimpleLevel("tape"))
	require.NoError(t, err)

	blk, err := compile.NewBlock([]*design.Factor{color, text, mix}, []compile.Constraint{
		compile.MultipleCrossed(color, text),
		compile.MultipleCrossed(text, mix),
	})
	require.NoError(t, err)
	assert.Equal(t, 6, blk.TrialCount)

	solutions, err := verify.AllSolutionsUpTo(blk, 50)
	require.NoError(t, err)
	require.NotEmpty(t, solutions)

	for _, trials := range solutions {
		require.Len(t, trials, 6)

		colorText := make(map[string]int)
		textMix := make(map[string]int)
		for _, trial := range trials {
			colorText[trial["color"]+"/"+trial["text"]]++
			textMix[trial["text"]+"/"+trial["mix"]]++
		}
		require.Len(t, colorText, 4)
		for _, count := range colorText {
			assert.True(t, count == 1 || count == 2, "color/text combination appeared %d times", count)
		}
		require.Len(t, textMix, 6)
		for _, count := range textMix {
			assert.Equal(t, 1, count)
		}
	}
}

func TestMinimumTrialsAlone(t *testing.T) {
	color, err := design.NewFactor("color", design.SimpleLevel("red"), design.SimpleLevel("blue"))
	require.NoError(t, err)

	blk, err := compile.NewBlock([]*design.Factor{color}, []compile.Constraint{
		compile.MinimumTrials(5),
	})
	require.NoError(t, err)
	assert.Equal(t, 5, blk.TrialCount)
}
