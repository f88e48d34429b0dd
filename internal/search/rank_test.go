package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peervod/pkg/types"
)

func TestRankOnePerTier(t *testing.T) {
	rows := []types.Candidate{
		{Name: "a", Quality: types.Quality1080P, Seeds: 50, Leeches: 5, Ratio: 10},
		{Name: "b", Quality: types.Quality1080P, Seeds: 40, Leeches: 5, Ratio: 8},
		{Name: "c", Quality: types.Quality720P, Seeds: 30, Leeches: 10, Ratio: 3},
		{Name: "d", Quality: types.Quality720P, Seeds: 90, Leeches: 45, Ratio: 2},
	}
	got := Rank(rows, 20)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, "c", got[1].Name)
}

func TestRankOrdering(t *testing.T) {
	rows := []types.Candidate{
		{Name: "low", Quality: types.Quality480P, Ratio: 1, Seeds: 5},
		{Name: "high", Quality: types.Quality2160P, Ratio: 12, Seeds: 60},
		{Name: "mid", Quality: types.Quality1080P, Ratio: 6, Seeds: 30},
	}
	got := Rank(rows, 20)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"high", "mid", "low"}, []string{got[0].Name, got[1].Name, got[2].Name})
}

// Equal ratios fall back to seed count; equal everything keeps input order,
// so the output is stable for a fixed input.
func TestRankDeterministic(t *testing.T) {
	rows := []types.Candidate{
		{Name: "x", Quality: types.Quality1080P, Ratio: 5, Seeds: 40},
		{Name: "y", Quality: types.Quality720P, Ratio: 5, Seeds: 60},
		{Name: "z", Quality: types.Quality480P, Ratio: 5, Seeds: 60},
	}
	first := Rank(rows, 20)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Rank(rows, 20))
	}
	assert.Equal(t, "y", first[0].Name) // higher seeds win the ratio tie
}

func TestRankLimit(t *testing.T) {
	rows := []types.Candidate{
		{Name: "a", Quality: types.Quality2160P, Ratio: 9},
		{Name: "b", Quality: types.Quality1080P, Ratio: 8},
		{Name: "c", Quality: types.Quality720P, Ratio: 7},
	}
	got := Rank(rows, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, "b", got[1].Name)
}

func TestRankUntaggedQualityStillRanks(t *testing.T) {
	rows := []types.Candidate{
		{Name: "untagged", Quality: types.QualityUnknown, Ratio: 4, Seeds: 8},
	}
	got := Rank(rows, 20)
	require.Len(t, got, 1)
	assert.Equal(t, "untagged", got[0].Name)
}
