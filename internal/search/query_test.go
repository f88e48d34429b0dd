package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intp(n int) *int { return &n }

func TestBuildQueriesEpisode(t *testing.T) {
	got := BuildQueries("The Wire", "2002", intp(1), intp(2))
	assert.Equal(t, []string{
		"The Wire S01E02",
		"The Wire 1x2",
		"The Wire Season 1 Episode 2",
		"The Wire 2002",
		"The Wire",
	}, got)
}

func TestBuildQueriesMovie(t *testing.T) {
	got := BuildQueries("Heat", "1995", nil, nil)
	assert.Equal(t, []string{"Heat 1995", "Heat"}, got)
}

func TestBuildQueriesBareTitle(t *testing.T) {
	got := BuildQueries("  Heat  ", "", nil, nil)
	assert.Equal(t, []string{"Heat"}, got)
}
