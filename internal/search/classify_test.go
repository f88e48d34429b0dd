package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"peervod/pkg/types"
)

func TestQualityTier(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Dune.Part.Two.2024.2160p.WEB-DL", types.Quality2160P},
		{"Dune Part Two 4K HDR", types.Quality2160P},
		{"Oppenheimer.2023.1080p.BluRay.x264", types.Quality1080P},
		{"Oppenheimer.2023.720p.WEBRip", types.Quality720P},
		{"Old.Movie.480p.DVDRip", types.Quality480P},
		{"Some.Movie.HDRip.XviD", types.QualityHDRip},
		{"New.Release.CAM.720p", types.QualityCAM},
		{"Mystery File x264", types.QualityUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, QualityTier(tt.name), tt.name)
	}
}

func TestHasForeignLanguageTag(t *testing.T) {
	assert.True(t, HasForeignLanguageTag("Le.Film.2023.FRENCH.1080p"))
	assert.True(t, HasForeignLanguageTag("Show S01E02 VOSTFR 720p"))
	assert.True(t, HasForeignLanguageTag("Movie.2023.MULTI.1080p"))
	assert.False(t, HasForeignLanguageTag("Plain Movie 2023 1080p WEB"))
	// substring inside a longer word must not trigger
	assert.False(t, HasForeignLanguageTag("Multiverse of Madness 1080p"))
}

func TestMatchesEpisode(t *testing.T) {
	tests := []struct {
		name    string
		season  int
		episode int
		want    bool
	}{
		{"Breaking Bad S01E02 720p WEB", 1, 2, true},
		{"Breaking Bad s1e2 x264", 1, 2, true},
		{"Breaking Bad 1x02 HDTV", 1, 2, true},
		{"Breaking Bad Season 1 Episode 2", 1, 2, true},
		{"Breaking.Bad.S01.E02.1080p", 1, 2, true},
		{"Breaking Bad 0102 HDTV", 1, 2, true},
		{"Breaking Bad S01E03 720p", 1, 2, false},
		{"Breaking Bad S02E02 720p", 1, 2, false},
		// multi-episode ranges are not a single-episode match
		{"Breaking Bad S01E02-03 720p", 1, 2, false},
		{"Breaking Bad S01 Complete 1080p", 1, 2, false},
		{"", 1, 2, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchesEpisode(tt.name, tt.season, tt.episode), tt.name)
	}
}

func TestHasEpisodeToken(t *testing.T) {
	assert.True(t, HasEpisodeToken("Show S01E02 1080p"))
	assert.True(t, HasEpisodeToken("Show 3x07 HDTV"))
	assert.True(t, HasEpisodeToken("Show Season 2 Episode 4"))
	assert.False(t, HasEpisodeToken("Plain Movie 2023 1080p"))
}

func TestYearInName(t *testing.T) {
	y, ok := YearInName("Heat.1995.1080p.BluRay")
	assert.True(t, ok)
	assert.Equal(t, 1995, y)

	// resolution tokens are not years
	_, ok = YearInName("Show 1080p 2160p WEBRip")
	assert.False(t, ok)
}

func TestTitleAppearsEarly(t *testing.T) {
	assert.True(t, TitleAppearsEarly("The Matrix 1999 1080p BluRay", "The Matrix"))
	assert.True(t, TitleAppearsEarly("[TGx] The Matrix 1999 1080p", "The Matrix"))
	assert.True(t, TitleAppearsEarly("The.Matrix.1999.1080p", "The Matrix"))
	assert.False(t, TitleAppearsEarly("Making Of Something The Matrix Documentary", "The Matrix"))
	assert.False(t, TitleAppearsEarly("Totally Different Movie 1999", "The Matrix"))
}

func TestTitleBeforeSeasonToken(t *testing.T) {
	assert.True(t, TitleBeforeSeasonToken("Breaking Bad S01E02 720p", "Breaking Bad"))
	assert.True(t, TitleBeforeSeasonToken("Breaking.Bad.1x02.HDTV", "Breaking Bad"))
	// swapped order: episode marker before the series title
	assert.False(t, TitleBeforeSeasonToken("S01E02 Breaking Bad 720p", "Breaking Bad"))
	assert.False(t, TitleBeforeSeasonToken("Other Show S01E02 720p", "Breaking Bad"))
}
