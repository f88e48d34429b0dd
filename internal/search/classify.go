package search

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"peervod/pkg/types"
)

// Pure release-name heuristics. Torrent names are noisy and occasionally
// adversarial (swapped titles, leaked TV results, season packs), so every
// check here works on tokens rather than raw substring hits.

var qualityRe = regexp.MustCompile(`(?i)(2160p|4K|1080p|720p|480p|HDRIP|BLURAY|WEBRIP|CAM)`)

// QualityTier classifies a display name into a coarse quality tier.
func QualityTier(name string) string {
	m := qualityRe.FindStringSubmatch(name)
	if m == nil {
		return types.QualityUnknown
	}
	q := strings.ToUpper(m[1])
	if q == "4K" {
		return types.Quality2160P
	}
	return q
}

var nonEnglishRe = regexp.MustCompile(`(?i)\b(?:FRENCH|FRENCHSUB|SUBFRENCH|VOSTFR|MULTI|SPANISH|LATINO|CASTELLANO|ESPANOL|PORTUGUESE|PORTUGUES|HINDI|HUN|DUTCH|GERMAN|DEUTSCH|ITALIAN|ITA|KOREAN|JAPANESE|RUSSIAN|TURKISH|NORWEGIAN|SWEDISH|NORDIC|FINNISH|POLISH|DANISH)\b`)

// HasForeignLanguageTag reports an explicit non-English language/region
// marker in the name.
func HasForeignLanguageTag(name string) bool {
	return nonEnglishRe.MatchString(name)
}

// episodeTokenRe detects anything episode-shaped, used to keep leaked TV
// results out of movie searches.
var episodeTokenRe = regexp.MustCompile(`(?i)(?:S\d{1,2}[\s._-]*E\d{1,2}|\d{1,2}[xX]\d{1,2}|Season[\s._-]*\d{1,2}[\s._-]*Episode)`)

func HasEpisodeToken(name string) bool {
	return episodeTokenRe.MatchString(name)
}

// yearTokenRe captures a standalone 4-digit year (1900-2099); the word
// boundaries keep 1080p and similar tokens out.
var yearTokenRe = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)

// YearInName returns the first standalone year token, if any.
func YearInName(name string) (int, bool) {
	m := yearTokenRe.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	y, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return y, true
}

// MatchesEpisode reports whether the name explicitly carries the requested
// season/episode in one of the conventional forms: S01E02, 1x02,
// "Season 1 Episode 2", or a compact 0102 bounded by non-digits. A trailing
// digit or hyphen after the episode number rejects multi-episode ranges
// like E02-03.
func MatchesEpisode(name string, season, episode int) bool {
	if name == "" {
		return false
	}
	s := strconv.Itoa(season)
	e := strconv.Itoa(episode)
	sp := fmt.Sprintf("%02d", season)
	ep := fmt.Sprintf("%02d", episode)

	// RE2 has no lookahead; "(?:[^\d-]|$)" is the equivalent guard here.
	patterns := []string{
		fmt.Sprintf(`(?i)S0?%s[\s._-]*E0?%s(?:[^\d-]|$)`, s, e),
		fmt.Sprintf(`(?i)%s[\s._-]*[xX][\s._-]*0?%s(?:[^\d-]|$)`, s, e),
		fmt.Sprintf(`(?i)Season[\s._-]+0?%s[\s._-]+Episode[\s._-]+0?%s\b`, s, e),
		fmt.Sprintf(`(?:\A|[^\d])%s%s(?:[^\d]|\z)`, sp, ep),
	}
	for _, p := range patterns {
		if regexp.MustCompile(p).MatchString(name) {
			return true
		}
	}
	return false
}

// release-group prefixes like "[TGx]" or "[YTS]" that precede the real name
var groupPrefixRe = regexp.MustCompile(`^(\[[^\]]+\][\s._-]*)+`)

var sepRe = regexp.MustCompile(`[\s._-]+`)

func tokenize(name string) []string {
	stripped := groupPrefixRe.ReplaceAllString(name, "")
	var tokens []string
	for _, t := range sepRe.Split(stripped, -1) {
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]`)

func normToken(s string) string {
	return nonAlnumRe.ReplaceAllString(strings.ToLower(s), "")
}

func titleTokens(title string) []string {
	var out []string
	for _, t := range strings.Fields(strings.ToLower(title)) {
		if n := normToken(t); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// findTitleIndex locates where the title tokens appear consecutively inside
// the name tokens; -1 when absent.
func findTitleIndex(tokens, title []string) int {
	if len(title) == 0 {
		return -1
	}
	for i := 0; i <= len(tokens)-len(title); i++ {
		match := true
		for j := range title {
			if normToken(tokens[i+j]) != title[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

var seasonIndicatorRe = regexp.MustCompile(`(?i)^(s\d{1,2}e\d{1,2}|\d{1,2}x\d{1,2})$`)

// TitleBeforeSeasonToken guards episode searches against swapped-title false
// positives: the series title tokens must appear before the first
// season/episode indicator token.
func TitleBeforeSeasonToken(name, title string) bool {
	if name == "" {
		return false
	}
	tokens := tokenize(name)
	titleIdx := findTitleIndex(tokens, titleTokens(title))
	if titleIdx == -1 {
		return false
	}
	for i, t := range tokens {
		if seasonIndicatorRe.MatchString(t) {
			return titleIdx < i
		}
	}
	return true
}

// TitleAppearsEarly guards movie searches against trailing-title mismatches:
// the title tokens must start within the first few tokens once release-group
// prefixes are stripped.
func TitleAppearsEarly(name, title string) bool {
	if name == "" {
		return false
	}
	idx := findTitleIndex(tokenize(name), titleTokens(title))
	return idx >= 0 && idx <= 2
}
