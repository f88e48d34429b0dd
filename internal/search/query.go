package search

import (
	"fmt"
	"strings"
)

// BuildQueries returns provider query strings ordered from most to least
// specific. Season/episode forms come first, then title+year, then the bare
// title as a last resort.
func BuildQueries(title, year string, season, episode *int) []string {
	base := strings.TrimSpace(title)
	var queries []string

	if season != nil && episode != nil {
		queries = append(queries,
			fmt.Sprintf("%s S%02dE%02d", base, *season, *episode),
			fmt.Sprintf("%s %dx%d", base, *season, *episode),
			fmt.Sprintf("%s Season %d Episode %d", base, *season, *episode),
		)
	}
	if year != "" {
		queries = append(queries, base+" "+year)
	}
	queries = append(queries, base)
	return queries
}
