package search

import (
	"log"
	"strconv"

	"peervod/pkg/types"
)

const seasonPackBytes = 20 << 30 // single episodes never weigh this much

// FilterParams carries the per-search inputs and the tunables whose values
// differ between code paths upstream (relaxed seed floor, year tolerance).
type FilterParams struct {
	Title   string
	Year    string // requested release year, "" when unknown
	Season  *int
	Episode *int

	MinSeedsEpisode int // strict floor for episode searches
	MinSeedsMovie   int // strict floor for movie searches
	RelaxedMinSeeds int // floor when the health filter is disabled
	YearTolerance   int // 0 = exact year required, 1 = ±1 accepted

	Debug bool
}

func (p FilterParams) isEpisode() bool { return p.Season != nil && p.Episode != nil }

func (p FilterParams) minSeeds() int {
	if p.isEpisode() {
		return p.MinSeedsEpisode
	}
	return p.MinSeedsMovie
}

// Enrich fills the derived fields every later stage relies on: content id,
// quality tier, and health ratio.
func Enrich(rows []types.Candidate) []types.Candidate {
	out := make([]types.Candidate, 0, len(rows))
	for _, r := range rows {
		if r.ContentID == "" {
			r.ContentID = ContentID(r.Magnet)
		}
		if q := QualityTier(r.Name); q != types.QualityUnknown || r.Quality == "" {
			r.Quality = q
		}
		r.Ratio = types.HealthRatio(r.Seeds, r.Leeches)
		out = append(out, r)
	}
	return out
}

// Filter applies the classification guards. With relaxed=false the minimum
// seed threshold is enforced; with relaxed=true it drops to RelaxedMinSeeds.
// CAM rows are rejected in both modes.
func Filter(rows []types.Candidate, p FilterParams, relaxed bool) []types.Candidate {
	isEp := p.isEpisode()
	out := make([]types.Candidate, 0, len(rows))
	for _, r := range rows {
		reason := rejectReason(r, p, isEp, relaxed)
		if p.Debug {
			if reason != "" {
				log.Printf("[filter] reject name=%q seeds=%d quality=%s reason=%s relaxed=%v",
					r.Name, r.Seeds, r.Quality, reason, relaxed)
			} else {
				log.Printf("[filter] keep name=%q seeds=%d quality=%s relaxed=%v",
					r.Name, r.Seeds, r.Quality, relaxed)
			}
		}
		if reason == "" {
			out = append(out, r)
		}
	}
	return out
}

func rejectReason(r types.Candidate, p FilterParams, isEp, relaxed bool) string {
	if r.Quality == types.QualityCAM {
		return "cam"
	}
	if relaxed {
		if r.Seeds <= p.RelaxedMinSeeds {
			return "no seeds"
		}
	} else if r.Seeds < p.minSeeds() {
		return "low seeds"
	}
	if HasForeignLanguageTag(r.Name) {
		return "non-english tag"
	}
	if isEp {
		if r.Size > seasonPackBytes {
			return "season pack size"
		}
		if !MatchesEpisode(r.Name, *p.Season, *p.Episode) {
			return "episode token mismatch"
		}
		if !TitleBeforeSeasonToken(r.Name, p.Title) {
			return "title after episode token"
		}
		return ""
	}
	// movie guards
	if !TitleAppearsEarly(r.Name, p.Title) {
		return "title appears late"
	}
	if HasEpisodeToken(r.Name) {
		return "episode token in movie search"
	}
	if p.Year != "" {
		if found, ok := YearInName(r.Name); ok {
			if want, err := strconv.Atoi(p.Year); err == nil && want > 0 {
				diff := found - want
				if diff < 0 {
					diff = -diff
				}
				if diff > p.YearTolerance {
					return "year mismatch"
				}
			}
		}
	}
	return ""
}

// FilterWithFallback runs the strict pass and, when it yields fewer than two
// rows, unions in a relaxed pass (health filter off). Strict rows win on
// duplicate content.
func FilterWithFallback(rows []types.Candidate, p FilterParams) []types.Candidate {
	strict := Filter(rows, p, false)
	if len(strict) >= 2 {
		return strict
	}
	if p.Debug {
		log.Printf("[filter] only %d rows after strict pass, retrying with relaxed seeds", len(strict))
	}
	relaxed := Filter(rows, p, true)

	out := make([]types.Candidate, 0, len(strict)+len(relaxed))
	seen := make(map[string]bool, len(strict))
	for _, r := range strict {
		seen[r.ContentID] = true
		out = append(out, r)
	}
	for _, r := range relaxed {
		if !seen[r.ContentID] {
			seen[r.ContentID] = true
			out = append(out, r)
		}
	}
	return out
}
