package search

import (
	"regexp"
	"strings"

	"peervod/pkg/types"
)

var btihRe = regexp.MustCompile(`(?i)btih:([a-fA-F0-9]{32,40})`)

// ContentID extracts the normalized info-hash token from a magnet-style
// locator. When no hash is present the raw locator itself is the key.
func ContentID(magnet string) string {
	if m := btihRe.FindStringSubmatch(magnet); m != nil {
		return strings.ToUpper(m[1])
	}
	return magnet
}

// Dedup collapses rows sharing a content id, keeping the highest-seed copy.
// Output order follows first appearance, so the pass is idempotent and
// deterministic.
func Dedup(rows []types.Candidate) []types.Candidate {
	out := make([]types.Candidate, 0, len(rows))
	index := make(map[string]int, len(rows))
	for _, r := range rows {
		if r.Magnet == "" {
			continue
		}
		if r.ContentID == "" {
			r.ContentID = ContentID(r.Magnet)
		}
		if i, ok := index[r.ContentID]; ok {
			if r.Seeds > out[i].Seeds {
				out[i] = r
			}
			continue
		}
		index[r.ContentID] = len(out)
		out = append(out, r)
	}
	return out
}
