package types

// Quality tiers parsed from release names.
const (
	Quality2160P   = "2160P"
	Quality1080P   = "1080P"
	Quality720P    = "720P"
	Quality480P    = "480P"
	QualityHDRip   = "HDRIP"
	QualityBluRay  = "BLURAY"
	QualityWEBRip  = "WEBRIP"
	QualityCAM     = "CAM"
	QualityUnknown = "UNKNOWN"
)

// Candidate is one discovered swarm entry for a title. It lives only for the
// duration of a single search call and is the JSON row returned by /search.
type Candidate struct {
	Name    string  `json:"name"`
	Magnet  string  `json:"magnet"`
	Seeds   int     `json:"seeds"`
	Leeches int     `json:"leeches"`
	Size    int64   `json:"size,omitempty"`
	Quality string  `json:"quality"`
	Ratio   float64 `json:"ratio"`

	// ContentID is the normalized info-hash extracted from the magnet,
	// the de-duplication key across providers and query variants.
	ContentID string `json:"-"`

	// Provider that produced the row, for debug logging only.
	Provider string `json:"-"`
}

// HealthRatio is seeds when there are no leeches, else seeds/leeches.
func HealthRatio(seeds, leeches int) float64 {
	if leeches == 0 {
		return float64(seeds)
	}
	return float64(seeds) / float64(leeches)
}
