package search

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"peervod/pkg/types"
)

// Query is one provider lookup. Text is the composed query string most
// indexes take verbatim; Title and Year stay separate for indexes that
// filter on structured fields instead.
type Query struct {
	Text    string
	Title   string
	Year    string
	Episode bool
}

// Provider is one external torrent index. A provider that fails (timeout,
// non-2xx, malformed payload) contributes zero candidates; it never aborts
// the overall search.
type Provider interface {
	Name() string
	Search(ctx context.Context, q Query) ([]types.Candidate, error)
}

const fallbackTracker = "udp://tracker.openbittorrent.com:6969/announce"

func magnetFromHash(hash, name string) string {
	return "magnet:?xt=urn:btih:" + hash + "&dn=" + url.QueryEscape(name) + "&tr=" + url.QueryEscape(fallbackTracker)
}

// ---- apibay (Pirate Bay proxy) ----

type ApibayProvider struct {
	BaseURL string // e.g. https://apibay.org
	HTTP    *http.Client
}

func (p *ApibayProvider) Name() string { return "apibay" }

type apibayRow struct {
	Name     string `json:"name"`
	InfoHash string `json:"info_hash"`
	Seeders  string `json:"seeders"`
	Leechers string `json:"leechers"`
	Size     string `json:"size"`
}

func (p *ApibayProvider) Search(ctx context.Context, q Query) ([]types.Candidate, error) {
	u := fmt.Sprintf("%s/q.php?q=%s&cat=200,201", strings.TrimRight(p.BaseURL, "/"), url.QueryEscape(q.Text))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("apibay status %d", resp.StatusCode)
	}

	var rows []apibayRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, err
	}

	var out []types.Candidate
	for _, r := range rows {
		// apibay answers empty searches with a single all-zero-hash row
		if r.InfoHash == "" || strings.Trim(r.InfoHash, "0") == "" {
			continue
		}
		seeds, _ := strconv.Atoi(r.Seeders)
		leeches, _ := strconv.Atoi(r.Leechers)
		size, _ := strconv.ParseInt(r.Size, 10, 64)
		out = append(out, types.Candidate{
			Name:     r.Name,
			Magnet:   magnetFromHash(r.InfoHash, r.Name),
			Seeds:    seeds,
			Leeches:  leeches,
			Size:     size,
			Provider: p.Name(),
		})
	}
	return out, nil
}

// ---- YTS (movie-only) ----

type YTSProvider struct {
	BaseURL string // e.g. https://yts.mx
	HTTP    *http.Client
}

func (p *YTSProvider) Name() string { return "yts" }

type ytsResponse struct {
	Status string `json:"status"`
	Data   struct {
		Movies []struct {
			TitleLong string `json:"title_long"`
			Torrents  []struct {
				Hash      string `json:"hash"`
				Quality   string `json:"quality"`
				Seeds     int    `json:"seeds"`
				Peers     int    `json:"peers"`
				SizeBytes int64  `json:"size_bytes"`
			} `json:"torrents"`
		} `json:"movies"`
	} `json:"data"`
}

// Search filters on YTS's structured fields: the bare title as query_term
// and the year as its own parameter, never the composed query string.
func (p *YTSProvider) Search(ctx context.Context, q Query) ([]types.Candidate, error) {
	if q.Episode {
		return nil, nil
	}
	term := q.Title
	if term == "" {
		term = q.Text
	}
	v := url.Values{}
	v.Set("query_term", term)
	if q.Year != "" {
		v.Set("year", q.Year)
	}
	v.Set("limit", "40")
	u := strings.TrimRight(p.BaseURL, "/") + "/api/v2/list_movies.json?" + v.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yts status %d", resp.StatusCode)
	}

	var body ytsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if body.Status != "ok" {
		return nil, fmt.Errorf("yts status %q", body.Status)
	}

	var out []types.Candidate
	for _, movie := range body.Data.Movies {
		for _, t := range movie.Torrents {
			name := movie.TitleLong + " " + strings.ToUpper(t.Quality) + " [YTS]"
			out = append(out, types.Candidate{
				Name:     name,
				Magnet:   magnetFromHash(t.Hash, movie.TitleLong),
				Seeds:    t.Seeds,
				Leeches:  t.Peers,
				Size:     t.SizeBytes,
				Provider: p.Name(),
			})
		}
	}
	return out, nil
}

// ---- torznab aggregate (Prowlarr-style) ----

type TorznabProvider struct {
	BaseURL string // e.g. http://localhost:9696
	APIKey  string
	HTTP    *http.Client
}

func (p *TorznabProvider) Name() string { return "torznab" }

type torznabFeed struct {
	Channel struct {
		Items []struct {
			Title   string `xml:"title"`
			Link    string `xml:"link"`
			Size    int64  `xml:"size"`
			Seeders int    `xml:"seeders"`
			Peers   int    `xml:"peers"`
		} `xml:"item"`
	} `xml:"channel"`
}

func (p *TorznabProvider) Search(ctx context.Context, q Query) ([]types.Candidate, error) {
	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return nil, err
	}
	u.Path = "/api/v1/indexers/all/results/torznab/api"
	v := url.Values{}
	v.Set("apikey", p.APIKey)
	v.Set("t", "search")
	v.Set("q", q.Text)
	u.RawQuery = v.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("torznab status %d", resp.StatusCode)
	}

	var feed torznabFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, err
	}

	var out []types.Candidate
	for _, it := range feed.Channel.Items {
		if !strings.HasPrefix(strings.ToLower(it.Link), "magnet:") {
			continue
		}
		out = append(out, types.Candidate{
			Name:     it.Title,
			Magnet:   it.Link,
			Seeds:    it.Seeders,
			Leeches:  it.Peers,
			Size:     it.Size,
			Provider: p.Name(),
		})
	}
	return out, nil
}
