package search

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"peervod/internal/config"
	"peervod/pkg/types"
)

// Engine fans a search out over every enabled provider, then funnels the raw
// rows through dedup, classification, and ranking.
type Engine struct {
	Providers      []Provider // consulted for every search
	MovieProviders []Provider // consulted only when no season/episode is given
	Limit          int
	Timeout        time.Duration // per provider call
}

// NewEngineFromConfig wires up the provider set from the environment.
func NewEngineFromConfig() *Engine {
	httpClient := &http.Client{Timeout: config.ProviderTimeout()}
	e := &Engine{
		Providers: []Provider{
			&ApibayProvider{BaseURL: config.TPBProxy(), HTTP: httpClient},
		},
		MovieProviders: []Provider{
			&YTSProvider{BaseURL: config.YTSURL(), HTTP: httpClient},
		},
		Limit:   config.SearchLimit(),
		Timeout: config.ProviderTimeout(),
	}
	if u := config.TorznabURL(); u != "" {
		e.Providers = append(e.Providers, &TorznabProvider{
			BaseURL: u,
			APIKey:  config.TorznabAPIKey(),
			HTTP:    httpClient,
		})
	}
	return e
}

// Search runs the full pipeline for one title. Provider failures are
// swallowed; the worst case is an empty result list.
func (e *Engine) Search(ctx context.Context, title, year string, season, episode *int) []types.Candidate {
	limit := e.Limit
	if limit <= 0 {
		limit = 20
	}
	isEp := season != nil && episode != nil

	raw := e.gather(ctx, title, year, BuildQueries(title, year, season, episode), isEp, limit)

	params := FilterParams{
		Title:           title,
		Year:            year,
		Season:          season,
		Episode:         episode,
		MinSeedsEpisode: config.MinSeedsEpisode(),
		MinSeedsMovie:   config.MinSeedsMovie(),
		RelaxedMinSeeds: config.RelaxedMinSeeds(),
		YearTolerance:   config.YearTolerance(),
		Debug:           config.StreamDebug(),
	}

	enriched := Enrich(Dedup(raw))
	survivors := FilterWithFallback(enriched, params)
	ranked := Rank(survivors, limit)
	log.Printf("[search] title=%q episode=%v raw=%d deduped=%d survivors=%d ranked=%d",
		title, isEp, len(raw), len(enriched), len(survivors), len(ranked))
	return ranked
}

// gather issues the query strings in order, all providers in parallel per
// query, and stops early once enough raw rows have accumulated. Movie-only
// providers filter on title/year fields rather than the query text, so they
// are consulted once, alongside the first query.
func (e *Engine) gather(ctx context.Context, title, year string, queries []string, isEp bool, limit int) []types.Candidate {
	var (
		mu  sync.Mutex
		raw []types.Candidate
	)
	for i, qs := range queries {
		providers := e.Providers
		if !isEp && i == 0 {
			providers = append(append([]Provider{}, providers...), e.MovieProviders...)
		}
		q := Query{Text: qs, Title: title, Year: year, Episode: isEp}

		g, gctx := errgroup.WithContext(ctx)
		for _, p := range providers {
			p := p
			g.Go(func() error {
				pctx := gctx
				if e.Timeout > 0 {
					var cancel context.CancelFunc
					pctx, cancel = context.WithTimeout(gctx, e.Timeout)
					defer cancel()
				}
				rows, err := p.Search(pctx, q)
				if err != nil {
					log.Printf("[search] provider=%s query=%q error: %v", p.Name(), q.Text, err)
					return nil // provider failures contribute zero candidates
				}
				mu.Lock()
				raw = append(raw, rows...)
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()

		mu.Lock()
		n := len(raw)
		mu.Unlock()
		if n >= 3*limit {
			break
		}
	}
	return raw
}
