package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"peervod/internal/middleware"
	"peervod/internal/search"
	"peervod/internal/session"
	"peervod/internal/torrentx"
	"peervod/pkg/types"
)

// readahead for the torrent reader feeding a response
const criticalReadahead = 8 << 20

// API wires the search engine and the session registry onto the HTTP
// surface. It holds no state of its own beyond the start time.
type API struct {
	Registry *session.Registry
	Engine   *search.Engine
	Start    time.Time
}

func New(reg *session.Registry, eng *search.Engine) *API {
	return &API{Registry: reg, Engine: eng, Start: time.Now()}
}

func (a *API) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", a.handleSearch)
	mux.HandleFunc("/stream", a.handleStream)
	mux.HandleFunc("/progress", a.handleProgress)
	mux.HandleFunc("/purge", a.handlePurge)
	mux.HandleFunc("/stats", a.handleStats)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return middleware.Recover(a.cors(mux))
}

func (a *API) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.EnableCORS(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func intParam(r *http.Request, key string) *int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

func (a *API) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	title := strings.TrimSpace(q.Get("title"))
	if title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}
	year := strings.TrimSpace(q.Get("year"))
	season := intParam(r, "season")
	episode := intParam(r, "episode")

	eng := a.Engine
	if lim := intParam(r, "limit"); lim != nil && *lim > 0 {
		scoped := *eng
		scoped.Limit = *lim
		eng = &scoped
	}

	results := eng.Search(r.Context(), title, year, season, episode)
	if results == nil {
		results = []types.Candidate{}
	}
	writeJSON(w, results)
}

// locatorParam accepts either magnet= or locator= so both full magnet URIs
// and bare info-hashes work.
func locatorParam(r *http.Request) string {
	if m := strings.TrimSpace(r.URL.Query().Get("magnet")); m != "" {
		return m
	}
	return strings.TrimSpace(r.URL.Query().Get("locator"))
}

func (a *API) handleStream(w http.ResponseWriter, r *http.Request) {
	locator := locatorParam(r)
	if locator == "" {
		http.Error(w, "magnet or locator is required", http.StatusBadRequest)
		return
	}

	s, err := a.Registry.Acquire(r.Context(), locator)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrMetadataTimeout):
			http.Error(w, "metadata timeout", http.StatusGatewayTimeout)
		case errors.Is(err, session.ErrNoPlayableFile):
			http.Error(w, "no playable file in torrent", http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}
	defer a.Registry.Release(s)

	f := s.File()
	size := f.Length()
	name := f.Path()

	forced := false
	switch strings.ToLower(r.URL.Query().Get("transcode")) {
	case "1", "true", "yes":
		forced = true
	}
	var startSec int64
	if v := r.URL.Query().Get("start"); v != "" {
		startSec, _ = strconv.ParseInt(v, 10, 64)
		if startSec < 0 {
			startSec = 0
		}
	}

	if shouldTranscode(name, forced, r.UserAgent()) {
		if bin := ffmpegBinary(); bin != "" {
			s.MarkTranscodeWindow(startSec)
			reader := f.NewReader()
			defer reader.Close()
			reader.SetResponsive()
			reader.SetReadahead(criticalReadahead)
			log.Printf("[transcode] ih=%s file=%q startSec=%d", s.ContentID(), name, startSec)
			serveTranscode(w, r, bin, reader, startSec, s.Touch)
			return
		}
		log.Printf("[transcode] warn: ffmpeg not found, serving raw bytes for %q", name)
	}

	start, end := int64(0), size-1
	partial := false
	if rh := r.Header.Get("Range"); rh != "" {
		var ok bool
		start, end, ok = parseByteRange(rh, size)
		if !ok {
			w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
			http.Error(w, "invalid range", http.StatusRequestedRangeNotSatisfiable)
			return
		}
		partial = true
		s.MarkCriticalWindow(start)
	}

	reader := f.NewReader()
	defer reader.Close()
	reader.SetResponsive()
	reader.SetReadahead(criticalReadahead)

	w.Header().Set("X-Buffered-Ahead", strconv.FormatInt(s.ContiguousBytesAhead(start), 10))
	log.Printf("[stream] ih=%s file=%q range=%d-%d/%d", s.ContentID(), name, start, end, size)
	serveRange(w, r, reader, size, name, start, end, partial, s.Touch)
}

func (a *API) handleProgress(w http.ResponseWriter, r *http.Request) {
	locator := locatorParam(r)
	if locator == "" {
		http.Error(w, "magnet or locator is required", http.StatusBadRequest)
		return
	}
	s, ok := a.Registry.Lookup(locator)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	writeJSON(w, s.ProgressSnapshot())
}

func (a *API) handlePurge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	log.Printf("[purge] requested via http")
	a.Registry.PurgeAll()
	writeJSON(w, map[string]any{"ok": true})
}

type sessionStat struct {
	ContentID  string  `json:"contentId"`
	State      string  `json:"state"`
	Name       string  `json:"name"`
	File       string  `json:"file"`
	Progress   float64 `json:"progress"`
	Peers      int     `json:"peers"`
	LastActive string  `json:"lastActive"`
	SizeBytes  int64   `json:"sizeBytes"`
}

type statsResp struct {
	UptimeSeconds int64         `json:"uptimeSeconds"`
	CacheDir      string        `json:"cacheDir"`
	CacheBytes    int64         `json:"cacheBytes"`
	Sessions      []sessionStat `json:"sessions"`
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResp{
		UptimeSeconds: int64(time.Since(a.Start).Seconds()),
		CacheDir:      a.Registry.DataDir(),
		CacheBytes:    torrentx.DirSize(a.Registry.DataDir()),
		Sessions:      []sessionStat{},
	}
	for _, s := range a.Registry.Sessions() {
		t := s.Torrent()
		row := sessionStat{
			ContentID:  s.ContentID(),
			State:      string(s.State()),
			Peers:      t.Stats().ActivePeers,
			LastActive: s.LastActive().Format(time.RFC3339),
		}
		if t.Info() != nil {
			row.Name = t.Name()
			row.SizeBytes = t.Length()
			if t.Length() > 0 {
				row.Progress = float64(t.BytesCompleted()) / float64(t.Length())
			}
		}
		if f := s.File(); f != nil {
			row.File = f.Path()
		}
		resp.Sessions = append(resp.Sessions, row)
	}
	writeJSON(w, resp)
}
