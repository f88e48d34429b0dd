package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anacrolix/torrent"
	"golang.org/x/sync/singleflight"

	"peervod/internal/torrentx"
)

// State tracks a session through its lifecycle. At most one session is
// Streaming at any time; acquiring a session demotes every other one to Idle
// without touching its on-disk data.
type State string

const (
	StateAdded           State = "added"
	StateMetadataPending State = "metadata-pending"
	StateReady           State = "ready"
	StateStreaming       State = "streaming"
	StateIdle            State = "idle"
	StateRetired         State = "retired"
)

var (
	ErrNoPlayableFile  = errors.New("no playable video file in torrent")
	ErrMetadataTimeout = errors.New("timed out waiting for torrent metadata")
)

// Session is one swarm download bound to a content id.
type Session struct {
	mu         sync.Mutex
	contentID  string
	t          *torrent.Torrent
	file       *torrent.File
	fileIndex  int
	state      State
	lastActive time.Time

	// speed sampling for the progress endpoint
	sampleAt    time.Time
	sampleBytes int64
}

func (s *Session) ContentID() string         { return s.contentID }
func (s *Session) Torrent() *torrent.Torrent { return s.t }
func (s *Session) File() *torrent.File       { return s.file }
func (s *Session) FileIndex() int            { return s.fileIndex }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

// Progress is the health snapshot served by /progress.
type Progress struct {
	Progress     float64 `json:"progress"`
	FileProgress float64 `json:"fileProgress"`
	Speed        float64 `json:"speed"`
	Peers        int     `json:"peers"`
	ETA          float64 `json:"eta"`
}

// ProgressSnapshot samples completion and derives speed from the byte delta
// since the previous call.
func (s *Session) ProgressSnapshot() Progress {
	var p Progress
	p.Peers = s.t.Stats().ActivePeers
	if s.t.Info() == nil {
		return p
	}
	completed := s.t.BytesCompleted()
	total := s.t.Length()
	if total > 0 {
		p.Progress = float64(completed) / float64(total)
	}
	if s.file != nil && s.file.Length() > 0 {
		p.FileProgress = float64(s.file.BytesCompleted()) / float64(s.file.Length())
	}

	now := time.Now()
	s.mu.Lock()
	if !s.sampleAt.IsZero() {
		if dt := now.Sub(s.sampleAt).Seconds(); dt > 0 && completed >= s.sampleBytes {
			p.Speed = float64(completed-s.sampleBytes) / dt
		}
	}
	s.sampleAt = now
	s.sampleBytes = completed
	s.mu.Unlock()

	if p.Speed > 0 {
		p.ETA = float64(total-completed) / p.Speed
	}
	return p
}

// Registry owns the swarm client and every live session. It is an injectable
// service; all cross-session invariants (single active stream, idle
// demotion) live here.
type Registry struct {
	mu       sync.Mutex
	client   *torrent.Client
	dataDir  string
	sessions map[string]*Session

	sf           singleflight.Group
	retention    *Retention
	waitMetadata time.Duration
}

func NewRegistry(dataDir string, waitMetadata, idleTimeout time.Duration) (*Registry, error) {
	cl, err := torrentx.NewClient(dataDir)
	if err != nil {
		return nil, fmt.Errorf("swarm client init: %w", err)
	}
	r := &Registry{
		client:       cl,
		dataDir:      dataDir,
		sessions:     make(map[string]*Session),
		waitMetadata: waitMetadata,
	}
	r.retention = NewRetention(idleTimeout, r.idleOut)
	return r, nil
}

func (r *Registry) Retention() *Retention { return r.retention }

// Acquire returns the session for the locator, creating and registering it
// on first use. Concurrent acquires for the same content id collapse into
// one; waiting for metadata never blocks requests about other sessions.
// Every other session is demoted to Idle with its piece selection cleared;
// its files stay on disk.
func (r *Registry) Acquire(ctx context.Context, locator string) (*Session, error) {
	magnet, ih, err := torrentx.NormalizeLocator(locator)
	if err != nil {
		return nil, err
	}
	key := strings.ToUpper(ih.HexString())

	v, err, _ := r.sf.Do(key, func() (any, error) {
		return r.acquire(ctx, key, magnet)
	})
	if err != nil {
		return nil, err
	}
	s := v.(*Session)
	r.promote(s)
	return s, nil
}

func (r *Registry) acquire(ctx context.Context, key, magnet string) (*Session, error) {
	r.mu.Lock()
	if s, ok := r.sessions[key]; ok {
		r.mu.Unlock()
		return s, nil
	}
	r.mu.Unlock()

	udp, httpc, httpsc, other := torrentx.CountTrackers(magnet)
	log.Printf("[trackers] ih=%s udp=%d http=%d https=%d other=%d", key, udp, httpc, httpsc, other)

	t, err := torrentx.AddOrGetTorrent(r.client, magnet)
	if err != nil {
		return nil, fmt.Errorf("add torrent: %w", err)
	}
	s := &Session{contentID: key, t: t, state: StateMetadataPending, lastActive: time.Now()}

	wctx := ctx
	if r.waitMetadata > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(ctx, r.waitMetadata)
		defer cancel()
	}
	metaStart := time.Now()
	if err := torrentx.WaitForInfo(wctx, t); err != nil {
		log.Printf("[session] metadata timeout ih=%s after %s", key, time.Since(metaStart).Truncate(time.Millisecond))
		t.Drop()
		return nil, ErrMetadataTimeout
	}

	file, idx := SelectVideoFile(t)
	if file == nil {
		log.Printf("[session] no playable file ih=%s name=%q files=%d", key, t.Name(), len(t.Files()))
		return nil, ErrNoPlayableFile
	}
	s.file, s.fileIndex = file, idx
	s.setState(StateReady)
	s.PreselectHeadTail()

	r.mu.Lock()
	r.sessions[key] = s
	r.mu.Unlock()

	log.Printf("[session] ready ih=%s name=%q file=%q size=%d metadataMs=%d",
		key, t.Name(), file.Path(), file.Length(), time.Since(metaStart).Milliseconds())
	return s, nil
}

// promote makes s the single actively-streaming session. Others lose their
// piece selection and get an idle-retirement timer, data intact.
func (r *Registry) promote(s *Session) {
	r.mu.Lock()
	var demoted []*Session
	for id, other := range r.sessions {
		if id != s.contentID && other.State() != StateIdle {
			demoted = append(demoted, other)
		}
	}
	r.mu.Unlock()

	for _, other := range demoted {
		other.ClearPriorities()
		other.setState(StateIdle)
		r.retention.Schedule(other.contentID)
		log.Printf("[session] demoted ih=%s (data retained)", other.contentID)
	}

	r.retention.Cancel(s.contentID)
	s.setState(StateStreaming)
	s.Touch()
}

// Release is called when a stream response closes: the session keeps its
// data but an idle-retirement timer starts ticking.
func (r *Registry) Release(s *Session) {
	if s.State() == StateStreaming {
		s.setState(StateReady)
	}
	s.Touch()
	r.retention.Schedule(s.contentID)
}

// idleOut fires from the retention timer: drop the piece selection so peers
// disconnect, but keep the files for a possible resume.
func (r *Registry) idleOut(contentID string) {
	r.mu.Lock()
	s, ok := r.sessions[contentID]
	r.mu.Unlock()
	if !ok || s.State() == StateStreaming {
		return
	}
	s.ClearPriorities()
	s.setState(StateIdle)
	log.Printf("[retention] idled ih=%s (files kept)", contentID)
}

// Lookup finds an existing session without creating one.
func (r *Registry) Lookup(locator string) (*Session, bool) {
	_, ih, err := torrentx.NormalizeLocator(locator)
	if err != nil {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[strings.ToUpper(ih.HexString())]
	return s, ok
}

// Sessions returns a stable-ordered copy for status reporting.
func (r *Registry) Sessions() []*Session {
	r.mu.Lock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].contentID < out[j].contentID })
	return out
}

// PurgeAll force-destroys every session and deletes the cache contents.
// This and the daily wipe are the only paths that free disk space.
func (r *Registry) PurgeAll() {
	r.retention.CancelAll()

	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for id, s := range sessions {
		s.setState(StateRetired)
		s.t.Drop()
		log.Printf("[purge] dropped ih=%s", id)
	}
	// anacrolix Drop leaves the data files behind; remove them explicitly
	entries, err := os.ReadDir(r.dataDir)
	if err != nil {
		log.Printf("[purge] read cache dir: %v", err)
		return
	}
	var removed int
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(r.dataDir, e.Name())); err != nil {
			log.Printf("[purge] remove %s: %v", e.Name(), err)
			continue
		}
		removed++
	}
	log.Printf("[purge] cache cleared (%d entries removed)", removed)
}

func (r *Registry) DataDir() string { return r.dataDir }

func (r *Registry) Close() {
	r.retention.CancelAll()
	r.client.Close()
}
