package torrentx

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/anacrolix/torrent"
	"github.com/anacrolix/torrent/metainfo"

	"peervod/internal/config"
)

// extra trackers appended to magnets to speed up peer discovery
var extraHTTP = []string{
	"http://tracker.opentrackr.org:1337/announce",
	"https://tracker.opentrackr.org:443/announce",
}
var extraUDP = []string{
	"udp://tracker.opentrackr.org:1337/announce",
	"udp://open.stealth.si:80/announce",
	"udp://tracker.torrent.eu.org:451/announce",
	"udp://exodus.desync.com:6969/announce",
}

func BuildTrackerTiers() [][]string {
	var tiers [][]string
	switch strings.ToLower(config.TrackersMode()) {
	case "none":
		return tiers
	case "http":
		for _, s := range extraHTTP {
			tiers = append(tiers, []string{s})
		}
	case "udp":
		for _, s := range extraUDP {
			tiers = append(tiers, []string{s})
		}
	default: // "all"
		for _, s := range extraHTTP {
			tiers = append(tiers, []string{s})
		}
		for _, s := range extraUDP {
			tiers = append(tiers, []string{s})
		}
	}
	return tiers
}

// NewClient builds the single swarm client rooted at dataDir.
func NewClient(dataDir string) (*torrent.Client, error) {
	_ = os.MkdirAll(dataDir, 0o755)
	cfg := torrent.NewDefaultClientConfig()
	cfg.DataDir = dataDir
	cfg.DisableTCP = false
	cfg.DisableUTP = true
	cfg.Seed = false
	cfg.NoUpload = false
	return torrent.NewClient(cfg)
}

// NormalizeLocator accepts a magnet URI or a bare info-hash (40-char hex or
// 32-char base32) and returns the magnet to register plus the parsed hash.
func NormalizeLocator(locator string) (string, metainfo.Hash, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return "", metainfo.Hash{}, errors.New("empty locator")
	}
	if strings.HasPrefix(locator, "magnet:") {
		m, err := metainfo.ParseMagnetURI(locator)
		if err != nil || m.InfoHash == (metainfo.Hash{}) {
			return "", metainfo.Hash{}, fmt.Errorf("bad magnet: %v", err)
		}
		return sanitizeMagnet(locator), m.InfoHash, nil
	}
	if len(locator) == 40 && isHexString(locator) {
		h := metainfo.NewHashFromHex(strings.ToLower(locator))
		return sanitizeMagnet("magnet:?xt=urn:btih:" + strings.ToUpper(locator)), h, nil
	}
	if len(locator) == 32 && isBase32String(locator) {
		raw := "magnet:?xt=urn:btih:" + strings.ToUpper(locator)
		m, err := metainfo.ParseMagnetURI(raw)
		if err != nil || m.InfoHash == (metainfo.Hash{}) {
			return "", metainfo.Hash{}, fmt.Errorf("bad base32 hash: %v", err)
		}
		return sanitizeMagnet(raw), m.InfoHash, nil
	}
	return "", metainfo.Hash{}, fmt.Errorf("unrecognized locator: %q", locator)
}

func isHexString(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F'))
	}) == -1
}

func isBase32String(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '2' && r <= '7'))
	}) == -1
}

func sanitizeMagnet(raw string) string {
	if !strings.HasPrefix(raw, "magnet:") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	mode := strings.ToLower(strings.TrimSpace(config.TrackersMode()))
	if mode == "" {
		mode = "udp"
	}
	orig := q["tr"]
	q.Del("tr")
	keep := func(tr string) bool {
		trL := strings.ToLower(tr)
		switch mode {
		case "udp":
			return strings.HasPrefix(trL, "udp://")
		case "none":
			return false
		default:
			return true
		}
	}
	for _, tr := range orig {
		if keep(tr) {
			q.Add("tr", tr)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func CountTrackers(raw string) (udp, http, https, other int) {
	u, err := url.Parse(raw)
	if err != nil {
		return
	}
	for _, tr := range u.Query()["tr"] {
		trL := strings.ToLower(tr)
		switch {
		case strings.HasPrefix(trL, "udp://"):
			udp++
		case strings.HasPrefix(trL, "http://"):
			http++
		case strings.HasPrefix(trL, "https://"):
			https++
		default:
			other++
		}
	}
	return
}

// AddOrGetTorrent reuses an already-registered torrent for the magnet's hash.
func AddOrGetTorrent(cl *torrent.Client, magnet string) (*torrent.Torrent, error) {
	if m, err := metainfo.ParseMagnetURI(magnet); err == nil && m.InfoHash != (metainfo.Hash{}) {
		if t, ok := cl.Torrent(m.InfoHash); ok {
			return t, nil
		}
	}
	t, err := cl.AddMagnet(magnet)
	if err != nil {
		return nil, err
	}
	if tiers := BuildTrackerTiers(); len(tiers) != 0 {
		t.AddTrackers(tiers)
	}
	return t, nil
}

func WaitForInfo(ctx context.Context, t *torrent.Torrent) error {
	select {
	case <-t.GotInfo():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// mimeByExt covers the containers we stream; stdlib mime fills in the rest.
var mimeByExt = map[string]string{
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
}

func ContentTypeForName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := mimeByExt[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func DirSize(root string) int64 {
	var total int64
	_ = filepath.Walk(root, func(_ string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total
}

// ClientGone reports whether err is a disconnect-class error: the peer went
// away and nothing useful can be written to the response anymore.
func ClientGone(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, os.ErrClosed) {
		return true
	}
	s := err.Error()
	if strings.Contains(s, "broken pipe") ||
		strings.Contains(s, "reset by peer") ||
		strings.Contains(s, "premature") ||
		strings.Contains(s, "file already closed") {
		return true
	}
	return false
}
