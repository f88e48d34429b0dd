package httpapi

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"peervod/internal/torrentx"
)

// parseByteRange parses a single-range Range header against a known size.
// ok=false covers malformed specs, multi-range requests, and out-of-bounds
// starts; callers answer those with 416.
func parseByteRange(header string, size int64) (start, end int64, ok bool) {
	h := strings.ToLower(strings.TrimSpace(header))
	if !strings.HasPrefix(h, "bytes=") || size <= 0 {
		return 0, 0, false
	}
	spec := strings.TrimPrefix(h, "bytes=")
	if strings.Contains(spec, ",") {
		return 0, 0, false
	}
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}

	if parts[0] == "" {
		// suffix form: last N bytes
		n, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || n <= 0 {
			return 0, 0, false
		}
		if n > size {
			n = size
		}
		return size - n, size - 1, true
	}

	s, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || s < 0 || s >= size {
		return 0, 0, false
	}
	e := size - 1
	if parts[1] != "" {
		v, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || v < s {
			return 0, 0, false
		}
		if v < e {
			e = v
		}
	}
	return s, e, true
}

func safeDownloadName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '"', '\\', '\n', '\r':
			return '_'
		}
		return r
	}, name)
	if name == "" {
		return "video"
	}
	return name
}

// serveRange writes [start, end] of rd, flushing each chunk so playback
// starts before the copy finishes. Any request that carried a Range header
// answers 206 with Content-Range, even when the span covers the whole file;
// only the no-header path answers 200. touch is called while bytes flow to
// keep the session active.
func serveRange(w http.ResponseWriter, r *http.Request, rd io.ReadSeeker, size int64, name string, start, end int64, partial bool, touch func()) {
	if _, err := rd.Seek(start, io.SeekStart); err != nil {
		http.Error(w, "seek error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	length := end - start + 1

	w.Header().Set("Content-Type", torrentx.ContentTypeForName(name))
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", safeDownloadName(filepath.Base(name))))
	w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
	if partial {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
		w.WriteHeader(http.StatusPartialContent)
	}

	rc := http.NewResponseController(w)
	buf := make([]byte, 256<<10)
	var written int64

	for written < length {
		select {
		case <-r.Context().Done():
			return
		default:
		}

		toRead := int64(len(buf))
		if rem := length - written; rem < toRead {
			toRead = rem
		}
		n, readErr := rd.Read(buf[:toRead])

		if n > 0 {
			if touch != nil {
				touch()
			}
			if _, err := w.Write(buf[:n]); err != nil {
				if !torrentx.ClientGone(err) {
					log.Printf("[stream] client write error: %v", err)
				}
				return
			}
			if err := rc.Flush(); err != nil {
				if !torrentx.ClientGone(err) {
					log.Printf("[stream] flush error: %v", err)
				}
				return
			}
			written += int64(n)
		}

		if readErr != nil {
			if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
				return
			}
			if torrentx.ClientGone(readErr) {
				return
			}
			// transient swarm stall, let pieces arrive
			time.Sleep(200 * time.Millisecond)
		}
	}
}
