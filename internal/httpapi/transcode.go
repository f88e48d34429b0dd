package httpapi

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os/exec"
	"path/filepath"
	"strings"

	"peervod/internal/config"
	"peervod/internal/torrentx"
)

// Safari refuses everything but plain MP4 even when the server advertises
// another container, so its UA forces remuxing for non-mp4 files.
func isSafariUA(ua string) bool {
	ua = strings.ToLower(ua)
	return strings.Contains(ua, "safari") &&
		!strings.Contains(ua, "chrome") &&
		!strings.Contains(ua, "chromium") &&
		!strings.Contains(ua, "android")
}

// shouldTranscode decides between direct byte serving and the ffmpeg remux
// path. Forced requests always remux; otherwise only containers the client
// cannot play natively do.
func shouldTranscode(name string, forced bool, ua string) bool {
	if forced {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".mp4", ".webm":
		if ext == ".webm" && isSafariUA(ua) {
			return true
		}
		return false
	}
	return true
}

// ffmpegArgs builds the remux invocation: copy video, re-encode audio to
// AAC, emit fragmented MP4 so the stream plays without a trailing moov.
func ffmpegArgs(startSec int64) []string {
	args := []string{"-i", "pipe:0"}
	if startSec > 0 {
		args = append(args, "-ss", fmt.Sprintf("%d", startSec))
	}
	args = append(args,
		"-c:v", "copy",
		"-c:a", "aac",
		"-f", "mp4",
		"-movflags", "frag_keyframe+empty_moov",
		"pipe:1",
	)
	return args
}

// ffmpegBinary resolves the configured ffmpeg, "" when unavailable.
func ffmpegBinary() string {
	path := config.FFmpegPath()
	if path == "" {
		path = "ffmpeg"
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return ""
	}
	return resolved
}

// serveTranscode remuxes the reader through ffmpeg into a chunked 200
// response. Range headers do not apply here; seeking is the start parameter.
// All process and pipe teardown happens on every exit path.
func serveTranscode(w http.ResponseWriter, r *http.Request, bin string, rd io.Reader, startSec int64, touch func()) {
	cmd := exec.CommandContext(r.Context(), bin, ffmpegArgs(startSec)...)
	cmd.Stdin = rd

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		http.Error(w, "transcode setup: "+err.Error(), http.StatusInternalServerError)
		return
	}
	cmd.Stderr = io.Discard

	if err := cmd.Start(); err != nil {
		http.Error(w, "transcode start: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer func() {
		stdout.Close()
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		_ = cmd.Wait()
	}()

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Cache-Control", "no-store")
	// no Content-Length: fragmented output, chunked transfer

	rc := http.NewResponseController(w)
	buf := make([]byte, 256<<10)
	for {
		select {
		case <-r.Context().Done():
			return
		default:
		}

		n, readErr := stdout.Read(buf)
		if n > 0 {
			if touch != nil {
				touch()
			}
			if _, err := w.Write(buf[:n]); err != nil {
				if !torrentx.ClientGone(err) {
					log.Printf("[transcode] client write error: %v", err)
				}
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
		if readErr != nil {
			if readErr != io.EOF && !torrentx.ClientGone(readErr) {
				log.Printf("[transcode] read error: %v", readErr)
			}
			return
		}
	}
}
