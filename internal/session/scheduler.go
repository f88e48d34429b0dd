package session

import (
	"log"
	"path/filepath"
	"sort"
	"strings"

	"github.com/anacrolix/torrent"
)

const (
	headBytes           = 4 << 20 // container header availability
	tailBytes           = 1 << 20 // MP4 moov atom often trails the file
	criticalWindowBytes = 2 << 20 // forward window after a direct-mode seek

	// Transcode-mode prefetch: with no parsed duration we assume a nominal
	// one-hour video to map a seconds offset onto bytes.
	nominalDurationSec   = 3600
	transcodePrefetchSec = 60
)

// containerPriority orders video containers by how likely a browser is to
// play them natively. Unknown extensions sort last.
var containerPriority = []string{".mp4", ".webm", ".mkv", ".avi"}

func containerRank(name string) int {
	ext := strings.ToLower(filepath.Ext(name))
	for i, e := range containerPriority {
		if ext == e {
			return i
		}
	}
	return len(containerPriority)
}

func isVideoFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4", ".mkv", ".webm", ".avi":
		return true
	}
	return false
}

// SelectVideoFile picks the file to stream: video extensions only, best
// container first, then the largest.
func SelectVideoFile(t *torrent.Torrent) (*torrent.File, int) {
	type entry struct {
		f   *torrent.File
		idx int
	}
	var video []entry
	for i, f := range t.Files() {
		if isVideoFile(f.Path()) {
			video = append(video, entry{f, i})
		}
	}
	if len(video) == 0 {
		return nil, -1
	}
	sort.SliceStable(video, func(i, j int) bool {
		ri, rj := containerRank(video[i].f.Path()), containerRank(video[j].f.Path())
		if ri != rj {
			return ri < rj
		}
		return video[i].f.Length() > video[j].f.Length()
	})
	return video[0].f, video[0].idx
}

// pieceSpan maps a file-relative byte range onto global piece indices.
func pieceSpan(fileOffset, pieceLen, start, end int64) (int, int) {
	if pieceLen <= 0 || end < start {
		return 0, -1
	}
	return int((fileOffset + start) / pieceLen), int((fileOffset + end) / pieceLen)
}

// clampWindow bounds [start, start+span) to the file length, inclusive end.
func clampWindow(start, span, fileLen int64) (int64, int64) {
	if start < 0 {
		start = 0
	}
	if start > fileLen-1 {
		start = fileLen - 1
	}
	end := start + span
	if end > fileLen-1 {
		end = fileLen - 1
	}
	return start, end
}

// transcodeWindow estimates the byte window worth prefetching for a
// transcoded stream starting at startSec.
func transcodeWindow(fileLen, startSec int64) (int64, int64) {
	bytesPerSec := fileLen / nominalDurationSec
	if bytesPerSec <= 0 {
		bytesPerSec = 1
	}
	return clampWindow(bytesPerSec*startSec, bytesPerSec*transcodePrefetchSec, fileLen)
}

func (s *Session) markPieces(start, end int64, prio torrent.PiecePriority) {
	info := s.t.Info()
	if info == nil || s.file == nil {
		return
	}
	begin, last := pieceSpan(s.file.Offset(), info.PieceLength, start, end)
	for i := begin; i <= last && i < s.t.NumPieces(); i++ {
		s.t.Piece(i).SetPriority(prio)
	}
}

// PreselectHeadTail prioritizes the first 4 MiB and last 1 MiB of the chosen
// file so playback can start before the bulk arrives.
func (s *Session) PreselectHeadTail() {
	if s.file == nil {
		return
	}
	n := s.file.Length()
	if n <= 0 {
		return
	}
	headEnd := int64(headBytes)
	if headEnd > n-1 {
		headEnd = n - 1
	}
	tailStart := n - tailBytes
	if tailStart < 0 {
		tailStart = 0
	}
	s.markPieces(0, headEnd, torrent.PiecePriorityNow)
	s.markPieces(tailStart, n-1, torrent.PiecePriorityNow)
}

// ClearPriorities drops every piece priority of the torrent so the download
// queue carries no stale work.
func (s *Session) ClearPriorities() {
	if s.t.Info() == nil {
		return
	}
	for _, f := range s.t.Files() {
		f.SetPriority(torrent.PiecePriorityNone)
	}
}

// MarkCriticalWindow focuses the swarm on the bytes right after a seek
// target. Earlier priorities are cleared first so previous seek targets do
// not compete for bandwidth.
func (s *Session) MarkCriticalWindow(start int64) {
	if s.file == nil || s.t.Info() == nil {
		return
	}
	s.ClearPriorities()
	begin, end := clampWindow(start, criticalWindowBytes, s.file.Length())
	s.markPieces(begin, end, torrent.PiecePriorityNow)
	log.Printf("[stream] critical window bytes=%d-%d ih=%s", begin, end, s.contentID)
}

// MarkTranscodeWindow prefetches around a seconds-based seek target for
// transcoded playback, where the client cannot issue byte ranges.
func (s *Session) MarkTranscodeWindow(startSec int64) {
	if s.file == nil || s.t.Info() == nil {
		return
	}
	if startSec < 0 {
		startSec = 0
	}
	s.ClearPriorities()
	begin, end := transcodeWindow(s.file.Length(), startSec)
	s.markPieces(begin, end, torrent.PiecePriorityNow)
	log.Printf("[stream] transcode prefetch bytes=%d-%d startSec=%d ih=%s", begin, end, startSec, s.contentID)
}

// ContiguousBytesAhead walks pieces from a file offset and reports how many
// bytes are already complete without a gap, for status reporting.
func (s *Session) ContiguousBytesAhead(from int64) int64 {
	info := s.t.Info()
	if info == nil || s.file == nil {
		return 0
	}
	fileLen := s.file.Length()
	if from >= fileLen {
		return 0
	}
	pieceLen := info.PieceLength
	if pieceLen <= 0 {
		return 0
	}

	globalStart := s.file.Offset() + from
	globalEnd := s.file.Offset() + fileLen

	startPiece := int(globalStart / pieceLen)
	pieceOff := globalStart % pieceLen

	if s.t.PieceBytesMissing(startPiece) != 0 {
		return 0
	}

	var ahead int64
	segEnd := (int64(startPiece) + 1) * pieceLen
	if segEnd > globalEnd {
		segEnd = globalEnd
	}
	ahead += segEnd - (int64(startPiece)*pieceLen + pieceOff)

	for p := startPiece + 1; int64(p)*pieceLen < globalEnd; p++ {
		if s.t.PieceBytesMissing(p) != 0 {
			break
		}
		ps := int64(p) * pieceLen
		pe := ps + pieceLen
		if pe > globalEnd {
			pe = globalEnd
		}
		ahead += pe - ps
	}
	return ahead
}
