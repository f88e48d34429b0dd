package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPieceSpan(t *testing.T) {
	tests := []struct {
		name       string
		fileOffset int64
		pieceLen   int64
		start, end int64
		wantBegin  int
		wantLast   int
	}{
		{"file at torrent start", 0, 1 << 20, 0, (4 << 20) - 1, 0, 3},
		{"offset pushes into later pieces", 3 << 20, 1 << 20, 0, (1 << 20) - 1, 3, 3},
		{"window straddles a piece boundary", 0, 1 << 20, (1 << 20) - 1, 1 << 20, 0, 1},
		{"single byte", 512, 1 << 20, 100, 100, 0, 0},
		{"zero piece length is inert", 0, 0, 0, 100, 0, -1},
		{"inverted window is inert", 0, 1 << 20, 100, 50, 0, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			begin, last := pieceSpan(tt.fileOffset, tt.pieceLen, tt.start, tt.end)
			assert.Equal(t, tt.wantBegin, begin)
			assert.Equal(t, tt.wantLast, last)
		})
	}
}

func TestClampWindow(t *testing.T) {
	fileLen := int64(10 << 20)

	start, end := clampWindow(0, 2<<20, fileLen)
	assert.Equal(t, int64(0), start)
	assert.Equal(t, int64(2<<20), end)

	// window runs past the end of the file
	start, end = clampWindow(fileLen-100, 2<<20, fileLen)
	assert.Equal(t, fileLen-100, start)
	assert.Equal(t, fileLen-1, end)

	// start past the end snaps to the last byte
	start, end = clampWindow(fileLen+5, 2<<20, fileLen)
	assert.Equal(t, fileLen-1, start)
	assert.Equal(t, fileLen-1, end)

	// negative start snaps to zero
	start, _ = clampWindow(-5, 1<<20, fileLen)
	assert.Equal(t, int64(0), start)
}

func TestTranscodeWindow(t *testing.T) {
	fileLen := int64(3600 << 20) // 1 MiB per nominal second

	start, end := transcodeWindow(fileLen, 0)
	assert.Equal(t, int64(0), start)
	assert.Equal(t, int64(60<<20), end)

	start, end = transcodeWindow(fileLen, 600)
	assert.Equal(t, int64(600<<20), start)
	assert.Equal(t, int64(660<<20), end)

	// seek near the end clamps to the file
	start, end = transcodeWindow(fileLen, 3599)
	assert.Equal(t, int64(3599<<20), start)
	assert.Equal(t, fileLen-1, end)

	// tiny file never divides to zero bytes per second
	start, end = transcodeWindow(100, 50)
	assert.Equal(t, int64(50), start)
	assert.Equal(t, int64(99), end)
}

func TestContainerRank(t *testing.T) {
	assert.Less(t, containerRank("Movie.mp4"), containerRank("Movie.webm"))
	assert.Less(t, containerRank("Movie.webm"), containerRank("Movie.mkv"))
	assert.Less(t, containerRank("Movie.mkv"), containerRank("Movie.avi"))
	assert.Less(t, containerRank("Movie.avi"), containerRank("Movie.iso"))
	// case-insensitive
	assert.Equal(t, containerRank("UPPER.MP4"), containerRank("lower.mp4"))
}

func TestIsVideoFile(t *testing.T) {
	assert.True(t, isVideoFile("Show/Season 1/ep.mkv"))
	assert.True(t, isVideoFile("movie.MP4"))
	assert.False(t, isVideoFile("sample.nfo"))
	assert.False(t, isVideoFile("subs/english.srt"))
	assert.False(t, isVideoFile("movie.exe"))
}
