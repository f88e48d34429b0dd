package httpapi

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseByteRange(t *testing.T) {
	const size = int64(5000)
	tests := []struct {
		header     string
		start, end int64
		ok         bool
	}{
		{"bytes=0-499", 0, 499, true},
		{"bytes=1000-1999", 1000, 1999, true},
		{"bytes=4500-", 4500, 4999, true},
		{"bytes=-500", 4500, 4999, true},
		{"bytes=-9999", 0, 4999, true}, // suffix longer than the file
		{"bytes=0-99999", 0, 4999, true},
		{"BYTES=0-499", 0, 499, true},
		{"bytes=5000-", 0, 0, false}, // start past the end
		{"bytes=200-100", 0, 0, false},
		{"bytes=abc-def", 0, 0, false},
		{"bytes=0-499,600-700", 0, 0, false}, // multi-range unsupported
		{"items=0-499", 0, 0, false},
		{"bytes=-0", 0, 0, false},
		{"bytes=", 0, 0, false},
	}
	for _, tt := range tests {
		start, end, ok := parseByteRange(tt.header, size)
		assert.Equal(t, tt.ok, ok, tt.header)
		if tt.ok {
			assert.Equal(t, tt.start, start, tt.header)
			assert.Equal(t, tt.end, end, tt.header)
		}
	}
}

func TestServeRangePartialContent(t *testing.T) {
	data := make([]byte, 5000)
	for i := range data {
		data[i] = byte(i % 251)
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/stream?magnet=x", nil)
	serveRange(w, r, bytes.NewReader(data), int64(len(data)), "video.mp4", 1000, 1999, true, nil)

	resp := w.Result()
	assert.Equal(t, 206, resp.StatusCode)
	assert.Equal(t, "bytes 1000-1999/5000", resp.Header.Get("Content-Range"))
	assert.Equal(t, "1000", resp.Header.Get("Content-Length"))
	assert.Equal(t, "bytes", resp.Header.Get("Accept-Ranges"))
	assert.Equal(t, "video/mp4", resp.Header.Get("Content-Type"))

	body := w.Body.Bytes()
	require.Len(t, body, 1000)
	assert.Equal(t, data[1000:2000], body)
}

// bytes=0- from a <video> element spans the whole file but must still be
// answered 206 with a Content-Range, or players treat the server as
// non-seekable.
func TestServeRangeWholeFileRangeIsPartial(t *testing.T) {
	data := make([]byte, 5000)

	start, end, ok := parseByteRange("bytes=0-", int64(len(data)))
	require.True(t, ok)
	assert.Equal(t, int64(0), start)
	assert.Equal(t, int64(4999), end)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/stream?magnet=x", nil)
	serveRange(w, r, bytes.NewReader(data), int64(len(data)), "video.mp4", start, end, true, nil)

	resp := w.Result()
	assert.Equal(t, 206, resp.StatusCode)
	assert.Equal(t, "bytes 0-4999/5000", resp.Header.Get("Content-Range"))
	assert.Equal(t, "5000", resp.Header.Get("Content-Length"))
	assert.Len(t, w.Body.Bytes(), 5000)
}

func TestServeRangeFullFile(t *testing.T) {
	data := []byte("0123456789")

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/stream?magnet=x", nil)
	serveRange(w, r, bytes.NewReader(data), int64(len(data)), "video.mkv", 0, int64(len(data))-1, false, nil)

	resp := w.Result()
	assert.Equal(t, 200, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Content-Range"))
	assert.Equal(t, "10", resp.Header.Get("Content-Length"))
	assert.Equal(t, "video/x-matroska", resp.Header.Get("Content-Type"))
	assert.Equal(t, data, w.Body.Bytes())
}

func TestSafeDownloadName(t *testing.T) {
	assert.Equal(t, "plain.mp4", safeDownloadName("plain.mp4"))
	assert.Equal(t, "a_b.mp4", safeDownloadName(`a"b.mp4`))
	assert.Equal(t, "video", safeDownloadName(""))
}
