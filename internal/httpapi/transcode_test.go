package httpapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	safariUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15"
	chromeUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
)

func TestIsSafariUA(t *testing.T) {
	assert.True(t, isSafariUA(safariUA))
	// Chrome advertises Safari in its UA but is not Safari
	assert.False(t, isSafariUA(chromeUA))
	assert.False(t, isSafariUA("VLC/3.0.20 LibVLC/3.0.20"))
}

func TestShouldTranscode(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		forced bool
		ua     string
		want   bool
	}{
		{"mp4 plays natively", "movie.mp4", false, chromeUA, false},
		{"webm plays in chrome", "movie.webm", false, chromeUA, false},
		{"webm remuxed for safari", "movie.webm", false, safariUA, true},
		{"mkv always remuxed", "movie.mkv", false, chromeUA, true},
		{"avi always remuxed", "movie.avi", false, chromeUA, true},
		{"forced overrides container", "movie.mp4", true, chromeUA, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldTranscode(tt.file, tt.forced, tt.ua))
		})
	}
}

func TestFFmpegArgs(t *testing.T) {
	assert.Equal(t, []string{
		"-i", "pipe:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-f", "mp4",
		"-movflags", "frag_keyframe+empty_moov",
		"pipe:1",
	}, ffmpegArgs(0))

	assert.Equal(t, []string{
		"-i", "pipe:0",
		"-ss", "90",
		"-c:v", "copy",
		"-c:a", "aac",
		"-f", "mp4",
		"-movflags", "frag_keyframe+empty_moov",
		"pipe:1",
	}, ffmpegArgs(90))
}
