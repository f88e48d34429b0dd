package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	cacheDir     = "./peervod-cache"
	listenAddr   = ":4001"
	waitMetadata = 25 * time.Second
	trackersMode = "udp" // all|http|udp|none

	idleTimeout = 2 * time.Minute
	wipeHour    = 3
	wipeTZ      = "Europe/London"

	searchLimit     = 20
	providerTimeout = 20 * time.Second
	tpbProxy        = "https://apibay.org"
	ytsURL          = "https://yts.mx"
	torznabURL      = ""
	torznabAPIKey   = ""

	minSeedsEpisode = 5
	minSeedsMovie   = 20
	relaxedMinSeeds = 0
	yearTolerance   = 0

	ffmpegPath = "ffmpeg"

	streamDebug = false

	// logging
	logFilePath   = ""
	logAllowRegex = `^\[(init|boot|http|search|filter|stream|session|retention|purge|progress|transcode|trackers)\]`
	logDenyRegex  = `FlushFileBuffers|fsync|Permission denied`
	logDedupWin   = 3 * time.Second
)

func Load() {
	if v := getenv("CACHE_DIR", ""); v != "" {
		cacheDir = v
	}
	_ = os.MkdirAll(cacheDir, 0o755)

	listenAddr = getenv("LISTEN", listenAddr)
	waitMetadata = getenvDuration("WAIT_METADATA", waitMetadata)
	trackersMode = strings.ToLower(getenv("TRACKERS_MODE", trackersMode))

	idleTimeout = getenvDuration("IDLE_TIMEOUT", idleTimeout)
	wipeHour = getenvInt("WIPE_HOUR", wipeHour)
	wipeTZ = getenv("WIPE_TZ", wipeTZ)

	searchLimit = getenvInt("SEARCH_LIMIT", searchLimit)
	providerTimeout = getenvDuration("PROVIDER_TIMEOUT", providerTimeout)
	tpbProxy = getenv("TPB_PROXY", tpbProxy)
	ytsURL = getenv("YTS_URL", ytsURL)
	torznabURL = getenv("TORZNAB_URL", torznabURL)
	torznabAPIKey = getenv("TORZNAB_API_KEY", torznabAPIKey)

	minSeedsEpisode = getenvInt("MIN_SEEDS_EPISODE", minSeedsEpisode)
	minSeedsMovie = getenvInt("MIN_SEEDS_MOVIE", minSeedsMovie)
	relaxedMinSeeds = getenvInt("RELAXED_MIN_SEEDS", relaxedMinSeeds)
	yearTolerance = getenvInt("YEAR_TOLERANCE", yearTolerance)

	ffmpegPath = getenv("FFMPEG_PATH", ffmpegPath)

	streamDebug = getenv("STREAM_DEBUG", "") == "1"

	logFilePath = getenv("LOG_FILE", logFilePath)
	logAllowRegex = getenv("LOG_ALLOW", logAllowRegex)
	logDenyRegex = getenv("LOG_DENY", logDenyRegex)
	logDedupWin = getenvDuration("LOG_DEDUP_WINDOW", logDedupWin)
}

// getters
func CacheDir() string               { return cacheDir }
func ListenAddr() string             { return listenAddr }
func WaitMetadata() time.Duration    { return waitMetadata }
func TrackersMode() string           { return trackersMode }
func IdleTimeout() time.Duration     { return idleTimeout }
func WipeHour() int                  { return wipeHour }
func WipeTZ() string                 { return wipeTZ }
func SearchLimit() int               { return searchLimit }
func ProviderTimeout() time.Duration { return providerTimeout }
func TPBProxy() string               { return tpbProxy }
func YTSURL() string                 { return ytsURL }
func TorznabURL() string             { return torznabURL }
func TorznabAPIKey() string          { return torznabAPIKey }
func MinSeedsEpisode() int           { return minSeedsEpisode }
func MinSeedsMovie() int             { return minSeedsMovie }
func RelaxedMinSeeds() int           { return relaxedMinSeeds }
func YearTolerance() int             { return yearTolerance }
func FFmpegPath() string             { return ffmpegPath }
func StreamDebug() bool              { return streamDebug }
func LogFilePath() string            { return logFilePath }
func LogAllowRegex() string          { return logAllowRegex }
func LogDenyRegex() string           { return logDenyRegex }
func LogDedupWindow() time.Duration  { return logDedupWin }

// helpers
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
func getenvDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
