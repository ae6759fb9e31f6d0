package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultLrclibSearchURL = "https://lrclib.net/api/search"
	HTTPTimeoutSeconds     = 10

	DefaultPollInterval  = 1 * time.Second
	DefaultAdvanceTimeMs = 300
	DefaultContextLines  = 2
)

// DefaultBlacklist drops browsers and phone bridges that expose mpris but are
// rarely what the user is listening to.
var DefaultBlacklist = []string{"firefox", "mozilla", "chromium", "chrome", "kdeconnect"}

// DefaultSources is the provider priority order used when LYRIC_SOURCES is unset.
var DefaultSources = []string{"lrclib", "local"}

type Config struct {
	// Sources is the ordered list of enabled lyric providers.
	Sources []string
	// LrclibURL is the lrclib search endpoint.
	LrclibURL string
	// LocalLyricsDir is scanned by the local .lrc provider.
	LocalLyricsDir string

	// Blacklist patterns are matched case-insensitively against player
	// identity and bus name.
	Blacklist []string

	PollInterval  time.Duration
	AdvanceTimeMs int64
	ContextLines  int

	// ManualSwitch disables automatic active-player preemption; switching
	// then only happens through the explicit switch request path.
	ManualSwitch bool

	HideHeader bool
	NoCache    bool
	LogFile    string
	Debug      bool
}

// Load reads configuration from the environment. A .env file next to the
// binary and ~/.config/lyrsync/env are loaded first if present; real
// environment variables win over file entries.
func Load() *Config {
	loadEnvFiles()

	return &Config{
		Sources:        getEnvList("LYRIC_SOURCES", DefaultSources),
		LrclibURL:      getEnvOrDefault("LRCLIB_SEARCH_URL", DefaultLrclibSearchURL),
		LocalLyricsDir: getEnvOrDefault("LOCAL_LYRICS_DIR", defaultLyricsDir()),
		Blacklist:      getEnvList("PLAYER_BLACKLIST", DefaultBlacklist),
		PollInterval:   getEnvDuration("POLL_INTERVAL", DefaultPollInterval),
		AdvanceTimeMs:  getEnvInt64("LYRIC_ADVANCE_MS", DefaultAdvanceTimeMs),
		ContextLines:   int(getEnvInt64("CONTEXT_LINES", DefaultContextLines)),
		ManualSwitch:   getEnvBool("MANUAL_SWITCH", false),
		HideHeader:     getEnvBool("HIDE_HEADER", false),
		NoCache:        getEnvBool("NO_CACHE", false),
		LogFile:        getEnvOrDefault("LOG_FILE", ""),
		Debug:          getEnvBool("DEBUG", false),
	}
}

func loadEnvFiles() {
	// missing files are fine, godotenv only errors on unreadable content
	_ = godotenv.Load()

	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	_ = godotenv.Load(filepath.Join(home, ".config", "lyrsync", "env"))
}

func defaultLyricsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "lyrics"
	}
	return filepath.Join(home, ".config", "lyrsync", "lyrics")
}

func getEnvOrDefault(key string, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvList(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func getEnvInt64(key string, fallback int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func getEnvBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	return raw == "1" || raw == "true" || raw == "yes"
}
