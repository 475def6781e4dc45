package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// APIBaseURL is the sync gateway's REST root, e.g. http://localhost:3001.
	// Empty means no network actions are possible.
	APIBaseURL string

	// WSURL is the realtime endpoint; derived from APIBaseURL when unset.
	WSURL string

	// SessionPath overrides where the credential file lives.
	SessionPath string

	// RequestTimeout caps every gateway request.
	RequestTimeout time.Duration
}

func Load() Config {
	api := getEnv("POS_API_URL", "")
	return Config{
		APIBaseURL:     api,
		WSURL:          getEnv("POS_WS_URL", deriveWSURL(api)),
		SessionPath:    getEnv("POS_SESSION_PATH", ""),
		RequestTimeout: time.Duration(getEnvInt("POS_REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
	}
}

// deriveWSURL swaps the scheme of the API base URL and appends the
// realtime path.
func deriveWSURL(apiBase string) string {
	if apiBase == "" {
		return ""
	}
	ws := apiBase
	switch {
	case strings.HasPrefix(ws, "https://"):
		ws = "wss://" + strings.TrimPrefix(ws, "https://")
	case strings.HasPrefix(ws, "http://"):
		ws = "ws://" + strings.TrimPrefix(ws, "http://")
	}
	return strings.TrimRight(ws, "/") + "/ws/orders"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
