package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Cache modes: db serves through the persistent store, passthrough calls
// providers on every request and never touches the store.
const (
	CacheModeDB          = "db"
	CacheModePassthrough = "passthrough"
)

type AppConfig struct {
	OpenWeatherAPIKey string
	NewsAPIKey        string

	// DBPath locates the sqlite database file.
	DBPath string

	// CacheMode selects db-backed caching or the degraded passthrough mode.
	CacheMode string

	// HTTPTimeout is the outbound transport timeout; UpstreamTimeout is the
	// per-call deadline the orchestrators impose on provider fetches.
	HTTPTimeout     time.Duration
	UpstreamTimeout time.Duration

	// Inbound rate limiting, per client and route.
	RateLimitMax    int
	RateLimitWindow time.Duration

	// Prewarm settings: 0 interval disables the scheduler.
	PrewarmInterval time.Duration
	PrewarmCities   []string

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.NewsAPIKey = os.Getenv("NEWSAPI_KEY")
	if cfg.NewsAPIKey == "" {
		cfg.NewsAPIKey = os.Getenv("NEWS_API_KEY")
	}

	cfg.DBPath = getenvDefault("DB_PATH", "data/intellidash.db")

	cfg.CacheMode = getenvDefault("CACHE_MODE", CacheModeDB)
	if cfg.CacheMode != CacheModeDB && cfg.CacheMode != CacheModePassthrough {
		return nil, fmt.Errorf("invalid CACHE_MODE %q: want %q or %q", cfg.CacheMode, CacheModeDB, CacheModePassthrough)
	}

	httpTimeout, err := getenvDuration("HTTP_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	cfg.HTTPTimeout = httpTimeout

	upstreamTimeout, err := getenvDuration("UPSTREAM_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cfg.UpstreamTimeout = upstreamTimeout

	cfg.RateLimitMax = getenvInt("RATE_LIMIT_MAX", 60)

	rateWindow, err := getenvDuration("RATE_LIMIT_WINDOW", "1m")
	if err != nil {
		return nil, err
	}
	cfg.RateLimitWindow = rateWindow

	prewarm, err := getenvDuration("PREWARM_INTERVAL", "0s")
	if err != nil {
		return nil, err
	}
	cfg.PrewarmInterval = prewarm
	cfg.PrewarmCities = splitList(os.Getenv("PREWARM_CITIES"))

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
