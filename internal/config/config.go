package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mr1hm/go-club-map/internal/links"
)

type Config struct {
	Server  ServerConfig
	Worker  WorkerConfig
	Dataset DatasetConfig
	DB      DatabaseConfig
	Map     MapConfig
	Links   LinksConfig
	Session SessionConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host          string
	Port          int
	RateLimitRPS  int
	ShutdownGrace time.Duration
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

// DatasetConfig picks the club table source. URL wins over Path; with
// neither set the embedded table is used.
type DatasetConfig struct {
	Path         string
	URL          string
	FetchTimeout time.Duration
}

type DatabaseConfig struct {
	Path string
}

type MapConfig struct {
	CenterLat           float64
	CenterLng           float64
	Zoom                int
	RecenterZoom        int
	RecenterDuration    time.Duration
	NarrowViewportWidth int
}

type LinksConfig struct {
	SearchURL    string
	SearchPhrase string
}

type SessionConfig struct {
	TTL time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:          getEnv("SERVER_HOST", "localhost"),
			Port:          getEnvInt("SERVER_PORT", 8080),
			RateLimitRPS:  getEnvInt("RATE_LIMIT_RPS", 20),
			ShutdownGrace: getEnvDuration("SHUTDOWN_GRACE", 10*time.Second),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 2),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 20),
		},
		Dataset: DatasetConfig{
			Path:         getEnv("DATASET_PATH", ""),
			URL:          getEnv("DATASET_URL", ""),
			FetchTimeout: getEnvDuration("DATASET_FETCH_TIMEOUT", 15*time.Second),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/club-map.db"),
		},
		Map: MapConfig{
			CenterLat:           getEnvFloat("MAP_CENTER_LAT", 34.81),
			CenterLng:           getEnvFloat("MAP_CENTER_LNG", 135.36),
			Zoom:                getEnvInt("MAP_ZOOM", 13),
			RecenterZoom:        getEnvInt("MAP_RECENTER_ZOOM", 16),
			RecenterDuration:    getEnvDuration("MAP_RECENTER_DURATION", 1200*time.Millisecond),
			NarrowViewportWidth: getEnvInt("NARROW_VIEWPORT_WIDTH", 768),
		},
		Links: LinksConfig{
			SearchURL:    getEnv("LINK_SEARCH_URL", links.DefaultSearchURL),
			SearchPhrase: getEnv("LINK_SEARCH_PHRASE", links.DefaultSearchPhrase),
		},
		Session: SessionConfig{
			TTL: getEnvDuration("SESSION_TTL", 30*time.Minute),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimitRPS < 1 {
		return fmt.Errorf("rate limit must be at least 1 request per second")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Worker.Count < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}
	if c.Worker.BufferSize < 0 {
		return fmt.Errorf("worker buffer size must not be negative")
	}

	if c.Map.CenterLat < -90 || c.Map.CenterLat > 90 {
		return fmt.Errorf("invalid map center latitude: %v", c.Map.CenterLat)
	}
	if c.Map.CenterLng < -180 || c.Map.CenterLng > 180 {
		return fmt.Errorf("invalid map center longitude: %v", c.Map.CenterLng)
	}
	for name, z := range map[string]int{"map zoom": c.Map.Zoom, "recenter zoom": c.Map.RecenterZoom} {
		if z < 0 || z > 20 {
			return fmt.Errorf("invalid %s: %d", name, z)
		}
	}
	if c.Map.NarrowViewportWidth < 0 {
		return fmt.Errorf("narrow viewport width must not be negative")
	}

	if c.Session.TTL < time.Minute {
		return fmt.Errorf("session TTL must be at least 1 minute")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
