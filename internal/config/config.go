// Package config loads service configuration in layers: built-in defaults,
// then an optional YAML file, then ANIMEHUB_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	// PathEnvVar overrides the config file location.
	PathEnvVar = "CONFIG_PATH"
	envPrefix  = "ANIMEHUB_"
)

var DefaultPaths = []string{"config.yaml", "config.yml"}

var (
	ErrMissingJWTSecret = errors.New("auth.jwt_secret is required")
	ErrMissingDBPath    = errors.New("database.path is required")
	ErrInvalidBatchSize = errors.New("hydrate.batch_size must be at least 1")
	ErrMissingBaseURL   = errors.New("catalog base urls are required")
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Jikan    JikanConfig    `koanf:"jikan"`
	AniList  AniListConfig  `koanf:"anilist"`
	TMDB     TMDBConfig     `koanf:"tmdb"`
	Hydrate  HydrateConfig  `koanf:"hydrate"`
	Logging  LoggingConfig  `koanf:"logging"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	SyncAddr        string        `koanf:"sync_addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	TrustedProxies  []string      `koanf:"trusted_proxies"`
}

type DatabaseConfig struct {
	Path string `koanf:"path"`
}

type AuthConfig struct {
	JWTSecret   string        `koanf:"jwt_secret"`
	JWTIssuer   string        `koanf:"jwt_issuer"`
	JWTDuration time.Duration `koanf:"jwt_duration"`
}

type JikanConfig struct {
	BaseURL       string        `koanf:"base_url"`
	Timeout       time.Duration `koanf:"timeout"`
	RatePerSecond float64       `koanf:"rate_per_second"`
}

type AniListConfig struct {
	Endpoint string        `koanf:"endpoint"`
	Timeout  time.Duration `koanf:"timeout"`
}

type TMDBConfig struct {
	BaseURL  string        `koanf:"base_url"`
	APIKey   string        `koanf:"api_key"`
	Language string        `koanf:"language"`
	Timeout  time.Duration `koanf:"timeout"`
	// ShareMatch resolves the title once per detail request instead of once
	// per enrichment lookup.
	ShareMatch bool `koanf:"share_match"`
}

type HydrateConfig struct {
	BatchSize int           `koanf:"batch_size"`
	Delay     time.Duration `koanf:"delay"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, ".animehub", "data.db")
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			SyncAddr:        ":7070",
			ShutdownTimeout: 10 * time.Second,
			TrustedProxies:  []string{"127.0.0.1"},
		},
		Database: DatabaseConfig{Path: defaultDBPath()},
		Auth: AuthConfig{
			// dev default (change for deployment)
			JWTSecret:   "dev-secret-change-me",
			JWTIssuer:   "animehub",
			JWTDuration: 24 * time.Hour,
		},
		Jikan: JikanConfig{
			BaseURL:       "https://api.jikan.moe/v4",
			Timeout:       12 * time.Second,
			RatePerSecond: 3,
		},
		AniList: AniListConfig{
			Endpoint: "https://graphql.anilist.co",
			Timeout:  10 * time.Second,
		},
		TMDB: TMDBConfig{
			BaseURL:  "https://api.themoviedb.org/3",
			Language: "pt-BR",
			Timeout:  10 * time.Second,
		},
		Hydrate: HydrateConfig{
			BatchSize: 5,
			Delay:     500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration: defaults < file < environment.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	if v, ok := k.Get("server.trusted_proxies").(string); ok {
		if err := k.Set("server.trusted_proxies", splitList(v)); err != nil {
			return nil, fmt.Errorf("set trusted proxies: %w", err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return ErrMissingJWTSecret
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return ErrMissingDBPath
	}
	if c.Hydrate.BatchSize < 1 {
		return ErrInvalidBatchSize
	}
	if c.Jikan.BaseURL == "" || c.AniList.Endpoint == "" || c.TMDB.BaseURL == "" {
		return ErrMissingBaseURL
	}
	return nil
}

func findFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// short aliases kept from the old env-only setup
var envAliases = map[string]string{
	"db_path":       "database.path",
	"jwt_secret":    "auth.jwt_secret",
	"jwt_issuer":    "auth.jwt_issuer",
	"jwt_ttl":       "auth.jwt_duration",
	"tmdb_key":      "tmdb.api_key",
	"tmdb_share":    "tmdb.share_match",
	"log_level":     "logging.level",
	"log_format":    "logging.format",
	"addr":          "server.addr",
	"sync_addr":     "server.sync_addr",
	"hydrate_batch": "hydrate.batch_size",
}

var sections = []string{"server", "database", "auth", "jikan", "anilist", "tmdb", "hydrate", "logging"}

// envKey maps ANIMEHUB_TMDB_API_KEY -> tmdb.api_key.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	if alias, ok := envAliases[key]; ok {
		return alias
	}
	for _, sec := range sections {
		if strings.HasPrefix(key, sec+"_") {
			return sec + "." + strings.TrimPrefix(key, sec+"_")
		}
	}
	return key
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
