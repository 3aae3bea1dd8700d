// Package config loads pagesetter settings from a TOML file and the
// environment. Environment variables win over the file, and command-line
// flags win over both.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pagesetter/pkg/cache"
	"github.com/matzehuels/pagesetter/pkg/document"
	errs "github.com/matzehuels/pagesetter/pkg/errors"
	"github.com/matzehuels/pagesetter/pkg/render/sink"
)

const appName = "pagesetter"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PAGESETTER_"

type Config struct {
	Page    PageConfig    `toml:"page"`
	Extract ExtractConfig `toml:"extract"`
	Cache   CacheConfig   `toml:"cache"`
	Server  ServerConfig  `toml:"server"`
	Render  RenderConfig  `toml:"render"`
}

// PageConfig overrides the page template of every input. Explicit lengths
// win over the preset.
type PageConfig struct {
	Preset  string  `toml:"preset"`
	Width   float64 `toml:"width"`
	Height  float64 `toml:"height"`
	Padding float64 `toml:"padding"`
	Header  float64 `toml:"header"`
	Footer  float64 `toml:"footer"`
}

type ExtractConfig struct {
	Zoom float64 `toml:"zoom"`
}

type CacheConfig struct {
	Backend string        `toml:"backend"`
	Dir     string        `toml:"dir"`
	TTL     time.Duration `toml:"ttl"`
	Redis   RedisConfig   `toml:"redis"`
	Mongo   MongoConfig   `toml:"mongo"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
	// RateLimit is requests per minute per client IP. Zero disables it.
	RateLimit int `toml:"rate_limit"`
	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `toml:"max_body_bytes"`
}

type RenderConfig struct {
	Formats []string `toml:"formats"`
	Labels  bool     `toml:"labels"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Extract: ExtractConfig{Zoom: 1},
		Cache: CacheConfig{
			Backend: cache.BackendFile,
			TTL:     cache.TTLCompose,
			Mongo:   MongoConfig{Database: appName, Collection: "cache"},
		},
		Server: ServerConfig{
			Addr:         ":8080",
			RateLimit:    120,
			MaxBodyBytes: 10 << 20,
		},
		Render: RenderConfig{Formats: []string{sink.FormatJSON}},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path reads [DefaultPath], which may be absent. A named file must
// exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		switch {
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		case err != nil:
			return cfg, errs.Wrap(errs.ErrCodeInvalidInput, err, "read config %s", path)
		default:
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				return cfg, errs.New(errs.ErrCodeInvalidInput, "config %s: unknown key %q", path, undecoded[0].String())
			}
		}
	}

	cfg.applyEnv()
	if cfg.Cache.Backend == cache.BackendFile && cfg.Cache.Dir == "" {
		if dir, err := CacheDir(); err == nil {
			cfg.Cache.Dir = dir
		}
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	c.Page.Preset = envOr(EnvPrefix+"PAGE_PRESET", c.Page.Preset)
	c.Extract.Zoom = envFloat(EnvPrefix+"ZOOM", c.Extract.Zoom)

	c.Cache.Backend = envOr(EnvPrefix+"CACHE_BACKEND", c.Cache.Backend)
	c.Cache.Dir = envOr(EnvPrefix+"CACHE_DIR", c.Cache.Dir)
	c.Cache.TTL = envDuration(EnvPrefix+"CACHE_TTL", c.Cache.TTL)
	c.Cache.Redis.Addr = envOr(EnvPrefix+"REDIS_ADDR", c.Cache.Redis.Addr)
	c.Cache.Redis.Password = envOr(EnvPrefix+"REDIS_PASSWORD", c.Cache.Redis.Password)
	c.Cache.Redis.DB = envInt(EnvPrefix+"REDIS_DB", c.Cache.Redis.DB)
	c.Cache.Mongo.URI = envOr(EnvPrefix+"MONGO_URI", c.Cache.Mongo.URI)
	c.Cache.Mongo.Database = envOr(EnvPrefix+"MONGO_DATABASE", c.Cache.Mongo.Database)
	c.Cache.Mongo.Collection = envOr(EnvPrefix+"MONGO_COLLECTION", c.Cache.Mongo.Collection)

	c.Server.Addr = envOr(EnvPrefix+"ADDR", c.Server.Addr)
	c.Server.RateLimit = envInt(EnvPrefix+"RATE_LIMIT", c.Server.RateLimit)

	if v := os.Getenv(EnvPrefix + "FORMATS"); v != "" {
		c.Render.Formats = splitList(v)
	}
}

// Validate checks value ranges and names.
func (c Config) Validate() error {
	if c.Page.Preset != "" {
		if _, ok := document.Preset(c.Page.Preset); !ok {
			return errs.New(errs.ErrCodeInvalidTemplate, "config: unknown page preset %q", c.Page.Preset)
		}
	}
	for _, v := range []float64{c.Page.Width, c.Page.Height, c.Page.Padding, c.Page.Header, c.Page.Footer} {
		if v < 0 {
			return errs.New(errs.ErrCodeInvalidTemplate, "config: page lengths must be non-negative")
		}
	}
	if c.Extract.Zoom <= 0 {
		return errs.New(errs.ErrCodeInvalidInput, "config: zoom must be positive, got %v", c.Extract.Zoom)
	}
	if c.Cache.Backend != "" && !slices.Contains(cache.Backends, c.Cache.Backend) {
		return errs.New(errs.ErrCodeInvalidInput, "config: unknown cache backend %q (known: %s)", c.Cache.Backend, strings.Join(cache.Backends, ", "))
	}
	if c.Server.RateLimit < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "config: rate_limit must be non-negative")
	}
	return errs.ValidateFormats(c.Render.Formats, sink.Formats)
}

// Template returns the configured page template override, or nil when the
// config leaves page settings to the input.
func (c Config) Template() *document.PageTemplate {
	p := c.Page
	if p == (PageConfig{}) {
		return nil
	}
	return &document.PageTemplate{
		Name:           p.Preset,
		Width:          p.Width,
		Height:         p.Height,
		ContentPadding: p.Padding,
		HeaderHeight:   p.Header,
		FooterHeight:   p.Footer,
	}
}

// CacheOptions converts the cache section for [cache.Open].
func (c Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend: c.Cache.Backend,
		Dir:     c.Cache.Dir,
		TTL:     c.Cache.TTL,
		Redis: cache.RedisOptions{
			Addr:     c.Cache.Redis.Addr,
			Password: c.Cache.Redis.Password,
			DB:       c.Cache.Redis.DB,
		},
		Mongo: cache.MongoOptions{
			URI:        c.Cache.Mongo.URI,
			Database:   c.Cache.Mongo.Database,
			Collection: c.Cache.Mongo.Collection,
		},
	}
}

// =============================================================================
// Paths
// =============================================================================

// DefaultPath is $XDG_CONFIG_HOME/pagesetter/config.toml, falling back to
// ~/.config.
func DefaultPath() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// CacheDir is $XDG_CACHE_HOME/pagesetter, falling back to ~/.cache.
func CacheDir() (string, error) {
	if home := os.Getenv("XDG_CACHE_HOME"); home != "" {
		return filepath.Join(home, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Write encodes cfg as TOML to path, creating parent directories.
func Write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		f.Close()
		return fmt.Errorf("encode config: %w", err)
	}
	return f.Close()
}

// =============================================================================
// Environment helpers
// =============================================================================

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
