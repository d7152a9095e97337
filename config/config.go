// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable name for controlling statistics visibility
const EnvDevMode = "DEV_MODE"

// Config holds everything the server needs at startup.
type Config struct {
	Port            string
	GinMode         string
	DevMode         bool
	DataDir         string
	CORSOrigin      string
	ShutdownTimeout time.Duration

	FetchTimeout         time.Duration
	UserAgent            string
	MaxBodyBytes         int64
	AllowPrivateNetworks bool

	RateLimit float64 // requests per second per client
	RateBurst int

	LogLevel  slog.Level
	LogFormat string // "json" or "text"
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	return Config{
		Port:            "8082",
		GinMode:         "release",
		DataDir:         "data",
		CORSOrigin:      "*",
		ShutdownTimeout: 10 * time.Second,
		FetchTimeout:    15 * time.Second,
		MaxBodyBytes:    5 << 20,
		RateLimit:       2,
		RateBurst:       5,
		LogLevel:        slog.LevelInfo,
		LogFormat:       "json",
	}
}

// LoadEnv loads .env.development and falls back to .env. Variables already
// present in the environment win. It reports which file was loaded, if any.
func LoadEnv() string {
	for _, name := range []string{".env.development", ".env"} {
		if err := godotenv.Load(name); err == nil {
			return name
		}
	}
	return ""
}

// FromEnv builds a Config from the process environment.
func FromEnv() (Config, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	p := parser{lookup: lookup}

	p.str("PORT", &cfg.Port)
	p.str("GIN_MODE", &cfg.GinMode)
	p.boolean(EnvDevMode, &cfg.DevMode)
	p.str("DATA_DIR", &cfg.DataDir)
	p.str("CORS_ORIGIN", &cfg.CORSOrigin)
	p.duration("SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout)
	p.duration("FETCH_TIMEOUT", &cfg.FetchTimeout)
	p.str("USER_AGENT", &cfg.UserAgent)
	p.int64("MAX_BODY_BYTES", &cfg.MaxBodyBytes)
	p.boolean("ALLOW_PRIVATE_NETWORKS", &cfg.AllowPrivateNetworks)
	p.float("RATE_LIMIT", &cfg.RateLimit)
	p.integer("RATE_BURST", &cfg.RateBurst)
	p.level("LOG_LEVEL", &cfg.LogLevel)
	p.str("LOG_FORMAT", &cfg.LogFormat)

	if p.err != nil {
		return Config{}, p.err
	}
	return cfg, cfg.Validate()
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	switch {
	case c.Port == "":
		return fmt.Errorf("PORT must not be empty")
	case c.FetchTimeout <= 0:
		return fmt.Errorf("FETCH_TIMEOUT must be positive, got %s", c.FetchTimeout)
	case c.MaxBodyBytes < 0:
		return fmt.Errorf("MAX_BODY_BYTES must not be negative, got %d", c.MaxBodyBytes)
	case c.RateLimit <= 0:
		return fmt.Errorf("RATE_LIMIT must be positive, got %g", c.RateLimit)
	case c.RateBurst < 1:
		return fmt.Errorf("RATE_BURST must be at least 1, got %d", c.RateBurst)
	case c.LogFormat != "json" && c.LogFormat != "text":
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	return nil
}

// parser records the first error and skips the rest.
type parser struct {
	lookup func(string) (string, bool)
	err    error
}

func (p *parser) get(key string) (string, bool) {
	if p.err != nil {
		return "", false
	}
	v, ok := p.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (p *parser) fail(key, value string, err error) {
	p.err = fmt.Errorf("invalid %s=%q: %w", key, value, err)
}

func (p *parser) str(key string, dst *string) {
	if v, ok := p.get(key); ok {
		*dst = v
	}
}

func (p *parser) boolean(key string, dst *bool) {
	if v, ok := p.get(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			p.fail(key, v, err)
			return
		}
		*dst = b
	}
}

func (p *parser) duration(key string, dst *time.Duration) {
	if v, ok := p.get(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			p.fail(key, v, err)
			return
		}
		*dst = d
	}
}

func (p *parser) int64(key string, dst *int64) {
	if v, ok := p.get(key); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			p.fail(key, v, err)
			return
		}
		*dst = n
	}
}

func (p *parser) integer(key string, dst *int) {
	if v, ok := p.get(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			p.fail(key, v, err)
			return
		}
		*dst = n
	}
}

func (p *parser) float(key string, dst *float64) {
	if v, ok := p.get(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			p.fail(key, v, err)
			return
		}
		*dst = f
	}
}

func (p *parser) level(key string, dst *slog.Level) {
	if v, ok := p.get(key); ok {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(v)); err != nil {
			p.fail(key, v, err)
			return
		}
		*dst = lvl
	}
}
