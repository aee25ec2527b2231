// Package config handles application configuration loading and management.
package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"hotsoonripper/pkg/urls"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration.
type Config struct {
	App   App
	Job   Job
	Fetch Fetch
	Dir   Dir
	API   API
	Proxy Proxy
	HTTP  HTTP
}

// App holds application-wide configuration.
type App struct {
	LogLevel  string `env:"HOTSOON_APP_LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"HOTSOON_APP_LOG_FORMAT" envDefault:"auto"` // auto, text or json
}

// Job holds worker pool configuration. The pool size is fixed for the lifetime of the process.
type Job struct {
	Workers int `env:"HOTSOON_JOB_WORKERS" envDefault:"10"`
}

// Fetch holds per-item download configuration.
type Fetch struct {
	Retries   int           `env:"HOTSOON_FETCH_RETRIES"    envDefault:"5"`
	Timeout   time.Duration `env:"HOTSOON_FETCH_TIMEOUT"    envDefault:"10s"`
	ChunkSize int           `env:"HOTSOON_FETCH_CHUNK_SIZE" envDefault:"1024"`
}

// Dir holds filesystem locations.
type Dir struct {
	Downloads   string `env:"HOTSOON_DIR_DOWNLOAD"     envDefault:"./download"`       // <Downloads>/<userID>/<item>.mp4
	TargetsFile string `env:"HOTSOON_DIR_TARGETS_FILE" envDefault:"./user-number.txt"` // read when no argument is given
}

// SetAbsPaths converts all directory paths to absolute paths.
func (c *Dir) SetAbsPaths() error {
	var err error
	if c.Downloads, err = filepath.Abs(c.Downloads); err != nil {
		return fmt.Errorf("downloads: %w", err)
	}

	if c.TargetsFile, err = filepath.Abs(c.TargetsFile); err != nil {
		return fmt.Errorf("targets file: %w", err)
	}

	return nil
}

// API holds remote endpoints. They only change in tests.
type API struct {
	SearchURL   string `env:"HOTSOON_API_SEARCH_URL"   envDefault:"https://hotsoon.snssdk.com/hotsoon/search/"`
	ListURL     string `env:"HOTSOON_API_LIST_URL"     envDefault:"https://reflow.huoshan.com/share/load_videos/"`
	PlaybackURL string `env:"HOTSOON_API_PLAYBACK_URL" envDefault:"https://api.huoshan.com/hotsoon/item/video/_playback/"`
	// RateLimit caps catalog calls per second. Zero disables the limiter.
	RateLimit float64       `env:"HOTSOON_API_RATE_LIMIT" envDefault:"0"`
	Timeout   time.Duration `env:"HOTSOON_API_TIMEOUT"    envDefault:"30s"`
	MaxPages  int           `env:"HOTSOON_API_MAX_PAGES"  envDefault:"10000"`
}

func (a *API) validate() error {
	for name, raw := range map[string]string{
		"search url":   a.SearchURL,
		"list url":     a.ListURL,
		"playback url": a.PlaybackURL,
	} {
		if !urls.IsURLValid(raw) {
			return fmt.Errorf("%s %q is not a valid http(s) url", name, raw)
		}
	}

	return nil
}

// Proxy holds the optional proxy pool used for media requests.
type Proxy struct {
	// Proxies is a comma separated list of http, https, socks5 or socks5h URLs. Empty means direct.
	Proxies             []string      `env:"HOTSOON_PROXY_LIST"                  envSeparator:","`
	MaxFailures         int           `env:"HOTSOON_PROXY_MAX_FAILURES"          envDefault:"3"`
	FailureBackoff      time.Duration `env:"HOTSOON_PROXY_FAILURE_BACKOFF"       envDefault:"30s"`
	HealthCheckInterval time.Duration `env:"HOTSOON_PROXY_HEALTH_CHECK_INTERVAL" envDefault:"0"` // zero disables
}

// validate trims the proxy list, drops blank entries and checks every URL.
func (p *Proxy) validate() error {
	cleaned := p.Proxies[:0]

	for _, raw := range p.Proxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("proxy %q: %w", raw, err)
		}

		switch u.Scheme {
		case "http", "https", "socks5", "socks5h":
		default:
			return fmt.Errorf("proxy %q: unsupported scheme %q", raw, u.Scheme)
		}

		if u.Host == "" {
			return fmt.Errorf("proxy %q: missing host", raw)
		}

		cleaned = append(cleaned, raw)
	}

	p.Proxies = cleaned

	return nil
}

// HTTP holds the optional status server configuration.
type HTTP struct {
	// Addr enables /metrics, /readyz and /v1/status on the given listen address when not empty.
	Addr            string        `env:"HOTSOON_HTTP_ADDR"             envDefault:""`
	ShutdownTimeout time.Duration `env:"HOTSOON_HTTP_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// New loads configuration from environment variables.
func New() (*Config, error) {
	cfg := &Config{}

	err := env.Parse(cfg)
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	err = cfg.Dir.SetAbsPaths()
	if err != nil {
		return nil, fmt.Errorf("set absolute paths: %w", err)
	}

	err = cfg.API.validate()
	if err != nil {
		return nil, fmt.Errorf("api: %w", err)
	}

	err = cfg.Proxy.validate()
	if err != nil {
		return nil, fmt.Errorf("proxy: %w", err)
	}

	cfg.normalize()

	return cfg, nil
}

// normalize replaces non-positive limits with their defaults.
func (c *Config) normalize() {
	def := Default()

	if c.Job.Workers <= 0 {
		c.Job.Workers = def.Job.Workers
	}

	if c.Fetch.Retries <= 0 {
		c.Fetch.Retries = def.Fetch.Retries
	}

	if c.Fetch.Timeout <= 0 {
		c.Fetch.Timeout = def.Fetch.Timeout
	}

	if c.Fetch.ChunkSize <= 0 {
		c.Fetch.ChunkSize = def.Fetch.ChunkSize
	}

	if c.API.MaxPages <= 0 {
		c.API.MaxPages = def.API.MaxPages
	}

	if c.API.RateLimit < 0 {
		c.API.RateLimit = 0
	}

	if c.Proxy.MaxFailures <= 0 {
		c.Proxy.MaxFailures = def.Proxy.MaxFailures
	}

	if c.Proxy.FailureBackoff <= 0 {
		c.Proxy.FailureBackoff = def.Proxy.FailureBackoff
	}
}
