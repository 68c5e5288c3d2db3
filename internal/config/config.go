package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/tkingovr/reqguard/internal/counter"
	"github.com/tkingovr/reqguard/internal/filter"
	"github.com/tkingovr/reqguard/internal/geo"
)

// Format is the encoding of a config file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the format from a file extension. Anything that is
// not .toml is read as YAML.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// File is the on-disk configuration.
type File struct {
	Version       int              `yaml:"version" toml:"version"`
	Listen        string           `yaml:"listen,omitempty" toml:"listen"`
	Target        string           `yaml:"target,omitempty" toml:"target"`
	DashboardAddr string           `yaml:"dashboard_addr,omitempty" toml:"dashboard_addr"`
	LogDir        string           `yaml:"log_dir,omitempty" toml:"log_dir"`
	TrustProxy    bool             `yaml:"trust_proxy" toml:"trust_proxy"`
	Size          SizeSection      `yaml:"size" toml:"size"`
	Geo           GeoSection       `yaml:"geo" toml:"geo"`
	RateLimit     RateLimitSection `yaml:"rate_limit" toml:"rate_limit"`
}

type SizeSection struct {
	MaxBytes int64 `yaml:"max_bytes" toml:"max_bytes"`
}

type GeoSection struct {
	AllowedCountries []string `yaml:"allowed_countries" toml:"allowed_countries"`
	// Database is the path to a MaxMind country or city database.
	Database string `yaml:"database,omitempty" toml:"database"`
	// Networks maps CIDR blocks to country codes. Checked before Database.
	Networks map[string]string `yaml:"networks,omitempty" toml:"networks"`
}

type RateLimitSection struct {
	Max     int          `yaml:"max" toml:"max"`
	Window  Duration     `yaml:"window" toml:"window"`
	Backend string       `yaml:"backend" toml:"backend"`
	Redis   RedisSection `yaml:"redis,omitempty" toml:"redis"`
}

type RedisSection struct {
	Addr     string `yaml:"addr,omitempty" toml:"addr"`
	Password string `yaml:"password,omitempty" toml:"password"`
	DB       int    `yaml:"db,omitempty" toml:"db"`
}

// Config is the runtime configuration for reqguard.
type Config struct {
	File *File
	Path string

	Listen        string
	Target        *url.URL
	DashboardAddr string
	LogDir        string
	TrustProxy    bool

	MaxBodyBytes int64
	Countries    geo.CountrySet
	GeoDatabase  string
	Networks     map[string]string

	RateLimit filter.RateLimit
	Backend   string
	Redis     counter.RedisConfig
}

// Load reads a YAML or TOML config file, applies .env and REQGUARD_*
// environment overrides and produces a runtime Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	f, err := decode(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	if err := ApplyEnv(f); err != nil {
		return nil, err
	}
	return fromFile(f, path)
}

// LoadBytes parses config data and produces a runtime Config. The
// environment is not consulted.
func LoadBytes(data []byte, format Format) (*Config, error) {
	f, err := decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return fromFile(f, "")
}

// LoadDefault returns the default config with .env and environment
// overrides applied, for when no config file is given.
func LoadDefault() (*Config, error) {
	f := defaultFile()
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	if err := ApplyEnv(f); err != nil {
		return nil, err
	}
	return fromFile(f, "")
}

// DefaultConfig returns a config with defaults only.
func DefaultConfig() *Config {
	cfg, err := fromFile(defaultFile(), "")
	if err != nil {
		panic(fmt.Sprintf("default config invalid: %v", err))
	}
	return cfg
}

func decode(data []byte, format Format) (*File, error) {
	f := defaultFile()
	switch format {
	case FormatTOML:
		md, err := toml.Decode(string(data), f)
		if err != nil {
			return nil, fmt.Errorf("parsing TOML: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown config key %q", undecoded[0].String())
		}
	case FormatYAML, "":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config format %q", format)
	}
	return f, nil
}

func fromFile(f *File, path string) (*Config, error) {
	if err := validate(f); err != nil {
		return nil, err
	}

	cfg := &Config{
		File:          f,
		Path:          path,
		Listen:        f.Listen,
		DashboardAddr: f.DashboardAddr,
		TrustProxy:    f.TrustProxy,
		MaxBodyBytes:  f.Size.MaxBytes,
		GeoDatabase:   expandHome(f.Geo.Database),
		Networks:      f.Geo.Networks,
		RateLimit: filter.RateLimit{
			Max:    f.RateLimit.Max,
			Window: time.Duration(f.RateLimit.Window),
		},
		Backend: strings.ToLower(f.RateLimit.Backend),
		Redis: counter.RedisConfig{
			Addr:     f.RateLimit.Redis.Addr,
			Password: f.RateLimit.Redis.Password,
			DB:       f.RateLimit.Redis.DB,
		},
	}

	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.DashboardAddr == "" {
		cfg.DashboardAddr = DefaultDashboardAddr
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendMemory
	}

	cfg.LogDir = f.LogDir
	if cfg.LogDir == "" {
		cfg.LogDir = DefaultLogDir()
	}
	cfg.LogDir = expandHome(cfg.LogDir)

	countries := f.Geo.AllowedCountries
	if len(countries) == 0 {
		countries = geo.DefaultCountries
	}
	cfg.Countries = geo.NewCountrySet(countries...)

	if f.Target != "" {
		u, err := url.Parse(f.Target)
		if err != nil {
			return nil, fmt.Errorf("invalid target %q: %w", f.Target, err)
		}
		cfg.Target = u
	}

	return cfg, nil
}

func validate(f *File) error {
	var errs []error
	if f.Version != 1 {
		errs = append(errs, fmt.Errorf("unsupported config version %d", f.Version))
	}
	if f.Size.MaxBytes <= 0 {
		errs = append(errs, fmt.Errorf("size.max_bytes must be positive, got %d", f.Size.MaxBytes))
	}
	if f.RateLimit.Max <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.max must be positive, got %d", f.RateLimit.Max))
	}
	if f.RateLimit.Window <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.window must be positive, got %s", f.RateLimit.Window))
	}
	switch strings.ToLower(f.RateLimit.Backend) {
	case "", BackendMemory:
	case BackendRedis:
		if f.RateLimit.Redis.Addr == "" {
			errs = append(errs, errors.New("rate_limit.redis.addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown rate_limit.backend %q", f.RateLimit.Backend))
	}
	if _, err := geo.NewTable(f.Geo.Networks); err != nil {
		errs = append(errs, fmt.Errorf("geo.networks: %w", err))
	}
	if f.Target != "" {
		u, err := url.Parse(f.Target)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("invalid target %q: %w", f.Target, err))
		case u.Scheme != "http" && u.Scheme != "https":
			errs = append(errs, fmt.Errorf("target %q must be an http or https URL", f.Target))
		case u.Host == "":
			errs = append(errs, fmt.Errorf("target %q has no host", f.Target))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// OpenResolver builds the country resolver: the static network table first,
// then the MaxMind database when one is configured. The returned close
// function releases the database.
func (c *Config) OpenResolver() (geo.Resolver, func() error, error) {
	var chain geo.Chain
	noop := func() error { return nil }

	if len(c.Networks) > 0 {
		t, err := geo.NewTable(c.Networks)
		if err != nil {
			return nil, nil, err
		}
		chain = append(chain, t)
	}
	if c.GeoDatabase == "" {
		return chain, noop, nil
	}
	db, err := geo.OpenMMDB(c.GeoDatabase)
	if err != nil {
		return nil, nil, err
	}
	chain = append(chain, db)
	return chain, db.Close, nil
}

// OpenCounter creates the rate counter for the configured backend.
func (c *Config) OpenCounter(ctx context.Context) (counter.Counter, error) {
	switch c.Backend {
	case BackendRedis:
		return counter.NewRedis(ctx, c.Redis)
	default:
		return counter.NewMemory(), nil
	}
}

// ChainConfig returns the pipeline settings for this config.
func (c *Config) ChainConfig() filter.ChainConfig {
	return filter.ChainConfig{
		MaxBodyBytes: c.MaxBodyBytes,
		Countries:    c.Countries,
		RateLimit:    c.RateLimit,
	}
}

// MarshalYAML serializes the file form of the config for display/export.
// The Redis password is masked.
func (c *Config) MarshalYAML() ([]byte, error) {
	f := *c.File
	if f.RateLimit.Redis.Password != "" {
		f.RateLimit.Redis.Password = "********"
	}
	return yaml.Marshal(&f)
}

func expandHome(path string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
