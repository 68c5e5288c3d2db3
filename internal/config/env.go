package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "REQGUARD_"

// LoadDotEnv loads variables from the given .env files, or ./.env when none
// are named. Variables already set in the environment win. A missing
// default file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("loading env files: %w", err)
	}
	return nil
}

// ApplyEnv overrides file settings with REQGUARD_* environment variables.
func ApplyEnv(f *File) error {
	setString(&f.Listen, "LISTEN")
	setString(&f.Target, "TARGET")
	setString(&f.DashboardAddr, "DASHBOARD_ADDR")
	setString(&f.LogDir, "LOG_DIR")
	setString(&f.Geo.Database, "GEOIP_DB")
	setString(&f.RateLimit.Backend, "RATE_LIMIT_BACKEND")
	setString(&f.RateLimit.Redis.Addr, "REDIS_ADDR")
	setString(&f.RateLimit.Redis.Password, "REDIS_PASSWORD")

	if v, ok := lookup("ALLOWED_COUNTRIES"); ok {
		f.Geo.AllowedCountries = splitList(v)
	}
	if v, ok := lookup("TRUST_PROXY"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sTRUST_PROXY: %w", EnvPrefix, err)
		}
		f.TrustProxy = b
	}
	if v, ok := lookup("MAX_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %sMAX_BYTES: %w", EnvPrefix, err)
		}
		f.Size.MaxBytes = n
	}
	if v, ok := lookup("RATE_LIMIT_MAX"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sRATE_LIMIT_MAX: %w", EnvPrefix, err)
		}
		f.RateLimit.Max = n
	}
	if v, ok := lookup("RATE_LIMIT_WINDOW"); ok {
		if err := f.RateLimit.Window.set(v); err != nil {
			return fmt.Errorf("invalid %sRATE_LIMIT_WINDOW: %w", EnvPrefix, err)
		}
	}
	if v, ok := lookup("REDIS_DB"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sREDIS_DB: %w", EnvPrefix, err)
		}
		f.RateLimit.Redis.DB = n
	}
	return nil
}

func lookup(name string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(EnvPrefix + name))
	return v, v != ""
}

func setString(dst *string, name string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
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
