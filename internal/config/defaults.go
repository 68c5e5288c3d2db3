package config

import (
	"github.com/tkingovr/reqguard/internal/filter"
	"github.com/tkingovr/reqguard/internal/geo"
)

const (
	DefaultListen        = ":3000"
	DefaultDashboardAddr = "127.0.0.1:8080"
	DefaultRedisAddr     = "127.0.0.1:6379"

	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// DefaultLogDir returns the default log directory path.
func DefaultLogDir() string {
	return "~/.reqguard/logs"
}

func defaultFile() *File {
	return &File{
		Version:       1,
		Listen:        DefaultListen,
		DashboardAddr: DefaultDashboardAddr,
		LogDir:        DefaultLogDir(),
		Size:          SizeSection{MaxBytes: filter.DefaultMaxBytes},
		Geo: GeoSection{
			AllowedCountries: append([]string(nil), geo.DefaultCountries...),
		},
		RateLimit: RateLimitSection{
			Max:     filter.DefaultRateMax,
			Window:  Duration(filter.DefaultRateWindow),
			Backend: BackendMemory,
			Redis:   RedisSection{Addr: DefaultRedisAddr},
		},
	}
}
