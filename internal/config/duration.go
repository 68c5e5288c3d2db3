package config

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration written as a Go duration string ("1m",
// "30s"). A bare integer is read as milliseconds.
type Duration time.Duration

func (d Duration) String() string { return time.Duration(d).String() }

func (d *Duration) set(s string) error {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", node.Line)
	}
	return d.set(node.Value)
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// UnmarshalTOML accepts a TOML string or integer.
func (d *Duration) UnmarshalTOML(v any) error {
	switch val := v.(type) {
	case string:
		return d.set(val)
	case int64:
		*d = Duration(time.Duration(val) * time.Millisecond)
		return nil
	default:
		return fmt.Errorf("duration must be a string or integer, got %T", v)
	}
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
