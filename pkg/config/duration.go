package config

import (
	"fmt"
	"time"
)

// Duration - time.Duration, которая читается и пишется строкой ("30s", "1m").
//
// Одинаково работает в YAML, TOML и JSON через encoding.TextUnmarshaler.
type Duration time.Duration

// Std возвращает time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// String реализует fmt.Stringer.
func (d Duration) String() string { return time.Duration(d).String() }

// MarshalText реализует encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText реализует encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}
