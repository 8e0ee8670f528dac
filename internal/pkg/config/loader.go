package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Result is the outcome of loading one setting.
type Result[T any] struct {
	Value T
	// FallbackApplied is set when the variable was present but unusable.
	FallbackApplied bool
	Warning         string
}

// Load reads key, parses and validates it, and falls back to def on any
// failure. An unset or blank variable yields def without a fallback.
// A nil validate accepts every parsed value.
func Load[T any](key string, def T, parse func(string) (T, error), validate func(T) error) Result[T] {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return Result[T]{Value: def}
	}

	v, err := parse(raw)
	if err == nil && validate != nil {
		err = validate(v)
	}
	if err != nil {
		return Result[T]{
			Value:           def,
			FallbackApplied: true,
			Warning:         fmt.Sprintf("invalid %s='%s': %v, falling back to default '%v'", key, raw, err, def),
		}
	}
	return Result[T]{Value: v}
}

func parseString(s string) (string, error) { return s, nil }

// LoadString loads a string setting.
func LoadString(key, def string, validate func(string) error) Result[string] {
	return Load(key, def, parseString, validate)
}

// LoadInt loads an integer setting.
func LoadInt(key string, def int, validate func(int) error) Result[int] {
	return Load(key, def, strconv.Atoi, validate)
}

// LoadDuration loads a Go duration such as "90s" or "30m".
func LoadDuration(key string, def time.Duration, validate func(time.Duration) error) Result[time.Duration] {
	return Load(key, def, time.ParseDuration, validate)
}

// LoadBool loads a boolean accepted by strconv.ParseBool.
func LoadBool(key string, def bool) Result[bool] {
	return Load(key, def, strconv.ParseBool, nil)
}
