// Package config converts raw configuration values to typed ones.
//
// Values reach the config stores from three places: TOML decoding
// (int64, float64, bool, string), environment overrides (always strings)
// and Set calls from the settings wizard (any Go type). Every store uses
// these helpers so a key reads the same whichever source set it.
package config

import (
	"strconv"
	"strings"
	"time"
)

// String returns v when it is a string, otherwise "".
func String(v any) string {
	s, _ := v.(string)
	return s
}

// Int converts numeric values and numeric strings. Anything else is 0.
func Int(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}

// Float converts numeric values and numeric strings. Anything else is 0.
func Float(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Bool accepts booleans and the strings strconv.ParseBool understands.
func Bool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && parsed
	default:
		return false
	}
}

// Duration accepts time.Duration values and strings such as "60s" or "1h".
// Bare integers are read as seconds.
func Duration(v any) time.Duration {
	switch d := v.(type) {
	case time.Duration:
		return d
	case int, int64:
		return time.Duration(Int(d)) * time.Second
	case string:
		s := strings.TrimSpace(d)
		if parsed, err := time.ParseDuration(s); err == nil {
			return parsed
		}
		if secs, err := strconv.Atoi(s); err == nil {
			return time.Duration(secs) * time.Second
		}
		return 0
	default:
		return 0
	}
}
