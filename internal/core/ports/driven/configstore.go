package driven

import "time"

// ConfigStore provides access to application configuration by dotted
// key, e.g. "store.backend" or "chunking.size".
//
// Typed getters return the zero value when the key is unset or cannot be
// converted; use Get to tell an unset key from an explicit zero.
type ConfigStore interface {
	// Get retrieves a raw value and reports whether the key is set.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int
	GetFloat(key string) float64
	GetBool(key string) bool

	// GetDuration parses values such as "60s". Bare integers are seconds.
	GetDuration(key string) time.Duration

	// Set stores a value. File-backed stores persist it immediately.
	Set(key string, value any) error

	// Save persists the current configuration.
	Save() error

	// Load reads configuration from storage, replacing what is held.
	Load() error

	// Path returns where the configuration lives.
	Path() string
}
