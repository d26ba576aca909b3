package memory

import (
	"maps"
	"sync"
	"time"

	"github.com/custodia-labs/sheetrag/internal/adapters/driven/config"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore holds configuration in memory. It backs tests and the
// settings used when no config directory is writable. Values convert
// exactly as they do in the file store.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewConfigStore creates a config store seeded with values, which may be nil.
func NewConfigStore(values ...map[string]any) *ConfigStore {
	s := &ConfigStore{values: make(map[string]any)}
	for _, v := range values {
		maps.Copy(s.values, v)
	}
	return s
}

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok
}

func (s *ConfigStore) GetString(key string) string {
	v, _ := s.Get(key)
	return config.String(v)
}

func (s *ConfigStore) GetInt(key string) int {
	v, _ := s.Get(key)
	return config.Int(v)
}

func (s *ConfigStore) GetFloat(key string) float64 {
	v, _ := s.Get(key)
	return config.Float(v)
}

func (s *ConfigStore) GetBool(key string) bool {
	v, _ := s.Get(key)
	return config.Bool(v)
}

func (s *ConfigStore) GetDuration(key string) time.Duration {
	v, _ := s.Get(key)
	return config.Duration(v)
}

func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Save is a no-op.
func (s *ConfigStore) Save() error { return nil }

// Load is a no-op.
func (s *ConfigStore) Load() error { return nil }

func (s *ConfigStore) Path() string { return ":memory:" }
