package file

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/sheetrag/internal/adapters/driven/config"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// EnvPrefix is prepended to environment overrides: store.backend is read
// from SHEETRAG_STORE_BACKEND.
const EnvPrefix = "SHEETRAG_"

// FileName is the config file inside the config directory.
const FileName = "config.toml"

// ConfigStore keeps configuration in a TOML file, one table per section:
//
//	[store]
//	backend = "sqlite"
//
//	[store.sqlite]
//	path = "/home/me/.sheetrag/vectors.db"
//
// Keys are addressed in dotted form ("store.sqlite.path"). Environment
// variables override file values on read and are never persisted.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]any
}

// NewConfigStore opens the config in configDir, creating the directory
// when missing. An empty configDir means ~/.sheetrag.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locating home directory: %w", err)
		}
		configDir = filepath.Join(home, ".sheetrag")
	}
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, FileName),
		data:     make(map[string]any),
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// EnvKey returns the environment variable that overrides key.
func EnvKey(key string) string {
	return EnvPrefix + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

// Get returns the environment override when set, else the file value.
func (s *ConfigStore) Get(key string) (any, bool) {
	if v, ok := os.LookupEnv(EnvKey(key)); ok {
		return v, true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.data[key]
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

// Set stores a value and writes the file. Durations are stored in their
// string form so the file stays readable.
func (s *ConfigStore) Set(key string, value any) error {
	if d, ok := value.(time.Duration); ok {
		value = d.String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return s.save()
}

// Save writes the configuration to disk.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save requires s.mu held.
func (s *ConfigStore) save() error {
	raw, err := toml.Marshal(nest(s.data))
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(s.filePath, raw, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Load reads the file. A missing file leaves the store empty.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		s.data = make(map[string]any)
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	var tree map[string]any
	if err := toml.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("parsing %s: %w", s.filePath, err)
	}
	s.data = flatten(tree, "", make(map[string]any))
	return nil
}

// Path returns the config file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// flatten turns nested tables into dotted keys: {"a": {"b": 1}} becomes
// {"a.b": 1}.
func flatten(tree map[string]any, prefix string, out map[string]any) map[string]any {
	for key, value := range tree {
		if prefix != "" {
			key = prefix + "." + key
		}
		if table, ok := value.(map[string]any); ok {
			flatten(table, key, out)
			continue
		}
		out[key] = value
	}
	return out
}

// nest is the inverse of flatten. A key whose parent path already holds
// a plain value stays dotted at the deepest table that can hold it. Keys
// are visited in order so the outcome does not depend on map iteration.
func nest(flat map[string]any) map[string]any {
	root := make(map[string]any)
	for _, key := range slices.Sorted(maps.Keys(flat)) {
		value := flat[key]
		parts := strings.Split(key, ".")
		table := root
		for i, part := range parts[:len(parts)-1] {
			child, exists := table[part]
			if !exists {
				next := make(map[string]any)
				table[part] = next
				table = next
				continue
			}
			next, ok := child.(map[string]any)
			if !ok {
				parts = append(parts[:i], strings.Join(parts[i:], "."))
				break
			}
			table = next
		}
		table[parts[len(parts)-1]] = value
	}
	return root
}
