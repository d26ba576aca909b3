package file

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
	"github.com/custodia-labs/sheetrag/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

//go:embed defaults
var defaultFiles embed.FS

// ErrInvalidPrompt is returned when a prompt file does not render the
// placeholders its consumer needs.
var ErrInvalidPrompt = errors.New("invalid prompt")

// PromptStore serves chat prompts from user-editable files, one
// <name>.txt per prompt. Missing files are seeded from the built-in
// defaults on first use. A file that is unreadable or fails validation
// is logged and the built-in prompt is served in its place.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.RWMutex
	cache map[string]string
}

// NewPromptStore creates a prompt store rooted at dir. An empty dir
// means ~/.sheetrag/prompts. No I/O happens until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locating home directory: %w", err)
		}
		dir = filepath.Join(home, ".sheetrag", "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]string)}, nil
}

// Load returns the prompt called name.
func (s *PromptStore) Load(name string) (string, error) {
	s.seedOnce.Do(func() { s.seedErr = s.seed() })

	s.mu.RLock()
	prompt, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return prompt, nil
	}

	fallback, known := builtin(name)
	if s.seedErr != nil {
		if known {
			return fallback, nil
		}
		return "", fmt.Errorf("loading prompt %q: %w", name, s.seedErr)
	}

	prompt, err := s.readFile(name)
	if err != nil {
		if !known {
			return "", fmt.Errorf("loading prompt %q: %w", name, err)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("prompt %s: %v, using the built-in prompt", name, err)
		}
		prompt = fallback
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()
	return prompt, nil
}

// Reload drops cached prompts so edits on disk are picked up.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

func (s *PromptStore) readFile(name string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, name+".txt"))
	if err != nil {
		return "", err
	}
	prompt := strings.TrimSpace(string(raw))
	if err := validatePrompt(name, prompt); err != nil {
		return "", err
	}
	return prompt, nil
}

// seed copies every default file that does not exist yet into the
// prompt directory. Existing files are never overwritten.
func (s *PromptStore) seed() error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("creating prompt directory: %w", err)
	}

	entries, err := defaultFiles.ReadDir("defaults")
	if err != nil {
		return err
	}
	for _, entry := range entries {
		target := filepath.Join(s.dir, entry.Name())
		if _, err := os.Stat(target); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		content, err := defaultFiles.ReadFile(path.Join("defaults", entry.Name()))
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, content, 0o600); err != nil {
			return fmt.Errorf("writing default %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// builtin returns the embedded prompt for name.
func builtin(name string) (string, bool) {
	raw, err := defaultFiles.ReadFile(path.Join("defaults", name+".txt"))
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(raw)), true
}

// placeholders lists what each templated prompt must render, in
// argument order. Prompts not listed only need to be non-empty.
var placeholders = map[string][]string{
	driven.PromptChatUser:        {"context", "question"},
	driven.PromptSummarizeMap:    {"text"},
	driven.PromptSummarizeReduce: {"summaries"},
}

// validatePrompt checks a templated prompt renders each of its
// placeholders without fmt errors.
func validatePrompt(name, prompt string) error {
	if prompt == "" {
		return fmt.Errorf("%w: %s is empty", ErrInvalidPrompt, name)
	}
	want, ok := placeholders[name]
	if !ok {
		return nil
	}

	args := make([]any, len(want))
	for i, p := range want {
		args[i] = "\x00" + p + "\x00"
	}
	out := fmt.Sprintf(prompt, args...)
	valid := !strings.Contains(out, "%!")
	for _, marker := range args {
		valid = valid && strings.Contains(out, marker.(string))
	}
	if !valid {
		return fmt.Errorf("%w: %s must render the %s with %d %%s placeholder(s)",
			ErrInvalidPrompt, name, strings.Join(want, " and the "), len(want))
	}
	return nil
}
