package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
)

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewPromptStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".sheetrag", "prompts"), store.Dir())
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptChatSystem)
	require.NoError(t, err)

	for _, f := range []string{"chat_system.txt", "chat_user.txt", "summarize_map.txt", "summarize_reduce.txt", "README.md"} {
		assert.FileExists(t, filepath.Join(dir, f))
	}
}

func TestPromptStore_Load_Defaults(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	system, err := store.Load(driven.PromptChatSystem)
	require.NoError(t, err)
	assert.Contains(t, system, "You are a helpful data assistant.")
	assert.Contains(t, system, "Markdown")

	user, err := store.Load(driven.PromptChatUser)
	require.NoError(t, err)
	assert.Equal(t, "Context:\nrow one\n\nQuestion: what?", fmt.Sprintf(user, "row one", "what?"))
}

func TestPromptStore_Load_CustomFileWins(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chat_system.txt"), []byte("\n  Be terse.  \n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptChatSystem)
	require.NoError(t, err)
	assert.Equal(t, "Be terse.", prompt)

	// Init must not overwrite the user's file
	data, err := os.ReadFile(filepath.Join(dir, "chat_system.txt"))
	require.NoError(t, err)
	assert.Equal(t, "\n  Be terse.  \n", string(data))
}

func TestPromptStore_Load_FallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, _ = store.Load(driven.PromptChatUser)
	require.NoError(t, os.Remove(filepath.Join(dir, "chat_user.txt")))
	store.Reload()

	prompt, err := store.Load(driven.PromptChatUser)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Question: %s")
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("query_rewrite")
	assert.ErrorContains(t, err, "query_rewrite")
}

func TestPromptStore_CacheAndReload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	first, err := store.Load(driven.PromptChatSystem)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "chat_system.txt"), []byte("edited"), 0600))

	cached, err := store.Load(driven.PromptChatSystem)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	store.Reload()
	fresh, err := store.Load(driven.PromptChatSystem)
	require.NoError(t, err)
	assert.Equal(t, "edited", fresh)
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	const goroutines = 50
	results := make([]string, goroutines)

	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prompt, err := store.Load(driven.PromptChatSystem)
			assert.NoError(t, err)
			results[i] = prompt
		}()
	}
	wg.Wait()

	for _, p := range results {
		assert.Equal(t, results[0], p)
	}
}

func TestPromptStore_Load_InvalidUserPromptFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chat_user.txt"), []byte("Answer this: %s"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptChatUser)
	require.NoError(t, err)
	assert.Equal(t, "Context:\nc\n\nQuestion: q", fmt.Sprintf(prompt, "c", "q"))
}

func TestPromptStore_Load_UnwritableDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))

	store, err := NewPromptStore(filepath.Join(blocker, "prompts"))
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptChatSystem)
	require.NoError(t, err)
	assert.Contains(t, prompt, "helpful data assistant")

	_, err = store.Load("unknown")
	assert.ErrorContains(t, err, "creating prompt directory")
}

func TestPromptStore_Load_SummarizeDefaults(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	mapPrompt, err := store.Load(driven.PromptSummarizeMap)
	require.NoError(t, err)
	assert.Contains(t, fmt.Sprintf(mapPrompt, "a,1"), "\n\na,1\n\nCONCISE SUMMARY:")

	reduce, err := store.Load(driven.PromptSummarizeReduce)
	require.NoError(t, err)
	assert.Contains(t, fmt.Sprintf(reduce, "one\n\ntwo"), "Keep key figures")
}

func TestValidatePrompt(t *testing.T) {
	tests := []struct {
		name    string
		prompt  string
		wantErr bool
	}{
		{name: driven.PromptChatSystem, prompt: "Be terse.", wantErr: false},
		{name: driven.PromptChatSystem, prompt: "", wantErr: true},
		{name: driven.PromptChatUser, prompt: "C: %s Q: %s", wantErr: false},
		{name: driven.PromptChatUser, prompt: "Q: %[2]s C: %[1]s", wantErr: false},
		{name: driven.PromptChatUser, prompt: "Q: %s", wantErr: true},
		{name: driven.PromptChatUser, prompt: "C: %s Q: %s extra: %s", wantErr: true},
		{name: driven.PromptChatUser, prompt: "no placeholders", wantErr: true},
		{name: driven.PromptSummarizeMap, prompt: "Summarize: %s", wantErr: false},
		{name: driven.PromptSummarizeMap, prompt: "Summarize the file.", wantErr: true},
		{name: driven.PromptSummarizeReduce, prompt: "Merge: %s and %s", wantErr: true},
		{name: driven.PromptSummarizeReduce, prompt: "Merge:\n%s", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.prompt, func(t *testing.T) {
			err := validatePrompt(tt.name, tt.prompt)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPrompt)
				return
			}
			assert.NoError(t, err)
		})
	}
}
