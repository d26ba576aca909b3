package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_Seeded(t *testing.T) {
	seed := map[string]any{"store.backend": "sqlite", "chunking.size": 800}
	store := NewConfigStore(seed)

	assert.Equal(t, "sqlite", store.GetString("store.backend"))
	assert.Equal(t, 800, store.GetInt("chunking.size"))

	// The seed map is copied.
	seed["store.backend"] = "pinecone"
	assert.Equal(t, "sqlite", store.GetString("store.backend"))
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	_, ok := store.Get("retrieval.k")
	assert.False(t, ok)

	require.NoError(t, store.Set("retrieval.k", 0))
	val, ok := store.Get("retrieval.k")
	assert.True(t, ok)
	assert.Equal(t, 0, val)

	require.NoError(t, store.Set("retrieval.k", 8))
	assert.Equal(t, 8, store.GetInt("retrieval.k"))
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore(map[string]any{
		"chunking.size":       int64(1000),
		"llm.temperature":     "0.3",
		"loader.csv_header":   "true",
		"store.timeout":       "60s",
		"embedding.cache_ttl": 2 * time.Hour,
		"llm.model":           42,
	})

	tests := []struct {
		name string
		got  any
		want any
	}{
		{name: "int from int64", got: store.GetInt("chunking.size"), want: 1000},
		{name: "float from string", got: store.GetFloat("llm.temperature"), want: 0.3},
		{name: "bool from string", got: store.GetBool("loader.csv_header"), want: true},
		{name: "duration from string", got: store.GetDuration("store.timeout"), want: time.Minute},
		{name: "duration value", got: store.GetDuration("embedding.cache_ttl"), want: 2 * time.Hour},
		{name: "string wrong type", got: store.GetString("llm.model"), want: ""},
		{name: "missing int", got: store.GetInt("missing"), want: 0},
		{name: "missing bool", got: store.GetBool("missing"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestConfigStore_NoOps(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("a", 1))

	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, 1, store.GetInt("a"))
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set(fmt.Sprintf("key.%d", i), i)
		}()
		go func() {
			defer wg.Done()
			_ = store.GetInt(fmt.Sprintf("key.%d", i))
		}()
	}
	wg.Wait()

	for i := range 20 {
		assert.Equal(t, i, store.GetInt(fmt.Sprintf("key.%d", i)))
	}
}
