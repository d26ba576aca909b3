package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sheetrag/internal/adapters/driven/embedding/hashing"
)

func TestWrap_Disabled(t *testing.T) {
	next := hashing.NewEmbeddingService(8)

	assert.Same(t, next, Wrap(next, 0))
}

func TestEmbed_BurstAllowed(t *testing.T) {
	svc := Wrap(hashing.NewEmbeddingService(8), 2)
	ctx := context.Background()

	start := time.Now()
	for range 2 {
		_, err := svc.Embed(ctx, "x")
		require.NoError(t, err)
	}
	assert.Less(t, time.Since(start), 250*time.Millisecond)
}

func TestEmbedBatch_CancelledWhileWaiting(t *testing.T) {
	svc := Wrap(hashing.NewEmbeddingService(8), 0.1)

	_, err := svc.EmbedBatch(context.Background(), []string{"a"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = svc.EmbedBatch(ctx, []string{"b"})
	assert.Error(t, err)
}

func TestDelegates(t *testing.T) {
	svc := Wrap(hashing.NewEmbeddingService(8), 5)

	assert.Equal(t, 8, svc.Dimensions())
	assert.Equal(t, "hashing-8", svc.ModelName())
	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
}
