package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sheetrag/internal/adapters/driven/storage/storetest"
	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
)

func testAddr(t *testing.T) string {
	t.Helper()
	addr := os.Getenv("SHEETRAG_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SHEETRAG_TEST_REDIS_ADDR not set")
	}
	return addr
}

func newTestStore(t *testing.T, ttl time.Duration) *HistoryStore {
	t.Helper()
	s, err := New(context.Background(), Config{
		Addr:      testAddr(t),
		TTL:       ttl,
		KeyPrefix: "sheetrag-test:" + uuid.NewString() + ":",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNew_RequiresAddr(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.ErrorContains(t, err, "address is required")
}

func TestNew_Unreachable(t *testing.T) {
	_, err := New(context.Background(), Config{Addr: "127.0.0.1:1"})
	assert.ErrorContains(t, err, "redis ping")
}

func TestHistoryStore_Contract(t *testing.T) {
	testAddr(t)
	storetest.RunHistoryStore(t, func(t *testing.T) driven.HistoryStore {
		return newTestStore(t, 0)
	})
}

func TestHistoryStore_TTL(t *testing.T) {
	s := newTestStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "s1", []domain.Turn{{Role: domain.RoleUser, Content: "q"}}))

	ttl, err := s.rdb.TTL(ctx, s.key("s1")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
