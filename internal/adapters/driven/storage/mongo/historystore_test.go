package mongo

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sheetrag/internal/adapters/driven/storage/storetest"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
)

func testURI(t *testing.T) string {
	t.Helper()
	uri := os.Getenv("SHEETRAG_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("SHEETRAG_TEST_MONGO_URI not set")
	}
	return uri
}

func TestNew_RequiresURI(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.ErrorContains(t, err, "URI is required")
}

func TestHistoryStore_Contract(t *testing.T) {
	uri := testURI(t)
	storetest.RunHistoryStore(t, func(t *testing.T) driven.HistoryStore {
		s, err := New(context.Background(), Config{
			URI:        uri,
			Database:   "sheetrag_test",
			Collection: "history_" + uuid.NewString(),
		})
		require.NoError(t, err)
		t.Cleanup(func() {
			_ = s.coll.Drop(context.Background())
			_ = s.Close()
		})
		return s
	})
}
