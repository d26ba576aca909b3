// Package storetest holds behaviour tests shared by every vector and
// history store backend.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
)

// Vector builds an IndexedVector for uploadID with the given embedding.
func Vector(id, uploadID, text string, embedding ...float32) domain.IndexedVector {
	return domain.IndexedVector{
		Chunk: domain.Chunk{
			ID:       id,
			UploadID: uploadID,
			Text:     text,
			Metadata: map[string]string{domain.MetaSource: "test.csv"},
		},
		Embedding: embedding,
	}
}

// RunVectorStore exercises the driven.VectorStore contract. newStore must
// return an empty store; it is called once per subtest.
func RunVectorStore(t *testing.T, newStore func(t *testing.T) driven.VectorStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("query ranks by similarity", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Upsert(ctx, []domain.IndexedVector{
			Vector("c1", "u1", "a,1", 1, 0, 0),
			Vector("c2", "u1", "b,2", 0, 1, 0),
			Vector("c3", "u1", "c,3", 0, 0, 1),
		}))

		results, err := s.Query(ctx, []float32{0, 1, 0}, "u1", 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "b,2", results[0].Chunk.Text)
		assert.Equal(t, "u1", results[0].Chunk.UploadID)
		assert.Equal(t, "test.csv", results[0].Chunk.Metadata[domain.MetaSource])
		assert.InDelta(t, 1.0, results[0].Score, 1e-5)
	})

	t.Run("filter by upload before ranking", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Upsert(ctx, []domain.IndexedVector{
			Vector("a1", "A", "exact match in A", 1, 0),
		}))
		require.NoError(t, s.Upsert(ctx, []domain.IndexedVector{
			Vector("b1", "B", "weak match in B", 0.1, 1),
		}))

		results, err := s.Query(ctx, []float32{1, 0}, "B", 5)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "weak match in B", results[0].Chunk.Text)
	})

	t.Run("unknown upload yields empty", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Upsert(ctx, []domain.IndexedVector{Vector("x", "u1", "x", 1)}))

		results, err := s.Query(ctx, []float32{1}, "nope", 5)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("ties keep insertion order", func(t *testing.T) {
		s := newStore(t)
		for i := range 4 {
			id := fmt.Sprintf("t%d", i)
			require.NoError(t, s.Upsert(ctx, []domain.IndexedVector{Vector(id, "u1", id, 1, 1)}))
		}

		results, err := s.Query(ctx, []float32{1, 1}, "u1", 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"t0", "t1", "t2"}, domain.Texts(results))
	})

	t.Run("non-positive k means five", func(t *testing.T) {
		s := newStore(t)
		var vectors []domain.IndexedVector
		for i := range 7 {
			vectors = append(vectors, Vector(fmt.Sprintf("k%d", i), "u1", "row", 1, float32(i)))
		}
		require.NoError(t, s.Upsert(ctx, vectors))

		results, err := s.Query(ctx, []float32{1, 1}, "u1", 0)
		require.NoError(t, err)
		assert.Len(t, results, domain.DefaultTopK)
	})

	t.Run("delete is idempotent and scoped", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Upsert(ctx, []domain.IndexedVector{
			Vector("d1", "gone", "gone", 1, 0),
			Vector("d2", "kept", "kept", 1, 0),
		}))

		require.NoError(t, s.DeleteByUpload(ctx, "gone"))
		require.NoError(t, s.DeleteByUpload(ctx, "gone"))
		require.NoError(t, s.DeleteByUpload(ctx, "never-existed"))

		results, err := s.Query(ctx, []float32{1, 0}, "gone", 5)
		require.NoError(t, err)
		assert.Empty(t, results)

		results, err = s.Query(ctx, []float32{1, 0}, "kept", 5)
		require.NoError(t, err)
		assert.Equal(t, []string{"kept"}, domain.Texts(results))
	})

	t.Run("has upload tracks the tag", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Upsert(ctx, []domain.IndexedVector{Vector("h1", "here", "row", 1, 0)}))

		found, err := s.HasUpload(ctx, "here")
		require.NoError(t, err)
		assert.True(t, found)

		found, err = s.HasUpload(ctx, "her")
		require.NoError(t, err)
		assert.False(t, found, "prefix of another upload")

		require.NoError(t, s.DeleteByUpload(ctx, "here"))
		found, err = s.HasUpload(ctx, "here")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("upsert replaces existing chunk", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Upsert(ctx, []domain.IndexedVector{Vector("r1", "u1", "old", 1, 0)}))
		require.NoError(t, s.Upsert(ctx, []domain.IndexedVector{Vector("r1", "u1", "new", 1, 0)}))

		results, err := s.Query(ctx, []float32{1, 0}, "u1", 5)
		require.NoError(t, err)
		assert.Equal(t, []string{"new"}, domain.Texts(results))
	})

	t.Run("concurrent uploads all land", func(t *testing.T) {
		s := newStore(t)
		const uploads, perUpload = 8, 20

		errs := make([]error, uploads)
		var wg sync.WaitGroup
		for u := range uploads {
			wg.Add(1)
			go func() {
				defer wg.Done()
				uploadID := fmt.Sprintf("u%d", u)
				vectors := make([]domain.IndexedVector, perUpload)
				for i := range vectors {
					vectors[i] = Vector(fmt.Sprintf("%s-c%d", uploadID, i), uploadID, uploadID, 1, float32(i))
				}
				errs[u] = s.Upsert(ctx, vectors)
			}()
		}
		wg.Wait()

		for u, err := range errs {
			require.NoError(t, err, "upload u%d", u)
		}
		for u := range uploads {
			uploadID := fmt.Sprintf("u%d", u)
			results, err := s.Query(ctx, []float32{1, 1}, uploadID, perUpload)
			require.NoError(t, err)
			require.Len(t, results, perUpload, uploadID)
			for _, r := range results {
				assert.Equal(t, uploadID, r.Chunk.UploadID)
			}
		}
	})
}

// RunHistoryStore exercises the driven.HistoryStore contract.
func RunHistoryStore(t *testing.T, newStore func(t *testing.T) driven.HistoryStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("unknown session is empty", func(t *testing.T) {
		s := newStore(t)

		turns, err := s.Get(ctx, "missing")
		require.NoError(t, err)
		assert.NotNil(t, turns)
		assert.Empty(t, turns)
	})

	t.Run("save then get round trips", func(t *testing.T) {
		s := newStore(t)
		want := []domain.Turn{
			{Role: domain.RoleUser, Content: "What is b?"},
			{Role: domain.RoleAssistant, Content: "b is 2."},
		}

		require.NoError(t, s.Save(ctx, "s1", want))

		got, err := s.Get(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("save replaces", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save(ctx, "s1", []domain.Turn{{Role: domain.RoleUser, Content: "one"}}))
		require.NoError(t, s.Save(ctx, "s1", []domain.Turn{{Role: domain.RoleUser, Content: "two"}}))

		got, err := s.Get(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, []domain.Turn{{Role: domain.RoleUser, Content: "two"}}, got)
	})

	t.Run("sessions are independent", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save(ctx, "s1", []domain.Turn{{Role: domain.RoleUser, Content: "one"}}))

		got, err := s.Get(ctx, "s2")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save(ctx, "s1", []domain.Turn{{Role: domain.RoleUser, Content: "one"}}))

		require.NoError(t, s.Delete(ctx, "s1"))
		require.NoError(t, s.Delete(ctx, "s1"))

		got, err := s.Get(ctx, "s1")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
