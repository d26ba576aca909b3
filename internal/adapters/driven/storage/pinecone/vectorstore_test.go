package pinecone

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sheetrag/internal/adapters/driven/storage/storetest"
	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
)

// fakeIndex is an in-process stand-in for a Pinecone index host.
type fakeIndex struct {
	mu       sync.Mutex
	order    []string
	records  map[string]vector
	pageSize int
	apiKeys  []string
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{records: map[string]vector{}, pageSize: 2}
}

func (f *fakeIndex) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apiKeys = append(f.apiKeys, r.Header.Get("Api-Key"))

	switch r.URL.Path {
	case "/vectors/upsert":
		var req upsertRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, v := range req.Vectors {
			if _, ok := f.records[v.ID]; !ok {
				f.order = append(f.order, v.ID)
			}
			f.records[v.ID] = v
		}
		_ = json.NewEncoder(w).Encode(upsertResponse{UpsertedCount: int64(len(req.Vectors))})

	case "/query":
		var req queryRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		want := ""
		if eq, ok := req.Filter[keyUploadID].(map[string]any); ok {
			want, _ = eq["$eq"].(string)
		}
		var matches []queryMatch
		for _, id := range f.order {
			v := f.records[id]
			if want != "" && v.Metadata[keyUploadID] != want {
				continue
			}
			score, _ := domain.CosineSimilarity(req.Vector, v.Values)
			md, _ := json.Marshal(v.Metadata)
			var decoded map[string]any
			_ = json.Unmarshal(md, &decoded)
			matches = append(matches, queryMatch{ID: id, Score: score, Metadata: decoded})
		}
		sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
		if len(matches) > req.TopK {
			matches = matches[:req.TopK]
		}
		_ = json.NewEncoder(w).Encode(queryResponse{Matches: matches})

	case "/vectors/list":
		prefix := r.URL.Query().Get("prefix")
		start, _ := strconv.Atoi(r.URL.Query().Get("paginationToken"))
		var ids []string
		for _, id := range f.order {
			if strings.HasPrefix(id, prefix) {
				ids = append(ids, id)
			}
		}
		resp := map[string]any{}
		var page []map[string]string
		end := min(start+f.pageSize, len(ids))
		for _, id := range ids[min(start, len(ids)):end] {
			page = append(page, map[string]string{"id": id})
		}
		resp["vectors"] = page
		if end < len(ids) {
			resp["pagination"] = map[string]string{"next": strconv.Itoa(end)}
		}
		_ = json.NewEncoder(w).Encode(resp)

	case "/vectors/delete":
		var req deleteRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, id := range req.IDs {
			delete(f.records, id)
		}
		kept := f.order[:0]
		for _, id := range f.order {
			if _, ok := f.records[id]; ok {
				kept = append(kept, id)
			}
		}
		f.order = kept
		_, _ = w.Write([]byte(`{}`))

	case "/describe_index_stats":
		_, _ = w.Write([]byte(`{"namespaces":{}}`))

	default:
		http.NotFound(w, r)
	}
}

func newTestStore(t *testing.T) (*VectorStore, *fakeIndex) {
	t.Helper()
	index := newFakeIndex()
	server := httptest.NewServer(index)
	t.Cleanup(server.Close)

	s, err := New(Config{APIKey: "pc-key", Host: server.URL})
	require.NoError(t, err)
	return s, index
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Host: "h"})
	assert.ErrorContains(t, err, "API key")

	_, err = New(Config{APIKey: "k"})
	assert.ErrorContains(t, err, "host")
}

func TestVectorStore_Contract(t *testing.T) {
	storetest.RunVectorStore(t, func(t *testing.T) driven.VectorStore {
		s, _ := newTestStore(t)
		return s
	})
}

func TestVectorStore_IDsPrefixedAndKeySent(t *testing.T) {
	s, index := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []domain.IndexedVector{storetest.Vector("c1", "u1", "row", 1)}))

	_, ok := index.records["u1#c1"]
	assert.True(t, ok)
	assert.Equal(t, "pc-key", index.apiKeys[0])
}

func TestVectorStore_DeletePaginates(t *testing.T) {
	s, index := newTestStore(t)
	ctx := context.Background()

	var vectors []domain.IndexedVector
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		vectors = append(vectors, storetest.Vector(id, "u1", id, 1))
	}
	require.NoError(t, s.Upsert(ctx, vectors))

	require.NoError(t, s.DeleteByUpload(ctx, "u1"))
	assert.Empty(t, index.records)
}

func TestVectorStore_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid key"}`))
	}))
	defer server.Close()

	s, err := New(Config{APIKey: "bad", Host: server.URL})
	require.NoError(t, err)

	_, err = s.Query(context.Background(), []float32{1}, "u1", 1)
	assert.ErrorContains(t, err, "http 401")
	assert.Error(t, s.Ping(context.Background()))
}

func TestFromMetadata(t *testing.T) {
	chunk, seq := fromMetadata("u1#c1", map[string]any{
		keyUploadID:    "u1",
		keyText:        "b,2",
		keyStartOffset: float64(3),
		keySeq:         float64(7),
		"meta_source":  "data.csv",
		"meta_row":     float64(2),
		"other":        "ignored",
	})

	assert.Equal(t, "c1", chunk.ID)
	assert.Equal(t, "u1", chunk.UploadID)
	assert.Equal(t, "b,2", chunk.Text)
	assert.Equal(t, 3, chunk.StartOffset)
	assert.Equal(t, int64(7), seq)
	assert.Equal(t, map[string]string{"source": "data.csv", "row": "2"}, chunk.Metadata)
}
