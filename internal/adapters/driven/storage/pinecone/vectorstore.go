// Package pinecone provides a vector store backed by a Pinecone index,
// using the REST data plane directly.
//
// Pinecone has no transactions. Upserts are sent in batches and a failed
// ingest is cleaned up by deleting the upload. Vector IDs are prefixed with
// the upload ID so deletes can list them by prefix.
package pinecone

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

const (
	upsertBatch = 500
	deleteBatch = 1000

	idSeparator = "#"

	keyUploadID    = "upload_id"
	keyText        = "text"
	keyStartOffset = "start_offset"
	keySeq         = "seq"
	metaPrefix     = "meta_"
)

// Config holds index settings.
type Config struct {
	// APIKey is the Pinecone API key (required).
	APIKey string

	// Host is the index host, with or without scheme (required).
	Host string

	// Namespace scopes all records (default: "default").
	Namespace string

	// APIVersion is sent as X-Pinecone-Api-Version.
	APIVersion string

	// Timeout bounds each request (default: 30s).
	Timeout time.Duration
}

// VectorStore implements driven.VectorStore over one Pinecone namespace.
type VectorStore struct {
	client    *client
	namespace string
	seq       atomic.Int64
}

// New validates cfg and returns a store. No request is made.
func New(cfg Config) (*VectorStore, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("pinecone: API key is required")
	}
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, fmt.Errorf("pinecone: index host is required")
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "default"
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	s := &VectorStore{
		client:    newClient(cfg.Host, cfg.APIKey, cfg.APIVersion, cfg.Timeout),
		namespace: cfg.Namespace,
	}
	// Millisecond base keeps sequence numbers exact as JSON numbers and
	// ordered across restarts.
	s.seq.Store(time.Now().UnixMilli() * 1000)
	return s, nil
}

// Upsert sends vectors in batches, in order.
func (s *VectorStore) Upsert(ctx context.Context, vectors []domain.IndexedVector) error {
	for start := 0; start < len(vectors); start += upsertBatch {
		end := min(start+upsertBatch, len(vectors))

		records := make([]vector, 0, end-start)
		for _, v := range vectors[start:end] {
			records = append(records, s.toRecord(v))
		}
		if err := s.client.upsert(ctx, upsertRequest{Vectors: records, Namespace: s.namespace}); err != nil {
			return err
		}
	}
	return nil
}

// DeleteByUpload lists the upload's IDs by prefix and deletes them.
func (s *VectorStore) DeleteByUpload(ctx context.Context, uploadID string) error {
	prefix := uploadID + idSeparator
	var ids []string
	token := ""
	for {
		page, err := s.client.list(ctx, s.namespace, prefix, token)
		if err != nil {
			return err
		}
		for _, v := range page.Vectors {
			ids = append(ids, v.ID)
		}
		if page.Pagination == nil || page.Pagination.Next == "" {
			break
		}
		token = page.Pagination.Next
	}

	for start := 0; start < len(ids); start += deleteBatch {
		end := min(start+deleteBatch, len(ids))
		if err := s.client.delete(ctx, deleteRequest{IDs: ids[start:end], Namespace: s.namespace}); err != nil {
			return err
		}
	}
	return nil
}

// HasUpload lists the first page of the upload's ID prefix.
func (s *VectorStore) HasUpload(ctx context.Context, uploadID string) (bool, error) {
	page, err := s.client.list(ctx, s.namespace, uploadID+idSeparator, "")
	if err != nil {
		return false, err
	}
	return len(page.Vectors) > 0, nil
}

// Query asks the index for the k nearest records, filtered by upload
// when uploadID is set, and re-sorts equal scores by sequence.
func (s *VectorStore) Query(ctx context.Context, query []float32, uploadID string, k int) ([]domain.SearchResult, error) {
	req := queryRequest{
		Namespace:       s.namespace,
		Vector:          query,
		TopK:            domain.NormaliseK(k),
		IncludeMetadata: true,
	}
	if uploadID != "" {
		req.Filter = map[string]any{keyUploadID: map[string]any{"$eq": uploadID}}
	}

	resp, err := s.client.query(ctx, req)
	if err != nil {
		return nil, err
	}

	type ranked struct {
		result domain.SearchResult
		seq    int64
	}
	matches := make([]ranked, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		chunk, seq := fromMetadata(m.ID, m.Metadata)
		matches = append(matches, ranked{result: domain.SearchResult{Chunk: chunk, Score: m.Score}, seq: seq})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].result.Score != matches[j].result.Score {
			return matches[i].result.Score > matches[j].result.Score
		}
		return matches[i].seq < matches[j].seq
	})

	out := make([]domain.SearchResult, len(matches))
	for i, m := range matches {
		out[i] = m.result
	}
	return out, nil
}

// Ping checks the index is reachable.
func (s *VectorStore) Ping(ctx context.Context) error {
	return s.client.describeStats(ctx)
}

// Close releases resources.
func (s *VectorStore) Close() error {
	return nil
}

func (s *VectorStore) toRecord(v domain.IndexedVector) vector {
	md := map[string]any{
		keyUploadID:    v.Chunk.UploadID,
		keyText:        v.Chunk.Text,
		keyStartOffset: v.Chunk.StartOffset,
		keySeq:         s.seq.Add(1),
	}
	for k, val := range v.Chunk.Metadata {
		md[metaPrefix+k] = val
	}
	return vector{
		ID:       v.Chunk.UploadID + idSeparator + v.Chunk.ID,
		Values:   v.Embedding,
		Metadata: md,
	}
}

func fromMetadata(id string, md map[string]any) (domain.Chunk, int64) {
	chunk := domain.Chunk{ID: id, Metadata: map[string]string{}}
	if i := strings.Index(id, idSeparator); i >= 0 {
		chunk.ID = id[i+len(idSeparator):]
	}

	var seq int64
	for k, v := range md {
		switch k {
		case keyUploadID:
			chunk.UploadID, _ = v.(string)
		case keyText:
			chunk.Text, _ = v.(string)
		case keyStartOffset:
			if f, ok := v.(float64); ok {
				chunk.StartOffset = int(f)
			}
		case keySeq:
			if f, ok := v.(float64); ok {
				seq = int64(f)
			}
		default:
			if name, ok := strings.CutPrefix(k, metaPrefix); ok {
				switch val := v.(type) {
				case string:
					chunk.Metadata[name] = val
				case float64:
					chunk.Metadata[name] = strconv.FormatFloat(val, 'f', -1, 64)
				}
			}
		}
	}
	return chunk, seq
}
