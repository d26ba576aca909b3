package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestChunk_Fields tests Chunk structure fields
func TestChunk_Fields(t *testing.T) {
	chunk := Chunk{
		ID:          "chunk-1",
		UploadID:    "upload-1",
		Text:        "b,2",
		StartOffset: 0,
		Metadata:    map[string]string{MetaRow: "1"},
	}

	assert.Equal(t, "chunk-1", chunk.ID)
	assert.Equal(t, "upload-1", chunk.UploadID)
	assert.Equal(t, "b,2", chunk.Text)
	assert.Equal(t, 0, chunk.StartOffset)
	assert.Equal(t, "1", chunk.Metadata[MetaRow])
}

func TestIndexedVector_Fields(t *testing.T) {
	iv := IndexedVector{
		Chunk:     Chunk{ID: "c1", UploadID: "u1"},
		Embedding: []float32{0.1, 0.2},
		Seq:       7,
	}

	assert.Equal(t, "u1", iv.Chunk.UploadID)
	assert.Len(t, iv.Embedding, 2)
	assert.Equal(t, int64(7), iv.Seq)
}
