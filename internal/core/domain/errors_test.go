package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedFormat", ErrUnsupportedFormat},
		{"ErrDecode", ErrDecode},
		{"ErrConfig", ErrConfig},
		{"ErrStore", ErrStore},
		{"ErrNoUpload", ErrNoUpload},
		{"ErrIngestInProgress", ErrIngestInProgress},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrNotFound(t *testing.T) {
	assert.Equal(t, "not found", ErrNotFound.Error())
	assert.True(t, errors.Is(ErrNotFound, ErrNotFound))
	assert.False(t, errors.Is(ErrNotFound, ErrStore))
}

func TestStageError_Error(t *testing.T) {
	err := NewStageError(StageLoad, "u1", fmt.Errorf("%w: .txt", ErrUnsupportedFormat))

	assert.Equal(t, "load: unsupported format: .txt", err.Error())
}

func TestStageError_Unwrap(t *testing.T) {
	tests := []struct {
		name     string
		stage    Stage
		sentinel error
	}{
		{"load decode", StageLoad, ErrDecode},
		{"split config", StageSplit, ErrConfig},
		{"store failure", StageStore, ErrStore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewStageError(tt.stage, "u1", fmt.Errorf("wrapped: %w", tt.sentinel))

			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, tt.stage, StageOf(err))

			var se *StageError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, "u1", se.UploadID)
		})
	}
}

func TestNewStageError_Nil(t *testing.T) {
	assert.NoError(t, NewStageError(StageStore, "u1", nil))
}

func TestStageOf_NoStage(t *testing.T) {
	assert.Equal(t, Stage(""), StageOf(errors.New("plain")))
	assert.Equal(t, Stage(""), StageOf(nil))
}

func TestStageOf_WrappedTwice(t *testing.T) {
	err := fmt.Errorf("ingest: %w", NewStageError(StageSplit, "u1", ErrConfig))

	assert.Equal(t, StageSplit, StageOf(err))
}
