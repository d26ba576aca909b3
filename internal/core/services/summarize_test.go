package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driving"
	"github.com/custodia-labs/sheetrag/internal/loaders"
	"github.com/custodia-labs/sheetrag/internal/postprocessors/chunker"
)

// echoLLM answers every completion with "sum[<prompt>]".
type echoLLM struct {
	calls atomic.Int32
	err   error
}

func (l *echoLLM) Complete(_ context.Context, req driven.Completion) (string, error) {
	l.calls.Add(1)
	if l.err != nil {
		return "", l.err
	}
	return " sum[" + req.Prompt + "] ", nil
}

func (l *echoLLM) ModelName() string { return "echo" }

func (l *echoLLM) Ping(_ context.Context) error { return nil }

func (l *echoLLM) Close() error { return nil }

func newSummarizeFixture(llm driven.LLMService, cfg SummarizeConfig, opts ...chunker.Option) *SummarizeService {
	svc := NewSummarizeService(loaders.NewDefaultRegistry(domain.LoaderSettings{}), chunker.New(opts...), llm, cfg)
	svc.SetPromptStore(staticPrompts{
		driven.PromptSummarizeMap:    "%s",
		driven.PromptSummarizeReduce: "R:%s",
	})
	return svc
}

func TestSummarizeService_MapThenReduce(t *testing.T) {
	llm := &echoLLM{}
	svc := newSummarizeFixture(llm, SummarizeConfig{})

	summary, err := svc.Summarize(context.Background(), driving.SummarizeRequest{
		Filename: "data.csv",
		Data:     []byte(sampleCSV),
	})
	require.NoError(t, err)

	assert.Equal(t, "data.csv", summary.Filename)
	assert.Equal(t, "sum[R:sum[a,1]\n\nsum[b,2]\n\nsum[c,3]]", summary.Text)
	assert.Equal(t, 3, summary.Chunks)
	assert.Equal(t, 4, summary.Calls)
	assert.Equal(t, int32(4), llm.calls.Load())
}

func TestSummarizeService_SingleChunkSkipsReduce(t *testing.T) {
	llm := &echoLLM{}
	svc := newSummarizeFixture(llm, SummarizeConfig{})

	summary, err := svc.Summarize(context.Background(), driving.SummarizeRequest{
		Filename: "one.csv",
		Data:     []byte("a,1\n"),
	})
	require.NoError(t, err)

	assert.Equal(t, "sum[a,1]", summary.Text)
	assert.Equal(t, 1, summary.Calls)
}

func TestSummarizeService_ReducesInRounds(t *testing.T) {
	llm := &echoLLM{}
	svc := newSummarizeFixture(llm, SummarizeConfig{ReduceChars: 10, Concurrency: 2})

	summary, err := svc.Summarize(context.Background(), driving.SummarizeRequest{
		Filename: "rows.csv",
		Data:     []byte("a,1\nb,2\nc,3\nd,4\ne,5\n"),
	})
	require.NoError(t, err)

	// 5 map calls, then rounds of 3, 2 and 1 reduce calls.
	assert.Equal(t, 11, summary.Calls)
	assert.Equal(t, int32(11), llm.calls.Load())
	assert.Contains(t, summary.Text, "sum[e,5]")
	assert.Contains(t, summary.Text, "sum[a,1]")
}

func TestSummarizeService_FromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	summary, err := newSummarizeFixture(&echoLLM{}, SummarizeConfig{}).
		Summarize(context.Background(), driving.SummarizeRequest{Path: path})
	require.NoError(t, err)

	assert.Equal(t, "rows.csv", summary.Filename)
	assert.Equal(t, 3, summary.Chunks)
}

func TestSummarizeService_NoLLM(t *testing.T) {
	svc := NewSummarizeService(loaders.NewDefaultRegistry(domain.LoaderSettings{}), chunker.New(), nil, SummarizeConfig{})

	_, err := svc.Summarize(context.Background(), driving.SummarizeRequest{Filename: "data.csv", Data: []byte(sampleCSV)})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestSummarizeService_Failures(t *testing.T) {
	t.Run("missing file name", func(t *testing.T) {
		_, err := newSummarizeFixture(&echoLLM{}, SummarizeConfig{}).
			Summarize(context.Background(), driving.SummarizeRequest{Data: []byte(sampleCSV)})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("unsupported format fails at load", func(t *testing.T) {
		llm := &echoLLM{}
		_, err := newSummarizeFixture(llm, SummarizeConfig{}).
			Summarize(context.Background(), driving.SummarizeRequest{Filename: "notes.txt", Data: []byte("x")})
		assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
		assert.Equal(t, domain.StageLoad, domain.StageOf(err))
		assert.Zero(t, llm.calls.Load())
	})

	t.Run("bad chunk settings fail at split", func(t *testing.T) {
		_, err := newSummarizeFixture(&echoLLM{}, SummarizeConfig{}, chunker.WithChunkSize(100), chunker.WithOverlap(150)).
			Summarize(context.Background(), driving.SummarizeRequest{Filename: "data.csv", Data: []byte(sampleCSV)})
		assert.ErrorIs(t, err, domain.ErrConfig)
		assert.Equal(t, domain.StageSplit, domain.StageOf(err))
	})

	t.Run("llm failure fails at summarize", func(t *testing.T) {
		llm := &echoLLM{err: errors.New("rate limited")}
		_, err := newSummarizeFixture(llm, SummarizeConfig{}).
			Summarize(context.Background(), driving.SummarizeRequest{Filename: "data.csv", Data: []byte(sampleCSV)})
		assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
		assert.Equal(t, domain.StageSummarize, domain.StageOf(err))
		assert.ErrorContains(t, err, "rate limited")
	})
}

func TestSummarizeService_DefaultPrompts(t *testing.T) {
	llm := new(MockLLMService)
	llm.On("Complete", mock.Anything, driven.Completion{
		Prompt:    "Write a concise summary of the following:\n\na,1\n\nCONCISE SUMMARY:",
		MaxTokens: 256,
	}).Return("one row", nil).Once()

	svc := NewSummarizeService(loaders.NewDefaultRegistry(domain.LoaderSettings{}), chunker.New(), llm,
		SummarizeConfig{MaxTokens: 256})

	summary, err := svc.Summarize(context.Background(), driving.SummarizeRequest{Filename: "one.csv", Data: []byte("a,1\n")})
	require.NoError(t, err)

	assert.Equal(t, "one row", summary.Text)
	llm.AssertExpectations(t)
}

func TestGroupByLength(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
		limit int
		want  [][]string
	}{
		{"all fit", []string{"aa", "bb", "cc"}, 100, [][]string{{"aa", "bb", "cc"}}},
		{"split on limit", []string{"aaaa", "bbbb", "cccc", "dddd"}, 10, [][]string{{"aaaa", "bbbb"}, {"cccc", "dddd"}}},
		{"oversized parts still pair", []string{"aaaaaaaa", "bbbbbbbb", "cccccccc"}, 4, [][]string{{"aaaaaaaa", "bbbbbbbb"}, {"cccccccc"}}},
		{"single", []string{"aa"}, 1, [][]string{{"aa"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, groupByLength(tt.parts, tt.limit))
		})
	}
}
