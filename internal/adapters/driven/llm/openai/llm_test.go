package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewLLMService(LLMConfig{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)
	return svc
}

func TestNewLLMService_RequiresAPIKey(t *testing.T) {
	_, err := NewLLMService(LLMConfig{})
	assert.Error(t, err)
}

func TestNewLLMService_Defaults(t *testing.T) {
	svc, err := NewLLMService(LLMConfig{APIKey: "k"})
	require.NoError(t, err)

	assert.Equal(t, DefaultLLMModel, svc.ModelName())
	assert.Equal(t, DefaultBaseURL, svc.baseURL)
	assert.NoError(t, svc.Close())
}

func TestComplete(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))

		var req completionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 4)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "assistant", req.Messages[2].Role)
		assert.Equal(t, completionMessage{Role: "user", Content: "What is b?"}, req.Messages[3])
		assert.Equal(t, 128, req.MaxTokens)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"It is 2."}}]}`))
	})

	out, err := svc.Complete(context.Background(), driven.Completion{
		System: "You are a helpful data assistant.",
		History: []domain.Turn{
			{Role: domain.RoleUser, Content: "What is a?"},
			{Role: domain.RoleAssistant, Content: "It is 1."},
		},
		Prompt:    "What is b?",
		MaxTokens: 128,
	})
	require.NoError(t, err)
	assert.Equal(t, "It is 2.", out)
}

func TestComplete_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "api error", status: http.StatusTooManyRequests, body: `{"error":{"message":"rate limited","type":"rate_limit"}}`, wantErr: "rate limited"},
		{name: "non json error", status: http.StatusBadGateway, body: `upstream down`, wantErr: "status 502"},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantErr: "no response choices"},
		{name: "bad json", status: http.StatusOK, body: `{`, wantErr: "decode response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := svc.Complete(context.Background(), driven.Completion{Prompt: "hi"})
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestPing(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/models", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer k" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	})

	assert.NoError(t, svc.Ping(context.Background()))

	svc.apiKey = "wrong"
	assert.ErrorContains(t, svc.Ping(context.Background()), "status 401")
}
