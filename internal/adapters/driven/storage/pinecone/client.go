package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Default client settings.
const (
	DefaultAPIVersion = "2025-04"
	DefaultTimeout    = 30 * time.Second
)

// vector is a data-plane record.
type vector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type upsertRequest struct {
	Vectors   []vector `json:"vectors"`
	Namespace string   `json:"namespace,omitempty"`
}

type upsertResponse struct {
	UpsertedCount int64 `json:"upsertedCount"`
}

type queryRequest struct {
	Namespace       string         `json:"namespace,omitempty"`
	Vector          []float32      `json:"vector"`
	TopK            int            `json:"topK"`
	Filter          map[string]any `json:"filter,omitempty"`
	IncludeMetadata bool           `json:"includeMetadata"`
}

type queryMatch struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type queryResponse struct {
	Matches []queryMatch `json:"matches"`
}

type listResponse struct {
	Vectors []struct {
		ID string `json:"id"`
	} `json:"vectors"`
	Pagination *struct {
		Next string `json:"next"`
	} `json:"pagination,omitempty"`
}

type deleteRequest struct {
	IDs       []string `json:"ids"`
	Namespace string   `json:"namespace,omitempty"`
}

// client talks to one index host over the REST data plane.
type client struct {
	http       *http.Client
	baseURL    string
	apiKey     string
	apiVersion string
}

func newClient(host, apiKey, apiVersion string, timeout time.Duration) *client {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	return &client{
		http:       &http.Client{Timeout: timeout},
		baseURL:    host,
		apiKey:     apiKey,
		apiVersion: apiVersion,
	}
}

func (c *client) upsert(ctx context.Context, req upsertRequest) error {
	_, err := doJSON[upsertResponse](ctx, c, http.MethodPost, "/vectors/upsert", req)
	return err
}

func (c *client) query(ctx context.Context, req queryRequest) (*queryResponse, error) {
	return doJSON[queryResponse](ctx, c, http.MethodPost, "/query", req)
}

func (c *client) list(ctx context.Context, namespace, prefix, token string) (*listResponse, error) {
	q := url.Values{}
	q.Set("prefix", prefix)
	if namespace != "" {
		q.Set("namespace", namespace)
	}
	if token != "" {
		q.Set("paginationToken", token)
	}
	return doJSON[listResponse](ctx, c, http.MethodGet, "/vectors/list?"+q.Encode(), nil)
}

func (c *client) delete(ctx context.Context, req deleteRequest) error {
	_, err := doJSON[struct{}](ctx, c, http.MethodPost, "/vectors/delete", req)
	return err
}

func (c *client) describeStats(ctx context.Context) error {
	_, err := doJSON[map[string]any](ctx, c, http.MethodPost, "/describe_index_stats", struct{}{})
	return err
}

func doJSON[T any](ctx context.Context, c *client, method, path string, body any) (*T, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("pinecone: encode request: %w", err)
		}
		reader = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("pinecone: create request: %w", err)
	}
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("X-Pinecone-Api-Version", c.apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pinecone: send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("pinecone: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("pinecone: http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out T
	if len(bytes.TrimSpace(raw)) == 0 {
		return &out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("pinecone: decode response: %w", err)
	}
	return &out, nil
}
