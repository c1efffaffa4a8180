// Package pinecone provides a vector index adapter over the Pinecone
// serverless REST data plane.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/arkive-labs/docchat/internal/core/domain"
	"github.com/arkive-labs/docchat/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// DefaultTimeout is the request timeout.
const DefaultTimeout = 30 * time.Second

// Config holds configuration for the Pinecone index.
type Config struct {
	// APIKey is the Pinecone API key (required).
	APIKey string

	// Host is the index host, e.g. my-index-abc123.svc.aped-4627-b74a.pinecone.io
	// (required). The scheme may be omitted.
	Host string

	// Namespace is the optional index namespace.
	Namespace string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Index talks to one Pinecone index over its data-plane REST API.
type Index struct {
	client    *http.Client
	host      string
	apiKey    string
	namespace string
}

// Request/response formats for the Pinecone data plane.

type vectorRecord struct {
	ID       string            `json:"id"`
	Values   []float32         `json:"values"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type upsertRequest struct {
	Vectors   []vectorRecord `json:"vectors"`
	Namespace string         `json:"namespace,omitempty"`
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
	Namespace       string    `json:"namespace,omitempty"`
}

type queryResponse struct {
	Matches []struct {
		ID       string            `json:"id"`
		Score    float64           `json:"score"`
		Metadata map[string]string `json:"metadata"`
	} `json:"matches"`
}

type deleteRequest struct {
	Filter    map[string]any `json:"filter"`
	Namespace string         `json:"namespace,omitempty"`
}

// New creates a Pinecone index client.
func New(cfg Config) (*Index, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("pinecone: API key is required")
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("pinecone: index host is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	host := cfg.Host
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}

	return &Index{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		host:      strings.TrimRight(host, "/"),
		apiKey:    cfg.APIKey,
		namespace: cfg.Namespace,
	}, nil
}

// Upsert writes entries keyed by chunk id.
func (x *Index) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	vectors := make([]vectorRecord, len(entries))
	for i, e := range entries {
		vectors[i] = vectorRecord{
			ID:     e.ID,
			Values: e.Vector,
			Metadata: map[string]string{
				"source":    e.Metadata.Source,
				"pageRange": e.Metadata.PageRange,
				"text":      e.Metadata.Text,
			},
		}
	}

	return x.post(ctx, "/vectors/upsert", upsertRequest{
		Vectors:   vectors,
		Namespace: x.namespace,
	}, nil)
}

// Query returns the topK nearest entries, highest score first.
// Pinecone already orders matches by descending score.
func (x *Index) Query(ctx context.Context, vector []float32, topK int) ([]domain.Match, error) {
	var resp queryResponse
	err := x.post(ctx, "/query", queryRequest{
		Vector:          vector,
		TopK:            topK,
		IncludeMetadata: true,
		Namespace:       x.namespace,
	}, &resp)
	if err != nil {
		return nil, err
	}

	matches := make([]domain.Match, len(resp.Matches))
	for i, m := range resp.Matches {
		matches[i] = domain.Match{
			Text:      m.Metadata["text"],
			Score:     m.Score,
			Source:    m.Metadata["source"],
			PageRange: m.Metadata["pageRange"],
		}
	}
	return matches, nil
}

// DeleteBySource removes all vectors whose metadata source matches
// exactly, via Pinecone's metadata-filtered delete.
func (x *Index) DeleteBySource(ctx context.Context, source string) error {
	return x.post(ctx, "/vectors/delete", deleteRequest{
		Filter: map[string]any{
			"source": map[string]any{"$eq": source},
		},
		Namespace: x.namespace,
	}, nil)
}

// Close releases resources.
func (x *Index) Close() error {
	return nil
}

// post issues one JSON request against the data plane and decodes the
// response into out when non-nil.
func (x *Index) post(ctx context.Context, path string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("pinecone: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, x.host+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("pinecone: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", x.apiKey)

	resp, err := x.client.Do(req)
	if err != nil {
		return fmt.Errorf("pinecone: send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("pinecone: read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("pinecone: %s returned status %d: %s", path, resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("pinecone: decode response: %w", err)
		}
	}
	return nil
}
