// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

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

	"go.uber.org/zap"

	"github.com/pdiddy/creative-writer/internal/httputil"
	"github.com/pdiddy/creative-writer/pkg/types"
)

const selectFields = "id,title,content,url"

// REST queries a remote hybrid search service over its documents search API.
// The client is safe for concurrent use.
type REST struct {
	Client *http.Client
	cfg    types.SearchConfig
	log    *zap.Logger
}

// NewREST builds a REST searcher from a validated search config. A nil
// client gets one with the configured timeout.
func NewREST(cfg types.SearchConfig, client *http.Client, logger *zap.Logger) *REST {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	return &REST{Client: client, cfg: cfg, log: logger}
}

// Search runs one hybrid query: the text drives the lexical and semantic
// legs, the embedding the vector leg.
func (s *REST) Search(ctx context.Context, item types.EmbeddedQuery, indexName string) ([]types.SearchResult, error) {
	body, err := json.Marshal(s.request(item))
	if err != nil {
		return nil, fmt.Errorf("encoding search request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/indexes/%s/docs/search?%s",
		s.cfg.Endpoint, url.PathEscape(indexName), url.Values{"api-version": {s.cfg.APIVersion}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", s.cfg.APIKey)
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}

	start := time.Now()
	resp, err := httputil.DoWithRetry(ctx, s.Client, req, s.cfg.MaxRetries, s.log)
	if err != nil {
		return nil, fmt.Errorf("%w: search request: %v", types.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if err := statusError(resp, indexName); err != nil {
		return nil, err
	}

	var sr restResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("%w: parsing search response: %v", types.ErrUpstreamUnavailable, err)
	}

	results := make([]types.SearchResult, 0, len(sr.Value))
	for _, d := range sr.Value {
		results = append(results, types.SearchResult{
			ID:      d.ID,
			Title:   d.Title,
			Content: d.Content,
			URL:     d.URL,
		})
	}
	if len(results) > Top {
		results = results[:Top]
	}

	s.log.Debug("search complete",
		zap.String("index", indexName),
		zap.String("query", item.Text),
		zap.Int("results", len(results)),
		zap.Duration("elapsed", time.Since(start)))
	return results, nil
}

func (s *REST) request(item types.EmbeddedQuery) restRequest {
	return restRequest{
		Search: item.Text,
		VectorQueries: []vectorQuery{{
			Kind:   "vector",
			Vector: item.Embedding,
			K:      NearestNeighbors,
			Fields: s.cfg.VectorField,
		}},
		QueryType:             "semantic",
		SemanticConfiguration: s.cfg.SemanticConfiguration,
		Captions:              "extractive",
		Answers:               "extractive",
		Top:                   Top,
		Select:                selectFields,
	}
}

// statusError maps non-2xx responses onto the package's error kinds.
func statusError(resp *http.Response, indexName string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(detail))

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %q", types.ErrIndexNotFound, indexName)
	}
	if msg != "" {
		return fmt.Errorf("%w: search service returned HTTP %d: %s", types.ErrUpstreamUnavailable, resp.StatusCode, msg)
	}
	return fmt.Errorf("%w: search service returned HTTP %d", types.ErrUpstreamUnavailable, resp.StatusCode)
}

// Search service JSON structures.
type restRequest struct {
	Search                string        `json:"search"`
	VectorQueries         []vectorQuery `json:"vectorQueries"`
	QueryType             string        `json:"queryType"`
	SemanticConfiguration string        `json:"semanticConfiguration,omitempty"`
	Captions              string        `json:"captions"`
	Answers               string        `json:"answers"`
	Top                   int           `json:"top"`
	Select                string        `json:"select"`
}

type vectorQuery struct {
	Kind   string    `json:"kind"`
	Vector []float32 `json:"vector"`
	K      int       `json:"k"`
	Fields string    `json:"fields"`
}

type restResponse struct {
	Value []restDocument `json:"value"`
}

type restDocument struct {
	Score         float64 `json:"@search.score"`
	RerankerScore float64 `json:"@search.rerankerScore"`
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	URL           string  `json:"url"`
}
