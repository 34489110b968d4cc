// Package search provides a web search tool backed by the Tavily API.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/specialistvlad/burstplan/internal/ctxlog"
	"github.com/specialistvlad/burstplan/internal/registry"
	"github.com/zclconf/go-cty/cty"
	"golang.org/x/time/rate"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

const (
	defaultBaseURL    = "https://api.tavily.com/search"
	defaultMaxResults = 2
	defaultRPS        = 1.0
)

const description = `search(query: str) -> list[{url: str, content: str}]
 - A search engine. Useful for when you need to answer questions about current events.
 - Returns a short list of web results. The content of a result is a text blob, not a number.
 - Pass results to other actions as context rather than as numeric values.`

// ErrNoAPIKey is returned when no Tavily key is configured.
var ErrNoAPIKey = errors.New("TAVILY_API_KEY is not set")

// Tool queries Tavily.
type Tool struct {
	client     *http.Client
	limiter    *rate.Limiter
	apiKey     string
	baseURL    string
	maxResults int
	depth      string
}

func (t *Tool) Name() string        { return "search" }
func (t *Tool) Description() string { return description }

// New builds the tool from its settings: max_results, requests_per_second,
// search_depth, base_url and api_key (defaults to TAVILY_API_KEY).
func New(_ context.Context, deps registry.Deps, settings registry.Args) (registry.Tool, error) {
	maxResults, err := settings.Int(defaultMaxResults, "max_results")
	if err != nil {
		return nil, err
	}
	if maxResults < 1 {
		return nil, fmt.Errorf("max_results must be at least 1, got %d", maxResults)
	}
	rps, err := settings.Float(defaultRPS, "requests_per_second")
	if err != nil {
		return nil, err
	}
	if rps <= 0 {
		return nil, fmt.Errorf("requests_per_second must be positive, got %v", rps)
	}

	apiKey := ""
	if deps.Env != nil {
		apiKey = deps.Env.TavilyKey
	}
	client := deps.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &Tool{
		client:     client,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		apiKey:     settings.StringOr(apiKey, "api_key"),
		baseURL:    settings.StringOr(defaultBaseURL, "base_url"),
		maxResults: maxResults,
		depth:      settings.StringOr("basic", "search_depth"),
	}, nil
}

type searchResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Invoke implements registry.Tool.
func (t *Tool) Invoke(ctx context.Context, args registry.Args) (cty.Value, error) {
	query, err := args.String("query", "arg0")
	if err != nil {
		return cty.NilVal, err
	}
	if t.apiKey == "" {
		return cty.NilVal, ErrNoAPIKey
	}

	logger := ctxlog.FromContext(ctx)
	if err := t.limiter.Wait(ctx); err != nil {
		return cty.NilVal, fmt.Errorf("waiting for rate limiter: %w", err)
	}
	logger.Info("Searching the web", "query", query, "max_results", t.maxResults)

	payload, err := json.Marshal(map[string]any{
		"query":               query,
		"search_depth":        t.depth,
		"include_answer":      false,
		"include_images":      false,
		"include_raw_content": false,
		"max_results":         t.maxResults,
	})
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL, bytes.NewReader(payload))
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return cty.NilVal, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return cty.NilVal, fmt.Errorf("tavily api error (status %d): %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return cty.NilVal, fmt.Errorf("failed to parse response: %w", err)
	}

	results := make([]cty.Value, 0, min(len(sr.Results), t.maxResults))
	for i, r := range sr.Results {
		if i >= t.maxResults {
			break
		}
		results = append(results, cty.ObjectVal(map[string]cty.Value{
			"url":     cty.StringVal(r.URL),
			"content": cty.StringVal(r.Content),
		}))
	}
	logger.Debug("Search finished", "results", len(results))
	if len(results) == 0 {
		return cty.EmptyTupleVal, nil
	}
	return cty.TupleVal(results), nil
}

// Register registers the tool with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTool("search", &registry.RegisteredTool{
		Description: description,
		New:         New,
	})
}
