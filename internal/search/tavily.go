package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"briefly/backend/internal/config"
)

type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e APIError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Tavily queries the Tavily search API.
type Tavily struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewTavily(cfg config.Config, httpClient *http.Client) Tavily {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return Tavily{
		apiKey:     strings.TrimSpace(cfg.TavilyAPIKey),
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.TavilyBaseURL), "/"),
		httpClient: httpClient,
	}
}

func (t Tavily) Name() string { return "tavily" }

type tavilyAPIRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type tavilyAPIResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

func (t Tavily) Search(ctx context.Context, query string, count int) ([]Result, error) {
	if t.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	payload, err := json.Marshal(tavilyAPIRequest{
		APIKey:      t.apiKey,
		Query:       query,
		SearchDepth: "basic",
		MaxResults:  count,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal tavily request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build tavily request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request tavily: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, APIError{
			Provider:   t.Name(),
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var parsed tavilyAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode tavily response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Results))
	for _, item := range parsed.Results {
		link := strings.TrimSpace(item.URL)
		if link == "" {
			continue
		}
		results = append(results, Result{
			Title:    strings.TrimSpace(item.Title),
			Link:     link,
			Snippet:  strings.TrimSpace(item.Content),
			Provider: t.Name(),
		})
		if len(results) >= count {
			break
		}
	}
	return results, nil
}
