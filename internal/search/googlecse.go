package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"briefly/backend/internal/config"
)

// The Custom Search JSON API returns at most 10 results per call.
const googleCSEMaxResults = 10

// GoogleCSE queries the Google Custom Search JSON API.
type GoogleCSE struct {
	apiKey     string
	engineID   string
	baseURL    string
	httpClient *http.Client
}

func NewGoogleCSE(cfg config.Config, httpClient *http.Client) GoogleCSE {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return GoogleCSE{
		apiKey:     strings.TrimSpace(cfg.GoogleSearchAPIKey),
		engineID:   strings.TrimSpace(cfg.GoogleSearchEngineID),
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.GoogleSearchBaseURL), "/"),
		httpClient: httpClient,
	}
}

func (g GoogleCSE) Name() string { return "google_api" }

type googleCSEAPIResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

func (g GoogleCSE) Search(ctx context.Context, query string, count int) ([]Result, error) {
	if g.apiKey == "" || g.engineID == "" {
		return nil, ErrMissingAPIKey
	}
	if count > googleCSEMaxResults {
		count = googleCSEMaxResults
	}

	endpoint, err := url.Parse(g.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse google search endpoint: %w", err)
	}
	params := endpoint.Query()
	params.Set("key", g.apiKey)
	params.Set("cx", g.engineID)
	params.Set("q", query)
	params.Set("num", fmt.Sprintf("%d", count))
	endpoint.RawQuery = params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build google search request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request google search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, APIError{
			Provider:   g.Name(),
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var parsed googleCSEAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode google search response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}
		results = append(results, Result{
			Title:    strings.TrimSpace(item.Title),
			Link:     link,
			Snippet:  strings.TrimSpace(item.Snippet),
			Provider: g.Name(),
		})
		if len(results) >= count {
			break
		}
	}
	return results, nil
}
