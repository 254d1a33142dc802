package search

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"briefly/backend/internal/config"
)

const maxErrorBodyBytes = 8 * 1024

var ErrMissingAPIKey = errors.New("search api key is not configured")

// Result is one normalized search hit, in provider-native ranking order.
type Result struct {
	Title    string
	Link     string
	Snippet  string
	Provider string
}

type Provider interface {
	Name() string
	Search(ctx context.Context, query string, count int) ([]Result, error)
}

// Service runs the provider fallback chain: first non-empty success wins.
// A chain-wide failure yields an empty slice, never an error.
type Service struct {
	providers []Provider
}

func NewService(cfg config.Config, httpClient *http.Client) Service {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	providers := make([]Provider, 0, 3)
	if strings.TrimSpace(cfg.TavilyAPIKey) != "" {
		providers = append(providers, NewTavily(cfg, httpClient))
	}
	if strings.TrimSpace(cfg.GoogleSearchAPIKey) != "" && strings.TrimSpace(cfg.GoogleSearchEngineID) != "" {
		providers = append(providers, NewGoogleCSE(cfg, httpClient))
	}
	providers = append(providers, NewDuckDuckGo(cfg, httpClient))

	return Service{providers: providers}
}

func NewServiceWithProviders(providers ...Provider) Service {
	return Service{providers: providers}
}

func (s Service) Search(ctx context.Context, query string, count int) []Result {
	trimmedQuery := strings.TrimSpace(query)
	if trimmedQuery == "" {
		return nil
	}
	if count <= 0 {
		count = 5
	}

	for _, provider := range s.providers {
		results, err := provider.Search(ctx, trimmedQuery, count)
		if err != nil {
			log.Printf("search provider failed: provider=%s err=%v", provider.Name(), err)
			continue
		}
		if len(results) > 0 {
			return results
		}
	}
	return nil
}
