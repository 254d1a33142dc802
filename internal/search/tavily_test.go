package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"briefly/backend/internal/config"
)

func TestTavilySearchReturnsResults(t *testing.T) {
	var receivedBody tavilyAPIRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&receivedBody); err != nil {
			t.Errorf("decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
		  "results": [
		    {"title":"AI Weekly","url":"https://aiweekly.example.com","content":"Snippet A"},
		    {"title":"","url":"","content":"dropped"},
		    {"title":"ML Digest","url":"https://mldigest.example.com","content":"Snippet B"}
		  ]
		}`))
	}))
	defer server.Close()

	client := NewTavily(config.Config{
		TavilyAPIKey:  "tavily-key",
		TavilyBaseURL: server.URL,
	}, server.Client())

	results, err := client.Search(context.Background(), "ai news sites", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if receivedBody.APIKey != "tavily-key" {
		t.Fatalf("expected api key in payload, got %q", receivedBody.APIKey)
	}
	if receivedBody.Query != "ai news sites" {
		t.Fatalf("unexpected query: %q", receivedBody.Query)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results after dropping empty link, got %d", len(results))
	}
	if results[0].Link != "https://aiweekly.example.com" || results[0].Provider != "tavily" {
		t.Fatalf("unexpected first result: %+v", results[0])
	}
}

func TestTavilySearchSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewTavily(config.Config{
		TavilyAPIKey:  "tavily-key",
		TavilyBaseURL: server.URL,
	}, server.Client())

	_, err := client.Search(context.Background(), "x", 3)
	apiErr, ok := err.(APIError)
	if !ok {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("unexpected status code: %d", apiErr.StatusCode)
	}
}

func TestTavilySearchRequiresAPIKey(t *testing.T) {
	client := NewTavily(config.Config{TavilyBaseURL: "https://api.tavily.com"}, nil)

	if _, err := client.Search(context.Background(), "x", 3); err != ErrMissingAPIKey {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}
