package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"briefly/backend/internal/config"
)

func TestGoogleCSESearchCapsRequestedCount(t *testing.T) {
	var receivedNum string
	var receivedCx string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedNum = r.URL.Query().Get("num")
		receivedCx = r.URL.Query().Get("cx")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
		  "items": [
		    {"title":"Tech News","link":"https://technews.example.com","snippet":"Snippet"},
		    {"title":"No Link","link":"","snippet":"dropped"}
		  ]
		}`))
	}))
	defer server.Close()

	client := NewGoogleCSE(config.Config{
		GoogleSearchAPIKey:   "google-key",
		GoogleSearchEngineID: "engine-id",
		GoogleSearchBaseURL:  server.URL,
	}, server.Client())

	results, err := client.Search(context.Background(), "tech news", 25)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if receivedNum != "10" {
		t.Fatalf("expected num capped at 10, got %q", receivedNum)
	}
	if receivedCx != "engine-id" {
		t.Fatalf("unexpected engine id: %q", receivedCx)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Provider != "google_api" {
		t.Fatalf("unexpected provider tag: %q", results[0].Provider)
	}
}

func TestGoogleCSESearchRequiresCredentials(t *testing.T) {
	client := NewGoogleCSE(config.Config{GoogleSearchBaseURL: "https://example.com"}, nil)

	if _, err := client.Search(context.Background(), "x", 3); err != ErrMissingAPIKey {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}
