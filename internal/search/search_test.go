package search

import (
	"context"
	"errors"
	"testing"
)

type providerStub struct {
	name    string
	results []Result
	err     error
	calls   int
}

func (p *providerStub) Name() string { return p.name }

func (p *providerStub) Search(_ context.Context, _ string, _ int) ([]Result, error) {
	p.calls++
	return p.results, p.err
}

func TestSearchFallsThroughToFirstNonEmptyProvider(t *testing.T) {
	primary := &providerStub{name: "primary", err: errors.New("quota exceeded")}
	secondary := &providerStub{name: "secondary", results: []Result{
		{Title: "A", Link: "https://a.example.com"},
		{Title: "B", Link: "https://b.example.com"},
		{Title: "C", Link: "https://c.example.com"},
	}}
	scrape := &providerStub{name: "scrape", results: []Result{{Title: "X", Link: "https://x.example.com"}}}

	service := NewServiceWithProviders(primary, secondary, scrape)

	results := service.Search(context.Background(), "x", 5)
	if len(results) != 3 {
		t.Fatalf("expected 3 results from secondary, got %d", len(results))
	}
	if scrape.calls != 0 {
		t.Fatalf("expected scrape fallback to stay unused, got %d calls", scrape.calls)
	}
}

func TestSearchEmptyChainYieldsEmptyList(t *testing.T) {
	primary := &providerStub{name: "primary", err: errors.New("down")}
	fallback := &providerStub{name: "fallback"}

	service := NewServiceWithProviders(primary, fallback)

	if results := service.Search(context.Background(), "x", 5); len(results) != 0 {
		t.Fatalf("expected empty result list, got %d", len(results))
	}
	if fallback.calls != 1 {
		t.Fatalf("expected fallback to be consulted once, got %d calls", fallback.calls)
	}
}

func TestSearchSkipsEmptyQuery(t *testing.T) {
	primary := &providerStub{name: "primary", results: []Result{{Title: "A", Link: "https://a.example.com"}}}

	service := NewServiceWithProviders(primary)

	if results := service.Search(context.Background(), "   ", 5); results != nil {
		t.Fatalf("expected nil results for blank query, got %v", results)
	}
	if primary.calls != 0 {
		t.Fatalf("expected no provider calls for blank query, got %d", primary.calls)
	}
}
