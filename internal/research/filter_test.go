package research

import (
	"testing"

	"briefly/backend/internal/search"
)

func TestFilterCandidatesCollapsesBatchDuplicates(t *testing.T) {
	seen := make(map[string]struct{})
	results := []search.Result{
		{Title: "One", Link: "https://news.example.com/a"},
		{Title: "Two", Link: "https://News.Example.com/b"},
		{Title: "Three", Link: "https://other.example.org/c"},
		{Title: "Bad", Link: "not a url"},
		{Title: "NoScheme", Link: "example.com/d"},
	}

	candidates := FilterCandidates(results, seen)
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].BaseDomain != "https://news.example.com" {
		t.Fatalf("unexpected first domain: %q", candidates[0].BaseDomain)
	}
	if candidates[0].TitleHint != "One" {
		t.Fatalf("expected first link to win the title hint, got %q", candidates[0].TitleHint)
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 seen domains, got %d", len(seen))
	}
}

func TestFilterCandidatesHonorsSeenSet(t *testing.T) {
	seen := map[string]struct{}{"https://news.example.com": {}}
	results := []search.Result{{Title: "One", Link: "https://news.example.com/a"}}

	if candidates := FilterCandidates(results, seen); len(candidates) != 0 {
		t.Fatalf("expected seen domain to be skipped, got %d candidates", len(candidates))
	}
}

func TestBaseDomainKeepsScheme(t *testing.T) {
	if got := baseDomain("http://site.example.com/path?q=1#frag"); got != "http://site.example.com" {
		t.Fatalf("unexpected base domain: %q", got)
	}
	if got := baseDomain("ftp://site.example.com"); got != "" {
		t.Fatalf("expected non-http scheme to be dropped, got %q", got)
	}
}

func TestSourceNameFromCandidateFallsBackToHost(t *testing.T) {
	name := sourceNameFromCandidate(Candidate{BaseDomain: "https://www.example.com"})
	if name != "example.com" {
		t.Fatalf("unexpected name: %q", name)
	}
}
