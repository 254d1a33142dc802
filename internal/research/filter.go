package research

import (
	"net/url"
	"strings"

	"briefly/backend/internal/search"
)

// Candidate is a not-yet-validated site discovered from one search
// batch. Its identity is the base domain, so several deep links into
// the same site collapse to a single validation unit.
type Candidate struct {
	BaseDomain        string
	RepresentativeURL string
	TitleHint         string
}

// FilterCandidates keeps the first result per unseen base domain and
// marks every kept domain as seen immediately, so duplicates within
// the same batch collapse too.
func FilterCandidates(results []search.Result, seen map[string]struct{}) []Candidate {
	candidates := make([]Candidate, 0, len(results))
	for _, result := range results {
		domain := baseDomain(result.Link)
		if domain == "" {
			continue
		}
		if _, ok := seen[domain]; ok {
			continue
		}
		seen[domain] = struct{}{}
		candidates = append(candidates, Candidate{
			BaseDomain:        domain,
			RepresentativeURL: strings.TrimSpace(result.Link),
			TitleHint:         strings.TrimSpace(result.Title),
		})
	}
	return candidates
}

// baseDomain reduces a URL to scheme://host, the dedup key for the
// whole run. Unparseable or schemeless links yield "".
func baseDomain(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + strings.ToLower(parsed.Host)
}

func sourceNameFromCandidate(candidate Candidate) string {
	if candidate.TitleHint != "" {
		return candidate.TitleHint
	}
	parsed, err := url.Parse(candidate.BaseDomain)
	if err != nil || parsed.Host == "" {
		return candidate.BaseDomain
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}
