package search

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"briefly/backend/internal/config"

	"github.com/PuerkitoBio/goquery"
)

const duckDuckGoUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// DuckDuckGo scrapes the html.duckduckgo.com results page. It is the
// last resort of the chain: any non-200 response or parse failure is
// reported as zero results, not as an error.
type DuckDuckGo struct {
	baseURL    string
	httpClient *http.Client
}

func NewDuckDuckGo(cfg config.Config, httpClient *http.Client) DuckDuckGo {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return DuckDuckGo{
		baseURL:    strings.TrimSpace(cfg.DuckDuckGoBaseURL),
		httpClient: httpClient,
	}
}

func (d DuckDuckGo) Name() string { return "ddg_scrape" }

func (d DuckDuckGo) Search(ctx context.Context, query string, count int) ([]Result, error) {
	form := url.Values{}
	form.Set("q", query)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, nil
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("User-Agent", duckDuckGoUserAgent)

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, nil
	}

	results := make([]Result, 0, count)
	doc.Find(".result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		linkTag := sel.Find(".result__a").First()
		link := strings.TrimSpace(linkTag.AttrOr("href", ""))
		title := strings.TrimSpace(linkTag.Text())
		if link == "" || title == "" {
			return true
		}

		results = append(results, Result{
			Title:    title,
			Link:     resolveDuckDuckGoLink(link),
			Snippet:  strings.TrimSpace(sel.Find(".result__snippet").First().Text()),
			Provider: d.Name(),
		})
		return len(results) < count
	})

	return results, nil
}

// resolveDuckDuckGoLink unwraps the //duckduckgo.com/l/?uddg= redirect
// wrapper some result pages apply.
func resolveDuckDuckGoLink(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if !strings.Contains(parsed.Host, "duckduckgo.com") && parsed.Host != "" {
		return raw
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		if unwrapped, err := url.QueryUnescape(target); err == nil {
			return unwrapped
		}
		return target
	}
	return raw
}
