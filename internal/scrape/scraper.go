package scrape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"
)

const (
	defaultRequestTimeout   = 20 * time.Second
	defaultMaxBodyBytes     = int64(1_500_000)
	defaultMaxRedirects     = 3
	defaultFetchConcurrency = 4
	defaultUserAgent        = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

	minHeadlineRunes = 25
)

// Article is the single shape both scraper variants (feed items and
// scraped HTML pages) normalize into.
type Article struct {
	Title       string
	Summary     string
	URL         string
	Author      string
	ImageURL    string
	PublishedAt *time.Time
}

type Config struct {
	RequestTimeout   time.Duration
	MaxBytes         int64
	MaxRedirects     int
	FetchConcurrency int
}

type Scraper struct {
	cfg        Config
	httpClient *http.Client
}

func NewScraper(cfg Config, httpClient *http.Client) *Scraper {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxBodyBytes
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = defaultMaxRedirects
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = defaultFetchConcurrency
	}

	if httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.DialContext = secureDialContext(&net.Dialer{Timeout: cfg.RequestTimeout})
		httpClient = &http.Client{Transport: transport}
	}

	httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= cfg.MaxRedirects {
			return fmt.Errorf("too many redirects")
		}
		if _, err := validateScrapeURL(req.URL.String()); err != nil {
			return err
		}
		return nil
	}

	return &Scraper{cfg: cfg, httpClient: httpClient}
}

// ScrapeHomepage extracts up to limit recent articles from a source
// homepage. A detected RSS/Atom feed is preferred because feed items
// carry reliable publish dates; otherwise headline links are scraped
// individually.
func (s *Scraper) ScrapeHomepage(ctx context.Context, rawURL string, limit int) ([]Article, error) {
	if limit <= 0 {
		limit = 5
	}

	parsed, err := validateScrapeURL(rawURL)
	if err != nil {
		return nil, err
	}

	body, err := s.fetch(ctx, parsed.String())
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse homepage html: %w", err)
	}

	if feedURL := findFeedLink(doc, parsed); feedURL != "" {
		articles, feedErr := s.articlesFromFeed(ctx, feedURL, limit)
		if feedErr == nil && len(articles) > 0 {
			return articles, nil
		}
	}

	links := collectArticleLinks(doc, parsed, limit)
	if len(links) == 0 {
		return nil, nil
	}

	return s.scrapeArticles(ctx, links)
}

// DetectFeed probes the homepage for an advertised RSS/Atom feed and
// verifies the target actually parses as one. Best-effort.
func (s *Scraper) DetectFeed(ctx context.Context, rawURL string) (string, error) {
	parsed, err := validateScrapeURL(rawURL)
	if err != nil {
		return "", err
	}

	body, err := s.fetch(ctx, parsed.String())
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse homepage html: %w", err)
	}

	feedURL := findFeedLink(doc, parsed)
	if feedURL == "" {
		return "", nil
	}

	feedBody, err := s.fetch(ctx, feedURL)
	if err != nil {
		return "", err
	}
	if _, err := gofeed.NewParser().Parse(bytes.NewReader(feedBody)); err != nil {
		return "", fmt.Errorf("parse feed: %w", err)
	}
	return feedURL, nil
}

// Close releases pooled connections. Safe to call on any exit path.
func (s *Scraper) Close() {
	if s != nil && s.httpClient != nil {
		s.httpClient.CloseIdleConnections()
	}
}

func (s *Scraper) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	requestCtx := ctx
	cancel := func() {}
	if s.cfg.RequestTimeout > 0 {
		requestCtx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
	}
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build scrape request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/rss+xml,application/atom+xml,application/xml;q=0.9,*/*;q=0.2")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, s.cfg.MaxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return payload, nil
}

func (s *Scraper) articlesFromFeed(ctx context.Context, feedURL string, limit int) ([]Article, error) {
	body, err := s.fetch(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	articles := make([]Article, 0, limit)
	for _, item := range feed.Items {
		if len(articles) >= limit {
			break
		}
		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)
		if title == "" || link == "" {
			continue
		}

		article := Article{
			Title:   title,
			Summary: strings.TrimSpace(item.Description),
			URL:     link,
		}
		if item.PublishedParsed != nil {
			published := item.PublishedParsed.UTC()
			article.PublishedAt = &published
		} else if item.UpdatedParsed != nil {
			updated := item.UpdatedParsed.UTC()
			article.PublishedAt = &updated
		}
		if len(item.Authors) > 0 && item.Authors[0] != nil {
			article.Author = strings.TrimSpace(item.Authors[0].Name)
		}
		if item.Image != nil {
			article.ImageURL = strings.TrimSpace(item.Image.URL)
		}
		articles = append(articles, article)
	}
	return articles, nil
}

func (s *Scraper) scrapeArticles(ctx context.Context, links []string) ([]Article, error) {
	scraped := make([]*Article, len(links))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.cfg.FetchConcurrency)
	for i, link := range links {
		group.Go(func() error {
			article, err := s.scrapeArticle(groupCtx, link)
			if err != nil {
				// A single unreadable article page is not fatal for the source.
				return nil
			}
			scraped[i] = &article
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	articles := make([]Article, 0, len(links))
	for _, article := range scraped {
		if article != nil {
			articles = append(articles, *article)
		}
	}
	return articles, nil
}

func (s *Scraper) scrapeArticle(ctx context.Context, rawURL string) (Article, error) {
	body, err := s.fetch(ctx, rawURL)
	if err != nil {
		return Article{}, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Article{}, fmt.Errorf("parse article html: %w", err)
	}

	article := Article{
		URL:      rawURL,
		Title:    firstNonEmpty(metaContent(doc, `meta[property="og:title"]`), strings.TrimSpace(doc.Find("title").First().Text())),
		Summary:  firstNonEmpty(metaContent(doc, `meta[property="og:description"]`), metaContent(doc, `meta[name="description"]`), strings.TrimSpace(doc.Find("article p, main p, p").First().Text())),
		Author:   metaContent(doc, `meta[name="author"]`),
		ImageURL: metaContent(doc, `meta[property="og:image"]`),
	}
	if article.Title == "" {
		return Article{}, fmt.Errorf("no title found at %s", rawURL)
	}

	rawTime := firstNonEmpty(
		metaContent(doc, `meta[property="article:published_time"]`),
		metaContent(doc, `meta[name="date"]`),
		strings.TrimSpace(doc.Find("time[datetime]").First().AttrOr("datetime", "")),
	)
	if published, ok := parseArticleTime(rawTime); ok {
		article.PublishedAt = &published
	}
	return article, nil
}

func metaContent(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().AttrOr("content", ""))
}

func findFeedLink(doc *goquery.Document, base *url.URL) string {
	for _, selector := range []string{
		`link[type="application/rss+xml"]`,
		`link[type="application/atom+xml"]`,
	} {
		href := strings.TrimSpace(doc.Find(selector).First().AttrOr("href", ""))
		if href == "" {
			continue
		}
		resolved, err := base.Parse(href)
		if err != nil {
			continue
		}
		if _, err := validateScrapeURL(resolved.String()); err != nil {
			continue
		}
		return resolved.String()
	}
	return ""
}

// collectArticleLinks picks same-host anchors whose text looks like a
// headline rather than navigation chrome.
func collectArticleLinks(doc *goquery.Document, base *url.URL, limit int) []string {
	links := make([]string, 0, limit)
	seen := make(map[string]struct{}, limit)

	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.Join(strings.Fields(sel.Text()), " ")
		if utf8.RuneCountInString(text) < minHeadlineRunes {
			return true
		}

		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return true
		}
		resolved, err := base.Parse(href)
		if err != nil {
			return true
		}
		if !strings.EqualFold(resolved.Hostname(), base.Hostname()) {
			return true
		}
		resolved.Fragment = ""

		key := resolved.String()
		if _, ok := seen[key]; ok {
			return true
		}
		seen[key] = struct{}{}
		links = append(links, key)
		return len(links) < limit
	})

	return links
}

func parseArticleTime(raw string) (time.Time, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
		time.RFC1123Z,
		time.RFC1123,
	} {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
