package scrape

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func htmlResponse(req *http.Request, body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"text/html"}},
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}
}

func xmlResponse(req *http.Request, body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/rss+xml"}},
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}
}

const homepageWithFeed = `<html><head>
<link rel="alternate" type="application/rss+xml" href="/rss.xml">
</head><body>
<a href="/news/story-one">A long enough headline about the first story</a>
</body></html>`

const homepageWithoutFeed = `<html><body>
<nav><a href="/about">About</a></nav>
<a href="/news/story-one">A long enough headline about the first story</a>
<a href="/news/story-two">Another long enough headline about the second story</a>
<a href="/news/story-one#comments">A long enough headline about the first story again</a>
<a href="https://other.example.org/elsewhere">An offsite headline that should never be collected</a>
</body></html>`

const feedBody = `<?xml version="1.0"?>
<rss version="2.0"><channel>
<title>Example News</title>
<item>
  <title>Feed Story One</title>
  <link>https://example.com/news/feed-one</link>
  <description>First summary</description>
  <pubDate>Mon, 02 Jun 2025 10:00:00 +0000</pubDate>
</item>
<item>
  <title>Feed Story Two</title>
  <link>https://example.com/news/feed-two</link>
  <description>Second summary</description>
</item>
</channel></rss>`

const articlePage = `<html><head>
<title>Fallback Title</title>
<meta property="og:title" content="Story One Headline">
<meta property="og:description" content="Story one summary.">
<meta property="article:published_time" content="2025-06-01T09:30:00Z">
<meta name="author" content="Ada Writer">
</head><body><p>Body text.</p></body></html>`

func newTestScraper(rt roundTripFunc) *Scraper {
	return NewScraper(Config{RequestTimeout: 2 * time.Second}, &http.Client{Transport: rt})
}

func TestScrapeHomepagePrefersDetectedFeed(t *testing.T) {
	scraper := newTestScraper(func(req *http.Request) (*http.Response, error) {
		switch req.URL.Path {
		case "/":
			return htmlResponse(req, homepageWithFeed), nil
		case "/rss.xml":
			return xmlResponse(req, feedBody), nil
		default:
			t.Errorf("unexpected fetch of %s", req.URL)
			return htmlResponse(req, ""), nil
		}
	})
	defer scraper.Close()

	articles, err := scraper.ScrapeHomepage(context.Background(), "https://example.com/", 5)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 feed articles, got %d", len(articles))
	}
	if articles[0].Title != "Feed Story One" {
		t.Fatalf("unexpected first title: %q", articles[0].Title)
	}
	if articles[0].PublishedAt == nil {
		t.Fatal("expected published date from feed item")
	}
	if articles[1].PublishedAt != nil {
		t.Fatal("expected nil date for item without pubDate")
	}
}

func TestScrapeHomepageFallsBackToHeadlineLinks(t *testing.T) {
	scraper := newTestScraper(func(req *http.Request) (*http.Response, error) {
		switch req.URL.Path {
		case "/":
			return htmlResponse(req, homepageWithoutFeed), nil
		default:
			return htmlResponse(req, articlePage), nil
		}
	})
	defer scraper.Close()

	articles, err := scraper.ScrapeHomepage(context.Background(), "https://example.com/", 5)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 deduped same-host articles, got %d", len(articles))
	}
	first := articles[0]
	if first.Title != "Story One Headline" {
		t.Fatalf("expected og:title to win, got %q", first.Title)
	}
	if first.Summary != "Story one summary." {
		t.Fatalf("unexpected summary: %q", first.Summary)
	}
	if first.Author != "Ada Writer" {
		t.Fatalf("unexpected author: %q", first.Author)
	}
	if first.PublishedAt == nil || !first.PublishedAt.Equal(time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected published time: %v", first.PublishedAt)
	}
}

func TestScrapeHomepageRejectsBlockedURL(t *testing.T) {
	scraper := newTestScraper(func(req *http.Request) (*http.Response, error) {
		t.Errorf("unexpected fetch of %s", req.URL)
		return htmlResponse(req, ""), nil
	})
	defer scraper.Close()

	if _, err := scraper.ScrapeHomepage(context.Background(), "http://127.0.0.1/", 5); err == nil {
		t.Fatal("expected loopback host to be rejected")
	}
	if _, err := scraper.ScrapeHomepage(context.Background(), "file:///etc/passwd", 5); err == nil {
		t.Fatal("expected file scheme to be rejected")
	}
}

func TestDetectFeedVerifiesTarget(t *testing.T) {
	scraper := newTestScraper(func(req *http.Request) (*http.Response, error) {
		switch req.URL.Path {
		case "/":
			return htmlResponse(req, homepageWithFeed), nil
		case "/rss.xml":
			return xmlResponse(req, feedBody), nil
		default:
			return htmlResponse(req, ""), nil
		}
	})
	defer scraper.Close()

	feedURL, err := scraper.DetectFeed(context.Background(), "https://example.com/")
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if feedURL != "https://example.com/rss.xml" {
		t.Fatalf("unexpected feed url: %q", feedURL)
	}
}

func TestDetectFeedReturnsEmptyWhenNoneAdvertised(t *testing.T) {
	scraper := newTestScraper(func(req *http.Request) (*http.Response, error) {
		return htmlResponse(req, homepageWithoutFeed), nil
	})
	defer scraper.Close()

	feedURL, err := scraper.DetectFeed(context.Background(), "https://example.com/")
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if feedURL != "" {
		t.Fatalf("expected empty feed url, got %q", feedURL)
	}
}

func TestParseArticleTimeFormats(t *testing.T) {
	if _, ok := parseArticleTime("2025-06-01"); !ok {
		t.Fatal("expected date-only format to parse")
	}
	if _, ok := parseArticleTime("2025-06-01T09:30:00+02:00"); !ok {
		t.Fatal("expected RFC3339 to parse")
	}
	if _, ok := parseArticleTime("not a date"); ok {
		t.Fatal("expected junk to fail")
	}
}
