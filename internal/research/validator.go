package research

import (
	"context"
	"fmt"
	"time"

	"briefly/backend/internal/scrape"
)

const freshnessWindow = 90 * 24 * time.Hour

// Verdict is the outcome of validating one candidate. Note carries
// the extra context a log line wants ("Date unknown" and similar).
type Verdict struct {
	Valid  bool
	Name   string
	Reason string
	Note   string
	Source ValidatedSource
}

type Validator struct {
	scraper Scraper
	scorer  Scorer
	cfg     Settings
}

func NewValidator(cfg Settings, scraper Scraper, scorer Scorer) Validator {
	return Validator{scraper: scraper, scorer: scorer, cfg: cfg}
}

// Validate runs the three gates in order, short-circuiting on the
// first failure. It never propagates an error; every failure mode
// becomes a failing verdict.
func (v Validator) Validate(ctx context.Context, candidate Candidate, topic string) (verdict Verdict) {
	name := sourceNameFromCandidate(candidate)
	verdict = Verdict{Name: name}

	defer func() {
		if r := recover(); r != nil {
			verdict = Verdict{Name: name, Reason: "validation failed: " + trimToRunes(fmt.Sprint(r), 200)}
		}
	}()

	articles, err := v.scraper.ScrapeHomepage(ctx, candidate.BaseDomain, v.cfg.ArticlesPerSource)
	if err != nil || len(articles) == 0 {
		verdict.Reason = "no accessible articles"
		return verdict
	}

	fresh, note := checkFreshness(articles, time.Now().UTC())
	verdict.Note = note
	if !fresh {
		verdict.Reason = note
		return verdict
	}

	relevance, err := v.scorer.ScoreRelevance(ctx, topic, articles)
	if err != nil {
		verdict.Reason = "relevance scoring failed: " + trimToRunes(err.Error(), 200)
		return verdict
	}
	if relevance.Score < v.cfg.MinRelevanceScore {
		verdict.Reason = fmt.Sprintf("relevance %d below minimum %d: %s", relevance.Score, v.cfg.MinRelevanceScore, relevance.Reason)
		return verdict
	}

	source := ValidatedSource{
		URL:              candidate.BaseDomain,
		Name:             name,
		ArticleCount:     len(articles),
		LastArticleTitle: articles[0].Title,
		RelevanceScore:   relevance.Score,
		Reason:           relevance.Reason,
	}
	// Feed probing is best-effort; a miss just leaves RSSURL empty.
	if feedURL, feedErr := v.scraper.DetectFeed(ctx, candidate.BaseDomain); feedErr == nil {
		source.RSSURL = feedURL
	}

	verdict.Valid = true
	verdict.Source = source
	return verdict
}

// checkFreshness wants at least one article inside the window. A set
// with no parseable dates at all passes optimistically, flagged as
// "Date unknown".
func checkFreshness(articles []scrape.Article, now time.Time) (bool, string) {
	var latest *time.Time
	for _, article := range articles {
		if article.PublishedAt == nil {
			continue
		}
		published := article.PublishedAt.UTC()
		if latest == nil || published.After(*latest) {
			latest = &published
		}
	}

	if latest == nil {
		return true, "Date unknown"
	}
	if now.Sub(*latest) > freshnessWindow {
		return false, fmt.Sprintf("no recent articles, latest from %s", latest.Format("2006-01-02"))
	}
	return true, ""
}
