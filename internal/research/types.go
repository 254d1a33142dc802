package research

import (
	"context"
	"time"

	"briefly/backend/internal/scrape"
	"briefly/backend/internal/search"
)

type EventType string

const (
	EventLog    EventType = "log"
	EventResult EventType = "result"
	EventError  EventType = "error"
)

// Event is the single output shape of a research run. Data holds a
// progress string for log events, a ResultPayload for result events
// and an error message string for error events.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

type ResultPayload struct {
	Topic     string            `json:"topic"`
	Sources   []ValidatedSource `json:"sources"`
	CreatedAt time.Time         `json:"created_at"`
}

// ValidatedSource is immutable once built; the run appends them in
// discovery order.
type ValidatedSource struct {
	URL              string `json:"url"`
	Name             string `json:"name"`
	ArticleCount     int    `json:"article_count"`
	LastArticleTitle string `json:"last_article"`
	RelevanceScore   int    `json:"relevance_score"`
	Reason           string `json:"reason"`
	RSSURL           string `json:"rss_url,omitempty"`
}

const (
	defaultArticlesPerSource   = 5
	defaultMaxSources          = 8
	defaultMinRelevanceScore   = 7
	defaultMaxSteps            = 5
	defaultCandidatesPerSearch = 5
	defaultLanguage            = "es"
)

// Settings are fixed for the lifetime of one run.
type Settings struct {
	ArticlesPerSource   int
	MaxSources          int
	MinRelevanceScore   int
	MaxSteps            int
	CandidatesPerSearch int
	Language            string
}

// normalized fills defaults for unset values. Range clamping is the
// caller's concern; the loop honors whatever it is handed.
func (s Settings) normalized() Settings {
	out := s
	out.ArticlesPerSource = intOrDefault(s.ArticlesPerSource, defaultArticlesPerSource)
	out.MaxSources = intOrDefault(s.MaxSources, defaultMaxSources)
	out.MinRelevanceScore = intOrDefault(s.MinRelevanceScore, defaultMinRelevanceScore)
	out.MaxSteps = intOrDefault(s.MaxSteps, defaultMaxSteps)
	out.CandidatesPerSearch = intOrDefault(s.CandidatesPerSearch, defaultCandidatesPerSearch)
	if out.Language == "" {
		out.Language = defaultLanguage
	}
	return out
}

type Action string

const (
	ActionSearch Action = "SEARCH"
	ActionFinish Action = "FINISH"
)

// Decision is the planner's answer for one iteration.
type Decision struct {
	Action Action `json:"action"`
	Query  string `json:"query"`
	Reason string `json:"reason"`
}

// RunSummary is the snapshot a planner sees when deciding the next
// step.
type RunSummary struct {
	Topic            string
	Sources          []ValidatedSource
	AttemptedQueries []string
	StepsTaken       int
	MaxSteps         int
}

type Relevance struct {
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

type Searcher interface {
	Search(ctx context.Context, query string, count int) []search.Result
}

type Scraper interface {
	ScrapeHomepage(ctx context.Context, rawURL string, limit int) ([]scrape.Article, error)
	DetectFeed(ctx context.Context, rawURL string) (string, error)
	Close()
}

type Planner interface {
	Decide(ctx context.Context, run RunSummary) Decision
}

type Scorer interface {
	ScoreRelevance(ctx context.Context, topic string, articles []scrape.Article) (Relevance, error)
}

// PromptResponder is the LLM oracle surface: prompt in, JSON text out.
type PromptResponder interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}
