package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"briefly/backend/internal/config"
	"briefly/backend/internal/research"
	"briefly/backend/internal/scrape"
	"briefly/backend/internal/store"
)

// ResearchRunner is the slice of the research agent the handlers
// need; tests substitute a stub.
type ResearchRunner interface {
	ResearchTopic(ctx context.Context, topic string) <-chan research.Event
}

type AgentFactory func(settings research.Settings) ResearchRunner

type Handler struct {
	cfg            config.Config
	store          store.Store
	newRunner      AgentFactory
	scrapeHomepage func(ctx context.Context, rawURL string, limit int) ([]scrape.Article, error)
}

func NewHandler(cfg config.Config, sources store.Store, factory AgentFactory) Handler {
	return Handler{
		cfg:       cfg,
		store:     sources,
		newRunner: factory,
		scrapeHomepage: func(ctx context.Context, rawURL string, limit int) ([]scrape.Article, error) {
			scraper := scrape.NewScraper(scrape.Config{}, nil)
			defer scraper.Close()
			return scraper.ScrapeHomepage(ctx, rawURL, limit)
		},
	}
}

func (h Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ResearchStream runs a research topic and relays its events over
// SSE, one JSON event per message. Validated sources are persisted
// when the run produces a result.
func (h Handler) ResearchStream(w http.ResponseWriter, r *http.Request) {
	topic := strings.TrimSpace(r.URL.Query().Get("topic"))
	if topic == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "topic is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported", "server does not support streaming")
		return
	}

	settings := h.runSettings(r)
	runID := uuid.NewString()
	log.Printf("research run start run_id=%s topic=%q max_sources=%d min_relevance=%d", runID, topic, settings.MaxSources, settings.MinRelevanceScore)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx := r.Context()
	cancel := func() {}
	if h.cfg.ResearchTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, h.cfg.ResearchTimeout)
	}
	defer cancel()

	for event := range h.newRunner(settings).ResearchTopic(ctx, topic) {
		if err := writeSSEEvent(w, event); err != nil {
			log.Printf("research run stream write failed run_id=%s err=%v", runID, err)
			return
		}
		flusher.Flush()

		if event.Type == research.EventResult {
			h.persistRunResult(runID, topic, event)
		}
	}

	log.Printf("research run end run_id=%s", runID)
}

// persistRunResult saves on a detached context so a consumer that
// disconnects right after the terminal event cannot lose the run.
func (h Handler) persistRunResult(runID, topic string, event research.Event) {
	payload, ok := event.Data.(research.ResultPayload)
	if !ok || len(payload.Sources) == 0 {
		return
	}

	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := h.store.SaveSources(saveCtx, topic, payload.Sources); err != nil {
		log.Printf("research run persist failed run_id=%s err=%v", runID, err)
		return
	}
	log.Printf("research run persisted run_id=%s sources=%d", runID, len(payload.Sources))
}

func (h Handler) ListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.store.ListSources(r.Context(), r.URL.Query().Get("topic"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error", "failed to read sources")
		return
	}
	if sources == nil {
		sources = []store.Source{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": sources})
}

// SourceArticles serves stored articles for a source, scraping the
// source homepage on first access or when refresh=true.
func (h Handler) SourceArticles(w http.ResponseWriter, r *http.Request) {
	sourceID := chi.URLParam(r, "sourceID")

	source, err := h.store.GetSource(r.Context(), sourceID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "source not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error", "failed to read source")
		return
	}

	articles, err := h.store.ListArticlesBySource(r.Context(), sourceID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error", "failed to read articles")
		return
	}

	refresh := r.URL.Query().Get("refresh") == "true"
	if len(articles) == 0 || refresh {
		scraped, scrapeErr := h.scrapeHomepage(r.Context(), source.URL, h.cfg.ArticlesPerSource)
		switch {
		case scrapeErr != nil && len(articles) == 0:
			writeError(w, http.StatusBadGateway, "scrape_failed", "source homepage is not reachable")
			return
		case scrapeErr != nil:
			log.Printf("article refresh failed source_id=%s err=%v", sourceID, scrapeErr)
		case len(scraped) > 0:
			articles, err = h.store.SaveArticles(r.Context(), sourceID, scraped)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "db_error", "failed to save articles")
				return
			}
		}
	}

	if articles == nil {
		articles = []store.Article{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"source": source, "articles": articles})
}

func (h Handler) runSettings(r *http.Request) research.Settings {
	q := r.URL.Query()
	language := strings.TrimSpace(q.Get("language"))
	if language == "" {
		language = h.cfg.Language
	}

	return research.Settings{
		ArticlesPerSource:   clampInt(queryInt(q.Get("articles_per_source"), h.cfg.ArticlesPerSource), 1, 10),
		MaxSources:          clampInt(queryInt(q.Get("max_sources"), h.cfg.MaxSourcesPerRun), 3, 15),
		MinRelevanceScore:   clampInt(queryInt(q.Get("min_relevance"), h.cfg.MinRelevanceScore), 1, 10),
		MaxSteps:            h.cfg.MaxSteps,
		CandidatesPerSearch: h.cfg.CandidatesPerSearch,
		Language:            language,
	}
}

func queryInt(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func clampInt(value, minValue, maxValue int) int {
	if value < minValue {
		return minValue
	}
	if value > maxValue {
		return maxValue
	}
	return value
}
