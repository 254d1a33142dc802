package httpapi

import (
	"database/sql"
	"net/http"

	"briefly/backend/internal/config"
	"briefly/backend/internal/research"
	"briefly/backend/internal/scrape"
	"briefly/backend/internal/search"
	"briefly/backend/internal/store"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(cfg config.Config, db *sql.DB, oracle research.PromptResponder) http.Handler {
	sources := store.NewStore(db)
	factory := func(settings research.Settings) ResearchRunner {
		searcher := search.NewService(cfg, nil)
		scraper := scrape.NewScraper(scrape.Config{}, nil)
		return research.NewAgent(settings, searcher, scraper, oracle)
	}
	h := NewHandler(cfg, sources, factory)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.Healthz)

	r.Route("/v1", func(v1 chi.Router) {
		v1.Get("/research/stream", h.ResearchStream)
		v1.Get("/sources", h.ListSources)
		v1.Get("/sources/{sourceID}/articles", h.SourceArticles)
	})

	return r
}
