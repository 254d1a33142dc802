package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"briefly/backend/internal/config"
	"briefly/backend/internal/gemini"
	"briefly/backend/internal/httpapi"
	"briefly/backend/internal/research"
	"briefly/backend/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	database, err := store.Open(cfg)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer database.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := store.Migrate(migrateCtx, database); err != nil {
		cancelMigrate()
		log.Fatalf("migrate db: %v", err)
	}
	cancelMigrate()

	var oracle research.PromptResponder
	if cfg.GeminiAPIKey != "" {
		client, err := gemini.NewClient(context.Background(), cfg)
		if err != nil {
			log.Fatalf("create gemini client: %v", err)
		}
		defer client.Close()
		oracle = client
		log.Printf("research oracle enabled model=%s", cfg.GeminiModel)
	} else {
		log.Printf("GEMINI_API_KEY not set, using heuristic planning and scoring")
	}

	handler := httpapi.NewRouter(cfg, database, oracle)

	srv := &http.Server{
		Addr:         cfg.ListenAddress(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ResearchTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("api listening on %s", cfg.ListenAddress())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
