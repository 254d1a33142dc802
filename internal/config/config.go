package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort                = "8080"
	defaultFrontendOrigin      = "http://localhost:5173"
	defaultGeminiModel         = "gemini-2.0-flash"
	defaultResearchTimeoutSecs = 300
	defaultArticlesPerSource   = 5
	defaultMaxSourcesPerRun    = 8
	defaultMinRelevanceScore   = 7
	defaultMaxSteps            = 5
	defaultCandidatesPerQuery  = 5
	defaultLanguage            = "es"

	defaultTavilyBaseURL       = "https://api.tavily.com"
	defaultGoogleSearchBaseURL = "https://www.googleapis.com/customsearch/v1"
	defaultDuckDuckGoBaseURL   = "https://html.duckduckgo.com/html/"
)

type Config struct {
	Port           string
	Environment    string
	AllowedOrigins []string

	DatabaseURL       string
	DatabaseAuthToken string

	GeminiAPIKey string
	GeminiModel  string

	TavilyAPIKey         string
	TavilyBaseURL        string
	GoogleSearchAPIKey   string
	GoogleSearchEngineID string
	GoogleSearchBaseURL  string
	DuckDuckGoBaseURL    string

	ResearchTimeout     time.Duration
	ArticlesPerSource   int
	MaxSourcesPerRun    int
	MinRelevanceScore   int
	MaxSteps            int
	CandidatesPerSearch int
	Language            string
}

func (c Config) ListenAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func Load() (Config, error) {
	cfg := Config{
		Port:                 envOrDefault("PORT", defaultPort),
		Environment:          envOrDefault("APP_ENV", "development"),
		DatabaseURL:          strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DatabaseAuthToken:    strings.TrimSpace(os.Getenv("DATABASE_AUTH_TOKEN")),
		GeminiAPIKey:         strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:          envOrDefault("GEMINI_MODEL", defaultGeminiModel),
		TavilyAPIKey:         strings.TrimSpace(os.Getenv("TAVILY_API_KEY")),
		TavilyBaseURL:        envOrDefault("TAVILY_BASE_URL", defaultTavilyBaseURL),
		GoogleSearchAPIKey:   strings.TrimSpace(os.Getenv("GOOGLE_SEARCH_API_KEY")),
		GoogleSearchEngineID: strings.TrimSpace(os.Getenv("GOOGLE_SEARCH_ENGINE_ID")),
		GoogleSearchBaseURL:  envOrDefault("GOOGLE_SEARCH_BASE_URL", defaultGoogleSearchBaseURL),
		DuckDuckGoBaseURL:    envOrDefault("DUCKDUCKGO_BASE_URL", defaultDuckDuckGoBaseURL),
		ArticlesPerSource:    clampInt(intOrDefault("ARTICLES_PER_SOURCE", defaultArticlesPerSource), 1, 10),
		MaxSourcesPerRun:     clampInt(intOrDefault("MAX_SOURCES_PER_RUN", defaultMaxSourcesPerRun), 3, 15),
		MinRelevanceScore:    clampInt(intOrDefault("MIN_RELEVANCE_SCORE", defaultMinRelevanceScore), 1, 10),
		MaxSteps:             intOrDefault("RESEARCH_MAX_STEPS", defaultMaxSteps),
		CandidatesPerSearch:  intOrDefault("CANDIDATES_PER_SEARCH", defaultCandidatesPerQuery),
		Language:             envOrDefault("LANGUAGE", defaultLanguage),
	}

	timeoutSeconds := intOrDefault("RESEARCH_TIMEOUT_SECONDS", defaultResearchTimeoutSecs)
	if timeoutSeconds <= 0 {
		return Config{}, errors.New("RESEARCH_TIMEOUT_SECONDS must be > 0")
	}
	cfg.ResearchTimeout = time.Duration(timeoutSeconds) * time.Second

	if cfg.MaxSteps < 1 {
		return Config{}, errors.New("RESEARCH_MAX_STEPS must be >= 1")
	}
	if cfg.CandidatesPerSearch < 1 {
		return Config{}, errors.New("CANDIDATES_PER_SEARCH must be >= 1")
	}

	origins := parseList(envOrDefault("CORS_ALLOWED_ORIGINS", defaultFrontendOrigin+",http://localhost:4173"))
	if len(origins) == 0 {
		return Config{}, errors.New("CORS_ALLOWED_ORIGINS must include at least one origin")
	}
	cfg.AllowedOrigins = origins

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if strings.HasPrefix(cfg.DatabaseURL, "libsql://") && cfg.DatabaseAuthToken == "" {
		return Config{}, errors.New("DATABASE_AUTH_TOKEN is required for libsql:// URLs")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func intOrDefault(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseList(raw string) []string {
	items := strings.Split(raw, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
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
