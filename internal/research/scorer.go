package research

import (
	"context"
	"encoding/json"
	"errors"

	"briefly/backend/internal/scrape"
)

// HeuristicScorer passes every source with a full score. Without an
// oracle the system prefers false positives over finding nothing.
type HeuristicScorer struct{}

func (HeuristicScorer) ScoreRelevance(_ context.Context, _ string, _ []scrape.Article) (Relevance, error) {
	return Relevance{Score: 10, Reason: "Heuristic pass"}, nil
}

type OracleScorer struct {
	responder PromptResponder
}

func NewOracleScorer(responder PromptResponder) OracleScorer {
	return OracleScorer{responder: responder}
}

func (s OracleScorer) ScoreRelevance(ctx context.Context, topic string, articles []scrape.Article) (Relevance, error) {
	if s.responder == nil {
		return Relevance{}, errors.New("scorer oracle unavailable")
	}

	raw, err := s.responder.GenerateJSON(ctx, buildRelevancePrompt(topic, articles))
	if err != nil {
		return Relevance{}, err
	}
	return parseRelevance(raw)
}

func parseRelevance(raw string) (Relevance, error) {
	jsonRaw := extractJSONBlock(raw)
	if jsonRaw == "" {
		return Relevance{}, errors.New("relevance response did not include json")
	}

	var relevance Relevance
	if err := json.Unmarshal([]byte(jsonRaw), &relevance); err != nil {
		return Relevance{}, err
	}
	relevance.Score = clampInt(relevance.Score, 0, 10)
	return relevance, nil
}
