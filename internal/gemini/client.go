package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"briefly/backend/internal/config"
)

var ErrMissingAPIKey = errors.New("gemini: missing GEMINI_API_KEY")

// Client wraps the Gemini SDK for the one call shape the research
// loop needs: prompt in, JSON document out.
type Client struct {
	genaiClient *genai.Client
	model       string
}

func NewClient(ctx context.Context, cfg config.Config) (*Client, error) {
	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	genaiClient, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{genaiClient: genaiClient, model: cfg.GeminiModel}, nil
}

// GenerateJSON asks the model for a JSON response and strips any
// markdown fencing the model wraps it in.
func (c *Client) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	model := c.genaiClient.GenerativeModel(c.model)
	model.SetTemperature(0.1)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return "", err
	}
	return cleanJSONBlock(text), nil
}

func (c *Client) Close() error {
	if c != nil && c.genaiClient != nil {
		return c.genaiClient.Close()
	}
	return nil
}

func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("gemini: no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("gemini: empty candidate content")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", errors.New("gemini: no text parts in response")
	}
	return strings.Join(parts, ""), nil
}

func cleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
