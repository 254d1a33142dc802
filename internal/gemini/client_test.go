package gemini

import (
	"context"
	"testing"

	"briefly/backend/internal/config"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(context.Background(), config.Config{GeminiModel: "gemini-2.0-flash"}); err != ErrMissingAPIKey {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare", in: `{"a":1}`, want: `{"a":1}`},
		{name: "fenced", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "fenced no lang", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "padded", in: "  {\"a\":1}  ", want: `{"a":1}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := cleanJSONBlock(tc.in); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtractTextFromResponseNil(t *testing.T) {
	if _, err := extractTextFromResponse(nil); err == nil {
		t.Fatal("expected error for nil response")
	}
}
