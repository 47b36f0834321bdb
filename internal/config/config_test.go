package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("COPILOT_TEMPERATURE", "")
	t.Setenv("COPILOT_STREAM", "")

	cfg := Load()

	assert.Equal(t, 0.7, cfg.Copilot.Temperature)
	assert.Equal(t, 1000, cfg.Copilot.MaxTokens)
	assert.Equal(t, 3, cfg.Copilot.ContextTurns)
	assert.Equal(t, 30, cfg.Copilot.TTLDays)
	assert.True(t, cfg.Copilot.Stream)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("COPILOT_TEMPERATURE", "0.3")
	t.Setenv("COPILOT_CONTEXT_TURNS", "5")
	t.Setenv("COPILOT_STREAM", "false")
	t.Setenv("COPILOT_MAX_TOKENS", "not a number")

	cfg := Load()

	assert.Equal(t, 0.3, cfg.Copilot.Temperature)
	assert.Equal(t, 5, cfg.Copilot.ContextTurns)
	assert.False(t, cfg.Copilot.Stream)
	assert.Equal(t, 1000, cfg.Copilot.MaxTokens)
}

func TestProviderFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		wantURL  string
		wantKey  string
		embedURL string
	}{
		{
			name:     "ollama uses local base url",
			cfg:      Config{Ai: AIConfig{LLMProvider: "ollama", EmbeddingProvider: "ollama", OllamaBaseURL: "http://ollama:11434"}},
			wantURL:  "http://ollama:11434",
			embedURL: "http://ollama:11434",
		},
		{
			name:    "huggingface takes its own key",
			cfg:     Config{Ai: AIConfig{LLMProvider: "huggingface"}, Keys: APIKeys{HuggingFace: "hf", OpenAI: "oa"}},
			wantKey: "hf",
		},
		{
			name:     "explicit urls win",
			cfg:      Config{Ai: AIConfig{LLMProvider: "openai", LLMBaseURL: "http://proxy", EmbeddingBaseURL: "http://embed"}, Keys: APIKeys{OpenAI: "oa"}},
			wantURL:  "http://proxy",
			wantKey:  "oa",
			embedURL: "http://embed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantURL, tt.cfg.LLMBaseURL())
			assert.Equal(t, tt.wantKey, tt.cfg.LLMAPIKey())
			assert.Equal(t, tt.embedURL, tt.cfg.EmbeddingBaseURL())
		})
	}
}
