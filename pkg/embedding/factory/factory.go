package factory

import (
	"ai-notecopilot/pkg/embedding"
	"ai-notecopilot/pkg/embedding/jina"
	"ai-notecopilot/pkg/embedding/openai"
	"fmt"
)

type Keys struct {
	Gemini string
	Jina   string
	OpenAI string
}

func NewEmbeddingProvider(providerType, model, baseURL string, keys Keys) (embedding.EmbeddingProvider, error) {
	switch providerType {
	case "gemini":
		return embedding.NewGeminiProvider(keys.Gemini), nil
	case "ollama":
		return embedding.NewOllamaProvider(baseURL, model), nil
	case "jina":
		return jina.NewJinaProvider(keys.Jina), nil
	case "openai":
		return openai.NewOpenAIProvider(keys.OpenAI, baseURL, model), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", providerType)
	}
}
