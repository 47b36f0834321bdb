package factory

import (
	"ai-notecopilot/pkg/llm"
	"ai-notecopilot/pkg/llm/ollama"
	"ai-notecopilot/pkg/llm/openai"
	"fmt"
)

const huggingFaceRouterURL = "https://router.huggingface.co/v1"

// NewLLMProvider builds the provider named by providerType. apiKey is ignored by ollama.
func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "openai":
		return openai.NewOpenAIProvider(apiKey, baseURL, modelName), nil
	case "huggingface":
		// The router speaks the OpenAI chat completion protocol
		if baseURL == "" {
			baseURL = huggingFaceRouterURL
		}
		return openai.NewOpenAIProvider(apiKey, baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
