package factory

import (
	"ai-notecopilot/pkg/llm/ollama"
	"ai-notecopilot/pkg/llm/openai"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	p, err := NewLLMProvider("ollama", "llama3", "", "")
	require.NoError(t, err)
	o, ok := p.(*ollama.OllamaProvider)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:11434", o.BaseURL)

	p, err = NewLLMProvider("huggingface", "meta-llama/Llama-3.1-8B-Instruct", "", "hf_x")
	require.NoError(t, err)
	assert.IsType(t, &openai.OpenAIProvider{}, p)

	_, err = NewLLMProvider("claude", "x", "", "")
	assert.ErrorContains(t, err, "unsupported")
}
