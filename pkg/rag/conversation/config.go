package conversation

import "ai-notecopilot/pkg/llm"

// Config is passed by value. Per-call overrides produce a copy, so the
// controller's shared settings never change as a side effect of one call.
type Config struct {
	Model        string  `json:"model"`
	Temperature  float64 `json:"temperature"`
	MaxTokens    int     `json:"max_tokens"`
	SystemPrompt string  `json:"system_prompt"`
	ContextTurns int     `json:"context_turns"`
	Stream       bool    `json:"stream"`
	TopK         int     `json:"top_k"`
}

func DefaultConfig() Config {
	return Config{
		Temperature:  0.7,
		MaxTokens:    1000,
		ContextTurns: 3,
		Stream:       true,
		TopK:         4,
	}
}

type Option func(*Config)

func WithTemperature(t float64) Option {
	return func(c *Config) { c.Temperature = t }
}

func WithMaxTokens(n int) Option {
	return func(c *Config) { c.MaxTokens = n }
}

func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

func WithStream(stream bool) Option {
	return func(c *Config) { c.Stream = stream }
}

func (c Config) With(opts ...Option) Config {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// ContextWindow is how many log messages make up the preceding turns.
func (c Config) ContextWindow() int {
	return c.ContextTurns * 2
}

func (c Config) llmOptions() []llm.Option {
	opts := []llm.Option{llm.WithTemperature(c.Temperature)}
	if c.MaxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(c.MaxTokens))
	}
	if c.Model != "" {
		opts = append(opts, llm.WithModel(c.Model))
	}
	return opts
}
