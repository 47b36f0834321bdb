// Package openai talks to any OpenAI-compatible chat completion endpoint
// (OpenAI itself, the HuggingFace router, vLLM, LM Studio).
package openai

import (
	"ai-notecopilot/pkg/llm"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	goopenai "github.com/sashabaranov/go-openai"
)

const fallbackEncoding = "cl100k_base"

type OpenAIProvider struct {
	client    *goopenai.Client
	ModelName string
	Defaults  llm.Options

	encOnce sync.Once
	enc     *tiktoken.Tiktoken
	encErr  error
}

var _ llm.LLMProvider = &OpenAIProvider{}

// NewOpenAIProvider uses the public OpenAI endpoint when baseURL is empty.
func NewOpenAIProvider(apiKey, baseURL, modelName string) *OpenAIProvider {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{
		client:    goopenai.NewClientWithConfig(cfg),
		ModelName: modelName,
		Defaults:  llm.Options{Temperature: 0.7},
	}
}

func (p *OpenAIProvider) request(history []llm.Message, opts []llm.Option) goopenai.ChatCompletionRequest {
	options := llm.Apply(p.Defaults, opts...)

	model := p.ModelName
	if options.Model != "" {
		model = options.Model
	}

	messages := make([]goopenai.ChatCompletionMessage, 0, len(history))
	for _, m := range history {
		messages = append(messages, goopenai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	return goopenai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   options.MaxTokens,
		Temperature: float32(options.Temperature),
	}
}

func (p *OpenAIProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, p.request(history, opts))
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func (p *OpenAIProvider) StreamChat(ctx context.Context, history []llm.Message, opts ...llm.Option) (<-chan llm.StreamChunk, error) {
	req := p.request(history, opts)
	req.Stream = true

	stream, err := p.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create stream: %w", err)
	}

	out := make(chan llm.StreamChunk)
	go func() {
		defer close(out)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				llm.Send(ctx, out, llm.StreamChunk{Done: true})
				return
			}
			if err != nil {
				llm.Send(ctx, out, llm.StreamChunk{Err: fmt.Errorf("stream error: %w", err)})
				return
			}
			if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
				continue
			}
			if !llm.Send(ctx, out, llm.StreamChunk{Content: resp.Choices[0].Delta.Content}) {
				return
			}
		}
	}()

	return out, nil
}

// CountTokens uses the tiktoken encoding of the configured model, or
// cl100k_base for models tiktoken does not know.
func (p *OpenAIProvider) CountTokens(text string) (int, error) {
	p.encOnce.Do(func() {
		p.enc, p.encErr = tiktoken.EncodingForModel(p.ModelName)
		if p.encErr != nil {
			p.enc, p.encErr = tiktoken.GetEncoding(fallbackEncoding)
		}
	})
	if p.encErr != nil {
		return 0, fmt.Errorf("load tokenizer: %w", p.encErr)
	}
	return len(p.enc.Encode(text, nil, nil)), nil
}
