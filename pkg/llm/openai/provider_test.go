package openai

import (
	"ai-notecopilot/pkg/llm"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseChunk(content string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"id":      "chatcmpl-1",
		"object":  "chat.completion.chunk",
		"model":   "gpt-4o-mini",
		"choices": []map[string]interface{}{{"index": 0, "delta": map[string]string{"content": content}}},
	})
	return "data: " + string(b) + "\n\n"
}

func TestStreamChatAccumulatesDeltas(t *testing.T) {
	temps := make(chan float64, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Temperature float64 `json:"temperature"`
			Stream      bool    `json:"stream"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body.Stream)
		temps <- body.Temperature

		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{"Hel", "lo"} {
			fmt.Fprint(w, sseChunk(part))
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	p := NewOpenAIProvider("test-key", srv.URL+"/v1", "gpt-4o-mini")
	ch, err := p.StreamChat(context.Background(),
		[]llm.Message{{Role: llm.RoleUser, Content: "hi"}},
		llm.WithTemperature(0.25))
	require.NoError(t, err)

	var sb strings.Builder
	var done bool
	for chunk := range ch {
		require.NoError(t, chunk.Err)
		sb.WriteString(chunk.Content)
		done = done || chunk.Done
	}

	assert.Equal(t, "Hello", sb.String())
	assert.True(t, done)
	assert.InDelta(t, 0.25, <-temps, 0.0001)
}

func TestChatSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limited","type":"rate_limit"}}`)
	}))
	defer srv.Close()

	_, err := NewOpenAIProvider("k", srv.URL+"/v1", "gpt-4o-mini").Chat(context.Background(), nil)
	assert.ErrorContains(t, err, "rate limited")
}
