package ollama

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

func TestStreamChatEmitsDeltasInOrder(t *testing.T) {
	requests := make(chan ollamaChatRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests <- req
		for _, part := range []string{"Par", "is"} {
			fmt.Fprintf(w, `{"message":{"role":"assistant","content":%q},"done":false}`+"\n", part)
		}
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":""},"done":true}`)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3")
	ch, err := p.StreamChat(context.Background(),
		[]llm.Message{{Role: llm.RoleUser, Content: "capital?"}},
		llm.WithTemperature(0.2))
	require.NoError(t, err)

	var sb strings.Builder
	var done bool
	for chunk := range ch {
		require.NoError(t, chunk.Err)
		sb.WriteString(chunk.Content)
		done = done || chunk.Done
	}

	assert.Equal(t, "Paris", sb.String())
	assert.True(t, done)
	got := <-requests
	assert.True(t, got.Stream)
	assert.Equal(t, "llama3", got.Model)
	assert.Equal(t, 0.2, got.Options.Temperature)
}

func TestStreamChatTruncatedStreamIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"half"},"done":false}`)
	}))
	defer srv.Close()

	ch, err := NewOllamaProvider(srv.URL, "llama3").StreamChat(context.Background(), nil)
	require.NoError(t, err)

	var last llm.StreamChunk
	for chunk := range ch {
		last = chunk
	}
	assert.Error(t, last.Err)
}

func TestChatReturnsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "missing").Chat(context.Background(), nil)
	assert.ErrorContains(t, err, "404")
}
