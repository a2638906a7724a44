package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reciperag/config"
)

func TestOllamaClient_Generate(t *testing.T) {
	var got ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(ollamaResponse{
			Model:    got.Model,
			Response: `{"ingredients": ["a"], "steps": ["b"]}`,
			Done:     true,
		})
	}))
	defer srv.Close()

	c := NewOllamaClient("llama3.2:3b", srv.URL+"/v1", Options{Temperature: 0.5, MaxTokens: 800})
	out, err := c.Generate(context.Background(), "Give me a recipe")
	require.NoError(t, err)

	assert.Equal(t, `{"ingredients": ["a"], "steps": ["b"]}`, out)
	assert.Equal(t, "llama3.2:3b", got.Model)
	assert.Equal(t, "Give me a recipe", got.Prompt)
	assert.False(t, got.Stream)
	assert.Equal(t, 0.5, got.Options.Temperature)
	assert.Equal(t, 800, got.Options.NumPredict)

	stats := c.Stats()
	assert.Equal(t, 1, stats.TotalCalls)
	assert.Equal(t, len("Give me a recipe"), stats.TotalInputChars)
}

func TestOllamaClient_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(ollamaResponse{Error: `model "missing" not found`})
	}))
	defer srv.Close()

	c := NewOllamaClient("missing", srv.URL, Options{})
	_, err := c.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestOllamaClient_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewOllamaClient("m", srv.URL, Options{}).Generate(ctx, "hi")
	assert.Error(t, err)
}

func TestChatClient_Generate(t *testing.T) {
	t.Setenv("TEST_LLM_KEY", "secret")

	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "done"}}]}`))
	}))
	defer srv.Close()

	c, err := NewChatClient("deepseek", "deepseek-chat", srv.URL, "TEST_LLM_KEY", Options{Temperature: 0.5, MaxTokens: 100})
	require.NoError(t, err)

	out, err := c.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.Equal(t, "deepseek-chat", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, 0.5, got.Temperature)
	assert.Equal(t, 100, got.MaxTokens)
}

func TestChatClient_APIError(t *testing.T) {
	t.Setenv("TEST_LLM_KEY", "secret")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "invalid key"}}`))
	}))
	defer srv.Close()

	c, err := NewChatClient("openai", "gpt-4o-mini", srv.URL, "TEST_LLM_KEY", Options{})
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid key")
}

func TestNewChatClient_Errors(t *testing.T) {
	t.Setenv("TEST_LLM_KEY", "")

	_, err := NewChatClient("mystery", "m", "", "TEST_LLM_KEY", Options{})
	assert.Error(t, err)

	_, err = NewChatClient("openai", "m", "", "TEST_LLM_KEY", Options{})
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	cfg := config.DefaultConfig().Generation
	c, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "llama3.2:3b", c.ModelName())

	cfg.Provider = "bard"
	_, err = New(cfg)
	assert.Error(t, err)
}
