package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completion(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1677652288,
		"model":   "test-model",
		"choices": []map[string]any{
			{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
	}
}

func TestClient_Generate(t *testing.T) {
	var got struct {
		Model    string    `json:"model"`
		Messages []Message `json:"messages"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		assert.Equal(t, "https://example.com", r.Header.Get("HTTP-Referer"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completion("  @DealDasher can you do better?  "))
	}))
	defer server.Close()

	c := NewClient("key", server.URL, WithReferer("https://example.com", "test"))
	out, err := c.Generate(context.Background(), Request{
		Model:    "buyer-model",
		Messages: []Message{System("sys"), User("go")},
	})
	require.NoError(t, err)
	assert.Equal(t, "@DealDasher can you do better?", out)
	assert.Equal(t, "buyer-model", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
}

func TestClient_Generate_RetriesTransientOnce(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer server.Close()

	c := NewClient("key", server.URL)
	c.backoff = time.Millisecond
	_, err := c.Generate(context.Background(), Request{Model: "m", Messages: []Message{User("x")}})
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_Generate_FatalNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"auth"}}`))
	}))
	defer server.Close()

	c := NewClient("key", server.URL)
	_, err := c.Generate(context.Background(), Request{Model: "m", Messages: []Message{User("x")}})
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestErrorClassification(t *testing.T) {
	base := errors.New("boom")
	assert.True(t, IsTransient(NewTransientError(base)))
	assert.False(t, IsFatal(NewTransientError(base)))
	assert.True(t, errors.Is(NewFatalError(base), base))
}
