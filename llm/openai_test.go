package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lexcodex/analyst/framework"
)

func TestChatSendsPayloadAndDecodesResponse(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{
					"message":       map[string]any{"role": "assistant", "content": "{\"tasks\": []}"},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]int{"prompt_tokens": 12, "completion_tokens": 4},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", "gpt-4o-mini")
	resp, err := client.Chat(context.Background(), []framework.Message{
		{Role: "system", Content: "plan"},
		{Role: "user", Content: "scrape and count"},
	}, &framework.LLMOptions{Model: "gpt-4o", JSONMode: true})

	assert.NoError(t, err)
	assert.Equal(t, "{\"tasks\": []}", resp.Text)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 12, resp.Usage["prompt_tokens"])

	assert.Equal(t, "gpt-4o", captured["model"])
	format, _ := captured["response_format"].(map[string]any)
	assert.Equal(t, "json_object", format["type"])
	messages, _ := captured["messages"].([]any)
	assert.Len(t, messages, 2)
}

func TestChatDefaultsModel(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "ok"}}},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k", "gpt-4o-mini")
	_, err := client.Chat(context.Background(), []framework.Message{{Role: "user", Content: "q"}}, nil)
	assert.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", captured["model"])
}

func TestChatSurfacesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limited"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k", "m")
	_, err := client.Chat(context.Background(), []framework.Message{{Role: "user", Content: "q"}}, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestChatRejectsEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k", "m")
	_, err := client.Chat(context.Background(), []framework.Message{{Role: "user", Content: "q"}}, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}
