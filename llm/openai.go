// Package llm provides the OpenAI-compatible chat client that backs plan and
// query generation.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/lexcodex/analyst/framework"
)

// Client implements framework.LanguageModel against any OpenAI-compatible
// chat completions endpoint.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string
	Debug   bool
	client  *http.Client
}

// NewClient builds a chat client. Model is the default used when a call does
// not override it through options.
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Model:   model,
		client: &http.Client{
			Timeout: 3 * time.Minute,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    *float64       `json:"temperature,omitempty"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage map[string]int `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Chat sends one conversation and returns the first choice.
func (c *Client) Chat(ctx context.Context, messages []framework.Message, options *framework.LLMOptions) (*framework.LLMResponse, error) {
	payload := chatRequest{
		Model:    c.model(options),
		Messages: convertMessages(messages),
	}
	if options != nil {
		if options.Temperature != 0 {
			temp := options.Temperature
			payload.Temperature = &temp
		}
		if options.MaxTokens != 0 {
			payload.MaxTokens = options.MaxTokens
		}
		if options.JSONMode {
			payload.ResponseFormat = map[string]any{"type": "json_object"}
		}
	}
	return c.doRequest(ctx, payload)
}

func (c *Client) model(options *framework.LLMOptions) string {
	if options != nil && options.Model != "" {
		return options.Model
	}
	if c.Model != "" {
		return c.Model
	}
	return "gpt-4o-mini"
}

func (c *Client) doRequest(ctx context.Context, payload chatRequest) (*framework.LLMResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	c.logPayload(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		detail := strings.TrimSpace(string(msg))
		if detail != "" {
			return nil, fmt.Errorf("chat completions error: %s: %s", resp.Status, detail)
		}
		return nil, fmt.Errorf("chat completions error: %s", resp.Status)
	}
	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	c.logResponse(responseBody)
	return decodeChatResponse(responseBody)
}

func decodeChatResponse(body []byte) (*framework.LLMResponse, error) {
	var raw chatResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	if raw.Error != nil {
		return nil, fmt.Errorf("chat completions error: %s", raw.Error.Message)
	}
	if len(raw.Choices) == 0 {
		return nil, fmt.Errorf("chat completions returned no choices")
	}
	choice := raw.Choices[0]
	return &framework.LLMResponse{
		Text:         choice.Message.Content,
		FinishReason: choice.FinishReason,
		Usage:        raw.Usage,
	}, nil
}

func convertMessages(messages []framework.Message) []chatMessage {
	out := make([]chatMessage, 0, len(messages))
	for _, msg := range messages {
		out = append(out, chatMessage{Role: msg.Role, Content: msg.Content})
	}
	return out
}

func (c *Client) logPayload(payload []byte) {
	if !c.Debug {
		return
	}
	log.Printf("[llm] request payload: %s", truncate(string(payload), 2048))
}

func (c *Client) logResponse(resp []byte) {
	if !c.Debug {
		return
	}
	log.Printf("[llm] response payload: %s", truncate(string(resp), 2048))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
