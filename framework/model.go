package framework

import "context"

// Message is one turn of a chat conversation sent to a language model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLMOptions carries per-call knobs. Zero values mean "provider default".
type LLMOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
	// JSONMode constrains the model to emit a single JSON object. The
	// planner relies on it; free-text calls leave it false.
	JSONMode bool
}

// LLMResponse is the normalized completion returned by a LanguageModel.
type LLMResponse struct {
	Text         string
	FinishReason string
	Usage        map[string]int
}

// LanguageModel is the narrow contract the planner and analyzer depend on.
// Production wires the OpenAI-compatible client from the llm package; tests
// substitute stubs with canned responses. The core never sees model
// internals beyond this interface.
type LanguageModel interface {
	Chat(ctx context.Context, messages []Message, options *LLMOptions) (*LLMResponse, error)
}
