package llm

import (
	"context"
	"time"

	"github.com/lexcodex/analyst/framework"
)

// InstrumentedModel wraps a LanguageModel and emits telemetry for prompts and
// responses. Previews are clipped so telemetry sinks stay readable even when
// prompts embed scraped page text.
type InstrumentedModel struct {
	Inner     framework.LanguageModel
	Telemetry framework.Telemetry
}

// NewInstrumentedModel wraps inner with the given telemetry sink.
func NewInstrumentedModel(inner framework.LanguageModel, telemetry framework.Telemetry) *InstrumentedModel {
	return &InstrumentedModel{Inner: inner, Telemetry: telemetry}
}

// Chat forwards to the inner model, emitting one prompt and one response
// event around the call.
func (m *InstrumentedModel) Chat(ctx context.Context, messages []framework.Message, options *framework.LLMOptions) (*framework.LLMResponse, error) {
	m.emit(framework.Event{
		Type:    framework.EventLLMPrompt,
		Message: "chat",
		Metadata: map[string]any{
			"model":         modelFromOptions(options),
			"message_count": len(messages),
			"last_preview":  lastPreview(messages),
		},
	})
	start := time.Now()
	resp, err := m.Inner.Chat(ctx, messages, options)
	meta := map[string]any{
		"duration_ms": time.Since(start).Milliseconds(),
	}
	event := framework.Event{Type: framework.EventLLMResponse, Message: "chat", Metadata: meta}
	if err != nil {
		meta["error"] = err.Error()
	} else {
		meta["finish_reason"] = resp.FinishReason
		meta["text_preview"] = clip(resp.Text, 512)
		if resp.Usage != nil {
			meta["usage"] = resp.Usage
		}
	}
	m.emit(event)
	return resp, err
}

func (m *InstrumentedModel) emit(event framework.Event) {
	if m.Telemetry == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	m.Telemetry.Emit(event)
}

func modelFromOptions(options *framework.LLMOptions) string {
	if options != nil {
		return options.Model
	}
	return ""
}

func lastPreview(messages []framework.Message) string {
	if len(messages) == 0 {
		return ""
	}
	return clip(messages[len(messages)-1].Content, 512)
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
