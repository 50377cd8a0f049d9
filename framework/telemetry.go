package framework

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"
)

// EventType categorizes telemetry events emitted during a run.
type EventType string

const (
	EventPlanStart   EventType = "plan_start"
	EventPlanReady   EventType = "plan_ready"
	EventTaskStart   EventType = "task_start"
	EventTaskFinish  EventType = "task_finish"
	EventTaskSkip    EventType = "task_skip"
	EventTaskError   EventType = "task_error"
	EventLLMPrompt   EventType = "llm_prompt"
	EventLLMResponse EventType = "llm_response"
)

// Event captures structured telemetry data.
type Event struct {
	Type      EventType      `json:"type"`
	RunID     string         `json:"run_id,omitempty"`
	TaskIndex int            `json:"task_index,omitempty"`
	Agent     string         `json:"agent,omitempty"`
	Message   string         `json:"message,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Telemetry receives execution traces from the engine and the instrumented
// model client. Production can fan events into files or exporters; tests
// typically record them in memory.
type Telemetry interface {
	Emit(event Event)
}

// MultiplexTelemetry broadcasts events to multiple sinks.
type MultiplexTelemetry struct {
	Sinks []Telemetry
}

// Emit forwards the event to all registered sinks.
func (m MultiplexTelemetry) Emit(event Event) {
	for _, s := range m.Sinks {
		s.Emit(event)
	}
}

// LogTelemetry writes events through a standard logger.
type LogTelemetry struct {
	Logger *log.Logger
}

// Emit prints a single line per event.
func (t LogTelemetry) Emit(event Event) {
	if t.Logger == nil {
		return
	}
	if event.Agent != "" {
		t.Logger.Printf("[%s] task=%d agent=%s %s", event.Type, event.TaskIndex, event.Agent, event.Message)
		return
	}
	t.Logger.Printf("[%s] %s", event.Type, event.Message)
}

// JSONFileTelemetry appends events as newline-delimited JSON so external
// tools can tail the stream.
type JSONFileTelemetry struct {
	mu   sync.Mutex
	file *os.File
}

// NewJSONFileTelemetry opens (or creates) the NDJSON sink at path.
func NewJSONFileTelemetry(path string) (*JSONFileTelemetry, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONFileTelemetry{file: file}, nil
}

// Emit writes one JSON line. Marshal failures are dropped silently; telemetry
// must never fail a run.
func (t *JSONFileTelemetry) Emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = t.file.Write(append(data, '\n'))
}

// Close releases the underlying file.
func (t *JSONFileTelemetry) Close() error {
	if t == nil || t.file == nil {
		return nil
	}
	return t.file.Close()
}
