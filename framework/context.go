package framework

import (
	"sync"
	"time"
)

// Interaction captures one step of a run: a model exchange, a provider call,
// or an engine decision. The history exists for telemetry and transcript
// rendering; execution logic never reads it back.
type Interaction struct {
	ID        int            `json:"id"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// SharedContext is the single mutable record owned by one request's
// execution engine. It holds the original prompt and at most one current
// data artifact, tagged by kind. Scrape tasks overwrite the artifact
// (last-write-wins, no history of prior artifacts); Analyze and Visualize
// tasks read it without mutating.
//
// The RWMutex is not strictly required under the one-goroutine-per-request
// model, but keeping the type safe for concurrent readers costs little and
// lets telemetry sinks snapshot the history from other goroutines.
type SharedContext struct {
	mu       sync.RWMutex
	prompt   string
	artifact Artifact
	history  []Interaction
	idCtr    int
}

// NewSharedContext builds the per-request context. It lives for exactly one
// run and is discarded with the request.
func NewSharedContext(prompt string) *SharedContext {
	return &SharedContext{prompt: prompt}
}

// Prompt returns the original user prompt.
func (c *SharedContext) Prompt() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.prompt
}

// SetTable stores a tabular artifact, replacing whatever was held before.
func (c *SharedContext) SetTable(table *Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.artifact = Artifact{Kind: ArtifactTable, Table: table}
}

// SetText stores a textual artifact, replacing whatever was held before.
func (c *SharedContext) SetText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.artifact = Artifact{Kind: ArtifactText, Text: text}
}

// Artifact returns the current artifact. The zero value has Kind
// ArtifactNone.
func (c *SharedContext) Artifact() Artifact {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.artifact
}

// AddInteraction appends one step to the run history.
func (c *SharedContext) AddInteraction(role, content string, metadata map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.idCtr++
	c.history = append(c.history, Interaction{
		ID:        c.idCtr,
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	})
}

// History returns a copy of the recorded interactions.
func (c *SharedContext) History() []Interaction {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Interaction, len(c.history))
	copy(out, c.history)
	return out
}
