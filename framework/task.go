// Package framework hosts the foundational data structures the planner,
// execution engine, providers, and HTTP surface all depend on. Everything in
// here is deliberately dependency-free so provider packages can import it
// without dragging network or database code along.
package framework

import "encoding/json"

// AgentKind identifies which worker a task is delegated to. The values are
// the wire labels the plan model is instructed to emit, so they double as the
// JSON vocabulary of a Plan.
type AgentKind string

const (
	AgentScrape    AgentKind = "SearchAndScrapeAgent"
	AgentAnalyze   AgentKind = "DataAnalysisAgent"
	AgentVisualize AgentKind = "VisualizationAgent"
)

// Known reports whether the kind is one of the three delegable agents.
// Unknown labels survive JSON decoding on purpose: plan validation rejects
// them up front, and the execution engine still tolerates them as no-ops if
// one slips through.
func (k AgentKind) Known() bool {
	switch k {
	case AgentScrape, AgentAnalyze, AgentVisualize:
		return true
	}
	return false
}

// Task is a single delegated step produced by the planner. Tasks are
// immutable once decoded; the engine consumes them in list order.
type Task struct {
	Agent  AgentKind      `json:"agent"`
	Goal   string         `json:"goal"`
	URL    string         `json:"url,omitempty"`
	Params map[string]any `json:"params,omitempty"`
}

// Plan is the ordered task list for one request. Order is execution order;
// there is no reordering and no parallelism.
type Plan struct {
	Tasks []Task `json:"tasks"`
}

// String renders the plan as indented JSON for logs and telemetry.
func (p *Plan) String() string {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// ResultEntry is one element of the aggregated output list: a scalar, a
// record (column name to value), a list of records, a text answer, or a
// base64 image data URI. Values are appended verbatim from the providers and
// must be JSON-serializable.
type ResultEntry any
