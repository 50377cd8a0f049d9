// Package orchestrator contains the core control flow: plan generation and
// the sequential execution engine that dispatches tasks to providers while
// threading the shared context between them.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/lexcodex/analyst/framework"
)

// ScrapeProvider fetches a URL into a tagged artifact.
type ScrapeProvider interface {
	Scrape(ctx context.Context, url string) (framework.Artifact, error)
}

// AnalysisProvider answers questions about the current artifact. The engine
// picks the method by artifact tag; providers never probe types themselves.
type AnalysisProvider interface {
	AnalyzeTable(ctx context.Context, question string, table *framework.Table) (framework.ResultEntry, error)
	AnalyzeText(ctx context.Context, question, text string) (framework.ResultEntry, error)
}

// VisualizationProvider renders a table into an encoded image string.
type VisualizationProvider interface {
	Render(ctx context.Context, table *framework.Table, params map[string]any) (string, error)
}

// Orchestrator owns one request's workflow: generate the plan, then execute
// it strictly sequentially, mutating a request-local shared context and
// accumulating results. Instances are safe for concurrent use; all mutable
// state lives per call.
type Orchestrator struct {
	Planner    PlanGenerator
	Scraper    ScrapeProvider
	Analyzer   AnalysisProvider
	Visualizer VisualizationProvider
	Telemetry  framework.Telemetry
	Logger     *log.Logger
}

// Run executes one request to completion: prompt to plan to aggregated
// result list. The caller receives either the full list or a single error,
// never partial results.
func (o *Orchestrator) Run(ctx context.Context, prompt string) ([]framework.ResultEntry, error) {
	runID := uuid.NewString()
	o.emit(framework.Event{Type: framework.EventPlanStart, RunID: runID, Message: clipPrompt(prompt)})

	plan, err := o.Planner.GeneratePlan(ctx, prompt)
	if err != nil {
		return nil, err
	}
	o.logf("orchestrator: plan ready\n%s", plan.String())
	o.emit(framework.Event{
		Type:     framework.EventPlanReady,
		RunID:    runID,
		Message:  fmt.Sprintf("%d tasks", len(plan.Tasks)),
		Metadata: map[string]any{"plan": plan.Tasks},
	})

	return o.execute(ctx, runID, plan, prompt)
}

// Execute runs an already-validated plan. Exposed so callers with their own
// plan source (tests, replay tooling) can drive the engine directly.
func (o *Orchestrator) Execute(ctx context.Context, plan *framework.Plan, prompt string) ([]framework.ResultEntry, error) {
	return o.execute(ctx, uuid.NewString(), plan, prompt)
}

func (o *Orchestrator) execute(ctx context.Context, runID string, plan *framework.Plan, prompt string) ([]framework.ResultEntry, error) {
	state := framework.NewSharedContext(prompt)
	results := make([]framework.ResultEntry, 0, len(plan.Tasks))

	for i, task := range plan.Tasks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		o.logf("orchestrator: task %d/%d -> %s: %s", i+1, len(plan.Tasks), task.Agent, task.Goal)
		o.emit(framework.Event{Type: framework.EventTaskStart, RunID: runID, TaskIndex: i + 1, Agent: string(task.Agent), Message: task.Goal})

		switch task.Agent {
		case framework.AgentScrape:
			if err := o.runScrape(ctx, state, task); err != nil {
				return nil, o.fail(runID, i+1, task, err)
			}

		case framework.AgentAnalyze:
			entry, err := o.runAnalyze(ctx, state, task)
			if err != nil {
				return nil, o.fail(runID, i+1, task, err)
			}
			results = append(results, entry)

		case framework.AgentVisualize:
			entry, err := o.runVisualize(ctx, state, task)
			if err != nil {
				return nil, o.fail(runID, i+1, task, err)
			}
			results = append(results, entry)

		default:
			// Plan validation should have excluded unknown labels; if one
			// slips through the engine tolerates it rather than crashing.
			o.logf("orchestrator: skipping task %d with unrecognized agent %q", i+1, task.Agent)
			o.emit(framework.Event{Type: framework.EventTaskSkip, RunID: runID, TaskIndex: i + 1, Agent: string(task.Agent), Message: "unrecognized agent"})
			continue
		}

		o.emit(framework.Event{Type: framework.EventTaskFinish, RunID: runID, TaskIndex: i + 1, Agent: string(task.Agent)})
	}

	return results, nil
}

// runScrape fetches the task URL and stores the artifact in the context.
// Scrape tasks produce no result entry; their output only updates context,
// overwriting whatever artifact an earlier task stored.
func (o *Orchestrator) runScrape(ctx context.Context, state *framework.SharedContext, task framework.Task) error {
	if task.URL == "" {
		return framework.ErrMissingURL
	}
	artifact, err := o.Scraper.Scrape(ctx, task.URL)
	if err != nil {
		return err
	}
	switch artifact.Kind {
	case framework.ArtifactTable:
		state.SetTable(artifact.Table)
		state.AddInteraction("scraper", "stored table artifact", map[string]any{
			"url": task.URL, "columns": artifact.Table.Columns, "rows": artifact.Table.NumRows(),
		})
	case framework.ArtifactText:
		state.SetText(artifact.Text)
		state.AddInteraction("scraper", "stored text artifact", map[string]any{
			"url": task.URL, "chars": len(artifact.Text),
		})
	default:
		return framework.Providerf("scrape", fmt.Errorf("scraper returned an empty artifact for %s", task.URL))
	}
	return nil
}

// runAnalyze branches on the artifact tag: table analysis, text analysis, or
// a validation failure when nothing has been scraped yet. The provider's
// return value is appended verbatim.
func (o *Orchestrator) runAnalyze(ctx context.Context, state *framework.SharedContext, task framework.Task) (framework.ResultEntry, error) {
	artifact := state.Artifact()
	switch artifact.Kind {
	case framework.ArtifactTable:
		return o.Analyzer.AnalyzeTable(ctx, task.Goal, artifact.Table)
	case framework.ArtifactText:
		return o.Analyzer.AnalyzeText(ctx, task.Goal, artifact.Text)
	default:
		return nil, framework.ErrNoData
	}
}

// runVisualize requires a tabular artifact and returns the encoded image.
func (o *Orchestrator) runVisualize(ctx context.Context, state *framework.SharedContext, task framework.Task) (framework.ResultEntry, error) {
	artifact := state.Artifact()
	if artifact.Kind != framework.ArtifactTable {
		return nil, framework.ErrNoTable
	}
	return o.Visualizer.Render(ctx, artifact.Table, task.Params)
}

// fail logs and emits the task failure, then returns the error unchanged so
// the whole request aborts with zero partial results.
func (o *Orchestrator) fail(runID string, index int, task framework.Task, err error) error {
	o.logf("orchestrator: task %d (%s) failed: %v", index, task.Agent, err)
	o.emit(framework.Event{
		Type:      framework.EventTaskError,
		RunID:     runID,
		TaskIndex: index,
		Agent:     string(task.Agent),
		Message:   err.Error(),
	})
	return err
}

func (o *Orchestrator) emit(event framework.Event) {
	if o.Telemetry == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	o.Telemetry.Emit(event)
}

func (o *Orchestrator) logf(format string, args ...any) {
	if o.Logger != nil {
		o.Logger.Printf(format, args...)
	}
}

func clipPrompt(prompt string) string {
	if len(prompt) > 250 {
		return prompt[:250] + "..."
	}
	return prompt
}
