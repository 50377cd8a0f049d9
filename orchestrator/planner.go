package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonrepair"

	"github.com/lexcodex/analyst/framework"
)

// plannerSystemPrompt embeds the three-agent capability catalog and one
// worked example. The model is constrained to emit only the JSON plan.
const plannerSystemPrompt = `You are a master orchestrator agent. Your primary function is to create a detailed, step-by-step JSON plan to fulfill a user's request by delegating tasks to specialized worker agents.

You have access to the following agents:
1. ` + "`SearchAndScrapeAgent`" + `: Given a URL, it scrapes data. It can return either a data table (if a <table> is found) or the main body of text from the page.
2. ` + "`DataAnalysisAgent`" + `: Answers a specific question about data. It can analyze a data table using SQL or analyze plain text to extract information.
3. ` + "`VisualizationAgent`" + `: Creates a plot (e.g., scatter, bar, line, histogram) from a data table.

**Your Task:**
Based on the user's entire prompt, create a JSON object containing a list of tasks.

**Critical Guidelines:**
- **First Task is always Scraping**: The first task in the list must be SearchAndScrapeAgent to retrieve the data from the URL mentioned in the prompt. Extract the URL accurately.
- **One Task Per Question**: For each distinct question or instruction the user asks about the data, create a separate task object for the appropriate agent (DataAnalysisAgent or VisualizationAgent).
- **Formulate Clear Goals**: For DataAnalysisAgent, the goal must be a clear, self-contained question. The agent is powerful, so you can ask complex questions involving filtering, aggregation, correlation, or finding specific rows.
- **Specify Visualization Details**: For VisualizationAgent, the goal should describe the plot. The params object must specify plot_type, x_column, y_column, and any styling like color or linestyle if mentioned.
- **Strict JSON Output**: Generate ONLY the JSON plan. Do not add any conversational text, explanations, or markdown formatting.

**Example User Request:**
"Please scrape the data from the page at https://en.wikipedia.org/wiki/List_of_highest-grossing_films.
1. How many films grossed more than $2 billion and were released before the year 2000?
2. What's the correlation between the 'Rank' and 'Peak' columns?
3. Draw a scatterplot of Rank versus Peak, and include a dotted red regression line."

**Example Plan Structure:**
{
  "tasks": [
    {
      "agent": "SearchAndScrapeAgent",
      "goal": "Fetch the data from the provided Wikipedia URL.",
      "url": "https://en.wikipedia.org/wiki/List_of_highest-grossing_films"
    },
    {
      "agent": "DataAnalysisAgent",
      "goal": "Count how many films have a 'Worldwide gross' greater than $2 billion and a 'Year' before 2000."
    },
    {
      "agent": "DataAnalysisAgent",
      "goal": "Calculate the Pearson correlation coefficient between the 'Rank' column and the 'Peak' column."
    },
    {
      "agent": "VisualizationAgent",
      "goal": "Plot Rank vs. Peak with a dotted red regression line.",
      "params": {
        "plot_type": "scatter",
        "x_column": "Rank",
        "y_column": "Peak",
        "regression_line": true,
        "color": "red",
        "linestyle": "dotted"
      }
    }
  ]
}`

// PlanGenerator turns a free-form prompt into an ordered task list. The
// Orchestrator depends on this interface, never on model internals, so tests
// can substitute fixed plans.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, prompt string) (*framework.Plan, error)
}

// Planner implements PlanGenerator with one structured chat call.
type Planner struct {
	Model     framework.LanguageModel
	ModelName string
}

// NewPlanner builds a planner bound to a model.
func NewPlanner(model framework.LanguageModel, modelName string) *Planner {
	return &Planner{Model: model, ModelName: modelName}
}

// GeneratePlan asks the model for a plan and validates it before returning.
// Schema validation happens here, before any task executes, so a malformed
// plan never causes partial side effects.
func (p *Planner) GeneratePlan(ctx context.Context, prompt string) (*framework.Plan, error) {
	resp, err := p.Model.Chat(ctx, []framework.Message{
		{Role: "system", Content: plannerSystemPrompt},
		{Role: "user", Content: prompt},
	}, &framework.LLMOptions{Model: p.ModelName, JSONMode: true})
	if err != nil {
		return nil, framework.Providerf("planner", err)
	}

	plan, err := parsePlan(resp.Text)
	if err != nil {
		return nil, framework.Validationf("plan generation produced invalid JSON: %v", err)
	}
	if err := validatePlan(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// parsePlan pulls the JSON payload out of the model response. A direct
// unmarshal is tried first; when the model emits slightly broken JSON
// (trailing commas, single quotes) the repair pass recovers it.
func parsePlan(raw string) (*framework.Plan, error) {
	payload := extractJSON(raw)
	if payload == "" {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	var plan framework.Plan
	if err := json.Unmarshal([]byte(payload), &plan); err == nil {
		return &plan, nil
	}
	repaired, err := jsonrepair.JSONRepair(payload)
	if err != nil {
		return nil, fmt.Errorf("unparseable plan: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &plan); err != nil {
		return nil, fmt.Errorf("unparseable plan after repair: %w", err)
	}
	return &plan, nil
}

// validatePlan enforces the per-kind required key set: goal for every task,
// url for scrape tasks, plot_type and x_column params for visualize tasks.
func validatePlan(plan *framework.Plan) error {
	for i, task := range plan.Tasks {
		if !task.Agent.Known() {
			return framework.Validationf("task %d: unknown agent %q", i+1, task.Agent)
		}
		if task.Goal == "" {
			return framework.Validationf("task %d (%s): goal is required", i+1, task.Agent)
		}
		switch task.Agent {
		case framework.AgentScrape:
			if task.URL == "" {
				return framework.Validationf("task %d: SearchAndScrapeAgent requires a url", i+1)
			}
		case framework.AgentVisualize:
			if task.Params == nil {
				return framework.Validationf("task %d: VisualizationAgent requires params", i+1)
			}
			for _, key := range []string{"plot_type", "x_column"} {
				if v, ok := task.Params[key].(string); !ok || v == "" {
					return framework.Validationf("task %d: VisualizationAgent params missing %s", i+1, key)
				}
			}
		}
	}
	return nil
}
