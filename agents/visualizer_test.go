package agents

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lexcodex/analyst/framework"
)

func plotTable() *framework.Table {
	return &framework.Table{
		Columns: []string{"A", "B", "Label"},
		Rows: [][]string{
			{"1", "2", "one"},
			{"2", "4", "two"},
			{"3", "6", "three"},
			{"4", "8", "four"},
		},
	}
}

func TestRenderScatterReturnsDataURI(t *testing.T) {
	viz := NewVisualizer(nil)
	uri, err := viz.Render(context.Background(), plotTable(), map[string]any{
		"plot_type": "scatter",
		"x_column":  "A",
		"y_column":  "B",
	})
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
	assert.Greater(t, len(uri), 100)
}

func TestRenderScatterWithRegression(t *testing.T) {
	viz := NewVisualizer(nil)
	uri, err := viz.Render(context.Background(), plotTable(), map[string]any{
		"plot_type":       "scatter",
		"x_column":        "A",
		"y_column":        "B",
		"regression_line": true,
		"color":           "red",
		"linestyle":       "dotted",
	})
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
}

func TestRenderBarAndLineAndHistogram(t *testing.T) {
	viz := NewVisualizer(nil)
	for _, params := range []map[string]any{
		{"plot_type": "bar", "x_column": "Label", "y_column": "B"},
		{"plot_type": "line", "x_column": "A", "y_column": "B"},
		{"plot_type": "histogram", "x_column": "B"},
	} {
		uri, err := viz.Render(context.Background(), plotTable(), params)
		assert.NoError(t, err, params["plot_type"])
		assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"), params["plot_type"])
	}
}

func TestRenderValidatesParams(t *testing.T) {
	viz := NewVisualizer(nil)
	table := plotTable()

	_, err := viz.Render(context.Background(), table, map[string]any{"x_column": "A"})
	assert.True(t, framework.IsValidation(err))

	_, err = viz.Render(context.Background(), table, map[string]any{"plot_type": "scatter", "x_column": "A"})
	assert.True(t, framework.IsValidation(err), "scatter without y_column")

	_, err = viz.Render(context.Background(), table, map[string]any{"plot_type": "pie", "x_column": "A", "y_column": "B"})
	assert.True(t, framework.IsValidation(err), "unsupported plot type")

	_, err = viz.Render(context.Background(), table, map[string]any{"plot_type": "scatter", "x_column": "Missing", "y_column": "B"})
	assert.True(t, framework.IsValidation(err), "missing column")
}

func TestRenderRejectsNonNumericPairs(t *testing.T) {
	viz := NewVisualizer(nil)
	_, err := viz.Render(context.Background(), plotTable(), map[string]any{
		"plot_type": "scatter",
		"x_column":  "Label",
		"y_column":  "B",
	})
	assert.True(t, framework.IsValidation(err))
}

func TestParsePlotParamsLooseTypes(t *testing.T) {
	pp := ParsePlotParams(map[string]any{
		"plot_type":       "scatter",
		"x_column":        "A",
		"regression_line": "true",
	})
	assert.Equal(t, "scatter", pp.PlotType)
	assert.True(t, pp.RegressionLine)

	pp = ParsePlotParams(map[string]any{"regression_line": true})
	assert.True(t, pp.RegressionLine)
}
