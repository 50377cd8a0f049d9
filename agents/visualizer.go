package agents

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/color"
	"log"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/lexcodex/analyst/framework"
)

// PlotParams are the visualization arguments carried in a task's params
// mapping. plot_type and x_column are required; the rest is styling.
type PlotParams struct {
	PlotType       string
	XColumn        string
	YColumn        string
	RegressionLine bool
	Color          string
	LineStyle      string
}

// ParsePlotParams decodes the loosely-typed params mapping from a plan task.
func ParsePlotParams(params map[string]any) PlotParams {
	return PlotParams{
		PlotType:       stringParam(params, "plot_type"),
		XColumn:        stringParam(params, "x_column"),
		YColumn:        stringParam(params, "y_column"),
		RegressionLine: boolParam(params, "regression_line"),
		Color:          stringParam(params, "color"),
		LineStyle:      stringParam(params, "linestyle"),
	}
}

func stringParam(params map[string]any, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

func boolParam(params map[string]any, key string) bool {
	switch v := params[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}
	return false
}

// Visualizer renders a table into an encoded chart image.
type Visualizer struct {
	Logger *log.Logger
}

// NewVisualizer builds the visualization provider.
func NewVisualizer(logger *log.Logger) *Visualizer {
	return &Visualizer{Logger: logger}
}

// Render draws the requested plot and returns it as a PNG data URI. It fails
// when required parameters or columns are missing or the plot type is
// unrecognized.
func (v *Visualizer) Render(ctx context.Context, table *framework.Table, params map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	pp := ParsePlotParams(params)
	if pp.PlotType == "" || pp.XColumn == "" {
		return "", framework.NewValidationError("visualization requires at least a plot_type and x_column")
	}
	if _, ok := table.ColumnIndex(pp.XColumn); !ok {
		return "", framework.Validationf("x-axis column %q not found; available columns: %s", pp.XColumn, strings.Join(table.Columns, ", "))
	}
	if pp.YColumn != "" {
		if _, ok := table.ColumnIndex(pp.YColumn); !ok {
			return "", framework.Validationf("y-axis column %q not found; available columns: %s", pp.YColumn, strings.Join(table.Columns, ", "))
		}
	}

	p := plot.New()
	p.Title.Text = plotTitle(pp)
	p.X.Label.Text = pp.XColumn
	p.Y.Label.Text = pp.YColumn
	p.Add(plotter.NewGrid())

	var err error
	switch pp.PlotType {
	case "scatter":
		err = v.addScatter(p, table, pp)
	case "bar":
		err = v.addBar(p, table, pp)
	case "line":
		err = v.addLine(p, table, pp)
	case "histogram":
		p.Y.Label.Text = "Frequency"
		err = v.addHistogram(p, table, pp)
	default:
		return "", framework.Validationf("plot type %q is not supported; supported types: scatter, bar, line, histogram", pp.PlotType)
	}
	if err != nil {
		return "", err
	}

	uri, err := encodePNG(p)
	if err != nil {
		return "", framework.Providerf("visualize", err)
	}
	v.logf("visualize: rendered %s chart (%d bytes encoded)", pp.PlotType, len(uri))
	return uri, nil
}

func (v *Visualizer) addScatter(p *plot.Plot, table *framework.Table, pp PlotParams) error {
	if pp.YColumn == "" {
		return framework.NewValidationError("scatter plot requires both x_column and y_column")
	}
	xys, err := pairedPoints(table, pp.XColumn, pp.YColumn)
	if err != nil {
		return err
	}
	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return framework.Providerf("visualize", err)
	}
	scatter.GlyphStyle.Radius = vg.Points(2.5)
	p.Add(scatter)

	if pp.RegressionLine {
		line, err := regressionLine(xys, pp)
		if err != nil {
			return framework.Providerf("visualize", err)
		}
		p.Add(line)
	}
	return nil
}

func (v *Visualizer) addBar(p *plot.Plot, table *framework.Table, pp PlotParams) error {
	if pp.YColumn == "" {
		return framework.NewValidationError("bar chart requires both x_column and y_column")
	}
	labels, err := table.Column(pp.XColumn)
	if err != nil {
		return framework.NewValidationError(err.Error())
	}
	ys, ok, err := table.FloatColumn(pp.YColumn)
	if err != nil {
		return framework.NewValidationError(err.Error())
	}
	values := make(plotter.Values, 0, len(ys))
	kept := make([]string, 0, len(labels))
	for i := range ys {
		if ok[i] {
			values = append(values, ys[i])
			kept = append(kept, labels[i])
		}
	}
	if len(values) == 0 {
		return framework.Validationf("column %q has no numeric values to plot", pp.YColumn)
	}
	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return framework.Providerf("visualize", err)
	}
	if c, found := namedColor(pp.Color); found {
		bars.Color = c
	}
	p.Add(bars)
	p.NominalX(kept...)
	return nil
}

func (v *Visualizer) addLine(p *plot.Plot, table *framework.Table, pp PlotParams) error {
	if pp.YColumn == "" {
		return framework.NewValidationError("line chart requires both x_column and y_column")
	}
	xys, err := pairedPoints(table, pp.XColumn, pp.YColumn)
	if err != nil {
		return err
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return framework.Providerf("visualize", err)
	}
	styleLine(&line.LineStyle, pp)
	p.Add(line)
	return nil
}

func (v *Visualizer) addHistogram(p *plot.Plot, table *framework.Table, pp PlotParams) error {
	xs, ok, err := table.FloatColumn(pp.XColumn)
	if err != nil {
		return framework.NewValidationError(err.Error())
	}
	values := make(plotter.Values, 0, len(xs))
	for i := range xs {
		if ok[i] {
			values = append(values, xs[i])
		}
	}
	if len(values) == 0 {
		return framework.Validationf("column %q has no numeric values to plot", pp.XColumn)
	}
	hist, err := plotter.NewHist(values, 16)
	if err != nil {
		return framework.Providerf("visualize", err)
	}
	p.Add(hist)
	return nil
}

// pairedPoints collects the rows where both columns parse numerically,
// keeping the pairs row-aligned.
func pairedPoints(table *framework.Table, xCol, yCol string) (plotter.XYs, error) {
	xs, okX, err := table.FloatColumn(xCol)
	if err != nil {
		return nil, framework.NewValidationError(err.Error())
	}
	ys, okY, err := table.FloatColumn(yCol)
	if err != nil {
		return nil, framework.NewValidationError(err.Error())
	}
	xys := make(plotter.XYs, 0, len(xs))
	for i := range xs {
		if okX[i] && okY[i] {
			xys = append(xys, plotter.XY{X: xs[i], Y: ys[i]})
		}
	}
	if len(xys) == 0 {
		return nil, framework.Validationf("columns %q and %q have no numeric pairs to plot", xCol, yCol)
	}
	return xys, nil
}

// regressionLine fits ordinary least squares over the points and renders the
// fit across their x range.
func regressionLine(xys plotter.XYs, pp PlotParams) (*plotter.Line, error) {
	n := float64(len(xys))
	var sumX, sumY, sumXX, sumXY float64
	minX, maxX := xys[0].X, xys[0].X
	for _, pt := range xys {
		sumX += pt.X
		sumY += pt.Y
		sumXX += pt.X * pt.X
		sumXY += pt.X * pt.Y
		if pt.X < minX {
			minX = pt.X
		}
		if pt.X > maxX {
			maxX = pt.X
		}
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return nil, fmt.Errorf("regression undefined: x values are constant")
	}
	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n

	fit := plotter.XYs{
		{X: minX, Y: slope*minX + intercept},
		{X: maxX, Y: slope*maxX + intercept},
	}
	line, err := plotter.NewLine(fit)
	if err != nil {
		return nil, err
	}
	if pp.Color == "" {
		pp.Color = "red"
	}
	styleLine(&line.LineStyle, pp)
	return line, nil
}

func styleLine(style *draw.LineStyle, pp PlotParams) {
	if c, found := namedColor(pp.Color); found {
		style.Color = c
	}
	if pp.LineStyle == "dotted" || pp.LineStyle == "dashed" {
		style.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	}
}

func namedColor(name string) (color.Color, bool) {
	switch strings.ToLower(name) {
	case "red":
		return color.RGBA{R: 0xd6, G: 0x2c, B: 0x2c, A: 0xff}, true
	case "blue":
		return color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}, true
	case "green":
		return color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}, true
	case "orange":
		return color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff}, true
	case "purple":
		return color.RGBA{R: 0x94, G: 0x67, B: 0xbd, A: 0xff}, true
	case "black":
		return color.Black, true
	}
	return nil, false
}

func plotTitle(pp PlotParams) string {
	title := capitalize(pp.PlotType) + " of " + pp.XColumn
	if pp.YColumn != "" && pp.PlotType != "histogram" {
		title += " vs. " + pp.YColumn
	}
	return title
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// encodePNG renders the plot to PNG and wraps it in a data URI, the format
// the HTTP caller embeds directly into an <img> tag.
func encodePNG(p *plot.Plot) (string, error) {
	writer, err := p.WriterTo(12*vg.Inch, 8*vg.Inch, "png")
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := writer.WriteTo(&buf); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (v *Visualizer) logf(format string, args ...any) {
	if v.Logger != nil {
		v.Logger.Printf(format, args...)
	}
}
