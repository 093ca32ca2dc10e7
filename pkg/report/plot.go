package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/todoscope/pkg/aggregate"
)

const (
	plotWidth  = "100%"
	plotHeight = "480px"
)

// WritePlot renders an HTML page with bar charts of annotations per author, tag and commit group.
func WritePlot(w io.Writer, tree *aggregate.Tree, meta Meta) error {
	summary := tree.Summary()

	page := components.NewPage()
	page.PageTitle = "todoscope"

	page.AddCharts(
		countsChart("TODOs by author", meta, summary.Authors),
		countsChart("TODOs by tag", meta, summary.Tags),
		groupsChart(tree, meta),
	)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render plot: %w", err)
	}

	return nil
}

func newBar(title string, meta Meta) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: plotWidth, Height: plotHeight}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: meta.ScanID, Left: "center"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}, opts.DataZoom{Type: "inside"}),
	)

	return bar
}

func countsChart(title string, meta Meta, counts []aggregate.Count) *charts.Bar {
	labels := make([]string, len(counts))
	data := make([]opts.BarData, len(counts))

	for i, c := range counts {
		labels[i] = c.Name
		data[i] = opts.BarData{Value: c.Count}
	}

	bar := newBar(title, meta)
	bar.SetXAxis(labels).AddSeries("TODOs", data)

	return bar
}

func groupsChart(tree *aggregate.Tree, meta Meta) *charts.Bar {
	groups := tree.Groups()
	labels := make([]string, len(groups))
	data := make([]opts.BarData, len(groups))

	for i, group := range groups {
		seen := make(map[string]bool)

		for _, tag := range tree.Tags(group) {
			for _, author := range tree.Authors(group, tag) {
				for _, todo := range tree.Todos(group, tag, author) {
					seen[todo.Location()] = true
				}
			}
		}

		labels[i] = group.Label
		data[i] = opts.BarData{Value: len(seen)}
	}

	bar := newBar("TODOs by commit", meta)
	bar.SetXAxis(labels).AddSeries("TODOs", data)

	return bar
}
