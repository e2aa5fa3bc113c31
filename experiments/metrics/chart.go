package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteResultsChart renders results.html: the challengers' scores with their
// confidence bounds, and the mean nodes searched per move.
func (w *Writer) WriteResultsChart(title string, records []ResultRecord) error {
	agents := make([]string, 0, len(records))
	score := make([]opts.BarData, 0, len(records))
	low := make([]opts.BarData, 0, len(records))
	high := make([]opts.BarData, 0, len(records))
	nodes := make([]opts.BarData, 0, len(records))
	for _, r := range records {
		agents = append(agents, "agent "+strconv.Itoa(r.Challenger))
		score = append(score, opts.BarData{Value: r.Score})
		low = append(low, opts.BarData{Value: r.Low})
		high = append(high, opts.BarData{Value: r.High})
		nodes = append(nodes, opts.BarData{Value: r.MeanNodes})
	}

	scores := charts.NewBar()
	scores.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: "score against the baseline"}),
	)
	scores.SetXAxis(agents).
		AddSeries("low", low).
		AddSeries("score", score).
		AddSeries("high", high)

	effort := charts.NewBar()
	effort.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "nodes per move"}),
	)
	effort.SetXAxis(agents).AddSeries("mean nodes", nodes)

	page := components.NewPage()
	page.AddCharts(scores, effort)

	f, err := os.Create(filepath.Join(w.baseDir, "results.html"))
	if err != nil {
		return fmt.Errorf("failed to create results.html: %w", err)
	}
	defer f.Close()
	return page.Render(f)
}
