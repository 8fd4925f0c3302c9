package bench

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	berrors "github.com/wzqhbustb/igzbench/errors"
)

// WriteChart renders the per-iteration latencies of r as an HTML line chart.
// The result must have been produced with sample recording enabled.
func WriteChart(w io.Writer, r *BenchmarkResult) error {
	if len(r.Samples) == 0 {
		return berrors.InvalidArg("write_chart", "result has no per-iteration samples")
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "igzbench latency"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Stateless compression latency",
			Subtitle: fmt.Sprintf("%s, avg %.0f ns over %d iterations", r.Name(), r.AvgLatencyNs, r.Iterations),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "iteration"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "ns"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)

	xs := make([]int, len(r.Samples))
	points := make([]opts.LineData, len(r.Samples))
	for i, ns := range r.Samples {
		xs[i] = i
		points[i] = opts.LineData{Value: ns}
	}

	line.SetXAxis(xs).AddSeries("latency", points,
		charts.WithMarkLineNameTypeItemOpts(opts.MarkLineNameTypeItem{Name: "mean", Type: "average"}),
	)

	return line.Render(w)
}
