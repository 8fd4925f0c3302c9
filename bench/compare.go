package bench

import (
	"fmt"
	"io"
	"math"
)

// DefaultThresholdPct 变化阈值，低于此值视为无变化
const DefaultThresholdPct = 5.0

// Comparison 单个测试的比较结果
type Comparison struct {
	Name              string  `json:"name"`
	BaselineLatencyNs float64 `json:"baseline_latency_ns"`
	CurrentLatencyNs  float64 `json:"current_latency_ns"`
	ChangePercent     float64 `json:"change_percent"` // 正数表示变快，负数表示变慢
	BaselineBytes     int     `json:"baseline_bytes"`
	CurrentBytes      int     `json:"current_bytes"`
	BytesChangePct    float64 `json:"bytes_change_pct"` // 压缩后大小的变化
}

// ComparisonReport 比较报告
type ComparisonReport struct {
	Comparisons  []*Comparison `json:"comparisons"`
	Improved     int           `json:"improved"`
	Regressed    int           `json:"regressed"`
	Unchanged    int           `json:"unchanged"`
	Missing      int           `json:"missing"` // 当前结果在 baseline 中没有对应项
	ThresholdPct float64       `json:"threshold_pct"`
}

// CompareResults 比较两个结果集
func CompareResults(baseline, current *ResultSet) *ComparisonReport {
	report := &ComparisonReport{
		Comparisons:  make([]*Comparison, 0),
		ThresholdPct: DefaultThresholdPct,
	}

	baselineMap := make(map[string]*BenchmarkResult)
	for _, r := range baseline.Results {
		baselineMap[r.Name()] = r
	}

	for _, curr := range current.Results {
		base, ok := baselineMap[curr.Name()]
		if !ok {
			report.Missing++
			continue
		}

		comp := &Comparison{
			Name:              curr.Name(),
			BaselineLatencyNs: base.AvgLatencyNs,
			CurrentLatencyNs:  curr.AvgLatencyNs,
			BaselineBytes:     base.OutputBytes,
			CurrentBytes:      curr.OutputBytes,
		}

		// 延迟越低越好
		if base.AvgLatencyNs > 0 {
			comp.ChangePercent = (base.AvgLatencyNs - curr.AvgLatencyNs) / base.AvgLatencyNs * 100
		}
		if base.OutputBytes > 0 {
			comp.BytesChangePct = float64(curr.OutputBytes-base.OutputBytes) / float64(base.OutputBytes) * 100
		}

		if math.Abs(comp.ChangePercent) < report.ThresholdPct {
			report.Unchanged++
		} else if comp.ChangePercent > 0 {
			report.Improved++
		} else {
			report.Regressed++
		}

		report.Comparisons = append(report.Comparisons, comp)
	}

	return report
}

// Print 打印比较报告
func (r *ComparisonReport) Print(w io.Writer) {
	fmt.Fprintln(w, "========================================")
	fmt.Fprintln(w, "       Benchmark Comparison Report")
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "Threshold: ±%.1f%%\n", r.ThresholdPct)
	fmt.Fprintf(w, "Improved:  %d\n", r.Improved)
	fmt.Fprintf(w, "Regressed: %d\n", r.Regressed)
	fmt.Fprintf(w, "Unchanged: %d\n", r.Unchanged)
	if r.Missing > 0 {
		fmt.Fprintf(w, "No baseline: %d\n", r.Missing)
	}
	fmt.Fprintln(w, "----------------------------------------")

	if r.Regressed > 0 {
		fmt.Fprintln(w, "\nLatency Regressions:")
		for _, c := range r.Comparisons {
			if c.ChangePercent <= -r.ThresholdPct {
				fmt.Fprintf(w, "  %-60s %6.1f%%  (%.0f → %.0f ns)\n",
					c.Name, c.ChangePercent, c.BaselineLatencyNs, c.CurrentLatencyNs)
			}
		}
	}

	if r.Improved > 0 {
		fmt.Fprintln(w, "\nLatency Improvements:")
		for _, c := range r.Comparisons {
			if c.ChangePercent >= r.ThresholdPct {
				fmt.Fprintf(w, "  %-60s +%5.1f%%  (%.0f → %.0f ns)\n",
					c.Name, c.ChangePercent, c.BaselineLatencyNs, c.CurrentLatencyNs)
			}
		}
	}
}
