package bench

import (
	"path/filepath"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	berrors "github.com/wzqhbustb/igzbench/errors"
)

const metricsNamespace = "igzbench"

var metricLabels = []string{"engine", "level", "window_bits", "size", "input"}

// WriteMetrics writes results to path in the Prometheus text exposition
// format, suitable for a node_exporter textfile collector. Each result is
// one label set; the input label matches the input part of Name.
func WriteMetrics(path string, results ...*BenchmarkResult) error {
	reg := prometheus.NewRegistry()

	avgLatency := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "avg_latency_seconds",
		Help:      "Mean wall-clock time of one stateless compression call.",
	}, metricLabels)
	iterations := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "iterations",
		Help:      "Number of measured compression calls.",
	}, metricLabels)
	inputBytes := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "input_bytes",
		Help:      "Input size of each compression call.",
	}, metricLabels)
	outputBytes := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "output_bytes",
		Help:      "Compressed size produced by the last call.",
	}, metricLabels)
	lastRun := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time at which the run started.",
	}, metricLabels)

	reg.MustRegister(avgLatency, iterations, inputBytes, outputBytes, lastRun)

	for _, r := range results {
		input := "random"
		if r.InputFile != "" {
			input = filepath.Base(r.InputFile)
		}
		labels := prometheus.Labels{
			"engine":      r.Engine,
			"level":       strconv.Itoa(r.Level),
			"window_bits": strconv.Itoa(r.WindowBits),
			"size":        strconv.Itoa(r.InputBytes),
			"input":       input,
		}

		avgLatency.With(labels).Set(r.AvgLatencyNs / 1e9)
		iterations.With(labels).Set(float64(r.Iterations))
		inputBytes.With(labels).Set(float64(r.InputBytes))
		outputBytes.With(labels).Set(float64(r.OutputBytes))
		lastRun.With(labels).Set(float64(r.Timestamp.Unix()))
	}

	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return berrors.IO("write_metrics", path, err)
	}
	return nil
}
