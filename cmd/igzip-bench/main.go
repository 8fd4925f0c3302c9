// Command igzip-bench measures the average latency of one-shot stateless
// compression calls.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/wzqhbustb/igzbench/bench"
	"github.com/wzqhbustb/igzbench/codec"
	"github.com/wzqhbustb/igzbench/config"
	berrors "github.com/wzqhbustb/igzbench/errors"
)

// Exit codes.
const (
	exitOK      = 0
	exitRuntime = 1
	exitUsage   = 2
)

// usageError marks failures that should print usage before exiting.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// cliOptions holds the flags that are not benchmark options.
type cliOptions struct {
	configPath   string
	jsonOut      string
	baselinePath string
	metricsOut   string
	htmlOut      string
	logLevel     string
	sweepEngines []string
	sweepLevels  []int
	sweepSizes   []int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)

	var ue *usageError
	if errors.As(err, &ue) || berrors.IsConfig(err) {
		fmt.Fprintln(stderr)
		fmt.Fprint(stderr, cmd.UsageString())
		return exitUsage
	}
	return exitRuntime
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &cliOptions{}

	cmd := &cobra.Command{
		Use:   "igzip-bench [options]",
		Short: "Stateless compression latency benchmark",
		Long: `igzip-bench compresses a buffer of random bytes, or a file repeated to the
requested size, once per iteration and reports the mean wall-clock latency
of the compression call.`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 0 {
				return &usageError{err: fmt.Errorf("unexpected arguments %q", args)}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBenchmark(cmd, opts, stdout, stderr)
		},
	}
	cmd.SetOut(stderr)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	f := cmd.Flags()
	f.SortFlags = false
	f.StringP(config.OptLevel, "l", "", fmt.Sprintf("[%d-%d] compression level to test", codec.MinLevel, codec.MaxLevel))
	f.StringP(config.OptMode, "m", "", "[stateless/stateful] compression mode to test")
	f.StringP(config.OptType, "t", "", "[latency/throughput] compression benchmark type")
	f.StringP(config.OptSize, "n", "", "input buffer size in bytes (0 with -f uses the file size); incompressible input above 4 MiB can overflow the output buffer")
	f.StringP(config.OptWindow, "w", "", fmt.Sprintf("[%d-%d] log base 2 size of history window", codec.MinWindowBits, codec.MaxWindowBits))
	f.StringP(config.OptIterations, "i", "", "number of measured iterations")
	f.StringP(config.OptFile, "f", "", "input file, repeated cyclically to fill the buffer")
	f.String(config.OptEngine, "", fmt.Sprintf("compression engine %v", codec.Engines()))
	f.String(config.OptSeed, "", "seed for random input (0 seeds from the clock)")

	f.StringVar(&opts.configPath, "config", "", "YAML file with benchmark options; flags override it")
	f.StringVar(&opts.jsonOut, "json", "", "save results as JSON to this path")
	f.StringVar(&opts.baselinePath, "baseline", "", "compare results with a JSON file written by --json")
	f.StringVar(&opts.metricsOut, "metrics-out", "", "write Prometheus textfile metrics to this path")
	f.StringVar(&opts.htmlOut, "html", "", "write an HTML latency chart to this path (single runs only)")
	f.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	f.StringSliceVar(&opts.sweepEngines, "sweep-engines", nil, "run once per engine")
	f.IntSliceVar(&opts.sweepLevels, "sweep-levels", nil, "run once per level")
	f.IntSliceVar(&opts.sweepSizes, "sweep-sizes", nil, "run once per input size")

	return cmd
}

func runBenchmark(cmd *cobra.Command, opts *cliOptions, stdout, stderr io.Writer) error {
	logger, err := newLogger(stderr, opts.logLevel)
	if err != nil {
		return err
	}

	cfg, err := resolveConfig(cmd.Flags(), opts.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	sweep := bench.SweepConfig{
		Engines:    opts.sweepEngines,
		Levels:     opts.sweepLevels,
		InputSizes: opts.sweepSizes,
	}
	if opts.htmlOut != "" && !sweep.Empty() {
		return &usageError{err: berrors.InvalidArg("parse_flags", "--html cannot be combined with a sweep")}
	}
	if !sweep.Empty() {
		if _, err := sweep.Expand(cfg); err != nil {
			return err
		}
	}

	cfg.Dump(stdout)

	runOpts := []bench.Option{
		bench.WithLogger(logger),
		bench.WithSamples(opts.htmlOut != ""),
	}

	var rs *bench.ResultSet
	if sweep.Empty() {
		runner, err := bench.NewRunner(cfg, runOpts...)
		if err != nil {
			return err
		}
		result, err := runner.Run(cmd.Context())
		if err != nil {
			return err
		}
		printResult(stdout, result)

		rs = bench.NewResultSet()
		rs.Add(result)
	} else {
		rs, err = bench.RunSweep(cmd.Context(), cfg, sweep, runOpts...)
		if err != nil {
			return err
		}
		printSweep(stdout, rs)
	}

	return writeOutputs(stdout, logger, opts, rs)
}

// resolveConfig applies the optional YAML file, then every flag the user set.
// All rejected flag values are reported together.
func resolveConfig(flags *pflag.FlagSet, path string) (*config.BenchmarkConfig, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	known := make(map[string]bool, len(config.Options))
	for _, opt := range config.Options {
		known[opt] = true
	}

	var errs []error
	flags.Visit(func(f *pflag.Flag) {
		if !known[f.Name] {
			return
		}
		if err := cfg.Set(f.Name, f.Value.String()); err != nil {
			errs = append(errs, err)
		}
	})
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func printResult(w io.Writer, r *bench.BenchmarkResult) {
	fmt.Fprintf(w, "Average latency: %.2f ns (%.3f us)\n", r.AvgLatencyNs, r.AvgLatencyUs)
	fmt.Fprintf(w, "Compressed size: %d -> %d bytes (ratio %.2f)\n",
		r.InputBytes, r.OutputBytes, r.CompressionRatio())
}

func printSweep(w io.Writer, rs *bench.ResultSet) {
	fmt.Fprintf(w, "%-60s %14s %12s\n", "benchmark", "avg ns", "ratio")
	for _, r := range rs.Results {
		fmt.Fprintf(w, "%-60s %14.2f %12.2f\n", r.Name(), r.AvgLatencyNs, r.CompressionRatio())
	}
}

func writeOutputs(stdout io.Writer, logger *slog.Logger, opts *cliOptions, rs *bench.ResultSet) error {
	if opts.jsonOut != "" {
		if err := rs.SaveToFile(opts.jsonOut); err != nil {
			return err
		}
		logger.Info("results saved", "path", opts.jsonOut, "results", len(rs.Results))
	}

	if opts.baselinePath != "" {
		baseline, err := bench.LoadFromFile(opts.baselinePath)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout)
		rs.Compare(baseline).Print(stdout)
	}

	if opts.metricsOut != "" {
		if err := bench.WriteMetrics(opts.metricsOut, rs.Results...); err != nil {
			return err
		}
		logger.Info("metrics written", "path", opts.metricsOut)
	}

	if opts.htmlOut != "" {
		if err := writeChartFile(opts.htmlOut, rs.Results[0]); err != nil {
			return err
		}
		logger.Info("chart written", "path", opts.htmlOut)
	}
	return nil
}

func writeChartFile(path string, r *bench.BenchmarkResult) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return berrors.IO("write_chart", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = berrors.IO("write_chart", path, cerr)
		}
	}()
	return bench.WriteChart(f, r)
}

// newLogger logs text to a terminal and JSON otherwise.
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, &usageError{err: berrors.New(berrors.ErrInvalidArgument).
			Op("parse_log_level").
			Context("value", level).
			Wrap(err).
			Build()}
	}

	hopts := &slog.HandlerOptions{Level: lvl}
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return slog.New(slog.NewTextHandler(w, hopts)), nil
	}
	return slog.New(slog.NewJSONHandler(w, hopts)), nil
}
