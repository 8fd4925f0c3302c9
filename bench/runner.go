// Package bench runs the stateless compression latency loop and records,
// compares and exports its results.
package bench

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/wzqhbustb/igzbench/codec"
	"github.com/wzqhbustb/igzbench/config"
	berrors "github.com/wzqhbustb/igzbench/errors"
	"github.com/wzqhbustb/igzbench/fileio"
)

// Clock supplies the timestamps around each compression call. Implementations
// must be monotonic.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// bufferLimit is the largest single buffer the runner will allocate.
const bufferLimit = config.MaxInputSize + codec.MaxHeaderSize

const inputFileID = "input"

// overflowRiskSize is the input size above which the stored-block framing of
// incompressible data can exceed MaxHeaderSize.
const overflowRiskSize = 4 << 20

// maxSamplePrealloc caps the up-front capacity of the per-iteration samples.
const maxSamplePrealloc = 1 << 16

// Runner 基准测试运行器
type Runner struct {
	cfg    *config.BenchmarkConfig
	engine codec.Engine
	clock  Clock
	logger *slog.Logger
	rng    *rand.Rand
	seed   int64
	files  *fileio.Pool

	recordSamples bool
	liveBuffers   int
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock replaces the monotonic system clock.
func WithClock(c Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// WithLogger sets the logger used for progress and diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithRand sets the generator used for random input. The configured seed is
// ignored when a generator is supplied.
func WithRand(rng *rand.Rand) Option {
	return func(r *Runner) { r.rng = rng }
}

// WithEngine overrides the engine named in the configuration.
func WithEngine(e codec.Engine) Option {
	return func(r *Runner) { r.engine = e }
}

// WithFilePool shares an existing pool for the input file. The runner does not
// close a pool it did not create.
func WithFilePool(p *fileio.Pool) Option {
	return func(r *Runner) { r.files = p }
}

// WithSamples keeps every per-iteration latency in the result.
func WithSamples(enabled bool) Option {
	return func(r *Runner) { r.recordSamples = enabled }
}

// NewRunner 创建新的运行器
func NewRunner(cfg *config.BenchmarkConfig, opts ...Option) (*Runner, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	r := &Runner{
		cfg:    cfg,
		clock:  systemClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.engine == nil {
		e, ok := codec.Lookup(cfg.Engine)
		if !ok {
			return nil, berrors.InvalidEngine(cfg.Engine, codec.Engines())
		}
		r.engine = e
	}

	// Seeded once per runner, never per iteration.
	if r.rng == nil {
		r.seed = cfg.Seed
		if r.seed == 0 {
			r.seed = time.Now().UnixNano()
		}
		r.rng = rand.New(rand.NewSource(r.seed))
	}

	return r, nil
}

// measurement is the outcome of one compression call.
type measurement struct {
	elapsed  time.Duration
	totalOut int
}

// Run executes the configured number of iterations and returns the mean
// latency. Only the stateless latency benchmark has a measurement path; other
// mode/type combinations fail with ErrNotImplemented. Cancellation is
// observed between iterations.
func (r *Runner) Run(ctx context.Context) (*BenchmarkResult, error) {
	cfg := r.cfg
	if cfg.Mode != config.Stateless || cfg.Type != config.Latency {
		return nil, berrors.NotImplemented("run",
			fmt.Sprintf("%s %s benchmark", cfg.Mode, cfg.Type))
	}
	if cfg.Iterations < 1 {
		return nil, berrors.InvalidIterations(fmt.Sprint(cfg.Iterations), nil)
	}

	levelBufSize, err := cfg.LevelBufSize()
	if err != nil {
		return nil, err
	}

	src, inputSize, err := r.openInput()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := src.close(); err != nil {
			r.logger.Warn("closing input failed", "error", err)
		}
	}()

	outputSize := codec.OutputBufSize(inputSize)
	if inputSize > overflowRiskSize {
		r.logger.Warn("incompressible input of this size can overflow the output buffer",
			"input_bytes", inputSize,
			"output_bytes", outputSize,
		)
	}
	r.logger.Debug("starting benchmark",
		"engine", r.engine.Name(),
		"level", cfg.Level,
		"window_bits", cfg.WindowBits,
		"input_bytes", inputSize,
		"output_bytes", outputSize,
		"scratch_bytes", levelBufSize,
		"iterations", cfg.Iterations,
	)

	result := newResult(cfg, r.engine.Name(), inputSize, r.seed)
	if r.recordSamples {
		result.Samples = make([]int64, 0, sampleCapacity(cfg.Iterations))
	}

	var total time.Duration
	for i := 0; i < cfg.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, berrors.Cancelled("run", i, err)
		}

		m, err := r.measureOnce(src, inputSize, outputSize, levelBufSize)
		if err != nil {
			r.logger.Error("iteration failed", "iteration", i, "error", err)
			return nil, err
		}

		total += m.elapsed
		result.OutputBytes = m.totalOut
		if r.recordSamples {
			result.Samples = append(result.Samples, m.elapsed.Nanoseconds())
		}
	}

	result.finish(total, cfg.Iterations)
	r.logger.Debug("benchmark finished",
		"avg_latency_ns", result.AvgLatencyNs,
		"output_bytes", result.OutputBytes,
	)
	return result, nil
}

func sampleCapacity(iterations int) int {
	return min(iterations, maxSamplePrealloc)
}

// measureOnce runs a single iteration. Its three buffers are released before
// it returns, on success and on every failure.
func (r *Runner) measureOnce(src inputSource, inputSize, outputSize, levelBufSize int) (measurement, error) {
	bufs, err := acquireBuffers(inputSize, outputSize, levelBufSize, bufferLimit, &r.liveBuffers)
	if err != nil {
		return measurement{}, err
	}
	defer bufs.release()

	if err := src.fill(bufs.input); err != nil {
		return measurement{}, err
	}

	s := codec.Stream{Engine: r.engine}
	s.Init()
	s.EndOfStream = true
	s.Flush = codec.NoFlush
	s.Input = bufs.input
	s.Output = bufs.output
	s.LevelBuf = bufs.scratch
	s.Level = r.cfg.Level
	s.WindowBits = r.cfg.WindowBits

	start := r.clock.Now()
	status := codec.CompressStateless(&s)
	elapsed := r.clock.Now().Sub(start)

	if status != codec.StatusOK {
		return measurement{}, berrors.CodecFailed(r.engine.Name(), int(status), status.String(), inputSize, s.Err)
	}

	return measurement{elapsed: elapsed, totalOut: s.TotalOut}, nil
}

// openInput resolves the input source and the per-iteration input size. A
// zero configured size with an input file means the whole file.
func (r *Runner) openInput() (inputSource, int, error) {
	cfg := r.cfg

	if cfg.InputFile == "" {
		if cfg.InputSize == 0 {
			return nil, 0, berrors.EmptyInput("")
		}
		return &randomSource{rng: r.rng}, cfg.InputSize, nil
	}

	pool, owned := r.files, false
	if pool == nil {
		pool, owned = fileio.NewPool(), true
	}
	src := &fileSource{pool: pool, id: inputFileID, path: cfg.InputFile, owned: owned}

	if err := pool.Register(inputFileID, cfg.InputFile); err != nil {
		src.close()
		return nil, 0, err
	}

	size, err := pool.Size(inputFileID)
	if err != nil {
		src.close()
		return nil, 0, err
	}
	if size == 0 {
		src.close()
		return nil, 0, berrors.EmptyInput(cfg.InputFile)
	}

	inputSize := cfg.InputSize
	if inputSize == 0 {
		if size > config.MaxInputSize {
			src.close()
			return nil, 0, berrors.AllocationFailed("input", int(size), config.MaxInputSize)
		}
		inputSize = int(size)
	}
	return src, inputSize, nil
}
