package bench

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wzqhbustb/igzbench/codec"
	"github.com/wzqhbustb/igzbench/config"
	berrors "github.com/wzqhbustb/igzbench/errors"
	"github.com/wzqhbustb/igzbench/fileio"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// stepClock advances by a fixed step on every reading, so every measured
// call appears to take exactly step.
type stepClock struct {
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// recordingEngine copies its input to the output and remembers what it saw.
type recordingEngine struct {
	inputs [][]byte
	params []codec.Params
	err    error
}

func (e *recordingEngine) Name() string { return "recording" }

func (e *recordingEngine) Compress(dst, src []byte, p codec.Params) (int, error) {
	e.inputs = append(e.inputs, append([]byte(nil), src...))
	e.params = append(e.params, p)
	if e.err != nil {
		return 0, e.err
	}
	if len(src) > len(dst) {
		return 0, codec.ErrShortBuffer
	}
	return copy(dst, src), nil
}

func testConfig(iterations int) *config.BenchmarkConfig {
	cfg := config.Default()
	cfg.Iterations = iterations
	cfg.Seed = 42
	return cfg
}

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.bin")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestRunner_MeanOfConstantElapsed(t *testing.T) {
	for _, iterations := range []int{1, 7, 1000} {
		cfg := testConfig(iterations)
		clock := &stepClock{now: time.Unix(1700000000, 999999900), step: 250 * time.Nanosecond}

		r, err := NewRunner(cfg, WithClock(clock), WithLogger(quietLogger), WithEngine(&recordingEngine{}))
		require.NoError(t, err)

		result, err := r.Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, float64(250), result.AvgLatencyNs, "iterations=%d", iterations)
		assert.Equal(t, 0.25, result.AvgLatencyUs)
		assert.Equal(t, int64(250*iterations), result.TotalNs)
		assert.Equal(t, iterations, result.Iterations)
	}
}

// Elapsed time spanning a whole-second boundary must still be the true
// duration.
func TestRunner_ElapsedAcrossSecondBoundary(t *testing.T) {
	cfg := testConfig(1)
	clock := &stepClock{now: time.Unix(1700000000, 900000000), step: 1200 * time.Millisecond}

	r, err := NewRunner(cfg, WithClock(clock), WithLogger(quietLogger), WithEngine(&recordingEngine{}))
	require.NoError(t, err)

	result, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float64(1200*time.Millisecond), result.AvgLatencyNs)
}

func TestRunner_StreamParameters(t *testing.T) {
	cfg := testConfig(3)
	cfg.Level = 2
	cfg.WindowBits = 11
	cfg.InputSize = 300

	engine := &recordingEngine{}
	r, err := NewRunner(cfg, WithLogger(quietLogger), WithEngine(engine))
	require.NoError(t, err)

	result, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, engine.params, 3)
	for _, p := range engine.params {
		assert.Equal(t, codec.Params{Level: 2, WindowBits: 11, Flush: codec.NoFlush, Final: true}, p)
	}
	for _, in := range engine.inputs {
		assert.Len(t, in, 300)
	}
	assert.Equal(t, 300, result.InputBytes)
	assert.Equal(t, 300, result.OutputBytes)
	assert.Equal(t, "recording", result.Engine)
	assert.Equal(t, 0, r.liveBuffers)
}

func TestRunner_RandomInputSeededOncePerRunner(t *testing.T) {
	cfg := testConfig(2)
	cfg.InputSize = 64

	engine := &recordingEngine{}
	r, err := NewRunner(cfg, WithLogger(quietLogger), WithEngine(engine))
	require.NoError(t, err)
	_, err = r.Run(context.Background())
	require.NoError(t, err)

	// Same seed, fresh generator: the first buffer repeats, the second one
	// continues the sequence rather than restarting it.
	rng := rand.New(rand.NewSource(42))
	first := make([]byte, 64)
	second := make([]byte, 64)
	FillRandom(rng, first)
	FillRandom(rng, second)

	require.Len(t, engine.inputs, 2)
	assert.Equal(t, first, engine.inputs[0])
	assert.Equal(t, second, engine.inputs[1])
	assert.NotEqual(t, engine.inputs[0], engine.inputs[1])
}

func TestRunner_RealEngines(t *testing.T) {
	for _, name := range codec.Engines() {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig(5)
			cfg.Engine = name
			cfg.Level = 1
			cfg.InputSize = 4096

			var outputs []int
			for i := 0; i < 2; i++ {
				r, err := NewRunner(cfg, WithLogger(quietLogger), WithSamples(true))
				require.NoError(t, err)

				result, err := r.Run(context.Background())
				require.NoError(t, err)

				assert.Greater(t, result.OutputBytes, 0)
				assert.LessOrEqual(t, result.OutputBytes, codec.OutputBufSize(cfg.InputSize))
				assert.Len(t, result.Samples, cfg.Iterations)
				assert.Greater(t, result.TotalNs, int64(0))
				assert.Equal(t, int64(42), result.Seed)
				outputs = append(outputs, result.OutputBytes)
			}
			assert.Equal(t, outputs[0], outputs[1], "fixed seed must give the same compressed size")
		})
	}
}

func TestRunner_FileInputIsRepeatedCyclically(t *testing.T) {
	content := []byte("0123456789")
	cfg := testConfig(2)
	cfg.InputFile = writeFile(t, content)
	cfg.InputSize = 25

	engine := &recordingEngine{}
	r, err := NewRunner(cfg, WithLogger(quietLogger), WithEngine(engine))
	require.NoError(t, err)

	result, err := r.Run(context.Background())
	require.NoError(t, err)

	want := []byte("0123456789012345678901234")
	require.Len(t, engine.inputs, 2)
	assert.Equal(t, want, engine.inputs[0])
	assert.Equal(t, want, engine.inputs[1], "each iteration reads from the start of the file")
	assert.Equal(t, 25, result.InputBytes)
	assert.Equal(t, int64(0), result.Seed)
}

func TestRunner_FileSizeUsedWhenSizeIsZero(t *testing.T) {
	content := bytes.Repeat([]byte("abc"), 100)
	cfg := testConfig(1)
	cfg.InputFile = writeFile(t, content)
	cfg.InputSize = 0

	engine := &recordingEngine{}
	r, err := NewRunner(cfg, WithLogger(quietLogger), WithEngine(engine))
	require.NoError(t, err)

	result, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 300, result.InputBytes)
	assert.Equal(t, content, engine.inputs[0])
}

func TestRunner_EmptyFile(t *testing.T) {
	cfg := testConfig(1)
	cfg.Level = 0
	cfg.InputSize = 0
	cfg.InputFile = writeFile(t, nil)

	engine := &recordingEngine{}
	r, err := NewRunner(cfg, WithLogger(quietLogger), WithEngine(engine))
	require.NoError(t, err)

	_, err = r.Run(context.Background())
	require.Error(t, err)
	assert.True(t, berrors.Is(err, berrors.ErrEmptyInput), "%v", err)
	assert.Empty(t, engine.inputs)

	// A non-zero size does not make an empty file usable.
	cfg.InputSize = 16
	r, err = NewRunner(cfg, WithLogger(quietLogger), WithEngine(engine))
	require.NoError(t, err)
	_, err = r.Run(context.Background())
	assert.True(t, berrors.Is(err, berrors.ErrEmptyInput), "%v", err)
}

func TestRunner_ZeroSizeRandomInput(t *testing.T) {
	cfg := testConfig(1)
	cfg.InputSize = 0

	r, err := NewRunner(cfg, WithLogger(quietLogger))
	require.NoError(t, err)
	_, err = r.Run(context.Background())
	assert.True(t, berrors.Is(err, berrors.ErrEmptyInput), "%v", err)
}

func TestRunner_MissingFile(t *testing.T) {
	cfg := testConfig(1)
	cfg.InputFile = filepath.Join(t.TempDir(), "missing.bin")

	r, err := NewRunner(cfg, WithLogger(quietLogger))
	require.NoError(t, err)
	_, err = r.Run(context.Background())
	assert.True(t, berrors.Is(err, berrors.ErrFileNotFound), "%v", err)
}

func TestRunner_NotImplementedCombinations(t *testing.T) {
	tests := []struct {
		mode config.Mode
		typ  config.BenchmarkType
	}{
		{config.Stateful, config.Latency},
		{config.Stateless, config.Throughput},
		{config.Stateful, config.Throughput},
	}

	for _, tt := range tests {
		cfg := testConfig(1)
		cfg.Mode = tt.mode
		cfg.Type = tt.typ

		engine := &recordingEngine{}
		r, err := NewRunner(cfg, WithLogger(quietLogger), WithEngine(engine))
		require.NoError(t, err)

		result, err := r.Run(context.Background())
		assert.Nil(t, result)
		assert.True(t, berrors.Is(err, berrors.ErrNotImplemented), "%s/%s: %v", tt.mode, tt.typ, err)
		assert.Empty(t, engine.inputs)
	}
}

func TestRunner_CodecFailureReleasesBuffers(t *testing.T) {
	tests := []struct {
		name       string
		engineErr  error
		wantStatus codec.Status
	}{
		{"overflow", codec.ErrShortBuffer, codec.StatusOverflow},
		{"backend error", errors.New("boom"), codec.StatusInvalidOperation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(10)
			engine := &recordingEngine{err: tt.engineErr}

			r, err := NewRunner(cfg, WithLogger(quietLogger), WithEngine(engine))
			require.NoError(t, err)

			_, err = r.Run(context.Background())
			require.Error(t, err)
			assert.True(t, berrors.Is(err, berrors.ErrCodecFailed), "%v", err)
			assert.True(t, berrors.IsFatal(err))

			var be *berrors.BenchError
			require.True(t, errors.As(err, &be))
			assert.Equal(t, int(tt.wantStatus), be.Context["status"])
			assert.ErrorIs(t, err, tt.engineErr)

			assert.Len(t, engine.inputs, 1, "no retry after a codec failure")
			assert.Equal(t, 0, r.liveBuffers, "buffers must be released on the failure path")
		})
	}
}

func TestRunner_LevelOutsideScratchTable(t *testing.T) {
	cfg := testConfig(1)
	cfg.Level = codec.MaxLevel + 1

	engine := &recordingEngine{}
	r, err := NewRunner(cfg, WithLogger(quietLogger), WithEngine(engine))
	require.NoError(t, err)

	_, err = r.Run(context.Background())
	assert.True(t, berrors.Is(err, berrors.ErrUnsupportedLevelForScratchTable), "%v", err)
	assert.Empty(t, engine.inputs)
	assert.Equal(t, 0, r.liveBuffers)
}

func TestRunner_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := &recordingEngine{}
	r, err := NewRunner(testConfig(5), WithLogger(quietLogger), WithEngine(engine))
	require.NoError(t, err)

	_, err = r.Run(ctx)
	assert.True(t, berrors.Is(err, berrors.ErrCancelled), "%v", err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, engine.inputs)
}

func TestRunner_SharedFilePoolStaysOpen(t *testing.T) {
	cfg := testConfig(3)
	cfg.InputFile = writeFile(t, []byte("shared pool input"))

	pool := fileio.NewPool()
	defer pool.Close()

	r, err := NewRunner(cfg, WithLogger(quietLogger), WithFilePool(pool), WithEngine(&recordingEngine{}))
	require.NoError(t, err)
	_, err = r.Run(context.Background())
	require.NoError(t, err)

	stats := pool.Stats()
	assert.Equal(t, 1, stats.TotalFiles)
	assert.Equal(t, 0, stats.TotalReferences)
}

func TestNewRunner_UnknownEngine(t *testing.T) {
	cfg := testConfig(1)
	cfg.Engine = "lzma"

	_, err := NewRunner(cfg)
	assert.True(t, berrors.Is(err, berrors.ErrInvalidEngine), "%v", err)
}

func TestNewRunner_NilConfigUsesDefaults(t *testing.T) {
	r, err := NewRunner(nil, WithLogger(quietLogger))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultIterations, r.cfg.Iterations)
	assert.Equal(t, "deflate", r.engine.Name())
	assert.NotZero(t, r.seed)
}

// BenchmarkRunner_Iteration 测试一次迭代（含缓冲区分配与填充）的开销
func BenchmarkRunner_Iteration(b *testing.B) {
	cfg := testConfig(1)
	cfg.InputSize = 64 * 1024

	r, err := NewRunner(cfg, WithLogger(quietLogger))
	if err != nil {
		b.Fatal(err)
	}
	src := &randomSource{rng: r.rng}
	levelBufSize, _ := cfg.LevelBufSize()

	b.SetBytes(int64(cfg.InputSize))
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := r.measureOnce(src, cfg.InputSize, codec.OutputBufSize(cfg.InputSize), levelBufSize); err != nil {
			b.Fatal(err)
		}
	}
}

func TestRunner_SuppliedGenerator(t *testing.T) {
	cfg := testConfig(2)
	cfg.InputSize = 32

	engine := &recordingEngine{}
	r, err := NewRunner(cfg, WithLogger(quietLogger), WithEngine(engine),
		WithRand(rand.New(rand.NewSource(7))))
	require.NoError(t, err)
	result, err := r.Run(context.Background())
	require.NoError(t, err)

	want := rand.New(rand.NewSource(7))
	for i, got := range engine.inputs {
		expected := make([]byte, 32)
		FillRandom(want, expected)
		assert.Equal(t, expected, got, "iteration %d", i)
	}
	assert.Zero(t, result.Seed, "the configured seed is not used with a supplied generator")
}

func TestRunner_WarnsOnOverflowProneSize(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	cfg := testConfig(1)
	cfg.InputSize = overflowRiskSize + 1

	r, err := NewRunner(cfg, WithLogger(logger), WithEngine(&recordingEngine{}))
	require.NoError(t, err)
	_, err = r.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "can overflow the output buffer")

	logs.Reset()
	cfg.InputSize = overflowRiskSize
	r, err = NewRunner(cfg, WithLogger(logger), WithEngine(&recordingEngine{}))
	require.NoError(t, err)
	_, err = r.Run(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, logs.String(), "can overflow the output buffer")
}

func TestSampleCapacity(t *testing.T) {
	assert.Equal(t, 3, sampleCapacity(3))
	assert.Equal(t, maxSamplePrealloc, sampleCapacity(maxSamplePrealloc))
	assert.Equal(t, maxSamplePrealloc, sampleCapacity(1<<31-1))

	cfg := testConfig(maxSamplePrealloc + 10)
	cfg.InputSize = 1
	r, err := NewRunner(cfg, WithLogger(quietLogger), WithEngine(&recordingEngine{}), WithSamples(true))
	require.NoError(t, err)
	result, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.Samples, cfg.Iterations)
}
