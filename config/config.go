// Package config holds the benchmark parameters: defaults, per-option
// parsing and validation, YAML loading and the human-readable dump printed
// before a run.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wzqhbustb/igzbench/codec"
	berrors "github.com/wzqhbustb/igzbench/errors"
)

// MaxInputSize caps the per-iteration input buffer.
const MaxInputSize = 1 << 30

// Defaults.
const (
	DefaultLevel      = 0
	DefaultInputSize  = 1024
	DefaultWindowBits = 15
	DefaultIterations = 1000
	DefaultEngine     = "deflate"
)

// Mode selects the compression call pattern.
type Mode int

const (
	Stateless Mode = iota
	Stateful
)

func (m Mode) String() string {
	switch m {
	case Stateless:
		return "STATELESS"
	case Stateful:
		return "STATEFUL"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "stateless" or "stateful", ignoring case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stateless":
		return Stateless, nil
	case "stateful":
		return Stateful, nil
	}
	return 0, berrors.InvalidMode(s)
}

func (m Mode) MarshalYAML() (interface{}, error) {
	return strings.ToLower(m.String()), nil
}

func (m *Mode) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseMode(node.Value)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// BenchmarkType selects the reported metric.
type BenchmarkType int

const (
	Latency BenchmarkType = iota
	Throughput
)

func (t BenchmarkType) String() string {
	switch t {
	case Latency:
		return "LATENCY"
	case Throughput:
		return "THROUGHPUT"
	default:
		return fmt.Sprintf("BenchmarkType(%d)", int(t))
	}
}

// ParseBenchmarkType parses "latency" or "throughput", ignoring case.
func ParseBenchmarkType(s string) (BenchmarkType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "latency":
		return Latency, nil
	case "throughput":
		return Throughput, nil
	}
	return 0, berrors.InvalidBenchmarkType(s)
}

func (t BenchmarkType) MarshalYAML() (interface{}, error) {
	return strings.ToLower(t.String()), nil
}

func (t *BenchmarkType) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseBenchmarkType(node.Value)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// BenchmarkConfig 基准测试配置
//
// The value is built once by the caller and treated as read-only by the
// runner.
type BenchmarkConfig struct {
	// 压缩参数
	Level      int `json:"level" yaml:"level" validate:"gte=0,lte=3"`
	WindowBits int `json:"window_bits" yaml:"window_bits" validate:"gte=9,lte=15"`

	// 输入
	InputSize int    `json:"input_size" yaml:"input_size" validate:"gte=0,lte=1073741824"`
	InputFile string `json:"input_file,omitempty" yaml:"input_file,omitempty"`

	// 运行方式
	Mode       Mode          `json:"mode" yaml:"mode"`
	Type       BenchmarkType `json:"type" yaml:"type"`
	Iterations int           `json:"iterations" yaml:"iterations" validate:"gte=1"`

	// 压缩引擎，见 codec.Engines
	Engine string `json:"engine" yaml:"engine" validate:"required,engine"`

	// 随机输入的种子，0 表示使用启动时间
	Seed int64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// Default 返回默认配置
func Default() *BenchmarkConfig {
	return &BenchmarkConfig{
		Level:      DefaultLevel,
		WindowBits: DefaultWindowBits,
		InputSize:  DefaultInputSize,
		Mode:       Stateless,
		Type:       Latency,
		Iterations: DefaultIterations,
		Engine:     DefaultEngine,
	}
}

// Option names accepted by Set.
const (
	OptLevel      = "level"
	OptMode       = "mode"
	OptType       = "type"
	OptSize       = "size"
	OptWindow     = "window"
	OptIterations = "iterations"
	OptFile       = "file"
	OptEngine     = "engine"
	OptSeed       = "seed"
)

// Options lists every option Set understands.
var Options = []string{
	OptLevel, OptMode, OptType, OptSize, OptWindow, OptIterations, OptFile, OptEngine, OptSeed,
}

// Set parses value for option and stores it. Semantically invalid values are
// rejected with the matching error code and leave the config unchanged.
func (c *BenchmarkConfig) Set(option, value string) error {
	switch option {
	case OptLevel:
		n, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
		if err != nil || n > codec.MaxLevel {
			return berrors.InvalidLevel(value, codec.MaxLevel, err)
		}
		c.Level = int(n)

	case OptMode:
		m, err := ParseMode(value)
		if err != nil {
			return err
		}
		c.Mode = m

	case OptType:
		t, err := ParseBenchmarkType(value)
		if err != nil {
			return err
		}
		c.Type = t

	case OptSize:
		n, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
		if err != nil || n > MaxInputSize {
			return berrors.InvalidInputSize(value, MaxInputSize, err)
		}
		c.InputSize = int(n)

	case OptWindow:
		n, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
		if err != nil || n < codec.MinWindowBits || n > codec.MaxWindowBits {
			return berrors.InvalidWindowSize(value, codec.MinWindowBits, codec.MaxWindowBits, err)
		}
		c.WindowBits = int(n)

	case OptIterations:
		n, err := strconv.ParseUint(strings.TrimSpace(value), 10, 31)
		if err != nil || n < 1 {
			return berrors.InvalidIterations(value, err)
		}
		c.Iterations = int(n)

	case OptFile:
		c.InputFile = value

	case OptEngine:
		name := strings.ToLower(strings.TrimSpace(value))
		if _, ok := codec.Lookup(name); !ok {
			return berrors.InvalidEngine(value, codec.Engines())
		}
		c.Engine = name

	case OptSeed:
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return berrors.New(berrors.ErrInvalidArgument).
				Op("set_seed").
				Context("value", value).
				Wrap(err).
				Build()
		}
		c.Seed = n

	default:
		return berrors.UnknownOption(option)
	}
	return nil
}

// LevelBufSize returns the scratch buffer size for the configured level.
func (c *BenchmarkConfig) LevelBufSize() (int, error) {
	return codec.LevelBufSize(c.Level)
}

// Load reads a YAML file on top of the defaults. Options missing from the
// file keep their default values.
func Load(path string) (*BenchmarkConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, berrors.OpenFile(path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if berrors.GetCode(err) != berrors.ErrUnknown {
			return nil, err
		}
		return nil, berrors.New(berrors.ErrInvalidArgument).
			Op("load_config").
			Path(path).
			Wrap(err).
			Build()
	}
	cfg.Engine = strings.ToLower(cfg.Engine)
	return cfg, nil
}

// Dump writes the resolved configuration in human-readable form.
func (c *BenchmarkConfig) Dump(w io.Writer) {
	fmt.Fprintf(w, "Benchmark options:\n\n")
	fmt.Fprintf(w, "Compression Engine: %s\n", c.Engine)
	fmt.Fprintf(w, "Compression Mode: %s\n", c.Mode)
	fmt.Fprintf(w, "Benchmark Type: %s\n", c.Type)
	fmt.Fprintf(w, "Compression Level: %d\n", c.Level)
	fmt.Fprintf(w, "Compression Window Size: %d\n", c.WindowBits)
	if c.InputFile != "" && c.InputSize == 0 {
		fmt.Fprintf(w, "Input Buffer Size: file size\n")
	} else {
		fmt.Fprintf(w, "Input Buffer Size: %d\n", c.InputSize)
	}
	if c.InputFile != "" {
		fmt.Fprintf(w, "Input File: %s\n", c.InputFile)
	} else {
		fmt.Fprintf(w, "Input File: (random data)\n")
	}
	fmt.Fprintf(w, "Iterations: %d\n", c.Iterations)
	fmt.Fprintf(w, "\n")
}
