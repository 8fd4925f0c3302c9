package bench

import (
	"context"

	"github.com/wzqhbustb/igzbench/config"
)

// SweepConfig 扫描配置：对每个组合各运行一次基准测试
//
// Empty dimensions keep the base configuration's value.
type SweepConfig struct {
	// 压缩引擎，如 ["deflate", "zstd"]
	Engines []string

	// 压缩级别，如 [0, 1, 2, 3]
	Levels []int

	// 每次迭代的输入大小，如 [1024, 65536]
	InputSizes []int
}

// Empty reports whether the sweep has no dimension set.
func (s SweepConfig) Empty() bool {
	return len(s.Engines) == 0 && len(s.Levels) == 0 && len(s.InputSizes) == 0
}

// Expand returns one validated configuration per combination, engines
// outermost and input sizes innermost.
func (s SweepConfig) Expand(base *config.BenchmarkConfig) ([]*config.BenchmarkConfig, error) {
	engines := s.Engines
	if len(engines) == 0 {
		engines = []string{base.Engine}
	}
	levels := s.Levels
	if len(levels) == 0 {
		levels = []int{base.Level}
	}
	sizes := s.InputSizes
	if len(sizes) == 0 {
		sizes = []int{base.InputSize}
	}

	out := make([]*config.BenchmarkConfig, 0, len(engines)*len(levels)*len(sizes))
	for _, engine := range engines {
		for _, level := range levels {
			for _, size := range sizes {
				cfg := *base
				cfg.Engine = engine
				cfg.Level = level
				cfg.InputSize = size
				if err := cfg.Validate(); err != nil {
					return nil, err
				}
				out = append(out, &cfg)
			}
		}
	}
	return out, nil
}

// RunSweep runs every combination of sweep over base and collects the
// results. The first failing run aborts the sweep.
func RunSweep(ctx context.Context, base *config.BenchmarkConfig, sweep SweepConfig, opts ...Option) (*ResultSet, error) {
	cfgs, err := sweep.Expand(base)
	if err != nil {
		return nil, err
	}

	rs := NewResultSet()
	for _, cfg := range cfgs {
		runner, err := NewRunner(cfg, opts...)
		if err != nil {
			return nil, err
		}
		result, err := runner.Run(ctx)
		if err != nil {
			return nil, err
		}
		rs.Add(result)
	}
	return rs, nil
}
