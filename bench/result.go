// igzbench/bench/result.go
package bench

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/wzqhbustb/igzbench/config"
	berrors "github.com/wzqhbustb/igzbench/errors"
)

// BenchmarkResult 单次基准测试结果
type BenchmarkResult struct {
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`

	// 配置
	Engine     string `json:"engine"`
	Mode       string `json:"mode"`
	Type       string `json:"type"`
	Level      int    `json:"level"`
	WindowBits int    `json:"window_bits"`
	InputFile  string `json:"input_file,omitempty"`
	Seed       int64  `json:"seed,omitempty"`

	// 数据规模
	Iterations  int `json:"iterations"`
	InputBytes  int `json:"input_bytes"`  // 每次迭代的输入大小
	OutputBytes int `json:"output_bytes"` // 最后一次迭代的压缩后大小

	// 性能指标
	TotalNs      int64   `json:"total_ns"`       // 所有迭代的压缩耗时之和
	AvgLatencyNs float64 `json:"avg_latency_ns"` // 平均每次调用纳秒
	AvgLatencyUs float64 `json:"avg_latency_us"` // 平均每次调用微秒

	// 每次迭代的耗时（纳秒），仅在开启采样时记录
	Samples []int64 `json:"samples_ns,omitempty"`

	// 环境信息
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	CPU       string `json:"cpu"`
}

func newResult(cfg *config.BenchmarkConfig, engine string, inputSize int, seed int64) *BenchmarkResult {
	r := &BenchmarkResult{
		RunID:      uuid.New().String(),
		Timestamp:  time.Now(),
		Engine:     engine,
		Mode:       cfg.Mode.String(),
		Type:       cfg.Type.String(),
		Level:      cfg.Level,
		WindowBits: cfg.WindowBits,
		InputFile:  cfg.InputFile,
		InputBytes: inputSize,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		CPU:        fmt.Sprintf("%d cores", runtime.NumCPU()),
	}
	if cfg.InputFile == "" {
		r.Seed = seed
	}
	return r
}

// finish computes the mean over all iterations.
func (r *BenchmarkResult) finish(total time.Duration, iterations int) {
	r.Iterations = iterations
	r.TotalNs = total.Nanoseconds()
	r.AvgLatencyNs = float64(r.TotalNs) / float64(iterations)
	r.AvgLatencyUs = r.AvgLatencyNs / float64(time.Microsecond)
}

// Name identifies results that measure the same configuration; baseline
// comparison matches on it.
func (r *BenchmarkResult) Name() string {
	input := "random"
	if r.InputFile != "" {
		input = filepath.Base(r.InputFile)
	}
	return fmt.Sprintf("%s/level=%d/window=%d/size=%d/input=%s",
		r.Engine, r.Level, r.WindowBits, r.InputBytes, input)
}

// CompressionRatio returns input bytes over output bytes of the last call.
func (r *BenchmarkResult) CompressionRatio() float64 {
	if r.OutputBytes == 0 {
		return 0
	}
	return float64(r.InputBytes) / float64(r.OutputBytes)
}

// ResultSet 基准测试集合
type ResultSet struct {
	Timestamp time.Time          `json:"timestamp"`
	Results   []*BenchmarkResult `json:"results"`
}

// NewResultSet 创建新的结果集
func NewResultSet() *ResultSet {
	return &ResultSet{
		Timestamp: time.Now(),
		Results:   make([]*BenchmarkResult, 0),
	}
}

// Add 添加结果
func (rs *ResultSet) Add(r *BenchmarkResult) {
	rs.Results = append(rs.Results, r)
}

// SaveToFile 保存结果到文件
func (rs *ResultSet) SaveToFile(filename string) error {
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return berrors.IO("save_results", dir, err)
		}
	}

	data, err := json.MarshalIndent(rs, "", "  ")
	if err != nil {
		return berrors.Unknown("marshal_results", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return berrors.IO("save_results", filename, err)
	}
	return nil
}

// LoadFromFile 从文件加载结果
func LoadFromFile(filename string) (*ResultSet, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, berrors.OpenFile(filename, err)
	}

	var rs ResultSet
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, berrors.New(berrors.ErrInvalidArgument).
			Op("load_results").
			Path(filename).
			Wrap(err).
			Build()
	}
	return &rs, nil
}

// Compare 比较两个结果集，返回性能变化
func (rs *ResultSet) Compare(baseline *ResultSet) *ComparisonReport {
	return CompareResults(baseline, rs)
}
