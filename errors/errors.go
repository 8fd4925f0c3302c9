// igzbench/errors/errors.go
package errors

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ErrorCode 错误分类码
type ErrorCode int

const (
	// 通用错误
	ErrUnknown ErrorCode = iota
	ErrInvalidArgument
	ErrNotImplemented
	ErrCancelled

	// 配置错误
	ErrInvalidLevel
	ErrInvalidMode
	ErrInvalidBenchmarkType
	ErrInvalidWindowSize
	ErrInvalidIterations
	ErrInvalidInputSize
	ErrInvalidEngine

	// 资源错误
	ErrUnsupportedLevelForScratchTable
	ErrAllocationFailed
	ErrEmptyInput

	// I/O 错误
	ErrIO
	ErrFileNotFound
	ErrUnexpectedEOF

	// 编解码错误
	ErrCodecFailed
)

var codeNames = map[ErrorCode]string{
	ErrUnknown:                         "Unknown",
	ErrInvalidArgument:                 "InvalidArgument",
	ErrNotImplemented:                  "NotImplemented",
	ErrCancelled:                       "Cancelled",
	ErrInvalidLevel:                    "InvalidLevel",
	ErrInvalidMode:                     "InvalidMode",
	ErrInvalidBenchmarkType:            "InvalidBenchmarkType",
	ErrInvalidWindowSize:               "InvalidWindowSize",
	ErrInvalidIterations:               "InvalidIterations",
	ErrInvalidInputSize:                "InvalidInputSize",
	ErrInvalidEngine:                   "InvalidEngine",
	ErrUnsupportedLevelForScratchTable: "UnsupportedLevelForScratchTable",
	ErrAllocationFailed:                "AllocationFailed",
	ErrEmptyInput:                      "EmptyInput",
	ErrIO:                              "IO",
	ErrFileNotFound:                    "FileNotFound",
	ErrUnexpectedEOF:                   "UnexpectedEOF",
	ErrCodecFailed:                     "CodecFailed",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", c)
}

// IsConfig reports whether the code belongs to the configuration category.
func (c ErrorCode) IsConfig() bool {
	switch c {
	case ErrInvalidArgument, ErrInvalidLevel, ErrInvalidMode, ErrInvalidBenchmarkType,
		ErrInvalidWindowSize, ErrInvalidIterations, ErrInvalidInputSize, ErrInvalidEngine,
		ErrUnsupportedLevelForScratchTable:
		return true
	}
	return false
}

// ErrorSeverity 错误严重程度
type ErrorSeverity int

const (
	SeverityWarning ErrorSeverity = iota // 可忽略
	SeverityError                        // 本次运行失败
	SeverityFatal                        // 进程应当立即退出
)

// BenchError 基础错误结构
type BenchError struct {
	Code     ErrorCode              // 错误码
	Severity ErrorSeverity          // 严重程度
	Op       string                 // 操作描述（如 "set_level", "fill_from_file"）
	Path     string                 // 关联文件路径
	Err      error                  // 原始错误（错误链）
	Context  map[string]interface{} // 额外上下文
}

func (e *BenchError) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("[%s:%s]", e.Code, e.Op))

	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("path=%s", e.Path))
	}

	if len(e.Context) > 0 {
		parts = append(parts, "context="+formatContext(e.Context))
	}

	if e.Err != nil {
		parts = append(parts, fmt.Sprintf("cause=%v", e.Err))
	}

	return "bench error: " + strings.Join(parts, " | ")
}

// formatContext renders keys in sorted order so messages are stable.
func formatContext(ctx map[string]interface{}) string {
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s=%v", k, ctx[k])
	}
	sb.WriteByte('}')
	return sb.String()
}

// Unwrap 支持 errors.As/Is
func (e *BenchError) Unwrap() error {
	return e.Err
}

// ErrorBuilder Builder 模式构造错误
type ErrorBuilder struct {
	err *BenchError
}

func New(code ErrorCode) *ErrorBuilder {
	return &ErrorBuilder{
		err: &BenchError{
			Code:     code,
			Severity: SeverityError,
			Context:  make(map[string]interface{}),
		},
	}
}

func (b *ErrorBuilder) Op(op string) *ErrorBuilder {
	b.err.Op = op
	return b
}

func (b *ErrorBuilder) Path(path string) *ErrorBuilder {
	b.err.Path = path
	return b
}

func (b *ErrorBuilder) Wrap(err error) *ErrorBuilder {
	b.err.Err = err
	return b
}

func (b *ErrorBuilder) Severity(s ErrorSeverity) *ErrorBuilder {
	b.err.Severity = s
	return b
}

func (b *ErrorBuilder) Context(key string, value interface{}) *ErrorBuilder {
	b.err.Context[key] = value
	return b
}

func (b *ErrorBuilder) Build() error {
	return b.err
}

// 便捷构造函数

// Unknown 创建未知错误
func Unknown(op string, err error) error {
	return New(ErrUnknown).Op(op).Wrap(err).Build()
}

// InvalidArg 创建参数错误
func InvalidArg(op string, msg string) error {
	return New(ErrInvalidArgument).Op(op).Context("message", msg).Build()
}

// NotImplemented 功能未实现
func NotImplemented(op string, what string) error {
	return New(ErrNotImplemented).
		Op(op).
		Context("feature", what).
		Build()
}

// Cancelled 运行被取消
func Cancelled(op string, completed int, err error) error {
	return New(ErrCancelled).
		Op(op).
		Context("completed_iterations", completed).
		Wrap(err).
		Build()
}

// IO 创建IO错误
func IO(op string, path string, err error) error {
	code := ErrIO
	if errors.Is(err, io.ErrUnexpectedEOF) {
		code = ErrUnexpectedEOF
	}
	return New(code).Op(op).Path(path).Wrap(err).Severity(SeverityFatal).Build()
}

// Is 判断错误是否属于某类错误码
// errors.Join 组合的错误也会被逐个检查
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if Is(e, code) {
				return true
			}
		}
		return false
	}

	var be *BenchError
	if errors.As(err, &be) {
		if be.Code == code {
			return true
		}
		if be.Err != nil {
			return Is(be.Err, code)
		}
	}

	return false
}

// IsAny 判断是否属于任何一类错误码
func IsAny(err error, codes ...ErrorCode) bool {
	for _, code := range codes {
		if Is(err, code) {
			return true
		}
	}
	return false
}

// IsConfig 判断是否为配置类错误（包括 errors.Join 组合的错误）
func IsConfig(err error) bool {
	if err == nil {
		return false
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if !IsConfig(e) {
				return false
			}
		}
		return true
	}
	return GetCode(err).IsConfig()
}

// IsFatal 判断错误是否致命
func IsFatal(err error) bool {
	var be *BenchError
	if errors.As(err, &be) {
		return be.Severity == SeverityFatal
	}
	return false
}

// GetCode 获取错误码（如果不是BenchError返回ErrUnknown）
func GetCode(err error) ErrorCode {
	var be *BenchError
	if errors.As(err, &be) {
		return be.Code
	}
	return ErrUnknown
}
