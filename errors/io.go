// igzbench/errors/io.go
package errors

import (
	"os"
)

// FileNotFound 文件不存在
func FileNotFound(path string, err error) error {
	return New(ErrFileNotFound).
		Op("open_file").
		Path(path).
		Wrap(err).
		Severity(SeverityFatal).
		Build()
}

// OpenFile 打开文件失败，区分文件不存在
func OpenFile(path string, err error) error {
	if os.IsNotExist(err) {
		return FileNotFound(path, err)
	}
	return IO("open_file", path, err)
}

// EmptyInput 输入为空，无法进行基准测试
func EmptyInput(path string) error {
	b := New(ErrEmptyInput).Op("resolve_input")
	if path != "" {
		b = b.Path(path).Context("reason", "input file is empty")
	} else {
		b = b.Context("reason", "input size is zero")
	}
	return b.Severity(SeverityFatal).Build()
}

// AllocationFailed 缓冲区分配失败
func AllocationFailed(buffer string, size, limit int) error {
	return New(ErrAllocationFailed).
		Op("acquire_buffer").
		Context("buffer", buffer).
		Context("requested_bytes", size).
		Context("limit_bytes", limit).
		Severity(SeverityFatal).
		Build()
}
