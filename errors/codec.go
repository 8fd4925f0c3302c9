// igzbench/errors/codec.go
package errors

import "fmt"

// CodecFailed 压缩调用返回非零状态
func CodecFailed(engine string, status int, statusName string, inputSize int, cause error) error {
	return New(ErrCodecFailed).
		Op(fmt.Sprintf("%s_compress_stateless", engine)).
		Context("engine", engine).
		Context("status", status).
		Context("status_name", statusName).
		Context("input_size", inputSize).
		Wrap(cause).
		Severity(SeverityFatal).
		Build()
}
