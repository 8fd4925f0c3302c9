// igzbench/errors/config.go
package errors

// InvalidLevel 压缩级别不受支持
func InvalidLevel(value string, max int, err error) error {
	return New(ErrInvalidLevel).
		Op("set_level").
		Context("value", value).
		Context("max_level", max).
		Wrap(err).
		Build()
}

// InvalidMode 压缩模式不受支持
func InvalidMode(value string) error {
	return New(ErrInvalidMode).
		Op("set_mode").
		Context("value", value).
		Context("accepted", "stateless, stateful").
		Build()
}

// InvalidBenchmarkType 基准类型不受支持
func InvalidBenchmarkType(value string) error {
	return New(ErrInvalidBenchmarkType).
		Op("set_type").
		Context("value", value).
		Context("accepted", "latency, throughput").
		Build()
}

// InvalidWindowSize 窗口大小越界
func InvalidWindowSize(value string, min, max int, err error) error {
	return New(ErrInvalidWindowSize).
		Op("set_window").
		Context("value", value).
		Context("min_bits", min).
		Context("max_bits", max).
		Wrap(err).
		Build()
}

// InvalidIterations 迭代次数非法
func InvalidIterations(value string, err error) error {
	return New(ErrInvalidIterations).
		Op("set_iterations").
		Context("value", value).
		Context("min", 1).
		Wrap(err).
		Build()
}

// InvalidInputSize 输入大小非法
func InvalidInputSize(value string, max int, err error) error {
	return New(ErrInvalidInputSize).
		Op("set_size").
		Context("value", value).
		Context("max_bytes", max).
		Wrap(err).
		Build()
}

// InvalidEngine 压缩引擎未知
func InvalidEngine(value string, available []string) error {
	return New(ErrInvalidEngine).
		Op("set_engine").
		Context("value", value).
		Context("available", available).
		Build()
}

// UnknownOption 未识别的选项
func UnknownOption(option string) error {
	return New(ErrInvalidArgument).
		Op("set_option").
		Context("option", option).
		Build()
}

// UnsupportedLevelForScratchTable 级别超出 scratch 表的范围
func UnsupportedLevelForScratchTable(level, tableMax int) error {
	return New(ErrUnsupportedLevelForScratchTable).
		Op("level_buf_size").
		Context("level", level).
		Context("table_max_level", tableMax).
		Build()
}
