package xconf

import "errors"

var (
	// ErrEmptyPath 配置文件路径为空。
	ErrEmptyPath = errors.New("xconf: empty config path")

	// ErrUnsupportedFormat 不支持的配置格式。
	ErrUnsupportedFormat = errors.New("xconf: unsupported config format")

	// ErrLoadFailed 读取配置文件失败。
	ErrLoadFailed = errors.New("xconf: failed to load config")

	// ErrParseFailed 解析配置内容失败。
	ErrParseFailed = errors.New("xconf: failed to parse config")

	// ErrUnmarshalFailed 反序列化到目标结构体失败。
	ErrUnmarshalFailed = errors.New("xconf: failed to unmarshal config")

	// ErrNotFileBacked 配置不是从文件加载的，无法 Reload/Watch。
	ErrNotFileBacked = errors.New("xconf: config is not file backed")

	// ErrNilCallback Watch 的回调为 nil。
	ErrNilCallback = errors.New("xconf: nil watch callback")

	// ErrWatchFailed 文件监视出错。
	ErrWatchFailed = errors.New("xconf: watch failed")
)
