package xmetrics

import "errors"

// NewOTelObserver 与 RegisterGauges 返回的错误。
var (
	// ErrCreateCounter 表示创建 OTel Counter 失败。
	ErrCreateCounter = errors.New("xmetrics: create counter failed")
	// ErrCreateHistogram 表示创建 OTel Histogram 失败。
	ErrCreateHistogram = errors.New("xmetrics: create histogram failed")
	// ErrCreateGauge 表示创建或注册 OTel 异步 Gauge 失败。
	ErrCreateGauge = errors.New("xmetrics: create gauge failed")
	// ErrInvalidGauge 表示 Gauge 缺少名称或取值函数。
	ErrInvalidGauge = errors.New("xmetrics: invalid gauge")
)
